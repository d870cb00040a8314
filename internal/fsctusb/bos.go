package fsctusb

import (
	"encoding/binary"

	"github.com/google/gousb"
	"github.com/google/uuid"

	"github.com/HEM-RnD/fsct-host-sub000/internal/fsctcore"
)

// FSCTUUID is the fixed BOS platform-capability UUID that marks a device as
// FSCT-capable: c433beeb-8d00-4420-9515-bcb7faf38a41.
var FSCTUUID = uuid.MustParse("c433beeb-8d00-4420-9515-bcb7faf38a41")

const fsctCapabilityDescriptorVersion = 0x0100

const (
	bosHeaderLength = 5
	devCapHeaderLen = 4
	platformUUIDLen = 16
)

// FSCTCapability is the decoded payload of the FSCT platform capability
// found inside a device's BOS descriptor.
type FSCTCapability struct {
	CapabilityDescriptorVersion uint16
	VendorSubClassNumber        uint8
}

// FindFSCTCapability runs the BOS finder (C1): fetches the BOS descriptor
// (header first, then full block), walks its device-capability descriptors
// looking for the Platform capability whose UUID matches FSCTUUID, and
// decodes its payload. Devices reporting USB ≤ 2.00 are rejected outright.
func FindFSCTCapability(dev *gousb.Device) (*FSCTCapability, error) {
	if USBVersionTooOld(dev) {
		return nil, fsctcore.NewProtocolError("BOS unavailable: USB version %s is ≤ 2.00", fmtBCD(dev.Desc.Spec))
	}

	header, err := getDescriptor(dev, uint8(gousb.ControlDevice), descriptorTypeBOS, 0, bosHeaderLength)
	if err != nil {
		return nil, err
	}
	if len(header) < bosHeaderLength {
		return nil, fsctcore.NewProtocolError("BOS descriptor header too short (%d bytes)", len(header))
	}
	if header[1] != descriptorTypeBOS {
		return nil, fsctcore.NewProtocolError("unexpected descriptor type 0x%02x reading BOS", header[1])
	}
	totalLength := binary.LittleEndian.Uint16(header[2:4])
	numCaps := header[4]

	full, err := getDescriptor(dev, uint8(gousb.ControlDevice), descriptorTypeBOS, 0, int(totalLength))
	if err != nil {
		return nil, err
	}
	if len(full) < int(totalLength) {
		return nil, fsctcore.NewProtocolError("BOS descriptor truncated: wanted %d, got %d", totalLength, len(full))
	}

	offset := bosHeaderLength
	for capIdx := 0; capIdx < int(numCaps) && offset < len(full); capIdx++ {
		if offset+devCapHeaderLen > len(full) {
			return nil, fsctcore.NewProtocolError("BOS capability descriptor truncated at offset %d", offset)
		}
		capLen := int(full[offset])
		capType := full[offset+1]
		devCapType := full[offset+2]
		if capLen < devCapHeaderLen || offset+capLen > len(full) {
			return nil, fsctcore.NewProtocolError("malformed BOS capability length %d at offset %d", capLen, offset)
		}
		if capType != descriptorTypeDeviceCapability {
			return nil, fsctcore.NewProtocolError("unexpected device capability descriptor type 0x%02x", capType)
		}
		if devCapType == devCapTypePlatform {
			if cap, ok, err := decodePlatformCapability(full[offset : offset+capLen]); err != nil {
				return nil, err
			} else if ok {
				return cap, nil
			}
		}
		offset += capLen
	}

	return nil, fsctcore.ErrFSCTCapabilityNotPresent
}

// decodePlatformCapability decodes a single Platform device-capability
// descriptor. ok is false (with a nil error) when the platform UUID doesn't
// match FSCTUUID — that's simply not our capability, not a malformed one.
func decodePlatformCapability(desc []byte) (*FSCTCapability, bool, error) {
	const platformHeaderLen = devCapHeaderLen + platformUUIDLen
	if len(desc) < platformHeaderLen {
		return nil, false, fsctcore.NewProtocolError("platform capability descriptor too short (%d bytes)", len(desc))
	}
	uuidBytes := desc[devCapHeaderLen : devCapHeaderLen+platformUUIDLen]
	id, err := uuidFromBytesLE(uuidBytes)
	if err != nil {
		return nil, false, fsctcore.NewProtocolError("invalid platform capability UUID: %v", err)
	}
	if id != FSCTUUID {
		return nil, false, nil
	}

	payload := desc[platformHeaderLen:]
	if len(payload) < 3 {
		return nil, false, fsctcore.NewProtocolError("FSCT capability payload too short (%d bytes)", len(payload))
	}
	version := binary.LittleEndian.Uint16(payload[0:2])
	if version != fsctCapabilityDescriptorVersion {
		return nil, false, fsctcore.NewProtocolError("unsupported FSCT capability descriptor version 0x%04x", version)
	}
	return &FSCTCapability{
		CapabilityDescriptorVersion: version,
		VendorSubClassNumber:        payload[2],
	}, true, nil
}

// uuidFromBytesLE parses a 16-byte UUID whose bytes are in USB's
// little-endian field order (the reverse of uuid.FromBytes' big-endian RFC
// 4122 byte order for the time_low/time_mid/time_hi fields, with the
// clock/node bytes unaffected).
func uuidFromBytesLE(b []byte) (uuid.UUID, error) {
	if len(b) != 16 {
		return uuid.UUID{}, fsctcore.NewProtocolError("UUID must be 16 bytes, got %d", len(b))
	}
	var out uuid.UUID
	// time_low (4 bytes), time_mid (2 bytes), time_hi_and_version (2 bytes)
	// are stored little-endian on the wire; reverse each field into the
	// big-endian RFC 4122 layout uuid.UUID expects. The remaining 8 bytes
	// (clock_seq + node) are already in wire order on both sides.
	out[0], out[1], out[2], out[3] = b[3], b[2], b[1], b[0]
	out[4], out[5] = b[5], b[4]
	out[6], out[7] = b[7], b[6]
	copy(out[8:], b[8:16])
	return out, nil
}
