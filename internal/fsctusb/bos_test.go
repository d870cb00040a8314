package fsctusb

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fsctUUIDWireBytes() []byte {
	b := FSCTUUID[:]
	out := make([]byte, 16)
	out[0], out[1], out[2], out[3] = b[3], b[2], b[1], b[0]
	out[4], out[5] = b[5], b[4]
	out[6], out[7] = b[7], b[6]
	copy(out[8:], b[8:16])
	return out
}

// buildPlatformCapability builds the 23-byte wire layout of a Platform
// device-capability descriptor carrying the FSCT payload: a 4-byte
// bLength|bDescriptorType|bDevCapabilityType|bReserved header, the 16-byte
// little-endian-wire UUID, then the 3-byte version+vendorSub payload.
func buildPlatformCapability(id []byte, version uint16, vendorSub uint8) []byte {
	out := make([]byte, devCapHeaderLen+platformUUIDLen+3)
	out[0] = byte(len(out))
	out[1] = descriptorTypeDeviceCapability
	out[2] = devCapTypePlatform
	out[3] = 0 // bReserved
	copy(out[devCapHeaderLen:], id)
	out[devCapHeaderLen+platformUUIDLen] = byte(version)
	out[devCapHeaderLen+platformUUIDLen+1] = byte(version >> 8)
	out[devCapHeaderLen+platformUUIDLen+2] = vendorSub
	return out
}

func TestDecodePlatformCapability_Match(t *testing.T) {
	desc := buildPlatformCapability(fsctUUIDWireBytes(), fsctCapabilityDescriptorVersion, 0x42)
	cap, ok, err := decodePlatformCapability(desc)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint8(0x42), cap.VendorSubClassNumber)
	assert.Equal(t, uint16(fsctCapabilityDescriptorVersion), cap.CapabilityDescriptorVersion)
}

func TestDecodePlatformCapability_WrongUUID(t *testing.T) {
	other := make([]byte, 16)
	desc := buildPlatformCapability(other, fsctCapabilityDescriptorVersion, 0x42)
	cap, ok, err := decodePlatformCapability(desc)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, cap)
}

func TestDecodePlatformCapability_VersionMismatch(t *testing.T) {
	desc := buildPlatformCapability(fsctUUIDWireBytes(), 0x0200, 0x42)
	_, _, err := decodePlatformCapability(desc)
	assert.Error(t, err)
}

func TestDecodePlatformCapability_TooShort(t *testing.T) {
	_, _, err := decodePlatformCapability(make([]byte, 4))
	assert.Error(t, err)
}

// TestDecodePlatformCapability_RealWireBytes pins the literal 23-byte wire
// layout a real FSCT device's BOS descriptor carries for this capability:
// bLength|bDescriptorType|bDevCapabilityType|bReserved, then the 16-byte
// wire-order UUID, then version_lo|version_hi|vendorSub — independent of
// buildPlatformCapability, so a regression in that helper can't mask one
// here.
func TestDecodePlatformCapability_RealWireBytes(t *testing.T) {
	desc := []byte{
		0x17, 0x10, 0x05, 0x00, // bLength=23, DEVICE_CAPABILITY, PLATFORM, reserved
	}
	desc = append(desc, fsctUUIDWireBytes()...)
	desc = append(desc, 0x00, 0x01, 0x42) // version=0x0100 LE, vendorSub=0x42
	require.Len(t, desc, 23)

	cap, ok, err := decodePlatformCapability(desc)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint8(0x42), cap.VendorSubClassNumber)
	assert.Equal(t, uint16(fsctCapabilityDescriptorVersion), cap.CapabilityDescriptorVersion)
}

func TestUuidFromBytesLE_RoundTrip(t *testing.T) {
	id := uuid.New()
	b := id[:]
	wire := make([]byte, 16)
	wire[0], wire[1], wire[2], wire[3] = b[3], b[2], b[1], b[0]
	wire[4], wire[5] = b[5], b[4]
	wire[6], wire[7] = b[7], b[6]
	copy(wire[8:], b[8:16])

	got, err := uuidFromBytesLE(wire)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestUuidFromBytesLE_WrongLength(t *testing.T) {
	_, err := uuidFromBytesLE(make([]byte, 10))
	assert.Error(t, err)
}
