package fsctusb

import (
	"encoding/binary"

	"github.com/google/gousb"

	"github.com/HEM-RnD/fsct-host-sub000/internal/fsctcore"
)

// Descriptor set types recognized on the FSCT interface (C2).
const (
	descTypeFunctionality FsctDescriptorType = 0x31
	descTypeTextMetadata  FsctDescriptorType = 0x32
	descTypeImageMetadata FsctDescriptorType = 0x33

	functionalityHeaderLen = 2 // wTotalLength read in the first pass
)

// FsctDescriptorType is the bDescriptorType byte of one entry in the
// functionality descriptor set.
type FsctDescriptorType uint8

// FunctionalityDescriptor is the 0x31 descriptor: a bitset of supported
// functionalities.
type FunctionalityDescriptor struct {
	Functionality fsctcore.FsctFunctionality
}

// TextMetadataDescriptor is the 0x32 descriptor: the device's text encoding
// plus a per-kind maximum length table.
type TextMetadataDescriptor struct {
	Encoding    fsctcore.FsctTextEncoding
	MaxLengths  []fsctcore.SupportedText
}

// ImageMetadataDescriptor is the 0x33 descriptor. The core never pushes
// images, but the parser still decodes it so an image-capable device's
// descriptor set isn't treated as malformed.
type ImageMetadataDescriptor struct {
	Width       uint16
	Height      uint16
	PixelFormat fsctcore.FsctImagePixelFormat
}

// DescriptorSet is the parsed output of C2: at most one descriptor of each
// recognized kind. When a kind appears more than once, the last one wins;
// the order in which descriptors appeared in the buffer is not kept.
type DescriptorSet struct {
	Functionality *FunctionalityDescriptor
	TextMetadata  *TextMetadataDescriptor
	ImageMetadata *ImageMetadataDescriptor
}

// FetchDescriptorSet performs the two-pass GET_DESCRIPTOR fetch of the FSCT
// functionality descriptor set on i's claimed interface, then parses it.
func (i *Interface) FetchDescriptorSet() (*DescriptorSet, error) {
	return FetchDescriptorSet(i)
}

// FetchDescriptorSet is the package-level form of the method above. It
// still needs a claimed interface; the parsing step, ParseDescriptorSet,
// takes a plain buffer so tests can drive it with hand-built bytes.
func FetchDescriptorSet(i *Interface) (*DescriptorSet, error) {
	header, err := i.getDescriptor(uint8(gousb.ControlInterface), uint8(descTypeFunctionality), i.number, 6)
	if err != nil {
		return nil, err
	}
	if len(header) < 6 {
		return nil, fsctcore.NewProtocolError("functionality descriptor header too short (%d bytes)", len(header))
	}
	totalLength := binary.LittleEndian.Uint16(header[2:4])

	full, err := i.getDescriptor(uint8(gousb.ControlInterface), uint8(descTypeFunctionality), i.number, int(totalLength))
	if err != nil {
		return nil, err
	}
	return ParseDescriptorSet(full)
}

// ParseDescriptorSet walks a raw functionality descriptor set, recognizing
// 0x31/0x32/0x33 and silently skipping unknown types. It stops (without
// error) the moment bLength is malformed, matching descriptor_utils.rs's
// tolerant walk, since a malformed tail is not distinguishable from normal
// end-of-buffer padding.
func ParseDescriptorSet(buf []byte) (*DescriptorSet, error) {
	set := &DescriptorSet{}
	offset := 0
	for offset < len(buf) {
		remaining := len(buf) - offset
		length := int(buf[offset])
		if length < 2 || length > remaining {
			break
		}
		descType := FsctDescriptorType(buf[offset+1])
		payload := buf[offset+2 : offset+length]

		switch descType {
		case descTypeFunctionality:
			d, err := parseFunctionality(payload)
			if err != nil {
				return nil, err
			}
			set.Functionality = d
		case descTypeTextMetadata:
			d, err := parseTextMetadata(payload)
			if err != nil {
				return nil, err
			}
			set.TextMetadata = d
		case descTypeImageMetadata:
			d, err := parseImageMetadata(payload)
			if err != nil {
				return nil, err
			}
			set.ImageMetadata = d
		}

		offset += length
	}
	return set, nil
}

func parseFunctionality(payload []byte) (*FunctionalityDescriptor, error) {
	// The descriptor's own wTotalLength field (2 bytes) precedes the
	// bitset; bLength/bDescriptorType were already stripped by the caller.
	if len(payload) < 3 {
		return nil, fsctcore.NewProtocolError("functionality descriptor payload too short (%d bytes)", len(payload))
	}
	bitset := payload[2]
	return &FunctionalityDescriptor{Functionality: fsctcore.FsctFunctionality(bitset)}, nil
}

func parseTextMetadata(payload []byte) (*TextMetadataDescriptor, error) {
	if len(payload) < 1 {
		return nil, fsctcore.NewProtocolError("text metadata descriptor payload too short")
	}
	encoding := fsctcore.FsctTextEncoding(payload[0])
	rest := payload[1:]
	if len(rest)%3 != 0 {
		return nil, fsctcore.NewProtocolError("text metadata entries misaligned (%d bytes)", len(rest))
	}
	entries := make([]fsctcore.SupportedText, 0, len(rest)/3)
	for i := 0; i+3 <= len(rest); i += 3 {
		kind := fsctcore.FsctTextMetadata(rest[i])
		maxLen := binary.LittleEndian.Uint16(rest[i+1 : i+3])
		entries = append(entries, fsctcore.SupportedText{Kind: kind, MaxLengthBytes: int(maxLen)})
	}
	return &TextMetadataDescriptor{Encoding: encoding, MaxLengths: entries}, nil
}

func parseImageMetadata(payload []byte) (*ImageMetadataDescriptor, error) {
	if len(payload) < 5 {
		return nil, fsctcore.NewProtocolError("image metadata descriptor payload too short (%d bytes)", len(payload))
	}
	return &ImageMetadataDescriptor{
		Width:       binary.LittleEndian.Uint16(payload[0:2]),
		Height:      binary.LittleEndian.Uint16(payload[2:4]),
		PixelFormat: fsctcore.FsctImagePixelFormat(payload[4]),
	}, nil
}

// EncodeFunctionalityDescriptor and its siblings below exist solely so
// descriptor round-trip tests (spec.md §8: "a round-trip of the three
// descriptor kinds is the identity") can construct wire bytes without a
// real device.

func EncodeFunctionalityDescriptor(f fsctcore.FsctFunctionality) []byte {
	payload := make([]byte, 5)
	payload[0], payload[1] = byte(5), byte(descTypeFunctionality)
	binary.LittleEndian.PutUint16(payload[2:4], 5)
	payload[4] = byte(f)
	return payload
}

func EncodeTextMetadataDescriptor(encoding fsctcore.FsctTextEncoding, entries []fsctcore.SupportedText) []byte {
	length := 2 + 1 + len(entries)*3
	out := make([]byte, length)
	out[0], out[1] = byte(length), byte(descTypeTextMetadata)
	out[2] = byte(encoding)
	for i, e := range entries {
		base := 3 + i*3
		out[base] = byte(e.Kind)
		binary.LittleEndian.PutUint16(out[base+1:base+3], uint16(e.MaxLengthBytes))
	}
	return out
}

func EncodeImageMetadataDescriptor(d ImageMetadataDescriptor) []byte {
	out := make([]byte, 7)
	out[0], out[1] = 7, byte(descTypeImageMetadata)
	binary.LittleEndian.PutUint16(out[2:4], d.Width)
	binary.LittleEndian.PutUint16(out[4:6], d.Height)
	out[6] = byte(d.PixelFormat)
	return out
}
