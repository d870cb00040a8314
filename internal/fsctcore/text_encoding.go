package fsctcore

import (
	"encoding/binary"
	"unicode/utf16"
	"unicode/utf8"
)

// EncodeText renders text in the device's declared encoding, truncated to
// at most maxLengthBytes bytes, never splitting a code point. An empty
// result means "disable/clear this text field" at the USB Interface layer;
// it is returned, not an error, when text does not fit at all.
func EncodeText(encoding FsctTextEncoding, text string, maxLengthBytes int) []byte {
	if maxLengthBytes <= 0 {
		return nil
	}
	switch encoding {
	case EncodingUtf8:
		return encodeUtf8(text, maxLengthBytes)
	case EncodingUtf16:
		return encodeUtf16(text, maxLengthBytes)
	case EncodingUcs2:
		return encodeUcs2(text, maxLengthBytes)
	case EncodingUtf32:
		return encodeUtf32(text, maxLengthBytes)
	default:
		return encodeUtf8(text, maxLengthBytes)
	}
}

// encodeUtf8 truncates at min(len(text), max) then walks backward while the
// cut point lands inside a UTF-8 continuation byte (top two bits 0b10).
func encodeUtf8(text string, max int) []byte {
	n := len(text)
	if n > max {
		n = max
	}
	for n > 0 && n < len(text) && isUtf8Continuation(text[n]) {
		n--
	}
	return []byte(text[:n])
}

func isUtf8Continuation(b byte) bool { return b&0xC0 == 0x80 }

// encodeUtf16 emits native-byte-order UTF-16 code units, taking max/2 units,
// then drops a dangling high surrogate left at the end by truncation.
func encodeUtf16(text string, max int) []byte {
	units := utf16.Encode([]rune(text))
	take := max / 2
	if take > len(units) {
		take = len(units)
	}
	units = units[:take]
	if len(units) > 0 && isHighSurrogate(units[len(units)-1]) {
		units = units[:len(units)-1]
	}
	return encodeUint16NativeSlice(units)
}

// encodeUcs2 behaves like encodeUtf16 except scalars outside the BMP are
// replaced by U+FFFD (the replacement character) instead of being encoded
// as a surrogate pair, matching fsct_device.rs's to_usb_encoded_text.
func encodeUcs2(text string, max int) []byte {
	units := make([]uint16, 0, len(text))
	for _, r := range text {
		if uint32(r) >= 0x10000 {
			units = append(units, 0xFFFD)
		} else {
			units = append(units, uint16(r))
		}
	}
	take := max / 2
	if take > len(units) {
		take = len(units)
	}
	return encodeUint16NativeSlice(units[:take])
}

// encodeUtf32 emits native-byte-order 4-byte code points, truncated by code
// point count to max/4.
func encodeUtf32(text string, max int) []byte {
	runes := []rune(text)
	take := max / 4
	if take > len(runes) {
		take = len(runes)
	}
	out := make([]byte, take*4)
	for i, r := range runes[:take] {
		binary.NativeEndian.PutUint32(out[i*4:i*4+4], uint32(r))
	}
	return out
}

func isHighSurrogate(u uint16) bool { return u&0xFC00 == 0xD800 }

func encodeUint16NativeSlice(units []uint16) []byte {
	out := make([]byte, len(units)*2)
	for i, u := range units {
		binary.NativeEndian.PutUint16(out[i*2:i*2+2], u)
	}
	return out
}

// DecodeUtf8Prefix reports whether a is a valid prefix of b in UTF-8 terms
// (used by round-trip/truncation-safety tests). Both must be valid UTF-8.
func DecodeUtf8Prefix(a, b []byte) bool {
	if !utf8.Valid(a) || !utf8.Valid(b) {
		return false
	}
	if len(a) > len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
