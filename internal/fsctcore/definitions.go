// Package fsctcore holds the wire-level and domain types shared by every
// other FSCT package: status/functionality/text-encoding enumerations, the
// timeline and track-metadata records, and the PlayerState a player is
// reduced to before it reaches a device.
package fsctcore

import "time"

// FsctStatus is the playback status code mirrored onto a device with the
// 0x04 Status request. The wire value occupies the low nibble of a byte;
// Unknown (0x0F) is the default (StatusDefault). The Go zero value of the
// type is StatusStopped, not Unknown.
type FsctStatus uint8

const (
	StatusStopped   FsctStatus = 0x00
	StatusPlaying   FsctStatus = 0x01
	StatusPaused    FsctStatus = 0x02
	StatusSeeking   FsctStatus = 0x03
	StatusBuffering FsctStatus = 0x04
	StatusError     FsctStatus = 0x05
	StatusUnknown   FsctStatus = 0x0F

	StatusDefault = StatusUnknown
)

func (s FsctStatus) String() string {
	switch s {
	case StatusStopped:
		return "Stopped"
	case StatusPlaying:
		return "Playing"
	case StatusPaused:
		return "Paused"
	case StatusSeeking:
		return "Seeking"
	case StatusBuffering:
		return "Buffering"
	case StatusError:
		return "Error"
	case StatusUnknown:
		return "Unknown"
	default:
		return "Unknown"
	}
}

// FsctFunctionality is a bitset of capabilities a device declares in its
// 0x31 Functionality descriptor.
type FsctFunctionality uint8

const (
	FunctionalityCurrentPlaybackMetadata FsctFunctionality = 1 << 0
	FunctionalityCurrentPlaybackProgress FsctFunctionality = 1 << 1
	FunctionalityCurrentPlaybackStatus   FsctFunctionality = 1 << 2
	FunctionalityPlaybackQueueMetadata   FsctFunctionality = 1 << 3
)

func (f FsctFunctionality) Has(bit FsctFunctionality) bool { return f&bit != 0 }

// FsctTextMetadata identifies a text field. Only the four "current" kinds
// are stored by the core's TrackMetadata; the queue-* kinds are reserved
// wire codes the descriptor parser and request layer still recognize so
// unknown-but-declared metadata can pass through without being treated as
// malformed.
type FsctTextMetadata uint8

const (
	TextCurrentTitle  FsctTextMetadata = 0x01
	TextCurrentAuthor FsctTextMetadata = 0x02
	TextCurrentAlbum  FsctTextMetadata = 0x03
	TextCurrentGenre  FsctTextMetadata = 0x04

	TextQueueTitle  FsctTextMetadata = 0x31
	TextQueueAuthor FsctTextMetadata = 0x32
	TextQueueAlbum  FsctTextMetadata = 0x33
	TextQueueGenre  FsctTextMetadata = 0x34
)

// CoreTextKinds is the fixed canonical iteration order used by the Applier
// and by TrackMetadata.Iter.
var CoreTextKinds = [4]FsctTextMetadata{
	TextCurrentTitle, TextCurrentAuthor, TextCurrentAlbum, TextCurrentGenre,
}

// FsctImagePixelFormat enumerates the pixel formats a 0x33 Image Metadata
// descriptor may declare. Not exercised by the core's own operations (no
// image is ever pushed by the orchestrator), but recognized by the
// descriptor parser so image-capable devices don't trip the "malformed
// descriptor" path.
type FsctImagePixelFormat uint8

const (
	ImageRgb565     FsctImagePixelFormat = 0x01
	ImageRgb888     FsctImagePixelFormat = 0x02
	ImageRgba8888   FsctImagePixelFormat = 0x03
	ImageGrayscale1 FsctImagePixelFormat = 0x04
	ImageGrayscale4 FsctImagePixelFormat = 0x05
	ImageGrayscale8 FsctImagePixelFormat = 0x06
)

// FsctTextEncoding is the text coding a device's 0x32 Text Metadata
// descriptor declares for all of its text fields.
type FsctTextEncoding uint8

const (
	EncodingUtf8  FsctTextEncoding = 0
	EncodingUtf16 FsctTextEncoding = 1
	EncodingUcs2  FsctTextEncoding = 2
	EncodingUtf32 FsctTextEncoding = 3
)

// SupportedText is one entry of the device's declared text capability:
// which kind, and the maximum encoded length in bytes.
type SupportedText struct {
	Kind         FsctTextMetadata
	MaxLengthBytes int
}

// TimelineInfo mirrors the position/duration/rate of a track at the moment
// it was captured. An absent TimelineInfo (a nil *TimelineInfo in
// PlayerState) means "no timeline" rather than zero values.
type TimelineInfo struct {
	Position   time.Duration
	UpdateTime time.Time
	Duration   time.Duration
	Rate       float64
}

// TrackMetadata holds the four core text fields. Queue/year/etc. kinds are
// wire-level only and never stored here, matching spec.md's data model.
type TrackMetadata struct {
	Title  *string
	Author *string
	Album  *string
	Genre  *string
}

// GetText returns the field for the given core kind, or nil if kind is not
// one of the four core kinds.
func (t *TrackMetadata) GetText(kind FsctTextMetadata) *string {
	switch kind {
	case TextCurrentTitle:
		return t.Title
	case TextCurrentAuthor:
		return t.Author
	case TextCurrentAlbum:
		return t.Album
	case TextCurrentGenre:
		return t.Genre
	default:
		return nil
	}
}

// SetText replaces the field for the given core kind. It is a no-op for any
// kind outside the four core kinds.
func (t *TrackMetadata) SetText(kind FsctTextMetadata, value *string) {
	switch kind {
	case TextCurrentTitle:
		t.Title = value
	case TextCurrentAuthor:
		t.Author = value
	case TextCurrentAlbum:
		t.Album = value
	case TextCurrentGenre:
		t.Genre = value
	}
}

// TextEntry is one (kind, value) pair yielded by Iter, in canonical order.
type TextEntry struct {
	Kind  FsctTextMetadata
	Value *string
}

// Iter returns the four core text fields in the fixed canonical order the
// Applier and wire protocol both depend on.
func (t *TrackMetadata) Iter() []TextEntry {
	entries := make([]TextEntry, 0, len(CoreTextKinds))
	for _, kind := range CoreTextKinds {
		entries = append(entries, TextEntry{Kind: kind, Value: t.GetText(kind)})
	}
	return entries
}

// PlayerState is the whole unit of truth the orchestrator mirrors onto a
// device. Timeline is nil when no timeline is known.
type PlayerState struct {
	Status   FsctStatus
	Timeline *TimelineInfo
	Texts    TrackMetadata
}

// Equal reports whether two PlayerStates would produce byte-identical
// device writes (used by tests asserting idempotent re-applies).
func (s PlayerState) Equal(other PlayerState) bool {
	if s.Status != other.Status {
		return false
	}
	if !timelineEqual(s.Timeline, other.Timeline) {
		return false
	}
	for _, kind := range CoreTextKinds {
		a, b := s.Texts.GetText(kind), other.Texts.GetText(kind)
		if (a == nil) != (b == nil) {
			return false
		}
		if a != nil && *a != *b {
			return false
		}
	}
	return true
}

func timelineEqual(a, b *TimelineInfo) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	return *a == *b
}
