package fsctusb

import (
	"encoding/binary"
	"math"

	"github.com/google/gousb"

	"github.com/HEM-RnD/fsct-host-sub000/internal/fsctcore"
)

// FsctRequestCode is the bRequest byte of an FSCT vendor control transfer.
type FsctRequestCode uint8

const (
	RequestEnable        FsctRequestCode = 0x01
	RequestTimestamp      FsctRequestCode = 0x02
	RequestProgress       FsctRequestCode = 0x03
	RequestStatus         FsctRequestCode = 0x04
	RequestPoll           FsctRequestCode = 0x05
	RequestCurrentText    FsctRequestCode = 0x10
	RequestCurrentImage   FsctRequestCode = 0x11
	RequestQueueLength    FsctRequestCode = 0x21
	RequestQueuePosition  FsctRequestCode = 0x22
	RequestQueueText      FsctRequestCode = 0x23
)

const trackProgressWireSize = 20

// TrackProgress is the packed little-endian payload of the 0x03 Progress
// request: duration (u32 seconds), position (i32 ms, negative = pre-track
// silence), timestamp (u64 device-ms), rate (f32).
type TrackProgress struct {
	DurationSec  uint32
	PositionMs   int32
	TimestampMs  uint64
	Rate         float32
}

// Encode renders the TrackProgress in its exact 20-byte wire layout.
func (p TrackProgress) Encode() []byte {
	buf := make([]byte, trackProgressWireSize)
	binary.LittleEndian.PutUint32(buf[0:4], p.DurationSec)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(p.PositionMs))
	binary.LittleEndian.PutUint64(buf[8:16], p.TimestampMs)
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(p.Rate))
	return buf
}

// control issues one vendor, interface-recipient control transfer.
func (i *Interface) control(dir uint8, request FsctRequestCode, value uint16, indexHigh uint8, data []byte) (int, error) {
	rType := dir | uint8(gousb.ControlVendor) | uint8(gousb.ControlInterface)
	index := uint16(i.number) | uint16(indexHigh)<<8
	n, err := i.device.Control(rType, uint8(request), value, index, data)
	if err != nil {
		return 0, fsctcore.NewTransportError(requestName(request), err)
	}
	return n, nil
}

func (i *Interface) controlOut(request FsctRequestCode, value uint16, indexHigh uint8, data []byte) error {
	_, err := i.control(uint8(gousb.ControlOut), request, value, indexHigh, data)
	return err
}

func (i *Interface) controlIn(request FsctRequestCode, value uint16, indexHigh uint8, data []byte) (int, error) {
	return i.control(uint8(gousb.ControlIn), request, value, indexHigh, data)
}

// SetEnable sends the 0x01 Enable request (OUT, no data; wValue is 0 or 1).
func (i *Interface) SetEnable(enable bool) error {
	var v uint16
	if enable {
		v = 1
	}
	return i.controlOut(RequestEnable, v, 0, nil)
}

// GetEnable sends the 0x01 Enable request (IN, 1 byte).
func (i *Interface) GetEnable() (bool, error) {
	buf := make([]byte, 1)
	n, err := i.controlIn(RequestEnable, 0, 0, buf)
	if err != nil {
		return false, err
	}
	if n != 1 {
		return false, fsctcore.NewProtocolError("Enable IN returned %d bytes, want 1", n)
	}
	return buf[0] != 0, nil
}

// GetDeviceTimestampMs sends the 0x02 Timestamp request (IN, 8 bytes
// little-endian device-ms-since-power-on).
func (i *Interface) GetDeviceTimestampMs() (uint64, error) {
	buf := make([]byte, 8)
	n, err := i.controlIn(RequestTimestamp, 0, 0, buf)
	if err != nil {
		return 0, err
	}
	if n != 8 {
		return 0, fsctcore.NewProtocolError("Timestamp IN returned %d bytes, want 8", n)
	}
	return binary.LittleEndian.Uint64(buf), nil
}

// SetProgress sends the 0x03 Progress request. A nil progress sends an
// empty OUT, which disables the progress display on the device.
func (i *Interface) SetProgress(progress *TrackProgress) error {
	if progress == nil {
		return i.controlOut(RequestProgress, 0, 0, nil)
	}
	return i.controlOut(RequestProgress, 0, 0, progress.Encode())
}

// SetStatus sends the 0x04 Status request with the status code as wValue.
func (i *Interface) SetStatus(status fsctcore.FsctStatus) error {
	return i.controlOut(RequestStatus, uint16(status), 0, nil)
}

// SendPoll sends the 0x05 Poll watchdog-reset request. Nothing in the core
// schedules this automatically (see SPEC_FULL.md §4.3); it exists for an
// external adapter that needs to keep a device's watchdog satisfied.
func (i *Interface) SendPoll() error {
	return i.controlOut(RequestPoll, 0, 0, nil)
}

// SetCurrentText sends the 0x10 CurrentText request for the given text
// kind. Empty/nil data disables (clears) that text field on the device.
func (i *Interface) SetCurrentText(kind fsctcore.FsctTextMetadata, data []byte) error {
	return i.controlOut(RequestCurrentText, 0, uint8(kind), data)
}

// SetCurrentImage sends the 0x11 CurrentImage request.
func (i *Interface) SetCurrentImage(imageIndex uint8, data []byte) error {
	return i.controlOut(RequestCurrentImage, 0, imageIndex, data)
}

func requestName(r FsctRequestCode) string {
	switch r {
	case RequestEnable:
		return "Enable"
	case RequestTimestamp:
		return "Timestamp"
	case RequestProgress:
		return "Progress"
	case RequestStatus:
		return "Status"
	case RequestPoll:
		return "Poll"
	case RequestCurrentText:
		return "CurrentText"
	case RequestCurrentImage:
		return "CurrentImage"
	case RequestQueueLength:
		return "QueueLength"
	case RequestQueuePosition:
		return "QueuePosition"
	case RequestQueueText:
		return "QueueText"
	default:
		return "Unknown"
	}
}
