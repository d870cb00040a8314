// Package fsctdevice implements the per-device façade (C4): parsing the
// descriptor set, synchronizing device time, encoding and pushing text,
// status, and progress, and driving a periodic background resync. It sits
// directly on top of internal/fsctusb's claimed interface and control
// transfers.
package fsctdevice

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/HEM-RnD/fsct-host-sub000/internal/fsctcore"
	"github.com/HEM-RnD/fsct-host-sub000/internal/fsctusb"
)

const resyncInterval = 10 * time.Minute

// usbConn is the subset of *fsctusb.Interface the device façade depends on.
// Defined as an interface so tests can drive Device against a fake transport
// instead of real USB hardware.
type usbConn interface {
	FetchDescriptorSet() (*fsctusb.DescriptorSet, error)
	SetEnable(enable bool) error
	GetEnable() (bool, error)
	GetDeviceTimestampMs() (uint64, error)
	SetProgress(progress *fsctusb.TrackProgress) error
	SetStatus(status fsctcore.FsctStatus) error
	SetCurrentText(kind fsctcore.FsctTextMetadata, data []byte) error
	Close()
}

// Device is the FSCT Device façade (C4): one claimed USB interface plus the
// descriptor-derived capability set and the device/host time offset.
type Device struct {
	iface usbConn

	textEncoding    fsctcore.FsctTextEncoding
	supportedTexts  map[fsctcore.FsctTextMetadata]int
	functionalities fsctcore.FsctFunctionality

	timeDiff     *time.Duration // host_mid - device_ts, nil until synchronized
	cancelResync context.CancelFunc
}

// New wraps an already-claimed FSCT interface. Callers must call Init
// before using the device, and Close when done.
func New(iface *fsctusb.Interface) *Device {
	return newDevice(iface)
}

func newDevice(iface usbConn) *Device {
	return &Device{iface: iface, supportedTexts: map[fsctcore.FsctTextMetadata]int{}}
}

// Init fetches the descriptor set, performs the initial time synchronization
// (if progress is supported), enables the device, and spawns the background
// resync task. ctx bounds only the background task's lifetime, not Init
// itself.
func (d *Device) Init(ctx context.Context) error {
	set, err := d.iface.FetchDescriptorSet()
	if err != nil {
		return err
	}
	if set.Functionality != nil {
		d.functionalities = set.Functionality.Functionality
	}
	if set.TextMetadata != nil {
		d.textEncoding = set.TextMetadata.Encoding
		for _, e := range set.TextMetadata.MaxLengths {
			d.supportedTexts[e.Kind] = e.MaxLengthBytes
		}
	}

	if d.functionalities.Has(fsctcore.FunctionalityCurrentPlaybackProgress) {
		if err := d.synchronizeTime(); err != nil {
			return fmt.Errorf("initial time synchronization: %w", err)
		}
	}

	if err := d.iface.SetEnable(true); err != nil {
		return err
	}

	resyncCtx, cancel := context.WithCancel(ctx)
	d.cancelResync = cancel
	go d.runResyncLoop(resyncCtx)

	return nil
}

// synchronizeTime implements the host-round-trip average algorithm (§4.4):
// host_mid = (before+after)/2, time_diff = host_mid - device_ts, rejecting
// a negative or overflowing delta.
func (d *Device) synchronizeTime() error {
	before := time.Now()
	deviceMs, err := d.iface.GetDeviceTimestampMs()
	if err != nil {
		return err
	}
	after := time.Now()

	hostMidMs := (before.UnixMilli() + after.UnixMilli()) / 2
	diffMs := hostMidMs - int64(deviceMs)
	if diffMs < 0 {
		return fsctcore.NewSemanticError("device time synchronization produced negative time_diff (%dms)", diffMs)
	}
	diff := time.Duration(diffMs) * time.Millisecond
	d.timeDiff = &diff
	return nil
}

func (d *Device) runResyncLoop(ctx context.Context) {
	ticker := time.NewTicker(resyncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.synchronizeTime(); err != nil {
				log.Printf("fsctdevice: periodic time resync failed: %v", err)
			}
		}
	}
}

// SetStatus always sends the status code; never gated by functionality.
func (d *Device) SetStatus(status fsctcore.FsctStatus) error {
	return d.iface.SetStatus(status)
}

// SetProgress sends an empty Progress frame when timeline is nil (disable).
// When timeline is non-nil and progress isn't a supported functionality,
// this is a no-op success, not an error.
func (d *Device) SetProgress(timeline *fsctcore.TimelineInfo) error {
	if timeline == nil {
		return d.iface.SetProgress(nil)
	}
	if !d.functionalities.Has(fsctcore.FunctionalityCurrentPlaybackProgress) {
		return nil
	}
	if d.timeDiff == nil {
		return fsctcore.ErrTimeNotSynchronized
	}

	now := time.Now()
	delta := now.Sub(timeline.UpdateTime)
	if delta < 0 {
		return fsctcore.NewSemanticError("timeline update_time %s is in the future", timeline.UpdateTime)
	}

	positionSec := timeline.Position.Seconds() + delta.Seconds()*timeline.Rate
	positionMs := int32(math.Round(positionSec * 1000))
	deviceTimestampMs := uint64(now.Add(-*d.timeDiff).UnixMilli())

	progress := fsctusb.TrackProgress{
		DurationSec: uint32(math.Round(timeline.Duration.Seconds())),
		PositionMs:  positionMs,
		TimestampMs: deviceTimestampMs,
		Rate:        float32(timeline.Rate),
	}
	return d.iface.SetProgress(&progress)
}

// SetCurrentText encodes text per the device's declared encoding, truncated
// to the kind's declared max length, and sends it. A kind the device didn't
// declare support for is a no-op success. A nil text clears the field.
func (d *Device) SetCurrentText(kind fsctcore.FsctTextMetadata, text *string) error {
	maxLen, ok := d.supportedTexts[kind]
	if !ok {
		return nil
	}
	if text == nil {
		return d.iface.SetCurrentText(kind, nil)
	}
	encoded := fsctcore.EncodeText(d.textEncoding, *text, maxLen)
	return d.iface.SetCurrentText(kind, encoded)
}

// SetEnable forwards directly to the claimed interface.
func (d *Device) SetEnable(enable bool) error {
	return d.iface.SetEnable(enable)
}

// GetEnable forwards directly to the claimed interface.
func (d *Device) GetEnable() (bool, error) {
	return d.iface.GetEnable()
}

// Functionalities returns the device's declared functionality bitset.
func (d *Device) Functionalities() fsctcore.FsctFunctionality { return d.functionalities }

// Close cancels the background resync task and releases the claimed
// interface. Go has no Drop equivalent, so callers must call this
// explicitly rather than relying on garbage collection.
func (d *Device) Close() {
	if d.cancelResync != nil {
		d.cancelResync()
	}
	d.iface.Close()
}
