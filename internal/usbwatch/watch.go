// Package usbwatch implements the USB Device Watch (C6). google/gousb has
// no libusb hotplug-callback stream exposed in its public API, so this
// watch substitutes a periodic enumerate-and-diff poll against
// gousb.Context.OpenDevices, synthesizing the same Connected/Disconnected
// events a native hotplug stream would produce (documented in
// SPEC_FULL.md §4.6 as a deliberate, library-driven substitution).
package usbwatch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/gousb"

	"github.com/HEM-RnD/fsct-host-sub000/internal/devicemanager"
	"github.com/HEM-RnD/fsct-host-sub000/internal/fsctcore"
	"github.com/HEM-RnD/fsct-host-sub000/internal/fsctdevice"
	"github.com/HEM-RnD/fsct-host-sub000/internal/fsctusb"
)

const (
	defaultPollInterval = time.Second
	initRetryBudget     = 3 * time.Second
	initRetryPeriod     = 100 * time.Millisecond
)

// Watch is the USB Device Watch (C6): it owns no state of its own beyond
// which USB device ids it currently considers initialized, delegating the
// registry itself to the Device Manager.
type Watch struct {
	ctx          *gousb.Context
	manager      *devicemanager.Manager
	pollInterval time.Duration

	tracked map[string]*gousb.Device
}

// New creates a Watch over ctx (which the caller owns and must close after
// Run returns) reporting into manager. A zero pollInterval uses the default
// of 1 second.
func New(ctx *gousb.Context, manager *devicemanager.Manager, pollInterval time.Duration) *Watch {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Watch{ctx: ctx, manager: manager, pollInterval: pollInterval, tracked: make(map[string]*gousb.Device)}
}

// Run enumerates currently attached devices and starts initializing each one
// in its own goroutine, as it does for devices that appear later; it does
// not wait for those initializations before it loops polling for changes
// until ctx is canceled. On
// cancellation it drains and disables every device via the manager before
// returning.
func (w *Watch) Run(ctx context.Context) error {
	w.pollOnce(ctx)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.shutdown()
			return nil
		case <-ticker.C:
			w.pollOnce(ctx)
		}
	}
}

func (w *Watch) pollOnce(ctx context.Context) {
	present, err := w.ctx.OpenDevices(func(*gousb.DeviceDesc) bool { return true })
	if err != nil {
		log.Printf("usbwatch: enumeration failed: %v", err)
		return
	}

	seen := make(map[string]*gousb.Device, len(present))
	for _, dev := range present {
		id := usbID(dev)
		seen[id] = dev
		if _, already := w.tracked[id]; already {
			dev.Close()
			continue
		}
		w.tracked[id] = dev
		go w.initializeWithRetry(ctx, id, dev)
	}

	for id, dev := range w.tracked {
		if _, stillPresent := seen[id]; !stillPresent {
			delete(w.tracked, id)
			if _, managedID, ok := w.manager.RemoveDeviceByUSBID(id); ok {
				log.Printf("usbwatch: device %s (managed %s) disconnected", id, managedID)
			}
			dev.Close()
		}
	}
}

// initializeWithRetry runs C1→C2→C3 claim→C4 init for up to initRetryBudget,
// polling every initRetryPeriod. Certain errors short-circuit immediately
// since retrying them can never succeed.
func (w *Watch) initializeWithRetry(ctx context.Context, id string, dev *gousb.Device) {
	deadline := time.Now().Add(initRetryBudget)
	var lastErr error

	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return
		}

		fsctIface, err := fsctusb.OpenFSCTInterface(dev)
		if err == nil {
			device := fsctdevice.New(fsctIface)
			if err = device.Init(ctx); err == nil {
				identity := usbIdentity(dev)
				managedID := w.manager.AddDevice(id, identity, device)
				log.Printf("usbwatch: initialized device %s as %s", id, managedID)
				return
			}
			fsctIface.Close()
		}

		if errors.Is(err, fsctcore.ErrFSCTCapabilityNotPresent) {
			return
		}
		lastErr = err
		if isTerminal(err) {
			break
		}
		time.Sleep(initRetryPeriod)
	}

	log.Printf("usbwatch: giving up initializing device %s: %v", id, lastErr)
}

// isTerminal reports whether err is known to be unrecoverable by retrying:
// an unsupported protocol version will never start working.
func isTerminal(err error) bool {
	return errors.Is(err, fsctcore.ErrProtocolVersionNotSupported)
}

func (w *Watch) shutdown() {
	for _, device := range w.manager.RemoveAllDevices() {
		if err := device.SetEnable(false); err != nil {
			log.Printf("usbwatch: disabling device during shutdown: %v", err)
		}
		device.Close()
	}
	for id, dev := range w.tracked {
		delete(w.tracked, id)
		dev.Close()
	}
}

func usbID(dev *gousb.Device) string {
	return fmt.Sprintf("%d:%d", dev.Desc.Bus, dev.Desc.Address)
}

func usbIdentity(dev *gousb.Device) devicemanager.USBIdentity {
	return devicemanager.USBIdentity{
		VendorID:  uint16(dev.Desc.Vendor),
		ProductID: uint16(dev.Desc.Product),
		Serial:    fsctusb.SerialNumber(dev),
	}
}
