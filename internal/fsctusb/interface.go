// Package fsctusb implements the USB-facing layers of the FSCT protocol:
// BOS platform-capability discovery (C1), the FSCT functionality descriptor
// parser (C2), and the vendor control-transfer wrapper (C3). It is built
// directly on github.com/google/gousb, the same real libusb binding the
// teacher codebase uses for its own USB device layer.
package fsctusb

import (
	"fmt"

	"github.com/google/gousb"

	"github.com/HEM-RnD/fsct-host-sub000/internal/fsctcore"
)

// standard USB request codes and descriptor types used by C1/C2.
const (
	requestGetDescriptor = 0x06

	descriptorTypeBOS              = 0x0F
	descriptorTypeDeviceCapability = 0x10

	devCapTypePlatform = 0x05

	interfaceClassVendor   = 0xFF
	interfaceProtocolFSCT1 = 0x01
)

// Interface is a claimed USB interface through which every FSCT vendor
// control transfer (C3) and standard descriptor fetch (C1/C2) flows. Exactly
// one Interface claims a given gousb.Interface at a time, matching
// spec.md's "each USB interface is claimed exclusively" resource rule.
type Interface struct {
	device     *gousb.Device
	config     *gousb.Config
	intf       *gousb.Interface
	number     int
	vendorSub  uint8
}

// OpenFSCTInterface runs C1 (BOS finder) against dev, then locates and
// claims the FSCT vendor interface (C2's prerequisite), returning a ready
// Interface. The caller owns the returned Interface and must call Close.
func OpenFSCTInterface(dev *gousb.Device) (*Interface, error) {
	cap, err := FindFSCTCapability(dev)
	if err != nil {
		return nil, err
	}

	ifaceNum, altNum, err := findFSCTInterfaceNumber(dev, cap.VendorSubClassNumber)
	if err != nil {
		return nil, err
	}

	cfgNum, err := activeConfigNumber(dev)
	if err != nil {
		return nil, err
	}
	config, err := dev.Config(cfgNum)
	if err != nil {
		return nil, fsctcore.NewTransportError("set configuration", err)
	}
	intf, err := config.Interface(ifaceNum, altNum)
	if err != nil {
		config.Close()
		return nil, fsctcore.NewTransportError("claim interface", err)
	}

	return &Interface{
		device:    dev,
		config:    config,
		intf:      intf,
		number:    ifaceNum,
		vendorSub: cap.VendorSubClassNumber,
	}, nil
}

// Close releases the claimed interface and configuration. It does not close
// the underlying gousb.Device; the caller (usually the USB Device Watch)
// owns that lifecycle.
func (i *Interface) Close() {
	if i.intf != nil {
		i.intf.Close()
	}
	if i.config != nil {
		i.config.Close()
	}
}

// Number returns the claimed interface number (used as wIndex low byte in
// every vendor control transfer).
func (i *Interface) Number() int { return i.number }

// getDescriptor issues a standard GET_DESCRIPTOR for up to length bytes and
// returns the bytes the device actually sent, which may be fewer. recipient
// is one of gousb's ControlDevice/ControlInterface.
func (i *Interface) getDescriptor(recipient uint8, descType uint8, index int, length int) ([]byte, error) {
	return getDescriptor(i.device, recipient, descType, index, length)
}

func getDescriptor(dev *gousb.Device, recipient uint8, descType uint8, index int, length int) ([]byte, error) {
	rType := uint8(gousb.ControlIn) | uint8(gousb.ControlStandard) | recipient
	buf := make([]byte, length)
	value := uint16(descType) << 8
	n, err := dev.Control(rType, requestGetDescriptor, value, uint16(index), buf)
	if err != nil {
		return nil, fsctcore.NewTransportError("GET_DESCRIPTOR", err)
	}
	return buf[:n], nil
}

// findFSCTInterfaceNumber scans every interface/alt-setting of the device's
// active configuration for class=0xFF, subclass=vendorSub, and returns the
// interface number and alt-setting number. It also applies the protocol
// gate: a matching interface whose protocol is not 0x01 yields
// ErrProtocolVersionNotSupported.
func findFSCTInterfaceNumber(dev *gousb.Device, vendorSub uint8) (ifaceNum, altNum int, err error) {
	cfgNum, err := activeConfigNumber(dev)
	if err != nil {
		return 0, 0, err
	}
	cfgDesc, ok := dev.Desc.Configs[cfgNum]
	if !ok {
		return 0, 0, fsctcore.NewProtocolError("active configuration %d not described", cfgNum)
	}
	for _, ifaceDesc := range cfgDesc.Interfaces {
		for _, alt := range ifaceDesc.AltSettings {
			if uint8(alt.Class) == interfaceClassVendor && uint8(alt.SubClass) == vendorSub {
				if uint8(alt.Protocol) != interfaceProtocolFSCT1 {
					return 0, 0, fsctcore.ErrProtocolVersionNotSupported
				}
				return ifaceDesc.Number, alt.Alternate, nil
			}
		}
	}
	return 0, 0, fsctcore.NewProtocolError("no FSCT interface (class=0xFF subclass=0x%02x) found", vendorSub)
}

func activeConfigNumber(dev *gousb.Device) (int, error) {
	cfgNum, err := dev.ActiveConfigNum()
	if err != nil {
		return 0, fsctcore.NewTransportError("read active configuration", err)
	}
	return cfgNum, nil
}

// SerialNumber returns the device's serial number string, or "" if it has
// none — callers treat a missing serial as the empty string per spec.md's
// data model.
func SerialNumber(dev *gousb.Device) string {
	sn, err := dev.SerialNumber()
	if err != nil {
		return ""
	}
	return sn
}

// USBVersionTooOld reports whether the device's reported USB spec revision
// is ≤ 2.00, in which case BOS is defined to be unavailable per spec.md §4.1.
func USBVersionTooOld(dev *gousb.Device) bool {
	return uint16(dev.Desc.Spec) <= 0x0200
}

func fmtBCD(v gousb.BCD) string {
	return fmt.Sprintf("%x.%02x", uint16(v)>>8, uint16(v)&0xFF)
}
