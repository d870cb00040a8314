package devicemanager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HEM-RnD/fsct-host-sub000/internal/fsctcore"
)

type fakeDevice struct {
	enabled    bool
	lastStatus fsctcore.FsctStatus
	closed     bool
}

func (f *fakeDevice) SetStatus(s fsctcore.FsctStatus) error {
	f.lastStatus = s
	return nil
}
func (f *fakeDevice) SetProgress(*fsctcore.TimelineInfo) error                    { return nil }
func (f *fakeDevice) SetCurrentText(fsctcore.FsctTextMetadata, *string) error     { return nil }
func (f *fakeDevice) SetEnable(enable bool) error                                { f.enabled = enable; return nil }
func (f *fakeDevice) GetEnable() (bool, error)                                   { return f.enabled, nil }
func (f *fakeDevice) Close()                                                     { f.closed = true }

func TestManager_AddDeviceRegistersBothMaps(t *testing.T) {
	m := New()
	dev := &fakeDevice{}
	id := m.AddDevice("usb:1:2", USBIdentity{VendorID: 1, ProductID: 2, Serial: "x"}, dev)

	gotID, ok := m.GetManagedIDForUSBID("usb:1:2")
	require.True(t, ok)
	assert.Equal(t, id, gotID)

	ids := m.GetAllManagedIDs()
	assert.Contains(t, ids, id)
}

func TestManager_AddDeviceBroadcastsAdded(t *testing.T) {
	m := New()
	sub := m.Subscribe()
	id := m.AddDevice("usb:1", USBIdentity{VendorID: 1, ProductID: 1, Serial: "s"}, &fakeDevice{})

	ev := <-sub.C
	assert.Equal(t, DeviceAdded, ev.Kind)
	assert.Equal(t, id, ev.ID)
}

func TestManager_RemoveDeviceByUSBID(t *testing.T) {
	m := New()
	m.AddDevice("usb:1", USBIdentity{VendorID: 1, ProductID: 1, Serial: "s"}, &fakeDevice{})

	_, _, ok := m.RemoveDeviceByUSBID("usb:1")
	assert.True(t, ok)
	assert.Empty(t, m.GetAllManagedIDs())

	_, _, ok = m.RemoveDeviceByUSBID("usb:1")
	assert.False(t, ok, "removing twice is a no-op")
}

func TestManager_RemoveAllDevicesDrains(t *testing.T) {
	m := New()
	m.AddDevice("usb:1", USBIdentity{VendorID: 1, ProductID: 1, Serial: "a"}, &fakeDevice{})
	m.AddDevice("usb:2", USBIdentity{VendorID: 2, ProductID: 2, Serial: "b"}, &fakeDevice{})

	drained := m.RemoveAllDevices()
	assert.Len(t, drained, 2)
	assert.Empty(t, m.GetAllManagedIDs())
}

func TestManager_DispatchUnknownUUIDReturnsDeviceNotFound(t *testing.T) {
	m := New()
	var zero [16]byte
	err := m.SetStatus(zero, fsctcore.StatusPlaying)
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestManager_DispatchSetStatus(t *testing.T) {
	m := New()
	dev := &fakeDevice{}
	id := m.AddDevice("usb:1", USBIdentity{VendorID: 1, ProductID: 1, Serial: "s"}, dev)

	require.NoError(t, m.SetStatus(id, fsctcore.StatusPaused))
	assert.Equal(t, fsctcore.StatusPaused, dev.lastStatus)
}
