package devicemanager

import (
	"sync"

	"github.com/google/uuid"

	"github.com/HEM-RnD/fsct-host-sub000/internal/broadcast"
	"github.com/HEM-RnD/fsct-host-sub000/internal/fsctcore"
)

// deviceEventCapacity is the broadcast channel's minimum bound per §4.5/§5.
const deviceEventCapacity = 128

// ManagedDevice is the subset of *fsctdevice.Device the manager dispatches
// to. Defined as an interface so tests can register a fake device without a
// real USB claim.
type ManagedDevice interface {
	SetStatus(fsctcore.FsctStatus) error
	SetProgress(*fsctcore.TimelineInfo) error
	SetCurrentText(fsctcore.FsctTextMetadata, *string) error
	SetEnable(bool) error
	GetEnable() (bool, error)
	Close()
}

// DeviceEventKind distinguishes Added from Removed.
type DeviceEventKind int

const (
	DeviceAdded DeviceEventKind = iota
	DeviceRemoved
)

// DeviceEvent is published on the Device Manager's broadcast bus whenever a
// device is added or removed from the registry.
type DeviceEvent struct {
	Kind DeviceEventKind
	ID   uuid.UUID
}

// ErrDeviceNotFound is returned by any device-control dispatch method when
// the given managed UUID isn't registered.
var ErrDeviceNotFound = fsctcore.NewProtocolError("device not found")

// Manager is the Device Manager (C5): a dual-keyed concurrent registry plus
// a broadcast of DeviceEvent.
type Manager struct {
	mu          sync.RWMutex
	byManagedID map[uuid.UUID]ManagedDevice
	usbToManaged map[string]uuid.UUID

	events *broadcast.Bus[DeviceEvent]
}

// New creates an empty Manager.
func New() *Manager {
	return &Manager{
		byManagedID:  make(map[uuid.UUID]ManagedDevice),
		usbToManaged: make(map[string]uuid.UUID),
		events:       broadcast.New[DeviceEvent](deviceEventCapacity),
	}
}

// AddDevice computes the managed UUID for identity, registers device under
// both usbID (the transport-level device id, e.g. "bus:address") and the
// managed UUID, and broadcasts Added. Returns the managed UUID.
func (m *Manager) AddDevice(usbID string, identity USBIdentity, device ManagedDevice) uuid.UUID {
	id := ManagedUUID(identity)

	m.mu.Lock()
	m.byManagedID[id] = device
	m.usbToManaged[usbID] = id
	m.mu.Unlock()

	m.events.Publish(DeviceEvent{Kind: DeviceAdded, ID: id})
	return id
}

// RemoveDeviceByUSBID removes and returns the device registered under
// usbID, broadcasting Removed. A no-op (ok=false) if usbID is unknown.
func (m *Manager) RemoveDeviceByUSBID(usbID string) (device ManagedDevice, id uuid.UUID, ok bool) {
	m.mu.Lock()
	id, found := m.usbToManaged[usbID]
	if !found {
		m.mu.Unlock()
		return nil, uuid.UUID{}, false
	}
	device = m.byManagedID[id]
	delete(m.usbToManaged, usbID)
	delete(m.byManagedID, id)
	m.mu.Unlock()

	m.events.Publish(DeviceEvent{Kind: DeviceRemoved, ID: id})
	return device, id, true
}

// RemoveAllDevices atomically drains the registry and returns every device
// that was in it, for shutdown: callers disable each one, then drop it.
func (m *Manager) RemoveAllDevices() []ManagedDevice {
	m.mu.Lock()
	devices := make([]ManagedDevice, 0, len(m.byManagedID))
	for _, d := range m.byManagedID {
		devices = append(devices, d)
	}
	m.byManagedID = make(map[uuid.UUID]ManagedDevice)
	m.usbToManaged = make(map[string]uuid.UUID)
	m.mu.Unlock()
	return devices
}

// GetAllManagedIDs returns every currently-registered managed UUID.
func (m *Manager) GetAllManagedIDs() []uuid.UUID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(m.byManagedID))
	for id := range m.byManagedID {
		ids = append(ids, id)
	}
	return ids
}

// GetManagedIDForUSBID returns the managed UUID currently registered under
// usbID, if any.
func (m *Manager) GetManagedIDForUSBID(usbID string) (uuid.UUID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.usbToManaged[usbID]
	return id, ok
}

func (m *Manager) lookup(id uuid.UUID) (ManagedDevice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	device, ok := m.byManagedID[id]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	return device, nil
}

// SetStatus dispatches to the device registered under id.
func (m *Manager) SetStatus(id uuid.UUID, status fsctcore.FsctStatus) error {
	device, err := m.lookup(id)
	if err != nil {
		return err
	}
	return device.SetStatus(status)
}

// SetProgress dispatches to the device registered under id.
func (m *Manager) SetProgress(id uuid.UUID, timeline *fsctcore.TimelineInfo) error {
	device, err := m.lookup(id)
	if err != nil {
		return err
	}
	return device.SetProgress(timeline)
}

// SetCurrentText dispatches to the device registered under id.
func (m *Manager) SetCurrentText(id uuid.UUID, kind fsctcore.FsctTextMetadata, text *string) error {
	device, err := m.lookup(id)
	if err != nil {
		return err
	}
	return device.SetCurrentText(kind, text)
}

// SetEnable dispatches to the device registered under id.
func (m *Manager) SetEnable(id uuid.UUID, enable bool) error {
	device, err := m.lookup(id)
	if err != nil {
		return err
	}
	return device.SetEnable(enable)
}

// GetEnable dispatches to the device registered under id.
func (m *Manager) GetEnable(id uuid.UUID) (bool, error) {
	device, err := m.lookup(id)
	if err != nil {
		return false, err
	}
	return device.GetEnable()
}

// Subscribe returns a new Device Manager event subscription. A lagged
// subscriber must resynchronize via GetAllManagedIDs.
func (m *Manager) Subscribe() *broadcast.Subscription[DeviceEvent] {
	return m.events.Subscribe()
}
