// Package playermanager implements the Player Manager (C7): the player
// registry, monotonic player IDs, and the PlayerEvent broadcast.
package playermanager

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/HEM-RnD/fsct-host-sub000/internal/broadcast"
	"github.com/HEM-RnD/fsct-host-sub000/internal/fsctcore"
)

// playerEventCapacity is the broadcast channel's minimum bound per §4.7/§5.
const playerEventCapacity = 256

// PlayerID is a monotonically increasing, never-reused player identifier.
type PlayerID uint32

// RegisteredPlayer is one entry of the player registry.
type RegisteredPlayer struct {
	ID             PlayerID
	SelfID         string
	State          fsctcore.PlayerState
	AssignedDevice *uuid.UUID
}

// PlayerEventKind enumerates every event the manager can emit.
type PlayerEventKind int

const (
	EventRegistered PlayerEventKind = iota
	EventUnregistered
	EventAssigned
	EventUnassigned
	EventStateUpdated
	EventPreferredChanged
)

// PlayerEvent is published on the manager's broadcast bus.
type PlayerEvent struct {
	Kind      PlayerEventKind
	Player    PlayerID
	SelfID    string
	Device    *uuid.UUID
	State     fsctcore.PlayerState
	Preferred *PlayerID
}

// ErrPlayerNotFound is returned when an operation names an unregistered
// player ID.
var ErrPlayerNotFound = fsctcore.NewProtocolError("player not found")

// ErrPlayerNotAssigned is returned by unassign when the player isn't
// currently assigned to the given device.
var ErrPlayerNotAssigned = fsctcore.NewProtocolError("player not assigned to the specified device")

// Manager is the Player Manager (C7).
type Manager struct {
	mu       sync.Mutex
	players  map[PlayerID]*RegisteredPlayer
	nextID   atomic.Uint32
	preferred *PlayerID

	events *broadcast.Bus[PlayerEvent]
}

// New creates an empty Manager. IDs start at 1.
func New() *Manager {
	m := &Manager{
		players: make(map[PlayerID]*RegisteredPlayer),
		events:  broadcast.New[PlayerEvent](playerEventCapacity),
	}
	m.nextID.Store(1)
	return m
}

// RegisterPlayer allocates a new player ID with empty state and emits
// Registered.
func (m *Manager) RegisterPlayer(selfID string) PlayerID {
	id := PlayerID(m.nextID.Add(1) - 1)

	m.mu.Lock()
	m.players[id] = &RegisteredPlayer{ID: id, SelfID: selfID, State: fsctcore.PlayerState{Status: fsctcore.StatusDefault}}
	m.mu.Unlock()

	m.events.Publish(PlayerEvent{Kind: EventRegistered, Player: id, SelfID: selfID})
	return id
}

// UnregisterPlayer removes the player, first unassigning it if it held a
// device assignment, then clearing it as the preferred player if it was one.
func (m *Manager) UnregisterPlayer(id PlayerID) error {
	m.mu.Lock()
	player, ok := m.players[id]
	if !ok {
		m.mu.Unlock()
		return ErrPlayerNotFound
	}
	var assignedDevice *uuid.UUID
	if player.AssignedDevice != nil {
		assignedDevice = player.AssignedDevice
		player.AssignedDevice = nil
	}
	wasPreferred := m.preferred != nil && *m.preferred == id
	if wasPreferred {
		m.preferred = nil
	}
	delete(m.players, id)
	m.mu.Unlock()

	if assignedDevice != nil {
		m.events.Publish(PlayerEvent{Kind: EventUnassigned, Player: id, Device: assignedDevice})
	}
	m.events.Publish(PlayerEvent{Kind: EventUnregistered, Player: id})
	if wasPreferred {
		m.events.Publish(PlayerEvent{Kind: EventPreferredChanged, Preferred: nil})
	}
	return nil
}

// AssignPlayerToDevice records the assignment and emits Assigned followed
// immediately by a StateUpdated carrying the player's current state.
func (m *Manager) AssignPlayerToDevice(id PlayerID, device uuid.UUID) error {
	m.mu.Lock()
	player, ok := m.players[id]
	if !ok {
		m.mu.Unlock()
		return ErrPlayerNotFound
	}
	player.AssignedDevice = &device
	state := player.State
	m.mu.Unlock()

	m.events.Publish(PlayerEvent{Kind: EventAssigned, Player: id, Device: &device})
	m.events.Publish(PlayerEvent{Kind: EventStateUpdated, Player: id, Device: &device, State: state})
	return nil
}

// UnassignPlayerFromDevice clears the assignment if it currently matches
// device, emitting Unassigned. Returns ErrPlayerNotAssigned if it doesn't.
func (m *Manager) UnassignPlayerFromDevice(id PlayerID, device uuid.UUID) error {
	m.mu.Lock()
	player, ok := m.players[id]
	if !ok {
		m.mu.Unlock()
		return ErrPlayerNotFound
	}
	if player.AssignedDevice == nil || *player.AssignedDevice != device {
		m.mu.Unlock()
		return ErrPlayerNotAssigned
	}
	player.AssignedDevice = nil
	m.mu.Unlock()

	m.events.Publish(PlayerEvent{Kind: EventUnassigned, Player: id, Device: &device})
	return nil
}

// UpdatePlayerState replaces the whole state and emits StateUpdated.
func (m *Manager) UpdatePlayerState(id PlayerID, state fsctcore.PlayerState) error {
	m.mu.Lock()
	player, ok := m.players[id]
	if !ok {
		m.mu.Unlock()
		return ErrPlayerNotFound
	}
	player.State = state
	device := player.AssignedDevice
	m.mu.Unlock()

	m.events.Publish(PlayerEvent{Kind: EventStateUpdated, Player: id, Device: device, State: state})
	return nil
}

// UpdatePlayerStatus patches only the status field.
func (m *Manager) UpdatePlayerStatus(id PlayerID, status fsctcore.FsctStatus) error {
	return m.patchState(id, func(s *fsctcore.PlayerState) { s.Status = status })
}

// UpdatePlayerTimeline patches only the timeline field.
func (m *Manager) UpdatePlayerTimeline(id PlayerID, timeline *fsctcore.TimelineInfo) error {
	return m.patchState(id, func(s *fsctcore.PlayerState) { s.Timeline = timeline })
}

// UpdatePlayerMetadata patches only the text-metadata field.
func (m *Manager) UpdatePlayerMetadata(id PlayerID, texts fsctcore.TrackMetadata) error {
	return m.patchState(id, func(s *fsctcore.PlayerState) { s.Texts = texts })
}

func (m *Manager) patchState(id PlayerID, patch func(*fsctcore.PlayerState)) error {
	m.mu.Lock()
	player, ok := m.players[id]
	if !ok {
		m.mu.Unlock()
		return ErrPlayerNotFound
	}
	patch(&player.State)
	state := player.State
	device := player.AssignedDevice
	m.mu.Unlock()

	m.events.Publish(PlayerEvent{Kind: EventStateUpdated, Player: id, Device: device, State: state})
	return nil
}

// SetPreferredPlayer stores the preferred player (nil clears it) and emits
// PreferredChanged. Not consulted by any routing decision — reserved for
// future policy (spec.md's Open Question, preserved as a stored-only field).
func (m *Manager) SetPreferredPlayer(id *PlayerID) {
	m.mu.Lock()
	m.preferred = id
	m.mu.Unlock()
	m.events.Publish(PlayerEvent{Kind: EventPreferredChanged, Preferred: id})
}

// GetPreferredPlayer returns the currently stored preferred player, if any.
func (m *Manager) GetPreferredPlayer() *PlayerID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.preferred
}

// GetPlayerAssignedDevice returns the device a player is currently assigned
// to, if any.
func (m *Manager) GetPlayerAssignedDevice(id PlayerID) (*uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	player, ok := m.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return player.AssignedDevice, nil
}

// ListPlayers returns a snapshot of every registered player, in no
// particular order.
func (m *Manager) ListPlayers() []RegisteredPlayer {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RegisteredPlayer, 0, len(m.players))
	for _, player := range m.players {
		out = append(out, *player)
	}
	return out
}

// Subscribe returns a new PlayerEvent subscription.
func (m *Manager) Subscribe() *broadcast.Subscription[PlayerEvent] {
	return m.events.Subscribe()
}
