// Package orchestrator implements the Orchestrator (C8): the single-writer
// routing state machine that mirrors player state onto devices.
package orchestrator

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/HEM-RnD/fsct-host-sub000/internal/devicemanager"
	"github.com/HEM-RnD/fsct-host-sub000/internal/fsctcore"
	"github.com/HEM-RnD/fsct-host-sub000/internal/playermanager"
)

// StateApplier is the subset of *applier.Applier the orchestrator depends
// on. An interface here lets tests verify the seven scenarios in §8 against
// a recording fake instead of real device I/O.
type StateApplier interface {
	Apply(device uuid.UUID, state fsctcore.PlayerState) error
}

// Orchestrator owns every piece of routing state; it is never touched from
// any goroutine but the one running Run, so none of its fields need a lock.
type Orchestrator struct {
	applier StateApplier

	playerToDevice   map[playermanager.PlayerID]uuid.UUID
	deviceToPlayer   map[uuid.UUID]playermanager.PlayerID
	connectedDevices map[uuid.UUID]struct{}
	lastState        map[playermanager.PlayerID]fsctcore.PlayerState
	activeUnassigned *playermanager.PlayerID
	preferredPlayer  *playermanager.PlayerID
}

// New creates an Orchestrator that applies state through a.
func New(a StateApplier) *Orchestrator {
	return &Orchestrator{
		applier:          a,
		playerToDevice:   make(map[playermanager.PlayerID]uuid.UUID),
		deviceToPlayer:   make(map[uuid.UUID]playermanager.PlayerID),
		connectedDevices: make(map[uuid.UUID]struct{}),
		lastState:        make(map[playermanager.PlayerID]fsctcore.PlayerState),
	}
}

// Run loops on the merged input of playerEvents and deviceEvents until
// either channel closes or ctx is canceled. Device events are serviced with
// priority over player events (a non-blocking drain of deviceEvents is tried
// before falling into the combined select) so a burst of player state
// updates can never starve a disconnect.
func (o *Orchestrator) Run(ctx context.Context, playerEvents <-chan playermanager.PlayerEvent, deviceEvents <-chan devicemanager.DeviceEvent) {
	for {
		select {
		case ev, ok := <-deviceEvents:
			if !ok {
				return
			}
			o.handleDeviceEvent(ev)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			return
		case ev, ok := <-deviceEvents:
			if !ok {
				return
			}
			o.handleDeviceEvent(ev)
		case ev, ok := <-playerEvents:
			if !ok {
				return
			}
			o.handlePlayerEvent(ev)
		}
	}
}

func (o *Orchestrator) apply(device uuid.UUID, state fsctcore.PlayerState) {
	if err := o.applier.Apply(device, state); err != nil {
		log.Printf("orchestrator: apply to device %s failed (swallowed): %v", device, err)
	}
}

func (o *Orchestrator) isConnected(device uuid.UUID) bool {
	_, ok := o.connectedDevices[device]
	return ok
}

func (o *Orchestrator) handleDeviceEvent(ev devicemanager.DeviceEvent) {
	switch ev.Kind {
	case devicemanager.DeviceAdded:
		o.connectedDevices[ev.ID] = struct{}{}
		if p, ok := o.deviceToPlayer[ev.ID]; ok {
			if state, ok := o.lastState[p]; ok {
				o.apply(ev.ID, state)
			}
		} else if o.activeUnassigned != nil {
			if state, ok := o.lastState[*o.activeUnassigned]; ok {
				o.apply(ev.ID, state)
			}
		}
	case devicemanager.DeviceRemoved:
		delete(o.connectedDevices, ev.ID)
		if p, ok := o.deviceToPlayer[ev.ID]; ok {
			delete(o.deviceToPlayer, ev.ID)
			delete(o.playerToDevice, p)
		}
	}
}

func (o *Orchestrator) handlePlayerEvent(ev playermanager.PlayerEvent) {
	switch ev.Kind {
	case playermanager.EventRegistered:
		// record-only.

	case playermanager.EventUnregistered:
		delete(o.lastState, ev.Player)
		o.clearActiveUnassignedIfSelf(ev.Player)
		if o.preferredPlayer != nil && *o.preferredPlayer == ev.Player {
			o.preferredPlayer = nil
		}

	case playermanager.EventAssigned:
		device := *ev.Device
		o.playerToDevice[ev.Player] = device
		o.deviceToPlayer[device] = ev.Player
		if o.isConnected(device) {
			if state, ok := o.lastState[ev.Player]; ok {
				o.apply(device, state)
			}
		}
		o.clearActiveUnassignedIfSelf(ev.Player)

	case playermanager.EventUnassigned:
		device := *ev.Device
		delete(o.playerToDevice, ev.Player)
		delete(o.deviceToPlayer, device)
		if o.activeUnassigned != nil && o.isConnected(device) {
			if state, ok := o.lastState[*o.activeUnassigned]; ok {
				o.apply(device, state)
			}
		}

	case playermanager.EventStateUpdated:
		o.lastState[ev.Player] = ev.State
		if device, assigned := o.playerToDevice[ev.Player]; assigned {
			if o.isConnected(device) {
				o.apply(device, ev.State)
			}
			return
		}
		player := ev.Player
		o.activeUnassigned = &player
		for device := range o.connectedDevices {
			if _, hasPlayer := o.deviceToPlayer[device]; !hasPlayer {
				o.apply(device, ev.State)
			}
		}

	case playermanager.EventPreferredChanged:
		// Stored only; never consulted by routing (see SPEC_FULL.md's Open
		// Question decision).
		o.preferredPlayer = ev.Preferred
	}
}

// clearActiveUnassignedIfSelf implements the deliberately stubbed
// active-unassigned picker: when the current active-unassigned player p
// stops being unassigned (gets assigned to a device, or is unregistered),
// active_unassigned becomes None rather than falling over to some other
// unassigned player. Preserved as-is per spec.md's Open Questions.
func (o *Orchestrator) clearActiveUnassignedIfSelf(p playermanager.PlayerID) {
	if o.activeUnassigned != nil && *o.activeUnassigned == p {
		o.activeUnassigned = nil
	}
}
