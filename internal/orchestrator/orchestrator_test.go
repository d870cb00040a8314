package orchestrator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HEM-RnD/fsct-host-sub000/internal/devicemanager"
	"github.com/HEM-RnD/fsct-host-sub000/internal/fsctcore"
	"github.com/HEM-RnD/fsct-host-sub000/internal/playermanager"
)

type appliedCall struct {
	device uuid.UUID
	title  string
}

// recordingApplier is a StateApplier fake that records every apply call in
// order, so the seven named scenarios can assert on exact apply sequences.
type recordingApplier struct {
	calls []appliedCall
}

func (r *recordingApplier) Apply(device uuid.UUID, state fsctcore.PlayerState) error {
	title := ""
	if state.Texts.Title != nil {
		title = *state.Texts.Title
	}
	r.calls = append(r.calls, appliedCall{device: device, title: title})
	return nil
}

func newScenarioOrchestrator() (*Orchestrator, *recordingApplier) {
	ra := &recordingApplier{}
	return New(ra), ra
}

func stateWithTitle(title string) fsctcore.PlayerState {
	t := title
	return fsctcore.PlayerState{Status: fsctcore.StatusPlaying, Texts: fsctcore.TrackMetadata{Title: &t}}
}

func TestScenario1_UnassignedThenDeviceArrives(t *testing.T) {
	o, sa := newScenarioOrchestrator()
	p1 := playermanager.PlayerID(1)
	d := uuid.New()

	o.handlePlayerEvent(playermanager.PlayerEvent{Kind: playermanager.EventRegistered, Player: p1})
	o.handlePlayerEvent(playermanager.PlayerEvent{Kind: playermanager.EventStateUpdated, Player: p1, State: stateWithTitle("S1")})
	o.handleDeviceEvent(devicemanager.DeviceEvent{Kind: devicemanager.DeviceAdded, ID: d})

	require.Len(t, sa.calls, 1)
	assert.Equal(t, d, sa.calls[0].device)
	assert.Equal(t, "S1", sa.calls[0].title)
}

func TestScenario2_AssignBeforeConnect(t *testing.T) {
	o, sa := newScenarioOrchestrator()
	p1 := playermanager.PlayerID(1)
	d := uuid.New()

	o.handlePlayerEvent(playermanager.PlayerEvent{Kind: playermanager.EventRegistered, Player: p1})
	o.handlePlayerEvent(playermanager.PlayerEvent{Kind: playermanager.EventStateUpdated, Player: p1, State: stateWithTitle("S1")})
	o.handlePlayerEvent(playermanager.PlayerEvent{Kind: playermanager.EventAssigned, Player: p1, Device: &d})
	assert.Empty(t, sa.calls, "device not yet connected, Assigned alone applies nothing")

	o.handleDeviceEvent(devicemanager.DeviceEvent{Kind: devicemanager.DeviceAdded, ID: d})

	require.Len(t, sa.calls, 1)
	assert.Equal(t, "S1", sa.calls[0].title)
}

func TestScenario3_AssignedUpdate(t *testing.T) {
	o, sa := newScenarioOrchestrator()
	p1 := playermanager.PlayerID(1)
	d := uuid.New()
	o.handlePlayerEvent(playermanager.PlayerEvent{Kind: playermanager.EventStateUpdated, Player: p1, State: stateWithTitle("S1")})
	o.handlePlayerEvent(playermanager.PlayerEvent{Kind: playermanager.EventAssigned, Player: p1, Device: &d})
	o.handleDeviceEvent(devicemanager.DeviceEvent{Kind: devicemanager.DeviceAdded, ID: d})
	sa.calls = nil

	o.handlePlayerEvent(playermanager.PlayerEvent{Kind: playermanager.EventStateUpdated, Player: p1, State: stateWithTitle("S2")})

	require.Len(t, sa.calls, 1)
	assert.Equal(t, "S2", sa.calls[0].title)
}

func TestScenario4_TwoPlayersOneDeviceAssignmentSwitch(t *testing.T) {
	o, sa := newScenarioOrchestrator()
	p1, p2 := playermanager.PlayerID(1), playermanager.PlayerID(2)
	d := uuid.New()

	o.handlePlayerEvent(playermanager.PlayerEvent{Kind: playermanager.EventStateUpdated, Player: p1, State: stateWithTitle("S1")})
	o.handleDeviceEvent(devicemanager.DeviceEvent{Kind: devicemanager.DeviceAdded, ID: d})
	require.Len(t, sa.calls, 1)
	assert.Equal(t, "S1", sa.calls[0].title)

	o.handlePlayerEvent(playermanager.PlayerEvent{Kind: playermanager.EventStateUpdated, Player: p2, State: stateWithTitle("S2")})
	require.Len(t, sa.calls, 2)
	assert.Equal(t, "S2", sa.calls[1].title, "D is unassigned, so P2 becomes active-unassigned and is applied")

	o.handlePlayerEvent(playermanager.PlayerEvent{Kind: playermanager.EventAssigned, Player: p1, Device: &d})
	require.Len(t, sa.calls, 3)
	assert.Equal(t, "S1", sa.calls[2].title, "assignment re-applies P1's last known state")
}

func TestScenario5_OnePlayerTwoDevices(t *testing.T) {
	o, sa := newScenarioOrchestrator()
	p1 := playermanager.PlayerID(1)
	d1, d2 := uuid.New(), uuid.New()

	o.handlePlayerEvent(playermanager.PlayerEvent{Kind: playermanager.EventStateUpdated, Player: p1, State: stateWithTitle("S1")})
	o.handleDeviceEvent(devicemanager.DeviceEvent{Kind: devicemanager.DeviceAdded, ID: d1})
	o.handleDeviceEvent(devicemanager.DeviceEvent{Kind: devicemanager.DeviceAdded, ID: d2})
	require.Len(t, sa.calls, 2)

	o.handlePlayerEvent(playermanager.PlayerEvent{Kind: playermanager.EventAssigned, Player: p1, Device: &d1})
	require.Len(t, sa.calls, 3)
	assert.Equal(t, d1, sa.calls[2].device)

	o.handlePlayerEvent(playermanager.PlayerEvent{Kind: playermanager.EventStateUpdated, Player: p1, State: stateWithTitle("S2")})
	require.Len(t, sa.calls, 4)
	assert.Equal(t, d1, sa.calls[3].device, "update for an assigned player never propagates to unassigned devices")
}

func TestScenario6_UnassignPropagates(t *testing.T) {
	o, sa := newScenarioOrchestrator()
	p1, p2 := playermanager.PlayerID(1), playermanager.PlayerID(2)
	d := uuid.New()

	o.handleDeviceEvent(devicemanager.DeviceEvent{Kind: devicemanager.DeviceAdded, ID: d})
	o.handlePlayerEvent(playermanager.PlayerEvent{Kind: playermanager.EventAssigned, Player: p1, Device: &d})
	o.handlePlayerEvent(playermanager.PlayerEvent{Kind: playermanager.EventStateUpdated, Player: p2, State: stateWithTitle("S2")})
	sa.calls = nil

	o.handlePlayerEvent(playermanager.PlayerEvent{Kind: playermanager.EventUnassigned, Player: p1, Device: &d})

	require.Len(t, sa.calls, 1)
	assert.Equal(t, d, sa.calls[0].device)
	assert.Equal(t, "S2", sa.calls[0].title)
}

func TestScenario7_PreferredChangeIsPassive(t *testing.T) {
	o, sa := newScenarioOrchestrator()
	p1 := playermanager.PlayerID(1)

	o.handlePlayerEvent(playermanager.PlayerEvent{Kind: playermanager.EventPreferredChanged, Preferred: &p1})

	assert.Empty(t, sa.calls)
}

func TestUnregisteredClearsActiveUnassigned(t *testing.T) {
	o, sa := newScenarioOrchestrator()
	p1 := playermanager.PlayerID(1)
	d := uuid.New()

	o.handlePlayerEvent(playermanager.PlayerEvent{Kind: playermanager.EventStateUpdated, Player: p1, State: stateWithTitle("S1")})
	o.handlePlayerEvent(playermanager.PlayerEvent{Kind: playermanager.EventUnregistered, Player: p1})
	sa.calls = nil

	// With active_unassigned cleared, a newly added device gets nothing.
	o.handleDeviceEvent(devicemanager.DeviceEvent{Kind: devicemanager.DeviceAdded, ID: d})
	assert.Empty(t, sa.calls)
}

func TestDeviceRemovedClearsAssignment(t *testing.T) {
	o, sa := newScenarioOrchestrator()
	p1 := playermanager.PlayerID(1)
	d := uuid.New()

	o.handleDeviceEvent(devicemanager.DeviceEvent{Kind: devicemanager.DeviceAdded, ID: d})
	o.handlePlayerEvent(playermanager.PlayerEvent{Kind: playermanager.EventAssigned, Player: p1, Device: &d})
	o.handleDeviceEvent(devicemanager.DeviceEvent{Kind: devicemanager.DeviceRemoved, ID: d})

	_, stillAssigned := o.playerToDevice[p1]
	assert.False(t, stillAssigned)
	sa.calls = nil
}
