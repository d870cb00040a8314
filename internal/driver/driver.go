// Package driver exposes the Driver Façade (C11): the single public entry
// point composing the Player Manager and Device Manager, and the operations
// external callers (a GUI, an IPC server) use instead of reaching into
// either manager directly. Grounded on
// original_source/core/src/driver.rs's FsctDriver trait and LocalDriver.
package driver

import (
	"context"
	"time"

	"github.com/google/gousb"
	"github.com/google/uuid"

	"github.com/HEM-RnD/fsct-host-sub000/internal/applier"
	"github.com/HEM-RnD/fsct-host-sub000/internal/broadcast"
	"github.com/HEM-RnD/fsct-host-sub000/internal/devicemanager"
	"github.com/HEM-RnD/fsct-host-sub000/internal/fsctcore"
	"github.com/HEM-RnD/fsct-host-sub000/internal/orchestrator"
	"github.com/HEM-RnD/fsct-host-sub000/internal/playermanager"
	"github.com/HEM-RnD/fsct-host-sub000/internal/servicehandle"
	"github.com/HEM-RnD/fsct-host-sub000/internal/usbwatch"
)

// Driver composes a Player Manager and a Device Manager and owns nothing
// else; the orchestrator and USB watch it spawns in Run hold the only
// routing/transport state.
type Driver struct {
	players *playermanager.Manager
	devices *devicemanager.Manager
}

// New creates a Driver with fresh, empty managers.
func New() *Driver {
	return &Driver{
		players: playermanager.New(),
		devices: devicemanager.New(),
	}
}

// WithManagers wraps already-constructed managers (useful for tests driving
// the façade against a Device Manager preloaded with fakes).
func WithManagers(players *playermanager.Manager, devices *devicemanager.Manager) *Driver {
	return &Driver{players: players, devices: devices}
}

// Run spawns the Orchestrator and the USB Device Watch (over usbCtx, which
// the caller owns and must close after the returned handle's Shutdown
// completes) and returns a MultiServiceHandle composing both.
func (d *Driver) Run(ctx context.Context, usbCtx *gousb.Context, pollInterval time.Duration) *servicehandle.MultiServiceHandle {
	playerEvents := d.players.Subscribe()
	deviceEvents := d.devices.Subscribe()

	orch := orchestrator.New(applier.New(d.devices))
	watch := usbwatch.New(usbCtx, d.devices, pollInterval)

	multi := servicehandle.NewMultiWithCapacity(2)
	multi.Add(servicehandle.Spawn(ctx, func(stop servicehandle.StopHandle) error {
		orch.Run(stop, playerEvents.C, deviceEvents.C)
		return nil
	}))
	multi.Add(servicehandle.Spawn(ctx, func(stop servicehandle.StopHandle) error {
		return watch.Run(stop)
	}))
	return multi
}

// RegisterPlayer forwards to the Player Manager.
func (d *Driver) RegisterPlayer(selfID string) playermanager.PlayerID {
	return d.players.RegisterPlayer(selfID)
}

// UnregisterPlayer forwards to the Player Manager.
func (d *Driver) UnregisterPlayer(id playermanager.PlayerID) error {
	return d.players.UnregisterPlayer(id)
}

// AssignPlayerToDevice forwards to the Player Manager.
func (d *Driver) AssignPlayerToDevice(id playermanager.PlayerID, device uuid.UUID) error {
	return d.players.AssignPlayerToDevice(id, device)
}

// UnassignPlayerFromDevice forwards to the Player Manager.
func (d *Driver) UnassignPlayerFromDevice(id playermanager.PlayerID, device uuid.UUID) error {
	return d.players.UnassignPlayerFromDevice(id, device)
}

// UpdatePlayerState forwards to the Player Manager.
func (d *Driver) UpdatePlayerState(id playermanager.PlayerID, state fsctcore.PlayerState) error {
	return d.players.UpdatePlayerState(id, state)
}

// UpdatePlayerStatus forwards to the Player Manager.
func (d *Driver) UpdatePlayerStatus(id playermanager.PlayerID, status fsctcore.FsctStatus) error {
	return d.players.UpdatePlayerStatus(id, status)
}

// UpdatePlayerTimeline forwards to the Player Manager.
func (d *Driver) UpdatePlayerTimeline(id playermanager.PlayerID, timeline *fsctcore.TimelineInfo) error {
	return d.players.UpdatePlayerTimeline(id, timeline)
}

// UpdatePlayerMetadata forwards to the Player Manager.
func (d *Driver) UpdatePlayerMetadata(id playermanager.PlayerID, texts fsctcore.TrackMetadata) error {
	return d.players.UpdatePlayerMetadata(id, texts)
}

// SetPreferredPlayer forwards to the Player Manager.
func (d *Driver) SetPreferredPlayer(id *playermanager.PlayerID) {
	d.players.SetPreferredPlayer(id)
}

// GetPreferredPlayer forwards to the Player Manager.
func (d *Driver) GetPreferredPlayer() *playermanager.PlayerID {
	return d.players.GetPreferredPlayer()
}

// GetPlayerAssignedDevice forwards to the Player Manager.
func (d *Driver) GetPlayerAssignedDevice(id playermanager.PlayerID) (*uuid.UUID, error) {
	return d.players.GetPlayerAssignedDevice(id)
}

// SubscribePlayerEvents exposes the player-event broadcast for external
// consumers (a GUI, an IPC server).
func (d *Driver) SubscribePlayerEvents() *broadcast.Subscription[playermanager.PlayerEvent] {
	return d.players.Subscribe()
}

// ListPlayers forwards to the Player Manager, for read-only consumers (the
// status surface).
func (d *Driver) ListPlayers() []playermanager.RegisteredPlayer {
	return d.players.ListPlayers()
}

// Devices exposes the Device Manager for read-only queries (GetAllManagedIDs,
// Subscribe) by an optional status surface.
func (d *Driver) Devices() *devicemanager.Manager { return d.devices }
