package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HEM-RnD/fsct-host-sub000/internal/fsctcore"
)

func TestDriver_RegisterAndUpdatePlayer(t *testing.T) {
	d := New()
	id := d.RegisterPlayer("self-1")

	err := d.UpdatePlayerStatus(id, fsctcore.StatusPlaying)
	require.NoError(t, err)

	dev, err := d.GetPlayerAssignedDevice(id)
	require.NoError(t, err)
	assert.Nil(t, dev)
}

func TestDriver_SetAndGetPreferredPlayer(t *testing.T) {
	d := New()
	id := d.RegisterPlayer("self-1")
	d.SetPreferredPlayer(&id)
	assert.Equal(t, id, *d.GetPreferredPlayer())
}

func TestDriver_SubscribePlayerEventsReceivesRegistered(t *testing.T) {
	d := New()
	sub := d.SubscribePlayerEvents()
	d.RegisterPlayer("self-1")

	ev := <-sub.C
	assert.Equal(t, "self-1", ev.SelfID)
}

func TestDriver_UnregisterUnknownPlayerErrors(t *testing.T) {
	d := New()
	err := d.UnregisterPlayer(9999)
	assert.Error(t, err)
}

func TestDriver_DevicesExposesManager(t *testing.T) {
	d := New()
	assert.Empty(t, d.Devices().GetAllManagedIDs())
}
