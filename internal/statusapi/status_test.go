package statusapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HEM-RnD/fsct-host-sub000/internal/driver"
)

func newTestServer(t *testing.T, d *driver.Driver) *httptest.Server {
	t.Helper()
	s := New(d, "127.0.0.1:0")
	return httptest.NewServer(s.httpServer.Handler)
}

func TestHealthz_ReportsDeviceCount(t *testing.T) {
	d := driver.New()
	ts := newTestServer(t, d)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, 0, body.DeviceCount)
}

func TestDevices_EmptyByDefault(t *testing.T) {
	d := driver.New()
	ts := newTestServer(t, d)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/devices")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body []DeviceSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Empty(t, body)
}

func TestPlayers_ListsRegisteredPlayers(t *testing.T) {
	d := driver.New()
	d.RegisterPlayer("self-1")
	ts := newTestServer(t, d)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/players")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body []PlayerSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body, 1)
	assert.Equal(t, "self-1", body[0].SelfID)
	assert.Equal(t, "Unknown", body[0].Status)
}
