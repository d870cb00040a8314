package servicehandle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawn_RunsUntilShutdownRequested(t *testing.T) {
	started := make(chan struct{})
	h := Spawn(context.Background(), func(stop StopHandle) error {
		close(started)
		<-stop.Done()
		return nil
	})

	<-started
	err := h.Shutdown()
	require.NoError(t, err)
}

func TestShutdown_ReturnsTaskError(t *testing.T) {
	wantErr := errors.New("boom")
	h := Spawn(context.Background(), func(stop StopHandle) error {
		<-stop.Done()
		return wantErr
	})

	err := h.Shutdown()
	assert.Equal(t, wantErr, err)
}

func TestRequestShutdownThenAwaitJoin(t *testing.T) {
	h := Spawn(context.Background(), func(stop StopHandle) error {
		<-stop.Done()
		return nil
	})
	h.RequestShutdown()
	require.NoError(t, h.AwaitJoin())
}

func TestMultiServiceHandle_ShutdownStopsAllAndReturnsFirstError(t *testing.T) {
	m := NewMultiWithCapacity(3)
	order := make(chan int, 3)

	for i := 0; i < 3; i++ {
		idx := i
		var retErr error
		if idx == 1 {
			retErr = errors.New("task 1 failed")
		}
		h := Spawn(context.Background(), func(stop StopHandle) error {
			<-stop.Done()
			order <- idx
			return retErr
		})
		m.Add(h)
	}

	err := m.Shutdown()
	assert.Error(t, err)
	assert.Equal(t, 3, m.Len())

	close(order)
	count := 0
	for range order {
		count++
	}
	assert.Equal(t, 3, count)
}

func TestMultiServiceHandle_EmptyShutdownIsNoop(t *testing.T) {
	m := NewMulti()
	assert.True(t, m.IsEmpty())
	assert.NoError(t, m.Shutdown())
}

func TestAbort_CancelsLikeRequestShutdown(t *testing.T) {
	h := Spawn(context.Background(), func(stop StopHandle) error {
		<-stop.Done()
		return nil
	})
	h.Abort()

	select {
	case err := <-h.done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("task did not observe abort")
	}
}
