package broadcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishFansOutToAllSubscribers(t *testing.T) {
	b := New[int](4)
	s1 := b.Subscribe()
	s2 := b.Subscribe()

	b.Publish(1)
	b.Publish(2)

	assert.Equal(t, 1, <-s1.C)
	assert.Equal(t, 2, <-s1.C)
	assert.Equal(t, 1, <-s2.C)
	assert.Equal(t, 2, <-s2.C)
}

func TestBus_LaggedSubscriberDoesNotBlockPublisher(t *testing.T) {
	b := New[int](2)
	s := b.Subscribe()

	for i := 0; i < 10; i++ {
		b.Publish(i)
	}

	// The first two values made it in; the rest were dropped for this
	// subscriber rather than blocking Publish.
	require.Len(t, s.C, 2)
}

func TestBus_UnsubscribeClosesChannel(t *testing.T) {
	b := New[int](1)
	s := b.Subscribe()
	s.Unsubscribe()

	_, ok := <-s.C
	assert.False(t, ok)
}

func TestBus_CloseClosesAllSubscribers(t *testing.T) {
	b := New[string](1)
	s1 := b.Subscribe()
	s2 := b.Subscribe()
	b.Close()

	_, ok1 := <-s1.C
	_, ok2 := <-s2.C
	assert.False(t, ok1)
	assert.False(t, ok2)

	// Publish after Close is a silent no-op, not a panic.
	b.Publish("ignored")
}

func TestBus_MinimumCapacity(t *testing.T) {
	b := New[int](0)
	assert.Equal(t, 1, b.capacity)
}
