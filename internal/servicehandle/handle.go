// Package servicehandle implements the Service Handles (C10): the one
// cooperative-shutdown discipline used by every long-running task in the
// driver. Go has no oneshot channel or JoinHandle, so StopHandle and
// ServiceHandle are built on context.CancelFunc and a result channel,
// grounded on original_source/core/src/service.rs's StopHandle/
// ServiceHandle/spawn_service/MultiServiceHandle.
package servicehandle

import (
	"context"
	"time"
)

// StopHandle is handed to a running task so it can select on cancellation
// alongside its own work. It implements context.Context so a task already
// written against ctx-based cancellation (the Orchestrator, the USB Device
// Watch) can take a StopHandle directly wherever it expects a Context.
type StopHandle struct {
	ctx context.Context
}

// Done returns the channel a task selects on to learn it should stop.
func (s StopHandle) Done() <-chan struct{} { return s.ctx.Done() }

// Err returns the reason the stop signal fired, if it has.
func (s StopHandle) Err() error { return s.ctx.Err() }

// Deadline and Value complete the context.Context interface by delegating
// to the underlying context.
func (s StopHandle) Deadline() (time.Time, bool) { return s.ctx.Deadline() }
func (s StopHandle) Value(key any) any           { return s.ctx.Value(key) }

// ServiceHandle is the caller-facing handle for one spawned task: request
// its shutdown, wait for it to finish, or do both in one call.
type ServiceHandle struct {
	cancel context.CancelFunc
	done   chan error
}

// Spawn runs fn in a new goroutine with a fresh cancellable context derived
// from parent, handing fn a StopHandle and returning a ServiceHandle the
// caller uses to manage its lifetime.
func Spawn(parent context.Context, fn func(StopHandle) error) *ServiceHandle {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan error, 1)
	go func() {
		done <- fn(StopHandle{ctx: ctx})
	}()
	return &ServiceHandle{cancel: cancel, done: done}
}

// RequestShutdown signals the task to stop without waiting for it to exit.
func (h *ServiceHandle) RequestShutdown() { h.cancel() }

// AwaitJoin blocks until the task has returned and reports its error.
func (h *ServiceHandle) AwaitJoin() error { return <-h.done }

// Shutdown is RequestShutdown followed by AwaitJoin.
func (h *ServiceHandle) Shutdown() error {
	h.RequestShutdown()
	return h.AwaitJoin()
}

// Abort is an alias for RequestShutdown: Go has no way to force-kill a
// goroutine, so this is cooperative cancellation same as RequestShutdown,
// offered under this name for callers that want to express "give up
// waiting" without also calling AwaitJoin.
func (h *ServiceHandle) Abort() { h.cancel() }

// MultiServiceHandle composes several ServiceHandles so a single shutdown
// call stops every task they represent.
type MultiServiceHandle struct {
	handles []*ServiceHandle
}

// NewMulti creates an empty MultiServiceHandle.
func NewMulti() *MultiServiceHandle { return &MultiServiceHandle{} }

// NewMultiWithCapacity pre-allocates room for cap handles.
func NewMultiWithCapacity(cap int) *MultiServiceHandle {
	return &MultiServiceHandle{handles: make([]*ServiceHandle, 0, cap)}
}

// Add registers h with this multi-handle.
func (m *MultiServiceHandle) Add(h *ServiceHandle) { m.handles = append(m.handles, h) }

// Len reports how many handles are composed.
func (m *MultiServiceHandle) Len() int { return len(m.handles) }

// IsEmpty reports whether no handles have been added.
func (m *MultiServiceHandle) IsEmpty() bool { return len(m.handles) == 0 }

// Shutdown requests shutdown on every handle first (so they all observe
// cancellation concurrently), then awaits each in order, returning the
// first non-nil join error encountered.
func (m *MultiServiceHandle) Shutdown() error {
	for _, h := range m.handles {
		h.RequestShutdown()
	}
	var firstErr error
	for _, h := range m.handles {
		if err := h.AwaitJoin(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
