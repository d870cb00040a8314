// Package applier implements the Applier (C9): translating a PlayerState
// into the fixed, fail-fast sequence of device operations the Orchestrator
// relies on for per-field atomicity.
package applier

import (
	"github.com/google/uuid"

	"github.com/HEM-RnD/fsct-host-sub000/internal/fsctcore"
)

// DeviceDispatcher is the subset of *devicemanager.Manager the Applier
// needs. Defined as an interface (rather than importing devicemanager
// directly) so tests can verify ordering and fail-fast behavior with a
// fake, and so the Applier has no dependency on the registry's identity
// bookkeeping.
type DeviceDispatcher interface {
	SetStatus(id uuid.UUID, status fsctcore.FsctStatus) error
	SetProgress(id uuid.UUID, timeline *fsctcore.TimelineInfo) error
	SetCurrentText(id uuid.UUID, kind fsctcore.FsctTextMetadata, text *string) error
}

// Applier applies a PlayerState to a device through a DeviceDispatcher.
type Applier struct {
	dispatcher DeviceDispatcher
}

// New creates an Applier over dispatcher.
func New(dispatcher DeviceDispatcher) *Applier {
	return &Applier{dispatcher: dispatcher}
}

// Apply sends status, then progress, then each of the four core text kinds
// in canonical order, stopping at the first error so the device never sees
// an interleaved partial update from two concurrent applies.
func (a *Applier) Apply(device uuid.UUID, state fsctcore.PlayerState) error {
	if err := a.dispatcher.SetStatus(device, state.Status); err != nil {
		return err
	}
	if err := a.dispatcher.SetProgress(device, state.Timeline); err != nil {
		return err
	}
	for _, kind := range fsctcore.CoreTextKinds {
		if err := a.dispatcher.SetCurrentText(device, kind, state.Texts.GetText(kind)); err != nil {
			return err
		}
	}
	return nil
}
