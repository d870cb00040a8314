package applier

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HEM-RnD/fsct-host-sub000/internal/fsctcore"
)

type recordingDispatcher struct {
	calls     []string
	failAt    string
	statusErr error
}

func (d *recordingDispatcher) SetStatus(id uuid.UUID, status fsctcore.FsctStatus) error {
	d.calls = append(d.calls, "status")
	if d.failAt == "status" {
		return errors.New("status failed")
	}
	return nil
}

func (d *recordingDispatcher) SetProgress(id uuid.UUID, timeline *fsctcore.TimelineInfo) error {
	d.calls = append(d.calls, "progress")
	if d.failAt == "progress" {
		return errors.New("progress failed")
	}
	return nil
}

func (d *recordingDispatcher) SetCurrentText(id uuid.UUID, kind fsctcore.FsctTextMetadata, text *string) error {
	d.calls = append(d.calls, "text")
	if d.failAt == "text" {
		return errors.New("text failed")
	}
	return nil
}

func TestApplier_AppliesInCanonicalOrder(t *testing.T) {
	d := &recordingDispatcher{}
	a := New(d)

	title := "Title"
	err := a.Apply(uuid.New(), fsctcore.PlayerState{
		Status: fsctcore.StatusPlaying,
		Texts:  fsctcore.TrackMetadata{Title: &title},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"status", "progress", "text", "text", "text", "text"}, d.calls)
}

func TestApplier_FailFastStopsAtFirstError(t *testing.T) {
	d := &recordingDispatcher{failAt: "progress"}
	a := New(d)

	err := a.Apply(uuid.New(), fsctcore.PlayerState{Status: fsctcore.StatusPlaying})
	assert.Error(t, err)
	assert.Equal(t, []string{"status", "progress"}, d.calls, "text fields must not be attempted after progress fails")
}

func TestApplier_StatusFailureSkipsEverything(t *testing.T) {
	d := &recordingDispatcher{failAt: "status"}
	a := New(d)

	err := a.Apply(uuid.New(), fsctcore.PlayerState{})
	assert.Error(t, err)
	assert.Equal(t, []string{"status"}, d.calls)
}
