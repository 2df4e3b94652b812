package services

import (
	"context"
	"errors"
	"testing"

	"campus-events/internal/mockapi"
	"campus-events/internal/status"
	"campus-events/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func profileOptions() mockapi.Options {
	events := mockapi.SeedEvents(testNow)
	events = append(events, models.Event{
		ID: "ev-mine", Title: "Book Club", Location: "Strathmore University",
		StartTime: "2026-10-22T17:00", CreatedBy: "amina@strathmore.edu",
	})
	return mockapi.Options{User: testIdentity(), Events: events}
}

func TestProfileWorkflow_Load(t *testing.T) {
	client := newTestBackend(t, profileOptions())
	ctx := context.Background()
	_, err := client.Reserve(ctx, "ev-jazz", "amina@strathmore.edu")
	require.NoError(t, err)

	p := NewProfileWorkflow(client, testIdentity(), nil, nil, nil)
	profile, err := p.Load(ctx)

	require.NoError(t, err)
	require.Len(t, profile.Reservations, 1)
	assert.Equal(t, "ev-jazz", profile.Reservations[0].ID)
	require.Len(t, profile.Hosted, 1)
	assert.Equal(t, "ev-mine", profile.Hosted[0].ID)
}

func TestProfileWorkflow_CancelReservation(t *testing.T) {
	client := newTestBackend(t, profileOptions())
	ctx := context.Background()
	_, err := client.Reserve(ctx, "ev-drama", "amina@strathmore.edu")
	require.NoError(t, err)
	presenter := &recordingPresenter{}
	p := NewProfileWorkflow(client, testIdentity(), presenter, nil, nil)
	_, err = p.Load(ctx)
	require.NoError(t, err)

	require.NoError(t, p.CancelReservation(ctx, "ev-drama"))

	assert.Empty(t, p.Profile().Reservations)
	assert.Equal(t, note{LevelSuccess, MsgCancelled}, presenter.lastNote())
	ids, err := client.OptIns(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestProfileWorkflow_DeleteRequiresConfirmation(t *testing.T) {
	backend := new(mockBackend)
	p := NewProfileWorkflow(backend, testIdentity(), nil, nil, nil)

	err := p.DeleteEvent(context.Background(), "ev-mine", func(models.Event) bool { return false })
	assert.ErrorIs(t, err, status.ErrNotConfirmed)

	err = p.DeleteEvent(context.Background(), "ev-mine", nil)
	assert.ErrorIs(t, err, status.ErrNotConfirmed)

	backend.AssertNotCalled(t, "DeleteEvent", mock.Anything, mock.Anything)
}

func TestProfileWorkflow_DeleteEvent(t *testing.T) {
	client := newTestBackend(t, profileOptions())
	ctx := context.Background()
	presenter := &recordingPresenter{}
	p := NewProfileWorkflow(client, testIdentity(), presenter, nil, nil)
	_, err := p.Load(ctx)
	require.NoError(t, err)

	var asked models.Event
	err = p.DeleteEvent(ctx, "ev-mine", func(ev models.Event) bool {
		asked = ev
		return true
	})

	require.NoError(t, err)
	assert.Equal(t, "Book Club", asked.Title)
	assert.Empty(t, p.Profile().Hosted)
	assert.Equal(t, note{LevelSuccess, MsgDeleted}, presenter.lastNote())

	err = p.DeleteEvent(ctx, "ev-jazz", func(models.Event) bool { return true })
	require.Error(t, err)
	assert.Equal(t, note{LevelError, "You can only delete your own events"}, presenter.lastNote())
}

func TestProfileWorkflow_LoadFailure(t *testing.T) {
	backend := new(mockBackend)
	backend.On("OptIns", mock.Anything).Return(nil, errors.New("down"))
	backend.On("Events", mock.Anything, mock.Anything).Return([]models.Event{}, nil).Maybe()
	presenter := &recordingPresenter{}
	p := NewProfileWorkflow(backend, testIdentity(), presenter, nil, nil)

	_, err := p.Load(context.Background())

	require.Error(t, err)
	assert.Equal(t, note{LevelError, MsgProfileFailed}, presenter.lastNote())
}
