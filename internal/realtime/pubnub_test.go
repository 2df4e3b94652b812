package realtime

import (
	"context"
	"errors"
	"testing"

	"campus-events/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	channel string
	message any
}

func TestAnnouncer_PublishesEnvelope(t *testing.T) {
	var calls []published
	a := newAnnouncer("", func(ch string, m any) error {
		calls = append(calls, published{ch, m})
		return nil
	}, nil)

	ev := models.Event{ID: "ev-1", Title: "Jazz Night", TicketPrice: decimal.NewFromInt(500)}
	require.NoError(t, a.Announce(context.Background(), ev))

	require.Len(t, calls, 1)
	assert.Equal(t, DefaultChannel, calls[0].channel)
	assert.Equal(t, Envelope{Type: EventCreatedType, Event: ev}, calls[0].message)
}

func TestAnnouncer_PublishError(t *testing.T) {
	a := newAnnouncer("uploads", func(string, any) error { return errors.New("403 forbidden") }, nil)

	err := a.Announce(context.Background(), models.Event{ID: "ev-1"})

	assert.ErrorContains(t, err, "publish event_created")
	assert.ErrorContains(t, err, "403 forbidden")
}

func TestAnnouncer_CanceledContext(t *testing.T) {
	called := false
	a := newAnnouncer("uploads", func(string, any) error { called = true; return nil }, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, a.Announce(ctx, models.Event{ID: "ev-1"}), context.Canceled)
	assert.False(t, called)
}

func TestDecode(t *testing.T) {
	object := map[string]any{
		"type":  "event_created",
		"event": map[string]any{"_id": "ev-9", "title": "Hike", "ticket_price": 0},
	}
	ev, ok := decode(object)
	require.True(t, ok)
	assert.Equal(t, "ev-9", ev.ID)
	assert.Equal(t, "Hike", ev.Title)

	ev, ok = decode(`{"type":"event_created","event":{"_id":"ev-10","title":"Gala"}}`)
	require.True(t, ok)
	assert.Equal(t, "Gala", ev.Title)

	_, ok = decode(map[string]any{"type": "queue_status"})
	assert.False(t, ok)
	_, ok = decode("not json")
	assert.False(t, ok)
}

func TestNewPubNub_RequiresSubscribeKey(t *testing.T) {
	_, err := NewPubNub(Config{PublishKey: "pub-c-1"})
	assert.Error(t, err)

	pn, err := NewPubNub(Config{PublishKey: "pub-c-1", SubscribeKey: "sub-c-1"})
	require.NoError(t, err)
	assert.Equal(t, "sub-c-1", pn.Config.SubscribeKey)
}
