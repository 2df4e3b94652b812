package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"campus-events/models"

	pubnub "github.com/pubnub/go/v7"
)

const (
	DefaultChannel   = "campus-events"
	EventCreatedType = "event_created"
)

// Envelope is the message published on the events channel.
type Envelope struct {
	Type  string       `json:"type"`
	Event models.Event `json:"event"`
}

type Config struct {
	PublishKey   string
	SubscribeKey string
	UserID       string
	Channel      string
}

func (c Config) channel() string {
	if c.Channel == "" {
		return DefaultChannel
	}
	return c.Channel
}

type publishFunc func(channel string, message any) error

// Announcer broadcasts newly uploaded events so other open pages can show
// them.
type Announcer struct {
	channel string
	publish publishFunc
	logger  *slog.Logger
}

func NewPubNub(cfg Config) (*pubnub.PubNub, error) {
	if cfg.SubscribeKey == "" {
		return nil, errors.New("realtime: subscribe key is required")
	}
	userID := cfg.UserID
	if userID == "" {
		userID = "campus-events-cli"
	}
	pnCfg := pubnub.NewConfigWithUserId(pubnub.UserId(userID))
	pnCfg.PublishKey = cfg.PublishKey
	pnCfg.SubscribeKey = cfg.SubscribeKey
	return pubnub.NewPubNub(pnCfg), nil
}

func NewAnnouncer(pn *pubnub.PubNub, channel string, logger *slog.Logger) *Announcer {
	return newAnnouncer(channel, func(ch string, message any) error {
		_, _, err := pn.Publish().Channel(ch).Message(message).Execute()
		return err
	}, logger)
}

func newAnnouncer(channel string, publish publishFunc, logger *slog.Logger) *Announcer {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Announcer{channel: channel, publish: publish, logger: logger}
}

func (a *Announcer) Announce(ctx context.Context, ev models.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := Envelope{Type: EventCreatedType, Event: ev}
	if err := a.publish(a.channel, msg); err != nil {
		return fmt.Errorf("publish %s: %w", EventCreatedType, err)
	}
	a.logger.Debug("Announced event", "channel", a.channel, "event_id", ev.ID)
	return nil
}

// Watch subscribes to the events channel and calls handle for every
// announced event until ctx is done.
func Watch(ctx context.Context, pn *pubnub.PubNub, channel string, handle func(models.Event)) error {
	if channel == "" {
		channel = DefaultChannel
	}
	listener := pubnub.NewListener()
	pn.AddListener(listener)
	pn.Subscribe().Channels([]string{channel}).Execute()
	defer func() {
		pn.UnsubscribeAll()
		pn.RemoveListener(listener)
	}()

	for {
		select {
		case st := <-listener.Status:
			switch st.Category {
			case pubnub.PNConnectedCategory:
				slog.Info("Connected to realtime channel", "channel", channel)
			case pubnub.PNReconnectedCategory:
				slog.Info("Reconnected to realtime channel", "channel", channel)
			case pubnub.PNAccessDeniedCategory, pubnub.PNBadRequestCategory:
				return fmt.Errorf("realtime subscribe: %v", st.Category)
			default:
				slog.Debug("Realtime status", "category", st.Category)
			}
		case msg := <-listener.Message:
			ev, ok := decode(msg.Message)
			if !ok {
				slog.Warn("Ignoring realtime message", "channel", msg.Channel)
				continue
			}
			handle(ev)
		case <-ctx.Done():
			return nil
		}
	}
}

// decode accepts the decoded JSON object PubNub delivers as well as a raw
// JSON string.
func decode(message any) (models.Event, bool) {
	var raw []byte
	switch m := message.(type) {
	case string:
		raw = []byte(m)
	default:
		b, err := json.Marshal(m)
		if err != nil {
			return models.Event{}, false
		}
		raw = b
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Type != EventCreatedType || env.Event.ID == "" {
		return models.Event{}, false
	}
	return env.Event, true
}
