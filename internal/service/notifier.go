package service

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/surveychain/internal/config"
	"github.com/stemsi/surveychain/internal/editor"
	"github.com/stemsi/surveychain/internal/websocket"
)

// NotificationService fans editor notifications out over Redis PubSub so every
// gateway instance can relay them to the form's connected editors.
type NotificationService struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewNotificationService creates a new NotificationService. With a nil rdb
// notifications are only logged.
func NewNotificationService(rdb *redis.Client, log zerolog.Logger) *NotificationService {
	return &NotificationService{
		rdb: rdb,
		log: log.With().Str("component", "notification_service").Logger(),
	}
}

// Notify implements editor.Notifier.
func (s *NotificationService) Notify(ctx context.Context, n editor.Notification) {
	s.Publish(ctx, EventFromNotification(n))
}

// Publish sends evt on the form's channel. Delivery is best effort.
func (s *NotificationService) Publish(ctx context.Context, evt websocket.FormEvent) {
	log := s.log.With().Str("form_id", evt.FormID).Str("event", string(evt.Event)).Logger()
	if evt.Event == websocket.EventSyncFailed || evt.Event == websocket.EventPublishFailed {
		log.Warn().Str("message", evt.Message).Msg("Editor notification")
	} else {
		log.Debug().Msg("Editor notification")
	}
	if s.rdb == nil {
		return
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode form event")
		return
	}
	// the outcome outlives the request that caused it
	pubCtx := context.WithoutCancel(ctx)
	if err := s.rdb.Publish(pubCtx, config.CacheKey.FormEventsChannel(evt.FormID), payload).Err(); err != nil {
		log.Warn().Err(err).Msg("Failed to publish form event")
	}
}

// Subscribe opens a PubSub on the form's channel. The caller closes it.
func (s *NotificationService) Subscribe(ctx context.Context, formID string) *redis.PubSub {
	return s.rdb.Subscribe(ctx, config.CacheKey.FormEventsChannel(formID))
}

// Enabled reports whether events can be subscribed to.
func (s *NotificationService) Enabled() bool { return s.rdb != nil }

// EventFromNotification maps an editor notification to its wire event.
func EventFromNotification(n editor.Notification) websocket.FormEvent {
	evt := websocket.FormEvent{
		FormID:  n.FormID,
		Version: n.Version,
		Step:    string(n.Step),
		Message: n.Message,
	}
	switch n.Kind {
	case editor.NotifySynced:
		evt.Event = websocket.EventSynced
	case editor.NotifySyncFailed:
		evt.Event = websocket.EventSyncFailed
	case editor.NotifyPublishStep:
		evt.Event = websocket.EventPublishStep
	case editor.NotifyPublishFailed:
		evt.Event = websocket.EventPublishFailed
	case editor.NotifyPublished:
		evt.Event = websocket.EventPublished
	default:
		evt.Event = websocket.Event(n.Kind)
	}
	return evt
}
