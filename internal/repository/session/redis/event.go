package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/watchparty/server/internal/domain"
	"github.com/watchparty/server/internal/repository/session"
)

// AddEvent appends an event to the session log, assigning an id when the
// caller left it empty, and notifies subscribers. The score is the event's
// timestamp so the retention sweep can trim by age; readers still resolve
// ordering themselves.
func (r repo) AddEvent(ctx context.Context, params *session.AddEventParams) (domain.VideoEvent, error) {
	event := params.Event
	if event.Id == "" {
		event.Id = uuid.NewString()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return domain.VideoEvent{}, fmt.Errorf("failed to marshal event: %w", err)
	}

	eventsKey := r.getEventsKey(params.SessionId)
	if err := r.rc.ZAdd(ctx, eventsKey, redis.Z{
		Score:  float64(event.Timestamp.Millis()),
		Member: data,
	}).Err(); err != nil {
		return domain.VideoEvent{}, fmt.Errorf("failed to add event: %w", err)
	}

	r.rc.Expire(ctx, eventsKey, r.expireDuration)
	r.rc.Publish(ctx, r.getEventsChannel(params.SessionId), event.Id)

	return event, nil
}

// GetEvents returns the full current event set. Entries that fail to decode
// are skipped rather than failing the read.
func (r repo) GetEvents(ctx context.Context, sessionId string) ([]domain.VideoEvent, error) {
	eventsKey := r.getEventsKey(sessionId)
	members, err := r.rc.ZRange(ctx, eventsKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}

	r.rc.Expire(ctx, eventsKey, r.expireDuration)

	events := make([]domain.VideoEvent, 0, len(members))
	for _, member := range members {
		var event domain.VideoEvent
		if err := json.Unmarshal([]byte(member), &event); err != nil {
			continue
		}

		events = append(events, event)
	}

	return events, nil
}

// RemoveEventsBefore drops events older than the cutoff. Deletion is
// idempotent, so concurrent sweeps are harmless.
func (r repo) RemoveEventsBefore(ctx context.Context, sessionId string, before time.Time) (int64, error) {
	eventsKey := r.getEventsKey(sessionId)
	removed, err := r.rc.ZRemRangeByScore(ctx, eventsKey, "-inf", fmt.Sprintf("(%d", before.UnixMilli())).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to remove events: %w", err)
	}

	return removed, nil
}

// SubscribeEvents invokes onChange with the full current event set every time
// the session log changes. The returned function tears the subscription down.
func (r repo) SubscribeEvents(ctx context.Context, sessionId string, onChange func([]domain.VideoEvent)) (func(), error) {
	pubsub := r.rc.Subscribe(ctx, r.getEventsChannel(sessionId))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to events: %w", err)
	}

	go func() {
		for range pubsub.Channel() {
			events, err := r.GetEvents(ctx, sessionId)
			if err != nil {
				continue
			}

			onChange(events)
		}
	}()

	return func() { pubsub.Close() }, nil
}
