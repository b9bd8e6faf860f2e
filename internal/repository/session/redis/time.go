package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/watchparty/server/internal/domain"
	"github.com/watchparty/server/internal/repository/session"
)

func (r repo) UpdateParticipantTime(ctx context.Context, params *session.UpdateParticipantTimeParams) error {
	data, err := json.Marshal(params.Time)
	if err != nil {
		return fmt.Errorf("failed to marshal participant time: %w", err)
	}

	timesKey := r.getTimesKey(params.SessionId)
	if err := r.rc.HSet(ctx, timesKey, params.ParticipantId, data).Err(); err != nil {
		return fmt.Errorf("failed to update participant time: %w", err)
	}

	r.rc.Expire(ctx, timesKey, r.expireDuration)

	return nil
}

func (r repo) GetParticipantTimes(ctx context.Context, sessionId string) (map[string]domain.ParticipantTime, error) {
	timesKey := r.getTimesKey(sessionId)
	fields, err := r.rc.HGetAll(ctx, timesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get participant times: %w", err)
	}

	r.rc.Expire(ctx, timesKey, r.expireDuration)

	times := make(map[string]domain.ParticipantTime, len(fields))
	for participantId, data := range fields {
		var t domain.ParticipantTime
		if err := json.Unmarshal([]byte(data), &t); err != nil {
			continue
		}

		times[participantId] = t
	}

	return times, nil
}

func (r repo) RemoveParticipantTime(ctx context.Context, params *session.RemoveParticipantTimeParams) error {
	timesKey := r.getTimesKey(params.SessionId)
	if err := r.rc.HDel(ctx, timesKey, params.ParticipantId).Err(); err != nil {
		return fmt.Errorf("failed to remove participant time: %w", err)
	}

	return nil
}
