package redis

import (
	"context"
	"fmt"

	"github.com/watchparty/server/internal/repository/session"
)

func (r repo) SetParticipant(ctx context.Context, params *session.SetParticipantParams) error {
	participant := session.Participant{
		Username: params.Username,
		IsActive: params.IsActive,
	}
	participantKey := r.getParticipantKey(params.SessionId, params.ParticipantId)
	if err := r.rc.HSet(ctx, participantKey, participant).Err(); err != nil {
		return fmt.Errorf("failed to set participant: %w", err)
	}

	r.rc.Expire(ctx, participantKey, r.expireDuration)

	listKey := r.getParticipantListKey(params.SessionId)
	if err := r.rc.SAdd(ctx, listKey, params.ParticipantId).Err(); err != nil {
		return fmt.Errorf("failed to add participant to list: %w", err)
	}

	r.rc.Expire(ctx, listKey, r.expireDuration)

	return nil
}

func (r repo) GetParticipant(ctx context.Context, params *session.GetParticipantParams) (session.Participant, error) {
	participantKey := r.getParticipantKey(params.SessionId, params.ParticipantId)

	res, err := r.rc.Exists(ctx, participantKey).Result()
	if err != nil {
		return session.Participant{}, fmt.Errorf("failed to check if participant exists: %w", err)
	}
	if res == 0 {
		return session.Participant{}, session.ErrParticipantNotFound
	}

	var participant session.Participant
	if err := r.rc.HGetAll(ctx, participantKey).Scan(&participant); err != nil {
		return session.Participant{}, fmt.Errorf("failed to get participant: %w", err)
	}

	r.rc.Expire(ctx, participantKey, r.expireDuration)

	return participant, nil
}

func (r repo) GetParticipantIds(ctx context.Context, sessionId string) ([]string, error) {
	listKey := r.getParticipantListKey(sessionId)
	participantIds, err := r.rc.SMembers(ctx, listKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get participant ids: %w", err)
	}

	r.rc.Expire(ctx, listKey, r.expireDuration)

	return participantIds, nil
}

func (r repo) UpdateParticipantIsActive(ctx context.Context, params *session.UpdateParticipantIsActiveParams) error {
	participantKey := r.getParticipantKey(params.SessionId, params.ParticipantId)

	res, err := r.rc.Exists(ctx, participantKey).Result()
	if err != nil {
		return fmt.Errorf("failed to check if participant exists: %w", err)
	}
	if res == 0 {
		return session.ErrParticipantNotFound
	}

	if err := r.rc.HSet(ctx, participantKey, "is_active", params.IsActive).Err(); err != nil {
		return fmt.Errorf("failed to update participant: %w", err)
	}

	r.rc.Expire(ctx, participantKey, r.expireDuration)

	return nil
}

func (r repo) RemoveParticipant(ctx context.Context, params *session.RemoveParticipantParams) error {
	listKey := r.getParticipantListKey(params.SessionId)
	removed, err := r.rc.SRem(ctx, listKey, params.ParticipantId).Result()
	if err != nil {
		return fmt.Errorf("failed to remove participant from list: %w", err)
	}
	if removed == 0 {
		return session.ErrParticipantNotFound
	}

	participantKey := r.getParticipantKey(params.SessionId, params.ParticipantId)
	if err := r.rc.Del(ctx, participantKey).Err(); err != nil {
		return fmt.Errorf("failed to remove participant: %w", err)
	}

	return nil
}
