package redis

import (
	"context"
	"fmt"

	"github.com/watchparty/server/internal/domain"
	"github.com/watchparty/server/internal/repository/session"
)

func (r repo) SetSession(ctx context.Context, params *session.SetSessionParams) error {
	sessionKey := r.getSessionKey(params.SessionId)

	state := session.Session{
		ModeratorId: params.ModeratorId,
		Screen:      string(params.Screen),
		VideoId:     params.VideoId,
	}
	if err := r.rc.HSet(ctx, sessionKey, state).Err(); err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}

	r.rc.Expire(ctx, sessionKey, r.expireDuration)

	return nil
}

func (r repo) GetSession(ctx context.Context, sessionId string) (session.Session, error) {
	sessionKey := r.getSessionKey(sessionId)

	res, err := r.rc.Exists(ctx, sessionKey).Result()
	if err != nil {
		return session.Session{}, fmt.Errorf("failed to check if session exists: %w", err)
	}
	if res == 0 {
		return session.Session{}, session.ErrSessionNotFound
	}

	var state session.Session
	if err := r.rc.HGetAll(ctx, sessionKey).Scan(&state); err != nil {
		return session.Session{}, fmt.Errorf("failed to get session: %w", err)
	}

	r.rc.Expire(ctx, sessionKey, r.expireDuration)

	return state, nil
}

func (r repo) GetVideoId(ctx context.Context, sessionId string) (string, error) {
	state, err := r.GetSession(ctx, sessionId)
	if err != nil {
		return "", err
	}

	return state.VideoId, nil
}

func (r repo) SetVideoId(ctx context.Context, sessionId, videoId string) error {
	sessionKey := r.getSessionKey(sessionId)
	if err := r.rc.HSet(ctx, sessionKey, "video_id", videoId).Err(); err != nil {
		return fmt.Errorf("failed to set video id: %w", err)
	}

	r.rc.Expire(ctx, sessionKey, r.expireDuration)

	return nil
}

func (r repo) GetScreen(ctx context.Context, sessionId string) (domain.Screen, error) {
	state, err := r.GetSession(ctx, sessionId)
	if err != nil {
		return "", err
	}

	return domain.Screen(state.Screen), nil
}

func (r repo) SetScreen(ctx context.Context, sessionId string, screen domain.Screen) error {
	sessionKey := r.getSessionKey(sessionId)
	if err := r.rc.HSet(ctx, sessionKey, "screen", string(screen)).Err(); err != nil {
		return fmt.Errorf("failed to set screen: %w", err)
	}

	r.rc.Expire(ctx, sessionKey, r.expireDuration)

	return nil
}

func (r repo) GetModeratorId(ctx context.Context, sessionId string) (string, error) {
	state, err := r.GetSession(ctx, sessionId)
	if err != nil {
		return "", err
	}

	return state.ModeratorId, nil
}

func (r repo) SetModeratorId(ctx context.Context, sessionId, participantId string) error {
	sessionKey := r.getSessionKey(sessionId)
	if err := r.rc.HSet(ctx, sessionKey, "moderator_id", participantId).Err(); err != nil {
		return fmt.Errorf("failed to set moderator id: %w", err)
	}

	r.rc.Expire(ctx, sessionKey, r.expireDuration)

	return nil
}

func (r repo) RemoveSession(ctx context.Context, sessionId string) error {
	participantIds, err := r.GetParticipantIds(ctx, sessionId)
	if err != nil {
		return fmt.Errorf("failed to get participant ids: %w", err)
	}

	keys := []string{
		r.getSessionKey(sessionId),
		r.getParticipantListKey(sessionId),
		r.getEventsKey(sessionId),
		r.getTimesKey(sessionId),
	}
	for _, participantId := range participantIds {
		keys = append(keys, r.getParticipantKey(sessionId, participantId))
	}

	if err := r.rc.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to remove session: %w", err)
	}

	return nil
}
