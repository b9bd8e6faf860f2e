package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/watchparty/server/internal/repository/session"
)

func (r repo) SetAuthToken(ctx context.Context, params *session.SetAuthTokenParams) error {
	tokenKey := r.getAuthTokenKey(params.AuthToken)
	ok, err := r.rc.SetNX(ctx, tokenKey, params.ParticipantId, r.expireDuration).Result()
	if err != nil {
		return fmt.Errorf("failed to set auth token: %w", err)
	}
	if !ok {
		return session.ErrTokenAlreadyExists
	}

	return nil
}

func (r repo) GetParticipantIdByAuthToken(ctx context.Context, authToken string) (string, error) {
	participantId, err := r.rc.Get(ctx, r.getAuthTokenKey(authToken)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", session.ErrTokenNotFound
		}

		return "", fmt.Errorf("failed to get auth token: %w", err)
	}

	return participantId, nil
}
