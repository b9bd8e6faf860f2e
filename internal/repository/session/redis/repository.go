package redis

import (
	"time"

	"github.com/redis/go-redis/v9"
)

type repo struct {
	rc             *redis.Client
	expireDuration time.Duration
}

func NewRepo(rc *redis.Client, expireDuration time.Duration) *repo {
	return &repo{
		rc:             rc,
		expireDuration: expireDuration,
	}
}

func (r repo) getSessionKey(sessionId string) string {
	return "session:" + sessionId
}

func (r repo) getParticipantKey(sessionId, participantId string) string {
	return "session:" + sessionId + ":participant:" + participantId
}

func (r repo) getParticipantListKey(sessionId string) string {
	return "session:" + sessionId + ":participants"
}

func (r repo) getEventsKey(sessionId string) string {
	return "session:" + sessionId + ":events"
}

func (r repo) getEventsChannel(sessionId string) string {
	return "session:" + sessionId + ":events:notify"
}

func (r repo) getTimesKey(sessionId string) string {
	return "session:" + sessionId + ":times"
}

func (r repo) getAuthTokenKey(authToken string) string {
	return "auth-token:" + authToken
}
