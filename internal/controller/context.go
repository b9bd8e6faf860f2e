package controller

import "context"

type ctxKey string

const (
	sessionIdCtxKey     ctxKey = "session_id"
	participantIdCtxKey ctxKey = "participant_id"
)

func (c *controller) getSessionIdFromCtx(ctx context.Context) string {
	sessionId, _ := ctx.Value(sessionIdCtxKey).(string)
	return sessionId
}

func (c *controller) getParticipantIdFromCtx(ctx context.Context) string {
	participantId, _ := ctx.Value(participantIdCtxKey).(string)
	return participantId
}
