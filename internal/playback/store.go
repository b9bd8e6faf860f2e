package playback

import (
	"context"

	"github.com/watchparty/server/internal/domain"
	"github.com/watchparty/server/internal/repository/session"
)

// iEventLog is the per-session append-only event feed the engine converges
// on. SubscribeEvents pushes the full current event set on every change, not
// a diff stream; the engine deduplicates via the last applied event id.
type iEventLog interface {
	AddEvent(context.Context, *session.AddEventParams) (domain.VideoEvent, error)
	SubscribeEvents(ctx context.Context, sessionId string, onChange func([]domain.VideoEvent)) (func(), error)
}

// iDirectory is the best-effort presence/position store used for the
// late-joiner bootstrap and the heartbeat, never for moment-to-moment
// convergence.
type iDirectory interface {
	GetParticipantTimes(ctx context.Context, sessionId string) (map[string]domain.ParticipantTime, error)
	UpdateParticipantTime(context.Context, *session.UpdateParticipantTimeParams) error
}
