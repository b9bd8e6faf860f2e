package playback

import (
	"context"

	"golang.org/x/exp/maps"

	"github.com/watchparty/server/internal/domain"
	"github.com/watchparty/server/internal/repository/session"
)

// Bootstrap performs the one-time late-joiner seek: align the local player
// with the most recently active other participant, compensating for the age
// of their last report. It runs at most once per engine lifetime; whatever
// the outcome of the first real attempt, it is never retried, so a failed
// sync cannot keep jumping the player around.
func (e *Engine) Bootstrap(ctx context.Context) {
	e.mu.Lock()
	synced := e.synced
	e.mu.Unlock()
	if synced {
		return
	}

	times, err := e.directory.GetParticipantTimes(ctx, e.cfg.SessionId)
	if err != nil {
		e.logger.WarnContext(ctx, "failed to get participant times", "error", err)
		return
	}

	e.maybeInitialSync(ctx, times)
}

func (e *Engine) maybeInitialSync(ctx context.Context, times map[string]domain.ParticipantTime) {
	// an empty map means nothing is known yet; try again on the next change
	if len(times) == 0 {
		return
	}

	e.mu.Lock()
	if e.synced {
		e.mu.Unlock()
		return
	}

	if _, ready := e.player.CurrentTime(); !ready {
		e.mu.Unlock()
		return
	}

	var (
		best      domain.ParticipantTime
		bestFound bool
	)
	for _, participantId := range maps.Keys(times) {
		if participantId == e.cfg.UserId {
			continue
		}

		t := times[participantId]
		if !bestFound || t.LastActive.Millis() > best.LastActive.Millis() {
			best = t
			bestFound = true
		}
	}

	if !bestFound {
		// nobody else to sync with; start from wherever the player begins
		e.synced = true
		e.mu.Unlock()
		return
	}

	if best.CurrentTime <= 0 {
		e.synced = true
		e.mu.Unlock()
		e.logger.InfoContext(ctx, "no valid sync time, starting from beginning")
		return
	}

	now := e.now()
	elapsed := now.Sub(best.LastActive.Time()).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	target := best.CurrentTime + elapsed + e.cfg.BootstrapBuffer

	e.seekLocked(target)
	e.synced = true
	e.lastTimeWrite = now
	e.mu.Unlock()

	e.logger.InfoContext(ctx, "initial sync",
		"target", target,
		"reported", best.CurrentTime,
		"elapsed", elapsed,
	)

	if err := e.directory.UpdateParticipantTime(ctx, &session.UpdateParticipantTimeParams{
		ParticipantId: e.cfg.UserId,
		SessionId:     e.cfg.SessionId,
		Time: domain.ParticipantTime{
			CurrentTime: target,
			LastActive:  domain.TimestampAt(now),
		},
	}); err != nil {
		e.logger.WarnContext(ctx, "failed to update participant time", "error", err)
	}

	if e.cfg.Notify != nil {
		e.cfg.Notify("Synced playback with other viewers")
	}
}
