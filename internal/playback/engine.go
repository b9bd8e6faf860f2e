package playback

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/watchparty/server/internal/domain"
	"github.com/watchparty/server/internal/repository/session"
	"github.com/watchparty/server/pkg/throttle"
)

// State is the engine's convergence phase. ApplyingRemote suppresses
// outbound publication while a remote event is being applied; Flushing
// replays local actions queued during suppression.
type State int

const (
	StateIdle State = iota
	StateApplyingRemote
	StateFlushing
)

const maxPendingActions = 8

type pendingAction struct {
	eventType domain.EventType
	queuedAt  time.Time
}

// Engine converges the local player on the session's shared playback state.
// One Engine instance serves one (session, video) pairing; all state that
// used to live in free-floating mutable cells is owned here behind one mutex.
type Engine struct {
	cfg       Config
	logger    *slog.Logger
	events    iEventLog
	directory iDirectory
	player    Player

	// now and after are swappable for tests.
	now   func() time.Time
	after func(time.Duration, func()) *time.Timer

	playThrottle  *throttle.Throttle
	pauseThrottle *throttle.Throttle
	seekDebounce  *throttle.Debounce

	// runCtx backs publications triggered by timers rather than calls.
	runCtx context.Context

	mu             sync.Mutex
	state          State
	lastAppliedId  string
	remoteState    domain.EventType
	localPlaying   bool
	trackedVideoId string
	pending        []pendingAction
	lastAction     time.Time
	synced         bool
	lastSample     float64
	sampleValid    bool
	lastTimeWrite  time.Time
	diagnostics    []string
}

func NewEngine(events iEventLog, directory iDirectory, player Player, logger *slog.Logger, cfg *Config) *Engine {
	c := cfg.withDefaults()

	return &Engine{
		cfg:           c,
		logger:        logger,
		events:        events,
		directory:     directory,
		player:        player,
		now:           time.Now,
		after:         time.AfterFunc,
		playThrottle:  throttle.New(c.PublishThrottle),
		pauseThrottle: throttle.New(c.PublishThrottle),
		seekDebounce:  throttle.NewDebounce(c.SeekDebounce),
		runCtx:        context.Background(),
	}
}

// Run subscribes to the session's event log and drives the periodic loops:
// the participant-time heartbeat, the fallback seek-detection poll, and the
// health reset. It blocks until ctx is cancelled and tears everything down.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	e.runCtx = ctx
	e.lastAction = e.now()
	e.mu.Unlock()

	unsubscribe, err := e.events.SubscribeEvents(ctx, e.cfg.SessionId, func(events []domain.VideoEvent) {
		e.HandleEvents(ctx, events)
		e.Bootstrap(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to events: %w", err)
	}
	defer unsubscribe()
	defer e.playThrottle.Stop()
	defer e.pauseThrottle.Stop()
	defer e.seekDebounce.Stop()

	heartbeat := time.NewTicker(e.cfg.HeartbeatInterval)
	defer heartbeat.Stop()
	poll := time.NewTicker(e.cfg.PollInterval)
	defer poll.Stop()
	health := time.NewTicker(e.cfg.HealthInterval)
	defer health.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-heartbeat.C:
			e.reportTime(ctx)
		case <-poll.C:
			if pos, ok := e.player.CurrentTime(); ok {
				e.ObservePosition(ctx, pos)
			}
		case <-health.C:
			e.healthReset()
		}
	}
}

// HandleEvents applies the most recent external event from the full current
// event set. Delivery is at-least-once and unordered, so everything here is
// idempotent: duplicates are dropped by id, ordering is resolved by
// timestamp, and the sender's own echoes are ignored.
func (e *Engine) HandleEvents(ctx context.Context, events []domain.VideoEvent) {
	defer func() {
		if r := recover(); r != nil {
			e.recordDiagnostic(fmt.Sprintf("event processing panic: %v", r))
			e.after(e.cfg.SuppressionDelay, e.exitApplying)
		}
	}()

	now := e.now()
	latest, ok := latestExternal(events, e.cfg.UserId, now)
	if !ok {
		return
	}

	delta := compensation(latest.Timestamp.Time(), now, e.cfg.CompensationWindow)
	videoChange, reaction, applied := e.applyRemote(ctx, latest, delta)
	if !applied {
		return
	}

	e.logger.DebugContext(ctx, "applied remote event",
		"event_id", latest.Id,
		"event_type", latest.Type,
		"sender_id", latest.UserId,
		"compensation", delta,
	)

	if videoChange != nil {
		videoChange()
	}
	if reaction != nil {
		reaction()
	}
}

// applyRemote dispatches one remote event to the player under the lock. The
// unlock is deferred so a panicking player call releases the mutex during
// unwinding and the recovery in HandleEvents can still run.
func (e *Engine) applyRemote(ctx context.Context, latest domain.VideoEvent, delta float64) (videoChange, reaction func(), applied bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if latest.Id == e.lastAppliedId {
		return nil, nil, false
	}

	playerTime, ready := e.player.CurrentTime()
	if !ready {
		e.logger.WarnContext(ctx, "player not ready for sync", "event_id", latest.Id)
		return nil, nil, false
	}
	e.lastAppliedId = latest.Id

	target := latest.CurrentTime + delta
	drift := math.Abs(playerTime - target)

	e.state = StateApplyingRemote

	switch latest.Type {
	case domain.EventPlay:
		e.remoteState = domain.EventPlay
		if !e.localPlaying {
			if drift > e.cfg.JumpThreshold {
				e.seekLocked(target)
				e.after(e.cfg.SeekSettleDelay, e.player.Play)
			} else {
				e.player.Play()
			}
		} else if drift > e.cfg.JumpThreshold {
			e.seekLocked(target)
		}
	case domain.EventPause:
		e.remoteState = domain.EventPause
		if e.localPlaying {
			e.player.Pause()
		}
	case domain.EventSeek:
		e.seekLocked(latest.SeekTarget() + delta)
	case domain.EventVideoChange:
		if latest.VideoId != e.trackedVideoId {
			e.trackedVideoId = latest.VideoId
			if latest.VideoId == "" {
				e.logger.InfoContext(ctx, "video cleared", "session_id", e.cfg.SessionId)
			} else if e.cfg.OnVideoChange != nil {
				videoId := latest.VideoId
				videoChange = func() { e.cfg.OnVideoChange(videoId) }
			}
		}
	case domain.EventPopup:
		if e.cfg.OnReaction != nil {
			userName, emoji := latest.UserName, latest.Emoji
			reaction = func() { e.cfg.OnReaction(userName, emoji) }
		}
	}

	e.after(e.cfg.SuppressionDelay, e.exitApplying)

	return videoChange, reaction, true
}

// latestExternal normalizes the set, drops the local user's own events and
// returns the one with the maximum timestamp.
func latestExternal(events []domain.VideoEvent, userId string, now time.Time) (domain.VideoEvent, bool) {
	var (
		latest domain.VideoEvent
		found  bool
	)
	for _, event := range events {
		if event.UserId == userId {
			continue
		}

		event = event.Normalized(now)
		if !found || event.Timestamp.Millis() > latest.Timestamp.Millis() {
			latest = event
			found = true
		}
	}

	return latest, found
}

// seekLocked seeks the player and refreshes the position sample so the
// remote-applied jump is not mistaken for a local seek.
func (e *Engine) seekLocked(target float64) {
	e.player.SeekTo(target)
	e.lastSample = target
	e.sampleValid = true
}

// exitApplying closes the suppression window and flushes local actions that
// queued up while a remote event was being applied, oldest first, dropping
// entries too stale to still represent user intent.
func (e *Engine) exitApplying() {
	e.mu.Lock()
	if e.state == StateIdle {
		e.mu.Unlock()
		return
	}
	e.state = StateFlushing

	now := e.now()
	flush := make([]pendingAction, 0, len(e.pending))
	for _, action := range e.pending {
		if now.Sub(action.queuedAt) >= e.cfg.PendingMaxAge {
			continue
		}
		// queued echoes of the remote action itself are redundant, not intent
		if action.eventType == e.remoteState {
			continue
		}
		flush = append(flush, action)
	}
	e.pending = e.pending[:0]
	e.state = StateIdle
	e.mu.Unlock()

	for _, action := range flush {
		e.publishPlayPause(e.runCtx, action.eventType)
	}
}

// OnPlayerStateChange records a local play/pause transition and publishes it
// unless it is a remote echo or redundant with the tracked remote state.
func (e *Engine) OnPlayerStateChange(ctx context.Context, playing bool) {
	e.mu.Lock()
	e.localPlaying = playing

	if e.state != StateIdle {
		if len(e.pending) < maxPendingActions {
			e.pending = append(e.pending, pendingAction{
				eventType: playPauseType(playing),
				queuedAt:  e.now(),
			})
		}
		e.mu.Unlock()
		return
	}

	eventType := playPauseType(playing)
	if e.remoteState == eventType {
		e.mu.Unlock()
		e.logger.DebugContext(ctx, "skipping redundant event", "event_type", eventType)
		return
	}

	e.lastAction = e.now()
	e.remoteState = eventType
	e.mu.Unlock()

	e.publishPlayPause(ctx, eventType)
}

func playPauseType(playing bool) domain.EventType {
	if playing {
		return domain.EventPlay
	}
	return domain.EventPause
}

// ObservePosition feeds a playback position sample to the seek detector.
// The player emits no discrete seek events, so a jump bigger than the
// threshold between samples is inferred to be a seek.
func (e *Engine) ObservePosition(ctx context.Context, pos float64) {
	e.mu.Lock()
	if !e.sampleValid {
		e.lastSample = pos
		e.sampleValid = true
		e.mu.Unlock()
		return
	}

	jumped := e.lastSample > 0 && math.Abs(pos-e.lastSample) > e.cfg.JumpThreshold
	e.lastSample = pos
	suppressed := e.state != StateIdle
	if jumped && !suppressed {
		e.lastAction = e.now()
	}
	e.mu.Unlock()

	if !jumped || suppressed {
		return
	}

	seekTime := pos
	e.seekDebounce.Do(func() {
		e.publish(ctx, domain.VideoEvent{
			Type:        domain.EventSeek,
			CurrentTime: seekTime,
			SeekTime:    &seekTime,
		})
	})
}

func (e *Engine) publishPlayPause(ctx context.Context, eventType domain.EventType) {
	pos, ok := e.player.CurrentTime()
	if !ok {
		return
	}

	th := e.playThrottle
	if eventType == domain.EventPause {
		th = e.pauseThrottle
	}

	th.Do(func() {
		e.publish(ctx, domain.VideoEvent{
			Type:        eventType,
			CurrentTime: pos,
		})
	})
}

// publish appends an event to the session log. Transport errors degrade
// sync timeliness but never halt the engine.
func (e *Engine) publish(ctx context.Context, event domain.VideoEvent) {
	event.UserId = e.cfg.UserId
	event.Timestamp = domain.TimestampAt(e.now())

	if _, err := e.events.AddEvent(ctx, &session.AddEventParams{
		Event:     event,
		SessionId: e.cfg.SessionId,
	}); err != nil {
		e.recordDiagnostic(fmt.Sprintf("failed to publish %s event: %v", event.Type, err))
		e.logger.WarnContext(ctx, "failed to publish event", "event_type", event.Type, "error", err)
	}
}

// reportTime writes the participant-time heartbeat while playing, spacing
// directory writes at least TimeWriteInterval apart.
func (e *Engine) reportTime(ctx context.Context) {
	e.mu.Lock()
	playing := e.localPlaying
	lastWrite := e.lastTimeWrite
	e.mu.Unlock()

	if !playing {
		return
	}

	pos, ok := e.player.CurrentTime()
	if !ok {
		return
	}

	now := e.now()
	if now.Sub(lastWrite) < e.cfg.TimeWriteInterval {
		return
	}

	e.mu.Lock()
	e.lastTimeWrite = now
	e.mu.Unlock()

	if err := e.directory.UpdateParticipantTime(ctx, &session.UpdateParticipantTimeParams{
		ParticipantId: e.cfg.UserId,
		SessionId:     e.cfg.SessionId,
		Time: domain.ParticipantTime{
			CurrentTime: pos,
			LastActive:  domain.TimestampAt(now),
		},
	}); err != nil {
		e.logger.WarnContext(ctx, "failed to update participant time", "error", err)
	}
}

// healthReset clears stale action tracking and a stuck suppression state.
// A dropped callback must not leave the engine wedged forever.
func (e *Engine) healthReset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	if !e.lastAction.IsZero() && now.Sub(e.lastAction) <= e.cfg.StaleActionAge {
		return
	}

	if e.state != StateIdle {
		e.logger.Warn("health check: clearing stuck suppression state")
	}
	// stamp the reset so the next tick does not clear a fresh window again
	e.lastAction = now
	e.state = StateIdle
	e.pending = e.pending[:0]
}

func (e *Engine) recordDiagnostic(msg string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.diagnostics) >= e.cfg.MaxDiagnostics {
		e.diagnostics = e.diagnostics[1:]
	}
	e.diagnostics = append(e.diagnostics, msg)
}

// Diagnostics returns the bounded list of processing errors collected so
// far. Intended for development surfaces only.
func (e *Engine) Diagnostics() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]string, len(e.diagnostics))
	copy(out, e.diagnostics)

	return out
}
