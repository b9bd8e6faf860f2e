package playback

import (
	"time"

	"github.com/watchparty/server/internal/domain"
)

// Defaults for the engine's tunables. CompensationWindow and JumpThreshold
// are empirically chosen values carried over from production behavior; treat
// them as configuration, not derived semantics.
const (
	DefaultCompensationWindow = 30 * time.Second
	DefaultJumpThreshold      = 2.0
	DefaultSuppressionDelay   = 500 * time.Millisecond
	DefaultSeekSettleDelay    = 200 * time.Millisecond
	DefaultPendingMaxAge      = 3 * time.Second
	DefaultPublishThrottle    = 500 * time.Millisecond
	DefaultSeekDebounce       = 100 * time.Millisecond
	DefaultHeartbeatInterval  = 5 * time.Second
	DefaultTimeWriteInterval  = 2 * time.Second
	DefaultPollInterval       = 500 * time.Millisecond
	DefaultHealthInterval     = 30 * time.Second
	DefaultStaleActionAge     = 30 * time.Second
	DefaultBootstrapBuffer    = 0.5
	DefaultMaxDiagnostics     = 32
)

type Config struct {
	SessionId string
	UserId    string

	// CompensationWindow bounds how old an event may be and still receive
	// positive clock compensation.
	CompensationWindow time.Duration
	// JumpThreshold is the playback-position difference, in seconds, above
	// which the engine corrects by seeking (and infers local seeks from
	// observed position jumps).
	JumpThreshold float64
	// SuppressionDelay is how long outbound publication stays suppressed
	// after a remote event is applied.
	SuppressionDelay time.Duration
	// SeekSettleDelay is the pause between a corrective seek and play.
	SeekSettleDelay time.Duration
	// PendingMaxAge drops queued local actions too stale to replay.
	PendingMaxAge time.Duration
	// PublishThrottle limits play/pause publications per event type.
	PublishThrottle time.Duration
	// SeekDebounce coalesces rapid local seeks; seeks are debounced rather
	// than throttled because the final position matters more than volume.
	SeekDebounce time.Duration
	// HeartbeatInterval is the position-report tick; TimeWriteInterval is
	// the minimum spacing between directory writes.
	HeartbeatInterval time.Duration
	TimeWriteInterval time.Duration
	// PollInterval drives the fallback seek-detection loop.
	PollInterval time.Duration
	// HealthInterval/StaleActionAge control the self-heal of a stuck
	// suppression state.
	HealthInterval time.Duration
	StaleActionAge time.Duration
	// BootstrapBuffer is the extra seconds added on the late-joiner seek to
	// absorb network and setup delay.
	BootstrapBuffer float64
	MaxDiagnostics  int

	// OnVideoChange is invoked when a remote video_change event switches the
	// session to another video; the client is expected to navigate.
	OnVideoChange func(videoId string)
	// OnReaction forwards popup events to a transient reaction UI.
	OnReaction func(userName string, emoji domain.Emoji)
	// Notify surfaces non-blocking user-visible notices.
	Notify func(message string)
}

func (cfg Config) withDefaults() Config {
	if cfg.CompensationWindow == 0 {
		cfg.CompensationWindow = DefaultCompensationWindow
	}
	if cfg.JumpThreshold == 0 {
		cfg.JumpThreshold = DefaultJumpThreshold
	}
	if cfg.SuppressionDelay == 0 {
		cfg.SuppressionDelay = DefaultSuppressionDelay
	}
	if cfg.SeekSettleDelay == 0 {
		cfg.SeekSettleDelay = DefaultSeekSettleDelay
	}
	if cfg.PendingMaxAge == 0 {
		cfg.PendingMaxAge = DefaultPendingMaxAge
	}
	if cfg.PublishThrottle == 0 {
		cfg.PublishThrottle = DefaultPublishThrottle
	}
	if cfg.SeekDebounce == 0 {
		cfg.SeekDebounce = DefaultSeekDebounce
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.TimeWriteInterval == 0 {
		cfg.TimeWriteInterval = DefaultTimeWriteInterval
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.HealthInterval == 0 {
		cfg.HealthInterval = DefaultHealthInterval
	}
	if cfg.StaleActionAge == 0 {
		cfg.StaleActionAge = DefaultStaleActionAge
	}
	if cfg.BootstrapBuffer == 0 {
		cfg.BootstrapBuffer = DefaultBootstrapBuffer
	}
	if cfg.MaxDiagnostics == 0 {
		cfg.MaxDiagnostics = DefaultMaxDiagnostics
	}

	return cfg
}
