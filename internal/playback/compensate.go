package playback

import "time"

// compensation converts the elapsed time between an event's creation and now
// into seconds of playback the sender has advanced in the meantime. Events
// from the future (clock skew) or older than the window are not trusted as
// live signals and get no compensation.
func compensation(eventTime, now time.Time, window time.Duration) float64 {
	delta := now.Sub(eventTime)
	if delta <= 0 || delta >= window {
		return 0
	}

	return delta.Seconds()
}
