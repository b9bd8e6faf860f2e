package playback

// Player is the local video player the engine drives. CurrentTime reports
// ok=false while the underlying player is not yet initialized; the engine
// treats that as "not yet" and skips the operation instead of failing.
type Player interface {
	CurrentTime() (float64, bool)
	SeekTo(seconds float64)
	Play()
	Pause()
}
