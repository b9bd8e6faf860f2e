package throttle

import (
	"sync"
	"time"
)

// Throttle runs at most one call per interval. The first call in a window
// runs immediately; the last call arriving inside the window runs when the
// window closes (trailing edge), opening a new window.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	inWindow bool
	pending  func()
	timer    *time.Timer
}

func New(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

func (t *Throttle) Do(f func()) {
	t.mu.Lock()
	if t.inWindow {
		t.pending = f
		t.mu.Unlock()
		return
	}
	t.inWindow = true
	t.timer = time.AfterFunc(t.interval, t.windowEnd)
	t.mu.Unlock()

	f()
}

func (t *Throttle) windowEnd() {
	t.mu.Lock()
	f := t.pending
	t.pending = nil
	if f != nil {
		t.timer = time.AfterFunc(t.interval, t.windowEnd)
	} else {
		t.inWindow = false
	}
	t.mu.Unlock()

	if f != nil {
		f()
	}
}

// Stop cancels the current window and drops any pending call.
func (t *Throttle) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.pending = nil
	t.inWindow = false
}
