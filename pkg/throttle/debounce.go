package throttle

import (
	"sync"
	"time"
)

// Debounce delays a call until delay has passed without another one.
// Each Do replaces the previously scheduled call.
type Debounce struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
}

func NewDebounce(delay time.Duration) *Debounce {
	return &Debounce{delay: delay}
}

func (d *Debounce) Do(f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, f)
}

// Stop cancels the scheduled call, if any.
func (d *Debounce) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
