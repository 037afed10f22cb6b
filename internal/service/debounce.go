package service

import (
	"sync"
	"time"
)

// DefaultSettleDelay is how long a debounced edit must sit
// uninterrupted before it commits.
const DefaultSettleDelay = 220 * time.Millisecond

// Debouncer coalesces rapid calls per key into a single callback
// after a settle delay. It owns all timer handles; cancelling a key
// is side-effect-free. There is no implicit flush: a scheduled
// callback that is cancelled before settling is simply dropped.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timers  map[string]*time.Timer
	pending map[string]func()
}

func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultSettleDelay
	}
	return &Debouncer{
		delay:   delay,
		timers:  make(map[string]*time.Timer),
		pending: make(map[string]func()),
	}
}

// Schedule arms (or re-arms) the settle timer for key. A later call
// with the same key replaces the callback and restarts the delay.
func (d *Debouncer) Schedule(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, ok := d.timers[key]; ok {
		timer.Stop()
	}
	d.pending[key] = fn
	d.timers[key] = time.AfterFunc(d.delay, func() {
		d.fire(key)
	})
}

func (d *Debouncer) fire(key string) {
	d.mu.Lock()
	fn := d.pending[key]
	delete(d.pending, key)
	delete(d.timers, key)
	d.mu.Unlock()

	// fn is nil when Cancel or Flush won the race against the timer.
	if fn != nil {
		fn()
	}
}

// Cancel drops any pending callback for key without running it.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, ok := d.timers[key]; ok {
		timer.Stop()
	}
	delete(d.pending, key)
	delete(d.timers, key)
}

// Flush runs the pending callback for key immediately, if any.
func (d *Debouncer) Flush(key string) {
	d.mu.Lock()
	fn := d.pending[key]
	if timer, ok := d.timers[key]; ok {
		timer.Stop()
	}
	delete(d.pending, key)
	delete(d.timers, key)
	d.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Stop cancels every pending callback.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, timer := range d.timers {
		timer.Stop()
		delete(d.timers, key)
		delete(d.pending, key)
	}
}
