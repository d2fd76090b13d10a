package utils

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period before a search runs.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer runs fn with the latest value once no new value has arrived for
// the configured delay.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func(string)
	timer   *time.Timer
	gen     uint64
	stopped bool
}

func NewDebouncer(delay time.Duration, fn func(string)) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger schedules fn(v), replacing any pending call.
func (d *Debouncer) Trigger(v string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen, v) })
}

// fire runs fn unless the call was replaced or stopped after its timer
// already expired.
func (d *Debouncer) fire(gen uint64, v string) {
	d.mu.Lock()
	current := !d.stopped && d.gen == gen
	d.mu.Unlock()
	if current {
		d.fn(v)
	}
}

// Stop cancels any pending call; later Triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

func (d *Debouncer) stopLocked() {
	d.stopped = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
