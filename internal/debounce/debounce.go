// Package debounce provides a timer-reset debouncer for rapid input.
package debounce

import (
	"sync"
	"time"
)

// DefaultQuiescence is how long input must stay unchanged before firing.
const DefaultQuiescence = 300 * time.Millisecond

// Debouncer calls fn with the most recent value once input has been quiet
// for the configured window. Each Set resets the timer, so only the last
// value in a burst is delivered. Safe for use from multiple goroutines.
type Debouncer struct {
	mu    sync.Mutex
	wait  time.Duration
	fn    func(string)
	timer *time.Timer
	last  string
}

// New creates a debouncer. A non-positive wait falls back to
// DefaultQuiescence.
func New(wait time.Duration, fn func(string)) *Debouncer {
	if wait <= 0 {
		wait = DefaultQuiescence
	}
	return &Debouncer{wait: wait, fn: fn}
}

// Set records a new input value and restarts the quiescence timer.
func (d *Debouncer) Set(value string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.last = value
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.wait, d.fire)
}

// fire delivers the latest value.
func (d *Debouncer) fire() {
	d.mu.Lock()
	value := d.last
	d.mu.Unlock()

	d.fn(value)
}

// Flush fires immediately with the latest value, cancelling any pending
// timer. Useful when the caller is about to exit.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	value := d.last
	d.mu.Unlock()

	d.fn(value)
}

// Stop cancels any pending delivery.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
