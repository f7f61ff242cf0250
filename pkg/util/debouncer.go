// Package util provides small shared utilities.
package util

import (
	"sync"
	"time"
)

// Debouncer is a resettable timeout. Reset pushes the deadline out by the
// full duration; C fires when the deadline passes without a Reset. The
// session watchdog uses it to detect audio inactivity: every audio block in
// either direction resets the timer, and the channel firing means the
// session went quiet for the whole window.
type Debouncer struct {
	duration time.Duration
	timer    *time.Timer
	mu       sync.Mutex
	stopped  bool
}

// NewDebouncer creates a debouncer whose deadline is duration from now.
func NewDebouncer(duration time.Duration) *Debouncer {
	return &Debouncer{
		duration: duration,
		timer:    time.NewTimer(duration),
	}
}

// Reset pushes the deadline out to the full duration from now. No-op after
// Stop.
func (d *Debouncer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	// Drain a fire that raced the reset so the channel stays one-shot.
	if !d.timer.Stop() {
		select {
		case <-d.timer.C:
		default:
		}
	}
	d.timer.Reset(d.duration)
}

// C returns the channel that fires when the deadline passes.
func (d *Debouncer) C() <-chan time.Time {
	return d.timer.C
}

// Stop disarms the timer and prevents further resets. Safe to call more
// than once.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.stopped {
		d.timer.Stop()
		d.stopped = true
	}
}
