// Package debounce coalesces bursts of triggers into a single callback that
// fires once input has been quiet for a fixed period.
package debounce

import (
	"sync"
	"time"
)

// Debouncer delays fn until no Trigger call has arrived for the quiet period.
// Only the most recent value is delivered.
type Debouncer[T any] struct {
	quiet time.Duration
	fn    func(T)

	mu      sync.Mutex
	timer   *time.Timer
	pending T
	armed   bool
	stopped bool
	gen     uint64
}

// New returns a Debouncer that calls fn after quiet has elapsed since the last
// Trigger. A non-positive quiet period delivers every trigger synchronously.
func New[T any](quiet time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{quiet: quiet, fn: fn}
}

// Trigger records v as the latest value and restarts the quiet period.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	if d.quiet <= 0 {
		d.mu.Unlock()
		d.fn(v)
		return
	}
	d.pending = v
	d.armed = true
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, func() { d.fire(gen) })
	d.mu.Unlock()
}

// Flush delivers a pending value immediately instead of waiting for the timer.
// It reports whether anything was delivered.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	v, ok := d.take()
	d.mu.Unlock()
	if ok {
		d.fn(v)
	}
	return ok
}

// Cancel drops a pending value without delivering it. Later triggers still work.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.take()
}

// Stop cancels any pending callback. Later triggers are ignored.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.take()
}

// Pending reports whether a value is waiting for the quiet period to elapse.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.armed
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	// A newer trigger restarted the timer after this one was already queued.
	if gen != d.gen || d.stopped {
		d.mu.Unlock()
		return
	}
	v, ok := d.take()
	d.mu.Unlock()
	if ok {
		d.fn(v)
	}
}

// take must be called with mu held.
func (d *Debouncer[T]) take() (T, bool) {
	var zero T
	if !d.armed {
		return zero, false
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	v := d.pending
	d.pending = zero
	d.armed = false
	d.gen++
	return v, true
}
