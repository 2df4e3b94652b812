package utils

import (
	"sync"
	"time"
)

// TimerHandle allows stopping a scheduled callback.
type TimerHandle interface {
	Stop() bool
}

// AfterFunc schedules f to run after d. Returns a handle to cancel.
type AfterFunc func(d time.Duration, f func()) TimerHandle

type realTimerHandle struct {
	timer *time.Timer
}

func (h *realTimerHandle) Stop() bool {
	return h.timer.Stop()
}

// DefaultAfterFunc uses the standard library's time.AfterFunc.
var DefaultAfterFunc AfterFunc = func(d time.Duration, f func()) TimerHandle {
	return &realTimerHandle{timer: time.AfterFunc(d, f)}
}

// Debouncer keeps at most one pending callback per input stream. Each
// Trigger cancels the previous timer; a callback that already fired but
// lost the race with a newer Trigger is dropped.
type Debouncer struct {
	delay     time.Duration
	afterFunc AfterFunc

	mu      sync.Mutex
	pending TimerHandle
	seq     uint64
}

func NewDebouncer(delay time.Duration, af AfterFunc) *Debouncer {
	if af == nil {
		af = DefaultAfterFunc
	}
	return &Debouncer{delay: delay, afterFunc: af}
}

func (d *Debouncer) Trigger(f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		d.pending.Stop()
	}
	d.seq++
	seq := d.seq
	d.pending = d.afterFunc(d.delay, func() {
		d.mu.Lock()
		current := seq == d.seq
		if current {
			d.pending = nil
		}
		d.mu.Unlock()

		if current {
			f()
		}
	})
}

// Cancel drops the pending callback, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
	d.seq++
}

func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}
