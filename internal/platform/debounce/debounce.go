// Package debounce delays an action until its trigger has been quiet for a
// fixed window. Each Trigger cancels the pending task and schedules a new one.
package debounce

import (
	"sync"
	"time"
)

// DefaultDelay is the input quiet period used for free-text search.
const DefaultDelay = 500 * time.Millisecond

type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	seq     uint64
	stopped bool
	wg      sync.WaitGroup
}

func New(delay time.Duration) *Debouncer {
	if delay < 0 {
		delay = 0
	}
	return &Debouncer{delay: delay}
}

// Trigger schedules fn to run after the delay, replacing whatever was pending.
// It is a no-op after Stop.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil && d.timer.Stop() {
		d.wg.Done()
	}
	d.seq++
	seq := d.seq
	d.wg.Add(1)
	d.timer = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()
		d.mu.Lock()
		current := seq == d.seq && !d.stopped
		d.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Flush runs the pending task now, if any, instead of waiting out the delay.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if d.timer == nil || !d.timer.Stop() {
		d.mu.Unlock()
		return false
	}
	d.timer.Reset(0)
	d.mu.Unlock()
	return true
}

// Cancel drops the pending task without running it.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil && d.timer.Stop() {
		d.wg.Done()
	}
	d.seq++
}

// Stop cancels the pending task, disables further triggers, and waits for a
// task that already started to return.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	if d.timer != nil && d.timer.Stop() {
		d.wg.Done()
	}
	d.stopped = true
	d.mu.Unlock()
	d.wg.Wait()
}
