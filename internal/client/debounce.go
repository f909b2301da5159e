package client

import (
	"sync"
	"time"
)

// DefaultDebounce is the pause after the last keystroke before a query is sent.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer collapses bursts of triggers into one call of the last
// function, made delay after the burst ends.
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
	// counts scheduled calls that were not stopped, running or not
	pending sync.WaitGroup
}

func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay}
}

func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.pending.Add(1)
	d.timer = time.AfterFunc(d.delay, func() {
		defer d.pending.Done()
		fn()
	})
}

// Flush drops any pending call, waits for one that already fired to
// return, then runs fn. It must not race with Trigger.
func (d *Debouncer) Flush(fn func()) {
	d.Stop()
	d.pending.Wait()
	fn()
}

// Stop drops the pending call and reports whether there was one to drop.
// A call that already fired keeps running.
func (d *Debouncer) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopLocked()
}

func (d *Debouncer) stopLocked() bool {
	if d.timer == nil {
		return false
	}
	stopped := d.timer.Stop()
	if stopped {
		d.pending.Done()
	}
	d.timer = nil
	return stopped
}
