package sched

import "time"

// Debouncer is a single-slot pending-task cell. Schedule replaces any task
// that has not run yet and restarts the quiescence window; only the last
// task scheduled within a window runs.
//
// A Debouncer must only be used from the loop it was created with.
type Debouncer struct {
	loop  *Loop
	wait  time.Duration
	task  func()
	timer Timer
	gen   uint64
}

// NewDebouncer creates a debouncer that runs tasks on l after wait.
func NewDebouncer(l *Loop, wait time.Duration) *Debouncer {
	return &Debouncer{loop: l, wait: wait}
}

// Wait returns the quiescence window.
func (d *Debouncer) Wait() time.Duration { return d.wait }

// Schedule sets fn as the pending task and restarts the window.
func (d *Debouncer) Schedule(fn func()) {
	d.stop()
	d.gen++
	gen := d.gen
	d.task = fn
	d.timer = d.loop.AfterFunc(d.wait, func() {
		// A timer that fired before Stop could cancel it carries a stale gen.
		if gen != d.gen {
			return
		}
		d.runPending()
	})
}

// Flush runs the pending task now, if any, and reports whether one ran.
func (d *Debouncer) Flush() bool {
	if d.task == nil {
		return false
	}
	d.stop()
	d.gen++
	d.runPending()
	return true
}

// Cancel drops the pending task without running it.
func (d *Debouncer) Cancel() {
	d.stop()
	d.gen++
	d.task = nil
}

// Pending reports whether a task is waiting.
func (d *Debouncer) Pending() bool { return d.task != nil }

func (d *Debouncer) runPending() {
	fn := d.task
	d.task = nil
	d.timer = nil
	if fn != nil {
		fn()
	}
}

func (d *Debouncer) stop() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
