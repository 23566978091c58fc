package viewport

import "time"

// Debouncer coalesces bursts of signals: every Trigger restarts the window
// and Fire reports true once, after the window has elapsed with no new
// signal. It is clock driven so a frame loop can poll it.
type Debouncer struct {
	window   time.Duration
	deadline time.Time
	armed    bool
}

// NewDebouncer returns a debouncer with the given window.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{window: window}
}

// Trigger records a signal at now.
func (d *Debouncer) Trigger(now time.Time) {
	d.deadline = now.Add(d.window)
	d.armed = true
}

// Fire reports whether the window expired at now. It returns true at most
// once per burst.
func (d *Debouncer) Fire(now time.Time) bool {
	if !d.armed || now.Before(d.deadline) {
		return false
	}
	d.armed = false
	return true
}

// Pending reports whether a burst is waiting to fire.
func (d *Debouncer) Pending() bool { return d.armed }
