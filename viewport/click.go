package viewport

import "time"

// Button is a pointer button.
type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
	ButtonMiddle
	ButtonBack
	ButtonForward
	buttonCount
)

// ClickKind classifies a button gesture.
type ClickKind int

const (
	NoClick ClickKind = iota
	SingleClick
	DoubleClick
)

// ClickClassifier separates single clicks from double clicks in a raw
// button stream. Each button has its own pending state so several buttons
// can be mid-gesture at once.
type ClickClassifier struct {
	interval time.Duration

	pending [buttonCount]bool

	lastButton Button
	lastTime   time.Time
	hasLast    bool
}

// NewClickClassifier returns a classifier using interval as the
// double-click window.
func NewClickClassifier(interval time.Duration) *ClickClassifier {
	return &ClickClassifier{interval: interval}
}

// Down records a button press at t. It returns DoubleClick when the same
// button was pressed within the window, NoClick otherwise.
func (c *ClickClassifier) Down(b Button, t time.Time) ClickKind {
	if b < 0 || b >= buttonCount {
		return NoClick
	}
	if c.hasLast && c.lastButton == b && t.Sub(c.lastTime) <= c.interval {
		c.pending[b] = false
		c.hasLast = false
		return DoubleClick
	}
	c.pending[b] = true
	c.lastButton = b
	c.lastTime = t
	c.hasLast = true
	return NoClick
}

// Up records a button release. It returns SingleClick for the release of a
// pending press; the release that follows a double click is swallowed.
func (c *ClickClassifier) Up(b Button) ClickKind {
	if b < 0 || b >= buttonCount {
		return NoClick
	}
	if c.pending[b] {
		c.pending[b] = false
		return SingleClick
	}
	// Not pending: the press was already consumed.
	return NoClick
}

// Pending reports whether b has an unreleased press.
func (c *ClickClassifier) Pending(b Button) bool {
	return b >= 0 && b < buttonCount && c.pending[b]
}

// Reset clears all state.
func (c *ClickClassifier) Reset() {
	*c = ClickClassifier{interval: c.interval}
}
