package viewport

import "time"

// PointerKind is the kind of a low-level pointer sample.
type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
)

// PointerEvent is one low-level pointer sample.
type PointerEvent struct {
	Kind   PointerKind
	Button Button
	X, Y   float64
	Time   time.Time
	Target HitTarget
}

// InputSource delivers pointer samples, possibly from another goroutine.
// Platform adapters implement it; the core only reads the channel.
type InputSource interface {
	Events() <-chan PointerEvent
}

// GestureKind identifies a semantic pointer gesture.
type GestureKind int

const (
	GestureClick GestureKind = iota
	GestureDoubleClick
	GesturePan
)

// Gesture is the output of a PointerController.
type Gesture struct {
	Kind   GestureKind
	Button Button
	At     Point
	Offset Point // new scroll offset for GesturePan
}

// Scroller is the scroll state a PointerController pans.
type Scroller interface {
	ScrollOffset() Point
	ScrollExtent() Point
	SetScrollOffset(Point)
}

// PointerController feeds pointer samples through a DragPanTracker and a
// ClickClassifier. It must be driven from the UI goroutine: Drain pulls
// whatever the InputSource has queued and applies pans to the Scroller.
type PointerController struct {
	source   InputSource
	scroller Scroller
	drag     DragPanTracker
	clicks   *ClickClassifier

	// PanButton arms drag panning.
	PanButton Button
}

// NewPointerController returns a controller reading from source (which
// may be nil when events are passed to Handle directly).
func NewPointerController(source InputSource, scroller Scroller, doubleClick time.Duration) *PointerController {
	return &PointerController{
		source:    source,
		scroller:  scroller,
		clicks:    NewClickClassifier(doubleClick),
		PanButton: ButtonLeft,
	}
}

// Drain processes every queued event without blocking and returns the
// gestures produced.
func (pc *PointerController) Drain() []Gesture {
	if pc.source == nil {
		return nil
	}
	var out []Gesture
	ch := pc.source.Events()
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, pc.Handle(ev)...)
		default:
			return out
		}
	}
}

// Handle processes one event.
func (pc *PointerController) Handle(ev PointerEvent) []Gesture {
	at := Point{X: ev.X, Y: ev.Y}
	var out []Gesture

	switch ev.Kind {
	case PointerDown:
		if ev.Button == pc.PanButton {
			pc.drag.Press(at, pc.scroller.ScrollOffset(), ev.Target)
		}
		if pc.clicks.Down(ev.Button, ev.Time) == DoubleClick {
			out = append(out, Gesture{Kind: GestureDoubleClick, Button: ev.Button, At: at})
		}
	case PointerMove:
		if off, ok := pc.drag.Move(at, pc.scroller.ScrollExtent()); ok {
			if off != pc.scroller.ScrollOffset() {
				pc.scroller.SetScrollOffset(off)
				out = append(out, Gesture{Kind: GesturePan, Button: pc.PanButton, At: at, Offset: off})
			}
		}
	case PointerUp:
		if ev.Button == pc.PanButton {
			pc.drag.Release()
		}
		if pc.clicks.Up(ev.Button) == SingleClick {
			out = append(out, Gesture{Kind: GestureClick, Button: ev.Button, At: at})
		}
	}
	return out
}

// Dragging reports whether a pan is in progress.
func (pc *PointerController) Dragging() bool { return pc.drag.Armed() }
