package viewport

import "fmt"

// EventKind identifies a change notification.
type EventKind int

const (
	DocumentLoaded EventKind = iota
	DocumentUnloaded
	ZoomModeChanged
	ZoomFactorChanged
	ViewTypeChanged
	RowDisplayModeChanged
	RotationChanged
	PageChanged
	PasswordRequested
)

var eventKindNames = map[EventKind]string{
	DocumentLoaded:        "DocumentLoaded",
	DocumentUnloaded:      "DocumentUnloaded",
	ZoomModeChanged:       "ZoomModeChanged",
	ZoomFactorChanged:     "ZoomFactorChanged",
	ViewTypeChanged:       "ViewTypeChanged",
	RowDisplayModeChanged: "RowDisplayModeChanged",
	RotationChanged:       "RotationChanged",
	PageChanged:           "PageChanged",
	PasswordRequested:     "PasswordRequested",
}

func (k EventKind) String() string {
	if s, ok := eventKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is a change notification. Only the fields relevant to Kind are set.
type Event struct {
	Kind       EventKind
	ZoomType   ZoomType
	Zoom       float64
	ViewType   ViewType
	RowDisplay RowDisplayMode
	Rotation   Rotation
	Page       int // 0-based
	Source     Source
}

// Observer receives change notifications on the goroutine that caused them.
//
// Ordering contract: when one operation changes both the zoom mode and the
// zoom factor, ZoomModeChanged is delivered before ZoomFactorChanged.
type Observer interface {
	OnViewportEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnViewportEvent(e Event) { f(e) }

// PasswordPrompt asks the user for a password. Returning ok=false cancels
// the open.
type PasswordPrompt func(src Source, retry bool) (password string, ok bool)

type observers []Observer

func (o observers) emit(e Event) {
	for _, obs := range o {
		obs.OnViewportEvent(e)
	}
}
