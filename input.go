package main

import (
	"math"
	"time"
	"unicode"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"nvdoc/viewport"
)

// Actions still available while no document is open
var documentlessActions = map[string]bool{
	"exit":       true,
	"help":       true,
	"fullscreen": true,
	"reload":     true,
}

// InputHandler handles all keyboard input processing
type InputHandler struct {
	inputActions      InputActions
	inputState        InputState
	keybindingManager *KeybindingManager
}

// NewInputHandler creates a new InputHandler
func NewInputHandler(inputActions InputActions, inputState InputState, keybindingManager *KeybindingManager) *InputHandler {
	return &InputHandler{
		inputActions:      inputActions,
		inputState:        inputState,
		keybindingManager: keybindingManager,
	}
}

// HandleInput processes the keyboard for the current frame. chars is the
// text typed this frame, used by the password prompt.
// Returns true if any input was processed, false otherwise
func (h *InputHandler) HandleInput(keys keyState, chars []rune) bool {
	// Modal prompts swallow the keyboard
	if h.inputState.IsInPasswordMode() {
		return h.handlePasswordInput(keys, chars)
	}
	if h.inputState.IsInPageInputMode() {
		return h.handlePageInput(keys)
	}

	hasDocument := h.inputActions.GetTotalPagesCount() > 0
	inputProcessed := false
	for _, action := range actionNames() {
		if !hasDocument && !documentlessActions[action] {
			continue
		}
		if h.keybindingManager.ExecuteAction(action, keys, h.inputActions, h.inputState) {
			inputProcessed = true
		}
	}
	return inputProcessed
}

func (h *InputHandler) handlePageInput(keys keyState) bool {
	if keys.JustPressed(ebiten.KeyEscape) {
		// Cancel page input
		h.inputActions.ExitPageInputMode()
		return true
	}

	if keys.JustPressed(ebiten.KeyEnter) || keys.JustPressed(ebiten.KeyNumpadEnter) {
		// Confirm page input
		h.inputActions.ProcessPageInput()
		h.inputActions.ExitPageInputMode()
		return true
	}

	if keys.JustPressed(ebiten.KeyBackspace) {
		if buf := h.inputState.GetPageInputBuffer(); len(buf) > 0 {
			h.inputActions.UpdatePageInputBuffer(buf[:len(buf)-1])
		}
		return true
	}

	// Digits from both the main row and the numpad
	var digit string
	if digit = checkDigitKeys(keys, ebiten.Key0, ebiten.Key9); digit == "" {
		digit = checkDigitKeys(keys, ebiten.KeyNumpad0, ebiten.KeyNumpad9)
	}
	if digit != "" {
		h.inputActions.UpdatePageInputBuffer(h.inputState.GetPageInputBuffer() + digit)
		return true
	}

	return false
}

func checkDigitKeys(keys keyState, startKey, endKey ebiten.Key) string {
	for key := startKey; key <= endKey; key++ {
		if keys.JustPressed(key) {
			return string('0' + rune(key-startKey))
		}
	}
	return ""
}

func (h *InputHandler) handlePasswordInput(keys keyState, chars []rune) bool {
	if keys.JustPressed(ebiten.KeyEscape) {
		h.inputActions.CancelPassword()
		return true
	}

	if keys.JustPressed(ebiten.KeyEnter) || keys.JustPressed(ebiten.KeyNumpadEnter) {
		h.inputActions.SubmitPassword()
		return true
	}

	buf := []rune(h.inputState.GetPasswordBuffer())
	if keys.JustPressed(ebiten.KeyBackspace) {
		if len(buf) > 0 {
			h.inputActions.UpdatePasswordBuffer(string(buf[:len(buf)-1]))
		}
		return true
	}

	changed := false
	for _, c := range chars {
		if unicode.IsPrint(c) {
			buf = append(buf, c)
			changed = true
		}
	}
	if changed {
		h.inputActions.UpdatePasswordBuffer(string(buf))
	}
	return changed
}

// hitElement is a node of the window's hit-test tree:
// window > content | scrollbar > thumb.
type hitElement struct {
	name      string
	parent    *hitElement
	scrollbar bool
}

func (e *hitElement) Parent() viewport.HitTarget {
	// A nil *hitElement must not leak out as a non-nil interface
	if e.parent == nil {
		return nil
	}
	return e.parent
}

func (e *hitElement) IsScrollbar() bool { return e.scrollbar }

var (
	windowElement     = &hitElement{name: "window"}
	contentElement    = &hitElement{name: "content", parent: windowElement}
	vScrollbarElement = &hitElement{name: "vscrollbar", parent: windowElement, scrollbar: true}
	vThumbElement     = &hitElement{name: "vthumb", parent: vScrollbarElement}
	hScrollbarElement = &hitElement{name: "hscrollbar", parent: windowElement, scrollbar: true}
	hThumbElement     = &hitElement{name: "hthumb", parent: hScrollbarElement}
)

// hitTest returns the element under (x, y)
func hitTest(l scrollbarLayout, x, y float64) *hitElement {
	switch {
	case l.Vertical.Visible && l.Vertical.Thumb.Contains(x, y):
		return vThumbElement
	case l.Vertical.Visible && l.Vertical.Track.Contains(x, y):
		return vScrollbarElement
	case l.Horizontal.Visible && l.Horizontal.Thumb.Contains(x, y):
		return hThumbElement
	case l.Horizontal.Visible && l.Horizontal.Track.Contains(x, y):
		return hScrollbarElement
	}
	return contentElement
}

// pointerButtons maps ebiten buttons to pointer buttons
var pointerButtons = []struct {
	ebiten  ebiten.MouseButton
	pointer viewport.Button
}{
	{ebiten.MouseButtonLeft, viewport.ButtonLeft},
	{ebiten.MouseButtonRight, viewport.ButtonRight},
	{ebiten.MouseButtonMiddle, viewport.ButtonMiddle},
	{ebiten.MouseButton3, viewport.ButtonBack},
	{ebiten.MouseButton4, viewport.ButtonForward},
}

// pointerSource turns per-frame mouse polling into a pointer event stream.
// Movement is only reported while a button is held and once the pointer has
// left the drag threshold, so small jitter during a click does not pan.
// Presses and releases are never lost; when the consumer falls behind they
// wait in backlog while moves are dropped.
type pointerSource struct {
	events    chan viewport.PointerEvent
	backlog   []viewport.PointerEvent
	threshold float64
	hit       func(x, y float64) viewport.HitTarget

	held     map[viewport.Button]bool
	pressAt  viewport.Point
	moving   bool
	dragged  bool
	lastX    float64
	lastY    float64
	overflow int
}

func newPointerSource(threshold int, hit func(x, y float64) viewport.HitTarget) *pointerSource {
	return &pointerSource{
		events:    make(chan viewport.PointerEvent, 64),
		threshold: float64(threshold),
		hit:       hit,
		held:      make(map[viewport.Button]bool),
	}
}

// Events implements viewport.InputSource.
func (s *pointerSource) Events() <-chan viewport.PointerEvent { return s.events }

// push queues an event. A move is dropped if the consumer has fallen
// behind; the next move carries the newer position anyway.
func (s *pointerSource) push(ev viewport.PointerEvent) {
	if s.flush() {
		select {
		case s.events <- ev:
			return
		default:
		}
	}
	if ev.Kind == viewport.PointerMove {
		s.overflow++
		debugLog("pointer move dropped (%d so far)", s.overflow)
		return
	}
	s.backlog = append(s.backlog, ev)
}

// flush moves held back events into the channel in order and reports
// whether the backlog is empty.
func (s *pointerSource) flush() bool {
	for len(s.backlog) > 0 {
		select {
		case s.events <- s.backlog[0]:
			s.backlog = s.backlog[1:]
		default:
			return false
		}
	}
	return true
}

// Poll samples ebiten's mouse state once
func (s *pointerSource) Poll(now time.Time) {
	s.flush()
	cx, cy := ebiten.CursorPosition()
	s.sample(now, float64(cx), float64(cy), inpututil.IsMouseButtonJustPressed, inpututil.IsMouseButtonJustReleased)
}

func (s *pointerSource) sample(now time.Time, x, y float64, justPressed, justReleased func(ebiten.MouseButton) bool) {
	for _, b := range pointerButtons {
		if justPressed(b.ebiten) {
			if len(s.held) == 0 {
				s.pressAt = viewport.Point{X: x, Y: y}
				s.moving = false
				s.dragged = false
			}
			s.held[b.pointer] = true
			s.push(viewport.PointerEvent{Kind: viewport.PointerDown, Button: b.pointer, X: x, Y: y, Time: now, Target: s.hit(x, y)})
		}
	}

	if len(s.held) > 0 && (x != s.lastX || y != s.lastY) {
		if !s.moving && math.Hypot(x-s.pressAt.X, y-s.pressAt.Y) >= s.threshold {
			s.moving = true
		}
		if s.moving {
			s.push(viewport.PointerEvent{Kind: viewport.PointerMove, X: x, Y: y, Time: now})
		}
	}
	s.lastX, s.lastY = x, y

	for _, b := range pointerButtons {
		if justReleased(b.ebiten) && s.held[b.pointer] {
			delete(s.held, b.pointer)
			if s.moving {
				s.dragged = true
			}
			s.push(viewport.PointerEvent{Kind: viewport.PointerUp, Button: b.pointer, X: x, Y: y, Time: now})
		}
	}
}

// Dragged reports whether the last completed press moved past the
// threshold; its click should not trigger an action.
func (s *pointerSource) Dragged() bool { return s.dragged }
