package main

import (
	"time"

	"nvdoc/viewport"
)

const (
	// Overlay message display duration
	overlayMessageDuration = 2 * time.Second
)

// rowGeometry is a visible row in document space: page indices with
// their natural (unzoomed, rotated) sizes. Top is the zoomed distance from
// the top of the content, 0 unless rows are stacked.
type rowGeometry struct {
	Indices []int
	Sizes   []viewport.Size
	Bound   viewport.RowBound
	Top     float64
}

// RenderState provides read-only access to game state for the renderer
type RenderState interface {
	IsFullscreen() bool
	IsRightToLeft() bool

	// Document and row
	GetSourceName() string
	GetLoadError() string
	GetVisibleRows() []viewport.Row
	GetRowGeometries() []rowGeometry
	GetPageGap() float64

	// Zoom and scroll state
	GetZoomType() viewport.ZoomType
	GetZoomLevel() float64
	GetViewType() viewport.ViewType
	GetRowDisplayMode() viewport.RowDisplayMode
	GetRotation() viewport.Rotation
	GetContentSize() viewport.Size
	GetViewportSize() viewport.Size
	GetScrollOffset() viewport.Point
	GetScrollExtent() viewport.Point

	// UI state
	IsShowingHelp() bool
	IsShowingInfo() bool
	IsInPageInputMode() bool
	GetPageInputBuffer() string
	IsInPasswordMode() bool
	GetPasswordBuffer() string
	IsPasswordRetry() bool
	GetOverlayMessage() string
	GetOverlayMessageTime() time.Time

	// Display data
	GetCurrentPageIndex() int
	GetTotalPagesCount() int
	GetSortMethod() int
	GetFontSize() float64
	GetConfigStatus() ConfigLoadResult
	GetKeybindings() map[string][]string
	GetMousebindings() map[string][]string

	// GetRevision changes whenever anything drawn from the viewport changes.
	GetRevision() uint64
}

// RenderStateSnapshot captures what the renderer last drew, so frames with
// nothing new can be skipped
type RenderStateSnapshot struct {
	Revision uint64

	// Overlay message state (auto-expires after 2 seconds)
	OverlayMessage     string
	OverlayMessageTime time.Time

	// Window dimensions for resize detection
	WindowWidth  int
	WindowHeight int
}

// NewRenderStateSnapshot creates a lightweight snapshot of the render state
func NewRenderStateSnapshot(state RenderState, windowWidth, windowHeight int) *RenderStateSnapshot {
	return &RenderStateSnapshot{
		Revision:           state.GetRevision(),
		OverlayMessage:     state.GetOverlayMessage(),
		OverlayMessageTime: state.GetOverlayMessageTime(),
		WindowWidth:        windowWidth,
		WindowHeight:       windowHeight,
	}
}

// Equals checks if two snapshots are equal
func (s *RenderStateSnapshot) Equals(other *RenderStateSnapshot, now time.Time) bool {
	if other == nil {
		return false
	}

	isOverlayActive := func(message string, messageTime time.Time) bool {
		return message != "" && now.Sub(messageTime) < overlayMessageDuration
	}

	// Compare overlay states semantically rather than exact time values
	overlayEqual := func() bool {
		sActive := isOverlayActive(s.OverlayMessage, s.OverlayMessageTime)
		otherActive := isOverlayActive(other.OverlayMessage, other.OverlayMessageTime)

		if !sActive && !otherActive {
			return s.OverlayMessage == other.OverlayMessage
		}
		if sActive && otherActive {
			return s.OverlayMessage == other.OverlayMessage &&
				s.OverlayMessageTime.Equal(other.OverlayMessageTime)
		}
		// One active, one inactive - not equal
		return false
	}

	return s.Revision == other.Revision &&
		overlayEqual() &&
		s.WindowWidth == other.WindowWidth &&
		s.WindowHeight == other.WindowHeight
}

// InputActions provides action methods for the input handler
type InputActions interface {
	// Application control
	Exit()

	// Display toggles
	ToggleHelp()
	ToggleInfo()
	ToggleFullscreen()

	// Page input
	EnterPageInputMode()
	ExitPageInputMode()
	ProcessPageInput()
	UpdatePageInputBuffer(buffer string)

	// Password input
	UpdatePasswordBuffer(buffer string)
	SubmitPassword()
	CancelPassword()

	// Settings
	ToggleReadingDirection()
	CycleSortMethod()
	Reload()

	// Navigation
	NavigateNext()
	NavigatePrevious()
	JumpToPage(page int)

	// Layout
	ToggleRowMode()
	CycleViewType()
	RotateLeft()
	RotateRight()

	// Zoom and pan actions
	ZoomIn()
	ZoomOut()
	ZoomReset()
	FitWidth()
	FitHeight()
	PanUp()
	PanDown()
	PanLeft()
	PanRight()

	// Messages
	ShowOverlayMessage(message string)

	GetTotalPagesCount() int
}

// InputState provides read-only access to input-related state
type InputState interface {
	IsInPageInputMode() bool
	GetPageInputBuffer() string
	IsInPasswordMode() bool
	GetPasswordBuffer() string
}
