package viewport

import (
	"fmt"
	"math"
)

// ZoomType is the zoom intent. Fit modes are recomputed from the viewport;
// Fixed holds a factor.
type ZoomType int

const (
	Fixed ZoomType = iota
	FitToWidth
	FitToHeight
)

func (z ZoomType) String() string {
	switch z {
	case Fixed:
		return "Fixed"
	case FitToWidth:
		return "Fit to width"
	case FitToHeight:
		return "Fit to height"
	default:
		return fmt.Sprintf("ZoomType(%d)", int(z))
	}
}

// Scrollbars describes the space a scrollbar takes when it is shown.
type Scrollbars struct {
	VerticalWidth    float64
	HorizontalHeight float64
}

// FitInput is everything a fit computation depends on.
type FitInput struct {
	Row        RowBound
	Viewport   Size
	Scrollbars Scrollbars

	// StackHeight is the unzoomed height of all rows when they are shown
	// stacked, 0 when only Row is shown.
	StackHeight float64
}

// ZoomController is the zoom state machine. It is not safe for concurrent
// use; it lives on the UI goroutine.
type ZoomController struct {
	min, max, step float64
	visualMargin   float64

	mode   ZoomType
	factor float64
	notify func(Event)
}

// NewZoomController returns a controller in Fixed mode at initial (clamped).
func NewZoomController(cfg *Config, initial float64) *ZoomController {
	z := &ZoomController{
		min:          cfg.MinZoom,
		max:          cfg.MaxZoom,
		step:         cfg.ZoomStep,
		visualMargin: cfg.VisualMargin,
		mode:         Fixed,
	}
	z.factor = z.clamp(initial)
	return z
}

// SetNotify installs the change callback.
func (z *ZoomController) SetNotify(f func(Event)) { z.notify = f }

// Mode returns the current zoom type.
func (z *ZoomController) Mode() ZoomType { return z.mode }

// Factor returns the current zoom factor.
func (z *ZoomController) Factor() float64 { return z.factor }

// ZoomIn steps the factor up and switches to Fixed.
func (z *ZoomController) ZoomIn() { z.apply(Fixed, z.factor+z.step) }

// ZoomOut steps the factor down and switches to Fixed.
func (z *ZoomController) ZoomOut() { z.apply(Fixed, z.factor-z.step) }

// SetZoom sets a fixed factor.
func (z *ZoomController) SetZoom(factor float64) { z.apply(Fixed, factor) }

// FitToWidth switches to FitToWidth and computes the factor for in.
func (z *ZoomController) FitToWidth(in FitInput) { z.apply(FitToWidth, z.fitWidth(in)) }

// FitToHeight switches to FitToHeight and computes the factor for in.
func (z *ZoomController) FitToHeight(in FitInput) { z.apply(FitToHeight, z.fitHeight(in)) }

// Reapply recomputes the factor for the current mode against new geometry.
// Fixed factors are kept; fit modes are recomputed.
func (z *ZoomController) Reapply(in FitInput) {
	switch z.mode {
	case FitToWidth:
		z.apply(FitToWidth, z.fitWidth(in))
	case FitToHeight:
		z.apply(FitToHeight, z.fitHeight(in))
	}
}

// Resize handles a (debounced) viewport size change. It only acts in a fit
// mode.
func (z *ZoomController) Resize(in FitInput) {
	if z.mode == Fixed {
		return
	}
	z.Reapply(in)
}

// Restore sets mode and factor without recomputation, for example when a
// saved configuration is applied.
func (z *ZoomController) Restore(mode ZoomType, factor float64) { z.apply(mode, factor) }

func (z *ZoomController) fitWidth(in FitInput) float64 {
	row := in.Row.SizeIncludingOffset()
	if row.Width <= 0 || in.Viewport.Width <= 0 {
		return z.factor
	}
	// Inter-page margins are not scaled.
	fixed := z.visualMargin + in.Row.HorizontalOffset
	f := (in.Viewport.Width - fixed) / row.Width
	if max(row.Height, in.StackHeight)*f > in.Viewport.Height {
		// A vertical scrollbar will appear and take some width.
		f = (in.Viewport.Width - fixed - in.Scrollbars.VerticalWidth) / row.Width
	}
	return f
}

func (z *ZoomController) fitHeight(in FitInput) float64 {
	row := in.Row.SizeIncludingOffset()
	if row.Height <= 0 || in.Viewport.Height <= 0 {
		return z.factor
	}
	fixed := z.visualMargin
	f := (in.Viewport.Height - fixed) / row.Height
	if row.Width*f+in.Row.HorizontalOffset > in.Viewport.Width {
		f = (in.Viewport.Height - fixed - in.Scrollbars.HorizontalHeight) / row.Height
	}
	return f
}

func (z *ZoomController) apply(mode ZoomType, factor float64) {
	factor = z.clamp(factor)
	modeChanged := mode != z.mode
	factorChanged := factor != z.factor
	z.mode = mode
	z.factor = factor
	if z.notify == nil {
		return
	}
	if modeChanged {
		z.notify(Event{Kind: ZoomModeChanged, ZoomType: mode, Zoom: factor})
	}
	if factorChanged {
		z.notify(Event{Kind: ZoomFactorChanged, ZoomType: mode, Zoom: factor})
	}
}

// clamp bounds f to [min, max] and drops float noise from repeated steps.
func (z *ZoomController) clamp(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		f = z.factor
	}
	f = math.Round(f*1e6) / 1e6
	return math.Max(z.min, math.Min(z.max, f))
}
