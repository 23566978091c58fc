package viewport

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testZoomConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.MinZoom = 0.5
	cfg.MaxZoom = 2.0
	cfg.ZoomStep = 0.1
	cfg.VisualMargin = 0
	return cfg
}

func TestZoomStepping(t *testing.T) {
	z := NewZoomController(testZoomConfig(), 1.0)
	for range 5 {
		z.ZoomIn()
	}
	assert.InDelta(t, 1.5, z.Factor(), 1e-9)
	assert.Equal(t, Fixed, z.Mode())

	z = NewZoomController(testZoomConfig(), 1.0)
	for range 15 {
		z.ZoomIn()
	}
	assert.Equal(t, 2.0, z.Factor())

	for range 40 {
		z.ZoomOut()
	}
	assert.Equal(t, 0.5, z.Factor())
}

func TestZoomClampOnEveryPath(t *testing.T) {
	in := FitInput{Row: RowBound{Size: Size{10, 10}}, Viewport: Size{10000, 10000}}
	tiny := FitInput{Row: RowBound{Size: Size{10000, 10000}}, Viewport: Size{10, 10}}

	ops := map[string]func(z *ZoomController){
		"set huge":       func(z *ZoomController) { z.SetZoom(100) },
		"set negative":   func(z *ZoomController) { z.SetZoom(-3) },
		"set NaN":        func(z *ZoomController) { z.SetZoom(math.NaN()) },
		"fit width big":  func(z *ZoomController) { z.FitToWidth(in) },
		"fit width tiny": func(z *ZoomController) { z.FitToWidth(tiny) },
		"fit height big": func(z *ZoomController) { z.FitToHeight(in) },
		"fit height low": func(z *ZoomController) { z.FitToHeight(tiny) },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			z := NewZoomController(testZoomConfig(), 1.0)
			op(z)
			assert.GreaterOrEqual(t, z.Factor(), 0.5)
			assert.LessOrEqual(t, z.Factor(), 2.0)
		})
	}
}

func TestFitToWidthScrollbarPass(t *testing.T) {
	cfg := testZoomConfig()
	cfg.MinZoom = 0.01
	cfg.MaxZoom = 10

	// Row fits vertically: no scrollbar allowance.
	z := NewZoomController(cfg, 1.0)
	z.FitToWidth(FitInput{
		Row:        RowBound{Size: Size{400, 200}},
		Viewport:   Size{800, 600},
		Scrollbars: Scrollbars{VerticalWidth: 20},
	})
	assert.Equal(t, FitToWidth, z.Mode())
	assert.InDelta(t, 2.0, z.Factor(), 1e-6)

	// Tall row overflows: second pass subtracts the scrollbar.
	z.FitToWidth(FitInput{
		Row:        RowBound{Size: Size{400, 1000}},
		Viewport:   Size{800, 600},
		Scrollbars: Scrollbars{VerticalWidth: 20},
	})
	assert.InDelta(t, 780.0/400.0, z.Factor(), 1e-6)
}

func TestFitToHeight(t *testing.T) {
	cfg := testZoomConfig()
	cfg.MinZoom = 0.01
	cfg.MaxZoom = 10
	cfg.VisualMargin = 4

	z := NewZoomController(cfg, 1.0)
	z.FitToHeight(FitInput{
		Row:        RowBound{Size: Size{200, 290}, VerticalOffset: 10},
		Viewport:   Size{1000, 604},
		Scrollbars: Scrollbars{HorizontalHeight: 15},
	})
	assert.Equal(t, FitToHeight, z.Mode())
	assert.InDelta(t, 2.0, z.Factor(), 1e-6)

	// Very wide row: horizontal scrollbar takes height.
	z.FitToHeight(FitInput{
		Row:        RowBound{Size: Size{2000, 290}, VerticalOffset: 10},
		Viewport:   Size{1000, 604},
		Scrollbars: Scrollbars{HorizontalHeight: 15},
	})
	assert.InDelta(t, (604.0-4-15)/300.0, z.Factor(), 1e-6)
}

func TestFitModeSticksAcrossResize(t *testing.T) {
	cfg := testZoomConfig()
	cfg.MinZoom = 0.01
	cfg.MaxZoom = 10
	row := RowBound{Size: Size{100, 100}}

	z := NewZoomController(cfg, 1.0)
	z.FitToWidth(FitInput{Row: row, Viewport: Size{300, 1000}})
	require.InDelta(t, 3.0, z.Factor(), 1e-6)

	z.Resize(FitInput{Row: row, Viewport: Size{500, 1000}})
	assert.Equal(t, FitToWidth, z.Mode())
	assert.InDelta(t, 5.0, z.Factor(), 1e-6)

	z.SetZoom(1.5)
	z.Resize(FitInput{Row: row, Viewport: Size{200, 200}})
	assert.Equal(t, Fixed, z.Mode())
	assert.Equal(t, 1.5, z.Factor())
}

func TestZoomEventOrdering(t *testing.T) {
	cfg := testZoomConfig()
	cfg.MinZoom = 0.01
	cfg.MaxZoom = 10

	var got []EventKind
	z := NewZoomController(cfg, 1.0)
	z.SetNotify(func(e Event) { got = append(got, e.Kind) })

	z.FitToWidth(FitInput{Row: RowBound{Size: Size{100, 10}}, Viewport: Size{300, 1000}})
	assert.Equal(t, []EventKind{ZoomModeChanged, ZoomFactorChanged}, got)

	got = nil
	z.FitToWidth(FitInput{Row: RowBound{Size: Size{100, 10}}, Viewport: Size{300, 1000}})
	assert.Empty(t, got, "no change, no events")

	got = nil
	z.ZoomIn()
	assert.Equal(t, []EventKind{ZoomModeChanged, ZoomFactorChanged}, got)
}

func TestFitIgnoresEmptyGeometry(t *testing.T) {
	z := NewZoomController(testZoomConfig(), 1.25)
	z.FitToWidth(FitInput{})
	assert.Equal(t, FitToWidth, z.Mode())
	assert.Equal(t, 1.25, z.Factor())
}
