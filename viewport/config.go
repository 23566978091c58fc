package viewport

import (
	"time"

	"github.com/go-playground/validator/v10"

	"nvdoc/logger"
)

// Default values used by NewDefaultConfig.
const (
	DefaultMinZoom        = 0.1
	DefaultMaxZoom        = 8.0
	DefaultZoomStep       = 0.1
	DefaultResizeDebounce = 150 * time.Millisecond
	DefaultDoubleClick    = 300 * time.Millisecond
)

// Config holds the tunables of a ViewportModel.
type Config struct {
	MinZoom  float64 `validate:"gt=0"`
	MaxZoom  float64 `validate:"gtfield=MinZoom"`
	ZoomStep float64 `validate:"gt=0"`

	VerticalMargin   float64 `validate:"min=0"`
	HorizontalMargin float64 `validate:"min=0"`
	VisualMargin     float64 `validate:"min=0"` // extra width/height kept free by fit modes

	VerticalScrollbarWidth    float64 `validate:"min=0"`
	HorizontalScrollbarHeight float64 `validate:"min=0"`

	ResizeDebounce   time.Duration `validate:"min=0"`
	DoubleClickTime  time.Duration `validate:"gt=0"`
	CacheSize        int           `validate:"min=1,max=256"`
	PrefetchCount    int           `validate:"min=0,max=16"`
	RenderWorkers    int           `validate:"min=1,max=16"`
	InitialViewType  ViewType      `validate:"min=0,max=2"`
	InitialZoomType  ZoomType      `validate:"min=0,max=2"`
	InitialZoomLevel float64       `validate:"gt=0"`

	InitialRowDisplay RowDisplayMode `validate:"min=0,max=1"`
}

// NewDefaultConfig returns a Config with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		MinZoom:                   DefaultMinZoom,
		MaxZoom:                   DefaultMaxZoom,
		ZoomStep:                  DefaultZoomStep,
		VerticalMargin:            10,
		HorizontalMargin:          10,
		VisualMargin:              4,
		VerticalScrollbarWidth:    12,
		HorizontalScrollbarHeight: 12,
		ResizeDebounce:            DefaultResizeDebounce,
		DoubleClickTime:           DefaultDoubleClick,
		CacheSize:                 16,
		PrefetchCount:             4,
		RenderWorkers:             2,
		InitialViewType:           SinglePage,
		InitialZoomType:           FitToHeight,
		InitialZoomLevel:          1.0,
		InitialRowDisplay:         SingleRow,
	}
}

// Validate checks the struct tags.
func (cfg *Config) Validate() error {
	logger.Debug("validating viewport config")
	return validator.New().Struct(cfg)
}
