package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"nvdoc/imagedoc"
	"nvdoc/viewport"
)

// Window size constants
const (
	defaultWidth  = 800
	defaultHeight = 600
	minWidth      = 400
	minHeight     = 300
)

// getDefaultKeybindings returns the default keybinding configuration
func getDefaultKeybindings() map[string][]string {
	return GetDefaultKeybindings()
}

// validateKeybindings validates the keybindings configuration
func validateKeybindings(keybindings map[string][]string) error {
	keyToAction := make(map[string]string)
	validKeys := getKeyMapping()

	for action, keys := range keybindings {
		for _, keyStr := range keys {
			if _, err := parseKeyString(keyStr, validKeys); err != nil {
				return fmt.Errorf("invalid key '%s' for action '%s': %v", keyStr, action, err)
			}

			if existingAction, exists := keyToAction[keyStr]; exists {
				return fmt.Errorf("key conflict: '%s' is bound to both '%s' and '%s'", keyStr, existingAction, action)
			}
			keyToAction[keyStr] = action
		}
	}

	return nil
}

// validateMousebindings checks mouse binding syntax and conflicts
func validateMousebindings(mousebindings map[string][]string) error {
	seen := make(map[string]string)
	for action, inputs := range mousebindings {
		for _, mouseStr := range inputs {
			if _, err := parseMouseString(mouseStr); err != nil {
				return fmt.Errorf("invalid mouse input '%s' for action '%s': %v", mouseStr, action, err)
			}
			if existing, exists := seen[mouseStr]; exists {
				return fmt.Errorf("mouse conflict: '%s' is bound to both '%s' and '%s'", mouseStr, existing, action)
			}
			seen[mouseStr] = action
		}
	}
	return nil
}

// ConfigLoadResult contains the result of loading configuration
type ConfigLoadResult struct {
	Config   Config
	HasError bool
	Warnings []string
	Status   string // "OK", "Default", "Warning", "Error"
}

type Config struct {
	WindowWidth  int     `json:"window_width"`
	WindowHeight int     `json:"window_height"`
	RightToLeft  bool    `json:"right_to_left"`
	HelpFontSize float64 `json:"help_font_size"`
	SortMethod   int     `json:"sort_method"`
	Fullscreen   bool    `json:"fullscreen"`

	// Viewport
	ViewMode         string  `json:"view_mode"` // "single", "facing", "book"
	ContinuousRows   bool    `json:"continuous_rows"`
	ZoomMode         string  `json:"zoom_mode"` // "fixed", "fit_width", "fit_height"
	ZoomLevel        float64 `json:"zoom_level"`
	MinZoom          float64 `json:"min_zoom"`
	MaxZoom          float64 `json:"max_zoom"`
	ZoomStep         float64 `json:"zoom_step"`
	PageGap          float64 `json:"page_gap"`
	RowGap           float64 `json:"row_gap"`
	PanStep          float64 `json:"pan_step"`
	ResizeDebounceMs int     `json:"resize_debounce_ms"`

	// Rendering
	CacheSize      int  `json:"cache_size"`
	PreloadEnabled bool `json:"preload_enabled"`
	PreloadCount   int  `json:"preload_count"`
	RenderWorkers  int  `json:"render_workers"`

	Keybindings   map[string][]string `json:"keybindings"`
	Mousebindings map[string][]string `json:"mousebindings"`
	MouseSettings MouseSettings       `json:"mouse_settings"`
}

var viewModeNames = map[string]viewport.ViewType{
	"single": viewport.SinglePage,
	"facing": viewport.Facing,
	"book":   viewport.BookView,
}

var zoomModeNames = map[string]viewport.ZoomType{
	"fixed":      viewport.Fixed,
	"fit_width":  viewport.FitToWidth,
	"fit_height": viewport.FitToHeight,
}

func getConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "nvdoc.json"
	}
	return filepath.Join(homeDir, ".nvdoc.json")
}

func loadConfig() ConfigLoadResult {
	return loadConfigFromPath(getConfigPath())
}

func defaultConfig() Config {
	return Config{
		WindowWidth:      defaultWidth,
		WindowHeight:     defaultHeight,
		RightToLeft:      false,
		HelpFontSize:     24.0,
		SortMethod:       imagedoc.SortNatural,
		ViewMode:         "single",
		ZoomMode:         "fit_height",
		ZoomLevel:        1.0,
		MinZoom:          viewport.DefaultMinZoom,
		MaxZoom:          viewport.DefaultMaxZoom,
		ZoomStep:         viewport.DefaultZoomStep,
		PageGap:          10,
		RowGap:           10,
		PanStep:          50,
		ResizeDebounceMs: int(viewport.DefaultResizeDebounce / time.Millisecond),
		CacheSize:        16,
		PreloadEnabled:   true,
		PreloadCount:     4,
		RenderWorkers:    2,
		Keybindings:      getDefaultKeybindings(),
		Mousebindings:    GetDefaultMousebindings(),
		MouseSettings:    GetDefaultMouseSettings(),
	}
}

func loadConfigFromPath(configPath string) ConfigLoadResult {
	config := defaultConfig()

	result := ConfigLoadResult{
		Config:   config,
		HasError: false,
		Warnings: []string{},
		Status:   "OK",
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		// Config file not found is not an error - use defaults
		result.Status = "Default"
		return result
	}

	if err := json.Unmarshal(data, &config); err != nil {
		log.Printf("Warning: Invalid config file %s, using defaults: %v", configPath, err)
		result.HasError = true
		result.Status = "Error"
		result.Warnings = append(result.Warnings, fmt.Sprintf("Invalid config file: %v", err))
		return result
	}

	warn := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		log.Printf("Warning: %s", msg)
		result.Warnings = append(result.Warnings, msg)
		result.Status = "Warning"
	}

	// Validate minimum size
	if config.WindowWidth < minWidth {
		config.WindowWidth = defaultWidth
	}
	if config.WindowHeight < minHeight {
		config.WindowHeight = defaultHeight
	}

	// Validate help font size (minimum 12px for readability)
	if config.HelpFontSize <= 12.0 {
		config.HelpFontSize = 24.0
	}

	if config.SortMethod < imagedoc.SortNatural || config.SortMethod > imagedoc.SortEntryOrder {
		config.SortMethod = imagedoc.SortNatural
	}

	config.ViewMode = strings.ToLower(config.ViewMode)
	if _, ok := viewModeNames[config.ViewMode]; !ok {
		warn("unknown view_mode %q, using single", config.ViewMode)
		config.ViewMode = "single"
	}
	config.ZoomMode = strings.ToLower(config.ZoomMode)
	if _, ok := zoomModeNames[config.ZoomMode]; !ok {
		warn("unknown zoom_mode %q, using fit_height", config.ZoomMode)
		config.ZoomMode = "fit_height"
	}

	// Zoom range: min in (0, 1], max in [1, 32]
	if config.MinZoom <= 0 || config.MinZoom > 1 {
		config.MinZoom = viewport.DefaultMinZoom
	}
	if config.MaxZoom < 1 || config.MaxZoom > 32 {
		config.MaxZoom = viewport.DefaultMaxZoom
	}
	if config.ZoomStep <= 0 || config.ZoomStep > 1 {
		config.ZoomStep = viewport.DefaultZoomStep
	}
	if config.ZoomLevel < config.MinZoom || config.ZoomLevel > config.MaxZoom {
		config.ZoomLevel = 1.0
	}

	if config.PageGap < 0 || config.PageGap > 200 {
		config.PageGap = 10
	}
	if config.RowGap < 0 || config.RowGap > 200 {
		config.RowGap = 10
	}
	if config.PanStep <= 0 {
		config.PanStep = 50
	}
	if config.ResizeDebounceMs < 0 || config.ResizeDebounceMs > 2000 {
		config.ResizeDebounceMs = int(viewport.DefaultResizeDebounce / time.Millisecond)
	}

	// Validate cache size (minimum 1, maximum 64)
	if config.CacheSize < 1 {
		config.CacheSize = 16
	} else if config.CacheSize > 64 {
		config.CacheSize = 64
	}

	// Validate preload count (minimum 1, maximum 16)
	if config.PreloadCount < 1 {
		config.PreloadCount = 4
	} else if config.PreloadCount > 16 {
		config.PreloadCount = 16
	}

	if config.RenderWorkers < 1 {
		config.RenderWorkers = 2
	} else if config.RenderWorkers > 16 {
		config.RenderWorkers = 16
	}

	config.MouseSettings = validateMouseSettings(config.MouseSettings)

	// Fill in missing keybindings with defaults, then validate
	if config.Keybindings == nil {
		config.Keybindings = getDefaultKeybindings()
	} else {
		for action, defaultKeys := range getDefaultKeybindings() {
			if _, exists := config.Keybindings[action]; !exists {
				config.Keybindings[action] = defaultKeys
			}
		}
		if err := validateKeybindings(config.Keybindings); err != nil {
			warn("Keybinding errors: %v", err)
			config.Keybindings = getDefaultKeybindings()
		}
	}

	if config.Mousebindings == nil {
		config.Mousebindings = GetDefaultMousebindings()
	} else {
		for action, defaults := range GetDefaultMousebindings() {
			if _, exists := config.Mousebindings[action]; !exists {
				config.Mousebindings[action] = defaults
			}
		}
		if err := validateMousebindings(config.Mousebindings); err != nil {
			warn("Mouse binding errors: %v", err)
			config.Mousebindings = GetDefaultMousebindings()
		}
	}

	result.Config = config
	return result
}

// viewportConfig maps the user configuration onto the viewport tunables.
func (c Config) viewportConfig() *viewport.Config {
	vc := viewport.NewDefaultConfig()
	vc.MinZoom = c.MinZoom
	vc.MaxZoom = c.MaxZoom
	vc.ZoomStep = c.ZoomStep
	vc.VerticalMargin = c.RowGap
	vc.HorizontalMargin = c.PageGap
	vc.VerticalScrollbarWidth = scrollbarSize
	vc.HorizontalScrollbarHeight = scrollbarSize
	vc.ResizeDebounce = time.Duration(c.ResizeDebounceMs) * time.Millisecond
	vc.DoubleClickTime = time.Duration(c.MouseSettings.DoubleClickTime) * time.Millisecond
	vc.CacheSize = c.CacheSize
	vc.PrefetchCount = 0
	if c.PreloadEnabled {
		vc.PrefetchCount = c.PreloadCount
	}
	vc.RenderWorkers = c.RenderWorkers
	vc.InitialViewType = viewModeNames[c.ViewMode]
	if c.ContinuousRows {
		vc.InitialRowDisplay = viewport.ContinuousRows
	}
	vc.InitialZoomType = zoomModeNames[c.ZoomMode]
	vc.InitialZoomLevel = c.ZoomLevel
	return vc
}

// getSortMethodName returns the human-readable name of a sort method
func getSortMethodName(sortMethod int) string {
	return imagedoc.GetSortStrategy(sortMethod).Name()
}

func saveConfig(config Config) {
	saveConfigToPath(config, getConfigPath())
}

func saveConfigToPath(config Config, configPath string) {
	// Don't save if size is too small
	if config.WindowWidth < minWidth || config.WindowHeight < minHeight {
		log.Printf("Warning: Not saving config with invalid window size: %dx%d",
			config.WindowWidth, config.WindowHeight)
		return
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		log.Printf("Error: Failed to marshal config: %v", err)
		return
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		log.Printf("Error: Failed to save config to %s: %v", configPath, err)
	}
}
