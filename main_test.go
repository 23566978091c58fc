package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nvdoc/imagedoc"
	"nvdoc/viewport"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), ".nvdoc.json")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return configPath
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name           string
		configJSON     string
		expectedWidth  int
		expectedHeight int
		expectedRTL    bool
		expectedView   string
		expectedZoom   string
		expectedStatus string
	}{
		{
			name: "Valid config",
			configJSON: `{
				"window_width": 1000,
				"window_height": 800,
				"right_to_left": true,
				"view_mode": "Facing",
				"zoom_mode": "fit_width"
			}`,
			expectedWidth:  1000,
			expectedHeight: 800,
			expectedRTL:    true,
			expectedView:   "facing",
			expectedZoom:   "fit_width",
			expectedStatus: "OK",
		},
		{
			name:           "Width too small",
			configJSON:     `{"window_width": 200, "window_height": 600}`,
			expectedWidth:  defaultWidth,
			expectedHeight: 600,
			expectedView:   "single",
			expectedZoom:   "fit_height",
			expectedStatus: "OK",
		},
		{
			name:           "Height too small",
			configJSON:     `{"window_width": 800, "window_height": 100}`,
			expectedWidth:  800,
			expectedHeight: defaultHeight,
			expectedView:   "single",
			expectedZoom:   "fit_height",
			expectedStatus: "OK",
		},
		{
			name:           "Unknown view and zoom modes",
			configJSON:     `{"view_mode": "triple", "zoom_mode": "fit_page"}`,
			expectedWidth:  defaultWidth,
			expectedHeight: defaultHeight,
			expectedView:   "single",
			expectedZoom:   "fit_height",
			expectedStatus: "Warning",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := loadConfigFromPath(writeConfig(t, tt.configJSON))
			config := result.Config

			if config.WindowWidth != tt.expectedWidth {
				t.Errorf("Expected width %d, got %d", tt.expectedWidth, config.WindowWidth)
			}
			if config.WindowHeight != tt.expectedHeight {
				t.Errorf("Expected height %d, got %d", tt.expectedHeight, config.WindowHeight)
			}
			if config.RightToLeft != tt.expectedRTL {
				t.Errorf("Expected RTL %v, got %v", tt.expectedRTL, config.RightToLeft)
			}
			if config.ViewMode != tt.expectedView {
				t.Errorf("Expected view mode %q, got %q", tt.expectedView, config.ViewMode)
			}
			if config.ZoomMode != tt.expectedZoom {
				t.Errorf("Expected zoom mode %q, got %q", tt.expectedZoom, config.ZoomMode)
			}
			if result.Status != tt.expectedStatus {
				t.Errorf("Expected status %q, got %q", tt.expectedStatus, result.Status)
			}
		})
	}
}

func TestConfigClampsRanges(t *testing.T) {
	result := loadConfigFromPath(writeConfig(t, `{
		"min_zoom": 0,
		"max_zoom": 100,
		"zoom_level": 50,
		"zoom_step": 3,
		"page_gap": -1,
		"cache_size": 100,
		"preload_count": 0,
		"render_workers": 40,
		"resize_debounce_ms": 9000,
		"sort_method": 7,
		"help_font_size": 8,
		"mouse_settings": {"double_click_time": 5}
	}`))
	c := result.Config

	assert.Equal(t, viewport.DefaultMinZoom, c.MinZoom)
	assert.Equal(t, viewport.DefaultMaxZoom, c.MaxZoom)
	assert.Equal(t, 1.0, c.ZoomLevel)
	assert.Equal(t, viewport.DefaultZoomStep, c.ZoomStep)
	assert.Equal(t, 10.0, c.PageGap)
	assert.Equal(t, 64, c.CacheSize)
	assert.Equal(t, 4, c.PreloadCount)
	assert.Equal(t, 16, c.RenderWorkers)
	assert.Equal(t, 150, c.ResizeDebounceMs)
	assert.Equal(t, imagedoc.SortNatural, c.SortMethod)
	assert.Equal(t, 24.0, c.HelpFontSize)

	// Fields absent from the nested object keep their defaults
	assert.Equal(t, 300, c.MouseSettings.DoubleClickTime)
	assert.True(t, c.MouseSettings.EnableMouse)
	assert.Equal(t, 5, c.MouseSettings.DragThreshold)
}

func TestLoadConfigDefaults(t *testing.T) {
	result := loadConfigFromPath(filepath.Join(t.TempDir(), "missing.json"))

	assert.Equal(t, "Default", result.Status)
	assert.False(t, result.HasError)
	assert.Equal(t, defaultWidth, result.Config.WindowWidth)
	assert.Equal(t, defaultHeight, result.Config.WindowHeight)
	assert.Equal(t, GetDefaultKeybindings(), result.Config.Keybindings)
	assert.Equal(t, GetDefaultMousebindings(), result.Config.Mousebindings)
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	result := loadConfigFromPath(writeConfig(t, `{"window_width": `))

	assert.Equal(t, "Error", result.Status)
	assert.True(t, result.HasError)
	assert.NotEmpty(t, result.Warnings)
	assert.Equal(t, defaultWidth, result.Config.WindowWidth)
}

func TestLoadConfigBindings(t *testing.T) {
	t.Run("partial keybindings are completed", func(t *testing.T) {
		result := loadConfigFromPath(writeConfig(t, `{"keybindings": {"next": ["KeyJ"]}}`))
		assert.Equal(t, "OK", result.Status)
		assert.Equal(t, []string{"KeyJ"}, result.Config.Keybindings["next"])
		assert.Equal(t, GetDefaultKeybindings()["previous"], result.Config.Keybindings["previous"])
	})

	t.Run("conflicting keybindings fall back to defaults", func(t *testing.T) {
		// KeyQ is already bound to exit
		result := loadConfigFromPath(writeConfig(t, `{"keybindings": {"next": ["KeyQ"]}}`))
		assert.Equal(t, "Warning", result.Status)
		assert.Equal(t, GetDefaultKeybindings(), result.Config.Keybindings)
	})

	t.Run("unknown key falls back to defaults", func(t *testing.T) {
		result := loadConfigFromPath(writeConfig(t, `{"keybindings": {"next": ["KeyNope"]}}`))
		assert.Equal(t, "Warning", result.Status)
		assert.Equal(t, GetDefaultKeybindings(), result.Config.Keybindings)
	})

	t.Run("invalid mouse binding falls back to defaults", func(t *testing.T) {
		result := loadConfigFromPath(writeConfig(t, `{"mousebindings": {"next": ["TripleClick"]}}`))
		assert.Equal(t, "Warning", result.Status)
		assert.Equal(t, GetDefaultMousebindings(), result.Config.Mousebindings)
	})
}

func TestSaveConfigRoundTrip(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), ".nvdoc.json")
	config := defaultConfig()
	config.WindowWidth = 1234
	config.ViewMode = "book"
	saveConfigToPath(config, configPath)

	result := loadConfigFromPath(configPath)
	assert.Equal(t, "OK", result.Status)
	assert.Equal(t, 1234, result.Config.WindowWidth)
	assert.Equal(t, "book", result.Config.ViewMode)

	// Too small windows are not written
	small := defaultConfig()
	small.WindowWidth = 10
	other := filepath.Join(t.TempDir(), "small.json")
	saveConfigToPath(small, other)
	_, err := os.Stat(other)
	assert.True(t, os.IsNotExist(err))
}

func TestViewportConfigMapping(t *testing.T) {
	config := defaultConfig()
	config.ViewMode = "book"
	config.ZoomMode = "fixed"
	config.ZoomLevel = 1.5
	config.PageGap = 6
	config.RowGap = 8

	vc := config.viewportConfig()
	require.NoError(t, vc.Validate())
	assert.Equal(t, viewport.BookView, vc.InitialViewType)
	assert.Equal(t, viewport.Fixed, vc.InitialZoomType)
	assert.Equal(t, 1.5, vc.InitialZoomLevel)
	assert.Equal(t, 6.0, vc.HorizontalMargin)
	assert.Equal(t, 8.0, vc.VerticalMargin)
	assert.Equal(t, scrollbarSize, vc.VerticalScrollbarWidth)
	assert.Equal(t, 150*time.Millisecond, vc.ResizeDebounce)
	assert.Equal(t, 300*time.Millisecond, vc.DoubleClickTime)
	assert.Equal(t, 4, vc.PrefetchCount)

	assert.Equal(t, viewport.SingleRow, vc.InitialRowDisplay)

	config.PreloadEnabled = false
	config.ContinuousRows = true
	assert.Equal(t, 0, config.viewportConfig().PrefetchCount)
	assert.Equal(t, viewport.ContinuousRows, config.viewportConfig().InitialRowDisplay)
}

func TestParseKeyString(t *testing.T) {
	mapping := getKeyMapping()
	tests := []struct {
		in      string
		want    KeyCombination
		wantErr bool
	}{
		{"KeyA", KeyCombination{Key: ebiten.KeyA}, false},
		{"KeyZ", KeyCombination{Key: ebiten.KeyZ}, false},
		{"Key7", KeyCombination{Key: ebiten.Key7}, false},
		{"Numpad3", KeyCombination{Key: ebiten.KeyNumpad3}, false},
		{"Shift+KeyB", KeyCombination{Key: ebiten.KeyB, Mods: Modifiers{Shift: true}}, false},
		{"ctrl+alt+Space", KeyCombination{Key: ebiten.KeySpace, Mods: Modifiers{Ctrl: true, Alt: true}}, false},
		{"", KeyCombination{}, true},
		{"KeyNope", KeyCombination{}, true},
		{"Meta+KeyA", KeyCombination{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseKeyString(tt.in, mapping)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultBindingsAreValid(t *testing.T) {
	assert.NoError(t, validateKeybindings(GetDefaultKeybindings()))
	assert.NoError(t, validateMousebindings(GetDefaultMousebindings()))

	for _, def := range actionDefinitions {
		assert.NotEmpty(t, def.Description, def.Name)
		assert.True(t, globalActionExecutor.ExecuteAction(def.Name, &fakeActions{total: 3}, &fakeActions{}), def.Name)
	}
}

func TestParseMouseString(t *testing.T) {
	tests := []struct {
		in      string
		want    MouseCombination
		wantErr bool
	}{
		{"LeftClick", MouseCombination{Button: viewport.ButtonLeft}, false},
		{"Forward", MouseCombination{Button: viewport.ButtonForward}, false},
		{"DoubleLeftClick", MouseCombination{Button: viewport.ButtonLeft, IsDoubleClick: true}, false},
		{"Ctrl+WheelUp", MouseCombination{IsWheel: true, WheelDeltaY: 1, Mods: Modifiers{Ctrl: true}}, false},
		{"WheelLeft", MouseCombination{IsWheel: true, WheelDeltaX: -1}, false},
		{"Shift+MiddleClick", MouseCombination{Button: viewport.ButtonMiddle, Mods: Modifiers{Shift: true}}, false},
		{"WheelSideways", MouseCombination{}, true},
		{"DoubleWheelUp", MouseCombination{}, true},
		{"Hyper+LeftClick", MouseCombination{}, true},
		{"", MouseCombination{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseMouseString(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateMouseSettings(t *testing.T) {
	got := validateMouseSettings(MouseSettings{
		WheelSensitivity: -1,
		DoubleClickTime:  5000,
		DragThreshold:    -3,
		EnableMouse:      true,
	})
	assert.Equal(t, 1.0, got.WheelSensitivity)
	assert.Equal(t, 300, got.DoubleClickTime)
	assert.Equal(t, 5, got.DragThreshold)
	assert.True(t, got.EnableMouse)

	ok := MouseSettings{WheelSensitivity: 2, DoubleClickTime: 250, DragThreshold: 0}
	assert.Equal(t, ok, validateMouseSettings(ok))
}

// fakeKeys is a scripted keyboard
type fakeKeys struct {
	just    map[ebiten.Key]bool
	pressed map[ebiten.Key]bool
}

func keysJustPressed(keys ...ebiten.Key) *fakeKeys {
	f := &fakeKeys{just: map[ebiten.Key]bool{}, pressed: map[ebiten.Key]bool{}}
	for _, k := range keys {
		f.just[k] = true
		f.pressed[k] = true
	}
	return f
}

func (f *fakeKeys) holding(keys ...ebiten.Key) *fakeKeys {
	for _, k := range keys {
		f.pressed[k] = true
	}
	return f
}

func (f *fakeKeys) JustPressed(key ebiten.Key) bool { return f.just[key] }
func (f *fakeKeys) Pressed(key ebiten.Key) bool     { return f.pressed[key] }

func TestKeybindingManagerCheckAction(t *testing.T) {
	km := NewKeybindingManager(GetDefaultKeybindings())

	plainB := keysJustPressed(ebiten.KeyB)
	assert.True(t, km.CheckAction("toggle_row_mode", plainB))
	assert.False(t, km.CheckAction("toggle_reading_direction", plainB))

	shiftB := keysJustPressed(ebiten.KeyB).holding(ebiten.KeyShift)
	assert.False(t, km.CheckAction("toggle_row_mode", shiftB), "modifiers must match exactly")
	assert.True(t, km.CheckAction("toggle_reading_direction", shiftB))

	shiftEqual := keysJustPressed(ebiten.KeyEqual).holding(ebiten.KeyShift)
	assert.True(t, km.CheckAction("zoom_in", shiftEqual))

	assert.False(t, km.CheckAction("no_such_action", plainB))
}

func TestKeybindingManagerSkipsInvalid(t *testing.T) {
	km := NewKeybindingManager(map[string][]string{"next": {"Bogus", "KeyN"}})
	assert.True(t, km.CheckAction("next", keysJustPressed(ebiten.KeyN)))
	assert.Equal(t, []string{"Bogus", "KeyN"}, km.GetKeybindings()["next"])
}

func TestMousebindingGestures(t *testing.T) {
	mm := NewMousebindingManager(GetDefaultMousebindings(), GetDefaultMouseSettings())
	click := func(b viewport.Button) viewport.Gesture {
		return viewport.Gesture{Kind: viewport.GestureClick, Button: b}
	}

	tests := []struct {
		name    string
		gesture viewport.Gesture
		mods    Modifiers
		want    string
	}{
		{"left click", click(viewport.ButtonLeft), Modifiers{}, "next"},
		{"right click", click(viewport.ButtonRight), Modifiers{}, "previous"},
		{"back button", click(viewport.ButtonBack), Modifiers{}, "previous"},
		{"ctrl left click", click(viewport.ButtonLeft), Modifiers{Ctrl: true}, "page_input"},
		{"alt left click", click(viewport.ButtonLeft), Modifiers{Alt: true}, "fit_height"},
		{"middle click", click(viewport.ButtonMiddle), Modifiers{}, "toggle_row_mode"},
		{"shift middle click", click(viewport.ButtonMiddle), Modifiers{Shift: true}, "zoom_reset"},
		{"double click", viewport.Gesture{Kind: viewport.GestureDoubleClick, Button: viewport.ButtonLeft}, Modifiers{}, "fullscreen"},
		{"unbound double click", viewport.Gesture{Kind: viewport.GestureDoubleClick, Button: viewport.ButtonRight}, Modifiers{}, ""},
		{"pan", viewport.Gesture{Kind: viewport.GesturePan, Button: viewport.ButtonLeft}, Modifiers{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := mm.ActionForGesture(tt.gesture, tt.mods)
			assert.Equal(t, tt.want != "", ok)
			assert.Equal(t, tt.want, got)
		})
	}

	mm.UpdateSettings(MouseSettings{EnableMouse: false})
	_, ok := mm.ActionForGesture(click(viewport.ButtonLeft), Modifiers{})
	assert.False(t, ok)
}

func TestMousebindingWheel(t *testing.T) {
	mm := NewMousebindingManager(GetDefaultMousebindings(), GetDefaultMouseSettings())

	tests := []struct {
		name   string
		dx, dy float64
		mods   Modifiers
		want   string
	}{
		{"wheel down", 0, -1, Modifiers{}, "next"},
		{"wheel up", 0, 1, Modifiers{}, "previous"},
		{"ctrl wheel up", 0, 1, Modifiers{Ctrl: true}, "zoom_in"},
		{"ctrl wheel down", 0, -0.2, Modifiers{Ctrl: true}, "zoom_out"},
		{"shift wheel up", 0, 1, Modifiers{Shift: true}, "pan_left"},
		{"shift wheel down", 0, -1, Modifiers{Shift: true}, "pan_right"},
		{"no movement", 0, 0, Modifiers{}, ""},
		{"unbound horizontal", 1, 0, Modifiers{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := mm.ActionForWheel(tt.dx, tt.dy, tt.mods)
			assert.Equal(t, tt.want, got)
		})
	}

	inverted := GetDefaultMouseSettings()
	inverted.WheelInverted = true
	mm.UpdateSettings(inverted)
	got, _ := mm.ActionForWheel(0, 1, Modifiers{})
	assert.Equal(t, "next", got)
}

// fakeActions records the InputActions calls it receives
type fakeActions struct {
	calls []string
	total int

	pageMode bool
	pageBuf  string
	pwMode   bool
	pwBuf    string
	jumpedTo int
}

func (f *fakeActions) record(name string) { f.calls = append(f.calls, name) }

func (f *fakeActions) Exit()                   { f.record("Exit") }
func (f *fakeActions) ToggleHelp()             { f.record("ToggleHelp") }
func (f *fakeActions) ToggleInfo()             { f.record("ToggleInfo") }
func (f *fakeActions) ToggleFullscreen()       { f.record("ToggleFullscreen") }
func (f *fakeActions) EnterPageInputMode()     { f.record("EnterPageInputMode"); f.pageMode = true }
func (f *fakeActions) ExitPageInputMode()      { f.record("ExitPageInputMode"); f.pageMode = false }
func (f *fakeActions) ProcessPageInput()       { f.record("ProcessPageInput") }
func (f *fakeActions) SubmitPassword()         { f.record("SubmitPassword") }
func (f *fakeActions) CancelPassword()         { f.record("CancelPassword") }
func (f *fakeActions) ToggleReadingDirection() { f.record("ToggleReadingDirection") }
func (f *fakeActions) CycleSortMethod()        { f.record("CycleSortMethod") }
func (f *fakeActions) Reload()                 { f.record("Reload") }
func (f *fakeActions) NavigateNext()           { f.record("NavigateNext") }
func (f *fakeActions) NavigatePrevious()       { f.record("NavigatePrevious") }
func (f *fakeActions) ToggleRowMode()          { f.record("ToggleRowMode") }
func (f *fakeActions) CycleViewType()          { f.record("CycleViewType") }
func (f *fakeActions) RotateLeft()             { f.record("RotateLeft") }
func (f *fakeActions) RotateRight()            { f.record("RotateRight") }
func (f *fakeActions) ZoomIn()                 { f.record("ZoomIn") }
func (f *fakeActions) ZoomOut()                { f.record("ZoomOut") }
func (f *fakeActions) ZoomReset()              { f.record("ZoomReset") }
func (f *fakeActions) FitWidth()               { f.record("FitWidth") }
func (f *fakeActions) FitHeight()              { f.record("FitHeight") }
func (f *fakeActions) PanUp()                  { f.record("PanUp") }
func (f *fakeActions) PanDown()                { f.record("PanDown") }
func (f *fakeActions) PanLeft()                { f.record("PanLeft") }
func (f *fakeActions) PanRight()               { f.record("PanRight") }
func (f *fakeActions) GetTotalPagesCount() int { return f.total }
func (f *fakeActions) IsInPageInputMode() bool { return f.pageMode }
func (f *fakeActions) GetPageInputBuffer() string {
	return f.pageBuf
}
func (f *fakeActions) IsInPasswordMode() bool    { return f.pwMode }
func (f *fakeActions) GetPasswordBuffer() string { return f.pwBuf }

func (f *fakeActions) UpdatePageInputBuffer(buffer string) {
	f.record("UpdatePageInputBuffer:" + buffer)
	f.pageBuf = buffer
}

func (f *fakeActions) UpdatePasswordBuffer(buffer string) {
	f.record("UpdatePasswordBuffer:" + buffer)
	f.pwBuf = buffer
}

func (f *fakeActions) JumpToPage(page int) {
	f.record("JumpToPage")
	f.jumpedTo = page
}

func (f *fakeActions) ShowOverlayMessage(message string) { f.record("ShowOverlayMessage") }

func TestActionExecutor(t *testing.T) {
	tests := []struct {
		action string
		want   string
	}{
		{"exit", "Exit"},
		{"next", "NavigateNext"},
		{"previous", "NavigatePrevious"},
		{"toggle_row_mode", "ToggleRowMode"},
		{"cycle_view", "CycleViewType"},
		{"rotate_left", "RotateLeft"},
		{"zoom_reset", "ZoomReset"},
		{"fit_width", "FitWidth"},
		{"pan_down", "PanDown"},
		{"cycle_sort", "CycleSortMethod"},
		{"reload", "Reload"},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			fa := &fakeActions{total: 5}
			assert.True(t, globalActionExecutor.ExecuteAction(tt.action, fa, fa))
			assert.Equal(t, []string{tt.want}, fa.calls)
		})
	}

	t.Run("jump_last uses the page count", func(t *testing.T) {
		fa := &fakeActions{total: 42}
		globalActionExecutor.ExecuteAction("jump_last", fa, fa)
		assert.Equal(t, 42, fa.jumpedTo)

		empty := &fakeActions{}
		globalActionExecutor.ExecuteAction("jump_last", empty, empty)
		assert.Empty(t, empty.calls)
	})

	t.Run("page_input is ignored while already entering a page", func(t *testing.T) {
		fa := &fakeActions{total: 5, pageMode: true}
		globalActionExecutor.ExecuteAction("page_input", fa, fa)
		assert.Empty(t, fa.calls)
	})

	t.Run("unknown action", func(t *testing.T) {
		fa := &fakeActions{}
		assert.False(t, globalActionExecutor.ExecuteAction("flip_vertical", fa, fa))
	})
}

func TestInputHandlerActions(t *testing.T) {
	fa := &fakeActions{total: 10}
	h := NewInputHandler(fa, fa, NewKeybindingManager(GetDefaultKeybindings()))

	assert.True(t, h.HandleInput(keysJustPressed(ebiten.KeyN), nil))
	assert.Equal(t, []string{"NavigateNext"}, fa.calls)

	assert.False(t, h.HandleInput(keysJustPressed(), nil))
}

func TestInputHandlerWithoutDocument(t *testing.T) {
	fa := &fakeActions{}
	h := NewInputHandler(fa, fa, NewKeybindingManager(GetDefaultKeybindings()))

	assert.False(t, h.HandleInput(keysJustPressed(ebiten.KeyN), nil))
	assert.True(t, h.HandleInput(keysJustPressed(ebiten.KeyQ), nil))
	assert.Equal(t, []string{"Exit"}, fa.calls)
}

func TestInputHandlerPageInput(t *testing.T) {
	fa := &fakeActions{total: 100}
	h := NewInputHandler(fa, fa, NewKeybindingManager(GetDefaultKeybindings()))

	h.HandleInput(keysJustPressed(ebiten.KeyG), nil)
	require.True(t, fa.pageMode)

	h.HandleInput(keysJustPressed(ebiten.Key4), nil)
	h.HandleInput(keysJustPressed(ebiten.KeyNumpad2), nil)
	assert.Equal(t, "42", fa.pageBuf)

	h.HandleInput(keysJustPressed(ebiten.KeyBackspace), nil)
	assert.Equal(t, "4", fa.pageBuf)

	// Navigation keys are swallowed while the prompt is open
	fa.calls = nil
	assert.False(t, h.HandleInput(keysJustPressed(ebiten.KeyN), nil))
	assert.Empty(t, fa.calls)

	h.HandleInput(keysJustPressed(ebiten.KeyEnter), nil)
	assert.Equal(t, []string{"ProcessPageInput", "ExitPageInputMode"}, fa.calls)

	// Escape cancels the prompt instead of quitting
	fa.calls = nil
	fa.pageMode = true
	h.HandleInput(keysJustPressed(ebiten.KeyEscape), nil)
	assert.Equal(t, []string{"ExitPageInputMode"}, fa.calls)
}

func TestInputHandlerPassword(t *testing.T) {
	fa := &fakeActions{pwMode: true}
	h := NewInputHandler(fa, fa, NewKeybindingManager(GetDefaultKeybindings()))

	assert.True(t, h.HandleInput(keysJustPressed(), []rune("pä")))
	assert.Equal(t, "pä", fa.pwBuf)

	assert.False(t, h.HandleInput(keysJustPressed(), []rune{'\n'}), "control characters are ignored")

	h.HandleInput(keysJustPressed(ebiten.KeyBackspace), nil)
	assert.Equal(t, "p", fa.pwBuf)

	// Q types into the prompt rather than quitting
	fa.calls = nil
	h.HandleInput(keysJustPressed(ebiten.KeyQ), []rune("q"))
	assert.Equal(t, []string{"UpdatePasswordBuffer:pq"}, fa.calls)

	fa.calls = nil
	h.HandleInput(keysJustPressed(ebiten.KeyEnter), nil)
	assert.Equal(t, []string{"SubmitPassword"}, fa.calls)

	fa.calls = nil
	h.HandleInput(keysJustPressed(ebiten.KeyEscape), nil)
	assert.Equal(t, []string{"CancelPassword"}, fa.calls)
}

func TestPlacePages(t *testing.T) {
	t.Run("single page is centred", func(t *testing.T) {
		geom := rowGeometry{
			Indices: []int{0},
			Sizes:   []viewport.Size{{Width: 100, Height: 200}},
			Bound:   viewport.RowBound{Size: viewport.Size{Width: 100, Height: 200}, VerticalOffset: 10},
		}
		got := placePages(geom, 1, viewport.Size{Width: 400, Height: 400}, viewport.Size{}, viewport.Point{}, false)
		assert.Equal(t, []pagePlacement{{Index: 0, rect: rect{X: 150, Y: 100, W: 100, H: 200}}}, got)
	})

	facing := rowGeometry{
		Indices: []int{3, 4},
		Sizes:   []viewport.Size{{Width: 100, Height: 200}, {Width: 50, Height: 100}},
		Bound:   viewport.RowBound{Size: viewport.Size{Width: 150, Height: 200}, HorizontalOffset: 10},
	}
	view := viewport.Size{Width: 1000, Height: 1000}

	t.Run("facing pages keep an unscaled gap", func(t *testing.T) {
		got := placePages(facing, 2, view, viewport.Size{}, viewport.Point{}, false)
		assert.Equal(t, []pagePlacement{
			{Index: 3, rect: rect{X: 345, Y: 300, W: 200, H: 400}},
			{Index: 4, rect: rect{X: 555, Y: 400, W: 100, H: 200}},
		}, got)
	})

	t.Run("right to left puts the first page on the right", func(t *testing.T) {
		got := placePages(facing, 2, view, viewport.Size{}, viewport.Point{}, true)
		assert.Equal(t, []pagePlacement{
			{Index: 4, rect: rect{X: 345, Y: 400, W: 100, H: 200}},
			{Index: 3, rect: rect{X: 455, Y: 300, W: 200, H: 400}},
		}, got)
	})

	t.Run("overflowing row follows the scroll offset", func(t *testing.T) {
		geom := rowGeometry{
			Indices: []int{0},
			Sizes:   []viewport.Size{{Width: 100, Height: 200}},
			Bound:   viewport.RowBound{Size: viewport.Size{Width: 100, Height: 200}},
		}
		got := placePages(geom, 4, viewport.Size{Width: 300, Height: 300}, viewport.Size{}, viewport.Point{X: 50, Y: 100}, false)
		assert.Equal(t, []pagePlacement{{Index: 0, rect: rect{X: -50, Y: -100, W: 400, H: 800}}}, got)
	})

	t.Run("stacked rows sit at their tops", func(t *testing.T) {
		bound := viewport.RowBound{Size: viewport.Size{Width: 100, Height: 200}, VerticalOffset: 10}
		narrow := viewport.RowBound{Size: viewport.Size{Width: 50, Height: 200}, VerticalOffset: 10}
		content := viewport.Size{Width: 100, Height: 420}
		view := viewport.Size{Width: 400, Height: 300}
		scroll := viewport.Point{Y: 100}

		first := placePages(rowGeometry{Indices: []int{0}, Sizes: []viewport.Size{bound.Size}, Bound: bound}, 1, view, content, scroll, false)
		second := placePages(rowGeometry{Indices: []int{1}, Sizes: []viewport.Size{narrow.Size}, Bound: narrow, Top: 210}, 1, view, content, scroll, false)
		assert.Equal(t, []pagePlacement{{Index: 0, rect: rect{X: 150, Y: -95, W: 100, H: 200}}}, first)
		assert.Equal(t, []pagePlacement{{Index: 1, rect: rect{X: 175, Y: 115, W: 50, H: 200}}}, second, "narrow row centred in the stack")
	})

	t.Run("empty row", func(t *testing.T) {
		assert.Nil(t, placePages(rowGeometry{}, 1, view, viewport.Size{}, viewport.Point{}, false))
	})
}

func TestScrollbarRects(t *testing.T) {
	view := viewport.Size{Width: 300, Height: 300}
	content := viewport.Size{Width: 400, Height: 800}
	extent := viewport.Point{X: 100, Y: 500}
	l := scrollbarRects(view, content, viewport.Point{X: 50, Y: 100}, extent)

	require.True(t, l.Vertical.Visible)
	require.True(t, l.Horizontal.Visible)
	assert.Equal(t, rect{X: 288, Y: 0, W: 12, H: 288}, l.Vertical.Track)
	assert.Equal(t, rect{X: 288, Y: 36, W: 12, H: 108}, l.Vertical.Thumb)
	assert.Equal(t, rect{X: 0, Y: 288, W: 288, H: 12}, l.Horizontal.Track)
	assert.Equal(t, rect{X: 36, Y: 288, W: 216, H: 12}, l.Horizontal.Thumb)

	assert.Equal(t, 0.0, l.verticalOffsetAt(0, extent.Y))
	assert.Equal(t, 250.0, l.verticalOffsetAt(144, extent.Y))
	assert.Equal(t, 500.0, l.verticalOffsetAt(1000, extent.Y))

	none := scrollbarRects(view, viewport.Size{Width: 200, Height: 200}, viewport.Point{}, viewport.Point{})
	assert.False(t, none.Vertical.Visible)
	assert.False(t, none.Horizontal.Visible)
	assert.Equal(t, 0.0, none.horizontalOffsetAt(100, 0))
}

func TestHitTest(t *testing.T) {
	l := scrollbarRects(
		viewport.Size{Width: 300, Height: 300},
		viewport.Size{Width: 400, Height: 800},
		viewport.Point{X: 50, Y: 100},
		viewport.Point{X: 100, Y: 500},
	)

	tests := []struct {
		name string
		x, y float64
		want *hitElement
	}{
		{"content", 100, 100, contentElement},
		{"vertical thumb", 290, 50, vThumbElement},
		{"vertical track", 290, 200, vScrollbarElement},
		{"horizontal thumb", 100, 290, hThumbElement},
		{"horizontal track", 270, 290, hScrollbarElement},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Same(t, tt.want, hitTest(l, tt.x, tt.y))
		})
	}

	// The tree must satisfy the drag tracker's ancestry walk
	assert.Nil(t, windowElement.Parent())
	assert.True(t, vThumbElement.Parent().IsScrollbar())
	assert.False(t, contentElement.Parent().IsScrollbar())
}

func TestPointerSourceThreshold(t *testing.T) {
	s := newPointerSource(5, func(x, y float64) viewport.HitTarget { return contentElement })
	none := func(ebiten.MouseButton) bool { return false }
	left := func(b ebiten.MouseButton) bool { return b == ebiten.MouseButtonLeft }
	t0 := time.Now()

	s.sample(t0, 10, 10, left, none)
	s.sample(t0.Add(16*time.Millisecond), 12, 11, none, none) // within threshold
	s.sample(t0.Add(32*time.Millisecond), 20, 10, none, none)
	s.sample(t0.Add(48*time.Millisecond), 20, 10, none, left)

	var kinds []viewport.PointerKind
	for len(s.events) > 0 {
		ev := <-s.events
		kinds = append(kinds, ev.Kind)
		if ev.Kind == viewport.PointerDown {
			assert.Equal(t, viewport.HitTarget(contentElement), ev.Target)
		}
	}
	assert.Equal(t, []viewport.PointerKind{viewport.PointerDown, viewport.PointerMove, viewport.PointerUp}, kinds)
	assert.True(t, s.Dragged())

	// A still click clears the flag
	s.sample(t0.Add(time.Second), 20, 10, left, none)
	s.sample(t0.Add(time.Second+16*time.Millisecond), 20, 10, none, left)
	assert.False(t, s.Dragged())
	assert.Len(t, s.events, 2)
}

func TestPointerSourceKeepsReleaseWhenFull(t *testing.T) {
	s := newPointerSource(0, func(x, y float64) viewport.HitTarget { return contentElement })
	none := func(ebiten.MouseButton) bool { return false }
	left := func(b ebiten.MouseButton) bool { return b == ebiten.MouseButtonLeft }
	t0 := time.Now()

	s.sample(t0, 0, 0, left, none)
	for x := 1; len(s.events) < cap(s.events); x++ {
		s.sample(t0, float64(x), 0, none, none)
	}
	s.sample(t0, 500, 0, none, none) // queue full: the move is dropped
	s.sample(t0, 500, 0, none, left) // the release is held back
	assert.Equal(t, 1, s.overflow)
	require.Len(t, s.backlog, 1)

	var last viewport.PointerEvent
	for len(s.events) > 0 {
		last = <-s.events
	}
	assert.Equal(t, viewport.PointerMove, last.Kind)

	assert.True(t, s.flush())
	require.Len(t, s.events, 1)
	up := <-s.events
	assert.Equal(t, viewport.PointerUp, up.Kind)
	assert.Equal(t, viewport.ButtonLeft, up.Button)
	assert.Equal(t, 500.0, up.X)
	assert.Empty(t, s.backlog)
}

type fakeWheelTarget struct {
	fakeScroller
	mode viewport.RowDisplayMode
}

func (w *fakeWheelTarget) RowDisplayMode() viewport.RowDisplayMode { return w.mode }

func (w *fakeWheelTarget) PanBy(dx, dy float64) {
	p := viewport.Point{X: w.offset.X + dx, Y: w.offset.Y + dy}
	w.offset = viewport.Point{X: max(0, min(p.X, w.extent.X)), Y: max(0, min(p.Y, w.extent.Y))}
}

func TestWheelPan(t *testing.T) {
	t.Run("fitting single row turns the page", func(t *testing.T) {
		w := &fakeWheelTarget{}
		assert.False(t, wheelPan("next", w, 40))
		assert.Equal(t, viewport.Point{}, w.offset)
	})

	t.Run("vertical overflow scrolls", func(t *testing.T) {
		w := &fakeWheelTarget{fakeScroller: fakeScroller{extent: viewport.Point{Y: 100}}}
		assert.True(t, wheelPan("next", w, 40))
		assert.Equal(t, viewport.Point{Y: 40}, w.offset)
		assert.True(t, wheelPan("previous", w, 40))
		assert.Equal(t, viewport.Point{}, w.offset)

		// Already at the top: the wheel goes back a page
		assert.False(t, wheelPan("previous", w, 40))
	})

	t.Run("stacked rows always scroll", func(t *testing.T) {
		w := &fakeWheelTarget{mode: viewport.ContinuousRows}
		assert.True(t, wheelPan("next", w, 40))
	})

	t.Run("other actions are left alone", func(t *testing.T) {
		w := &fakeWheelTarget{fakeScroller: fakeScroller{extent: viewport.Point{Y: 100}}}
		assert.False(t, wheelPan("zoom_in", w, 40))
		assert.Equal(t, viewport.Point{}, w.offset)
	})
}

func TestSidewaysAction(t *testing.T) {
	tests := []struct {
		name        string
		left, rtl   bool
		extentX     float64
		want        string
		wantTurning bool
	}{
		{"left goes back", true, false, 0, "previous", true},
		{"right goes forward", false, false, 0, "next", true},
		{"left goes forward right to left", true, true, 0, "next", true},
		{"horizontal overflow pans", true, false, 30, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := sidewaysAction(tt.left, tt.rtl, tt.extentX)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantTurning, ok)
		})
	}
}

func TestPointerSourceDrivesPan(t *testing.T) {
	s := newPointerSource(0, func(x, y float64) viewport.HitTarget { return contentElement })
	sc := &fakeScroller{extent: viewport.Point{X: 100, Y: 100}}
	pc := viewport.NewPointerController(s, sc, 300*time.Millisecond)
	none := func(ebiten.MouseButton) bool { return false }
	left := func(b ebiten.MouseButton) bool { return b == ebiten.MouseButtonLeft }
	t0 := time.Now()

	s.sample(t0, 50, 50, left, none)
	s.sample(t0.Add(16*time.Millisecond), 30, 40, none, none)
	gestures := pc.Drain()

	require.Len(t, gestures, 1)
	assert.Equal(t, viewport.GesturePan, gestures[0].Kind)
	assert.Equal(t, viewport.Point{X: 20, Y: 10}, sc.offset)
}

type fakeScroller struct {
	offset viewport.Point
	extent viewport.Point
}

func (s *fakeScroller) ScrollOffset() viewport.Point     { return s.offset }
func (s *fakeScroller) ScrollExtent() viewport.Point     { return s.extent }
func (s *fakeScroller) SetScrollOffset(p viewport.Point) { s.offset = p }

func TestBuildPageNumberString(t *testing.T) {
	assert.Equal(t, "0 / 0", buildPageNumberString(nil, 0))
	assert.Equal(t, "1 / 12", buildPageNumberString([]int{0}, 12))
	assert.Equal(t, "2-3 / 12", buildPageNumberString([]int{1, 2}, 12))
}

func TestRenderStateSnapshotEquals(t *testing.T) {
	now := time.Now()
	base := RenderStateSnapshot{Revision: 3, WindowWidth: 800, WindowHeight: 600}

	same := base
	assert.True(t, base.Equals(&same, now))
	assert.False(t, base.Equals(nil, now))

	changed := base
	changed.Revision = 4
	assert.False(t, base.Equals(&changed, now))

	resized := base
	resized.WindowWidth = 1024
	assert.False(t, base.Equals(&resized, now))

	// An overlay that expires between frames forces a redraw
	active := base
	active.OverlayMessage = "Sort: Natural"
	active.OverlayMessageTime = now.Add(-time.Second)
	expired := active
	assert.True(t, active.Equals(&expired, now))
	assert.False(t, active.Equals(&base, now))
	assert.True(t, active.Equals(&expired, now.Add(5*time.Second)))
}

func TestSortMethodNames(t *testing.T) {
	assert.Equal(t, "Natural", getSortMethodName(sortMethodNames["natural"]))
	assert.Equal(t, "Simple", getSortMethodName(sortMethodNames["simple"]))
	assert.Equal(t, "Entry Order", getSortMethodName(sortMethodNames["entry"]))
}
