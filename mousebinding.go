package main

import (
	"fmt"
	"strings"

	"nvdoc/viewport"
)

// MouseSettings contains mouse-specific configuration
type MouseSettings struct {
	WheelSensitivity float64 `json:"wheel_sensitivity"`
	DoubleClickTime  int     `json:"double_click_time"` // milliseconds
	DragThreshold    int     `json:"drag_threshold"`    // pixels
	EnableMouse      bool    `json:"enable_mouse"`
	WheelInverted    bool    `json:"wheel_inverted"`
	EnableDragPan    bool    `json:"enable_drag_pan"` // Enable drag to pan
}

// GetDefaultMouseSettings returns the default mouse settings
func GetDefaultMouseSettings() MouseSettings {
	return MouseSettings{
		WheelSensitivity: 1.0,
		DoubleClickTime:  300, // milliseconds
		DragThreshold:    5,   // pixels
		EnableMouse:      true,
		WheelInverted:    false,
		EnableDragPan:    true,
	}
}

// validateMouseSettings clamps out-of-range mouse settings to defaults
func validateMouseSettings(s MouseSettings) MouseSettings {
	defaults := GetDefaultMouseSettings()
	if s.WheelSensitivity <= 0 || s.WheelSensitivity > 10 {
		s.WheelSensitivity = defaults.WheelSensitivity
	}
	if s.DoubleClickTime < 100 || s.DoubleClickTime > 1000 {
		s.DoubleClickTime = defaults.DoubleClickTime
	}
	if s.DragThreshold < 0 || s.DragThreshold > 50 {
		s.DragThreshold = defaults.DragThreshold
	}
	return s
}

// getMouseMapping returns a mapping from string mouse actions to pointer buttons
func getMouseMapping() map[string]viewport.Button {
	return map[string]viewport.Button{
		"LeftClick":   viewport.ButtonLeft,
		"RightClick":  viewport.ButtonRight,
		"MiddleClick": viewport.ButtonMiddle,
		"Back":        viewport.ButtonBack,    // side button
		"Forward":     viewport.ButtonForward, // side button
	}
}

// MouseCombination represents a mouse action with optional modifiers
type MouseCombination struct {
	Button        viewport.Button
	IsWheel       bool
	WheelDeltaX   float64
	WheelDeltaY   float64
	IsDoubleClick bool
	Mods          Modifiers
}

// parseMouseString parses a mouse string like "Shift+LeftClick" or "WheelUp" into a MouseCombination
func parseMouseString(mouseStr string) (MouseCombination, error) {
	if mouseStr == "" {
		return MouseCombination{}, fmt.Errorf("empty mouse string")
	}
	parts := strings.Split(mouseStr, "+")
	var combination MouseCombination

	// Last part is the actual mouse action
	actionName := parts[len(parts)-1]
	mapping := getMouseMapping()

	switch {
	case strings.HasPrefix(actionName, "Wheel"):
		combination.IsWheel = true
		switch actionName {
		case "WheelUp":
			combination.WheelDeltaY = 1.0
		case "WheelDown":
			combination.WheelDeltaY = -1.0
		case "WheelLeft":
			combination.WheelDeltaX = -1.0
		case "WheelRight":
			combination.WheelDeltaX = 1.0
		default:
			return MouseCombination{}, fmt.Errorf("unknown wheel action: %s", actionName)
		}
	case strings.HasPrefix(actionName, "Double"):
		button, exists := mapping[strings.TrimPrefix(actionName, "Double")]
		if !exists {
			return MouseCombination{}, fmt.Errorf("unknown mouse action: %s", actionName)
		}
		combination.IsDoubleClick = true
		combination.Button = button
	default:
		button, exists := mapping[actionName]
		if !exists {
			return MouseCombination{}, fmt.Errorf("unknown mouse action: %s", actionName)
		}
		combination.Button = button
	}

	mods, err := parseModifiers(parts[:len(parts)-1])
	if err != nil {
		return MouseCombination{}, err
	}
	combination.Mods = mods
	return combination, nil
}

// matchesGesture reports whether a click gesture triggers the combination
func (c MouseCombination) matchesGesture(g viewport.Gesture, mods Modifiers) bool {
	if c.IsWheel || c.Mods != mods || c.Button != g.Button {
		return false
	}
	switch g.Kind {
	case viewport.GestureClick:
		return !c.IsDoubleClick
	case viewport.GestureDoubleClick:
		return c.IsDoubleClick
	}
	return false
}

// matchesWheel reports whether wheel movement triggers the combination
func (c MouseCombination) matchesWheel(dx, dy float64, mods Modifiers) bool {
	if !c.IsWheel || c.Mods != mods {
		return false
	}
	if c.WheelDeltaX != 0 {
		return (c.WheelDeltaX > 0 && dx > 0) || (c.WheelDeltaX < 0 && dx < 0)
	}
	return (c.WheelDeltaY > 0 && dy > 0) || (c.WheelDeltaY < 0 && dy < 0)
}

type mouseBinding struct {
	action      string
	combination MouseCombination
}

// MousebindingManager maps pointer gestures and wheel movement to actions
type MousebindingManager struct {
	mousebindings map[string][]string
	compiled      []mouseBinding // in action check order
	settings      MouseSettings
}

// NewMousebindingManager creates a new MousebindingManager
func NewMousebindingManager(mousebindings map[string][]string, settings MouseSettings) *MousebindingManager {
	mm := &MousebindingManager{settings: settings}
	mm.UpdateMousebindings(mousebindings)
	return mm
}

// ActionForGesture returns the action bound to a click or double click
func (mm *MousebindingManager) ActionForGesture(g viewport.Gesture, mods Modifiers) (string, bool) {
	if !mm.settings.EnableMouse || g.Kind == viewport.GesturePan {
		return "", false
	}
	for _, b := range mm.compiled {
		if b.combination.matchesGesture(g, mods) {
			return b.action, true
		}
	}
	return "", false
}

// ActionForWheel returns the action bound to one frame of wheel movement
func (mm *MousebindingManager) ActionForWheel(dx, dy float64, mods Modifiers) (string, bool) {
	if !mm.settings.EnableMouse || (dx == 0 && dy == 0) {
		return "", false
	}

	// Apply sensitivity and inversion
	if mm.settings.WheelInverted {
		dy = -dy
	}
	dx *= mm.settings.WheelSensitivity
	dy *= mm.settings.WheelSensitivity

	for _, b := range mm.compiled {
		if b.combination.matchesWheel(dx, dy, mods) {
			return b.action, true
		}
	}
	return "", false
}

// GetMousebindings returns the current mouse bindings map (for display purposes)
func (mm *MousebindingManager) GetMousebindings() map[string][]string {
	return mm.mousebindings
}

// UpdateMousebindings replaces the mouse bindings map
func (mm *MousebindingManager) UpdateMousebindings(mousebindings map[string][]string) {
	mm.mousebindings = mousebindings
	mm.compiled = mm.compiled[:0]
	for _, action := range actionNames() {
		for _, s := range mousebindings[action] {
			c, err := parseMouseString(s)
			if err != nil {
				debugLog("skipping mouse binding %q for %s: %v", s, action, err)
				continue
			}
			mm.compiled = append(mm.compiled, mouseBinding{action: action, combination: c})
		}
	}
}

// UpdateSettings updates the mouse settings
func (mm *MousebindingManager) UpdateSettings(settings MouseSettings) {
	mm.settings = settings
}

// GetSettings returns the current mouse settings
func (mm *MousebindingManager) GetSettings() MouseSettings {
	return mm.settings
}
