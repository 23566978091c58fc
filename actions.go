package main

// ActionDefinition defines an action with its default keybindings, mouse bindings, and description
type ActionDefinition struct {
	Name         string
	Keys         []string
	MouseActions []string
	Description  string
}

// actionDefinitions contains all action definitions with default keybindings, mouse bindings, and descriptions.
// Input is checked in this order.
var actionDefinitions = []ActionDefinition{
	{"exit", []string{"Escape", "KeyQ"}, []string{}, "Quit application"},
	{"help", []string{"Shift+Slash"}, []string{"Alt+RightClick"}, "Show/hide help"},
	{"info", []string{"KeyI"}, []string{}, "Show/hide info display"},
	{"page_input", []string{"KeyG"}, []string{"Ctrl+LeftClick"}, "Go to page (enter page number)"},

	// Navigation
	{"next", []string{"Space", "KeyN", "PageDown"}, []string{"LeftClick", "WheelDown", "Forward"}, "Next row"},
	{"previous", []string{"Backspace", "KeyP", "PageUp"}, []string{"RightClick", "WheelUp", "Back"}, "Previous row"},
	{"jump_first", []string{"Home", "Shift+Comma"}, []string{}, "Jump to first page"},
	{"jump_last", []string{"End", "Shift+Period"}, []string{}, "Jump to last page"},

	// Layout
	{"toggle_row_mode", []string{"KeyB"}, []string{"MiddleClick"}, "Toggle single row / continuous rows"},
	{"cycle_view", []string{"KeyV"}, []string{}, "Cycle view (Single/Facing/Book)"},
	{"toggle_reading_direction", []string{"Shift+KeyB"}, []string{"Ctrl+MiddleClick"}, "Toggle reading direction (LTR ↔ RTL)"},
	{"rotate_left", []string{"KeyL"}, []string{}, "Rotate left 90 degrees"},
	{"rotate_right", []string{"KeyR"}, []string{}, "Rotate right 90 degrees"},
	{"fullscreen", []string{"Enter"}, []string{"DoubleLeftClick"}, "Toggle fullscreen"},

	// Zoom
	{"zoom_in", []string{"Equal", "Shift+Equal"}, []string{"Ctrl+WheelUp"}, "Zoom in"},
	{"zoom_out", []string{"Minus"}, []string{"Ctrl+WheelDown"}, "Zoom out"},
	{"zoom_reset", []string{"Key0"}, []string{"Shift+MiddleClick"}, "Reset to 100% zoom"},
	{"fit_width", []string{"KeyW"}, []string{}, "Fit row to window width"},
	{"fit_height", []string{"KeyF"}, []string{"Alt+LeftClick"}, "Fit row to window height"},

	// Pan (when the row is larger than the window). Left and right turn the
	// page when nothing overflows sideways.
	{"pan_up", []string{"ArrowUp"}, []string{}, "Pan up"},
	{"pan_down", []string{"ArrowDown"}, []string{}, "Pan down"},
	{"pan_left", []string{"ArrowLeft"}, []string{"Shift+WheelUp"}, "Pan left"},
	{"pan_right", []string{"ArrowRight"}, []string{"Shift+WheelDown"}, "Pan right"},

	// Document
	{"cycle_sort", []string{"Shift+KeyS"}, []string{"Alt+MiddleClick"}, "Cycle page order (Natural/Simple/Entry)"},
	{"reload", []string{"Shift+KeyR"}, []string{}, "Reload document"},
}

// GetActionDescriptions returns a map of action names to their descriptions
func GetActionDescriptions() map[string]string {
	descriptions := make(map[string]string)
	for _, action := range actionDefinitions {
		descriptions[action.Name] = action.Description
	}
	return descriptions
}

// GetDefaultKeybindings returns a map of action names to their default keybindings
func GetDefaultKeybindings() map[string][]string {
	keybindings := make(map[string][]string)
	for _, action := range actionDefinitions {
		keybindings[action.Name] = action.Keys
	}
	return keybindings
}

// GetDefaultMousebindings returns a map of action names to their default mouse bindings
func GetDefaultMousebindings() map[string][]string {
	mousebindings := make(map[string][]string)
	for _, action := range actionDefinitions {
		mousebindings[action.Name] = action.MouseActions
	}
	return mousebindings
}

// actionNames lists the known actions in check order.
func actionNames() []string {
	names := make([]string, len(actionDefinitions))
	for i, def := range actionDefinitions {
		names[i] = def.Name
	}
	return names
}
