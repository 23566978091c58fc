package main

// ActionExecutor provides centralized action execution logic, shared by
// the keyboard and mouse binding managers
type ActionExecutor struct{}

// NewActionExecutor creates a new ActionExecutor instance
func NewActionExecutor() *ActionExecutor {
	return &ActionExecutor{}
}

// ExecuteAction executes the given action using the InputActions interface.
// It reports whether the action name was known.
func (ae *ActionExecutor) ExecuteAction(action string, inputActions InputActions, inputState InputState) bool {
	switch action {
	case "exit":
		inputActions.Exit()
	case "help":
		inputActions.ToggleHelp()
	case "info":
		inputActions.ToggleInfo()
	case "page_input":
		if !inputState.IsInPageInputMode() {
			inputActions.EnterPageInputMode()
		}

	case "next":
		inputActions.NavigateNext()
	case "previous":
		inputActions.NavigatePrevious()
	case "jump_first":
		inputActions.JumpToPage(1)
	case "jump_last":
		if totalPages := inputActions.GetTotalPagesCount(); totalPages > 0 {
			inputActions.JumpToPage(totalPages)
		}

	case "toggle_row_mode":
		inputActions.ToggleRowMode()
	case "cycle_view":
		inputActions.CycleViewType()
	case "toggle_reading_direction":
		inputActions.ToggleReadingDirection()
	case "rotate_left":
		inputActions.RotateLeft()
	case "rotate_right":
		inputActions.RotateRight()
	case "fullscreen":
		inputActions.ToggleFullscreen()

	case "zoom_in":
		inputActions.ZoomIn()
	case "zoom_out":
		inputActions.ZoomOut()
	case "zoom_reset":
		inputActions.ZoomReset()
	case "fit_width":
		inputActions.FitWidth()
	case "fit_height":
		inputActions.FitHeight()

	case "pan_up":
		inputActions.PanUp()
	case "pan_down":
		inputActions.PanDown()
	case "pan_left":
		inputActions.PanLeft()
	case "pan_right":
		inputActions.PanRight()

	case "cycle_sort":
		inputActions.CycleSortMethod()
	case "reload":
		inputActions.Reload()

	default:
		return false
	}

	return true
}

// globalActionExecutor is the global instance of ActionExecutor used throughout the application
var globalActionExecutor = NewActionExecutor()
