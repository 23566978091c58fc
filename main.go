package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"nvdoc/imagedoc"
	"nvdoc/logger"
	"nvdoc/viewport"
)

// debugMode enables verbose logging (-debug or NVDOC_DEBUG=1)
var debugMode bool

func debugLog(format string, args ...any) {
	if debugMode {
		log.Printf("DEBUG: "+format, args...)
	}
}

// logBridge routes library log records to the standard logger
func logBridge(level logger.LogLevel, msg string, keyvals ...any) {
	if level == logger.DebugLevel && !debugMode {
		return
	}
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(keyvals); i += 2 {
		fmt.Fprintf(&b, " %v=%v", keyvals[i], keyvals[i+1])
	}
	if level == logger.ErrorLevel {
		log.Printf("Error: %s", b.String())
		return
	}
	log.Printf("DEBUG: %s", b.String())
}

var sortMethodNames = map[string]int{
	"natural": imagedoc.SortNatural,
	"simple":  imagedoc.SortSimple,
	"entry":   imagedoc.SortEntryOrder,
}

// viewState is everything outside the row bitmaps that changes a frame
type viewState struct {
	loaded   bool
	page     int
	zoom     float64
	zoomType viewport.ZoomType
	rotation viewport.Rotation
	viewType viewport.ViewType
	rows     viewport.RowDisplayMode
	scroll   viewport.Point
	size     viewport.Size
}

// thumbDrag tracks a scroll indicator thumb being dragged
type thumbDrag struct {
	active   bool
	vertical bool
	start    float64 // pointer position along the track at press
	offset   float64 // scroll offset at press
}

type Game struct {
	ctx          context.Context
	config       Config
	configStatus ConfigLoadResult

	backend   *imagedoc.Backend
	model     *viewport.Model
	source    viewport.Source
	hasSource bool
	loadError string

	keybindingManager   *KeybindingManager
	mousebindingManager *MousebindingManager
	inputHandler        *InputHandler
	pointer             *pointerSource
	pointerController   *viewport.PointerController
	renderer            *Renderer
	chars               []rune
	thumb               thumbDrag

	rows     []viewport.Row
	rowDirty bool
	view     viewState
	revision uint64

	showHelp        bool
	showInfo        bool
	pageInputMode   bool
	pageInputBuffer string

	passwordMode    bool
	passwordBuffer  string
	passwordRetry   bool
	pendingPassword string

	overlayMessage     string
	overlayMessageTime time.Time

	fullscreen         bool
	savedWinW          int
	savedWinH          int
	exitRequested      bool
	windowSizeWasSaved bool
}

// NewGame wires the backend, viewport model and input handling, then opens
// path.
func NewGame(configResult ConfigLoadResult, path string) (*Game, error) {
	config := configResult.Config
	g := &Game{
		ctx:          context.Background(),
		config:       config,
		configStatus: configResult,
		backend:      imagedoc.New(config.SortMethod),
		fullscreen:   config.Fullscreen,
	}

	model, err := viewport.NewModel(config.viewportConfig(), g.backend)
	if err != nil {
		return nil, err
	}
	g.model = model
	g.model.Subscribe(g)
	g.model.SetPasswordPrompt(g.promptPassword)

	g.keybindingManager = NewKeybindingManager(config.Keybindings)
	g.mousebindingManager = NewMousebindingManager(config.Mousebindings, config.MouseSettings)
	g.inputHandler = NewInputHandler(g, g, g.keybindingManager)

	threshold := config.MouseSettings.DragThreshold
	if !config.MouseSettings.EnableDragPan || !config.MouseSettings.EnableMouse {
		threshold = 1 << 30
	}
	g.pointer = newPointerSource(threshold, func(x, y float64) viewport.HitTarget {
		return hitTest(g.scrollbars(), x, y)
	})
	g.pointerController = viewport.NewPointerController(g.pointer, g.model,
		time.Duration(config.MouseSettings.DoubleClickTime)*time.Millisecond)
	g.renderer = NewRenderer(g)

	if path != "" {
		g.source = viewport.FileSource(path)
		g.hasSource = true
		g.openDocument()
	}
	return g, nil
}

// openDocument opens g.source, prompting for a password when needed
func (g *Game) openDocument() {
	err := g.model.Open(g.ctx, g.source, "")
	g.revision++
	switch {
	case err == nil:
		g.loadError = ""
	case errors.Is(err, viewport.ErrPasswordRequired) && g.passwordMode:
		// Waiting for the password prompt
		g.loadError = ""
	default:
		g.loadError = describeOpenError(err)
		log.Printf("Warning: Failed to open %s: %v", g.source.Name(), err)
	}
}

func describeOpenError(err error) string {
	switch {
	case errors.Is(err, viewport.ErrSourceNotFound):
		return "File not found"
	case errors.Is(err, viewport.ErrPasswordRequired):
		return "Password required"
	case errors.Is(err, viewport.ErrInvalidPassword):
		return "Invalid password"
	case errors.Is(err, viewport.ErrDecodeFailure):
		return "Cannot read document: " + err.Error()
	}
	return err.Error()
}

// promptPassword answers the model's password requests. A password typed
// into the prompt is handed out once; otherwise the prompt is shown and
// the open is abandoned until the user submits.
func (g *Game) promptPassword(src viewport.Source, retry bool) (string, bool) {
	if !retry && g.pendingPassword != "" {
		pw := g.pendingPassword
		g.pendingPassword = ""
		return pw, true
	}
	g.pendingPassword = ""
	g.passwordMode = true
	g.passwordRetry = retry
	g.passwordBuffer = ""
	return "", false
}

// OnViewportEvent implements viewport.Observer.
func (g *Game) OnViewportEvent(e viewport.Event) {
	g.revision++
	switch e.Kind {
	case viewport.DocumentLoaded:
		g.rowDirty = true
		ebiten.SetWindowTitle(fmt.Sprintf("nvdoc - %s", filepath.Base(e.Source.Name())))
	case viewport.DocumentUnloaded:
		g.rows = nil
	case viewport.PageChanged, viewport.ZoomFactorChanged, viewport.RotationChanged,
		viewport.ViewTypeChanged, viewport.RowDisplayModeChanged:
		g.rowDirty = true
	}
	switch e.Kind {
	case viewport.ZoomModeChanged:
		g.ShowOverlayMessage("Zoom: " + e.ZoomType.String())
	case viewport.ViewTypeChanged:
		g.ShowOverlayMessage("View: " + e.ViewType.String())
	case viewport.RowDisplayModeChanged:
		g.ShowOverlayMessage("Rows: " + e.RowDisplay.String())
	case viewport.RotationChanged:
		g.ShowOverlayMessage("Rotation: " + e.Rotation.String())
	}
	debugLog("viewport event: %s", e.Kind)
}

func (g *Game) currentViewState() viewState {
	return viewState{
		loaded:   g.model.Loaded(),
		page:     g.model.CurrentPage(),
		zoom:     g.model.Zoom(),
		zoomType: g.model.ZoomType(),
		rotation: g.model.Rotation(),
		viewType: g.model.ViewType(),
		rows:     g.model.RowDisplayMode(),
		scroll:   g.model.ScrollOffset(),
		size:     g.model.Viewport(),
	}
}

// refresh bumps the revision when the view moved and picks up the visible
// bitmaps. It never waits for a render: missing pages are queued to the
// cache workers and show a placeholder until Tick hands them over.
func (g *Game) refresh() {
	if v := g.currentViewState(); v != g.view {
		g.view = v
		g.revision++
		// Scrolling can bring other rows into view
		g.rowDirty = true
	}
	if !g.rowDirty || !g.model.Loaded() {
		return
	}
	g.rowDirty = false
	rows, err := g.model.PeekVisibleRows()
	if err != nil {
		log.Printf("Warning: Failed to fetch rows: %v", err)
		return
	}
	g.rows = rows
	g.revision++
}

func (g *Game) scrollbars() scrollbarLayout {
	return scrollbarRects(g.model.Viewport(), g.model.ContentSize(), g.model.ScrollOffset(), g.model.ScrollExtent())
}

func (g *Game) modal() bool {
	return g.pageInputMode || g.passwordMode
}

func (g *Game) Update() error {
	now := time.Now()

	g.pointer.Poll(now)
	g.chars = ebiten.AppendInputChars(g.chars[:0])
	g.inputHandler.HandleInput(ebitenKeys{}, g.chars)

	if g.modal() {
		// Keep the pointer queue from backing up behind the prompt
		g.pointerController.Drain()
		g.thumb.active = false
	} else {
		g.handleScrollbarPointer()
		g.handleMouseGestures()
		g.handleWheel()
	}

	if g.model.Tick(now) {
		g.rowDirty = true
	}
	g.refresh()

	if g.exitRequested {
		g.saveCurrentWindowSize()
		return ebiten.Termination
	}
	return nil
}

// handleScrollbarPointer implements track jumps and thumb dragging. Drag
// panning never starts on a scroll indicator.
func (g *Game) handleScrollbarPointer() {
	cx, cy := ebiten.CursorPosition()
	x, y := float64(cx), float64(cy)
	layout := g.scrollbars()
	extent := g.model.ScrollExtent()
	offset := g.model.ScrollOffset()

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		switch hitTest(layout, x, y) {
		case vScrollbarElement:
			g.model.SetScrollOffset(viewport.Point{X: offset.X, Y: layout.verticalOffsetAt(y, extent.Y)})
		case hScrollbarElement:
			g.model.SetScrollOffset(viewport.Point{X: layout.horizontalOffsetAt(x, extent.X), Y: offset.Y})
		case vThumbElement:
			g.thumb = thumbDrag{active: true, vertical: true, start: y, offset: offset.Y}
		case hThumbElement:
			g.thumb = thumbDrag{active: true, vertical: false, start: x, offset: offset.X}
		}
		return
	}

	if !g.thumb.active {
		return
	}
	if !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		g.thumb.active = false
		return
	}
	if g.thumb.vertical {
		free := layout.Vertical.Track.H - layout.Vertical.Thumb.H
		if free > 0 {
			g.model.SetScrollOffset(viewport.Point{X: offset.X, Y: g.thumb.offset + (y-g.thumb.start)*extent.Y/free})
		}
	} else {
		free := layout.Horizontal.Track.W - layout.Horizontal.Thumb.W
		if free > 0 {
			g.model.SetScrollOffset(viewport.Point{X: g.thumb.offset + (x-g.thumb.start)*extent.X/free, Y: offset.Y})
		}
	}
}

func (g *Game) handleMouseGestures() {
	gestures := g.pointerController.Drain()
	if len(gestures) == 0 {
		return
	}
	mods := currentModifiers(ebitenKeys{})
	layout := g.scrollbars()
	for _, gesture := range gestures {
		if gesture.Kind == viewport.GesturePan {
			continue
		}
		// A press that panned is not a click
		if gesture.Kind == viewport.GestureClick && g.pointer.Dragged() {
			continue
		}
		// Clicks on a scroll indicator belong to the indicator
		if hitTest(layout, gesture.At.X, gesture.At.Y) != contentElement {
			continue
		}
		g.executeMouseAction(g.mousebindingManager.ActionForGesture(gesture, mods))
	}
}

func (g *Game) handleWheel() {
	dx, dy := ebiten.Wheel()
	action, ok := g.mousebindingManager.ActionForWheel(dx, dy, currentModifiers(ebitenKeys{}))
	if ok && g.model.Loaded() {
		step := g.config.PanStep * math.Abs(dy) * g.mousebindingManager.GetSettings().WheelSensitivity
		if wheelPan(action, g.model, step) {
			return
		}
	}
	g.executeMouseAction(action, ok)
}

// wheelTarget is what the wheel needs from the model
type wheelTarget interface {
	RowDisplayMode() viewport.RowDisplayMode
	ScrollExtent() viewport.Point
	ScrollOffset() viewport.Point
	PanBy(dx, dy float64)
}

// wheelPan scrolls by step instead of turning the page when the wheel is
// bound to next or previous and the rows are stacked or the content
// overflows vertically. It reports whether the wheel was used up; a single
// row already scrolled to its end lets the page turn.
func wheelPan(action string, t wheelTarget, step float64) bool {
	var dir float64
	switch action {
	case "next":
		dir = 1
	case "previous":
		dir = -1
	default:
		return false
	}
	continuous := t.RowDisplayMode() == viewport.ContinuousRows
	if !continuous && t.ScrollExtent().Y == 0 {
		return false
	}
	before := t.ScrollOffset()
	t.PanBy(0, dir*step)
	return continuous || t.ScrollOffset() != before
}

// sidewaysAction maps a horizontal pan to a page turn when nothing
// overflows horizontally, honouring the reading direction.
func sidewaysAction(left, rightToLeft bool, extentX float64) (string, bool) {
	if extentX > 0 {
		return "", false
	}
	if left == rightToLeft {
		return "next", true
	}
	return "previous", true
}

func (g *Game) executeMouseAction(action string, ok bool) {
	if !ok {
		return
	}
	if g.GetTotalPagesCount() == 0 && !documentlessActions[action] {
		return
	}
	debugLog("mouse action: %s", action)
	globalActionExecutor.ExecuteAction(action, g, g)
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.renderer.Draw(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.model.Resize(viewport.Size{Width: float64(outsideWidth), Height: float64(outsideHeight)}, time.Now())
	return outsideWidth, outsideHeight
}

func (g *Game) saveCurrentWindowSize() {
	if g.windowSizeWasSaved {
		return
	}
	g.windowSizeWasSaved = true

	if !g.fullscreen {
		w, h := ebiten.WindowSize()
		g.config.WindowWidth = w
		g.config.WindowHeight = h
	} else if g.savedWinW > 0 {
		g.config.WindowWidth, g.config.WindowHeight = g.savedWinW, g.savedWinH
	}
	g.config.Fullscreen = g.fullscreen
	saveConfig(g.config)
}

// InputActions implementation

func (g *Game) Exit() {
	g.exitRequested = true
}

func (g *Game) ToggleHelp() {
	g.showHelp = !g.showHelp
	g.revision++
}

func (g *Game) ToggleInfo() {
	g.showInfo = !g.showInfo
	g.revision++
}

func (g *Game) ToggleFullscreen() {
	if !g.fullscreen {
		g.savedWinW, g.savedWinH = ebiten.WindowSize()
		ebiten.SetFullscreen(true)
	} else {
		ebiten.SetFullscreen(false)
		if g.savedWinW > 0 && g.savedWinH > 0 {
			ebiten.SetWindowSize(g.savedWinW, g.savedWinH)
		}
	}
	g.fullscreen = !g.fullscreen
	g.revision++
}

func (g *Game) EnterPageInputMode() {
	g.pageInputMode = true
	g.pageInputBuffer = ""
	g.revision++
}

func (g *Game) ExitPageInputMode() {
	g.pageInputMode = false
	g.pageInputBuffer = ""
	g.revision++
}

func (g *Game) ProcessPageInput() {
	if g.pageInputBuffer == "" {
		return
	}
	page, err := strconv.Atoi(g.pageInputBuffer)
	if err != nil {
		g.ShowOverlayMessage("Invalid page number")
		return
	}
	g.JumpToPage(page)
}

func (g *Game) UpdatePageInputBuffer(buffer string) {
	g.pageInputBuffer = buffer
	g.revision++
}

func (g *Game) UpdatePasswordBuffer(buffer string) {
	g.passwordBuffer = buffer
	g.revision++
}

func (g *Game) SubmitPassword() {
	if g.passwordBuffer == "" {
		return
	}
	g.pendingPassword = g.passwordBuffer
	g.passwordBuffer = ""
	g.passwordMode = false
	g.passwordRetry = false
	g.openDocument()
}

func (g *Game) CancelPassword() {
	g.passwordMode = false
	g.passwordRetry = false
	g.passwordBuffer = ""
	g.pendingPassword = ""
	if !g.model.Loaded() {
		g.loadError = describeOpenError(viewport.ErrPasswordRequired)
	}
	g.revision++
}

func (g *Game) ToggleReadingDirection() {
	g.config.RightToLeft = !g.config.RightToLeft
	if g.config.RightToLeft {
		g.ShowOverlayMessage("Reading direction: Right to Left")
	} else {
		g.ShowOverlayMessage("Reading direction: Left to Right")
	}
}

func (g *Game) CycleSortMethod() {
	g.config.SortMethod = (g.config.SortMethod + 1) % len(imagedoc.GetAllSortStrategies())
	g.backend.SetSortMethod(g.config.SortMethod)
	if g.model.Loaded() {
		if err := g.model.Reload(g.ctx); err != nil {
			log.Printf("Warning: Failed to reload after sort change: %v", err)
		}
		g.rowDirty = true
	}
	g.ShowOverlayMessage("Sort: " + getSortMethodName(g.config.SortMethod))
}

func (g *Game) Reload() {
	switch {
	case g.model.Loaded():
		if err := g.model.Reload(g.ctx); err != nil {
			g.ShowOverlayMessage("Reload failed: " + describeOpenError(err))
			return
		}
		g.rowDirty = true
		g.ShowOverlayMessage("Reloaded")
	case g.hasSource:
		g.openDocument()
	}
}

func (g *Game) NavigateNext() {
	g.model.GotoNext()
}

func (g *Game) NavigatePrevious() {
	g.model.GotoPrevious()
}

func (g *Game) JumpToPage(page int) {
	g.model.GotoPage(page)
}

func (g *Game) ToggleRowMode() {
	g.model.ToggleRowDisplayMode()
}

func (g *Game) CycleViewType() {
	g.model.CycleViewType()
}

func (g *Game) RotateLeft() {
	if err := g.model.RotateLeft(g.ctx); err != nil {
		g.ShowOverlayMessage("Rotate failed: " + err.Error())
	}
}

func (g *Game) RotateRight() {
	if err := g.model.RotateRight(g.ctx); err != nil {
		g.ShowOverlayMessage("Rotate failed: " + err.Error())
	}
}

func (g *Game) ZoomIn() {
	g.model.ZoomIn()
}

func (g *Game) ZoomOut() {
	g.model.ZoomOut()
}

func (g *Game) ZoomReset() {
	g.model.SetZoom(1.0)
}

func (g *Game) FitWidth() {
	g.model.ZoomToWidth()
}

func (g *Game) FitHeight() {
	g.model.ZoomToHeight()
}

func (g *Game) PanUp() {
	g.model.PanBy(0, -g.config.PanStep)
}

func (g *Game) PanDown() {
	g.model.PanBy(0, g.config.PanStep)
}

func (g *Game) PanLeft() {
	if !g.turnSideways(true) {
		g.model.PanBy(-g.config.PanStep, 0)
	}
}

func (g *Game) PanRight() {
	if !g.turnSideways(false) {
		g.model.PanBy(g.config.PanStep, 0)
	}
}

func (g *Game) turnSideways(left bool) bool {
	action, ok := sidewaysAction(left, g.config.RightToLeft, g.model.ScrollExtent().X)
	if !ok {
		return false
	}
	if action == "next" {
		g.model.GotoNext()
	} else {
		g.model.GotoPrevious()
	}
	return true
}

func (g *Game) ShowOverlayMessage(message string) {
	g.overlayMessage = message
	g.overlayMessageTime = time.Now()
	g.revision++
}

// RenderState and InputState implementation

func (g *Game) IsFullscreen() bool  { return g.fullscreen }
func (g *Game) IsRightToLeft() bool { return g.config.RightToLeft }

func (g *Game) GetSourceName() string {
	if !g.hasSource {
		return ""
	}
	return filepath.Base(g.source.Name())
}

func (g *Game) GetLoadError() string           { return g.loadError }
func (g *Game) GetVisibleRows() []viewport.Row { return g.rows }
func (g *Game) GetPageGap() float64            { return g.config.PageGap }

// GetRowGeometries describes the rows intersecting the viewport, top to
// bottom.
func (g *Game) GetRowGeometries() []rowGeometry {
	first, last, ok := g.model.VisibleRowRange()
	if !ok {
		return nil
	}
	layout := g.model.Layout()
	continuous := g.model.RowDisplayMode() == viewport.ContinuousRows
	total := layout.TotalPages()
	out := make([]rowGeometry, 0, last-first+1)
	for r := first; r <= last && r < len(layout.Rows); r++ {
		geom := rowGeometry{Bound: layout.Rows[r]}
		if continuous {
			geom.Top = layout.Tops[r] * g.model.Zoom()
		}
		start := viewport.RowStart(r, total, layout.ViewType)
		n := viewport.RowPageCount(r, total, layout.ViewType)
		for i := start; i < start+n && i < len(layout.Pages); i++ {
			geom.Indices = append(geom.Indices, i)
			geom.Sizes = append(geom.Sizes, layout.Pages[i])
		}
		out = append(out, geom)
	}
	return out
}

func (g *Game) GetZoomType() viewport.ZoomType   { return g.model.ZoomType() }
func (g *Game) GetZoomLevel() float64            { return g.model.Zoom() }
func (g *Game) GetViewType() viewport.ViewType   { return g.model.ViewType() }
func (g *Game) GetRotation() viewport.Rotation   { return g.model.Rotation() }
func (g *Game) GetContentSize() viewport.Size    { return g.model.ContentSize() }
func (g *Game) GetViewportSize() viewport.Size   { return g.model.Viewport() }
func (g *Game) GetScrollOffset() viewport.Point  { return g.model.ScrollOffset() }
func (g *Game) GetScrollExtent() viewport.Point  { return g.model.ScrollExtent() }
func (g *Game) IsShowingHelp() bool              { return g.showHelp }
func (g *Game) IsShowingInfo() bool              { return g.showInfo }
func (g *Game) IsInPageInputMode() bool          { return g.pageInputMode }
func (g *Game) GetPageInputBuffer() string       { return g.pageInputBuffer }
func (g *Game) IsInPasswordMode() bool           { return g.passwordMode }
func (g *Game) GetPasswordBuffer() string        { return g.passwordBuffer }
func (g *Game) IsPasswordRetry() bool            { return g.passwordRetry }
func (g *Game) GetOverlayMessage() string        { return g.overlayMessage }
func (g *Game) GetOverlayMessageTime() time.Time { return g.overlayMessageTime }
func (g *Game) GetCurrentPageIndex() int         { return g.model.CurrentPage() }
func (g *Game) GetTotalPagesCount() int          { return g.model.TotalPages() }
func (g *Game) GetSortMethod() int               { return g.config.SortMethod }
func (g *Game) GetFontSize() float64             { return g.config.HelpFontSize }
func (g *Game) GetRowDisplayMode() viewport.RowDisplayMode {
	return g.model.RowDisplayMode()
}
func (g *Game) GetConfigStatus() ConfigLoadResult {
	return g.configStatus
}
func (g *Game) GetKeybindings() map[string][]string {
	return g.keybindingManager.GetKeybindings()
}
func (g *Game) GetMousebindings() map[string][]string {
	return g.mousebindingManager.GetMousebindings()
}
func (g *Game) GetRevision() uint64 { return g.revision }

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	sortFlag := flag.String("sort", "", "page order: natural, simple or entry")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-debug] [-sort natural|simple|entry] <archive|directory|image>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	debugMode = *debug || os.Getenv("NVDOC_DEBUG") == "1"
	logger.SetLogger(logBridge)

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	configResult := loadConfig()
	if *sortFlag != "" {
		method, ok := sortMethodNames[strings.ToLower(*sortFlag)]
		if !ok {
			log.Fatalf("unknown sort method %q", *sortFlag)
		}
		configResult.Config.SortMethod = method
	}

	if err := InitGraphics(); err != nil {
		log.Fatal(err)
	}

	g, err := NewGame(configResult, flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	config := configResult.Config
	ebiten.SetWindowSize(config.WindowWidth, config.WindowHeight)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetScreenClearedEveryFrame(false)
	if config.Fullscreen {
		ebiten.SetFullscreen(true)
	}
	if !g.model.Loaded() {
		ebiten.SetWindowTitle("nvdoc")
	}

	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
