package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"
	"math"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"nvdoc/viewport"
)

const (
	// Width of the vertical and height of the horizontal scroll indicator.
	// The viewport reserves the same amount when fitting.
	scrollbarSize = 12.0

	scrollbarMinThumb = 20.0

	// Converted page bitmaps kept on the GPU side
	textureCacheSize = 32
)

// Common colors used in rendering
var (
	colorWhite     = color.RGBA{255, 255, 255, 255}
	colorGray      = color.RGBA{180, 180, 180, 255}
	colorLightGray = color.RGBA{192, 192, 192, 255}
	colorYellow    = color.RGBA{255, 255, 100, 255}
	colorCyan      = color.RGBA{100, 255, 255, 255}
	colorLightBlue = color.RGBA{200, 200, 255, 255}
	colorGreen     = color.RGBA{100, 255, 100, 255}
	colorOrange    = color.RGBA{255, 200, 100, 255}
	colorLightRed  = color.RGBA{255, 150, 150, 255}

	// Background colors for semi-transparent overlays
	bgColorLight  = color.RGBA{0, 0, 0, 128} // Light semi-transparent
	bgColorMedium = color.RGBA{0, 0, 0, 160} // Medium semi-transparent
	bgColorDark   = color.RGBA{0, 0, 0, 200} // Dark semi-transparent

	scrollThumbColor = color.RGBA{192, 192, 192, 200}
)

// rect is an axis-aligned screen rectangle
type rect struct {
	X, Y, W, H float64
}

func (r rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// pagePlacement is where one page of the row lands on screen
type pagePlacement struct {
	Index int
	rect
}

// placePages lays one row out in screen space. Content narrower or shorter
// than the viewport is centred on that axis; larger content is shifted by
// the scroll offset. content is the size of everything shown, which is the
// row itself unless rows are stacked; a narrower row is centred within it
// and placed geom.Top below its top. Pages are centred vertically within
// the row and separated by the unscaled page gap. Right-to-left reading
// puts the first page of the row on the right.
func placePages(geom rowGeometry, zoom float64, view, content viewport.Size, scroll viewport.Point, rightToLeft bool) []pagePlacement {
	n := len(geom.Indices)
	if n == 0 || n != len(geom.Sizes) {
		return nil
	}

	rowW := geom.Bound.Size.Width*zoom + geom.Bound.HorizontalOffset
	rowH := geom.Bound.SizeIncludingOffset().Height * zoom
	contentW := max(content.Width, rowW)
	contentH := max(content.Height, rowH)

	originX := -scroll.X
	if contentW <= view.Width {
		originX = (view.Width - contentW) / 2
	}
	originY := -scroll.Y
	if contentH <= view.Height {
		originY = (view.Height - contentH) / 2
	}

	gap := 0.0
	if n > 1 {
		gap = geom.Bound.HorizontalOffset / float64(n-1)
	}

	out := make([]pagePlacement, n)
	x := originX + (contentW-rowW)/2
	rowY := originY + geom.Top
	for i := range n {
		j := i
		if rightToLeft {
			j = n - 1 - i
		}
		w, h := geom.Sizes[j].Width*zoom, geom.Sizes[j].Height*zoom
		y := rowY + geom.Bound.VerticalOffset*zoom/2 + (geom.Bound.Size.Height*zoom-h)/2
		out[i] = pagePlacement{Index: geom.Indices[j], rect: rect{X: x, Y: y, W: w, H: h}}
		x += w + gap
	}
	return out
}

// scrollbar is one scroll indicator: the track and the thumb inside it
type scrollbar struct {
	Visible bool
	Track   rect
	Thumb   rect
}

type scrollbarLayout struct {
	Vertical   scrollbar
	Horizontal scrollbar
}

// scrollbarRects computes the scroll indicators. An axis gets one only
// when the content overflows it.
func scrollbarRects(view, content viewport.Size, scroll, extent viewport.Point) scrollbarLayout {
	var l scrollbarLayout
	vVisible := extent.Y > 0 && content.Height > 0
	hVisible := extent.X > 0 && content.Width > 0

	if vVisible {
		track := rect{X: view.Width - scrollbarSize, Y: 0, W: scrollbarSize, H: view.Height}
		if hVisible {
			track.H -= scrollbarSize
		}
		thumbH := min(track.H, max(scrollbarMinThumb, track.H*view.Height/content.Height))
		thumbY := track.Y + (track.H-thumbH)*scroll.Y/extent.Y
		l.Vertical = scrollbar{
			Visible: true,
			Track:   track,
			Thumb:   rect{X: track.X, Y: thumbY, W: track.W, H: thumbH},
		}
	}
	if hVisible {
		track := rect{X: 0, Y: view.Height - scrollbarSize, W: view.Width, H: scrollbarSize}
		if vVisible {
			track.W -= scrollbarSize
		}
		thumbW := min(track.W, max(scrollbarMinThumb, track.W*view.Width/content.Width))
		thumbX := track.X + (track.W-thumbW)*scroll.X/extent.X
		l.Horizontal = scrollbar{
			Visible: true,
			Track:   track,
			Thumb:   rect{X: thumbX, Y: track.Y, W: thumbW, H: track.H},
		}
	}
	return l
}

// verticalOffsetAt maps a pointer y on the vertical track to a scroll
// offset that centres the thumb there
func (l scrollbarLayout) verticalOffsetAt(y, extent float64) float64 {
	s := l.Vertical
	free := s.Track.H - s.Thumb.H
	if !s.Visible || free <= 0 {
		return 0
	}
	frac := (y - s.Track.Y - s.Thumb.H/2) / free
	return math.Max(0, math.Min(1, frac)) * extent
}

// horizontalOffsetAt is verticalOffsetAt for the horizontal track
func (l scrollbarLayout) horizontalOffsetAt(x, extent float64) float64 {
	s := l.Horizontal
	free := s.Track.W - s.Thumb.W
	if !s.Visible || free <= 0 {
		return 0
	}
	frac := (x - s.Track.X - s.Thumb.W/2) / free
	return math.Max(0, math.Min(1, frac)) * extent
}

// buildPageNumberString formats the 1-based pages of the row
func buildPageNumberString(indices []int, total int) string {
	switch len(indices) {
	case 0:
		return fmt.Sprintf("0 / %d", total)
	case 1:
		return fmt.Sprintf("%d / %d", indices[0]+1, total)
	default:
		return fmt.Sprintf("%d-%d / %d", indices[0]+1, indices[len(indices)-1]+1, total)
	}
}

// visibleIndices flattens the page indices of the visible rows
func visibleIndices(rows []rowGeometry) []int {
	var out []int
	for _, r := range rows {
		out = append(out, r.Indices...)
	}
	return out
}

// buildInfoString is the status line shown by the info toggle
func buildInfoString(state RenderState) string {
	parts := []string{
		buildPageNumberString(visibleIndices(state.GetRowGeometries()), state.GetTotalPagesCount()),
		fmt.Sprintf("%.0f%%", state.GetZoomLevel()*100),
		state.GetZoomType().String(),
		state.GetViewType().String(),
		state.GetRowDisplayMode().String(),
	}
	if rot := state.GetRotation(); rot != viewport.Rotate0 {
		parts = append(parts, rot.String())
	}
	parts = append(parts, getSortMethodName(state.GetSortMethod()))
	if state.IsRightToLeft() {
		parts = append(parts, "RTL")
	}
	return strings.Join(parts, " | ")
}

// textureKey identifies a converted bitmap. Error placeholders are keyed by
// their content since they have no source bitmap.
type textureKey struct {
	img  image.Image
	page int
	w, h int
	msg  string
}

// Renderer handles all drawing operations
type Renderer struct {
	renderState  RenderState
	lastSnapshot *RenderStateSnapshot // Previous frame's state for comparison
	textures     *lru.Cache[textureKey, *ebiten.Image]
}

// NewRenderer creates a new Renderer
func NewRenderer(renderState RenderState) *Renderer {
	if globalFontSource == nil {
		if err := InitGraphics(); err != nil {
			log.Fatal(err)
		}
	}

	textures, err := lru.NewWithEvict[textureKey, *ebiten.Image](textureCacheSize, func(_ textureKey, img *ebiten.Image) {
		img.Deallocate()
	})
	if err != nil {
		log.Fatal(err)
	}

	return &Renderer{
		renderState: renderState,
		textures:    textures,
	}
}

// Draw renders the entire screen
func (r *Renderer) Draw(screen *ebiten.Image) {
	snapshot := NewRenderStateSnapshot(r.renderState, screen.Bounds().Dx(), screen.Bounds().Dy())
	if snapshot.Equals(r.lastSnapshot, time.Now()) {
		// SetScreenClearedEveryFrame(false) keeps the previous frame
		return
	}
	r.lastSnapshot = snapshot

	screen.Clear()

	if r.renderState.GetTotalPagesCount() == 0 {
		r.drawNoDocument(screen)
	} else {
		r.drawRows(screen)
		r.drawScrollbars(screen)
	}

	// Draw info display (page status, etc.) at bottom of screen if enabled
	if r.renderState.IsShowingInfo() && r.renderState.GetTotalPagesCount() > 0 {
		r.drawInfoDisplay(screen)
	}

	// Draw help overlay if enabled
	if r.renderState.IsShowingHelp() {
		r.drawHelpOverlay(screen)
	}

	// Draw page input overlay if active
	if r.renderState.IsInPageInputMode() {
		r.drawPageInputOverlay(screen)
	}

	if r.renderState.IsInPasswordMode() {
		r.drawPasswordOverlay(screen)
	}

	// Draw overlay message if active
	if r.renderState.GetOverlayMessage() != "" && time.Since(r.renderState.GetOverlayMessageTime()) < overlayMessageDuration {
		r.drawOverlayMessage(screen)
	}
}

// Invalidate forces the next Draw to repaint
func (r *Renderer) Invalidate() {
	r.lastSnapshot = nil
}

func (r *Renderer) drawRows(screen *ebiten.Image) {
	pages := make(map[int]viewport.PageImage)
	for _, row := range r.renderState.GetVisibleRows() {
		for _, p := range row.Pages {
			pages[p.Index] = p
		}
	}

	var placements []pagePlacement
	for _, geom := range r.renderState.GetRowGeometries() {
		placements = append(placements, placePages(
			geom,
			r.renderState.GetZoomLevel(),
			r.renderState.GetViewportSize(),
			r.renderState.GetContentSize(),
			r.renderState.GetScrollOffset(),
			r.renderState.IsRightToLeft(),
		)...)
	}
	for _, p := range placements {
		img := r.texture(pages[p.Index], p)
		if img == nil {
			continue
		}
		iw, ih := float64(img.Bounds().Dx()), float64(img.Bounds().Dy())
		op := &ebiten.DrawImageOptions{}
		op.Filter = ebiten.FilterLinear
		op.GeoM.Scale(p.W/iw, p.H/ih)
		op.GeoM.Translate(p.X, p.Y)
		screen.DrawImage(img, op)
	}
}

// texture returns the GPU image for a page, converting on first use. Pages
// that failed get the error placeholder and pages still rendering a
// loading one.
func (r *Renderer) texture(page viewport.PageImage, p pagePlacement) *ebiten.Image {
	if page.Err == nil && page.Image != nil {
		key := textureKey{img: page.Image, page: p.Index}
		if img, ok := r.textures.Get(key); ok {
			return img
		}
		img := ebiten.NewImageFromImage(page.Image)
		r.textures.Add(key, img)
		return img
	}

	msg := "not rendered"
	switch {
	case errors.Is(page.Err, viewport.ErrPagePending):
		msg = "Loading..."
	case page.Err != nil:
		msg = page.Err.Error()
	}
	key := textureKey{page: p.Index, w: int(p.W), h: int(p.H), msg: msg}
	if img, ok := r.textures.Get(key); ok {
		return img
	}
	img := CreateErrorImage(key.w, key.h, fmt.Sprintf("Page %d", p.Index+1), msg)
	r.textures.Add(key, img)
	return img
}

func (r *Renderer) drawScrollbars(screen *ebiten.Image) {
	l := scrollbarRects(
		r.renderState.GetViewportSize(),
		r.renderState.GetContentSize(),
		r.renderState.GetScrollOffset(),
		r.renderState.GetScrollExtent(),
	)
	for _, s := range []scrollbar{l.Vertical, l.Horizontal} {
		if !s.Visible {
			continue
		}
		DrawFilledRect(screen, s.Track.X, s.Track.Y, s.Track.W, s.Track.H, bgColorLight)
		DrawFilledRect(screen, s.Thumb.X+2, s.Thumb.Y+2, s.Thumb.W-4, s.Thumb.H-4, scrollThumbColor)
	}
}

func (r *Renderer) drawNoDocument(screen *ebiten.Image) {
	msg := r.renderState.GetLoadError()
	if msg == "" {
		if r.renderState.IsInPasswordMode() {
			return
		}
		msg = "No document loaded"
	}
	font := newFace(r.renderState.GetFontSize())
	w, h := text.Measure(msg, font, 0)
	x := (float64(screen.Bounds().Dx()) - w) / 2
	y := (float64(screen.Bounds().Dy()) - h) / 2
	DrawText(screen, msg, font, x, y, colorLightRed)
}

// helpLine is one row of the help table
type helpLine struct {
	action, keys, mouse, description string
}

// helpLines returns the bound actions in check order
func helpLines(keybindings, mousebindings map[string][]string) []helpLine {
	descriptions := GetActionDescriptions()
	var lines []helpLine
	for _, action := range actionNames() {
		keys, mouse := keybindings[action], mousebindings[action]
		// Skip if no bindings at all
		if len(keys) == 0 && len(mouse) == 0 {
			continue
		}
		lines = append(lines, helpLine{
			action:      action,
			keys:        strings.Join(keys, ", "),
			mouse:       strings.Join(mouse, ", "),
			description: descriptions[action],
		})
	}
	return lines
}

func shortWarnings(warnings []string) []string {
	var out []string
	for i, w := range warnings {
		if i >= 2 { // Limit to first 2 warnings to avoid clutter
			break
		}
		if len(w) > 50 {
			w = w[:47] + "..."
		}
		out = append(out, "• "+w)
	}
	return out
}

// helpColumns measures the column widths of the help table at a font size
func helpColumns(lines []helpLine, font *text.GoTextFace) (action, input, desc float64) {
	for _, l := range lines {
		w, _ := text.Measure(l.action, font, 0)
		action = max(action, w)
		combined := strings.Trim(l.keys+" | "+l.mouse, " |")
		w, _ = text.Measure(combined, font, 0)
		input = max(input, w)
		w, _ = text.Measure(l.description, font, 0)
		desc = max(desc, w)
	}
	return action, input, desc
}

// calculateRequiredDimensions calculates the required width and height for help content at a given font size
func (r *Renderer) calculateRequiredDimensions(fontSize float64) (float64, float64) {
	lines := helpLines(r.renderState.GetKeybindings(), r.renderState.GetMousebindings())
	warnings := shortWarnings(r.renderState.GetConfigStatus().Warnings)
	font := newFace(fontSize)

	padding := 40.0
	lineHeight := fontSize * 1.5

	height := padding*2 + fontSize*2 + lineHeight*1.5
	height += float64(len(lines)) * lineHeight
	height += lineHeight * 3 // spacing, "System:" and the config status line
	height += float64(len(warnings)) * lineHeight

	actionW, inputW, descW := helpColumns(lines, font)
	width := 40 + actionW + 20 + 30 + inputW + 20 + descW + padding*3
	for _, w := range warnings {
		ww, _ := text.Measure(w, font, 0)
		width = max(width, ww+padding*2+80)
	}
	return width, height
}

// calculateOptimalFontSize finds the largest font size that fits within the given dimensions
func (r *Renderer) calculateOptimalFontSize(availableWidth, availableHeight float64) (float64, bool) {
	maxFontSize := r.renderState.GetFontSize()
	minFontSize := 12.0

	minWidth, minHeight := r.calculateRequiredDimensions(minFontSize)
	if minWidth > availableWidth || minHeight > availableHeight {
		return minFontSize, false // Cannot fit even with minimum size
	}

	maxWidth, maxHeight := r.calculateRequiredDimensions(maxFontSize)
	if maxWidth <= availableWidth && maxHeight <= availableHeight {
		return maxFontSize, true
	}

	// Binary search for optimal font size
	low, high := minFontSize, maxFontSize
	bestSize := minFontSize
	for high-low > 0.5 {
		mid := (low + high) / 2.0
		reqWidth, reqHeight := r.calculateRequiredDimensions(mid)
		if reqWidth <= availableWidth && reqHeight <= availableHeight {
			bestSize = mid
			low = mid
		} else {
			high = mid
		}
	}
	return bestSize, true
}

func (r *Renderer) drawHelpOverlay(screen *ebiten.Image) {
	w, h := float64(screen.Bounds().Dx()), float64(screen.Bounds().Dy())
	padding := 40.0

	fontSize, canFit := r.calculateOptimalFontSize(w-padding*2, h-padding*2)
	if !canFit {
		r.drawMarginTooSmallMessage(screen)
		return
	}

	lines := helpLines(r.renderState.GetKeybindings(), r.renderState.GetMousebindings())
	configStatus := r.renderState.GetConfigStatus()
	font := newFace(fontSize)

	DrawFilledRect(screen, 0, 0, w, h, bgColorLight)
	DrawFilledRect(screen, padding, padding, w-padding*2, h-padding*2, bgColorMedium)

	titleY := padding + 30
	DrawText(screen, "HELP:", font, padding+20, titleY, colorWhite)

	currentY := titleY + fontSize*2
	lineHeight := fontSize * 1.5

	DrawText(screen, "Controls (Keyboard | Mouse):", font, padding+20, currentY, colorWhite)
	currentY += lineHeight * 1.5

	actionW, inputW, _ := helpColumns(lines, font)
	actionColumnX := padding + 40
	arrowColumnX := actionColumnX + actionW + 20
	inputColumnX := arrowColumnX + 30
	descColumnX := inputColumnX + inputW + 20

	for _, l := range lines {
		DrawText(screen, l.action, font, actionColumnX, currentY, colorLightBlue)
		DrawText(screen, "→", font, arrowColumnX, currentY, colorWhite)

		x := inputColumnX
		if l.keys != "" {
			DrawText(screen, l.keys, font, x, currentY, colorYellow)
			kw, _ := text.Measure(l.keys, font, 0)
			x += kw
		}
		if l.keys != "" && l.mouse != "" {
			DrawText(screen, " | ", font, x, currentY, colorWhite)
			sw, _ := text.Measure(" | ", font, 0)
			x += sw
		}
		if l.mouse != "" {
			DrawText(screen, l.mouse, font, x, currentY, colorCyan)
		}

		DrawText(screen, l.description, font, descColumnX, currentY, colorGray)
		currentY += lineHeight
	}

	currentY += lineHeight
	DrawText(screen, "System:", font, padding+20, currentY, colorWhite)
	currentY += lineHeight

	statusColor := colorGreen
	if configStatus.Status == "Warning" || configStatus.Status == "Error" {
		statusColor = colorOrange
	}
	DrawText(screen, "Config Status: "+configStatus.Status, font, padding+40, currentY, statusColor)
	currentY += lineHeight

	for _, warning := range shortWarnings(configStatus.Warnings) {
		DrawText(screen, warning, font, padding+40, currentY, colorLightRed)
		currentY += lineHeight
	}
}

// drawMarginTooSmallMessage displays Fermat's margin joke when help cannot fit
func (r *Renderer) drawMarginTooSmallMessage(screen *ebiten.Image) {
	w, h := float64(screen.Bounds().Dx()), float64(screen.Bounds().Dy())
	DrawFilledRect(screen, 0, 0, w, h, bgColorLight)

	jokeFont := newFace(16.0)
	message := "Hanc marginis exiguitas non caperet."
	subtitle := "(This margin is too small to contain it.)"

	messageWidth, messageHeight := text.Measure(message, jokeFont, 0)
	subtitleWidth, _ := text.Measure(subtitle, jokeFont, 0)

	messageY := h/2 - messageHeight/2
	DrawText(screen, message, jokeFont, w/2-messageWidth/2, messageY, colorWhite)
	DrawText(screen, subtitle, jokeFont, w/2-subtitleWidth/2, messageY+messageHeight+10, colorGray)
}

// drawPromptBox draws a centred box with a main line and a smaller hint line
func (r *Renderer) drawPromptBox(screen *ebiten.Image, main, hint string, hintColor color.RGBA) {
	w, h := float64(screen.Bounds().Dx()), float64(screen.Bounds().Dy())
	inputFont := newFace(r.renderState.GetFontSize())
	hintFont := newFace(r.renderState.GetFontSize() * 0.8)

	inputWidth, inputHeight := text.Measure(main, inputFont, 0)
	hintWidth, hintHeight := text.Measure(hint, hintFont, 0)

	padding := 20.0
	boxWidth := math.Max(inputWidth, hintWidth) + padding*2
	boxHeight := inputHeight + hintHeight + 10 + padding*2
	boxX := (w - boxWidth) / 2
	boxY := (h - boxHeight) / 2

	DrawFilledRect(screen, boxX, boxY, boxWidth, boxHeight, bgColorDark)
	DrawText(screen, main, inputFont, boxX+(boxWidth-inputWidth)/2, boxY+padding, colorWhite)
	DrawText(screen, hint, hintFont, boxX+(boxWidth-hintWidth)/2, boxY+padding+inputHeight+10, hintColor)
}

func (r *Renderer) drawPageInputOverlay(screen *ebiten.Image) {
	r.drawPromptBox(screen,
		fmt.Sprintf("Go to page: %s_", r.renderState.GetPageInputBuffer()),
		fmt.Sprintf("(1-%d)", r.renderState.GetTotalPagesCount()),
		colorLightGray)
}

func (r *Renderer) drawPasswordOverlay(screen *ebiten.Image) {
	masked := strings.Repeat("*", len([]rune(r.renderState.GetPasswordBuffer())))
	hint, hintColor := r.renderState.GetSourceName(), colorLightGray
	if r.renderState.IsPasswordRetry() {
		hint, hintColor = "Wrong password, try again", colorLightRed
	}
	r.drawPromptBox(screen, "Password: "+masked+"_", hint, hintColor)
}

func (r *Renderer) drawInfoDisplay(screen *ebiten.Image) {
	infoFont := newFace(r.renderState.GetFontSize())
	infoText := buildInfoString(r.renderState)

	textWidth, textHeight := text.Measure(infoText, infoFont, 0)

	// Bottom right corner, clear of the horizontal scroll indicator
	padding := 10.0 + scrollbarSize
	textX := float64(screen.Bounds().Dx()) - textWidth - padding
	textY := float64(screen.Bounds().Dy()) - textHeight - padding

	bgPadding := 5.0
	DrawFilledRect(screen, textX-bgPadding, textY-bgPadding, textWidth+bgPadding*2, textHeight+bgPadding*2, bgColorLight)
	DrawText(screen, infoText, infoFont, textX, textY, colorWhite)
}

func (r *Renderer) drawOverlayMessage(screen *ebiten.Image) {
	messageFont := newFace(r.renderState.GetFontSize())
	message := r.renderState.GetOverlayMessage()
	textWidth, textHeight := text.Measure(message, messageFont, 0)

	padding := 20.0
	boxWidth := textWidth + padding*2
	boxHeight := textHeight + padding*2
	boxX := (float64(screen.Bounds().Dx()) - boxWidth) / 2
	boxY := (float64(screen.Bounds().Dy()) - boxHeight) / 2

	DrawFilledRect(screen, boxX, boxY, boxWidth, boxHeight, bgColorDark)
	DrawText(screen, message, messageFont, boxX+padding, boxY+padding, colorWhite)
}
