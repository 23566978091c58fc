package viewport

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"time"

	"nvdoc/logger"
)

// maxPasswordAttempts bounds the prompt loop for a wrong password.
const maxPasswordAttempts = 3

// Model is the toolkit-free state of a document view: the open document,
// its row layout, the current page, zoom, rotation, view type, row display
// mode and scroll offset. A presentation adapter drives it from one goroutine and
// observes it through Observer.
type Model struct {
	cfg     *Config
	backend Backend

	observers observers
	prompt    PasswordPrompt

	zoom   *ZoomController
	resize *Debouncer

	source     Source
	cache      *PageImageCache
	layout     Layout
	current    int
	rotation   Rotation
	viewType   ViewType
	rowDisplay RowDisplayMode
	viewport   Size
	scroll     Point
	lastZoom   float64 // factor the scroll offset was computed for
}

// NewModel validates cfg and returns an empty model.
func NewModel(cfg *Config, backend Backend) (*Model, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("viewport config: %w", err)
	}
	m := &Model{
		cfg:        cfg,
		backend:    backend,
		zoom:       NewZoomController(cfg, cfg.InitialZoomLevel),
		resize:     NewDebouncer(cfg.ResizeDebounce),
		viewType:   cfg.InitialViewType,
		rowDisplay: cfg.InitialRowDisplay,
	}
	m.zoom.Restore(cfg.InitialZoomType, cfg.InitialZoomLevel)
	m.zoom.SetNotify(m.onZoomEvent)
	m.lastZoom = m.zoom.Factor()
	return m, nil
}

// Subscribe adds an observer.
func (m *Model) Subscribe(o Observer) { m.observers = append(m.observers, o) }

// SetPasswordPrompt installs the password round-trip callback.
func (m *Model) SetPasswordPrompt(p PasswordPrompt) { m.prompt = p }

// Open loads src. On failure the previously open document, if any, is left
// untouched.
func (m *Model) Open(ctx context.Context, src Source, password string) error {
	if path := src.Path(); src.Unwrap().Kind() == SourceFile {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("%s: %w", path, ErrSourceNotFound)
			}
			return err
		}
	}
	if password == "" {
		password = src.Password()
	}

	needs, err := m.backend.NeedsPassword(ctx, src)
	if err != nil {
		return err
	}
	if needs && password == "" {
		pw, ok := m.askPassword(src, false)
		if !ok {
			return ErrPasswordRequired
		}
		password = pw
	}

	rotation := Rotate0
	settings := DisplaySettings{
		PagesPerRow:      m.viewType.PagesPerRow(),
		ViewType:         m.viewType,
		HorizontalMargin: m.cfg.HorizontalMargin,
		Rotation:         rotation,
		Zoom:             m.zoom.Factor(),
	}
	opts := CacheOptions{Size: m.cfg.CacheSize, PrefetchCount: m.cfg.PrefetchCount, Workers: m.cfg.RenderWorkers}

	var cache *PageImageCache
	for attempt := 1; ; attempt++ {
		cache, err = NewPageImageCache(ctx, m.backend, src, password, settings, opts)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrInvalidPassword) || m.prompt == nil || attempt >= maxPasswordAttempts {
			return err
		}
		pw, ok := m.askPassword(src, true)
		if !ok {
			return ErrPasswordRequired
		}
		password = pw
	}
	if cache.TotalPages() == 0 {
		cache.Unload()
		return &DecodeError{Page: -1, Err: fmt.Errorf("%s has no pages", src.Name())}
	}

	if m.cache != nil {
		m.unload(false)
	}
	m.source = src
	m.cache = cache
	m.rotation = rotation
	m.layout = NewLayout(cache.Bounds(), m.viewType, m.cfg.VerticalMargin, m.cfg.HorizontalMargin)
	m.current = 0
	m.scroll = Point{}
	m.zoom.Reapply(m.fitInput())
	m.syncSettings()

	logger.Debug("document opened", "source", src.String(), "pages", m.layout.TotalPages())
	m.observers.emit(Event{Kind: DocumentLoaded, Source: src})
	m.observers.emit(Event{Kind: PageChanged, Page: 0})
	_ = m.cache.Prefetch(0, NavigationForward)
	return nil
}

func (m *Model) askPassword(src Source, retry bool) (string, bool) {
	m.observers.emit(Event{Kind: PasswordRequested, Source: src})
	if m.prompt == nil {
		return "", false
	}
	pw, ok := m.prompt(src, retry)
	if !ok || pw == "" {
		return "", false
	}
	return pw, true
}

// Unload closes the current document.
func (m *Model) Unload() {
	if m.cache == nil {
		return
	}
	m.unload(true)
}

func (m *Model) unload(notify bool) {
	src := m.source
	m.cache.Unload()
	m.cache = nil
	m.source = Source{}
	m.layout = Layout{}
	m.current = 0
	m.scroll = Point{}
	if notify {
		m.observers.emit(Event{Kind: DocumentUnloaded, Source: src})
	}
}

// Reload reopens the open document with the password it was opened with,
// keeping the rotation and, when it still exists, the current page.
func (m *Model) Reload(ctx context.Context) error {
	if m.cache == nil {
		return ErrNoDocument
	}
	src, password, page, rotation := m.source, m.cache.Password(), m.current, m.rotation
	if err := m.Open(ctx, src, password); err != nil {
		return err
	}
	if rotation != Rotate0 {
		if err := m.rotate(ctx, rotation); err != nil {
			return err
		}
	}
	m.GotoPage(page + 1)
	return nil
}

// Loaded reports whether a document is open.
func (m *Model) Loaded() bool { return m.cache != nil }

// Source returns the open source.
func (m *Model) Source() Source { return m.source }

// TotalPages returns the page count, 0 when nothing is open.
func (m *Model) TotalPages() int { return m.layout.TotalPages() }

// CurrentPage returns the 0-based index of the first page on the current row.
func (m *Model) CurrentPage() int { return m.current }

// CurrentRow returns the index of the current row.
func (m *Model) CurrentRow() int { return RowIndex(m.current, m.TotalPages(), m.viewType) }

// Layout returns the computed rows.
func (m *Model) Layout() Layout { return m.layout }

// ViewType returns the active view type.
func (m *Model) ViewType() ViewType { return m.viewType }

// RowDisplayMode returns whether one row or all rows are shown.
func (m *Model) RowDisplayMode() RowDisplayMode { return m.rowDisplay }

// Rotation returns the active rotation.
func (m *Model) Rotation() Rotation { return m.rotation }

// ZoomType returns the zoom mode.
func (m *Model) ZoomType() ZoomType { return m.zoom.Mode() }

// Zoom returns the zoom factor.
func (m *Model) Zoom() float64 { return m.zoom.Factor() }

// Cache returns the page image cache, nil when nothing is open.
func (m *Model) Cache() *PageImageCache { return m.cache }

// Config returns the model configuration.
func (m *Model) Config() *Config { return m.cfg }

// Navigation

// GotoPage jumps to the 1-based page n, clamped into [1, TotalPages].
func (m *Model) GotoPage(n int) bool {
	idx := ClampPageNumber(n, m.TotalPages())
	if idx < 0 {
		return false
	}
	dir := NavigationJump
	return m.moveTo(AlignToRow(idx, m.TotalPages(), m.viewType), dir)
}

// GotoNext moves to the next row; it is a no-op on the last row.
func (m *Model) GotoNext() bool {
	next := NextPageIndex(m.current, m.TotalPages(), m.viewType)
	if next < 0 {
		return false
	}
	return m.moveTo(next, NavigationForward)
}

// GotoPrevious moves to the previous row; it is a no-op on the first row.
func (m *Model) GotoPrevious() bool {
	prev := PreviousPageIndex(m.current, m.TotalPages(), m.viewType)
	if prev < 0 {
		return false
	}
	return m.moveTo(prev, NavigationBackward)
}

// GotoFirst moves to the first page.
func (m *Model) GotoFirst() bool { return m.GotoPage(1) }

// GotoLast moves to the row holding the last page.
func (m *Model) GotoLast() bool { return m.GotoPage(m.TotalPages()) }

func (m *Model) moveTo(idx int, dir NavigationDirection) bool {
	if idx < 0 || idx == m.current {
		return false
	}
	m.current = idx
	m.zoom.Reapply(m.fitInput())
	m.scrollToCurrent()
	m.observers.emit(Event{Kind: PageChanged, Page: idx})
	if m.cache != nil {
		_ = m.cache.Prefetch(idx, dir)
	}
	return true
}

// Zoom

// ZoomIn steps the zoom up and switches to a fixed factor.
func (m *Model) ZoomIn() { m.zoom.ZoomIn() }

// ZoomOut steps the zoom down and switches to a fixed factor.
func (m *Model) ZoomOut() { m.zoom.ZoomOut() }

// SetZoom sets a fixed zoom factor.
func (m *Model) SetZoom(f float64) { m.zoom.SetZoom(f) }

// ZoomToWidth fits the current row to the viewport width.
func (m *Model) ZoomToWidth() { m.zoom.FitToWidth(m.fitInput()) }

// ZoomToHeight fits the current row to the viewport height.
func (m *Model) ZoomToHeight() { m.zoom.FitToHeight(m.fitInput()) }

// SetZoomType switches the zoom mode, keeping the factor for Fixed.
func (m *Model) SetZoomType(t ZoomType) {
	switch t {
	case FitToWidth:
		m.ZoomToWidth()
	case FitToHeight:
		m.ZoomToHeight()
	default:
		m.zoom.SetZoom(m.zoom.Factor())
	}
}

func (m *Model) onZoomEvent(e Event) {
	if e.Kind == ZoomFactorChanged {
		if m.rowDisplay == ContinuousRows && m.lastZoom > 0 {
			// Stacked content scales linearly; keep the same spot in view.
			k := e.Zoom / m.lastZoom
			m.scroll = Point{X: m.scroll.X * k, Y: m.scroll.Y * k}
		}
		m.lastZoom = e.Zoom
		m.syncSettings()
		m.clampScroll()
	}
	m.observers.emit(e)
}

// fitInput describes the current row. With stacked rows the width comes
// from the widest row and the scrollbar pass sees the whole stack.
func (m *Model) fitInput() FitInput {
	row, _ := m.layout.RowFor(m.current)
	in := FitInput{
		Row:      row,
		Viewport: m.viewport,
		Scrollbars: Scrollbars{
			VerticalWidth:    m.cfg.VerticalScrollbarWidth,
			HorizontalHeight: m.cfg.HorizontalScrollbarHeight,
		},
	}
	if m.rowDisplay == ContinuousRows {
		if widest, ok := m.layout.WidestRow(); ok {
			in.Row.Size.Width = widest.Size.Width
			in.Row.HorizontalOffset = widest.HorizontalOffset
		}
		in.StackHeight = m.layout.StackHeight()
	}
	return in
}

func (m *Model) settings() DisplaySettings {
	return DisplaySettings{
		PagesPerRow:      min(m.viewType.PagesPerRow(), max(1, m.TotalPages())),
		ViewType:         m.viewType,
		HorizontalMargin: m.cfg.HorizontalMargin,
		Rotation:         m.rotation,
		Zoom:             m.zoom.Factor(),
	}
}

func (m *Model) syncSettings() {
	if m.cache == nil {
		return
	}
	_ = m.cache.SetSettings(m.settings())
}

// Layout changes

// RotateRight turns every page a quarter clockwise.
func (m *Model) RotateRight(ctx context.Context) error { return m.rotate(ctx, m.rotation.Right()) }

// RotateLeft turns every page a quarter counter-clockwise.
func (m *Model) RotateLeft(ctx context.Context) error { return m.rotate(ctx, m.rotation.Left()) }

func (m *Model) rotate(ctx context.Context, r Rotation) error {
	if m.cache == nil {
		return ErrNoDocument
	}
	// Page bounds depend on orientation, so they are fetched again.
	pages, err := m.backend.PageBounds(ctx, m.source, r, m.cache.Password())
	if err != nil {
		return err
	}
	m.rotation = r
	m.relayout(pages)
	m.observers.emit(Event{Kind: RotationChanged, Rotation: r})
	return nil
}

// SetViewType switches the row grouping. The row display mode is kept.
func (m *Model) SetViewType(v ViewType) {
	if v == m.viewType {
		return
	}
	m.viewType = v
	if m.cache != nil {
		m.relayout(m.layout.Pages)
	}
	m.observers.emit(Event{Kind: ViewTypeChanged, ViewType: v})
}

// CycleViewType advances SinglePage -> Facing -> BookView.
func (m *Model) CycleViewType() { m.SetViewType(m.viewType.Next()) }

// ToggleRowDisplayMode switches between showing the current row alone and
// showing all rows stacked. The view type is kept.
func (m *Model) ToggleRowDisplayMode() { m.SetRowDisplayMode(m.rowDisplay.Toggle()) }

// SetRowDisplayMode switches the row display mode, keeping the current row
// in view.
func (m *Model) SetRowDisplayMode(mode RowDisplayMode) {
	if mode == m.rowDisplay {
		return
	}
	m.rowDisplay = mode
	if m.cache != nil {
		m.relayout(m.layout.Pages)
	}
	m.observers.emit(Event{Kind: RowDisplayModeChanged, RowDisplay: mode})
}

// relayout recomputes rows and re-applies the zoom intent.
func (m *Model) relayout(pages []PageGeometry) {
	m.layout = NewLayout(pages, m.viewType, m.cfg.VerticalMargin, m.cfg.HorizontalMargin)
	m.current = AlignToRow(m.current, m.TotalPages(), m.viewType)
	if m.current < 0 {
		m.current = 0
	}
	m.zoom.Reapply(m.fitInput())
	m.syncSettings()
	if m.rowDisplay == ContinuousRows {
		m.scrollToCurrent()
	} else {
		m.clampScroll()
	}
}

// Viewport and scrolling

// Resize records a new viewport size. Fit modes are recomputed once the
// debounce window passes without further resizes (see Tick).
func (m *Model) Resize(size Size, now time.Time) {
	if size == m.viewport {
		return
	}
	first := m.viewport == Size{}
	m.viewport = size
	if first {
		// Nothing to coalesce with on the very first size.
		m.zoom.Resize(m.fitInput())
	} else {
		m.resize.Trigger(now)
	}
	m.clampScroll()
}

// Viewport returns the last recorded viewport size.
func (m *Model) Viewport() Size { return m.viewport }

// Tick runs time-based work on the UI goroutine: the debounced fit
// recomputation and the hand-off of background renders. It reports
// whether anything visible changed.
func (m *Model) Tick(now time.Time) bool {
	changed := false
	if m.resize.Fire(now) {
		before := m.zoom.Factor()
		m.zoom.Resize(m.fitInput())
		changed = before != m.zoom.Factor()
	}
	if m.cache != nil && m.cache.ApplyResults() > 0 {
		changed = true
	}
	return changed
}

// ContentSize returns the zoomed size of the current row, or of all rows
// stacked in ContinuousRows mode.
func (m *Model) ContentSize() Size {
	z := m.zoom.Factor()
	if m.rowDisplay == ContinuousRows {
		return Size{Width: m.layout.StackWidth(z), Height: m.layout.StackHeight() * z}
	}
	row, ok := m.layout.RowFor(m.current)
	if !ok {
		return Size{}
	}
	s := row.SizeIncludingOffset()
	return Size{Width: s.Width*z + row.HorizontalOffset, Height: s.Height * z}
}

// ScrollExtent returns the largest scroll offset on each axis.
func (m *Model) ScrollExtent() Point {
	c := m.ContentSize()
	return Point{X: max(0, c.Width-m.viewport.Width), Y: max(0, c.Height-m.viewport.Height)}
}

// ScrollOffset returns the scroll offset.
func (m *Model) ScrollOffset() Point { return m.scroll }

// SetScrollOffset sets the scroll offset, clamped to [0, ScrollExtent]. With
// stacked rows the current page follows the row at the top of the viewport.
func (m *Model) SetScrollOffset(p Point) {
	m.scroll = p
	m.clampScroll()
	m.trackScroll()
}

// PanBy scrolls by a delta.
func (m *Model) PanBy(dx, dy float64) {
	m.SetScrollOffset(Point{X: m.scroll.X + dx, Y: m.scroll.Y + dy})
}

func (m *Model) clampScroll() {
	ext := m.ScrollExtent()
	m.scroll = Point{X: max(0, min(m.scroll.X, ext.X)), Y: max(0, min(m.scroll.Y, ext.Y))}
}

// scrollToCurrent brings the current row to the top of the viewport when
// rows are stacked, and resets the offset otherwise.
func (m *Model) scrollToCurrent() {
	m.scroll = Point{}
	if m.rowDisplay == ContinuousRows {
		if r := m.CurrentRow(); r >= 0 && r < len(m.layout.Rows) {
			m.scroll.Y = m.layout.Tops[r] * m.zoom.Factor()
		}
	}
	m.clampScroll()
}

func (m *Model) trackScroll() {
	if m.rowDisplay != ContinuousRows || m.cache == nil {
		return
	}
	first, last, ok := m.VisibleRowRange()
	if !ok {
		return
	}
	idx := RowStart(first, m.TotalPages(), m.viewType)
	if idx < 0 || idx == m.current {
		return
	}
	dir, from := NavigationForward, RowStart(last, m.TotalPages(), m.viewType)
	if idx < m.current {
		dir, from = NavigationBackward, idx
	}
	m.current = idx
	m.observers.emit(Event{Kind: PageChanged, Page: idx})
	_ = m.cache.Prefetch(from, dir)
}

// VisibleRowRange returns the first and last rows intersecting the
// viewport. In SingleRow mode both are the current row. ok is false when
// no document is open.
func (m *Model) VisibleRowRange() (first, last int, ok bool) {
	if m.cache == nil || len(m.layout.Rows) == 0 {
		return 0, 0, false
	}
	if m.rowDisplay != ContinuousRows {
		r := m.CurrentRow()
		return r, r, r >= 0
	}
	z := m.zoom.Factor()
	first = m.layout.RowAt(m.scroll.Y / z)
	last = first
	if m.viewport.Height > 0 {
		bottom := (m.scroll.Y + m.viewport.Height) / z
		last = m.layout.RowAt(bottom)
		if last > first && m.layout.Tops[last] >= bottom {
			last--
		}
	}
	return first, last, true
}

// visibleSpan converts VisibleRowRange to a page range.
func (m *Model) visibleSpan() (start, count int, ok bool) {
	first, last, ok := m.VisibleRowRange()
	if !ok {
		return 0, 0, false
	}
	total := m.TotalPages()
	start = RowStart(first, total, m.viewType)
	end := RowStart(last, total, m.viewType) + RowPageCount(last, total, m.viewType)
	return start, end - start, start >= 0
}

// VisibleRow fetches the bitmaps of the current row.
func (m *Model) VisibleRow(ctx context.Context) (Row, error) {
	if m.cache == nil {
		return Row{}, ErrNoDocument
	}
	n := RowPageCount(m.CurrentRow(), m.TotalPages(), m.viewType)
	rows, err := m.cache.FetchRange(ctx, m.current, n)
	if err != nil {
		return Row{}, err
	}
	for row := range rows {
		return row, nil
	}
	return Row{}, ctx.Err()
}

// VisibleRows renders every row intersecting the viewport with one
// FetchRange, blocking until they are done or ctx ends.
func (m *Model) VisibleRows(ctx context.Context) ([]Row, error) {
	start, count, ok := m.visibleSpan()
	if !ok {
		return nil, ErrNoDocument
	}
	seq, err := m.cache.FetchRange(ctx, start, count)
	if err != nil {
		return nil, err
	}
	rows := slices.Collect(seq)
	if err := ctx.Err(); err != nil {
		return rows, err
	}
	return rows, nil
}

// PeekVisibleRows returns the rows intersecting the viewport without
// waiting for renders. Pages still rendering carry ErrPagePending; Tick
// reports a change once they land.
func (m *Model) PeekVisibleRows() ([]Row, error) {
	start, count, ok := m.visibleSpan()
	if !ok {
		return nil, ErrNoDocument
	}
	return m.cache.PeekRange(start, count)
}
