package viewport

import (
	"context"
	"errors"
	"fmt"
	"image"
	"iter"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"nvdoc/logger"
)

// DisplaySettings is the cache key space. Any change makes previously
// rendered bitmaps unusable for the new settings.
type DisplaySettings struct {
	PagesPerRow      int
	ViewType         ViewType
	HorizontalMargin float64
	Rotation         Rotation
	Zoom             float64
}

type pageKey struct {
	page        int
	rotation    Rotation
	zoom        float64
	pagesPerRow int
}

func (s DisplaySettings) key(page int) pageKey {
	return pageKey{page: page, rotation: s.Rotation.Normalize(), zoom: s.Zoom, pagesPerRow: s.PagesPerRow}
}

func (k pageKey) String() string {
	return fmt.Sprintf("%d/%d/%g/%d", k.page, k.rotation, k.zoom, k.pagesPerRow)
}

// PageImage is one rendered page, or the error that prevented rendering it.
type PageImage struct {
	Index int
	Image image.Image
	Err   error
}

// Row is the set of pages displayed together on one row.
type Row struct {
	Index int
	Pages []PageImage
}

// NavigationDirection hints which neighbours to prefetch.
type NavigationDirection int

const (
	NavigationForward NavigationDirection = iota
	NavigationBackward
	NavigationJump
)

// CacheStats reports cache activity.
type CacheStats struct {
	Hits     int
	Misses   int
	Rendered int
	Failed   int
	Stale    int
	Cached   int
}

// CacheOptions sizes a PageImageCache.
type CacheOptions struct {
	Size          int // bitmaps kept
	PrefetchCount int // neighbouring pages rendered in the background
	Workers       int // concurrent background renders
}

type cacheEntry struct {
	img image.Image
	err error
}

type prefetchRequest struct {
	pages      []int
	settings   DisplaySettings
	generation uint64
	ctx        context.Context
}

type renderResult struct {
	key        pageKey
	entry      cacheEntry
	settings   DisplaySettings
	generation uint64
}

// PageImageCache supplies rendered page bitmaps for windows of pages,
// rendering on demand. Its methods must be called from a single (UI)
// goroutine; background workers only talk to it through ApplyResults.
type PageImageCache struct {
	backend    Backend
	src        Source
	password   string
	bounds     []PageGeometry
	totalPages int
	opts       CacheOptions

	cache    *lru.Cache[pageKey, cacheEntry]
	group    singleflight.Group
	settings DisplaySettings

	generation atomic.Uint64
	unloaded   bool

	// runCtx is cancelled whenever settings change or the cache unloads,
	// abandoning renders computed under the old settings.
	runCtx    context.Context
	runCancel context.CancelFunc

	requests chan prefetchRequest
	visible  chan prefetchRequest // misses of PeekRange, ahead of prefetch
	results  chan renderResult
	pending  map[pageKey]struct{} // queued by PeekRange, not yet applied
	stopped  chan struct{}
	stopOnce sync.Once

	stats CacheStats
}

// NewPageImageCache verifies that src can be opened with password and
// returns a cache for it. Password failures are reported as
// ErrPasswordRequired or ErrInvalidPassword, never as generic errors.
func NewPageImageCache(ctx context.Context, backend Backend, src Source, password string, settings DisplaySettings, opts CacheOptions) (*PageImageCache, error) {
	if password == "" {
		password = src.Password()
	}

	needs, err := backend.NeedsPassword(ctx, src)
	if err != nil {
		return nil, err
	}
	if needs && password == "" {
		return nil, ErrPasswordRequired
	}

	bounds, err := backend.PageBounds(ctx, src, settings.Rotation, password)
	if err != nil {
		return nil, err
	}

	if opts.Size < 1 {
		opts.Size = 16
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	cache, err := lru.New[pageKey, cacheEntry](opts.Size)
	if err != nil {
		return nil, err
	}

	c := &PageImageCache{
		backend:    backend,
		src:        src,
		password:   password,
		bounds:     bounds,
		totalPages: len(bounds),
		opts:       opts,
		cache:      cache,
		settings:   settings,
		requests:   make(chan prefetchRequest, 1),
		visible:    make(chan prefetchRequest, 1),
		results:    make(chan renderResult, 64),
		pending:    make(map[pageKey]struct{}),
		stopped:    make(chan struct{}),
	}
	c.generation.Store(1)
	c.runCtx, c.runCancel = context.WithCancel(context.Background())

	go c.worker(c.requests)
	go c.worker(c.visible)

	logger.Debug("page image cache created", "source", src.String(), "pages", c.totalPages, "size", opts.Size)
	return c, nil
}

// Bounds returns the page geometry read while the cache was created.
func (c *PageImageCache) Bounds() []PageGeometry { return c.bounds }

// TotalPages returns the page count of the source.
func (c *PageImageCache) TotalPages() int { return c.totalPages }

// Password returns the password the cache authenticated with.
func (c *PageImageCache) Password() string { return c.password }

// Settings returns the current display settings.
func (c *PageImageCache) Settings() DisplaySettings { return c.settings }

// Generation returns the document generation; it changes on Unload.
func (c *PageImageCache) Generation() uint64 { return c.generation.Load() }

// Stats returns a copy of the cache counters.
func (c *PageImageCache) Stats() CacheStats {
	s := c.stats
	s.Cached = c.cache.Len()
	return s
}

// SetSettings switches the cache to new display settings. Renders in flight
// for the old settings are abandoned and their results discarded.
func (c *PageImageCache) SetSettings(s DisplaySettings) error {
	if c.unloaded {
		return ErrCacheUnloaded
	}
	if s == c.settings {
		return nil
	}
	c.settings = s
	c.runCancel()
	c.runCtx, c.runCancel = context.WithCancel(context.Background())
	clear(c.pending)
	logger.Debug("page image cache settings changed", "rotation", int(s.Rotation), "zoom", s.Zoom, "pagesPerRow", s.PagesPerRow)
	return nil
}

// FetchRange returns the rows covering pages [start, start+count). Rows are
// rendered lazily while the sequence is consumed; a page that fails to
// render carries its error and does not stop the sequence. A sequence
// consumed after Unload yields one row of ErrCacheUnloaded pages and ends.
func (c *PageImageCache) FetchRange(ctx context.Context, start, count int) (iter.Seq[Row], error) {
	if c.unloaded {
		return nil, ErrCacheUnloaded
	}
	vt, firstRow, lastRow, err := c.span(start, count)
	if err != nil {
		return nil, err
	}
	settings := c.settings
	gen := c.generation.Load()

	return func(yield func(Row) bool) {
		for r := firstRow; r <= lastRow; r++ {
			if ctx.Err() != nil {
				return
			}
			rowStart := RowStart(r, c.totalPages, vt)
			n := RowPageCount(r, c.totalPages, vt)
			row := Row{Index: r, Pages: make([]PageImage, 0, n)}
			if c.unloaded || gen != c.generation.Load() {
				// Consumed after Unload: report it once and stop.
				for p := rowStart; p < rowStart+n; p++ {
					row.Pages = append(row.Pages, PageImage{Index: p, Err: ErrCacheUnloaded})
				}
				yield(row)
				return
			}
			for p := rowStart; p < rowStart+n; p++ {
				row.Pages = append(row.Pages, c.page(ctx, p, settings, gen))
			}
			if !yield(row) {
				return
			}
		}
	}, nil
}

// span resolves the rows covering [start, start+count) under the current
// settings.
func (c *PageImageCache) span(start, count int) (vt ViewType, firstRow, lastRow int, err error) {
	if start < 0 || start >= c.totalPages {
		return 0, 0, 0, fmt.Errorf("fetch from page %d of %d: %w", start, c.totalPages, ErrPageOutOfRange)
	}
	count = max(1, min(count, c.totalPages-start))
	vt = c.settings.ViewType
	if c.settings.PagesPerRow <= 1 {
		vt = SinglePage
	}
	return vt, RowIndex(start, c.totalPages, vt), RowIndex(start+count-1, c.totalPages, vt), nil
}

// PeekRange returns the rows covering pages [start, start+count) without
// rendering. Pages that are not cached carry ErrPagePending and are queued
// for the background workers; once ApplyResults lands them a later call
// returns their bitmaps. It never blocks.
func (c *PageImageCache) PeekRange(start, count int) ([]Row, error) {
	if c.unloaded {
		return nil, ErrCacheUnloaded
	}
	vt, firstRow, lastRow, err := c.span(start, count)
	if err != nil {
		return nil, err
	}

	var missing []int
	rows := make([]Row, 0, lastRow-firstRow+1)
	for r := firstRow; r <= lastRow; r++ {
		rowStart := RowStart(r, c.totalPages, vt)
		n := RowPageCount(r, c.totalPages, vt)
		row := Row{Index: r, Pages: make([]PageImage, 0, n)}
		for p := rowStart; p < rowStart+n; p++ {
			key := c.settings.key(p)
			if e, ok := c.cache.Get(key); ok {
				delete(c.pending, key)
				row.Pages = append(row.Pages, PageImage{Index: p, Image: e.img, Err: e.err})
				continue
			}
			row.Pages = append(row.Pages, PageImage{Index: p, Err: ErrPagePending})
			if _, queued := c.pending[key]; !queued {
				missing = append(missing, p)
			}
		}
		rows = append(rows, row)
	}
	if len(missing) > 0 {
		c.queueVisible(missing)
	}
	return rows, nil
}

// queueVisible hands pages to the visible-page worker. A request the worker
// has not picked up yet is merged into the new one.
func (c *PageImageCache) queueVisible(pages []int) {
	req := prefetchRequest{settings: c.settings, generation: c.generation.Load(), ctx: c.runCtx}
	select {
	case old := <-c.visible:
		if old.settings == req.settings && old.generation == req.generation {
			req.pages = append(req.pages, old.pages...)
		}
	default:
	}
	for _, p := range pages {
		c.pending[req.settings.key(p)] = struct{}{}
		req.pages = append(req.pages, p)
	}
	c.stats.Misses += len(pages)

	select {
	case c.visible <- req:
	default:
		// Only this goroutine sends, and the slot was just drained.
		for _, p := range pages {
			delete(c.pending, req.settings.key(p))
		}
	}
}

// page returns the bitmap for page under settings, rendering it on a miss.
func (c *PageImageCache) page(ctx context.Context, page int, settings DisplaySettings, gen uint64) PageImage {
	key := settings.key(page)
	if e, ok := c.cache.Get(key); ok {
		c.stats.Hits++
		logger.Debug("cache hit", "key", key.String())
		return PageImage{Index: page, Image: e.img, Err: e.err}
	}
	c.stats.Misses++

	e := c.render(ctx, key)
	if errors.Is(e.err, context.Canceled) || errors.Is(e.err, context.DeadlineExceeded) {
		return PageImage{Index: page, Err: e.err}
	}
	if c.current(settings, gen) {
		c.store(key, e)
	} else {
		c.stats.Stale++
	}
	return PageImage{Index: page, Image: e.img, Err: e.err}
}

// render calls the backend, collapsing concurrent renders of the same key.
func (c *PageImageCache) render(ctx context.Context, key pageKey) cacheEntry {
	v, _, _ := c.group.Do(key.String(), func() (any, error) {
		img, err := c.backend.RenderPage(ctx, c.src, key.page, key.rotation, key.zoom, c.password)
		if err != nil {
			if !errors.Is(err, ErrDecodeFailure) && ctx.Err() == nil {
				err = &DecodeError{Page: key.page, Err: err}
			}
			return cacheEntry{err: err}, nil
		}
		return cacheEntry{img: img}, nil
	})
	return v.(cacheEntry)
}

func (c *PageImageCache) store(key pageKey, e cacheEntry) {
	if e.err != nil {
		c.stats.Failed++
		logger.Error("page render failed", "page", key.page+1, "err", e.err)
	} else {
		c.stats.Rendered++
	}
	c.cache.Add(key, e)
}

func (c *PageImageCache) current(settings DisplaySettings, gen uint64) bool {
	return !c.unloaded && gen == c.generation.Load() && settings == c.settings
}

// Prefetch asks the background worker to render neighbours of current in
// direction. A newer request replaces one that has not started yet.
func (c *PageImageCache) Prefetch(current int, direction NavigationDirection) error {
	if c.unloaded {
		return ErrCacheUnloaded
	}
	if c.opts.PrefetchCount == 0 {
		return nil
	}

	pages := c.prefetchPages(current, direction)
	if len(pages) == 0 {
		return nil
	}
	req := prefetchRequest{pages: pages, settings: c.settings, generation: c.generation.Load(), ctx: c.runCtx}

	// Replace a pending request, if any
	select {
	case <-c.requests:
	default:
	}
	select {
	case c.requests <- req:
	default:
		logger.Debug("prefetch request dropped, worker busy")
	}
	return nil
}

// prefetchPages lists the pages to render around current. Pages already in
// the cache are skipped by the worker.
func (c *PageImageCache) prefetchPages(current int, direction NavigationDirection) []int {
	var pages []int
	add := func(p int) {
		if p >= 0 && p < c.totalPages && p != current {
			pages = append(pages, p)
		}
	}

	// Prefetch counts whole rows beyond the current one.
	ppr := max(1, c.settings.PagesPerRow)
	span := c.opts.PrefetchCount * ppr
	switch direction {
	case NavigationForward:
		for i := 1; i <= span+ppr; i++ {
			add(current + i)
		}
	case NavigationBackward:
		for i := ppr - 1; i >= 1; i-- {
			add(current + i)
		}
		for i := 1; i <= span; i++ {
			add(current - i)
		}
	case NavigationJump:
		half := max(1, span/2)
		for i := 1; i <= half+ppr; i++ {
			add(current + i)
		}
		for i := 1; i <= half; i++ {
			add(current - i)
		}
	}
	return pages
}

func (c *PageImageCache) worker(requests <-chan prefetchRequest) {
	for {
		select {
		case <-c.stopped:
			return
		case req := <-requests:
			c.processPrefetch(req)
		}
	}
}

func (c *PageImageCache) processPrefetch(req prefetchRequest) {
	g, ctx := errgroup.WithContext(req.ctx)
	g.SetLimit(c.opts.Workers)
	for _, p := range req.pages {
		key := req.settings.key(p)
		if c.cache.Contains(key) {
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e := c.render(ctx, key)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			select {
			case c.results <- renderResult{key: key, entry: e, settings: req.settings, generation: req.generation}:
			case <-ctx.Done():
				return ctx.Err()
			case <-c.stopped:
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Debug("prefetch abandoned", "err", err)
	}
}

// ApplyResults moves finished background renders into the cache. Results
// computed under settings or a generation that is no longer current are
// discarded. It never blocks and returns the number of results applied.
func (c *PageImageCache) ApplyResults() int {
	applied := 0
	for {
		select {
		case r := <-c.results:
			delete(c.pending, r.key)
			if !c.current(r.settings, r.generation) {
				c.stats.Stale++
				logger.Debug("discarding stale render", "key", r.key.String())
				continue
			}
			c.store(r.key, r.entry)
			applied++
		default:
			return applied
		}
	}
}

// Unload releases all bitmaps, abandons in-flight renders and stops the
// worker. Any later call returns ErrCacheUnloaded.
func (c *PageImageCache) Unload() {
	if c.unloaded {
		return
	}
	c.unloaded = true
	c.generation.Add(1)
	c.runCancel()
	c.stopOnce.Do(func() { close(c.stopped) })
	c.cache.Purge()
	clear(c.pending)
	c.bounds = nil
	c.stats = CacheStats{}
	logger.Debug("page image cache unloaded", "source", c.src.String())
}

// Unloaded reports whether Unload has been called.
func (c *PageImageCache) Unloaded() bool { return c.unloaded }
