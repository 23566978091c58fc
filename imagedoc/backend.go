// Package imagedoc is a rendering backend for documents made of raster
// pages: a single image, a directory of images, or a zip, rar or 7z
// archive of images. Rar and 7z archives may be password protected.
package imagedoc

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"nvdoc/logger"
	"nvdoc/viewport"
)

// document is the parsed index of one source.
type document struct {
	format   format
	src      viewport.Source
	password string
	entries  []Entry

	sizesOnce sync.Once
	sizes     []viewport.Size
	sizesErr  error
}

// Backend implements viewport.Backend. It is safe for concurrent use.
type Backend struct {
	sortMethod atomic.Int32
	docs       *lru.Cache[string, *document]
	sizes      *lru.Cache[string, pageSizes]
}

var _ viewport.Backend = (*Backend)(nil)

// New returns a Backend ordering pages with sortMethod.
func New(sortMethod int) *Backend {
	docs, err := lru.New[string, *document](8)
	if err != nil {
		panic(err)
	}
	sizes, err := lru.New[string, pageSizes](8)
	if err != nil {
		panic(err)
	}
	b := &Backend{docs: docs, sizes: sizes}
	b.sortMethod.Store(int32(sortMethod))
	return b
}

// SortStrategy returns the active page ordering.
func (b *Backend) SortStrategy() SortStrategy { return GetSortStrategy(int(b.sortMethod.Load())) }

// SetSortMethod changes the page ordering. Indexed documents are dropped so
// the next open sees the new order; an open viewport.Model must Reload.
func (b *Backend) SetSortMethod(sortMethod int) {
	if int(b.sortMethod.Swap(int32(sortMethod))) != sortMethod {
		b.docs.Purge()
		logger.Debug("sort method changed", "method", GetSortStrategy(sortMethod).Name())
	}
}

func docKey(src viewport.Source, password string) string {
	if data := src.Data(); len(data) > 0 {
		return fmt.Sprintf("mem:%s:%p:%d:%s", src.Name(), &data[0], len(data), password)
	}
	return fmt.Sprintf("file:%s:%s", src.Path(), password)
}

// open returns the (cached) document index for src.
func (b *Backend) open(src viewport.Source, password string) (*document, error) {
	key := docKey(src, password)
	if d, ok := b.docs.Get(key); ok {
		return d, nil
	}

	f, err := detectFormat(src)
	if err != nil {
		return nil, err
	}
	entries, err := listEntries(f, src, password)
	if err != nil {
		return nil, classify(err, password, -1)
	}
	entries = b.SortStrategy().Sort(entries)

	d := &document{format: f, src: src, password: password, entries: entries}
	b.docs.Add(key, d)
	logger.Debug("document indexed", "source", src.String(), "format", f.String(), "pages", len(entries))
	return d, nil
}

// classify maps an archive error to the viewport error kinds.
func classify(err error, password string, page int) error {
	if looksEncrypted(err) {
		if password == "" {
			return viewport.ErrPasswordRequired
		}
		return viewport.ErrInvalidPassword
	}
	return &viewport.DecodeError{Page: page, Err: err}
}

// NeedsPassword reports whether src is encrypted. Only rar and 7z archives
// can be; the first page is read without a password.
func (b *Backend) NeedsPassword(ctx context.Context, src viewport.Source) (bool, error) {
	f, err := detectFormat(src)
	if err != nil {
		return false, err
	}
	if f != formatRar && f != format7z {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	entries, err := listEntries(f, src, "")
	if err != nil {
		if looksEncrypted(err) {
			return true, nil
		}
		return false, &viewport.DecodeError{Page: -1, Err: err}
	}
	if len(entries) == 0 {
		return false, nil
	}
	if _, err := readEntry(f, src, "", entries[0]); err != nil {
		// Encrypted data with plain headers usually fails as a checksum
		// error rather than naming the password.
		logger.Debug("trial read failed, assuming encryption", "source", src.String(), "err", err)
		return true, nil
	}
	return false, nil
}

// PageBounds returns the natural page sizes under rotation.
func (b *Backend) PageBounds(ctx context.Context, src viewport.Source, rotation viewport.Rotation, password string) ([]viewport.PageGeometry, error) {
	if password == "" {
		password = src.Password()
	}
	d, err := b.open(src, password)
	if err != nil {
		return nil, err
	}
	if err := b.verify(ctx, d); err != nil {
		return nil, err
	}

	d.sizesOnce.Do(func() { d.sizes, d.sizesErr = b.readSizes(ctx, d) })
	if d.sizesErr != nil {
		err := d.sizesErr
		// A cancelled scan must not stick.
		if ctx.Err() != nil {
			b.docs.Remove(docKey(src, password))
		}
		return nil, err
	}

	pages := make([]viewport.PageGeometry, len(d.sizes))
	for i, s := range d.sizes {
		if rotation.Swaps() {
			s.Width, s.Height = s.Height, s.Width
		}
		pages[i] = s
	}
	return pages, nil
}

// verify checks the password of an encrypted archive by reading its first
// page.
func (b *Backend) verify(ctx context.Context, d *document) error {
	if d.format != formatRar && d.format != format7z || len(d.entries) == 0 {
		return nil
	}
	if _, err := readEntry(d.format, d.src, d.password, d.entries[0]); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		needs, nerr := b.NeedsPassword(ctx, d.src)
		if nerr == nil && needs {
			b.docs.Remove(docKey(d.src, d.password))
			if d.password == "" {
				return viewport.ErrPasswordRequired
			}
			return viewport.ErrInvalidPassword
		}
		return classify(err, d.password, 0)
	}
	return nil
}

// pageSizes maps entry names to their natural sizes. It does not depend on
// the sort order, so it outlives the document index across sort changes.
type pageSizes map[string]viewport.Size

// readSizes returns the natural size of every entry of d in page order,
// decoding only image headers in one pass over the container.
func (b *Backend) readSizes(ctx context.Context, d *document) ([]viewport.Size, error) {
	key := docKey(d.src, d.password)
	known, ok := b.sizes.Get(key)
	if !ok {
		known = make(pageSizes, len(d.entries))
		bad := make(map[string]error)
		err := scanEntries(ctx, d.format, d.src, d.password, func(name string, r io.Reader) error {
			cfg, _, err := image.DecodeConfig(r)
			if err != nil {
				bad[name] = err
				return nil
			}
			known[name] = viewport.Size{Width: float64(cfg.Width), Height: float64(cfg.Height)}
			return nil
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, classify(err, d.password, -1)
		}
		for i, e := range d.entries {
			if err, failed := bad[e.Name]; failed {
				return nil, &viewport.DecodeError{Page: i, Err: fmt.Errorf("%s: %w", e.Name, err)}
			}
		}
		b.sizes.Add(key, known)
	}

	sizes := make([]viewport.Size, len(d.entries))
	for i, e := range d.entries {
		s, found := known[e.Name]
		if !found {
			return nil, &viewport.DecodeError{Page: i, Err: fmt.Errorf("%s: no image header read", e.Name)}
		}
		sizes[i] = s
	}
	return sizes, nil
}

// RenderPage decodes page pageIndex and returns it rotated and scaled.
func (b *Backend) RenderPage(ctx context.Context, src viewport.Source, pageIndex int, rotation viewport.Rotation, zoom float64, password string) (image.Image, error) {
	if password == "" {
		password = src.Password()
	}
	d, err := b.open(src, password)
	if err != nil {
		return nil, err
	}
	if pageIndex < 0 || pageIndex >= len(d.entries) {
		return nil, fmt.Errorf("page %d of %d: %w", pageIndex+1, len(d.entries), viewport.ErrPageOutOfRange)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e := d.entries[pageIndex]
	data, err := readEntry(d.format, d.src, d.password, e)
	if err != nil {
		return nil, classify(err, password, pageIndex)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &viewport.DecodeError{Page: pageIndex, Err: fmt.Errorf("decoding %s: %w", e.Name, err)}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return transform(img, rotation, zoom), nil
}

// Entries returns the ordered page entries of src.
func (b *Backend) Entries(src viewport.Source, password string) ([]Entry, error) {
	d, err := b.open(src, password)
	if err != nil {
		return nil, err
	}
	return cloneEntries(d.entries), nil
}
