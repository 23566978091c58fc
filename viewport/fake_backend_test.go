package viewport

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
)

// fakeBackend is an in-memory Backend. Page i renders as a 1x1 image whose
// bounds encode nothing; tests look at render counts and errors.
type fakeBackend struct {
	pages    []Size
	password string // non-empty means encrypted

	mu      sync.Mutex
	fail    map[int]error
	gate    chan struct{} // when set, RenderPage waits on it
	started chan int      // when set, RenderPage reports the page it starts

	renders    atomic.Int32
	boundCalls atomic.Int32
}

func newFakeBackend(pages ...Size) *fakeBackend {
	return &fakeBackend{pages: pages, fail: map[int]error{}}
}

func uniformPages(n int, w, h float64) []Size {
	pages := make([]Size, n)
	for i := range pages {
		pages[i] = Size{Width: w, Height: h}
	}
	return pages
}

func (f *fakeBackend) NeedsPassword(ctx context.Context, src Source) (bool, error) {
	return f.password != "", nil
}

func (f *fakeBackend) PageBounds(ctx context.Context, src Source, rotation Rotation, password string) ([]PageGeometry, error) {
	f.boundCalls.Add(1)
	if f.password != "" {
		if password == "" {
			return nil, ErrPasswordRequired
		}
		if password != f.password {
			return nil, ErrInvalidPassword
		}
	}
	out := make([]PageGeometry, len(f.pages))
	for i, p := range f.pages {
		if rotation.Swaps() {
			p.Width, p.Height = p.Height, p.Width
		}
		out[i] = p
	}
	return out, nil
}

func (f *fakeBackend) RenderPage(ctx context.Context, src Source, pageIndex int, rotation Rotation, zoom float64, password string) (image.Image, error) {
	if f.started != nil {
		f.started <- pageIndex
	}
	f.mu.Lock()
	gate := f.gate
	err := f.fail[pageIndex]
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.renders.Add(1)
	if err != nil {
		return nil, err
	}
	if pageIndex < 0 || pageIndex >= len(f.pages) {
		return nil, errors.New("no such page")
	}
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}

func (f *fakeBackend) failPage(i int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[i] = err
}
