package viewport

import (
	"context"
	"fmt"
	"image"
)

// Rotation is a clockwise page rotation in degrees: 0, 90, 180 or 270.
type Rotation int

const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 90
	Rotate180 Rotation = 180
	Rotate270 Rotation = 270
)

// Normalize folds r into [0, 360) in quarter turns.
func (r Rotation) Normalize() Rotation {
	n := (int(r)/90*90)%360 + 360
	return Rotation(n % 360)
}

// Right returns r turned a quarter clockwise.
func (r Rotation) Right() Rotation { return (r + 90).Normalize() }

// Left returns r turned a quarter counter-clockwise.
func (r Rotation) Left() Rotation { return (r - 90).Normalize() }

// Swaps reports whether r exchanges width and height.
func (r Rotation) Swaps() bool {
	n := r.Normalize()
	return n == Rotate90 || n == Rotate270
}

func (r Rotation) String() string { return fmt.Sprintf("%d°", int(r.Normalize())) }

// Backend is the rendering backend contract. Implementations must be safe
// for concurrent use: RenderPage is called from background workers.
type Backend interface {
	// PageBounds returns the natural size of every page under rotation.
	// It fails with ErrPasswordRequired or ErrInvalidPassword for
	// encrypted documents.
	PageBounds(ctx context.Context, src Source, rotation Rotation, password string) ([]PageGeometry, error)

	// NeedsPassword reports whether src is encrypted.
	NeedsPassword(ctx context.Context, src Source) (bool, error)

	// RenderPage renders one page at zoom.
	RenderPage(ctx context.Context, src Source, pageIndex int, rotation Rotation, zoom float64, password string) (image.Image, error)
}
