package imagedoc

import (
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"nvdoc/viewport"
)

// transform rotates img clockwise by rotation and scales it by zoom.
func transform(img image.Image, rotation viewport.Rotation, zoom float64) *image.RGBA {
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	dw, dh := scaledSize(b.Dx(), b.Dy(), rotation, zoom)
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))

	sx, sy := float64(dw), float64(dh)
	if rotation.Swaps() {
		sx, sy = sy, sx
	}
	zx, zy := sx/w, sy/h

	var m f64.Aff3
	switch rotation.Normalize() {
	case viewport.Rotate90:
		m = f64.Aff3{0, -zy, zy * h, zx, 0, 0}
	case viewport.Rotate180:
		m = f64.Aff3{-zx, 0, zx * w, 0, -zy, zy * h}
	case viewport.Rotate270:
		m = f64.Aff3{0, zy, 0, -zx, 0, zx * w}
	default:
		m = f64.Aff3{zx, 0, 0, 0, zy, 0}
	}
	// Account for a source rectangle not anchored at the origin.
	x0, y0 := float64(b.Min.X), float64(b.Min.Y)
	m[2] -= m[0]*x0 + m[1]*y0
	m[5] -= m[3]*x0 + m[4]*y0

	draw.ApproxBiLinear.Transform(dst, m, img, b, draw.Src, nil)
	return dst
}

// scaledSize returns the pixel size of a w x h page after rotation and zoom.
func scaledSize(w, h int, rotation viewport.Rotation, zoom float64) (int, int) {
	if rotation.Swaps() {
		w, h = h, w
	}
	return max(1, int(math.Round(float64(w)*zoom))), max(1, int(math.Round(float64(h)*zoom)))
}
