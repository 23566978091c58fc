package viewport

// Point is a screen position or a scroll offset.
type Point struct {
	X, Y float64
}

// HitTarget is the element under the pointer. Parent walks towards the
// root; it returns nil at the root.
type HitTarget interface {
	Parent() HitTarget
	IsScrollbar() bool
}

// onScrollbar reports whether t or any of its ancestors is a scrollbar.
func onScrollbar(t HitTarget) bool {
	for ; t != nil; t = t.Parent() {
		if t.IsScrollbar() {
			return true
		}
	}
	return false
}

// DragPanTracker turns pointer drags into clamped scroll offsets.
type DragPanTracker struct {
	armed        bool
	anchor       Point
	anchorOffset Point
}

// Press arms the tracker at screen point p with the current scroll offset.
// Presses on a scrollbar (or inside one) are ignored. It reports whether
// the tracker armed.
func (d *DragPanTracker) Press(p Point, offset Point, target HitTarget) bool {
	if onScrollbar(target) {
		d.armed = false
		return false
	}
	d.armed = true
	d.anchor = p
	d.anchorOffset = offset
	return true
}

// Move returns the scroll offset for pointer position p, clamped to
// [0, extent] on each axis. When an axis hits a boundary the anchor is
// rebased there, so reversing direction moves the content immediately.
func (d *DragPanTracker) Move(p Point, extent Point) (Point, bool) {
	if !d.armed {
		return Point{}, false
	}
	x, ax, aox := dragAxis(d.anchor.X, d.anchorOffset.X, p.X, extent.X)
	y, ay, aoy := dragAxis(d.anchor.Y, d.anchorOffset.Y, p.Y, extent.Y)
	d.anchor = Point{X: ax, Y: ay}
	d.anchorOffset = Point{X: aox, Y: aoy}
	return Point{X: x, Y: y}, true
}

// dragAxis computes one axis and returns the offset plus the (possibly
// rebased) anchor and anchor offset.
func dragAxis(anchor, anchorOffset, cur, extent float64) (offset, newAnchor, newAnchorOffset float64) {
	extent = max(0, extent)
	proposed := anchorOffset + (anchor - cur)
	switch {
	case proposed < 0:
		return 0, cur, 0
	case proposed > extent:
		return extent, cur, extent
	default:
		return proposed, anchor, anchorOffset
	}
}

// Release disarms the tracker.
func (d *DragPanTracker) Release() { d.armed = false }

// Armed reports whether a drag is in progress.
func (d *DragPanTracker) Armed() bool { return d.armed }
