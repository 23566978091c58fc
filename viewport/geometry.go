package viewport

import (
	"fmt"
	"sort"
)

// Size is a width/height pair in document units (or pixels, once zoomed).
type Size struct {
	Width  float64
	Height float64
}

// PageGeometry is the natural size of a page for a given rotation.
type PageGeometry = Size

// RowBound is the geometry of one displayed row.
type RowBound struct {
	Size             Size    // bounding box of all pages in the row
	VerticalOffset   float64 // vertical margin added once per row
	HorizontalOffset float64 // total inter-page margin, 0 for single-page rows
}

// SizeIncludingOffset returns the row size with the vertical margin added.
func (r RowBound) SizeIncludingOffset() Size {
	return Size{Width: r.Size.Width, Height: r.Size.Height + r.VerticalOffset}
}

// ViewType selects how pages are grouped into rows.
type ViewType int

const (
	SinglePage ViewType = iota
	Facing
	BookView
)

func (v ViewType) String() string {
	switch v {
	case SinglePage:
		return "Single page"
	case Facing:
		return "Facing"
	case BookView:
		return "Book view"
	default:
		return fmt.Sprintf("ViewType(%d)", int(v))
	}
}

// PagesPerRow returns 1 for SinglePage and 2 otherwise.
func (v ViewType) PagesPerRow() int {
	if v == SinglePage {
		return 1
	}
	return 2
}

// Next cycles SinglePage -> Facing -> BookView -> SinglePage.
func (v ViewType) Next() ViewType {
	switch v {
	case SinglePage:
		return Facing
	case Facing:
		return BookView
	default:
		return SinglePage
	}
}

// RowDisplayMode selects whether the viewport shows the current row alone
// or every row stacked vertically. It is independent of ViewType.
type RowDisplayMode int

const (
	SingleRow RowDisplayMode = iota
	ContinuousRows
)

func (r RowDisplayMode) String() string {
	switch r {
	case SingleRow:
		return "Single row"
	case ContinuousRows:
		return "Continuous"
	default:
		return fmt.Sprintf("RowDisplayMode(%d)", int(r))
	}
}

// Toggle returns the other mode.
func (r RowDisplayMode) Toggle() RowDisplayMode {
	if r == ContinuousRows {
		return SingleRow
	}
	return ContinuousRows
}

// ComputeRows groups pages into rows and returns the geometry of each row.
// The result depends only on its arguments.
func ComputeRows(pages []PageGeometry, viewType ViewType, pagesPerRow int, verticalMargin, horizontalMargin float64) []RowBound {
	if len(pages) == 0 {
		return nil
	}

	if viewType == SinglePage || pagesPerRow <= 1 {
		rows := make([]RowBound, len(pages))
		for i, p := range pages {
			rows[i] = RowBound{Size: p, VerticalOffset: verticalMargin}
		}
		return rows
	}

	stride := min(pagesPerRow, len(pages))
	rows := make([]RowBound, 0, len(pages)/stride+1)
	for i := 0; i < len(pages); {
		if viewType == BookView && i == 0 {
			rows = append(rows, RowBound{Size: pages[0], VerticalOffset: verticalMargin})
			i++
			continue
		}

		end := min(i+stride, len(pages))
		var row Size
		for _, p := range pages[i:end] {
			row.Width += p.Width
			row.Height = max(row.Height, p.Height)
		}
		rows = append(rows, RowBound{
			Size:             row,
			VerticalOffset:   verticalMargin,
			HorizontalOffset: horizontalMargin * float64(end-i-1),
		})
		i = end
	}
	return rows
}

// RowIndex returns the row that displays pageIndex, or -1 if pageIndex is
// outside [0, totalPages).
func RowIndex(pageIndex, totalPages int, viewType ViewType) int {
	if pageIndex < 0 || pageIndex >= totalPages {
		return -1
	}
	ppr := min(viewType.PagesPerRow(), totalPages)
	switch {
	case viewType == SinglePage || ppr <= 1:
		return pageIndex
	case viewType == BookView:
		if pageIndex == 0 {
			return 0
		}
		return (pageIndex-1)/ppr + 1
	default:
		return pageIndex / ppr
	}
}

// RowStart returns the first page index of row, or -1 when the row does not
// exist.
func RowStart(row, totalPages int, viewType ViewType) int {
	if row < 0 || totalPages <= 0 {
		return -1
	}
	ppr := min(viewType.PagesPerRow(), totalPages)
	var start int
	switch {
	case viewType == SinglePage || ppr <= 1:
		start = row
	case viewType == BookView:
		if row == 0 {
			return 0
		}
		start = (row-1)*ppr + 1
	default:
		start = row * ppr
	}
	if start >= totalPages {
		return -1
	}
	return start
}

// RowPageCount returns how many pages row holds.
func RowPageCount(row, totalPages int, viewType ViewType) int {
	start := RowStart(row, totalPages, viewType)
	if start < 0 {
		return 0
	}
	if viewType == BookView && row == 0 {
		return 1
	}
	return min(viewType.PagesPerRow(), totalPages-start)
}

// Layout is the computed row structure of a document for one view type.
type Layout struct {
	Pages    []PageGeometry
	Rows     []RowBound
	ViewType ViewType

	// Tops holds the unzoomed top of every row when the rows are stacked,
	// followed by the total stacked height.
	Tops []float64
}

// NewLayout computes the rows for pages under viewType.
func NewLayout(pages []PageGeometry, viewType ViewType, verticalMargin, horizontalMargin float64) Layout {
	rows := ComputeRows(pages, viewType, viewType.PagesPerRow(), verticalMargin, horizontalMargin)
	tops := make([]float64, len(rows)+1)
	for i, r := range rows {
		tops[i+1] = tops[i] + r.SizeIncludingOffset().Height
	}
	return Layout{
		Pages:    pages,
		Rows:     rows,
		ViewType: viewType,
		Tops:     tops,
	}
}

// TotalPages returns the page count.
func (l Layout) TotalPages() int { return len(l.Pages) }

// RowFor returns the row bound holding pageIndex.
func (l Layout) RowFor(pageIndex int) (RowBound, bool) {
	r := RowIndex(pageIndex, len(l.Pages), l.ViewType)
	if r < 0 || r >= len(l.Rows) {
		return RowBound{}, false
	}
	return l.Rows[r], true
}

// StackHeight returns the unzoomed height of all rows stacked.
func (l Layout) StackHeight() float64 {
	if len(l.Tops) == 0 {
		return 0
	}
	return l.Tops[len(l.Tops)-1]
}

// StackWidth returns the width of the widest row at zoom.
func (l Layout) StackWidth(zoom float64) float64 {
	w := 0.0
	for _, r := range l.Rows {
		w = max(w, r.Size.Width*zoom+r.HorizontalOffset)
	}
	return w
}

// WidestRow returns the row with the largest unzoomed width.
func (l Layout) WidestRow() (RowBound, bool) {
	if len(l.Rows) == 0 {
		return RowBound{}, false
	}
	widest := l.Rows[0]
	for _, r := range l.Rows[1:] {
		if r.Size.Width > widest.Size.Width {
			widest = r
		}
	}
	return widest, true
}

// RowAt returns the row covering the unzoomed stacked offset y, clamped to
// the first and last rows, or -1 when there are no rows.
func (l Layout) RowAt(y float64) int {
	if len(l.Rows) == 0 || len(l.Tops) != len(l.Rows)+1 {
		return -1
	}
	i := sort.Search(len(l.Rows), func(i int) bool { return l.Tops[i+1] > y })
	return min(i, len(l.Rows)-1)
}
