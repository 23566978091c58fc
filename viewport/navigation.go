package viewport

// NextPageIndex returns the first page of the row after current, or -1 when
// current is already on the last row.
func NextPageIndex(current, totalPages int, viewType ViewType) int {
	if totalPages <= 0 || current < 0 {
		return -1
	}
	step := min(viewType.PagesPerRow(), totalPages)
	if viewType == BookView && current == 0 {
		step = 1
	}
	next := current + step
	if next >= totalPages {
		return -1
	}
	return next
}

// PreviousPageIndex returns the first page of the row before current, or -1
// at index 0.
func PreviousPageIndex(current, totalPages int, viewType ViewType) int {
	if totalPages <= 0 || current <= 0 {
		return -1
	}
	if current >= totalPages {
		current = totalPages - 1
	}
	step := min(viewType.PagesPerRow(), totalPages)
	prev := current - step
	if prev < 0 || (viewType == BookView && prev < 1) {
		return 0
	}
	return prev
}

// ClampPageNumber clamps a 1-based page number into [1, totalPages] and
// returns the matching 0-based index. It returns -1 for an empty document.
func ClampPageNumber(n, totalPages int) int {
	if totalPages <= 0 {
		return -1
	}
	n = max(1, min(n, totalPages))
	return n - 1
}

// AlignToRow moves pageIndex to the first page of its row.
func AlignToRow(pageIndex, totalPages int, viewType ViewType) int {
	row := RowIndex(pageIndex, totalPages, viewType)
	if row < 0 {
		return -1
	}
	return RowStart(row, totalPages, viewType)
}
