// Package pager provides deterministic pagination with wraparound.
//
// Page indices are stateless: every button press carries the index it was
// rendered with, and navigation only ever requests the previous index plus
// or minus one (or zero for a fresh view). Out-of-range indices beyond the
// two wraparound sentinels are therefore not guarded.
package pager

// PageSize is the fixed number of items shown per list page.
const PageSize = 5

// Result describes one page of an ordered list.
type Result struct {
	Index   int // clamped 0-based page index
	Start   int // start offset of the visible window
	End     int // end offset of the visible window (exclusive)
	Total   int // total item count
	Display int // 1-based page number, presentation only
}

// Page clamps the requested page index against a list of total items.
//
// Wraparound: requesting the index one past the last page wraps to the
// first page; requesting -1 wraps to total/PageSize, the index reached by
// paging left from the first page.
func Page(total, requested int) Result {
	if total == 0 {
		return Result{Display: 1}
	}

	index := requested
	switch requested {
	case (total + PageSize - 1) / PageSize:
		index = 0
	case -1:
		index = total / PageSize
	}

	start := index * PageSize
	end := start + PageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Result{Index: index, Start: start, End: end, Total: total, Display: index + 1}
}

// Slice applies Page to items and returns the visible window.
func Slice[T any](items []T, requested int) (Result, []T) {
	res := Page(len(items), requested)
	return res, items[res.Start:res.End]
}

// HasNav reports whether previous/next controls should be rendered for a
// list of total items. The decision belongs to the caller; this is the one
// presentation rule shared by every list view.
func HasNav(total int) bool {
	return total > PageSize
}
