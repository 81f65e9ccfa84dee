package pager

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPage_Empty(t *testing.T) {
	res := Page(0, 0)

	assert.Equal(t, 0, res.Index)
	assert.Equal(t, 0, res.Total)
	assert.Equal(t, 1, res.Display)
	assert.Equal(t, res.Start, res.End)
}

func TestPage_Basic(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		requested int
		index     int
		start     int
		end       int
		display   int
	}{
		{name: "first page of short list", total: 3, requested: 0, index: 0, start: 0, end: 3, display: 1},
		{name: "first page of long list", total: 12, requested: 0, index: 0, start: 0, end: 5, display: 1},
		{name: "middle page", total: 12, requested: 1, index: 1, start: 5, end: 10, display: 2},
		{name: "partial last page", total: 12, requested: 2, index: 2, start: 10, end: 12, display: 3},
		{name: "wrap right past last page", total: 12, requested: 3, index: 0, start: 0, end: 5, display: 1},
		{name: "wrap left from first page", total: 12, requested: -1, index: 2, start: 10, end: 12, display: 3},
		{name: "wrap left with exact multiple", total: 10, requested: -1, index: 2, start: 10, end: 10, display: 3},
		{name: "wrap right with exact multiple", total: 10, requested: 2, index: 0, start: 0, end: 5, display: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Page(tt.total, tt.requested)
			assert.Equal(t, tt.index, res.Index)
			assert.Equal(t, tt.start, res.Start)
			assert.Equal(t, tt.end, res.End)
			assert.Equal(t, tt.total, res.Total)
			assert.Equal(t, tt.display, res.Display)
		})
	}
}

// Every item appears on exactly one page: the window sizes over all valid
// page indices sum to the total.
func TestPage_TotalInvariant(t *testing.T) {
	for total := 0; total <= 23; total++ {
		sum := 0
		pages := (total + PageSize - 1) / PageSize
		for idx := 0; idx < pages; idx++ {
			res := Page(total, idx)
			sum += res.End - res.Start
		}
		assert.Equal(t, total, sum, "total=%d", total)
	}
}

func TestPage_WraparoundEquivalence(t *testing.T) {
	for total := 1; total <= 23; total++ {
		pastLast := (total + PageSize - 1) / PageSize
		assert.Equal(t, Page(total, 0), Page(total, pastLast), "total=%d", total)

		left := Page(total, -1)
		if total%PageSize == 0 {
			// Exact multiples of the page size have no partial last page:
			// paging left from the first page lands on the empty window one
			// past the last full page. Requesting that index directly would
			// wrap right to page 0 instead, so no equivalence holds here.
			assert.Equal(t, total/PageSize, left.Index, "total=%d", total)
			assert.Equal(t, left.Start, left.End, "total=%d", total)
		} else {
			assert.Equal(t, Page(total, total/PageSize), left, "total=%d", total)
		}
	}
}

func TestSlice(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f", "g"}

	res, visible := Slice(items, 1)
	assert.Equal(t, 1, res.Index)
	assert.Equal(t, []string{"f", "g"}, visible)

	res, visible = Slice([]string{}, 0)
	assert.Empty(t, visible)
	assert.Equal(t, 0, res.Total)
}

func TestHasNav(t *testing.T) {
	assert.False(t, HasNav(0))
	assert.False(t, HasNav(PageSize))
	assert.True(t, HasNav(PageSize+1))
}
