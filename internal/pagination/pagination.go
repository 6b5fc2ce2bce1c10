// Package pagination holds the page-control arithmetic shared by list screens.
package pagination

// DefaultPageSize is the page size a list starts with.
const DefaultPageSize = 10

// PageSizes are the selectable page sizes.
var PageSizes = []int{10, 20, 50, 100}

// State is the position of a list view.
type State struct {
	Page  int
	Pages int
	Limit int
}

// New returns a state on page 1 with the default page size.
func New() State {
	return State{Page: 1, Pages: 1, Limit: DefaultPageSize}
}

// Visible reports whether page controls should be shown at all.
func (s State) Visible() bool { return s.Pages > 1 }

// HasPrev reports whether a previous page exists.
func (s State) HasPrev() bool { return s.Page > 1 }

// HasNext reports whether a next page exists.
func (s State) HasNext() bool { return s.Page < s.Pages }

// Prev moves back one page, stopping at 1.
func (s State) Prev() State {
	s.Page = max(1, s.Page-1)
	return s
}

// Next moves forward one page, stopping at the last page.
func (s State) Next() State {
	s.Page = min(max(1, s.Pages), s.Page+1)
	return s
}

// Jump moves to page p clamped to [1, Pages].
func (s State) Jump(p int) State {
	s.Page = Clamp(p, s.Pages)
	return s
}

// WithLimit changes the page size and resets to page 1. Unknown sizes fall
// back to DefaultPageSize.
func (s State) WithLimit(limit int) State {
	if !ValidSize(limit) {
		limit = DefaultPageSize
	}
	s.Limit = limit
	s.Page = 1
	return s
}

// Update takes page and pages from a server reply, keeping the limit.
func (s State) Update(page, pages int) State {
	if pages < 1 {
		pages = 1
	}
	s.Pages = pages
	s.Page = Clamp(page, pages)
	return s
}

// Clamp bounds p to [1, pages].
func Clamp(p, pages int) int {
	if pages < 1 {
		pages = 1
	}
	return min(max(1, p), pages)
}

// ValidSize reports whether n is one of PageSizes.
func ValidSize(n int) bool {
	for _, s := range PageSizes {
		if s == n {
			return true
		}
	}
	return false
}

// Window returns up to width page numbers centred on the current page,
// for rendering numbered controls.
func (s State) Window(width int) []int {
	if width < 1 || s.Pages < 1 {
		return nil
	}
	width = min(width, s.Pages)
	start := s.Page - width/2
	start = max(1, min(start, s.Pages-width+1))
	out := make([]int, width)
	for i := range out {
		out[i] = start + i
	}
	return out
}
