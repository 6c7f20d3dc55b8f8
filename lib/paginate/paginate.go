package paginate

import "fmt"

// Size is the number of entries shown per page in listings.
const Size = 10

// Page describes one window over a list of Count entries.
type Page struct {
	Index int
	Total int
	Start int
	End   int
	Count int
}

// New clamps index into the valid range for count entries split into pages of size.
// An empty list has one empty page.
func New(count, index, size int) Page {
	if size <= 0 {
		size = Size
	}
	total := (count + size - 1) / size
	if total == 0 {
		total = 1
	}
	if index < 0 {
		index = 0
	}
	if index > total-1 {
		index = total - 1
	}
	start := index * size
	end := start + size
	if end > count {
		end = count
	}
	if start > count {
		start = count
	}
	return Page{Index: index, Total: total, Start: start, End: end, Count: count}
}

func (p Page) HasPrev() bool {
	return p.Index > 0
}

func (p Page) HasNext() bool {
	return p.Index < p.Total-1
}

// Multiple reports whether navigation is needed at all.
func (p Page) Multiple() bool {
	return p.Total > 1
}

// Label renders the one-based position, e.g. "2/5".
func (p Page) Label() string {
	return fmt.Sprintf("%d/%d", p.Index+1, p.Total)
}

// Slice returns the entries of items that fall on page p.
func Slice[T any](items []T, p Page) []T {
	if p.Start >= len(items) {
		return nil
	}
	end := p.End
	if end > len(items) {
		end = len(items)
	}
	return items[p.Start:end]
}
