package pagination

import "strconv"

const (
	DefaultPage = 1
	DefaultSize = 20
	MaxSize     = 100
)

// Params is a clamped, 1-indexed page request. Out-of-range values are
// normalized, never rejected.
type Params struct {
	Page int
	Size int
}

// Clamp normalizes page/size into valid bounds.
func Clamp(page, size int) Params {
	if page < 1 {
		page = DefaultPage
	}
	if size < 1 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}
	return Params{Page: page, Size: size}
}

// Clamped returns the params normalized into valid bounds.
func (p Params) Clamped() Params {
	return Clamp(p.Page, p.Size)
}

// FromQuery parses page/size query values. Unparseable or missing
// values fall back to defaults via clamping.
func FromQuery(pageStr, sizeStr string) Params {
	page, err := strconv.Atoi(pageStr)
	if err != nil {
		page = DefaultPage
	}
	size, err := strconv.Atoi(sizeStr)
	if err != nil {
		size = DefaultSize
	}
	return Clamp(page, size)
}

// Offset returns the SQL offset for the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Size
}

// TotalPages returns the page count for a total item count (minimum 1).
func TotalPages(total, size int) int {
	if size < 1 {
		size = DefaultSize
	}
	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	return pages
}
