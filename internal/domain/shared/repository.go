package shared

// Filter carries paging, ordering and free-text search for list queries
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
}

// DefaultFilter returns the first page of 80 rows, newest id first
func DefaultFilter() Filter {
	return Filter{Page: 1, PageSize: 80, OrderBy: "id", OrderDir: "desc"}
}

// Offset returns the number of rows skipped before the current page
func (f Filter) Offset() int {
	if f.Page < 1 || f.PageSize < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}
