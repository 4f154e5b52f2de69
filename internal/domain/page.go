package domain

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// PaginationParams carries page/limit values from the HTTP layer to the
// journal repo. Page is 1-indexed.
type PaginationParams struct {
	Page  int
	Limit int
}

// NewPaginationParams builds a PaginationParams from optional query values.
// Nil or non-positive values fall back to page 1 and a limit of 50; the limit
// is capped at 200.
func NewPaginationParams(page, limit *int) PaginationParams {
	p := PaginationParams{Page: 1, Limit: defaultPageLimit}
	if page != nil && *page >= 1 {
		p.Page = *page
	}
	if limit != nil && *limit >= 1 {
		p.Limit = min(*limit, maxPageLimit)
	}
	return p
}

// Offset returns the zero-based row offset for a SQL OFFSET clause.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pages returns how many pages of p.Limit rows are needed to hold total rows.
func (p PaginationParams) Pages(total int64) int {
	if total <= 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}
