package utils

import "strconv"

const MaxPageLimit = 100

type Page struct {
	Page  int
	Limit int
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// TotalPages returns how many pages of p.Limit fit total items.
func (p Page) TotalPages(total int64) int {
	if p.Limit <= 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}

// ParsePage reads page and limit query values, falling back to page 1 and
// defaultLimit. Limits above MaxPageLimit are clamped.
func ParsePage(pageStr, limitStr string, defaultLimit int) Page {
	p := Page{Page: 1, Limit: defaultLimit}

	if n, err := strconv.Atoi(pageStr); err == nil && n > 0 {
		p.Page = n
	}
	if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
		p.Limit = n
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}
