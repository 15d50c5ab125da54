package domain

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is a zero-based page request.
type Page struct {
	Number int `json:"page"`
	Size   int `json:"size"`
}

// Normalize clamps the page into valid bounds.
func (p Page) Normalize() Page {
	if p.Number < 0 {
		p.Number = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) Offset() int {
	n := p.Normalize()
	return n.Number * n.Size
}

type PagedResult[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

func NewPagedResult[T any](items []T, page Page, total int64) PagedResult[T] {
	page = page.Normalize()
	if items == nil {
		items = []T{}
	}
	pages := int((total + int64(page.Size) - 1) / int64(page.Size))
	return PagedResult[T]{
		Items:      items,
		Page:       page.Number,
		Size:       page.Size,
		TotalItems: total,
		TotalPages: pages,
	}
}
