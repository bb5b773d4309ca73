package services

import (
	"math"

	"github.com/princeprakhar/foodnetwork-backend/internal/utils"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type Page struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

// normalize clamps the page into range, falling back to def items per page.
func (p Page) normalize(def int) Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = def
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p Page) offset() int {
	return (p.Page - 1) * p.PageSize
}

func paginated(items interface{}, total int64, p Page) *utils.PaginatedData {
	return &utils.PaginatedData{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(p.PageSize))),
	}
}
