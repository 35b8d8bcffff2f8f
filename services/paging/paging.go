package paging

import "gorm.io/gorm"

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params is the page/limit pair accepted by list endpoints.
type Params struct {
	Page  int `query:"page" json:"page"`
	Limit int `query:"limit" json:"limit"`
}

// Normalize fills defaults and caps the limit.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

func (p Params) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.Limit
}

// Scope applies offset and limit to a query.
func (p Params) Scope(db *gorm.DB) *gorm.DB {
	p = p.Normalize()
	return db.Offset(p.Offset()).Limit(p.Limit)
}

type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

func (p Params) Result(total int64) Pagination {
	p = p.Normalize()
	return Pagination{Total: total, Page: p.Page, Limit: p.Limit}
}
