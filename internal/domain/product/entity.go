package product

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Product is the catalog read model served by the product API.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
	CategoryID  int64           `json:"categoryId"`
	Stock       *int            `json:"stock,omitempty"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

var (
	ErrInvalidID    = errors.New("product: invalid id")
	ErrInvalidName  = errors.New("product: invalid name")
	ErrInvalidPrice = errors.New("product: invalid price")
	ErrNotFound     = errors.New("product: not found")
)

func (p Product) Validate() error {
	if p.ID <= 0 {
		return ErrInvalidID
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrInvalidName
	}
	if p.Price.IsNegative() {
		return ErrInvalidPrice
	}
	return nil
}

// InStock reports whether the product can be added; unknown stock counts as available.
func (p Product) InStock() bool {
	return p.Stock == nil || *p.Stock > 0
}

// Filter narrows a catalog listing. Zero values match everything.
type Filter struct {
	CategoryID int64
	Query      string
}

// Match applies f locally, case-insensitive on name and description.
func (f Filter) Match(p Product) bool {
	if f.CategoryID > 0 && p.CategoryID != f.CategoryID {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.Description), q)
}
