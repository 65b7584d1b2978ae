package usecase

import (
	"context"
	"errors"
	"strings"

	productdom "drmoto/internal/domain/product"
)

var (
	ErrCatalogUnavailable = errors.New("catalog: not configured")
	ErrOutOfStock         = errors.New("catalog: product out of stock")
)

// CatalogUsecase reads the product API and feeds the cart.
type CatalogUsecase struct {
	catalog productdom.CatalogPort
	cart    *CartManager
}

func NewCatalogUsecase(catalog productdom.CatalogPort, cart *CartManager) *CatalogUsecase {
	return &CatalogUsecase{catalog: catalog, cart: cart}
}

// Queries

func (u *CatalogUsecase) Products(ctx context.Context, categoryID int64) ([]productdom.Product, error) {
	if u.catalog == nil {
		return nil, ErrCatalogUnavailable
	}
	return u.catalog.List(ctx, productdom.Filter{CategoryID: categoryID})
}

func (u *CatalogUsecase) Product(ctx context.Context, id int64) (*productdom.Product, error) {
	if u.catalog == nil {
		return nil, ErrCatalogUnavailable
	}
	if id <= 0 {
		return nil, productdom.ErrInvalidID
	}
	return u.catalog.GetByID(ctx, id)
}

func (u *CatalogUsecase) Categories(ctx context.Context) ([]productdom.Category, error) {
	if u.catalog == nil {
		return nil, ErrCatalogUnavailable
	}
	return u.catalog.Categories(ctx)
}

func (u *CatalogUsecase) Search(ctx context.Context, q string) ([]productdom.Product, error) {
	if u.catalog == nil {
		return nil, ErrCatalogUnavailable
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return u.catalog.List(ctx, productdom.Filter{})
	}
	return u.catalog.Search(ctx, q)
}

// Commands

// AddToCart fetches the product and adds one unit of it to the cart.
func (u *CatalogUsecase) AddToCart(ctx context.Context, productID int64) (*productdom.Product, error) {
	p, err := u.Product(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.InStock() {
		return nil, ErrOutOfStock
	}
	if err := u.cart.Add(ctx, *p); err != nil {
		return nil, err
	}
	return p, nil
}
