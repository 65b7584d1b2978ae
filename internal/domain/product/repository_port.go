package product

import "context"

// CatalogPort is the read side of the product API.
type CatalogPort interface {
	List(ctx context.Context, f Filter) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	Categories(ctx context.Context) ([]Category, error)
	Search(ctx context.Context, query string) ([]Product, error)
}
