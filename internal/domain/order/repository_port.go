package order

import "context"

// SubmitterPort sends a finished order to the order API.
type SubmitterPort interface {
	Create(ctx context.Context, o Order) (Receipt, error)
}
