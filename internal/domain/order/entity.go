// internal/domain/order/entity.go
package order

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"drmoto/internal/domain/cart"
)

// ========================================
// Snapshot structs (stored in Order)
// ========================================

// Line is one cart line frozen at checkout.
type Line struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// ========================================
// Entity
// ========================================

type Order struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Items     []Line          `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Currency  string          `json:"currency"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Receipt is what the order API returns once it accepts an order.
type Receipt struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// ========================================
// Errors
// ========================================

var (
	ErrInvalidID        = errors.New("order: invalid id")
	ErrInvalidUserID    = errors.New("order: invalid userId")
	ErrInvalidItems     = errors.New("order: invalid items")
	ErrInvalidCurrency  = errors.New("order: invalid currency")
	ErrInvalidCreatedAt = errors.New("order: invalid createdAt")
	ErrInvalidTotal     = errors.New("order: total does not match items")
)

// ========================================
// Policy
// ========================================

var (
	MinItemsRequired = 1
	DefaultCurrency  = "EUR"
)

// ========================================
// Constructors
// ========================================

// FromCart freezes a cart snapshot into a new order with a random id.
func FromCart(userID string, items []cart.LineItem, currency string, now time.Time) (Order, error) {
	lines := make([]Line, 0, len(items))
	total := decimal.Zero
	for _, it := range items {
		l := Line{
			ProductID: it.ProductID,
			Name:      strings.TrimSpace(it.Name),
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Subtotal:  it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))),
		}
		total = total.Add(l.Subtotal)
		lines = append(lines, l)
	}

	cur := strings.ToUpper(strings.TrimSpace(currency))
	if cur == "" {
		cur = DefaultCurrency
	}

	o := Order{
		ID:        uuid.NewString(),
		UserID:    strings.TrimSpace(userID),
		Items:     lines,
		Total:     total,
		Currency:  cur,
		CreatedAt: now.UTC(),
	}
	if err := o.Validate(); err != nil {
		return Order{}, err
	}
	return o, nil
}

// ========================================
// Validation
// ========================================

func (o Order) Validate() error {
	if _, err := uuid.Parse(o.ID); err != nil {
		return ErrInvalidID
	}
	if o.UserID == "" {
		return ErrInvalidUserID
	}
	if len(o.Currency) != 3 {
		return ErrInvalidCurrency
	}
	if o.CreatedAt.IsZero() {
		return ErrInvalidCreatedAt
	}
	if len(o.Items) < MinItemsRequired {
		return ErrInvalidItems
	}
	sum := decimal.Zero
	for _, l := range o.Items {
		if l.ProductID <= 0 || l.Quantity <= 0 || l.UnitPrice.IsNegative() {
			return ErrInvalidItems
		}
		sum = sum.Add(l.Subtotal)
	}
	if !sum.Equal(o.Total) {
		return ErrInvalidTotal
	}
	return nil
}

// ItemCount is the sum of line quantities.
func (o Order) ItemCount() int {
	n := 0
	for _, l := range o.Items {
		n += l.Quantity
	}
	return n
}
