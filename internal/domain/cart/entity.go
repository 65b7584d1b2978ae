// internal/domain/cart/entity.go
package cart

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"drmoto/internal/domain/product"
)

var (
	ErrInvalidCart    = errors.New("cart: invalid")
	ErrInvalidProduct = errors.New("cart: invalid product")
)

// LineItem is one product-quantity pairing.
// Subtotal is always UnitPrice × Quantity.
type LineItem struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Image     string          `json:"image,omitempty"`
}

// Cart holds line items in insertion order, at most one per product id.
// Mutators work in place; callers that need to keep the previous state Clone first.
type Cart struct {
	Items []LineItem `json:"items"`
}

// New builds a cart from persisted items, merging duplicates.
func New(items []LineItem) *Cart {
	c := &Cart{Items: cloneItems(items)}
	c.Normalize()
	return c
}

// Add increments the line for p, or appends a new line with quantity 1.
func (c *Cart) Add(p product.Product) error {
	if c == nil {
		return ErrInvalidCart
	}
	if p.ID <= 0 || p.Price.IsNegative() {
		return ErrInvalidProduct
	}

	if idx := c.indexOf(p.ID); idx >= 0 {
		c.Items[idx].Quantity++
		c.Items[idx].recompute()
		return nil
	}

	it := LineItem{
		ProductID: p.ID,
		Name:      strings.TrimSpace(p.Name),
		UnitPrice: p.Price,
		Quantity:  1,
		Image:     strings.TrimSpace(p.Image),
	}
	it.recompute()
	c.Items = append(c.Items, it)
	return nil
}

// SetQty sets the quantity of an existing line. qty <= 0 removes it.
// An unknown product id is a no-op.
func (c *Cart) SetQty(productID int64, qty int) error {
	if c == nil {
		return ErrInvalidCart
	}
	if qty <= 0 {
		return c.Remove(productID)
	}
	idx := c.indexOf(productID)
	if idx < 0 {
		return nil
	}
	c.Items[idx].Quantity = qty
	c.Items[idx].recompute()
	return nil
}

// Remove drops the line for productID; no-op if absent.
func (c *Cart) Remove(productID int64) error {
	if c == nil {
		return ErrInvalidCart
	}
	idx := c.indexOf(productID)
	if idx < 0 {
		return nil
	}
	c.Items = append(c.Items[:idx:idx], c.Items[idx+1:]...)
	return nil
}

// Clear empties the cart.
func (c *Cart) Clear() {
	if c == nil {
		return
	}
	c.Items = []LineItem{}
}

// Consume takes the quantities of an ordered snapshot out of the cart.
// Lines added or raised after the snapshot keep the difference.
func (c *Cart) Consume(ordered []LineItem) {
	if c == nil {
		return
	}
	for _, it := range ordered {
		idx := c.indexOf(it.ProductID)
		if idx < 0 {
			continue
		}
		c.Items[idx].Quantity -= it.Quantity
		if c.Items[idx].Quantity <= 0 {
			_ = c.Remove(it.ProductID)
			continue
		}
		c.Items[idx].recompute()
	}
}

// Total is the sum of the line subtotals.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	if c == nil {
		return total
	}
	for _, it := range c.Items {
		total = total.Add(it.Subtotal)
	}
	return total
}

// ItemCount is the sum of quantities.
func (c *Cart) ItemCount() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// Snapshot returns a copy of the items.
func (c *Cart) Snapshot() []LineItem {
	if c == nil {
		return []LineItem{}
	}
	return cloneItems(c.Items)
}

// Clone returns an independent copy.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return &Cart{Items: []LineItem{}}
	}
	return &Cart{Items: cloneItems(c.Items)}
}

// Normalize drops invalid lines, merges duplicates (first position wins)
// and recomputes every subtotal.
func (c *Cart) Normalize() {
	if c == nil {
		return
	}
	out := make([]LineItem, 0, len(c.Items))
	pos := make(map[int64]int, len(c.Items))
	for _, it := range c.Items {
		if it.ProductID <= 0 || it.Quantity <= 0 || it.UnitPrice.IsNegative() {
			continue
		}
		if i, ok := pos[it.ProductID]; ok {
			out[i].Quantity += it.Quantity
			out[i].recompute()
			continue
		}
		it.Name = strings.TrimSpace(it.Name)
		it.recompute()
		pos[it.ProductID] = len(out)
		out = append(out, it)
	}
	c.Items = out
}

func (c *Cart) indexOf(productID int64) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (it *LineItem) recompute() {
	it.Subtotal = it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

func cloneItems(src []LineItem) []LineItem {
	out := make([]LineItem, len(src))
	copy(out, src)
	return out
}
