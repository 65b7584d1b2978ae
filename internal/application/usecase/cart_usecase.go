// internal/application/usecase/cart_usecase.go
package usecase

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"drmoto/internal/application/observable"
	cartdom "drmoto/internal/domain/cart"
	productdom "drmoto/internal/domain/product"
)

// CartManager owns the line items of the local cart. Every mutation is
// persisted under cartdom.StorageKey before it becomes visible; a failed
// write leaves the cart as it was.
type CartManager struct {
	prefs   PreferenceStore
	log     *zap.Logger
	metrics Metrics

	mu      sync.Mutex // serializes mutations
	cart    *cartdom.Cart
	changes *observable.Value[[]cartdom.LineItem]
}

func NewCartManager(prefs PreferenceStore, log *zap.Logger, metrics Metrics) *CartManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &CartManager{
		prefs:   prefs,
		log:     log,
		metrics: orNop(metrics),
		cart:    cartdom.New(nil),
		changes: observable.New([]cartdom.LineItem{}),
	}
}

// Load restores the persisted cart. A missing or unreadable entry yields an
// empty cart.
func (cm *CartManager) Load(ctx context.Context) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	raw, found, err := cm.prefs.Get(ctx, cartdom.StorageKey)
	if err != nil {
		cm.log.Warn("read cart failed", zap.Error(err))
		return &StoreReadError{Source: SourceLocal, Err: err}
	}
	c := cartdom.New(nil)
	if found {
		decoded, derr := cartdom.Decode(raw)
		if derr != nil {
			cm.log.Warn("persisted cart unreadable; starting empty", zap.Error(derr))
		} else {
			c = decoded
		}
	}
	cm.cart = c
	cm.changes.Set(c.Snapshot())
	return nil
}

// Add increments the line for p or appends it with quantity 1.
func (cm *CartManager) Add(ctx context.Context, p productdom.Product) error {
	return cm.mutate(ctx, "add", func(c *cartdom.Cart) error { return c.Add(p) })
}

// UpdateQuantity sets the quantity; qty <= 0 removes the line.
func (cm *CartManager) UpdateQuantity(ctx context.Context, productID int64, qty int) error {
	if qty <= 0 {
		return cm.Remove(ctx, productID)
	}
	return cm.mutate(ctx, "update", func(c *cartdom.Cart) error { return c.SetQty(productID, qty) })
}

// Remove drops the line; no-op if absent.
func (cm *CartManager) Remove(ctx context.Context, productID int64) error {
	return cm.mutate(ctx, "remove", func(c *cartdom.Cart) error { return c.Remove(productID) })
}

// Clear empties the cart.
func (cm *CartManager) Clear(ctx context.Context) error {
	return cm.mutate(ctx, "clear", func(c *cartdom.Cart) error { c.Clear(); return nil })
}

// Consume removes the ordered quantities, keeping anything added since.
func (cm *CartManager) Consume(ctx context.Context, ordered []cartdom.LineItem) error {
	return cm.mutate(ctx, "checkout", func(c *cartdom.Cart) error { c.Consume(ordered); return nil })
}

func (cm *CartManager) mutate(ctx context.Context, op string, fn func(*cartdom.Cart) error) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	next := cm.cart.Clone()
	if err := fn(next); err != nil {
		return &ValidationError{Field: "product", Reason: err.Error()}
	}

	raw, err := cartdom.Encode(next.Items)
	if err == nil {
		err = cm.prefs.Set(ctx, cartdom.StorageKey, raw)
	}
	if err != nil {
		cm.log.Error("persist cart failed", zap.String("op", op), zap.Error(err))
		return writeErr(OpSaveCart, StagePreferences, err)
	}

	cm.cart = next
	cm.metrics.CartMutation(op)
	cm.changes.Set(next.Snapshot())
	return nil
}

// Total is the sum of line subtotals.
func (cm *CartManager) Total() decimal.Decimal {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.cart.Total()
}

// ItemCount is the sum of quantities.
func (cm *CartManager) ItemCount() int {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.cart.ItemCount()
}

// Items returns a copy of the lines in insertion order.
func (cm *CartManager) Items() []cartdom.LineItem {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.cart.Snapshot()
}

// Changes publishes the line list after every committed mutation.
func (cm *CartManager) Changes() *observable.Value[[]cartdom.LineItem] {
	return cm.changes
}
