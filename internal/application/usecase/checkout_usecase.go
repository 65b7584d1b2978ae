// internal/application/usecase/checkout_usecase.go
package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	orderdom "drmoto/internal/domain/order"
)

var ErrCheckoutSubmitterMissing = errors.New("checkout: order submitter is not configured")

// CheckoutUsecase orchestrates "cart snapshot -> order -> consume cart".
// The ordered lines leave the cart only once the order API accepted them.
type CheckoutUsecase struct {
	session   *SessionManager
	cart      *CartManager
	submitter orderdom.SubmitterPort
	currency  string
	clock     Clock
	log       *zap.Logger
}

func NewCheckoutUsecase(
	session *SessionManager,
	cart *CartManager,
	submitter orderdom.SubmitterPort,
	currency string,
	log *zap.Logger,
) *CheckoutUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &CheckoutUsecase{
		session:   session,
		cart:      cart,
		submitter: submitter,
		currency:  currency,
		clock:     systemClock{},
		log:       log,
	}
}

// Checkout submits the current cart as an order for the signed-in user.
func (u *CheckoutUsecase) Checkout(ctx context.Context) (orderdom.Receipt, error) {
	if u.submitter == nil {
		return orderdom.Receipt{}, ErrCheckoutSubmitterMissing
	}
	usr := u.session.CurrentUser()
	if usr == nil {
		return orderdom.Receipt{}, ErrNotAuthenticated
	}
	items := u.cart.Items()
	if len(items) == 0 {
		return orderdom.Receipt{}, ErrEmptyCart
	}

	o, err := orderdom.FromCart(usr.ID, items, u.currency, u.clock.Now())
	if err != nil {
		return orderdom.Receipt{}, &ValidationError{Field: "order", Reason: err.Error()}
	}

	rc, err := u.submitter.Create(ctx, o)
	if err != nil {
		u.log.Error("order submit failed", zap.String("orderId", o.ID), zap.Error(err))
		return orderdom.Receipt{}, writeErr(OpCheckout, StageOrder, err)
	}
	if rc.OrderID == "" {
		rc.OrderID = o.ID
	}

	if err := u.cart.Consume(ctx, items); err != nil {
		// The order went through; report the cart failure without hiding the receipt.
		u.log.Warn("order accepted but cart not cleared", zap.String("orderId", rc.OrderID), zap.Error(err))
		return rc, err
	}
	u.log.Info("order accepted",
		zap.String("orderId", rc.OrderID),
		zap.Int("items", o.ItemCount()),
		zap.String("total", o.Total.StringFixed(2)),
	)
	return rc, nil
}
