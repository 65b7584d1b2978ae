package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// StorageKey is the preference-store key holding the persisted cart.
const StorageKey = "cart_items"

var ErrInvalidEncoding = errors.New("cart: invalid encoding")

// Encode renders the items as the persisted JSON array.
func Encode(items []LineItem) (string, error) {
	if items == nil {
		items = []LineItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Decode parses a persisted cart and restores its invariants.
func Decode(raw string) (*Cart, error) {
	if strings.TrimSpace(raw) == "" {
		return New(nil), nil
	}
	var items []LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return New(items), nil
}
