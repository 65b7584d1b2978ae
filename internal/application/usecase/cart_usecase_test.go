package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartdom "drmoto/internal/domain/cart"
	productdom "drmoto/internal/domain/product"
)

func helmet() productdom.Product {
	return productdom.Product{ID: 10, Name: "Helmet", Price: decimal.RequireFromString("149.90")}
}

func jacket() productdom.Product {
	return productdom.Product{ID: 11, Name: "Jacket", Price: decimal.RequireFromString("89.50")}
}

func TestCartManager_AddTwice(t *testing.T) {
	prefs := newFakePrefs()
	cm := NewCartManager(prefs, nil, nil)
	ctx := context.Background()

	require.NoError(t, cm.Add(ctx, helmet()))
	require.NoError(t, cm.Add(ctx, helmet()))

	items := cm.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, items[0].Subtotal.Equal(decimal.RequireFromString("299.80")))
	assert.Equal(t, 2, prefs.sets, "persisted after every mutation")

	persisted, err := cartdom.Decode(prefs.data[cartdom.StorageKey])
	require.NoError(t, err)
	assert.Equal(t, 2, persisted.ItemCount())
}

func TestCartManager_UpdateQuantityZeroEqualsRemove(t *testing.T) {
	ctx := context.Background()
	a := NewCartManager(newFakePrefs(), nil, nil)
	b := NewCartManager(newFakePrefs(), nil, nil)
	for _, cm := range []*CartManager{a, b} {
		require.NoError(t, cm.Add(ctx, helmet()))
		require.NoError(t, cm.Add(ctx, jacket()))
	}

	require.NoError(t, a.UpdateQuantity(ctx, 10, 0))
	require.NoError(t, b.Remove(ctx, 10))

	assert.Equal(t, a.Items(), b.Items())
	require.Len(t, a.Items(), 1)
	assert.Equal(t, int64(11), a.Items()[0].ProductID)
}

func TestCartManager_TotalEqualsSumOfSubtotals(t *testing.T) {
	ctx := context.Background()
	cm := NewCartManager(newFakePrefs(), nil, nil)
	require.NoError(t, cm.Add(ctx, helmet()))
	require.NoError(t, cm.Add(ctx, jacket()))
	require.NoError(t, cm.UpdateQuantity(ctx, 11, 3))

	sum := decimal.Zero
	for _, it := range cm.Items() {
		sum = sum.Add(it.Subtotal)
	}
	assert.True(t, cm.Total().Equal(sum))
	assert.True(t, cm.Total().Equal(decimal.RequireFromString("418.40")))
	assert.Equal(t, 4, cm.ItemCount())
}

func TestCartManager_PersistFailureLeavesCartUnchanged(t *testing.T) {
	ctx := context.Background()
	prefs := newFakePrefs()
	cm := NewCartManager(prefs, nil, nil)
	require.NoError(t, cm.Add(ctx, helmet()))

	var published int
	cm.Changes().Subscribe(func([]cartdom.LineItem) { published++ })

	prefs.setErr = errors.New("disk full")
	err := cm.Add(ctx, jacket())

	var we *StoreWriteError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, OpSaveCart, we.Op)
	assert.Equal(t, MsgCartSaveFailed, Message(err))
	assert.Len(t, cm.Items(), 1)
	assert.Equal(t, 1, published, "only the replayed value")
}

func TestCartManager_ClearAndChanges(t *testing.T) {
	ctx := context.Background()
	cm := NewCartManager(newFakePrefs(), nil, nil)

	var last []cartdom.LineItem
	cm.Changes().Subscribe(func(items []cartdom.LineItem) { last = items })

	require.NoError(t, cm.Add(ctx, helmet()))
	assert.Len(t, last, 1)

	require.NoError(t, cm.Clear(ctx))
	assert.Empty(t, last)
	assert.Zero(t, cm.ItemCount())
	assert.True(t, cm.Total().IsZero())
}

func TestCartManager_Load(t *testing.T) {
	ctx := context.Background()
	prefs := newFakePrefs()
	prefs.data[cartdom.StorageKey] = `[{"productId":10,"name":"Helmet","price":"149.90","quantity":2,"subtotal":"0"}]`

	cm := NewCartManager(prefs, nil, nil)
	require.NoError(t, cm.Load(ctx))
	require.Len(t, cm.Items(), 1)
	assert.True(t, cm.Total().Equal(decimal.RequireFromString("299.80")), "subtotals recomputed")

	prefs.data[cartdom.StorageKey] = "garbage"
	require.NoError(t, cm.Load(ctx))
	assert.Empty(t, cm.Items())

	prefs.getErr = errors.New("io")
	var re *StoreReadError
	assert.ErrorAs(t, cm.Load(ctx), &re)
}

func TestCartManager_RemoveAbsentIsNoop(t *testing.T) {
	cm := NewCartManager(newFakePrefs(), nil, nil)
	require.NoError(t, cm.Remove(context.Background(), 404))
	assert.Empty(t, cm.Items())
}
