package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drmoto/internal/domain/product"
)

func prod(id int64, price string) product.Product {
	return product.Product{ID: id, Name: "item", Price: decimal.RequireFromString(price)}
}

func assertTotalMatchesSubtotals(t *testing.T, c *Cart) {
	t.Helper()
	sum := decimal.Zero
	for _, it := range c.Items {
		assert.True(t, it.Subtotal.Equal(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))),
			"subtotal out of sync for %d", it.ProductID)
		sum = sum.Add(it.Subtotal)
	}
	assert.True(t, c.Total().Equal(sum), "total %s != %s", c.Total(), sum)
}

func TestAdd_TwiceIncrementsQuantity(t *testing.T) {
	c := New(nil)
	p := prod(7, "19.99")

	require.NoError(t, c.Add(p))
	require.NoError(t, c.Add(p))

	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.Items[0].Quantity)
	assert.True(t, c.Items[0].Subtotal.Equal(decimal.RequireFromString("39.98")))
	assertTotalMatchesSubtotals(t, c)
}

func TestAdd_RejectsInvalidProduct(t *testing.T) {
	c := New(nil)
	assert.ErrorIs(t, c.Add(product.Product{ID: 0}), ErrInvalidProduct)
	assert.ErrorIs(t, c.Add(prod(1, "-1")), ErrInvalidProduct)
	assert.Empty(t, c.Items)
}

func TestSetQtyZero_EquivalentToRemove(t *testing.T) {
	a := New(nil)
	b := New(nil)
	for _, c := range []*Cart{a, b} {
		require.NoError(t, c.Add(prod(1, "5")))
		require.NoError(t, c.Add(prod(2, "3")))
	}

	require.NoError(t, a.SetQty(1, 0))
	require.NoError(t, b.Remove(1))

	assert.Equal(t, a.Items, b.Items)
	assert.Equal(t, -1, a.indexOf(1))
}

func TestSetQty(t *testing.T) {
	c := New(nil)
	require.NoError(t, c.Add(prod(1, "2.50")))

	require.NoError(t, c.SetQty(1, 4))
	assert.True(t, c.Items[0].Subtotal.Equal(decimal.RequireFromString("10")))

	require.NoError(t, c.SetQty(99, 3))
	assert.Len(t, c.Items, 1, "unknown id is a no-op")

	require.NoError(t, c.SetQty(1, -2))
	assert.Empty(t, c.Items)
}

func TestTotalAndItemCount(t *testing.T) {
	c := New(nil)
	require.NoError(t, c.Add(prod(1, "0.10")))
	require.NoError(t, c.Add(prod(2, "0.20")))
	require.NoError(t, c.Add(prod(2, "0.20")))
	require.NoError(t, c.SetQty(1, 3))

	assert.True(t, c.Total().Equal(decimal.RequireFromString("0.70")))
	assert.Equal(t, 5, c.ItemCount())
	assertTotalMatchesSubtotals(t, c)

	// Total is pure.
	assert.True(t, c.Total().Equal(c.Total()))
}

func TestInsertionOrderPreserved(t *testing.T) {
	c := New(nil)
	for _, id := range []int64{3, 1, 2} {
		require.NoError(t, c.Add(prod(id, "1")))
	}
	require.NoError(t, c.Add(prod(1, "1")))
	require.NoError(t, c.Remove(3))

	got := []int64{}
	for _, it := range c.Items {
		got = append(got, it.ProductID)
	}
	assert.Equal(t, []int64{1, 2}, got)
}

func TestConsumeAndClone(t *testing.T) {
	c := New(nil)
	require.NoError(t, c.Add(prod(1, "4")))
	cp := c.Clone()

	c.Consume(c.Snapshot())
	assert.Empty(t, c.Items)
	assert.Len(t, cp.Items, 1)
}

func TestConsume_KeepsLinesAddedAfterSnapshot(t *testing.T) {
	c := New(nil)
	require.NoError(t, c.Add(prod(1, "4")))
	require.NoError(t, c.Add(prod(2, "10")))
	ordered := c.Snapshot()

	require.NoError(t, c.Add(prod(1, "4")))
	require.NoError(t, c.Add(prod(3, "1.5")))
	c.Consume(ordered)

	require.Len(t, c.Items, 2)
	assert.Equal(t, int64(1), c.Items[0].ProductID)
	assert.Equal(t, 1, c.Items[0].Quantity)
	assert.Equal(t, int64(3), c.Items[1].ProductID)
	assertTotalMatchesSubtotals(t, c)
}

func TestDecode_NormalizesPersistedData(t *testing.T) {
	raw := `[
		{"productId":1,"name":" a ","price":"2","quantity":1,"subtotal":"999"},
		{"productId":2,"name":"b","price":3,"quantity":0,"subtotal":"0"},
		{"productId":1,"name":"a","price":"2","quantity":2,"subtotal":"4"}
	]`
	c, err := Decode(raw)
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	assert.Equal(t, "a", c.Items[0].Name)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assertTotalMatchesSubtotals(t, c)

	empty, err := Decode("")
	require.NoError(t, err)
	assert.Empty(t, empty.Items)

	_, err = Decode("{")
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestEncodeDecode(t *testing.T) {
	c := New(nil)
	require.NoError(t, c.Add(prod(5, "12.34")))
	require.NoError(t, c.Add(prod(5, "12.34")))

	raw, err := Encode(c.Items)
	require.NoError(t, err)

	back, err := Decode(raw)
	require.NoError(t, err)
	require.Len(t, back.Items, 1)
	assert.Equal(t, 2, back.Items[0].Quantity)
	assert.True(t, back.Total().Equal(c.Total()))

	raw, err = Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}
