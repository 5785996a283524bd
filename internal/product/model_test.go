package product

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProduct_Inventory(t *testing.T) {
	t.Run("Untracked is always available", func(t *testing.T) {
		p := &Product{Inventory: Inventory{TrackQuantity: false, Quantity: 0}}
		assert.True(t, p.IsInStock())
		assert.True(t, p.Available(1000))
		assert.False(t, p.IsLowStock())
	})

	t.Run("Tracked", func(t *testing.T) {
		p := &Product{Inventory: Inventory{TrackQuantity: true, Quantity: 2, LowStockThreshold: 5}}
		assert.True(t, p.IsInStock())
		assert.True(t, p.Available(2))
		assert.False(t, p.Available(5))
		assert.True(t, p.IsLowStock())
	})

	t.Run("Backorder keeps an empty product in stock", func(t *testing.T) {
		p := &Product{Inventory: Inventory{TrackQuantity: true, Quantity: 0, AllowBackorder: true}}
		assert.True(t, p.IsInStock())
		assert.False(t, p.Available(1))
	})
}

func TestProduct_DiscountPercentage(t *testing.T) {
	compare := decimal.NewFromInt(400)
	p := &Product{Price: decimal.NewFromInt(300), ComparePrice: &compare}
	assert.Equal(t, 25, p.DiscountPercentage())

	lower := decimal.NewFromInt(200)
	p.ComparePrice = &lower
	assert.Equal(t, 0, p.DiscountPercentage())

	p.ComparePrice = nil
	assert.Equal(t, 0, p.DiscountPercentage())
}

func TestProduct_PrimaryImage(t *testing.T) {
	p := &Product{}
	assert.Empty(t, p.PrimaryImage())

	p.Images = Images{{URL: "/a.jpg"}, {URL: "/b.jpg", IsPrimary: true}}
	assert.Equal(t, "/b.jpg", p.PrimaryImage())

	p.Images = Images{{URL: "/a.jpg"}}
	assert.Equal(t, "/a.jpg", p.PrimaryImage())
}

func TestImages_ValueScan(t *testing.T) {
	in := Images{{URL: "/a.jpg", Alt: "front", IsPrimary: true}}
	v, err := in.Value()
	require.NoError(t, err)

	var out Images
	require.NoError(t, out.Scan(v))
	assert.Equal(t, in, out)

	require.NoError(t, out.Scan(nil))
	assert.Nil(t, out)
	assert.Error(t, out.Scan(42))
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusArchived.Valid())
	assert.False(t, Status("sold").Valid())
}

func TestToResponse(t *testing.T) {
	cost := decimal.NewFromInt(50)
	p := &Product{Name: "Mug", Price: decimal.RequireFromString("129.50"), CostPrice: &cost}

	resp := ToResponse(p, false)
	assert.Equal(t, 129.5, resp.Price)
	assert.Nil(t, resp.CostPrice)
	assert.NotNil(t, resp.Images)
	assert.NotNil(t, resp.Tags)

	admin := ToResponse(p, true)
	require.NotNil(t, admin.CostPrice)
	assert.Equal(t, 50.0, *admin.CostPrice)
}
