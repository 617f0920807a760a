package feed

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricelens/backend/internal/domain"
)

func TestMapToListing(t *testing.T) {
	t.Run("full item", func(t *testing.T) {
		onSale := true
		item := Item{
			ProductID:     "metro-123",
			Name:          "  Organic Valley Whole Milk  ",
			Brand:         "Organic Valley",
			Description:   "Grade A",
			Size:          "1L",
			CurrentPrice:  json.RawMessage(`5.49`),
			RegularPrice:  json.RawMessage(`"$5.99"`),
			SalePrice:     json.RawMessage(`5.49`),
			UnitPrice:     json.RawMessage(`null`),
			OnSale:        &onSale,
			StoreChain:    "Metro",
			StoreLocation: "Toronto",
		}

		listing := MapToListing(item)

		assert.Equal(t, "Organic Valley Whole Milk", listing.Name)
		assert.Equal(t, "Organic Valley", domain.Deref(listing.Brand))
		assert.Equal(t, "Grade A", domain.Deref(listing.Description))
		assert.Equal(t, "1L", domain.Deref(listing.SizeText))
		require.NotNil(t, listing.CurrentPrice)
		assert.Equal(t, 5.49, *listing.CurrentPrice)
		require.NotNil(t, listing.RegularPrice)
		assert.Equal(t, 5.99, *listing.RegularPrice)
		assert.Nil(t, listing.UnitPrice)
		require.NotNil(t, listing.OnSale)
		assert.True(t, *listing.OnSale)
		assert.Equal(t, "Metro", listing.StoreChain)
		assert.Equal(t, "Toronto", domain.Deref(listing.StoreLocation))
	})

	t.Run("blank strings become absent", func(t *testing.T) {
		listing := MapToListing(Item{Name: "Bread", Brand: " ", StoreChain: "Metro"})
		assert.Nil(t, listing.Brand)
		assert.Nil(t, listing.Description)
		assert.Nil(t, listing.SizeText)
		assert.Nil(t, listing.StoreLocation)
		assert.Nil(t, listing.CurrentPrice)
	})

	t.Run("unparseable price is absent", func(t *testing.T) {
		listing := MapToListing(Item{Name: "Bread", CurrentPrice: json.RawMessage(`"call for price"`)})
		assert.Nil(t, listing.CurrentPrice)
	})
}

func TestSizeText(t *testing.T) {
	tests := []struct {
		name string
		item Item
		want string
	}{
		{"printed size wins", Item{Size: "2 x 500 ml", Weight: json.RawMessage(`1000`), Unit: "ml"}, "2 x 500 ml"},
		{"numeric weight and unit", Item{Weight: json.RawMessage(`500`), Unit: "g"}, "500 g"},
		{"decimal weight", Item{Weight: json.RawMessage(`1.5`), Unit: "kg"}, "1.5 kg"},
		{"string weight", Item{Weight: json.RawMessage(`"750"`), Unit: "ml"}, "750 ml"},
		{"weight without unit", Item{Weight: json.RawMessage(`12`)}, "12"},
		{"nothing", Item{}, ""},
		{"null weight", Item{Weight: json.RawMessage(`null`), Unit: "g"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sizeText(tt.item))
		})
	}
}

func TestMapToListings(t *testing.T) {
	listings := MapToListings([]Item{{Name: "A"}, {Name: "B"}})
	require.Len(t, listings, 2)
	assert.Equal(t, "A", listings[0].Name)
	assert.Equal(t, "B", listings[1].Name)

	assert.NotNil(t, MapToListings(nil))
}
