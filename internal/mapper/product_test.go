package mapper

import (
	"testing"

	"github.com/crashteamdev/ke-data-scrapper/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullProduct() *domain.ProductData {
	return &domain.ProductData{
		ID:                   77,
		Title:                "Sneakers",
		Rating:               "4.8",
		ReviewsAmount:        120,
		OrdersAmount:         900,
		TotalAvailableAmount: 14,
		Photos: []domain.ProductPhoto{
			{Color: "red", PhotoKey: "photo-red"},
			{Color: "blue", PhotoKey: "photo-blue"},
		},
		Characteristics: []domain.CharacteristicGroup{
			{
				ID:    1,
				Title: "Color",
				Values: []domain.CharacteristicValue{
					{ID: 10, Title: "Red", Value: "red"},
					{ID: 11, Title: "Blue", Value: "blue"},
				},
			},
		},
		SkuList: []domain.Sku{
			{
				ID:              700,
				AvailableAmount: 9,
				FullPrice:       "5990.0",
				PurchasePrice:   "4990.0",
				Characteristics: []domain.SkuCharacteristic{{CharIndex: 0, ValueIndex: 1}},
			},
		},
	}
}

func TestMapProduct(t *testing.T) {
	change, err := MapProduct(fullProduct())
	require.NoError(t, err)

	assert.Equal(t, int64(77), change.ProductID)
	assert.Equal(t, 4.8, change.Rating)
	require.Len(t, change.Skus, 1)

	sku := change.Skus[0]
	assert.Equal(t, int64(700), sku.SkuID)
	assert.Equal(t, "photo-blue", sku.PhotoKey, "the SKU photo follows the variant's color value")
	require.Len(t, sku.Characteristics, 1)
	assert.Equal(t, domain.ResolvedCharacteristic{Type: "Color", Title: "Blue", Value: "blue"}, sku.Characteristics[0])
	assert.Nil(t, sku.Restriction)
}

func TestMapProduct_FallsBackToFirstPhoto(t *testing.T) {
	data := fullProduct()
	data.Photos = []domain.ProductPhoto{{PhotoKey: "plain"}}

	change, err := MapProduct(data)
	require.NoError(t, err)
	assert.Equal(t, "plain", change.Skus[0].PhotoKey)
}

func TestMapProduct_NoPhotoIsCorrupted(t *testing.T) {
	data := fullProduct()
	data.Photos = nil

	_, err := MapProduct(data)
	assert.ErrorIs(t, err, ErrProductCorrupted)
}

func TestMapProduct_DanglingIndexIsCorrupted(t *testing.T) {
	data := fullProduct()
	data.SkuList[0].Characteristics = []domain.SkuCharacteristic{{CharIndex: 0, ValueIndex: 9}}

	_, err := MapProduct(data)
	assert.ErrorIs(t, err, ErrProductCorrupted)
}

func TestMapProduct_UnparseableRatingIsZero(t *testing.T) {
	data := fullProduct()
	data.Rating = "n/a"

	change, err := MapProduct(data)
	require.NoError(t, err)
	assert.Zero(t, change.Rating)
}

func TestMapProduct_RestrictionKeptOnlyWhenMeaningful(t *testing.T) {
	data := fullProduct()
	data.SkuList[0].Restriction = &domain.SkuRestriction{BoughtAmount: 2, RestrictedAmount: 0}

	change, err := MapProduct(data)
	require.NoError(t, err)
	assert.Nil(t, change.Skus[0].Restriction)

	data.SkuList[0].Restriction = &domain.SkuRestriction{BoughtAmount: 2, RestrictedAmount: 5}
	change, err = MapProduct(data)
	require.NoError(t, err)
	require.NotNil(t, change.Skus[0].Restriction)
	assert.Equal(t, int64(5), change.Skus[0].Restriction.RestrictedAmount)
}
