package match

import (
	"testing"

	"github.com/crashteamdev/ke-data-scrapper/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testGroups = []domain.CharacteristicGroup{
	{
		ID:    1,
		Title: "Color",
		Values: []domain.CharacteristicValue{
			{ID: 10, Title: "Red", Value: "red"},
			{ID: 11, Title: "Blue", Value: "blue"},
		},
	},
	{
		ID:    2,
		Title: "Size",
		Values: []domain.CharacteristicValue{
			{ID: 20, Title: "S", Value: "s"},
			{ID: 11, Title: "M", Value: "m"}, // id collides with Blue on purpose
		},
	},
}

func TestResolveHintIndex(t *testing.T) {
	tests := []struct {
		name      string
		hintID    int64
		wantGroup int
		wantValue int
		wantOK    bool
	}{
		{name: "first group first value", hintID: 10, wantGroup: 0, wantValue: 0, wantOK: true},
		{name: "first group second value", hintID: 11, wantGroup: 0, wantValue: 1, wantOK: true},
		{name: "second group", hintID: 20, wantGroup: 1, wantValue: 0, wantOK: true},
		{name: "unknown id", hintID: 99, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groupIdx, valueIdx, ok := ResolveHintIndex(testGroups, tt.hintID)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantGroup, groupIdx)
				assert.Equal(t, tt.wantValue, valueIdx)
			}
		})
	}
}

func TestResolveSkuValue(t *testing.T) {
	group, value, ok := ResolveSkuValue(testGroups, domain.SkuCharacteristic{CharIndex: 1, ValueIndex: 1})
	require.True(t, ok)
	assert.Equal(t, "Size", group.Title)
	assert.Equal(t, "M", value.Title)

	_, _, ok = ResolveSkuValue(testGroups, domain.SkuCharacteristic{CharIndex: 2, ValueIndex: 0})
	assert.False(t, ok, "group index out of range")

	_, _, ok = ResolveSkuValue(testGroups, domain.SkuCharacteristic{CharIndex: 0, ValueIndex: 5})
	assert.False(t, ok, "value index out of range")

	_, _, ok = ResolveSkuValue(testGroups, domain.SkuCharacteristic{CharIndex: -1, ValueIndex: 0})
	assert.False(t, ok, "negative index")
}

func TestPurchasableSkus_NoHintReturnsAllInStock(t *testing.T) {
	card := &domain.CatalogCard{ProductID: 1}
	skus := []domain.Sku{
		{ID: 100, AvailableAmount: 5},
		{ID: 101, AvailableAmount: 0},
		{ID: 102, AvailableAmount: 1},
	}

	ids, ok := PurchasableSkus(card, testGroups, skus)
	require.True(t, ok)
	assert.Equal(t, []int64{100, 102}, ids)
}

func TestPurchasableSkus_HintSelectsByValueIndex(t *testing.T) {
	card := &domain.CatalogCard{
		ProductID: 1,
		CharacteristicValues: []domain.CharacteristicValue{
			{ID: 11, Value: "blue"}, // resolves to value index 1 of the Color group
		},
	}
	skus := []domain.Sku{
		{ID: 100, AvailableAmount: 5, Characteristics: []domain.SkuCharacteristic{{CharIndex: 0, ValueIndex: 0}}},
		{ID: 101, AvailableAmount: 5, Characteristics: []domain.SkuCharacteristic{{CharIndex: 0, ValueIndex: 1}}},
		{ID: 102, AvailableAmount: 0, Characteristics: []domain.SkuCharacteristic{{CharIndex: 0, ValueIndex: 1}}},
		// Matches through the Size axis: the value index alone decides.
		{ID: 103, AvailableAmount: 2, Characteristics: []domain.SkuCharacteristic{{CharIndex: 1, ValueIndex: 1}}},
	}

	ids, ok := PurchasableSkus(card, testGroups, skus)
	require.True(t, ok)
	assert.Equal(t, []int64{101, 103}, ids, "matching is by value index, out-of-stock SKUs are dropped")
}

func TestPurchasableSkus_FirstHintWins(t *testing.T) {
	card := &domain.CatalogCard{
		ProductID: 1,
		CharacteristicValues: []domain.CharacteristicValue{
			{ID: 10}, // value index 0
			{ID: 11}, // would be value index 1, must be ignored
		},
	}
	skus := []domain.Sku{
		{ID: 100, AvailableAmount: 1, Characteristics: []domain.SkuCharacteristic{{CharIndex: 0, ValueIndex: 0}}},
		{ID: 101, AvailableAmount: 1, Characteristics: []domain.SkuCharacteristic{{CharIndex: 0, ValueIndex: 1}}},
	}

	ids, ok := PurchasableSkus(card, testGroups, skus)
	require.True(t, ok)
	assert.Equal(t, []int64{100}, ids)
}

func TestPurchasableSkus_UnresolvableHint(t *testing.T) {
	card := &domain.CatalogCard{
		ProductID:            1,
		CharacteristicValues: []domain.CharacteristicValue{{ID: 999}},
	}
	skus := []domain.Sku{{ID: 100, AvailableAmount: 1}}

	ids, ok := PurchasableSkus(card, testGroups, skus)
	assert.False(t, ok)
	assert.Nil(t, ids)
}
