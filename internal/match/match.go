package match

import (
	"github.com/crashteamdev/ke-data-scrapper/internal/domain"
)

// ResolveHintIndex finds the (groupIndex, valueIndex) of the first
// characteristic value whose id equals hintID, scanning groups in order and
// values in order within each group. First match wins.
func ResolveHintIndex(groups []domain.CharacteristicGroup, hintID int64) (int, int, bool) {
	for groupIdx, group := range groups {
		for valueIdx, value := range group.Values {
			if value.ID == hintID {
				return groupIdx, valueIdx, true
			}
		}
	}
	return 0, 0, false
}

// ResolveSkuValue dereferences one SKU characteristic index pair against the
// owning product's characteristic arrays. Returns false when the pair points
// outside them.
func ResolveSkuValue(groups []domain.CharacteristicGroup, ref domain.SkuCharacteristic) (*domain.CharacteristicGroup, *domain.CharacteristicValue, bool) {
	if ref.CharIndex < 0 || ref.CharIndex >= len(groups) {
		return nil, nil, false
	}
	group := &groups[ref.CharIndex]
	if ref.ValueIndex < 0 || ref.ValueIndex >= len(group.Values) {
		return nil, nil, false
	}
	return group, &group.Values[ref.ValueIndex], true
}

// PurchasableSkus resolves which SKUs a catalog card's characteristic-value
// hint selects, keeping only SKUs with stock. With no hint every in-stock
// SKU matches, in SKU-list order. An unresolvable hint returns ok=false; the
// caller skips the item.
func PurchasableSkus(card *domain.CatalogCard, groups []domain.CharacteristicGroup, skus []domain.Sku) ([]int64, bool) {
	if len(card.CharacteristicValues) == 0 {
		ids := make([]int64, 0, len(skus))
		for _, sku := range skus {
			if sku.AvailableAmount > 0 {
				ids = append(ids, sku.ID)
			}
		}
		return ids, true
	}

	hintID := card.CharacteristicValues[0].ID
	_, valueIdx, ok := ResolveHintIndex(groups, hintID)
	if !ok {
		return nil, false
	}

	var ids []int64
	for _, sku := range skus {
		if sku.AvailableAmount <= 0 {
			continue
		}
		for _, ref := range sku.Characteristics {
			if ref.ValueIndex == valueIdx {
				ids = append(ids, sku.ID)
				break
			}
		}
	}
	return ids, true
}
