package mapper

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/crashteamdev/ke-data-scrapper/internal/domain"
	"github.com/crashteamdev/ke-data-scrapper/internal/match"
)

// ErrProductCorrupted marks a product whose photo cross-reference cannot be
// resolved. Such records are dropped whole, never partially published.
var ErrProductCorrupted = errors.New("product record is corrupted")

// MapProduct converts a full product payload into the normalized change
// record. SKU characteristic index pairs are resolved to titles and values
// through the shared index walk; a SKU without a resolvable photo corrupts
// the whole record.
func MapProduct(data *domain.ProductData) (*domain.ProductChange, error) {
	skus := make([]domain.ProductChangeSku, 0, len(data.SkuList))
	for _, sku := range data.SkuList {
		resolved := make([]domain.ResolvedCharacteristic, 0, len(sku.Characteristics))
		for _, ref := range sku.Characteristics {
			group, value, ok := match.ResolveSkuValue(data.Characteristics, ref)
			if !ok {
				return nil, fmt.Errorf("%w: productId=%d sku=%d has dangling characteristic index (%d,%d)",
					ErrProductCorrupted, data.ID, sku.ID, ref.CharIndex, ref.ValueIndex)
			}
			resolved = append(resolved, domain.ResolvedCharacteristic{
				Type:  group.Title,
				Title: value.Title,
				Value: value.Value,
			})
		}

		photo := extractSkuPhoto(data, sku)
		if photo == nil {
			return nil, fmt.Errorf("%w: productId=%d sku=%d has no resolvable photo", ErrProductCorrupted, data.ID, sku.ID)
		}

		changeSku := domain.ProductChangeSku{
			SkuID:           sku.ID,
			AvailableAmount: sku.AvailableAmount,
			FullPrice:       sku.FullPrice,
			PurchasePrice:   sku.PurchasePrice,
			PhotoKey:        photo.PhotoKey,
			Characteristics: resolved,
		}
		if sku.Restriction != nil && sku.Restriction.RestrictedAmount > 0 {
			changeSku.Restriction = sku.Restriction
		}
		skus = append(skus, changeSku)
	}

	rating, err := strconv.ParseFloat(data.Rating, 64)
	if err != nil {
		rating = 0
	}

	return &domain.ProductChange{
		ProductID:            data.ID,
		Title:                data.Title,
		Category:             data.Category,
		Rating:               rating,
		ReviewsAmount:        data.ReviewsAmount,
		Orders:               data.OrdersAmount,
		TotalAvailableAmount: data.TotalAvailableAmount,
		Description:          data.Description,
		Attributes:           data.Attributes,
		Tags:                 data.Tags,
		Characteristics:      data.Characteristics,
		Skus:                 skus,
		Seller:               data.Seller,
		IsEco:                data.IsEco,
		IsAdult:              data.AdultCategory,
	}, nil
}

// extractSkuPhoto matches the SKU's characteristic values against photo
// colors; photos are keyed by the variant's color value. Falls back to the
// product's first photo.
func extractSkuPhoto(data *domain.ProductData, sku domain.Sku) *domain.ProductPhoto {
	for _, ref := range sku.Characteristics {
		_, value, ok := match.ResolveSkuValue(data.Characteristics, ref)
		if !ok {
			continue
		}
		for i := range data.Photos {
			if data.Photos[i].Color != "" && data.Photos[i].Color == value.Value {
				return &data.Photos[i]
			}
		}
	}
	if len(data.Photos) > 0 {
		return &data.Photos[0]
	}
	return nil
}
