package fetch

import (
	"context"
	"fmt"

	"github.com/crashteamdev/ke-data-scrapper/internal/cache"
	"github.com/crashteamdev/ke-data-scrapper/internal/client"
	"github.com/crashteamdev/ke-data-scrapper/internal/domain"
	"github.com/crashteamdev/ke-data-scrapper/internal/state"

	log "github.com/sirupsen/logrus"
)

// Fetcher resolves full product detail for catalog items, deduplicating
// against the seen-product set and serving position-only crawls from the
// read-through cache.
type Fetcher struct {
	client client.Marketplace
	retry  client.RetryPolicy
	seen   state.SeenSet
	cache  cache.ProductCache
}

func NewFetcher(mp client.Marketplace, retry client.RetryPolicy, seen state.SeenSet, productCache cache.ProductCache) *Fetcher {
	return &Fetcher{
		client: mp,
		retry:  retry,
		seen:   seen,
		cache:  productCache,
	}
}

// FetchIfUnseen fetches product detail unless the id was already emitted in
// this epoch. The seen-set insert is the sole dedup gate: the first caller
// for an id proceeds, every other one gets nil. A nil result with nil error
// always means "skip this item".
func (f *Fetcher) FetchIfUnseen(ctx context.Context, productID int64) (*domain.ProductData, error) {
	first, err := f.seen.Add(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !first {
		log.Debugf("Product %d already seen, skipping", productID)
		return nil, nil
	}
	return f.Fetch(ctx, productID)
}

// Fetch resolves full product detail with the shared retry policy. A
// detail-level error list converts to a retryable error carrying the first
// detail message; an absent payload is logged and skipped, not fatal.
func (f *Fetcher) Fetch(ctx context.Context, productID int64) (*domain.ProductData, error) {
	var data *domain.ProductData
	err := f.retry.Do(ctx, func() error {
		resp, err := f.client.GetProduct(ctx, productID)
		if err != nil {
			return client.Retryable(err)
		}
		if len(resp.Errors) > 0 {
			return client.Retryable(fmt.Errorf("get product %d failed with message - %s", productID, resp.Errors[0].DetailMessage))
		}
		if resp.Payload != nil {
			data = resp.Payload.Data
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		log.Warnf("Product data with id - %d returned null, continue with next item, if it exists...", productID)
		return nil, nil
	}
	return data, nil
}

// FetchCached returns the position-relevant slice of product detail through
// the read-through cache. Cache read/write failures degrade to a direct
// fetch, they never fail the item.
func (f *Fetcher) FetchCached(ctx context.Context, productID int64) (*domain.CachedProduct, error) {
	cached, err := f.cache.Get(ctx, productID)
	if err != nil {
		log.Warnf("Failed to read product %d from cache: %v", productID, err)
	} else if cached != nil {
		return cached, nil
	}

	data, err := f.Fetch(ctx, productID)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	entry := &domain.CachedProduct{
		Characteristics: data.Characteristics,
		SkuList:         data.SkuList,
	}
	if err := f.cache.Put(ctx, productID, entry); err != nil {
		log.Warnf("Failed to cache product %d: %v", productID, err)
	}
	return entry, nil
}
