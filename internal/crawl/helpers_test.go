package crawl

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/crashteamdev/ke-data-scrapper/internal/client"
	"github.com/crashteamdev/ke-data-scrapper/internal/domain"
)

func testRetry(attempts int) client.RetryPolicy {
	return client.RetryPolicy{
		MaxAttempts: attempts,
		BackoffFrom: time.Millisecond,
		BackoffTo:   2 * time.Millisecond,
	}
}

type searchCall struct {
	categoryID string
	offset     int64
	limit      int64
	withTree   bool
}

// fakeMarketplace answers searches through a pluggable handler and serves
// product detail from a fixed map. Safe for concurrent use.
type fakeMarketplace struct {
	mu       sync.Mutex
	searchFn func(call searchCall) (*domain.SearchResponse, error)
	products map[int64]*domain.ProductData
	roots    []domain.Category
	calls    []searchCall
}

func (f *fakeMarketplace) Search(_ context.Context, categoryID string, offset, limit int64, withTree bool) (*domain.SearchResponse, error) {
	call := searchCall{categoryID: categoryID, offset: offset, limit: limit, withTree: withTree}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	fn := f.searchFn
	f.mu.Unlock()
	if fn == nil {
		return &domain.SearchResponse{Data: &domain.SearchData{}}, nil
	}
	return fn(call)
}

func (f *fakeMarketplace) GetProduct(_ context.Context, productID int64) (*domain.ProductResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.products[productID]
	if !ok {
		return nil, fmt.Errorf("unexpected product fetch for id %d", productID)
	}
	return &domain.ProductResponse{Payload: &domain.ProductPayload{Data: data}}, nil
}

func (f *fakeMarketplace) GetRootCategories(_ context.Context) ([]domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.roots, nil
}

func (f *fakeMarketplace) searchCalls() []searchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]searchCall(nil), f.calls...)
}

type storedCursor struct {
	offset    int64
	processed int64
}

type memCursorStore struct {
	mu    sync.Mutex
	data  map[int64]storedCursor
	saves int
}

func newMemCursorStore() *memCursorStore {
	return &memCursorStore{data: make(map[int64]storedCursor)}
}

func (s *memCursorStore) Load(_ context.Context, categoryID int64) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.data[categoryID]
	return c.offset, c.processed, nil
}

func (s *memCursorStore) Save(_ context.Context, cursor *domain.PageCursor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[cursor.CategoryID] = storedCursor{offset: cursor.Offset, processed: cursor.TotalProcessed}
	s.saves++
	return nil
}

func (s *memCursorStore) Clear(_ context.Context, categoryID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, categoryID)
	return nil
}

func (s *memCursorStore) get(categoryID int64) (storedCursor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data[categoryID]
	return c, ok
}

type memSeenSet struct {
	mu   sync.Mutex
	seen map[int64]struct{}
}

func newMemSeenSet() *memSeenSet {
	return &memSeenSet{seen: make(map[int64]struct{})}
}

func (s *memSeenSet) Add(_ context.Context, productID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[productID]; ok {
		return false, nil
	}
	s.seen[productID] = struct{}{}
	return true, nil
}

func (s *memSeenSet) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = make(map[int64]struct{})
	return nil
}

type memProductCache struct {
	mu   sync.Mutex
	data map[int64]*domain.CachedProduct
}

func newMemProductCache() *memProductCache {
	return &memProductCache{data: make(map[int64]*domain.CachedProduct)}
}

func (c *memProductCache) Get(_ context.Context, productID int64) (*domain.CachedProduct, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[productID], nil
}

func (c *memProductCache) Put(_ context.Context, productID int64, product *domain.CachedProduct) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[productID] = product
	return nil
}

func (c *memProductCache) Purge(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[int64]*domain.CachedProduct)
	return nil
}

// pageResponse builds one search page carrying the given product ids.
func pageResponse(total int64, productIDs ...int64) *domain.SearchResponse {
	items := make([]domain.CatalogCardWrapper, 0, len(productIDs))
	for _, id := range productIDs {
		items = append(items, domain.CatalogCardWrapper{
			CatalogCard: &domain.CatalogCard{ProductID: id},
		})
	}
	return &domain.SearchResponse{
		Data: &domain.SearchData{
			MakeSearch: domain.MakeSearch{Total: total, Items: items},
		},
	}
}

func errorResponse(message string) *domain.SearchResponse {
	return &domain.SearchResponse{
		Errors: []domain.GQLError{{Message: message}},
	}
}
