package crawl

import (
	"context"
	"testing"

	"github.com/crashteamdev/ke-data-scrapper/internal/client"
	"github.com/crashteamdev/ke-data-scrapper/internal/domain"
	"github.com/crashteamdev/ke-data-scrapper/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newController(t *testing.T, mp *fakeMarketplace, store *memCursorStore, categoryID, limit, maxOffset int64) *PageController {
	t.Helper()
	var cursorStore state.CursorStore
	if store != nil {
		cursorStore = store
	}
	ctrl, err := NewPageController(context.Background(), mp, client.NewClassifier(), testRetry(5), cursorStore, categoryID, limit, maxOffset)
	require.NoError(t, err)
	return ctrl
}

func TestPageController_FetchesPageAtCursor(t *testing.T) {
	mp := &fakeMarketplace{
		searchFn: func(searchCall) (*domain.SearchResponse, error) {
			return pageResponse(250, 11, 12, 13), nil
		},
	}
	ctrl := newController(t, mp, nil, 42, 100, 4500)

	page, stop, err := ctrl.FetchPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopNone, stop)
	require.NotNil(t, page)
	assert.Equal(t, int64(250), page.Total)
	assert.Len(t, page.Items, 3)

	calls := mp.searchCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, searchCall{categoryID: "42", offset: 0, limit: 100}, calls[0])
}

func TestPageController_ResumesFromStore(t *testing.T) {
	store := newMemCursorStore()
	require.NoError(t, store.Save(context.Background(), &domain.PageCursor{
		CategoryID: 42, Offset: 300, TotalProcessed: 280,
	}))

	mp := &fakeMarketplace{
		searchFn: func(searchCall) (*domain.SearchResponse, error) {
			return pageResponse(1000, 1), nil
		},
	}
	ctrl := newController(t, mp, store, 42, 100, 4500)

	_, _, err := ctrl.FetchPage(context.Background())
	require.NoError(t, err)

	calls := mp.searchCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, int64(300), calls[0].offset)
}

func TestPageController_OffsetCapStops(t *testing.T) {
	store := newMemCursorStore()
	require.NoError(t, store.Save(context.Background(), &domain.PageCursor{
		CategoryID: 42, Offset: 3500, TotalProcessed: 3400,
	}))

	mp := &fakeMarketplace{}
	ctrl := newController(t, mp, store, 42, 100, 3500)

	page, stop, err := ctrl.FetchPage(context.Background())
	require.NoError(t, err)
	assert.Nil(t, page)
	assert.Equal(t, StopCapReached, stop)
	assert.Empty(t, mp.searchCalls(), "capped crawl must not hit the upstream")
}

func TestPageController_ExhaustedErrorStops(t *testing.T) {
	mp := &fakeMarketplace{
		searchFn: func(searchCall) (*domain.SearchResponse, error) {
			return errorResponse("offset must not exceed the result window"), nil
		},
	}
	ctrl := newController(t, mp, nil, 42, 100, 4500)

	page, stop, err := ctrl.FetchPage(context.Background())
	require.NoError(t, err)
	assert.Nil(t, page)
	assert.Equal(t, StopExhausted, stop)
	assert.Len(t, mp.searchCalls(), 1, "exhaustion must not be retried")
	assert.Equal(t, int64(0), ctrl.Cursor().Offset, "exhaustion must not advance the cursor")
}

func TestPageController_RateLimitRetriesSameOffset(t *testing.T) {
	attempt := 0
	mp := &fakeMarketplace{
		searchFn: func(searchCall) (*domain.SearchResponse, error) {
			attempt++
			if attempt == 1 {
				return errorResponse("got 429 from upstream"), nil
			}
			return pageResponse(500, 7), nil
		},
	}
	ctrl := newController(t, mp, nil, 42, 100, 4500)

	page, stop, err := ctrl.FetchPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopNone, stop)
	require.NotNil(t, page)

	calls := mp.searchCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, calls[0].offset, calls[1].offset, "rate limit must retry the same offset")
}

func TestPageController_TransientErrorAdvancesAndPersists(t *testing.T) {
	store := newMemCursorStore()
	attempt := 0
	mp := &fakeMarketplace{
		searchFn: func(searchCall) (*domain.SearchResponse, error) {
			attempt++
			if attempt == 1 {
				return errorResponse("internal server error"), nil
			}
			return pageResponse(500, 7), nil
		},
	}
	ctrl := newController(t, mp, store, 42, 100, 4500)

	page, stop, err := ctrl.FetchPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopNone, stop)
	require.NotNil(t, page)

	calls := mp.searchCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, int64(0), calls[0].offset)
	assert.Equal(t, int64(100), calls[1].offset, "unknown error must advance past the page")

	saved, ok := store.get(42)
	require.True(t, ok, "the advanced offset must be persisted before the retry")
	assert.Equal(t, int64(100), saved.offset)
}

func TestPageController_CompleteWhenTotalConsumed(t *testing.T) {
	store := newMemCursorStore()
	require.NoError(t, store.Save(context.Background(), &domain.PageCursor{
		CategoryID: 42, Offset: 200, TotalProcessed: 200,
	}))

	mp := &fakeMarketplace{
		searchFn: func(searchCall) (*domain.SearchResponse, error) {
			return pageResponse(200, 1, 2), nil
		},
	}
	ctrl := newController(t, mp, store, 42, 100, 4500)

	page, stop, err := ctrl.FetchPage(context.Background())
	require.NoError(t, err)
	assert.Nil(t, page)
	assert.Equal(t, StopComplete, stop)
}

func TestPageController_EmptyPageStops(t *testing.T) {
	mp := &fakeMarketplace{
		searchFn: func(searchCall) (*domain.SearchResponse, error) {
			return pageResponse(500), nil
		},
	}
	ctrl := newController(t, mp, nil, 42, 100, 4500)

	page, stop, err := ctrl.FetchPage(context.Background())
	require.NoError(t, err)
	assert.Nil(t, page)
	assert.Equal(t, StopEmptyPage, stop)
}

func TestPageController_RetryBudgetExhaustedIsFatal(t *testing.T) {
	mp := &fakeMarketplace{
		searchFn: func(searchCall) (*domain.SearchResponse, error) {
			return errorResponse("got 429 from upstream"), nil
		},
	}
	ctrl := newController(t, mp, nil, 42, 100, 4500)

	page, stop, err := ctrl.FetchPage(context.Background())
	require.Error(t, err)
	assert.Nil(t, page)
	assert.Equal(t, StopNone, stop)
	assert.Len(t, mp.searchCalls(), 5)
}

func TestPageController_AdvanceCommitsProgress(t *testing.T) {
	store := newMemCursorStore()
	mp := &fakeMarketplace{}
	ctrl := newController(t, mp, store, 42, 100, 4500)

	ctrl.Advance(context.Background(), 100)
	ctrl.Advance(context.Background(), 37)

	cursor := ctrl.Cursor()
	assert.Equal(t, int64(200), cursor.Offset)
	assert.Equal(t, int64(137), cursor.TotalProcessed)

	saved, ok := store.get(42)
	require.True(t, ok)
	assert.Equal(t, int64(200), saved.offset)
	assert.Equal(t, int64(137), saved.processed)
}
