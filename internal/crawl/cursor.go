package crawl

import (
	"context"
	"fmt"
	"strconv"

	"github.com/crashteamdev/ke-data-scrapper/internal/client"
	"github.com/crashteamdev/ke-data-scrapper/internal/domain"
	"github.com/crashteamdev/ke-data-scrapper/internal/state"

	log "github.com/sirupsen/logrus"
)

// StopReason says why a category crawl ended. Every reason is a normal
// termination, not an error.
type StopReason string

const (
	StopNone       StopReason = ""
	StopCapReached StopReason = "cap-reached"
	StopExhausted  StopReason = "exhausted"
	StopComplete   StopReason = "complete"
	StopEmptyPage  StopReason = "empty-page"
)

// PageResult is one successfully fetched catalog page.
type PageResult struct {
	Items []domain.CatalogCardWrapper
	Total int64
}

// PageController owns the resumable (offset, limit) cursor for one category
// crawl and drives the page fetch loop through the error classifier. A
// response error either stops the crawl (exhausted), holds the offset for a
// retry (rate limited), or advances past the page before retrying (anything
// else). That ordering keeps pagination non-duplicating and non-stalling
// against a flaky upstream and must not change.
type PageController struct {
	client     client.Marketplace
	classifier *client.Classifier
	retry      client.RetryPolicy
	store      state.CursorStore
	cursor     domain.PageCursor
	maxOffset  int64
}

// NewPageController builds a controller for one category. With a non-nil
// store the cursor resumes from the persisted offset, so a restarted job
// continues where it left off.
func NewPageController(
	ctx context.Context,
	mp client.Marketplace,
	classifier *client.Classifier,
	retry client.RetryPolicy,
	store state.CursorStore,
	categoryID, limit, maxOffset int64,
) (*PageController, error) {
	cursor := domain.PageCursor{
		CategoryID: categoryID,
		Limit:      limit,
	}
	if store != nil {
		offset, processed, err := store.Load(ctx, categoryID)
		if err != nil {
			return nil, err
		}
		cursor.Offset = offset
		cursor.TotalProcessed = processed
		if offset > 0 {
			log.Infof("Resuming category %d from offset %d (%d items processed)", categoryID, offset, processed)
		}
	}
	return &PageController{
		client:     mp,
		classifier: classifier,
		retry:      retry,
		store:      store,
		cursor:     cursor,
		maxOffset:  maxOffset,
	}, nil
}

func (c *PageController) Cursor() domain.PageCursor {
	return c.cursor
}

// FetchPage fetches the page at the current cursor. It returns exactly one
// of: a page, a stop reason, or a fatal error for this page (retry budget
// exhausted or an unexpected transport failure).
func (c *PageController) FetchPage(ctx context.Context) (*PageResult, StopReason, error) {
	if c.maxOffset > 0 && c.cursor.Offset >= c.maxOffset {
		log.Infof("Total offset - [%d] of category - [%d], skipping further parsing...", c.cursor.Offset, c.cursor.CategoryID)
		return nil, StopCapReached, nil
	}

	var stop StopReason
	var page *PageResult
	categoryID := strconv.FormatInt(c.cursor.CategoryID, 10)

	err := c.retry.Do(ctx, func() error {
		resp, err := c.client.Search(ctx, categoryID, c.cursor.Offset, c.cursor.Limit, false)
		if err != nil {
			return client.Retryable(err)
		}
		if len(resp.Errors) > 0 {
			gqlErr := resp.Errors[0]
			switch c.classifier.Classify(gqlErr) {
			case client.ClassExhausted:
				log.Warnf("Finished collecting data for id - %d, because of response error object with message - %s",
					c.cursor.CategoryID, gqlErr.Message)
				stop = StopExhausted
				return nil
			case client.ClassRateLimited:
				log.Warnf("Got 429 http status from request for category id %d", c.cursor.CategoryID)
				return client.Retryable(fmt.Errorf("request ended with error message - %s", gqlErr.Message))
			default:
				// Advance past the bad page before retrying so the loop
				// cannot stall on it.
				c.cursor.Offset += c.cursor.Limit
				c.persist(ctx)
				return client.Retryable(fmt.Errorf("request ended with error message - %s", gqlErr.Message))
			}
		}
		if resp.Data == nil {
			return client.Retryable(fmt.Errorf("search response for category %d carried no data", c.cursor.CategoryID))
		}
		page = &PageResult{
			Items: resp.Data.MakeSearch.Items,
			Total: resp.Data.MakeSearch.Total,
		}
		return nil
	})
	if err != nil {
		return nil, StopNone, err
	}
	if stop != StopNone {
		return nil, stop, nil
	}

	if page.Total <= c.cursor.TotalProcessed {
		log.Infof("Total GQL response items - [%d] less or equal than total processed items - [%d] of category - [%d], skipping further parsing...",
			page.Total, c.cursor.TotalProcessed, c.cursor.CategoryID)
		return nil, StopComplete, nil
	}
	if len(page.Items) == 0 {
		log.Warnf("Break crawl for categoryId - %d with offset - %d, cause items are empty", c.cursor.CategoryID, c.cursor.Offset)
		return nil, StopEmptyPage, nil
	}
	return page, StopNone, nil
}

// Advance commits page progress. Called only after the page's items were
// handed off to the fan-out stage, so persisted state never runs ahead of
// completed work.
func (c *PageController) Advance(ctx context.Context, itemCount int) {
	c.cursor.Offset += c.cursor.Limit
	c.cursor.TotalProcessed += int64(itemCount)
	c.persist(ctx)
}

func (c *PageController) persist(ctx context.Context) {
	if c.store == nil {
		return
	}
	if err := c.store.Save(ctx, &c.cursor); err != nil {
		log.Errorf("Failed to persist cursor for category %d: %v", c.cursor.CategoryID, err)
	}
}
