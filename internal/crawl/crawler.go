package crawl

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/crashteamdev/ke-data-scrapper/internal/client"
	"github.com/crashteamdev/ke-data-scrapper/internal/domain"
	"github.com/crashteamdev/ke-data-scrapper/internal/fetch"
	"github.com/crashteamdev/ke-data-scrapper/internal/mapper"
	"github.com/crashteamdev/ke-data-scrapper/internal/match"
	"github.com/crashteamdev/ke-data-scrapper/internal/repository"
	"github.com/crashteamdev/ke-data-scrapper/internal/state"
	"github.com/crashteamdev/ke-data-scrapper/internal/stream"
	"github.com/crashteamdev/ke-data-scrapper/internal/tree"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// rootCategoryID is the synthetic category the marketplace mounts the whole
// catalog tree under; a zero-limit search against it returns the flat tree.
const rootCategoryID = "1"

// Result summarizes one finished category crawl.
type Result struct {
	Reason StopReason
	Pages  int
	Items  int
}

// Crawler runs full catalog crawls: paginate a category, fan a page out to
// workers, publish the resulting events in batches, then descend into child
// categories.
type Crawler struct {
	client     client.Marketplace
	classifier *client.Classifier
	retry      client.RetryPolicy
	fetcher    *fetch.Fetcher
	store      state.CursorStore
	products   *stream.BatchPublisher
	positions  *stream.BatchPublisher
	categories *stream.BatchPublisher
	archive    repository.ProductArchive

	workers           int
	pageLimit         int64
	productMaxOffset  int64
	positionMaxOffset int64
}

type CrawlerConfig struct {
	Workers           int
	PageLimit         int64
	ProductMaxOffset  int64
	PositionMaxOffset int64
}

func NewCrawler(
	mp client.Marketplace,
	classifier *client.Classifier,
	retry client.RetryPolicy,
	fetcher *fetch.Fetcher,
	store state.CursorStore,
	products, positions, categories *stream.BatchPublisher,
	archive repository.ProductArchive,
	cfg CrawlerConfig,
) *Crawler {
	return &Crawler{
		client:            mp,
		classifier:        classifier,
		retry:             retry,
		fetcher:           fetcher,
		store:             store,
		products:          products,
		positions:         positions,
		categories:        categories,
		archive:           archive,
		workers:           cfg.Workers,
		pageLimit:         cfg.PageLimit,
		productMaxOffset:  cfg.ProductMaxOffset,
		positionMaxOffset: cfg.PositionMaxOffset,
	}
}

// CrawlProducts crawls one root category and then, synchronously, every
// category below it. A failed category is logged and does not stop its
// siblings or children. Only the root carries a persisted cursor; child
// crawls always start from offset zero.
func (c *Crawler) CrawlProducts(ctx context.Context, categoryID int64, children map[int64][]int64) error {
	visited := make(map[int64]struct{})
	return c.crawlProductTree(ctx, categoryID, children, visited, true)
}

func (c *Crawler) crawlProductTree(ctx context.Context, categoryID int64, children map[int64][]int64, visited map[int64]struct{}, resume bool) error {
	if _, ok := visited[categoryID]; ok {
		return nil
	}
	visited[categoryID] = struct{}{}

	if _, err := c.crawlProductCategory(ctx, categoryID, resume); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		log.Errorf("Product crawl for category id [%d] finished with exception - [%v]", categoryID, err)
	}
	for _, childID := range children[categoryID] {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.crawlProductTree(ctx, childID, children, visited, false); err != nil {
			return err
		}
	}
	return nil
}

func (c *Crawler) crawlProductCategory(ctx context.Context, categoryID int64, resume bool) (Result, error) {
	start := time.Now()
	log.Infof("Starting product crawl for category id - %d", categoryID)

	var store state.CursorStore
	if resume {
		store = c.store
	}
	ctrl, err := NewPageController(ctx, c.client, c.classifier, c.retry, store, categoryID, c.pageLimit, c.productMaxOffset)
	if err != nil {
		return Result{}, err
	}

	var result Result
	for {
		if err := ctx.Err(); err != nil {
			log.Infof("Product crawl for category %d interrupted", categoryID)
			return result, err
		}
		page, stop, err := ctrl.FetchPage(ctx)
		if err != nil {
			log.Errorf("Search for catalog with id [%d] finished with exception - [%v] on offset - %d",
				categoryID, err, ctrl.Cursor().Offset)
			return result, err
		}
		if stop != StopNone {
			result.Reason = stop
			break
		}
		records := c.processProductPage(ctx, page.Items)
		c.products.Publish(ctx, records)
		ctrl.Advance(ctx, len(page.Items))
		result.Pages++
		result.Items += len(page.Items)
	}

	if store != nil {
		if err := store.Clear(ctx, categoryID); err != nil {
			log.Errorf("Failed to clear cursor for category %d: %v", categoryID, err)
		}
	}
	log.Infof("Product crawl finished for category id - %d, reason - %s, items - %d, took %s",
		categoryID, result.Reason, result.Items, time.Since(start).Round(time.Second))
	return result, nil
}

// processProductPage fans one page out to the worker pool. Slots are indexed
// so output order follows item order regardless of which worker finishes
// first; the pool is a page barrier, the next page is not fetched until every
// item of this one is done.
func (c *Crawler) processProductPage(ctx context.Context, items []domain.CatalogCardWrapper) []stream.Record {
	slots := make([]*stream.Record, len(items))
	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, item := range items {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			slots[i] = c.buildProductRecord(ctx, item)
			return nil
		})
	}
	g.Wait()

	records := make([]stream.Record, 0, len(items))
	for _, r := range slots {
		if r != nil {
			records = append(records, *r)
		}
	}
	return records
}

func (c *Crawler) buildProductRecord(ctx context.Context, item domain.CatalogCardWrapper) *stream.Record {
	if item.CatalogCard == nil {
		log.Warnf("Catalog card is empty, continue with next item, if it exists...")
		return nil
	}
	productID := item.CatalogCard.ProductID

	data, err := c.fetcher.FetchIfUnseen(ctx, productID)
	if err != nil {
		log.Errorf("Failed to fetch product %d: %v", productID, err)
		return nil
	}
	if data == nil {
		return nil
	}

	if c.archive != nil {
		if err := c.archive.Save(ctx, data); err != nil {
			log.Warnf("Failed to archive product %d: %v", productID, err)
		}
	}

	change, err := mapper.MapProduct(data)
	if err != nil {
		if errors.Is(err, mapper.ErrProductCorrupted) {
			log.Warnf("Product with id - %d is corrupted, skipping...", productID)
		} else {
			log.Errorf("Failed to map product %d: %v", productID, err)
		}
		return nil
	}
	return marshalRecord(strconv.FormatInt(productID, 10), mapper.NewProductEvent(change))
}

// CrawlPositions crawls one category's catalog ranking. Positions are global
// per category and assigned from the page offset before worker dispatch, so
// concurrent item processing cannot reorder them.
func (c *Crawler) CrawlPositions(ctx context.Context, categoryID int64) (Result, error) {
	start := time.Now()
	log.Infof("Starting position crawl for category id - %d", categoryID)

	ctrl, err := NewPageController(ctx, c.client, c.classifier, c.retry, c.store, categoryID, c.pageLimit, c.positionMaxOffset)
	if err != nil {
		return Result{}, err
	}
	position := ctrl.Cursor().TotalProcessed

	var result Result
	for {
		if err := ctx.Err(); err != nil {
			log.Infof("Position crawl for category %d interrupted", categoryID)
			return result, err
		}
		page, stop, err := ctrl.FetchPage(ctx)
		if err != nil {
			log.Errorf("Search for catalog with id [%d] finished with exception - [%v] on offset - %d",
				categoryID, err, ctrl.Cursor().Offset)
			return result, err
		}
		if stop != StopNone {
			result.Reason = stop
			break
		}
		records := c.processPositionPage(ctx, page.Items, position, categoryID)
		c.positions.Publish(ctx, records)
		position += int64(len(page.Items))
		ctrl.Advance(ctx, len(page.Items))
		result.Pages++
		result.Items += len(page.Items)
	}

	if err := c.store.Clear(ctx, categoryID); err != nil {
		log.Errorf("Failed to clear cursor for category %d: %v", categoryID, err)
	}
	log.Infof("Position crawl finished for category id - %d, reason - %s, items - %d, took %s",
		categoryID, result.Reason, result.Items, time.Since(start).Round(time.Second))
	return result, nil
}

func (c *Crawler) processPositionPage(ctx context.Context, items []domain.CatalogCardWrapper, base, categoryID int64) []stream.Record {
	slots := make([][]stream.Record, len(items))
	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, item := range items {
		if ctx.Err() != nil {
			break
		}
		pos := base + int64(i) + 1
		g.Go(func() error {
			slots[i] = c.buildPositionRecords(ctx, item, pos, categoryID)
			return nil
		})
	}
	g.Wait()

	var records []stream.Record
	for _, batch := range slots {
		records = append(records, batch...)
	}
	return records
}

func (c *Crawler) buildPositionRecords(ctx context.Context, item domain.CatalogCardWrapper, position, categoryID int64) []stream.Record {
	if item.CatalogCard == nil {
		log.Warnf("Catalog card is empty, continue with next item, if it exists...")
		return nil
	}
	card := item.CatalogCard
	productID := card.ProductID

	product, err := c.fetcher.FetchCached(ctx, productID)
	if err != nil {
		log.Errorf("Failed to fetch product %d: %v", productID, err)
		return nil
	}
	if product == nil {
		return nil
	}

	skuIDs, ok := match.PurchasableSkus(card, product.Characteristics, product.SkuList)
	if !ok {
		log.Warnf("Can't find index of characteristic. productId=%d; characteristicId=%d",
			productID, card.CharacteristicValues[0].ID)
		return nil
	}

	records := make([]stream.Record, 0, len(skuIDs))
	for _, skuID := range skuIDs {
		event := mapper.NewPositionEvent(&domain.PositionChange{
			Position:   position,
			ProductID:  productID,
			SkuID:      skuID,
			CategoryID: categoryID,
		})
		if r := marshalRecord(strconv.FormatInt(productID, 10), event); r != nil {
			records = append(records, *r)
		}
	}
	return records
}

// CrawlCategories fetches the nested root categories and the flat search
// tree, merges them, and publishes one event per root. The merged tree is
// returned so the scheduler can plan per-category product and position jobs
// from it.
func (c *Crawler) CrawlCategories(ctx context.Context) ([]domain.Category, error) {
	start := time.Now()
	log.Info("Starting categories crawl")

	var roots []domain.Category
	err := c.retry.Do(ctx, func() error {
		cats, err := c.client.GetRootCategories(ctx)
		if err != nil {
			return client.Retryable(err)
		}
		if cats == nil {
			return client.Retryable(errors.New("root categories payload is empty"))
		}
		roots = cats
		return nil
	})
	if err != nil {
		return nil, err
	}

	flat, err := c.fetchCategoryTree(ctx)
	if err != nil {
		return nil, err
	}

	merged := tree.Build(roots, flat)

	records := make([]stream.Record, 0, len(merged))
	for _, root := range merged {
		if r := marshalRecord(strconv.FormatInt(root.ID, 10), mapper.NewCategoryEvent(root)); r != nil {
			records = append(records, *r)
		}
	}
	c.categories.Publish(ctx, records)

	log.Infof("Categories crawl finished, roots - %d, took %s", len(merged), time.Since(start).Round(time.Second))
	return merged, nil
}

// fetchCategoryTree pulls the flat parent-pointer tree with a zero-limit
// search against the catalog root. An empty tree is valid; the merge then
// yields the nested roots unchanged.
func (c *Crawler) fetchCategoryTree(ctx context.Context) ([]domain.CategoryTreeEntry, error) {
	var flat []domain.CategoryTreeEntry
	err := c.retry.Do(ctx, func() error {
		resp, err := c.client.Search(ctx, rootCategoryID, 0, 0, true)
		if err != nil {
			return client.Retryable(err)
		}
		if len(resp.Errors) > 0 {
			gqlErr := resp.Errors[0]
			if c.classifier.Classify(gqlErr) == client.ClassExhausted {
				return nil
			}
			return client.Retryable(errors.New(gqlErr.Message))
		}
		if resp.Data != nil {
			flat = resp.Data.MakeSearch.CategoryTree
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return flat, nil
}

func marshalRecord(partitionKey string, event *domain.Event) *stream.Record {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Errorf("Failed to marshal event %s: %v", event.EventID, err)
		return nil
	}
	return &stream.Record{PartitionKey: partitionKey, Data: payload}
}
