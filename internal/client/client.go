package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/crashteamdev/ke-data-scrapper/internal/config"
	"github.com/crashteamdev/ke-data-scrapper/internal/domain"
	"github.com/crashteamdev/ke-data-scrapper/internal/proxy"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

// lightSearchQuery fetches only what the crawl needs: product ids, the
// characteristic-value hint and the page total.
const lightSearchQuery = "query getMakeSearch($queryInput: MakeSearchQueryInput!) { makeSearch(query: $queryInput) { items { catalogCard { __typename ...SkuGroupCardFragment ... on ProductCard { ...DefaultCardFragment __typename } } __typename } total }}fragment SkuGroupCardFragment on SkuGroupCard { ...DefaultCardFragment characteristicValues { id value title __typename } __typename}fragment DefaultCardFragment on CatalogCard { productId __typename}"

// treeSearchQuery additionally requests the flat categoryTree snapshot.
const treeSearchQuery = "query getMakeSearch($queryInput: MakeSearchQueryInput!) { makeSearch(query: $queryInput) { categoryTree { category { id title adult parent { id __typename } __typename } total __typename } items { catalogCard { __typename ...SkuGroupCardFragment } __typename } total __typename }}fragment SkuGroupCardFragment on SkuGroupCard { ...DefaultCardFragment characteristicValues { id value title __typename } __typename}fragment DefaultCardFragment on CatalogCard { productId __typename}"

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:122.0) Gecko/20100101 Firefox/122.0",
}

// Marketplace is the upstream API surface the crawl pipeline consumes.
type Marketplace interface {
	// Search runs the paginated GraphQL catalog search. withTree additionally
	// requests the category tree snapshot.
	Search(ctx context.Context, categoryID string, offset, limit int64, withTree bool) (*domain.SearchResponse, error)
	GetProduct(ctx context.Context, productID int64) (*domain.ProductResponse, error)
	GetRootCategories(ctx context.Context) ([]domain.Category, error)
}

type marketplaceClient struct {
	rl            ratelimit.Limiter
	config        config.MarketplaceConfig
	baseURL       string
	gqlURL        string
	httpClient    *resty.Client
	proxySupplier proxy.Supplier

	delayFrom time.Duration
	delayTo   time.Duration
}

func NewMarketplaceClient(cfg config.MarketplaceConfig, proxySupplier proxy.Supplier) Marketplace {
	client := resty.New().
		SetTimeout(time.Duration(cfg.Timeout)*time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("Accept-Language", "ru-RU,ru;q=0.9").
		SetTLSClientConfig(&tls.Config{
			InsecureSkipVerify: true,
		})

	if proxySupplier != nil {
		if proxyURL := proxySupplier.Get(); proxyURL != "" {
			client.SetProxy(proxyURL)
			log.Infof("Using initial proxy: %s", proxyURL)
		}
	}

	rps := cfg.MaxRequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	return &marketplaceClient{
		rl:            ratelimit.New(rps),
		config:        cfg,
		baseURL:       cfg.BaseURL,
		gqlURL:        cfg.GqlURL,
		httpClient:    client,
		proxySupplier: proxySupplier,
		delayFrom:     time.Duration(cfg.DelayFromMs) * time.Millisecond,
		delayTo:       time.Duration(cfg.DelayToMs) * time.Millisecond,
	}
}

func (c *marketplaceClient) Search(ctx context.Context, categoryID string, offset, limit int64, withTree bool) (*domain.SearchResponse, error) {
	query := lightSearchQuery
	if withTree {
		query = treeSearchQuery
	}
	body := domain.SearchQuery{
		OperationName: "getMakeSearch",
		Query:         query,
		Variables: domain.SearchVariables{
			QueryInput: domain.QueryInput{
				CategoryID:       categoryID,
				ShowAdultContent: "TRUE",
				Filters:          []any{},
				Sort:             "BY_RELEVANCE_DESC",
				Pagination: domain.Pagination{
					Offset: offset,
					Limit:  limit,
				},
			},
		},
	}

	if err := c.throttle(ctx); err != nil {
		return nil, err
	}

	var result domain.SearchResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Authorization", c.config.AuthToken).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Iid", uuid.NewString()).
		SetHeader("User-Agent", randomUserAgent()).
		SetHeader("Apollographql-Client-Name", "web-customers").
		SetBody(body).
		SetResult(&result).
		Post(c.gqlURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("search cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("failed to run catalog search: %w", err)
	}
	if resp.IsError() {
		c.rotateProxy(resp.StatusCode())
		return nil, fmt.Errorf("catalog search HTTP error: %d %s", resp.StatusCode(), resp.Status())
	}

	log.Debugf("Catalog search done: categoryId=%s offset=%d limit=%d", categoryID, offset, limit)
	return &result, nil
}

func (c *marketplaceClient) GetProduct(ctx context.Context, productID int64) (*domain.ProductResponse, error) {
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}

	var result domain.ProductResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Authorization", c.config.AuthToken).
		SetHeader("X-Iid", uuid.NewString()).
		SetHeader("User-Agent", randomUserAgent()).
		SetResult(&result).
		Get(c.baseURL + "/v2/product/" + strconv.FormatInt(productID, 10))
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("product fetch cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("failed to fetch product %d: %w", productID, err)
	}
	if resp.IsError() {
		c.rotateProxy(resp.StatusCode())
		return nil, fmt.Errorf("product %d HTTP error: %d %s", productID, resp.StatusCode(), resp.Status())
	}

	return &result, nil
}

func (c *marketplaceClient) GetRootCategories(ctx context.Context) ([]domain.Category, error) {
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}

	var result domain.RootCategoriesResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Authorization", c.config.AuthToken).
		SetHeader("User-Agent", randomUserAgent()).
		SetResult(&result).
		Get(c.baseURL + "/main/root-categories")
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("root categories cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("failed to fetch root categories: %w", err)
	}
	if resp.IsError() {
		c.rotateProxy(resp.StatusCode())
		return nil, fmt.Errorf("root categories HTTP error: %d %s", resp.StatusCode(), resp.Status())
	}

	return result.Payload, nil
}

// throttle applies the rate limiter plus a randomized inter-request delay so
// request timing does not look mechanical to the upstream.
func (c *marketplaceClient) throttle(ctx context.Context) error {
	c.rl.Take()
	if c.delayTo <= c.delayFrom {
		return nil
	}
	delay := c.delayFrom + rand.N(c.delayTo-c.delayFrom)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// rotateProxy switches to the next proxy after a throttling response.
func (c *marketplaceClient) rotateProxy(statusCode int) {
	if statusCode != 429 || c.proxySupplier == nil {
		return
	}
	if next := c.proxySupplier.Get(); next != "" {
		log.Infof("Got 429, switching to next proxy: %s", next)
		c.httpClient.SetProxy(next)
	}
}

func randomUserAgent() string {
	return userAgents[rand.IntN(len(userAgents))]
}
