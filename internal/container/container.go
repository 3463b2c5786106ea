package container

import (
	"context"
	"fmt"
	"time"

	"github.com/crashteamdev/ke-data-scrapper/internal/cache"
	"github.com/crashteamdev/ke-data-scrapper/internal/client"
	"github.com/crashteamdev/ke-data-scrapper/internal/config"
	"github.com/crashteamdev/ke-data-scrapper/internal/crawl"
	"github.com/crashteamdev/ke-data-scrapper/internal/fetch"
	"github.com/crashteamdev/ke-data-scrapper/internal/proxy"
	"github.com/crashteamdev/ke-data-scrapper/internal/repository"
	"github.com/crashteamdev/ke-data-scrapper/internal/scheduler"
	"github.com/crashteamdev/ke-data-scrapper/internal/state"
	"github.com/crashteamdev/ke-data-scrapper/internal/stream"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kinesis"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config    *config.Config
	Client    client.Marketplace
	Crawler   *crawl.Crawler
	Scheduler *scheduler.Scheduler

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
	}

	proxySupplier, err := proxy.NewSupplier(ctx, cfg.Marketplace.Proxies, cfg.Marketplace.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize proxy supplier: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.Database,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	container.redis = rdb
	log.Info("Connected to Redis successfully")

	var archive repository.ProductArchive
	if cfg.Database.Enabled {
		db, err := pgxpool.New(ctx,
			fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
				cfg.Database.Host,
				cfg.Database.Port,
				cfg.Database.User,
				cfg.Database.Password,
				cfg.Database.Name,
			))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		container.db = db
		archive = repository.NewProductArchive(db)
		log.Info("Product snapshot archive enabled")
	}

	productSinks := []stream.Sink{stream.NewRedisSink(rdb, cfg.Stream.Product.Key, cfg.Stream.Product.MaxLen)}
	positionSinks := []stream.Sink{stream.NewRedisSink(rdb, cfg.Stream.Position.Key, cfg.Stream.Position.MaxLen)}
	categorySinks := []stream.Sink{stream.NewRedisSink(rdb, cfg.Stream.Category.Key, cfg.Stream.Category.MaxLen)}
	if cfg.AWS.Enabled {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		kinesisSink := stream.NewKinesisSink(kinesis.NewFromConfig(awsCfg), cfg.AWS.StreamName)
		productSinks = append(productSinks, kinesisSink)
		positionSinks = append(positionSinks, kinesisSink)
		categorySinks = append(categorySinks, kinesisSink)
		log.Infof("Kinesis sink enabled for stream %s", cfg.AWS.StreamName)
	}

	mp := client.NewMarketplaceClient(cfg.Marketplace, proxySupplier)
	container.Client = mp

	retry := client.RetryPolicy{
		MaxAttempts: cfg.Marketplace.MaxRetries,
		BackoffFrom: time.Duration(cfg.Marketplace.BackoffFromMs) * time.Millisecond,
		BackoffTo:   time.Duration(cfg.Marketplace.BackoffToMs) * time.Millisecond,
	}

	cursorStore := state.NewRedisCursorStore(rdb)
	seen := state.NewRedisSeenSet(rdb)
	productCache := cache.NewRedisProductCache(rdb)
	fetcher := fetch.NewFetcher(mp, retry, seen, productCache)

	crawler := crawl.NewCrawler(
		mp,
		client.NewClassifier(),
		retry,
		fetcher,
		cursorStore,
		stream.NewBatchPublisher(cfg.Crawl.ProductBatchSize, productSinks...),
		stream.NewBatchPublisher(cfg.Crawl.PositionBatchSize, positionSinks...),
		stream.NewBatchPublisher(cfg.Crawl.ProductBatchSize, categorySinks...),
		archive,
		crawl.CrawlerConfig{
			Workers:           cfg.Crawl.Workers,
			PageLimit:         cfg.Crawl.PageLimit,
			ProductMaxOffset:  cfg.Crawl.ProductMaxOffset,
			PositionMaxOffset: cfg.Crawl.PositionMaxOffset,
		},
	)
	container.Crawler = crawler

	container.Scheduler = scheduler.NewScheduler(crawler, productCache, seen, cfg.Scheduler, cfg.Crawl.Workers)

	return container, nil
}

// Run starts the scheduler and blocks until ctx is cancelled.
func (c *Container) Run(ctx context.Context) error {
	if err := c.Scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	<-ctx.Done()
	c.Scheduler.Stop()
	return ctx.Err()
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	if c.db != nil {
		c.db.Close()
	}
	c.redis.Close()

	log.Info("Container shut down successfully")
	return nil
}
