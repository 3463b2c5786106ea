package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Marketplace MarketplaceConfig `mapstructure:"marketplace"`
	Crawl       CrawlConfig       `mapstructure:"crawl"`
	Stream      StreamConfig      `mapstructure:"stream"`
	AWS         AWSConfig         `mapstructure:"aws"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler"`
}

// MarketplaceConfig holds upstream API configuration
type MarketplaceConfig struct {
	BaseURL              string   `mapstructure:"base_url"`
	GqlURL               string   `mapstructure:"gql_url"`
	AuthToken            string   `mapstructure:"auth_token"`
	Timeout              int      `mapstructure:"timeout"`
	MaxRetries           int      `mapstructure:"max_retries"`
	BackoffFromMs        int      `mapstructure:"backoff_from_ms"`
	BackoffToMs          int      `mapstructure:"backoff_to_ms"`
	DelayFromMs          int      `mapstructure:"delay_from_ms"`
	DelayToMs            int      `mapstructure:"delay_to_ms"`
	MaxRequestsPerSecond int      `mapstructure:"max_requests_per_second"`
	Proxies              []string `mapstructure:"proxies"`
}

// CrawlConfig holds pagination and fan-out tuning
type CrawlConfig struct {
	PageLimit         int64 `mapstructure:"page_limit"`
	ProductMaxOffset  int64 `mapstructure:"product_max_offset"`
	PositionMaxOffset int64 `mapstructure:"position_max_offset"`
	Workers           int   `mapstructure:"workers"`
	ProductBatchSize  int   `mapstructure:"product_batch_size"`
	PositionBatchSize int   `mapstructure:"position_batch_size"`
}

// StreamConfig holds per-stream keys and retained length limits
type StreamConfig struct {
	Product  StreamKeyConfig `mapstructure:"product"`
	Position StreamKeyConfig `mapstructure:"position"`
	Category StreamKeyConfig `mapstructure:"category"`
}

type StreamKeyConfig struct {
	Key    string `mapstructure:"key"`
	MaxLen int64  `mapstructure:"maxlen"`
}

// AWSConfig holds the partitioned log sink configuration
type AWSConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Region     string `mapstructure:"region"`
	StreamName string `mapstructure:"stream_name"`
}

// DatabaseConfig holds the optional snapshot archive configuration
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	Database int    `mapstructure:"database"`
}

// SchedulerConfig holds cron specs for the crawl triggers
type SchedulerConfig struct {
	CategorySpec string `mapstructure:"category_spec"`
	ProductSpec  string `mapstructure:"product_spec"`
	PositionSpec string `mapstructure:"position_spec"`
	PurgeSpec    string `mapstructure:"purge_spec"`
}

// Load loads configuration from YAML file with environment variable overrides
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, fmt.Errorf("config.yaml file not found in current directory")
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("marketplace.base_url", "https://api.kazanexpress.ru/api")
	viper.SetDefault("marketplace.gql_url", "https://graphql.kazanexpress.ru/")
	viper.SetDefault("marketplace.auth_token", "")
	viper.SetDefault("marketplace.timeout", 100)
	viper.SetDefault("marketplace.max_retries", 20)
	viper.SetDefault("marketplace.backoff_from_ms", 4200)
	viper.SetDefault("marketplace.backoff_to_ms", 6000)
	viper.SetDefault("marketplace.delay_from_ms", 500)
	viper.SetDefault("marketplace.delay_to_ms", 2000)
	viper.SetDefault("marketplace.max_requests_per_second", 5)

	viper.SetDefault("crawl.page_limit", 100)
	viper.SetDefault("crawl.product_max_offset", 4500)
	viper.SetDefault("crawl.position_max_offset", 3500)
	viper.SetDefault("crawl.workers", 4)
	viper.SetDefault("crawl.product_batch_size", 50)
	viper.SetDefault("crawl.position_batch_size", 100)

	viper.SetDefault("stream.product.key", "ke:stream:product")
	viper.SetDefault("stream.product.maxlen", 100000)
	viper.SetDefault("stream.position.key", "ke:stream:position")
	viper.SetDefault("stream.position.maxlen", 100000)
	viper.SetDefault("stream.category.key", "ke:stream:category")
	viper.SetDefault("stream.category.maxlen", 10000)

	viper.SetDefault("aws.enabled", false)
	viper.SetDefault("aws.region", "eu-west-1")
	viper.SetDefault("aws.stream_name", "ke-scrap-events")

	viper.SetDefault("database.enabled", false)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "ke_scrapper")
	viper.SetDefault("database.user", "ke_user")
	viper.SetDefault("database.password", "ke_pass")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.database", 0)

	viper.SetDefault("scheduler.category_spec", "0 0 * * *")
	viper.SetDefault("scheduler.product_spec", "0 */6 * * *")
	viper.SetDefault("scheduler.position_spec", "30 */6 * * *")
	viper.SetDefault("scheduler.purge_spec", "0 2 * * *")
}
