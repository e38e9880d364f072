package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/parentrebuild/backend/internal/infrastructure/spapi"
	"github.com/parentrebuild/backend/internal/usecase"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	SPAPI     SPAPIConfig
	Listing   ListingConfig
	Feed      FeedConfig
	Cache     CacheConfig
	Ledger    LedgerConfig
	Events    EventsConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SPAPIConfig holds Selling Partner API and LWA configuration
type SPAPIConfig struct {
	BaseURL      string `mapstructure:"base_url"` // empty: derived from the marketplace region
	TokenURL     string `mapstructure:"token_url"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RefreshToken string `mapstructure:"refresh_token"`
	SellerID     string `mapstructure:"seller_id"`
	Marketplace  string `mapstructure:"marketplace"`
	LanguageTag  string `mapstructure:"language_tag"`
	Locale       string `mapstructure:"locale"`
}

// ListingConfig holds the listing defaults applied to every generated message
type ListingConfig struct {
	Brand               string            `mapstructure:"brand"`
	ProductType         string            `mapstructure:"product_type"`
	ItemTypeKeyword     string            `mapstructure:"item_type_keyword"`
	VariationTheme      string            `mapstructure:"variation_theme"`
	TitleTail           string            `mapstructure:"title_tail"`
	DefaultPrice        string            `mapstructure:"default_price"`
	Currency            string            `mapstructure:"currency"`
	Quantity            int               `mapstructure:"quantity"`
	HandlingLatency     int               `mapstructure:"handling_latency"`
	MainImageURL        string            `mapstructure:"main_image_url"`
	CountryOfOrigin     string            `mapstructure:"country_of_origin"`
	FabricType          string            `mapstructure:"fabric_type"`
	CareInstructions    string            `mapstructure:"care_instructions"`
	Department          string            `mapstructure:"department"`
	PackageLength       float64           `mapstructure:"package_length"`
	PackageWidth        float64           `mapstructure:"package_width"`
	PackageHeight       float64           `mapstructure:"package_height"`
	PackageDimUnit      string            `mapstructure:"package_dimension_unit"`
	PackageWeight       float64           `mapstructure:"package_weight"`
	PackageWeightUnit   string            `mapstructure:"package_weight_unit"`
	InjectKeywords      bool              `mapstructure:"inject_keywords"`
	IncludeParentUpdate bool              `mapstructure:"include_parent_update"`
	ParentSchema        string            `mapstructure:"parent_schema"`
	StopWords           []string          `mapstructure:"stop_words"`
	Variations          []string          `mapstructure:"variations"`
	PriceTable          map[string]string `mapstructure:"price_table"`
	Swatches            map[string]string `mapstructure:"swatches"`
	BaseBullets         []string          `mapstructure:"base_bullets"`
	BaseDescription     string            `mapstructure:"base_description"`
}

// FeedConfig holds feed polling configuration
type FeedConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	PollTimeout  time.Duration `mapstructure:"poll_timeout"`
	DebugLogging bool          `mapstructure:"debug_logging"`
}

// CacheConfig holds access token cache configuration
type CacheConfig struct {
	Type           string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL       string        `mapstructure:"redis_url"`
	KeyPrefix      string        `mapstructure:"key_prefix"`
	TokenTTLMargin time.Duration `mapstructure:"token_ttl_margin"`
}

// LedgerConfig holds submission ledger configuration. Empty URL disables the ledger.
type LedgerConfig struct {
	DatabaseURL string `mapstructure:"database_url"`
}

// EventsConfig holds phase event configuration. No brokers means events are only logged.
type EventsConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// RateLimitConfig holds per-operation SP-API request rates (requests per second)
type RateLimitConfig struct {
	CreateDocument  float64 `mapstructure:"create_document"`
	CreateFeed      float64 `mapstructure:"create_feed"`
	GetFeed         float64 `mapstructure:"get_feed"`
	GetFeedDocument float64 `mapstructure:"get_feed_document"`
	Burst           int     `mapstructure:"burst"`
}

// Load loads configuration from .env, environment variables and config files.
// extraDirs are searched for config.yaml before the standard locations.
func Load(extraDirs ...string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range extraDirs {
		if dir != "" {
			v.AddConfigPath(dir)
		}
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/parentrebuild/")

	// Environment variable settings
	v.SetEnvPrefix("REBUILD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env if present. Variables already set in the environment win.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load()
}

// setDefaults sets default configuration values. Every key gets a default so
// that environment overrides are picked up by Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// SP-API defaults
	v.SetDefault("spapi.base_url", "")
	v.SetDefault("spapi.token_url", spapi.DefaultTokenURL)
	v.SetDefault("spapi.client_id", "")
	v.SetDefault("spapi.client_secret", "")
	v.SetDefault("spapi.refresh_token", "")
	v.SetDefault("spapi.seller_id", "")
	v.SetDefault("spapi.marketplace", "US")
	v.SetDefault("spapi.language_tag", "")
	v.SetDefault("spapi.locale", "en_US")

	// Listing defaults
	v.SetDefault("listing.brand", "Nofo Vibes")
	v.SetDefault("listing.product_type", "SHIRT")
	v.SetDefault("listing.item_type_keyword", "infant-and-toddler-bodysuits")
	v.SetDefault("listing.variation_theme", "SIZE_NAME/COLOR_NAME")
	v.SetDefault("listing.title_tail", "Baby Boy Girl Clothes Bodysuit Funny Cute")
	v.SetDefault("listing.default_price", "19.99")
	v.SetDefault("listing.currency", "")
	v.SetDefault("listing.quantity", 999)
	v.SetDefault("listing.handling_latency", 2)
	v.SetDefault("listing.main_image_url", "")
	v.SetDefault("listing.country_of_origin", "US")
	v.SetDefault("listing.fabric_type", "100% Cotton")
	v.SetDefault("listing.care_instructions", "Machine Wash")
	v.SetDefault("listing.department", "Baby Boys")
	v.SetDefault("listing.package_length", 8)
	v.SetDefault("listing.package_width", 6)
	v.SetDefault("listing.package_height", 1)
	v.SetDefault("listing.package_dimension_unit", "inches")
	v.SetDefault("listing.package_weight", 0.25)
	v.SetDefault("listing.package_weight_unit", "pounds")
	v.SetDefault("listing.inject_keywords", true)
	v.SetDefault("listing.include_parent_update", true)
	v.SetDefault("listing.parent_schema", string(usecase.SchemaPatch))
	v.SetDefault("listing.stop_words", usecase.DefaultStopWords)
	v.SetDefault("listing.variations", usecase.DefaultVariations)
	v.SetDefault("listing.price_table", map[string]string{})
	v.SetDefault("listing.swatches", map[string]string{})
	v.SetDefault("listing.base_bullets", usecase.DefaultBaseBullets)
	v.SetDefault("listing.base_description", usecase.DefaultBaseDescription)

	// Feed defaults
	v.SetDefault("feed.poll_interval", "30s")
	v.SetDefault("feed.poll_timeout", "20m")
	v.SetDefault("feed.debug_logging", false)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.key_prefix", "parentrebuild:")
	v.SetDefault("cache.token_ttl_margin", "60s")

	// Ledger and events defaults
	v.SetDefault("ledger.database_url", "")
	v.SetDefault("events.brokers", []string{})
	v.SetDefault("events.topic", "parent-rebuild-phases")

	// Rate limit defaults
	v.SetDefault("ratelimit.create_document", spapi.DefaultRateLimits.CreateFeedDocument)
	v.SetDefault("ratelimit.create_feed", spapi.DefaultRateLimits.CreateFeed)
	v.SetDefault("ratelimit.get_feed", spapi.DefaultRateLimits.GetFeed)
	v.SetDefault("ratelimit.get_feed_document", spapi.DefaultRateLimits.GetFeedDocument)
	v.SetDefault("ratelimit.burst", spapi.DefaultRateLimits.Burst)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	schema := usecase.Schema(config.Listing.ParentSchema)
	if schema != usecase.SchemaPatch && schema != usecase.SchemaUpdate {
		return fmt.Errorf("parent schema must be 'patch' or 'update', got: %s", config.Listing.ParentSchema)
	}

	if config.Feed.PollInterval <= 0 || config.Feed.PollTimeout < config.Feed.PollInterval {
		return fmt.Errorf("poll timeout (%s) must be at least the poll interval (%s)",
			config.Feed.PollTimeout, config.Feed.PollInterval)
	}

	if config.Listing.Quantity < 0 || config.Listing.HandlingLatency < 0 {
		return fmt.Errorf("quantity and handling latency must be non-negative")
	}

	return nil
}

// ValidateCredentials checks the settings needed to call SP-API.
// Planning and previews work without them.
func (c *Config) ValidateCredentials() error {
	var missing []string
	if c.SPAPI.ClientID == "" {
		missing = append(missing, "REBUILD_SPAPI_CLIENT_ID")
	}
	if c.SPAPI.ClientSecret == "" {
		missing = append(missing, "REBUILD_SPAPI_CLIENT_SECRET")
	}
	if c.SPAPI.RefreshToken == "" {
		missing = append(missing, "REBUILD_SPAPI_REFRESH_TOKEN")
	}
	if c.SPAPI.SellerID == "" {
		missing = append(missing, "REBUILD_SPAPI_SELLER_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("SP-API credentials are required (set %s)", strings.Join(missing, ", "))
	}
	return nil
}

// Marketplace resolves the configured marketplace code
func (c *Config) Marketplace() spapi.Marketplace {
	return spapi.MarketplaceFor(c.SPAPI.Marketplace)
}

// Endpoint returns the SP-API base URL, defaulting to the marketplace region
func (c *Config) Endpoint() string {
	if c.SPAPI.BaseURL != "" {
		return c.SPAPI.BaseURL
	}
	return c.Marketplace().Endpoint
}

// Credentials returns the LWA credentials
func (c *Config) Credentials() spapi.Credentials {
	return spapi.Credentials{
		ClientID:     c.SPAPI.ClientID,
		ClientSecret: c.SPAPI.ClientSecret,
		RefreshToken: c.SPAPI.RefreshToken,
		TokenURL:     c.SPAPI.TokenURL,
	}
}

// RateLimits returns the per-operation SP-API rate limits
func (c *Config) RateLimits() spapi.RateLimits {
	return spapi.RateLimits{
		CreateFeedDocument: c.RateLimit.CreateDocument,
		CreateFeed:         c.RateLimit.CreateFeed,
		GetFeed:            c.RateLimit.GetFeed,
		GetFeedDocument:    c.RateLimit.GetFeedDocument,
		Burst:              c.RateLimit.Burst,
	}
}

// FeedEngine returns the feed engine settings
func (c *Config) FeedEngine() usecase.FeedEngineConfig {
	return usecase.FeedEngineConfig{
		SellerID:           c.SPAPI.SellerID,
		IssueLocale:        c.SPAPI.Locale,
		MarketplaceIDs:     []string{c.Marketplace().MarketplaceID},
		PollInterval:       c.Feed.PollInterval,
		PollTimeout:        c.Feed.PollTimeout,
		EnableDebugLogging: c.Feed.DebugLogging,
	}
}

// ListingDefaults converts the listing section into the immutable defaults
// record shared by the builders
func (c *Config) ListingDefaults() (usecase.ListingDefaults, error) {
	l := c.Listing
	prices, err := usecase.NewPriceTable(l.PriceTable, l.DefaultPrice)
	if err != nil {
		return usecase.ListingDefaults{}, err
	}

	market := c.Marketplace()
	currency := l.Currency
	if currency == "" {
		currency = market.Currency
	}
	languageTag := c.SPAPI.LanguageTag
	if languageTag == "" {
		languageTag = market.LanguageTag
	}

	return usecase.ListingDefaults{
		Brand:            l.Brand,
		ProductType:      l.ProductType,
		ItemTypeKeyword:  l.ItemTypeKeyword,
		VariationTheme:   l.VariationTheme,
		TitleTail:        l.TitleTail,
		MarketplaceID:    market.MarketplaceID,
		LanguageTag:      languageTag,
		Currency:         currency,
		MainImageURL:     l.MainImageURL,
		CountryOfOrigin:  l.CountryOfOrigin,
		FabricType:       l.FabricType,
		CareInstructions: l.CareInstructions,
		Department:       l.Department,
		Package: usecase.PackageDimensions{
			Length:        l.PackageLength,
			Width:         l.PackageWidth,
			Height:        l.PackageHeight,
			DimensionUnit: l.PackageDimUnit,
			Weight:        l.PackageWeight,
			WeightUnit:    l.PackageWeightUnit,
		},
		Quantity:            l.Quantity,
		HandlingLatency:     l.HandlingLatency,
		InjectKeywords:      l.InjectKeywords,
		IncludeParentUpdate: l.IncludeParentUpdate,
		ParentSchema:        usecase.Schema(l.ParentSchema),
		StopWords:           l.StopWords,
		Variations:          l.Variations,
		BaseDescription:     l.BaseDescription,
		BaseBullets:         l.BaseBullets,
		Prices:              prices,
		Swatches:            usecase.NewSwatchMap(l.Swatches),
	}, nil
}
