package app

import (
	"context"
	"fmt"
	"log"

	"github.com/parentrebuild/backend/config"
	"github.com/parentrebuild/backend/internal/domain"
	"github.com/parentrebuild/backend/internal/infrastructure/cache"
	"github.com/parentrebuild/backend/internal/infrastructure/events"
	"github.com/parentrebuild/backend/internal/infrastructure/ledger"
	"github.com/parentrebuild/backend/internal/infrastructure/spapi"
	"github.com/parentrebuild/backend/internal/usecase"
)

// App is the wired rebuild service plus the resources it holds open
type App struct {
	Service *usecase.RebuildService
	closers []func() error
}

// New wires the rebuild service from configuration: token cache, SP-API client,
// submission ledger and phase event publisher.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	defaults, err := cfg.ListingDefaults()
	if err != nil {
		return nil, fmt.Errorf("invalid listing configuration: %w", err)
	}

	tokenCache, err := a.openCache(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	tokens := spapi.NewCachedTokenSource(
		tokenCache,
		spapi.NewTokenSource(ctx, cfg.Credentials()),
		cfg.SPAPI.ClientID,
		cfg.Cache.TokenTTLMargin,
	)
	client := spapi.NewClient(cfg.Endpoint(), tokens, cfg.RateLimits())
	client.SetDebug(cfg.Feed.DebugLogging)

	market := cfg.Marketplace()
	log.Printf("[SPAPI] Marketplace %s (%s) via %s", market.Code, market.MarketplaceID, cfg.Endpoint())

	submissions, err := a.openLedger(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	engine := usecase.NewFeedEngine(client, cfg.FeedEngine())
	a.Service = usecase.NewRebuildService(defaults, engine, submissions, a.openEvents(cfg), cfg.Feed.DebugLogging)
	return a, nil
}

func (a *App) openCache(ctx context.Context, cfg *config.Config) (domain.CacheRepository, error) {
	if cfg.Cache.Type == "redis" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL, cfg.Cache.KeyPrefix)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, redisCache.Close)
		return redisCache, nil
	}

	memoryCache := cache.NewMemoryCache(0)
	a.closers = append(a.closers, memoryCache.Close)
	log.Printf("[CACHE] Using in-memory token cache")
	return memoryCache, nil
}

func (a *App) openLedger(cfg *config.Config) (domain.SubmissionLedger, error) {
	if cfg.Ledger.DatabaseURL == "" {
		log.Printf("[LEDGER] No database configured, submissions are not recorded")
		return ledger.Noop{}, nil
	}
	gormLedger, err := ledger.Open(cfg.Ledger.DatabaseURL, cfg.Feed.DebugLogging)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, gormLedger.Close)
	return gormLedger, nil
}

func (a *App) openEvents(cfg *config.Config) domain.EventPublisher {
	if len(cfg.Events.Brokers) == 0 {
		return events.LogPublisher{}
	}
	publisher := events.NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.Topic)
	a.closers = append(a.closers, publisher.Close)
	return publisher
}

// Close releases resources in reverse order of opening
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("Failed to close resource: %v", err)
		}
	}
	a.closers = nil
}
