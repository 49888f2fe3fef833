// Package app wires configuration into the concrete dependencies shared by the
// HTTP server and the CLI.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/A-Yoshitsugu/crossborder/config"
	"github.com/A-Yoshitsugu/crossborder/internal/domain"
	"github.com/A-Yoshitsugu/crossborder/internal/infrastructure/cache"
	"github.com/A-Yoshitsugu/crossborder/internal/infrastructure/catalog"
	"github.com/A-Yoshitsugu/crossborder/internal/infrastructure/demand"
	"github.com/A-Yoshitsugu/crossborder/internal/infrastructure/fees"
	"github.com/A-Yoshitsugu/crossborder/internal/usecase"
)

// Version is reported by /health and the CLI. Overridden at build time with -ldflags.
var Version = "dev"

// redisKeyPrefix namespaces every cache key this service writes
const redisKeyPrefix = "crossborder:"

// Dependencies bundles what the server and CLI need to run a scan.
// Built by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Cache         domain.CacheRepository
	Demand        domain.DemandProvider
	CatalogLoader domain.CatalogLoader
	Gate          *catalog.Gate
	Fees          *fees.Store
	Service       *usecase.OpportunityService
}

// Option adjusts how Wire builds dependencies
type Option func(*options)

type options struct {
	demand domain.DemandProvider
}

// WithDemandProvider replaces the configured demand source
func WithDemandProvider(p domain.DemandProvider) Option {
	return func(o *options) { o.demand = p }
}

// Wire constructs every dependency from cfg. The catalog is not loaded here:
// callers run LoadCatalog so the server can start answering /health first.
func Wire(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*Dependencies, func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{Gate: catalog.NewGate()}

	// --- Cache ---
	switch cfg.Cache.Type {
	case "redis":
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL, redisKeyPrefix)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = rc.Close() })
		deps.Cache = rc
	default:
		mc := cache.NewMemoryCache()
		closers = append(closers, func() { _ = mc.Close() })
		deps.Cache = mc
	}
	logger.Info("cache configured", zap.String("type", cfg.Cache.Type), zap.Duration("ttl", cfg.Cache.TTL))

	// --- Demand ---
	switch {
	case o.demand != nil:
		deps.Demand = o.demand
	case cfg.Demand.BaseURL != "":
		client := demand.NewClient(cfg.Demand.BaseURL, cfg.Demand.RequestsPerHour, cfg.Demand.Timeout, logger)
		client.SetDebug(cfg.Log.Debug)
		deps.Demand = client
		logger.Info("demand API configured",
			zap.String("base_url", cfg.Demand.BaseURL),
			zap.Int("requests_per_hour", cfg.Demand.RequestsPerHour))
	default:
		deps.Demand = demand.NewStaticProvider(nil)
		logger.Warn("demand base_url not set, serving the built-in demo rows")
	}

	// --- Catalog source ---
	loader, err := catalog.NewLoader(ctx, catalog.Config{
		Source: cfg.Catalog.Source,
		Path:   cfg.Catalog.Path,
		DSN:    cfg.Catalog.DSN,
		Table:  cfg.Catalog.Table,
		S3: catalog.S3Config{
			Bucket:         cfg.Catalog.S3.Bucket,
			Key:            cfg.Catalog.S3.Key,
			Region:         cfg.Catalog.S3.Region,
			Endpoint:       cfg.Catalog.S3.Endpoint,
			AccessKey:      cfg.Catalog.S3.AccessKey,
			SecretKey:      cfg.Catalog.S3.SecretKey,
			ForcePathStyle: cfg.Catalog.S3.ForcePathStyle,
		},
	}, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: catalog: %w", err)
	}
	deps.CatalogLoader = loader

	// --- Fees ---
	store, err := fees.NewStore(cfg.Fees.Path, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: fees: %w", err)
	}
	deps.Fees = store

	deps.Service = usecase.NewOpportunityService(
		deps.Cache,
		deps.Demand,
		deps.Gate,
		deps.Fees,
		usecase.OpportunityServiceConfig{
			CacheTTL: cfg.Cache.TTL,
			Matching: usecase.MatchConfig{
				StripNoiseWords:    cfg.Matching.StripNoise,
				EnableDebugLogging: cfg.Matching.DebugLogging,
			},
		},
		logger,
	)

	return deps, cleanup, nil
}

// LoadCatalog reads the catalog source once and publishes the result on the gate.
// A failed load is published too, so waiting requests fail instead of hanging.
func (d *Dependencies) LoadCatalog(ctx context.Context, logger *zap.Logger) error {
	if err := catalog.LoadInto(ctx, d.Gate, d.CatalogLoader, logger); err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	return nil
}
