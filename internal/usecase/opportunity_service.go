package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/A-Yoshitsugu/crossborder/internal/domain"
	"github.com/A-Yoshitsugu/crossborder/internal/infrastructure/refprice"
)

// Lookback window bounds for demand queries
const (
	defaultLookbackDays = 30
	maxLookbackDays     = 365
)

// OpportunityServiceConfig holds configuration for the opportunity service
type OpportunityServiceConfig struct {
	CacheTTL time.Duration
	Matching MatchConfig
}

// OpportunityService wires demand lookup, matching and scoring into one pass
type OpportunityService struct {
	cache    domain.CacheRepository
	demand   domain.DemandProvider
	catalogs domain.CatalogProvider
	fees     domain.FeeSource
	matcher  *MatchingService
	scorer   *ScoringService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// OpportunityQuery is one end-to-end scan request
type OpportunityQuery struct {
	Categories []string
	Days       int
	Overrides  domain.FeeOverrides
}

// NewOpportunityService creates a new opportunity service with dependencies
func NewOpportunityService(
	cache domain.CacheRepository,
	demand domain.DemandProvider,
	catalogs domain.CatalogProvider,
	fees domain.FeeSource,
	config OpportunityServiceConfig,
	logger *zap.Logger,
) *OpportunityService {
	if logger == nil {
		logger = zap.NewNop()
	}

	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 6 * time.Hour
	}

	return &OpportunityService{
		cache:    cache,
		demand:   demand,
		catalogs: catalogs,
		fees:     fees,
		matcher:  NewMatchingService(config.Matching, logger),
		scorer:   NewScoringService(logger),
		cacheTTL: cacheTTL,
		logger:   logger.Named("opportunities"),
	}
}

// CatalogReady reports whether the catalog has been published
func (s *OpportunityService) CatalogReady() bool {
	return s.catalogs.Ready()
}

// CatalogError returns the catalog load error, or nil while loading or once published
func (s *OpportunityService) CatalogError() error {
	return s.catalogs.Err()
}

// CatalogSize returns the number of published candidates, or 0 before publication
func (s *OpportunityService) CatalogSize() int {
	if !s.catalogs.Ready() {
		return 0
	}
	cat, err := s.catalogs.Wait(context.Background())
	if err != nil {
		return 0
	}
	return cat.Len()
}

// FetchDemand returns demand items for the query.
// Flow: normalize query -> check cache -> provider -> cache -> return
func (s *OpportunityService) FetchDemand(ctx context.Context, query domain.DemandQuery) ([]domain.DemandItem, error) {
	query, err := normalizeDemandQuery(query)
	if err != nil {
		return nil, err
	}

	cacheKey := generateDemandCacheKey(query)

	if items, err := s.getFromCache(ctx, cacheKey); err == nil {
		s.logger.Debug("demand cache hit", zap.String("key", cacheKey), zap.Int("items", len(items)))
		return items, nil
	}

	items, err := s.demand.FetchDemand(ctx, query)
	if err != nil {
		if errors.Is(err, domain.ErrUpstreamFailure) || errors.Is(err, domain.ErrRateLimited) || ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamFailure, err)
	}

	if err := s.setInCache(ctx, cacheKey, items); err != nil {
		// Caching is best effort
		s.logger.Warn("failed to cache demand items", zap.String("key", cacheKey), zap.Error(err))
	}

	return items, nil
}

// MatchItems matches demand items against the published catalog
func (s *OpportunityService) MatchItems(ctx context.Context, items []domain.DemandItem) (*MatchResult, error) {
	catalog, err := s.catalogs.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return s.matcher.Match(ctx, items, catalog)
}

// ScoreMatches scores caller-supplied matches. Reference prices come from the
// request table first and then from the configured static table.
func (s *OpportunityService) ScoreMatches(
	matches []domain.MatchRecord,
	requestPrices map[string]domain.RefPrice,
	overrides domain.FeeOverrides,
) (*ScoreResult, error) {
	snapshot := s.fees.Snapshot()

	fees, err := ResolveFees(snapshot.Fees, overrides)
	if err != nil {
		return nil, err
	}

	prices := refprice.Chain(refprice.Table(requestPrices), refprice.Table(snapshot.RefPrices))
	return s.scorer.Score(matches, prices, fees)
}

// FindOpportunities runs demand lookup, matching and scoring as one pass.
// Reference prices come from the matched demand items first, then the static table.
func (s *OpportunityService) FindOpportunities(ctx context.Context, query OpportunityQuery) (*domain.OpportunityReport, error) {
	// Read the fee snapshot once so a concurrent reload cannot tear this request
	snapshot := s.fees.Snapshot()
	fees, err := ResolveFees(snapshot.Fees, query.Overrides)
	if err != nil {
		return nil, err
	}

	demandQuery, err := normalizeDemandQuery(domain.DemandQuery{Categories: query.Categories, Days: query.Days})
	if err != nil {
		return nil, err
	}

	items, err := s.FetchDemand(ctx, demandQuery)
	if err != nil {
		return nil, err
	}

	matched, err := s.MatchItems(ctx, items)
	if err != nil {
		return nil, err
	}

	prices := refprice.Chain(
		refprice.FromDemand(items),
		refprice.Table(snapshot.RefPrices),
	)

	scored, err := s.scorer.Score(matched.Matches, prices, fees)
	if err != nil {
		return nil, err
	}

	report := &domain.OpportunityReport{
		RunID:       uuid.New().String(),
		Query:       demandQuery,
		DemandItems: len(items),
		Matches:     matched.Matches,
		Scored:      scored.Rows,
		Failures:    append(slices.Clone(matched.Failures), scored.Failures...),
	}

	s.logger.Info("opportunity scan finished",
		zap.String("run_id", report.RunID),
		zap.Strings("categories", demandQuery.Categories),
		zap.Int("days", demandQuery.Days),
		zap.Int("demand_items", report.DemandItems),
		zap.Int("matches", len(report.Matches)),
		zap.Int("scored", len(report.Scored)),
		zap.Int("failures", len(report.Failures)))

	return report, nil
}

// normalizeDemandQuery trims, lower-cases, de-duplicates and sorts categories and
// applies the default lookback window.
func normalizeDemandQuery(q domain.DemandQuery) (domain.DemandQuery, error) {
	cats := make([]string, 0, len(q.Categories))
	for _, c := range q.Categories {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" {
			cats = append(cats, c)
		}
	}
	slices.Sort(cats)
	cats = slices.Compact(cats)

	if len(cats) == 0 {
		return q, fmt.Errorf("%w: %w", domain.ErrInvalidRequest,
			&domain.ValidationError{Field: "categories", Reason: "at least one category is required"})
	}

	days := q.Days
	if days == 0 {
		days = defaultLookbackDays
	}
	if days < 1 || days > maxLookbackDays {
		return q, fmt.Errorf("%w: %w", domain.ErrInvalidRequest,
			&domain.ValidationError{Field: "days", Reason: fmt.Sprintf("must be within [1,%d]", maxLookbackDays)})
	}

	return domain.DemandQuery{Categories: cats, Days: days}, nil
}

// generateDemandCacheKey creates a cache key from a normalized query.
// Format: "demand:{categories joined by comma}:{days}"
func generateDemandCacheKey(q domain.DemandQuery) string {
	return fmt.Sprintf("demand:%s:%d", strings.Join(q.Categories, ","), q.Days)
}

// getFromCache retrieves demand items from cache
func (s *OpportunityService) getFromCache(ctx context.Context, key string) ([]domain.DemandItem, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var items []domain.DemandItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: corrupt entry %s: %v", domain.ErrCacheMiss, key, err)
	}
	return items, nil
}

// setInCache stores demand items in cache
func (s *OpportunityService) setInCache(ctx context.Context, key string, items []domain.DemandItem) error {
	if s.cache == nil {
		return nil
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, raw, s.cacheTTL)
}
