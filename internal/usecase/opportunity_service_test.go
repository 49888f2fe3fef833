package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/A-Yoshitsugu/crossborder/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	data      map[string][]byte
	getError  error
	setError  error
	getCalled bool
	setCalled bool
	lastTTL   time.Duration
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string][]byte),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.setCalled = true
	m.lastTTL = ttl
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

// MockDemandProvider is a mock implementation of domain.DemandProvider
type MockDemandProvider struct {
	items     []domain.DemandItem
	err       error
	calls     int
	lastQuery domain.DemandQuery
}

func (m *MockDemandProvider) FetchDemand(ctx context.Context, query domain.DemandQuery) ([]domain.DemandItem, error) {
	m.calls++
	m.lastQuery = query
	if m.err != nil {
		return nil, m.err
	}
	return m.items, nil
}

// MockCatalogProvider is a mock implementation of domain.CatalogProvider
type MockCatalogProvider struct {
	catalog *domain.Catalog
	err     error
	ready   bool
}

func (m *MockCatalogProvider) Wait(ctx context.Context) (*domain.Catalog, error) {
	if !m.ready && m.err == nil {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.catalog, m.err
}

func (m *MockCatalogProvider) Ready() bool {
	return m.ready
}

func (m *MockCatalogProvider) Err() error {
	if m.ready {
		return nil
	}
	return m.err
}

// MockFeeSource is a mock implementation of domain.FeeSource
type MockFeeSource struct {
	snapshot domain.FeeSnapshot
}

func (m *MockFeeSource) Snapshot() domain.FeeSnapshot {
	return m.snapshot
}

func demoDemandItems() []domain.DemandItem {
	return []domain.DemandItem{
		{ID: "sg_123", Title: "Washi Tape Sakura", PriceP25: 6.2, PriceMedian: 8.5},
		{ID: "sg_456", Title: "Tenugui A", PriceP25: 12, PriceMedian: 16},
	}
}

type opportunityFixture struct {
	svc     *OpportunityService
	cache   *MockCacheRepository
	demand  *MockDemandProvider
	catalog *MockCatalogProvider
	fees    *MockFeeSource
}

func newOpportunityFixture(t *testing.T) *opportunityFixture {
	t.Helper()
	cat, rejected := domain.NewCatalog([]domain.CatalogCandidate{
		{ID: "jp_001", Title: "Washi Tape Sakura 15mm", UnitPrice: 220, WeightGrams: 40, ThicknessCm: 2, URL: "https://example.jp/1"},
		{ID: "jp_002", Title: "Tenugui Cotton Towel", UnitPrice: 500, WeightGrams: 60, ThicknessCm: 1, URL: "https://example.jp/2"},
	})
	require.Empty(t, rejected)

	f := &opportunityFixture{
		cache:   NewMockCacheRepository(),
		demand:  &MockDemandProvider{items: demoDemandItems()},
		catalog: &MockCatalogProvider{catalog: cat, ready: true},
		fees:    &MockFeeSource{snapshot: domain.FeeSnapshot{Fees: domain.DefaultFeeConfig()}},
	}
	f.svc = NewOpportunityService(f.cache, f.demand, f.catalog, f.fees,
		OpportunityServiceConfig{CacheTTL: time.Hour, Matching: MatchConfig{StripNoiseWords: true}}, nil)
	return f
}

func TestNewOpportunityService_DefaultTTL(t *testing.T) {
	svc := NewOpportunityService(nil, &MockDemandProvider{}, &MockCatalogProvider{}, &MockFeeSource{}, OpportunityServiceConfig{}, nil)
	assert.Equal(t, 6*time.Hour, svc.cacheTTL)
	assert.NotNil(t, svc.matcher)
	assert.NotNil(t, svc.scorer)
}

func TestOpportunityService_CatalogState(t *testing.T) {
	f := newOpportunityFixture(t)
	assert.True(t, f.svc.CatalogReady())
	assert.Equal(t, 2, f.svc.CatalogSize())

	f.catalog.ready = false
	assert.False(t, f.svc.CatalogReady())
	assert.Equal(t, 0, f.svc.CatalogSize())
	assert.NoError(t, f.svc.CatalogError())

	f.catalog.err = errors.New("open catalog.csv: no such file")
	assert.EqualError(t, f.svc.CatalogError(), "open catalog.csv: no such file")
}

func TestOpportunityService_FetchDemand_CacheMissThenHit(t *testing.T) {
	f := newOpportunityFixture(t)
	ctx := context.Background()

	items, err := f.svc.FetchDemand(ctx, domain.DemandQuery{Categories: []string{" Washi ", "tenugui", "washi"}})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 1, f.demand.calls)
	assert.Equal(t, domain.DemandQuery{Categories: []string{"tenugui", "washi"}, Days: 30}, f.demand.lastQuery)

	assert.True(t, f.cache.setCalled)
	assert.Equal(t, time.Hour, f.cache.lastTTL)
	raw, ok := f.cache.data["demand:tenugui,washi:30"]
	require.True(t, ok)
	var cached []domain.DemandItem
	require.NoError(t, json.Unmarshal(raw, &cached))
	assert.Equal(t, items, cached)

	again, err := f.svc.FetchDemand(ctx, domain.DemandQuery{Categories: []string{"washi", "TENUGUI"}, Days: 30})
	require.NoError(t, err)
	assert.Equal(t, items, again)
	assert.Equal(t, 1, f.demand.calls, "second call is served from cache")
}

func TestOpportunityService_FetchDemand_CacheFailuresAreBestEffort(t *testing.T) {
	f := newOpportunityFixture(t)
	f.cache.getError = domain.ErrCacheUnavailable
	f.cache.setError = domain.ErrCacheUnavailable

	items, err := f.svc.FetchDemand(context.Background(), domain.DemandQuery{Categories: []string{"washi"}})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 1, f.demand.calls)
}

func TestOpportunityService_FetchDemand_CorruptCacheEntry(t *testing.T) {
	f := newOpportunityFixture(t)
	f.cache.data["demand:washi:30"] = []byte("{not json")

	items, err := f.svc.FetchDemand(context.Background(), domain.DemandQuery{Categories: []string{"washi"}})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 1, f.demand.calls)
}

func TestOpportunityService_FetchDemand_ProviderErrors(t *testing.T) {
	tests := []struct {
		name        string
		providerErr error
		wantIs      error
	}{
		{name: "upstream failure passes through", providerErr: domain.ErrUpstreamFailure, wantIs: domain.ErrUpstreamFailure},
		{name: "rate limit passes through", providerErr: domain.ErrRateLimited, wantIs: domain.ErrRateLimited},
		{name: "other errors become upstream failures", providerErr: errors.New("connection reset"), wantIs: domain.ErrUpstreamFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOpportunityFixture(t)
			f.demand.err = tt.providerErr

			_, err := f.svc.FetchDemand(context.Background(), domain.DemandQuery{Categories: []string{"washi"}})
			assert.ErrorIs(t, err, tt.wantIs)
			assert.False(t, f.cache.setCalled)
		})
	}
}

func TestNormalizeDemandQuery(t *testing.T) {
	tests := []struct {
		name      string
		in        domain.DemandQuery
		want      domain.DemandQuery
		wantField string
	}{
		{
			name: "defaults days and sorts categories",
			in:   domain.DemandQuery{Categories: []string{"Washi", "  tenugui"}},
			want: domain.DemandQuery{Categories: []string{"tenugui", "washi"}, Days: 30},
		},
		{
			name: "keeps explicit days",
			in:   domain.DemandQuery{Categories: []string{"washi"}, Days: 365},
			want: domain.DemandQuery{Categories: []string{"washi"}, Days: 365},
		},
		{name: "no categories", in: domain.DemandQuery{}, wantField: "categories"},
		{name: "blank categories", in: domain.DemandQuery{Categories: []string{" ", ""}}, wantField: "categories"},
		{name: "negative days", in: domain.DemandQuery{Categories: []string{"washi"}, Days: -1}, wantField: "days"},
		{name: "days too large", in: domain.DemandQuery{Categories: []string{"washi"}, Days: 366}, wantField: "days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeDemandQuery(tt.in)
			if tt.wantField != "" {
				assert.ErrorIs(t, err, domain.ErrInvalidRequest)
				var vErr *domain.ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, tt.wantField, vErr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateDemandCacheKey(t *testing.T) {
	assert.Equal(t, "demand:tenugui,washi:30",
		generateDemandCacheKey(domain.DemandQuery{Categories: []string{"tenugui", "washi"}, Days: 30}))
	assert.Equal(t, "demand:washi:7",
		generateDemandCacheKey(domain.DemandQuery{Categories: []string{"washi"}, Days: 7}))
}

func TestOpportunityService_MatchItems(t *testing.T) {
	f := newOpportunityFixture(t)

	res, err := f.svc.MatchItems(context.Background(), demoDemandItems())
	require.NoError(t, err)
	require.Len(t, res.Matches, 2)
	assert.Equal(t, "jp_001", res.Matches[0].CandidateID)
	assert.Equal(t, "jp_002", res.Matches[1].CandidateID)
}

func TestOpportunityService_MatchItems_CatalogNotReady(t *testing.T) {
	f := newOpportunityFixture(t)
	f.catalog.ready = false

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.svc.MatchItems(ctx, demoDemandItems())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOpportunityService_MatchItems_CatalogLoadFailed(t *testing.T) {
	f := newOpportunityFixture(t)
	f.catalog.ready = false
	f.catalog.err = errors.New("open catalog.csv: no such file")

	_, err := f.svc.MatchItems(context.Background(), demoDemandItems())
	assert.EqualError(t, err, "open catalog.csv: no such file")
}

func TestOpportunityService_ScoreMatches(t *testing.T) {
	f := newOpportunityFixture(t)
	f.fees.snapshot.RefPrices = map[string]domain.RefPrice{"jp_001": {P25: 1, Median: 2}}

	match := domain.MatchRecord{DemandID: "sg_123", CandidateID: "jp_001", UnitPrice: 220, Similarity: 1, WeightGrams: 40, ThicknessCm: 2}

	t.Run("request prices win over static table", func(t *testing.T) {
		res, err := f.svc.ScoreMatches([]domain.MatchRecord{match},
			map[string]domain.RefPrice{"jp_001": {P25: 6.2, Median: 8.5}},
			domain.FeeOverrides{MarginThreshold: domain.Some(0.3)})
		require.NoError(t, err)
		require.Len(t, res.Rows, 1)
		assert.Equal(t, 5.49, res.Rows[0].LandedCost)
		assert.Equal(t, 0.354, res.Rows[0].GrossMargin)
	})

	t.Run("static table is the fallback", func(t *testing.T) {
		res, err := f.svc.ScoreMatches([]domain.MatchRecord{match}, nil, domain.FeeOverrides{MarginThreshold: domain.Some(0)})
		require.NoError(t, err)
		require.Len(t, res.Rows, 1)
		assert.Equal(t, domain.RefPrice{P25: 1, Median: 2}, res.Rows[0].SellPriceRef)
		assert.Equal(t, 0.0, res.Rows[0].GrossMargin)
	})

	t.Run("invalid override", func(t *testing.T) {
		_, err := f.svc.ScoreMatches([]domain.MatchRecord{match}, nil, domain.FeeOverrides{FXRate: domain.Some(0)})
		assert.ErrorIs(t, err, domain.ErrConfig)
	})
}

func TestOpportunityService_FindOpportunities(t *testing.T) {
	f := newOpportunityFixture(t)

	report, err := f.svc.FindOpportunities(context.Background(), OpportunityQuery{
		Categories: []string{"washi", "tenugui"},
		Overrides:  domain.FeeOverrides{MarginThreshold: domain.Some(0.3)},
	})
	require.NoError(t, err)

	_, err = uuid.Parse(report.RunID)
	assert.NoError(t, err)
	assert.Equal(t, domain.DemandQuery{Categories: []string{"tenugui", "washi"}, Days: 30}, report.Query)
	assert.Equal(t, 2, report.DemandItems)
	assert.Len(t, report.Matches, 2)
	assert.Empty(t, report.Failures)

	require.Len(t, report.Scored, 2)
	assert.Equal(t, "jp_002", report.Scored[0].CandidateID)
	assert.Equal(t, 10.05, report.Scored[0].LandedCost)
	assert.Equal(t, 0.372, report.Scored[0].GrossMargin)
	assert.Equal(t, "jp_001", report.Scored[1].CandidateID)
	assert.Equal(t, 0.354, report.Scored[1].GrossMargin)
}

func TestOpportunityService_FindOpportunities_DefaultThresholdDropsAll(t *testing.T) {
	f := newOpportunityFixture(t)

	report, err := f.svc.FindOpportunities(context.Background(), OpportunityQuery{Categories: []string{"washi"}})
	require.NoError(t, err)
	assert.Len(t, report.Matches, 2)
	assert.Empty(t, report.Scored)
	assert.Empty(t, report.Failures)
}

func TestOpportunityService_FindOpportunities_Failures(t *testing.T) {
	t.Run("invalid overrides fail before fetching demand", func(t *testing.T) {
		f := newOpportunityFixture(t)
		_, err := f.svc.FindOpportunities(context.Background(), OpportunityQuery{
			Categories: []string{"washi"},
			Overrides:  domain.FeeOverrides{FXRate: domain.Some(-1)},
		})
		assert.ErrorIs(t, err, domain.ErrConfig)
		assert.Equal(t, 0, f.demand.calls)
	})

	t.Run("missing categories", func(t *testing.T) {
		f := newOpportunityFixture(t)
		_, err := f.svc.FindOpportunities(context.Background(), OpportunityQuery{})
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("empty catalog", func(t *testing.T) {
		f := newOpportunityFixture(t)
		empty, _ := domain.NewCatalog(nil)
		f.catalog.catalog = empty
		_, err := f.svc.FindOpportunities(context.Background(), OpportunityQuery{Categories: []string{"washi"}})
		assert.ErrorIs(t, err, domain.ErrNoCandidates)
	})

	t.Run("invalid demand rows are reported", func(t *testing.T) {
		f := newOpportunityFixture(t)
		f.demand.items = append(demoDemandItems(), domain.DemandItem{ID: "", Title: "Washi"})
		report, err := f.svc.FindOpportunities(context.Background(), OpportunityQuery{
			Categories: []string{"washi"},
			Overrides:  domain.FeeOverrides{MarginThreshold: domain.Some(0.3)},
		})
		require.NoError(t, err)
		assert.Len(t, report.Scored, 2)
		require.Len(t, report.Failures, 1)
		assert.Equal(t, 2, report.Failures[0].Index)
	})
}

func TestOpportunityService_FindOpportunities_PricesEachDemandItem(t *testing.T) {
	cat, rejected := domain.NewCatalog([]domain.CatalogCandidate{
		{ID: "jp_001", Title: "Washi Tape Sakura", UnitPrice: 220, WeightGrams: 40, ThicknessCm: 2},
	})
	require.Empty(t, rejected)

	demandProvider := &MockDemandProvider{items: []domain.DemandItem{
		{ID: "sg_cheap", Title: "Washi Tape Sakura", PriceP25: 6.2, PriceMedian: 8.5},
		{ID: "sg_dear", Title: "Washi Tape Sakura", PriceP25: 30, PriceMedian: 40},
	}}
	fees := &MockFeeSource{snapshot: domain.FeeSnapshot{
		Fees:      domain.DefaultFeeConfig(),
		RefPrices: map[string]domain.RefPrice{"jp_001": {P25: 1, Median: 2}},
	}}
	svc := NewOpportunityService(nil, demandProvider, &MockCatalogProvider{catalog: cat, ready: true}, fees,
		OpportunityServiceConfig{}, nil)

	t.Run("both rows keep their own sell price", func(t *testing.T) {
		report, err := svc.FindOpportunities(context.Background(), OpportunityQuery{
			Categories: []string{"washi"},
			Overrides:  domain.FeeOverrides{MarginThreshold: domain.Some(0)},
		})
		require.NoError(t, err)
		require.Len(t, report.Scored, 2)

		assert.Equal(t, "sg_dear", report.Scored[0].DemandID)
		assert.Equal(t, domain.RefPrice{P25: 30, Median: 40}, report.Scored[0].SellPriceRef)
		assert.Equal(t, 9.11, report.Scored[0].LandedCost)
		assert.Equal(t, 0.772, report.Scored[0].GrossMargin)

		assert.Equal(t, "sg_cheap", report.Scored[1].DemandID)
		assert.Equal(t, 8.5, report.Scored[1].SellPriceRef.Median)
		assert.Equal(t, 0.354, report.Scored[1].GrossMargin)
	})

	t.Run("profitable row survives the default threshold", func(t *testing.T) {
		report, err := svc.FindOpportunities(context.Background(), OpportunityQuery{Categories: []string{"washi"}})
		require.NoError(t, err)
		require.Len(t, report.Scored, 1)
		assert.Equal(t, "sg_dear", report.Scored[0].DemandID)
	})
}
