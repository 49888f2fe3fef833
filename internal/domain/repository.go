package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// CatalogLoader reads the source catalog from its persisted tabular resource
type CatalogLoader interface {
	Load(ctx context.Context) ([]CatalogCandidate, error)
}

// CatalogProvider hands out the published catalog.
// Wait blocks until the one-time load has completed or ctx is done.
type CatalogProvider interface {
	Wait(ctx context.Context) (*Catalog, error)
	Ready() bool
	// Err returns the load error once loading has failed, nil otherwise
	Err() error
}

// DemandProvider supplies demand items for a category filter and lookback window
type DemandProvider interface {
	FetchDemand(ctx context.Context, query DemandQuery) ([]DemandItem, error)
}

// FeeSource returns the current fee snapshot. Each call returns one consistent view.
type FeeSource interface {
	Snapshot() FeeSnapshot
}

// RefPriceResolver returns the reference sell prices for one match.
// Implementations key on the demand side, the candidate side, or both.
type RefPriceResolver interface {
	Resolve(m MatchRecord) (RefPrice, bool)
}

// RefPriceFunc adapts a plain function to RefPriceResolver
type RefPriceFunc func(m MatchRecord) (RefPrice, bool)

func (f RefPriceFunc) Resolve(m MatchRecord) (RefPrice, bool) {
	return f(m)
}
