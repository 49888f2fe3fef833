package catalog

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/A-Yoshitsugu/crossborder/internal/domain"
)

// Gate publishes the catalog exactly once. Readers block in Wait until the
// load has either succeeded (Publish) or failed (Fail).
type Gate struct {
	once    sync.Once
	done    chan struct{}
	catalog *domain.Catalog
	err     error
	ready   atomic.Bool
}

func NewGate() *Gate {
	return &Gate{done: make(chan struct{})}
}

// Publish releases waiters with c. Only the first Publish or Fail takes effect.
func (g *Gate) Publish(c *domain.Catalog) {
	g.once.Do(func() {
		g.catalog = c
		g.ready.Store(true)
		close(g.done)
	})
}

// Fail releases waiters with err. Only the first Publish or Fail takes effect.
func (g *Gate) Fail(err error) {
	g.once.Do(func() {
		g.err = err
		close(g.done)
	})
}

// Ready reports whether a catalog has been published
func (g *Gate) Ready() bool {
	return g.ready.Load()
}

// Err returns the load error after Fail, nil while loading or after Publish
func (g *Gate) Err() error {
	select {
	case <-g.done:
		return g.err
	default:
		return nil
	}
}

// Wait returns the published catalog, the load error, or ctx's error
func (g *Gate) Wait(ctx context.Context) (*domain.Catalog, error) {
	select {
	case <-g.done:
		return g.catalog, g.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

var _ domain.CatalogProvider = (*Gate)(nil)
