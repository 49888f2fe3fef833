package fees

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/A-Yoshitsugu/crossborder/internal/domain"
)

// Store hands out immutable fee snapshots. A reload swaps the whole snapshot, so
// a request that read one snapshot never sees a mix of old and new values.
type Store struct {
	path    string
	current atomic.Pointer[domain.FeeSnapshot]
	logger  *zap.Logger
}

// NewStore loads path and returns a store serving it
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	snap, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	s := &Store{path: path, logger: logger.Named("fees")}
	s.current.Store(&snap)
	return s, nil
}

// NewStaticStore serves snap without a backing file. Reload keeps it unchanged.
func NewStaticStore(snap domain.FeeSnapshot) *Store {
	s := &Store{logger: zap.NewNop()}
	s.current.Store(&snap)
	return s
}

// Snapshot implements domain.FeeSource
func (s *Store) Snapshot() domain.FeeSnapshot {
	return *s.current.Load()
}

// Swap replaces the served snapshot after validating it
func (s *Store) Swap(snap domain.FeeSnapshot) error {
	if err := snap.Fees.Validate(); err != nil {
		return err
	}
	s.current.Store(&snap)
	return nil
}

// Reload re-reads the fee file. On error the previous snapshot stays in place.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	snap, err := LoadFile(s.path)
	if err != nil {
		s.logger.Error("fee reload failed, keeping previous snapshot", zap.String("path", s.path), zap.Error(err))
		return err
	}
	s.current.Store(&snap)
	s.logger.Info("fees reloaded",
		zap.String("path", s.path),
		zap.Int("shipping_bands", len(snap.Fees.ShippingBands)),
		zap.Int("ref_prices", len(snap.RefPrices)))
	return nil
}

var _ domain.FeeSource = (*Store)(nil)
