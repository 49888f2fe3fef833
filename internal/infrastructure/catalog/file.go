package catalog

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/A-Yoshitsugu/crossborder/internal/domain"
)

// FileLoader reads the catalog from a local CSV file
type FileLoader struct {
	path   string
	logger *zap.Logger
}

func NewFileLoader(path string, logger *zap.Logger) *FileLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileLoader{path: path, logger: logger}
}

func (l *FileLoader) Load(ctx context.Context) ([]domain.CatalogCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", l.path, err)
	}
	defer f.Close()

	candidates, rejected, err := ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", l.path, err)
	}
	logRejected(l.logger, l.path, rejected)
	return candidates, nil
}

func logRejected(logger *zap.Logger, source string, rejected []domain.RecordError) {
	for _, r := range rejected {
		logger.Warn("skipping catalog row",
			zap.String("source", source),
			zap.Int("index", r.Index),
			zap.String("id", r.ID),
			zap.Error(r.Err))
	}
}

var _ domain.CatalogLoader = (*FileLoader)(nil)
