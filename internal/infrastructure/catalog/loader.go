package catalog

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/A-Yoshitsugu/crossborder/internal/domain"
)

// Source names accepted in configuration
const (
	SourceFile     = "file"
	SourceS3       = "s3"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
)

// Config selects and parameterises the catalog source
type Config struct {
	Source string
	Path   string
	DSN    string
	Table  string
	S3     S3Config
}

// NewLoader returns the loader for cfg.Source
func NewLoader(ctx context.Context, cfg Config, logger *zap.Logger) (domain.CatalogLoader, error) {
	switch cfg.Source {
	case SourceFile, "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("catalog: file source requires a path")
		}
		return NewFileLoader(cfg.Path, logger), nil
	case SourceS3:
		return NewS3Loader(ctx, cfg.S3, logger)
	case SourceSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("catalog: sqlite source requires a path")
		}
		return NewSQLiteLoader(cfg.Path, cfg.Table), nil
	case SourcePostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("catalog: postgres source requires a dsn")
		}
		return NewPostgresLoader(cfg.DSN, cfg.Table), nil
	default:
		return nil, fmt.Errorf("catalog: unknown source %q", cfg.Source)
	}
}

// Build loads candidates and constructs the immutable catalog.
// Invalid or duplicate rows are logged and left out.
func Build(ctx context.Context, loader domain.CatalogLoader, logger *zap.Logger) (*domain.Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	start := time.Now()
	candidates, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	catalog, rejected := domain.NewCatalog(candidates)
	logRejected(logger, "catalog", rejected)

	logger.Info("catalog loaded",
		zap.Int("candidates", catalog.Len()),
		zap.Int("rejected", len(rejected)),
		zap.Duration("elapsed", time.Since(start)))
	return catalog, nil
}

// LoadInto builds the catalog and publishes the outcome on gate
func LoadInto(ctx context.Context, gate *Gate, loader domain.CatalogLoader, logger *zap.Logger) error {
	catalog, err := Build(ctx, loader, logger)
	if err != nil {
		gate.Fail(err)
		return err
	}
	gate.Publish(catalog)
	return nil
}
