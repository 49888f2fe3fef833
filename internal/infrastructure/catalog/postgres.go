package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/A-Yoshitsugu/crossborder/internal/domain"
)

// PostgresLoader reads the catalog from a PostgreSQL table ordered by id
type PostgresLoader struct {
	dsn   string
	table string
}

func NewPostgresLoader(dsn, table string) *PostgresLoader {
	return &PostgresLoader{dsn: dsn, table: table}
}

func (l *PostgresLoader) Load(ctx context.Context) ([]domain.CatalogCandidate, error) {
	query, err := selectQuery(l.table, "id")
	if err != nil {
		return nil, err
	}

	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return nil, fmt.Errorf("catalog: connect postgres: %w", err)
	}
	defer conn.Close(context.WithoutCancel(ctx))

	rows, err := conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("catalog: query postgres: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.CatalogCandidate, error) {
		var c domain.CatalogCandidate
		err := row.Scan(&c.ID, &c.Title, &c.UnitPrice, &c.WeightGrams, &c.ThicknessCm, &c.URL)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: read postgres rows: %w", err)
	}
	return out, nil
}

var _ domain.CatalogLoader = (*PostgresLoader)(nil)
