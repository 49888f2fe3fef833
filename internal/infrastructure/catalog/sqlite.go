package catalog

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/A-Yoshitsugu/crossborder/internal/domain"
)

// SQLiteLoader reads the catalog from a table in a SQLite database file.
// Rows come back in insertion (rowid) order.
type SQLiteLoader struct {
	path  string
	table string
}

func NewSQLiteLoader(path, table string) *SQLiteLoader {
	return &SQLiteLoader{path: path, table: table}
}

func (l *SQLiteLoader) Load(ctx context.Context) ([]domain.CatalogCandidate, error) {
	query, err := selectQuery(l.table, "rowid")
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", l.path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open sqlite %s: %w", l.path, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("catalog: query sqlite %s: %w", l.path, err)
	}
	defer rows.Close()

	var out []domain.CatalogCandidate
	for rows.Next() {
		var c domain.CatalogCandidate
		if err := rows.Scan(&c.ID, &c.Title, &c.UnitPrice, &c.WeightGrams, &c.ThicknessCm, &c.URL); err != nil {
			return nil, fmt.Errorf("catalog: scan sqlite row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: read sqlite rows: %w", err)
	}
	return out, nil
}

var _ domain.CatalogLoader = (*SQLiteLoader)(nil)
