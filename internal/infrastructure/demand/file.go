package demand

import (
	"fmt"
	"os"

	"github.com/A-Yoshitsugu/crossborder/internal/domain"
)

// LoadFile reads demand rows from a JSON file in the upstream API format
// (a bare array or {"items": [...]}). Rejected rows are returned alongside.
func LoadFile(path string) ([]domain.DemandItem, []domain.RecordError, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read demand file: %w", err)
	}
	rows, err := decodeRows(body)
	if err != nil {
		return nil, nil, fmt.Errorf("parse demand file %s: %w", path, err)
	}
	items, failures := MapRows(rows)
	return items, failures, nil
}
