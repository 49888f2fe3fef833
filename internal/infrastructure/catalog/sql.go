package catalog

import (
	"fmt"
	"regexp"
)

const defaultTable = "catalog_items"

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// selectQuery builds the catalog query for table, ordered so that load order is stable
func selectQuery(table, orderBy string) (string, error) {
	if table == "" {
		table = defaultTable
	}
	if !identifierPattern.MatchString(table) {
		return "", fmt.Errorf("catalog: invalid table name %q", table)
	}
	return fmt.Sprintf(
		"SELECT id, title, unit_price, weight_g, thickness_cm, COALESCE(url, '') FROM %s ORDER BY %s",
		table, orderBy,
	), nil
}
