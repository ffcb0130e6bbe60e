package postgres

import (
	"fmt"
	"strings"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/domain"
)

// buildInventoryFilterClause constructs the AND-joined conditions for
// allocation queries, numbering placeholders from startIndex.
func buildInventoryFilterClause(filter domain.InventoryFilter, alias string, startIndex int) (string, []interface{}, int) {
	alias = normalizeAlias(alias)

	var (
		clauses []string
		args    []interface{}
	)
	idx := startIndex

	if filter.SnapshotDate != "" {
		clauses = append(clauses, fmt.Sprintf("%ssnapshot_date = $%d::date", alias, idx))
		args = append(args, filter.SnapshotDate)
		idx++
	}

	if len(filter.SKUs) > 0 {
		placeholders := make([]string, len(filter.SKUs))
		for i, sku := range filter.SKUs {
			placeholders[i] = fmt.Sprintf("$%d", idx)
			args = append(args, sku)
			idx++
		}
		clauses = append(clauses, fmt.Sprintf("%ssku IN (%s)", alias, strings.Join(placeholders, ",")))
	}

	if filter.Warehouse != "" {
		clauses = append(clauses, fmt.Sprintf("%schosen_warehouse = $%d", alias, idx))
		args = append(args, strings.ToUpper(filter.Warehouse))
		idx++
	}

	if filter.State != "" {
		clauses = append(clauses, fmt.Sprintf("%sstate = $%d", alias, idx))
		args = append(args, filter.State)
		idx++
	}

	if filter.Collection != "" {
		clauses = append(clauses, fmt.Sprintf("%scollection ILIKE $%d", alias, idx))
		args = append(args, filter.Collection)
		idx++
	}

	if len(clauses) == 0 {
		return "", nil, idx
	}

	return " AND " + strings.Join(clauses, " AND "), args, idx
}

func normalizeAlias(alias string) string {
	if alias == "" {
		return ""
	}
	if !strings.HasSuffix(alias, ".") {
		return alias + "."
	}
	return alias
}
