package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/repository"
	"github.com/jmoiron/sqlx"
)

const insertBatchSize = 500

var allocationColumns = []string{
	"snapshot_date", "sku", "upc", "available", "quota_label", "quota_amount",
	"chosen_warehouse", "remaining", "total_inventory", "total_available", "state",
	"oversold", "description", "collection", "color", "size", "weight", "cost",
}

const allocationSelect = `
	SELECT sku, upc, available, quota_label, quota_amount, chosen_warehouse,
	       remaining, total_inventory, total_available, state, oversold,
	       description, collection, color, size, weight, cost
	FROM inventory_allocations a
	WHERE 1=1
`

type inventoryRepository struct {
	db *DB
}

var _ repository.InventoryRepository = (*inventoryRepository)(nil)

func NewInventoryRepository(db *DB) repository.InventoryRepository {
	return &inventoryRepository{db: db}
}

// SaveAllocations replaces the snapshot stored for date.
func (r *inventoryRepository) SaveAllocations(ctx context.Context, date time.Time, rows []domain.EnrichedRow) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM inventory_allocations WHERE snapshot_date = $1::date`, date); err != nil {
			return fmt.Errorf("error clearing allocations for %s: %w", date.Format("2006-01-02"), err)
		}

		for start := 0; start < len(rows); start += insertBatchSize {
			end := start + insertBatchSize
			if end > len(rows) {
				end = len(rows)
			}
			query, args := buildAllocationInsert(date, rows[start:end])
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("error inserting allocations: %w", err)
			}
		}
		return nil
	})
}

func buildAllocationInsert(date time.Time, rows []domain.EnrichedRow) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString("INSERT INTO inventory_allocations (")
	sb.WriteString(strings.Join(allocationColumns, ", "))
	sb.WriteString(") VALUES ")

	args := make([]interface{}, 0, len(rows)*len(allocationColumns))
	idx := 1
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		placeholders := make([]string, len(allocationColumns))
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", idx)
			idx++
		}
		sb.WriteString("(" + strings.Join(placeholders, ", ") + ")")

		args = append(args,
			date, row.SKU, row.UPC, row.Available, row.QuotaLabel, row.QuotaAmount,
			string(row.ChosenWarehouse), row.Remaining, row.TotalInventory, row.TotalAvailable,
			string(row.State), row.Oversold, row.Description, row.Collection, row.Color,
			row.Size, row.Weight, row.Cost,
		)
	}
	return sb.String(), args
}

func (r *inventoryRepository) GetWarehouseSummary(ctx context.Context, filter domain.InventoryFilter) ([]domain.WarehouseSummary, error) {
	where, args, _ := buildInventoryFilterClause(filter, "a", 1)

	query := `
		SELECT
			w.key AS warehouse,
			COUNT(*) FILTER (WHERE w.value::int > 0) AS sku_count,
			COALESCE(SUM(w.value::int), 0) AS total_available,
			COALESCE(SUM(CASE WHEN a.chosen_warehouse = w.key THEN a.quota_amount ELSE 0 END), 0) AS total_quota
		FROM inventory_allocations a
		CROSS JOIN LATERAL jsonb_each_text(a.available) w
		WHERE 1=1` + where + `
		GROUP BY w.key
		ORDER BY total_available DESC, w.key
	`

	var summaries []domain.WarehouseSummary
	if err := r.db.SelectContext(ctx, &summaries, query, args...); err != nil {
		return nil, fmt.Errorf("error getting warehouse summary: %w", err)
	}
	return summaries, nil
}

func (r *inventoryRepository) GetStateSummary(ctx context.Context, filter domain.InventoryFilter) ([]domain.StateSummary, error) {
	where, args, _ := buildInventoryFilterClause(filter, "a", 1)

	query := `
		SELECT a.state, COUNT(*) AS count
		FROM inventory_allocations a
		WHERE 1=1` + where + `
		GROUP BY a.state
		ORDER BY a.state
	`

	var summaries []domain.StateSummary
	if err := r.db.SelectContext(ctx, &summaries, query, args...); err != nil {
		return nil, fmt.Errorf("error getting state summary: %w", err)
	}
	for i := range summaries {
		summaries[i].Label = domain.StockStateLabel(domain.StockState(summaries[i].State))
	}
	return summaries, nil
}

func (r *inventoryRepository) GetAllocationItems(ctx context.Context, filter domain.InventoryFilter) ([]domain.EnrichedRow, int, error) {
	where, args, idx := buildInventoryFilterClause(filter, "a", 1)

	var total int
	countQuery := `SELECT COUNT(*) FROM inventory_allocations a WHERE 1=1` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("error counting allocation items: %w", err)
	}

	query := allocationSelect + where + " ORDER BY a.total_available DESC, a.sku"
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", idx, idx+1)
		args = append(args, filter.PageSize, (page-1)*filter.PageSize)
	}

	var items []domain.EnrichedRow
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("error getting allocation items: %w", err)
	}
	return items, total, nil
}

func (r *inventoryRepository) GetAvailableDates(ctx context.Context, limit int) ([]time.Time, error) {
	if limit <= 0 {
		limit = 30
	}

	query := `
		SELECT DISTINCT snapshot_date
		FROM inventory_allocations
		ORDER BY snapshot_date DESC
		LIMIT $1
	`

	var dates []time.Time
	if err := r.db.SelectContext(ctx, &dates, query, limit); err != nil {
		return nil, fmt.Errorf("error getting available dates: %w", err)
	}
	return dates, nil
}
