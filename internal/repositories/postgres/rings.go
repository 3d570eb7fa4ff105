package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/aurelia-jewels/api/internal/domain"
	"github.com/aurelia-jewels/api/internal/repositories"
)

// RingRepository persists supplier product families in PostgreSQL.
type RingRepository struct {
	db sqlx.ExtContext
}

// InsertIgnoreSupplierGroups inserts any family id not yet present.
// Existing rows are left untouched so concurrent inserts do not fail.
func (r *RingRepository) InsertIgnoreSupplierGroups(ctx context.Context, supplierGroupIDs []string) error {
	if len(supplierGroupIDs) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(supplierGroupIDs))
	args := make([]any, 0, len(supplierGroupIDs))
	for i, id := range supplierGroupIDs {
		placeholders = append(placeholders, fmt.Sprintf("($%d)", i+1))
		args = append(args, id)
	}

	query := fmt.Sprintf(`
		INSERT INTO rings (supplier_group_id)
		VALUES %s
		ON CONFLICT (supplier_group_id) DO NOTHING`,
		strings.Join(placeholders, ", "))

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return wrapError("rings.insert_ignore", err)
	}
	return nil
}

// ListBySupplierGroupIDs re-reads families after an insert-ignore pass
// so ids are resolved even when another writer created the row.
func (r *RingRepository) ListBySupplierGroupIDs(ctx context.Context, supplierGroupIDs []string) ([]domain.Ring, error) {
	if len(supplierGroupIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM rings WHERE supplier_group_id IN (?)`, supplierGroupIDs)
	if err != nil {
		return nil, wrapError("rings.list_by_group", err)
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	var rings []domain.Ring
	if err := sqlx.SelectContext(ctx, r.db, &rings, query, args...); err != nil {
		return nil, wrapError("rings.list_by_group", err)
	}
	return rings, nil
}

// Get fetches one family by id.
func (r *RingRepository) Get(ctx context.Context, id int64) (domain.Ring, error) {
	var ring domain.Ring
	err := sqlx.GetContext(ctx, r.db, &ring, `SELECT * FROM rings WHERE id = $1`, id)
	if err != nil {
		return domain.Ring{}, wrapError("rings.get", err)
	}
	return ring, nil
}

// ListZeroVariationIDs returns every family left without variations.
func (r *RingRepository) ListZeroVariationIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	query := `
		SELECT r.id
		FROM rings r
		LEFT JOIN ring_variations v ON v.ring_id = r.id
		WHERE v.id IS NULL`
	if err := sqlx.SelectContext(ctx, r.db, &ids, query); err != nil {
		return nil, wrapError("rings.list_zero_variation", err)
	}
	return ids, nil
}

// DeleteByIDs removes the given families.
func (r *RingRepository) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`DELETE FROM rings WHERE id IN (?)`, ids)
	if err != nil {
		return wrapError("rings.delete", err)
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return wrapError("rings.delete", err)
	}
	return nil
}

// UpdateAssignments rewrites the family's attribute assignment.
func (r *RingRepository) UpdateAssignments(ctx context.Context, id, groupID, categoryID, styleID, genderID int64) error {
	query := `
		UPDATE rings
		SET group_id = $2, category_id = $3, style_id = $4, gender_id = $5, updated_at = now()
		WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, groupID, categoryID, styleID, genderID)
	if err != nil {
		return wrapError("rings.update_assignments", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return wrapError("rings.update_assignments", err)
	}
	if affected == 0 {
		return notFoundError("rings.update_assignments")
	}
	return nil
}

// ListUnassigned returns families missing any attribute assignment,
// with their web category names aggregated for display.
func (r *RingRepository) ListUnassigned(ctx context.Context) ([]repositories.UnassignedRing, error) {
	query := `
		SELECT r.*, COALESCE(string_agg(DISTINCT wc.name, ', '), '') AS web_category_names
		FROM rings r
		LEFT JOIN ring_web_categories rwc ON rwc.ring_id = r.id
		LEFT JOIN web_categories wc ON wc.id = rwc.web_category_id
		WHERE r.group_id = 0 OR r.category_id = 0 OR r.style_id = 0 OR r.gender_id = 0
		GROUP BY r.id
		ORDER BY r.supplier_group_id`

	var rows []repositories.UnassignedRing
	if err := sqlx.SelectContext(ctx, r.db, &rows, query); err != nil {
		return nil, wrapError("rings.list_unassigned", err)
	}
	return rows, nil
}

var assignedSortColumns = map[string]string{
	"supplier_group_id": "r.supplier_group_id",
	"group":             "group_name",
	"category":          "category_name",
	"style":             "style_name",
	"gender":            "gender_name",
	"created_at":        "r.created_at",
}

// ListAssigned returns fully assigned families with display names, a
// synced-variation flag, and the total count for pagination.
func (r *RingRepository) ListAssigned(ctx context.Context, filter repositories.AssignedRingFilter) ([]repositories.AssignedRing, int, error) {
	orderBy, ok := assignedSortColumns[filter.OrderBy]
	if !ok {
		orderBy = "r.supplier_group_id"
	}
	direction := "ASC"
	if filter.Desc {
		direction = "DESC"
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT r.*,
			COALESCE(g.name, '') AS group_name,
			COALESCE(c.name, '') AS category_name,
			COALESCE(s.name, '') AS style_name,
			COALESCE(gen.name, '') AS gender_name,
			EXISTS (
				SELECT 1 FROM ring_variations v
				WHERE v.ring_id = r.id AND v.sync_id <> ''
			) AS has_synced
		FROM rings r
		LEFT JOIN product_groups g ON g.id = r.group_id
		LEFT JOIN categories c ON c.id = r.category_id
		LEFT JOIN styles s ON s.id = r.style_id
		LEFT JOIN genders gen ON gen.id = r.gender_id
		WHERE r.group_id <> 0 AND r.category_id <> 0 AND r.style_id <> 0 AND r.gender_id <> 0
		ORDER BY %s %s
		LIMIT $1 OFFSET $2`, orderBy, direction)

	var rows []repositories.AssignedRing
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, limit, filter.Offset); err != nil {
		return nil, 0, wrapError("rings.list_assigned", err)
	}

	var total int
	countQuery := `
		SELECT count(*)
		FROM rings r
		WHERE r.group_id <> 0 AND r.category_id <> 0 AND r.style_id <> 0 AND r.gender_id <> 0`
	if err := sqlx.GetContext(ctx, r.db, &total, countQuery); err != nil {
		return nil, 0, wrapError("rings.count_assigned", err)
	}
	return rows, total, nil
}
