package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/aurelia-jewels/api/internal/domain"
	"github.com/aurelia-jewels/api/internal/repositories"
)

// WebCategoryRepository persists supplier web-category tags and their
// ring memberships in PostgreSQL.
type WebCategoryRepository struct {
	db sqlx.ExtContext
}

// InsertIgnore inserts any tag not yet present, keyed by supplier id.
func (r *WebCategoryRepository) InsertIgnore(ctx context.Context, tags []domain.WebCategory) error {
	if len(tags) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(tags))
	args := make([]any, 0, len(tags)*2)
	for _, tag := range tags {
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d)", len(args)+1, len(args)+2))
		args = append(args, tag.SupplierID, tag.Name)
	}

	query := fmt.Sprintf(`
		INSERT INTO web_categories (supplier_id, name)
		VALUES %s
		ON CONFLICT (supplier_id) DO NOTHING`,
		strings.Join(placeholders, ", "))

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return wrapError("web_categories.insert_ignore", err)
	}
	return nil
}

// ListBySupplierIDs resolves tags by their supplier ids.
func (r *WebCategoryRepository) ListBySupplierIDs(ctx context.Context, supplierIDs []int64) ([]domain.WebCategory, error) {
	if len(supplierIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM web_categories WHERE supplier_id IN (?)`, supplierIDs)
	if err != nil {
		return nil, wrapError("web_categories.list", err)
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	var tags []domain.WebCategory
	if err := sqlx.SelectContext(ctx, r.db, &tags, query, args...); err != nil {
		return nil, wrapError("web_categories.list", err)
	}
	return tags, nil
}

// InsertIgnoreMemberships inserts any (ring, tag) pair not yet present.
func (r *WebCategoryRepository) InsertIgnoreMemberships(ctx context.Context, memberships []repositories.Membership) error {
	if len(memberships) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(memberships))
	args := make([]any, 0, len(memberships)*2)
	for _, membership := range memberships {
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d)", len(args)+1, len(args)+2))
		args = append(args, membership.RingID, membership.WebCategoryID)
	}

	query := fmt.Sprintf(`
		INSERT INTO ring_web_categories (ring_id, web_category_id)
		VALUES %s
		ON CONFLICT (ring_id, web_category_id) DO NOTHING`,
		strings.Join(placeholders, ", "))

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return wrapError("web_categories.insert_memberships", err)
	}
	return nil
}

// DeleteMembershipsByRingIDs removes every membership of the families.
func (r *WebCategoryRepository) DeleteMembershipsByRingIDs(ctx context.Context, ringIDs []int64) error {
	if len(ringIDs) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`DELETE FROM ring_web_categories WHERE ring_id IN (?)`, ringIDs)
	if err != nil {
		return wrapError("web_categories.delete_memberships", err)
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return wrapError("web_categories.delete_memberships", err)
	}
	return nil
}
