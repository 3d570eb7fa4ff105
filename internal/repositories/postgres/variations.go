package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/aurelia-jewels/api/internal/domain"
	"github.com/aurelia-jewels/api/internal/repositories"
)

// priceUpdateChunkSize bounds how many rows one conditional-update
// statement may touch.
const priceUpdateChunkSize = 100

// VariationRepository persists sellable SKUs in PostgreSQL.
type VariationRepository struct {
	db sqlx.ExtContext
}

// ListSKUPrices returns the slim projection the feed diff runs against.
func (r *VariationRepository) ListSKUPrices(ctx context.Context) ([]repositories.SKUPrice, error) {
	var rows []repositories.SKUPrice
	query := `SELECT id, sku, price, showcase_price, sync, sync_id, variant_sync_id FROM ring_variations`
	if err := sqlx.SelectContext(ctx, r.db, &rows, query); err != nil {
		return nil, wrapError("variations.list_sku_prices", err)
	}
	return rows, nil
}

// InsertBatch inserts every variation in one multi-row statement.
func (r *VariationRepository) InsertBatch(ctx context.Context, variations []domain.Variation) error {
	if len(variations) == 0 {
		return nil
	}

	query := `
		INSERT INTO ring_variations (
			ring_id, sku, metal_id, stone_id, title, description, band_width,
			weight, lead_time, on_hand, price, showcase_price, diamonds, quality
		) VALUES (
			:ring_id, :sku, :metal_id, :stone_id, :title, :description, :band_width,
			:weight, :lead_time, :on_hand, :price, :showcase_price, :diamonds, :quality
		)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, variations); err != nil {
		return wrapError("variations.insert_batch", err)
	}
	return nil
}

// UpdatePrices applies the batched price corrections, chunked so each
// statement stays bounded. Each chunk is one conditional update keyed
// by row id.
func (r *VariationRepository) UpdatePrices(ctx context.Context, updates []repositories.PriceUpdate) error {
	for start := 0; start < len(updates); start += priceUpdateChunkSize {
		end := start + priceUpdateChunkSize
		if end > len(updates) {
			end = len(updates)
		}
		if err := r.updatePriceChunk(ctx, updates[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *VariationRepository) updatePriceChunk(ctx context.Context, chunk []repositories.PriceUpdate) error {
	if len(chunk) == 0 {
		return nil
	}

	var (
		priceCases    strings.Builder
		showcaseCases strings.Builder
		idArgs        = make([]string, 0, len(chunk))
		args          = make([]any, 0, len(chunk)*3)
	)
	arg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	for _, update := range chunk {
		id := arg(update.ID)
		fmt.Fprintf(&priceCases, " WHEN %s THEN %s", id, arg(update.Price))
		fmt.Fprintf(&showcaseCases, " WHEN %s THEN %s", id, arg(update.ShowcasePrice))
		idArgs = append(idArgs, id)
	}

	query := fmt.Sprintf(`
		UPDATE ring_variations
		SET price = CASE id%s END,
			showcase_price = CASE id%s END,
			updated_at = now()
		WHERE id IN (%s)`,
		priceCases.String(), showcaseCases.String(), strings.Join(idArgs, ", "))

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return wrapError("variations.update_prices", err)
	}
	return nil
}

// DeleteByIDs removes the given variations.
func (r *VariationRepository) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`DELETE FROM ring_variations WHERE id IN (?)`, ids)
	if err != nil {
		return wrapError("variations.delete", err)
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return wrapError("variations.delete", err)
	}
	return nil
}

// Get fetches one variation by id.
func (r *VariationRepository) Get(ctx context.Context, id int64) (domain.Variation, error) {
	var variation domain.Variation
	err := sqlx.GetContext(ctx, r.db, &variation, `SELECT * FROM ring_variations WHERE id = $1`, id)
	if err != nil {
		return domain.Variation{}, wrapError("variations.get", err)
	}
	return variation, nil
}

// GetByIDs fetches the given variations in one query.
func (r *VariationRepository) GetByIDs(ctx context.Context, ids []int64) ([]domain.Variation, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM ring_variations WHERE id IN (?)`, ids)
	if err != nil {
		return nil, wrapError("variations.get_by_ids", err)
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	var variations []domain.Variation
	if err := sqlx.SelectContext(ctx, r.db, &variations, query, args...); err != nil {
		return nil, wrapError("variations.get_by_ids", err)
	}
	return variations, nil
}

// ListByRingID returns every variation of the family.
func (r *VariationRepository) ListByRingID(ctx context.Context, ringID int64) ([]domain.Variation, error) {
	var variations []domain.Variation
	query := `SELECT * FROM ring_variations WHERE ring_id = $1 ORDER BY id`
	if err := sqlx.SelectContext(ctx, r.db, &variations, query, ringID); err != nil {
		return nil, wrapError("variations.list_by_ring", err)
	}
	return variations, nil
}

// SetSyncState rewrites one variation's remote sync linkage.
func (r *VariationRepository) SetSyncState(ctx context.Context, update repositories.SyncStateUpdate) error {
	query := `
		UPDATE ring_variations
		SET sync = $2, sync_id = $3, variant_sync_id = $4, updated_at = now()
		WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, update.ID, update.Sync, update.SyncID, update.VariantSyncID)
	if err != nil {
		return wrapError("variations.set_sync_state", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return wrapError("variations.set_sync_state", err)
	}
	if affected == 0 {
		return notFoundError("variations.set_sync_state")
	}
	return nil
}

// SetSyncStates applies every update; callers wanting atomicity run
// this inside a unit of work.
func (r *VariationRepository) SetSyncStates(ctx context.Context, updates []repositories.SyncStateUpdate) error {
	for _, update := range updates {
		if err := r.SetSyncState(ctx, update); err != nil {
			return err
		}
	}
	return nil
}

// ClearSyncByRemoteID drops the sync linkage of whichever variation
// points at the remote product id. Used when the remote product is
// deleted out-of-band.
func (r *VariationRepository) ClearSyncByRemoteID(ctx context.Context, syncID string) error {
	query := `
		UPDATE ring_variations
		SET sync = false, sync_id = '', variant_sync_id = '', updated_at = now()
		WHERE sync_id = $1`
	if _, err := r.db.ExecContext(ctx, query, syncID); err != nil {
		return wrapError("variations.clear_sync_by_remote", err)
	}
	return nil
}

// Update rewrites the variation's descriptive fields.
func (r *VariationRepository) Update(ctx context.Context, variation domain.Variation) error {
	query := `
		UPDATE ring_variations
		SET title = :title, description = :description, band_width = :band_width,
			weight = :weight, lead_time = :lead_time, on_hand = :on_hand,
			price = :price, showcase_price = :showcase_price, diamonds = :diamonds,
			updated_at = now()
		WHERE id = :id`
	result, err := sqlx.NamedExecContext(ctx, r.db, query, variation)
	if err != nil {
		return wrapError("variations.update", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return wrapError("variations.update", err)
	}
	if affected == 0 {
		return notFoundError("variations.update")
	}
	return nil
}

// ListProducts returns the joined listing rows plus the total count for
// the display filter.
func (r *VariationRepository) ListProducts(ctx context.Context, filter repositories.ProductListingFilter) ([]repositories.ProductRow, int, error) {
	condition := "TRUE"
	switch filter.Display {
	case repositories.DisplaySynced:
		condition = "v.sync = true"
	case repositories.DisplayArchived:
		condition = "v.sync = false AND v.sync_id <> ''"
	case repositories.DisplayYetToBeSync:
		condition = "v.sync_id = ''"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT v.*,
			r.supplier_group_id AS supplier_group_id,
			COALESCE(m.name, '') AS metal_name,
			COALESCE(st.name, '') AS stone_name,
			COALESCE(g.name, '') AS group_name,
			COALESCE(c.name, '') AS category_name,
			COALESCE(s.name, '') AS style_name,
			COALESCE(gen.name, '') AS gender_name
		FROM ring_variations v
		JOIN rings r ON r.id = v.ring_id
		LEFT JOIN metals m ON m.id = v.metal_id
		LEFT JOIN stones st ON st.id = v.stone_id
		LEFT JOIN product_groups g ON g.id = r.group_id
		LEFT JOIN categories c ON c.id = r.category_id
		LEFT JOIN styles s ON s.id = r.style_id
		LEFT JOIN genders gen ON gen.id = r.gender_id
		WHERE %s
		ORDER BY v.sku
		LIMIT $1 OFFSET $2`, condition)

	var rows []repositories.ProductRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, limit, filter.Offset); err != nil {
		return nil, 0, wrapError("variations.list_products", err)
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT count(*) FROM ring_variations v WHERE %s`, condition)
	if err := sqlx.GetContext(ctx, r.db, &total, countQuery); err != nil {
		return nil, 0, wrapError("variations.count_products", err)
	}
	return rows, total, nil
}
