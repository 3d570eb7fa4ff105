package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/aurelia-jewels/api/internal/domain"
)

// MetalRepository persists the metal dictionary in PostgreSQL.
type MetalRepository struct {
	db sqlx.ExtContext
}

// List returns every metal ordered by code.
func (r *MetalRepository) List(ctx context.Context) ([]domain.Metal, error) {
	var metals []domain.Metal
	if err := sqlx.SelectContext(ctx, r.db, &metals, `SELECT * FROM metals ORDER BY code`); err != nil {
		return nil, wrapError("metals.list", err)
	}
	return metals, nil
}

// Get fetches one metal by id.
func (r *MetalRepository) Get(ctx context.Context, id int64) (domain.Metal, error) {
	var metal domain.Metal
	if err := sqlx.GetContext(ctx, r.db, &metal, `SELECT * FROM metals WHERE id = $1`, id); err != nil {
		return domain.Metal{}, wrapError("metals.get", err)
	}
	return metal, nil
}

// GetByName fetches one metal by display name.
func (r *MetalRepository) GetByName(ctx context.Context, name string) (domain.Metal, error) {
	var metal domain.Metal
	if err := sqlx.GetContext(ctx, r.db, &metal, `SELECT * FROM metals WHERE name = $1`, name); err != nil {
		return domain.Metal{}, wrapError("metals.get_by_name", err)
	}
	return metal, nil
}

// InsertIgnoreCodes inserts any metal code not yet present.
func (r *MetalRepository) InsertIgnoreCodes(ctx context.Context, codeNames map[string]string) error {
	if len(codeNames) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(codeNames))
	args := make([]any, 0, len(codeNames)*2)
	for code, name := range codeNames {
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d)", len(args)+1, len(args)+2))
		args = append(args, code, name)
	}

	query := fmt.Sprintf(`
		INSERT INTO metals (code, name)
		VALUES %s
		ON CONFLICT (code) DO NOTHING`,
		strings.Join(placeholders, ", "))

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return wrapError("metals.insert_ignore", err)
	}
	return nil
}

// Insert adds one metal and returns its id.
func (r *MetalRepository) Insert(ctx context.Context, metal domain.Metal) (int64, error) {
	var id int64
	query := `INSERT INTO metals (code, name, image) VALUES ($1, $2, $3) RETURNING id`
	if err := sqlx.GetContext(ctx, r.db, &id, query, metal.Code, metal.Name, metal.Image); err != nil {
		return 0, wrapError("metals.insert", err)
	}
	return id, nil
}

// Rename updates the metal's display name.
func (r *MetalRepository) Rename(ctx context.Context, id int64, name string) error {
	return renameRow(ctx, r.db, "metals", id, name)
}

// UpdateImage rewrites the metal's image URL.
func (r *MetalRepository) UpdateImage(ctx context.Context, id int64, imageURL string) error {
	return updateImageRow(ctx, r.db, "metals", id, imageURL)
}

// Delete removes the metal.
func (r *MetalRepository) Delete(ctx context.Context, id int64) error {
	return deleteRow(ctx, r.db, "metals", id)
}

// CountVariationReferences counts variations still referencing the metal.
func (r *MetalRepository) CountVariationReferences(ctx context.Context, id int64) (int64, error) {
	var count int64
	query := `SELECT count(*) FROM ring_variations WHERE metal_id = $1`
	if err := sqlx.GetContext(ctx, r.db, &count, query, id); err != nil {
		return 0, wrapError("metals.count_references", err)
	}
	return count, nil
}

// StoneRepository persists the stone dictionary in PostgreSQL.
type StoneRepository struct {
	db sqlx.ExtContext
}

// List returns every stone ordered by name.
func (r *StoneRepository) List(ctx context.Context) ([]domain.Stone, error) {
	var stones []domain.Stone
	if err := sqlx.SelectContext(ctx, r.db, &stones, `SELECT * FROM stones ORDER BY name`); err != nil {
		return nil, wrapError("stones.list", err)
	}
	return stones, nil
}

// Get fetches one stone by id.
func (r *StoneRepository) Get(ctx context.Context, id int64) (domain.Stone, error) {
	var stone domain.Stone
	if err := sqlx.GetContext(ctx, r.db, &stone, `SELECT * FROM stones WHERE id = $1`, id); err != nil {
		return domain.Stone{}, wrapError("stones.get", err)
	}
	return stone, nil
}

// GetByName fetches one stone by name.
func (r *StoneRepository) GetByName(ctx context.Context, name string) (domain.Stone, error) {
	var stone domain.Stone
	if err := sqlx.GetContext(ctx, r.db, &stone, `SELECT * FROM stones WHERE name = $1`, name); err != nil {
		return domain.Stone{}, wrapError("stones.get_by_name", err)
	}
	return stone, nil
}

// InsertIgnoreNames inserts any stone name not yet present.
func (r *StoneRepository) InsertIgnoreNames(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(names))
	args := make([]any, 0, len(names))
	for i, name := range names {
		placeholders = append(placeholders, fmt.Sprintf("($%d)", i+1))
		args = append(args, name)
	}

	query := fmt.Sprintf(`
		INSERT INTO stones (name)
		VALUES %s
		ON CONFLICT (name) DO NOTHING`,
		strings.Join(placeholders, ", "))

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return wrapError("stones.insert_ignore", err)
	}
	return nil
}

// Insert adds one stone and returns its id.
func (r *StoneRepository) Insert(ctx context.Context, stone domain.Stone) (int64, error) {
	var id int64
	query := `INSERT INTO stones (name, image) VALUES ($1, $2) RETURNING id`
	if err := sqlx.GetContext(ctx, r.db, &id, query, stone.Name, stone.Image); err != nil {
		return 0, wrapError("stones.insert", err)
	}
	return id, nil
}

// Rename updates the stone's name.
func (r *StoneRepository) Rename(ctx context.Context, id int64, name string) error {
	return renameRow(ctx, r.db, "stones", id, name)
}

// UpdateImage rewrites the stone's image URL.
func (r *StoneRepository) UpdateImage(ctx context.Context, id int64, imageURL string) error {
	return updateImageRow(ctx, r.db, "stones", id, imageURL)
}

// Delete removes the stone.
func (r *StoneRepository) Delete(ctx context.Context, id int64) error {
	return deleteRow(ctx, r.db, "stones", id)
}

// CountVariationReferences counts variations still referencing the stone.
func (r *StoneRepository) CountVariationReferences(ctx context.Context, id int64) (int64, error) {
	var count int64
	query := `SELECT count(*) FROM ring_variations WHERE stone_id = $1`
	if err := sqlx.GetContext(ctx, r.db, &count, query, id); err != nil {
		return 0, wrapError("stones.count_references", err)
	}
	return count, nil
}

// StyleRepository persists the style dictionary in PostgreSQL.
type StyleRepository struct {
	db sqlx.ExtContext
}

// List returns every style ordered by name.
func (r *StyleRepository) List(ctx context.Context) ([]domain.Style, error) {
	var styles []domain.Style
	if err := sqlx.SelectContext(ctx, r.db, &styles, `SELECT * FROM styles ORDER BY name`); err != nil {
		return nil, wrapError("styles.list", err)
	}
	return styles, nil
}

// Get fetches one style by id.
func (r *StyleRepository) Get(ctx context.Context, id int64) (domain.Style, error) {
	var style domain.Style
	if err := sqlx.GetContext(ctx, r.db, &style, `SELECT * FROM styles WHERE id = $1`, id); err != nil {
		return domain.Style{}, wrapError("styles.get", err)
	}
	return style, nil
}

// GetByName fetches one style by name.
func (r *StyleRepository) GetByName(ctx context.Context, name string) (domain.Style, error) {
	var style domain.Style
	if err := sqlx.GetContext(ctx, r.db, &style, `SELECT * FROM styles WHERE name = $1`, name); err != nil {
		return domain.Style{}, wrapError("styles.get_by_name", err)
	}
	return style, nil
}

// Insert adds one style and returns its id.
func (r *StyleRepository) Insert(ctx context.Context, style domain.Style) (int64, error) {
	var id int64
	query := `INSERT INTO styles (name, image) VALUES ($1, $2) RETURNING id`
	if err := sqlx.GetContext(ctx, r.db, &id, query, style.Name, style.Image); err != nil {
		return 0, wrapError("styles.insert", err)
	}
	return id, nil
}

// Rename updates the style's name.
func (r *StyleRepository) Rename(ctx context.Context, id int64, name string) error {
	return renameRow(ctx, r.db, "styles", id, name)
}

// UpdateImage rewrites the style's image URL.
func (r *StyleRepository) UpdateImage(ctx context.Context, id int64, imageURL string) error {
	return updateImageRow(ctx, r.db, "styles", id, imageURL)
}

// Delete removes the style.
func (r *StyleRepository) Delete(ctx context.Context, id int64) error {
	return deleteRow(ctx, r.db, "styles", id)
}

// CountRingReferences counts families still assigned to the style.
func (r *StyleRepository) CountRingReferences(ctx context.Context, id int64) (int64, error) {
	var count int64
	query := `SELECT count(*) FROM rings WHERE style_id = $1`
	if err := sqlx.GetContext(ctx, r.db, &count, query, id); err != nil {
		return 0, wrapError("styles.count_references", err)
	}
	return count, nil
}

// ClearRingReferences unassigns the style from every family before the
// row is removed.
func (r *StyleRepository) ClearRingReferences(ctx context.Context, id int64) error {
	query := `UPDATE rings SET style_id = 0, updated_at = now() WHERE style_id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return wrapError("styles.clear_references", err)
	}
	return nil
}

// GroupRepository persists the grouping dictionary in PostgreSQL.
type GroupRepository struct {
	db sqlx.ExtContext
}

// List returns every group ordered by name.
func (r *GroupRepository) List(ctx context.Context) ([]domain.Group, error) {
	var groups []domain.Group
	if err := sqlx.SelectContext(ctx, r.db, &groups, `SELECT * FROM product_groups ORDER BY name`); err != nil {
		return nil, wrapError("groups.list", err)
	}
	return groups, nil
}

// Get fetches one group by id.
func (r *GroupRepository) Get(ctx context.Context, id int64) (domain.Group, error) {
	var group domain.Group
	if err := sqlx.GetContext(ctx, r.db, &group, `SELECT * FROM product_groups WHERE id = $1`, id); err != nil {
		return domain.Group{}, wrapError("groups.get", err)
	}
	return group, nil
}

// GetByName fetches one group by name.
func (r *GroupRepository) GetByName(ctx context.Context, name string) (domain.Group, error) {
	var group domain.Group
	if err := sqlx.GetContext(ctx, r.db, &group, `SELECT * FROM product_groups WHERE name = $1`, name); err != nil {
		return domain.Group{}, wrapError("groups.get_by_name", err)
	}
	return group, nil
}

// Insert adds one group and returns its id.
func (r *GroupRepository) Insert(ctx context.Context, group domain.Group) (int64, error) {
	var id int64
	query := `INSERT INTO product_groups (name) VALUES ($1) RETURNING id`
	if err := sqlx.GetContext(ctx, r.db, &id, query, group.Name); err != nil {
		return 0, wrapError("groups.insert", err)
	}
	return id, nil
}

// Rename updates the group's name.
func (r *GroupRepository) Rename(ctx context.Context, id int64, name string) error {
	return renameRow(ctx, r.db, "product_groups", id, name)
}

// Delete removes the group.
func (r *GroupRepository) Delete(ctx context.Context, id int64) error {
	return deleteRow(ctx, r.db, "product_groups", id)
}

// CountRingReferences counts families still assigned to the group.
func (r *GroupRepository) CountRingReferences(ctx context.Context, id int64) (int64, error) {
	var count int64
	query := `SELECT count(*) FROM rings WHERE group_id = $1`
	if err := sqlx.GetContext(ctx, r.db, &count, query, id); err != nil {
		return 0, wrapError("groups.count_references", err)
	}
	return count, nil
}

func renameRow(ctx context.Context, db sqlx.ExtContext, table string, id int64, name string) error {
	query := fmt.Sprintf(`UPDATE %s SET name = $2 WHERE id = $1`, table)
	result, err := db.ExecContext(ctx, query, id, name)
	if err != nil {
		return wrapError(table+".rename", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return wrapError(table+".rename", err)
	}
	if affected == 0 {
		return notFoundError(table + ".rename")
	}
	return nil
}

func updateImageRow(ctx context.Context, db sqlx.ExtContext, table string, id int64, imageURL string) error {
	query := fmt.Sprintf(`UPDATE %s SET image = $2 WHERE id = $1`, table)
	result, err := db.ExecContext(ctx, query, id, imageURL)
	if err != nil {
		return wrapError(table+".update_image", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return wrapError(table+".update_image", err)
	}
	if affected == 0 {
		return notFoundError(table + ".update_image")
	}
	return nil
}

func deleteRow(ctx context.Context, db sqlx.ExtContext, table string, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table)
	result, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return wrapError(table+".delete", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return wrapError(table+".delete", err)
	}
	if affected == 0 {
		return notFoundError(table + ".delete")
	}
	return nil
}
