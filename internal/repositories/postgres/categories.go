package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/aurelia-jewels/api/internal/domain"
)

// CategoryRepository persists storefront categories in PostgreSQL.
type CategoryRepository struct {
	db sqlx.ExtContext
}

// List returns every category ordered by name.
func (r *CategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	if err := sqlx.SelectContext(ctx, r.db, &categories, `SELECT * FROM categories ORDER BY name`); err != nil {
		return nil, wrapError("categories.list", err)
	}
	return categories, nil
}

// Get fetches one category by id.
func (r *CategoryRepository) Get(ctx context.Context, id int64) (domain.Category, error) {
	var category domain.Category
	if err := sqlx.GetContext(ctx, r.db, &category, `SELECT * FROM categories WHERE id = $1`, id); err != nil {
		return domain.Category{}, wrapError("categories.get", err)
	}
	return category, nil
}

// InsertIfAbsent adds the category unless the name already exists.
func (r *CategoryRepository) InsertIfAbsent(ctx context.Context, category domain.Category) error {
	query := `
		INSERT INTO categories (name, remote_id)
		VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, category.Name, category.RemoteID); err != nil {
		return wrapError("categories.insert_if_absent", err)
	}
	return nil
}

// GenderRepository persists the gender dictionary in PostgreSQL.
type GenderRepository struct {
	db sqlx.ExtContext
}

// List returns every gender.
func (r *GenderRepository) List(ctx context.Context) ([]domain.Gender, error) {
	var genders []domain.Gender
	if err := sqlx.SelectContext(ctx, r.db, &genders, `SELECT * FROM genders ORDER BY id`); err != nil {
		return nil, wrapError("genders.list", err)
	}
	return genders, nil
}

// Get fetches one gender by id.
func (r *GenderRepository) Get(ctx context.Context, id int64) (domain.Gender, error) {
	var gender domain.Gender
	if err := sqlx.GetContext(ctx, r.db, &gender, `SELECT * FROM genders WHERE id = $1`, id); err != nil {
		return domain.Gender{}, wrapError("genders.get", err)
	}
	return gender, nil
}
