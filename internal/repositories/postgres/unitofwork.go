package postgres

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/aurelia-jewels/api/internal/repositories"
)

// Store bundles the PostgreSQL repositories bound to the shared pool
// and implements repositories.UnitOfWork for transactional work.
type Store struct {
	db *sqlx.DB
	repositories.TxRepositories
}

// NewStore constructs the repository bundle on the shared pool.
func NewStore(db *sqlx.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("postgres: db is required")
	}
	return &Store{
		db:             db,
		TxRepositories: bindRepositories(db),
	}, nil
}

func bindRepositories(ext sqlx.ExtContext) repositories.TxRepositories {
	return repositories.TxRepositories{
		Rings:         &RingRepository{db: ext},
		Variations:    &VariationRepository{db: ext},
		WebCategories: &WebCategoryRepository{db: ext},
		Metals:        &MetalRepository{db: ext},
		Stones:        &StoneRepository{db: ext},
		Styles:        &StyleRepository{db: ext},
		Groups:        &GroupRepository{db: ext},
		Categories:    &CategoryRepository{db: ext},
		Genders:       &GenderRepository{db: ext},
	}
}

// RunInTx executes fn against transaction-bound repositories. Any error
// from fn rolls the transaction back and is returned unchanged.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, repos repositories.TxRepositories) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrapError("postgres.begin", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(ctx, bindRepositories(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return wrapError("postgres.commit", err)
	}
	return nil
}
