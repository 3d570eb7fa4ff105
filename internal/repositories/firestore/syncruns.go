package firestore

import (
	"context"
	"errors"

	gcfs "cloud.google.com/go/firestore"

	"github.com/aurelia-jewels/api/internal/domain"
	platform "github.com/aurelia-jewels/api/internal/platform/firestore"
)

const syncRunsCollection = "sync_runs"

// SyncRunRepository appends and reads the reconciliation run log kept
// in Firestore.
type SyncRunRepository struct {
	runs *platform.Collection[domain.SyncRun]
}

// NewSyncRunRepository constructs a SyncRunRepository on the provider.
func NewSyncRunRepository(provider *platform.Provider) (*SyncRunRepository, error) {
	if provider == nil {
		return nil, errors.New("sync run repository: provider is required")
	}
	return &SyncRunRepository{
		runs: platform.NewCollection[domain.SyncRun](provider, syncRunsCollection),
	}, nil
}

// Record upserts the run document keyed by run id.
func (r *SyncRunRepository) Record(ctx context.Context, run domain.SyncRun) error {
	return r.runs.Set(ctx, run.RunID, run)
}

// ListRecent returns the latest runs, newest first.
func (r *SyncRunRepository) ListRecent(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	return r.runs.Query(ctx, func(query gcfs.Query) gcfs.Query {
		return query.OrderBy("startedAt", gcfs.Desc).Limit(limit)
	})
}
