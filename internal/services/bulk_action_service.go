package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/aurelia-jewels/api/internal/catalog"
	"github.com/aurelia-jewels/api/internal/domain"
	"github.com/aurelia-jewels/api/internal/repositories"
)

var (
	errBulkVariationsRequired = errors.New("bulk_action: variation repository is required")
	errBulkUnitOfWorkRequired = errors.New("bulk_action: unit of work is required")
	errBulkSyncRequired       = errors.New("bulk_action: product sync service is required")
)

// BulkActionServiceDeps wires the bulk action dependencies.
type BulkActionServiceDeps struct {
	Variations repositories.VariationRepository
	UnitOfWork repositories.UnitOfWork
	Sync       *ProductSyncService
	Catalog    CatalogAPI
	Logger     *zap.Logger
}

// BulkActionService applies one action to many variations. Sync and
// unsync are all-or-nothing: every precondition is checked before the
// first remote call, remote work already applied is compensated when a
// later item fails, and local state for the whole batch is committed in
// one transaction. Delete is deliberately per-item so one stuck product
// cannot block removing the rest.
type BulkActionService struct {
	variations repositories.VariationRepository
	uow        repositories.UnitOfWork
	sync       *ProductSyncService
	catalog    CatalogAPI
	logger     *zap.Logger
}

// NewBulkActionService constructs a BulkActionService.
func NewBulkActionService(deps BulkActionServiceDeps) (*BulkActionService, error) {
	if deps.Variations == nil {
		return nil, errBulkVariationsRequired
	}
	if deps.UnitOfWork == nil {
		return nil, errBulkUnitOfWorkRequired
	}
	if deps.Sync == nil {
		return nil, errBulkSyncRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	catalogAPI := deps.Catalog
	if catalogAPI == nil {
		catalogAPI = deps.Sync.catalog
	}
	return &BulkActionService{
		variations: deps.Variations,
		uow:        deps.UnitOfWork,
		sync:       deps.Sync,
		catalog:    catalogAPI,
		logger:     logger.Named("bulk_action"),
	}, nil
}

// loadAll resolves every requested id and rejects the batch when any id
// does not exist.
func (s *BulkActionService) loadAll(ctx context.Context, ids []int64) ([]domain.Variation, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no variation ids given", ErrInvalidInput)
	}

	variations, err := s.variations.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("bulk_action: load variations: %w", err)
	}

	found := make(map[int64]bool, len(variations))
	for _, v := range variations {
		found[v.ID] = true
	}
	var missing []string
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, fmt.Sprintf("%d", id))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: unknown variation ids %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	return variations, nil
}

// syncPlan is one variation's planned remote action during a bulk sync.
type syncPlan struct {
	variation  domain.Variation
	reactivate bool
	names      attributeNames
	created    catalog.CreatedProduct
}

// SyncAll pushes every variation to the remote catalog. Archived
// variations are reactivated, unsynced ones are created. Any
// precondition failure rejects the whole batch before remote work
// starts.
func (s *BulkActionService) SyncAll(ctx context.Context, ids []int64) error {
	variations, err := s.loadAll(ctx, ids)
	if err != nil {
		return err
	}

	plans := make([]syncPlan, 0, len(variations))
	for _, variation := range variations {
		switch variation.State() {
		case domain.StateSynced:
			return fmt.Errorf("%w: variation %s is already synced", ErrConflict, variation.SKU)
		case domain.StateArchived:
			plans = append(plans, syncPlan{variation: variation, reactivate: true})
		default:
			names, err := s.sync.prepareSync(ctx, variation)
			if err != nil {
				return fmt.Errorf("variation %s: %w", variation.SKU, err)
			}
			plans = append(plans, syncPlan{variation: variation, names: names})
		}
	}

	completed := 0
	compensate := func() {
		for i := completed - 1; i >= 0; i-- {
			plan := plans[i]
			if plan.reactivate {
				if err := s.catalog.UpdateProductStatus(ctx, plan.variation.SyncID, catalog.ProductStatusArchived); err != nil {
					s.logger.Error("bulk sync compensation failed",
						zap.String("sku", plan.variation.SKU), zap.Error(err))
				}
				continue
			}
			s.sync.undoRemoteProduct(ctx, plan.variation, plan.created.ProductID)
		}
	}

	for i := range plans {
		plan := &plans[i]
		if plan.reactivate {
			err = s.catalog.UpdateProductStatus(ctx, plan.variation.SyncID, catalog.ProductStatusActive)
		} else {
			plan.created, err = s.sync.createRemoteProduct(ctx, plan.variation, plan.names)
		}
		if err != nil {
			compensate()
			return fmt.Errorf("%w: variation %s: %v", ErrRemoteFailed, plan.variation.SKU, err)
		}
		completed++
	}

	updates := make([]repositories.SyncStateUpdate, 0, len(plans))
	for _, plan := range plans {
		update := repositories.SyncStateUpdate{
			ID:            plan.variation.ID,
			Sync:          true,
			SyncID:        plan.variation.SyncID,
			VariantSyncID: plan.variation.VariantSyncID,
		}
		if !plan.reactivate {
			update.SyncID = plan.created.ProductID
			update.VariantSyncID = plan.created.VariantID
		}
		updates = append(updates, update)
	}

	err = s.uow.RunInTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
		return repos.Variations.SetSyncStates(ctx, updates)
	})
	if err != nil {
		compensate()
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	s.logger.Info("bulk sync applied", zap.Int("count", len(plans)))
	return nil
}

// UnsyncAll archives every variation's remote product and clears the
// local active flags in one transaction.
func (s *BulkActionService) UnsyncAll(ctx context.Context, ids []int64) error {
	variations, err := s.loadAll(ctx, ids)
	if err != nil {
		return err
	}
	for _, variation := range variations {
		if variation.State() != domain.StateSynced {
			return fmt.Errorf("%w: variation %s is not synced", ErrConflict, variation.SKU)
		}
	}

	archived := 0
	compensate := func() {
		for i := archived - 1; i >= 0; i-- {
			if err := s.catalog.UpdateProductStatus(ctx, variations[i].SyncID, catalog.ProductStatusActive); err != nil {
				s.logger.Error("bulk unsync compensation failed",
					zap.String("sku", variations[i].SKU), zap.Error(err))
			}
		}
	}

	for _, variation := range variations {
		if err := s.catalog.UpdateProductStatus(ctx, variation.SyncID, catalog.ProductStatusArchived); err != nil {
			compensate()
			return fmt.Errorf("%w: variation %s: %v", ErrRemoteFailed, variation.SKU, err)
		}
		archived++
	}

	updates := make([]repositories.SyncStateUpdate, 0, len(variations))
	for _, variation := range variations {
		updates = append(updates, repositories.SyncStateUpdate{
			ID:            variation.ID,
			Sync:          false,
			SyncID:        variation.SyncID,
			VariantSyncID: variation.VariantSyncID,
		})
	}

	err = s.uow.RunInTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
		return repos.Variations.SetSyncStates(ctx, updates)
	})
	if err != nil {
		compensate()
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	s.logger.Info("bulk unsync applied", zap.Int("count", len(variations)))
	return nil
}

// BulkItemFailure records why one variation could not be deleted.
type BulkItemFailure struct {
	ID      int64  `json:"id"`
	SKU     string `json:"sku"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// BulkDeleteReport summarises a per-item bulk delete.
type BulkDeleteReport struct {
	Deleted []int64           `json:"deleted"`
	Failed  []BulkItemFailure `json:"failed,omitempty"`
	Partial bool              `json:"partial"`
}

// DeleteAll removes every variation, remote product first when one
// exists. Failures are collected per item; the remaining items still
// run.
func (s *BulkActionService) DeleteAll(ctx context.Context, ids []int64) (BulkDeleteReport, error) {
	variations, err := s.loadAll(ctx, ids)
	if err != nil {
		return BulkDeleteReport{}, err
	}

	var report BulkDeleteReport
	for _, variation := range variations {
		if variation.SyncID != "" {
			if err := s.catalog.DeleteProduct(ctx, variation.SyncID); err != nil {
				report.Failed = append(report.Failed, BulkItemFailure{
					ID:      variation.ID,
					SKU:     variation.SKU,
					Stage:   "remote",
					Message: err.Error(),
				})
				continue
			}
		}
		if err := s.variations.DeleteByIDs(ctx, []int64{variation.ID}); err != nil {
			report.Failed = append(report.Failed, BulkItemFailure{
				ID:      variation.ID,
				SKU:     variation.SKU,
				Stage:   "local",
				Message: err.Error(),
			})
			continue
		}
		report.Deleted = append(report.Deleted, variation.ID)
	}
	report.Partial = len(report.Failed) > 0

	if len(report.Failed) > 0 {
		s.logger.Warn("bulk delete finished with failures",
			zap.Int("deleted", len(report.Deleted)),
			zap.Int("failed", len(report.Failed)))
	}
	return report, nil
}
