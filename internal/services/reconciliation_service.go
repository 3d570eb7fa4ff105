package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/aurelia-jewels/api/internal/catalog"
	"github.com/aurelia-jewels/api/internal/domain"
	"github.com/aurelia-jewels/api/internal/repositories"
	"github.com/aurelia-jewels/api/internal/supplier"
)

var (
	errReconcileFeedRequired = errors.New("reconciliation: feed source is required")
	errReconcileUoWRequired  = errors.New("reconciliation: unit of work is required")
	errReconcileRunning      = errors.New("reconciliation: a run is already in progress")
)

// ErrReconciliationRunning indicates a reconciliation run is already in
// progress.
var ErrReconciliationRunning = errReconcileRunning

// RunSummary reports the outcome of one reconciliation run.
type RunSummary struct {
	RunID        string
	StartedAt    time.Time
	FinishedAt   time.Time
	Inserted     int
	Updated      int
	Deleted      int
	RemoteCalls  int
	SnapshotPath string
}

// ReconciliationServiceDeps wires the feed pipeline dependencies.
type ReconciliationServiceDeps struct {
	Feed        FeedSource
	Transformer *supplier.Transformer
	UnitOfWork  repositories.UnitOfWork
	Catalog     CatalogAPI
	Archiver    SnapshotArchiver
	Runs        repositories.SyncRunRepository
	Events      SyncEventPublisher
	Logger      *zap.Logger
	Clock       func() time.Time
}

// ReconciliationService ingests the supplier feed, diffs it against the
// relational store, and applies the resulting inserts, price updates,
// and deletes inside one transaction. Remote price updates and product
// deletes for synced SKUs run inside the same transaction scope; any
// remote failure rolls back every local change.
type ReconciliationService struct {
	feed        FeedSource
	transformer *supplier.Transformer
	uow         repositories.UnitOfWork
	catalog     CatalogAPI
	archiver    SnapshotArchiver
	runs        repositories.SyncRunRepository
	events      SyncEventPublisher
	logger      *zap.Logger
	now         func() time.Time
	entropy     *rand.Rand

	running chan struct{}
}

// NewReconciliationService constructs a ReconciliationService.
func NewReconciliationService(deps ReconciliationServiceDeps) (*ReconciliationService, error) {
	if deps.Feed == nil {
		return nil, errReconcileFeedRequired
	}
	if deps.UnitOfWork == nil {
		return nil, errReconcileUoWRequired
	}
	transformer := deps.Transformer
	if transformer == nil {
		transformer = supplier.NewTransformer(nil)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	running := make(chan struct{}, 1)
	running <- struct{}{}
	return &ReconciliationService{
		feed:        deps.Feed,
		transformer: transformer,
		uow:         deps.UnitOfWork,
		catalog:     deps.Catalog,
		archiver:    deps.Archiver,
		runs:        deps.Runs,
		events:      deps.Events,
		logger:      logger.Named("reconcile"),
		now:         clock,
		entropy:     rand.New(rand.NewSource(clock().UnixNano())),
		running:     running,
	}, nil
}

// Run executes one full reconciliation pass. Only one run may be in
// flight at a time.
func (s *ReconciliationService) Run(ctx context.Context) (RunSummary, error) {
	select {
	case <-s.running:
	default:
		return RunSummary{}, ErrReconciliationRunning
	}
	defer func() { s.running <- struct{}{} }()

	summary := RunSummary{
		RunID:     ulid.MustNew(ulid.Timestamp(s.now()), s.entropy).String(),
		StartedAt: s.now(),
	}

	records, err := s.feed.FetchAll(ctx)
	if err != nil {
		s.finishRun(ctx, &summary, "failed", err.Error())
		return summary, fmt.Errorf("reconciliation: fetch feed: %w", err)
	}

	summary.SnapshotPath = s.archiveSnapshot(ctx, summary.RunID, records)

	result := s.transformer.Transform(records)

	err = s.uow.RunInTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
		return s.reconcile(ctx, repos, result, &summary)
	})
	if err != nil {
		s.finishRun(ctx, &summary, "failed", err.Error())
		return summary, err
	}

	s.finishRun(ctx, &summary, "success", "")
	s.logger.Info("reconciliation complete",
		zap.String("runId", summary.RunID),
		zap.Int("inserted", summary.Inserted),
		zap.Int("updated", summary.Updated),
		zap.Int("deleted", summary.Deleted),
		zap.Int("remoteCalls", summary.RemoteCalls))
	return summary, nil
}

type remotePriceUpdate struct {
	productID     string
	variantID     string
	sku           string
	price         int64
	showcasePrice int64
}

func (s *ReconciliationService) reconcile(ctx context.Context, repos repositories.TxRepositories, result supplier.Result, summary *RunSummary) error {
	ringIDs, err := s.ensureRings(ctx, repos, result)
	if err != nil {
		return err
	}

	if err := s.ensureWebCategories(ctx, repos, result, ringIDs); err != nil {
		return err
	}

	metalIDs, stoneIDs, err := s.ensureDictionaries(ctx, repos, result)
	if err != nil {
		return err
	}

	existing, err := repos.Variations.ListSKUPrices(ctx)
	if err != nil {
		return fmt.Errorf("reconciliation: load variations: %w", err)
	}

	existingBySKU := make(map[string]repositories.SKUPrice, len(existing))
	for _, row := range existing {
		existingBySKU[row.SKU] = row
	}

	var (
		inserts       []domain.Variation
		priceUpdates  []repositories.PriceUpdate
		remoteUpdates []remotePriceUpdate
		deleteIDs     []int64
		remoteDeletes []string
	)

	for familyID, family := range result.Families {
		ringID := ringIDs[familyID]
		for metal, byStone := range family.Variants {
			for _, variant := range byStone {
				row, exists := existingBySKU[variant.SKU]
				if !exists {
					inserts = append(inserts, domain.Variation{
						RingID:        ringID,
						SKU:           variant.SKU,
						MetalID:       metalIDs[metal],
						StoneID:       stoneIDs[variant.Stone],
						Title:         variant.Title,
						Description:   variant.Description,
						BandWidth:     variant.BandWidth,
						Weight:        variant.Weight,
						LeadTime:      variant.LeadTime,
						OnHand:        variant.OnHand,
						Price:         variant.Price,
						ShowcasePrice: variant.ShowcasePrice,
						Diamonds:      variant.Diamonds,
						Quality:       metal,
					})
					continue
				}
				if row.Price != variant.Price || row.ShowcasePrice != variant.ShowcasePrice {
					priceUpdates = append(priceUpdates, repositories.PriceUpdate{
						ID:            row.ID,
						Price:         variant.Price,
						ShowcasePrice: variant.ShowcasePrice,
					})
					if row.Sync && row.SyncID != "" {
						remoteUpdates = append(remoteUpdates, remotePriceUpdate{
							productID:     row.SyncID,
							variantID:     row.VariantSyncID,
							sku:           row.SKU,
							price:         variant.Price,
							showcasePrice: variant.ShowcasePrice,
						})
					}
				}
			}
		}
	}

	for _, row := range existing {
		if _, stillInFeed := result.ValidSKUs[row.SKU]; stillInFeed {
			continue
		}
		deleteIDs = append(deleteIDs, row.ID)
		if row.SyncID != "" {
			remoteDeletes = append(remoteDeletes, row.SyncID)
		}
	}

	if err := repos.Variations.InsertBatch(ctx, inserts); err != nil {
		return fmt.Errorf("reconciliation: insert variations: %w", err)
	}
	if err := repos.Variations.UpdatePrices(ctx, priceUpdates); err != nil {
		return fmt.Errorf("reconciliation: update prices: %w", err)
	}
	if err := repos.Variations.DeleteByIDs(ctx, deleteIDs); err != nil {
		return fmt.Errorf("reconciliation: delete variations: %w", err)
	}

	if err := s.cascadeEmptyRings(ctx, repos); err != nil {
		return err
	}

	// Remote actions run last, still inside the transaction scope. A
	// failed remote call aborts the whole local change set so the two
	// stores cannot diverge.
	for _, update := range remoteUpdates {
		if err := s.catalog.UpdateVariant(ctx, update.productID, catalogVariantPriceInput(update)); err != nil {
			return fmt.Errorf("%w: price update for %s: %v", ErrRemoteFailed, update.sku, err)
		}
		summary.RemoteCalls++
	}
	for _, productID := range remoteDeletes {
		if err := s.catalog.DeleteProduct(ctx, productID); err != nil {
			return fmt.Errorf("%w: product delete %s: %v", ErrRemoteFailed, productID, err)
		}
		summary.RemoteCalls++
	}

	summary.Inserted = len(inserts)
	summary.Updated = len(priceUpdates)
	summary.Deleted = len(deleteIDs)
	return nil
}

func (s *ReconciliationService) ensureRings(ctx context.Context, repos repositories.TxRepositories, result supplier.Result) (map[string]int64, error) {
	familyIDs := make([]string, 0, len(result.Families))
	for familyID := range result.Families {
		familyIDs = append(familyIDs, familyID)
	}

	if err := repos.Rings.InsertIgnoreSupplierGroups(ctx, familyIDs); err != nil {
		return nil, fmt.Errorf("reconciliation: insert rings: %w", err)
	}
	rings, err := repos.Rings.ListBySupplierGroupIDs(ctx, familyIDs)
	if err != nil {
		return nil, fmt.Errorf("reconciliation: resolve ring ids: %w", err)
	}

	ringIDs := make(map[string]int64, len(rings))
	for _, ring := range rings {
		ringIDs[ring.SupplierGroupID] = ring.ID
	}
	return ringIDs, nil
}

func (s *ReconciliationService) ensureWebCategories(ctx context.Context, repos repositories.TxRepositories, result supplier.Result, ringIDs map[string]int64) error {
	seen := make(map[int64]struct{})
	var tags []domain.WebCategory
	for _, family := range result.Families {
		for _, tag := range family.WebCategories {
			if _, dup := seen[tag.SupplierID]; dup {
				continue
			}
			seen[tag.SupplierID] = struct{}{}
			tags = append(tags, domain.WebCategory{SupplierID: tag.SupplierID, Name: tag.Name})
		}
	}
	if len(tags) == 0 {
		return nil
	}

	if err := repos.WebCategories.InsertIgnore(ctx, tags); err != nil {
		return fmt.Errorf("reconciliation: insert web categories: %w", err)
	}

	supplierIDs := make([]int64, 0, len(seen))
	for id := range seen {
		supplierIDs = append(supplierIDs, id)
	}
	stored, err := repos.WebCategories.ListBySupplierIDs(ctx, supplierIDs)
	if err != nil {
		return fmt.Errorf("reconciliation: resolve web categories: %w", err)
	}
	tagIDs := make(map[int64]int64, len(stored))
	for _, tag := range stored {
		tagIDs[tag.SupplierID] = tag.ID
	}

	var memberships []repositories.Membership
	for familyID, family := range result.Families {
		ringID := ringIDs[familyID]
		for _, tag := range family.WebCategories {
			memberships = append(memberships, repositories.Membership{
				RingID:        ringID,
				WebCategoryID: tagIDs[tag.SupplierID],
			})
		}
	}
	if err := repos.WebCategories.InsertIgnoreMemberships(ctx, memberships); err != nil {
		return fmt.Errorf("reconciliation: insert memberships: %w", err)
	}
	return nil
}

func (s *ReconciliationService) ensureDictionaries(ctx context.Context, repos repositories.TxRepositories, result supplier.Result) (map[string]int64, map[string]int64, error) {
	if err := repos.Metals.InsertIgnoreCodes(ctx, domain.MetalNames); err != nil {
		return nil, nil, fmt.Errorf("reconciliation: insert metals: %w", err)
	}

	stoneSet := make(map[string]struct{})
	for _, family := range result.Families {
		for _, byStone := range family.Variants {
			for stone := range byStone {
				stoneSet[stone] = struct{}{}
			}
		}
	}
	stoneNames := make([]string, 0, len(stoneSet))
	for stone := range stoneSet {
		stoneNames = append(stoneNames, stone)
	}
	if err := repos.Stones.InsertIgnoreNames(ctx, stoneNames); err != nil {
		return nil, nil, fmt.Errorf("reconciliation: insert stones: %w", err)
	}

	metals, err := repos.Metals.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("reconciliation: list metals: %w", err)
	}
	metalIDs := make(map[string]int64, len(metals))
	for _, metal := range metals {
		metalIDs[metal.Code] = metal.ID
	}

	stones, err := repos.Stones.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("reconciliation: list stones: %w", err)
	}
	stoneIDs := make(map[string]int64, len(stones))
	for _, stone := range stones {
		stoneIDs[stone.Name] = stone.ID
	}
	return metalIDs, stoneIDs, nil
}

func (s *ReconciliationService) cascadeEmptyRings(ctx context.Context, repos repositories.TxRepositories) error {
	emptyIDs, err := repos.Rings.ListZeroVariationIDs(ctx)
	if err != nil {
		return fmt.Errorf("reconciliation: find empty rings: %w", err)
	}
	if len(emptyIDs) == 0 {
		return nil
	}
	if err := repos.WebCategories.DeleteMembershipsByRingIDs(ctx, emptyIDs); err != nil {
		return fmt.Errorf("reconciliation: delete memberships: %w", err)
	}
	if err := repos.Rings.DeleteByIDs(ctx, emptyIDs); err != nil {
		return fmt.Errorf("reconciliation: delete empty rings: %w", err)
	}
	return nil
}

// Sweep removes families left with zero variations. It runs outside
// any request transaction and tolerates racing a live reconciliation;
// both paths delete the same condition.
func (s *ReconciliationService) Sweep(ctx context.Context) error {
	return s.uow.RunInTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
		return s.cascadeEmptyRings(ctx, repos)
	})
}

func (s *ReconciliationService) archiveSnapshot(ctx context.Context, runID string, records []supplier.RawRecord) string {
	if s.archiver == nil {
		return ""
	}
	payload, err := json.Marshal(records)
	if err != nil {
		s.logger.Warn("snapshot encode failed", zap.Error(err))
		return ""
	}
	path, err := s.archiver.Archive(ctx, runID, payload)
	if err != nil {
		s.logger.Warn("snapshot archive failed", zap.Error(err))
		return ""
	}
	return path
}

// finishRun records the run document and publishes the lifecycle event.
// Both are best-effort; the run's outcome is already decided.
func (s *ReconciliationService) finishRun(ctx context.Context, summary *RunSummary, status, message string) {
	summary.FinishedAt = s.now()

	if s.runs != nil {
		run := domain.SyncRun{
			RunID:        summary.RunID,
			StartedAt:    summary.StartedAt,
			FinishedAt:   summary.FinishedAt,
			Status:       status,
			Message:      message,
			Inserted:     summary.Inserted,
			Updated:      summary.Updated,
			Deleted:      summary.Deleted,
			RemoteCalls:  summary.RemoteCalls,
			SnapshotPath: summary.SnapshotPath,
		}
		if err := s.runs.Record(ctx, run); err != nil {
			s.logger.Warn("run log write failed", zap.Error(err))
		}
	}

	if s.events != nil {
		event := SyncEventMessage{
			RunID:        summary.RunID,
			EventType:    "reconciliation",
			Status:       status,
			Message:      message,
			Inserted:     summary.Inserted,
			Updated:      summary.Updated,
			Deleted:      summary.Deleted,
			SnapshotPath: summary.SnapshotPath,
		}
		if _, err := s.events.PublishSyncEvent(ctx, event); err != nil {
			s.logger.Warn("sync event publish failed", zap.Error(err))
		}
	}
}

func catalogVariantPriceInput(update remotePriceUpdate) catalog.VariantUpdateInput {
	return catalog.VariantUpdateInput{
		VariantID:      update.variantID,
		SKU:            update.sku,
		Price:          strconv.FormatInt(update.price, 10),
		CompareAtPrice: strconv.FormatInt(update.showcasePrice, 10),
		Tracked:        true,
	}
}
