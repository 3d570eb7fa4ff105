package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/aurelia-jewels/api/internal/catalog"
	"github.com/aurelia-jewels/api/internal/domain"
	"github.com/aurelia-jewels/api/internal/repositories"
)

const (
	metafieldNamespace = "custom"

	metafieldTypeSingleLine = "single_line_text_field"
	metafieldTypeMultiLine  = "multi_line_text_field"
	metafieldTypeJSON       = "json"
	metafieldTypeProducts   = "list.product_reference"

	productTypeRing = "Ring"

	inventoryPolicyDeny = "DENY"
)

var (
	errSyncVariationsRequired = errors.New("product_sync: variation repository is required")
	errSyncCatalogRequired    = errors.New("product_sync: catalog client is required")
)

// ProductSyncServiceDeps wires the sync orchestrator dependencies.
type ProductSyncServiceDeps struct {
	Variations repositories.VariationRepository
	Rings      repositories.RingRepository
	Metals     repositories.MetalRepository
	Stones     repositories.StoneRepository
	Styles     repositories.StyleRepository
	Genders    repositories.GenderRepository
	Groups     repositories.GroupRepository
	Categories repositories.CategoryRepository
	Catalog    CatalogAPI
	Logger     *zap.Logger

	Vendor           string
	StockingQuantity int
}

// ProductSyncService drives one variation through its remote lifecycle:
// unsynced to synced, synced to archived, archived back to synced, and
// deletion. Multi-step remote workflows are sagas; a failed step
// unwinds everything already applied and local state is only written
// after the full remote sequence succeeds.
type ProductSyncService struct {
	variations repositories.VariationRepository
	rings      repositories.RingRepository
	metals     repositories.MetalRepository
	stones     repositories.StoneRepository
	styles     repositories.StyleRepository
	genders    repositories.GenderRepository
	groups     repositories.GroupRepository
	categories repositories.CategoryRepository
	catalog    CatalogAPI
	logger     *zap.Logger
	sanitizer  *bluemonday.Policy

	vendor           string
	stockingQuantity int
}

// NewProductSyncService constructs a ProductSyncService.
func NewProductSyncService(deps ProductSyncServiceDeps) (*ProductSyncService, error) {
	if deps.Variations == nil {
		return nil, errSyncVariationsRequired
	}
	if deps.Catalog == nil {
		return nil, errSyncCatalogRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	quantity := deps.StockingQuantity
	if quantity <= 0 {
		quantity = 100
	}
	return &ProductSyncService{
		variations:       deps.Variations,
		rings:            deps.Rings,
		metals:           deps.Metals,
		stones:           deps.Stones,
		styles:           deps.Styles,
		genders:          deps.Genders,
		groups:           deps.Groups,
		categories:       deps.Categories,
		catalog:          deps.Catalog,
		logger:           logger.Named("product_sync"),
		sanitizer:        bluemonday.UGCPolicy(),
		vendor:           deps.Vendor,
		stockingQuantity: quantity,
	}, nil
}

// attributeNames carries the resolved dictionary display names of one
// variation's family.
type attributeNames struct {
	group        string
	category     domain.Category
	hasCategory  bool
	style        string
	gender       string
	metal        string
	stone        string
	supplierGroup string
}

// Sync pushes the variation to the remote catalog. A variation with a
// retained remote id is reactivated with a single status call instead
// of being recreated.
func (s *ProductSyncService) Sync(ctx context.Context, variationID int64) error {
	variation, err := s.getVariation(ctx, variationID)
	if err != nil {
		return err
	}

	switch variation.State() {
	case domain.StateSynced:
		return fmt.Errorf("%w: variation %s is already synced", ErrConflict, variation.SKU)
	case domain.StateArchived:
		return s.reactivate(ctx, variation)
	}

	names, err := s.prepareSync(ctx, variation)
	if err != nil {
		return err
	}

	created, err := s.createRemoteProduct(ctx, variation, names)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteFailed, err)
	}

	err = s.variations.SetSyncState(ctx, repositories.SyncStateUpdate{
		ID:            variation.ID,
		Sync:          true,
		SyncID:        created.ProductID,
		VariantSyncID: created.VariantID,
	})
	if err != nil {
		// The two stores must not diverge; undo the remote product.
		s.undoRemoteProduct(ctx, variation, created.ProductID)
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	s.logger.Info("variation synced",
		zap.String("sku", variation.SKU),
		zap.String("productId", created.ProductID))
	return nil
}

// prepareSync validates the variation and its upstream collection
// before any mutating remote call runs.
func (s *ProductSyncService) prepareSync(ctx context.Context, variation domain.Variation) (attributeNames, error) {
	names, err := s.resolveNames(ctx, variation)
	if err != nil {
		return names, err
	}

	if err := s.checkSyncPreconditions(variation, names); err != nil {
		return names, err
	}

	if names.hasCategory {
		exists, err := s.catalog.CollectionExists(ctx, names.category.RemoteID)
		if err != nil {
			return names, fmt.Errorf("%w: collection check: %v", ErrRemoteFailed, err)
		}
		if !exists {
			return names, fmt.Errorf("%w: collection %s missing upstream", ErrNotFound, names.category.RemoteID)
		}
	}
	return names, nil
}

// createRemoteProduct runs the remote creation workflow. On failure the
// already-applied steps are compensated and no product remains upstream.
// Local state is untouched either way.
func (s *ProductSyncService) createRemoteProduct(ctx context.Context, variation domain.Variation, names attributeNames) (catalog.CreatedProduct, error) {
	var created catalog.CreatedProduct

	workflow := newSaga(s.logger)
	workflow.addStep("create product",
		func(ctx context.Context) error {
			var createErr error
			created, createErr = s.catalog.CreateProduct(ctx, catalog.ProductCreateInput{
				Title:           variation.Title,
				DescriptionHTML: s.sanitizer.Sanitize(variation.Description),
				Vendor:          s.vendor,
				ProductType:     productTypeRing,
				Status:          catalog.ProductStatusActive,
				Metafields:      s.buildMetafields(variation, names),
			})
			return createErr
		},
		func(ctx context.Context) error {
			return s.catalog.DeleteProduct(ctx, created.ProductID)
		})
	workflow.addStep("stock inventory",
		func(ctx context.Context) error {
			locationID, err := s.catalog.PrimaryLocationID(ctx)
			if err != nil {
				return err
			}
			return s.catalog.AdjustInventory(ctx, created.InventoryItemID, locationID, s.stockingQuantity)
		},
		nil)
	workflow.addStep("update variant",
		func(ctx context.Context) error {
			return s.catalog.UpdateVariant(ctx, created.ProductID, catalog.VariantUpdateInput{
				VariantID:       created.VariantID,
				SKU:             variation.SKU,
				Price:           strconv.FormatInt(variation.Price, 10),
				CompareAtPrice:  strconv.FormatInt(variation.ShowcasePrice, 10),
				WeightGrams:     variation.Weight,
				Tracked:         true,
				InventoryPolicy: inventoryPolicyDeny,
			})
		},
		nil)
	if names.hasCategory {
		workflow.addStep("join collection",
			func(ctx context.Context) error {
				return s.catalog.AddProductsToCollection(ctx, names.category.RemoteID, []string{created.ProductID})
			},
			nil)
	}
	workflow.addStep("publish",
		func(ctx context.Context) error {
			publications, err := s.catalog.ListPublications(ctx)
			if err != nil {
				return err
			}
			return s.catalog.PublishProduct(ctx, created.ProductID, publications)
		},
		nil)
	workflow.addStep("group siblings",
		func(ctx context.Context) error {
			return s.writeSiblingGroups(ctx, variation.RingID, created.ProductID, variation.Quality)
		},
		func(ctx context.Context) error {
			return s.writeSiblingGroups(ctx, variation.RingID, "", "")
		})

	if err := workflow.run(ctx); err != nil {
		return catalog.CreatedProduct{}, err
	}
	return created, nil
}

// undoRemoteProduct deletes a product created during a failed workflow
// and rewrites the family grouping metafield without it. Compensation
// failures are logged, never returned.
func (s *ProductSyncService) undoRemoteProduct(ctx context.Context, variation domain.Variation, productID string) {
	if err := s.catalog.DeleteProduct(ctx, productID); err != nil {
		s.logger.Error("remote compensation failed",
			zap.String("productId", productID),
			zap.Error(err))
	}
	if err := s.writeSiblingGroups(ctx, variation.RingID, "", ""); err != nil {
		s.logger.Error("sibling group compensation failed", zap.Error(err))
	}
}

func (s *ProductSyncService) reactivate(ctx context.Context, variation domain.Variation) error {
	if err := s.catalog.UpdateProductStatus(ctx, variation.SyncID, catalog.ProductStatusActive); err != nil {
		return fmt.Errorf("%w: reactivate %s: %v", ErrRemoteFailed, variation.SKU, err)
	}
	err := s.variations.SetSyncState(ctx, repositories.SyncStateUpdate{
		ID:            variation.ID,
		Sync:          true,
		SyncID:        variation.SyncID,
		VariantSyncID: variation.VariantSyncID,
	})
	if err != nil {
		if remoteErr := s.catalog.UpdateProductStatus(ctx, variation.SyncID, catalog.ProductStatusArchived); remoteErr != nil {
			s.logger.Error("archive compensation failed", zap.Error(remoteErr))
		}
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	return nil
}

// Unsync archives the remote product and clears the local active flag.
// The remote id is retained so the product can be reactivated or
// deleted later.
func (s *ProductSyncService) Unsync(ctx context.Context, variationID int64) error {
	variation, err := s.getVariation(ctx, variationID)
	if err != nil {
		return err
	}
	if variation.State() != domain.StateSynced {
		return fmt.Errorf("%w: variation %s is not synced", ErrConflict, variation.SKU)
	}

	if err := s.catalog.UpdateProductStatus(ctx, variation.SyncID, catalog.ProductStatusArchived); err != nil {
		return fmt.Errorf("%w: archive %s: %v", ErrRemoteFailed, variation.SKU, err)
	}

	err = s.variations.SetSyncState(ctx, repositories.SyncStateUpdate{
		ID:            variation.ID,
		Sync:          false,
		SyncID:        variation.SyncID,
		VariantSyncID: variation.VariantSyncID,
	})
	if err != nil {
		if remoteErr := s.catalog.UpdateProductStatus(ctx, variation.SyncID, catalog.ProductStatusActive); remoteErr != nil {
			s.logger.Error("reactivate compensation failed", zap.Error(remoteErr))
		}
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	return nil
}

// Delete removes the remote product first, then the local row. A
// variation that was never synced cannot be deleted through this path.
func (s *ProductSyncService) Delete(ctx context.Context, variationID int64) error {
	variation, err := s.getVariation(ctx, variationID)
	if err != nil {
		return err
	}
	if variation.SyncID == "" {
		return fmt.Errorf("%w: variation %s was never synced", ErrConflict, variation.SKU)
	}

	if err := s.catalog.DeleteProduct(ctx, variation.SyncID); err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrRemoteFailed, variation.SKU, err)
	}
	if err := s.variations.DeleteByIDs(ctx, []int64{variation.ID}); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	// Siblings still reference the deleted product in their grouping
	// metafield; rewrite it best-effort.
	if err := s.writeSiblingGroups(ctx, variation.RingID, "", ""); err != nil {
		s.logger.Warn("sibling group rewrite failed after delete", zap.Error(err))
	}
	return nil
}

// HandleProductDeleteCallback clears the sync linkage of whichever
// variation pointed at a product deleted out-of-band in the remote
// catalog, so the next listing shows it as unsynced instead of stale.
func (s *ProductSyncService) HandleProductDeleteCallback(ctx context.Context, remoteProductID string) error {
	if strings.TrimSpace(remoteProductID) == "" {
		return fmt.Errorf("%w: product id is required", ErrInvalidInput)
	}
	if err := s.variations.ClearSyncByRemoteID(ctx, remoteProductID); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	s.logger.Info("cleared sync linkage after remote delete",
		zap.String("productId", remoteProductID))
	return nil
}

// EditInput carries the editable descriptive fields of a variation.
type EditInput struct {
	VariationID   int64
	Title         string
	Description   string
	BandWidth     string
	Weight        float64
	Price         int64
	ShowcasePrice int64
	Diamonds      string
}

// Edit updates the variation locally and, when the variation is synced,
// propagates title, description, and metafields to the remote product
// before committing the local change.
func (s *ProductSyncService) Edit(ctx context.Context, input EditInput) error {
	if input.Title == "" || input.Description == "" {
		return fmt.Errorf("%w: title and description are required", ErrInvalidInput)
	}

	variation, err := s.getVariation(ctx, input.VariationID)
	if err != nil {
		return err
	}

	updated := variation
	updated.Title = input.Title
	updated.Description = input.Description
	updated.BandWidth = input.BandWidth
	updated.Weight = input.Weight
	updated.Price = input.Price
	updated.ShowcasePrice = input.ShowcasePrice
	updated.Diamonds = input.Diamonds

	if variation.State() == domain.StateSynced {
		names, err := s.resolveNames(ctx, variation)
		if err != nil {
			return err
		}
		if err := s.pushEdit(ctx, updated, names); err != nil {
			return err
		}
		if err := s.variations.Update(ctx, updated); err != nil {
			if remoteErr := s.pushEdit(ctx, variation, names); remoteErr != nil {
				s.logger.Error("edit compensation failed", zap.Error(remoteErr))
			}
			return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
		}
		return nil
	}

	if err := s.variations.Update(ctx, updated); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	return nil
}

func (s *ProductSyncService) pushEdit(ctx context.Context, variation domain.Variation, names attributeNames) error {
	err := s.catalog.UpdateProduct(ctx, catalog.ProductUpdateInput{
		ID:              variation.SyncID,
		Title:           variation.Title,
		DescriptionHTML: s.sanitizer.Sanitize(variation.Description),
	})
	if err != nil {
		return fmt.Errorf("%w: product update: %v", ErrRemoteFailed, err)
	}

	metafields := s.buildMetafields(variation, names)
	inputs := make([]catalog.MetafieldSetInput, 0, len(metafields))
	for _, mf := range metafields {
		inputs = append(inputs, catalog.MetafieldSetInput{
			OwnerID:   variation.SyncID,
			Namespace: mf.Namespace,
			Key:       mf.Key,
			Type:      mf.Type,
			Value:     mf.Value,
		})
	}
	if err := s.catalog.SetMetafields(ctx, inputs); err != nil {
		return fmt.Errorf("%w: metafield update: %v", ErrRemoteFailed, err)
	}
	return nil
}

func (s *ProductSyncService) getVariation(ctx context.Context, id int64) (domain.Variation, error) {
	variation, err := s.variations.Get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return domain.Variation{}, fmt.Errorf("%w: variation %d", ErrNotFound, id)
		}
		return domain.Variation{}, fmt.Errorf("product_sync: load variation: %w", err)
	}
	return variation, nil
}

func (s *ProductSyncService) checkSyncPreconditions(variation domain.Variation, names attributeNames) error {
	var missing []string
	if strings.TrimSpace(variation.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(variation.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(variation.BandWidth) == "" {
		missing = append(missing, "band_width")
	}
	if names.stone != domain.StoneSentinel && strings.TrimSpace(variation.Diamonds) == "" {
		missing = append(missing, "diamonds")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}

func (s *ProductSyncService) resolveNames(ctx context.Context, variation domain.Variation) (attributeNames, error) {
	var names attributeNames

	ring, err := s.rings.Get(ctx, variation.RingID)
	if err != nil {
		if isNotFound(err) {
			return names, fmt.Errorf("%w: ring %d", ErrNotFound, variation.RingID)
		}
		return names, fmt.Errorf("product_sync: load ring: %w", err)
	}
	names.supplierGroup = ring.SupplierGroupID

	if metal, err := s.metals.Get(ctx, variation.MetalID); err == nil {
		names.metal = metal.Name
	}
	if stone, err := s.stones.Get(ctx, variation.StoneID); err == nil {
		names.stone = stone.Name
	}
	if ring.GroupID != 0 {
		if group, err := s.groups.Get(ctx, ring.GroupID); err == nil {
			names.group = group.Name
		}
	}
	if ring.StyleID != 0 {
		if style, err := s.styles.Get(ctx, ring.StyleID); err == nil {
			names.style = style.Name
		}
	}
	if ring.GenderID != 0 {
		if gender, err := s.genders.Get(ctx, ring.GenderID); err == nil {
			names.gender = gender.Name
		}
	}
	if ring.CategoryID != 0 && s.categories != nil {
		if category, err := s.categories.Get(ctx, ring.CategoryID); err == nil {
			names.category = category
			names.hasCategory = category.RemoteID != ""
		}
	}
	return names, nil
}

func (s *ProductSyncService) buildMetafields(variation domain.Variation, names attributeNames) []catalog.MetafieldInput {
	add := func(fields []catalog.MetafieldInput, key, fieldType, value string) []catalog.MetafieldInput {
		if value == "" {
			return fields
		}
		return append(fields, catalog.MetafieldInput{
			Namespace: metafieldNamespace,
			Key:       key,
			Type:      fieldType,
			Value:     value,
		})
	}

	var fields []catalog.MetafieldInput
	fields = add(fields, "group_name", metafieldTypeSingleLine, names.group)
	fields = add(fields, "band_width", metafieldTypeSingleLine, variation.BandWidth)
	fields = add(fields, "stone_type", metafieldTypeSingleLine, names.stone)
	fields = add(fields, "diamonds", metafieldTypeJSON, variation.Diamonds)
	fields = add(fields, "supplier_id", metafieldTypeSingleLine, names.supplierGroup)
	fields = add(fields, "metal", metafieldTypeSingleLine, names.metal)
	fields = add(fields, "style", metafieldTypeSingleLine, names.style)
	fields = add(fields, "gender", metafieldTypeSingleLine, names.gender)
	fields = add(fields, "product_description", metafieldTypeMultiLine, s.buildProductDescription(variation, names))
	return fields
}

// buildProductDescription assembles the display description from the
// non-empty, non-zero fields only.
func (s *ProductSyncService) buildProductDescription(variation domain.Variation, names attributeNames) string {
	var lines []string
	appendLine := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", label, value))
		}
	}

	appendLine("Metal", names.metal)
	if names.stone != "" && names.stone != domain.StoneSentinel {
		appendLine("Stone", names.stone)
	}
	appendLine("Band Width", variation.BandWidth)
	if variation.Weight > 0 {
		appendLine("Weight", strconv.FormatFloat(variation.Weight, 'f', -1, 64)+" g")
	}
	if variation.LeadTime > 0 {
		appendLine("Lead Time", strconv.Itoa(variation.LeadTime)+" days")
	}
	appendLine("Style", names.style)
	return strings.Join(lines, "\n")
}

// writeSiblingGroups recomputes the family grouping metafield and
// writes it to every synced sibling. The list is ordered by the fixed
// metal quality ordering; extraProductID is included when non-empty so
// a just-created product participates before its local row exists.
func (s *ProductSyncService) writeSiblingGroups(ctx context.Context, ringID int64, extraProductID, extraQuality string) error {
	siblings, err := s.variations.ListByRingID(ctx, ringID)
	if err != nil {
		return fmt.Errorf("product_sync: list siblings: %w", err)
	}

	type member struct {
		productID string
		order     int
	}
	var members []member
	for _, sibling := range siblings {
		if sibling.SyncID == "" || sibling.SyncID == extraProductID {
			continue
		}
		members = append(members, member{
			productID: sibling.SyncID,
			order:     domain.MetalQualityOrder[sibling.Quality],
		})
	}
	if extraProductID != "" {
		members = append(members, member{
			productID: extraProductID,
			order:     domain.MetalQualityOrder[extraQuality],
		})
	}
	if len(members) == 0 {
		return nil
	}

	sort.SliceStable(members, func(i, j int) bool {
		return members[i].order < members[j].order
	})
	productIDs := make([]string, 0, len(members))
	for _, m := range members {
		productIDs = append(productIDs, m.productID)
	}
	encoded, err := json.Marshal(productIDs)
	if err != nil {
		return fmt.Errorf("product_sync: encode group list: %w", err)
	}

	inputs := make([]catalog.MetafieldSetInput, 0, len(productIDs))
	for _, productID := range productIDs {
		inputs = append(inputs, catalog.MetafieldSetInput{
			OwnerID:   productID,
			Namespace: metafieldNamespace,
			Key:       "product_group",
			Type:      metafieldTypeProducts,
			Value:     string(encoded),
		})
	}
	return s.catalog.SetMetafields(ctx, inputs)
}
