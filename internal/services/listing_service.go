package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/aurelia-jewels/api/internal/domain"
	"github.com/aurelia-jewels/api/internal/repositories"
)

var errListingVariationsRequired = errors.New("listing: variation repository is required")

// ListingServiceDeps wires the product listing dependencies.
type ListingServiceDeps struct {
	Variations repositories.VariationRepository
	Logger     *zap.Logger
}

// ListingService serves the admin product views: the joined variation
// listing with its display filters and the single-variation detail.
type ListingService struct {
	variations repositories.VariationRepository
	logger     *zap.Logger
}

// NewListingService constructs a ListingService.
func NewListingService(deps ListingServiceDeps) (*ListingService, error) {
	if deps.Variations == nil {
		return nil, errListingVariationsRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListingService{
		variations: deps.Variations,
		logger:     logger.Named("listing"),
	}, nil
}

// ProductView is one listing row with its derived readiness flags.
type ProductView struct {
	repositories.ProductRow
	State              domain.SyncState `json:"state"`
	Complete           bool             `json:"complete"`
	AttributesAssigned bool             `json:"attributesAssigned"`
}

// ProductPage is one page of the product listing.
type ProductPage struct {
	Products []ProductView `json:"products"`
	Total    int           `json:"total"`
	Limit    int           `json:"limit"`
	Offset   int           `json:"offset"`
}

var validDisplays = map[string]bool{
	repositories.DisplayAll:         true,
	repositories.DisplaySynced:      true,
	repositories.DisplayArchived:    true,
	repositories.DisplayYetToBeSync: true,
}

// ListProducts returns a filtered page of variations with their
// readiness flags: whether the descriptive fields needed for a sync are
// present and whether the family has a full attribute assignment.
func (s *ListingService) ListProducts(ctx context.Context, filter repositories.ProductListingFilter) (ProductPage, error) {
	if !validDisplays[filter.Display] {
		return ProductPage{}, fmt.Errorf("%w: unknown display filter %q", ErrInvalidInput, filter.Display)
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}

	rows, total, err := s.variations.ListProducts(ctx, filter)
	if err != nil {
		return ProductPage{}, fmt.Errorf("listing: list products: %w", err)
	}

	products := make([]ProductView, 0, len(rows))
	for _, row := range rows {
		products = append(products, ProductView{
			ProductRow:         row,
			State:              row.State(),
			Complete:           rowComplete(row),
			AttributesAssigned: row.GroupName != "" && row.CategoryName != "" && row.StyleName != "" && row.GenderName != "",
		})
	}
	return ProductPage{
		Products: products,
		Total:    total,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	}, nil
}

// Get returns one variation by id.
func (s *ListingService) Get(ctx context.Context, id int64) (domain.Variation, error) {
	variation, err := s.variations.Get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return domain.Variation{}, fmt.Errorf("%w: variation %d", ErrNotFound, id)
		}
		return domain.Variation{}, fmt.Errorf("listing: get variation: %w", err)
	}
	return variation, nil
}

// rowComplete reports whether the descriptive fields a sync requires
// are all present. Diamonds are only required when a stone is set.
func rowComplete(row repositories.ProductRow) bool {
	if row.Title == "" || row.Description == "" || row.BandWidth == "" {
		return false
	}
	if row.StoneName != domain.StoneSentinel && row.Diamonds == "" {
		return false
	}
	return true
}
