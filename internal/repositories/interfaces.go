package repositories

import (
	"context"

	"github.com/aurelia-jewels/api/internal/domain"
)

// RepositoryError classifies persistence failures so services can
// branch without depending on a concrete backend.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// SKUPrice is the slim variation projection used by the feed diff.
type SKUPrice struct {
	ID            int64  `db:"id"`
	SKU           string `db:"sku"`
	Price         int64  `db:"price"`
	ShowcasePrice int64  `db:"showcase_price"`
	Sync          bool   `db:"sync"`
	SyncID        string `db:"sync_id"`
	VariantSyncID string `db:"variant_sync_id"`
}

// PriceUpdate carries one batched price correction keyed by row id.
type PriceUpdate struct {
	ID            int64
	Price         int64
	ShowcasePrice int64
}

// SyncStateUpdate rewrites one variation's remote sync linkage.
type SyncStateUpdate struct {
	ID            int64
	Sync          bool
	SyncID        string
	VariantSyncID string
}

// Membership links a ring to a web category.
type Membership struct {
	RingID        int64
	WebCategoryID int64
}

// RingRepository persists supplier product families.
type RingRepository interface {
	InsertIgnoreSupplierGroups(ctx context.Context, supplierGroupIDs []string) error
	ListBySupplierGroupIDs(ctx context.Context, supplierGroupIDs []string) ([]domain.Ring, error)
	Get(ctx context.Context, id int64) (domain.Ring, error)
	ListZeroVariationIDs(ctx context.Context) ([]int64, error)
	DeleteByIDs(ctx context.Context, ids []int64) error
	UpdateAssignments(ctx context.Context, id, groupID, categoryID, styleID, genderID int64) error
	ListUnassigned(ctx context.Context) ([]UnassignedRing, error)
	ListAssigned(ctx context.Context, filter AssignedRingFilter) ([]AssignedRing, int, error)
}

// UnassignedRing is a family without a complete attribute assignment,
// with its observed web categories concatenated for display.
type UnassignedRing struct {
	domain.Ring
	WebCategoryNames string `db:"web_category_names"`
}

// AssignedRingFilter bounds and orders the assigned family listing.
type AssignedRingFilter struct {
	Limit   int
	Offset  int
	OrderBy string
	Desc    bool
}

// AssignedRing is a fully assigned family together with its display
// names and whether any of its variations is currently synced.
type AssignedRing struct {
	domain.Ring
	GroupName    string `db:"group_name"`
	CategoryName string `db:"category_name"`
	StyleName    string `db:"style_name"`
	GenderName   string `db:"gender_name"`
	HasSynced    bool   `db:"has_synced"`
}

// VariationRepository persists sellable SKUs.
type VariationRepository interface {
	ListSKUPrices(ctx context.Context) ([]SKUPrice, error)
	InsertBatch(ctx context.Context, variations []domain.Variation) error
	UpdatePrices(ctx context.Context, updates []PriceUpdate) error
	DeleteByIDs(ctx context.Context, ids []int64) error
	Get(ctx context.Context, id int64) (domain.Variation, error)
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Variation, error)
	ListByRingID(ctx context.Context, ringID int64) ([]domain.Variation, error)
	SetSyncState(ctx context.Context, update SyncStateUpdate) error
	SetSyncStates(ctx context.Context, updates []SyncStateUpdate) error
	ClearSyncByRemoteID(ctx context.Context, syncID string) error
	Update(ctx context.Context, variation domain.Variation) error
	ListProducts(ctx context.Context, filter ProductListingFilter) ([]ProductRow, int, error)
}

// ProductListingFilter selects which sync states appear in the joined
// product listing.
type ProductListingFilter struct {
	Display string
	Limit   int
	Offset  int
}

// Display filter values for ProductListingFilter.
const (
	DisplayAll         = ""
	DisplaySynced      = "synced"
	DisplayArchived    = "archived"
	DisplayYetToBeSync = "yet-to-be-synced"
)

// ProductRow is one joined listing row with assignment display names.
type ProductRow struct {
	domain.Variation
	SupplierGroupID string `db:"supplier_group_id"`
	MetalName       string `db:"metal_name"`
	StoneName       string `db:"stone_name"`
	GroupName       string `db:"group_name"`
	CategoryName    string `db:"category_name"`
	StyleName       string `db:"style_name"`
	GenderName      string `db:"gender_name"`
}

// WebCategoryRepository persists supplier web-category tags and their
// ring memberships.
type WebCategoryRepository interface {
	InsertIgnore(ctx context.Context, tags []domain.WebCategory) error
	ListBySupplierIDs(ctx context.Context, supplierIDs []int64) ([]domain.WebCategory, error)
	InsertIgnoreMemberships(ctx context.Context, memberships []Membership) error
	DeleteMembershipsByRingIDs(ctx context.Context, ringIDs []int64) error
}

// MetalRepository persists the metal dictionary.
type MetalRepository interface {
	List(ctx context.Context) ([]domain.Metal, error)
	Get(ctx context.Context, id int64) (domain.Metal, error)
	GetByName(ctx context.Context, name string) (domain.Metal, error)
	InsertIgnoreCodes(ctx context.Context, codeNames map[string]string) error
	Insert(ctx context.Context, metal domain.Metal) (int64, error)
	Rename(ctx context.Context, id int64, name string) error
	UpdateImage(ctx context.Context, id int64, imageURL string) error
	Delete(ctx context.Context, id int64) error
	CountVariationReferences(ctx context.Context, id int64) (int64, error)
}

// StoneRepository persists the stone dictionary.
type StoneRepository interface {
	List(ctx context.Context) ([]domain.Stone, error)
	Get(ctx context.Context, id int64) (domain.Stone, error)
	GetByName(ctx context.Context, name string) (domain.Stone, error)
	InsertIgnoreNames(ctx context.Context, names []string) error
	Insert(ctx context.Context, stone domain.Stone) (int64, error)
	Rename(ctx context.Context, id int64, name string) error
	UpdateImage(ctx context.Context, id int64, imageURL string) error
	Delete(ctx context.Context, id int64) error
	CountVariationReferences(ctx context.Context, id int64) (int64, error)
}

// StyleRepository persists the style dictionary.
type StyleRepository interface {
	List(ctx context.Context) ([]domain.Style, error)
	Get(ctx context.Context, id int64) (domain.Style, error)
	GetByName(ctx context.Context, name string) (domain.Style, error)
	Insert(ctx context.Context, style domain.Style) (int64, error)
	Rename(ctx context.Context, id int64, name string) error
	UpdateImage(ctx context.Context, id int64, imageURL string) error
	Delete(ctx context.Context, id int64) error
	CountRingReferences(ctx context.Context, id int64) (int64, error)
	ClearRingReferences(ctx context.Context, id int64) error
}

// GroupRepository persists the grouping dictionary.
type GroupRepository interface {
	List(ctx context.Context) ([]domain.Group, error)
	Get(ctx context.Context, id int64) (domain.Group, error)
	GetByName(ctx context.Context, name string) (domain.Group, error)
	Insert(ctx context.Context, group domain.Group) (int64, error)
	Rename(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, id int64) error
	CountRingReferences(ctx context.Context, id int64) (int64, error)
}

// CategoryRepository persists storefront categories backed by remote
// collections.
type CategoryRepository interface {
	List(ctx context.Context) ([]domain.Category, error)
	Get(ctx context.Context, id int64) (domain.Category, error)
	InsertIfAbsent(ctx context.Context, category domain.Category) error
}

// GenderRepository persists the gender dictionary.
type GenderRepository interface {
	List(ctx context.Context) ([]domain.Gender, error)
	Get(ctx context.Context, id int64) (domain.Gender, error)
}

// TxRepositories bundles the relational repositories bound to one
// connection or transaction.
type TxRepositories struct {
	Rings         RingRepository
	Variations    VariationRepository
	WebCategories WebCategoryRepository
	Metals        MetalRepository
	Stones        StoneRepository
	Styles        StyleRepository
	Groups        GroupRepository
	Categories    CategoryRepository
	Genders       GenderRepository
}

// UnitOfWork runs fn against transaction-scoped repositories, rolling
// the transaction back when fn errors.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error
}

// BannerRepository reads homepage banner documents.
type BannerRepository interface {
	ListActive(ctx context.Context) ([]domain.Banner, error)
}

// SyncRunRepository appends and reads the reconciliation run log.
type SyncRunRepository interface {
	Record(ctx context.Context, run domain.SyncRun) error
	ListRecent(ctx context.Context, limit int) ([]domain.SyncRun, error)
}
