package domain

import "time"

// Ring is one supplier product family: a single design offered across
// multiple metals and stones. Assignment ids are zero when unassigned.
type Ring struct {
	ID              int64     `db:"id"`
	SupplierGroupID string    `db:"supplier_group_id"`
	GroupID         int64     `db:"group_id"`
	CategoryID      int64     `db:"category_id"`
	StyleID         int64     `db:"style_id"`
	GenderID        int64     `db:"gender_id"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// Variation is one sellable SKU within a ring family, a specific
// metal and stone combination.
//
// SyncID empty implies Sync false. A variation with a non-empty SyncID
// maps to a remote product that exists, active or archived, and must
// not be deleted locally before the remote product is removed.
type Variation struct {
	ID            int64     `db:"id"`
	RingID        int64     `db:"ring_id"`
	SKU           string    `db:"sku"`
	MetalID       int64     `db:"metal_id"`
	StoneID       int64     `db:"stone_id"`
	Title         string    `db:"title"`
	Description   string    `db:"description"`
	BandWidth     string    `db:"band_width"`
	Weight        float64   `db:"weight"`
	LeadTime      int       `db:"lead_time"`
	OnHand        int       `db:"on_hand"`
	Price         int64     `db:"price"`
	ShowcasePrice int64     `db:"showcase_price"`
	Diamonds      string    `db:"diamonds"`
	Quality       string    `db:"quality"`
	Sync          bool      `db:"sync"`
	SyncID        string    `db:"sync_id"`
	VariantSyncID string    `db:"variant_sync_id"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// SyncState is the derived lifecycle position of a variation relative
// to the remote catalog.
type SyncState string

const (
	StateUnsynced SyncState = "unsynced"
	StateSynced   SyncState = "synced"
	StateArchived SyncState = "archived"
)

// State derives the sync lifecycle state from the persisted flags.
func (v Variation) State() SyncState {
	switch {
	case v.SyncID == "":
		return StateUnsynced
	case v.Sync:
		return StateSynced
	default:
		return StateArchived
	}
}

// Metal is a dictionary entry for a metal quality, keyed by the
// supplier's short code (e.g. "14Kw").
type Metal struct {
	ID    int64  `db:"id"`
	Code  string `db:"code"`
	Name  string `db:"name"`
	Image string `db:"image"`
}

// Stone is a dictionary entry for a primary stone type.
type Stone struct {
	ID    int64  `db:"id"`
	Name  string `db:"name"`
	Image string `db:"image"`
}

// Category is a storefront category backed by a remote collection.
type Category struct {
	ID       int64  `db:"id"`
	Name     string `db:"name"`
	RemoteID string `db:"remote_id"`
}

// Style is a dictionary entry for a ring style.
type Style struct {
	ID    int64  `db:"id"`
	Name  string `db:"name"`
	Image string `db:"image"`
}

// Gender is a dictionary entry for the intended wearer.
type Gender struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// Group is a named grouping dimension assignable to a ring family,
// mirrored as a remote predefined-choice value.
type Group struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// WebCategory is a supplier web-category tag used for collection
// placement, many-to-many with rings.
type WebCategory struct {
	ID         int64  `db:"id"`
	SupplierID int64  `db:"supplier_id"`
	Name       string `db:"name"`
}

// Banner is a homepage banner document.
type Banner struct {
	Title    string `firestore:"title"`
	ImageURL string `firestore:"imageUrl"`
	LinkURL  string `firestore:"linkUrl"`
	Position int    `firestore:"position"`
	Active   bool   `firestore:"active"`
}

// SyncRun is one reconciliation run record kept in the status log.
type SyncRun struct {
	RunID        string    `firestore:"runId"`
	StartedAt    time.Time `firestore:"startedAt"`
	FinishedAt   time.Time `firestore:"finishedAt"`
	Status       string    `firestore:"status"`
	Message      string    `firestore:"message"`
	Inserted     int       `firestore:"inserted"`
	Updated      int       `firestore:"updated"`
	Deleted      int       `firestore:"deleted"`
	RemoteCalls  int       `firestore:"remoteCalls"`
	SnapshotPath string    `firestore:"snapshotPath"`
}
