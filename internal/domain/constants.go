package domain

// StoneSentinel is the stored stone value for variations without a
// primary stone. The supplier feed reports these as "N/A".
const StoneSentinel = "NS"

// MetalNames maps supplier metal quality codes to display names. Only
// codes present here are eligible for ingestion.
var MetalNames = map[string]string{
	"14Ky": "14K Yellow Gold",
	"18Ky": "18K Yellow Gold",
	"14Kw": "14K White Gold",
	"18Kw": "18K White Gold",
	"14Kr": "14K Rose Gold",
	"18Kr": "18K Rose Gold",
	"Plat": "Platinum",
}

// MetalQualityOrder fixes the display order of sibling products within
// a family when writing the grouping metafield.
var MetalQualityOrder = map[string]int{
	"14Kw": 1,
	"14Ky": 2,
	"14Kr": 3,
	"18Kw": 4,
	"18Ky": 5,
	"18Kr": 6,
	"Plat": 7,
}

// DefaultSupplierCategoryIDs is the supplier category filter used when
// no explicit configuration is provided, and the whitelist applied to
// web-category tags during transformation.
var DefaultSupplierCategoryIDs = []int{21344, 21345, 21347, 21346, 21350, 26135, 21353, 5303}

// EligibleStatuses lists the supplier availability statuses accepted
// during transformation.
var EligibleStatuses = map[string]struct{}{
	"Made To Order": {},
	"In Stock":      {},
}

// EligibleProductType is the only supplier merchandise type ingested.
const EligibleProductType = "Band"

// EligibleJewelryStates lists accepted jewelry-state values.
var EligibleJewelryStates = map[string]struct{}{
	"Set": {},
	"N/A": {},
}

// EligibleStones lists accepted primary stone types after the "N/A"
// value has been normalized to StoneSentinel.
var EligibleStones = map[string]struct{}{
	StoneSentinel:       {},
	"Diamond":           {},
	"Lab-Grown Diamond": {},
	"Moissanite":        {},
	"Sapphire":          {},
}
