package supplier

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"golang.org/x/text/unicode/norm"

	"github.com/aurelia-jewels/api/internal/domain"
)

// VariantData is one normalized sellable variant extracted from the
// feed: a specific metal and stone combination within a family.
type VariantData struct {
	SKU           string
	Metal         string
	Stone         string
	Title         string
	Description   string
	BandWidth     string
	Weight        float64
	LeadTime      int
	OnHand        int
	Price         int64
	ShowcasePrice int64
	Diamonds      string
}

// WebCategoryTag is a whitelisted supplier web-category observed on a
// family's records.
type WebCategoryTag struct {
	SupplierID int64
	Name       string
}

// Family groups the feed's variants for one supplier product family,
// bucketed by metal code and then by stone type.
type Family struct {
	SupplierGroupID string
	Variants        map[string]map[string]VariantData
	WebCategories   []WebCategoryTag
}

// Result is the transformer's grouped output plus the set of every SKU
// that survived eligibility filtering.
type Result struct {
	Families  map[string]*Family
	ValidSKUs map[string]struct{}
}

// Transformer filters raw feed records to eligible ones and groups them
// into family/metal/stone buckets. It is pure: no I/O, no persistence.
type Transformer struct {
	categoryWhitelist map[int64]struct{}
}

// NewTransformer constructs a Transformer. The category ids bound the
// web-category tags attached per family; when empty, the default
// supplier whitelist applies.
func NewTransformer(categoryIDs []int) *Transformer {
	if len(categoryIDs) == 0 {
		categoryIDs = domain.DefaultSupplierCategoryIDs
	}
	whitelist := make(map[int64]struct{}, len(categoryIDs))
	for _, id := range categoryIDs {
		whitelist[int64(id)] = struct{}{}
	}
	return &Transformer{categoryWhitelist: whitelist}
}

// Transform groups the eligible records. Ineligible records are dropped
// silently; a second record for an already-seen (metal, stone) pair
// within a family is ignored, first seen wins. The feed is known to
// carry duplicate listings for the same logical variant.
func (t *Transformer) Transform(records []RawRecord) Result {
	result := Result{
		Families:  make(map[string]*Family),
		ValidSKUs: make(map[string]struct{}),
	}

	webCategorySeen := make(map[string]map[int64]struct{})

	for _, record := range records {
		familyID := stringField(record, "SERIES")
		if familyID == "" {
			familyID = stringField(record, "Series")
		}
		if familyID == "" {
			continue
		}

		metal := stringField(record, "Quality")
		if _, ok := domain.MetalNames[metal]; !ok {
			continue
		}

		sku := stringField(record, "SKU")
		if sku == "" {
			continue
		}

		status := stringField(record, "Status")
		if _, ok := domain.EligibleStatuses[status]; !ok {
			continue
		}

		if stringField(record, "ProductType") != domain.EligibleProductType {
			continue
		}

		if _, ok := domain.EligibleJewelryStates[stringField(record, "JewelryState")]; !ok {
			continue
		}

		stone := stringField(record, "StoneType")
		if stone == "" || stone == "N/A" {
			stone = domain.StoneSentinel
		}
		if _, ok := domain.EligibleStones[stone]; !ok {
			continue
		}

		family, ok := result.Families[familyID]
		if !ok {
			family = &Family{
				SupplierGroupID: familyID,
				Variants:        make(map[string]map[string]VariantData),
			}
			result.Families[familyID] = family
			webCategorySeen[familyID] = make(map[int64]struct{})
		}

		byStone, ok := family.Variants[metal]
		if !ok {
			byStone = make(map[string]VariantData)
			family.Variants[metal] = byStone
		}

		t.collectWebCategories(record, family, webCategorySeen[familyID])

		if _, exists := byStone[stone]; exists {
			continue
		}

		byStone[stone] = VariantData{
			SKU:           sku,
			Metal:         metal,
			Stone:         stone,
			Title:         textField(record, "Title"),
			Description:   textField(record, "Description"),
			BandWidth:     stringField(record, "BandWidth"),
			Weight:        cast.ToFloat64(record["Weight"]),
			LeadTime:      cast.ToInt(record["LeadTime"]),
			OnHand:        cast.ToInt(record["OnHand"]),
			Price:         roundedPrice(record["Price"]),
			ShowcasePrice: roundedPrice(record["ShowcasePrice"]),
			Diamonds:      diamondsJSON(record["Diamonds"]),
		}
		result.ValidSKUs[sku] = struct{}{}
	}

	for _, family := range result.Families {
		sort.Slice(family.WebCategories, func(i, j int) bool {
			return family.WebCategories[i].SupplierID < family.WebCategories[j].SupplierID
		})
	}
	return result
}

func (t *Transformer) collectWebCategories(record RawRecord, family *Family, seen map[int64]struct{}) {
	raw, ok := record["WebCategories"].([]any)
	if !ok {
		return
	}
	for _, entry := range raw {
		tag, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		id := cast.ToInt64(tag["Id"])
		if _, allowed := t.categoryWhitelist[id]; !allowed {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		family.WebCategories = append(family.WebCategories, WebCategoryTag{
			SupplierID: id,
			Name:       norm.NFC.String(cast.ToString(tag["Name"])),
		})
	}
}

func stringField(record RawRecord, key string) string {
	return cast.ToString(record[key])
}

// Feed text arrives with mixed Unicode composition across records, so
// free-text fields are normalized to NFC before they are compared or
// stored.
func textField(record RawRecord, key string) string {
	return norm.NFC.String(stringField(record, key))
}

// Prices arrive as {"Value": 123.45} objects or bare numbers and are
// rounded to the nearest integer.
func roundedPrice(raw any) int64 {
	value := raw
	if nested, ok := raw.(map[string]any); ok {
		value = nested["Value"]
	}
	return decimal.NewFromFloat(cast.ToFloat64(value)).Round(0).IntPart()
}

func diamondsJSON(raw any) string {
	if raw == nil {
		return ""
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return ""
	}
	return string(encoded)
}
