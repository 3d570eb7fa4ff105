package supplier

import (
	"testing"
)

func eligibleRecord(overrides map[string]any) RawRecord {
	record := RawRecord{
		"SERIES":       "FAM-100",
		"SKU":          "FAM-100-14Kw",
		"Quality":      "14Kw",
		"Status":       "In Stock",
		"ProductType":  "Band",
		"JewelryState": "Set",
		"StoneType":    "Diamond",
		"Title":        "Classic Band",
		"Description":  "A classic band.",
		"BandWidth":    "4mm",
		"Weight":       3.5,
		"LeadTime":     14,
		"OnHand":       2,
		"Price":        map[string]any{"Value": 749.6},
		"ShowcasePrice": map[string]any{
			"Value": 999.4,
		},
	}
	for key, value := range overrides {
		record[key] = value
	}
	return record
}

func TestTransformGroupsByFamilyMetalStone(t *testing.T) {
	transformer := NewTransformer(nil)

	result := transformer.Transform([]RawRecord{
		eligibleRecord(nil),
		eligibleRecord(map[string]any{"SKU": "FAM-100-18Ky", "Quality": "18Ky"}),
		eligibleRecord(map[string]any{"SERIES": "FAM-200", "SKU": "FAM-200-Plat", "Quality": "Plat"}),
	})

	if len(result.Families) != 2 {
		t.Fatalf("expected 2 families, got %d", len(result.Families))
	}

	family := result.Families["FAM-100"]
	if family == nil {
		t.Fatal("expected family FAM-100")
	}
	if len(family.Variants) != 2 {
		t.Fatalf("expected 2 metals in FAM-100, got %d", len(family.Variants))
	}
	variant, ok := family.Variants["14Kw"]["Diamond"]
	if !ok {
		t.Fatal("expected 14Kw/Diamond variant")
	}
	if variant.SKU != "FAM-100-14Kw" {
		t.Fatalf("unexpected sku %q", variant.SKU)
	}
	if variant.Price != 750 {
		t.Fatalf("expected price rounded to 750, got %d", variant.Price)
	}
	if variant.ShowcasePrice != 999 {
		t.Fatalf("expected showcase price rounded to 999, got %d", variant.ShowcasePrice)
	}

	if _, ok := result.ValidSKUs["FAM-200-Plat"]; !ok {
		t.Fatal("expected FAM-200-Plat in valid skus")
	}
}

func TestTransformDropsIneligibleRecords(t *testing.T) {
	transformer := NewTransformer(nil)

	cases := []struct {
		name     string
		override map[string]any
	}{
		{"discontinued status", map[string]any{"Status": "Discontinued"}},
		{"unknown metal", map[string]any{"Quality": "10Kw"}},
		{"wrong product type", map[string]any{"ProductType": "Pendant"}},
		{"loose jewelry state", map[string]any{"JewelryState": "Loose"}},
		{"unknown stone", map[string]any{"StoneType": "Opal"}},
		{"missing sku", map[string]any{"SKU": ""}},
		{"missing family", map[string]any{"SERIES": "", "Series": ""}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := transformer.Transform([]RawRecord{eligibleRecord(tc.override)})
			if len(result.ValidSKUs) != 0 {
				t.Fatalf("expected record to be dropped, got %d valid skus", len(result.ValidSKUs))
			}
		})
	}
}

func TestTransformFirstSeenWinsPerMetalStone(t *testing.T) {
	transformer := NewTransformer(nil)

	result := transformer.Transform([]RawRecord{
		eligibleRecord(map[string]any{"Title": "First Listing"}),
		eligibleRecord(map[string]any{"Title": "Duplicate Listing", "SKU": "FAM-100-DUP"}),
	})

	variant := result.Families["FAM-100"].Variants["14Kw"]["Diamond"]
	if variant.Title != "First Listing" {
		t.Fatalf("expected first record to win, got %q", variant.Title)
	}
	if _, ok := result.ValidSKUs["FAM-100-DUP"]; ok {
		t.Fatal("duplicate record's sku must not be marked valid")
	}
}

func TestTransformNormalizesMissingStone(t *testing.T) {
	transformer := NewTransformer(nil)

	result := transformer.Transform([]RawRecord{
		eligibleRecord(map[string]any{"StoneType": "N/A"}),
	})

	if _, ok := result.Families["FAM-100"].Variants["14Kw"]["NS"]; !ok {
		t.Fatal("expected N/A stone to normalize to the no-stone sentinel")
	}
}

func TestTransformCollectsWhitelistedWebCategories(t *testing.T) {
	transformer := NewTransformer([]int{100, 200})

	record := eligibleRecord(map[string]any{
		"WebCategories": []any{
			map[string]any{"Id": float64(100), "Name": "Wedding"},
			map[string]any{"Id": float64(100), "Name": "Wedding"},
			map[string]any{"Id": float64(999), "Name": "Clearance"},
			map[string]any{"Id": float64(200), "Name": "Anniversary"},
		},
	})

	result := transformer.Transform([]RawRecord{record})
	tags := result.Families["FAM-100"].WebCategories
	if len(tags) != 2 {
		t.Fatalf("expected 2 whitelisted tags, got %d", len(tags))
	}
	if tags[0].SupplierID != 100 || tags[1].SupplierID != 200 {
		t.Fatalf("expected tags sorted by supplier id, got %+v", tags)
	}
}
