package domain

// DictionaryKind identifies one of the attribute dictionaries mirrored
// between the relational store and the remote catalog.
type DictionaryKind string

const (
	KindMetal DictionaryKind = "metal"
	KindStone DictionaryKind = "stone"
	KindStyle DictionaryKind = "style"
	KindGroup DictionaryKind = "group"
)

// DictionaryKinds lists every kind in a stable order.
var DictionaryKinds = []DictionaryKind{KindMetal, KindStone, KindStyle, KindGroup}

// KindSpec describes how a dictionary kind maps onto remote catalog
// structures: the product metafield carrying its value, the choice
// field of the filter metaobject definition, and the display
// metaobject type tag.
type KindSpec struct {
	MetafieldNamespace string
	MetafieldKey       string
	ChoiceField        string
	MetaobjectType     string
	HasImage           bool
}

// KindSpecs maps each dictionary kind to its remote wiring.
var KindSpecs = map[DictionaryKind]KindSpec{
	KindMetal: {
		MetafieldNamespace: "custom",
		MetafieldKey:       "metal",
		ChoiceField:        "metal",
		MetaobjectType:     "filter_images",
		HasImage:           true,
	},
	KindStone: {
		MetafieldNamespace: "custom",
		MetafieldKey:       "stone_type",
		ChoiceField:        "stone_type",
		MetaobjectType:     "filter_images",
		HasImage:           true,
	},
	KindStyle: {
		MetafieldNamespace: "custom",
		MetafieldKey:       "style",
		ChoiceField:        "style",
		MetaobjectType:     "filter_images",
		HasImage:           true,
	},
	KindGroup: {
		MetafieldNamespace: "custom",
		MetafieldKey:       "group_name",
		ChoiceField:        "group_name",
		MetaobjectType:     "filter_images",
		HasImage:           false,
	},
}

// Valid reports whether the kind is one of the known dictionaries.
func (k DictionaryKind) Valid() bool {
	_, ok := KindSpecs[k]
	return ok
}
