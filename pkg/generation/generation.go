// Package generation classifies appliances into firmware generations and
// tracks which DOP2 leaves each appliance is known to expose.
//
// Different generations publish the same concepts (program catalog, option
// lists) under different leaf addresses with different binary layouts, so
// callers must know the generation before picking a schema family.
package generation

// Generation is an appliance firmware family. It determines which leaf
// address family and binary schema apply.
type Generation int

// Generation constants.
const (
	// Unknown means no probe has succeeded yet. Many operations can still
	// proceed by falling back across families.
	Unknown Generation = iota

	// Legacy covers older firmware exposing catalogs under unit 14.
	Legacy

	// Current covers modern firmware exposing catalogs under unit 2.
	Current

	// SemiPro covers semi-professional appliances with unit 3 extensions.
	SemiPro
)

// String returns a human-readable name for the generation.
func (g Generation) String() string {
	switch g {
	case Legacy:
		return "Legacy"
	case Current:
		return "Current"
	case SemiPro:
		return "SemiPro"
	default:
		return "Unknown"
	}
}

// Leaf identifies a DOP2 leaf by unit and attribute for availability
// tracking. Index parameters select sub-instances and do not affect
// availability, so they are not part of the key.
type Leaf struct {
	Unit      int
	Attribute int
}

// FamilyOf returns the generation family a leaf address belongs to.
// Unit 14 hosts the legacy catalog leaves, unit 3 the semi-professional
// extensions; everything else is the current family.
func FamilyOf(leaf Leaf) Generation {
	switch leaf.Unit {
	case 14:
		return Legacy
	case 3:
		return SemiPro
	default:
		return Current
	}
}

// Representative probe leaves, one per family.
var (
	// ProbeCurrent is the combined-state leaf present on modern firmware.
	ProbeCurrent = Leaf{Unit: 2, Attribute: 256}

	// ProbeLegacy is the legacy program-list leaf.
	ProbeLegacy = Leaf{Unit: 14, Attribute: 1570}

	// ProbeSemiPro is the semi-professional configuration leaf.
	ProbeSemiPro = Leaf{Unit: 3, Attribute: 1000}
)
