package geom

import "fmt"

// GeometryClass distinguishes the rendering role of a feature's
// geometry, affecting symbology overrides and pick behavior downstream.
type GeometryClass uint8

const (
	ClassPrimary GeometryClass = iota
	ClassConstruction
	ClassDimension
	ClassPattern
)

// Feature identifies the database element and subcategory a piece of
// geometry came from. Features are what picking and per-element
// symbology resolve against; the pipeline treats them as opaque indices
// into a FeatureTable.
type Feature struct {
	ElementID     uint64
	SubCategoryID uint64
	Class         GeometryClass
}

// MaxFeatures is the number of distinct features one table can hold;
// per-vertex feature indices occupy 24 bits of a vertex table row.
const MaxFeatures = 1 << 24

// FeatureTable assigns small contiguous indices to features in first-
// insertion order. It is read-only input to splitting and is never
// mutated by the mesh pipeline once built.
type FeatureTable struct {
	features []Feature
	index    map[Feature]uint32
}

// NewFeatureTable returns an empty feature table.
func NewFeatureTable() *FeatureTable {
	return &FeatureTable{index: make(map[Feature]uint32)}
}

// FindOrInsert returns the index of f, inserting it if absent. Growing
// past MaxFeatures fails with ErrUnsupportedInput.
func (t *FeatureTable) FindOrInsert(f Feature) (uint32, error) {
	if i, ok := t.index[f]; ok {
		return i, nil
	}
	if len(t.features) >= MaxFeatures {
		return 0, fmt.Errorf("%w: feature table full (%d features)", ErrUnsupportedInput, MaxFeatures)
	}
	i := uint32(len(t.features))
	t.features = append(t.features, f)
	t.index[f] = i
	return i, nil
}

// Feature returns the feature at index i.
func (t *FeatureTable) Feature(i uint32) (Feature, bool) {
	if int(i) >= len(t.features) {
		return Feature{}, false
	}
	return t.features[i], true
}

// Len returns the number of features in the table.
func (t *FeatureTable) Len() int {
	return len(t.features)
}

// Features returns the features in index order. The slice is shared;
// callers must not modify it.
func (t *FeatureTable) Features() []Feature {
	return t.features
}
