package vertextable

import (
	"fmt"

	"honnef.co/go/safeish"

	"github.com/meshforge/tilemesh/pkg/geom"
)

// Words per feature record: element id low word, element id high word,
// then subcategory index (low 24 bits) with the geometry class in the
// high byte.
const wordsPerFeature = 3

// PackedFeatureTable is the binary form of a geom.FeatureTable: three
// 32-bit words per feature plus a deduplicated subcategory id list.
// Vertex rows reference features by index into this table.
type PackedFeatureTable struct {
	words         []uint32
	subCategories []uint64
}

// PackFeatureTable converts a feature table into its packed binary
// form. Fails with ErrUnsupportedInput when the distinct subcategory
// count exceeds the 24-bit index space.
func PackFeatureTable(t *geom.FeatureTable) (*PackedFeatureTable, error) {
	features := t.Features()
	p := &PackedFeatureTable{
		words: make([]uint32, 0, len(features)*wordsPerFeature),
	}
	subIndex := make(map[uint64]uint32)
	for _, f := range features {
		si, ok := subIndex[f.SubCategoryID]
		if !ok {
			if len(p.subCategories) > featureIndexMask {
				return nil, fmt.Errorf("%w: %d subcategories exceed %d bits", geom.ErrUnsupportedInput, len(p.subCategories)+1, FeatureIndexBits)
			}
			si = uint32(len(p.subCategories))
			p.subCategories = append(p.subCategories, f.SubCategoryID)
			subIndex[f.SubCategoryID] = si
		}
		p.words = append(p.words,
			uint32(f.ElementID),
			uint32(f.ElementID>>32),
			si&featureIndexMask|uint32(f.Class)<<flagsShift,
		)
	}
	return p, nil
}

// Len returns the number of packed features.
func (p *PackedFeatureTable) Len() int {
	return len(p.words) / wordsPerFeature
}

// Feature unpacks the feature at index i. ok is false when i is out of
// range.
func (p *PackedFeatureTable) Feature(i uint32) (geom.Feature, bool) {
	if int(i) >= p.Len() {
		return geom.Feature{}, false
	}
	w := p.words[i*wordsPerFeature:]
	return geom.Feature{
		ElementID:     uint64(w[0]) | uint64(w[1])<<32,
		SubCategoryID: p.subCategories[w[2]&featureIndexMask],
		Class:         geom.GeometryClass(w[2] >> flagsShift),
	}, true
}

// SubCategories returns the deduplicated subcategory id list in
// first-appearance order.
func (p *PackedFeatureTable) SubCategories() []uint64 {
	return p.subCategories
}

// Data returns the packed feature records as bytes.
func (p *PackedFeatureTable) Data() []byte {
	return safeish.SliceCast[[]byte](p.words)
}
