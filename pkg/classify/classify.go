// Package classify provides node classifiers for vertex table
// splitting: plain Go functions for common batching rules, and a
// sandboxed Lisp classifier for caller-supplied rules.
package classify

import (
	"github.com/meshforge/tilemesh/pkg/geom"
)

// Func maps a feature to a node id. It is the plain-Go adapter for the
// splitter's classifier input.
type Func func(f geom.Feature) (uint32, error)

// ByElementHighBits groups features by element id with the low bits
// masked off, so ranges of 2^bits consecutive element ids share a node.
func ByElementHighBits(bits uint) Func {
	return func(f geom.Feature) (uint32, error) {
		return uint32(f.ElementID >> bits), nil
	}
}

// BySubCategory assigns one node per distinct subcategory, numbering
// nodes densely in first-appearance order. The returned Func carries
// state and must not be shared across concurrent splits.
func BySubCategory() Func {
	nodes := make(map[uint64]uint32)
	return func(f geom.Feature) (uint32, error) {
		if n, ok := nodes[f.SubCategoryID]; ok {
			return n, nil
		}
		n := uint32(len(nodes))
		nodes[f.SubCategoryID] = n
		return n, nil
	}
}
