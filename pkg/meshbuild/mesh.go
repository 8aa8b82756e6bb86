package meshbuild

import (
	"fmt"

	"github.com/meshforge/tilemesh/pkg/geom"
)

// MaxColors is the number of distinct colors one mesh can reference;
// per-vertex color indices occupy 16 bits of a vertex table row.
const MaxColors = 1 << 16

// ColorMap assigns 16-bit indices to colors in first-appearance order.
type ColorMap struct {
	colors []geom.Color
	index  map[geom.Color]uint16
}

// NewColorMap returns an empty color map.
func NewColorMap() *ColorMap {
	return &ColorMap{index: make(map[geom.Color]uint16)}
}

// FindOrInsert returns the index of c, inserting it if absent. Growing
// past MaxColors fails with ErrUnsupportedInput.
func (m *ColorMap) FindOrInsert(c geom.Color) (uint16, error) {
	if i, ok := m.index[c]; ok {
		return i, nil
	}
	if len(m.colors) >= MaxColors {
		return 0, fmt.Errorf("%w: color table full (%d colors)", geom.ErrUnsupportedInput, MaxColors)
	}
	i := uint16(len(m.colors))
	m.colors = append(m.colors, c)
	m.index[c] = i
	return i, nil
}

// IsUniform reports whether the map holds exactly one color.
func (m *ColorMap) IsUniform() bool {
	return len(m.colors) == 1
}

// Len returns the number of distinct colors.
func (m *ColorMap) Len() int {
	return len(m.colors)
}

// Colors returns the colors in index order. The slice is shared;
// callers must not modify it.
func (m *ColorMap) Colors() []geom.Color {
	return m.colors
}

// Mesh is one completed cluster of mergeable geometry: deduplicated
// vertex data plus the index structures for its primitive type. Meshes
// are produced by BuilderMap.Meshes and are read-only from then on.
type Mesh struct {
	Type     PrimitiveType
	Params   *geom.DisplayParams
	IsPlanar bool
	Is2D     bool

	// Per-vertex data, parallel slices. Normals and UVParams are empty
	// or hold one entry per point.
	Points         []geom.Point3
	Normals        []geom.Point3
	UVParams       []geom.Point2
	ColorIndices   []uint16
	FeatureIndices []uint32

	// Colors maps color indices to packed RGBA values.
	Colors *ColorMap

	// Triangles is the facet index list, three per facet. Surface only.
	Triangles []uint32

	// Polylines holds one vertex index list per line string (or per
	// point string for TypePoint).
	Polylines [][]uint32

	// Range bounds the mesh's points in world space and anchors its
	// quantization parameters.
	Range geom.Range3
}

// VertexCount returns the number of deduplicated vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Points)
}

// IsEmpty reports whether the mesh holds no vertices.
func (m *Mesh) IsEmpty() bool {
	return len(m.Points) == 0
}

// UniformFeature returns the single feature index shared by every
// vertex, if there is one.
func (m *Mesh) UniformFeature() (uint32, bool) {
	if len(m.FeatureIndices) == 0 {
		return 0, false
	}
	first := m.FeatureIndices[0]
	for _, f := range m.FeatureIndices[1:] {
		if f != first {
			return 0, false
		}
	}
	return first, true
}

// MeshList is the ordered output of a BuilderMap, one mesh per distinct
// builder key in key order.
type MeshList []*Mesh
