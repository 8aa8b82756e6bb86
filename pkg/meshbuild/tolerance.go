// Package meshbuild clusters raw geometry into renderable meshes. A
// BuilderMap groups geometry by a merge key (display params, primitive
// type, planarity, normals), accumulates each group in a MeshBuilder
// that dedupes vertices within tolerance, and flattens into an ordered
// MeshList ready for vertex table packing.
package meshbuild

import (
	"fmt"

	"github.com/meshforge/tilemesh/pkg/geom"
)

// Ratios applied to the master chord tolerance. They are calibrated so
// coincident-within-tolerance vertices merge while visually distinct
// detail does not collapse.
const (
	VertexToleranceRatio    = 0.1
	FacetAreaToleranceRatio = 0.1
)

// Tolerance carries the chord tolerance supplied by the caller and the
// tolerances derived from it.
type Tolerance struct {
	// Chord is the world-unit chord tolerance geometry is produced at.
	Chord float64
	// Vertex is the distance below which two vertices are merged.
	Vertex float64
	// FacetArea is the area below which a facet is discarded as sliver.
	FacetArea float64
}

// NewTolerance derives vertex and facet-area tolerances from a chord
// tolerance. A zero or negative chord tolerance degenerates clustering
// and is rejected with ErrInvalidArgument.
func NewTolerance(chord float64) (Tolerance, error) {
	if chord <= 0 {
		return Tolerance{}, fmt.Errorf("%w: chord tolerance must be positive, got %g", geom.ErrInvalidArgument, chord)
	}
	return Tolerance{
		Chord:     chord,
		Vertex:    chord * VertexToleranceRatio,
		FacetArea: chord * FacetAreaToleranceRatio,
	}, nil
}
