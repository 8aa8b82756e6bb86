package geom

import "fmt"

// Polyface is an indexed triangulated surface produced by tessellating
// one piece of geometry at a chord tolerance. Point, normal, UV, and
// index arrays are append-only during construction and treated as
// immutable once handed to the mesh builder.
type Polyface struct {
	Params   *DisplayParams
	Points   []Point3
	Normals  []Point3 // empty, or one per point
	UVParams []Point2 // empty, or one per point
	Indices  []uint32 // triangle list, three per facet
	IsPlanar bool
}

// PointCount returns the number of points. A zero-point polyface is
// degenerate but valid; the builder map silently skips it.
func (p *Polyface) PointCount() int { return len(p.Points) }

// HasNormals reports whether per-vertex normals are present.
func (p *Polyface) HasNormals() bool { return len(p.Normals) > 0 }

// HasUVParams reports whether per-vertex UV parameters are present.
func (p *Polyface) HasUVParams() bool { return len(p.UVParams) > 0 }

// TriangleCount returns the number of facets.
func (p *Polyface) TriangleCount() int { return len(p.Indices) / 3 }

// Range returns the bounding box of the polyface's points.
func (p *Polyface) Range() Range3 {
	r := NullRange3()
	for _, pt := range p.Points {
		r.ExtendPoint(pt)
	}
	return r
}

// Validate checks structural well-formedness: attribute arrays must
// match the point count and indices must reference existing points.
// Violations wrap ErrInvalidArgument.
func (p *Polyface) Validate() error {
	if p.Params == nil {
		return fmt.Errorf("%w: polyface has no display params", ErrInvalidArgument)
	}
	n := len(p.Points)
	if len(p.Normals) != 0 && len(p.Normals) != n {
		return fmt.Errorf("%w: %d normals for %d points", ErrInvalidArgument, len(p.Normals), n)
	}
	if len(p.UVParams) != 0 && len(p.UVParams) != n {
		return fmt.Errorf("%w: %d uv params for %d points", ErrInvalidArgument, len(p.UVParams), n)
	}
	if len(p.Indices)%3 != 0 {
		return fmt.Errorf("%w: index count %d is not a multiple of 3", ErrInvalidArgument, len(p.Indices))
	}
	for _, i := range p.Indices {
		if int(i) >= n {
			return fmt.Errorf("%w: index %d out of range (%d points)", ErrInvalidArgument, i, n)
		}
	}
	return nil
}

// Strokes is a set of point lists produced by stroking curve geometry at
// a chord tolerance: either connected polylines, or disjoint point
// markers when IsDisjoint is set.
type Strokes struct {
	Params     *DisplayParams
	PointLists [][]Point3
	IsDisjoint bool
	IsPlanar   bool
}

// Range returns the bounding box of all point lists.
func (s *Strokes) Range() Range3 {
	r := NullRange3()
	for _, list := range s.PointLists {
		for _, pt := range list {
			r.ExtendPoint(pt)
		}
	}
	return r
}

// Validate checks structural well-formedness. Empty point lists are
// degenerate but valid.
func (s *Strokes) Validate() error {
	if s.Params == nil {
		return fmt.Errorf("%w: strokes have no display params", ErrInvalidArgument)
	}
	return nil
}

// Geometry is one renderable primitive from the upstream geometry
// engine. Implementations produce zero or more polyfaces and zero or
// more stroke sets at a caller-given chord tolerance; production must be
// a pure function of the tolerance, callable repeatedly with no side
// effects. The mesh builder borrows geometry and never mutates it.
type Geometry interface {
	// DisplayParams returns the visual attributes for this geometry.
	DisplayParams() *DisplayParams

	// Feature identifies the source element of this geometry.
	Feature() Feature

	// Range returns the bounding box of the geometry.
	Range() Range3

	// Polyfaces tessellates surface geometry at the given tolerance.
	Polyfaces(tolerance float64) []*Polyface

	// Strokes strokes curve geometry at the given tolerance.
	Strokes(tolerance float64) []*Strokes
}

// GeometryList is an ordered sequence of geometry, borrowed (not owned)
// by the mesh builder.
type GeometryList []Geometry

// Range returns the union of the bounding boxes of all entries.
func (l GeometryList) Range() Range3 {
	r := NullRange3()
	for _, g := range l {
		r.ExtendRange(g.Range())
	}
	return r
}

// PolyfaceGeometry adapts pre-tessellated polyfaces to the Geometry
// contract for callers whose tessellation happens elsewhere. The stored
// polyfaces are returned at every tolerance.
type PolyfaceGeometry struct {
	polyfaces []*Polyface
	params    *DisplayParams
	feature   Feature
}

// NewPolyfaceGeometry wraps pre-built polyfaces. All polyfaces share
// the given display params.
func NewPolyfaceGeometry(polyfaces []*Polyface, params *DisplayParams, feature Feature) *PolyfaceGeometry {
	for _, p := range polyfaces {
		p.Params = params
	}
	return &PolyfaceGeometry{polyfaces: polyfaces, params: params, feature: feature}
}

func (g *PolyfaceGeometry) DisplayParams() *DisplayParams { return g.params }
func (g *PolyfaceGeometry) Feature() Feature              { return g.feature }

func (g *PolyfaceGeometry) Range() Range3 {
	r := NullRange3()
	for _, p := range g.polyfaces {
		r.ExtendRange(p.Range())
	}
	return r
}

func (g *PolyfaceGeometry) Polyfaces(tolerance float64) []*Polyface { return g.polyfaces }
func (g *PolyfaceGeometry) Strokes(tolerance float64) []*Strokes    { return nil }

// StrokesGeometry adapts pre-stroked point lists to the Geometry
// contract.
type StrokesGeometry struct {
	strokes []*Strokes
	params  *DisplayParams
	feature Feature
}

// NewStrokesGeometry wraps pre-built stroke sets. All strokes share the
// given display params.
func NewStrokesGeometry(strokes []*Strokes, params *DisplayParams, feature Feature) *StrokesGeometry {
	for _, s := range strokes {
		s.Params = params
	}
	return &StrokesGeometry{strokes: strokes, params: params, feature: feature}
}

func (g *StrokesGeometry) DisplayParams() *DisplayParams { return g.params }
func (g *StrokesGeometry) Feature() Feature              { return g.feature }

func (g *StrokesGeometry) Range() Range3 {
	r := NullRange3()
	for _, s := range g.strokes {
		r.ExtendRange(s.Range())
	}
	return r
}

func (g *StrokesGeometry) Polyfaces(tolerance float64) []*Polyface { return nil }
func (g *StrokesGeometry) Strokes(tolerance float64) []*Strokes    { return g.strokes }
