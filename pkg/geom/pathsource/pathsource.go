// Package pathsource produces tile geometry from 2D vector paths using
// honnef.co/go/curve. Paths flatten into polyline strokes on the z=0
// plane at the pipeline's chord tolerance.
package pathsource

import (
	"honnef.co/go/curve"

	"github.com/meshforge/tilemesh/pkg/geom"
)

// Compile-time interface checks.
var (
	_ geom.Geometry = (*Path)(nil)
	_ geom.Geometry = (*Markers)(nil)
)

// Path flattens a 2D shape into connected line strings. Flattening is
// lazy, so one path can feed batches built at different tolerances.
type Path struct {
	shape   curve.Shape
	params  *geom.DisplayParams
	feature geom.Feature
	closed  bool
}

// FromShape wraps any curve shape. closed forces each subpath's last
// point back onto its first, for outlines without an explicit close.
func FromShape(shape curve.Shape, params *geom.DisplayParams, feature geom.Feature, closed bool) *Path {
	return &Path{shape: shape, params: params, feature: feature, closed: closed}
}

// Rect builds a closed rectangle outline path.
func Rect(x0, y0, x1, y1 float64, params *geom.DisplayParams, feature geom.Feature) *Path {
	return FromShape(curve.Rect{X0: x0, Y0: y0, X1: x1, Y1: y1}, params, feature, true)
}

// DisplayParams returns the path's display params.
func (p *Path) DisplayParams() *geom.DisplayParams { return p.params }

// Feature returns the path's feature.
func (p *Path) Feature() geom.Feature { return p.feature }

// Range returns the path's bounds on the z=0 plane.
func (p *Path) Range() geom.Range3 {
	bb := p.shape.BoundingBox()
	r := geom.NullRange3()
	r.ExtendPoint(geom.Point3{X: bb.X0, Y: bb.Y0})
	r.ExtendPoint(geom.Point3{X: bb.X1, Y: bb.Y1})
	return r
}

// Polyfaces returns nil; paths produce line geometry only.
func (p *Path) Polyfaces(tolerance float64) []*geom.Polyface { return nil }

// Strokes flattens the path at the given tolerance. Each MoveTo starts
// a new line string; curved segments arrive as line sequences within
// the flattening tolerance.
func (p *Path) Strokes(tolerance float64) []*geom.Strokes {
	var lists [][]geom.Point3
	var cur []geom.Point3

	flush := func() {
		if len(cur) >= 2 {
			lists = append(lists, cur)
		}
		cur = nil
	}

	for el := range curve.Flatten(p.shape.PathElements(tolerance), tolerance) {
		switch el.Kind {
		case curve.MoveToKind:
			flush()
			cur = []geom.Point3{planar(el.P0)}
		case curve.LineToKind:
			cur = append(cur, planar(el.P0))
		case curve.ClosePathKind:
			if p.closed && len(cur) >= 2 && cur[0] != cur[len(cur)-1] {
				cur = append(cur, cur[0])
			}
			flush()
		}
	}
	flush()

	if len(lists) == 0 {
		return nil
	}
	return []*geom.Strokes{{
		Params:     p.params,
		PointLists: lists,
		IsPlanar:   true,
	}}
}

// Markers is a set of disjoint 2D point markers on the z=0 plane.
type Markers struct {
	points  []geom.Point2
	params  *geom.DisplayParams
	feature geom.Feature
}

// NewMarkers wraps a point set.
func NewMarkers(points []geom.Point2, params *geom.DisplayParams, feature geom.Feature) *Markers {
	return &Markers{points: points, params: params, feature: feature}
}

// DisplayParams returns the markers' display params.
func (m *Markers) DisplayParams() *geom.DisplayParams { return m.params }

// Feature returns the markers' feature.
func (m *Markers) Feature() geom.Feature { return m.feature }

// Range returns the markers' bounds on the z=0 plane.
func (m *Markers) Range() geom.Range3 {
	r := geom.NullRange3()
	for _, p := range m.points {
		r.ExtendPoint(geom.Point3{X: p.X, Y: p.Y})
	}
	return r
}

// Polyfaces returns nil; markers produce point geometry only.
func (m *Markers) Polyfaces(tolerance float64) []*geom.Polyface { return nil }

// Strokes returns the markers as one disjoint point list.
func (m *Markers) Strokes(tolerance float64) []*geom.Strokes {
	if len(m.points) == 0 {
		return nil
	}
	pts := make([]geom.Point3, len(m.points))
	for i, p := range m.points {
		pts[i] = geom.Point3{X: p.X, Y: p.Y}
	}
	return []*geom.Strokes{{
		Params:     m.params,
		PointLists: [][]geom.Point3{pts},
		IsDisjoint: true,
		IsPlanar:   true,
	}}
}

func planar(p curve.Point) geom.Point3 {
	return geom.Point3{X: p.X, Y: p.Y}
}
