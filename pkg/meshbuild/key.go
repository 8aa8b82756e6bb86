package meshbuild

import (
	"cmp"

	"github.com/meshforge/tilemesh/pkg/geom"
)

// PrimitiveType is the closed set of primitive kinds a mesh can hold.
type PrimitiveType uint8

const (
	// TypeSurface is a triangulated surface.
	TypeSurface PrimitiveType = iota
	// TypePolyline is a set of connected line strings.
	TypePolyline
	// TypePoint is a set of disjoint point markers.
	TypePoint
)

// String returns a human-readable name for the primitive type.
func (t PrimitiveType) String() string {
	switch t {
	case TypeSurface:
		return "surface"
	case TypePolyline:
		return "polyline"
	case TypePoint:
		return "point"
	default:
		return "unknown"
	}
}

// BuilderKey routes geometry into mesh builders. Two geometries with
// equal keys are mergeable into one output mesh without visual
// difference; two geometries with different keys must not share a mesh.
// Equality is purely semantic: display params compare by value via
// CompareForMerge, never by reference identity.
type BuilderKey struct {
	Type       PrimitiveType
	IsPlanar   bool
	HasNormals bool
	Params     *geom.DisplayParams

	// order is a per-map sequence stamped at first insertion when the
	// map preserves encounter order. It is part of the sort position,
	// never part of equality.
	order uint32
}

// Compare defines the semantic total order over keys: primitive type,
// then planarity, then normals, then display params merge order. It is
// transitive and consistent; a zero result means the keys route to the
// same builder.
func (k BuilderKey) Compare(o BuilderKey) int {
	if c := cmp.Compare(k.Type, o.Type); c != 0 {
		return c
	}
	if c := compareBool(k.IsPlanar, o.IsPlanar); c != 0 {
		return c
	}
	if c := compareBool(k.HasNormals, o.HasNormals); c != 0 {
		return c
	}
	return k.Params.CompareForMerge(o.Params)
}

func compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

// lookupKey is the comparable projection of a BuilderKey used for
// idempotent builder lookup.
type lookupKey struct {
	typ            PrimitiveType
	isPlanar       bool
	hasNormals     bool
	fillColor      geom.Color
	lineColor      geom.Color
	width          uint32
	linePixels     uint32
	ignoreLighting bool
	hasMaterial    bool
	material       string
	hasTexture     bool
	texture        string
}

func makeLookupKey(k BuilderKey) lookupKey {
	lk := lookupKey{
		typ:        k.Type,
		isPlanar:   k.IsPlanar,
		hasNormals: k.HasNormals,
	}
	if p := k.Params; p != nil {
		lk.fillColor = p.FillColor
		lk.lineColor = p.LineColor
		lk.width = p.Width
		lk.linePixels = p.LinePixels
		lk.ignoreLighting = p.IgnoreLighting
		if p.Material != nil {
			lk.hasMaterial = true
			lk.material = p.Material.Name
			if p.Material.Texture != nil {
				lk.hasTexture = true
				lk.texture = p.Material.Texture.Name
			}
		}
	}
	return lk
}
