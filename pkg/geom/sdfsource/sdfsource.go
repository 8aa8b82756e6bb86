// Package sdfsource produces tile geometry from signed distance fields
// using the github.com/deadsy/sdfx CAD library. Solids tessellate on
// demand at the pipeline's chord tolerance via marching cubes.
package sdfsource

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/meshforge/tilemesh/pkg/geom"
)

// Compile-time interface check.
var _ geom.Geometry = (*Solid)(nil)

// Marching cubes resolution bounds. The cell count is derived from the
// chord tolerance but kept within these limits.
const (
	minMeshCells = 16
	maxMeshCells = 200
)

// Solid is an SDF-backed geometry source. It tessellates lazily, so the
// same solid can feed batches built at different tolerances.
type Solid struct {
	s       sdf.SDF3
	params  *geom.DisplayParams
	feature geom.Feature
}

// Box creates an axis-aligned box with its minimum corner at the
// origin. sdf.Box3D centers the box, so the solid is shifted by half
// its dimensions.
func Box(x, y, z float64, params *geom.DisplayParams, feature geom.Feature) (*Solid, error) {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: box %gx%gx%g: %v", geom.ErrInvalidArgument, x, y, z, err)
	}
	m := sdf.Translate3d(v3.Vec{X: x / 2, Y: y / 2, Z: z / 2})
	return &Solid{s: sdf.Transform3D(s, m), params: params, feature: feature}, nil
}

// Cylinder creates a cylinder of the given height and radius centered
// at the origin.
func Cylinder(height, radius float64, params *geom.DisplayParams, feature geom.Feature) (*Solid, error) {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: cylinder h=%g r=%g: %v", geom.ErrInvalidArgument, height, radius, err)
	}
	return &Solid{s: s, params: params, feature: feature}, nil
}

// Union combines this solid with another. Display params and feature
// carry over from the receiver.
func (s *Solid) Union(o *Solid) *Solid {
	return s.derive(sdf.Union3D(s.s, o.s))
}

// Difference subtracts o from this solid.
func (s *Solid) Difference(o *Solid) *Solid {
	return s.derive(sdf.Difference3D(s.s, o.s))
}

// Intersect keeps the volume common to both solids.
func (s *Solid) Intersect(o *Solid) *Solid {
	return s.derive(sdf.Intersect3D(s.s, o.s))
}

// Translate moves the solid by (x, y, z).
func (s *Solid) Translate(x, y, z float64) *Solid {
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return s.derive(sdf.Transform3D(s.s, m))
}

// Rotate rotates the solid by Euler angles in degrees around the X, Y,
// and Z axes, applied in that order.
func (s *Solid) Rotate(x, y, z float64) *Solid {
	const degToRad = math.Pi / 180
	m := sdf.RotateZ(z * degToRad).Mul(sdf.RotateY(y * degToRad)).Mul(sdf.RotateX(x * degToRad))
	return s.derive(sdf.Transform3D(s.s, m))
}

func (s *Solid) derive(next sdf.SDF3) *Solid {
	return &Solid{s: next, params: s.params, feature: s.feature}
}

// DisplayParams returns the solid's display params.
func (s *Solid) DisplayParams() *geom.DisplayParams { return s.params }

// Feature returns the solid's feature.
func (s *Solid) Feature() geom.Feature { return s.feature }

// Range returns the solid's axis-aligned bounds.
func (s *Solid) Range() geom.Range3 {
	bb := s.s.BoundingBox()
	r := geom.NullRange3()
	r.ExtendPoint(geom.Point3{X: bb.Min.X, Y: bb.Min.Y, Z: bb.Min.Z})
	r.ExtendPoint(geom.Point3{X: bb.Max.X, Y: bb.Max.Y, Z: bb.Max.Z})
	return r
}

// Polyfaces tessellates the solid with marching cubes. The cell count
// scales with the bounds-to-tolerance ratio so finer tolerances yield
// finer meshes. Each triangle carries its face normal on all three
// corners; vertex dedup downstream welds shared corners.
func (s *Solid) Polyfaces(tolerance float64) []*geom.Polyface {
	cells := meshCells(s.Range().MaxDim(), tolerance)
	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(s.s, renderer)
	if len(triangles) == 0 {
		return nil
	}

	pf := &geom.Polyface{
		Params:  s.params,
		Points:  make([]geom.Point3, 0, len(triangles)*3),
		Normals: make([]geom.Point3, 0, len(triangles)*3),
		Indices: make([]uint32, 0, len(triangles)*3),
	}
	for i, tri := range triangles {
		n := tri.Normal()
		normal := geom.Point3{X: n.X, Y: n.Y, Z: n.Z}
		for j := 0; j < 3; j++ {
			v := tri[j]
			pf.Points = append(pf.Points, geom.Point3{X: v.X, Y: v.Y, Z: v.Z})
			pf.Normals = append(pf.Normals, normal)
			pf.Indices = append(pf.Indices, uint32(i*3+j))
		}
	}
	return []*geom.Polyface{pf}
}

// Strokes returns nil; solids produce surface geometry only.
func (s *Solid) Strokes(tolerance float64) []*geom.Strokes { return nil }

func meshCells(maxDim, tolerance float64) int {
	if tolerance <= 0 || maxDim <= 0 {
		return minMeshCells
	}
	return geom.Clamp(int(math.Ceil(maxDim/tolerance)), minMeshCells, maxMeshCells)
}
