package meshbuild

import (
	"math"

	"github.com/meshforge/tilemesh/pkg/geom"
)

// uvBinScale bins UV parameters for vertex dedup. UVs live in a unit-
// scale domain, so a fixed bin is adequate where positions need the
// tolerance-derived bin.
const uvBinScale = 1 << 14

// vertexKey identifies a deduplicated vertex: position binned by the
// vertex tolerance plus the exact remaining attributes. Two vertices
// with equal keys collapse into one table entry.
type vertexKey struct {
	px, py, pz int64
	normal     uint16
	hasNormal  bool
	u, v       int32
	hasUV      bool
	color      uint16
	feature    uint32
}

// MeshBuilder accumulates triangle, polyline, and point data for a
// single builder key, deduplicating vertices within tolerance. It is
// created lazily by the BuilderMap on the first geometry matching its
// key and mutated by every subsequent match.
type MeshBuilder struct {
	mesh      *Mesh
	tolerance Tolerance
	vertices  map[vertexKey]uint32
}

func newMeshBuilder(key BuilderKey, tolerance Tolerance, is2d bool) *MeshBuilder {
	return &MeshBuilder{
		mesh: &Mesh{
			Type:     key.Type,
			Params:   key.Params,
			IsPlanar: key.IsPlanar,
			Is2D:     is2d,
			Colors:   NewColorMap(),
			Range:    geom.NullRange3(),
		},
		tolerance: tolerance,
		vertices:  make(map[vertexKey]uint32),
	}
}

// addVertex returns the index of the deduplicated vertex for the given
// attributes, appending a new one on first sight.
func (b *MeshBuilder) addVertex(pos geom.Point3, normal *geom.Point3, uv *geom.Point2, color uint16, feature uint32) uint32 {
	key := vertexKey{
		px:      binCoord(pos.X, b.tolerance.Vertex),
		py:      binCoord(pos.Y, b.tolerance.Vertex),
		pz:      binCoord(pos.Z, b.tolerance.Vertex),
		color:   color,
		feature: feature,
	}
	if normal != nil {
		key.hasNormal = true
		key.normal = geom.OctEncodeNormal(*normal)
	}
	if uv != nil {
		key.hasUV = true
		key.u = int32(math.Round(uv.X * uvBinScale))
		key.v = int32(math.Round(uv.Y * uvBinScale))
	}

	if i, ok := b.vertices[key]; ok {
		return i
	}

	m := b.mesh
	i := uint32(len(m.Points))
	m.Points = append(m.Points, pos)
	if normal != nil {
		m.Normals = append(m.Normals, *normal)
	}
	if uv != nil {
		m.UVParams = append(m.UVParams, *uv)
	}
	m.ColorIndices = append(m.ColorIndices, color)
	m.FeatureIndices = append(m.FeatureIndices, feature)
	m.Range.ExtendPoint(pos)
	b.vertices[key] = i
	return i
}

func binCoord(v, tolerance float64) int64 {
	return int64(math.Round(v / tolerance))
}

// AddPolyface appends a polyface's facets to the builder, deduplicating
// vertices and discarding slivers below the facet-area tolerance.
// Facets that collapse to fewer than three distinct vertices after
// dedup are dropped.
func (b *MeshBuilder) AddPolyface(pf *geom.Polyface, feature uint32) error {
	color, err := b.mesh.Colors.FindOrInsert(pf.Params.FillColor)
	if err != nil {
		return err
	}

	// Textured params imply UV storage for the whole builder, so a
	// polyface missing UVs contributes zero parameters rather than
	// desyncing the parallel slices.
	textured := pf.Params.IsTextured()

	for t := 0; t+2 < len(pf.Indices); t += 3 {
		i0, i1, i2 := pf.Indices[t], pf.Indices[t+1], pf.Indices[t+2]
		p0, p1, p2 := pf.Points[i0], pf.Points[i1], pf.Points[i2]

		if triangleArea(p0, p1, p2) < b.tolerance.FacetArea {
			continue
		}

		var indices [3]uint32
		for j, src := range [3]uint32{i0, i1, i2} {
			var normal *geom.Point3
			if pf.HasNormals() {
				normal = &pf.Normals[src]
			}
			var uv *geom.Point2
			if textured {
				if pf.HasUVParams() {
					uv = &pf.UVParams[src]
				} else {
					uv = &geom.Point2{}
				}
			}
			indices[j] = b.addVertex(pf.Points[src], normal, uv, color, feature)
		}

		if indices[0] == indices[1] || indices[1] == indices[2] || indices[0] == indices[2] {
			continue
		}
		b.mesh.Triangles = append(b.mesh.Triangles, indices[0], indices[1], indices[2])
	}
	return nil
}

func triangleArea(p0, p1, p2 geom.Point3) float64 {
	return 0.5 * p1.Sub(p0).Cross(p2.Sub(p0)).Length()
}

// AddStrokes appends stroke point lists to the builder with the
// primitive's fill color. Each list becomes one polyline (or point
// string) entry; empty lists are skipped.
func (b *MeshBuilder) AddStrokes(s *geom.Strokes, feature uint32) error {
	color, err := b.mesh.Colors.FindOrInsert(s.Params.FillColor)
	if err != nil {
		return err
	}

	for _, list := range s.PointLists {
		if len(list) == 0 {
			continue
		}
		indices := make([]uint32, 0, len(list))
		for _, pt := range list {
			indices = append(indices, b.addVertex(pt, nil, nil, color, feature))
		}
		b.mesh.Polylines = append(b.mesh.Polylines, indices)
	}
	return nil
}

// Mesh returns the accumulated mesh. Called by the map when
// flattening; the mesh must be treated as read-only afterwards.
func (b *MeshBuilder) Mesh() *Mesh {
	return b.mesh
}
