package meshbuild_test

import (
	"errors"
	"testing"

	"github.com/meshforge/tilemesh/pkg/geom"
	"github.com/meshforge/tilemesh/pkg/meshbuild"
)

var (
	red  = geom.ColorFromRGBA(255, 0, 0, 255)
	blue = geom.ColorFromRGBA(0, 0, 255, 255)
)

// makeQuad builds a unit quad polyface at the given z offset.
func makeQuad(params *geom.DisplayParams, z float64, withNormals bool) *geom.Polyface {
	pf := &geom.Polyface{
		Params: params,
		Points: []geom.Point3{
			{X: 0, Y: 0, Z: z},
			{X: 1, Y: 0, Z: z},
			{X: 1, Y: 1, Z: z},
			{X: 0, Y: 1, Z: z},
		},
		Indices:  []uint32{0, 1, 2, 0, 2, 3},
		IsPlanar: true,
	}
	if withNormals {
		up := geom.Point3{Z: 1}
		pf.Normals = []geom.Point3{up, up, up, up}
	}
	return pf
}

func surfaceGeometry(params *geom.DisplayParams, z float64, withNormals bool) geom.Geometry {
	return geom.NewPolyfaceGeometry([]*geom.Polyface{makeQuad(params, z, withNormals)}, params, geom.Feature{ElementID: 1})
}

func lineGeometry(params *geom.DisplayParams, disjoint bool) geom.Geometry {
	s := &geom.Strokes{
		Params: params,
		PointLists: [][]geom.Point3{
			{{X: 0, Y: 0, Z: 0}, {X: 5, Y: 0, Z: 0}, {X: 5, Y: 5, Z: 0}},
		},
		IsDisjoint: disjoint,
		IsPlanar:   true,
	}
	return geom.NewStrokesGeometry([]*geom.Strokes{s}, params, geom.Feature{ElementID: 2})
}

func build(t *testing.T, list geom.GeometryList, opts meshbuild.Options) meshbuild.MeshList {
	t.Helper()
	if opts.Tolerance == 0 {
		opts.Tolerance = 0.01
	}
	m, err := meshbuild.BuildFromGeometries(list, opts)
	if err != nil {
		t.Fatalf("BuildFromGeometries failed: %v", err)
	}
	return m.Meshes()
}

func TestToleranceDerivation(t *testing.T) {
	tol, err := meshbuild.NewTolerance(2)
	if err != nil {
		t.Fatal(err)
	}
	if tol.Vertex != 2*meshbuild.VertexToleranceRatio {
		t.Errorf("Vertex = %g", tol.Vertex)
	}
	if tol.FacetArea != 2*meshbuild.FacetAreaToleranceRatio {
		t.Errorf("FacetArea = %g", tol.FacetArea)
	}

	for _, bad := range []float64{0, -1} {
		if _, err := meshbuild.NewTolerance(bad); !errors.Is(err, geom.ErrInvalidArgument) {
			t.Errorf("NewTolerance(%g) = %v, want ErrInvalidArgument", bad, err)
		}
	}
}

func TestEmptyGeometryList(t *testing.T) {
	m, err := meshbuild.BuildFromGeometries(nil, meshbuild.Options{Tolerance: 0.01})
	if err != nil {
		t.Fatalf("empty list should not fail: %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("empty list created %d builders", m.Len())
	}
	if meshes := m.Meshes(); len(meshes) != 0 {
		t.Errorf("empty map yielded %d meshes", len(meshes))
	}
}

func TestZeroPointPolyfaceSkipped(t *testing.T) {
	params := geom.NewDisplayParams(red)
	empty := geom.NewPolyfaceGeometry([]*geom.Polyface{{Params: params}}, params, geom.Feature{ElementID: 3})
	emptyStrokes := geom.NewStrokesGeometry([]*geom.Strokes{{Params: params}}, params, geom.Feature{ElementID: 4})

	m, err := meshbuild.BuildFromGeometries(geom.GeometryList{empty, emptyStrokes}, meshbuild.Options{Tolerance: 0.01})
	if err != nil {
		t.Fatal(err)
	}
	if meshes := m.Meshes(); len(meshes) != 0 {
		t.Errorf("degenerate geometry produced %d meshes, want 0", len(meshes))
	}
	if n := m.Features().Len(); n != 0 {
		t.Errorf("degenerate geometry grew the feature table to %d entries, want 0", n)
	}
}

func TestOneMeshPerDistinctKey(t *testing.T) {
	redParams := geom.NewDisplayParams(red)
	blueParams := geom.NewDisplayParams(blue)

	list := geom.GeometryList{
		surfaceGeometry(redParams, 0, true),
		surfaceGeometry(redParams, 1, true),  // same key as above: merges
		surfaceGeometry(blueParams, 0, true), // different params
		surfaceGeometry(redParams, 2, false), // no normals
		lineGeometry(redParams, false),       // polyline
		lineGeometry(redParams, true),        // point string
	}

	meshes := build(t, list, meshbuild.Options{})
	// Distinct keys: (surface,red,normals), (surface,blue,normals),
	// (surface,red,plain), (polyline,red), (point,red).
	if len(meshes) != 5 {
		t.Fatalf("got %d meshes, want 5", len(meshes))
	}

	// The two same-key quads merged into one surface mesh with both
	// quads' facets.
	var merged *meshbuild.Mesh
	for _, m := range meshes {
		if m.Type == meshbuild.TypeSurface && m.Params.FillColor == red && len(m.Normals) > 0 {
			merged = m
		}
	}
	if merged == nil {
		t.Fatal("missing merged red surface mesh")
	}
	if got := len(merged.Triangles) / 3; got != 4 {
		t.Errorf("merged mesh has %d facets, want 4", got)
	}
}

func TestStrokeTypes(t *testing.T) {
	params := geom.NewDisplayParams(red)

	meshes := build(t, geom.GeometryList{lineGeometry(params, false)}, meshbuild.Options{})
	if len(meshes) != 1 || meshes[0].Type != meshbuild.TypePolyline {
		t.Fatalf("connected strokes should build one polyline mesh, got %+v", meshes)
	}
	if len(meshes[0].Polylines) != 1 {
		t.Errorf("polyline count = %d, want 1", len(meshes[0].Polylines))
	}

	meshes = build(t, geom.GeometryList{lineGeometry(params, true)}, meshbuild.Options{})
	if len(meshes) != 1 || meshes[0].Type != meshbuild.TypePoint {
		t.Fatalf("disjoint strokes should build one point mesh, got %+v", meshes)
	}
}

func TestSurfacesOnlySkipsStrokes(t *testing.T) {
	params := geom.NewDisplayParams(red)
	list := geom.GeometryList{
		surfaceGeometry(params, 0, true),
		lineGeometry(params, false),
	}

	meshes := build(t, list, meshbuild.Options{SurfacesOnly: true})
	if len(meshes) != 1 || meshes[0].Type != meshbuild.TypeSurface {
		t.Fatalf("SurfacesOnly should keep only the surface mesh, got %d meshes", len(meshes))
	}
}

func TestPreserveOrderDeterminism(t *testing.T) {
	redParams := geom.NewDisplayParams(red)
	blueParams := geom.NewDisplayParams(blue)

	// Blue before red: encounter order disagrees with semantic key
	// order, making the two modes distinguishable.
	list := geom.GeometryList{
		surfaceGeometry(blueParams, 0, true),
		surfaceGeometry(redParams, 0, true),
		lineGeometry(redParams, false),
	}

	first := build(t, list, meshbuild.Options{PreserveOrder: true})
	second := build(t, list, meshbuild.Options{PreserveOrder: true})

	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("want 3 meshes, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Type != second[i].Type || first[i].Params.FillColor != second[i].Params.FillColor {
			t.Fatalf("mesh order differs between runs at %d", i)
		}
	}

	// Encounter order: blue surface first, then red surface, then the
	// polyline.
	if first[0].Params.FillColor != blue {
		t.Error("preserve-order output should start with the blue surface")
	}
	if first[2].Type != meshbuild.TypePolyline {
		t.Error("preserve-order output should end with the polyline")
	}
}

func TestSemanticOrderWithoutPreserve(t *testing.T) {
	redParams := geom.NewDisplayParams(red)
	blueParams := geom.NewDisplayParams(blue)

	list := geom.GeometryList{
		lineGeometry(redParams, false),
		surfaceGeometry(blueParams, 0, true),
		surfaceGeometry(redParams, 0, true),
	}

	meshes := build(t, list, meshbuild.Options{})
	if len(meshes) != 3 {
		t.Fatalf("want 3 meshes, got %d", len(meshes))
	}
	// Semantic order sorts surfaces before polylines regardless of
	// encounter order.
	if meshes[0].Type != meshbuild.TypeSurface || meshes[2].Type != meshbuild.TypePolyline {
		t.Errorf("semantic order wrong: %v, %v, %v", meshes[0].Type, meshes[1].Type, meshes[2].Type)
	}
}

func TestVertexDedupWithinTolerance(t *testing.T) {
	params := geom.NewDisplayParams(red)
	// Two triangles sharing an edge, with the shared corners offset by
	// far less than the vertex tolerance (0.1 * 1.0).
	const eps = 1e-6
	pf := &geom.Polyface{
		Params: params,
		Points: []geom.Point3{
			{X: 0, Y: 0},
			{X: 10, Y: 0},
			{X: 10, Y: 10},
			{X: 0 + eps, Y: 0 + eps},
			{X: 10 - eps, Y: 10 - eps},
			{X: 0, Y: 10},
		},
		Indices: []uint32{0, 1, 2, 3, 4, 5},
	}
	g := geom.NewPolyfaceGeometry([]*geom.Polyface{pf}, params, geom.Feature{})

	meshes := build(t, geom.GeometryList{g}, meshbuild.Options{Tolerance: 1.0})
	if len(meshes) != 1 {
		t.Fatalf("want 1 mesh, got %d", len(meshes))
	}
	if got := meshes[0].VertexCount(); got != 4 {
		t.Errorf("deduped vertex count = %d, want 4", got)
	}
	if got := len(meshes[0].Triangles) / 3; got != 2 {
		t.Errorf("facet count = %d, want 2", got)
	}
}

func TestSliverFacetDropped(t *testing.T) {
	params := geom.NewDisplayParams(red)
	pf := &geom.Polyface{
		Params: params,
		Points: []geom.Point3{
			{X: 0, Y: 0},
			{X: 10, Y: 0},
			{X: 10, Y: 10},
			// A nearly collinear facet with area far below tolerance.
			{X: 0, Y: 20},
			{X: 10, Y: 20},
			{X: 5, Y: 20.0000001},
		},
		Indices: []uint32{0, 1, 2, 3, 4, 5},
	}
	g := geom.NewPolyfaceGeometry([]*geom.Polyface{pf}, params, geom.Feature{})

	meshes := build(t, geom.GeometryList{g}, meshbuild.Options{Tolerance: 0.1})
	if len(meshes) != 1 {
		t.Fatalf("want 1 mesh, got %d", len(meshes))
	}
	if got := len(meshes[0].Triangles) / 3; got != 1 {
		t.Errorf("facet count = %d, want 1 (sliver dropped)", got)
	}
}

func TestMalformedPolyfaceRejected(t *testing.T) {
	params := geom.NewDisplayParams(red)
	pf := &geom.Polyface{
		Params:  params,
		Points:  []geom.Point3{{}, {X: 1}, {Y: 1}},
		Normals: []geom.Point3{{Z: 1}}, // count mismatch
		Indices: []uint32{0, 1, 2},
	}
	g := geom.NewPolyfaceGeometry([]*geom.Polyface{pf}, params, geom.Feature{})

	_, err := meshbuild.BuildFromGeometries(geom.GeometryList{g}, meshbuild.Options{Tolerance: 0.01})
	if !errors.Is(err, geom.ErrInvalidArgument) {
		t.Errorf("want ErrInvalidArgument, got %v", err)
	}
}

func TestFeatureIndicesAssigned(t *testing.T) {
	params := geom.NewDisplayParams(red)
	ft := geom.NewFeatureTable()

	list := geom.GeometryList{
		geom.NewPolyfaceGeometry([]*geom.Polyface{makeQuad(params, 0, false)}, params, geom.Feature{ElementID: 100}),
		geom.NewPolyfaceGeometry([]*geom.Polyface{makeQuad(params, 1, false)}, params, geom.Feature{ElementID: 200}),
	}

	m, err := meshbuild.BuildFromGeometries(list, meshbuild.Options{Tolerance: 0.01, Features: ft})
	if err != nil {
		t.Fatal(err)
	}
	if ft.Len() != 2 {
		t.Fatalf("feature table has %d entries, want 2", ft.Len())
	}

	meshes := m.Meshes()
	if len(meshes) != 1 {
		t.Fatalf("want 1 merged mesh, got %d", len(meshes))
	}
	if _, uniform := meshes[0].UniformFeature(); uniform {
		t.Error("mesh spanning two features should not report a uniform feature")
	}
}

func TestUniformFeature(t *testing.T) {
	params := geom.NewDisplayParams(red)
	meshes := build(t, geom.GeometryList{surfaceGeometry(params, 0, false)}, meshbuild.Options{})
	if len(meshes) != 1 {
		t.Fatalf("want 1 mesh, got %d", len(meshes))
	}
	id, uniform := meshes[0].UniformFeature()
	if !uniform || id != 0 {
		t.Errorf("UniformFeature = %d, %v; want 0, true", id, uniform)
	}
}

func TestColorMapCapacityAndUniform(t *testing.T) {
	cm := meshbuild.NewColorMap()
	i, err := cm.FindOrInsert(red)
	if err != nil || i != 0 {
		t.Fatalf("first insert = %d, %v", i, err)
	}
	if !cm.IsUniform() {
		t.Error("single-color map should be uniform")
	}
	if j, _ := cm.FindOrInsert(red); j != 0 {
		t.Error("reinsert should return existing index")
	}
	if _, err := cm.FindOrInsert(blue); err != nil {
		t.Fatal(err)
	}
	if cm.IsUniform() {
		t.Error("two-color map should not be uniform")
	}
}
