package meshbuild

import (
	"fmt"
	"slices"

	"github.com/meshforge/tilemesh/pkg/geom"
)

// Options configures one clustering pass. The zero value is not usable;
// Tolerance must be positive.
type Options struct {
	// Tolerance is the world-unit chord tolerance geometry is produced
	// at. Must be positive.
	Tolerance float64

	// Range bounds the geometry batch. When null it is computed from
	// the geometry list.
	Range geom.Range3

	// Is2D marks the batch as planar 2D content.
	Is2D bool

	// SurfacesOnly skips stroke production entirely.
	SurfacesOnly bool

	// PreserveOrder stamps each new builder key with a strictly
	// increasing sequence number that becomes the primary sort field,
	// making output mesh order match input encounter order across
	// repeated runs.
	PreserveOrder bool

	// Features assigns feature indices to geometry. When nil the map
	// owns a private table.
	Features *geom.FeatureTable
}

// BuilderMap is the clustering engine: an ordered collection of mesh
// builders keyed by BuilderKey. It is exclusively owned by the calling
// goroutine; concurrent batches need one map each. After an error the
// map is indeterminate and must be discarded.
type BuilderMap struct {
	tolerance     Tolerance
	batchRange    geom.Range3
	is2d          bool
	surfacesOnly  bool
	preserveOrder bool
	features      *geom.FeatureTable

	entries   []*MeshBuilder
	keys      []BuilderKey // parallel to entries, sorted
	lookup    map[lookupKey]*MeshBuilder
	nextOrder uint32
}

// NewBuilderMap creates an empty map for one batch. Most callers use
// BuildFromGeometries instead.
func NewBuilderMap(tolerance Tolerance, batchRange geom.Range3, opts Options) *BuilderMap {
	features := opts.Features
	if features == nil {
		features = geom.NewFeatureTable()
	}
	return &BuilderMap{
		tolerance:     tolerance,
		batchRange:    batchRange,
		is2d:          opts.Is2D,
		surfacesOnly:  opts.SurfacesOnly,
		preserveOrder: opts.PreserveOrder,
		features:      features,
		lookup:        make(map[lookupKey]*MeshBuilder),
	}
}

// BuildFromGeometries clusters a geometry list in a single pass: each
// geometry's polyfaces, and strokes unless SurfacesOnly, are produced
// at the chord tolerance and dispatched into the builder for their key. An empty list yields an empty map.
func BuildFromGeometries(list geom.GeometryList, opts Options) (*BuilderMap, error) {
	tolerance, err := NewTolerance(opts.Tolerance)
	if err != nil {
		return nil, err
	}

	batchRange := opts.Range
	if batchRange.IsNull() {
		batchRange = list.Range()
	}

	m := NewBuilderMap(tolerance, batchRange, opts)
	for i, g := range list {
		if g == nil {
			return nil, fmt.Errorf("%w: geometry %d is nil", geom.ErrInvalidArgument, i)
		}
		if err := m.addGeometry(g); err != nil {
			return nil, fmt.Errorf("geometry %d: %w", i, err)
		}
	}
	return m, nil
}

func (m *BuilderMap) addGeometry(g geom.Geometry) error {
	// The batch feature table grows only once a primitive survives.
	var (
		feature     uint32
		haveFeature bool
	)
	featureIndex := func() (uint32, error) {
		if haveFeature {
			return feature, nil
		}
		fi, err := m.features.FindOrInsert(g.Feature())
		if err != nil {
			return 0, err
		}
		feature, haveFeature = fi, true
		return fi, nil
	}

	for _, pf := range g.Polyfaces(m.tolerance.Chord) {
		if pf.PointCount() == 0 {
			// Degenerate, silently dropped.
			continue
		}
		if err := pf.Validate(); err != nil {
			return err
		}
		key := BuilderKey{
			Type:       TypeSurface,
			IsPlanar:   pf.IsPlanar,
			HasNormals: pf.HasNormals(),
			Params:     pf.Params,
		}
		fi, err := featureIndex()
		if err != nil {
			return err
		}
		if err := m.getBuilder(key).AddPolyface(pf, fi); err != nil {
			return err
		}
	}

	if m.surfacesOnly {
		return nil
	}

	for _, s := range g.Strokes(m.tolerance.Chord) {
		if len(s.PointLists) == 0 {
			continue
		}
		if err := s.Validate(); err != nil {
			return err
		}
		typ := TypePolyline
		if s.IsDisjoint {
			typ = TypePoint
		}
		key := BuilderKey{
			Type:     typ,
			IsPlanar: s.IsPlanar,
			Params:   s.Params,
		}
		fi, err := featureIndex()
		if err != nil {
			return err
		}
		if err := m.getBuilder(key).AddStrokes(s, fi); err != nil {
			return err
		}
	}
	return nil
}

// getBuilder returns the builder for key, creating it on first use.
// Repeated lookups with an equal key return the same builder instance.
func (m *BuilderMap) getBuilder(key BuilderKey) *MeshBuilder {
	lk := makeLookupKey(key)
	if b, ok := m.lookup[lk]; ok {
		return b
	}

	b := newMeshBuilder(key, m.tolerance, m.is2d)
	if m.preserveOrder {
		// Encounter order is the primary sort field, so new keys
		// always append.
		key.order = m.nextOrder
		m.nextOrder++
		m.keys = append(m.keys, key)
		m.entries = append(m.entries, b)
	} else {
		at, _ := slices.BinarySearchFunc(m.keys, key, BuilderKey.Compare)
		m.keys = slices.Insert(m.keys, at, key)
		m.entries = slices.Insert(m.entries, at, b)
	}
	m.lookup[lk] = b
	return b
}

// Len returns the number of distinct builders.
func (m *BuilderMap) Len() int {
	return len(m.entries)
}

// Range returns the bounding box of the batch.
func (m *BuilderMap) Range() geom.Range3 {
	return m.batchRange
}

// Features returns the feature table indexed by the meshes' vertex
// feature indices.
func (m *BuilderMap) Features() *geom.FeatureTable {
	return m.features
}

// Meshes flattens the builders into a MeshList in key order: encounter
// order when PreserveOrder was set, semantic key order otherwise.
// Builders that accumulated no vertices are dropped. The meshes are
// read-only from here on.
func (m *BuilderMap) Meshes() MeshList {
	meshes := make(MeshList, 0, len(m.entries))
	for _, b := range m.entries {
		mesh := b.Mesh()
		if mesh.IsEmpty() {
			continue
		}
		meshes = append(meshes, mesh)
	}
	return meshes
}
