package vertextable

import (
	"fmt"

	"honnef.co/go/safeish"

	"github.com/meshforge/tilemesh/pkg/geom"
)

// NodeFunc maps a feature to a caller-defined node id, e.g. a tile-tree
// node for batched rendering.
type NodeFunc func(f geom.Feature) (uint32, error)

// PointParams is a point-string primitive: a vertex table plus the
// indices of the vertices to draw as point markers.
type PointParams struct {
	Table    *VertexTable
	Features *PackedFeatureTable
	Indices  []uint32
}

// PolylineParams is a polyline primitive: a vertex table plus one index
// list per connected line string.
type PolylineParams struct {
	Table     *VertexTable
	Features  *PackedFeatureTable
	Polylines [][]uint32
}

// MeshParams is a triangulated surface primitive: a vertex table plus a
// flat triangle index list.
type MeshParams struct {
	Table    *VertexTable
	Features *PackedFeatureTable
	Indices  []uint32
}

// SplitPointParams partitions a point-string primitive by node id. Each
// point follows its vertex; point primitives never span nodes.
func SplitPointParams(p *PointParams, maxTextureSize int, classify NodeFunc) (map[uint32]*PointParams, error) {
	s, err := newSplitter(p.Table, p.Features, maxTextureSize, classify)
	if err != nil {
		return nil, err
	}
	out := make(map[uint32]*PointParams, len(s.nodeOrder))
	for _, node := range s.nodeOrder {
		table, features, err := s.build(node)
		if err != nil {
			return nil, err
		}
		out[node] = &PointParams{Table: table, Features: features}
	}
	for _, idx := range p.Indices {
		if err := s.checkIndex(idx); err != nil {
			return nil, err
		}
		node := s.nodeOf[idx]
		out[node].Indices = append(out[node].Indices, s.localOf[idx])
	}
	return out, nil
}

// SplitPolylineParams partitions a polyline primitive by node id. A
// polyline whose vertices classify to different nodes is invalid input.
func SplitPolylineParams(p *PolylineParams, maxTextureSize int, classify NodeFunc) (map[uint32]*PolylineParams, error) {
	s, err := newSplitter(p.Table, p.Features, maxTextureSize, classify)
	if err != nil {
		return nil, err
	}
	out := make(map[uint32]*PolylineParams, len(s.nodeOrder))
	for _, node := range s.nodeOrder {
		table, features, err := s.build(node)
		if err != nil {
			return nil, err
		}
		out[node] = &PolylineParams{Table: table, Features: features}
	}
	for i, line := range p.Polylines {
		if len(line) == 0 {
			continue
		}
		var node uint32
		remapped := make([]uint32, len(line))
		for j, idx := range line {
			if err := s.checkIndex(idx); err != nil {
				return nil, err
			}
			if j == 0 {
				node = s.nodeOf[idx]
			} else if s.nodeOf[idx] != node {
				return nil, fmt.Errorf("%w: polyline %d spans nodes %d and %d", geom.ErrInvalidArgument, i, node, s.nodeOf[idx])
			}
			remapped[j] = s.localOf[idx]
		}
		out[node].Polylines = append(out[node].Polylines, remapped)
	}
	return out, nil
}

// SplitMeshParams partitions a surface primitive by node id. A triangle
// whose corners classify to different nodes is invalid input.
func SplitMeshParams(p *MeshParams, maxTextureSize int, classify NodeFunc) (map[uint32]*MeshParams, error) {
	if len(p.Indices)%3 != 0 {
		return nil, fmt.Errorf("%w: index count %d is not a multiple of 3", geom.ErrInvalidArgument, len(p.Indices))
	}
	s, err := newSplitter(p.Table, p.Features, maxTextureSize, classify)
	if err != nil {
		return nil, err
	}
	out := make(map[uint32]*MeshParams, len(s.nodeOrder))
	for _, node := range s.nodeOrder {
		table, features, err := s.build(node)
		if err != nil {
			return nil, err
		}
		out[node] = &MeshParams{Table: table, Features: features}
	}
	for t := 0; t*3 < len(p.Indices); t++ {
		i0, i1, i2 := p.Indices[t*3], p.Indices[t*3+1], p.Indices[t*3+2]
		for _, idx := range []uint32{i0, i1, i2} {
			if err := s.checkIndex(idx); err != nil {
				return nil, err
			}
		}
		node := s.nodeOf[i0]
		if s.nodeOf[i1] != node || s.nodeOf[i2] != node {
			return nil, fmt.Errorf("%w: triangle %d spans nodes", geom.ErrInvalidArgument, t)
		}
		out[node].Indices = append(out[node].Indices, s.localOf[i0], s.localOf[i1], s.localOf[i2])
	}
	return out, nil
}

// splitter carries the shared vertex partition: a stable redistribution
// of source vertices into per-node accumulators, with per-node color
// and feature compaction. One splitter per call; never reused.
type splitter struct {
	src            *VertexTable
	features       *PackedFeatureTable
	maxTextureSize int

	nodeOrder []uint32
	nodes     map[uint32]*nodeAccum

	// Per source vertex: owning node and local index within it.
	nodeOf  []uint32
	localOf []uint32
}

type nodeAccum struct {
	verts []uint32 // source indices in arrival order

	colors     []geom.Color
	colorIndex map[geom.Color]uint16

	features     *geom.FeatureTable
	featureLocal map[uint32]uint32 // source feature index -> local
}

// newSplitter classifies every source vertex once, in index order, so
// output content never depends on map iteration order.
func newSplitter(src *VertexTable, features *PackedFeatureTable, maxTextureSize int, classify NodeFunc) (*splitter, error) {
	if classify == nil {
		return nil, fmt.Errorf("%w: nil classifier", geom.ErrInvalidArgument)
	}
	s := &splitter{
		src:            src,
		features:       features,
		maxTextureSize: maxTextureSize,
		nodes:          make(map[uint32]*nodeAccum),
		nodeOf:         make([]uint32, src.NumVertices),
		localOf:        make([]uint32, src.NumVertices),
	}
	for i := 0; i < src.NumVertices; i++ {
		fi := s.featureIndexOf(i)
		f, ok := features.Feature(fi)
		if !ok {
			return nil, fmt.Errorf("%w: vertex %d references feature %d outside the feature table", geom.ErrInvalidArgument, i, fi)
		}
		node, err := classify(f)
		if err != nil {
			return nil, fmt.Errorf("classify feature %d: %w", fi, err)
		}

		acc, ok := s.nodes[node]
		if !ok {
			acc = &nodeAccum{
				colorIndex:   make(map[geom.Color]uint16),
				features:     geom.NewFeatureTable(),
				featureLocal: make(map[uint32]uint32),
			}
			s.nodes[node] = acc
			s.nodeOrder = append(s.nodeOrder, node)
		}

		s.nodeOf[i] = node
		s.localOf[i] = uint32(len(acc.verts))
		acc.verts = append(acc.verts, uint32(i))

		c := s.src.ColorAt(i)
		if _, seen := acc.colorIndex[c]; !seen {
			acc.colorIndex[c] = uint16(len(acc.colors))
			acc.colors = append(acc.colors, c)
		}
		if _, seen := acc.featureLocal[fi]; !seen {
			local, err := acc.features.FindOrInsert(f)
			if err != nil {
				return nil, err
			}
			acc.featureLocal[fi] = local
		}
	}
	return s, nil
}

func (s *splitter) checkIndex(idx uint32) error {
	if int(idx) >= s.src.NumVertices {
		return fmt.Errorf("%w: index %d out of range (%d vertices)", geom.ErrInvalidArgument, idx, s.src.NumVertices)
	}
	return nil
}

// featureIndexOf resolves a source vertex's feature index through the
// table's uniform id or its per-vertex field.
func (s *splitter) featureIndexOf(i int) uint32 {
	if s.src.FeatureIndex.Kind == FeatureIndexUniform {
		return s.src.FeatureIndex.ID
	}
	return s.src.FeatureIndexAt(i)
}

// build assembles one node's output table and compacted feature table.
// Quantization parameters carry over unchanged so positions stay
// bit-exact; only color and feature index fields are rewritten.
func (s *splitter) build(node uint32) (*VertexTable, *PackedFeatureTable, error) {
	acc := s.nodes[node]
	src := s.src

	t := &VertexTable{
		NumVertices:      len(acc.verts),
		NumRGBAPerVertex: src.NumRGBAPerVertex,
		QParams:          src.QParams,
		UVQParams:        src.UVQParams,
		HasNormals:       src.HasNormals,
		HasUVs:           src.HasUVs,
	}

	uniform := len(acc.colors) == 1
	var colorWords int
	if uniform {
		c := acc.colors[0]
		t.UniformColor = &c
		t.NumColors = 1
	} else {
		t.NumColors = len(acc.colors)
		colorWords = len(acc.colors)
	}

	switch {
	case src.FeatureIndex.Kind == FeatureIndexEmpty:
		t.FeatureIndex = FeatureIndex{Kind: FeatureIndexEmpty}
	case acc.features.Len() == 1:
		t.FeatureIndex = FeatureIndex{Kind: FeatureIndexUniform, ID: 0}
	default:
		t.FeatureIndex = FeatureIndex{Kind: FeatureIndexNonUniform}
	}

	words := make([]uint32, len(acc.verts)*t.NumRGBAPerVertex, len(acc.verts)*t.NumRGBAPerVertex+colorWords)
	for local, srcIdx := range acc.verts {
		i := int(srcIdx)
		var colorIndex uint16
		if !uniform {
			colorIndex = acc.colorIndex[src.ColorAt(i)]
		}
		var feature uint32
		if t.FeatureIndex.Kind != FeatureIndexEmpty {
			feature = acc.featureLocal[s.featureIndexOf(i)]
		}

		srcRow := src.row(i)
		w := words[local*t.NumRGBAPerVertex:]
		q := src.Position(i)
		w[wordPosXY] = packXY(q.X, q.Y)
		w[wordPosZColor] = packZColor(q.Z, colorIndex)
		w[wordFeatureFlags] = packFeatureFlags(feature, src.FlagsAt(i))
		for extra := baseWordsPerVertex; extra < t.NumRGBAPerVertex; extra++ {
			w[extra] = srcRow[extra]
		}
	}
	if !uniform {
		for _, c := range acc.colors {
			words = append(words, uint32(c))
		}
	}

	if err := t.shape(len(words), s.maxTextureSize); err != nil {
		return nil, nil, err
	}
	grid := make([]uint32, t.Width*t.Height)
	copy(grid, words)
	t.Data = safeish.SliceCast[[]byte](grid)

	packed, err := PackFeatureTable(acc.features)
	if err != nil {
		return nil, nil, err
	}
	return t, packed, nil
}
