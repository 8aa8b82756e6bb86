package vertextable

import (
	"fmt"

	"honnef.co/go/safeish"

	"github.com/meshforge/tilemesh/pkg/geom"
)

// FeatureIndexKind describes how a table encodes feature membership.
type FeatureIndexKind uint8

const (
	// FeatureIndexEmpty means the table carries no feature data.
	FeatureIndexEmpty FeatureIndexKind = iota
	// FeatureIndexUniform means every vertex belongs to one feature.
	FeatureIndexUniform
	// FeatureIndexNonUniform means each vertex carries its own feature
	// index in its row.
	FeatureIndexNonUniform
)

// FeatureIndex is a table's feature encoding. ID is meaningful only
// when Kind is FeatureIndexUniform.
type FeatureIndex struct {
	Kind FeatureIndexKind
	ID   uint32
}

// VertexTable is a packed, rectangular vertex buffer shaped as a
// Width x Height grid of RGBA texels (one texel per 32-bit word).
// Vertex rows come first; when the table is not uniformly colored the
// color table follows them, and the remainder of the grid is zero
// padding. The table exclusively owns Data.
type VertexTable struct {
	Data             []byte
	NumVertices      int
	NumRGBAPerVertex int
	Width            int
	Height           int

	QParams   geom.QParams3
	UVQParams *geom.QParams2

	// UniformColor is set when every vertex shares one color; the
	// color table is elided and every color index field is zero.
	// Consumers must check it before assuming a color table exists.
	UniformColor *geom.Color
	NumColors    int

	FeatureIndex FeatureIndex
	HasNormals   bool
	HasUVs       bool
}

// Source is the unpacked per-vertex data a table is built from. All
// per-vertex slices must either be empty or match len(Points).
type Source struct {
	Points []geom.Point3
	Range  geom.Range3

	Normals []geom.Point3
	UVs     []geom.Point2

	// Colors is the color table in first-appearance order;
	// ColorIndices references it per vertex. A single-entry Colors
	// with empty ColorIndices is a uniformly colored source.
	Colors       []geom.Color
	ColorIndices []uint16

	// Features holds per-vertex feature indices. Empty means the
	// source carries no feature data.
	Features []uint32

	Flags []uint8
}

// Pack builds a vertex table from src. The grid must fit within
// maxTextureSize in both dimensions or Pack fails with
// ErrUnsupportedInput. A zero-vertex source yields a valid empty table
// with any color table elided.
func Pack(src *Source, maxTextureSize int) (*VertexTable, error) {
	n := len(src.Points)
	if err := checkParallel("normals", len(src.Normals), n); err != nil {
		return nil, err
	}
	if err := checkParallel("uv params", len(src.UVs), n); err != nil {
		return nil, err
	}
	if err := checkParallel("flags", len(src.Flags), n); err != nil {
		return nil, err
	}
	if err := checkParallel("feature indices", len(src.Features), n); err != nil {
		return nil, err
	}
	if len(src.Colors) > 1 {
		if err := checkParallel("color indices", len(src.ColorIndices), n); err != nil {
			return nil, err
		}
	}
	if len(src.Colors) > MaxColorIndex+1 {
		return nil, fmt.Errorf("%w: %d colors exceed the 16-bit index space", geom.ErrUnsupportedInput, len(src.Colors))
	}
	for i, f := range src.Features {
		if f > featureIndexMask {
			return nil, fmt.Errorf("%w: feature index %d at vertex %d exceeds %d bits", geom.ErrUnsupportedInput, f, i, FeatureIndexBits)
		}
	}
	for i, ci := range src.ColorIndices {
		if int(ci) >= len(src.Colors) {
			return nil, fmt.Errorf("%w: color index %d at vertex %d out of range", geom.ErrInvalidArgument, ci, i)
		}
	}

	t := &VertexTable{
		NumVertices:  n,
		QParams:      geom.QParams3FromRange(src.Range),
		HasNormals:   len(src.Normals) > 0,
		HasUVs:       len(src.UVs) > 0,
		FeatureIndex: classifyFeatureEncoding(src.Features),
	}
	t.NumRGBAPerVertex = baseWordsPerVertex
	if t.HasNormals {
		t.NumRGBAPerVertex++
	}
	if t.HasUVs {
		t.NumRGBAPerVertex++
	}

	// A zero-vertex source keeps no color table; nothing references it.
	uniform := n == 0 || len(src.Colors) <= 1
	var colorWords int
	if uniform {
		var c geom.Color
		if len(src.Colors) > 0 {
			c = src.Colors[0]
		}
		t.UniformColor = &c
		t.NumColors = 1
	} else {
		t.NumColors = len(src.Colors)
		colorWords = len(src.Colors)
	}

	var uvq geom.QParams2
	if t.HasUVs {
		minX, minY, maxX, maxY := uvBounds(src.UVs)
		uvq = geom.QParams2FromRange(minX, minY, maxX, maxY)
		t.UVQParams = &uvq
	}

	words := make([]uint32, n*t.NumRGBAPerVertex, n*t.NumRGBAPerVertex+colorWords)
	for i, p := range src.Points {
		q := t.QParams.Quantize(p)
		var colorIndex uint16
		if !uniform {
			colorIndex = src.ColorIndices[i]
		}
		var feature uint32
		if len(src.Features) > 0 {
			feature = src.Features[i]
		}
		var flags uint8
		if len(src.Flags) > 0 {
			flags = src.Flags[i]
		}

		w := words[i*t.NumRGBAPerVertex:]
		w[wordPosXY] = packXY(q.X, q.Y)
		w[wordPosZColor] = packZColor(q.Z, colorIndex)
		w[wordFeatureFlags] = packFeatureFlags(feature, flags)
		next := baseWordsPerVertex
		if t.HasNormals {
			w[next] = uint32(geom.OctEncodeNormal(src.Normals[i]))
			next++
		}
		if t.HasUVs {
			w[next] = packUV(uvq.Quantize(src.UVs[i]))
		}
	}
	if !uniform {
		for _, c := range src.Colors {
			words = append(words, uint32(c))
		}
	}

	if err := t.shape(len(words), maxTextureSize); err != nil {
		return nil, err
	}
	grid := make([]uint32, t.Width*t.Height)
	copy(grid, words)
	t.Data = safeish.SliceCast[[]byte](grid)
	return t, nil
}

// MaxColorIndex is the largest color-table index a row can carry.
const MaxColorIndex = 0xffff

func checkParallel(what string, got, want int) error {
	if got != 0 && got != want {
		return fmt.Errorf("%w: %d %s for %d vertices", geom.ErrInvalidArgument, got, what, want)
	}
	return nil
}

func classifyFeatureEncoding(features []uint32) FeatureIndex {
	if len(features) == 0 {
		return FeatureIndex{Kind: FeatureIndexEmpty}
	}
	first := features[0]
	for _, f := range features[1:] {
		if f != first {
			return FeatureIndex{Kind: FeatureIndexNonUniform}
		}
	}
	return FeatureIndex{Kind: FeatureIndexUniform, ID: first}
}

func uvBounds(uvs []geom.Point2) (minX, minY, maxX, maxY float64) {
	minX, minY = uvs[0].X, uvs[0].Y
	maxX, maxY = minX, minY
	for _, p := range uvs[1:] {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}
	return minX, minY, maxX, maxY
}

// shape chooses Width and Height so that every vertex row is intact
// within one grid row and the grid stays within maxTextureSize on both
// axes. totalWords covers vertex rows plus any appended color table.
func (t *VertexTable) shape(totalWords, maxTextureSize int) error {
	if maxTextureSize < t.NumRGBAPerVertex {
		return fmt.Errorf("%w: table too large: stride %d exceeds max texture size %d", geom.ErrUnsupportedInput, t.NumRGBAPerVertex, maxTextureSize)
	}
	if totalWords == 0 {
		t.Width, t.Height = 0, 0
		return nil
	}

	rowVerts := min(t.NumVertices, maxTextureSize/t.NumRGBAPerVertex)
	t.Width = rowVerts * t.NumRGBAPerVertex
	t.Height = (totalWords + t.Width - 1) / t.Width
	if t.Height > maxTextureSize {
		return fmt.Errorf("%w: table too large: %d words exceed %dx%d texels", geom.ErrUnsupportedInput, totalWords, maxTextureSize, maxTextureSize)
	}
	return nil
}

func (t *VertexTable) words() []uint32 {
	return safeish.SliceCast[[]uint32](t.Data)
}

func (t *VertexTable) row(i int) []uint32 {
	start := i * t.NumRGBAPerVertex
	return t.words()[start : start+t.NumRGBAPerVertex]
}

// Position returns vertex i's quantized position.
func (t *VertexTable) Position(i int) geom.QPoint3 {
	w := t.row(i)
	x, y := unpackXY(w[wordPosXY])
	z, _ := unpackZColor(w[wordPosZColor])
	return geom.QPoint3{X: x, Y: y, Z: z}
}

// ColorIndexAt returns vertex i's color-table index. Always zero for a
// uniformly colored table.
func (t *VertexTable) ColorIndexAt(i int) uint16 {
	_, ci := unpackZColor(t.row(i)[wordPosZColor])
	return ci
}

// ColorAt resolves vertex i's color through the uniform color or the
// appended color table.
func (t *VertexTable) ColorAt(i int) geom.Color {
	if t.UniformColor != nil {
		return *t.UniformColor
	}
	return t.ColorTable()[t.ColorIndexAt(i)]
}

// FeatureIndexAt returns vertex i's feature index field.
func (t *VertexTable) FeatureIndexAt(i int) uint32 {
	fi, _ := unpackFeatureFlags(t.row(i)[wordFeatureFlags])
	return fi
}

// FlagsAt returns vertex i's flags byte.
func (t *VertexTable) FlagsAt(i int) uint8 {
	_, flags := unpackFeatureFlags(t.row(i)[wordFeatureFlags])
	return flags
}

// NormalAt returns vertex i's oct-encoded normal. ok is false when the
// table carries no normals.
func (t *VertexTable) NormalAt(i int) (enc uint16, ok bool) {
	if !t.HasNormals {
		return 0, false
	}
	return uint16(t.row(i)[baseWordsPerVertex]), true
}

// UVAt returns vertex i's quantized UV parameter. ok is false when the
// table carries no UVs.
func (t *VertexTable) UVAt(i int) (geom.QPoint2, bool) {
	if !t.HasUVs {
		return geom.QPoint2{}, false
	}
	off := baseWordsPerVertex
	if t.HasNormals {
		off++
	}
	return unpackUV(t.row(i)[off]), true
}

// ColorTable returns the appended color table, or nil for a uniformly
// colored table.
func (t *VertexTable) ColorTable() []geom.Color {
	if t.UniformColor != nil {
		return nil
	}
	start := t.NumVertices * t.NumRGBAPerVertex
	words := t.words()[start : start+t.NumColors]
	colors := make([]geom.Color, len(words))
	for i, w := range words {
		colors[i] = geom.Color(w)
	}
	return colors
}
