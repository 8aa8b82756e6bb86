// Package tilemesh converts raw polygon and stroke geometry into
// packed, texture-shaped vertex tables for tile rendering, and can
// re-partition built tables by an external per-feature node
// classification.
//
// A Pipeline drives one batch end to end: BuildMeshes clusters a
// geometry list into mergeable meshes, PackMeshes packs each mesh into
// a renderable primitive, and SplitPrimitive redistributes a primitive
// across classifier nodes. One Pipeline per batch; instances are not
// shared across goroutines.
package tilemesh

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/meshforge/tilemesh/pkg/classify"
	"github.com/meshforge/tilemesh/pkg/geom"
	"github.com/meshforge/tilemesh/pkg/meshbuild"
	"github.com/meshforge/tilemesh/pkg/vertextable"
)

// Primitive is one renderable unit: a packed vertex table plus the
// index structures for its primitive type and the feature table its
// rows reference.
type Primitive struct {
	Type   meshbuild.PrimitiveType
	Params *geom.DisplayParams

	Table    *vertextable.VertexTable
	Features *vertextable.PackedFeatureTable

	// Indices is the triangle list for surfaces and the point index
	// list for point strings. Polylines is set for polylines instead.
	Indices   []uint32
	Polylines [][]uint32
}

// Pipeline is a single-batch conversion driver.
type Pipeline struct {
	opts     Options
	log      *zap.Logger
	features *geom.FeatureTable
}

// NewPipeline validates opts and creates a pipeline. A nil logger
// disables logging.
func NewPipeline(opts Options, logger *zap.Logger) (*Pipeline, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		opts:     opts,
		log:      logger,
		features: geom.NewFeatureTable(),
	}, nil
}

// Options returns the pipeline's options.
func (p *Pipeline) Options() Options { return p.opts }

// FeatureTable returns the batch feature table, shared by every mesh
// and primitive the pipeline produces.
func (p *Pipeline) FeatureTable() *geom.FeatureTable { return p.features }

// BuildMeshes clusters a geometry list into mergeable meshes. Feature
// indices accumulate in the pipeline's feature table across calls.
func (p *Pipeline) BuildMeshes(list geom.GeometryList) (meshbuild.MeshList, error) {
	m, err := meshbuild.BuildFromGeometries(list, meshbuild.Options{
		Tolerance:     p.opts.Tolerance,
		Is2D:          p.opts.Is2D,
		SurfacesOnly:  p.opts.SurfacesOnly,
		PreserveOrder: p.opts.PreserveOrder,
		Features:      p.features,
	})
	if err != nil {
		return nil, err
	}
	meshes := m.Meshes()
	p.log.Debug("built meshes",
		zap.Int("geometries", len(list)),
		zap.Int("meshes", len(meshes)),
		zap.Int("features", p.features.Len()))
	return meshes, nil
}

// PackMeshes packs each mesh into a primitive. All primitives share
// one packed copy of the pipeline's feature table.
func (p *Pipeline) PackMeshes(meshes meshbuild.MeshList) ([]Primitive, error) {
	packed, err := vertextable.PackFeatureTable(p.features)
	if err != nil {
		return nil, err
	}

	prims := make([]Primitive, 0, len(meshes))
	for i, m := range meshes {
		table, err := vertextable.Pack(&vertextable.Source{
			Points:       m.Points,
			Range:        m.Range,
			Normals:      m.Normals,
			UVs:          m.UVParams,
			Colors:       m.Colors.Colors(),
			ColorIndices: m.ColorIndices,
			Features:     m.FeatureIndices,
		}, p.opts.MaxTextureSize)
		if err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}

		prim := Primitive{
			Type:     m.Type,
			Params:   m.Params,
			Table:    table,
			Features: packed,
		}
		switch m.Type {
		case meshbuild.TypeSurface:
			prim.Indices = m.Triangles
		case meshbuild.TypePolyline:
			prim.Polylines = m.Polylines
		case meshbuild.TypePoint:
			for _, list := range m.Polylines {
				prim.Indices = append(prim.Indices, list...)
			}
		}
		prims = append(prims, prim)

		p.log.Debug("packed mesh",
			zap.Stringer("type", m.Type),
			zap.Int("vertices", table.NumVertices),
			zap.Int("width", table.Width),
			zap.Int("height", table.Height))
	}
	return prims, nil
}

// SplitPrimitive re-partitions a primitive by node id using the given
// classifier. Each output primitive is self-contained: its table's
// color and feature indices reference only its own compacted tables.
func (p *Pipeline) SplitPrimitive(prim *Primitive, fn classify.Func) (map[uint32]*Primitive, error) {
	out := make(map[uint32]*Primitive)
	node := vertextable.NodeFunc(fn)

	switch prim.Type {
	case meshbuild.TypeSurface:
		parts, err := vertextable.SplitMeshParams(&vertextable.MeshParams{
			Table:    prim.Table,
			Features: prim.Features,
			Indices:  prim.Indices,
		}, p.opts.MaxTextureSize, node)
		if err != nil {
			return nil, err
		}
		for id, part := range parts {
			out[id] = &Primitive{
				Type:     prim.Type,
				Params:   prim.Params,
				Table:    part.Table,
				Features: part.Features,
				Indices:  part.Indices,
			}
		}

	case meshbuild.TypePolyline:
		parts, err := vertextable.SplitPolylineParams(&vertextable.PolylineParams{
			Table:     prim.Table,
			Features:  prim.Features,
			Polylines: prim.Polylines,
		}, p.opts.MaxTextureSize, node)
		if err != nil {
			return nil, err
		}
		for id, part := range parts {
			out[id] = &Primitive{
				Type:      prim.Type,
				Params:    prim.Params,
				Table:     part.Table,
				Features:  part.Features,
				Polylines: part.Polylines,
			}
		}

	case meshbuild.TypePoint:
		parts, err := vertextable.SplitPointParams(&vertextable.PointParams{
			Table:    prim.Table,
			Features: prim.Features,
			Indices:  prim.Indices,
		}, p.opts.MaxTextureSize, node)
		if err != nil {
			return nil, err
		}
		for id, part := range parts {
			out[id] = &Primitive{
				Type:     prim.Type,
				Params:   prim.Params,
				Table:    part.Table,
				Features: part.Features,
				Indices:  part.Indices,
			}
		}

	default:
		return nil, fmt.Errorf("%w: unknown primitive type %d", geom.ErrInvalidArgument, prim.Type)
	}

	p.log.Debug("split primitive",
		zap.Stringer("type", prim.Type),
		zap.Int("nodes", len(out)))
	return out, nil
}
