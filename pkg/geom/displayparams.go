package geom

import "cmp"

// TextureMapping names a texture resource applied to a surface. The
// resource itself lives in the rendering layer; the pipeline only needs
// a stable identity for merge comparison.
type TextureMapping struct {
	Name string
}

// Material describes the surface material for a set of faces. A nil
// Material means plain shaded color.
type Material struct {
	Name    string
	Texture *TextureMapping
}

// IsTextured reports whether the material carries a texture mapping.
func (m *Material) IsTextured() bool {
	return m != nil && m.Texture != nil
}

// DisplayParams groups the visual attributes shared by one set of faces
// or strokes: colors, line styling, and material. Values are immutable
// once constructed; geometry with equal (by CompareForMerge) params may
// be merged into a single mesh without visual difference.
type DisplayParams struct {
	FillColor      Color
	LineColor      Color
	Width          uint32
	LinePixels     uint32
	Material       *Material
	IgnoreLighting bool
}

// NewDisplayParams returns params with matching fill and line color and
// default line styling.
func NewDisplayParams(fill Color) *DisplayParams {
	return &DisplayParams{FillColor: fill, LineColor: fill}
}

// IsTextured reports whether the params carry a texture mapping.
func (d *DisplayParams) IsTextured() bool {
	return d != nil && d.Material.IsTextured()
}

// CompareForMerge defines a total order over display params. Geometry
// whose params compare equal is mergeable into one mesh; the order is
// otherwise arbitrary but transitive and stable, making it usable as a
// sort key. A nil receiver orders before any non-nil params.
func (d *DisplayParams) CompareForMerge(o *DisplayParams) int {
	if d == o {
		return 0
	}
	if d == nil {
		return -1
	}
	if o == nil {
		return 1
	}
	if c := cmp.Compare(d.FillColor, o.FillColor); c != 0 {
		return c
	}
	if c := cmp.Compare(d.LineColor, o.LineColor); c != 0 {
		return c
	}
	if c := cmp.Compare(d.Width, o.Width); c != 0 {
		return c
	}
	if c := cmp.Compare(d.LinePixels, o.LinePixels); c != 0 {
		return c
	}
	if c := compareBool(d.IgnoreLighting, o.IgnoreLighting); c != 0 {
		return c
	}
	return compareMaterial(d.Material, o.Material)
}

// EqualForMerge reports whether d and o are mergeable.
func (d *DisplayParams) EqualForMerge(o *DisplayParams) bool {
	return d.CompareForMerge(o) == 0
}

func compareMaterial(a, b *Material) int {
	if a == b {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	if c := cmp.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return compareTexture(a.Texture, b.Texture)
}

func compareTexture(a, b *TextureMapping) int {
	if a == b {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	return cmp.Compare(a.Name, b.Name)
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
