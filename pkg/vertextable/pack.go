// Package vertextable packs quantized mesh vertices into rectangular
// texture-shaped tables of 32-bit words, and re-partitions built tables
// by an external per-feature node classification.
//
// The word layout is a compatibility contract consumed outside this
// module and must stay byte-exact:
//
//	word 0: quantized x (low 16 bits) | quantized y (high 16 bits)
//	word 1: quantized z (low 16 bits) | color index (high 16 bits)
//	word 2: feature index (low 24 bits) | flags (high 8 bits)
//	word 3: oct-encoded normal (low 16 bits), present when HasNormals
//	word 4: quantized u (low 16 bits) | quantized v (high 16 bits),
//	        present when HasUVs
package vertextable

import "github.com/meshforge/tilemesh/pkg/geom"

// Word offsets within a vertex row.
const (
	wordPosXY        = 0
	wordPosZColor    = 1
	wordFeatureFlags = 2

	baseWordsPerVertex = 3
)

// Bit ranges within wordFeatureFlags.
const (
	FeatureIndexBits = 24
	featureIndexMask = 1<<FeatureIndexBits - 1
	flagsShift       = FeatureIndexBits
)

func packXY(x, y uint16) uint32 {
	return uint32(x) | uint32(y)<<16
}

func unpackXY(w uint32) (x, y uint16) {
	return uint16(w), uint16(w >> 16)
}

func packZColor(z, colorIndex uint16) uint32 {
	return uint32(z) | uint32(colorIndex)<<16
}

func unpackZColor(w uint32) (z, colorIndex uint16) {
	return uint16(w), uint16(w >> 16)
}

func packFeatureFlags(featureIndex uint32, flags uint8) uint32 {
	return featureIndex&featureIndexMask | uint32(flags)<<flagsShift
}

func unpackFeatureFlags(w uint32) (featureIndex uint32, flags uint8) {
	return w & featureIndexMask, uint8(w >> flagsShift)
}

func packUV(p geom.QPoint2) uint32 {
	return uint32(p.X) | uint32(p.Y)<<16
}

func unpackUV(w uint32) geom.QPoint2 {
	return geom.QPoint2{X: uint16(w), Y: uint16(w >> 16)}
}
