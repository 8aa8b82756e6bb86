package geom

// Color is a packed 32-bit RGBA color: red in the low byte, alpha in the
// high byte. The packed value is what the vertex table encoder stores in
// its color table, so the byte order is part of the binary contract.
type Color uint32

// ColorFromRGBA packs the four channels into a Color.
func ColorFromRGBA(r, g, b, a uint8) Color {
	return Color(uint32(r) | uint32(g)<<8 | uint32(b)<<16 | uint32(a)<<24)
}

// R returns the red channel.
func (c Color) R() uint8 { return uint8(c) }

// G returns the green channel.
func (c Color) G() uint8 { return uint8(c >> 8) }

// B returns the blue channel.
func (c Color) B() uint8 { return uint8(c >> 16) }

// A returns the alpha channel.
func (c Color) A() uint8 { return uint8(c >> 24) }
