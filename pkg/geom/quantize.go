package geom

import "math"

// QMax is the largest quantized coordinate value. Positions and UV
// parameters are mapped onto [0, QMax] so each component fits 16 bits of
// a vertex table row.
const QMax = 0xffff

// QPoint3 is a position quantized to the 16-bit domain of its QParams3.
type QPoint3 struct {
	X, Y, Z uint16
}

// QParams3 maps points within a range onto the 16-bit quantized domain.
// A degenerate axis (zero extent) quantizes to 0 and unquantizes back to
// the origin, so flat geometry round-trips exactly.
type QParams3 struct {
	Origin Point3
	Scale  Point3
}

// QParams3FromRange derives quantization parameters covering r. A null
// range yields parameters that quantize everything to the origin.
func QParams3FromRange(r Range3) QParams3 {
	if r.IsNull() {
		return QParams3{}
	}
	return QParams3{
		Origin: r.Min,
		Scale: Point3{
			X: axisScale(r.Max.X - r.Min.X),
			Y: axisScale(r.Max.Y - r.Min.Y),
			Z: axisScale(r.Max.Z - r.Min.Z),
		},
	}
}

func axisScale(extent float64) float64 {
	if extent <= 0 {
		return 0
	}
	return QMax / extent
}

// Quantize maps p into the 16-bit domain, clamping to [0, QMax].
func (q QParams3) Quantize(p Point3) QPoint3 {
	return QPoint3{
		X: quantizeAxis(p.X, q.Origin.X, q.Scale.X),
		Y: quantizeAxis(p.Y, q.Origin.Y, q.Scale.Y),
		Z: quantizeAxis(p.Z, q.Origin.Z, q.Scale.Z),
	}
}

// Unquantize maps a quantized point back into world space.
func (q QParams3) Unquantize(p QPoint3) Point3 {
	return Point3{
		X: unquantizeAxis(p.X, q.Origin.X, q.Scale.X),
		Y: unquantizeAxis(p.Y, q.Origin.Y, q.Scale.Y),
		Z: unquantizeAxis(p.Z, q.Origin.Z, q.Scale.Z),
	}
}

func quantizeAxis(v, origin, scale float64) uint16 {
	q := math.Round((v - origin) * scale)
	return uint16(Clamp(q, 0, QMax))
}

func unquantizeAxis(q uint16, origin, scale float64) float64 {
	if scale == 0 {
		return origin
	}
	return origin + float64(q)/scale
}

// QPoint2 is a UV parameter quantized to the 16-bit domain.
type QPoint2 struct {
	X, Y uint16
}

// QParams2 is the 2D analog of QParams3, used for UV parameters.
type QParams2 struct {
	OriginX, OriginY float64
	ScaleX, ScaleY   float64
}

// QParams2FromRange derives 2D quantization parameters from the given
// bounds.
func QParams2FromRange(minX, minY, maxX, maxY float64) QParams2 {
	return QParams2{
		OriginX: minX,
		OriginY: minY,
		ScaleX:  axisScale(maxX - minX),
		ScaleY:  axisScale(maxY - minY),
	}
}

// Quantize maps p into the 16-bit domain, clamping to [0, QMax].
func (q QParams2) Quantize(p Point2) QPoint2 {
	return QPoint2{
		X: quantizeAxis(p.X, q.OriginX, q.ScaleX),
		Y: quantizeAxis(p.Y, q.OriginY, q.ScaleY),
	}
}

// Unquantize maps a quantized UV parameter back to its original domain.
func (q QParams2) Unquantize(p QPoint2) Point2 {
	return Point2{
		X: unquantizeAxis(p.X, q.OriginX, q.ScaleX),
		Y: unquantizeAxis(p.Y, q.OriginY, q.ScaleY),
	}
}

// OctEncodeNormal packs a unit normal into 16 bits using octahedral
// encoding: the unit sphere is projected onto an octahedron whose lower
// half is folded over, and the resulting 2D coordinate is stored as two
// signed 8-bit components.
func OctEncodeNormal(n Point3) uint16 {
	sum := math.Abs(n.X) + math.Abs(n.Y) + math.Abs(n.Z)
	if sum == 0 {
		sum = 1
	}
	u := n.X / sum
	v := n.Y / sum
	if n.Z < 0 {
		// Fold the lower hemisphere over the octahedron edge.
		u, v = (1-math.Abs(v))*sign(u), (1-math.Abs(u))*sign(v)
	}
	return uint16(snorm8(u)) | uint16(snorm8(v))<<8
}

// OctDecodeNormal reverses OctEncodeNormal, returning a unit normal.
func OctDecodeNormal(enc uint16) Point3 {
	u := unsnorm8(uint8(enc))
	v := unsnorm8(uint8(enc >> 8))
	z := 1 - (math.Abs(u) + math.Abs(v))
	if z < 0 {
		u, v = (1-math.Abs(v))*sign(u), (1-math.Abs(u))*sign(v)
	}
	return Point3{X: u, Y: v, Z: z}.Normalized()
}

func sign(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}

func snorm8(f float64) uint8 {
	return uint8(Clamp(math.Round(f*127+128), 0, 255))
}

func unsnorm8(b uint8) float64 {
	return Clamp((float64(b)-128)/127, -1, 1)
}
