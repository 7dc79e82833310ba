package demparser

import (
	"math"

	"github.com/icza/tf2rep/bitstream"
	"github.com/icza/tf2rep/dem"
	"github.com/icza/tf2rep/dem/democore"
)

// stringPropLengthBits is the width of a String prop's length prefix (§4.5).
const stringPropLengthBits = 9

// decodePropValue dispatches on prop's type and flags to decode one
// SendProp value (§4.5).
func decodePropValue(r *bitstream.Reader, prop *dem.RawPropDef) (dem.SendPropValue, error) {
	switch prop.Type {
	case dem.SendPropTypeInt:
		return decodeIntProp(r, prop)
	case dem.SendPropTypeFloat:
		v, err := decodeFloatProp(r, prop)
		if err != nil {
			return dem.SendPropValue{}, err
		}
		return dem.FloatValue(v), nil
	case dem.SendPropTypeVector:
		return decodeVectorProp(r, prop)
	case dem.SendPropTypeVectorXY:
		return decodeVectorXYProp(r, prop)
	case dem.SendPropTypeString:
		n, err := r.ReadBits(stringPropLengthBits)
		if err != nil {
			return dem.SendPropValue{}, wrapErr(ErrReadError, "string prop length", err)
		}
		raw, err := r.ReadBytes(int(n))
		if err != nil {
			return dem.SendPropValue{}, wrapErr(ErrReadError, "string prop", err)
		}
		return dem.StringValue(string(raw)), nil
	case dem.SendPropTypeArray:
		return decodeArrayProp(r, prop)
	default:
		return dem.SendPropValue{}, newErr(ErrInvalidSendPropType, "")
	}
}

func decodeIntProp(r *bitstream.Reader, prop *dem.RawPropDef) (dem.SendPropValue, error) {
	if prop.Flags.Has(dem.SendPropFlagUnsigned) {
		v, err := r.ReadBits(prop.Bits)
		if err != nil {
			return dem.SendPropValue{}, wrapErr(ErrReadError, "unsigned int prop", err)
		}
		return dem.IntValue(int64(v)), nil
	}
	v, err := r.ReadBitsSigned(prop.Bits)
	if err != nil {
		return dem.SendPropValue{}, wrapErr(ErrReadError, "signed int prop", err)
	}
	return dem.IntValue(v), nil
}

func decodeFloatProp(r *bitstream.Reader, prop *dem.RawPropDef) (float32, error) {
	f := prop.Flags
	switch {
	case f.Has(dem.SendPropFlagNoScale):
		v, err := r.ReadBits(32)
		return math.Float32frombits(uint32(v)), err
	case f.Has(dem.SendPropFlagCoord):
		return r.ReadBitCoord()
	case f.Has(dem.SendPropFlagCoordMp):
		return r.ReadBitCoordMp(false, false)
	case f.Has(dem.SendPropFlagCoordMpLowPrecision):
		return r.ReadBitCoordMp(true, false)
	case f.Has(dem.SendPropFlagCoordMpIntegral):
		return r.ReadBitCoordMp(false, true)
	case f.Has(dem.SendPropFlagCellCoord):
		return r.ReadCellCoord(prop.Bits, false, false)
	case f.Has(dem.SendPropFlagCellCoordLowPrecision):
		return r.ReadCellCoord(prop.Bits, true, false)
	case f.Has(dem.SendPropFlagCellCoordIntegral):
		return r.ReadCellCoord(prop.Bits, false, true)
	case f.Has(dem.SendPropFlagNormal):
		return r.ReadBitNormal()
	default:
		raw, err := r.ReadBits(prop.Bits)
		if err != nil {
			return 0, wrapErr(ErrReadError, "quantized float prop", err)
		}
		span := (uint64(1) << prop.Bits) - 1
		frac := float32(raw) / float32(span)
		return prop.LowValue + frac*(prop.HighValue-prop.LowValue), nil
	}
}

func decodeVectorProp(r *bitstream.Reader, prop *dem.RawPropDef) (dem.SendPropValue, error) {
	x, err := decodeFloatProp(r, prop)
	if err != nil {
		return dem.SendPropValue{}, err
	}
	y, err := decodeFloatProp(r, prop)
	if err != nil {
		return dem.SendPropValue{}, err
	}

	var z float32
	if prop.Flags.Has(dem.SendPropFlagNormal) {
		negative, err := r.ReadBool()
		if err != nil {
			return dem.SendPropValue{}, wrapErr(ErrReadError, "vector normal sign", err)
		}
		sq := 1 - x*x - y*y
		if sq < 0 {
			sq = 0
		}
		z = float32(math.Sqrt(float64(sq)))
		if negative {
			z = -z
		}
	} else {
		z, err = decodeFloatProp(r, prop)
		if err != nil {
			return dem.SendPropValue{}, err
		}
	}
	return dem.VectorValue(democore.Vector{X: x, Y: y, Z: z}), nil
}

func decodeVectorXYProp(r *bitstream.Reader, prop *dem.RawPropDef) (dem.SendPropValue, error) {
	x, err := decodeFloatProp(r, prop)
	if err != nil {
		return dem.SendPropValue{}, err
	}
	y, err := decodeFloatProp(r, prop)
	if err != nil {
		return dem.SendPropValue{}, err
	}
	return dem.VectorXYValue(democore.VectorXY{X: x, Y: y}), nil
}

func decodeArrayProp(r *bitstream.Reader, prop *dem.RawPropDef) (dem.SendPropValue, error) {
	if prop.Element == nil {
		return dem.SendPropValue{}, newErr(ErrInvalidSendProp, "array prop without element template")
	}
	bits := bitstream.BitsForCount(prop.NumElements)
	count, err := r.ReadBits(bits)
	if err != nil {
		return dem.SendPropValue{}, wrapErr(ErrReadError, "array prop count", err)
	}
	elems := make([]dem.SendPropValue, count)
	for i := range elems {
		v, err := decodePropValue(r, prop.Element)
		if err != nil {
			return dem.SendPropValue{}, err
		}
		elems[i] = v
	}
	return dem.ArrayValue(elems), nil
}

// encodePropValue writes the symmetric counterpart of decodePropValue.
func encodePropValue(w *bitstream.Writer, prop *dem.RawPropDef, v dem.SendPropValue) error {
	switch prop.Type {
	case dem.SendPropTypeInt:
		return encodeIntProp(w, prop, v)
	case dem.SendPropTypeFloat:
		return encodeFloatProp(w, prop, v.Float)
	case dem.SendPropTypeVector:
		return encodeVectorProp(w, prop, v)
	case dem.SendPropTypeVectorXY:
		return encodeVectorXYProp(w, prop, v)
	case dem.SendPropTypeString:
		if err := w.WriteBits(uint64(len(v.Str)), stringPropLengthBits); err != nil {
			return err
		}
		return w.WriteBytes([]byte(v.Str))
	case dem.SendPropTypeArray:
		return encodeArrayProp(w, prop, v)
	default:
		return newErr(ErrInvalidSendPropType, "")
	}
}

func encodeIntProp(w *bitstream.Writer, prop *dem.RawPropDef, v dem.SendPropValue) error {
	if prop.Flags.Has(dem.SendPropFlagUnsigned) {
		return w.WriteBits(uint64(v.Int), prop.Bits)
	}
	return w.WriteBitsSigned(v.Int, prop.Bits)
}

func encodeFloatProp(w *bitstream.Writer, prop *dem.RawPropDef, v float32) error {
	f := prop.Flags
	switch {
	case f.Has(dem.SendPropFlagNoScale):
		return w.WriteBits(uint64(math.Float32bits(v)), 32)
	case f.Has(dem.SendPropFlagCoord):
		return w.WriteBitCoord(v)
	case f.Has(dem.SendPropFlagCoordMp):
		return w.WriteBitCoordMp(v, false, false)
	case f.Has(dem.SendPropFlagCoordMpLowPrecision):
		return w.WriteBitCoordMp(v, true, false)
	case f.Has(dem.SendPropFlagCoordMpIntegral):
		return w.WriteBitCoordMp(v, false, true)
	case f.Has(dem.SendPropFlagCellCoord):
		return w.WriteCellCoord(v, prop.Bits, false, false)
	case f.Has(dem.SendPropFlagCellCoordLowPrecision):
		return w.WriteCellCoord(v, prop.Bits, true, false)
	case f.Has(dem.SendPropFlagCellCoordIntegral):
		return w.WriteCellCoord(v, prop.Bits, false, true)
	case f.Has(dem.SendPropFlagNormal):
		return w.WriteBitNormal(v)
	default:
		span := (uint64(1) << prop.Bits) - 1
		frac := (v - prop.LowValue) / (prop.HighValue - prop.LowValue)
		raw := uint64(frac*float32(span) + 0.5)
		return w.WriteBits(raw, prop.Bits)
	}
}

func encodeVectorProp(w *bitstream.Writer, prop *dem.RawPropDef, v dem.SendPropValue) error {
	vec := v.Vector
	if err := encodeFloatProp(w, prop, vec.X); err != nil {
		return err
	}
	if err := encodeFloatProp(w, prop, vec.Y); err != nil {
		return err
	}
	if prop.Flags.Has(dem.SendPropFlagNormal) {
		return w.WriteBool(vec.Z < 0)
	}
	return encodeFloatProp(w, prop, vec.Z)
}

func encodeVectorXYProp(w *bitstream.Writer, prop *dem.RawPropDef, v dem.SendPropValue) error {
	vec := v.VectorXY
	if err := encodeFloatProp(w, prop, vec.X); err != nil {
		return err
	}
	return encodeFloatProp(w, prop, vec.Y)
}

func encodeArrayProp(w *bitstream.Writer, prop *dem.RawPropDef, v dem.SendPropValue) error {
	if prop.Element == nil {
		return newErr(ErrInvalidSendProp, "array prop without element template")
	}
	elems := v.Array
	bits := bitstream.BitsForCount(prop.NumElements)
	if err := w.WriteBits(uint64(len(elems)), bits); err != nil {
		return err
	}
	for _, e := range elems {
		if err := encodePropValue(w, prop.Element, e); err != nil {
			return err
		}
	}
	return nil
}
