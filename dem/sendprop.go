package dem

import "github.com/icza/tf2rep/dem/democore"

// SendPropValue is a tagged union over the possible decoded values of a
// SendProp (§3 "SendProp value"). Exactly one field is meaningful,
// selected by Kind.
type SendPropValue struct {
	Kind SendPropType

	Int      int64
	Float    float32
	Str      string
	Vector   democore.Vector
	VectorXY democore.VectorXY
	Array    []SendPropValue
}

// IntValue builds an Integer SendPropValue.
func IntValue(v int64) SendPropValue { return SendPropValue{Kind: SendPropTypeInt, Int: v} }

// FloatValue builds a Float SendPropValue.
func FloatValue(v float32) SendPropValue { return SendPropValue{Kind: SendPropTypeFloat, Float: v} }

// StringValue builds a String SendPropValue.
func StringValue(v string) SendPropValue { return SendPropValue{Kind: SendPropTypeString, Str: v} }

// VectorValue builds a Vector SendPropValue.
func VectorValue(v democore.Vector) SendPropValue {
	return SendPropValue{Kind: SendPropTypeVector, Vector: v}
}

// VectorXYValue builds a VectorXY SendPropValue.
func VectorXYValue(v democore.VectorXY) SendPropValue {
	return SendPropValue{Kind: SendPropTypeVectorXY, VectorXY: v}
}

// ArrayValue builds an Array SendPropValue.
func ArrayValue(v []SendPropValue) SendPropValue {
	return SendPropValue{Kind: SendPropTypeArray, Array: v}
}

// SendProp is one decoded field of an entity (§3 "SendProp value"):
// a flattened-table entry paired with its decoded value.
type SendProp struct {
	Prop  *FlatProp
	Value SendPropValue
}
