package ir

import (
	"fmt"
	"math"
)

// DataType is the closed set of variants a TypedValue can hold.
type DataType uint8

const (
	Void DataType = iota
	Bool
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Vector
	Pointer
	Array
	Struct
	Function
)

func (d DataType) String() string {
	switch d {
	case Void:
		return "void"
	case Bool:
		return "bool"
	case Int8:
		return "i8"
	case Int16:
		return "i16"
	case Int32:
		return "i32"
	case Int64:
		return "i64"
	case Uint8:
		return "u8"
	case Uint16:
		return "u16"
	case Uint32:
		return "u32"
	case Uint64:
		return "u64"
	case Float32:
		return "f32"
	case Float64:
		return "f64"
	case Vector:
		return "vector"
	case Pointer:
		return "pointer"
	case Array:
		return "array"
	case Struct:
		return "struct"
	case Function:
		return "function"
	default:
		return "unknown"
	}
}

// VectorData is the payload for the Vector variant: a count of lanes of
// a uniform element type.
type VectorData struct {
	ElemType DataType
	Lanes    uint32
}

// PointerData is the payload for the Pointer variant.
type PointerData struct {
	Pointee DataType
}

// ArrayData is the payload for the Array variant.
type ArrayData struct {
	ElemType DataType
	Length   uint64
}

// StructData is the payload for the Struct variant: an ordered field
// layout. StringId fields are interned field names (for diagnostics);
// they are not required for layout computation.
type StructData struct {
	Name   StringId
	Fields []DataType
}

// FunctionData is the payload for the Function variant. ReturnType is a
// recursive, heap-allocated TypedValue, owned by this FunctionData and
// deep-copied by Clone.
type FunctionData struct {
	ParamTypes []DataType
	ReturnType *TypedValue
	Variadic   bool
}

// TypedValue is a tagged union over DataType. Only the field matching
// Kind is meaningful; scalar kinds use Scalar, composite kinds use the
// matching pointer field.
type TypedValue struct {
	Kind DataType

	// Scalar holds the bit pattern for any non-composite kind, as a
	// canonical int64/uint64/float64 depending on Kind; use the typed
	// accessors (Int(), Uint(), Float(), Bool()) rather than reading
	// this directly.
	Scalar uint64

	Vec *VectorData
	Ptr *PointerData
	Arr *ArrayData
	Str *StructData
	Fn  *FunctionData
}

// NewVoid returns a VOID typed value.
func NewVoid() TypedValue { return TypedValue{Kind: Void} }

// NewBool returns a BOOL typed value.
func NewBool(v bool) TypedValue {
	var s uint64
	if v {
		s = 1
	}
	return TypedValue{Kind: Bool, Scalar: s}
}

// NewInt returns a signed-integer typed value of the given width kind
// (Int8/Int16/Int32/Int64). The value is stored sign-extended into a
// uint64 so bit patterns round-trip through Scalar unchanged.
func NewInt(kind DataType, v int64) TypedValue {
	return TypedValue{Kind: kind, Scalar: uint64(v)}
}

// NewUint returns an unsigned-integer typed value.
func NewUint(kind DataType, v uint64) TypedValue {
	return TypedValue{Kind: kind, Scalar: v}
}

// NewFloat32 returns a FLOAT32 typed value.
func NewFloat32(v float32) TypedValue {
	return TypedValue{Kind: Float32, Scalar: uint64(math.Float32bits(v))}
}

// NewFloat64 returns a FLOAT64 typed value.
func NewFloat64(v float64) TypedValue {
	return TypedValue{Kind: Float64, Scalar: math.Float64bits(v)}
}

// Type returns the active tag.
func (v TypedValue) Type() DataType { return v.Kind }

// Bool reads the value as a bool; panics if Kind != Bool.
func (v TypedValue) Bool() bool {
	v.mustBe(Bool)
	return v.Scalar != 0
}

// Int reads the value as a signed integer, widened to int64; panics if
// Kind is not a signed integer kind.
func (v TypedValue) Int() int64 {
	switch v.Kind {
	case Int8:
		return int64(int8(v.Scalar))
	case Int16:
		return int64(int16(v.Scalar))
	case Int32:
		return int64(int32(v.Scalar))
	case Int64:
		return int64(v.Scalar)
	default:
		panic(fmt.Sprintf("ir: TypedValue.Int: precondition violated, tag is %s", v.Kind))
	}
}

// Uint reads the value as an unsigned integer, widened to uint64;
// panics if Kind is not an unsigned integer kind.
func (v TypedValue) Uint() uint64 {
	switch v.Kind {
	case Uint8:
		return uint64(uint8(v.Scalar))
	case Uint16:
		return uint64(uint16(v.Scalar))
	case Uint32:
		return uint64(uint32(v.Scalar))
	case Uint64:
		return v.Scalar
	default:
		panic(fmt.Sprintf("ir: TypedValue.Uint: precondition violated, tag is %s", v.Kind))
	}
}

// Float reads the value as a float64, widening FLOAT32 as needed;
// panics if Kind is not a float kind.
func (v TypedValue) Float() float64 {
	switch v.Kind {
	case Float32:
		return float64(math.Float32frombits(uint32(v.Scalar)))
	case Float64:
		return math.Float64frombits(v.Scalar)
	default:
		panic(fmt.Sprintf("ir: TypedValue.Float: precondition violated, tag is %s", v.Kind))
	}
}

func (v TypedValue) mustBe(k DataType) {
	if v.Kind != k {
		panic(fmt.Sprintf("ir: TypedValue: precondition violated, expected %s, tag is %s", k, v.Kind))
	}
}

// Clone performs a deep copy: the FUNCTION variant's recursive
// ReturnType is copied rather than aliased, matching §3's "Copy and
// move are deep" invariant for the data model.
func (v TypedValue) Clone() TypedValue {
	out := v
	if v.Vec != nil {
		vec := *v.Vec
		out.Vec = &vec
	}
	if v.Ptr != nil {
		p := *v.Ptr
		out.Ptr = &p
	}
	if v.Arr != nil {
		a := *v.Arr
		out.Arr = &a
	}
	if v.Str != nil {
		s := *v.Str
		s.Fields = append([]DataType(nil), v.Str.Fields...)
		out.Str = &s
	}
	if v.Fn != nil {
		fn := *v.Fn
		fn.ParamTypes = append([]DataType(nil), v.Fn.ParamTypes...)
		if v.Fn.ReturnType != nil {
			rt := v.Fn.ReturnType.Clone()
			fn.ReturnType = &rt
		}
		out.Fn = &fn
	}
	return out
}

// IsInteger reports whether d is any signed or unsigned integer kind.
func IsInteger(d DataType) bool {
	switch d {
	case Int8, Int16, Int32, Int64, Uint8, Uint16, Uint32, Uint64:
		return true
	default:
		return false
	}
}

// IsFloat reports whether d is FLOAT32 or FLOAT64.
func IsFloat(d DataType) bool {
	return d == Float32 || d == Float64
}

// IsSignedInteger reports whether d is a signed integer kind.
func IsSignedInteger(d DataType) bool {
	switch d {
	case Int8, Int16, Int32, Int64:
		return true
	default:
		return false
	}
}

// IsUnsignedInteger reports whether d is an unsigned integer kind.
func IsUnsignedInteger(d DataType) bool {
	switch d {
	case Uint8, Uint16, Uint32, Uint64:
		return true
	default:
		return false
	}
}

// IntegerRank returns the promotion rank used by inference.InferBinaryType:
// 0 for byte-sized, 1 for halfword, 2 for word, 3 for doubleword integer
// kinds, and -1 for non-integer kinds.
func IntegerRank(d DataType) int {
	switch d {
	case Int8, Uint8:
		return 0
	case Int16, Uint16:
		return 1
	case Int32, Uint32:
		return 2
	case Int64, Uint64:
		return 3
	default:
		return -1
	}
}
