package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypedValueScalarRoundTrip(t *testing.T) {
	v := NewInt(Int32, -7)
	require.Equal(t, Int32, v.Type())
	require.EqualValues(t, -7, v.Int())

	u := NewUint(Uint64, 1<<40)
	require.EqualValues(t, 1<<40, u.Uint())

	f := NewFloat64(3.5)
	require.InDelta(t, 3.5, f.Float(), 1e-9)

	b := NewBool(true)
	require.True(t, b.Bool())
}

func TestTypedValueGetMismatchPanics(t *testing.T) {
	v := NewInt(Int32, 1)
	require.Panics(t, func() { v.Float() })
}

func TestTypedValueCloneDeepCopiesFunction(t *testing.T) {
	ret := NewInt(Int32, 0)
	orig := TypedValue{
		Kind: Function,
		Fn: &FunctionData{
			ParamTypes: []DataType{Int32, Int32},
			ReturnType: &ret,
		},
	}

	clone := orig.Clone()
	require.NotSame(t, orig.Fn, clone.Fn)
	require.NotSame(t, orig.Fn.ReturnType, clone.Fn.ReturnType)

	// mutating the clone's nested return type must not affect the
	// original, proving the copy was deep.
	clone.Fn.ReturnType.Scalar = 99
	require.NotEqual(t, orig.Fn.ReturnType.Scalar, clone.Fn.ReturnType.Scalar)
}

func TestIntegerRank(t *testing.T) {
	require.Equal(t, 0, IntegerRank(Int8))
	require.Equal(t, 3, IntegerRank(Uint64))
	require.Equal(t, -1, IntegerRank(Float32))
}
