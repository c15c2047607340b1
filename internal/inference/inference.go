// Package inference implements the arithmetic type-promotion rules
// nodes with mismatched operand types fold and lower under, grounded
// on arc's support/inference.
package inference

import "arcopt/internal/ir"

// InferPrimitiveTypes returns the common type lhs and rhs promote to
// for a binary arithmetic operation, or ir.Void if no promotion rule
// applies. Composite kinds (pointer, array, struct, function, vector)
// always require an explicit cast and return ir.Void here; callers
// needing vector element promotion use InferBinaryType instead, which
// recurses into element types.
func InferPrimitiveTypes(lhs, rhs ir.DataType) ir.DataType {
	if requiresExplicitCast(lhs) || requiresExplicitCast(rhs) {
		return ir.Void
	}

	if lhs == rhs {
		return lhs
	}

	if lhs == ir.Bool {
		lhs = ir.Int32
	}
	if rhs == ir.Bool {
		rhs = ir.Int32
	}

	if ir.IsFloat(lhs) || ir.IsFloat(rhs) {
		if lhs == ir.Float32 && rhs == ir.Float32 {
			return ir.Float32
		}
		return ir.Float64
	}

	if !ir.IsInteger(lhs) || !ir.IsInteger(rhs) {
		return ir.Void
	}

	if ir.IntegerRank(lhs) < ir.IntegerRank(ir.Int32) {
		lhs = ir.Int32
	}
	if ir.IntegerRank(rhs) < ir.IntegerRank(ir.Int32) {
		rhs = ir.Int32
	}
	if lhs == rhs {
		return lhs
	}

	lhsRank, rhsRank := ir.IntegerRank(lhs), ir.IntegerRank(rhs)
	if lhsRank == rhsRank {
		// same rank, mixed signedness: promote to the larger signed
		// type to avoid wrap-around; uint64 has no larger signed
		// counterpart so it stays unsigned.
		switch lhsRank {
		case 2:
			return ir.Int64
		case 3:
			return ir.Uint64
		default:
			return ir.Void
		}
	}

	if lhsRank > rhsRank {
		return lhs
	}
	return rhs
}

func requiresExplicitCast(d ir.DataType) bool {
	switch d {
	case ir.Pointer, ir.Array, ir.Struct, ir.Function, ir.Vector:
		return true
	default:
		return false
	}
}

// InferBinaryType promotes lhs and rhs's types in-place to their
// common type, returning false for an incompatible combination. A
// Void operand on either side always fails. Identical Vector element
// types are left untouched; mismatched Vector element types are
// promoted via InferPrimitiveTypes the same as scalars, and a scalar
// can never mix with a Vector (ambiguous broadcast-vs-extract).
func InferBinaryType(lhs, rhs *ir.Node) bool {
	if lhs == nil || rhs == nil {
		return false
	}

	lhsType, rhsType := lhs.Type.Kind, rhs.Type.Kind
	if lhsType == ir.Void || rhsType == ir.Void {
		return false
	}

	if lhsType == rhsType {
		if lhsType == ir.Vector {
			return promoteVectorElems(lhs, rhs)
		}
		return true
	}

	if lhsType == ir.Vector || rhsType == ir.Vector {
		if lhsType != ir.Vector || rhsType != ir.Vector {
			return false
		}
		return promoteVectorElems(lhs, rhs)
	}

	promoted := InferPrimitiveTypes(lhsType, rhsType)
	if promoted == ir.Void {
		return false
	}
	lhs.Type.Kind = promoted
	rhs.Type.Kind = promoted
	return true
}

func promoteVectorElems(lhs, rhs *ir.Node) bool {
	lhsVec, rhsVec := lhs.Type.Vec, rhs.Type.Vec
	if lhsVec == nil || rhsVec == nil {
		return false
	}
	if lhsVec.ElemType == rhsVec.ElemType {
		return true
	}

	promoted := InferPrimitiveTypes(lhsVec.ElemType, rhsVec.ElemType)
	if promoted == ir.Void {
		return false
	}
	lhsVec.ElemType = promoted
	rhsVec.ElemType = promoted
	return true
}
