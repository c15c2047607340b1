package transform

import (
	"arcopt/internal/inference"
	"arcopt/internal/ir"
	"arcopt/internal/pass"
)

// ConstantFolding is a FIFO worklist-driven rewriter: every foldable
// node is seeded onto the worklist, popped and folded when all its
// inputs are literals, and its result's users are re-enqueued so
// folding cascades. Grounded on arc's transform/constfold and §4.8.
type ConstantFolding struct {
	worklist  []*ir.Node
	inQueue   map[*ir.Node]bool
	modified  map[*ir.Region]bool
}

// NewConstantFolding constructs a ready-to-run pass instance.
func NewConstantFolding() *ConstantFolding {
	return &ConstantFolding{}
}

// Name identifies this pass for dependency declarations.
func (*ConstantFolding) Name() string { return "constant-folding" }

// Require declares no dependencies.
func (*ConstantFolding) Require() []string { return nil }

// Invalidates reports no invalidated analyses: folding only replaces
// literal-producing subgraphs, preserving every other invariant.
func (*ConstantFolding) Invalidates() []string { return nil }

// Run processes every region of mod to a fixed point, returning the
// regions actually modified.
func (c *ConstantFolding) Run(mod *ir.Module, _ *pass.Manager) []*ir.Region {
	c.worklist = nil
	c.inQueue = make(map[*ir.Node]bool)
	c.modified = make(map[*ir.Region]bool)

	c.collectNodes(mod.Root())
	for len(c.worklist) > 0 {
		n := c.worklist[0]
		c.worklist = c.worklist[1:]
		delete(c.inQueue, n)
		c.processNode(n)
	}

	out := make([]*ir.Region, 0, len(c.modified))
	for r := range c.modified {
		out = append(out, r)
	}
	return out
}

func (c *ConstantFolding) collectNodes(region *ir.Region) {
	if region == nil {
		return
	}
	for _, n := range region.Nodes() {
		if isFoldable(n) {
			c.addToWorklist(n)
		}
	}
	for _, child := range region.Children() {
		c.collectNodes(child)
	}
}

func (c *ConstantFolding) addToWorklist(n *ir.Node) {
	if n == nil || c.inQueue[n] {
		return
	}
	c.inQueue[n] = true
	c.worklist = append(c.worklist, n)
}

func (c *ConstantFolding) addUsers(n *ir.Node) {
	for _, u := range n.Users {
		c.addToWorklist(u)
	}
}

// processNode attempts to fold n; n may already have been detached
// from its region by an earlier fold of one of its users (e.g. a
// BRANCH folded into a JUMP removes the branch's condition from
// relevance), in which case it's skipped.
func (c *ConstantFolding) processNode(n *ir.Node) bool {
	if n.Parent == nil || n.Op == ir.OpLit {
		return false
	}
	if !allConst(n) {
		return false
	}

	folded := createFolded(n)
	if folded == nil {
		return false
	}

	region := n.Parent
	if !region.Replace(n, folded, true) {
		return false
	}
	c.modified[region] = true
	c.addUsers(folded)
	return true
}

// allConst reports whether every input to n is a LIT node. BRANCH gets
// no special case: its only input is its condition, since its target
// regions live in Aux. FROM additionally needs its literals identical,
// which foldFrom checks itself.
func allConst(n *ir.Node) bool {
	if len(n.Inputs) == 0 {
		return false
	}
	for _, in := range n.Inputs {
		if in == nil || in.Op != ir.OpLit {
			return false
		}
	}
	return true
}

// isFoldable reports whether n's opcode is one constant folding ever
// attempts to rewrite. It does not check operand literalness; that's
// deferred to createFolded's dispatch, since BRANCH only needs its
// condition to be literal while its target regions aren't operands.
func isFoldable(n *ir.Node) bool {
	switch n.Op {
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv, ir.OpMod,
		ir.OpEq, ir.OpNeq, ir.OpLt, ir.OpLte, ir.OpGt, ir.OpGte,
		ir.OpBAnd, ir.OpBOr, ir.OpBXor, ir.OpBShl, ir.OpBShr, ir.OpBNot,
		ir.OpBranch, ir.OpCast, ir.OpFrom:
		return true
	default:
		return false
	}
}

func createFolded(n *ir.Node) *ir.Node {
	switch n.Op {
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv, ir.OpMod:
		return foldArith(n)
	case ir.OpEq, ir.OpNeq, ir.OpLt, ir.OpLte, ir.OpGt, ir.OpGte:
		return foldCmp(n)
	case ir.OpBAnd, ir.OpBOr, ir.OpBXor, ir.OpBShl, ir.OpBShr:
		return foldBitwise(n)
	case ir.OpBNot:
		return foldUnary(n)
	case ir.OpFrom:
		return foldFrom(n)
	case ir.OpBranch:
		return foldBranch(n)
	case ir.OpCast:
		return foldCast(n)
	default:
		return nil
	}
}

// foldArith promotes both operands per infer_binary_t, then evaluates
// the operation, refusing to fold a division or modulus by zero.
func foldArith(n *ir.Node) *ir.Node {
	lhs, rhs := n.Inputs[0], n.Inputs[1]
	if !inference.InferBinaryType(lhs, rhs) {
		return nil
	}
	if (n.Op == ir.OpDiv || n.Op == ir.OpMod) && isDivZero(rhs) {
		return nil
	}

	promoted := lhs.Type.Kind
	if ir.IsFloat(promoted) {
		a, b := lhs.Type.Float(), rhs.Type.Float()
		var result float64
		switch n.Op {
		case ir.OpAdd:
			result = a + b
		case ir.OpSub:
			result = a - b
		case ir.OpMul:
			result = a * b
		case ir.OpDiv:
			result = a / b
		case ir.OpMod:
			return nil // modulus is undefined on floats in this IR
		}
		return literalOfKind(promoted, result)
	}

	if ir.IsUnsignedInteger(promoted) {
		a, b := lhs.Type.Uint(), rhs.Type.Uint()
		var result uint64
		switch n.Op {
		case ir.OpAdd:
			result = a + b
		case ir.OpSub:
			result = a - b
		case ir.OpMul:
			result = a * b
		case ir.OpDiv:
			result = a / b
		case ir.OpMod:
			result = a % b
		}
		return ir.NewNode(ir.OpLit, ir.NewUint(promoted, result))
	}

	a, b := lhs.Type.Int(), rhs.Type.Int()
	var result int64
	switch n.Op {
	case ir.OpAdd:
		result = a + b
	case ir.OpSub:
		result = a - b
	case ir.OpMul:
		result = a * b
	case ir.OpDiv:
		result = a / b
	case ir.OpMod:
		result = a % b
	}
	return ir.NewNode(ir.OpLit, ir.NewInt(promoted, result))
}

// foldCmp promotes operands the same way arithmetic does, then
// evaluates the comparison into a BOOL literal.
func foldCmp(n *ir.Node) *ir.Node {
	lhs, rhs := n.Inputs[0], n.Inputs[1]
	if !inference.InferBinaryType(lhs, rhs) {
		return nil
	}

	var cmp int
	switch {
	case ir.IsFloat(lhs.Type.Kind):
		a, b := lhs.Type.Float(), rhs.Type.Float()
		cmp = compareOrdered(a < b, a == b)
	case ir.IsUnsignedInteger(lhs.Type.Kind):
		a, b := lhs.Type.Uint(), rhs.Type.Uint()
		cmp = compareOrdered(a < b, a == b)
	default:
		a, b := lhs.Type.Int(), rhs.Type.Int()
		cmp = compareOrdered(a < b, a == b)
	}

	var result bool
	switch n.Op {
	case ir.OpEq:
		result = cmp == 0
	case ir.OpNeq:
		result = cmp != 0
	case ir.OpLt:
		result = cmp < 0
	case ir.OpLte:
		result = cmp <= 0
	case ir.OpGt:
		result = cmp > 0
	case ir.OpGte:
		result = cmp >= 0
	}
	return ir.NewNode(ir.OpLit, ir.NewBool(result))
}

func compareOrdered(less, equal bool) int {
	switch {
	case equal:
		return 0
	case less:
		return -1
	default:
		return 1
	}
}

// foldBitwise promotes operands, then evaluates bitwise ops over the
// unsigned representation (well-defined for every kind, matching the
// two's-complement semantics signed types already use). Shift amounts
// are masked to the promoted type's bit width.
func foldBitwise(n *ir.Node) *ir.Node {
	lhs, rhs := n.Inputs[0], n.Inputs[1]
	if !inference.InferBinaryType(lhs, rhs) {
		return nil
	}
	if !ir.IsInteger(lhs.Type.Kind) {
		return nil
	}

	promoted := lhs.Type.Kind
	a := rawUint(lhs.Type)
	b := rawUint(rhs.Type)
	bits := bitWidth(promoted)
	mask := uint64(1)<<bits - 1
	if bits == 64 {
		mask = ^uint64(0)
	}

	var result uint64
	switch n.Op {
	case ir.OpBAnd:
		result = a & b
	case ir.OpBOr:
		result = a | b
	case ir.OpBXor:
		result = a ^ b
	case ir.OpBShl:
		result = (a << (b % uint64(bits))) & mask
	case ir.OpBShr:
		result = (a & mask) >> (b % uint64(bits))
	}
	result &= mask

	if ir.IsSignedInteger(promoted) {
		return ir.NewNode(ir.OpLit, ir.NewInt(promoted, signExtend(result, bits)))
	}
	return ir.NewNode(ir.OpLit, ir.NewUint(promoted, result))
}

// foldUnary folds BNOT (bitwise complement).
func foldUnary(n *ir.Node) *ir.Node {
	in := n.Inputs[0]
	if !ir.IsInteger(in.Type.Kind) {
		return nil
	}
	bits := bitWidth(in.Type.Kind)
	mask := uint64(1)<<bits - 1
	if bits == 64 {
		mask = ^uint64(0)
	}
	result := (^rawUint(in.Type)) & mask
	if ir.IsSignedInteger(in.Type.Kind) {
		return ir.NewNode(ir.OpLit, ir.NewInt(in.Type.Kind, signExtend(result, bits)))
	}
	return ir.NewNode(ir.OpLit, ir.NewUint(in.Type.Kind, result))
}

// foldFrom folds a phi-equivalent FROM node when every input is an
// identical literal.
func foldFrom(n *ir.Node) *ir.Node {
	if len(n.Inputs) == 0 {
		return nil
	}
	first := n.Inputs[0]
	if first == nil || first.Op != ir.OpLit {
		return nil
	}
	for _, in := range n.Inputs[1:] {
		if in == nil || in.Op != ir.OpLit || !literalsEqual(first, in) {
			return nil
		}
	}
	return ir.NewNode(ir.OpLit, first.Type.Clone())
}

func literalsEqual(a, b *ir.Node) bool {
	if a.Type.Kind != b.Type.Kind {
		return false
	}
	if ir.IsFloat(a.Type.Kind) {
		return a.Type.Float() == b.Type.Float()
	}
	return a.Type.Scalar == b.Type.Scalar
}

// foldBranch folds a BRANCH with a literal BOOL condition into an
// unconditional JUMP to the corresponding successor.
func foldBranch(n *ir.Node) *ir.Node {
	cond := n.Inputs[0]
	if cond == nil || cond.Op != ir.OpLit || cond.Type.Kind != ir.Bool {
		return nil
	}
	targets, ok := n.Aux.(ir.BranchTargets)
	if !ok {
		return nil
	}

	jump := ir.NewNode(ir.OpJump, ir.NewVoid())
	if cond.Type.Bool() {
		jump.Aux = ir.JumpTarget{Target: targets.IfTrue}
	} else {
		jump.Aux = ir.JumpTarget{Target: targets.IfFalse}
	}
	return jump
}

// foldCast folds a numeric-to-numeric CAST by value conversion.
// REINTERPRET_CAST (bitwise reinterpretation) never folds here.
func foldCast(n *ir.Node) *ir.Node {
	in := n.Inputs[0]
	if in == nil || in.Op != ir.OpLit {
		return nil
	}
	target := n.Type.Kind
	switch {
	case target == ir.Bool:
		return ir.NewNode(ir.OpLit, ir.NewBool(nonZero(in.Type)))
	case ir.IsSignedInteger(target):
		return ir.NewNode(ir.OpLit, ir.NewInt(target, asInt64(in.Type)))
	case ir.IsUnsignedInteger(target):
		return ir.NewNode(ir.OpLit, ir.NewUint(target, uint64(asInt64(in.Type))))
	case target == ir.Float32:
		return ir.NewNode(ir.OpLit, ir.NewFloat32(float32(asFloat64(in.Type))))
	case target == ir.Float64:
		return ir.NewNode(ir.OpLit, ir.NewFloat64(asFloat64(in.Type)))
	default:
		return nil
	}
}

func isDivZero(n *ir.Node) bool {
	if ir.IsFloat(n.Type.Kind) {
		return n.Type.Float() == 0
	}
	if ir.IsUnsignedInteger(n.Type.Kind) {
		return n.Type.Uint() == 0
	}
	return n.Type.Int() == 0
}

func bitWidth(k ir.DataType) uint {
	switch k {
	case ir.Int8, ir.Uint8:
		return 8
	case ir.Int16, ir.Uint16:
		return 16
	case ir.Int32, ir.Uint32:
		return 32
	case ir.Int64, ir.Uint64:
		return 64
	default:
		return 64
	}
}

func rawUint(v ir.TypedValue) uint64 {
	if ir.IsUnsignedInteger(v.Kind) {
		return v.Uint()
	}
	return uint64(v.Int())
}

func signExtend(v uint64, bits uint) int64 {
	if bits >= 64 {
		return int64(v)
	}
	shift := 64 - bits
	return int64(v<<shift) >> shift
}

func nonZero(v ir.TypedValue) bool {
	if ir.IsFloat(v.Kind) {
		return v.Float() != 0
	}
	return v.Scalar != 0
}

func asInt64(v ir.TypedValue) int64 {
	switch {
	case ir.IsFloat(v.Kind):
		return int64(v.Float())
	case ir.IsUnsignedInteger(v.Kind):
		return int64(v.Uint())
	case v.Kind == ir.Bool:
		return int64(v.Scalar)
	default:
		return v.Int()
	}
}

func asFloat64(v ir.TypedValue) float64 {
	switch {
	case ir.IsFloat(v.Kind):
		return v.Float()
	case ir.IsUnsignedInteger(v.Kind):
		return float64(v.Uint())
	case v.Kind == ir.Bool:
		if v.Scalar != 0 {
			return 1
		}
		return 0
	default:
		return float64(v.Int())
	}
}

func literalOfKind(k ir.DataType, v float64) *ir.Node {
	if k == ir.Float32 {
		return ir.NewNode(ir.OpLit, ir.NewFloat32(float32(v)))
	}
	return ir.NewNode(ir.OpLit, ir.NewFloat64(v))
}
