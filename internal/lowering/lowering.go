// Package lowering implements the target-independent pre-codegen
// rewrite pass, grounded on arc's codegen/lowering: ACCESS nodes become
// explicit address arithmetic, and CALL nodes are normalized so their
// argument-evaluation nodes sit immediately before the call.
package lowering

import (
	"arcopt/internal/ir"
	"arcopt/internal/pass"
)

// IRLoweringPass rewrites high-level IR into the primitive-operation
// form instruction selection expects. It is target-independent: no
// register or calling-convention decisions are made here (those are
// explicitly out of scope, per spec.md's codegen Non-goals).
type IRLoweringPass struct {
	// lowered memoizes original ACCESS node → its lowered PTR_ADD, so
	// an access chain shared by two outer accesses (via AccessAux.
	// Intermediate) is lowered once and reused, matching §4.7's
	// "multiple rewrites sharing a sub-expression converge".
	lowered map[*ir.Node]*ir.Node
}

// NewIRLoweringPass constructs a ready-to-run pass instance.
func NewIRLoweringPass() *IRLoweringPass {
	return &IRLoweringPass{}
}

// Name identifies this pass for dependency declarations.
func (*IRLoweringPass) Name() string { return "ir-lowering" }

// Require declares no dependencies.
func (*IRLoweringPass) Require() []string { return nil }

// Invalidates reports type-based-alias-analysis stale: lowering turns
// ACCESS's typed field/element selectors into untyped pointer
// arithmetic, which a TBAA result computed against the pre-lowering
// access structure can no longer classify correctly.
func (*IRLoweringPass) Invalidates() []string { return []string{"type-based-alias-analysis"} }

// Run lowers every function region (transitively) of mod, returning
// the regions actually modified.
func (p *IRLoweringPass) Run(mod *ir.Module, _ *pass.Manager) []*ir.Region {
	p.lowered = make(map[*ir.Node]*ir.Node)
	modified := make(map[*ir.Region]bool)

	for _, fn := range mod.Functions() {
		if fn.Op != ir.OpFunction {
			continue
		}
		if body := mod.FunctionRegion(fn); body != nil {
			p.processRegion(body, modified)
		}
	}

	out := make([]*ir.Region, 0, len(modified))
	for r := range modified {
		out = append(out, r)
	}
	return out
}

func (p *IRLoweringPass) processRegion(region *ir.Region, modified map[*ir.Region]bool) {
	if region == nil {
		return
	}

	for _, n := range append([]*ir.Node(nil), region.Nodes()...) {
		switch n.Op {
		case ir.OpAccess:
			lowered := p.lowerAccess(n)
			if lowered != n && region.Replace(n, lowered, true) {
				modified[region] = true
			}
		case ir.OpCall:
			if p.lowerCall(region, n) {
				modified[region] = true
			}
		}
	}

	for _, child := range region.Children() {
		p.processRegion(child, modified)
	}
}

// lowerAccess replaces container.selector with
// PTR_ADD(base_address(container), offset_literal(selector)), the
// offset computed from the container's struct/array layout. A
// multi-level chain (AccessAux.Intermediate set) lowers its
// intermediate first, memoized, so the PTR_ADD chain shares the
// intermediate's computed base.
func (p *IRLoweringPass) lowerAccess(n *ir.Node) *ir.Node {
	if existing, ok := p.lowered[n]; ok {
		return existing
	}

	aux, ok := n.Aux.(ir.AccessAux)
	if !ok || len(n.Inputs) == 0 {
		p.lowered[n] = n
		return n
	}

	container := n.Inputs[0]
	base := container
	if aux.Intermediate != nil {
		base = p.lowerAccess(aux.Intermediate)
	}

	offset := fieldOffset(container.Type, aux.Selector)
	offsetLit := ir.NewNode(ir.OpLit, ir.NewInt(ir.Int64, offset))

	ptrAdd := ir.NewNode(ir.OpPtrAdd, ir.TypedValue{
		Kind: ir.Pointer,
		Ptr:  &ir.PointerData{Pointee: elementType(container.Type, aux.Selector)},
	})
	ptrAdd.AddInput(base)
	ptrAdd.AddInput(offsetLit)

	p.lowered[n] = ptrAdd
	return ptrAdd
}

// lowerCall normalizes a CALL's argument-evaluation nodes to sit
// immediately before it in region order — the canonical calling
// sequence §4.7 describes, left otherwise target-independent. Reports
// whether the region's node order actually changed.
func (p *IRLoweringPass) lowerCall(region *ir.Region, n *ir.Node) bool {
	var localArgs []*ir.Node
	for _, arg := range n.Inputs {
		if arg != nil && arg.Parent == region {
			localArgs = append(localArgs, arg)
		}
	}
	if len(localArgs) == 0 {
		return false
	}

	nodes := region.Nodes()
	idx := indexOf(nodes, n)
	if idx >= len(localArgs) && sameSequence(nodes[idx-len(localArgs):idx], localArgs) {
		return false
	}

	for _, arg := range localArgs {
		region.Remove(arg)
	}
	for _, arg := range localArgs {
		region.InsertBefore(n, arg)
	}
	return true
}

func indexOf(nodes []*ir.Node, target *ir.Node) int {
	for i, n := range nodes {
		if n == target {
			return i
		}
	}
	return -1
}

func sameSequence(a, b []*ir.Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// fieldOffset computes the byte offset selector addresses within
// container's layout: summed preceding-field sizes for a struct,
// selector*element-size for an array.
func fieldOffset(container ir.TypedValue, selector int) int64 {
	switch container.Kind {
	case ir.Struct:
		if container.Str == nil {
			return 0
		}
		var offset int64
		for i := 0; i < selector && i < len(container.Str.Fields); i++ {
			offset += sizeOf(container.Str.Fields[i])
		}
		return offset
	case ir.Array:
		if container.Arr == nil {
			return 0
		}
		return int64(selector) * sizeOf(container.Arr.ElemType)
	default:
		return 0
	}
}

// elementType returns the DataType selector addresses within
// container, for the lowered PTR_ADD's pointee.
func elementType(container ir.TypedValue, selector int) ir.DataType {
	switch container.Kind {
	case ir.Struct:
		if container.Str != nil && selector >= 0 && selector < len(container.Str.Fields) {
			return container.Str.Fields[selector]
		}
	case ir.Array:
		if container.Arr != nil {
			return container.Arr.ElemType
		}
	}
	return ir.Void
}

// sizeOf is the target-independent scalar size used for offset
// arithmetic; real backend-specific layout (alignment, padding) is out
// of scope per spec.md's codegen Non-goals.
func sizeOf(d ir.DataType) int64 {
	switch d {
	case ir.Bool, ir.Int8, ir.Uint8:
		return 1
	case ir.Int16, ir.Uint16:
		return 2
	case ir.Int32, ir.Uint32, ir.Float32:
		return 4
	default:
		return 8
	}
}
