package transform

import (
	"encoding/binary"
	"fmt"
	"hash"
	"sort"

	"golang.org/x/crypto/blake2b"

	"arcopt/internal/analysis/tbaa"
	"arcopt/internal/ir"
	"arcopt/internal/pass"
)

// commutativeOps is consulted so operand order doesn't defeat value
// numbering for opcodes where it's semantically irrelevant.
var commutativeOps = map[ir.Opcode]bool{
	ir.OpAdd: true, ir.OpMul: true,
	ir.OpBAnd: true, ir.OpBOr: true, ir.OpBXor: true,
	ir.OpEq: true, ir.OpNeq: true,
}

// sideEffectingOps are never eligible for value numbering, matching
// DCE's root-node set: a CALL, store, atomic, or control-flow node's
// identity can't be collapsed onto an earlier occurrence.
var sideEffectingOps = map[ir.Opcode]bool{
	ir.OpCall: true, ir.OpStore: true, ir.OpPtrStore: true,
	ir.OpAtomicLoad: true, ir.OpAtomicStore: true, ir.OpAtomicCAS: true,
	ir.OpJump: true, ir.OpBranch: true, ir.OpInvoke: true, ir.OpRet: true,
}

// CommonSubexpressionElimination merges nodes computing the same value
// onto a single canonical occurrence, the first node in program order
// to produce a given ValueNumber. Grounded on
// original_source/include/arc/transform/cse.hpp.
type CommonSubexpressionElimination struct {
	alias    tbaa.Result
	canon    map[uint64]*ir.Node
	modified map[*ir.Region]bool
}

// NewCommonSubexpressionElimination constructs a ready-to-run pass
// instance.
func NewCommonSubexpressionElimination() *CommonSubexpressionElimination {
	return &CommonSubexpressionElimination{}
}

// Name identifies this pass for dependency declarations.
func (*CommonSubexpressionElimination) Name() string { return "cse" }

// Require declares a dependency on the cached TBAA result, consulted to
// decide whether a LOAD may be matched against an earlier one.
func (*CommonSubexpressionElimination) Require() []string {
	return []string{"type-based-alias-analysis"}
}

// Invalidates reports type-based-alias-analysis stale: merging two
// nodes changes identity-based alias facts for anything that consulted
// the merged-away node.
func (*CommonSubexpressionElimination) Invalidates() []string {
	return []string{"type-based-alias-analysis"}
}

// Run walks every function region of mod in program order, rewiring
// redundant nodes onto their canonical occurrence.
func (c *CommonSubexpressionElimination) Run(mod *ir.Module, mgr *pass.Manager) []*ir.Region {
	c.canon = make(map[uint64]*ir.Node)
	c.modified = make(map[*ir.Region]bool)

	if mgr != nil {
		if result, err := pass.Get[*tbaa.ConservativeResult](mgr); err == nil {
			c.alias = result
		}
	}

	for _, fn := range mod.Functions() {
		if body := mod.FunctionRegion(fn); body != nil {
			c.processRegion(body)
		}
	}

	out := make([]*ir.Region, 0, len(c.modified))
	for r := range c.modified {
		out = append(out, r)
	}
	return out
}

func (c *CommonSubexpressionElimination) processRegion(region *ir.Region) {
	if region == nil {
		return
	}

	// blockedLoads tracks, per prior LOAD node seen this region walk,
	// whether a MayAlias store has since been observed — blocking any
	// later match against it.
	blockedLoads := make(map[*ir.Node]bool)

	for _, n := range append([]*ir.Node(nil), region.Nodes()...) {
		if sideEffectingOps[n.Op] {
			if n.Op == ir.OpStore || n.Op == ir.OpPtrStore {
				c.blockAliasingLoads(n, blockedLoads)
			}
			continue
		}

		vn, ok := c.valueNumber(n)
		if !ok {
			continue
		}

		if existing, found := c.canon[vn]; found && existing != n && !blockedLoads[existing] && c.sameLocation(existing, n) {
			ir.UpdateAllConnections(n, existing)
			region.Remove(n)
			c.modified[region] = true
			continue
		}

		c.canon[vn] = n
	}

	for _, child := range region.Children() {
		c.processRegion(child)
	}
}

// blockAliasingLoads marks every previously-canonicalized LOAD that may
// alias the address store writes to, so it is never matched again.
func (c *CommonSubexpressionElimination) blockAliasingLoads(store *ir.Node, blocked map[*ir.Node]bool) {
	if c.alias == nil || len(store.Inputs) == 0 {
		return
	}
	for _, n := range c.canon {
		if !isLoadOp(n.Op) {
			continue
		}
		if c.alias.Query(store, n) != tbaa.NoAlias {
			blocked[n] = true
		}
	}
}

func isLoadOp(op ir.Opcode) bool {
	return op == ir.OpLoad || op == ir.OpPtrLoad
}

// sameLocation reports whether two matched LOAD/PTR_LOAD nodes
// genuinely address the same memory (TBAA MustAlias); non-load nodes
// always pass, since their value number already fully determines
// equivalence.
func (c *CommonSubexpressionElimination) sameLocation(a, b *ir.Node) bool {
	if !isLoadOp(a.Op) {
		return true
	}
	if c.alias == nil {
		return false
	}
	return c.alias.Query(a, b) == tbaa.MustAlias
}

// valueNumber computes a's ValueNumber. Returns false for nodes that
// aren't eligible for CSE at all (side-effecting nodes, already
// excluded by the caller, and FUNCTION/PARAM/ENTRY/EXIT structural
// nodes which have no meaningful value identity).
func (c *CommonSubexpressionElimination) valueNumber(n *ir.Node) (uint64, bool) {
	if sideEffectingOps[n.Op] {
		return 0, false
	}
	switch n.Op {
	case ir.OpFunction, ir.OpParam, ir.OpEntry, ir.OpExit, ir.OpAlloc:
		// Each ALLOC allocates distinct storage: two ALLOCs of
		// identical type are never interchangeable, so ALLOC gets no
		// shared value number (identityHash differentiates them when
		// used as an operand).
		return 0, false
	}

	h, _ := blake2b.New256(nil)
	h.Write([]byte{uint8(n.Op), uint8(n.Type.Kind)})

	switch n.Op {
	case ir.OpLit:
		binary.Write(h, binary.LittleEndian, ir.ExtractLiteralValue(n))
	case ir.OpAccess:
		aux, _ := n.Aux.(ir.AccessAux)
		binary.Write(h, binary.LittleEndian, int64(aux.Selector))
	}

	operands := make([]uint64, 0, len(n.Inputs))
	for _, in := range n.Inputs {
		ivn, ok := c.valueNumber(in)
		if !ok {
			// An ineligible operand (e.g. a structural node) still
			// needs a stable identity contribution: fall back to its
			// pointer identity so distinct such operands never
			// collide.
			ivn = identityHash(in)
		}
		operands = append(operands, ivn)
	}
	if commutativeOps[n.Op] {
		sort.Slice(operands, func(i, j int) bool { return operands[i] < operands[j] })
	}
	for _, o := range operands {
		binary.Write(h, binary.LittleEndian, o)
	}

	if isLoadOp(n.Op) && len(n.Inputs) > 0 {
		binary.Write(h, binary.LittleEndian, identityHash(allocRootOf(n.Inputs[0])))
	}

	return sum64(h), true
}

// identityHash gives an ineligible operand (one valueNumber refused to
// assign a value number to) a stable per-node hash input, so two
// distinct such operands never collide in a parent's value number.
func identityHash(n *ir.Node) uint64 {
	h, _ := blake2b.New256(nil)
	fmt.Fprintf(h, "%p", n)
	return sum64(h)
}

func sum64(h hash.Hash) uint64 {
	return binary.LittleEndian.Uint64(h.Sum(nil)[:8])
}

// allocRootOf walks ADDR_OF/PTR_ADD chains back toward an ALLOC, the
// same traversal tbaa.ConservativeResult uses, so two loads off
// identical chains land on the same location key.
func allocRootOf(n *ir.Node) *ir.Node {
	seen := make(map[*ir.Node]bool)
	for n != nil && !seen[n] {
		seen[n] = true
		switch n.Op {
		case ir.OpAlloc:
			return n
		case ir.OpAddrOf, ir.OpPtrAdd:
			if len(n.Inputs) == 0 {
				return nil
			}
			n = n.Inputs[0]
		default:
			return n
		}
	}
	return n
}
