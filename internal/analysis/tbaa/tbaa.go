// Package tbaa provides a conservative type-based alias analysis,
// the query interface spec.md's external collaborators (cse, dse) are
// allowed to assume is registered under the name
// "type-based-alias-analysis". Grounded on the query shape implied by
// original_source/include/arc/transform/{cse,dse}.hpp, which consume a
// TypeBasedAliasResult but whose own implementation wasn't retrieved.
package tbaa

import (
	"arcopt/internal/ir"
	"arcopt/internal/pass"
)

// AliasKind classifies the relationship between two memory-touching
// nodes' addresses.
type AliasKind int

const (
	// NoAlias means the two addresses provably never overlap.
	NoAlias AliasKind = iota
	// MayAlias means the analysis can't prove either way.
	MayAlias
	// MustAlias means the two addresses are provably identical.
	MustAlias
)

func (k AliasKind) String() string {
	switch k {
	case NoAlias:
		return "no-alias"
	case MustAlias:
		return "must-alias"
	default:
		return "may-alias"
	}
}

// Result is the cached analysis: the query surface every TBAA-gated
// transform (cse, dse) calls through.
type Result interface {
	Query(a, b *ir.Node) AliasKind
}

// ConservativeAnalysis computes must-alias only for two memory
// operations whose address operand is the same node rooted at an ALLOC
// (node types are not compared), no-alias when both addresses trace to
// distinct ALLOC roots
// that never had their address taken (ADDR_OF), and may-alias
// otherwise — the safe default every consumer may assume is present.
type ConservativeAnalysis struct{}

// NewConservativeAnalysis constructs the bundled default TBAA pass.
func NewConservativeAnalysis() *ConservativeAnalysis {
	return &ConservativeAnalysis{}
}

// Name identifies this pass for dependency declarations.
func (*ConservativeAnalysis) Name() string { return "type-based-alias-analysis" }

// Require declares no dependencies.
func (*ConservativeAnalysis) Require() []string { return nil }

// Run computes a ConservativeResult snapshot of the module's current
// ALLOC-rooted addresses.
func (*ConservativeAnalysis) Run(mod *ir.Module) pass.Analysis {
	r := &ConservativeResult{escaped: make(map[*ir.Node]bool)}
	r.scan(mod.Root())
	for _, fn := range mod.Functions() {
		if body := mod.FunctionRegion(fn); body != nil {
			r.scan(body)
		}
	}
	return r
}

// ConservativeResult is the cached analysis ConservativeAnalysis
// produces.
type ConservativeResult struct {
	// escaped marks every ALLOC node that had its address taken via
	// ADDR_OF: once escaped, two addresses rooted at it can no longer
	// be proven disjoint from an arbitrary other pointer.
	escaped map[*ir.Node]bool
}

func (r *ConservativeResult) scan(region *ir.Region) {
	if region == nil {
		return
	}
	for _, n := range region.Nodes() {
		if n.Op == ir.OpAddrOf && len(n.Inputs) > 0 {
			if root := allocRoot(n.Inputs[0]); root != nil {
				r.escaped[root] = true
			}
		}
	}
	for _, child := range region.Children() {
		r.scan(child)
	}
}

// Query classifies a and b's address relationship. A node queried
// against itself is MustAlias; otherwise non-memory-op nodes, or
// addresses that don't trace back to a single ALLOC root, are MayAlias.
func (r *ConservativeResult) Query(a, b *ir.Node) AliasKind {
	if a == nil || b == nil {
		return MayAlias
	}
	if a == b {
		return MustAlias
	}

	rootA := addressRoot(a)
	rootB := addressRoot(b)
	if rootA == nil || rootB == nil {
		return MayAlias
	}

	if rootA == rootB {
		if sameAccessPath(a, b) {
			return MustAlias
		}
		return MayAlias
	}

	if r.escaped[rootA] || r.escaped[rootB] {
		return MayAlias
	}
	return NoAlias
}

// Update reports that a conservative result has no incremental repair
// rule: any region mutation forces full recomputation.
func (r *ConservativeResult) Update([]*ir.Region) bool { return false }

// addressRoot returns the address operand of a memory-touching node
// (LOAD/STORE/PTR_LOAD/PTR_STORE/ATOMIC_*), traced back to its ALLOC
// root.
func addressRoot(n *ir.Node) *ir.Node {
	switch n.Op {
	case ir.OpLoad, ir.OpStore, ir.OpPtrLoad, ir.OpPtrStore,
		ir.OpAtomicLoad, ir.OpAtomicStore, ir.OpAtomicCAS:
		if len(n.Inputs) == 0 {
			return nil
		}
		return allocRoot(n.Inputs[0])
	default:
		return nil
	}
}

// allocRoot walks ADDR_OF/PTR_ADD chains back to the originating
// ALLOC node.
func allocRoot(n *ir.Node) *ir.Node {
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
			return nil
		}
	}
	return nil
}

// sameAccessPath reports whether two memory ops addressing the same
// ALLOC root reach it via an identical chain of inputs, i.e. truly the
// same address rather than merely the same root object.
func sameAccessPath(a, b *ir.Node) bool {
	if len(a.Inputs) == 0 || len(b.Inputs) == 0 {
		return false
	}
	return a.Inputs[0] == b.Inputs[0]
}
