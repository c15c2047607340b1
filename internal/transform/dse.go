package transform

import (
	"arcopt/internal/analysis/tbaa"
	"arcopt/internal/ir"
	"arcopt/internal/pass"
)

// observingOps are every opcode that could observe a prior store's
// value: a load of any kind, a call (which may read anything through
// an escaped pointer), or an atomic (which both reads and writes).
var observingOps = map[ir.Opcode]bool{
	ir.OpLoad: true, ir.OpPtrLoad: true, ir.OpCall: true,
	ir.OpAtomicLoad: true, ir.OpAtomicStore: true, ir.OpAtomicCAS: true,
}

func isStoreOp(op ir.Opcode) bool {
	return op == ir.OpStore || op == ir.OpPtrStore
}

// DeadStoreElimination removes a store provably overwritten by a later
// store to the same location before anything observes the earlier
// value. Grounded on original_source/include/arc/transform/dse.hpp.
type DeadStoreElimination struct {
	alias tbaa.Result
}

// NewDeadStoreElimination constructs a ready-to-run pass instance.
func NewDeadStoreElimination() *DeadStoreElimination {
	return &DeadStoreElimination{}
}

// Name identifies this pass for dependency declarations.
func (*DeadStoreElimination) Name() string { return "dse" }

// Require declares a dependency on the cached TBAA result, consulted
// to group stores by MustAlias location.
func (*DeadStoreElimination) Require() []string {
	return []string{"type-based-alias-analysis"}
}

// Invalidates reports no invalidated analyses: removing a store that
// had no observable reader changes no alias facts for anything else.
func (*DeadStoreElimination) Invalidates() []string { return nil }

// Run processes every function region of mod in reverse program order,
// returning the regions a dead store was actually removed from.
func (d *DeadStoreElimination) Run(mod *ir.Module, mgr *pass.Manager) []*ir.Region {
	d.alias = nil
	if mgr != nil {
		if result, err := pass.Get[*tbaa.ConservativeResult](mgr); err == nil {
			d.alias = result
		}
	}

	modified := make(map[*ir.Region]bool)
	for _, fn := range mod.Functions() {
		if body := mod.FunctionRegion(fn); body != nil {
			d.processRegion(body, modified)
		}
	}

	out := make([]*ir.Region, 0, len(modified))
	for r := range modified {
		out = append(out, r)
	}
	return out
}

func (d *DeadStoreElimination) processRegion(region *ir.Region, modified map[*ir.Region]bool) {
	if region == nil {
		return
	}

	if d.alias == nil {
		for _, child := range region.Children() {
			d.processRegion(child, modified)
		}
		return
	}

	nodes := region.Nodes()
	// liveStore holds, for each MustAlias group discovered so far
	// walking backward, the nearest-in-the-future store to it; a store
	// reached while its group already has a liveStore entry (and no
	// observing op intervened since that entry was recorded) is dead.
	var liveStores []*ir.Node
	var dead []*ir.Node

	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]

		if observingOps[n.Op] {
			liveStores = d.dropAliasing(liveStores, n)
			continue
		}

		if !isStoreOp(n.Op) {
			continue
		}

		if later := d.findMustAlias(liveStores, n); later != nil {
			dead = append(dead, n)
			continue
		}

		liveStores = append(liveStores, n)
	}

	if len(dead) > 0 {
		region.RemoveBulk(dead)
		for _, n := range dead {
			unlinkInputs(n)
		}
		modified[region] = true
	}

	for _, child := range region.Children() {
		d.processRegion(child, modified)
	}
}

// findMustAlias returns the first tracked store in liveStores that is
// provably the same location as store, or nil.
func (d *DeadStoreElimination) findMustAlias(liveStores []*ir.Node, store *ir.Node) *ir.Node {
	for _, tracked := range liveStores {
		if d.alias.Query(tracked, store) == tbaa.MustAlias {
			return tracked
		}
	}
	return nil
}

// dropAliasing removes any tracked store the observing node n could
// read (anything but NoAlias), since a later overwrite of that
// location is no longer provably dead once something in between might
// have observed it.
func (d *DeadStoreElimination) dropAliasing(liveStores []*ir.Node, n *ir.Node) []*ir.Node {
	if n.Op == ir.OpCall {
		// A call may read through any escaped pointer: conservatively
		// treat every tracked store as potentially observed.
		return nil
	}
	kept := liveStores[:0]
	for _, tracked := range liveStores {
		if d.alias.Query(tracked, n) == tbaa.NoAlias {
			kept = append(kept, tracked)
		}
	}
	return kept
}

// unlinkInputs clears the user edges a removed store held on its
// operands, matching how DeadCodeElimination leaves no dangling
// bidirectional edges behind.
func unlinkInputs(n *ir.Node) {
	for _, in := range n.Inputs {
		if in == nil {
			continue
		}
		for i, u := range in.Users {
			if u == n {
				in.Users = append(in.Users[:i], in.Users[i+1:]...)
				break
			}
		}
	}
}
