// Package transform holds the two mandatory sample optimization
// passes — dead-code elimination and constant folding — plus the
// supplemental CSE and DSE passes, all as pass.TransformPass
// implementations.
package transform

import (
	"arcopt/internal/ir"
	"arcopt/internal/pass"
)

// DeadCodeElimination is a mark-and-sweep pass: it discovers root
// nodes (those with externally visible effects, or living in global
// scope), propagates liveness backward through use-def chains, then
// sweeps every node never marked alive. Grounded on arc's
// transform/dce.
type DeadCodeElimination struct {
	alive map[*ir.Node]bool
	dead  map[*ir.Node]bool
}

// NewDeadCodeElimination constructs a ready-to-run pass instance.
func NewDeadCodeElimination() *DeadCodeElimination {
	return &DeadCodeElimination{}
}

// Name identifies this pass for dependency declarations.
func (*DeadCodeElimination) Name() string { return "dead-code-elimination" }

// Require declares no dependencies: DCE needs only use-def edges,
// already present on every node.
func (*DeadCodeElimination) Require() []string { return nil }

// Invalidates reports no analyses yet named in this port; a future
// liveness-sensitive analysis would be listed here.
func (*DeadCodeElimination) Invalidates() []string { return nil }

// Run discovers and removes dead nodes across the module's root region
// and every registered function's body region, returning the set of
// regions actually modified.
func (d *DeadCodeElimination) Run(mod *ir.Module, _ *pass.Manager) []*ir.Region {
	d.alive = make(map[*ir.Node]bool)
	d.dead = make(map[*ir.Node]bool)

	d.findLiveNodes(mod.Root())
	for _, fn := range mod.Functions() {
		if fn.Op != ir.OpFunction {
			continue
		}
		if body := mod.FunctionRegion(fn); body != nil {
			d.findLiveNodes(body)
		}
	}

	d.findDeadNodes(mod.Root())
	return d.removeDeadNodes()
}

// findLiveNodes marks every root node reachable from region (including
// its subtree) alive, then propagates liveness backward through each
// alive node's inputs.
func (d *DeadCodeElimination) findLiveNodes(region *ir.Region) {
	if region == nil {
		return
	}

	var worklist []*ir.Node
	regionWorklist := []*ir.Region{region}
	for len(regionWorklist) > 0 {
		n := len(regionWorklist) - 1
		current := regionWorklist[n]
		regionWorklist = regionWorklist[:n]

		for _, node := range current.Nodes() {
			if isRootNode(node) && !d.alive[node] {
				d.alive[node] = true
				worklist = append(worklist, node)
			}
		}
		regionWorklist = append(regionWorklist, current.Children()...)
	}

	for len(worklist) > 0 {
		current := worklist[0]
		worklist = worklist[1:]
		for _, input := range current.Inputs {
			if input != nil && !d.alive[input] {
				d.alive[input] = true
				worklist = append(worklist, input)
			}
		}
	}
}

// findDeadNodes marks every node in region's subtree not already
// marked alive.
func (d *DeadCodeElimination) findDeadNodes(region *ir.Region) {
	if region == nil {
		return
	}
	worklist := []*ir.Region{region}
	for len(worklist) > 0 {
		n := len(worklist) - 1
		current := worklist[n]
		worklist = worklist[:n]

		for _, node := range current.Nodes() {
			if !d.alive[node] {
				d.dead[node] = true
			}
		}
		worklist = append(worklist, current.Children()...)
	}
}

// removeDeadNodes detaches every dead node from its inputs' user lists
// and from its parent region, returning the distinct regions touched.
func (d *DeadCodeElimination) removeDeadNodes() []*ir.Region {
	if len(d.dead) == 0 {
		return nil
	}

	modifiedSet := make(map[*ir.Region]bool)
	for node := range d.dead {
		for _, input := range node.Inputs {
			if input == nil {
				continue
			}
			for i, u := range input.Users {
				if u == node {
					input.Users = append(input.Users[:i], input.Users[i+1:]...)
					break
				}
			}
		}

		if parent := node.Parent; parent != nil {
			parent.Remove(node)
			modifiedSet[parent] = true
		}
	}

	modified := make([]*ir.Region, 0, len(modifiedSet))
	for r := range modifiedSet {
		modified = append(modified, r)
	}
	return modified
}

// isRootNode reports whether node must survive DCE regardless of
// whether anything consumes its result: global-scope nodes, structural
// nodes (ENTRY/FUNCTION/PARAM/EXIT/RET), control flow, side-effecting
// memory ops, calls (conservatively, absent a call graph), and any
// VOLATILE-tagged node.
func isRootNode(node *ir.Node) bool {
	if node == nil {
		return false
	}
	if isGlobalScope(node.Parent) {
		return true
	}

	switch node.Op {
	case ir.OpEntry, ir.OpFunction, ir.OpRet, ir.OpExit, ir.OpParam:
		return true
	case ir.OpBranch, ir.OpJump, ir.OpInvoke:
		return true
	case ir.OpStore, ir.OpPtrStore, ir.OpAtomicStore, ir.OpAtomicCAS:
		return true
	case ir.OpCall:
		// Conservatively a root: precise removal of pure, unused calls
		// would need call-graph analysis this port doesn't have yet.
		return true
	}

	return node.Traits.Has(ir.TraitVolatile)
}

func isGlobalScope(region *ir.Region) bool {
	return region != nil && region.Parent() == nil
}
