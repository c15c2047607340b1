package ir

import "golang.org/x/exp/slices"

// Region is an ordered container of nodes forming a lexical/control
// scope. Regions form a tree rooted at the owning Module's root and
// rodata regions (both of which have a nil Parent).
type Region struct {
	name     string
	nameId   StringId
	module   *Module
	parent   *Region
	children []*Region
	nodes    []*Node
}

// newRegion constructs a region owned by mod with the given parent
// (nil for the root/rodata regions).
func newRegion(name string, mod *Module, parent *Region) *Region {
	r := &Region{
		name:   name,
		module: mod,
		parent: parent,
	}
	if mod != nil {
		r.nameId = mod.Strings().Intern(name)
	}
	return r
}

// Name returns the region's name.
func (r *Region) Name() string { return r.name }

// Parent returns the parent region, or nil for the root/rodata regions.
func (r *Region) Parent() *Region { return r.parent }

// Module returns the module that owns this region.
func (r *Region) Module() *Module { return r.module }

// Children returns the region's child regions.
func (r *Region) Children() []*Region { return r.children }

// Nodes returns the region's nodes in order.
func (r *Region) Nodes() []*Node { return r.nodes }

// AddChild registers child as a child region of r.
func (r *Region) AddChild(child *Region) {
	r.children = append(r.children, child)
}

// Append adds node to the end of the region.
func (r *Region) Append(node *Node) {
	node.Parent = r
	r.nodes = append(r.nodes, node)
}

// Insert adds node at the front of the region.
func (r *Region) Insert(node *Node) {
	node.Parent = r
	r.nodes = append([]*Node{node}, r.nodes...)
}

// InsertBefore inserts node immediately before anchor. If anchor is not
// found, node is appended.
func (r *Region) InsertBefore(anchor, node *Node) {
	node.Parent = r
	idx := r.indexOf(anchor)
	if idx < 0 {
		r.nodes = append(r.nodes, node)
		return
	}
	r.nodes = append(r.nodes, nil)
	copy(r.nodes[idx+1:], r.nodes[idx:])
	r.nodes[idx] = node
}

// InsertAfter inserts node immediately after anchor. If anchor is not
// found, node is appended.
func (r *Region) InsertAfter(anchor, node *Node) {
	node.Parent = r
	idx := r.indexOf(anchor)
	if idx < 0 {
		r.nodes = append(r.nodes, node)
		return
	}
	pos := idx + 1
	r.nodes = append(r.nodes, nil)
	copy(r.nodes[pos+1:], r.nodes[pos:])
	r.nodes[pos] = node
}

func (r *Region) indexOf(node *Node) int {
	return slices.Index(r.nodes, node)
}

// Remove detaches node from the region. It does not touch
// inputs/users edges; callers that need the bidirectional-edge
// invariant restored (§3) must rewire or remove consumers separately,
// the way transform.DeadCodeElimination does.
func (r *Region) Remove(node *Node) {
	idx := r.indexOf(node)
	if idx < 0 {
		return
	}
	r.nodes = append(r.nodes[:idx], r.nodes[idx+1:]...)
	if node.Parent == r {
		node.Parent = nil
	}
}

// RemoveBulk removes every node in nodes from the region.
func (r *Region) RemoveBulk(nodes []*Node) {
	dead := make(map[*Node]bool, len(nodes))
	for _, n := range nodes {
		dead[n] = true
	}
	kept := r.nodes[:0]
	for _, n := range r.nodes {
		if dead[n] {
			if n.Parent == r {
				n.Parent = nil
			}
			continue
		}
		kept = append(kept, n)
	}
	r.nodes = kept
}

// Replace swaps old for newNode in the region's node list in place. If
// rewire is true, every consumer of old is additionally rewired onto
// newNode via UpdateAllConnections. Returns false if old isn't in this
// region.
func (r *Region) Replace(old, newNode *Node, rewire bool) bool {
	idx := r.indexOf(old)
	if idx < 0 {
		return false
	}
	newNode.Parent = r
	r.nodes[idx] = newNode
	if old.Parent == r {
		old.Parent = nil
	}
	if rewire {
		UpdateAllConnections(old, newNode)
	}
	return true
}

// isTerminator checks n against terminatorOpcodes, the set IsTerminated
// uses for the last node: ret, jump, branch, invoke.
func isTerminator(n *Node) bool {
	return n != nil && terminatorOpcodes[n.Op]
}

// IsTerminated reports whether the region's last node is a RET, JUMP,
// BRANCH, or INVOKE.
func (r *Region) IsTerminated() bool {
	if len(r.nodes) == 0 {
		return false
	}
	return isTerminator(r.nodes[len(r.nodes)-1])
}

// DominatesViaTree reports whether r dominates other using only
// region-tree ancestry: r dominates other iff r == other or r is an
// ancestor of other.
func (r *Region) DominatesViaTree(other *Region) bool {
	for cur := other; cur != nil; cur = cur.parent {
		if cur == r {
			return true
		}
	}
	return false
}

// HasUnstructuredJumpsTo scans r's nodes for a JUMP/BRANCH whose target
// is target, returning the first such node or nil.
func (r *Region) HasUnstructuredJumpsTo(target *Region) *Node {
	for _, n := range r.nodes {
		switch n.Op {
		case OpJump:
			if jt, ok := n.Aux.(JumpTarget); ok && jt.Target == target {
				return n
			}
		case OpBranch:
			if bt, ok := n.Aux.(BranchTargets); ok && (bt.IfTrue == target || bt.IfFalse == target) {
				return n
			}
		}
	}
	return nil
}

// Dominates is the finer dominance query: it agrees with
// DominatesViaTree except that an unstructured jump from a region
// inside r's subtree makes the dominance of the jump's target suspect
// in the caller's eyes. Per §3, "a finer dominates may additionally
// consult unstructured jumps" — this implementation keeps the tree
// relationship authoritative but reports non-domination when an
// unstructured jump enters other from outside r's subtree, since that
// jump is itself a path to other that never went through r.
func (r *Region) Dominates(other *Region) bool {
	if !r.DominatesViaTree(other) {
		return false
	}
	if r == other {
		return true
	}
	return !r.hasOutsideJumpTo(other, other.module.AllRegions())
}

func (r *Region) hasOutsideJumpTo(target *Region, all []*Region) bool {
	for _, candidate := range all {
		if r.DominatesViaTree(candidate) {
			continue
		}
		if candidate.HasUnstructuredJumpsTo(target) != nil {
			return true
		}
	}
	return false
}
