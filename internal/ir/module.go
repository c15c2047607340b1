package ir

import "github.com/google/uuid"

// Module is the root of ownership: it transitively owns all regions,
// nodes, typed values and string storage reachable from it. Node and
// Region pointers are stable for the module's lifetime.
type Module struct {
	// ID tags each module with a run-local identifier, so CLI output
	// and logs from a pipeline run can be correlated the way most of
	// the retrieval pack's server-shaped repos tag a request id.
	ID uuid.UUID

	name    string
	nameId  StringId
	strings *StringTable

	root   *Region
	rodata *Region
	// regions holds every region ever created by this module,
	// including root and rodata, for Contains/AllRegions queries.
	regions []*Region

	functions []*Node
}

// NewModule constructs a module named name, with its root ".__global"
// and read-only-data ".__rodata" regions already created.
func NewModule(name string) *Module {
	m := &Module{
		ID:      uuid.New(),
		strings: NewStringTable(),
	}
	m.nameId = m.strings.Intern(name)
	m.name = name

	m.root = newRegion(".__global", m, nil)
	m.rodata = newRegion(".__rodata", m, nil)
	m.regions = append(m.regions, m.root, m.rodata)
	return m
}

// Name returns the module's name.
func (m *Module) Name() string { return m.name }

// Root returns the module's root (global scope) region.
func (m *Module) Root() *Region { return m.root }

// Rodata returns the module's read-only-data region.
func (m *Module) Rodata() *Region { return m.rodata }

// Strings returns the module's string interner.
func (m *Module) Strings() *StringTable { return m.strings }

// AllRegions returns every region owned by this module, in creation
// order (root and rodata included).
func (m *Module) AllRegions() []*Region { return m.regions }

// CreateRegion constructs a new region owned by this module. If parent
// is nil, the new region's parent defaults to the root region.
func (m *Module) CreateRegion(name string, parent *Region) *Region {
	if parent == nil {
		parent = m.root
	}
	r := newRegion(name, m, parent)
	parent.AddChild(r)
	m.regions = append(m.regions, r)
	return r
}

// FindFn looks up a registered function by name, using interned-string
// id equality. Returns nil if not found.
func (m *Module) FindFn(name string) *Node {
	id := m.strings.Intern(name)
	for _, fn := range m.functions {
		if fn.NameId == id {
			return fn
		}
	}
	return nil
}

// AddFn registers fn as a function of this module. fn must have
// Op == OpFunction; registering the same function twice is a no-op.
func (m *Module) AddFn(fn *Node) {
	if fn == nil || fn.Op != OpFunction {
		return
	}
	if m.ContainsFn(fn) {
		return
	}
	m.functions = append(m.functions, fn)
}

// AddRodata appends node to the module's read-only-data region.
func (m *Module) AddRodata(node *Node) {
	if node == nil {
		return
	}
	m.rodata.Append(node)
}

// InternStr interns str into this module's string table.
func (m *Module) InternStr(str string) StringId {
	return m.strings.Intern(str)
}

// ContainsFn reports whether fn is registered with this module.
func (m *Module) ContainsFn(fn *Node) bool {
	if fn == nil {
		return false
	}
	for _, f := range m.functions {
		if f == fn {
			return true
		}
	}
	return false
}

// ContainsRegion reports whether region is owned by this module.
func (m *Module) ContainsRegion(region *Region) bool {
	if region == nil {
		return false
	}
	for _, r := range m.regions {
		if r == region {
			return true
		}
	}
	return false
}

// Functions returns every registered function node.
func (m *Module) Functions() []*Node { return m.functions }

// FunctionRegion returns the region whose name matches fn's interned
// name and whose parent is the module's root, or nil. Transform passes
// that need "the body of this function region" (DCE, lowering) use
// this instead of threading the mapping through construction.
func (m *Module) FunctionRegion(fn *Node) *Region {
	if fn == nil {
		return nil
	}
	name, err := m.strings.Get(fn.NameId)
	if err != nil {
		return nil
	}
	for _, child := range m.root.children {
		if child.name == name {
			return child
		}
	}
	return nil
}
