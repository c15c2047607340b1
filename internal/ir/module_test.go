package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModuleCreatesGlobalAndRodataRegions(t *testing.T) {
	m := NewModule("prog")
	require.NotNil(t, m.Root())
	require.NotNil(t, m.Rodata())
	require.Equal(t, ".__global", m.Root().Name())
	require.Equal(t, ".__rodata", m.Rodata().Name())
	require.Contains(t, m.AllRegions(), m.Root())
	require.Contains(t, m.AllRegions(), m.Rodata())
}

func TestModuleCreateRegionDefaultsParentToRoot(t *testing.T) {
	m := NewModule("prog")
	r := m.CreateRegion("body", nil)
	require.Same(t, m.Root(), r.Parent())
	require.Contains(t, m.Root().Children(), r)
	require.True(t, m.ContainsRegion(r))
}

func TestModuleAddFnUniqueRegistration(t *testing.T) {
	m := NewModule("prog")
	fn := NewNode(OpFunction, NewVoid())
	fn.NameId = m.InternStr("main")

	m.AddFn(fn)
	m.AddFn(fn)

	require.Len(t, m.Functions(), 1)
	require.True(t, m.ContainsFn(fn))
}

func TestModuleFindFnByName(t *testing.T) {
	m := NewModule("prog")
	fn := NewNode(OpFunction, NewVoid())
	fn.NameId = m.InternStr("compute")
	m.AddFn(fn)

	found := m.FindFn("compute")
	require.Same(t, fn, found)
	require.Nil(t, m.FindFn("missing"))
}

func TestModuleFunctionRegionLooksUpByName(t *testing.T) {
	m := NewModule("prog")
	fn := NewNode(OpFunction, NewVoid())
	fn.NameId = m.InternStr("compute")
	m.AddFn(fn)

	body := m.CreateRegion("compute", nil)
	require.Same(t, body, m.FunctionRegion(fn))
}

func TestModuleAddRodataAppendsToRodataRegion(t *testing.T) {
	m := NewModule("prog")
	lit := NewNode(OpLit, NewInt(Int32, 42))
	m.AddRodata(lit)
	require.Contains(t, m.Rodata().Nodes(), lit)
}

func TestModuleInternStrIsSharedAcrossRegions(t *testing.T) {
	m := NewModule("prog")
	a := m.InternStr("shared")
	r := m.CreateRegion("shared", nil)
	require.Equal(t, a, r.nameId)
}
