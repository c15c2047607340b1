package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegionAppendInsertOrder(t *testing.T) {
	m := NewModule("test")
	r := m.CreateRegion("body", nil)

	a := NewNode(OpLit, NewInt(Int32, 1))
	b := NewNode(OpLit, NewInt(Int32, 2))
	c := NewNode(OpLit, NewInt(Int32, 3))

	r.Append(a)
	r.Append(c)
	r.InsertBefore(c, b)

	require.Equal(t, []*Node{a, b, c}, r.Nodes())
	require.Same(t, r, a.Parent)
}

func TestRegionInsertAtFront(t *testing.T) {
	m := NewModule("test")
	r := m.CreateRegion("body", nil)

	a := NewNode(OpLit, NewInt(Int32, 1))
	b := NewNode(OpLit, NewInt(Int32, 2))
	r.Append(a)
	r.Insert(b)

	require.Equal(t, []*Node{b, a}, r.Nodes())
}

func TestRegionInsertAfter(t *testing.T) {
	m := NewModule("test")
	r := m.CreateRegion("body", nil)

	a := NewNode(OpLit, NewInt(Int32, 1))
	b := NewNode(OpLit, NewInt(Int32, 2))
	c := NewNode(OpLit, NewInt(Int32, 3))
	r.Append(a)
	r.Append(c)
	r.InsertAfter(a, b)

	require.Equal(t, []*Node{a, b, c}, r.Nodes())
}

func TestRegionRemoveDetachesParent(t *testing.T) {
	m := NewModule("test")
	r := m.CreateRegion("body", nil)

	a := NewNode(OpLit, NewInt(Int32, 1))
	r.Append(a)
	r.Remove(a)

	require.Empty(t, r.Nodes())
	require.Nil(t, a.Parent)
}

func TestRegionRemoveBulk(t *testing.T) {
	m := NewModule("test")
	r := m.CreateRegion("body", nil)

	a := NewNode(OpLit, NewInt(Int32, 1))
	b := NewNode(OpLit, NewInt(Int32, 2))
	c := NewNode(OpLit, NewInt(Int32, 3))
	r.Append(a)
	r.Append(b)
	r.Append(c)

	r.RemoveBulk([]*Node{a, c})
	require.Equal(t, []*Node{b}, r.Nodes())
	require.Nil(t, a.Parent)
	require.Nil(t, c.Parent)
}

func TestRegionReplaceRewiresConsumers(t *testing.T) {
	m := NewModule("test")
	r := m.CreateRegion("body", nil)

	old := NewNode(OpLit, NewInt(Int32, 1))
	repl := NewNode(OpLit, NewInt(Int32, 2))
	user := NewNode(OpAdd, NewInt(Int32, 0))
	user.AddInput(old)
	r.Append(old)

	ok := r.Replace(old, repl, true)
	require.True(t, ok)
	require.Equal(t, []*Node{repl}, r.Nodes())
	require.Contains(t, repl.Users, user)
	require.NotContains(t, old.Users, user)
}

func TestRegionIsTerminated(t *testing.T) {
	m := NewModule("test")
	r := m.CreateRegion("body", nil)

	require.False(t, r.IsTerminated())

	r.Append(NewNode(OpLit, NewInt(Int32, 1)))
	require.False(t, r.IsTerminated())

	ret := NewNode(OpRet, NewVoid())
	r.Append(ret)
	require.True(t, r.IsTerminated())
}

func TestRegionDominatesViaTree(t *testing.T) {
	m := NewModule("test")
	outer := m.CreateRegion("outer", nil)
	inner := m.CreateRegion("inner", outer)

	require.True(t, outer.DominatesViaTree(inner))
	require.True(t, inner.DominatesViaTree(inner))
	require.False(t, inner.DominatesViaTree(outer))
}

func TestRegionDominatesDetectsOutsideJump(t *testing.T) {
	m := NewModule("test")
	outer := m.CreateRegion("outer", nil)
	inner := m.CreateRegion("inner", outer)
	elsewhere := m.CreateRegion("elsewhere", nil)

	jump := NewNode(OpJump, NewVoid())
	jump.Aux = JumpTarget{Target: inner}
	elsewhere.Append(jump)

	require.True(t, outer.DominatesViaTree(inner))
	require.False(t, outer.Dominates(inner))
}
