package transform_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"arcopt/internal/ir"
	"arcopt/internal/transform"
)

func TestDeadCodeEliminationRemovesUnusedPureNode(t *testing.T) {
	mod := ir.NewModule("test")
	fn := ir.NewNode(ir.OpFunction, ir.NewVoid())
	fn.NameId = mod.InternStr("compute")
	mod.AddFn(fn)

	body := mod.CreateRegion("compute", nil)
	dead := ir.NewNode(ir.OpLit, ir.NewInt(ir.Int32, 1))
	ret := ir.NewNode(ir.OpRet, ir.NewVoid())
	body.Append(dead)
	body.Append(ret)

	dce := transform.NewDeadCodeElimination()
	modified := dce.Run(mod, nil)

	require.NotEmpty(t, modified)
	require.Equal(t, []*ir.Node{ret}, body.Nodes())
}

func TestDeadCodeEliminationKeepsLiveChain(t *testing.T) {
	mod := ir.NewModule("test")
	fn := ir.NewNode(ir.OpFunction, ir.NewVoid())
	fn.NameId = mod.InternStr("compute")
	mod.AddFn(fn)

	body := mod.CreateRegion("compute", nil)
	lit := ir.NewNode(ir.OpLit, ir.NewInt(ir.Int32, 1))
	ret := ir.NewNode(ir.OpRet, ir.NewVoid())
	ret.AddInput(lit)
	body.Append(lit)
	body.Append(ret)

	dce := transform.NewDeadCodeElimination()
	dce.Run(mod, nil)

	require.Equal(t, []*ir.Node{lit, ret}, body.Nodes())
}

func TestDeadCodeEliminationPreservesVolatileNode(t *testing.T) {
	mod := ir.NewModule("test")
	body := mod.CreateRegion("unused_region", nil)

	volatileLit := ir.NewNode(ir.OpLit, ir.NewInt(ir.Int32, 1))
	volatileLit.Traits = ir.TraitVolatile
	body.Append(volatileLit)

	dce := transform.NewDeadCodeElimination()
	dce.Run(mod, nil)

	require.Equal(t, []*ir.Node{volatileLit}, body.Nodes())
}

func TestDeadCodeEliminationKeepsGlobalScopeNodesUnconditionally(t *testing.T) {
	mod := ir.NewModule("test")
	lit := ir.NewNode(ir.OpLit, ir.NewInt(ir.Int32, 1))
	mod.Root().Append(lit)

	dce := transform.NewDeadCodeElimination()
	dce.Run(mod, nil)

	require.Equal(t, []*ir.Node{lit}, mod.Root().Nodes())
}
