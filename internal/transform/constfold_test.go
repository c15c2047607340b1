package transform_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"arcopt/internal/ir"
	"arcopt/internal/transform"
)

func TestConstantFoldingCascades(t *testing.T) {
	mod := ir.NewModule("test")
	body := mod.CreateRegion("compute", nil)

	l1 := ir.NewNode(ir.OpLit, ir.NewInt(ir.Int32, 3))
	l2 := ir.NewNode(ir.OpLit, ir.NewInt(ir.Int32, 4))
	add := ir.NewNode(ir.OpAdd, ir.NewInt(ir.Int32, 0))
	add.AddInput(l1)
	add.AddInput(l2)
	mul := ir.NewNode(ir.OpMul, ir.NewInt(ir.Int32, 0))
	mul.AddInput(add)
	mul.AddInput(l2)

	body.Append(l1)
	body.Append(l2)
	body.Append(add)
	body.Append(mul)

	cf := transform.NewConstantFolding()
	modified := cf.Run(mod, nil)
	require.NotEmpty(t, modified)

	nodes := body.Nodes()
	require.Len(t, nodes, 4)

	var addFolded, mulFolded *ir.Node
	for _, n := range nodes {
		if n == l1 || n == l2 {
			continue
		}
		if addFolded == nil {
			addFolded = n
		} else {
			mulFolded = n
		}
	}
	require.Equal(t, ir.OpLit, addFolded.Op)
	require.EqualValues(t, 7, addFolded.Type.Int())
	require.Equal(t, ir.OpLit, mulFolded.Op)
	require.EqualValues(t, 28, mulFolded.Type.Int())
}

func TestConstantFoldingSkipsDivisionByZero(t *testing.T) {
	mod := ir.NewModule("test")
	body := mod.CreateRegion("compute", nil)

	l1 := ir.NewNode(ir.OpLit, ir.NewInt(ir.Int32, 10))
	l2 := ir.NewNode(ir.OpLit, ir.NewInt(ir.Int32, 0))
	div := ir.NewNode(ir.OpDiv, ir.NewInt(ir.Int32, 0))
	div.AddInput(l1)
	div.AddInput(l2)

	body.Append(l1)
	body.Append(l2)
	body.Append(div)

	cf := transform.NewConstantFolding()
	cf.Run(mod, nil)

	require.Equal(t, div, body.Nodes()[2])
	require.Equal(t, ir.OpDiv, body.Nodes()[2].Op)
}

func TestConstantFoldingIsFixedPoint(t *testing.T) {
	mod := ir.NewModule("test")
	body := mod.CreateRegion("compute", nil)

	l1 := ir.NewNode(ir.OpLit, ir.NewInt(ir.Int32, 5))
	l2 := ir.NewNode(ir.OpLit, ir.NewInt(ir.Int32, 6))
	add := ir.NewNode(ir.OpAdd, ir.NewInt(ir.Int32, 0))
	add.AddInput(l1)
	add.AddInput(l2)
	body.Append(l1)
	body.Append(l2)
	body.Append(add)

	cf := transform.NewConstantFolding()
	cf.Run(mod, nil)
	firstPass := append([]*ir.Node(nil), body.Nodes()...)

	cf2 := transform.NewConstantFolding()
	modified := cf2.Run(mod, nil)

	require.Empty(t, modified)
	require.Equal(t, firstPass, body.Nodes())
}

func TestConstantFoldingMasksShiftAmount(t *testing.T) {
	mod := ir.NewModule("test")
	body := mod.CreateRegion("compute", nil)

	l1 := ir.NewNode(ir.OpLit, ir.NewInt(ir.Int32, 1))
	l2 := ir.NewNode(ir.OpLit, ir.NewInt(ir.Int32, 33)) // masked to 33%32 = 1
	shl := ir.NewNode(ir.OpBShl, ir.NewInt(ir.Int32, 0))
	shl.AddInput(l1)
	shl.AddInput(l2)
	body.Append(l1)
	body.Append(l2)
	body.Append(shl)

	cf := transform.NewConstantFolding()
	cf.Run(mod, nil)

	var folded *ir.Node
	for _, n := range body.Nodes() {
		if n != l1 && n != l2 {
			folded = n
		}
	}
	require.EqualValues(t, 2, folded.Type.Int())
}

func TestConstantFoldingBranchBecomesJump(t *testing.T) {
	mod := ir.NewModule("test")
	body := mod.CreateRegion("compute", nil)
	ifTrue := mod.CreateRegion("if_true", nil)
	ifFalse := mod.CreateRegion("if_false", nil)

	cond := ir.NewNode(ir.OpLit, ir.NewBool(true))
	branch := ir.NewNode(ir.OpBranch, ir.NewVoid())
	branch.AddInput(cond)
	branch.Aux = ir.BranchTargets{IfTrue: ifTrue, IfFalse: ifFalse}

	body.Append(cond)
	body.Append(branch)

	cf := transform.NewConstantFolding()
	cf.Run(mod, nil)

	nodes := body.Nodes()
	require.Equal(t, ir.OpJump, nodes[len(nodes)-1].Op)
	jt := nodes[len(nodes)-1].Aux.(ir.JumpTarget)
	require.Same(t, ifTrue, jt.Target)
}
