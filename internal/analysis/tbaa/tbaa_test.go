package tbaa_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"arcopt/internal/analysis/tbaa"
	"arcopt/internal/ir"
)

func TestConservativeAnalysisMustAliasSameAddress(t *testing.T) {
	mod := ir.NewModule("test")
	body := mod.CreateRegion("compute", nil)

	alloc := ir.NewNode(ir.OpAlloc, ir.TypedValue{Kind: ir.Int32})
	load1 := ir.NewNode(ir.OpLoad, ir.NewInt(ir.Int32, 0))
	load1.AddInput(alloc)
	load2 := ir.NewNode(ir.OpLoad, ir.NewInt(ir.Int32, 0))
	load2.AddInput(alloc)
	body.Append(alloc)
	body.Append(load1)
	body.Append(load2)

	analysis := tbaa.NewConservativeAnalysis()
	result := analysis.Run(mod).(*tbaa.ConservativeResult)

	require.Equal(t, tbaa.MustAlias, result.Query(load1, load2))
}

func TestConservativeAnalysisNoAliasDistinctAllocs(t *testing.T) {
	mod := ir.NewModule("test")
	body := mod.CreateRegion("compute", nil)

	allocA := ir.NewNode(ir.OpAlloc, ir.TypedValue{Kind: ir.Int32})
	allocB := ir.NewNode(ir.OpAlloc, ir.TypedValue{Kind: ir.Int32})
	loadA := ir.NewNode(ir.OpLoad, ir.NewInt(ir.Int32, 0))
	loadA.AddInput(allocA)
	loadB := ir.NewNode(ir.OpLoad, ir.NewInt(ir.Int32, 0))
	loadB.AddInput(allocB)
	body.Append(allocA)
	body.Append(allocB)
	body.Append(loadA)
	body.Append(loadB)

	analysis := tbaa.NewConservativeAnalysis()
	result := analysis.Run(mod).(*tbaa.ConservativeResult)

	require.Equal(t, tbaa.NoAlias, result.Query(loadA, loadB))
}

func TestConservativeAnalysisMayAliasAfterAddressEscapes(t *testing.T) {
	mod := ir.NewModule("test")
	body := mod.CreateRegion("compute", nil)

	allocA := ir.NewNode(ir.OpAlloc, ir.TypedValue{Kind: ir.Int32})
	allocB := ir.NewNode(ir.OpAlloc, ir.TypedValue{Kind: ir.Int32})
	addrOf := ir.NewNode(ir.OpAddrOf, ir.TypedValue{Kind: ir.Pointer})
	addrOf.AddInput(allocA)
	loadA := ir.NewNode(ir.OpLoad, ir.NewInt(ir.Int32, 0))
	loadA.AddInput(allocA)
	loadB := ir.NewNode(ir.OpLoad, ir.NewInt(ir.Int32, 0))
	loadB.AddInput(allocB)

	body.Append(allocA)
	body.Append(allocB)
	body.Append(addrOf)
	body.Append(loadA)
	body.Append(loadB)

	analysis := tbaa.NewConservativeAnalysis()
	result := analysis.Run(mod).(*tbaa.ConservativeResult)

	require.Equal(t, tbaa.MayAlias, result.Query(loadA, loadB))
}

func TestConservativeAnalysisUpdateAlwaysForcesRecompute(t *testing.T) {
	result := &tbaa.ConservativeResult{}
	require.False(t, result.Update(nil))
}
