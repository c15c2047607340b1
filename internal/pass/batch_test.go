package pass_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"arcopt/internal/ir"
	"arcopt/internal/pass"
)

func TestRunBatchRunsAnalysesConcurrentlyAndCaches(t *testing.T) {
	var order []string
	mod := ir.NewModule("batch_module")
	mgr := pass.NewManager()

	batch := []pass.Pass{
		&mockAnalysisPass{order: &order},
	}
	require.NoError(t, mgr.RunBatch(mod, batch, nil))
	require.True(t, mgr.HasAnalysis("mock-analysis"))
}

func TestRunBatchSerializesTransformsWithoutPartitioner(t *testing.T) {
	var order []string
	mod := ir.NewModule("batch_module")
	mgr := pass.NewManager()

	require.NoError(t, mgr.RunOne(mod, &mockAnalysisPass{order: &order}))

	batch := []pass.Pass{
		&simpleTransformPass{order: &order},
		&simpleTransformPass{order: &order},
	}
	require.NoError(t, mgr.RunBatch(mod, batch, nil))
	require.Len(t, order, 3)
}

func TestRunBatchRunsDisjointTransformsConcurrentlyWhenPartitionerAllows(t *testing.T) {
	var order []string
	mod := ir.NewModule("batch_module")
	mgr := pass.NewManager()

	batch := []pass.Pass{
		&simpleTransformPass{order: &order},
		&simpleTransformPass{order: &order},
	}
	always := func(transforms []pass.TransformPass) bool { return true }
	require.NoError(t, mgr.RunBatch(mod, batch, always))
	require.Len(t, order, 2)
}
