package taskgraph

import (
	"arcopt/internal/ir"
	"arcopt/internal/pass"
)

// Executor runs a precomputed batch schedule against a module. It owns
// a pass.Manager so dependency validation, analysis caching and
// invalidation remain exactly the Manager's semantics; Executor only
// decides in what order and how concurrently to call into it.
type Executor struct {
	policy      ExecutionPolicy
	batches     [][]pass.Pass
	partitioner pass.RegionPartitioner
	mgr         *pass.Manager
}

// Manager exposes the underlying pass.Manager, e.g. for pass.Get after
// Run completes.
func (e *Executor) Manager() *pass.Manager { return e.mgr }

// Batches returns the batch schedule as pass names, mirroring
// Graph.ExecutionBatches for a run that already built its Executor.
func (e *Executor) Batches() [][]string {
	out := make([][]string, len(e.batches))
	for i, batch := range e.batches {
		names := make([]string, len(batch))
		for j, p := range batch {
			names[j] = p.Name()
		}
		out[i] = names
	}
	return out
}

// Run drives every batch against mod in schedule order. Under
// Sequential, each pass in a batch runs one at a time. Under Parallel,
// each batch is handed to pass.Manager.RunBatch.
func (e *Executor) Run(mod *ir.Module) error {
	for _, batch := range e.batches {
		if e.policy == Sequential {
			for _, p := range batch {
				if err := e.mgr.RunOne(mod, p); err != nil {
					return err
				}
			}
			continue
		}
		if err := e.mgr.RunBatch(mod, batch, e.partitioner); err != nil {
			return err
		}
	}
	return nil
}
