package pass

import (
	"golang.org/x/sync/errgroup"

	"arcopt/internal/ir"
)

// RegionPartitioner proves, for a set of transforms about to run in
// the same batch, that each transform's writes are confined to a
// disjoint set of regions. When it reports true, RunBatch gives each
// transform its own goroutine instead of serializing them.
type RegionPartitioner func(transforms []TransformPass) bool

// RunBatch executes one task-graph batch: every analysis in batch runs
// concurrently under a single errgroup.Group (analyses are read-only,
// so concurrent execution is always safe once their dependencies are
// satisfied). Transforms run serially unless partitioner reports the
// batch's transforms write disjoint region sets, in which case they
// also run concurrently. Invalidation is applied once, after every
// goroutine in the batch has returned, preserving the single-writer
// discipline §5 requires.
func (m *Manager) RunBatch(mod *ir.Module, batch []Pass, partitioner RegionPartitioner) error {
	for _, p := range batch {
		if err := m.validateDependencies(p); err != nil {
			return err
		}
	}

	var analyses []AnalysisPass
	var transforms []TransformPass
	for _, p := range batch {
		switch tp := p.(type) {
		case AnalysisPass:
			analyses = append(analyses, tp)
		case TransformPass:
			transforms = append(transforms, tp)
		}
	}

	if err := m.runAnalysesConcurrently(mod, analyses); err != nil {
		return err
	}
	return m.runTransforms(mod, transforms, partitioner)
}

func (m *Manager) runAnalysesConcurrently(mod *ir.Module, analyses []AnalysisPass) error {
	results := make([]Analysis, len(analyses))
	var g errgroup.Group
	for i, a := range analyses {
		if _, ok := m.analyses[a.Name()]; ok {
			continue
		}
		i, a := i, a
		g.Go(func() error {
			results[i] = a.Run(mod)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i, a := range analyses {
		if results[i] != nil {
			m.analyses[a.Name()] = results[i]
		}
	}
	return nil
}

func (m *Manager) runTransforms(mod *ir.Module, transforms []TransformPass, partitioner RegionPartitioner) error {
	var modified []*ir.Region
	var invalidates []string

	disjoint := len(transforms) > 1 && partitioner != nil && partitioner(transforms)
	if disjoint {
		results := make([][]*ir.Region, len(transforms))
		var g errgroup.Group
		for i, tp := range transforms {
			i, tp := i, tp
			g.Go(func() error {
				results[i] = tp.Run(mod, m)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		for i, tp := range transforms {
			modified = append(modified, results[i]...)
			invalidates = append(invalidates, tp.Invalidates()...)
		}
	} else {
		for _, tp := range transforms {
			modified = append(modified, tp.Run(mod, m)...)
			invalidates = append(invalidates, tp.Invalidates()...)
		}
	}

	m.invalidateAnalyses(modified, invalidates)
	return nil
}
