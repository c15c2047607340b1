// Package pass defines the optimization/analysis pass contract and a
// sequential executor for it, grounded on arc's foundation/pass-manager.
package pass

import "arcopt/internal/ir"

// Analysis is the cached result of an AnalysisPass. Update is called
// when a transform's Invalidates() list names this analysis: modified
// is the set of regions the transform touched. Returning true means
// the analysis repaired itself in place and remains valid; returning
// false evicts it from the cache, forcing the next dependent pass to
// recompute it from scratch.
type Analysis interface {
	Update(modified []*ir.Region) bool
}

// Pass is the common surface of AnalysisPass and TransformPass: a name
// used for registry/caching/dependency lookups, and the list of
// analyses it requires to already be cached before it runs.
type Pass interface {
	Name() string
	Require() []string
}

// AnalysisPass computes an Analysis from a module's current state. Its
// result is cached by Name() until a transform's Invalidates() list
// names it and its Update reports false.
type AnalysisPass interface {
	Pass
	Run(mod *ir.Module) Analysis
}

// TransformPass mutates a module and reports which regions it touched,
// plus which cached analyses that mutation may have invalidated.
type TransformPass interface {
	Pass
	Invalidates() []string
	Run(mod *ir.Module, mgr *Manager) []*ir.Region
}
