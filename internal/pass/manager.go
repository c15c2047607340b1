package pass

import (
	"github.com/pkg/errors"

	"arcopt/internal/ir"
)

// Manager is a sequential pass executor: passes run in the order they
// were added, analysis results are cached by name until a transform's
// Invalidates() list names them and their Update reports false, and
// every pass's Require() list is
// checked against the cache before it runs.
//
// Unlike arc's PassManager, Manager holds no registry keyed separately
// from the analysis cache: Go interfaces make the double bookkeeping
// the C++ version needs (a pass_registry plus an analyses map)
// unnecessary, since re-adding a same-named AnalysisPass is already a
// no-op the moment Run finds it cached.
type Manager struct {
	analyses map[string]Analysis
	passes   []Pass
}

// NewManager constructs an empty Manager.
func NewManager() *Manager {
	return &Manager{analyses: make(map[string]Analysis)}
}

// Add appends p to the execution sequence and returns m, so calls
// chain the way arc's `pm.add<T>().add<T>()` does.
func (m *Manager) Add(p Pass) *Manager {
	m.passes = append(m.passes, p)
	return m
}

// PassCount returns the number of passes registered.
func (m *Manager) PassCount() int { return len(m.passes) }

// HasAnalysis reports whether an analysis named name is currently
// cached.
func (m *Manager) HasAnalysis(name string) bool {
	_, ok := m.analyses[name]
	return ok
}

// ClearAnalyses drops every cached analysis result.
func (m *Manager) ClearAnalyses() {
	m.analyses = make(map[string]Analysis)
}

// Run executes every registered pass against mod, in order. Analysis
// passes are skipped if already cached under their name; transform
// passes always run, and their Invalidates() list is consulted
// afterward to repair or evict cached analyses.
func (m *Manager) Run(mod *ir.Module) error {
	for _, p := range m.passes {
		if err := m.RunOne(mod, p); err != nil {
			return err
		}
	}
	return nil
}

// RunOne validates p's dependencies and executes it against mod: an
// AnalysisPass caches its result (skipped if already cached), a
// TransformPass always runs and its Invalidates() list is applied
// afterward. Exposed so taskgraph.Executor can drive one pass at a
// time under its own batch ordering, sharing the exact caching and
// invalidation semantics Run uses internally.
func (m *Manager) RunOne(mod *ir.Module, p Pass) error {
	if err := m.validateDependencies(p); err != nil {
		return err
	}
	switch tp := p.(type) {
	case TransformPass:
		modified := tp.Run(mod, m)
		m.invalidateAnalyses(modified, tp.Invalidates())
	case AnalysisPass:
		if _, ok := m.analyses[tp.Name()]; ok {
			return nil
		}
		m.analyses[tp.Name()] = tp.Run(mod)
	}
	return nil
}

func (m *Manager) validateDependencies(p Pass) error {
	for _, dep := range p.Require() {
		if _, ok := m.analyses[dep]; !ok {
			return errors.Wrapf(ErrMissingDependency, "pass %q requires analysis %q", p.Name(), dep)
		}
	}
	return nil
}

// invalidateAnalyses calls Update(modified) on every cached analysis
// named in names. An analysis that reports it repaired itself (true)
// stays cached; one that can't (false) is evicted.
func (m *Manager) invalidateAnalyses(modified []*ir.Region, names []string) {
	for _, name := range names {
		a, ok := m.analyses[name]
		if !ok {
			continue
		}
		if !a.Update(modified) {
			delete(m.analyses, name)
		}
	}
}

// Get returns the cached analysis assignable to T, or
// ErrAnalysisUnavailable if none is cached.
func Get[T Analysis](m *Manager) (T, error) {
	for _, a := range m.analyses {
		if result, ok := a.(T); ok {
			return result, nil
		}
	}
	var zero T
	return zero, ErrAnalysisUnavailable
}
