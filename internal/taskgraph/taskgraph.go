// Package taskgraph builds a dependency-aware execution schedule for a
// set of passes, grounded on arc's foundation/taskgraph: passes become
// nodes, Require() edges are resolved into a DAG, and Kahn's algorithm
// groups the DAG into ready-to-run batches, analyses sorted ahead of
// transforms within each batch and ties broken lexicographically for a
// deterministic schedule.
package taskgraph

import (
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"

	"arcopt/internal/pass"
)

// ExecutionPolicy chooses how Executor.Run drives each batch.
type ExecutionPolicy int

const (
	// Sequential runs every pass in a batch one at a time, in the
	// batch's deterministic order.
	Sequential ExecutionPolicy = iota
	// Parallel hands each batch to pass.Manager.RunBatch, which runs
	// analyses concurrently and transforms concurrently too when a
	// RegionPartitioner proves them disjoint.
	Parallel
)

type taskNode struct {
	p            pass.Pass
	name         string
	dependencies []string
	dependsOn    []*taskNode
	dependents   []*taskNode
	inDegree     int
}

// Graph is a dependency-aware collection of passes not yet ordered
// into an execution sequence.
type Graph struct {
	nodes  []*taskNode
	byName map[string]*taskNode
}

// NewGraph constructs an empty Graph.
func NewGraph() *Graph {
	return &Graph{byName: make(map[string]*taskNode)}
}

// Add registers p as a node of the graph and returns g, so calls
// chain.
func (g *Graph) Add(p pass.Pass) *Graph {
	n := &taskNode{p: p, name: p.Name(), dependencies: p.Require()}
	g.byName[n.name] = n
	g.nodes = append(g.nodes, n)
	return g
}

// PassCount returns the number of passes registered.
func (g *Graph) PassCount() int { return len(g.nodes) }

// Validate checks that every declared dependency resolves to a pass
// registered in this graph, then checks for cycles.
func (g *Graph) Validate() error {
	known := maps.Keys(g.byName)
	for _, n := range g.nodes {
		for _, dep := range n.dependencies {
			if _, ok := g.byName[dep]; !ok {
				return errors.Wrapf(ErrUnknownDependency, "pass %q depends on %q (registered passes: %v)", n.name, dep, known)
			}
		}
	}
	g.buildDependencies()
	return g.checkForCycles()
}

// buildDependencies (re)computes the depends_on/dependents edges and
// in-degree counts from each node's declared dependencies.
func (g *Graph) buildDependencies() {
	for _, n := range g.nodes {
		n.dependsOn = nil
		n.dependents = nil
		n.inDegree = 0
	}
	for _, n := range g.nodes {
		for _, dep := range n.dependencies {
			depNode, ok := g.byName[dep]
			if !ok {
				continue
			}
			depNode.dependents = append(depNode.dependents, n)
			n.dependsOn = append(n.dependsOn, depNode)
			n.inDegree++
		}
	}
}

func (g *Graph) checkForCycles() error {
	visited := make(map[*taskNode]bool, len(g.nodes))
	inStack := make(map[*taskNode]bool, len(g.nodes))

	var dfs func(n *taskNode) error
	dfs = func(n *taskNode) error {
		visited[n] = true
		inStack[n] = true
		for _, dependent := range n.dependents {
			if inStack[dependent] {
				return errors.Wrapf(ErrCycle, "%q -> %q", n.name, dependent.name)
			}
			if !visited[dependent] {
				if err := dfs(dependent); err != nil {
					return err
				}
			}
		}
		inStack[n] = false
		return nil
	}

	for _, n := range g.nodes {
		if !visited[n] {
			if err := dfs(n); err != nil {
				return err
			}
		}
	}
	return nil
}

// isAnalysis reports whether p satisfies pass.AnalysisPass, used to
// sort analyses ahead of transforms within a batch.
func isAnalysis(p pass.Pass) bool {
	_, ok := p.(pass.AnalysisPass)
	return ok
}

// computeExecutionBatches runs Kahn's algorithm: nodes with in-degree
// zero form the first batch, their dependents' in-degrees drop, and
// any dependent reaching zero joins the next batch. Each batch is
// sorted analyses-first, then lexicographically by name, for a
// deterministic schedule.
func (g *Graph) computeExecutionBatches() ([][]*taskNode, error) {
	g.buildDependencies()

	var ready []*taskNode
	for _, n := range g.nodes {
		if n.inDegree == 0 {
			ready = append(ready, n)
		}
	}

	var batches [][]*taskNode
	processed := 0
	for len(ready) > 0 {
		current := ready
		ready = nil
		for _, n := range current {
			processed++
			for _, dependent := range n.dependents {
				dependent.inDegree--
				if dependent.inDegree == 0 {
					ready = append(ready, dependent)
				}
			}
		}

		sort.SliceStable(current, func(i, j int) bool {
			ai, aj := isAnalysis(current[i].p), isAnalysis(current[j].p)
			if ai != aj {
				return ai
			}
			return current[i].name < current[j].name
		})
		batches = append(batches, current)
	}

	if processed != len(g.nodes) {
		return nil, ErrCycle
	}
	return batches, nil
}

// ExecutionBatches returns the computed schedule as pass names, for
// debugging/visualization (the `arcopt schedule` subcommand dumps
// this).
func (g *Graph) ExecutionBatches() ([][]string, error) {
	batches, err := g.computeExecutionBatches()
	if err != nil {
		return nil, err
	}
	out := make([][]string, len(batches))
	for i, batch := range batches {
		names := make([]string, len(batch))
		for j, n := range batch {
			names[j] = n.name
		}
		out[i] = names
	}
	return out, nil
}

// Build validates the graph and computes its batch schedule, then
// returns an Executor that drives pass.Manager according to policy.
// partitioner is consulted only under Parallel and may be nil.
func (g *Graph) Build(policy ExecutionPolicy, partitioner pass.RegionPartitioner) (*Executor, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	batches, err := g.computeExecutionBatches()
	if err != nil {
		return nil, err
	}
	passBatches := make([][]pass.Pass, len(batches))
	for i, batch := range batches {
		pb := make([]pass.Pass, len(batch))
		for j, n := range batch {
			pb[j] = n.p
		}
		passBatches[i] = pb
	}
	return &Executor{
		policy:      policy,
		batches:     passBatches,
		partitioner: partitioner,
		mgr:         pass.NewManager(),
	}, nil
}
