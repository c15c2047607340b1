package taskgraph

import "github.com/pkg/errors"

// ErrUnknownDependency is wrapped with the pass/dependency pair when a
// pass's Require() names a pass never added to the graph.
var ErrUnknownDependency = errors.New("taskgraph: pass depends on unknown pass")

// ErrCycle is wrapped with the edge that closed the cycle.
var ErrCycle = errors.New("taskgraph: circular dependency detected")
