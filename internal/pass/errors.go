package pass

import "github.com/pkg/errors"

// ErrMissingDependency is wrapped with the pass/dependency name when a
// pass's Require() names an analysis that hasn't been run yet.
var ErrMissingDependency = errors.New("pass: missing required dependency")

// ErrAnalysisUnavailable is returned by Get when no cached analysis
// satisfies the requested type.
var ErrAnalysisUnavailable = errors.New("pass: analysis result not available")
