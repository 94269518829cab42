// Package specialist defines the domain specialist port, the factory
// catalog, and the live registry consulted by the orchestrator.
package specialist

import (
	"context"

	"github.com/Strob0t/Principal/internal/assess"
	"github.com/Strob0t/Principal/internal/domain/analysis"
	"github.com/Strob0t/Principal/internal/domain/request"
)

// Specialist analyzes requests for one domain.
type Specialist interface {
	// Name returns the domain tag (e.g. "financial"). It keys results.
	Name() string

	// RequestType returns the request type this specialist serves.
	RequestType() request.Type

	// Rubric returns the rubric its results are scored against.
	Rubric() assess.Rubric

	// Analyze produces a result for req. Implementations should honor ctx
	// cancellation; results returned after cancellation are discarded.
	Analyze(ctx context.Context, req *request.Request) (*analysis.Result, error)
}

// Initializer is implemented by specialists that need warm-up before
// serving requests.
type Initializer interface {
	Init(ctx context.Context) error
}
