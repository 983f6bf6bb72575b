package cp

import "context"

// Engine searches an Instance for a minimum-penalty feasible assignment.
//
// A deadline on ctx bounds the search: when it expires the best feasible
// assignment found so far is returned with Optimal unset. Cancelling ctx
// aborts the search and returns ctx.Err(). For identical instances the
// returned Result is identical across runs.
type Engine interface {
	Solve(ctx context.Context, instance Instance) (Result, error)
}

func NewBranchBoundEngine() Engine {
	return &branchBoundEngine{checkInterval: 1024}
}
