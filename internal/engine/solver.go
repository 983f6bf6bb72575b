package engine

import (
	"context"

	"github.com/cwru-xlab/course-scheduler/internal/cp"
)

// Solver assigns a room and a timeslot set to every section, subject to the
// hard constraints, minimizing the weighted soft-constraint penalties.
//
// Locks passed to Solve are merged with the input's own locked assignments
// (the argument wins per section), so a re-solve under an updated lock set
// reuses the same model with the locked variables' domains shrunk to the
// pinned values. Solve never mutates its input; concurrent calls are safe.
//
// On joint infeasibility or on a budget expiring before any feasible
// assignment was found, Solve returns a *InfeasibleError: it never degrades
// a hard constraint to force a solution. Cancelling ctx aborts the solve
// with ctx.Err().
type Solver interface {
	Solve(ctx context.Context, input SchedulingInput, locks []LockedAssignment, softLocks []SoftLock) (*Solution, error)
}

func NewSolver(engine cp.Engine, config Config) Solver {
	return &cpSolver{engine: engine, config: config}
}
