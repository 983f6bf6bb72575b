package cp

import (
	"context"
	"slices"
)

// branchBoundEngine is a depth-first branch-and-bound search. Variables are
// expanded most-constrained-first (stable on variable index), options in
// domain order. Since option penalties and the cross penalty are
// non-negative, the partial penalty is an admissible lower bound and any
// branch reaching the incumbent cost can be cut.
type branchBoundEngine struct {
	checkInterval uint64 // nodes between context polls
}

type bbSearch struct {
	instance *Instance
	ctx      context.Context

	order    []int // variables in expansion order
	choice   []int // chosen option index per variable, -1 when unassigned
	counters []int

	found       bool
	best        []int
	bestPenalty float64

	nodes         uint64
	checkInterval uint64
	timedOut      bool
	cancelled     bool
}

func (e *branchBoundEngine) Solve(ctx context.Context, instance Instance) (Result, error) {
	switch ctx.Err() {
	case nil:
	case context.DeadlineExceeded:
		return Result{}, nil
	default:
		return Result{}, ctx.Err()
	}

	variables := len(instance.Domains)
	if variables == 0 {
		return Result{Choice: []int{}, Optimal: true}, nil
	}
	for _, domain := range instance.Domains {
		if len(domain) == 0 {
			return Result{Optimal: true}, nil
		}
	}

	order := make([]int, variables)
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return len(instance.Domains[a]) - len(instance.Domains[b])
	})

	choice := make([]int, variables)
	for i := range choice {
		choice[i] = -1
	}

	search := &bbSearch{
		instance:      &instance,
		ctx:           ctx,
		order:         order,
		choice:        choice,
		counters:      make([]int, len(instance.Caps)),
		checkInterval: e.checkInterval,
	}
	search.descend(0, 0)

	if search.cancelled {
		return Result{}, ctx.Err()
	}

	result := Result{Optimal: !search.timedOut}
	if search.found {
		result.Choice = search.best
		result.Penalty = search.bestPenalty
	}
	return result, nil
}

// descend assigns the depth-th variable in expansion order. It returns false
// when the search must stop (deadline or cancellation).
func (s *bbSearch) descend(depth int, partial float64) bool {
	if depth == len(s.order) {
		total := partial
		if s.instance.CrossPenalty != nil {
			total += s.instance.CrossPenalty(s.choice)
		}
		if !s.found || total < s.bestPenalty {
			s.found = true
			s.best = slices.Clone(s.choice)
			s.bestPenalty = total
		}
		return true
	}

	variable := s.order[depth]
	for option := range s.instance.Domains[variable] {
		s.nodes++
		if s.nodes%s.checkInterval == 0 {
			switch s.ctx.Err() {
			case nil:
			case context.DeadlineExceeded:
				s.timedOut = true
				return false
			default:
				s.cancelled = true
				return false
			}
		}

		next := partial + s.instance.Domains[variable][option].Penalty
		if s.found && next >= s.bestPenalty {
			continue
		}
		if s.conflicts(depth, variable, option) {
			continue
		}
		if !s.raiseCounters(variable, option) {
			continue
		}

		s.choice[variable] = option
		ok := s.descend(depth+1, next)
		s.choice[variable] = -1
		s.lowerCounters(variable, option)
		if !ok {
			return false
		}
	}
	return true
}

func (s *bbSearch) conflicts(depth, variable, option int) bool {
	if s.instance.Conflict == nil {
		return false
	}
	for i := range depth {
		assigned := s.order[i]
		if s.instance.Conflict(variable, option, assigned, s.choice[assigned]) {
			return true
		}
	}
	return false
}

// raiseCounters increments the option's counters and reports whether every
// cap still holds; on a violation all increments are rolled back.
func (s *bbSearch) raiseCounters(variable, option int) bool {
	if s.instance.Counters == nil {
		return true
	}
	ids := s.instance.Counters(variable, option)
	for i, id := range ids {
		s.counters[id]++
		if s.counters[id] > s.instance.Caps[id] {
			for _, undo := range ids[:i+1] {
				s.counters[undo]--
			}
			return false
		}
	}
	return true
}

func (s *bbSearch) lowerCounters(variable, option int) {
	if s.instance.Counters == nil {
		return
	}
	for _, id := range s.instance.Counters(variable, option) {
		s.counters[id]--
	}
}
