package cp

// Option is a single value in a variable's domain. Penalty is the additive
// cost of choosing it; it must be non-negative.
type Option struct {
	Penalty float64
}

// Instance is a discrete optimization problem: pick exactly one option per
// variable, subject to pairwise conflicts and counting caps, minimizing the
// sum of option penalties plus a cross-variable penalty evaluated on complete
// assignments.
type Instance struct {
	// Domains[v] lists the options of variable v in canonical order. The
	// engine never reorders a domain: options are tried in domain order and
	// the first equal-cost solution reached wins. Variables are expanded
	// smallest-domain-first with ties kept in variable order, so the winner
	// is fixed for a given instance.
	Domains [][]Option

	// Conflict reports whether options (v1, o1) and (v2, o2) may not appear
	// together. It must be symmetric and is only consulted for v1 != v2.
	// A nil Conflict means no pairwise constraints.
	Conflict func(v1, o1, v2, o2 int) bool

	// Counters maps a choice to the counter ids it increments (one increment
	// per id occurrence). Caps[c] is the maximum total for counter c in any
	// accepted assignment. A nil Counters means no counting constraints.
	Counters func(v, o int) []int
	Caps     []int

	// CrossPenalty is an additional non-negative cost evaluated on complete
	// assignments only (choice[v] is the chosen option index of variable v).
	// A nil CrossPenalty contributes zero.
	CrossPenalty func(choice []int) float64
}

// Result is the outcome of a search.
//
// Choice is nil when no feasible assignment was found. Optimal reports
// whether the search space was exhausted: a nil Choice with Optimal set means
// the instance is proven infeasible, while a nil Choice without Optimal means
// the deadline expired before any feasible assignment was reached.
type Result struct {
	Choice  []int
	Penalty float64
	Optimal bool
}
