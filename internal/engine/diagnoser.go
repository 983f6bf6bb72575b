package engine

// Diagnoser proposes relaxations that would likely restore feasibility after
// a failed validation or solve. The hints are advisory and heuristic, not
// guaranteed minimal or unique; callers present them to a human and never
// apply them automatically.
type Diagnoser interface {
	Diagnose(input SchedulingInput, errors []ValidationError) Diagnostics
}

func NewDiagnoser() Diagnoser {
	return &diagnoserImplementation{}
}
