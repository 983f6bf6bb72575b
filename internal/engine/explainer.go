package engine

// Explainer derives one human-readable justification per assignment:
// the chosen room, timeslot set and pattern, plus the constraints and
// preferences that most influenced the choice. Output is deterministic for
// a fixed solution; no randomness, no external calls.
type Explainer interface {
	Explain(solution *Solution, input SchedulingInput) []string
}

func NewExplainer() Explainer {
	return &explainerImplementation{}
}
