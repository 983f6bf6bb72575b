package engine

// Validator screens a SchedulingInput for conditions that make any solve
// attempt pointless. It is a pure function of its input: all failures are
// collected and returned together, never one at a time.
//
// The screening is deliberately conservative: an empty result does not
// guarantee the solver will find an assignment (joint constraints across
// sections can still conflict), but a non-empty result proves infeasibility.
type Validator interface {
	Validate(input SchedulingInput) []ValidationError
}

func NewValidator() Validator {
	return &validatorImplementation{}
}
