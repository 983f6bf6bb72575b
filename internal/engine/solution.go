package engine

import (
	"fmt"
	"strings"
)

// Validation error codes form a stable machine-readable taxonomy.
const (
	CodeCrossListCapacity = "crosslist_capacity"
	CodeNoFeasibleRoom    = "no_feasible_room"
	CodeNoFeasibleSlot    = "no_feasible_timeslot"
	CodeDanglingReference = "dangling_reference"
	CodeNoFeasibleOptions = "no_feasible_options"
	CodeInfeasible        = "infeasible"
	CodeTimeout           = "timeout"
)

type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// InfeasibleError is returned by the solver when no assignment satisfies
// every hard constraint, or when the budget expired before one was found.
// Errors carries per-section detail where the failing constraint family is
// determinable.
type InfeasibleError struct {
	Code   string
	Errors []ValidationError
}

func (e *InfeasibleError) Error() string {
	if len(e.Errors) == 0 {
		return e.Code
	}
	messages := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		messages[i] = err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Code, strings.Join(messages, "; "))
}

type Assignment struct {
	SectionID        string   `json:"section_id"`
	MeetingPatternID string   `json:"meeting_pattern_id"`
	TimeslotIDs      []string `json:"timeslot_ids"`
	RoomID           string   `json:"room_id"`
}

// Solution is a fresh value per solve; it is never mutated in place.
// Optimal is unset when the search was cut off by its wall-clock budget
// before proving optimality.
type Solution struct {
	Assignments      []Assignment       `json:"assignments"`
	TotalScore       float64            `json:"total_score"`
	PenaltyBreakdown map[string]float64 `json:"penalty_breakdown"`
	Explanations     []string           `json:"explanations"`
	Optimal          bool               `json:"optimal"`
}

// Diagnostics are advisory relaxation hints for a human. The engine never
// applies them.
type Diagnostics struct {
	FeasibleIfRelax         []string `json:"feasible_if_relax"`
	FeasibleIfRemoveSection []string `json:"feasible_if_remove_section"`
}
