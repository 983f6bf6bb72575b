package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwru-xlab/course-scheduler/internal/cp"
)

func newTestSolver(config Config) Solver {
	return NewSolver(cp.NewBranchBoundEngine(), config)
}

func solve(t *testing.T, input SchedulingInput, config Config) *Solution {
	t.Helper()
	solution, err := newTestSolver(config).Solve(context.Background(), input, nil, nil)
	require.NoError(t, err)
	require.True(t, solution.Optimal)
	return solution
}

func assignmentFor(t *testing.T, solution *Solution, sectionID string) Assignment {
	t.Helper()
	assignment, found := lo.Find(solution.Assignments, func(a Assignment) bool { return a.SectionID == sectionID })
	require.True(t, found, "no assignment for section %s", sectionID)
	return assignment
}

func TestSolverHardConstraints(t *testing.T) {
	t.Run("Overlapping sections never share a room", func(t *testing.T) {
		// Arrange
		input := baseInput()
		input.Sections = []Section{
			section("s1", "alice", 25),
			section("s2", "bob", 25),
		}

		// Act
		solution := solve(t, input, DefaultConfig())

		// Assert
		a := assignmentFor(t, solution, "s1")
		b := assignmentFor(t, solution, "s2")
		if a.RoomID == b.RoomID {
			assert.Empty(t, lo.Intersect(a.TimeslotIDs, b.TimeslotIDs))
		}
	})

	t.Run("Same-instructor sections never overlap", func(t *testing.T) {
		// Arrange
		input := baseInput()
		input.Sections = []Section{
			section("s1", "alice", 25),
			section("s2", "alice", 25),
		}

		// Act
		solution := solve(t, input, DefaultConfig())

		// Assert
		a := assignmentFor(t, solution, "s1")
		b := assignmentFor(t, solution, "s2")
		assert.Empty(t, lo.Intersect(a.TimeslotIDs, b.TimeslotIDs))
	})

	t.Run("No-overlap groups keep members disjoint", func(t *testing.T) {
		// Arrange
		input := baseInput()
		input.Sections = []Section{
			section("s1", "alice", 25),
			section("s2", "bob", 25),
		}
		input.NoOverlapGroups = []NoOverlapGroup{
			{ID: "g1", MemberSectionIDs: []string{"s1", "s2"}, Reason: "shared cohort"},
		}

		// Act
		solution := solve(t, input, DefaultConfig())

		// Assert
		a := assignmentFor(t, solution, "s1")
		b := assignmentFor(t, solution, "s2")
		assert.Empty(t, lo.Intersect(a.TimeslotIDs, b.TimeslotIDs))
	})

	t.Run("Cross-listed sections coincide and fill the room exactly", func(t *testing.T) {
		// Arrange: combined enrollment 63 fits only hall-b, with zero waste.
		input := baseInput()
		s1 := section("s1", "alice", 30)
		s1.CrossListGroupID = "xl"
		s2 := section("s2", "bob", 33)
		s2.CrossListGroupID = "xl"
		input.Sections = []Section{s1, s2}
		input.CrossListGroups = []CrossListGroup{
			{ID: "xl", MemberSectionIDs: []string{"s1", "s2"}, RequireSameRoom: true},
		}

		// Act
		solution := solve(t, input, DefaultConfig())

		// Assert
		a := assignmentFor(t, solution, "s1")
		b := assignmentFor(t, solution, "s2")
		assert.ElementsMatch(t, a.TimeslotIDs, b.TimeslotIDs)
		assert.Equal(t, "hall-b", a.RoomID)
		assert.Equal(t, "hall-b", b.RoomID)
		assert.Equal(t, float64(0), solution.PenaltyBreakdown[PenaltyRoomWaste])
	})

	t.Run("Room blocks exclude the room at those times", func(t *testing.T) {
		// Arrange: hall-a is unusable on every Monday/Wednesday slot, and the
		// section only meets Monday/Wednesday.
		input := baseInput()
		s1 := section("s1", "alice", 25)
		s1.AllowedMeetingPatterns = []string{"mw"}
		input.Sections = []Section{s1}
		input.BlockedTimes = []BlockedTime{
			{Scope: ScopeRoom, ScopeID: "hall-a", TimeslotIDs: []string{"mon-09", "wed-09", "mon-10", "wed-10"}, Reason: "renovation"},
		}

		// Act
		solution := solve(t, input, DefaultConfig())

		// Assert
		assert.Equal(t, "hall-b", assignmentFor(t, solution, "s1").RoomID)
	})

	t.Run("Instructor blocks steer the timeslot set", func(t *testing.T) {
		// Arrange
		input := baseInput()
		input.Sections = []Section{section("s1", "alice", 25)}
		input.BlockedTimes = []BlockedTime{
			{Scope: ScopeInstructor, ScopeID: "alice", TimeslotIDs: []string{"mon-09", "mon-10"}, Reason: "clinic duty"},
		}

		// Act
		solution := solve(t, input, DefaultConfig())

		// Assert
		assignment := assignmentFor(t, solution, "s1")
		assert.ElementsMatch(t, []string{"tue-09", "thu-09"}, assignment.TimeslotIDs)
	})

	t.Run("Counting caps spread tagged sections across days", func(t *testing.T) {
		// Arrange: at most one lab per day, so the two labs cannot both meet
		// Monday/Wednesday.
		input := baseInput()
		s1 := section("s1", "alice", 25)
		s1.Tags = []string{"lab"}
		s2 := section("s2", "bob", 25)
		s2.Tags = []string{"lab"}
		input.Sections = []Section{s1, s2}

		config := DefaultConfig()
		config.CountingCaps = []CountingCap{{Tag: "lab", MaxPerDay: 1}}

		// Act
		solution := solve(t, input, config)

		// Assert
		a := assignmentFor(t, solution, "s1")
		b := assignmentFor(t, solution, "s2")
		daysOf := func(assignment Assignment) []string {
			indexer := NewIndexer(input)
			return lo.Uniq(lo.Map(assignment.TimeslotIDs, func(slot string, _ int) string { return indexer.Day(slot) }))
		}
		assert.Empty(t, lo.Intersect(daysOf(a), daysOf(b)))
	})
}

func TestSolverLocks(t *testing.T) {
	t.Run("Locks pin timeslots and room", func(t *testing.T) {
		// Arrange
		input := baseInput()
		input.Sections = []Section{section("s1", "alice", 25)}
		locks := []LockedAssignment{
			{SectionID: "s1", FixedTimeslotSet: []string{"mon-10", "wed-10"}, FixedRoom: "hall-b"},
		}

		// Act
		solution, err := newTestSolver(DefaultConfig()).Solve(context.Background(), input, locks, nil)

		// Assert
		require.NoError(t, err)
		assignment := assignmentFor(t, solution, "s1")
		assert.ElementsMatch(t, []string{"mon-10", "wed-10"}, assignment.TimeslotIDs)
		assert.Equal(t, "hall-b", assignment.RoomID)
	})

	t.Run("Re-solve locks override input locks per section", func(t *testing.T) {
		// Arrange
		input := baseInput()
		input.Sections = []Section{section("s1", "alice", 25)}
		input.LockedAssignments = []LockedAssignment{
			{SectionID: "s1", FixedRoom: "hall-a"},
		}
		locks := []LockedAssignment{
			{SectionID: "s1", FixedRoom: "hall-b"},
		}

		// Act
		solution, err := newTestSolver(DefaultConfig()).Solve(context.Background(), input, locks, nil)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "hall-b", assignmentFor(t, solution, "s1").RoomID)
	})

	t.Run("Soft lock deviation is priced, not enforced", func(t *testing.T) {
		// Arrange: honoring the soft lock costs 38 seats of waste; deviating
		// costs 5 seats plus the lock's weight of 7. Deviating wins.
		input := baseInput()
		input.Sections = []Section{section("s1", "alice", 25)}
		softLocks := []SoftLock{
			{SectionID: "s1", PreferredRoom: "hall-b", Weight: 7},
		}

		// Act
		solution, err := newTestSolver(DefaultConfig()).Solve(context.Background(), input, nil, softLocks)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "hall-a", assignmentFor(t, solution, "s1").RoomID)
		assert.Equal(t, float64(7), solution.PenaltyBreakdown[PenaltySoftLock])
		assert.Equal(t, float64(5), solution.PenaltyBreakdown[PenaltyRoomWaste])
	})
}

func TestSolverSoftConstraints(t *testing.T) {
	t.Run("Preferred days are honored when free", func(t *testing.T) {
		// Arrange
		input := baseInput()
		input.Instructors[0].Preferences = InstructorPreferences{PreferredDays: []string{"Tue", "Thu"}}
		input.Sections = []Section{section("s1", "alice", 25)}

		// Act
		solution := solve(t, input, DefaultConfig())

		// Assert
		assignment := assignmentFor(t, solution, "s1")
		assert.ElementsMatch(t, []string{"tue-09", "thu-09"}, assignment.TimeslotIDs)
		assert.Equal(t, float64(0), solution.PenaltyBreakdown[PenaltyInstructorDay])
	})

	t.Run("Preferred pattern miss is priced when locked away", func(t *testing.T) {
		// Arrange
		input := baseInput()
		input.Instructors[0].Preferences = InstructorPreferences{PreferredPatterns: []string{"tt"}}
		input.Sections = []Section{section("s1", "alice", 25)}
		locks := []LockedAssignment{
			{SectionID: "s1", FixedTimeslotSet: []string{"mon-09", "wed-09"}},
		}

		// Act
		solution, err := newTestSolver(DefaultConfig()).Solve(context.Background(), input, locks, nil)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig().PatternPreferenceWeight, solution.PenaltyBreakdown[PenaltyInstructorPattern])
	})

	t.Run("Adjunct teaching days beyond the limit are penalized", func(t *testing.T) {
		// Arrange: three sections for one adjunct exhaust all three slot sets,
		// spreading across four days against a two-day target.
		input := baseInput()
		input.Instructors[0].RankType = RankAdjunct
		input.Sections = []Section{
			section("s1", "alice", 25),
			section("s2", "alice", 25),
			section("s3", "alice", 25),
		}

		// Act
		solution := solve(t, input, DefaultConfig())

		// Assert
		config := DefaultConfig()
		assert.Equal(t, 2*config.AdjunctDayWeight, solution.PenaltyBreakdown[PenaltyAdjunctDays])
	})

	t.Run("Same-course sections diversify their times", func(t *testing.T) {
		// Arrange
		input := baseInput()
		s1 := section("s1", "alice", 25)
		s2 := section("s2", "bob", 25)
		s1.CourseID = "calc-101"
		s2.CourseID = "calc-101"
		input.Sections = []Section{s1, s2}

		// Act
		solution := solve(t, input, DefaultConfig())

		// Assert
		a := assignmentFor(t, solution, "s1")
		b := assignmentFor(t, solution, "s2")
		assert.NotElementsMatch(t, a.TimeslotIDs, b.TimeslotIDs)
		assert.Equal(t, float64(0), solution.PenaltyBreakdown[PenaltyCourseDiversification])
	})

	t.Run("Balance-tagged sections spread across weekdays", func(t *testing.T) {
		// Arrange: two required sections; meeting on four distinct days costs
		// nothing, stacking Monday/Wednesday costs max-minus-min.
		input := baseInput()
		s1 := section("s1", "alice", 25)
		s1.Tags = []string{"required"}
		s2 := section("s2", "bob", 25)
		s2.Tags = []string{"required"}
		input.Sections = []Section{s1, s2}

		// Act
		solution := solve(t, input, DefaultConfig())

		// Assert
		a := assignmentFor(t, solution, "s1")
		b := assignmentFor(t, solution, "s2")
		indexer := NewIndexer(input)
		daysOf := func(assignment Assignment) []string {
			return lo.Uniq(lo.Map(assignment.TimeslotIDs, func(slot string, _ int) string { return indexer.Day(slot) }))
		}
		assert.Empty(t, lo.Intersect(daysOf(a), daysOf(b)))
		assert.Equal(t, float64(0), solution.PenaltyBreakdown[PenaltyWeekdayBalance])
	})

	t.Run("Forced weekday imbalance is priced at max minus min", func(t *testing.T) {
		// Arrange: both required sections pinned to Monday/Wednesday sets, so
		// those days carry two meetings each while Tuesday/Thursday carry none.
		input := baseInput()
		s1 := section("s1", "alice", 25)
		s1.Tags = []string{"required"}
		s2 := section("s2", "bob", 25)
		s2.Tags = []string{"required"}
		input.Sections = []Section{s1, s2}
		locks := []LockedAssignment{
			{SectionID: "s1", FixedTimeslotSet: []string{"mon-09", "wed-09"}},
			{SectionID: "s2", FixedTimeslotSet: []string{"mon-10", "wed-10"}},
		}

		// Act
		solution, err := newTestSolver(DefaultConfig()).Solve(context.Background(), input, locks, nil)

		// Assert
		require.NoError(t, err)
		config := DefaultConfig()
		assert.Equal(t, 2*config.BalanceWeight, solution.PenaltyBreakdown[PenaltyWeekdayBalance])
	})

	t.Run("Breakdown sums to the total score", func(t *testing.T) {
		// Arrange
		input := baseInput()
		input.Instructors[0].Preferences = InstructorPreferences{PreferredDays: []string{"Fri"}}
		s1 := section("s1", "alice", 25)
		s1.Tags = []string{"required"}
		input.Sections = []Section{s1, section("s2", "bob", 25)}

		// Act
		solution := solve(t, input, DefaultConfig())

		// Assert
		sum := lo.Sum(lo.Values(solution.PenaltyBreakdown))
		assert.InDelta(t, solution.TotalScore, sum, 1e-9)
	})
}

func TestSolverDeterminism(t *testing.T) {
	t.Run("Repeated solves return identical assignments", func(t *testing.T) {
		// Arrange
		input := baseInput()
		input.Instructors[0].Preferences = InstructorPreferences{PreferredDays: []string{"Mon"}}
		input.Sections = []Section{
			section("s1", "alice", 25),
			section("s2", "alice", 20),
			section("s3", "bob", 28),
			section("s4", "bob", 12),
		}

		// Act
		first := solve(t, input, DefaultConfig())
		second := solve(t, input, DefaultConfig())

		// Assert
		assert.Equal(t, first.Assignments, second.Assignments)
		assert.Equal(t, first.TotalScore, second.TotalScore)
		assert.Equal(t, first.PenaltyBreakdown, second.PenaltyBreakdown)
	})
}

func TestSolverInfeasibility(t *testing.T) {
	t.Run("Optionless sections are reported together", func(t *testing.T) {
		// Arrange
		input := baseInput()
		s1 := section("s1", "alice", 25)
		s1.RoomRequirements = []string{"wetlab"}
		s2 := section("s2", "bob", 25)
		s2.RoomRequirements = []string{"wetlab"}
		input.Sections = []Section{s1, s2}

		// Act
		_, err := newTestSolver(DefaultConfig()).Solve(context.Background(), input, nil, nil)

		// Assert
		var infeasible *InfeasibleError
		require.ErrorAs(t, err, &infeasible)
		assert.Equal(t, CodeNoFeasibleOptions, infeasible.Code)
		assert.Len(t, infeasible.Errors, 2)
	})

	t.Run("Cross-listed pair inside a no-overlap group proves infeasibility", func(t *testing.T) {
		// Arrange: cross-listing forces identical timeslot sets while the
		// no-overlap group forbids them, so no assignment can satisfy both.
		input := baseInput()
		s1 := section("s1", "alice", 25)
		s1.CrossListGroupID = "xl"
		s2 := section("s2", "bob", 25)
		s2.CrossListGroupID = "xl"
		input.Sections = []Section{s1, s2}
		input.CrossListGroups = []CrossListGroup{
			{ID: "xl", MemberSectionIDs: []string{"s1", "s2"}},
		}
		input.NoOverlapGroups = []NoOverlapGroup{
			{ID: "g1", MemberSectionIDs: []string{"s1", "s2"}, Reason: "shared cohort"},
		}

		// Act
		_, err := newTestSolver(DefaultConfig()).Solve(context.Background(), input, nil, nil)

		// Assert
		var infeasible *InfeasibleError
		require.ErrorAs(t, err, &infeasible)
		assert.Equal(t, CodeInfeasible, infeasible.Code)
	})

	t.Run("Conflicting locks prove infeasibility", func(t *testing.T) {
		// Arrange: two different instructors pinned to the same room and times.
		input := baseInput()
		input.Sections = []Section{
			section("s1", "alice", 25),
			section("s2", "bob", 25),
		}
		locks := []LockedAssignment{
			{SectionID: "s1", FixedTimeslotSet: []string{"mon-09", "wed-09"}, FixedRoom: "hall-a"},
			{SectionID: "s2", FixedTimeslotSet: []string{"mon-09", "wed-09"}, FixedRoom: "hall-a"},
		}

		// Act
		_, err := newTestSolver(DefaultConfig()).Solve(context.Background(), input, locks, nil)

		// Assert
		var infeasible *InfeasibleError
		require.ErrorAs(t, err, &infeasible)
		assert.Equal(t, CodeInfeasible, infeasible.Code)
	})

	t.Run("Expired budget reports a timeout", func(t *testing.T) {
		// Arrange
		input := baseInput()
		input.Sections = []Section{section("s1", "alice", 25)}
		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
		defer cancel()

		// Act
		_, err := newTestSolver(DefaultConfig()).Solve(ctx, input, nil, nil)

		// Assert
		var infeasible *InfeasibleError
		require.ErrorAs(t, err, &infeasible)
		assert.Equal(t, CodeTimeout, infeasible.Code)
	})

	t.Run("Cancellation surfaces as a plain error", func(t *testing.T) {
		// Arrange
		input := baseInput()
		input.Sections = []Section{section("s1", "alice", 25)}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// Act
		_, err := newTestSolver(DefaultConfig()).Solve(ctx, input, nil, nil)

		// Assert
		require.Error(t, err)
		var infeasible *InfeasibleError
		assert.False(t, errors.As(err, &infeasible))
		assert.ErrorIs(t, err, context.Canceled)
	})
}
