package engine

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/cwru-xlab/course-scheduler/internal/cp"
)

type cpSolver struct {
	engine cp.Engine
	config Config
}

// sectionOption is one candidate (pattern, timeslot set, room) triple.
// Penalty components are precomputed so the decoded breakdown matches the
// objective exactly.
type sectionOption struct {
	patternID    string
	slotSetIndex int
	slotIDs      []string
	slotSet      map[string]bool
	slotKey      string
	days         []string
	roomID       string

	roomWaste       float64
	dayPenalty      float64
	patternPenalty  float64
	softLockPenalty float64
}

func (option sectionOption) penalty() float64 {
	return option.roomWaste + option.dayPenalty + option.patternPenalty + option.softLockPenalty
}

// pairRelation captures how two decision variables constrain each other.
type pairRelation struct {
	sameInstructor bool
	noOverlap      bool
	crossList      bool
	sameRoom       bool
}

// solverRun is the per-solve working state. Nothing here outlives or is
// shared across a solve.
type solverRun struct {
	config  Config
	indexer Indexer

	sections []Section // sorted by id: the canonical variable order
	options  [][]sectionOption
	relation [][]pairRelation

	counterIDs map[string]int // (cap tag, day) -> counter
	caps       []int
	counters   [][][]int // per variable, per option

	adjunctVars map[string][]int // instructor id -> variables, adjunct rank or declared day limit
	courseVars  map[string][]int // course id -> variables, multi-section courses only
	balanceVars []int            // variables whose section carries the balance tag
	weekdays    []string
}

func (solver *cpSolver) Solve(ctx context.Context, input SchedulingInput, locks []LockedAssignment, softLocks []SoftLock) (*Solution, error) {
	run := &solverRun{config: solver.config, indexer: NewIndexer(input)}

	run.sections = slices.Clone(input.Sections)
	slices.SortFunc(run.sections, func(a, b Section) int { return strings.Compare(a.ID, b.ID) })

	if err := run.buildOptions(input, mergeLocks(input.LockedAssignments, locks), mergeSoftLocks(input.SoftLocks, softLocks)); err != nil {
		return nil, err
	}
	run.buildRelations(input)
	run.buildCounters(input)
	run.buildCrossGroups()

	result, err := solver.engine.Solve(ctx, cp.Instance{
		Domains:      run.domains(),
		Conflict:     run.conflict,
		Counters:     run.counterFor,
		Caps:         run.caps,
		CrossPenalty: run.crossPenalty,
	})
	if err != nil {
		return nil, err
	}

	if result.Choice == nil {
		if result.Optimal {
			return nil, &InfeasibleError{
				Code: CodeInfeasible,
				Errors: []ValidationError{{
					Code:    CodeInfeasible,
					Message: "no assignment satisfies all hard constraints",
				}},
			}
		}
		return nil, &InfeasibleError{
			Code: CodeTimeout,
			Errors: []ValidationError{{
				Code:    CodeTimeout,
				Message: "solve budget expired before a feasible assignment was found",
			}},
		}
	}

	return run.decode(result), nil
}

// mergeLocks overlays re-solve locks onto the input's own: the argument wins
// per section.
func mergeLocks(base, overlay []LockedAssignment) map[string]LockedAssignment {
	merged := map[string]LockedAssignment{}
	for _, lock := range base {
		merged[lock.SectionID] = lock
	}
	for _, lock := range overlay {
		merged[lock.SectionID] = lock
	}
	return merged
}

func mergeSoftLocks(base, overlay []SoftLock) map[string][]SoftLock {
	merged := map[string][]SoftLock{}
	for _, lock := range append(slices.Clone(base), overlay...) {
		merged[lock.SectionID] = append(merged[lock.SectionID], lock)
	}
	return merged
}

// buildOptions enumerates each section's candidate triples in canonical
// order: declared pattern order, then declared timeslot-set index, then room
// id. Sections left without a single candidate are reported together.
func (run *solverRun) buildOptions(input SchedulingInput, locks map[string]LockedAssignment, softLocks map[string][]SoftLock) error {
	rooms := slices.Clone(input.Rooms)
	slices.SortFunc(rooms, func(a, b Room) int { return strings.Compare(a.ID, b.ID) })

	run.options = make([][]sectionOption, len(run.sections))
	failures := []ValidationError{}

	for v, section := range run.sections {
		lock, locked := locks[section.ID]
		blocked := run.indexer.BlockedForSection(section)
		instructor, _ := run.indexer.Instructor(section.InstructorID)

		requiredCapacity := section.ExpectedEnrollment
		if section.CrossListGroupID != "" {
			requiredCapacity = run.indexer.CrossListTotal(section.CrossListGroupID)
		}

		candidateRooms := lo.Filter(rooms, func(room Room, _ int) bool {
			if locked && lock.FixedRoom != "" && room.ID != lock.FixedRoom {
				return false
			}
			return room.Capacity >= requiredCapacity && hasFeatures(room, section.RoomRequirements)
		})

		for _, patternID := range section.AllowedMeetingPatterns {
			pattern, ok := run.indexer.MeetingPattern(patternID)
			if !ok {
				continue
			}
			for setIndex, slotIDs := range pattern.CompatibleTimeslotSets {
				if lo.SomeBy(slotIDs, func(slot string) bool { return blocked[slot] }) {
					continue
				}
				if locked && len(lock.FixedTimeslotSet) > 0 && !sameSlotSet(slotIDs, lock.FixedTimeslotSet) {
					continue
				}

				days := lo.Uniq(lo.Map(slotIDs, func(slot string, _ int) string { return run.indexer.Day(slot) }))
				slices.Sort(days)

				for _, room := range candidateRooms {
					roomBlocked := run.indexer.BlockedForRoom(room.ID)
					if lo.SomeBy(slotIDs, func(slot string) bool { return roomBlocked[slot] }) {
						continue
					}

					option := sectionOption{
						patternID:    patternID,
						slotSetIndex: setIndex,
						slotIDs:      slotIDs,
						slotSet:      lo.SliceToMap(slotIDs, func(slot string) (string, bool) { return slot, true }),
						slotKey:      slotKey(slotIDs),
						days:         days,
						roomID:       room.ID,
					}
					run.price(&option, section, instructor, room, requiredCapacity, softLocks[section.ID])
					run.options[v] = append(run.options[v], option)
				}
			}
		}

		if len(run.options[v]) == 0 {
			failures = append(failures, ValidationError{
				Code:    CodeNoFeasibleOptions,
				Message: fmt.Sprintf("section %s has no feasible assignment options", section.ID),
			})
		}
	}

	if len(failures) > 0 {
		return &InfeasibleError{Code: CodeNoFeasibleOptions, Errors: failures}
	}
	return nil
}

// price fills in the option's weighted per-option penalty components.
// Preference penalties apply only when the instructor declared a preference.
func (run *solverRun) price(option *sectionOption, section Section, instructor Instructor, room Room, requiredCapacity int, softLocks []SoftLock) {
	option.roomWaste = run.config.RoomWasteWeight * float64(max(0, room.Capacity-requiredCapacity))

	preferences := instructor.Preferences
	if len(preferences.PreferredDays) > 0 && !lo.Some(option.days, preferences.PreferredDays) {
		option.dayPenalty = run.config.DayPreferenceWeight
	}
	if len(preferences.PreferredPatterns) > 0 && !slices.Contains(preferences.PreferredPatterns, option.patternID) {
		option.patternPenalty = run.config.PatternPreferenceWeight
	}

	for _, lock := range softLocks {
		if len(lock.PreferredTimeslotSet) > 0 && !sameSlotSet(option.slotIDs, lock.PreferredTimeslotSet) {
			option.softLockPenalty += lock.Weight
		}
		if lock.PreferredRoom != "" && option.roomID != lock.PreferredRoom {
			option.softLockPenalty += lock.Weight
		}
	}
}

func (run *solverRun) buildRelations(input SchedulingInput) {
	position := map[string]int{}
	for v, section := range run.sections {
		position[section.ID] = v
	}

	n := len(run.sections)
	run.relation = make([][]pairRelation, n)
	for i := range run.relation {
		run.relation[i] = make([]pairRelation, n)
	}

	for i, a := range run.sections {
		for j, b := range run.sections {
			if i == j {
				continue
			}
			rel := &run.relation[i][j]
			rel.sameInstructor = a.InstructorID == b.InstructorID
			if a.CrossListGroupID != "" && a.CrossListGroupID == b.CrossListGroupID {
				rel.crossList = true
				if group, ok := run.indexer.CrossListGroup(a.CrossListGroupID); ok {
					rel.sameRoom = group.RequireSameRoom
				}
			}
		}
	}

	for _, group := range input.NoOverlapGroups {
		for _, memberA := range group.MemberSectionIDs {
			for _, memberB := range group.MemberSectionIDs {
				i, okA := position[memberA]
				j, okB := position[memberB]
				if okA && okB && i != j {
					run.relation[i][j].noOverlap = true
				}
			}
		}
	}
}

// buildCounters materializes the configured counting caps as one counter per
// (tag, day) cell.
func (run *solverRun) buildCounters(input SchedulingInput) {
	run.weekdays = lo.Uniq(lo.Map(input.Timeslots, func(slot Timeslot, _ int) string { return slot.Day }))
	slices.Sort(run.weekdays)

	run.counterIDs = map[string]int{}
	run.caps = []int{}
	for _, rule := range run.config.CountingCaps {
		for _, day := range run.weekdays {
			run.counterIDs[rule.Tag+"\x00"+day] = len(run.caps)
			run.caps = append(run.caps, rule.MaxPerDay)
		}
	}

	run.counters = make([][][]int, len(run.sections))
	for v, section := range run.sections {
		run.counters[v] = make([][]int, len(run.options[v]))
		for o, option := range run.options[v] {
			var ids []int
			for _, rule := range run.config.CountingCaps {
				if !slices.Contains(section.Tags, rule.Tag) {
					continue
				}
				for _, day := range option.days {
					if id, ok := run.counterIDs[rule.Tag+"\x00"+day]; ok {
						ids = append(ids, id)
					}
				}
			}
			run.counters[v][o] = ids
		}
	}
}

// buildCrossGroups precomputes the variable groups the leaf penalties range
// over.
func (run *solverRun) buildCrossGroups() {
	run.adjunctVars = map[string][]int{}
	run.courseVars = map[string][]int{}

	courseCount := lo.CountValuesBy(run.sections, func(section Section) string { return section.CourseID })

	for v, section := range run.sections {
		instructor, ok := run.indexer.Instructor(section.InstructorID)
		if ok && (strings.EqualFold(instructor.RankType, RankAdjunct) || instructor.Preferences.MaxTeachingDays > 0) {
			run.adjunctVars[instructor.ID] = append(run.adjunctVars[instructor.ID], v)
		}
		if courseCount[section.CourseID] > 1 {
			run.courseVars[section.CourseID] = append(run.courseVars[section.CourseID], v)
		}
		if run.config.BalanceTag != "" && slices.Contains(section.Tags, run.config.BalanceTag) {
			run.balanceVars = append(run.balanceVars, v)
		}
	}
}

func (run *solverRun) domains() [][]cp.Option {
	domains := make([][]cp.Option, len(run.options))
	for v, options := range run.options {
		domains[v] = make([]cp.Option, len(options))
		for o, option := range options {
			domains[v][o] = cp.Option{Penalty: option.penalty()}
		}
	}
	return domains
}

func (run *solverRun) conflict(v1, o1, v2, o2 int) bool {
	a := run.options[v1][o1]
	b := run.options[v2][o2]
	rel := run.relation[v1][v2]

	// Cross-listed members must coincide, so the shared room is legitimate.
	// A no-overlap requirement on the same pair contradicts the coincidence
	// and leaves no acceptable assignment.
	if rel.crossList {
		if a.slotKey != b.slotKey || rel.noOverlap {
			return true
		}
		return rel.sameRoom && a.roomID != b.roomID
	}

	if !slotsOverlap(a, b) {
		return false
	}
	return rel.sameInstructor || rel.noOverlap || a.roomID == b.roomID
}

func (run *solverRun) counterFor(v, o int) []int {
	return run.counters[v][o]
}

// crossCosts are the penalty components only a complete assignment
// determines. Summation order is fixed so repeated solves score identically.
type crossCosts struct {
	adjunctDays     float64
	diversification float64
	balance         float64
}

func (costs crossCosts) total() float64 {
	return costs.adjunctDays + costs.diversification + costs.balance
}

func (run *solverRun) crossPenalty(choice []int) float64 {
	return run.crossCosts(choice).total()
}

func (run *solverRun) crossCosts(choice []int) crossCosts {
	costs := crossCosts{}

	// Teaching-day spread: adjuncts beyond the configured threshold, plus
	// any instructor's declared max_teaching_days, flat penalty per excess
	// day.
	instructorIDs := lo.Keys(run.adjunctVars)
	slices.Sort(instructorIDs)
	for _, instructorID := range instructorIDs {
		variables := run.adjunctVars[instructorID]
		days := map[string]bool{}
		for _, v := range variables {
			for _, day := range run.options[v][choice[v]].days {
				days[day] = true
			}
		}

		instructor, _ := run.indexer.Instructor(instructorID)
		threshold := 0
		if strings.EqualFold(instructor.RankType, RankAdjunct) {
			threshold = run.config.AdjunctMaxDays
		}
		if declared := instructor.Preferences.MaxTeachingDays; declared > 0 && (threshold == 0 || declared < threshold) {
			threshold = declared
		}
		if excess := len(days) - threshold; threshold > 0 && excess > 0 {
			costs.adjunctDays += run.config.AdjunctDayWeight * float64(excess)
		}
	}

	// Same-course sections meeting at identical times are not diversified.
	courseIDs := lo.Keys(run.courseVars)
	slices.Sort(courseIDs)
	for _, courseID := range courseIDs {
		variables := run.courseVars[courseID]
		for i := 0; i < len(variables); i++ {
			for j := i + 1; j < len(variables); j++ {
				if run.options[variables[i]][choice[variables[i]]].slotKey == run.options[variables[j]][choice[variables[j]]].slotKey {
					costs.diversification += run.config.DiversificationWeight
				}
			}
		}
	}

	// Required-course load spread across weekdays, scored as max-min.
	if len(run.balanceVars) > 0 && len(run.weekdays) > 0 {
		perDay := map[string]int{}
		for _, v := range run.balanceVars {
			for _, day := range run.options[v][choice[v]].days {
				perDay[day]++
			}
		}
		minLoad, maxLoad := perDay[run.weekdays[0]], perDay[run.weekdays[0]]
		for _, day := range run.weekdays[1:] {
			minLoad = min(minLoad, perDay[day])
			maxLoad = max(maxLoad, perDay[day])
		}
		costs.balance = run.config.BalanceWeight * float64(maxLoad-minLoad)
	}

	return costs
}

func (run *solverRun) decode(result cp.Result) *Solution {
	breakdown := map[string]float64{
		PenaltyRoomWaste:             0,
		PenaltyInstructorDay:         0,
		PenaltyInstructorPattern:     0,
		PenaltyAdjunctDays:           0,
		PenaltyCourseDiversification: 0,
		PenaltyWeekdayBalance:        0,
		PenaltySoftLock:              0,
	}

	assignments := make([]Assignment, len(run.sections))
	for v, section := range run.sections {
		option := run.options[v][result.Choice[v]]
		assignments[v] = Assignment{
			SectionID:        section.ID,
			MeetingPatternID: option.patternID,
			TimeslotIDs:      slices.Clone(option.slotIDs),
			RoomID:           option.roomID,
		}
		breakdown[PenaltyRoomWaste] += option.roomWaste
		breakdown[PenaltyInstructorDay] += option.dayPenalty
		breakdown[PenaltyInstructorPattern] += option.patternPenalty
		breakdown[PenaltySoftLock] += option.softLockPenalty
	}

	costs := run.crossCosts(result.Choice)
	breakdown[PenaltyAdjunctDays] = costs.adjunctDays
	breakdown[PenaltyCourseDiversification] = costs.diversification
	breakdown[PenaltyWeekdayBalance] = costs.balance

	total := breakdown[PenaltyRoomWaste] +
		breakdown[PenaltyInstructorDay] +
		breakdown[PenaltyInstructorPattern] +
		breakdown[PenaltySoftLock] +
		costs.adjunctDays + costs.diversification + costs.balance

	return &Solution{
		Assignments:      assignments,
		TotalScore:       total,
		PenaltyBreakdown: breakdown,
		Optimal:          result.Optimal,
	}
}

func slotKey(slotIDs []string) string {
	sorted := slices.Clone(slotIDs)
	slices.Sort(sorted)
	return strings.Join(sorted, "|")
}

func sameSlotSet(a, b []string) bool {
	return slotKey(a) == slotKey(b)
}

func slotsOverlap(a, b sectionOption) bool {
	small, large := a, b
	if len(small.slotIDs) > len(large.slotIDs) {
		small, large = large, small
	}
	return lo.SomeBy(small.slotIDs, func(slot string) bool { return large.slotSet[slot] })
}
