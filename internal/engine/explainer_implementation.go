package engine

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
)

type explainerImplementation struct{}

func (explainer *explainerImplementation) Explain(solution *Solution, input SchedulingInput) []string {
	indexer := NewIndexer(input)
	lockedSections := lo.SliceToMap(input.LockedAssignments, func(lock LockedAssignment) (string, LockedAssignment) {
		return lock.SectionID, lock
	})
	softLocked := lo.GroupBy(input.SoftLocks, func(lock SoftLock) string { return lock.SectionID })
	noOverlapMembership := map[string][]string{}
	for _, group := range input.NoOverlapGroups {
		for _, member := range group.MemberSectionIDs {
			noOverlapMembership[member] = append(noOverlapMembership[member], group.ID)
		}
	}

	explanations := make([]string, len(solution.Assignments))
	for i, assignment := range solution.Assignments {
		section, _ := indexer.Section(assignment.SectionID)
		explanations[i] = explainAssignment(assignment, section, indexer, lockedSections, softLocked, noOverlapMembership)
	}
	return explanations
}

func explainAssignment(
	assignment Assignment,
	section Section,
	indexer Indexer,
	locks map[string]LockedAssignment,
	softLocks map[string][]SoftLock,
	noOverlapMembership map[string][]string,
) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "Section %s meets %s (pattern %s) in room %s",
		assignment.SectionID,
		strings.Join(assignment.TimeslotIDs, ", "),
		assignment.MeetingPatternID,
		assignment.RoomID,
	)

	influences := []string{}

	if lock, ok := locks[assignment.SectionID]; ok {
		pinned := []string{}
		if len(lock.FixedTimeslotSet) > 0 {
			pinned = append(pinned, "timeslots")
		}
		if lock.FixedRoom != "" {
			pinned = append(pinned, "room")
		}
		if len(pinned) > 0 {
			influences = append(influences, "locked "+strings.Join(pinned, " and ")+" by hand")
		}
	}

	if section.CrossListGroupID != "" {
		influences = append(influences, fmt.Sprintf("shares its schedule with cross-list group %s", section.CrossListGroupID))
	}
	for _, groupID := range noOverlapMembership[assignment.SectionID] {
		influences = append(influences, fmt.Sprintf("kept disjoint from no-overlap group %s", groupID))
	}

	if instructor, ok := indexer.Instructor(section.InstructorID); ok {
		days := lo.Uniq(lo.Map(assignment.TimeslotIDs, func(slot string, _ int) string { return indexer.Day(slot) }))
		if len(instructor.Preferences.PreferredDays) > 0 {
			if lo.Some(days, instructor.Preferences.PreferredDays) {
				influences = append(influences, fmt.Sprintf("matches %s's preferred days", instructor.ID))
			} else {
				influences = append(influences, fmt.Sprintf("misses %s's preferred days", instructor.ID))
			}
		}
		if len(instructor.Preferences.PreferredPatterns) > 0 {
			if slices.Contains(instructor.Preferences.PreferredPatterns, assignment.MeetingPatternID) {
				influences = append(influences, fmt.Sprintf("matches %s's preferred pattern", instructor.ID))
			} else {
				influences = append(influences, fmt.Sprintf("misses %s's preferred pattern", instructor.ID))
			}
		}
	}

	for _, lock := range softLocks[assignment.SectionID] {
		matched := true
		if len(lock.PreferredTimeslotSet) > 0 && !sameSlotSet(assignment.TimeslotIDs, lock.PreferredTimeslotSet) {
			matched = false
		}
		if lock.PreferredRoom != "" && assignment.RoomID != lock.PreferredRoom {
			matched = false
		}
		if matched {
			influences = append(influences, "honors a soft lock")
		} else {
			influences = append(influences, fmt.Sprintf("deviates from a soft lock (weight %g)", lock.Weight))
		}
	}

	if room, ok := indexer.Room(assignment.RoomID); ok {
		required := section.ExpectedEnrollment
		if section.CrossListGroupID != "" {
			required = indexer.CrossListTotal(section.CrossListGroupID)
		}
		if spare := room.Capacity - required; spare > 0 {
			influences = append(influences, fmt.Sprintf("%d spare seats", spare))
		} else {
			influences = append(influences, "room filled exactly")
		}
	}

	if len(influences) > 0 {
		builder.WriteString(": ")
		builder.WriteString(strings.Join(influences, "; "))
	}
	builder.WriteString(".")
	return builder.String()
}
