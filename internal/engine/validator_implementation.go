package engine

import (
	"fmt"
	"slices"
	"strings"

	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"
)

type validatorImplementation struct{}

func (validator *validatorImplementation) Validate(input SchedulingInput) []ValidationError {
	indexer := NewIndexer(input)

	errors := []ValidationError{}
	errors = append(errors, validator.crossListCapacity(input, indexer)...)
	errors = append(errors, validator.sectionRoomFeasibility(input, indexer)...)
	errors = append(errors, validator.sectionTimeslotFeasibility(input, indexer)...)
	errors = append(errors, validator.lockedRoomMatching(input, indexer)...)
	errors = append(errors, validator.referentialIntegrity(input, indexer)...)
	return errors
}

// crossListCapacity checks the necessary condition that some single room can
// hold each cross-list group's combined enrollment.
func (validator *validatorImplementation) crossListCapacity(input SchedulingInput, indexer Indexer) []ValidationError {
	maxCapacity := lo.MaxBy(input.Rooms, func(a, b Room) bool { return a.Capacity > b.Capacity }).Capacity

	errors := []ValidationError{}
	for _, group := range input.CrossListGroups {
		total := indexer.CrossListTotal(group.ID)
		if total > maxCapacity {
			errors = append(errors, ValidationError{
				Code:    CodeCrossListCapacity,
				Message: fmt.Sprintf("cross-list group %s requires capacity %d, but the largest room holds %d", group.ID, total, maxCapacity),
			})
		}
	}
	return errors
}

func (validator *validatorImplementation) sectionRoomFeasibility(input SchedulingInput, indexer Indexer) []ValidationError {
	errors := []ValidationError{}
	for _, section := range input.Sections {
		feasible := lo.SomeBy(input.Rooms, func(room Room) bool {
			return room.Capacity >= section.ExpectedEnrollment && hasFeatures(room, section.RoomRequirements)
		})
		if !feasible {
			errors = append(errors, ValidationError{
				Code:    CodeNoFeasibleRoom,
				Message: fmt.Sprintf("section %s: no room satisfies capacity %d and features %v", section.ID, section.ExpectedEnrollment, section.RoomRequirements),
			})
		}
	}
	return errors
}

// sectionTimeslotFeasibility requires at least one (pattern, timeslot set)
// pair per section that avoids the instructor's unavailable times and every
// block whose scope reaches the section.
func (validator *validatorImplementation) sectionTimeslotFeasibility(input SchedulingInput, indexer Indexer) []ValidationError {
	errors := []ValidationError{}
	for _, section := range input.Sections {
		blocked := indexer.BlockedForSection(section)

		feasible := false
		for _, patternID := range section.AllowedMeetingPatterns {
			pattern, ok := indexer.MeetingPattern(patternID)
			if !ok {
				continue // reported by referentialIntegrity
			}
			for _, slotSet := range pattern.CompatibleTimeslotSets {
				if !lo.SomeBy(slotSet, func(slot string) bool { return blocked[slot] }) {
					feasible = true
					break
				}
			}
			if feasible {
				break
			}
		}

		if !feasible {
			errors = append(errors, ValidationError{
				Code:    CodeNoFeasibleSlot,
				Message: fmt.Sprintf("section %s: every compatible timeslot set collides with instructor availability or blocked times", section.ID),
			})
		}
	}
	return errors
}

// lockedRoomMatching checks that sections locked to an identical timeslot set
// can all be placed in pairwise-distinct feasible rooms, via a largest
// bipartite matching. Cross-listed sections are skipped since sharing a room
// is legitimate for them.
func (validator *validatorImplementation) lockedRoomMatching(input SchedulingInput, indexer Indexer) []ValidationError {
	bySlotKey := map[string][]LockedAssignment{}
	for _, lock := range input.LockedAssignments {
		section, ok := indexer.Section(lock.SectionID)
		if !ok || len(lock.FixedTimeslotSet) == 0 || section.CrossListGroupID != "" {
			continue
		}
		key := slotKey(lock.FixedTimeslotSet)
		bySlotKey[key] = append(bySlotKey[key], lock)
	}

	errors := []ValidationError{}
	keys := lo.Keys(bySlotKey)
	slices.Sort(keys)
	for _, key := range keys {
		locks := bySlotKey[key]
		if len(locks) < 2 {
			continue
		}

		fixedRooms := map[string]string{}
		sectionIDs := make([]string, len(locks))
		sectionsAny := make([]any, len(locks))
		for i, lock := range locks {
			section, _ := indexer.Section(lock.SectionID)
			fixedRooms[section.ID] = lock.FixedRoom
			sectionIDs[i] = section.ID
			sectionsAny[i] = section
		}
		roomsAny := lo.Map(input.Rooms, func(room Room, _ int) any { return room })

		neighbors := func(sectionAny any, roomAny any) (bool, error) {
			section := sectionAny.(Section)
			room := roomAny.(Room)

			if fixed := fixedRooms[section.ID]; fixed != "" && fixed != room.ID {
				return false, nil
			}
			return room.Capacity >= section.ExpectedEnrollment && hasFeatures(room, section.RoomRequirements), nil
		}

		graph, err := bipartitegraph.NewBipartiteGraph(sectionsAny, roomsAny, neighbors)
		if err != nil {
			continue
		}
		if len(graph.LargestMatching()) < len(sectionsAny) {
			errors = append(errors, ValidationError{
				Code:    CodeNoFeasibleRoom,
				Message: fmt.Sprintf("locked sections %s share a timeslot set but cannot all receive distinct feasible rooms", strings.Join(sectionIDs, ", ")),
			})
		}
	}
	return errors
}

func (validator *validatorImplementation) referentialIntegrity(input SchedulingInput, indexer Indexer) []ValidationError {
	errors := []ValidationError{}
	dangling := func(kind, id, context string) {
		errors = append(errors, ValidationError{
			Code:    CodeDanglingReference,
			Message: fmt.Sprintf("%s references unknown %s %q", context, kind, id),
		})
	}

	for _, section := range input.Sections {
		context := fmt.Sprintf("section %s", section.ID)
		if _, ok := indexer.Instructor(section.InstructorID); !ok {
			dangling("instructor", section.InstructorID, context)
		}
		for _, patternID := range section.AllowedMeetingPatterns {
			if _, ok := indexer.MeetingPattern(patternID); !ok {
				dangling("meeting pattern", patternID, context)
			}
		}
		if section.CrossListGroupID != "" {
			if _, ok := indexer.CrossListGroup(section.CrossListGroupID); !ok {
				dangling("cross-list group", section.CrossListGroupID, context)
			}
		}
	}

	for _, instructor := range input.Instructors {
		for _, slot := range instructor.UnavailableTimes {
			if _, ok := indexer.Timeslot(slot); !ok {
				dangling("timeslot", slot, fmt.Sprintf("instructor %s", instructor.ID))
			}
		}
	}

	for _, pattern := range input.MeetingPatterns {
		for _, slotSet := range pattern.CompatibleTimeslotSets {
			for _, slot := range slotSet {
				if _, ok := indexer.Timeslot(slot); !ok {
					dangling("timeslot", slot, fmt.Sprintf("meeting pattern %s", pattern.ID))
				}
			}
		}
	}

	for _, group := range input.CrossListGroups {
		for _, member := range group.MemberSectionIDs {
			if _, ok := indexer.Section(member); !ok {
				dangling("section", member, fmt.Sprintf("cross-list group %s", group.ID))
			}
		}
	}

	for _, group := range input.NoOverlapGroups {
		for _, member := range group.MemberSectionIDs {
			if _, ok := indexer.Section(member); !ok {
				dangling("section", member, fmt.Sprintf("no-overlap group %s", group.ID))
			}
		}
	}

	for _, blocked := range input.BlockedTimes {
		context := fmt.Sprintf("blocked time (%s)", blocked.Reason)
		for _, slot := range blocked.TimeslotIDs {
			if _, ok := indexer.Timeslot(slot); !ok {
				dangling("timeslot", slot, context)
			}
		}
		switch blocked.Scope {
		case ScopeInstructor:
			if _, ok := indexer.Instructor(blocked.ScopeID); !ok {
				dangling("instructor", blocked.ScopeID, context)
			}
		case ScopeRoom:
			if _, ok := indexer.Room(blocked.ScopeID); !ok {
				dangling("room", blocked.ScopeID, context)
			}
		}
	}

	for _, lock := range input.LockedAssignments {
		context := fmt.Sprintf("locked assignment for %s", lock.SectionID)
		if _, ok := indexer.Section(lock.SectionID); !ok {
			dangling("section", lock.SectionID, "locked assignment")
		}
		if lock.FixedRoom != "" {
			if _, ok := indexer.Room(lock.FixedRoom); !ok {
				dangling("room", lock.FixedRoom, context)
			}
		}
		for _, slot := range lock.FixedTimeslotSet {
			if _, ok := indexer.Timeslot(slot); !ok {
				dangling("timeslot", slot, context)
			}
		}
	}

	for _, lock := range input.SoftLocks {
		context := fmt.Sprintf("soft lock for %s", lock.SectionID)
		if _, ok := indexer.Section(lock.SectionID); !ok {
			dangling("section", lock.SectionID, "soft lock")
		}
		if lock.PreferredRoom != "" {
			if _, ok := indexer.Room(lock.PreferredRoom); !ok {
				dangling("room", lock.PreferredRoom, context)
			}
		}
		for _, slot := range lock.PreferredTimeslotSet {
			if _, ok := indexer.Timeslot(slot); !ok {
				dangling("timeslot", slot, context)
			}
		}
	}

	return errors
}

func hasFeatures(room Room, required []string) bool {
	return lo.Every(room.Features, required)
}
