package engine

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
)

type diagnoserImplementation struct{}

func (diagnoser *diagnoserImplementation) Diagnose(input SchedulingInput, errors []ValidationError) Diagnostics {
	indexer := NewIndexer(input)
	codes := lo.SliceToMap(errors, func(err ValidationError) (string, bool) { return err.Code, true })

	relax := []string{}
	remove := []string{}

	if codes[CodeCrossListCapacity] {
		maxCapacity := lo.MaxBy(input.Rooms, func(a, b Room) bool { return a.Capacity > b.Capacity }).Capacity
		for _, group := range input.CrossListGroups {
			if indexer.CrossListTotal(group.ID) <= maxCapacity {
				continue
			}
			relax = append(relax, fmt.Sprintf("crosslist_group:%s", group.ID))
			if largest := largestMember(group, indexer); largest != "" {
				remove = append(remove, largest)
			}
		}
	}

	if codes[CodeNoFeasibleRoom] {
		for _, section := range input.Sections {
			fits := lo.SomeBy(input.Rooms, func(room Room) bool {
				return room.Capacity >= section.ExpectedEnrollment && hasFeatures(room, section.RoomRequirements)
			})
			if !fits {
				remove = append(remove, section.ID)
			}
		}
	}

	if codes[CodeNoFeasibleSlot] {
		for _, section := range input.Sections {
			if hasOpenSlotSet(section, indexer, indexer.BlockedForSection(section)) {
				continue
			}
			// Retry with only the instructor's own unavailability: when that
			// opens a slot set, an institutional block is the culprit.
			if hasOpenSlotSet(section, indexer, unavailabilityOnly(section, indexer)) {
				for _, blocked := range input.BlockedTimes {
					if blockApplies(blocked, section) {
						relax = append(relax, blockedTimeLabel(blocked))
					}
				}
			} else {
				remove = append(remove, section.ID)
			}
		}
	}

	if codes[CodeInfeasible] || codes[CodeTimeout] {
		// Joint conflicts: no-overlap groups are the usual suspects, and a
		// capacity pinch resolves by dropping the biggest contender.
		for _, group := range input.NoOverlapGroups {
			if len(group.MemberSectionIDs) > 1 {
				relax = append(relax, fmt.Sprintf("no_overlap_group:%s", group.ID))
			}
		}
		if contender := largestSection(input.Sections); contender != "" {
			remove = append(remove, contender)
		}
	}

	slices.Sort(relax)
	slices.Sort(remove)
	return Diagnostics{
		FeasibleIfRelax:         lo.Uniq(relax),
		FeasibleIfRemoveSection: lo.Uniq(remove),
	}
}

func largestMember(group CrossListGroup, indexer Indexer) string {
	largest := ""
	enrollment := -1
	for _, member := range group.MemberSectionIDs {
		section, ok := indexer.Section(member)
		if ok && section.ExpectedEnrollment > enrollment {
			largest = section.ID
			enrollment = section.ExpectedEnrollment
		}
	}
	return largest
}

func largestSection(sections []Section) string {
	largest := ""
	enrollment := -1
	for _, section := range sections {
		if section.ExpectedEnrollment > enrollment {
			largest = section.ID
			enrollment = section.ExpectedEnrollment
		}
	}
	return largest
}

func hasOpenSlotSet(section Section, indexer Indexer, blocked map[string]bool) bool {
	for _, patternID := range section.AllowedMeetingPatterns {
		pattern, ok := indexer.MeetingPattern(patternID)
		if !ok {
			continue
		}
		for _, slotSet := range pattern.CompatibleTimeslotSets {
			if !lo.SomeBy(slotSet, func(slot string) bool { return blocked[slot] }) {
				return true
			}
		}
	}
	return false
}

func unavailabilityOnly(section Section, indexer Indexer) map[string]bool {
	blocked := map[string]bool{}
	if instructor, ok := indexer.Instructor(section.InstructorID); ok {
		for _, slot := range instructor.UnavailableTimes {
			blocked[slot] = true
		}
	}
	return blocked
}

func blockApplies(blocked BlockedTime, section Section) bool {
	switch blocked.Scope {
	case ScopeGlobal:
		return true
	case ScopeInstructor:
		return blocked.ScopeID == section.InstructorID
	case ScopeProgram:
		return slices.Contains(section.Tags, blocked.ScopeID)
	default:
		return false
	}
}

func blockedTimeLabel(blocked BlockedTime) string {
	if blocked.ScopeID != "" {
		return fmt.Sprintf("blocked_time:%s:%s", blocked.Scope, blocked.ScopeID)
	}
	return fmt.Sprintf("blocked_time:%s", blocked.Scope)
}
