package engine

import "github.com/samber/lo"

type indexerImplementation struct {
	sections        map[string]Section
	instructors     map[string]Instructor
	rooms           map[string]Room
	timeslots       map[string]Timeslot
	meetingPatterns map[string]MeetingPattern
	crossListGroups map[string]CrossListGroup
	noOverlapGroups map[string]NoOverlapGroup

	byInstructor    map[string][]Section
	crossListTotals map[string]int

	globalBlocks     map[string]bool
	instructorBlocks map[string]map[string]bool
	roomBlocks       map[string]map[string]bool
	programBlocks    map[string]map[string]bool
}

func newIndexerImplementation(input SchedulingInput) *indexerImplementation {
	indexer := &indexerImplementation{
		sections:         lo.KeyBy(input.Sections, func(s Section) string { return s.ID }),
		instructors:      lo.KeyBy(input.Instructors, func(i Instructor) string { return i.ID }),
		rooms:            lo.KeyBy(input.Rooms, func(r Room) string { return r.ID }),
		timeslots:        lo.KeyBy(input.Timeslots, func(t Timeslot) string { return t.ID }),
		meetingPatterns:  lo.KeyBy(input.MeetingPatterns, func(p MeetingPattern) string { return p.ID }),
		crossListGroups:  lo.KeyBy(input.CrossListGroups, func(g CrossListGroup) string { return g.ID }),
		noOverlapGroups:  lo.KeyBy(input.NoOverlapGroups, func(g NoOverlapGroup) string { return g.ID }),
		byInstructor:     map[string][]Section{},
		crossListTotals:  map[string]int{},
		globalBlocks:     map[string]bool{},
		instructorBlocks: map[string]map[string]bool{},
		roomBlocks:       map[string]map[string]bool{},
		programBlocks:    map[string]map[string]bool{},
	}

	for _, section := range input.Sections {
		indexer.byInstructor[section.InstructorID] = append(indexer.byInstructor[section.InstructorID], section)
		if section.CrossListGroupID != "" {
			indexer.crossListTotals[section.CrossListGroupID] += section.ExpectedEnrollment
		}
	}

	for _, blocked := range input.BlockedTimes {
		var scoped map[string]map[string]bool
		switch blocked.Scope {
		case ScopeGlobal:
			for _, slot := range blocked.TimeslotIDs {
				indexer.globalBlocks[slot] = true
			}
			continue
		case ScopeInstructor:
			scoped = indexer.instructorBlocks
		case ScopeRoom:
			scoped = indexer.roomBlocks
		case ScopeProgram:
			scoped = indexer.programBlocks
		default:
			continue
		}

		if scoped[blocked.ScopeID] == nil {
			scoped[blocked.ScopeID] = map[string]bool{}
		}
		for _, slot := range blocked.TimeslotIDs {
			scoped[blocked.ScopeID][slot] = true
		}
	}

	return indexer
}

func (indexer *indexerImplementation) Section(id string) (Section, bool) {
	section, ok := indexer.sections[id]
	return section, ok
}

func (indexer *indexerImplementation) Instructor(id string) (Instructor, bool) {
	instructor, ok := indexer.instructors[id]
	return instructor, ok
}

func (indexer *indexerImplementation) Room(id string) (Room, bool) {
	room, ok := indexer.rooms[id]
	return room, ok
}

func (indexer *indexerImplementation) Timeslot(id string) (Timeslot, bool) {
	timeslot, ok := indexer.timeslots[id]
	return timeslot, ok
}

func (indexer *indexerImplementation) MeetingPattern(id string) (MeetingPattern, bool) {
	pattern, ok := indexer.meetingPatterns[id]
	return pattern, ok
}

func (indexer *indexerImplementation) CrossListGroup(id string) (CrossListGroup, bool) {
	group, ok := indexer.crossListGroups[id]
	return group, ok
}

func (indexer *indexerImplementation) NoOverlapGroup(id string) (NoOverlapGroup, bool) {
	group, ok := indexer.noOverlapGroups[id]
	return group, ok
}

func (indexer *indexerImplementation) SectionsByInstructor(instructorID string) []Section {
	return indexer.byInstructor[instructorID]
}

func (indexer *indexerImplementation) CrossListTotal(groupID string) int {
	return indexer.crossListTotals[groupID]
}

func (indexer *indexerImplementation) Day(timeslotID string) string {
	return indexer.timeslots[timeslotID].Day
}

func (indexer *indexerImplementation) BlockedForSection(section Section) map[string]bool {
	blocked := map[string]bool{}
	for slot := range indexer.globalBlocks {
		blocked[slot] = true
	}
	for slot := range indexer.instructorBlocks[section.InstructorID] {
		blocked[slot] = true
	}
	for _, tag := range section.Tags {
		for slot := range indexer.programBlocks[tag] {
			blocked[slot] = true
		}
	}
	if instructor, ok := indexer.instructors[section.InstructorID]; ok {
		for _, slot := range instructor.UnavailableTimes {
			blocked[slot] = true
		}
	}
	return blocked
}

func (indexer *indexerImplementation) BlockedForRoom(roomID string) map[string]bool {
	return indexer.roomBlocks[roomID]
}
