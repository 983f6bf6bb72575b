package engine

// Indexer gives O(1) access from an id to its entity plus the reverse
// indices the validator and solver need. It is built once per solve from a
// SchedulingInput and is read-only afterwards.
type Indexer interface {
	Section(id string) (Section, bool)
	Instructor(id string) (Instructor, bool)
	Room(id string) (Room, bool)
	Timeslot(id string) (Timeslot, bool)
	MeetingPattern(id string) (MeetingPattern, bool)
	CrossListGroup(id string) (CrossListGroup, bool)
	NoOverlapGroup(id string) (NoOverlapGroup, bool)

	// SectionsByInstructor preserves input order.
	SectionsByInstructor(instructorID string) []Section
	// CrossListTotal sums member expected enrollments of a cross-list group.
	CrossListTotal(groupID string) int
	// Day resolves a timeslot id to its weekday; empty for unknown ids.
	Day(timeslotID string) string

	// BlockedForSection reports slots forbidden for the section through
	// global, instructor and program scoped blocks plus the instructor's
	// own unavailable times. Room scoped blocks are per room.
	BlockedForSection(section Section) map[string]bool
	BlockedForRoom(roomID string) map[string]bool
}

func NewIndexer(input SchedulingInput) Indexer {
	return newIndexerImplementation(input)
}
