package engine

// baseInput is the shared grid for tests: a Monday/Wednesday pattern with two
// hourly sets, a Tuesday/Thursday pattern with one, and two rooms of very
// different sizes. Tests clone and extend it per scenario.
func baseInput() SchedulingInput {
	return SchedulingInput{
		Timeslots: []Timeslot{
			{ID: "mon-09", Day: "Mon", StartTime: "09:00", EndTime: "09:50"},
			{ID: "wed-09", Day: "Wed", StartTime: "09:00", EndTime: "09:50"},
			{ID: "mon-10", Day: "Mon", StartTime: "10:00", EndTime: "10:50"},
			{ID: "wed-10", Day: "Wed", StartTime: "10:00", EndTime: "10:50"},
			{ID: "tue-09", Day: "Tue", StartTime: "09:00", EndTime: "09:50"},
			{ID: "thu-09", Day: "Thu", StartTime: "09:00", EndTime: "09:50"},
		},
		MeetingPatterns: []MeetingPattern{
			{
				ID:            "mw",
				SlotsRequired: 2,
				AllowedDays:   []string{"Mon", "Wed"},
				CompatibleTimeslotSets: [][]string{
					{"mon-09", "wed-09"},
					{"mon-10", "wed-10"},
				},
			},
			{
				ID:            "tt",
				SlotsRequired: 2,
				AllowedDays:   []string{"Tue", "Thu"},
				CompatibleTimeslotSets: [][]string{
					{"tue-09", "thu-09"},
				},
			},
		},
		Instructors: []Instructor{
			{ID: "alice"},
			{ID: "bob"},
		},
		Rooms: []Room{
			{ID: "hall-a", Capacity: 30},
			{ID: "hall-b", Capacity: 63, Features: []string{"projector"}},
		},
	}
}

func section(id, instructorID string, enrollment int) Section {
	return Section{
		ID:                     id,
		CourseID:               "course-" + id,
		InstructorID:           instructorID,
		ExpectedEnrollment:     enrollment,
		AllowedMeetingPatterns: []string{"mw", "tt"},
	}
}
