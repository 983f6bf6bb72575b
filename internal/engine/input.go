package engine

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
)

// Entities reference each other by id only; the Indexer resolves ids once per
// solve. All values are immutable for the duration of a solve.

type Section struct {
	ID                     string   `json:"id" mapstructure:"id"`
	CourseID               string   `json:"course_id" mapstructure:"course_id"`
	SectionCode            string   `json:"section_code" mapstructure:"section_code"`
	InstructorID           string   `json:"instructor_id" mapstructure:"instructor_id"`
	ExpectedEnrollment     int      `json:"expected_enrollment" mapstructure:"expected_enrollment"`
	EnrollmentCap          int      `json:"enrollment_cap" mapstructure:"enrollment_cap"`
	AllowedMeetingPatterns []string `json:"allowed_meeting_patterns" mapstructure:"allowed_meeting_patterns"`
	RoomRequirements       []string `json:"room_requirements" mapstructure:"room_requirements"`
	CrossListGroupID       string   `json:"crosslist_group_id,omitempty" mapstructure:"crosslist_group_id"`
	Tags                   []string `json:"tags" mapstructure:"tags"`
}

type InstructorPreferences struct {
	PreferredDays     []string `json:"preferred_days" mapstructure:"preferred_days"`
	PreferredPatterns []string `json:"preferred_patterns" mapstructure:"preferred_patterns"`
	MaxTeachingDays   int      `json:"max_teaching_days,omitempty" mapstructure:"max_teaching_days"`
}

type Instructor struct {
	ID               string                `json:"id" mapstructure:"id"`
	RankType         string                `json:"rank_type" mapstructure:"rank_type"`
	UnavailableTimes []string              `json:"unavailable_times" mapstructure:"unavailable_times"`
	Preferences      InstructorPreferences `json:"preferences" mapstructure:"preferences"`
}

type Room struct {
	ID       string   `json:"id" mapstructure:"id"`
	Building string   `json:"building" mapstructure:"building"`
	Capacity int      `json:"capacity" mapstructure:"capacity"`
	Features []string `json:"features" mapstructure:"features"`
}

type Timeslot struct {
	ID        string `json:"id" mapstructure:"id"`
	Day       string `json:"day" mapstructure:"day"`
	StartTime string `json:"start_time" mapstructure:"start_time"`
	EndTime   string `json:"end_time" mapstructure:"end_time"`
}

// MeetingPattern enumerates the concrete timeslot-set combinations that
// satisfy a named shape. Every set in CompatibleTimeslotSets has exactly
// SlotsRequired members; alignment to the institutional grid is declared
// here, never computed.
type MeetingPattern struct {
	ID                     string     `json:"id" mapstructure:"id"`
	SlotsRequired          int        `json:"slots_required" mapstructure:"slots_required"`
	AllowedDays            []string   `json:"allowed_days" mapstructure:"allowed_days"`
	CompatibleTimeslotSets [][]string `json:"compatible_timeslot_sets" mapstructure:"compatible_timeslot_sets"`
}

type CrossListGroup struct {
	ID               string   `json:"id" mapstructure:"id"`
	MemberSectionIDs []string `json:"member_section_ids" mapstructure:"member_section_ids"`
	RequireSameRoom  bool     `json:"require_same_room" mapstructure:"require_same_room"`
}

type NoOverlapGroup struct {
	ID               string   `json:"id" mapstructure:"id"`
	MemberSectionIDs []string `json:"member_section_ids" mapstructure:"member_section_ids"`
	Reason           string   `json:"reason" mapstructure:"reason"`
}

// BlockedTime scopes. A global block applies to every section; the other
// scopes apply through ScopeID (instructor id, room id, or a program tag
// carried on sections).
const (
	ScopeGlobal     = "global"
	ScopeInstructor = "instructor"
	ScopeRoom       = "room"
	ScopeProgram    = "program"
)

type BlockedTime struct {
	Scope       string   `json:"scope" mapstructure:"scope"`
	ScopeID     string   `json:"scope_id,omitempty" mapstructure:"scope_id"`
	TimeslotIDs []string `json:"timeslot_ids" mapstructure:"timeslot_ids"`
	Reason      string   `json:"reason" mapstructure:"reason"`
}

// LockedAssignment pins a section's timeslot set and/or room before the
// search begins. The solver treats the pinned values as constants.
type LockedAssignment struct {
	SectionID        string   `json:"section_id" mapstructure:"section_id"`
	FixedTimeslotSet []string `json:"fixed_timeslot_set,omitempty" mapstructure:"fixed_timeslot_set"`
	FixedRoom        string   `json:"fixed_room,omitempty" mapstructure:"fixed_room"`
}

// SoftLock is a weighted preference, never enforced: deviation from the
// preferred timeslot set or room costs Weight per mismatched attribute.
type SoftLock struct {
	SectionID            string   `json:"section_id" mapstructure:"section_id"`
	PreferredTimeslotSet []string `json:"preferred_timeslot_set,omitempty" mapstructure:"preferred_timeslot_set"`
	PreferredRoom        string   `json:"preferred_room,omitempty" mapstructure:"preferred_room"`
	Weight               float64  `json:"weight" mapstructure:"weight"`
}

// SchedulingInput owns every entity for the duration of one solve. The
// solver never mutates it; re-solves receive a fresh value.
type SchedulingInput struct {
	Sections          []Section          `json:"sections" mapstructure:"sections"`
	Instructors       []Instructor       `json:"instructors" mapstructure:"instructors"`
	Rooms             []Room             `json:"rooms" mapstructure:"rooms"`
	Timeslots         []Timeslot         `json:"timeslots" mapstructure:"timeslots"`
	MeetingPatterns   []MeetingPattern   `json:"meeting_patterns" mapstructure:"meeting_patterns"`
	CrossListGroups   []CrossListGroup   `json:"crosslist_groups" mapstructure:"crosslist_groups"`
	NoOverlapGroups   []NoOverlapGroup   `json:"no_overlap_groups" mapstructure:"no_overlap_groups"`
	BlockedTimes      []BlockedTime      `json:"blocked_times" mapstructure:"blocked_times"`
	LockedAssignments []LockedAssignment `json:"locked_assignments" mapstructure:"locked_assignments"`
	SoftLocks         []SoftLock         `json:"soft_locks" mapstructure:"soft_locks"`
}

func InputFromJSON(file string) (SchedulingInput, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return SchedulingInput{}, err
	}

	var inputJSON map[string]any
	if err := json.Unmarshal(bytes, &inputJSON); err != nil {
		return SchedulingInput{}, err
	}

	var input SchedulingInput
	if err := mapstructure.Decode(inputJSON, &input); err != nil {
		return SchedulingInput{}, fmt.Errorf("cannot decode scheduling input: %w", err)
	}

	return input, nil
}
