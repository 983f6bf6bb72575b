package engine

// Penalty breakdown keys. Every soft constraint contributes one named,
// additively-scored term.
const (
	PenaltyRoomWaste             = "room_waste"
	PenaltyInstructorDay         = "instructor_day_preference"
	PenaltyInstructorPattern     = "instructor_pattern_preference"
	PenaltyAdjunctDays           = "adjunct_days"
	PenaltyCourseDiversification = "course_diversification"
	PenaltyWeekdayBalance        = "weekday_balance"
	PenaltySoftLock              = "soft_lock"
)

// RankAdjunct is the instructor rank subject to the teaching-day spread
// penalty.
const RankAdjunct = "adjunct"

// CountingCap bounds how many sections carrying Tag may be scheduled on any
// single day. Caps are hard constraints; the solver never trades them off.
type CountingCap struct {
	Tag       string `json:"tag" mapstructure:"tag"`
	MaxPerDay int    `json:"max_per_day" mapstructure:"max_per_day"`
}

// Config carries every soft-constraint weight and counting threshold as
// data. It is passed into the solver at solve time; nothing in the engine
// hard-codes a weight.
type Config struct {
	RoomWasteWeight         float64       `json:"room_waste_weight" mapstructure:"room_waste_weight"`
	DayPreferenceWeight     float64       `json:"day_preference_weight" mapstructure:"day_preference_weight"`
	PatternPreferenceWeight float64       `json:"pattern_preference_weight" mapstructure:"pattern_preference_weight"`
	AdjunctDayWeight        float64       `json:"adjunct_day_weight" mapstructure:"adjunct_day_weight"`
	AdjunctMaxDays          int           `json:"adjunct_max_days" mapstructure:"adjunct_max_days"`
	DiversificationWeight   float64       `json:"diversification_weight" mapstructure:"diversification_weight"`
	BalanceWeight           float64       `json:"balance_weight" mapstructure:"balance_weight"`
	BalanceTag              string        `json:"balance_tag" mapstructure:"balance_tag"`
	CountingCaps            []CountingCap `json:"counting_caps" mapstructure:"counting_caps"`
}

// DefaultConfig mirrors the historically used weights: a flat 10 for a
// missed day preference and 5 for a missed pattern preference, with room
// waste counted per unused seat.
func DefaultConfig() Config {
	return Config{
		RoomWasteWeight:         1,
		DayPreferenceWeight:     10,
		PatternPreferenceWeight: 5,
		AdjunctDayWeight:        15,
		AdjunctMaxDays:          2,
		DiversificationWeight:   4,
		BalanceWeight:           2,
		BalanceTag:              "required",
	}
}
