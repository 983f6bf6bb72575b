package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/samber/lo"

	"github.com/cwru-xlab/course-scheduler/internal/cp"
	"github.com/cwru-xlab/course-scheduler/internal/engine"
)

// Synthetic workload sizes, roughly a small department up to a full college.
var scales = []scale{
	{name: "small", sections: 10, rooms: 4, instructors: 5},
	{name: "medium", sections: 30, rooms: 10, instructors: 12},
	{name: "large", sections: 80, rooms: 20, instructors: 30},
	{name: "xlarge", sections: 150, rooms: 35, instructors: 50},
}

type scale struct {
	name        string
	sections    int
	rooms       int
	instructors int
}

func main() {
	timeoutPtr := flag.Duration("timeout", 60*time.Second, "Per-instance solve budget")
	flag.Parse()

	solver := engine.NewSolver(cp.NewBranchBoundEngine(), engine.DefaultConfig())

	fmt.Printf("%-8s %-10s %-8s %-10s %-12s %s\n", "scale", "sections", "rooms", "result", "duration", "score")
	for _, s := range scales {
		input := synthesize(s)

		ctx, cancel := context.WithTimeout(context.Background(), *timeoutPtr)
		started := time.Now()
		solution, err := solver.Solve(ctx, input, nil, nil)
		took := time.Since(started)
		cancel()

		switch {
		case err == nil && solution.Optimal:
			fmt.Printf("%-8s %-10d %-8d %-10s %-12s %g\n", s.name, s.sections, s.rooms, "optimal", took.Round(time.Millisecond), solution.TotalScore)
		case err == nil:
			fmt.Printf("%-8s %-10d %-8d %-10s %-12s %g\n", s.name, s.sections, s.rooms, "timeout", took.Round(time.Millisecond), solution.TotalScore)
		default:
			var infeasible *engine.InfeasibleError
			if errors.As(err, &infeasible) {
				fmt.Printf("%-8s %-10d %-8d %-10s %-12s -\n", s.name, s.sections, s.rooms, infeasible.Code, took.Round(time.Millisecond))
				continue
			}
			log.Fatalf("benchmark aborted on %v-scale instance: %v", s.name, err)
		}
	}
}

// synthesize builds a feasible instance: five weekday slot-pairs per pattern,
// rooms with staggered capacities and sections that rotate through
// instructors and enrollment sizes.
func synthesize(s scale) engine.SchedulingInput {
	days := []string{"Mon", "Tue", "Wed", "Thu", "Fri"}

	var timeslots []engine.Timeslot
	for slot := 0; slot < 6; slot++ {
		for _, day := range days {
			timeslots = append(timeslots, engine.Timeslot{
				ID:        fmt.Sprintf("%s-%d", day, slot),
				Day:       day,
				StartTime: fmt.Sprintf("%02d:00", 8+slot),
				EndTime:   fmt.Sprintf("%02d:50", 8+slot),
			})
		}
	}

	// Monday/Wednesday and Tuesday/Thursday pairs at each hour.
	var patterns []engine.MeetingPattern
	for slot := 0; slot < 6; slot++ {
		patterns = append(patterns,
			engine.MeetingPattern{
				ID:                     fmt.Sprintf("mw-%d", slot),
				SlotsRequired:          2,
				AllowedDays:            []string{"Mon", "Wed"},
				CompatibleTimeslotSets: [][]string{{fmt.Sprintf("Mon-%d", slot), fmt.Sprintf("Wed-%d", slot)}},
			},
			engine.MeetingPattern{
				ID:                     fmt.Sprintf("tt-%d", slot),
				SlotsRequired:          2,
				AllowedDays:            []string{"Tue", "Thu"},
				CompatibleTimeslotSets: [][]string{{fmt.Sprintf("Tue-%d", slot), fmt.Sprintf("Thu-%d", slot)}},
			},
		)
	}
	patternIDs := lo.Map(patterns, func(pattern engine.MeetingPattern, _ int) string {
		return pattern.ID
	})

	rooms := lo.RepeatBy(s.rooms, func(i int) engine.Room {
		return engine.Room{
			ID:       fmt.Sprintf("room-%03d", i),
			Capacity: 25 + 15*(i%4),
		}
	})

	instructors := lo.RepeatBy(s.instructors, func(i int) engine.Instructor {
		return engine.Instructor{ID: fmt.Sprintf("inst-%03d", i)}
	})

	sections := lo.RepeatBy(s.sections, func(i int) engine.Section {
		return engine.Section{
			ID:                     fmt.Sprintf("sec-%03d", i),
			CourseID:               fmt.Sprintf("course-%03d", i/2),
			InstructorID:           instructors[i%len(instructors)].ID,
			ExpectedEnrollment:     18 + 7*(i%5),
			AllowedMeetingPatterns: patternIDs,
		}
	})

	return engine.SchedulingInput{
		Sections:        sections,
		Instructors:     instructors,
		Rooms:           rooms,
		Timeslots:       timeslots,
		MeetingPatterns: patterns,
	}
}
