package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cwru-xlab/course-scheduler/internal/cp"
	"github.com/cwru-xlab/course-scheduler/internal/engine"
)

func main() {
	filePathPtr := flag.String("file", "", "Path to the scheduling input file (JSON)")
	timeoutPtr := flag.Duration("timeout", 30*time.Second, "Wall-clock budget for the solve")
	flag.Parse()

	if *filePathPtr == "" {
		log.Fatal("an input file must be specified")
	}

	input, err := engine.InputFromJSON(*filePathPtr)
	if err != nil {
		log.Fatalf("cannot parse input file: %v", err)
	}

	diagnoser := engine.NewDiagnoser()

	if validationErrors := engine.NewValidator().Validate(input); len(validationErrors) > 0 {
		fmt.Println("Input rejected:")
		for _, validationError := range validationErrors {
			fmt.Printf("  [%s] %s\n", validationError.Code, validationError.Message)
		}
		printDiagnostics(diagnoser.Diagnose(input, validationErrors))
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutPtr)
	defer cancel()

	solver := engine.NewSolver(cp.NewBranchBoundEngine(), engine.DefaultConfig())
	solution, err := solver.Solve(ctx, input, nil, nil)
	if err != nil {
		var infeasible *engine.InfeasibleError
		if errors.As(err, &infeasible) {
			fmt.Println("No feasible schedule:")
			for _, validationError := range infeasible.Errors {
				fmt.Printf("  [%s] %s\n", validationError.Code, validationError.Message)
			}
			printDiagnostics(diagnoser.Diagnose(input, infeasible.Errors))
			os.Exit(3)
		}
		log.Fatalf("an error occurred during solving: %v", err)
	}

	solution.Explanations = engine.NewExplainer().Explain(solution, input)

	for _, explanation := range solution.Explanations {
		fmt.Println(explanation)
	}
	fmt.Printf("\nTotal score: %g (optimal: %v)\n", solution.TotalScore, solution.Optimal)
	for _, key := range []string{
		engine.PenaltyRoomWaste,
		engine.PenaltyInstructorDay,
		engine.PenaltyInstructorPattern,
		engine.PenaltyAdjunctDays,
		engine.PenaltyCourseDiversification,
		engine.PenaltyWeekdayBalance,
		engine.PenaltySoftLock,
	} {
		fmt.Printf("  %s: %g\n", key, solution.PenaltyBreakdown[key])
	}
}

func printDiagnostics(diagnostics engine.Diagnostics) {
	if len(diagnostics.FeasibleIfRelax) > 0 {
		fmt.Println("Likely feasible if relaxed:")
		for _, hint := range diagnostics.FeasibleIfRelax {
			fmt.Printf("  %s\n", hint)
		}
	}
	if len(diagnostics.FeasibleIfRemoveSection) > 0 {
		fmt.Println("Likely feasible if removed:")
		for _, sectionID := range diagnostics.FeasibleIfRemoveSection {
			fmt.Printf("  %s\n", sectionID)
		}
	}
}
