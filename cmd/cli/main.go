package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/classforge/classforge/pkg/cp"
	"github.com/classforge/classforge/pkg/model"
	"github.com/classforge/classforge/pkg/roster"
)

var engines = map[string]func() cp.Engine{
	"backtrack": cp.NewBacktrackEngine,
	"gophersat": cp.NewGophersatEngine,
}

func main() {
	rosterPtr := flag.String("roster", "", "Path to the student roster (.csv or .xlsx)")
	configPtr := flag.String("config", "", "Path to a JSON configuration file; defaults apply when empty")
	classroomsPtr := flag.Int("classrooms", 6, "Number of classrooms when no configuration file is given")
	enginePtr := flag.String("engine", "gophersat", `Solving engine. Allowed values are: "gophersat" and "backtrack", where "gophersat" is the default`)
	seedPtr := flag.Int64("seed", 0, "Seed governing which classrooms receive the overflow seats")
	outPtr := flag.String("out", "", "Path to the CSV file where assignments will be written; if empty, only the summary is printed")
	flag.Parse()

	engineName := strings.ToLower(*enginePtr)
	if *rosterPtr == "" {
		log.Fatal("a roster file must be specified")
	} else if _, ok := engines[engineName]; !ok {
		log.Fatalf("%v is not a valid engine", engineName)
	}

	// Extract input
	var raw []roster.RawStudent
	var err error
	if strings.EqualFold(path.Ext(*rosterPtr), ".xlsx") {
		raw, err = roster.ReadXLSX(*rosterPtr)
	} else {
		raw, err = roster.ReadCSV(*rosterPtr)
	}
	if err != nil {
		log.Fatalf("cannot read roster: %v", err)
	}

	students, warnings, err := model.NormalizeStudents(raw)
	if err != nil {
		log.Fatalf("cannot normalize roster: %v", err)
	}
	for _, warning := range warnings {
		log.Printf("warning: %v", warning)
	}

	config := model.DefaultConfig(*classroomsPtr)
	if *configPtr != "" {
		config, err = model.ConfigFromJSON(*configPtr)
		if err != nil {
			log.Fatalf("cannot load configuration: %v", err)
		}
	}
	if *seedPtr != 0 {
		config.Seed = *seedPtr
	}

	classrooms, err := model.BuildClassrooms(config, len(students))
	if err != nil {
		log.Fatalf("cannot build classrooms: %v", err)
	}

	// Solve
	assigner := model.NewAssigner(engines[engineName]())
	assignment, err := assigner.Assign(students, classrooms, config)

	var infeasible *model.ModelInfeasibleError
	var timeout *model.SolveTimeoutError
	if errors.As(err, &infeasible) {
		fmt.Printf("INFEASIBLE: %v\n", infeasible)
		os.Exit(20)
	} else if errors.As(err, &timeout) {
		fmt.Printf("TIMEOUT: %v\n", timeout)
		os.Exit(21)
	} else if err != nil {
		log.Fatalf("an error occurred during assignment: %v", err)
	}

	// Verify assignment correctness
	if err := assigner.Verify(assignment); err != nil {
		fmt.Printf("VERIFICATION FAILED: %v\n", err)
		os.Exit(15)
	}

	printSummary(assignment)

	if *outPtr != "" {
		if err := writeAssignments(*outPtr, assignment); err != nil {
			log.Fatalf("cannot write assignments: %v", err)
		}
	}
}

func printSummary(assignment *model.Assignment) {
	fmt.Printf("Status: %v\n", assignment.Status)

	for _, summary := range model.Summarize(assignment) {
		fmt.Printf("\n[ Classroom %d: %d students ]\n", summary.Classroom+1, summary.Count)
		if summary.Subject != "" {
			fmt.Printf("  - subject: %v\n", summary.Subject)
		}
		fmt.Printf("  - score mean: %.2f\n", summary.ScoreMean)
		fmt.Printf("  - genders: %v\n", formatCounts(summary.Genders))
		fmt.Printf("  - leaders: %d, players: %d, truants: %d, athletes: %d\n",
			summary.Leaders, summary.Players, summary.Truants, summary.Athletes)
		if len(summary.Clubs) > 0 {
			fmt.Printf("  - clubs: %v\n", formatCounts(summary.Clubs))
		}
		if len(summary.Cohorts) > 0 {
			fmt.Printf("  - prior cohorts: %v\n", formatCounts(summary.Cohorts))
		}
	}
}

func formatCounts(counts map[string]int) string {
	keys := lo.Keys(counts)
	sort.Strings(keys)

	parts := lo.Map(keys, func(key string, _ int) string {
		return fmt.Sprintf("%v: %d", key, counts[key])
	})
	return strings.Join(parts, ", ")
}

func writeAssignments(file string, assignment *model.Assignment) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	if err := writer.Write([]string{"id", "name", "assigned_classroom"}); err != nil {
		return err
	}
	for _, student := range assignment.Model.Students {
		record := []string{
			strconv.Itoa(student.ID),
			student.Name,
			strconv.Itoa(assignment.DisplayClass(student.ID)),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return nil
}
