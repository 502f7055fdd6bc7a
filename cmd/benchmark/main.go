package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/classforge/classforge/pkg/cp"
	"github.com/classforge/classforge/pkg/generate"
	"github.com/classforge/classforge/pkg/model"
)

type instance struct {
	students   int
	classrooms int
}

var instances = []instance{
	{students: 12, classrooms: 2},
	{students: 30, classrooms: 3},
	{students: 60, classrooms: 4},
	{students: 120, classrooms: 6},
	{students: 200, classrooms: 10},
}

func main() {
	seedPtr := flag.Int64("seed", 42, "Seed for the synthetic rosters")
	budgetPtr := flag.Duration("budget", 30*time.Second, "Time budget per solve")
	flag.Parse()

	engines := []cp.Engine{cp.NewGophersatEngine(), cp.NewBacktrackEngine()}

	for _, inst := range instances {
		raw := generate.Roster(generate.DefaultSpec(inst.students), *seedPtr)
		students, _, err := model.NormalizeStudents(raw)
		if err != nil {
			log.Fatalf("cannot normalize generated roster: %v", err)
		}

		config := model.DefaultConfig(inst.classrooms)
		config.Seed = *seedPtr
		config.TimeBudget = *budgetPtr

		classrooms, err := model.BuildClassrooms(config, len(students))
		if err != nil {
			log.Fatalf("cannot build classrooms: %v", err)
		}

		for _, engine := range engines {
			assigner := model.NewAssigner(engine)

			start := time.Now()
			assignment, err := assigner.Assign(students, classrooms, config)
			duration := time.Since(start)

			outcome := "solved"
			if err != nil {
				outcome = err.Error()
			} else if err := assigner.Verify(assignment); err != nil {
				outcome = fmt.Sprintf("verification failed: %v", err)
			}

			fmt.Printf("students=%d classrooms=%d engine=%v duration=%v outcome=%v\n",
				inst.students, inst.classrooms, engine.Name(), duration.Round(time.Millisecond), outcome)
		}
	}
}
