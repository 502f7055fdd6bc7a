package model

import (
	"fmt"

	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"
)

type subjectSeat struct {
	classroom int
	subject   string
}

// diagnoseSubjects probes an infeasible model for the most common culprit of
// the capability-matching variant: subject preferences that cannot be matched
// to the capacities of the classrooms tagged with them. The probe runs a
// maximum bipartite matching between preferring students and tagged seats; a
// deficient matching proves the subject layer alone is unsatisfiable,
// regardless of every other constraint.
func diagnoseSubjects(model *Model) string {
	preferring := lo.Filter(model.Students, func(student Student, _ int) bool { return student.Subject != "" })
	tagged := lo.SomeBy(model.Classrooms, func(classroom Classroom) bool { return classroom.Subject != "" })
	if len(preferring) == 0 || !tagged {
		return ""
	}

	seats := make([]subjectSeat, 0)
	for c, classroom := range model.Classrooms {
		for i := 0; i < classroom.Capacity; i++ {
			seats = append(seats, subjectSeat{classroom: c, subject: classroom.Subject})
		}
	}

	neighbors := func(studentAny any, seatAny any) (bool, error) {
		return studentAny.(Student).Subject == seatAny.(subjectSeat).subject, nil
	}

	studentsAny := lo.Map(preferring, func(student Student, _ int) any { return student })
	seatsAny := lo.Map(seats, func(seat subjectSeat, _ int) any { return seat })

	graph, err := bipartitegraph.NewBipartiteGraph(studentsAny, seatsAny, neighbors)
	if err != nil {
		return ""
	}

	matching := graph.LargestMatching()
	if len(matching) < len(preferring) {
		return fmt.Sprintf("subject preferences alone are unsatisfiable: only %d of %d preferring students fit the tagged classroom capacities", len(matching), len(preferring))
	}
	return ""
}
