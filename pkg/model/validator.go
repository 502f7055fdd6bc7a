package model

import (
	"fmt"

	"go.uber.org/multierr"
)

// VerifyAssignment re-checks every constraint descriptor of the model against
// the values the engine returned. The solving contract guarantees posted
// constraints are satisfied, so any violation is a bug in the builder or the
// adapter; all violations are collected and returned as one
// ConstraintViolationError.
func VerifyAssignment(assignment *Assignment) error {
	var violations error

	indicator := func(ind IndRef) bool {
		return assignment.indicators[ind.Student][ind.Classroom]
	}
	student := func(ref VarRef) Student {
		return assignment.Model.Students[ref]
	}

	for _, constraint := range assignment.Model.Constraints {
		switch c := constraint.(type) {
		case ExactlyOne:
			held := 0
			for _, ind := range c.Indicators {
				if indicator(ind) {
					held++
				}
			}
			if held != 1 {
				violations = multierr.Append(violations, fmt.Errorf("%s: %d indicators hold, want exactly one", c.Label(), held))
			}
		case LinearRange:
			sum := 0
			for _, term := range c.Terms {
				if indicator(term.Ind) {
					sum += term.Weight
				}
			}
			if sum < c.Lo || sum > c.Hi {
				violations = multierr.Append(violations, fmt.Errorf("%s: sum %d outside [%d, %d]", c.Label(), sum, c.Lo, c.Hi))
			}
		case IntEqual:
			if assignment.classOf[c.A] != assignment.classOf[c.B] {
				violations = multierr.Append(violations, fmt.Errorf("%s: students %d and %d are in classrooms %d and %d, want the same",
					c.Label(), student(c.A).ID, student(c.B).ID, assignment.classOf[c.A], assignment.classOf[c.B]))
			}
		case IntNotEqual:
			if assignment.classOf[c.A] == assignment.classOf[c.B] {
				violations = multierr.Append(violations, fmt.Errorf("%s: students %d and %d share classroom %d, want different",
					c.Label(), student(c.A).ID, student(c.B).ID, assignment.classOf[c.A]))
			}
		case Link:
			if indicator(c.Indicator) != (assignment.classOf[c.Variable] == c.Value) {
				violations = multierr.Append(violations, fmt.Errorf("%s: indicator disagrees with assignment variable", c.Label()))
			}
		default:
			violations = multierr.Append(violations, fmt.Errorf("%s: unknown constraint variant %T", constraint.Label(), constraint))
		}
	}

	if violations != nil {
		return &ConstraintViolationError{Violations: violations}
	}
	return nil
}

// ClassSummary aggregates one classroom of a solved assignment
type ClassSummary struct {
	Classroom int
	Subject   string
	Count     int
	ScoreSum  int
	ScoreMean float64
	Genders   map[string]int
	Leaders   int
	Players   int
	Truants   int
	Athletes  int
	Clubs     map[string]int
	Cohorts   map[string]int
}

// Summarize derives the per-classroom aggregates of an assignment. Formatting
// and printing are the caller's concern.
func Summarize(assignment *Assignment) []ClassSummary {
	summaries := make([]ClassSummary, len(assignment.Model.Classrooms))
	for c, classroom := range assignment.Model.Classrooms {
		summaries[c] = ClassSummary{
			Classroom: classroom.ID,
			Subject:   classroom.Subject,
			Genders:   make(map[string]int),
			Clubs:     make(map[string]int),
			Cohorts:   make(map[string]int),
		}
	}

	for s, student := range assignment.Model.Students {
		summary := &summaries[assignment.classOf[s]]
		summary.Count++
		summary.ScoreSum += student.Score
		summary.Genders[student.Gender]++
		if student.Leader {
			summary.Leaders++
		}
		if student.PlaysInstrument {
			summary.Players++
		}
		if student.Truant {
			summary.Truants++
		}
		if student.Athletic {
			summary.Athletes++
		}
		if student.Club != "" {
			summary.Clubs[student.Club]++
		}
		if student.PriorCohort != "" {
			summary.Cohorts[student.PriorCohort]++
		}
	}

	for c := range summaries {
		if summaries[c].Count > 0 {
			summaries[c].ScoreMean = float64(summaries[c].ScoreSum) / float64(summaries[c].Count)
		}
	}
	return summaries
}
