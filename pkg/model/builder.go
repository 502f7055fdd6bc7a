package model

import (
	"fmt"
	"math"
	"sort"

	"github.com/samber/lo"
)

type builderState struct {
	students   []Student
	classrooms []Classroom
	relations  []Relation
	config     Config
	byID       map[int]int
}

// BuildModel deterministically produces the complete constraint model for a
// student population and classroom set. The same normalized input and
// configuration always yield the same constraint set. Capacities must sum to
// the population; everything else that can go wrong (contradictory relations,
// undistributable subjects, empty leader pools) is left in the model for the
// solving engine to prove infeasible.
func BuildModel(students []Student, classrooms []Classroom, config Config) (Model, error) {
	capacitySum := lo.SumBy(classrooms, func(classroom Classroom) int { return classroom.Capacity })
	if capacitySum != len(students) {
		return Model{}, &CapacityMismatchError{CapacitySum: capacitySum, Population: len(students)}
	}

	state := &builderState{
		students:   students,
		classrooms: classrooms,
		relations:  BuildRelations(students, config.PairAllGoodRelations),
		config:     config,
		byID:       make(map[int]int, len(students)),
	}
	for i, student := range students {
		state.byID[student.ID] = i
	}

	// Constraint families
	families := []func(state *builderState) []Constraint{
		assignmentConstraints,
		capacityConstraints,
		relationConstraints,
		subjectConstraints,
		leaderConstraints,
		featureBalanceConstraints,
		cohortConstraints,
		scoreConstraints,
	}

	// Build each family on its own goroutine and collect into fixed slots so
	// the resulting constraint order stays deterministic
	slots := make([][]Constraint, len(families))
	done := make(chan int)
	for i, family := range families {
		go func(i int, family func(state *builderState) []Constraint) {
			slots[i] = family(state)
			done <- i
		}(i, family)
	}
	for range families {
		<-done
	}

	constraints := make([]Constraint, 0)
	for _, slot := range slots {
		constraints = append(constraints, slot...)
	}

	return Model{
		Students:    students,
		Classrooms:  classrooms,
		Relations:   state.relations,
		Config:      config,
		Constraints: constraints,
	}, nil
}

// assignmentConstraints give every student exactly one classroom: an
// exactly-one group over the student's indicators, each linked to the
// student's assignment variable taking that classroom's index
func assignmentConstraints(state *builderState) []Constraint {
	constraints := make([]Constraint, 0, len(state.students)*(len(state.classrooms)+1))

	for s, student := range state.students {
		indicators := make([]IndRef, len(state.classrooms))
		for c := range state.classrooms {
			indicators[c] = IndRef{Student: s, Classroom: c}
			constraints = append(constraints, Link{
				Name:      fmt.Sprintf("link/student=%d/classroom=%d", student.ID, state.classrooms[c].ID),
				Indicator: indicators[c],
				Variable:  VarRef(s),
				Value:     c,
			})
		}
		constraints = append(constraints, ExactlyOne{
			Name:       fmt.Sprintf("assign/student=%d", student.ID),
			Indicators: indicators,
		})
	}
	return constraints
}

// capacityConstraints pin every classroom's student count to its exact
// capacity; the sizes are pre-partitioned, so this is an equality and not a
// range
func capacityConstraints(state *builderState) []Constraint {
	constraints := make([]Constraint, 0, len(state.classrooms))

	for c, classroom := range state.classrooms {
		terms := make([]LinearTerm, len(state.students))
		for s := range state.students {
			terms[s] = LinearTerm{Ind: IndRef{Student: s, Classroom: c}, Weight: 1}
		}
		constraints = append(constraints, LinearRange{
			Name:  fmt.Sprintf("capacity/classroom=%d", classroom.ID),
			Terms: terms,
			Lo:    classroom.Capacity,
			Hi:    classroom.Capacity,
		})
	}
	return constraints
}

// relationConstraints separate incompatible pairs and co-locate must-pairs.
// Both are posted even when they contradict each other on some student: such
// a conflict is a data-quality issue that must surface as infeasibility from
// the solve, never be silently resolved here.
func relationConstraints(state *builderState) []Constraint {
	constraints := make([]Constraint, 0, len(state.relations))

	for _, relation := range state.relations {
		a, b := VarRef(state.byID[relation.A]), VarRef(state.byID[relation.B])
		name := fmt.Sprintf("%v/%d~%d", relation.Kind, relation.A, relation.B)

		if relation.Kind == RelationMustPair {
			constraints = append(constraints, IntEqual{Name: name, A: a, B: b})
		} else {
			constraints = append(constraints, IntNotEqual{Name: name, A: a, B: b})
		}
	}
	return constraints
}

// subjectConstraints forbid assigning a student with a subject preference to
// any classroom not tagged with that subject. When preference counts are
// incompatible with the tagged capacities the model is simply infeasible;
// no repair is attempted.
func subjectConstraints(state *builderState) []Constraint {
	tagged := lo.SomeBy(state.classrooms, func(classroom Classroom) bool { return classroom.Subject != "" })
	if !tagged {
		return nil
	}

	constraints := make([]Constraint, 0)
	for s, student := range state.students {
		if student.Subject == "" {
			continue
		}
		for c, classroom := range state.classrooms {
			if classroom.Subject == student.Subject {
				continue
			}
			constraints = append(constraints, LinearRange{
				Name:  fmt.Sprintf("subject/student=%d/classroom=%d", student.ID, classroom.ID),
				Terms: []LinearTerm{{Ind: IndRef{Student: s, Classroom: c}, Weight: 1}},
				Lo:    0,
				Hi:    0,
			})
		}
	}
	return constraints
}

// leaderConstraints bound the number of leaders per classroom with the
// explicit configured minimum and maximum, overriding the floor/ceil rule
func leaderConstraints(state *builderState) []Constraint {
	leaders := memberTerms(state, func(student Student) bool { return student.Leader })

	constraints := make([]Constraint, 0, len(state.classrooms))
	for c, classroom := range state.classrooms {
		constraints = append(constraints, LinearRange{
			Name:  fmt.Sprintf("leaders/classroom=%d", classroom.ID),
			Terms: leaders[c],
			Lo:    state.config.LeaderMin,
			Hi:    state.config.LeaderMax,
		})
	}
	return constraints
}

// featureBalanceConstraints bound every configured feature's per-classroom
// count to [floor(total/K), ceil(total/K)]; categorical features (gender,
// club) apply the rule per distinct value
func featureBalanceConstraints(state *builderState) []Constraint {
	constraints := make([]Constraint, 0)

	for _, feature := range state.config.BalanceFeatures {
		switch feature {
		case FeatureGender:
			for _, value := range distinctValues(state.students, func(student Student) string { return student.Gender }) {
				constraints = append(constraints, balanceRange(state, fmt.Sprintf("balance/gender=%s", value),
					func(student Student) bool { return student.Gender == value })...)
			}
		case FeatureClub:
			for _, value := range distinctValues(state.students, func(student Student) string { return student.Club }) {
				constraints = append(constraints, balanceRange(state, fmt.Sprintf("balance/club=%s", value),
					func(student Student) bool { return student.Club == value })...)
			}
		case FeaturePlaysInstrument:
			constraints = append(constraints, balanceRange(state, "balance/feature=plays_instrument",
				func(student Student) bool { return student.PlaysInstrument })...)
		case FeatureTruant:
			constraints = append(constraints, balanceRange(state, "balance/feature=is_truant",
				func(student Student) bool { return student.Truant })...)
		case FeatureAthletic:
			constraints = append(constraints, balanceRange(state, "balance/feature=is_athletic",
				func(student Student) bool { return student.Athletic })...)
		}
	}
	return constraints
}

// cohortConstraints cap how many classmates from the same prior-year cohort
// may land in one classroom. Overlap is minimized, not balanced, so only an
// upper bound is posted.
func cohortConstraints(state *builderState) []Constraint {
	constraints := make([]Constraint, 0)

	for _, cohort := range distinctValues(state.students, func(student Student) string { return student.PriorCohort }) {
		members := memberTerms(state, func(student Student) bool { return student.PriorCohort == cohort })
		for c, classroom := range state.classrooms {
			if len(members[c]) <= state.config.MaxPriorCohortOverlap {
				continue // the cohort is too small to ever exceed the cap
			}
			constraints = append(constraints, LinearRange{
				Name:  fmt.Sprintf("cohort/%s/classroom=%d", cohort, classroom.ID),
				Terms: members[c],
				Lo:    0,
				Hi:    state.config.MaxPriorCohortOverlap,
			})
		}
	}
	return constraints
}

// scoreConstraints convert the score balance goal into a hard range: each
// classroom's score sum must land within ideal*(1±tolerance), where ideal is
// total/K. If no assignment satisfies every range the model is infeasible
// rather than approximately satisfied.
func scoreConstraints(state *builderState) []Constraint {
	total := lo.SumBy(state.students, func(student Student) int { return student.Score })
	ideal := float64(total) / float64(len(state.classrooms))
	lower := int(ideal - ideal*state.config.ScoreTolerance)
	upper := int(ideal + ideal*state.config.ScoreTolerance)

	constraints := make([]Constraint, 0, len(state.classrooms))
	for c, classroom := range state.classrooms {
		terms := make([]LinearTerm, len(state.students))
		for s, student := range state.students {
			terms[s] = LinearTerm{Ind: IndRef{Student: s, Classroom: c}, Weight: student.Score}
		}
		constraints = append(constraints, LinearRange{
			Name:  fmt.Sprintf("score/classroom=%d", classroom.ID),
			Terms: terms,
			Lo:    lower,
			Hi:    upper,
		})
	}
	return constraints
}

// balanceRange posts one floor/ceil range per classroom for the students
// matching the predicate
func balanceRange(state *builderState, name string, predicate func(student Student) bool) []Constraint {
	members := memberTerms(state, predicate)
	total := len(members[0])
	if total == 0 {
		return nil
	}

	floor := total / len(state.classrooms)
	ceil := int(math.Ceil(float64(total) / float64(len(state.classrooms))))

	constraints := make([]Constraint, 0, len(state.classrooms))
	for c, classroom := range state.classrooms {
		constraints = append(constraints, LinearRange{
			Name:  fmt.Sprintf("%s/classroom=%d", name, classroom.ID),
			Terms: members[c],
			Lo:    floor,
			Hi:    ceil,
		})
	}
	return constraints
}

// memberTerms returns, per classroom, the unit terms of the students matching
// the predicate
func memberTerms(state *builderState, predicate func(student Student) bool) [][]LinearTerm {
	terms := make([][]LinearTerm, len(state.classrooms))
	for c := range state.classrooms {
		for s, student := range state.students {
			if predicate(student) {
				terms[c] = append(terms[c], LinearTerm{Ind: IndRef{Student: s, Classroom: c}, Weight: 1})
			}
		}
	}
	return terms
}

// distinctValues collects the non-empty values of a categorical attribute in
// sorted order, keeping constraint generation deterministic
func distinctValues(students []Student, attribute func(student Student) string) []string {
	values := lo.Uniq(lo.FilterMap(students, func(student Student, _ int) (string, bool) {
		value := attribute(student)
		return value, value != ""
	}))
	sort.Strings(values)
	return values
}
