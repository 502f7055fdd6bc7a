package model

import (
	"fmt"
	"math/rand"
	"slices"
	"strconv"

	"github.com/samber/lo"

	"github.com/classforge/classforge/pkg/roster"
)

// NoRelation marks an absent relation reference
const NoRelation = -1

type Student struct {
	ID              int
	Name            string
	Score           int
	Gender          string
	Leader          bool
	PlaysInstrument bool
	Truant          bool
	Athletic        bool
	Club            string // empty means no club
	PriorCohort     string // empty means unknown
	GoodRelation    int    // student id or NoRelation
	BadRelation     int    // student id or NoRelation
	Subject         string // preferred subject, empty means no preference
}

type Classroom struct {
	ID       int
	Capacity int
	Subject  string // required-subject tag, empty means none
}

type RelationKind int

const (
	RelationIncompatible RelationKind = iota
	RelationMustPair
)

func (kind RelationKind) String() string {
	if kind == RelationMustPair {
		return "must-pair"
	}
	return "incompatible"
}

// Relation is a symmetric student pair; A < B canonically so that duplicates
// of the same unordered pair collapse
type Relation struct {
	A, B int
	Kind RelationKind
}

// NormalizeStudents coerces raw roster records into canonical Student values.
// A missing or untypeable id, score or gender fails the whole batch with a
// MalformedRecordError; boolean flags default to false; relation references
// that are not numeric or do not resolve to another student in the batch are
// dropped with an UnresolvedRelationWarning.
func NormalizeStudents(raw []roster.RawStudent) ([]Student, []UnresolvedRelationWarning, error) {
	students := make([]Student, 0, len(raw))
	known := make(map[int]bool, len(raw))
	warnings := make([]UnresolvedRelationWarning, 0)

	for i, record := range raw {
		id, err := requireInt(record.ID, i, "id")
		if err != nil {
			return nil, nil, err
		}
		if known[id] {
			return nil, nil, &MalformedRecordError{Record: i, Field: "id", Value: record.ID}
		}
		known[id] = true

		score, err := requireInt(record.Score, i, "score")
		if err != nil {
			return nil, nil, err
		}
		if record.Gender == "" {
			return nil, nil, &MalformedRecordError{Record: i, Field: "gender"}
		}

		good, ok := relationRef(record.GoodRelation)
		if !ok {
			warnings = append(warnings, UnresolvedRelationWarning{StudentID: id, Field: "good_relation", Ref: record.GoodRelation})
		}
		bad, ok := relationRef(record.BadRelation)
		if !ok {
			warnings = append(warnings, UnresolvedRelationWarning{StudentID: id, Field: "bad_relation", Ref: record.BadRelation})
		}

		students = append(students, Student{
			ID:              id,
			Name:            record.Name,
			Score:           score,
			Gender:          record.Gender,
			Leader:          yes(record.IsLeader),
			PlaysInstrument: yes(record.PlaysPiano),
			Truant:          yes(record.IsTruant),
			Athletic:        yes(record.IsAthletic),
			Club:            record.Club,
			PriorCohort:     record.LastYearClass,
			GoodRelation:    good,
			BadRelation:     bad,
			Subject:         record.PreferredSubject,
		})
	}

	// Relation references may point at students outside this run; drop those
	// instead of failing
	for i := range students {
		student := &students[i]
		if student.GoodRelation != NoRelation && (!known[student.GoodRelation] || student.GoodRelation == student.ID) {
			warnings = append(warnings, UnresolvedRelationWarning{StudentID: student.ID, Field: "good_relation", Ref: strconv.Itoa(student.GoodRelation)})
			student.GoodRelation = NoRelation
		}
		if student.BadRelation != NoRelation && (!known[student.BadRelation] || student.BadRelation == student.ID) {
			warnings = append(warnings, UnresolvedRelationWarning{StudentID: student.ID, Field: "bad_relation", Ref: strconv.Itoa(student.BadRelation)})
			student.BadRelation = NoRelation
		}
	}

	return students, warnings, nil
}

// BuildRelations derives the relation set. Every bad_relation becomes an
// incompatible pair; a good_relation becomes a must-pair when its owner is
// truant (keeping a truant student next to their friend), or for every
// student when pairAll is set. Duplicate unordered pairs of the same kind
// collapse into one relation.
func BuildRelations(students []Student, pairAll bool) []Relation {
	relations := make([]Relation, 0)
	seen := make(map[Relation]bool)

	add := func(a, b int, kind RelationKind) {
		if a > b {
			a, b = b, a
		}
		relation := Relation{A: a, B: b, Kind: kind}
		if !seen[relation] {
			seen[relation] = true
			relations = append(relations, relation)
		}
	}

	for _, student := range students {
		if student.BadRelation != NoRelation {
			add(student.ID, student.BadRelation, RelationIncompatible)
		}
		if student.GoodRelation != NoRelation && (pairAll || student.Truant) {
			add(student.ID, student.GoodRelation, RelationMustPair)
		}
	}
	return relations
}

// PartitionCapacities splits a population into exact per-classroom sizes. The
// remainder seats go to classrooms chosen by the seeded source, so a run is
// reproducible given the same seed.
func PartitionCapacities(population, classrooms int, seed int64) (map[int]int, error) {
	if classrooms < 1 {
		return nil, fmt.Errorf("at least one classroom is required, got %d", classrooms)
	}

	base := population / classrooms
	overflow := population % classrooms

	rng := rand.New(rand.NewSource(seed))
	large := rng.Perm(classrooms)[:overflow]

	capacities := make(map[int]int, classrooms)
	for id := 0; id < classrooms; id++ {
		capacities[id] = base
		if slices.Contains(large, id) {
			capacities[id]++
		}
	}
	return capacities, nil
}

// BuildClassrooms materializes the classroom set from the configuration,
// deriving capacities from the population when none are configured
func BuildClassrooms(config Config, population int) ([]Classroom, error) {
	capacities := config.Capacities
	if capacities == nil {
		var err error
		capacities, err = PartitionCapacities(population, config.NumClassrooms, config.Seed)
		if err != nil {
			return nil, err
		}
	}

	total := lo.Sum(lo.Values(capacities))
	if total != population {
		return nil, &CapacityMismatchError{CapacitySum: total, Population: population}
	}

	classrooms := make([]Classroom, 0, config.NumClassrooms)
	for id := 0; id < config.NumClassrooms; id++ {
		capacity, ok := capacities[id]
		if !ok {
			return nil, fmt.Errorf("no capacity configured for classroom %d", id)
		}
		classrooms = append(classrooms, Classroom{
			ID:       id,
			Capacity: capacity,
			Subject:  config.ClassroomSubjects[id],
		})
	}
	return classrooms, nil
}

func requireInt(value string, record int, field string) (int, error) {
	if value == "" {
		return 0, &MalformedRecordError{Record: record, Field: field}
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, &MalformedRecordError{Record: record, Field: field, Value: value}
	}
	return parsed, nil
}

// relationRef coerces a relation reference; anything non-numeric counts as
// absent, not as a malformed record
func relationRef(value string) (int, bool) {
	if value == "" {
		return NoRelation, true
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return NoRelation, false
	}
	return parsed, true
}

func yes(value string) bool {
	return value == "yes"
}
