package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func twoClassrooms(capacity int) []Classroom {
	return []Classroom{{ID: 0, Capacity: capacity}, {ID: 1, Capacity: capacity}}
}

// relaxedConfig keeps every optional tolerance wide open so a test can
// exercise one constraint family in isolation
func relaxedConfig(numClassrooms int) Config {
	config := DefaultConfig(numClassrooms)
	config.ScoreTolerance = 1.0
	config.LeaderMin = 0
	config.LeaderMax = 1000
	config.BalanceFeatures = nil
	config.MaxPriorCohortOverlap = 1000
	return config
}

func unrelated(id int) Student {
	return Student{ID: id, Gender: "male", GoodRelation: NoRelation, BadRelation: NoRelation}
}

func TestBuildModel(t *testing.T) {
	t.Run("Rejects capacities that do not sum to the population", func(t *testing.T) {
		//** Arrange
		students := []Student{unrelated(1), unrelated(2), unrelated(3)}

		//** Act
		_, err := BuildModel(students, twoClassrooms(1), relaxedConfig(2))

		//** Assert
		var mismatch *CapacityMismatchError
		assert.ErrorAs(t, err, &mismatch)
	})

	t.Run("Is deterministic for the same input", func(t *testing.T) {
		//** Arrange
		students := []Student{unrelated(1), unrelated(2), unrelated(3), unrelated(4)}
		students[0].BadRelation = 2
		students[3].Truant = true
		students[3].GoodRelation = 1
		config := DefaultConfig(2)

		//** Act
		first, errFirst := BuildModel(students, twoClassrooms(2), config)
		second, errSecond := BuildModel(students, twoClassrooms(2), config)

		//** Assert
		assert.Nil(t, errFirst)
		assert.Nil(t, errSecond)
		assert.Empty(t, cmp.Diff(first, second))
	})

	t.Run("Posts one assignment group and one link per student and classroom", func(t *testing.T) {
		//** Arrange
		students := []Student{unrelated(1), unrelated(2), unrelated(3), unrelated(4)}

		//** Act
		model, err := BuildModel(students, twoClassrooms(2), relaxedConfig(2))

		//** Assert
		assert.Nil(t, err)
		groups := lo.Filter(model.Constraints, func(constraint Constraint, _ int) bool {
			_, ok := constraint.(ExactlyOne)
			return ok
		})
		links := lo.Filter(model.Constraints, func(constraint Constraint, _ int) bool {
			_, ok := constraint.(Link)
			return ok
		})
		assert.Len(t, groups, 4)
		assert.Len(t, links, 8)
	})

	t.Run("Pins every classroom to its exact capacity", func(t *testing.T) {
		//** Arrange
		students := []Student{unrelated(1), unrelated(2), unrelated(3)}
		classrooms := []Classroom{{ID: 0, Capacity: 2}, {ID: 1, Capacity: 1}}

		//** Act
		model, err := BuildModel(students, classrooms, relaxedConfig(2))

		//** Assert
		assert.Nil(t, err)
		capacity := findRange(t, model, "capacity/classroom=1")
		assert.Equal(t, 1, capacity.Lo)
		assert.Equal(t, 1, capacity.Hi)
		assert.Len(t, capacity.Terms, 3)
	})

	t.Run("Posts contradictory relations untouched", func(t *testing.T) {
		//** Arrange
		students := []Student{unrelated(1), unrelated(2)}
		students[0].Truant = true
		students[0].GoodRelation = 2
		students[1].BadRelation = 1

		//** Act
		model, err := BuildModel(students, twoClassrooms(1), relaxedConfig(2))

		//** Assert
		assert.Nil(t, err)
		equalities := lo.CountBy(model.Constraints, func(constraint Constraint) bool {
			_, ok := constraint.(IntEqual)
			return ok
		})
		disequalities := lo.CountBy(model.Constraints, func(constraint Constraint) bool {
			_, ok := constraint.(IntNotEqual)
			return ok
		})
		assert.Equal(t, 1, equalities)
		assert.Equal(t, 1, disequalities)
	})

	t.Run("Applies the configured leader bounds", func(t *testing.T) {
		//** Arrange
		students := []Student{unrelated(1), unrelated(2), unrelated(3), unrelated(4)}
		students[0].Leader = true
		students[2].Leader = true
		config := relaxedConfig(2)
		config.LeaderMin = 1
		config.LeaderMax = 2

		//** Act
		model, err := BuildModel(students, twoClassrooms(2), config)

		//** Assert
		assert.Nil(t, err)
		leaders := findRange(t, model, "leaders/classroom=0")
		assert.Equal(t, 1, leaders.Lo)
		assert.Equal(t, 2, leaders.Hi)
		assert.Len(t, leaders.Terms, 2)
	})

	t.Run("Converts the score tolerance into a hard range", func(t *testing.T) {
		//** Arrange
		students := make([]Student, 4)
		for i := range students {
			students[i] = unrelated(i + 1)
			students[i].Score = 100
		}
		config := relaxedConfig(2)
		config.ScoreTolerance = 0.05

		//** Act
		model, err := BuildModel(students, twoClassrooms(2), config)

		//** Assert
		assert.Nil(t, err)
		// Total 400 over two classrooms: ideal 200, 5% tolerance
		scores := findRange(t, model, "score/classroom=0")
		assert.Equal(t, 190, scores.Lo)
		assert.Equal(t, 210, scores.Hi)
		assert.Equal(t, 100, scores.Terms[0].Weight)
	})

	t.Run("Balances categorical features per distinct value", func(t *testing.T) {
		//** Arrange
		students := []Student{unrelated(1), unrelated(2), unrelated(3), unrelated(4)}
		students[0].Gender = "female"
		students[1].Gender = "female"
		students[2].Gender = "female"
		config := relaxedConfig(2)
		config.BalanceFeatures = []string{FeatureGender}

		//** Act
		model, err := BuildModel(students, twoClassrooms(2), config)

		//** Assert
		assert.Nil(t, err)
		// Three female students over two classrooms: floor 1, ceil 2
		female := findRange(t, model, "balance/gender=female/classroom=0")
		assert.Equal(t, 1, female.Lo)
		assert.Equal(t, 2, female.Hi)
		male := findRange(t, model, "balance/gender=male/classroom=1")
		assert.Equal(t, 0, male.Lo)
		assert.Equal(t, 1, male.Hi)
	})

	t.Run("Caps prior-cohort overlap only where the cohort can exceed it", func(t *testing.T) {
		//** Arrange
		students := make([]Student, 6)
		for i := range students {
			students[i] = unrelated(i + 1)
			students[i].PriorCohort = "a"
		}
		students[5].PriorCohort = "b"
		config := relaxedConfig(2)
		config.MaxPriorCohortOverlap = 3

		//** Act
		model, err := BuildModel(students, twoClassrooms(3), config)

		//** Assert
		assert.Nil(t, err)
		cohort := findRange(t, model, "cohort/a/classroom=0")
		assert.Equal(t, 0, cohort.Lo)
		assert.Equal(t, 3, cohort.Hi)
		// Cohort b has one member and can never exceed the cap
		assert.False(t, hasConstraint(model, "cohort/b/classroom=0"))
	})

	t.Run("Forbids untagged classrooms for students with a subject preference", func(t *testing.T) {
		//** Arrange
		students := []Student{unrelated(1), unrelated(2)}
		students[0].Subject = "music"
		classrooms := []Classroom{{ID: 0, Capacity: 1, Subject: "music"}, {ID: 1, Capacity: 1}}

		//** Act
		model, err := BuildModel(students, classrooms, relaxedConfig(2))

		//** Assert
		assert.Nil(t, err)
		forbidden := findRange(t, model, "subject/student=1/classroom=1")
		assert.Equal(t, 0, forbidden.Lo)
		assert.Equal(t, 0, forbidden.Hi)
		assert.False(t, hasConstraint(model, "subject/student=1/classroom=0"))
		assert.False(t, hasConstraint(model, "subject/student=2/classroom=1"))
	})
}

func findRange(t *testing.T, model Model, label string) LinearRange {
	t.Helper()
	for _, constraint := range model.Constraints {
		if constraint.Label() == label {
			linear, ok := constraint.(LinearRange)
			assert.True(t, ok)
			return linear
		}
	}
	t.Fatalf("no constraint labeled %q", label)
	return LinearRange{}
}

func hasConstraint(model Model, label string) bool {
	return lo.SomeBy(model.Constraints, func(constraint Constraint) bool { return constraint.Label() == label })
}
