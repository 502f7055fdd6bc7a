package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/classforge/classforge/pkg/cp"
)

// solvedAssignment builds and solves a small model so tests can tamper with
// the result
func solvedAssignment(t *testing.T, students []Student, classrooms []Classroom, config Config) *Assignment {
	t.Helper()
	assignment, err := NewAssigner(cp.NewGophersatEngine()).Assign(students, classrooms, config)
	assert.Nil(t, err)
	return assignment
}

func TestVerifyAssignment(t *testing.T) {
	students := []Student{unrelated(1), unrelated(2), unrelated(3), unrelated(4)}
	students[0].BadRelation = 2

	t.Run("Accepts an untouched solve", func(t *testing.T) {
		//** Arrange
		assignment := solvedAssignment(t, students, twoClassrooms(2), relaxedConfig(2))

		//** Act / Assert
		assert.Nil(t, VerifyAssignment(assignment))
	})

	t.Run("Flags a broken indicator link", func(t *testing.T) {
		//** Arrange
		assignment := solvedAssignment(t, students, twoClassrooms(2), relaxedConfig(2))
		assignment.indicators[0][0] = !assignment.indicators[0][0]
		assignment.indicators[0][1] = !assignment.indicators[0][1]

		//** Act
		err := VerifyAssignment(assignment)

		//** Assert
		var violation *ConstraintViolationError
		assert.ErrorAs(t, err, &violation)
		assert.Contains(t, err.Error(), "link/student=1")
	})

	t.Run("Flags a capacity overflow", func(t *testing.T) {
		//** Arrange
		assignment := solvedAssignment(t, students, twoClassrooms(2), relaxedConfig(2))
		// Move every student into classroom 0
		for s := range assignment.Model.Students {
			assignment.classOf[s] = 0
			assignment.indicators[s][0] = true
			assignment.indicators[s][1] = false
		}

		//** Act
		err := VerifyAssignment(assignment)

		//** Assert
		var violation *ConstraintViolationError
		assert.ErrorAs(t, err, &violation)
		assert.Contains(t, err.Error(), "capacity/classroom=0")
		assert.Contains(t, err.Error(), "incompatible/1~2")
	})

	t.Run("Flags a doubled assignment group", func(t *testing.T) {
		//** Arrange
		assignment := solvedAssignment(t, students, twoClassrooms(2), relaxedConfig(2))
		assignment.indicators[2][0] = true
		assignment.indicators[2][1] = true

		//** Act
		err := VerifyAssignment(assignment)

		//** Assert
		var violation *ConstraintViolationError
		assert.ErrorAs(t, err, &violation)
		assert.Contains(t, err.Error(), "assign/student=3")
	})
}

func TestSummarize(t *testing.T) {
	//** Arrange
	students := make([]Student, 6)
	for i := range students {
		students[i] = unrelated(i + 1)
		students[i].Score = 10 * (i + 1)
	}
	students[0].Gender = "female"
	students[0].Leader = true
	students[1].PlaysInstrument = true
	students[2].Truant = true
	students[3].Athletic = true
	students[4].Club = "band"
	students[5].PriorCohort = "2"
	assignment := solvedAssignment(t, students, twoClassrooms(3), relaxedConfig(2))

	//** Act
	summaries := Summarize(assignment)

	//** Assert
	assert.Len(t, summaries, 2)
	counts, scores, leaders := 0, 0, 0
	for _, summary := range summaries {
		counts += summary.Count
		scores += summary.ScoreSum
		leaders += summary.Leaders
		assert.Equal(t, float64(summary.ScoreSum)/3, summary.ScoreMean)
	}
	assert.Equal(t, 6, counts)
	assert.Equal(t, 210, scores)
	assert.Equal(t, 1, leaders)

	class, _ := assignment.ClassOf(5)
	assert.Equal(t, map[string]int{"band": 1}, summaries[class].Clubs)
	class, _ = assignment.ClassOf(6)
	assert.Equal(t, map[string]int{"2": 1}, summaries[class].Cohorts)
}
