package cp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBacktrackEngine(t *testing.T) {
	runEngineSuite(t, NewBacktrackEngine())
}

func TestGophersatEngine(t *testing.T) {
	runEngineSuite(t, NewGophersatEngine())
}

func runEngineSuite(t *testing.T, engine Engine) {
	t.Run("Linked indicators follow the integer variable", func(t *testing.T) {
		//** Arrange
		session := engine.NewSession()
		variable := session.NewIntVar(0, 2)
		indicators := []BoolVar{session.NewBoolVar(), session.NewBoolVar(), session.NewBoolVar()}
		for value, indicator := range indicators {
			session.PostLink(indicator, variable, value)
		}
		session.PostExactlyOne(indicators)
		// Force the middle value through its indicator
		session.PostLinear([]Term{{Var: indicators[1], Weight: 1}}, 1, 1)

		//** Act
		status, err := session.Solve()

		//** Assert
		assert.Nil(t, err)
		assert.Equal(t, StatusFeasible, status)
		assert.Equal(t, 1, session.IntValue(variable))
		assert.False(t, session.BoolValue(indicators[0]))
		assert.True(t, session.BoolValue(indicators[1]))
		assert.False(t, session.BoolValue(indicators[2]))
	})

	t.Run("Integer disequality separates variables", func(t *testing.T) {
		//** Arrange
		session := engine.NewSession()
		a := session.NewIntVar(0, 1)
		b := session.NewIntVar(0, 1)
		session.PostIntNotEqual(a, b)

		//** Act
		status, err := session.Solve()

		//** Assert
		assert.Nil(t, err)
		assert.Equal(t, StatusFeasible, status)
		assert.NotEqual(t, session.IntValue(a), session.IntValue(b))
	})

	t.Run("Contradictory equality and disequality are infeasible", func(t *testing.T) {
		//** Arrange
		session := engine.NewSession()
		a := session.NewIntVar(0, 3)
		b := session.NewIntVar(0, 3)
		session.PostIntEqual(a, b)
		session.PostIntNotEqual(a, b)

		//** Act
		status, err := session.Solve()

		//** Assert
		assert.Nil(t, err)
		assert.Equal(t, StatusInfeasible, status)
	})

	t.Run("Weighted linear range is honored", func(t *testing.T) {
		//** Arrange
		session := engine.NewSession()
		bools := []BoolVar{session.NewBoolVar(), session.NewBoolVar(), session.NewBoolVar()}
		weights := []int{2, 3, 5}
		terms := make([]Term, len(bools))
		for i, b := range bools {
			terms[i] = Term{Var: b, Weight: weights[i]}
		}
		session.PostLinear(terms, 5, 5)

		//** Act
		status, err := session.Solve()

		//** Assert
		assert.Nil(t, err)
		assert.Equal(t, StatusFeasible, status)
		sum := 0
		for i, b := range bools {
			if session.BoolValue(b) {
				sum += weights[i]
			}
		}
		assert.Equal(t, 5, sum)
	})

	t.Run("Lower bound survives alongside the upper bound", func(t *testing.T) {
		//** Arrange
		session := engine.NewSession()
		bools := []BoolVar{session.NewBoolVar(), session.NewBoolVar(), session.NewBoolVar()}
		weights := []int{2, 3, 5}
		terms := make([]Term, len(bools))
		for i, b := range bools {
			terms[i] = Term{Var: b, Weight: weights[i]}
		}
		// Both bounds are binding; the only achievable sum inside is 8
		session.PostLinear(terms, 8, 9)

		//** Act
		status, err := session.Solve()

		//** Assert
		assert.Nil(t, err)
		assert.Equal(t, StatusFeasible, status)
		sum := 0
		for i, b := range bools {
			if session.BoolValue(b) {
				sum += weights[i]
			}
		}
		assert.Equal(t, 8, sum)
	})

	t.Run("Negative weights count against the range", func(t *testing.T) {
		//** Arrange
		session := engine.NewSession()
		b := session.NewBoolVar()
		session.PostLinear([]Term{{Var: b, Weight: -1}}, -1, -1)

		//** Act
		status, err := session.Solve()

		//** Assert
		assert.Nil(t, err)
		assert.Equal(t, StatusFeasible, status)
		assert.True(t, session.BoolValue(b))
	})

	t.Run("Mixed-sign weights are honored", func(t *testing.T) {
		//** Arrange
		session := engine.NewSession()
		a := session.NewBoolVar()
		b := session.NewBoolVar()
		session.PostLinear([]Term{{Var: a, Weight: 2}, {Var: b, Weight: -3}}, -1, -1)

		//** Act
		status, err := session.Solve()

		//** Assert
		assert.Nil(t, err)
		assert.Equal(t, StatusFeasible, status)
		assert.True(t, session.BoolValue(a))
		assert.True(t, session.BoolValue(b))
	})

	t.Run("Positive lower bound over no terms is infeasible", func(t *testing.T) {
		//** Arrange
		session := engine.NewSession()
		session.NewIntVar(0, 1)
		session.PostLinear(nil, 1, 1)

		//** Act
		status, err := session.Solve()

		//** Assert
		assert.Nil(t, err)
		assert.Equal(t, StatusInfeasible, status)
	})

	t.Run("Pigeonhole without room is infeasible", func(t *testing.T) {
		//** Arrange
		session := engine.NewSession()
		variables := make([]IntVar, 4)
		for i := range variables {
			variables[i] = session.NewIntVar(0, 2)
		}
		for i := 0; i < len(variables)-1; i++ {
			for j := i + 1; j < len(variables); j++ {
				session.PostIntNotEqual(variables[i], variables[j])
			}
		}

		//** Act
		status, err := session.Solve()

		//** Assert
		assert.Nil(t, err)
		assert.Equal(t, StatusInfeasible, status)
	})
}

func TestBacktrackTimeBudget(t *testing.T) {
	// Arrange: a pigeonhole instance large enough that plain backtracking
	// cannot prove infeasibility within the budget
	session := NewBacktrackEngine().NewSession()
	variables := make([]IntVar, 14)
	for i := range variables {
		variables[i] = session.NewIntVar(0, 12)
	}
	for i := 0; i < len(variables)-1; i++ {
		for j := i + 1; j < len(variables); j++ {
			session.PostIntNotEqual(variables[i], variables[j])
		}
	}
	session.SetTimeBudget(20 * time.Millisecond)

	// Act
	start := time.Now()
	status, err := session.Solve()

	// Assert
	assert.Nil(t, err)
	assert.Equal(t, StatusTimeoutNoSolution, status)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestStatusHasSolution(t *testing.T) {
	assert.True(t, StatusOptimal.HasSolution())
	assert.True(t, StatusFeasible.HasSolution())
	assert.True(t, StatusTimeoutWithSolution.HasSolution())
	assert.False(t, StatusInfeasible.HasSolution())
	assert.False(t, StatusTimeoutNoSolution.HasSolution())
}
