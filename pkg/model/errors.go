package model

import (
	"fmt"
	"time"
)

// MalformedRecordError reports a source record whose required fields are
// missing or cannot be typed. It is fatal: no model is built from a roster
// that contains one.
type MalformedRecordError struct {
	Record int // position in the raw roster
	Field  string
	Value  string
}

func (err *MalformedRecordError) Error() string {
	if err.Value == "" {
		return fmt.Sprintf("record %d: required field %q is missing", err.Record, err.Field)
	}
	return fmt.Sprintf("record %d: field %q has untypeable value %q", err.Record, err.Field, err.Value)
}

// UnresolvedRelationWarning reports a relation reference that is not numeric
// or does not resolve to a known student. The relation is dropped; the run
// continues.
type UnresolvedRelationWarning struct {
	StudentID int
	Field     string
	Ref       string
}

func (warning UnresolvedRelationWarning) String() string {
	return fmt.Sprintf("student %d: %s reference %q does not resolve, relation dropped", warning.StudentID, warning.Field, warning.Ref)
}

// CapacityMismatchError reports classroom capacities that do not sum to the
// population size. It is raised before any model is built.
type CapacityMismatchError struct {
	CapacitySum int
	Population  int
}

func (err *CapacityMismatchError) Error() string {
	return fmt.Sprintf("classroom capacities sum to %d but the population is %d students", err.CapacitySum, err.Population)
}

// ModelInfeasibleError reports that the posted hard constraints cannot be
// satisfied simultaneously. It carries the configuration that produced the
// model so a caller can relax tolerances or capacities and retry.
type ModelInfeasibleError struct {
	Config    Config
	Diagnosis string
}

func (err *ModelInfeasibleError) Error() string {
	message := fmt.Sprintf("no assignment satisfies all hard constraints (score tolerance %.2f, leader range [%d, %d], cohort overlap max %d)",
		err.Config.ScoreTolerance, err.Config.LeaderMin, err.Config.LeaderMax, err.Config.MaxPriorCohortOverlap)
	if err.Diagnosis != "" {
		message += ": " + err.Diagnosis
	}
	return message
}

// SolveTimeoutError reports that the time budget expired before the engine
// found a solution or proved infeasibility
type SolveTimeoutError struct {
	Budget time.Duration
}

func (err *SolveTimeoutError) Error() string {
	return fmt.Sprintf("time budget of %v exhausted without a solution or an infeasibility proof", err.Budget)
}

// ConstraintViolationError reports that the returned assignment violates a
// constraint the model posted. The solving contract guarantees posted
// constraints hold, so this is a bug in model construction or in the adapter
// translation, never a recoverable condition.
type ConstraintViolationError struct {
	Violations error
}

func (err *ConstraintViolationError) Error() string {
	return fmt.Sprintf("returned assignment violates posted constraints: %v", err.Violations)
}

func (err *ConstraintViolationError) Unwrap() error {
	return err.Violations
}
