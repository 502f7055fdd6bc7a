package model

import (
	"log"

	"github.com/classforge/classforge/pkg/cp"
)

// Assigner builds the constraint model for a population, hands it to a
// solving engine and interprets the outcome
type Assigner interface {
	Assign(students []Student, classrooms []Classroom, config Config) (*Assignment, error)

	// Verify independently re-checks every constraint of the assignment's
	// model against its values; a non-nil result is a ConstraintViolationError
	// and means the model construction or the adapter translation is broken
	Verify(assignment *Assignment) error
}

// Assignment is a solved model: the classroom chosen for every student plus
// the raw indicator values the engine bound, kept for independent validation
type Assignment struct {
	Model  Model
	Status cp.Status

	classOf    []int    // by student position
	indicators [][]bool // by (student, classroom) position
}

// ClassOf returns the classroom id assigned to a student, 0-indexed
func (assignment *Assignment) ClassOf(studentID int) (int, bool) {
	index, ok := assignment.Model.StudentIndex()[studentID]
	if !ok {
		return 0, false
	}
	return assignment.Model.Classrooms[assignment.classOf[index]].ID, true
}

// DisplayClass returns the 1-indexed classroom number used in reports, or 0
// for a student id the model does not know
func (assignment *Assignment) DisplayClass(studentID int) int {
	class, ok := assignment.ClassOf(studentID)
	if !ok {
		return 0
	}
	return class + 1
}

// Classes returns the full student id to classroom id mapping
func (assignment *Assignment) Classes() map[int]int {
	classes := make(map[int]int, len(assignment.Model.Students))
	for i, student := range assignment.Model.Students {
		classes[student.ID] = assignment.Model.Classrooms[assignment.classOf[i]].ID
	}
	return classes
}

type engineAssigner struct {
	engine cp.Engine
}

func NewAssigner(engine cp.Engine) Assigner {
	return &engineAssigner{engine: engine}
}

func (assigner *engineAssigner) Assign(students []Student, classrooms []Classroom, config Config) (*Assignment, error) {
	model, err := BuildModel(students, classrooms, config)
	if err != nil {
		return nil, err
	}

	session := assigner.engine.NewSession()
	vars, err := post(session, &model)
	if err != nil {
		return nil, err
	}
	session.SetTimeBudget(config.TimeBudget)

	status, err := session.Solve()
	if err != nil {
		return nil, err
	}

	switch status {
	case cp.StatusInfeasible:
		return nil, &ModelInfeasibleError{Config: config, Diagnosis: diagnoseSubjects(&model)}
	case cp.StatusTimeoutNoSolution:
		// Distinguished from a proven infeasibility: the budget ran out first
		log.Printf("engine %v exhausted its %v budget without an outcome", assigner.engine.Name(), config.TimeBudget)
		return nil, &SolveTimeoutError{Budget: config.TimeBudget}
	case cp.StatusTimeoutWithSolution:
		// Best effort: the values are usable but not verified optimal
		log.Printf("engine %v exhausted its %v budget; returning its best assignment", assigner.engine.Name(), config.TimeBudget)
	}

	assignment := &Assignment{
		Model:      model,
		Status:     status,
		classOf:    make([]int, len(students)),
		indicators: make([][]bool, len(students)),
	}
	for s := range students {
		assignment.classOf[s] = session.IntValue(vars.assignments[s])
		assignment.indicators[s] = make([]bool, len(classrooms))
		for c := range classrooms {
			assignment.indicators[s][c] = session.BoolValue(vars.indicators[s][c])
		}
	}
	return assignment, nil
}

func (assigner *engineAssigner) Verify(assignment *Assignment) error {
	return VerifyAssignment(assignment)
}
