package model

// The constraint model is pure data: variable references plus bounds and
// equalities. Nothing here captures mutable state or knows how a solving
// engine searches; the adapter interprets these descriptors against the
// engine contract, and the validator re-interprets them against a returned
// assignment.

// VarRef references a student's integer assignment variable by the student's
// position in Model.Students; its domain is the classroom index range.
type VarRef int

// IndRef references the boolean indicator for one (student, classroom) pair,
// both by position
type IndRef struct {
	Student   int
	Classroom int
}

// LinearTerm is a weighted indicator inside a LinearRange
type LinearTerm struct {
	Ind    IndRef
	Weight int
}

// Constraint is one of the tagged descriptor variants: ExactlyOne,
// LinearRange, IntEqual, IntNotEqual or Link
type Constraint interface {
	Label() string
}

// ExactlyOne requires exactly one of the indicators to hold
type ExactlyOne struct {
	Name       string
	Indicators []IndRef
}

func (c ExactlyOne) Label() string { return c.Name }

// LinearRange bounds a weighted sum of indicators to [Lo, Hi]; an equality is
// the Lo == Hi case
type LinearRange struct {
	Name  string
	Terms []LinearTerm
	Lo    int
	Hi    int
}

func (c LinearRange) Label() string { return c.Name }

// IntEqual requires two assignment variables to take the same classroom
type IntEqual struct {
	Name string
	A, B VarRef
}

func (c IntEqual) Label() string { return c.Name }

// IntNotEqual requires two assignment variables to take different classrooms
type IntNotEqual struct {
	Name string
	A, B VarRef
}

func (c IntNotEqual) Label() string { return c.Name }

// Link ties an indicator to the condition "variable == value"
type Link struct {
	Name      string
	Indicator IndRef
	Variable  VarRef
	Value     int
}

func (c Link) Label() string { return c.Name }

// Model is the immutable constraint model handed to a solving engine: one
// assignment variable per student with the classroom indices as its domain,
// one indicator per (student, classroom) pair, and the full descriptor list.
// It also keeps the normalized inputs it was built from, so that a returned
// assignment can be validated and summarized without re-deriving anything.
type Model struct {
	Students    []Student
	Classrooms  []Classroom
	Relations   []Relation
	Config      Config
	Constraints []Constraint
}

// StudentIndex maps student ids to their position in Students
func (model *Model) StudentIndex() map[int]int {
	index := make(map[int]int, len(model.Students))
	for i, student := range model.Students {
		index[student.ID] = i
	}
	return index
}
