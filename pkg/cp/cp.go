package cp

import "time"

type Status int

const (
	StatusOptimal Status = iota
	StatusFeasible
	StatusInfeasible
	StatusTimeoutNoSolution
	StatusTimeoutWithSolution
)

var statusNames = map[Status]string{
	StatusOptimal:             "OPTIMAL",
	StatusFeasible:            "FEASIBLE",
	StatusInfeasible:          "INFEASIBLE",
	StatusTimeoutNoSolution:   "TIMEOUT_NO_SOLUTION",
	StatusTimeoutWithSolution: "TIMEOUT_WITH_SOLUTION",
}

func (status Status) String() string {
	return statusNames[status]
}

// HasSolution reports whether variable values can be read after Solve returned this status
func (status Status) HasSolution() bool {
	return status == StatusOptimal || status == StatusFeasible || status == StatusTimeoutWithSolution
}

// IntVar is a handle to an integer variable with a finite domain
type IntVar int

// BoolVar is a handle to a 0/1 indicator variable
type BoolVar int

// Term is a weighted indicator inside a linear constraint
type Term struct {
	Var    BoolVar
	Weight int
}

// Session is the capability contract between a constraint model and a solving
// engine. Usage is a strict sequence: declare variables, post constraints, set
// the time budget, call Solve once, then read values if the status carries a
// solution. A session must not be used concurrently.
type Session interface {
	NewIntVar(lo, hi int) IntVar
	NewBoolVar() BoolVar

	PostLinear(terms []Term, lo, hi int)
	PostLink(indicator BoolVar, variable IntVar, value int)
	PostExactlyOne(indicators []BoolVar)
	PostIntEqual(a, b IntVar)
	PostIntNotEqual(a, b IntVar)

	SetTimeBudget(budget time.Duration)
	Solve() (Status, error)

	IntValue(variable IntVar) int
	BoolValue(indicator BoolVar) bool
}

type Engine interface {
	Name() string
	NewSession() Session
}
