package cp

import (
	"fmt"
	"slices"
	"time"

	"github.com/crillab/gophersat/solver"
)

type gophersatEngine struct{}

// NewGophersatEngine returns an engine that encodes the session as a
// pseudo-Boolean problem for the gophersat solver. Each integer variable is
// channelled into one value-indicator literal per domain value, held together
// by an exactly-one group; linear ranges map directly onto weighted
// pseudo-Boolean constraints.
func NewGophersatEngine() Engine {
	return &gophersatEngine{}
}

func (engine *gophersatEngine) Name() string {
	return "gophersat"
}

func (engine *gophersatEngine) NewSession() Session {
	return &gophersatSession{}
}

type gophersatSession struct {
	literals  int
	domains   [][2]int
	valueLits [][]int // int var -> literal per domain value
	boolLits  []int
	constrs   []solver.PBConstr
	budget    time.Duration

	// A constraint that can never hold (e.g. a positive lower bound over no
	// literals) cannot be expressed as a PBConstr; it flips this flag instead
	contradiction bool

	model []bool
}

func (session *gophersatSession) newLiteral() int {
	session.literals++
	return session.literals
}

func (session *gophersatSession) NewIntVar(lo, hi int) IntVar {
	lits := make([]int, hi-lo+1)
	for i := range lits {
		lits[i] = session.newLiteral()
	}
	session.domains = append(session.domains, [2]int{lo, hi})
	session.valueLits = append(session.valueLits, lits)
	session.constrs = append(session.constrs,
		solver.AtLeast(lits, 1),
		solver.AtMost(lits, 1),
	)
	return IntVar(len(session.valueLits) - 1)
}

func (session *gophersatSession) NewBoolVar() BoolVar {
	session.boolLits = append(session.boolLits, session.newLiteral())
	return BoolVar(len(session.boolLits) - 1)
}

func (session *gophersatSession) PostLinear(terms []Term, lo, hi int) {
	lits := make([]int, 0, len(terms))
	weights := make([]int, 0, len(terms))
	weightSum := 0
	for _, term := range terms {
		lit := session.boolLits[term.Var]
		weight := term.Weight
		if weight == 0 {
			continue
		}
		if weight < 0 {
			// w*b == w + (-w)*(1-b): flip the literal and shift the bounds
			lit, weight = -lit, -weight
			lo += weight
			hi += weight
		}
		lits = append(lits, lit)
		weights = append(weights, weight)
		weightSum += weight
	}

	// All weights are positive now, so the achievable sums span [0, weightSum]
	if lo > weightSum || hi < 0 {
		session.contradiction = true
		return
	}
	// GtEq and LtEq take ownership of their slices and rewrite them in place,
	// so each constructor gets its own copy
	if lo > 0 {
		session.constrs = append(session.constrs, solver.GtEq(slices.Clone(lits), slices.Clone(weights), lo))
	}
	if hi < weightSum {
		session.constrs = append(session.constrs, solver.LtEq(slices.Clone(lits), slices.Clone(weights), hi))
	}
}

func (session *gophersatSession) PostLink(indicator BoolVar, variable IntVar, value int) {
	lit := session.boolLits[indicator]
	valueLit := session.valueLit(variable, value)
	if valueLit == 0 { // Value outside the domain: the indicator is forced false
		session.constrs = append(session.constrs, solver.AtLeast([]int{-lit}, 1))
		return
	}
	session.constrs = append(session.constrs,
		solver.AtLeast([]int{-lit, valueLit}, 1),
		solver.AtLeast([]int{lit, -valueLit}, 1),
	)
}

func (session *gophersatSession) PostExactlyOne(indicators []BoolVar) {
	lits := make([]int, len(indicators))
	for i, indicator := range indicators {
		lits[i] = session.boolLits[indicator]
	}
	session.constrs = append(session.constrs,
		solver.AtLeast(lits, 1),
		solver.AtMost(lits, 1),
	)
}

func (session *gophersatSession) PostIntEqual(a, b IntVar) {
	session.postPair(a, b, true)
}

func (session *gophersatSession) PostIntNotEqual(a, b IntVar) {
	session.postPair(a, b, false)
}

func (session *gophersatSession) postPair(a, b IntVar, equal bool) {
	domain := session.domains[a]
	for value := domain[0]; value <= domain[1]; value++ {
		litA := session.valueLit(a, value)
		litB := session.valueLit(b, value)
		if litB == 0 {
			if equal { // a cannot take a value b cannot reach
				session.constrs = append(session.constrs, solver.AtLeast([]int{-litA}, 1))
			}
			continue
		}
		if equal {
			session.constrs = append(session.constrs,
				solver.AtLeast([]int{-litA, litB}, 1),
				solver.AtLeast([]int{litA, -litB}, 1),
			)
		} else {
			session.constrs = append(session.constrs, solver.AtMost([]int{litA, litB}, 1))
		}
	}
	if !equal {
		return
	}
	// b cannot take a value a cannot reach either
	other := session.domains[b]
	for value := other[0]; value <= other[1]; value++ {
		if session.valueLit(a, value) == 0 {
			session.constrs = append(session.constrs, solver.AtLeast([]int{-session.valueLit(b, value)}, 1))
		}
	}
}

func (session *gophersatSession) SetTimeBudget(budget time.Duration) {
	session.budget = budget
}

func (session *gophersatSession) Solve() (Status, error) {
	if session.contradiction {
		return StatusInfeasible, nil
	}

	problem := solver.ParsePBConstrs(session.constrs)
	s := solver.New(problem)

	type solveResult struct {
		status solver.Status
		model  []bool
	}
	results := make(chan solveResult, 1)
	go func() {
		status := s.Solve()
		if status != solver.Sat {
			results <- solveResult{status: status}
			return
		}
		results <- solveResult{status: status, model: s.Model()}
	}()

	var timeout <-chan time.Time
	if session.budget > 0 {
		timer := time.NewTimer(session.budget)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case result := <-results:
		switch result.status {
		case solver.Sat:
			session.model = result.model
			return StatusFeasible, nil
		case solver.Unsat:
			return StatusInfeasible, nil
		default:
			return StatusInfeasible, fmt.Errorf("unexpected gophersat status %v", result.status)
		}
	case <-timeout:
		// The solver offers no interruption hook, so the goroutine is
		// abandoned and keeps searching until it finishes on its own. For a
		// single short-lived solve that cost is bounded by the process
		// lifetime.
		return StatusTimeoutNoSolution, nil
	}
}

func (session *gophersatSession) IntValue(variable IntVar) int {
	domain := session.domains[variable]
	for value := domain[0]; value <= domain[1]; value++ {
		if session.model[session.valueLit(variable, value)-1] {
			return value
		}
	}
	return domain[0]
}

func (session *gophersatSession) BoolValue(indicator BoolVar) bool {
	return session.model[session.boolLits[indicator]-1]
}

// valueLit returns the indicator literal for variable == value, or 0 when the
// value lies outside the variable's domain
func (session *gophersatSession) valueLit(variable IntVar, value int) int {
	domain := session.domains[variable]
	if value < domain[0] || value > domain[1] {
		return 0
	}
	return session.valueLits[variable][value-domain[0]]
}
