package cp

import (
	"time"
)

// deadlineCheckInterval is the number of search nodes between wall-clock checks
const deadlineCheckInterval = 256

type backtrackEngine struct{}

// NewBacktrackEngine returns an in-process engine based on depth-first search
// with constraint propagation over the posted linear bounds, links and
// exactly-one groups. Search order is deterministic: variables in declaration
// order, values in ascending order.
func NewBacktrackEngine() Engine {
	return &backtrackEngine{}
}

func (engine *backtrackEngine) Name() string {
	return "backtrack"
}

func (engine *backtrackEngine) NewSession() Session {
	return &backtrackSession{}
}

type linearConstraint struct {
	terms  []Term
	lo, hi int
}

type linkConstraint struct {
	indicator BoolVar
	variable  IntVar
	value     int
}

type intPair struct {
	a, b  IntVar
	equal bool
}

type occurrence struct {
	linear int
	weight int
}

type searchOutcome int

const (
	outcomeFound searchOutcome = iota
	outcomeExhausted
	outcomeTimedOut
)

type backtrackSession struct {
	domains     [][2]int
	bools       int
	linears     []linearConstraint
	links       []linkConstraint
	exactlyOnes [][]BoolVar
	pairs       []intPair
	budget      time.Duration

	//** Search state, initialized by Solve
	linksByVar [][]int
	linkedBool []bool
	linearOcc  [][]occurrence
	eoOcc      [][]int
	pairsByVar [][]int

	intVals   []int
	intSet    []bool
	boolState []int8 // -1 unknown, 0 false, 1 true

	sumTrue  []int
	slackPos []int
	slackNeg []int
	eoTrue   []int
	eoUndet  []int

	deadline time.Time
	nodes    uint64

	solutionInts  []int
	solutionBools []bool
}

func (session *backtrackSession) NewIntVar(lo, hi int) IntVar {
	session.domains = append(session.domains, [2]int{lo, hi})
	return IntVar(len(session.domains) - 1)
}

func (session *backtrackSession) NewBoolVar() BoolVar {
	session.bools++
	return BoolVar(session.bools - 1)
}

func (session *backtrackSession) PostLinear(terms []Term, lo, hi int) {
	session.linears = append(session.linears, linearConstraint{terms: terms, lo: lo, hi: hi})
}

func (session *backtrackSession) PostLink(indicator BoolVar, variable IntVar, value int) {
	session.links = append(session.links, linkConstraint{indicator: indicator, variable: variable, value: value})
}

func (session *backtrackSession) PostExactlyOne(indicators []BoolVar) {
	session.exactlyOnes = append(session.exactlyOnes, indicators)
}

func (session *backtrackSession) PostIntEqual(a, b IntVar) {
	session.pairs = append(session.pairs, intPair{a: a, b: b, equal: true})
}

func (session *backtrackSession) PostIntNotEqual(a, b IntVar) {
	session.pairs = append(session.pairs, intPair{a: a, b: b, equal: false})
}

func (session *backtrackSession) SetTimeBudget(budget time.Duration) {
	session.budget = budget
}

func (session *backtrackSession) Solve() (Status, error) {
	session.initialize()

	if session.budget > 0 {
		session.deadline = time.Now().Add(session.budget)
	}

	// A constraint can be contradictory before any assignment (e.g. a strictly
	// positive lower bound over no terms)
	for i := range session.linears {
		if !session.linearFeasible(i) {
			return StatusInfeasible, nil
		}
	}

	switch session.searchInt(0) {
	case outcomeFound:
		session.solutionInts = make([]int, len(session.intVals))
		copy(session.solutionInts, session.intVals)
		session.solutionBools = make([]bool, session.bools)
		for b := range session.solutionBools {
			session.solutionBools[b] = session.boolState[b] == 1
		}
		return StatusFeasible, nil
	case outcomeTimedOut:
		return StatusTimeoutNoSolution, nil
	default:
		return StatusInfeasible, nil
	}
}

func (session *backtrackSession) IntValue(variable IntVar) int {
	return session.solutionInts[variable]
}

func (session *backtrackSession) BoolValue(indicator BoolVar) bool {
	return session.solutionBools[indicator]
}

func (session *backtrackSession) initialize() {
	totalInts := len(session.domains)

	session.linksByVar = make([][]int, totalInts)
	session.pairsByVar = make([][]int, totalInts)
	session.linkedBool = make([]bool, session.bools)
	for i, link := range session.links {
		session.linksByVar[link.variable] = append(session.linksByVar[link.variable], i)
		session.linkedBool[link.indicator] = true
	}
	for i, pair := range session.pairs {
		session.pairsByVar[pair.a] = append(session.pairsByVar[pair.a], i)
		session.pairsByVar[pair.b] = append(session.pairsByVar[pair.b], i)
	}

	session.linearOcc = make([][]occurrence, session.bools)
	session.sumTrue = make([]int, len(session.linears))
	session.slackPos = make([]int, len(session.linears))
	session.slackNeg = make([]int, len(session.linears))
	for i, linear := range session.linears {
		for _, term := range linear.terms {
			session.linearOcc[term.Var] = append(session.linearOcc[term.Var], occurrence{linear: i, weight: term.Weight})
			if term.Weight >= 0 {
				session.slackPos[i] += term.Weight
			} else {
				session.slackNeg[i] += term.Weight
			}
		}
	}

	session.eoOcc = make([][]int, session.bools)
	session.eoTrue = make([]int, len(session.exactlyOnes))
	session.eoUndet = make([]int, len(session.exactlyOnes))
	for i, group := range session.exactlyOnes {
		session.eoUndet[i] = len(group)
		for _, indicator := range group {
			session.eoOcc[indicator] = append(session.eoOcc[indicator], i)
		}
	}

	session.intVals = make([]int, totalInts)
	session.intSet = make([]bool, totalInts)
	session.boolState = make([]int8, session.bools)
	for b := range session.boolState {
		session.boolState[b] = -1
	}
}

func (session *backtrackSession) searchInt(index int) searchOutcome {
	if session.timedOut() {
		return outcomeTimedOut
	}
	if index == len(session.domains) {
		return session.searchFreeBools(0)
	}

	domain := session.domains[index]
	for value := domain[0]; value <= domain[1]; value++ {
		changed := make([]BoolVar, 0, len(session.linksByVar[index]))
		if session.assignInt(index, value, &changed) {
			outcome := session.searchInt(index + 1)
			if outcome != outcomeExhausted {
				return outcome
			}
		}
		session.unassignInt(index, changed)
	}
	return outcomeExhausted
}

// searchFreeBools assigns indicator variables that are not functionally
// determined by a link; models built by the adapter link every indicator, so
// this is usually a no-op
func (session *backtrackSession) searchFreeBools(from int) searchOutcome {
	if session.timedOut() {
		return outcomeTimedOut
	}

	next := -1
	for b := from; b < session.bools; b++ {
		if session.boolState[b] == -1 {
			next = b
			break
		}
	}
	if next == -1 {
		return outcomeFound
	}

	for _, value := range []bool{false, true} {
		changed := make([]BoolVar, 0, 1)
		if session.setBool(BoolVar(next), value, &changed) {
			outcome := session.searchFreeBools(next + 1)
			if outcome != outcomeExhausted {
				return outcome
			}
		}
		session.undoBools(changed)
	}
	return outcomeExhausted
}

func (session *backtrackSession) assignInt(index, value int, changed *[]BoolVar) bool {
	session.intVals[index] = value
	session.intSet[index] = true

	for _, p := range session.pairsByVar[index] {
		pair := session.pairs[p]
		other := pair.a
		if other == IntVar(index) {
			other = pair.b
		}
		if session.intSet[other] && (session.intVals[other] == value) != pair.equal {
			return false
		}
	}

	ok := true
	for _, l := range session.linksByVar[index] {
		link := session.links[l]
		if !session.setBool(link.indicator, link.value == value, changed) {
			ok = false
		}
	}
	return ok
}

func (session *backtrackSession) unassignInt(index int, changed []BoolVar) {
	session.intSet[index] = false
	session.undoBools(changed)
}

func (session *backtrackSession) setBool(indicator BoolVar, value bool, changed *[]BoolVar) bool {
	switch session.boolState[indicator] {
	case 0:
		return !value
	case 1:
		return value
	}

	if value {
		session.boolState[indicator] = 1
	} else {
		session.boolState[indicator] = 0
	}
	*changed = append(*changed, indicator)

	ok := true
	for _, occ := range session.linearOcc[indicator] {
		if occ.weight >= 0 {
			session.slackPos[occ.linear] -= occ.weight
		} else {
			session.slackNeg[occ.linear] -= occ.weight
		}
		if value {
			session.sumTrue[occ.linear] += occ.weight
		}
		if !session.linearFeasible(occ.linear) {
			ok = false
		}
	}
	for _, eo := range session.eoOcc[indicator] {
		session.eoUndet[eo]--
		if value {
			session.eoTrue[eo]++
		}
		if session.eoTrue[eo] > 1 || (session.eoUndet[eo] == 0 && session.eoTrue[eo] == 0) {
			ok = false
		}
	}
	return ok
}

func (session *backtrackSession) undoBools(changed []BoolVar) {
	for _, indicator := range changed {
		value := session.boolState[indicator] == 1
		session.boolState[indicator] = -1

		for _, occ := range session.linearOcc[indicator] {
			if occ.weight >= 0 {
				session.slackPos[occ.linear] += occ.weight
			} else {
				session.slackNeg[occ.linear] += occ.weight
			}
			if value {
				session.sumTrue[occ.linear] -= occ.weight
			}
		}
		for _, eo := range session.eoOcc[indicator] {
			session.eoUndet[eo]++
			if value {
				session.eoTrue[eo]--
			}
		}
	}
}

// linearFeasible checks that the constraint can still land inside [lo, hi]
// given the determined indicators and the best/worst case of the undetermined
// ones
func (session *backtrackSession) linearFeasible(index int) bool {
	linear := session.linears[index]
	min := session.sumTrue[index] + session.slackNeg[index]
	max := session.sumTrue[index] + session.slackPos[index]
	return min <= linear.hi && max >= linear.lo
}

func (session *backtrackSession) timedOut() bool {
	session.nodes++
	if session.deadline.IsZero() || session.nodes%deadlineCheckInterval != 0 {
		return false
	}
	return time.Now().After(session.deadline)
}
