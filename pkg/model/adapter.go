package model

import (
	"fmt"

	"github.com/classforge/classforge/pkg/cp"
)

// sessionVars holds the engine handles created for a model's variables
type sessionVars struct {
	assignments []cp.IntVar
	indicators  [][]cp.BoolVar
}

// post declares the model's variables on a session and translates every
// constraint descriptor into the session's capability contract. This is the
// only place where the model touches an engine.
func post(session cp.Session, model *Model) (sessionVars, error) {
	vars := sessionVars{
		assignments: make([]cp.IntVar, len(model.Students)),
		indicators:  make([][]cp.BoolVar, len(model.Students)),
	}
	for s := range model.Students {
		vars.assignments[s] = session.NewIntVar(0, len(model.Classrooms)-1)
		vars.indicators[s] = make([]cp.BoolVar, len(model.Classrooms))
		for c := range model.Classrooms {
			vars.indicators[s][c] = session.NewBoolVar()
		}
	}

	for _, constraint := range model.Constraints {
		switch c := constraint.(type) {
		case ExactlyOne:
			indicators := make([]cp.BoolVar, len(c.Indicators))
			for i, ind := range c.Indicators {
				indicators[i] = vars.indicators[ind.Student][ind.Classroom]
			}
			session.PostExactlyOne(indicators)
		case LinearRange:
			terms := make([]cp.Term, len(c.Terms))
			for i, term := range c.Terms {
				terms[i] = cp.Term{Var: vars.indicators[term.Ind.Student][term.Ind.Classroom], Weight: term.Weight}
			}
			session.PostLinear(terms, c.Lo, c.Hi)
		case IntEqual:
			session.PostIntEqual(vars.assignments[c.A], vars.assignments[c.B])
		case IntNotEqual:
			session.PostIntNotEqual(vars.assignments[c.A], vars.assignments[c.B])
		case Link:
			session.PostLink(vars.indicators[c.Indicator.Student][c.Indicator.Classroom], vars.assignments[c.Variable], c.Value)
		default:
			return sessionVars{}, fmt.Errorf("unknown constraint variant %T (%v)", constraint, constraint.Label())
		}
	}
	return vars, nil
}
