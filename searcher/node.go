package searcher

import (
	"fmt"
	"math"
)

// ActionNode is one legal action of a state. Its successor map is the
// transposition table for this (state, action) pair: every observed next state
// maps to the id of the StateNode representing it.
type ActionNode[S, A comparable] struct {
	Action    A
	stateToID map[S]int
}

// Successor returns the node id registered for a next state, if any.
func (a *ActionNode[S, A]) Successor(state S) (int, bool) {
	id, ok := a.stateToID[state]
	return id, ok
}

// Successors returns the number of distinct next states observed so far.
func (a *ActionNode[S, A]) Successors() int {
	return len(a.stateToID)
}

// StateNode is one distinct state reached during search. ActionVisits and
// Values are indexed like Actions and never resized after creation. Values
// holds accumulated returns, not averages.
type StateNode[S, A comparable] struct {
	ID           int
	State        S
	Actions      []*ActionNode[S, A]
	Visits       int
	ActionVisits []float64
	Values       []float64
}

// newStateNode builds a node with one ActionNode per legal action. Only states
// reached through a terminal transition may have no actions, since selection
// never runs on them.
func newStateNode[S, A comparable](env Environment[S, A], state S, id int, terminal bool) (*StateNode[S, A], error) {
	moves := env.Actions(state)
	if len(moves) == 0 && !terminal {
		return nil, fmt.Errorf("node %d for state %v: %w", id, state, ErrNoActions)
	}

	actions := make([]*ActionNode[S, A], len(moves))
	for i, move := range moves {
		actions[i] = &ActionNode[S, A]{
			Action:    move,
			stateToID: make(map[S]int),
		}
	}

	return &StateNode[S, A]{
		ID:           id,
		State:        state,
		Actions:      actions,
		Visits:       0,
		ActionVisits: make([]float64, len(moves)),
		Values:       make([]float64, len(moves)),
	}, nil
}

// Mean is the empirical value of the ith action, -Inf if it was never tried.
func (n *StateNode[S, A]) Mean(i int) float64 {
	n.checkIndex(i)
	if n.ActionVisits[i] == 0 {
		return math.Inf(-1)
	}
	return n.Values[i] / n.ActionVisits[i]
}

// Means returns Mean for every action.
func (n *StateNode[S, A]) Means() []float64 {
	means := make([]float64, len(n.Actions))
	for i := range n.Actions {
		means[i] = n.Mean(i)
	}
	return means
}

func (n *StateNode[S, A]) checkIndex(i int) {
	if i < 0 || i >= len(n.Actions) {
		panic(fmt.Sprintf("action index %d out of range for node %d with %d actions", i, n.ID, len(n.Actions)))
	}
}
