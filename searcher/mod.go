package searcher

import "errors"

// Defaults for MCTS hyperparameters
const (
	DefaultSimulations = 1000
	DefaultExploration = 0.5
	DefaultBudget      = 1000
	DefaultDiscount    = 1.0
)

// ErrNoActions is returned when a non-terminal state has no legal actions.
var ErrNoActions = errors.New("state has no legal actions")

// Environment is the model the planner simulates. Any domain that aims to be
// planned over by MCTS implements it.
//
// Actions must be deterministic for a given state. Step must be free of side
// effects on the caller's state; stochastic environments draw from their own
// random source. States must compare equal when they are logically identical.
type Environment[S, A comparable] interface {
	Actions(state S) []A
	Step(state S, action A) (next S, reward float64, terminal bool)
}
