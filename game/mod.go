package game

import (
	"errors"
	"fmt"
	"mctsplan/searcher"
	"sort"

	"golang.org/x/exp/rand"
)

var ErrUnknownEnvironment = errors.New("unknown environment")

// Environment is a searcher.Environment over integer states and actions that
// can also name them for logs and records.
type Environment interface {
	searcher.Environment[int, int]
	Start() int
	StateName(state int) string
	ActionName(action int) string
}

var registry = map[string]func(seed uint64) Environment{
	"recycling": func(seed uint64) Environment {
		return NewRecyclingRobot(rand.New(rand.NewSource(seed)))
	},
	"corridor": func(uint64) Environment {
		return NewCorridor(DefaultCorridorLength)
	},
}

// New creates the named environment. Stochastic environments draw from a
// random source seeded with seed.
func New(name string, seed uint64) (Environment, error) {
	create, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownEnvironment)
	}
	return create(seed), nil
}

// Names lists the registered environments in order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
