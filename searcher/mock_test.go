package searcher

// transition is the outcome of one action in a table-driven mock environment.
type transition struct {
	next     string
	reward   float64
	terminal bool
}

// mockEnv is a deterministic environment described by lookup tables.
type mockEnv struct {
	actions map[string][]int
	steps   map[string]map[int]transition
}

func (e mockEnv) Actions(state string) []int {
	return e.actions[state]
}

func (e mockEnv) Step(state string, action int) (string, float64, bool) {
	t, ok := e.steps[state][action]
	if !ok {
		panic("mock environment has no transition for " + state)
	}
	return t.next, t.reward, t.terminal
}

// twoOutcomeEnv has a root with a high reward and a low reward terminal action.
func twoOutcomeEnv() mockEnv {
	return mockEnv{
		actions: map[string][]int{"root": {0, 1}},
		steps: map[string]map[int]transition{
			"root": {
				0: {next: "high", reward: 10, terminal: true},
				1: {next: "low", reward: 1, terminal: true},
			},
		},
	}
}

// walkEnv is a random walk on [-limit, limit] with terminal rewards at both ends.
type walkEnv struct {
	limit int
}

func (e walkEnv) Actions(state int) []int {
	return []int{-1, 1}
}

func (e walkEnv) Step(state int, action int) (int, float64, bool) {
	next := state + action
	switch {
	case next >= e.limit:
		return next, 1, true
	case next <= -e.limit:
		return next, -1, true
	default:
		return next, 0, false
	}
}

// countEnv never terminates and pays reward on every step.
type countEnv struct {
	reward float64
}

func (e countEnv) Actions(state int) []int {
	return []int{1}
}

func (e countEnv) Step(state int, action int) (int, float64, bool) {
	return state + action, e.reward, false
}

// toggleEnv flips between two states forever with reward 1 per step.
type toggleEnv struct{}

func (toggleEnv) Actions(state int) []int {
	return []int{0}
}

func (toggleEnv) Step(state int, action int) (int, float64, bool) {
	return 1 - state, 1, false
}
