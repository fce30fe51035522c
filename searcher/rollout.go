package searcher

import "math"

// RolloutPolicy picks one of the legal actions of a state once the search has
// left the tree. It receives the planner for policies that need its random
// source or hyperparameters.
type RolloutPolicy[S, A comparable] func(state S, actions []A, m *MCTS[S, A]) A

// UniformRollout samples uniformly among the legal actions.
func UniformRollout[S, A comparable](_ S, actions []A, m *MCTS[S, A]) A {
	return actions[m.rng.Intn(len(actions))]
}

// rollout simulates from state until a terminal transition or until depth plus
// rollout steps reaches the budget, returning the discounted sum of rewards.
// It never touches the tree.
func (m *MCTS[S, A]) rollout(state S, depth int) float64 {
	total := 0.0
	steps := 0
	terminal := false
	for !terminal && depth+steps < m.budget {
		actions := m.env.Actions(state)
		if len(actions) == 0 { // Dead end outside the tree
			break
		}
		action := m.rolloutPolicy(state, actions, m)

		var reward float64
		state, reward, terminal = m.env.Step(state, action)
		total += reward * math.Pow(m.discount, float64(steps))
		steps++
		m.record(state)
	}

	m.metrics.AddRolloutSteps(steps)
	if terminal {
		m.metrics.AddFullPlayout()
	}
	return total
}
