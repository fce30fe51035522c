package searcher

import (
	"math"

	"golang.org/x/exp/rand"
)

// ucb1 = value/visits + c*sqrt(lnN/visits)
func ucb1(value float64, visits float64, lnN float64, c float64) float64 {
	// Prioritize unexplored actions
	if visits == 0 {
		return math.Inf(1)
	}

	return value/visits + c*math.Sqrt(lnN/visits)
}

// selectAction picks the action maximizing UCB1, breaking ties at random.
func selectAction[S, A comparable](node *StateNode[S, A], c float64, rng *rand.Rand) int {
	if node.Visits == 0 {
		panic("cannot select an action on a node with no visits")
	}

	lnN := math.Log(float64(node.Visits))
	scores := make([]float64, len(node.Actions))
	for i := range node.Actions {
		scores[i] = ucb1(node.Values[i], node.ActionVisits[i], lnN, c)
	}
	return argmax(scores, rng)
}

// argmax returns an index drawn uniformly among all maxima of scores.
func argmax(scores []float64, rng *rand.Rand) int {
	if len(scores) == 0 {
		panic("cannot pick from empty scores")
	}

	best := math.Inf(-1)
	ties := make([]int, 0, len(scores))
	for i, score := range scores {
		switch {
		case score > best:
			best = score
			ties = append(ties[:0], i)
		case score == best:
			ties = append(ties, i)
		}
	}
	if len(ties) == 1 {
		return ties[0]
	}
	return ties[rng.Intn(len(ties))]
}
