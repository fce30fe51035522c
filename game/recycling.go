package game

import (
	"fmt"

	"golang.org/x/exp/rand"
)

// Battery levels of the recycling robot
const (
	High = iota
	Low
)

// Recycling robot actions
const (
	Search = iota
	Wait
	Recharge
)

// RecyclingRobot is the two-state recycling robot MDP. Searching drains the
// battery with some probability; searching on a low battery may run it flat,
// in which case the robot is rescued, recharged and penalized.
type RecyclingRobot struct {
	Alpha        float64 // Probability of staying High while searching
	Beta         float64 // Probability of staying Low while searching
	RewardSearch float64
	RewardWait   float64
	RewardRescue float64
	rng          *rand.Rand
}

func NewRecyclingRobot(rng *rand.Rand) *RecyclingRobot {
	return &RecyclingRobot{
		Alpha:        0.8,
		Beta:         0.4,
		RewardSearch: 2,
		RewardWait:   1,
		RewardRescue: -3,
		rng:          rng,
	}
}

func (r *RecyclingRobot) Start() int {
	return High
}

func (r *RecyclingRobot) Actions(state int) []int {
	if state == High {
		return []int{Search, Wait}
	}
	return []int{Search, Wait, Recharge}
}

// Step never terminates; the robot keeps working forever.
func (r *RecyclingRobot) Step(state int, action int) (int, float64, bool) {
	switch {
	case action == Wait:
		return state, r.RewardWait, false
	case action == Recharge && state == Low:
		return High, 0, false
	case action == Search && state == High:
		if r.rng.Float64() < r.Alpha {
			return High, r.RewardSearch, false
		}
		return Low, r.RewardSearch, false
	case action == Search && state == Low:
		if r.rng.Float64() < r.Beta {
			return Low, r.RewardSearch, false
		}
		return High, r.RewardRescue, false
	default:
		panic(fmt.Sprintf("illegal action %s in state %s", r.ActionName(action), r.StateName(state)))
	}
}

func (r *RecyclingRobot) StateName(state int) string {
	switch state {
	case High:
		return "HIGH"
	case Low:
		return "LOW"
	default:
		return fmt.Sprintf("STATE(%d)", state)
	}
}

func (r *RecyclingRobot) ActionName(action int) string {
	switch action {
	case Search:
		return "SEARCH"
	case Wait:
		return "WAIT"
	case Recharge:
		return "RECHARGE"
	default:
		return fmt.Sprintf("ACTION(%d)", action)
	}
}
