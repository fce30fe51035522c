package game

import "strconv"

const DefaultCorridorLength = 6

// Corridor actions
const (
	Left = iota
	Right
)

// Corridor is a deterministic walk from cell 0 to the goal at cell Length.
// Every step costs StepCost; reaching the goal pays GoalReward and ends the episode.
type Corridor struct {
	Length     int
	StepCost   float64
	GoalReward float64
}

func NewCorridor(length int) *Corridor {
	if length < 1 {
		panic("corridor needs at least one cell before the goal")
	}
	return &Corridor{
		Length:     length,
		StepCost:   -1,
		GoalReward: 10,
	}
}

func (c *Corridor) Start() int {
	return 0
}

func (c *Corridor) Actions(state int) []int {
	return []int{Left, Right}
}

func (c *Corridor) Step(state int, action int) (int, float64, bool) {
	next := state
	if action == Right {
		next++
	} else if state > 0 {
		next--
	}

	if next >= c.Length {
		return c.Length, c.GoalReward, true
	}
	return next, c.StepCost, false
}

func (c *Corridor) StateName(state int) string {
	if state >= c.Length {
		return "GOAL"
	}
	return "CELL" + strconv.Itoa(state)
}

func (c *Corridor) ActionName(action int) string {
	if action == Right {
		return "RIGHT"
	}
	return "LEFT"
}
