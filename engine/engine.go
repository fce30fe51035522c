package engine

import (
	"context"
	"mctsplan/experiments/metrics"
)

// Engine drives an episode in a real environment with a planner choosing
// every action.
type Engine interface {
	// Run plays until a terminal transition, the step limit or cancellation.
	Run(ctx context.Context) (Result, error)
}

type Result struct {
	Steps        []metrics.StepRecord
	Trajectories []metrics.TrajectoryRow
	Return       float64 // Undiscounted sum of real rewards
	Terminal     bool
}
