package engine

import (
	"context"
	"fmt"
	"mctsplan/experiments/metrics"
	"mctsplan/game"
	"mctsplan/searcher"
	"mctsplan/utils"

	"github.com/rs/zerolog/log"
)

// LocalEngine plans with the planner's own model of the environment and applies
// the chosen actions to a separate real environment.
type LocalEngine struct {
	ID      int // Run id copied into every record
	State   int
	Planner *searcher.MCTS[int, int]
	Env     game.Environment
	Steps   int
}

func Local(planner *searcher.MCTS[int, int], env game.Environment, initial int, steps int) *LocalEngine {
	if planner == nil {
		panic("engine needs a planner")
	}
	if env == nil {
		panic("engine needs a real environment")
	}
	if steps < 1 {
		panic("engine needs at least one step")
	}

	return &LocalEngine{
		State:   initial,
		Planner: planner,
		Env:     env,
		Steps:   steps,
	}
}

// Run executes the episode loop. On cancellation or a planning error it returns
// the steps completed so far along with the error.
func (e *LocalEngine) Run(ctx context.Context) (Result, error) {
	result := Result{}

	log.Info().Msgf("run %d starting in state %s", e.ID, e.Env.StateName(e.State))

	for step := 0; step < e.Steps; step++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		action, diagnostics, err := e.Planner.Plan(e.State)
		if err != nil {
			return result, fmt.Errorf("failed to plan step %d: %w", step, err)
		}

		value := diagnostics.Values[utils.FindIndex(diagnostics.Actions, action)]
		next, reward, terminal := e.Env.Step(e.State, action)

		result.Steps = append(result.Steps, metrics.StepRecord{
			Run:          e.ID,
			Step:         step,
			State:        e.Env.StateName(e.State),
			Action:       e.Env.ActionName(action),
			NextState:    e.Env.StateName(next),
			Reward:       reward,
			Value:        value,
			Terminal:     terminal,
			SearchMetric: diagnostics.Metric,
		})
		for simulation, trajectory := range diagnostics.Trajectories {
			for i, state := range trajectory {
				result.Trajectories = append(result.Trajectories, metrics.TrajectoryRow{
					Run:        int32(e.ID),
					Step:       int32(step),
					Simulation: int32(simulation),
					Index:      int32(i),
					State:      e.Env.StateName(state),
				})
			}
		}
		result.Return += reward

		log.Info().Msgf("%s, %s, %s, %g", e.Env.StateName(e.State), e.Env.ActionName(action), e.Env.StateName(next), reward)

		e.State = next
		if terminal {
			result.Terminal = true
			break
		}
	}

	log.Info().Msgf("run %d completed after %d steps with return %g", e.ID, len(result.Steps), result.Return)

	return result, nil
}
