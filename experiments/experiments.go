package experiments

import (
	"context"
	"fmt"
	"mctsplan/engine"
	"mctsplan/experiments/metrics"
	"mctsplan/game"
	"mctsplan/meta"
	"mctsplan/searcher"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultConstants are the exploration constants tried by a sweep when none are given.
var DefaultConstants = []float64{0, 0.25, 0.5, 1, 2, 4}

// ResolveSeed replaces a zero seed with one drawn from the clock, so the
// planner and both environments of a run derive from the same recorded seed.
func ResolveSeed(config meta.Config) meta.Config {
	for config.Search.Seed == 0 {
		config.Search.Seed = uint64(time.Now().UnixNano())
	}
	return config
}

// RunEpisode plays one episode described by config. The planner gets its own
// instance of the environment as a model, seeded apart from the real one.
func RunEpisode(ctx context.Context, config meta.Config, collector metrics.Collector, id int) (engine.Result, error) {
	config = ResolveSeed(config)

	model, err := game.New(config.Run.Environment, config.Search.Seed)
	if err != nil {
		return engine.Result{}, err
	}
	world, err := game.New(config.Run.Environment, config.Search.Seed+1)
	if err != nil {
		return engine.Result{}, err
	}

	options := append(config.SearchOptions(), searcher.WithCollector(collector))
	planner := searcher.NewMCTS[int, int](model, options...)

	e := engine.Local(planner, world, world.Start(), config.Run.Steps)
	e.ID = id
	return e.Run(ctx)
}

// RunExplorationSweep plays one episode per exploration constant, keeping every
// other setting of config. Records are written under config.Run.OutputDir
// unless it is empty.
func RunExplorationSweep(ctx context.Context, config meta.Config, constants []float64) ([]engine.Result, error) {
	if len(constants) == 0 {
		constants = DefaultConstants
	}
	config = ResolveSeed(config)

	log.Info().Msgf("starting exploration sweep over %d constants on %s...", len(constants), config.Run.Environment)

	configs := make([]metrics.RunConfig, 0, len(constants))
	results := make([]engine.Result, 0, len(constants))
	for i, c := range constants {
		runConfig := config
		runConfig.Search.Exploration = c

		log.Info().Msgf("starting run %d of %d with exploration %g...", i+1, len(constants), c)

		result, err := RunEpisode(ctx, runConfig, metrics.NewCollector(), i)
		if err != nil {
			return results, fmt.Errorf("run %d with exploration %g: %w", i, c, err)
		}
		configs = append(configs, NewRunConfig(runConfig, i))
		results = append(results, result)

		log.Info().Msgf("completed run %d of %d with return %g", i+1, len(constants), result.Return)
	}

	log.Info().Msg("completed exploration sweep")

	if config.Run.OutputDir == "" {
		return results, nil
	}
	dir, err := Store(config.Run.OutputDir, "exploration_sweep", configs, results)
	if err != nil {
		return results, err
	}
	log.Info().Msgf("stored sweep records in %s", dir)
	return results, nil
}

func NewRunConfig(config meta.Config, id int) metrics.RunConfig {
	return metrics.RunConfig{
		Run:         id,
		Environment: config.Run.Environment,
		Simulations: config.Search.Simulations,
		Exploration: config.Search.Exploration,
		Budget:      config.Search.Budget,
		Discount:    config.Search.Discount,
		Seed:        config.Search.Seed,
		ReuseTree:   config.Search.ReuseTree,
		Steps:       config.Run.Steps,
	}
}

// Store writes run configs, step records and trajectories into a new run
// directory under baseDir/name and returns it.
func Store(baseDir, name string, configs []metrics.RunConfig, results []engine.Result) (string, error) {
	writer, err := metrics.NewWriter(baseDir, name)
	if err != nil {
		return "", fmt.Errorf("failed to create experiment writer: %w", err)
	}

	steps := []metrics.StepRecord{}
	trajectories := []metrics.TrajectoryRow{}
	for _, result := range results {
		steps = append(steps, result.Steps...)
		trajectories = append(trajectories, result.Trajectories...)
	}

	if err := writer.WriteRunConfigs(configs); err != nil {
		return "", err
	}
	log.Info().Msg("stored run configs")

	if err := writer.WriteStepRecords(steps); err != nil {
		return "", err
	}
	log.Info().Msg("stored step records")

	if err := writer.WriteTrajectories(trajectories); err != nil {
		return "", err
	}
	log.Info().Msg("stored trajectories")

	return writer.Dir(), nil
}
