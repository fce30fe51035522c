// Package meta holds the planner and run hyper-parameters and the logging setup.
package meta

import (
	"encoding/json"
	"errors"
	"fmt"
	"mctsplan/searcher"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// DEFAULT_STEPS is the number of real steps taken by a demo run.
const DEFAULT_STEPS = 100

// DEFAULT_DISCOUNT keeps returns of never-ending environments bounded.
const DEFAULT_DISCOUNT = 0.8

// DEFAULT_ENVIRONMENT is the environment driven by a demo run.
const DEFAULT_ENVIRONMENT = "recycling"

var ErrInvalidConfig = errors.New("invalid config")

var validate = validator.New()

type Config struct {
	Search SearchConfig `json:"search" yaml:"search"`
	Run    RunConfig    `json:"run" yaml:"run"`
	Log    LogConfig    `json:"log" yaml:"log"`
}

type SearchConfig struct {
	Simulations int     `json:"simulations" yaml:"simulations" validate:"gt=0"`
	Exploration float64 `json:"exploration" yaml:"exploration" validate:"gte=0"`
	Budget      int     `json:"budget" yaml:"budget" validate:"gt=0"`
	Discount    float64 `json:"discount" yaml:"discount" validate:"gte=0,lte=1"`
	Seed        uint64  `json:"seed" yaml:"seed"` // 0 seeds from the clock
	ReuseTree   bool    `json:"reuse_tree" yaml:"reuse_tree"`
}

type RunConfig struct {
	Environment string `json:"environment" yaml:"environment" validate:"required"`
	Steps       int    `json:"steps" yaml:"steps" validate:"gt=0"`
	OutputDir   string `json:"output_dir" yaml:"output_dir"` // Empty disables records
}

type LogConfig struct {
	Level   string `json:"level" yaml:"level" validate:"oneof=trace debug info warn error disabled"`
	Console bool   `json:"console" yaml:"console"`
}

func Default() Config {
	return Config{
		Search: SearchConfig{
			Simulations: searcher.DefaultSimulations,
			Exploration: searcher.DefaultExploration,
			Budget:      searcher.DefaultBudget,
			Discount:    DEFAULT_DISCOUNT,
		},
		Run: RunConfig{
			Environment: DEFAULT_ENVIRONMENT,
			Steps:       DEFAULT_STEPS,
		},
		Log: LogConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// Load builds a config from defaults, then the file at path (YAML, or JSON by
// extension), then MCTS_* environment variables. An empty path skips the file.
func Load(path string) (Config, error) {
	config := Default()

	if path != "" {
		if err := loadFile(path, &config); err != nil {
			return config, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := loadEnv(&config); err != nil {
		return config, err
	}

	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

func loadFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return json.Unmarshal(data, config)
	}
	return yaml.Unmarshal(data, config)
}

func loadEnv(config *Config) error {
	var errs []error
	parse := func(key string, set func(string) error) {
		value, ok := os.LookupEnv(key)
		if !ok || value == "" {
			return
		}
		if err := set(value); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, key, value, err))
		}
	}

	parse("MCTS_SIMULATIONS", func(v string) (err error) {
		config.Search.Simulations, err = strconv.Atoi(v)
		return
	})
	parse("MCTS_EXPLORATION", func(v string) (err error) {
		config.Search.Exploration, err = strconv.ParseFloat(v, 64)
		return
	})
	parse("MCTS_BUDGET", func(v string) (err error) {
		config.Search.Budget, err = strconv.Atoi(v)
		return
	})
	parse("MCTS_DISCOUNT", func(v string) (err error) {
		config.Search.Discount, err = strconv.ParseFloat(v, 64)
		return
	})
	parse("MCTS_SEED", func(v string) (err error) {
		config.Search.Seed, err = strconv.ParseUint(v, 10, 64)
		return
	})
	parse("MCTS_REUSE_TREE", func(v string) (err error) {
		config.Search.ReuseTree, err = strconv.ParseBool(v)
		return
	})
	parse("MCTS_STEPS", func(v string) (err error) {
		config.Run.Steps, err = strconv.Atoi(v)
		return
	})
	parse("MCTS_ENVIRONMENT", func(v string) error {
		config.Run.Environment = v
		return nil
	})
	parse("MCTS_OUTPUT_DIR", func(v string) error {
		config.Run.OutputDir = v
		return nil
	})
	parse("MCTS_LOG_LEVEL", func(v string) error {
		config.Log.Level = strings.ToLower(v)
		return nil
	})

	return errors.Join(errs...)
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// SearchOptions converts the search section into planner options. Trajectories
// are recorded only when the run stores its records.
func (c Config) SearchOptions() []searcher.Option {
	options := []searcher.Option{
		searcher.WithSimulations(c.Search.Simulations),
		searcher.WithExploration(c.Search.Exploration),
		searcher.WithBudget(c.Search.Budget),
		searcher.WithDiscount(c.Search.Discount),
		searcher.WithTrajectories(c.Run.OutputDir != ""),
	}
	if c.Search.Seed != 0 {
		options = append(options, searcher.WithSeed(c.Search.Seed))
	}
	if c.Search.ReuseTree {
		options = append(options, searcher.WithTreeReuse())
	}
	return options
}

// SetupLogging configures the global zerolog logger.
func SetupLogging(config LogConfig) error {
	level, err := zerolog.ParseLevel(config.Level)
	if err != nil {
		return fmt.Errorf("%w: log level: %v", ErrInvalidConfig, err)
	}
	zerolog.SetGlobalLevel(level)

	if config.Console {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	}
	return nil
}
