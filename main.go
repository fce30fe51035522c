package main

import (
	"context"
	"errors"
	"mctsplan/engine"
	"mctsplan/experiments"
	"mctsplan/experiments/metrics"
	"mctsplan/meta"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("mctsplan failed")
		os.Exit(1)
	}
}

type flags struct {
	config      string
	environment string
	steps       int
	seed        uint64
	out         string
	metricsAddr string
	constants   []float64
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:           "mctsplan",
		Short:         "Plan in Markov decision processes with Monte Carlo tree search",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&f.config, "config", "c", "", "YAML or JSON config file")
	root.PersistentFlags().StringVarP(&f.environment, "environment", "e", "", "environment to plan in")
	root.PersistentFlags().IntVar(&f.steps, "steps", 0, "real steps per episode")
	root.PersistentFlags().Uint64Var(&f.seed, "seed", 0, "random seed, 0 seeds from the clock")
	root.PersistentFlags().StringVarP(&f.out, "out", "o", "", "directory for run records")

	run := &cobra.Command{
		Use:   "run",
		Short: "Play one episode and log every real step",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEpisode(cmd, f)
		},
	}
	run.Flags().StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")

	sweep := &cobra.Command{
		Use:   "sweep",
		Short: "Play one episode per exploration constant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, f)
		},
	}
	sweep.Flags().Float64SliceVar(&f.constants, "constants", experiments.DefaultConstants, "exploration constants to try")

	root.AddCommand(run, sweep)
	return root
}

// loadConfig applies command line flags over the loaded config.
func loadConfig(cmd *cobra.Command, f *flags) (meta.Config, error) {
	config, err := meta.Load(f.config)
	if err != nil {
		return config, err
	}

	changed := cmd.Flags().Changed
	if changed("environment") {
		config.Run.Environment = f.environment
	}
	if changed("steps") {
		config.Run.Steps = f.steps
	}
	if changed("seed") {
		config.Search.Seed = f.seed
	}
	if changed("out") {
		config.Run.OutputDir = f.out
	}
	if err := config.Validate(); err != nil {
		return config, err
	}

	return config, meta.SetupLogging(config.Log)
}

func runEpisode(cmd *cobra.Command, f *flags) error {
	config, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	collector := metrics.NewPrometheusCollector(reg, metrics.NewCollector())

	if f.metricsAddr != "" {
		server := &http.Server{
			Addr:              f.metricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info().Msgf("serving metrics on %s", f.metricsAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	config = experiments.ResolveSeed(config)
	result, err := experiments.RunEpisode(ctx, config, collector, 0)
	if err != nil {
		return err
	}

	if config.Run.OutputDir == "" {
		return nil
	}
	dir, err := experiments.Store(config.Run.OutputDir, "run", []metrics.RunConfig{experiments.NewRunConfig(config, 0)}, []engine.Result{result})
	if err != nil {
		return err
	}
	log.Info().Msgf("stored run records in %s", dir)
	return nil
}

func runSweep(cmd *cobra.Command, f *flags) error {
	config, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = experiments.RunExplorationSweep(ctx, config, f.constants)
	return err
}
