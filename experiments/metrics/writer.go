package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// RunConfig describes the planner and environment settings of one run.
type RunConfig struct {
	Run         int
	Environment string
	Simulations int
	Exploration float64
	Budget      int
	Discount    float64
	Seed        uint64
	ReuseTree   bool
	Steps       int
}

// TrajectoryRow is one state visited by one simulation of one planning step.
type TrajectoryRow struct {
	Run        int32  `parquet:"run"`
	Step       int32  `parquet:"step"`
	Simulation int32  `parquet:"simulation"`
	Index      int32  `parquet:"index"`
	State      string `parquet:"state,dict"`
}

type Writer struct {
	baseDir string
}

// NewWriter creates a fresh run directory under baseDir/name. The directory is
// named by the current timestamp and a random suffix so concurrent runs never
// collide.
func NewWriter(baseDir, name string) (*Writer, error) {
	timestamp := time.Now().UTC().Format("20060102T150405Z")
	dir := filepath.Join(baseDir, name, timestamp+"-"+uuid.NewString()[:8])
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		baseDir: dir,
	}, nil
}

func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) WriteRunConfigs(configs []RunConfig) error {
	header := []string{"run", "environment", "simulations", "exploration", "budget", "discount", "seed", "reuse_tree", "steps"}
	rows := make([][]string, 0, len(configs))
	for _, config := range configs {
		rows = append(rows, []string{
			strconv.Itoa(config.Run),
			config.Environment,
			strconv.Itoa(config.Simulations),
			formatFloat(config.Exploration),
			strconv.Itoa(config.Budget),
			formatFloat(config.Discount),
			strconv.FormatUint(config.Seed, 10),
			strconv.FormatBool(config.ReuseTree),
			strconv.Itoa(config.Steps),
		})
	}

	return w.writeCSV("run_configs.csv", "run configs", header, rows)
}

func (w *Writer) WriteStepRecords(records []StepRecord) error {
	header := []string{
		"run", "step", "state", "action", "next_state", "reward", "value", "terminal",
		"simulations", "budget", "duration", "expansions", "transpositions", "terminals",
		"cutoffs", "rollout_steps", "full_playouts", "tree_size", "is_tree_reset",
	}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.Run),
			strconv.Itoa(record.Step),
			record.State,
			record.Action,
			record.NextState,
			formatFloat(record.Reward),
			formatFloat(record.Value),
			strconv.FormatBool(record.Terminal),
			strconv.Itoa(record.Simulations),
			strconv.Itoa(record.Budget),
			record.Duration.String(),
			strconv.Itoa(record.Expansions),
			strconv.Itoa(record.Transpositions),
			strconv.Itoa(record.Terminals),
			strconv.Itoa(record.Cutoffs),
			strconv.Itoa(record.RolloutSteps),
			strconv.Itoa(record.FullPlayouts),
			strconv.Itoa(record.TreeSize),
			strconv.FormatBool(record.IsTreeReset),
		})
	}

	return w.writeCSV("step_records.csv", "step records", header, rows)
}

// WriteTrajectories stores simulation trajectories as a zstd-compressed
// Parquet file.
func (w *Writer) WriteTrajectories(rows []TrajectoryRow) error {
	path := filepath.Join(w.baseDir, "trajectories.parquet")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create trajectories file: %w", err)
	}
	defer f.Close()

	writer := parquet.NewGenericWriter[TrajectoryRow](
		f,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
	)
	writer.SetKeyValueMetadata("schema", "trajectory_row_v1")

	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write trajectory rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close trajectories writer: %w", err)
	}
	return nil
}

func (w *Writer) writeCSV(file, what string, header []string, rows [][]string) error {
	path := filepath.Join(w.baseDir, file)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s file: %w", what, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)

	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write %s header: %w", what, err)
	}

	for _, row := range rows {
		err = writer.Write(row)
		if err != nil {
			return fmt.Errorf("failed to write %s row: %w", what, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", what, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
