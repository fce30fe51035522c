package metrics

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	t.Run("counting search events", func(t *testing.T) {
		c := NewCollector()
		c.Start(10, 5)
		c.SetTreeReset(true)
		c.AddSimulation()
		c.AddSimulation()
		c.AddExpansion()
		c.AddTransposition()
		c.AddTerminal()
		c.AddCutoff()
		c.AddRolloutSteps(7)
		c.AddFullPlayout()
		c.SetTreeSize(3)

		m := c.Complete()

		require.Equal(t, 2, m.Simulations)
		require.Equal(t, 5, m.Budget)
		require.Equal(t, 1, m.Expansions)
		require.Equal(t, 1, m.Transpositions)
		require.Equal(t, 1, m.Terminals)
		require.Equal(t, 1, m.Cutoffs)
		require.Equal(t, 7, m.RolloutSteps)
		require.Equal(t, 1, m.FullPlayouts)
		require.Equal(t, 3, m.TreeSize)
		require.True(t, m.IsTreeReset)
	})

	t.Run("resetting counters on start", func(t *testing.T) {
		c := NewCollector()
		c.Start(1, 1)
		c.AddSimulation()
		c.AddRolloutSteps(4)

		c.Start(1, 1)
		m := c.Complete()

		require.Zero(t, m.Simulations)
		require.Zero(t, m.RolloutSteps)
		require.False(t, m.IsTreeReset)
	})

	t.Run("ignoring events in dummy collector", func(t *testing.T) {
		c := NewDummyCollector()
		c.Start(1, 1)
		c.AddSimulation()

		require.Equal(t, SearchMetric{}, c.Complete())
	})
}

func TestPrometheusCollector(t *testing.T) {
	t.Run("mirroring events into registry", func(t *testing.T) {
		reg := prometheus.NewPedanticRegistry()
		c := NewPrometheusCollector(reg, nil).(*prometheusCollector)

		c.Start(3, 2)
		c.SetTreeReset(true)
		c.AddSimulation()
		c.AddSimulation()
		c.AddExpansion()
		c.AddRolloutSteps(5)
		c.SetTreeSize(4)
		m := c.Complete()

		require.Equal(t, 2, m.Simulations, "Inner collector should still count")
		require.Equal(t, 2.0, testutil.ToFloat64(c.simulations))
		require.Equal(t, 1.0, testutil.ToFloat64(c.expansions))
		require.Equal(t, 5.0, testutil.ToFloat64(c.rolloutSteps))
		require.Equal(t, 4.0, testutil.ToFloat64(c.treeSize))
		require.Equal(t, 1.0, testutil.ToFloat64(c.treeResets))
		require.Equal(t, 1.0, testutil.ToFloat64(c.plans))
	})

	t.Run("keeping counters across plans", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		c := NewPrometheusCollector(reg, NewCollector()).(*prometheusCollector)

		for i := 0; i < 3; i++ {
			c.Start(1, 1)
			c.SetTreeReset(false)
			c.AddSimulation()
			c.Complete()
		}

		require.Equal(t, 3.0, testutil.ToFloat64(c.simulations))
		require.Equal(t, 0.0, testutil.ToFloat64(c.treeResets))
		require.Equal(t, 3.0, testutil.ToFloat64(c.plans))
	})

	t.Run("registering all metrics", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		NewPrometheusCollector(reg, nil)

		count, err := testutil.GatherAndCount(reg)

		require.NoError(t, err)
		require.Equal(t, 11, count)
	})
}

func TestWriter(t *testing.T) {
	t.Run("creating a run directory", func(t *testing.T) {
		base := t.TempDir()

		w, err := NewWriter(base, "test")

		require.NoError(t, err)
		require.DirExists(t, w.Dir())
		require.Equal(t, filepath.Join(base, "test"), filepath.Dir(w.Dir()))
	})

	t.Run("separating concurrent runs", func(t *testing.T) {
		base := t.TempDir()

		w1, err := NewWriter(base, "test")
		require.NoError(t, err)
		w2, err := NewWriter(base, "test")
		require.NoError(t, err)

		require.NotEqual(t, w1.Dir(), w2.Dir())
	})

	t.Run("writing step records", func(t *testing.T) {
		w, err := NewWriter(t.TempDir(), "test")
		require.NoError(t, err)

		records := []StepRecord{
			{Run: 0, Step: 0, State: "HIGH", Action: "SEARCH", NextState: "LOW", Reward: 2, Value: 1.5},
			{Run: 0, Step: 1, State: "LOW", Action: "RECHARGE", NextState: "HIGH", Terminal: true},
		}
		require.NoError(t, w.WriteStepRecords(records))

		rows := readCSV(t, filepath.Join(w.Dir(), "step_records.csv"))
		require.Len(t, rows, 3)
		require.Equal(t, "run", rows[0][0])
		require.Equal(t, []string{"0", "0", "HIGH", "SEARCH", "LOW", "2", "1.5", "false"}, rows[1][:8])
		require.Equal(t, "true", rows[2][7])
	})

	t.Run("writing run configs", func(t *testing.T) {
		w, err := NewWriter(t.TempDir(), "test")
		require.NoError(t, err)

		configs := []RunConfig{{Run: 1, Environment: "corridor", Simulations: 100, Exploration: 0.5, Budget: 10, Discount: 0.9, Seed: 42, Steps: 3}}
		require.NoError(t, w.WriteRunConfigs(configs))

		rows := readCSV(t, filepath.Join(w.Dir(), "run_configs.csv"))
		require.Len(t, rows, 2)
		require.Equal(t, []string{"1", "corridor", "100", "0.5", "10", "0.9", "42", "false", "3"}, rows[1])
	})

	t.Run("writing trajectories to parquet", func(t *testing.T) {
		w, err := NewWriter(t.TempDir(), "test")
		require.NoError(t, err)

		rows := []TrajectoryRow{
			{Run: 0, Step: 0, Simulation: 0, Index: 0, State: "CELL0"},
			{Run: 0, Step: 0, Simulation: 0, Index: 1, State: "CELL1"},
			{Run: 0, Step: 0, Simulation: 1, Index: 0, State: "CELL0"},
		}
		require.NoError(t, w.WriteTrajectories(rows))

		read, err := parquet.ReadFile[TrajectoryRow](filepath.Join(w.Dir(), "trajectories.parquet"))
		require.NoError(t, err)
		require.Equal(t, rows, read)
	})
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}
