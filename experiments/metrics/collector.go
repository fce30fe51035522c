package metrics

import (
	"sync/atomic"
	"time"
)

type SearchMetric struct {
	Simulations    int
	Budget         int
	StartTime      time.Time
	Duration       time.Duration
	Expansions     int
	Transpositions int
	Terminals      int
	Cutoffs        int
	RolloutSteps   int
	FullPlayouts   int
	TreeSize       int
	IsTreeReset    bool
}

// StepRecord is one real step of an episode driven by the engine.
type StepRecord struct {
	Run       int
	Step      int
	State     string
	Action    string
	NextState string
	Reward    float64
	Value     float64 // Empirical value of the chosen root action
	Terminal  bool
	SearchMetric
}

// Collector receives search events from the planner.
type Collector interface {
	Start(simulations, budget int)
	SetTreeReset(value bool)
	AddSimulation()
	AddExpansion()
	AddTransposition()
	AddTerminal()
	AddCutoff()
	AddRolloutSteps(n int)
	AddFullPlayout()
	SetTreeSize(n int)
	Complete() SearchMetric
}

type collector struct {
	budget         int
	startTime      time.Time
	completed      atomic.Int64 // Simulations run so far
	expansions     atomic.Int64
	transpositions atomic.Int64
	terminals      atomic.Int64
	cutoffs        atomic.Int64
	rolloutSteps   atomic.Int64
	fullPlayouts   atomic.Int64
	treeSize       atomic.Int64
	isTreeReset    atomic.Bool
}

func NewCollector() Collector {
	return &collector{}
}

// Start resets all counters for a new search. SearchMetric.Simulations counts
// the simulations actually completed, not the requested number.
func (m *collector) Start(simulations, budget int) {
	m.startTime = time.Now()
	m.budget = budget
	m.completed.Store(0)
	m.expansions.Store(0)
	m.transpositions.Store(0)
	m.terminals.Store(0)
	m.cutoffs.Store(0)
	m.rolloutSteps.Store(0)
	m.fullPlayouts.Store(0)
	m.treeSize.Store(0)
	m.isTreeReset.Store(false)
}

func (m *collector) SetTreeReset(value bool) {
	m.isTreeReset.Store(value)
}

func (m *collector) AddSimulation() {
	m.completed.Add(1)
}

func (m *collector) AddExpansion() {
	m.expansions.Add(1)
}

func (m *collector) AddTransposition() {
	m.transpositions.Add(1)
}

func (m *collector) AddTerminal() {
	m.terminals.Add(1)
}

func (m *collector) AddCutoff() {
	m.cutoffs.Add(1)
}

func (m *collector) AddRolloutSteps(n int) {
	m.rolloutSteps.Add(int64(n))
}

func (m *collector) AddFullPlayout() {
	m.fullPlayouts.Add(1)
}

func (m *collector) SetTreeSize(n int) {
	m.treeSize.Store(int64(n))
}

func (m *collector) Complete() SearchMetric {
	return SearchMetric{
		Simulations:    int(m.completed.Load()),
		Budget:         m.budget,
		StartTime:      m.startTime,
		Duration:       time.Since(m.startTime),
		Expansions:     int(m.expansions.Load()),
		Transpositions: int(m.transpositions.Load()),
		Terminals:      int(m.terminals.Load()),
		Cutoffs:        int(m.cutoffs.Load()),
		RolloutSteps:   int(m.rolloutSteps.Load()),
		FullPlayouts:   int(m.fullPlayouts.Load()),
		TreeSize:       int(m.treeSize.Load()),
		IsTreeReset:    m.isTreeReset.Load(),
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(simulations, budget int) {}
func (m *dummyCollector) SetTreeReset(value bool)       {}
func (m *dummyCollector) AddSimulation()                {}
func (m *dummyCollector) AddExpansion()                 {}
func (m *dummyCollector) AddTransposition()             {}
func (m *dummyCollector) AddTerminal()                  {}
func (m *dummyCollector) AddCutoff()                    {}
func (m *dummyCollector) AddRolloutSteps(n int)         {}
func (m *dummyCollector) AddFullPlayout()               {}
func (m *dummyCollector) SetTreeSize(n int)             {}
func (m *dummyCollector) Complete() SearchMetric        { return SearchMetric{} }
