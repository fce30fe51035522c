package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mcts"

type prometheusCollector struct {
	inner Collector

	plans          prometheus.Counter
	simulations    prometheus.Counter
	expansions     prometheus.Counter
	transpositions prometheus.Counter
	terminals      prometheus.Counter
	cutoffs        prometheus.Counter
	rolloutSteps   prometheus.Counter
	fullPlayouts   prometheus.Counter
	treeResets     prometheus.Counter
	treeSize       prometheus.Gauge
	planDuration   prometheus.Histogram
}

// NewPrometheusCollector mirrors search events into Prometheus metrics
// registered on reg and forwards them to inner, which produces the SearchMetric.
func NewPrometheusCollector(reg prometheus.Registerer, inner Collector) Collector {
	if inner == nil {
		inner = NewCollector()
	}
	factory := promauto.With(reg)

	return &prometheusCollector{
		inner: inner,
		plans: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_total",
			Help:      "Number of completed plan calls.",
		}),
		simulations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulations_total",
			Help:      "Number of simulations run from a root.",
		}),
		expansions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expansions_total",
			Help:      "Number of state nodes created during simulations.",
		}),
		transpositions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transpositions_total",
			Help:      "Number of successor states resolved to an existing node through a new edge.",
		}),
		terminals: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "terminal_transitions_total",
			Help:      "Number of simulations ended by a terminal transition inside the tree.",
		}),
		cutoffs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "budget_cutoffs_total",
			Help:      "Number of simulations that spent their budget inside the tree.",
		}),
		rolloutSteps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rollout_steps_total",
			Help:      "Number of environment steps taken by rollouts.",
		}),
		fullPlayouts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "full_playouts_total",
			Help:      "Number of rollouts that reached a terminal transition.",
		}),
		treeResets: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tree_resets_total",
			Help:      "Number of plan calls that started from an empty node table.",
		}),
		treeSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tree_nodes",
			Help:      "Number of nodes in the table after the last plan call.",
		}),
		planDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_duration_seconds",
			Help:      "Wall time of plan calls.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
	}
}

func (p *prometheusCollector) Start(simulations, budget int) {
	p.inner.Start(simulations, budget)
}

func (p *prometheusCollector) SetTreeReset(value bool) {
	if value {
		p.treeResets.Inc()
	}
	p.inner.SetTreeReset(value)
}

func (p *prometheusCollector) AddSimulation() {
	p.simulations.Inc()
	p.inner.AddSimulation()
}

func (p *prometheusCollector) AddExpansion() {
	p.expansions.Inc()
	p.inner.AddExpansion()
}

func (p *prometheusCollector) AddTransposition() {
	p.transpositions.Inc()
	p.inner.AddTransposition()
}

func (p *prometheusCollector) AddTerminal() {
	p.terminals.Inc()
	p.inner.AddTerminal()
}

func (p *prometheusCollector) AddCutoff() {
	p.cutoffs.Inc()
	p.inner.AddCutoff()
}

func (p *prometheusCollector) AddRolloutSteps(n int) {
	p.rolloutSteps.Add(float64(n))
	p.inner.AddRolloutSteps(n)
}

func (p *prometheusCollector) AddFullPlayout() {
	p.fullPlayouts.Inc()
	p.inner.AddFullPlayout()
}

func (p *prometheusCollector) SetTreeSize(n int) {
	p.treeSize.Set(float64(n))
	p.inner.SetTreeSize(n)
}

func (p *prometheusCollector) Complete() SearchMetric {
	metric := p.inner.Complete()
	p.plans.Inc()
	p.planDuration.Observe(metric.Duration.Seconds())
	return metric
}
