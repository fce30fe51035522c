package searcher

import (
	"fmt"
	"mctsplan/experiments/metrics"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

type Option func(o *options)

type options struct {
	simulations  int
	exploration  float64
	budget       int
	discount     float64
	rng          *rand.Rand
	reuse        bool
	trajectories bool
	metrics      metrics.Collector
}

func WithSimulations(simulations int) Option {
	return func(o *options) {
		if simulations > 0 {
			o.simulations = simulations
		}
	}
}

func WithExploration(c float64) Option {
	return func(o *options) {
		if c >= 0 {
			o.exploration = c
		}
	}
}

// WithBudget caps the number of steps of one simulation, tree steps and
// rollout steps combined.
func WithBudget(budget int) Option {
	return func(o *options) {
		if budget > 0 {
			o.budget = budget
		}
	}
}

func WithDiscount(discount float64) Option {
	return func(o *options) {
		o.discount = discount
	}
}

func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.rng = rand.New(rand.NewSource(seed))
	}
}

func WithRand(rng *rand.Rand) Option {
	return func(o *options) {
		if rng != nil {
			o.rng = rng
		}
	}
}

// WithTreeReuse keeps the part of the previous search graph reachable from the
// new root between Plan calls. Without it every Plan starts from an empty table.
func WithTreeReuse() Option {
	return func(o *options) {
		o.reuse = true
	}
}

// WithTrajectories toggles recording of per-simulation state trajectories.
func WithTrajectories(record bool) Option {
	return func(o *options) {
		o.trajectories = record
	}
}

func WithCollector(collector metrics.Collector) Option {
	return func(o *options) {
		if collector != nil {
			o.metrics = collector
		}
	}
}

// Diagnostics describes one Plan call. Values and Visits are indexed like
// Actions; Values holds -Inf for actions that were never tried.
type Diagnostics[S, A comparable] struct {
	Trajectories [][]S
	Values       []float64
	Visits       []float64
	Actions      []A
	Metric       metrics.SearchMetric
}

// MCTS plans over an Environment. It owns its node table and is not safe for
// concurrent use.
type MCTS[S, A comparable] struct {
	env           Environment[S, A]
	simulations   int
	exploration   float64
	budget        int
	discount      float64
	rng           *rand.Rand
	rolloutPolicy RolloutPolicy[S, A]
	reuse         bool
	trajectories  bool
	metrics       metrics.Collector

	ids   *idAllocator
	nodes map[int]*StateNode[S, A]
	index map[S]int // Node id by state across the whole table
	root  *StateNode[S, A]

	path       []edge[S, A]
	trajectory []S
	recorded   [][]S
}

// edge is one tree transition taken during a simulation.
type edge[S, A comparable] struct {
	node   *StateNode[S, A]
	action int
	reward float64
}

func NewMCTS[S, A comparable](env Environment[S, A], opts ...Option) *MCTS[S, A] {
	o := options{ // Default values
		simulations:  DefaultSimulations,
		exploration:  DefaultExploration,
		budget:       DefaultBudget,
		discount:     DefaultDiscount,
		trajectories: true,
		metrics:      metrics.NewDummyCollector(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if env == nil {
		panic("Must specify an environment")
	}
	if o.discount < 0 || o.discount > 1 {
		panic(fmt.Sprintf("discount must be within [0, 1], got %v", o.discount))
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}

	return &MCTS[S, A]{
		env:           env,
		simulations:   o.simulations,
		exploration:   o.exploration,
		budget:        o.budget,
		discount:      o.discount,
		rng:           o.rng,
		rolloutPolicy: UniformRollout[S, A],
		reuse:         o.reuse,
		trajectories:  o.trajectories,
		metrics:       o.metrics,
		ids:           newIDAllocator(),
		nodes:         make(map[int]*StateNode[S, A]),
		index:         make(map[S]int),
	}
}

// SetRolloutPolicy replaces the default uniform rollout policy.
func (m *MCTS[S, A]) SetRolloutPolicy(policy RolloutPolicy[S, A]) {
	if policy == nil {
		policy = UniformRollout[S, A]
	}
	m.rolloutPolicy = policy
}

func (m *MCTS[S, A]) Environment() Environment[S, A] { return m.env }
func (m *MCTS[S, A]) Rand() *rand.Rand               { return m.rng }
func (m *MCTS[S, A]) Exploration() float64           { return m.exploration }
func (m *MCTS[S, A]) Discount() float64              { return m.discount }
func (m *MCTS[S, A]) Budget() int                    { return m.budget }
func (m *MCTS[S, A]) Simulations() int               { return m.simulations }

// Root returns the root of the last search, nil before the first Plan.
func (m *MCTS[S, A]) Root() *StateNode[S, A] {
	return m.root
}

// Node returns the node registered under id.
func (m *MCTS[S, A]) Node(id int) (*StateNode[S, A], bool) {
	node, ok := m.nodes[id]
	return node, ok
}

// Len returns the number of nodes in the table.
func (m *MCTS[S, A]) Len() int {
	return len(m.nodes)
}

// Reset discards the node table. Ids keep increasing.
func (m *MCTS[S, A]) Reset() {
	m.nodes = make(map[int]*StateNode[S, A])
	m.index = make(map[S]int)
	m.root = nil
}

// Plan runs the configured number of simulations from initial and returns the
// root action with the highest empirical value, ties broken at random.
func (m *MCTS[S, A]) Plan(initial S) (A, Diagnostics[S, A], error) {
	var none A

	m.metrics.Start(m.simulations, m.budget)
	root, err := m.findRoot(initial)
	if err != nil {
		return none, Diagnostics[S, A]{}, fmt.Errorf("create root node: %w", err)
	}

	m.recorded = nil
	for i := 0; i < m.simulations; i++ {
		if m.trajectories {
			m.trajectory = []S{initial}
		}
		if err := m.simulate(root); err != nil {
			return none, Diagnostics[S, A]{}, fmt.Errorf("simulation %d: %w", i, err)
		}
		if m.trajectories {
			m.recorded = append(m.recorded, m.trajectory)
		}
		m.metrics.AddSimulation()
	}
	m.metrics.SetTreeSize(len(m.nodes))

	values := root.Means()
	best := argmax(values, m.rng)

	actions := make([]A, len(root.Actions))
	for i, action := range root.Actions {
		actions[i] = action.Action
	}
	visits := make([]float64, len(root.ActionVisits))
	copy(visits, root.ActionVisits)

	diagnostics := Diagnostics[S, A]{
		Trajectories: m.recorded,
		Values:       values,
		Visits:       visits,
		Actions:      actions,
		Metric:       m.metrics.Complete(),
	}
	m.recorded = nil
	m.trajectory = nil

	log.Debug().
		Int("root", root.ID).
		Int("simulations", m.simulations).
		Int("nodes", len(m.nodes)).
		Interface("action", actions[best]).
		Float64("value", values[best]).
		Msg("plan complete")

	return actions[best], diagnostics, nil
}

// findRoot reuses a previously expanded node for state when tree reuse is on,
// otherwise it starts a fresh table with a new root.
func (m *MCTS[S, A]) findRoot(state S) (*StateNode[S, A], error) {
	if m.reuse && m.root != nil {
		if root := m.reachable(state); root != nil && len(root.Actions) > 0 {
			dropped := m.prune(root)
			m.root = root
			m.metrics.SetTreeReset(false)
			log.Debug().Msgf("reusing node %d as root, dropped %d unreachable nodes", root.ID, dropped)
			return root, nil
		}
		log.Debug().Msgf("no node for state %v in previous search, resetting tree", state)
	}

	m.Reset()
	root, err := newStateNode(m.env, state, m.ids.next(), false)
	if err != nil {
		return nil, err
	}
	m.register(root)
	m.root = root
	m.metrics.SetTreeReset(true)
	return root, nil
}

// reachable finds the shallowest node for state reachable from the current root.
func (m *MCTS[S, A]) reachable(state S) *StateNode[S, A] {
	var found *StateNode[S, A]
	m.walk(m.root, func(node *StateNode[S, A]) bool {
		if node.State == state {
			found = node
			return false
		}
		return true
	})
	return found
}

// prune drops every node not reachable from root and returns how many.
func (m *MCTS[S, A]) prune(root *StateNode[S, A]) int {
	kept := make(map[int]*StateNode[S, A], len(m.nodes))
	m.walk(root, func(node *StateNode[S, A]) bool {
		kept[node.ID] = node
		return true
	})

	dropped := len(m.nodes) - len(kept)
	m.nodes = kept
	m.index = make(map[S]int, len(kept))
	for id, node := range kept {
		m.index[node.State] = id
	}
	return dropped
}

// walk visits nodes breadth first from start until visit returns false.
func (m *MCTS[S, A]) walk(start *StateNode[S, A], visit func(*StateNode[S, A]) bool) {
	seen := map[int]bool{start.ID: true}
	queue := []*StateNode[S, A]{start}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if !visit(node) {
			return
		}
		for _, action := range node.Actions {
			for _, id := range action.stateToID {
				if !seen[id] {
					seen[id] = true
					queue = append(queue, m.lookup(id))
				}
			}
		}
	}
}

// simulate runs one select, expand, rollout and backup pass from root.
func (m *MCTS[S, A]) simulate(root *StateNode[S, A]) error {
	path := m.path[:0]
	node := root
	continuation := 0.0

	for {
		node.Visits++
		i := selectAction(node, m.exploration, m.rng)
		node.ActionVisits[i]++
		action := node.Actions[i]

		next, reward, terminal := m.env.Step(node.State, action.Action)
		m.record(next)
		path = append(path, edge[S, A]{node: node, action: i, reward: reward})

		id, ok := action.Successor(next)
		if !ok {
			id, ok = m.index[next]
			if ok { // Reached through another edge before
				action.stateToID[next] = id
				m.metrics.AddTransposition()
			}
		}

		if !ok { // Leaf
			child, err := m.expand(action, next, terminal)
			if err != nil {
				m.unvisit(path)
				m.path = path[:0]
				return err
			}
			child.Visits++
			if terminal {
				m.metrics.AddTerminal()
			} else {
				continuation = m.rollout(next, len(path))
			}
			break
		}

		if terminal {
			m.metrics.AddTerminal()
			break
		}
		if len(path) >= m.budget { // Budget spent inside the tree
			m.metrics.AddCutoff()
			break
		}
		node = m.lookup(id)
		if len(node.Actions) == 0 { // Only stored as a terminal successor
			break
		}
	}

	m.backup(path, continuation)
	m.path = path[:0]
	return nil
}

func (m *MCTS[S, A]) expand(action *ActionNode[S, A], state S, terminal bool) (*StateNode[S, A], error) {
	child, err := newStateNode(m.env, state, m.ids.next(), terminal)
	if err != nil {
		return nil, err
	}
	m.register(child)
	action.stateToID[state] = child.ID
	m.metrics.AddExpansion()
	return child, nil
}

// backup accumulates reward plus discounted continuation into every action on
// the path, deepest first. State nodes only keep visit counts.
func (m *MCTS[S, A]) backup(path []edge[S, A], value float64) {
	for i := len(path) - 1; i >= 0; i-- {
		e := path[i]
		value = e.reward + m.discount*value
		e.node.Values[e.action] += value
	}
}

// unvisit reverts the visit counts of a simulation that never backed up.
func (m *MCTS[S, A]) unvisit(path []edge[S, A]) {
	for _, e := range path {
		e.node.Visits--
		e.node.ActionVisits[e.action]--
	}
}

func (m *MCTS[S, A]) register(node *StateNode[S, A]) {
	m.nodes[node.ID] = node
	m.index[node.State] = node.ID
}

func (m *MCTS[S, A]) lookup(id int) *StateNode[S, A] {
	node, ok := m.nodes[id]
	if !ok {
		panic(fmt.Sprintf("node %d is not in the node table", id))
	}
	return node
}

func (m *MCTS[S, A]) record(state S) {
	if m.trajectories {
		m.trajectory = append(m.trajectory, state)
	}
}
