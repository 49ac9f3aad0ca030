package planner

import (
	"container/heap"

	"github.com/gitgoal/gitgoal/internal/action"
	"github.com/gitgoal/gitgoal/internal/config"
	"github.com/gitgoal/gitgoal/internal/errors"
	"github.com/gitgoal/gitgoal/internal/state"
)

// Planner searches for the cheapest action sequence from an observed state
// to the goal predicate. Given identical inputs, Plan returns byte-identical
// results: successor generation follows registry order, and the open set
// breaks f ties by smaller h, then insertion order.
type Planner struct {
	registry *action.Registry
	cfg      *config.Config
	weights  Weights
}

// New creates a Planner with the config's coefficients clamped against the
// registry's cost floors.
func New(registry *action.Registry, cfg *config.Config) *Planner {
	floors := action.Floors()
	weights := ClampWeights(cfg.Planner, floors)
	if cfg.Safety.RequireBackupRef {
		weights.Backup = floors.Backup
	}
	return &Planner{
		registry: registry,
		cfg:      cfg,
		weights:  weights,
	}
}

// Weights exposes the clamped coefficients.
func (p *Planner) Weights() Weights { return p.weights }

// node is one search position.
type node struct {
	state  state.RepoState
	digest string
	g      float64
	h      float64
	parent *node
	// act is the registry action that produced this node; nil at the root.
	act  *action.Action
	spec state.ActionSpec
	// depth is the plan length up to this node.
	depth int
	// seq is the global insertion counter used as the final tie-break.
	seq int
	// index is the heap bookkeeping slot.
	index int
}

func (n *node) f() float64 { return n.g + n.h }

// Plan runs A* from start toward goal.
func (p *Planner) Plan(start state.RepoState, goal state.GoalSpec) (state.Plan, error) {
	if goal.Satisfied(start) {
		return state.Plan{Notes: []string{"goal already satisfied; nothing to do"}}, nil
	}

	seq := 0
	root := &node{
		state:  start,
		digest: start.Digest(),
		h:      p.weights.Score(start, goal),
		seq:    seq,
	}

	open := &openSet{}
	heap.Init(open)
	heap.Push(open, root)

	// bestG records the cheapest known path per canonical state digest;
	// revisits are accepted only with strictly smaller g.
	bestG := map[string]float64{root.digest: 0}

	expansions := 0
	prunedByLength := false
	actions := p.registry.Actions()

	for open.Len() > 0 {
		current := heap.Pop(open).(*node)
		if g, ok := bestG[current.digest]; ok && current.g > g {
			continue // superseded entry left behind by lazy deletion
		}

		if goal.Satisfied(current.state) {
			return p.reconstruct(current, goal), nil
		}

		expansions++
		if expansions > p.cfg.Planner.MaxExpansions {
			return state.Plan{}, errors.NewNoPlan(errors.ReasonExhaustedExpansions, "")
		}

		if current.depth >= p.cfg.Planner.MaxPlanLength {
			prunedByLength = true
			continue
		}

		for i := range actions {
			act := &actions[i]
			if !act.Applicable(current.state, p.cfg) {
				continue
			}

			next := act.Predict(current.state, p.cfg)
			digest := next.Digest()
			cost := act.Cost(current.state, p.cfg)
			g := current.g + cost

			if known, ok := bestG[digest]; ok && g >= known {
				continue
			}
			bestG[digest] = g

			seq++
			heap.Push(open, &node{
				state:  next,
				digest: digest,
				g:      g,
				h:      p.weights.Score(next, goal),
				parent: current,
				act:    act,
				spec:   act.Spec(current.state, p.cfg),
				depth:  current.depth + 1,
				seq:    seq,
			})
		}
	}

	if prunedByLength {
		return state.Plan{}, errors.NewNoPlan(errors.ReasonExhaustedLength, "")
	}
	return state.Plan{}, errors.NewNoPlan(errors.ReasonUnreachable, "no applicable action sequence reaches the goal")
}

// reconstruct walks the parent chain into an ordered Plan with notes.
func (p *Planner) reconstruct(goalNode *node, goal state.GoalSpec) state.Plan {
	var chain []*node
	for n := goalNode; n.parent != nil; n = n.parent {
		chain = append(chain, n)
	}
	// Reverse into plan order.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	plan := state.Plan{EstimatedCost: goalNode.g}
	for _, n := range chain {
		plan.Actions = append(plan.Actions, n.spec)
	}
	plan.Notes = p.explain(chain, goal)
	return plan
}

// openSet is a min-heap ordered by f, ties broken by smaller h (prefer
// states closer to the goal), then by insertion order for determinism.
type openSet []*node

func (s openSet) Len() int { return len(s) }

func (s openSet) Less(i, j int) bool {
	if s[i].f() != s[j].f() {
		return s[i].f() < s[j].f()
	}
	if s[i].h != s[j].h {
		return s[i].h < s[j].h
	}
	return s[i].seq < s[j].seq
}

func (s openSet) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
	s[i].index = i
	s[j].index = j
}

func (s *openSet) Push(x any) {
	n := x.(*node)
	n.index = len(*s)
	*s = append(*s, n)
}

func (s *openSet) Pop() any {
	old := *s
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*s = old[:len(old)-1]
	return n
}
