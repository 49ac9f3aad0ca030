package planner

import (
	"fmt"

	"github.com/gitgoal/gitgoal/internal/state"
)

// explain builds the plan notes: one header line, then one line per action
// recording the heuristic progress it bought, the cumulative cost up to that
// step, and the best alternative rejected there. Formatting is fixed so
// identical plans explain identically, byte for byte.
func (p *Planner) explain(chain []*node, goal state.GoalSpec) []string {
	notes := make([]string, 0, len(chain)+1)
	notes = append(notes, fmt.Sprintf("plan: %d action(s), estimated cost %.2f", len(chain), chain[len(chain)-1].g))

	for i, n := range chain {
		line := fmt.Sprintf("step %d: %s (cost %.2f, cumulative %.2f); h %.2f -> %.2f",
			i+1, n.spec.Name, n.spec.Cost, n.g, n.parent.h, n.h)

		if alt, ok := p.bestAlternative(n, goal); ok {
			line += fmt.Sprintf("; rejected %s (f %.2f)", alt.name, alt.f)
		} else {
			line += "; no alternative applicable"
		}
		if n.spec.Rationale != "" {
			line += "; " + n.spec.Rationale
		}
		notes = append(notes, line)
	}

	return notes
}

type alternative struct {
	name string
	f    float64
}

// bestAlternative re-evaluates the applicable actions at the step's
// pre-state and returns the cheapest option other than the chosen one.
// Pure re-computation keeps the search loop free of explanation bookkeeping.
func (p *Planner) bestAlternative(chosen *node, goal state.GoalSpec) (alternative, bool) {
	parent := chosen.parent

	var best alternative
	found := false
	for _, act := range p.registry.Actions() {
		if act.Name == chosen.spec.Name {
			continue
		}
		if !act.Applicable(parent.state, p.cfg) {
			continue
		}
		next := act.Predict(parent.state, p.cfg)
		f := parent.g + act.Cost(parent.state, p.cfg) + p.weights.Score(next, goal)
		if !found || f < best.f {
			best = alternative{name: act.Name, f: f}
			found = true
		}
	}
	return best, found
}
