package core

import (
	"context"
	"fmt"
	"strings"
)

// PlanStep is one ordered step of a Plan. Assignee is empty when the manager
// did not name a member for the step.
type PlanStep struct {
	Index       int    `json:"index" yaml:"index"`
	Description string `json:"description" yaml:"description"`
	Assignee    string `json:"assignee,omitempty" yaml:"assignee,omitempty"`
}

// Plan is the manager's decomposition of a clan goal. It is immutable once
// built and safe to share between agents.
type Plan struct {
	goal  string
	steps []PlanStep
	raw   string
}

// NewPlan builds a plan from ordered steps, renumbering them from 1. A plan
// without steps is rejected with ErrPlanningFailed.
func NewPlan(goal string, steps []PlanStep, raw string) (*Plan, error) {
	cleaned := make([]PlanStep, 0, len(steps))
	for _, s := range steps {
		desc := strings.TrimSpace(s.Description)
		if desc == "" {
			continue
		}
		cleaned = append(cleaned, PlanStep{
			Index:       len(cleaned) + 1,
			Description: desc,
			Assignee:    strings.TrimSpace(s.Assignee),
		})
	}
	if len(cleaned) == 0 {
		return nil, NewError(CodePlanningFailed, "", "plan has no steps")
	}
	return &Plan{goal: goal, steps: cleaned, raw: raw}, nil
}

// Goal returns the clan goal the plan decomposes.
func (p *Plan) Goal() string { return p.goal }

// Raw returns the model text the plan was parsed from.
func (p *Plan) Raw() string { return p.raw }

// Len returns the number of steps.
func (p *Plan) Len() int { return len(p.steps) }

// Steps returns a copy of the steps.
func (p *Plan) Steps() []PlanStep {
	out := make([]PlanStep, len(p.steps))
	copy(out, p.steps)
	return out
}

// String renders the plan as a numbered list for prompts.
func (p *Plan) String() string {
	var b strings.Builder
	for i, s := range p.steps {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", s.Index, s.Description)
		if s.Assignee != "" {
			fmt.Fprintf(&b, " (assignee: %s)", s.Assignee)
		}
	}
	return b.String()
}

type planKey struct{}

// WithPlan returns a context carrying plan for the remainder of a clan run.
func WithPlan(ctx context.Context, plan *Plan) context.Context {
	return context.WithValue(ctx, planKey{}, plan)
}

// PlanFromContext returns the plan attached by WithPlan, or nil.
func PlanFromContext(ctx context.Context) *Plan {
	if ctx == nil {
		return nil
	}
	p, _ := ctx.Value(planKey{}).(*Plan)
	return p
}
