package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrPlanHasErrors is returned by ApplyPlan when the plan carries planning errors.
var ErrPlanHasErrors = errors.New("plan has errors")

// Mutator executes planned actions one at a time.
type Mutator interface {
	Apply(ctx context.Context, action Action) error
}

// BatchMutator executes the whole ordered action list at once. Implementations
// are expected to write the batch atomically.
type BatchMutator interface {
	ApplyBatch(ctx context.Context, actions []Action) error
}

// NewPlan returns an empty plan.
func NewPlan() *Plan {
	return &Plan{
		Actions: []Action{},
		Summary: PlanSummary{ByType: map[ActionType]int{}},
		Errors:  []string{},
	}
}

// Add appends an action and updates the summary.
func (p *Plan) Add(action Action) {
	p.Actions = append(p.Actions, action)
	p.Summary.TotalActions++
	if p.Summary.ByType == nil {
		p.Summary.ByType = map[ActionType]int{}
	}
	p.Summary.ByType[action.Type]++
}

// AddError records a planning error.
func (p *Plan) AddError(format string, args ...any) {
	p.Errors = append(p.Errors, fmt.Sprintf(format, args...))
}

// HasErrors reports whether planning recorded any error.
func (p *Plan) HasErrors() bool {
	return len(p.Errors) > 0
}

// Count returns the number of planned actions of the given type.
func (p *Plan) Count(t ActionType) int {
	return p.Summary.ByType[t]
}

// Ordered returns the actions grouped by type in apply order. Within one type
// the planning order is preserved.
func (p *Plan) Ordered() []Action {
	grouped := make(map[ActionType][]Action, len(applyOrder))
	var unknown []Action
	for _, action := range p.Actions {
		switch action.Type {
		case ActionCreateManufacturer, ActionCreateProduct, ActionCreateCompany, ActionUpdateCompany:
			grouped[action.Type] = append(grouped[action.Type], action)
		default:
			unknown = append(unknown, action)
		}
	}

	ordered := make([]Action, 0, len(p.Actions))
	for _, t := range applyOrder {
		ordered = append(ordered, grouped[t]...)
	}
	return append(ordered, unknown...)
}

// ApplyPlan executes the actions in a plan.
// Returns the number of actions executed and any error encountered.
// Nothing is executed for dry runs or plans that carry errors.
func ApplyPlan(ctx context.Context, mutator Mutator, plan *Plan, opts Options) (executed int, err error) {
	if plan.HasErrors() {
		return 0, fmt.Errorf("%w: %s", ErrPlanHasErrors, strings.Join(plan.Errors, "; "))
	}
	if opts.DryRun || len(plan.Actions) == 0 {
		return 0, nil
	}

	actions := plan.Ordered()

	// Try batch first
	if batcher, ok := mutator.(BatchMutator); ok {
		if err := batcher.ApplyBatch(ctx, actions); err != nil {
			return 0, fmt.Errorf("failed to apply batch: %w", err)
		}
		return len(actions), nil
	}

	// Fallback to one-at-a-time
	for _, action := range actions {
		if err := mutator.Apply(ctx, action); err != nil {
			return executed, fmt.Errorf("failed to apply %s %s: %w", action.Type, action.Key, err)
		}
		executed++
	}
	return executed, nil
}
