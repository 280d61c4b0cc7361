package reconcile

import "time"

// ActionType represents the type of mutation action.
type ActionType string

const (
	// ActionCreateManufacturer inserts a manufacturer.
	ActionCreateManufacturer ActionType = "create_manufacturer"
	// ActionCreateProduct inserts a product.
	ActionCreateProduct ActionType = "create_product"
	// ActionCreateCompany inserts a rental company with its inventory.
	ActionCreateCompany ActionType = "create_company"
	// ActionUpdateCompany patches a rental company and replaces its inventory.
	ActionUpdateCompany ActionType = "update_company"
)

// applyOrder fixes the order in which action types are written so that
// referenced entities always exist before the entities that reference them.
var applyOrder = []ActionType{
	ActionCreateManufacturer,
	ActionCreateProduct,
	ActionCreateCompany,
	ActionUpdateCompany,
}

// Action represents a planned mutation operation.
type Action struct {
	// Type specifies the action to perform.
	Type ActionType `json:"type"`

	// Key is the entity identifier.
	Key string `json:"key"`

	// Reason explains why this action is needed.
	Reason string `json:"reason"`

	// Payload carries the entity to write. Its concrete type is owned by
	// the Mutator that executes the action.
	Payload any `json:"-"`
}

// Plan contains planned actions and the errors found while planning.
type Plan struct {
	// Actions contains planned mutation operations.
	Actions []Action `json:"actions"`

	// Summary provides aggregate counts.
	Summary PlanSummary `json:"summary"`

	// Errors lists problems that prevent the plan from being applied.
	Errors []string `json:"errors"`
}

// PlanSummary provides aggregate statistics for a plan.
type PlanSummary struct {
	// TotalActions is the number of planned actions.
	TotalActions int `json:"total_actions"`

	// ByType counts planned actions per action type.
	ByType map[ActionType]int `json:"by_type"`
}

// Options controls how a plan is applied.
type Options struct {
	// DryRun prevents execution of any mutations if true.
	DryRun bool
}

// Entry is a cached value together with its build time.
type Entry[T any] struct {
	// Value is the cached value.
	Value T

	// Built is the timestamp when this entry was built.
	Built time.Time

	// TTL is the time-to-live for this entry.
	TTL time.Duration
}

// IsExpired returns true if this entry has expired based on its TTL.
func (e *Entry[T]) IsExpired() bool {
	if e.TTL == 0 {
		return true // No caching
	}
	return time.Since(e.Built) > e.TTL
}
