package reconcile

import (
	"rental-directory/core/reconcile"
)

// ResolutionAction is the decision taken for a missing entity.
type ResolutionAction string

const (
	// ResolutionCreate creates the entity with the given name.
	ResolutionCreate ResolutionAction = "create"
	// ResolutionReference redirects references to an existing entity.
	ResolutionReference ResolutionAction = "reference"
	// ResolutionSkip drops the inventory lines depending on the entity.
	ResolutionSkip ResolutionAction = "skip"
)

// Resolution is a user decision for one missing manufacturer or product id.
type Resolution struct {
	Action      ResolutionAction `json:"action"`
	Name        string           `json:"name,omitempty"`
	ReferenceID string           `json:"referenceId,omitempty"`
}

// EntityManufacturer is the only entity type reported as missing.
const EntityManufacturer = "manufacturer"

// MissingEntity is an unknown manufacturer referenced by the payload.
type MissingEntity struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	ReferencedIn  string `json:"referencedIn"`
	ReferenceName string `json:"referenceName,omitempty"`
}

// Options controls an import run.
type Options struct {
	CreateMissingEntities bool `json:"createMissingEntities"`
	DryRun                bool `json:"dryRun"`
}

// Outcome is the result of planning an import. Exactly one of
// ValidationErrors, MissingManufacturers or Plan is populated.
type Outcome struct {
	ValidationErrors     []string
	MissingManufacturers []MissingEntity
	SessionID            string
	Plan                 *reconcile.Plan
	GeocodeFailures      int
}

// Suspended reports whether the import waits for resolutions.
func (o *Outcome) Suspended() bool {
	return len(o.MissingManufacturers) > 0
}

// Invalid reports whether validation rejected the payload.
func (o *Outcome) Invalid() bool {
	return len(o.ValidationErrors) > 0
}
