package reconcile

import (
	"context"
	"fmt"
	"strings"

	"rental-directory/core/geocode"
	"rental-directory/core/ids"
	"rental-directory/core/reconcile"
	"rental-directory/feature/catalog"
	"rental-directory/feature/importer/parser"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SnapshotSource provides the current catalog.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*catalog.Snapshot, error)
}

// Reconciler plans import batches against the catalog.
type Reconciler struct {
	source    SnapshotSource
	geocoder  geocode.Geocoder
	validate  *validator.Validate
	logger    *zap.Logger
	sessionID func() string
}

// New creates a reconciler.
func New(source SnapshotSource, geocoder geocode.Geocoder, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		source:    source,
		geocoder:  geocoder,
		validate:  newValidator(),
		logger:    logger,
		sessionID: uuid.NewString,
	}
}

// planner holds the state of one Plan call.
type planner struct {
	snap        *catalog.Snapshot
	opts        Options
	resolutions map[string]Resolution
	plan        *reconcile.Plan

	manufacturers map[string]bool
	products      map[string]bool
	missing       []MissingEntity
	missingIndex  map[string]bool
}

// Plan validates records, resolves their references and builds the write
// plan. The returned error is reserved for infrastructure failures; every
// problem with the payload is reported on the Outcome.
func (r *Reconciler) Plan(ctx context.Context, records []parser.Record, opts Options, resolutions map[string]Resolution) (*Outcome, error) {
	if problems := r.validateRecords(records); len(problems) > 0 {
		return &Outcome{ValidationErrors: problems}, nil
	}

	snap, err := r.source.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog snapshot: %w", err)
	}

	p := &planner{
		snap:          snap,
		opts:          opts,
		resolutions:   normalizeResolutions(resolutions),
		plan:          reconcile.NewPlan(),
		manufacturers: map[string]bool{},
		products:      map[string]bool{},
		missingIndex:  map[string]bool{},
	}

	inventories := make([][]catalog.InventoryItem, len(records))
	for i, rec := range records {
		inventories[i] = p.resolveInventory(rec)
	}

	if len(p.missing) > 0 {
		sessionID := r.sessionID()
		r.logger.Info("Import suspended on missing manufacturers",
			zap.String("session_id", sessionID),
			zap.Int("missing", len(p.missing)))
		return &Outcome{MissingManufacturers: p.missing, SessionID: sessionID}, nil
	}
	if p.plan.HasErrors() {
		return &Outcome{Plan: p.plan}, nil
	}

	outcome := &Outcome{Plan: p.plan}
	for i, rec := range records {
		if err := r.planCompany(ctx, p, rec, inventories[i]); err != nil {
			outcome.GeocodeFailures++
			p.plan.AddError("company %s: %v", rec.ID, err)
			r.logger.Warn("Geocoding failed", zap.String("company_id", rec.ID), zap.Error(err))
		}
	}

	r.logger.Debug("Import planned",
		zap.Int("records", len(records)),
		zap.Int("actions", p.plan.Summary.TotalActions),
		zap.Int("errors", len(p.plan.Errors)))

	return outcome, nil
}

// resolveInventory maps the raw lines of rec onto known or planned
// products, planning manufacturer and product creations on the way. Lines
// that are skipped or deferred are left out.
func (p *planner) resolveInventory(rec parser.Record) []catalog.InventoryItem {
	items := make([]catalog.InventoryItem, 0, len(rec.Inventory))

	for _, line := range rec.Inventory {
		pid := ids.NormalizeProductID(line.ProductID)
		productName := ""

		if res, ok := p.resolutions[pid]; ok {
			switch res.Action {
			case ResolutionSkip:
				continue
			case ResolutionReference:
				target := ids.NormalizeProductID(res.ReferenceID)
				if !p.productKnown(target) {
					p.plan.AddError("resolution for product %s references unknown product %q", pid, res.ReferenceID)
					continue
				}
				items = append(items, catalog.InventoryItem{ProductID: target, Quantity: line.Quantity})
				continue
			case ResolutionCreate:
				productName = SanitizeProductName(res.Name, line.ManufacturerName, "")
			}
		}

		mfr, _ := ids.ExtractManufacturerID(pid)
		pid, mfr, keep := p.resolveManufacturer(rec.ID, line, pid, mfr)
		if !keep {
			continue
		}

		if !p.productKnown(pid) {
			if productName == "" {
				productName = SanitizeProductName(line.ProductName, line.ManufacturerName, pid)
			}
			p.products[pid] = true
			p.plan.Add(reconcile.Action{
				Type:    reconcile.ActionCreateProduct,
				Key:     pid,
				Reason:  "referenced by " + rec.ID,
				Payload: &catalog.Product{ID: pid, Name: productName, ManufacturerID: mfr, IsActive: true},
			})
		}

		items = append(items, catalog.InventoryItem{ProductID: pid, Quantity: line.Quantity})
	}

	return items
}

// resolveManufacturer makes sure the manufacturer of pid exists or is
// planned. It returns the possibly redirected product and manufacturer ids
// and whether the line should be kept.
func (p *planner) resolveManufacturer(companyID string, line parser.InventoryLine, pid, mfr string) (string, string, bool) {
	if p.manufacturerKnown(mfr) {
		return pid, mfr, true
	}

	res, resolved := p.resolutions[mfr]
	switch {
	case resolved && res.Action == ResolutionSkip:
		return "", "", false

	case resolved && res.Action == ResolutionReference:
		target := strings.TrimSpace(res.ReferenceID)
		if !ids.ValidateManufacturerID(target) || !p.manufacturerKnown(target) {
			p.plan.AddError("resolution for manufacturer %s references unknown manufacturer %q", mfr, res.ReferenceID)
			return "", "", false
		}
		redirected, ok := ids.ReplaceManufacturer(pid, target)
		if !ok {
			p.plan.AddError("cannot redirect product %s to manufacturer %s", pid, target)
			return "", "", false
		}
		return redirected, target, true

	case resolved && res.Action == ResolutionCreate:
		p.createManufacturer(mfr, firstNonEmpty(res.Name, line.ManufacturerName, mfr), companyID)
		return pid, mfr, true

	case resolved:
		p.plan.AddError("resolution for %s has unknown action %q", mfr, res.Action)
		return "", "", false

	case p.opts.CreateMissingEntities:
		p.createManufacturer(mfr, firstNonEmpty(line.ManufacturerName, mfr), companyID)
		return pid, mfr, true

	default:
		if !p.missingIndex[mfr] {
			p.missingIndex[mfr] = true
			p.missing = append(p.missing, MissingEntity{
				ID:            mfr,
				Type:          EntityManufacturer,
				ReferencedIn:  companyID,
				ReferenceName: line.ManufacturerName,
			})
		}
		return "", "", false
	}
}

func (p *planner) createManufacturer(id, name, companyID string) {
	p.manufacturers[id] = true
	p.plan.Add(reconcile.Action{
		Type:    reconcile.ActionCreateManufacturer,
		Key:     id,
		Reason:  "referenced by " + companyID,
		Payload: &catalog.Manufacturer{ID: id, Name: name, IsActive: true},
	})
}

func (p *planner) manufacturerKnown(id string) bool {
	if _, ok := p.snap.Manufacturers[id]; ok {
		return true
	}
	return p.manufacturers[id]
}

func (p *planner) productKnown(id string) bool {
	if _, ok := p.snap.Products[id]; ok {
		return true
	}
	return p.products[id]
}

// planCompany adds the create or update action for rec. Only geocoding
// errors are returned.
func (r *Reconciler) planCompany(ctx context.Context, p *planner, rec parser.Record, items []catalog.InventoryItem) error {
	// Lines were validated, so merging only sums duplicates.
	inventory, err := catalog.MergeInventory(items)
	if err != nil {
		return err
	}

	existing, known := p.snap.Companies[rec.ID]
	if !known {
		company := catalog.RentalCompany{
			ID:         rec.ID,
			Name:       rec.Name,
			Address:    rec.Address,
			City:       rec.City,
			PostalCode: rec.PostalCode,
			Country:    strings.ToUpper(rec.Country),
			Website:    rec.Website,
			Phone:      rec.Phone,
			Email:      rec.Email,
			IsActive:   rec.IsActive == nil || *rec.IsActive,
			Inventory:  inventory,
		}
		coords, err := catalog.Locate(ctx, r.geocoder, company)
		if err != nil {
			return err
		}
		company.Latitude, company.Longitude = coords.Latitude, coords.Longitude
		p.plan.Add(reconcile.Action{
			Type:    reconcile.ActionCreateCompany,
			Key:     rec.ID,
			Reason:  "new rental company",
			Payload: &company,
		})
		return nil
	}

	update := companyUpdate(rec, inventory)
	if update.AddressChanged(existing) {
		coords, err := catalog.Locate(ctx, r.geocoder, update.Apply(existing))
		if err != nil {
			return err
		}
		update.Latitude, update.Longitude = &coords.Latitude, &coords.Longitude
	}
	p.plan.Add(reconcile.Action{
		Type:    reconcile.ActionUpdateCompany,
		Key:     rec.ID,
		Reason:  "existing rental company",
		Payload: &update,
	})
	return nil
}

// companyUpdate patches only the fields present in rec; nothing is cleared
// by omission. The inventory is always replaced.
func companyUpdate(rec parser.Record, inventory []catalog.InventoryItem) catalog.CompanyUpdate {
	present := func(v string) *string {
		if v == "" {
			return nil
		}
		return &v
	}
	update := catalog.CompanyUpdate{
		Name:       present(rec.Name),
		Address:    present(rec.Address),
		City:       present(rec.City),
		PostalCode: present(rec.PostalCode),
		Country:    present(strings.ToUpper(rec.Country)),
		Website:    present(rec.Website),
		Phone:      present(rec.Phone),
		Email:      present(rec.Email),
		IsActive:   rec.IsActive,
		Inventory:  inventory,
	}
	return update
}

// normalizeResolutions canonicalizes product id keys and actions.
func normalizeResolutions(in map[string]Resolution) map[string]Resolution {
	out := make(map[string]Resolution, len(in))
	for key, res := range in {
		key = strings.TrimSpace(key)
		if !ids.ValidateManufacturerID(key) {
			key = ids.NormalizeProductID(key)
		}
		res.Action = ResolutionAction(strings.ToLower(strings.TrimSpace(string(res.Action))))
		out[key] = res
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
