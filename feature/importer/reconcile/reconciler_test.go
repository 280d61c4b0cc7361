package reconcile

import (
	"context"
	"errors"
	"strings"
	"testing"

	"rental-directory/core/geocode"
	"rental-directory/core/reconcile"
	"rental-directory/feature/catalog"
	"rental-directory/feature/importer/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioCSV = "K1234, Acme, Main St 1, Berlin, DE, 12345,,,'\n" +
	"559-1065-2012, Green-GO MCXEXT, Green-GO, 15\n"

type snapshotFunc func(ctx context.Context) (*catalog.Snapshot, error)

func (f snapshotFunc) Snapshot(ctx context.Context) (*catalog.Snapshot, error) {
	return f(ctx)
}

func staticSnapshot(s *catalog.Snapshot) SnapshotSource {
	return snapshotFunc(func(context.Context) (*catalog.Snapshot, error) { return s, nil })
}

func emptySnapshot() *catalog.Snapshot {
	return catalog.NewSnapshot(nil, nil, nil)
}

var berlin = geocode.Func(func(context.Context, string) (geocode.Coordinates, error) {
	return geocode.Coordinates{Latitude: 52.52, Longitude: 13.405}, nil
})

func newReconciler(snap *catalog.Snapshot, g geocode.Geocoder) *Reconciler {
	r := New(staticSnapshot(snap), g, nil)
	r.sessionID = func() string { return "session-1" }
	return r
}

func parseCSV(t *testing.T, input string) []parser.Record {
	t.Helper()
	result, err := parser.ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	return result.Records
}

func actionsOf(plan *reconcile.Plan, typ reconcile.ActionType) []reconcile.Action {
	var out []reconcile.Action
	for _, a := range plan.Actions {
		if a.Type == typ {
			out = append(out, a)
		}
	}
	return out
}

func TestPlan_MissingManufacturerSuspends(t *testing.T) {
	r := newReconciler(emptySnapshot(), berlin)

	outcome, err := r.Plan(context.Background(), parseCSV(t, scenarioCSV), Options{}, nil)
	require.NoError(t, err)

	assert.True(t, outcome.Suspended())
	assert.Nil(t, outcome.Plan)
	assert.Equal(t, "session-1", outcome.SessionID)
	assert.Equal(t, []MissingEntity{{
		ID:            "559",
		Type:          EntityManufacturer,
		ReferencedIn:  "K1234",
		ReferenceName: "Green-GO",
	}}, outcome.MissingManufacturers)
}

func TestPlan_MissingReportedOncePerManufacturer(t *testing.T) {
	input := scenarioCSV +
		"559-1065-2013, Green-GO Beltpack, Green-GO, 2\n" +
		"K5678, Beta, Street 2, Hamburg, DE, 20095,,,\n" +
		"559-1065-2012, Green-GO MCXEXT, Green-GO, 1\n" +
		"200-ABCD-0001, Other, Maker Two, 1\n"
	r := newReconciler(emptySnapshot(), berlin)

	outcome, err := r.Plan(context.Background(), parseCSV(t, input), Options{}, nil)
	require.NoError(t, err)
	require.Len(t, outcome.MissingManufacturers, 2)
	assert.Equal(t, "559", outcome.MissingManufacturers[0].ID)
	assert.Equal(t, "K1234", outcome.MissingManufacturers[0].ReferencedIn)
	assert.Equal(t, "200", outcome.MissingManufacturers[1].ID)
	assert.Equal(t, "K5678", outcome.MissingManufacturers[1].ReferencedIn)
}

func TestPlan_CreateResolution(t *testing.T) {
	r := newReconciler(emptySnapshot(), berlin)
	resolutions := map[string]Resolution{"559": {Action: ResolutionCreate, Name: "Green-GO"}}

	outcome, err := r.Plan(context.Background(), parseCSV(t, scenarioCSV), Options{}, resolutions)
	require.NoError(t, err)
	require.NotNil(t, outcome.Plan)
	assert.False(t, outcome.Plan.HasErrors())

	mfrs := actionsOf(outcome.Plan, reconcile.ActionCreateManufacturer)
	require.Len(t, mfrs, 1)
	assert.Equal(t, &catalog.Manufacturer{ID: "559", Name: "Green-GO", IsActive: true}, mfrs[0].Payload)

	products := actionsOf(outcome.Plan, reconcile.ActionCreateProduct)
	require.Len(t, products, 1)
	product := products[0].Payload.(*catalog.Product)
	assert.Equal(t, "559-1065-2012", product.ID)
	assert.Equal(t, "559", product.ManufacturerID)
	assert.Equal(t, "MCXEXT", product.Name)

	companies := actionsOf(outcome.Plan, reconcile.ActionCreateCompany)
	require.Len(t, companies, 1)
	company := companies[0].Payload.(*catalog.RentalCompany)
	assert.Equal(t, "K1234", company.ID)
	assert.Equal(t, 52.52, company.Latitude)
	assert.Equal(t, 13.405, company.Longitude)
	assert.True(t, company.IsActive)
	assert.Equal(t, []catalog.InventoryItem{{ProductID: "559-1065-2012", Quantity: 15}}, company.Inventory)
}

func TestPlan_CreateResolutionFallsBackToPayloadName(t *testing.T) {
	r := newReconciler(emptySnapshot(), berlin)
	resolutions := map[string]Resolution{"559": {Action: "CREATE"}}

	outcome, err := r.Plan(context.Background(), parseCSV(t, scenarioCSV), Options{}, resolutions)
	require.NoError(t, err)
	mfrs := actionsOf(outcome.Plan, reconcile.ActionCreateManufacturer)
	require.Len(t, mfrs, 1)
	assert.Equal(t, "Green-GO", mfrs[0].Payload.(*catalog.Manufacturer).Name)
}

func TestPlan_CreateMissingEntities(t *testing.T) {
	r := newReconciler(emptySnapshot(), berlin)

	outcome, err := r.Plan(context.Background(), parseCSV(t, scenarioCSV), Options{CreateMissingEntities: true}, nil)
	require.NoError(t, err)
	assert.False(t, outcome.Suspended())
	assert.Equal(t, 1, outcome.Plan.Count(reconcile.ActionCreateManufacturer))
	assert.Equal(t, 1, outcome.Plan.Count(reconcile.ActionCreateProduct))
	assert.Equal(t, 1, outcome.Plan.Count(reconcile.ActionCreateCompany))
}

func TestPlan_ReferenceManufacturer(t *testing.T) {
	snap := catalog.NewSnapshot([]catalog.Manufacturer{{ID: "100", Name: "Known"}}, nil, nil)
	r := newReconciler(snap, berlin)

	resolutions := map[string]Resolution{"559": {Action: ResolutionReference, ReferenceID: "100"}}
	outcome, err := r.Plan(context.Background(), parseCSV(t, scenarioCSV), Options{}, resolutions)
	require.NoError(t, err)
	require.False(t, outcome.Plan.HasErrors())

	assert.Equal(t, 0, outcome.Plan.Count(reconcile.ActionCreateManufacturer))
	products := actionsOf(outcome.Plan, reconcile.ActionCreateProduct)
	require.Len(t, products, 1)
	assert.Equal(t, "100-1065-2012", products[0].Key)

	company := actionsOf(outcome.Plan, reconcile.ActionCreateCompany)[0].Payload.(*catalog.RentalCompany)
	assert.Equal(t, "100-1065-2012", company.Inventory[0].ProductID)
}

func TestPlan_ReferenceUnknownManufacturer(t *testing.T) {
	r := newReconciler(emptySnapshot(), berlin)

	resolutions := map[string]Resolution{"559": {Action: ResolutionReference, ReferenceID: "999"}}
	outcome, err := r.Plan(context.Background(), parseCSV(t, scenarioCSV), Options{}, resolutions)
	require.NoError(t, err)
	require.True(t, outcome.Plan.HasErrors())
	assert.Contains(t, outcome.Plan.Errors[0], "unknown manufacturer")
	assert.Empty(t, actionsOf(outcome.Plan, reconcile.ActionCreateCompany))
}

func TestPlan_ReferenceProduct(t *testing.T) {
	snap := catalog.NewSnapshot(
		[]catalog.Manufacturer{{ID: "100", Name: "Known"}},
		[]catalog.Product{{ID: "100-ABCD-0001", Name: "Desk", ManufacturerID: "100"}},
		nil,
	)
	r := newReconciler(snap, berlin)

	resolutions := map[string]Resolution{"559_1065_2012": {Action: ResolutionReference, ReferenceID: "100-ABCD-0001"}}
	outcome, err := r.Plan(context.Background(), parseCSV(t, scenarioCSV), Options{}, resolutions)
	require.NoError(t, err)
	require.False(t, outcome.Suspended())
	require.False(t, outcome.Plan.HasErrors())
	assert.Equal(t, 0, outcome.Plan.Count(reconcile.ActionCreateProduct))

	company := actionsOf(outcome.Plan, reconcile.ActionCreateCompany)[0].Payload.(*catalog.RentalCompany)
	assert.Equal(t, []catalog.InventoryItem{{ProductID: "100-ABCD-0001", Quantity: 15}}, company.Inventory)
}

func TestPlan_CreateProductResolutionSanitizesName(t *testing.T) {
	snap := catalog.NewSnapshot([]catalog.Manufacturer{{ID: "559", Name: "Green-GO"}}, nil, nil)
	r := newReconciler(snap, berlin)

	resolutions := map[string]Resolution{"559-1065-2012": {Action: ResolutionCreate, Name: "Green-GO Beltpack (wireless)"}}
	outcome, err := r.Plan(context.Background(), parseCSV(t, scenarioCSV), Options{}, resolutions)
	require.NoError(t, err)
	require.False(t, outcome.Suspended())
	require.False(t, outcome.Plan.HasErrors())

	products := actionsOf(outcome.Plan, reconcile.ActionCreateProduct)
	require.Len(t, products, 1)
	assert.Equal(t, "Beltpack", products[0].Payload.(*catalog.Product).Name)
}

func TestPlan_SkipResolution(t *testing.T) {
	input := scenarioCSV + "100-ABCD-0001, Desk, Known, 3\n"
	snap := catalog.NewSnapshot([]catalog.Manufacturer{{ID: "100", Name: "Known"}}, nil, nil)
	r := newReconciler(snap, berlin)

	resolutions := map[string]Resolution{"559": {Action: ResolutionSkip}}
	outcome, err := r.Plan(context.Background(), parseCSV(t, input), Options{}, resolutions)
	require.NoError(t, err)
	require.False(t, outcome.Plan.HasErrors())

	assert.Equal(t, 0, outcome.Plan.Count(reconcile.ActionCreateManufacturer))
	company := actionsOf(outcome.Plan, reconcile.ActionCreateCompany)[0].Payload.(*catalog.RentalCompany)
	assert.Equal(t, []catalog.InventoryItem{{ProductID: "100-ABCD-0001", Quantity: 3}}, company.Inventory)
}

func TestPlan_MergesDuplicateLines(t *testing.T) {
	input := scenarioCSV + "559_1065_2012, Green-GO MCXEXT, Green-GO, 5\n"
	r := newReconciler(emptySnapshot(), berlin)

	outcome, err := r.Plan(context.Background(), parseCSV(t, input), Options{CreateMissingEntities: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Plan.Count(reconcile.ActionCreateProduct))
	company := actionsOf(outcome.Plan, reconcile.ActionCreateCompany)[0].Payload.(*catalog.RentalCompany)
	assert.Equal(t, []catalog.InventoryItem{{ProductID: "559-1065-2012", Quantity: 20}}, company.Inventory)
}

func TestPlan_UpdatesKnownCompany(t *testing.T) {
	existing := catalog.RentalCompany{
		ID: "K1234", Name: "Old name", Address: "Main St 1", City: "Berlin",
		PostalCode: "12345", Country: "DE", Phone: "+49 30 1", Latitude: 1, Longitude: 2,
		Inventory: []catalog.InventoryItem{{RentalCompanyID: "K1234", ProductID: "559-1065-2012", Quantity: 1}},
	}
	snap := catalog.NewSnapshot(
		[]catalog.Manufacturer{{ID: "559", Name: "Green-GO"}},
		[]catalog.Product{{ID: "559-1065-2012", Name: "Custom name", ManufacturerID: "559"}},
		[]catalog.RentalCompany{existing},
	)
	calls := 0
	g := geocode.Func(func(context.Context, string) (geocode.Coordinates, error) {
		calls++
		return geocode.Coordinates{Latitude: 53.55, Longitude: 9.99}, nil
	})
	r := newReconciler(snap, g)

	outcome, err := r.Plan(context.Background(), parseCSV(t, scenarioCSV), Options{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, calls, "unchanged address must not be geocoded")
	assert.Equal(t, 0, outcome.Plan.Count(reconcile.ActionCreateProduct), "known products are never renamed")

	updates := actionsOf(outcome.Plan, reconcile.ActionUpdateCompany)
	require.Len(t, updates, 1)
	update := updates[0].Payload.(*catalog.CompanyUpdate)
	require.NotNil(t, update.Name)
	assert.Equal(t, "Acme", *update.Name)
	assert.Nil(t, update.Phone, "absent fields are not cleared")
	assert.Nil(t, update.Latitude)
	assert.Equal(t, []catalog.InventoryItem{{ProductID: "559-1065-2012", Quantity: 15}}, update.Inventory)

	moved := strings.Replace(scenarioCSV, "Berlin", "Hamburg", 1)
	outcome, err = r.Plan(context.Background(), parseCSV(t, moved), Options{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	update = actionsOf(outcome.Plan, reconcile.ActionUpdateCompany)[0].Payload.(*catalog.CompanyUpdate)
	require.NotNil(t, update.Latitude)
	assert.Equal(t, 53.55, *update.Latitude)
}

func TestPlan_GeocodeFailuresListEveryCompany(t *testing.T) {
	input := "K1000, First, Nowhere 1, Atlantis, DE, 00000,,,\n" +
		"100-ABCD-0001, Desk, Known, 1\n" +
		"K2000, Second, Main St 1, Berlin, DE, 12345,,,\n" +
		"100-ABCD-0001, Desk, Known, 1\n" +
		"K3000, Third, Null Island, Zero, DE, 00000,,,\n" +
		"100-ABCD-0001, Desk, Known, 1\n"
	snap := catalog.NewSnapshot([]catalog.Manufacturer{{ID: "100", Name: "Known"}}, nil, nil)
	g := geocode.Func(func(_ context.Context, address string) (geocode.Coordinates, error) {
		switch {
		case strings.Contains(address, "Atlantis"):
			return geocode.Coordinates{}, geocode.ErrNoResult
		case strings.Contains(address, "Zero"):
			return geocode.Coordinates{}, nil
		default:
			return geocode.Coordinates{Latitude: 52.52, Longitude: 13.405}, nil
		}
	})
	r := newReconciler(snap, g)

	outcome, err := r.Plan(context.Background(), parseCSV(t, input), Options{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.GeocodeFailures)
	require.Len(t, outcome.Plan.Errors, 2)
	assert.Contains(t, outcome.Plan.Errors[0], "K1000")
	assert.Contains(t, outcome.Plan.Errors[1], "K3000")

	_, err = reconcile.ApplyPlan(context.Background(), nil, outcome.Plan, reconcile.Options{})
	assert.ErrorIs(t, err, reconcile.ErrPlanHasErrors)
}

func TestPlan_ValidationErrors(t *testing.T) {
	records := []parser.Record{
		{ID: "X1", Name: "", Address: "a", City: "c", Country: "DEU", PostalCode: "1",
			Inventory: []parser.InventoryLine{{ProductID: "bad", Quantity: 0}}},
		{ID: "K1234", Name: "n", Address: "a", City: "c", Country: "DE", PostalCode: "1",
			Inventory: []parser.InventoryLine{}},
		{ID: "K1234", Name: "n", Address: "a", City: "c", Country: "DE", PostalCode: "1",
			Inventory: []parser.InventoryLine{{ProductID: "100-ABCD-1", Quantity: 1}}},
	}
	r := newReconciler(emptySnapshot(), berlin)

	outcome, err := r.Plan(context.Background(), records, Options{}, nil)
	require.NoError(t, err)
	require.True(t, outcome.Invalid())
	assert.Nil(t, outcome.Plan)

	joined := strings.Join(outcome.ValidationErrors, "\n")
	assert.Contains(t, joined, `record 1 (X1): id "X1" must be K followed by at least 4 digits`)
	assert.Contains(t, joined, "record 1 (X1): name is required")
	assert.Contains(t, joined, "record 1 (X1): country must be exactly 2 characters")
	assert.Contains(t, joined, `record 1 (X1): inventory[0].productId "bad" is not a valid product id`)
	assert.Contains(t, joined, "record 1 (X1): inventory[0].quantity must be greater than 0")
	assert.Contains(t, joined, "record 2 (K1234): inventory must contain at least 1 item(s)")
	assert.Contains(t, joined, "record 3 (K1234): duplicate company id, first seen in record 2")
}

func TestPlan_EmptyBatchIsInvalid(t *testing.T) {
	r := newReconciler(emptySnapshot(), berlin)
	outcome, err := r.Plan(context.Background(), nil, Options{}, nil)
	require.NoError(t, err)
	assert.True(t, outcome.Invalid())
}

func TestPlan_SnapshotFailure(t *testing.T) {
	boom := errors.New("db down")
	r := New(snapshotFunc(func(context.Context) (*catalog.Snapshot, error) { return nil, boom }), berlin, nil)

	_, err := r.Plan(context.Background(), parseCSV(t, scenarioCSV), Options{}, nil)
	assert.ErrorIs(t, err, boom)
}

func TestSanitizeProductName(t *testing.T) {
	tests := []struct {
		raw, manufacturer, want string
	}{
		{"Green-GO MCXEXT", "Green-GO", "MCXEXT"},
		{"green-go MCXEXT, black", "Green-GO", "MCXEXT"},
		{"Beltpack (wireless)", "Acme", "Beltpack"},
		{"Stand / Tripod", "", "Stand"},
		{"Cable | 10m", "", "Cable"},
		{"Light\\Spot", "", "Light"},
		{"Speaker-Set", "", "Speaker"},
		{"Acme", "Acme", "Acme"},
		{"  ", "Acme", "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeProductName(tt.raw, tt.manufacturer, "fallback"))
		})
	}
}
