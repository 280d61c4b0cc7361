package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"rental-directory/core/database"
	"rental-directory/core/geocode"
	"rental-directory/core/metrics"
	"rental-directory/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var berlin = geocode.Coordinates{Latitude: 52.52, Longitude: 13.405}

func setupService(t *testing.T, g geocode.Geocoder) *Service {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)

	repo := NewRepository(db)
	require.NoError(t, repo.Migrate(context.Background()))

	if g == nil {
		g = geocode.Func(func(ctx context.Context, address string) (geocode.Coordinates, error) {
			return berlin, nil
		})
	}
	return NewService(repo, g, time.Minute, metrics.New(), zap.NewNop())
}

func seed(t *testing.T, s *Service) {
	t.Helper()
	ctx := context.Background()
	_, err := s.CreateManufacturer(ctx, ManufacturerInput{ID: "559", Name: "Green-GO"})
	require.NoError(t, err)
	_, err = s.CreateProduct(ctx, ProductInput{ID: "559-1065-2012", Name: "MCXEXT"})
	require.NoError(t, err)
}

func strPtr(s string) *string { return &s }

func TestManufacturerLifecycle(t *testing.T) {
	s := setupService(t, nil)
	ctx := context.Background()

	m, err := s.CreateManufacturer(ctx, ManufacturerInput{ID: "559", Name: " Green-GO "})
	require.NoError(t, err)
	assert.Equal(t, "Green-GO", m.Name)
	assert.True(t, m.IsActive)

	_, err = s.CreateManufacturer(ctx, ManufacturerInput{ID: "559", Name: "Dup"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = s.CreateManufacturer(ctx, ManufacturerInput{ID: "55", Name: "Short"})
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = s.CreateManufacturer(ctx, ManufacturerInput{ID: "560", Name: "  "})
	assert.ErrorIs(t, err, ErrInvalid)

	inactive := false
	m, err = s.UpdateManufacturer(ctx, "559", ManufacturerPatch{Name: strPtr("GreenGo"), IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "GreenGo", m.Name)
	assert.False(t, m.IsActive)

	active, err := s.GetManufacturers(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := s.GetManufacturers(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = s.UpdateManufacturer(ctx, "999", ManufacturerPatch{Name: strPtr("x")})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DeleteManufacturer(ctx, "559"))
	assert.ErrorIs(t, s.DeleteManufacturer(ctx, "559"), ErrNotFound)
}

func TestDeleteManufacturer_BlockedByProducts(t *testing.T) {
	s := setupService(t, nil)
	seed(t, s)

	err := s.DeleteManufacturer(context.Background(), "559")
	assert.ErrorIs(t, err, ErrManufacturerInUse)
}

func TestCreateProduct(t *testing.T) {
	s := setupService(t, nil)
	seed(t, s)
	ctx := context.Background()

	t.Run("NormalizesAndDerivesManufacturer", func(t *testing.T) {
		p, err := s.CreateProduct(ctx, ProductInput{ID: "559_1065_2013", Name: "MCX"})
		require.NoError(t, err)
		assert.Equal(t, "559-1065-2013", p.ID)
		assert.Equal(t, "559", p.ManufacturerID)
	})

	t.Run("ManufacturerMismatch", func(t *testing.T) {
		_, err := s.CreateProduct(ctx, ProductInput{ID: "559-1065-2014", Name: "X", ManufacturerID: "123"})
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("UnknownManufacturer", func(t *testing.T) {
		_, err := s.CreateProduct(ctx, ProductInput{ID: "123-ABCD-1", Name: "X"})
		assert.ErrorIs(t, err, ErrInvalid)
		assert.Contains(t, err.Error(), "manufacturer 123 does not exist")
	})

	t.Run("InvalidID", func(t *testing.T) {
		_, err := s.CreateProduct(ctx, ProductInput{ID: "nope", Name: "X"})
		assert.ErrorIs(t, err, ErrInvalidID)
	})

	t.Run("Duplicate", func(t *testing.T) {
		_, err := s.CreateProduct(ctx, ProductInput{ID: "5591065-2012", Name: "Again"})
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})

	t.Run("GetByFlexibleID", func(t *testing.T) {
		p, err := s.GetProduct(ctx, "559_1065_2012")
		require.NoError(t, err)
		assert.Equal(t, "MCXEXT", p.Name)
	})
}

func TestRentalCompanyLifecycle(t *testing.T) {
	var lookups []string
	g := geocode.Func(func(ctx context.Context, address string) (geocode.Coordinates, error) {
		lookups = append(lookups, address)
		return berlin, nil
	})
	s := setupService(t, g)
	seed(t, s)
	ctx := context.Background()

	c, err := s.CreateRentalCompany(ctx, CompanyInput{
		ID: "K1234", Name: "Acme", Address: "Main St 1", City: "Berlin", PostalCode: "12345", Country: "de",
		Inventory: []InventoryItem{
			{ProductID: "559-1065-2012", Quantity: 10},
			{ProductID: "559_1065_2012", Quantity: 5},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "DE", c.Country)
	assert.Equal(t, berlin.Latitude, c.Latitude)
	require.Len(t, c.Inventory, 1)
	assert.Equal(t, 15, c.Inventory[0].Quantity)
	assert.Equal(t, []string{"Main St 1, 12345 Berlin, DE"}, lookups)

	_, err = s.CreateRentalCompany(ctx, CompanyInput{ID: "K1234", Name: "A", Address: "B", City: "C", PostalCode: "1", Country: "DE"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	t.Run("UpdateWithoutAddressChange", func(t *testing.T) {
		c, err := s.UpdateRentalCompany(ctx, "K1234", CompanyUpdate{Phone: strPtr("+49 30 1")})
		require.NoError(t, err)
		assert.Equal(t, "+49 30 1", c.Phone)
		assert.Equal(t, "Acme", c.Name)
		assert.Len(t, c.Inventory, 1)
		assert.Len(t, lookups, 1)
	})

	t.Run("UpdateAddressRegeocodes", func(t *testing.T) {
		c, err := s.UpdateRentalCompany(ctx, "K1234", CompanyUpdate{
			Address:   strPtr("Side St 2"),
			Inventory: []InventoryItem{},
		})
		require.NoError(t, err)
		assert.Equal(t, "Side St 2", c.Address)
		assert.Empty(t, c.Inventory)
		assert.Len(t, lookups, 2)
	})

	t.Run("UpdateRejectsEmptyName", func(t *testing.T) {
		_, err := s.UpdateRentalCompany(ctx, "K1234", CompanyUpdate{Name: strPtr(" ")})
		assert.ErrorIs(t, err, ErrInvalid)
	})

	list, err := s.GetRentalCompanies(ctx, ListOptions{Country: "DE"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = s.GetRentalCompanies(ctx, ListOptions{City: "Hamburg"})
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, s.DeleteRentalCompany(ctx, "K1234"))
	_, err = s.GetRentalCompany(ctx, "K1234")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateRentalCompany_Rejections(t *testing.T) {
	ctx := context.Background()
	valid := CompanyInput{ID: "K1234", Name: "Acme", Address: "Main St 1", City: "Berlin", PostalCode: "12345", Country: "DE"}

	t.Run("ZeroCoordinates", func(t *testing.T) {
		s := setupService(t, geocode.Func(func(ctx context.Context, address string) (geocode.Coordinates, error) {
			return geocode.Coordinates{}, nil
		}))
		_, err := s.CreateRentalCompany(ctx, valid)
		assert.ErrorIs(t, err, ErrGeocode)
		assert.ErrorIs(t, err, geocode.ErrZeroCoordinates)
	})

	t.Run("GeocodeError", func(t *testing.T) {
		s := setupService(t, geocode.Func(func(ctx context.Context, address string) (geocode.Coordinates, error) {
			return geocode.Coordinates{}, geocode.ErrNoResult
		}))
		_, err := s.CreateRentalCompany(ctx, valid)
		assert.ErrorIs(t, err, ErrGeocode)
		assert.ErrorIs(t, err, geocode.ErrNoResult)
	})

	s := setupService(t, nil)
	seed(t, s)

	tests := []struct {
		name   string
		mutate func(*CompanyInput)
		target error
	}{
		{"BadID", func(in *CompanyInput) { in.ID = "X1234" }, ErrInvalidID},
		{"MissingCity", func(in *CompanyInput) { in.City = "" }, ErrInvalid},
		{"LongCountry", func(in *CompanyInput) { in.Country = "DEU" }, ErrInvalid},
		{"UnknownProduct", func(in *CompanyInput) {
			in.Inventory = []InventoryItem{{ProductID: "559-1065-9999", Quantity: 1}}
		}, ErrInvalid},
		{"ZeroQuantity", func(in *CompanyInput) {
			in.Inventory = []InventoryItem{{ProductID: "559-1065-2012", Quantity: 0}}
		}, ErrInvalid},
		{"BadProductID", func(in *CompanyInput) {
			in.Inventory = []InventoryItem{{ProductID: "garbage", Quantity: 1}}
		}, ErrInvalidID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := s.CreateRentalCompany(ctx, in)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestDeleteProduct_BlockedByInventory(t *testing.T) {
	s := setupService(t, nil)
	seed(t, s)
	ctx := context.Background()

	_, err := s.CreateRentalCompany(ctx, CompanyInput{
		ID: "K1234", Name: "Acme", Address: "Main St 1", City: "Berlin", PostalCode: "12345", Country: "DE",
		Inventory: []InventoryItem{{ProductID: "559-1065-2012", Quantity: 1}},
	})
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeleteProduct(ctx, "559-1065-2012"), ErrProductInUse)
}

func TestSnapshot_InvalidatedOnMutation(t *testing.T) {
	s := setupService(t, nil)
	ctx := context.Background()

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Manufacturers)

	seed(t, s)

	snap, err = s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Contains(t, snap.Manufacturers, "559")
	assert.Contains(t, snap.Products, "559-1065-2012")
	assert.Equal(t, []string{"559"}, []string{snap.ManufacturerList()[0].ID})
}

func TestApplyBatch(t *testing.T) {
	s := setupService(t, nil)
	ctx := context.Background()
	repo := s.Repository()

	plan := reconcile.NewPlan()
	plan.Add(reconcile.Action{Type: reconcile.ActionCreateCompany, Key: "K1234", Payload: &RentalCompany{
		ID: "K1234", Name: "Acme", Address: "Main St 1", City: "Berlin", PostalCode: "12345", Country: "DE",
		Latitude: 1, Longitude: 2, IsActive: true,
		Inventory: []InventoryItem{{ProductID: "559-1065-2012", Quantity: 15}},
	}})
	plan.Add(reconcile.Action{Type: reconcile.ActionCreateProduct, Key: "559-1065-2012", Payload: &Product{
		ID: "559-1065-2012", Name: "MCXEXT", ManufacturerID: "559", IsActive: true,
	}})
	plan.Add(reconcile.Action{Type: reconcile.ActionCreateManufacturer, Key: "559", Payload: &Manufacturer{
		ID: "559", Name: "Green-GO", IsActive: true,
	}})

	executed, err := reconcile.ApplyPlan(ctx, repo, plan, reconcile.Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, executed)

	c, err := repo.GetCompany(ctx, "K1234")
	require.NoError(t, err)
	require.Len(t, c.Inventory, 1)
	assert.Equal(t, 15, c.Inventory[0].Quantity)

	t.Run("ConflictingManufacturerIsIgnored", func(t *testing.T) {
		err := repo.ApplyBatch(ctx, []reconcile.Action{
			{Type: reconcile.ActionCreateManufacturer, Key: "559", Payload: &Manufacturer{ID: "559", Name: "Other", IsActive: true}},
		})
		require.NoError(t, err)
		m, err := repo.GetManufacturer(ctx, "559")
		require.NoError(t, err)
		assert.Equal(t, "Green-GO", m.Name)
	})

	t.Run("UpdateReplacesInventory", func(t *testing.T) {
		err := repo.Apply(ctx, reconcile.Action{Type: reconcile.ActionUpdateCompany, Key: "K1234", Payload: &CompanyUpdate{
			Phone:     strPtr("123"),
			Inventory: []InventoryItem{{ProductID: "559-1065-2012", Quantity: 3}},
		}})
		require.NoError(t, err)
		c, err := repo.GetCompany(ctx, "K1234")
		require.NoError(t, err)
		assert.Equal(t, "123", c.Phone)
		assert.Equal(t, "Acme", c.Name)
		assert.Equal(t, 3, c.Inventory[0].Quantity)
	})

	t.Run("FailureRollsBack", func(t *testing.T) {
		err := repo.ApplyBatch(ctx, []reconcile.Action{
			{Type: reconcile.ActionCreateManufacturer, Key: "777", Payload: &Manufacturer{ID: "777", Name: "Rolled", IsActive: true}},
			{Type: reconcile.ActionCreateCompany, Key: "K1234", Payload: &RentalCompany{ID: "K1234", Name: "Dup"}},
		})
		require.Error(t, err)
		_, err = repo.GetManufacturer(ctx, "777")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("WrongPayload", func(t *testing.T) {
		err := repo.Apply(ctx, reconcile.Action{Type: reconcile.ActionCreateProduct, Key: "x", Payload: "nope"})
		assert.ErrorContains(t, err, "unexpected payload")
	})
}

func TestMergeInventory(t *testing.T) {
	merged, err := MergeInventory([]InventoryItem{
		{ProductID: "559-1065-2012", Quantity: 1},
		{ProductID: "123-ABCD-1", Quantity: 2},
		{ProductID: "5591065_2012", Quantity: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, []InventoryItem{
		{ProductID: "559-1065-2012", Quantity: 5},
		{ProductID: "123-ABCD-1", Quantity: 2},
	}, merged)

	_, err = MergeInventory([]InventoryItem{{ProductID: "559-1065-2012", Quantity: -1}})
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestValidCountry(t *testing.T) {
	assert.True(t, ValidCountry("DE"))
	assert.True(t, ValidCountry("de"))
	assert.False(t, ValidCountry("D1"))
	assert.False(t, ValidCountry("DEU"))
}
