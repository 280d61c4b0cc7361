package search_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"rental-directory/core/database"
	"rental-directory/core/geocode"
	"rental-directory/feature/catalog"
	"rental-directory/feature/search"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	ctx := context.Background()

	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	repo := catalog.NewRepository(db)
	require.NoError(t, repo.Migrate(ctx))

	g := geocode.Func(func(ctx context.Context, address string) (geocode.Coordinates, error) {
		return geocode.Coordinates{Latitude: 52.5, Longitude: 13.4}, nil
	})
	cat := catalog.NewService(repo, g, time.Minute, nil, zap.NewNop())

	_, err = cat.CreateManufacturer(ctx, catalog.ManufacturerInput{ID: "559", Name: "Green-GO"})
	require.NoError(t, err)
	_, err = cat.CreateManufacturer(ctx, catalog.ManufacturerInput{ID: "123", Name: "Riedel"})
	require.NoError(t, err)
	_, err = cat.CreateProduct(ctx, catalog.ProductInput{ID: "559-1065-2012", Name: "MCXEXT"})
	require.NoError(t, err)
	_, err = cat.CreateProduct(ctx, catalog.ProductInput{ID: "123-BOLT-1", Name: "Bolero"})
	require.NoError(t, err)

	_, err = cat.CreateRentalCompany(ctx, catalog.CompanyInput{
		ID: "K1234", Name: "Acme", Address: "Main St 1", City: "Berlin", PostalCode: "12345", Country: "DE",
		Inventory: []catalog.InventoryItem{{ProductID: "559-1065-2012", Quantity: 15}},
	})
	require.NoError(t, err)
	_, err = cat.CreateRentalCompany(ctx, catalog.CompanyInput{
		ID: "K5678", Name: "Stage", Address: "Hafen 2", City: "Hamburg", PostalCode: "20457", Country: "DE",
		Inventory: []catalog.InventoryItem{
			{ProductID: "559-1065-2012", Quantity: 2},
			{ProductID: "123-BOLT-1", Quantity: 40},
		},
	})
	require.NoError(t, err)
	inactive := false
	_, err = cat.CreateRentalCompany(ctx, catalog.CompanyInput{
		ID: "K9999", Name: "Closed", Address: "Gone 1", City: "Berlin", PostalCode: "10115", Country: "DE",
		IsActive: &inactive,
	})
	require.NoError(t, err)

	app := fiber.New()
	require.NoError(t, search.NewFeature(search.NewService(cat, zap.NewNop())).Load(app))
	return app
}

func getJSON(t *testing.T, app *fiber.App, path string, out any) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestHandleCompanies(t *testing.T) {
	app := setupApp(t)

	t.Run("Unfiltered", func(t *testing.T) {
		var result search.CompaniesResult
		getJSON(t, app, "/search/companies", &result)

		require.Len(t, result.Companies, 2)
		assert.Equal(t, "K5678", result.Companies[0].ID)
		assert.Equal(t, "", result.Query)
	})

	t.Run("ManufacturerFilter", func(t *testing.T) {
		var result search.CompaniesResult
		getJSON(t, app, "/search/companies?manufacturers=559", &result)

		require.Len(t, result.Companies, 2)
		assert.Equal(t, "K1234", result.Companies[0].ID)
		assert.Equal(t, []string{"559"}, result.Filters.Manufacturers)
		assert.Equal(t, "manufacturers=559", result.Query)
	})

	t.Run("TextAndPrunedProducts", func(t *testing.T) {
		var result search.CompaniesResult
		getJSON(t, app, "/search/companies?q=berlin&manufacturers=559&products=559-1065-2012,123-BOLT-1", &result)

		require.Len(t, result.Companies, 1)
		assert.Equal(t, "K1234", result.Companies[0].ID)
		assert.Equal(t, []string{"559-1065-2012"}, result.Filters.Products)
	})
}

func TestHandleProducts(t *testing.T) {
	app := setupApp(t)

	var all search.ProductsResult
	getJSON(t, app, "/search/products", &all)
	assert.Len(t, all.Products, 2)

	var filtered search.ProductsResult
	getJSON(t, app, "/search/products?manufacturers=123", &filtered)
	require.Len(t, filtered.Products, 1)
	assert.Equal(t, "123-BOLT-1", filtered.Products[0].ID)
}
