package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	s := setupService(t, nil)
	app := fiber.New()
	require.NoError(t, NewFeature(s).Load(app))
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, _ := io.ReadAll(resp.Body)
	var out map[string]any
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func TestHandler_ManufacturerRoutes(t *testing.T) {
	app := setupApp(t)

	status, body := do(t, app, "POST", "/manufacturers", `{"id":"559","name":"Green-GO"}`)
	assert.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "559", body["id"])
	assert.Equal(t, true, body["isActive"])

	status, _ = do(t, app, "POST", "/manufacturers", `{"id":"559","name":"Green-GO"}`)
	assert.Equal(t, fiber.StatusConflict, status)

	status, body = do(t, app, "POST", "/manufacturers", `{"id":"5a9","name":"Bad"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Contains(t, body["error"], "invalid id")

	status, _ = do(t, app, "POST", "/manufacturers", `{not json`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = do(t, app, "PATCH", "/manufacturers/559", `{"name":"GreenGo"}`)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "GreenGo", body["name"])

	status, _ = do(t, app, "GET", "/manufacturers/404", "")
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = do(t, app, "POST", "/products", `{"id":"559-1065-2012","name":"MCXEXT"}`)
	assert.Equal(t, fiber.StatusCreated, status)

	status, _ = do(t, app, "DELETE", "/manufacturers/559", "")
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = do(t, app, "DELETE", "/products/559-1065-2012", "")
	assert.Equal(t, fiber.StatusNoContent, status)

	status, _ = do(t, app, "DELETE", "/manufacturers/559", "")
	assert.Equal(t, fiber.StatusNoContent, status)
}

func TestHandler_CompanyRoutes(t *testing.T) {
	app := setupApp(t)

	do(t, app, "POST", "/manufacturers", `{"id":"559","name":"Green-GO"}`)
	do(t, app, "POST", "/products", `{"id":"559-1065-2012","name":"MCXEXT"}`)

	status, body := do(t, app, "POST", "/companies", `{
		"id":"K1234","name":"Acme","address":"Main St 1","city":"Berlin","postalCode":"12345","country":"DE",
		"inventory":[{"productId":"559-1065-2012","quantity":15}]
	}`)
	require.Equal(t, fiber.StatusCreated, status, fmt.Sprint(body))
	assert.Equal(t, 52.52, body["latitude"])
	inventory := body["inventory"].([]any)
	require.Len(t, inventory, 1)
	assert.Equal(t, 15.0, inventory[0].(map[string]any)["quantity"])

	req := httptest.NewRequest("GET", "/companies?country=DE", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	var list []RentalCompany
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Len(t, list, 1)

	status, body = do(t, app, "PATCH", "/companies/K1234", `{"website":"https://acme.example"}`)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "https://acme.example", body["website"])

	status, _ = do(t, app, "PATCH", "/companies/K9999", `{"website":"x"}`)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = do(t, app, "DELETE", "/companies/K1234", "")
	assert.Equal(t, fiber.StatusNoContent, status)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", ErrNotFound), fiber.StatusNotFound},
		{ErrAlreadyExists, fiber.StatusConflict},
		{ErrManufacturerInUse, fiber.StatusConflict},
		{ErrProductInUse, fiber.StatusConflict},
		{ErrInvalidID, fiber.StatusUnprocessableEntity},
		{ErrInvalid, fiber.StatusUnprocessableEntity},
		{ErrGeocode, fiber.StatusUnprocessableEntity},
		{errors.New("db down"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}
