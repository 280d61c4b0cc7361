package catalog

import (
	"errors"

	"rental-directory/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the catalog.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the catalog routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	m := app.Group("/manufacturers")
	m.Get("/", h.HandleListManufacturers)
	m.Get("/:id", h.HandleGetManufacturer)
	m.Post("/", h.HandleCreateManufacturer)
	m.Patch("/:id", h.HandleUpdateManufacturer)
	m.Delete("/:id", h.HandleDeleteManufacturer)

	p := app.Group("/products")
	p.Get("/", h.HandleListProducts)
	p.Get("/:id", h.HandleGetProduct)
	p.Post("/", h.HandleCreateProduct)
	p.Patch("/:id", h.HandleUpdateProduct)
	p.Delete("/:id", h.HandleDeleteProduct)

	c := app.Group("/companies")
	c.Get("/", h.HandleListCompanies)
	c.Get("/:id", h.HandleGetCompany)
	c.Post("/", h.HandleCreateCompany)
	c.Patch("/:id", h.HandleUpdateCompany)
	c.Delete("/:id", h.HandleDeleteCompany)
}

// HandleListManufacturers lists manufacturers.
// @Summary List Manufacturers
// @Tags catalog
// @Produce json
// @Param includeInactive query bool false "Include inactive manufacturers"
// @Success 200 {array} catalog.Manufacturer
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Security ApiKeyAuth
// @Router /manufacturers [get]
func (h *Handler) HandleListManufacturers(c *fiber.Ctx) error {
	out, err := h.service.GetManufacturers(c.Context(), c.QueryBool("includeInactive"))
	if err != nil {
		return h.fail(c, "List manufacturers failed", err)
	}
	return c.JSON(out)
}

// HandleGetManufacturer returns one manufacturer.
// @Summary Get Manufacturer
// @Tags catalog
// @Produce json
// @Param id path string true "Manufacturer ID (3 digits)"
// @Success 200 {object} catalog.Manufacturer
// @Failure 404 {object} map[string]string "Not Found"
// @Security ApiKeyAuth
// @Router /manufacturers/{id} [get]
func (h *Handler) HandleGetManufacturer(c *fiber.Ctx) error {
	out, err := h.service.GetManufacturer(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, "Get manufacturer failed", err)
	}
	return c.JSON(out)
}

// HandleCreateManufacturer creates a manufacturer.
// @Summary Create Manufacturer
// @Tags catalog
// @Accept json
// @Produce json
// @Param manufacturer body catalog.ManufacturerInput true "Manufacturer"
// @Success 201 {object} catalog.Manufacturer
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 409 {object} map[string]string "Conflict"
// @Failure 422 {object} map[string]string "Unprocessable Entity"
// @Security ApiKeyAuth
// @Router /manufacturers [post]
func (h *Handler) HandleCreateManufacturer(c *fiber.Ctx) error {
	var in ManufacturerInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, err)
	}
	out, err := h.service.CreateManufacturer(c.Context(), in)
	if err != nil {
		return h.fail(c, "Create manufacturer failed", err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// HandleUpdateManufacturer patches a manufacturer.
// @Summary Update Manufacturer
// @Tags catalog
// @Accept json
// @Produce json
// @Param id path string true "Manufacturer ID"
// @Param patch body catalog.ManufacturerPatch true "Fields to update"
// @Success 200 {object} catalog.Manufacturer
// @Failure 404 {object} map[string]string "Not Found"
// @Security ApiKeyAuth
// @Router /manufacturers/{id} [patch]
func (h *Handler) HandleUpdateManufacturer(c *fiber.Ctx) error {
	var patch ManufacturerPatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, err)
	}
	out, err := h.service.UpdateManufacturer(c.Context(), c.Params("id"), patch)
	if err != nil {
		return h.fail(c, "Update manufacturer failed", err)
	}
	return c.JSON(out)
}

// HandleDeleteManufacturer deletes a manufacturer without products.
// @Summary Delete Manufacturer
// @Tags catalog
// @Param id path string true "Manufacturer ID"
// @Success 204
// @Failure 404 {object} map[string]string "Not Found"
// @Failure 409 {object} map[string]string "Manufacturer has products"
// @Security ApiKeyAuth
// @Router /manufacturers/{id} [delete]
func (h *Handler) HandleDeleteManufacturer(c *fiber.Ctx) error {
	if err := h.service.DeleteManufacturer(c.Context(), c.Params("id")); err != nil {
		return h.fail(c, "Delete manufacturer failed", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleListProducts lists products.
// @Summary List Products
// @Tags catalog
// @Produce json
// @Param manufacturerId query string false "Only products of this manufacturer"
// @Param includeInactive query bool false "Include inactive products"
// @Success 200 {array} catalog.Product
// @Security ApiKeyAuth
// @Router /products [get]
func (h *Handler) HandleListProducts(c *fiber.Ctx) error {
	out, err := h.service.GetProducts(c.Context(), c.Query("manufacturerId"), c.QueryBool("includeInactive"))
	if err != nil {
		return h.fail(c, "List products failed", err)
	}
	return c.JSON(out)
}

// HandleGetProduct returns one product.
// @Summary Get Product
// @Tags catalog
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} catalog.Product
// @Failure 404 {object} map[string]string "Not Found"
// @Security ApiKeyAuth
// @Router /products/{id} [get]
func (h *Handler) HandleGetProduct(c *fiber.Ctx) error {
	out, err := h.service.GetProduct(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, "Get product failed", err)
	}
	return c.JSON(out)
}

// HandleCreateProduct creates a product.
// @Summary Create Product
// @Tags catalog
// @Accept json
// @Produce json
// @Param product body catalog.ProductInput true "Product"
// @Success 201 {object} catalog.Product
// @Failure 409 {object} map[string]string "Conflict"
// @Failure 422 {object} map[string]string "Unprocessable Entity"
// @Security ApiKeyAuth
// @Router /products [post]
func (h *Handler) HandleCreateProduct(c *fiber.Ctx) error {
	var in ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, err)
	}
	out, err := h.service.CreateProduct(c.Context(), in)
	if err != nil {
		return h.fail(c, "Create product failed", err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// HandleUpdateProduct patches a product.
// @Summary Update Product
// @Tags catalog
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param patch body catalog.ProductPatch true "Fields to update"
// @Success 200 {object} catalog.Product
// @Security ApiKeyAuth
// @Router /products/{id} [patch]
func (h *Handler) HandleUpdateProduct(c *fiber.Ctx) error {
	var patch ProductPatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, err)
	}
	out, err := h.service.UpdateProduct(c.Context(), c.Params("id"), patch)
	if err != nil {
		return h.fail(c, "Update product failed", err)
	}
	return c.JSON(out)
}

// HandleDeleteProduct deletes a product no company stocks.
// @Summary Delete Product
// @Tags catalog
// @Param id path string true "Product ID"
// @Success 204
// @Failure 409 {object} map[string]string "Product in use"
// @Security ApiKeyAuth
// @Router /products/{id} [delete]
func (h *Handler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.Context(), c.Params("id")); err != nil {
		return h.fail(c, "Delete product failed", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleListCompanies lists rental companies.
// @Summary List Rental Companies
// @Tags catalog
// @Produce json
// @Param includeInactive query bool false "Include inactive companies"
// @Param country query string false "Country code"
// @Param city query string false "City"
// @Success 200 {array} catalog.RentalCompany
// @Security ApiKeyAuth
// @Router /companies [get]
func (h *Handler) HandleListCompanies(c *fiber.Ctx) error {
	out, err := h.service.GetRentalCompanies(c.Context(), ListOptions{
		IncludeInactive: c.QueryBool("includeInactive"),
		Country:         c.Query("country"),
		City:            c.Query("city"),
	})
	if err != nil {
		return h.fail(c, "List rental companies failed", err)
	}
	return c.JSON(out)
}

// HandleGetCompany returns one rental company.
// @Summary Get Rental Company
// @Tags catalog
// @Produce json
// @Param id path string true "Rental company ID"
// @Success 200 {object} catalog.RentalCompany
// @Failure 404 {object} map[string]string "Not Found"
// @Security ApiKeyAuth
// @Router /companies/{id} [get]
func (h *Handler) HandleGetCompany(c *fiber.Ctx) error {
	out, err := h.service.GetRentalCompany(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, "Get rental company failed", err)
	}
	return c.JSON(out)
}

// HandleCreateCompany creates a rental company.
// @Summary Create Rental Company
// @Description Geocodes the address; (0,0) results are rejected.
// @Tags catalog
// @Accept json
// @Produce json
// @Param company body catalog.CompanyInput true "Rental company"
// @Success 201 {object} catalog.RentalCompany
// @Failure 409 {object} map[string]string "Conflict"
// @Failure 422 {object} map[string]string "Unprocessable Entity"
// @Security ApiKeyAuth
// @Router /companies [post]
func (h *Handler) HandleCreateCompany(c *fiber.Ctx) error {
	var in CompanyInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, err)
	}
	out, err := h.service.CreateRentalCompany(c.Context(), in)
	if err != nil {
		return h.fail(c, "Create rental company failed", err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// HandleUpdateCompany patches a rental company.
// @Summary Update Rental Company
// @Tags catalog
// @Accept json
// @Produce json
// @Param id path string true "Rental company ID"
// @Param patch body catalog.CompanyUpdate true "Fields to update"
// @Success 200 {object} catalog.RentalCompany
// @Failure 404 {object} map[string]string "Not Found"
// @Failure 422 {object} map[string]string "Unprocessable Entity"
// @Security ApiKeyAuth
// @Router /companies/{id} [patch]
func (h *Handler) HandleUpdateCompany(c *fiber.Ctx) error {
	var update CompanyUpdate
	if err := c.BodyParser(&update); err != nil {
		return badRequest(c, err)
	}
	out, err := h.service.UpdateRentalCompany(c.Context(), c.Params("id"), update)
	if err != nil {
		return h.fail(c, "Update rental company failed", err)
	}
	return c.JSON(out)
}

// HandleDeleteCompany deletes a rental company.
// @Summary Delete Rental Company
// @Tags catalog
// @Param id path string true "Rental company ID"
// @Success 204
// @Failure 404 {object} map[string]string "Not Found"
// @Security ApiKeyAuth
// @Router /companies/{id} [delete]
func (h *Handler) HandleDeleteCompany(c *fiber.Ctx) error {
	if err := h.service.DeleteRentalCompany(c.Context(), c.Params("id")); err != nil {
		return h.fail(c, "Delete rental company failed", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// StatusFor maps catalog errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrManufacturerInUse), errors.Is(err, ErrProductInUse):
		return fiber.StatusConflict
	case errors.Is(err, ErrInvalidID), errors.Is(err, ErrInvalid), errors.Is(err, ErrGeocode):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func (h *Handler) fail(c *fiber.Ctx, msg string, err error) error {
	status := StatusFor(err)
	l := logger.WithRayID(h.service.logger, c)
	if status >= fiber.StatusInternalServerError {
		l.Error(msg, zap.Error(err))
	} else {
		l.Info(msg, zap.Error(err), zap.Int("status", status))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body: " + err.Error()})
}
