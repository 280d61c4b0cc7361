package search

import (
	"net/url"

	"rental-directory/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles public search requests.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the search routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/search")
	group.Get("/companies", h.HandleCompanies)
	group.Get("/products", h.HandleProducts)
}

// HandleCompanies returns the companies visible for the given filters.
// @Summary Search Rental Companies
// @Description Filters active companies by text, manufacturers and products, sorted by matching stock.
// @Tags search
// @Produce json
// @Param q query string false "Free text"
// @Param manufacturers query string false "Comma separated manufacturer ids"
// @Param products query string false "Comma separated product ids"
// @Success 200 {object} search.CompaniesResult
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /search/companies [get]
func (h *Handler) HandleCompanies(c *fiber.Ctx) error {
	result, err := h.service.Companies(c.Context(), queryValues(c))
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Company search failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(result)
}

// HandleProducts returns the products offered for the selected manufacturers.
// @Summary Search Products
// @Tags search
// @Produce json
// @Param manufacturers query string false "Comma separated manufacturer ids"
// @Success 200 {object} search.ProductsResult
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /search/products [get]
func (h *Handler) HandleProducts(c *fiber.Ctx) error {
	result, err := h.service.Products(c.Context(), queryValues(c))
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Product search failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(result)
}

func queryValues(c *fiber.Ctx) url.Values {
	values := url.Values{}
	for k, v := range c.Queries() {
		values.Set(k, v)
	}
	return values
}
