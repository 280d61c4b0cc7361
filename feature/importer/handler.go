package importer

import (
	"errors"
	"io"
	"time"

	"rental-directory/core/logger"
	"rental-directory/core/metrics"
	"rental-directory/core/utils"
	"rental-directory/feature/importer/parser"
	"rental-directory/feature/importer/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for imports.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ImportRequest is the body of POST /import. A request carries either a new
// payload or a session id with resolutions.
type ImportRequest struct {
	Data            string                          `json:"data,omitempty"`
	Format          string                          `json:"format,omitempty"`
	Options         reconcile.Options               `json:"options"`
	ImportSessionID string                          `json:"importSessionId,omitempty"`
	Resolutions     map[string]reconcile.Resolution `json:"resolutions,omitempty"`
}

// SessionView is a suspended import as returned by the API.
type SessionView struct {
	ImportSessionID string                          `json:"importSessionId"`
	Format          string                          `json:"format"`
	Options         reconcile.Options               `json:"options"`
	MissingEntities []reconcile.MissingEntity       `json:"missingEntities"`
	Resolutions     map[string]reconcile.Resolution `json:"resolutions,omitempty"`
	CreatedAt       time.Time                       `json:"createdAt"`
}

// RegisterRoutes registers the import routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	g := app.Group("/import")
	g.Post("/", h.HandleImport)
	g.Post("/file", h.HandleImportFile)
	g.Get("/sessions/:id", h.HandleGetSession)
	g.Delete("/sessions/:id", h.HandleDeleteSession)
}

// HandleImport starts or resumes an import.
// @Summary Import Rental Companies
// @Description Imports rental companies from CSV or JSON. Unknown manufacturers suspend the import; resume it by posting importSessionId with resolutions.
// @Tags import
// @Accept json
// @Produce json
// @Param request body ImportRequest true "New import or resumption"
// @Success 200 {object} Response "Committed or dry run"
// @Success 202 {object} Response "Missing entities, resolutions required"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 404 {object} map[string]string "Session Not Found"
// @Failure 422 {object} Response "Validation or geocoding errors"
// @Failure 500 {object} Response "Persistence failure"
// @Security ApiKeyAuth
// @Router /import [post]
func (h *Handler) HandleImport(c *fiber.Ctx) error {
	var req ImportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body: " + err.Error()})
	}

	var (
		resp *Response
		err  error
	)
	if req.ImportSessionID != "" {
		resp, err = h.service.Resume(c.Context(), req.ImportSessionID, req.Resolutions)
	} else {
		resp, err = h.service.Import(c.Context(), Request{
			Data:    []byte(req.Data),
			Format:  req.Format,
			Options: req.Options,
		})
	}
	return h.reply(c, resp, err)
}

// HandleImportFile imports an uploaded file.
// @Summary Import File
// @Description Multipart variant of POST /import. The format defaults to the file extension.
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or JSON file"
// @Param format formData string false "csv or json"
// @Param createMissingEntities formData bool false "Create unknown manufacturers"
// @Param dryRun formData bool false "Plan without writing"
// @Success 200 {object} Response
// @Success 202 {object} Response
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 422 {object} Response
// @Security ApiKeyAuth
// @Router /import/file [post]
func (h *Handler) HandleImportFile(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "failed to open upload: " + err.Error()})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "failed to read upload: " + err.Error()})
	}

	format := c.FormValue("format")
	if format == "" {
		format, _ = parser.DetectFormat(fh.Filename)
	}

	resp, err := h.service.Import(c.Context(), Request{
		Data:   data,
		Format: format,
		Options: reconcile.Options{
			CreateMissingEntities: utils.ToBool(c.FormValue("createMissingEntities"), false),
			DryRun:                utils.ToBool(c.FormValue("dryRun"), false),
		},
	})
	return h.reply(c, resp, err)
}

// HandleGetSession shows a suspended import.
// @Summary Get Import Session
// @Tags import
// @Produce json
// @Param id path string true "Import session id"
// @Success 200 {object} SessionView
// @Failure 404 {object} map[string]string "Session Not Found"
// @Security ApiKeyAuth
// @Router /import/sessions/{id} [get]
func (h *Handler) HandleGetSession(c *fiber.Ctx) error {
	sess, err := h.service.Session(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(SessionView{
		ImportSessionID: sess.ID,
		Format:          sess.Format,
		Options:         sess.Options,
		MissingEntities: sess.Missing,
		Resolutions:     sess.Resolutions,
		CreatedAt:       sess.CreatedAt,
	})
}

// HandleDeleteSession abandons a suspended import.
// @Summary Discard Import Session
// @Tags import
// @Param id path string true "Import session id"
// @Success 204
// @Failure 404 {object} map[string]string "Session Not Found"
// @Security ApiKeyAuth
// @Router /import/sessions/{id} [delete]
func (h *Handler) HandleDeleteSession(c *fiber.Ctx) error {
	if err := h.service.DiscardSession(c.Context(), c.Params("id")); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) reply(c *fiber.Ctx, resp *Response, err error) error {
	if err != nil {
		return h.fail(c, err)
	}
	status := StatusFor(resp)
	if status >= fiber.StatusInternalServerError {
		logger.WithRayID(h.service.logger, c).Error("Import failed", zap.Strings("errors", resp.Errors))
	}
	return c.Status(status).JSON(resp)
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	l := logger.WithRayID(h.service.logger, c)
	switch {
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrStorageDisabled):
		l.Info("Import rejected", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	default:
		l.Error("Import failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}

// StatusFor maps an import outcome to an HTTP status code.
func StatusFor(resp *Response) int {
	switch resp.Outcome {
	case metrics.OutcomeSuccess, metrics.OutcomeDryRun:
		return fiber.StatusOK
	case metrics.OutcomeMissing:
		return fiber.StatusAccepted
	case metrics.OutcomeValidation, metrics.OutcomeGeocode:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}
