package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sidang-go-api/internal/dto"
	"github.com/noah-isme/sidang-go-api/internal/service"
	"github.com/noah-isme/sidang-go-api/internal/utils"
)

// FormSchemaHandler wires the admin form schema endpoints.
type FormSchemaHandler struct {
	service service.FormSchemaService
	logger  zerolog.Logger
}

// NewFormSchemaHandler constructs the handler.
func NewFormSchemaHandler(schemas service.FormSchemaService, logger zerolog.Logger) *FormSchemaHandler {
	return &FormSchemaHandler{
		service: schemas,
		logger:  logger.With().Str("component", "form_schema_handler").Logger(),
	}
}

// Register attaches schema routes to the admin router group.
func (h *FormSchemaHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/active", h.getActive)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Post("/:id/activate", h.activate)
}

func (h *FormSchemaHandler) list(c *fiber.Ctx) error {
	schemas, err := h.service.List(c.Context())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list form schemas")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list form schemas")
	}
	return utils.SendSuccess(c, "form schemas fetched", fiber.Map{
		"items": schemas,
		"total": len(schemas),
	})
}

func (h *FormSchemaHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	schema, err := h.service.Get(c.Context(), id)
	if err != nil {
		return h.schemaError(c, err, "failed to fetch form schema")
	}
	return utils.SendSuccess(c, "form schema fetched", schema)
}

func (h *FormSchemaHandler) getActive(c *fiber.Ctx) error {
	schema, err := h.service.GetActive(c.Context())
	if err != nil {
		return h.schemaError(c, err, "failed to fetch active form schema")
	}
	return utils.SendSuccess(c, "active form schema fetched", schema)
}

func (h *FormSchemaHandler) create(c *fiber.Ctx) error {
	var payload dto.FormSchemaCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	schema, err := h.service.Create(c.Context(), payload)
	if err != nil {
		return h.schemaError(c, err, "failed to create form schema")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "form schema created", schema)
}

func (h *FormSchemaHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.FormSchemaUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	schema, err := h.service.Update(c.Context(), id, payload)
	if err != nil {
		return h.schemaError(c, err, "failed to update form schema")
	}
	return utils.SendSuccess(c, "form schema updated", schema)
}

func (h *FormSchemaHandler) activate(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	schema, err := h.service.Activate(c.Context(), id, actorFromContext(c))
	if err != nil {
		return h.schemaError(c, err, "failed to activate form schema")
	}
	return utils.SendSuccess(c, "form schema activated", schema)
}

func (h *FormSchemaHandler) schemaError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrSchemaNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "form schema not found")
	case errors.Is(err, service.ErrSchemaInvalid), errors.Is(err, service.ErrSchemaNoQuestions):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}
