package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sidang-go-api/internal/dto"
	"github.com/noah-isme/sidang-go-api/internal/service"
	"github.com/noah-isme/sidang-go-api/internal/utils"
)

// AssignmentHandler wires the admin assignment endpoints.
type AssignmentHandler struct {
	service   service.AssignmentService
	dashboard service.DashboardService
	logger    zerolog.Logger
}

// NewAssignmentHandler constructs the handler.
func NewAssignmentHandler(assignments service.AssignmentService, dashboard service.DashboardService, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		service:   assignments,
		dashboard: dashboard,
		logger:    logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// Register attaches assignment routes to the admin router group.
func (h *AssignmentHandler) Register(router fiber.Router) {
	router.Post("/assign", h.assignParticular)
	router.Post("/assign-all", h.assignAll)
}

func (h *AssignmentHandler) assignParticular(c *fiber.Ctx) error {
	var payload dto.AssignParticularRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	actor := actorFromContext(c)
	evaluation, err := h.service.AssignParticular(c.Context(), payload, actor)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrScheduleNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "defense schedule not found")
		case errors.Is(err, service.ErrEvaluatorNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "evaluator not found")
		case errors.Is(err, service.ErrEvaluatorRoleMismatch):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrDuplicateAssignment):
			return utils.SendError(c, fiber.StatusConflict, err.Error())
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to assign evaluation")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to assign evaluation")
		}
	}

	h.invalidateDashboard(c)
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "evaluation assigned", evaluation)
}

func (h *AssignmentHandler) assignAll(c *fiber.Ctx) error {
	var payload dto.AssignAllRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	actor := actorFromContext(c)
	result, err := h.service.AssignAll(c.Context(), payload, actor)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrScheduleNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "defense schedule not found")
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to bulk assign evaluations")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to bulk assign evaluations")
		}
	}

	if result.CreatedCount > 0 {
		h.invalidateDashboard(c)
	}

	// Partial success is still a success at the transport level; the
	// outcome field carries the nuance.
	status := fiber.StatusOK
	if result.Outcome == dto.AssignmentOutcomeCreated {
		status = fiber.StatusCreated
	}
	return utils.SendSuccessWithStatus(c, status, result.Message, result)
}

func (h *AssignmentHandler) invalidateDashboard(c *fiber.Ctx) {
	if h.dashboard == nil {
		return
	}
	if err := h.dashboard.Invalidate(c.Context()); err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Msg("failed to invalidate dashboard cache")
	}
}
