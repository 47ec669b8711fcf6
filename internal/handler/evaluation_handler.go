package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sidang-go-api/internal/dto"
	"github.com/noah-isme/sidang-go-api/internal/lifecycle"
	"github.com/noah-isme/sidang-go-api/internal/middleware"
	"github.com/noah-isme/sidang-go-api/internal/scoring"
	"github.com/noah-isme/sidang-go-api/internal/service"
	"github.com/noah-isme/sidang-go-api/internal/utils"
)

// EvaluationHandler wires the evaluator-facing lifecycle endpoints.
type EvaluationHandler struct {
	service   service.EvaluationService
	dashboard service.DashboardService
	logger    zerolog.Logger
}

// NewEvaluationHandler constructs the handler.
func NewEvaluationHandler(evaluations service.EvaluationService, dashboard service.DashboardService, logger zerolog.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		service:   evaluations,
		dashboard: dashboard,
		logger:    logger.With().Str("component", "evaluation_handler").Logger(),
	}
}

// Register attaches evaluator routes to the authenticated router group.
func (h *EvaluationHandler) Register(router fiber.Router) {
	router.Get("/mine", middleware.WithAuth(h.listMine, middleware.AuthOptions{Role: middleware.AuthRoleEvaluator}))
	router.Patch("/student/:id/answers", h.editAnswers)
	router.Get("/student/:id/score", h.score)
	router.Post("/:kind/:id/submit", h.submit)
}

// RegisterAdmin attaches the administrative lifecycle overrides.
func (h *EvaluationHandler) RegisterAdmin(router fiber.Router) {
	router.Patch("/:kind/:id/lock", h.lock)
	router.Patch("/:kind/:id/set-pending", h.setPending)
}

func (h *EvaluationHandler) listMine(c *fiber.Ctx) error {
	actor := actorFromContext(c)
	items, err := h.service.ListMine(c.Context(), actor)
	if err != nil {
		if errors.Is(err, service.ErrUnknownKind) {
			return utils.SendError(c, fiber.StatusForbidden, "role has no evaluations")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list evaluations")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list evaluations")
	}

	return utils.SendSuccess(c, "evaluations fetched", fiber.Map{
		"items": items,
		"total": len(items),
	})
}

func (h *EvaluationHandler) editAnswers(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.EditAnswersRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	evaluation, err := h.service.EditAnswers(c.Context(), id, payload, actorFromContext(c))
	if err != nil {
		return h.lifecycleError(c, err, "failed to update answers")
	}

	return utils.SendSuccess(c, "answers updated", evaluation)
}

func (h *EvaluationHandler) submit(c *fiber.Ctx) error {
	kind := c.Params("kind")
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	evaluation, err := h.service.Submit(c.Context(), kind, id, actorFromContext(c))
	if err != nil {
		return h.lifecycleError(c, err, "failed to submit evaluation")
	}

	h.invalidateDashboard(c)
	return utils.SendSuccess(c, "evaluation submitted", evaluation)
}

func (h *EvaluationHandler) lock(c *fiber.Ctx) error {
	kind := c.Params("kind")
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	evaluation, err := h.service.Lock(c.Context(), kind, id, actorFromContext(c))
	if err != nil {
		return h.lifecycleError(c, err, "failed to lock evaluation")
	}

	h.invalidateDashboard(c)
	return utils.SendSuccess(c, "evaluation locked", evaluation)
}

func (h *EvaluationHandler) setPending(c *fiber.Ctx) error {
	kind := c.Params("kind")
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	evaluation, err := h.service.SetPending(c.Context(), kind, id, actorFromContext(c))
	if err != nil {
		return h.lifecycleError(c, err, "failed to reopen evaluation")
	}

	h.invalidateDashboard(c)
	return utils.SendSuccess(c, "evaluation reopened", evaluation)
}

func (h *EvaluationHandler) score(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	summary, err := h.service.ComputeScore(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrEvaluationNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "evaluation not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to compute score")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to compute score")
	}

	return utils.SendSuccess(c, "score computed", summary)
}

// lifecycleError maps service failures onto HTTP statuses. Lifecycle
// guard violations are conflicts; incomplete required answers carry the
// missing ids as details.
func (h *EvaluationHandler) lifecycleError(c *fiber.Ctx, err error, fallback string) error {
	var validationErr *scoring.ValidationError
	var stateErr *lifecycle.StateError

	switch {
	case errors.Is(err, service.ErrEvaluationNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "evaluation not found")
	case errors.Is(err, service.ErrNotEvaluationOwner):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrUnknownKind):
		return utils.SendError(c, fiber.StatusBadRequest, "unknown evaluation kind")
	case errors.As(err, &validationErr):
		return utils.SendErrorWithDetails(c, fiber.StatusUnprocessableEntity, "required answers missing", fiber.Map{
			"missing": validationErr.Missing,
		})
	case errors.As(err, &stateErr):
		return utils.SendErrorWithDetails(c, fiber.StatusConflict, stateErr.Message, fiber.Map{
			"code": stateErr.Code,
		})
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}

func (h *EvaluationHandler) invalidateDashboard(c *fiber.Ctx) {
	if h.dashboard == nil {
		return
	}
	if err := h.dashboard.Invalidate(c.Context()); err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Msg("failed to invalidate dashboard cache")
	}
}
