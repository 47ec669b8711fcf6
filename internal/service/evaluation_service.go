package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/sidang-go-api/internal/dto"
	"github.com/noah-isme/sidang-go-api/internal/lifecycle"
	"github.com/noah-isme/sidang-go-api/internal/models"
	"github.com/noah-isme/sidang-go-api/internal/observability"
	"github.com/noah-isme/sidang-go-api/internal/repository"
	"github.com/noah-isme/sidang-go-api/internal/scoring"
)

// ErrEvaluationNotFound indicates the evaluation does not exist.
var ErrEvaluationNotFound = errors.New("evaluation not found")

// ErrNotEvaluationOwner indicates the caller does not own the evaluation.
var ErrNotEvaluationOwner = errors.New("evaluation belongs to a different evaluator")

// ErrUnknownKind indicates an unrecognised evaluation kind segment.
var ErrUnknownKind = errors.New("unknown evaluation kind")

// EvaluationService governs the evaluation lifecycle: answer edits
// while pending, the submit gate, locking, administrative re-opening,
// and score recomputation.
type EvaluationService interface {
	ListMine(ctx context.Context, actor Actor) ([]dto.UnifiedEvaluation, error)
	EditAnswers(ctx context.Context, id uint, payload dto.EditAnswersRequest, actor Actor) (dto.UnifiedEvaluation, error)
	Submit(ctx context.Context, kind string, id uint, actor Actor) (dto.UnifiedEvaluation, error)
	Lock(ctx context.Context, kind string, id uint, actor Actor) (dto.UnifiedEvaluation, error)
	SetPending(ctx context.Context, kind string, id uint, actor Actor) (dto.UnifiedEvaluation, error)
	ComputeScore(ctx context.Context, id uint) (scoring.Summary, error)
}

type evaluationService struct {
	panelists repository.PanelistEvaluationRepository
	students  repository.StudentEvaluationRepository
	schemas   repository.FormSchemaRepository
	events    EventRecorder
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewEvaluationService constructs the lifecycle service.
func NewEvaluationService(
	panelists repository.PanelistEvaluationRepository,
	students repository.StudentEvaluationRepository,
	schemas repository.FormSchemaRepository,
	events EventRecorder,
	validate *validator.Validate,
	logger zerolog.Logger,
) EvaluationService {
	return &evaluationService{
		panelists: panelists,
		students:  students,
		schemas:   schemas,
		events:    events,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "evaluation_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/sidang-go-api/internal/service/evaluation"),
		now:       time.Now,
	}
}

func (s *evaluationService) ListMine(ctx context.Context, actor Actor) ([]dto.UnifiedEvaluation, error) {
	switch actor.Role {
	case models.RolePanelist:
		evaluations, err := s.panelists.ListByPanelist(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		unified := make([]dto.UnifiedEvaluation, 0, len(evaluations))
		for _, evaluation := range evaluations {
			unified = append(unified, dto.NewUnifiedFromPanelist(evaluation))
		}
		return unified, nil
	case models.RoleStudent:
		evaluations, err := s.students.ListByStudent(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		unified := make([]dto.UnifiedEvaluation, 0, len(evaluations))
		for _, evaluation := range evaluations {
			unified = append(unified, dto.NewUnifiedFromStudent(evaluation))
		}
		return unified, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, actor.Role)
	}
}

// EditAnswers merges an answers patch into a pending student
// evaluation. The merge is shallow and key-wise: patched keys replace,
// untouched keys survive. Free-text values are sanitized before they
// are stored.
func (s *evaluationService) EditAnswers(ctx context.Context, id uint, payload dto.EditAnswersRequest, actor Actor) (dto.UnifiedEvaluation, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UnifiedEvaluation{}, err
	}

	evaluation, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UnifiedEvaluation{}, ErrEvaluationNotFound
		}
		return dto.UnifiedEvaluation{}, err
	}
	if err := s.ensureOwner(actor, evaluation.StudentID); err != nil {
		return dto.UnifiedEvaluation{}, err
	}
	if err := lifecycle.EnsureEditable(evaluation.Status); err != nil {
		return dto.UnifiedEvaluation{}, err
	}

	if evaluation.Answers == nil {
		evaluation.Answers = datatypes.JSONMap{}
	}
	for key, value := range payload.Answers {
		evaluation.Answers[key] = s.sanitizeAnswer(value)
	}

	if err := s.students.Update(ctx, &evaluation); err != nil {
		return dto.UnifiedEvaluation{}, err
	}

	s.recordEvent(ctx, actor, "evaluation.answers_updated", models.KindStudent, evaluation.ID, map[string]interface{}{
		"patched_keys": len(payload.Answers),
	})

	return dto.NewUnifiedFromStudent(evaluation), nil
}

// Submit transitions an evaluation from pending to submitted. For
// student feedback the required-answer gate runs first: an incomplete
// form is refused with a scoring.ValidationError carrying the missing
// question ids.
func (s *evaluationService) Submit(ctx context.Context, kind string, id uint, actor Actor) (dto.UnifiedEvaluation, error) {
	ctx, span := s.tracer.Start(ctx, "evaluation.submit", trace.WithAttributes(
		attribute.String("evaluation.kind", kind),
		attribute.Int64("evaluation.id", int64(id)),
	))
	defer span.End()

	switch kind {
	case models.KindPanelist:
		evaluation, err := s.panelists.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.UnifiedEvaluation{}, ErrEvaluationNotFound
			}
			return dto.UnifiedEvaluation{}, err
		}
		if err := s.ensureOwner(actor, evaluation.PanelistID); err != nil {
			return dto.UnifiedEvaluation{}, err
		}

		rec, err := lifecycle.Submit(s.record(evaluation.Status, evaluation.SubmittedAt, evaluation.LockedAt), s.now())
		if err != nil {
			span.RecordError(err)
			return dto.UnifiedEvaluation{}, err
		}
		evaluation.Status = rec.Status
		evaluation.SubmittedAt = rec.SubmittedAt

		if err := s.panelists.Update(ctx, &evaluation); err != nil {
			return dto.UnifiedEvaluation{}, err
		}

		observability.TransitionsTotal().WithLabelValues(models.KindPanelist, "submit").Inc()
		s.recordEvent(ctx, actor, "evaluation.submitted", models.KindPanelist, evaluation.ID, nil)
		return dto.NewUnifiedFromPanelist(evaluation), nil

	case models.KindStudent:
		evaluation, err := s.students.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.UnifiedEvaluation{}, ErrEvaluationNotFound
			}
			return dto.UnifiedEvaluation{}, err
		}
		if err := s.ensureOwner(actor, evaluation.StudentID); err != nil {
			return dto.UnifiedEvaluation{}, err
		}

		schema, schemaID, err := s.resolveSchema(ctx, evaluation)
		if err != nil {
			return dto.UnifiedEvaluation{}, err
		}
		if validation := scoring.ValidateRequired(map[string]interface{}(evaluation.Answers), schema); !validation.OK {
			span.SetAttributes(attribute.Int("evaluation.missing_answers", len(validation.Missing)))
			return dto.UnifiedEvaluation{}, &scoring.ValidationError{Missing: validation.Missing}
		}

		rec, err := lifecycle.Submit(s.record(evaluation.Status, evaluation.SubmittedAt, evaluation.LockedAt), s.now())
		if err != nil {
			span.RecordError(err)
			return dto.UnifiedEvaluation{}, err
		}
		evaluation.Status = rec.Status
		evaluation.SubmittedAt = rec.SubmittedAt
		if evaluation.FormSchemaID == nil {
			// Pin the schema version the submission was validated against.
			evaluation.FormSchemaID = schemaID
		}

		if err := s.students.Update(ctx, &evaluation); err != nil {
			return dto.UnifiedEvaluation{}, err
		}

		observability.TransitionsTotal().WithLabelValues(models.KindStudent, "submit").Inc()
		s.recordEvent(ctx, actor, "evaluation.submitted", models.KindStudent, evaluation.ID, nil)
		return dto.NewUnifiedFromStudent(evaluation), nil

	default:
		return dto.UnifiedEvaluation{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Lock closes an evaluation from pending or submitted. Locking an
// already-locked record is an idempotent no-op returning the record.
func (s *evaluationService) Lock(ctx context.Context, kind string, id uint, actor Actor) (dto.UnifiedEvaluation, error) {
	switch kind {
	case models.KindPanelist:
		evaluation, err := s.panelists.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.UnifiedEvaluation{}, ErrEvaluationNotFound
			}
			return dto.UnifiedEvaluation{}, err
		}

		rec, changed := lifecycle.Lock(s.record(evaluation.Status, evaluation.SubmittedAt, evaluation.LockedAt), s.now())
		if !changed {
			return dto.NewUnifiedFromPanelist(evaluation), nil
		}
		evaluation.Status = rec.Status
		evaluation.LockedAt = rec.LockedAt

		if err := s.panelists.Update(ctx, &evaluation); err != nil {
			return dto.UnifiedEvaluation{}, err
		}

		observability.TransitionsTotal().WithLabelValues(models.KindPanelist, "lock").Inc()
		s.recordEvent(ctx, actor, "evaluation.locked", models.KindPanelist, evaluation.ID, nil)
		return dto.NewUnifiedFromPanelist(evaluation), nil

	case models.KindStudent:
		evaluation, err := s.students.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.UnifiedEvaluation{}, ErrEvaluationNotFound
			}
			return dto.UnifiedEvaluation{}, err
		}

		rec, changed := lifecycle.Lock(s.record(evaluation.Status, evaluation.SubmittedAt, evaluation.LockedAt), s.now())
		if !changed {
			return dto.NewUnifiedFromStudent(evaluation), nil
		}
		evaluation.Status = rec.Status
		evaluation.LockedAt = rec.LockedAt

		if err := s.students.Update(ctx, &evaluation); err != nil {
			return dto.UnifiedEvaluation{}, err
		}

		observability.TransitionsTotal().WithLabelValues(models.KindStudent, "lock").Inc()
		s.recordEvent(ctx, actor, "evaluation.locked", models.KindStudent, evaluation.ID, nil)
		return dto.NewUnifiedFromStudent(evaluation), nil

	default:
		return dto.UnifiedEvaluation{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// SetPending is the administrative override that re-opens an evaluation
// from any state. The acting admin is always recorded in the audit
// trail together with the state the record was re-opened from.
func (s *evaluationService) SetPending(ctx context.Context, kind string, id uint, actor Actor) (dto.UnifiedEvaluation, error) {
	switch kind {
	case models.KindPanelist:
		evaluation, err := s.panelists.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.UnifiedEvaluation{}, ErrEvaluationNotFound
			}
			return dto.UnifiedEvaluation{}, err
		}

		previous := evaluation.Status
		rec := lifecycle.SetPending(s.record(evaluation.Status, evaluation.SubmittedAt, evaluation.LockedAt))
		evaluation.Status = rec.Status
		evaluation.SubmittedAt = rec.SubmittedAt
		evaluation.LockedAt = rec.LockedAt

		if err := s.panelists.Update(ctx, &evaluation); err != nil {
			return dto.UnifiedEvaluation{}, err
		}

		observability.TransitionsTotal().WithLabelValues(models.KindPanelist, "set_pending").Inc()
		s.recordEvent(ctx, actor, "evaluation.reopened", models.KindPanelist, evaluation.ID, map[string]interface{}{
			"previous_status": previous,
		})
		return dto.NewUnifiedFromPanelist(evaluation), nil

	case models.KindStudent:
		evaluation, err := s.students.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.UnifiedEvaluation{}, ErrEvaluationNotFound
			}
			return dto.UnifiedEvaluation{}, err
		}

		previous := evaluation.Status
		rec := lifecycle.SetPending(s.record(evaluation.Status, evaluation.SubmittedAt, evaluation.LockedAt))
		evaluation.Status = rec.Status
		evaluation.SubmittedAt = rec.SubmittedAt
		evaluation.LockedAt = rec.LockedAt

		if err := s.students.Update(ctx, &evaluation); err != nil {
			return dto.UnifiedEvaluation{}, err
		}

		observability.TransitionsTotal().WithLabelValues(models.KindStudent, "set_pending").Inc()
		s.recordEvent(ctx, actor, "evaluation.reopened", models.KindStudent, evaluation.ID, map[string]interface{}{
			"previous_status": previous,
		})
		return dto.NewUnifiedFromStudent(evaluation), nil

	default:
		return dto.UnifiedEvaluation{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// ComputeScore recomputes the weighted summary for a student feedback
// evaluation. The summary is a projection, never stored.
func (s *evaluationService) ComputeScore(ctx context.Context, id uint) (scoring.Summary, error) {
	evaluation, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return scoring.Summary{}, ErrEvaluationNotFound
		}
		return scoring.Summary{}, err
	}

	schema, _, err := s.resolveSchema(ctx, evaluation)
	if err != nil {
		return scoring.Summary{}, err
	}

	return scoring.ComputeSummary(map[string]interface{}(evaluation.Answers), schema), nil
}

// resolveSchema loads the schema the evaluation is pinned to, falling
// back to the currently active one. A missing active schema yields an
// empty schema: scoring then reports zero scorable questions.
func (s *evaluationService) resolveSchema(ctx context.Context, evaluation models.StudentEvaluation) (scoring.Schema, *uint, error) {
	var model models.FormSchema
	var err error

	if evaluation.FormSchemaID != nil {
		model, err = s.schemas.GetByID(ctx, *evaluation.FormSchemaID)
	} else {
		model, err = s.schemas.GetActive(ctx)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return scoring.Schema{}, nil, nil
		}
		return scoring.Schema{}, nil, err
	}

	sections, err := scoring.ParseSections(model.Sections)
	if err != nil {
		return scoring.Schema{}, nil, err
	}

	schemaID := model.ID
	return scoring.Schema{Version: model.Version, Sections: sections}, &schemaID, nil
}

func (s *evaluationService) record(status string, submittedAt, lockedAt *time.Time) lifecycle.Record {
	return lifecycle.Record{Status: status, SubmittedAt: submittedAt, LockedAt: lockedAt}
}

// ensureOwner restricts owner-scoped operations to the assigned
// evaluator; administrative and staff callers bypass the check.
func (s *evaluationService) ensureOwner(actor Actor, ownerID uint) error {
	if actor.Role == "admin" || actor.Role == "staff" {
		return nil
	}
	if actor.ID != ownerID {
		return ErrNotEvaluationOwner
	}
	return nil
}

func (s *evaluationService) sanitizeAnswer(value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(s.sanitizer.Sanitize(v))
	case []interface{}:
		cleaned := make([]interface{}, len(v))
		for i, item := range v {
			cleaned[i] = s.sanitizeAnswer(item)
		}
		return cleaned
	default:
		return value
	}
}

func (s *evaluationService) recordEvent(ctx context.Context, actor Actor, action, kind string, evaluationID uint, metadata map[string]interface{}) {
	if s.events == nil {
		return
	}
	if _, err := s.events.Record(ctx, EventEntry{
		ActorID:      actor.ID,
		ActorRole:    actor.Role,
		Action:       action,
		Kind:         kind,
		EvaluationID: evaluationID,
		Metadata:     metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record evaluation event")
	}
}
