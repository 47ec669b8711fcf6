package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/sidang-go-api/internal/dto"
	"github.com/noah-isme/sidang-go-api/internal/lifecycle"
	"github.com/noah-isme/sidang-go-api/internal/models"
	"github.com/noah-isme/sidang-go-api/internal/observability"
	"github.com/noah-isme/sidang-go-api/internal/repository"
)

// ErrScheduleNotFound indicates the targeted defense schedule does not exist.
var ErrScheduleNotFound = errors.New("defense schedule not found")

// ErrEvaluatorNotFound indicates the targeted evaluator does not exist.
var ErrEvaluatorNotFound = errors.New("evaluator not found")

// ErrEvaluatorRoleMismatch indicates the evaluator's role does not match
// the requested assignment role.
var ErrEvaluatorRoleMismatch = errors.New("evaluator role does not match assignment role")

// ErrDuplicateAssignment indicates a particular assignment already
// exists for the (schedule, role, evaluator) triple.
var ErrDuplicateAssignment = errors.New("evaluation already assigned for this schedule and evaluator")

// defaultAssignFanout bounds concurrent creations during bulk assignment.
const defaultAssignFanout = 8

// AssignmentService assigns evaluation work to one or many evaluators
// against a schedule, guaranteeing at most one assignment per
// (schedule, role, evaluator) and reporting partial failures precisely.
type AssignmentService interface {
	AssignParticular(ctx context.Context, payload dto.AssignParticularRequest, actor Actor) (dto.UnifiedEvaluation, error)
	AssignAll(ctx context.Context, payload dto.AssignAllRequest, actor Actor) (dto.AssignmentResult, error)
}

type assignmentService struct {
	panelists  repository.PanelistEvaluationRepository
	students   repository.StudentEvaluationRepository
	evaluators repository.EvaluatorRepository
	schedules  repository.ScheduleRepository
	events     EventRecorder
	validator  *validator.Validate
	logger     zerolog.Logger
	tracer     trace.Tracer
	fanout     int
}

// NewAssignmentService constructs the assignment engine. fanout bounds
// the number of concurrent creations during bulk assignment; values
// below one fall back to the default.
func NewAssignmentService(
	panelists repository.PanelistEvaluationRepository,
	students repository.StudentEvaluationRepository,
	evaluators repository.EvaluatorRepository,
	schedules repository.ScheduleRepository,
	events EventRecorder,
	validate *validator.Validate,
	logger zerolog.Logger,
	fanout int,
) AssignmentService {
	if fanout <= 0 {
		fanout = defaultAssignFanout
	}
	return &assignmentService{
		panelists:  panelists,
		students:   students,
		evaluators: evaluators,
		schedules:  schedules,
		events:     events,
		validator:  validate,
		logger:     logger.With().Str("component", "assignment_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/sidang-go-api/internal/service/assignment"),
		fanout:     fanout,
	}
}

func (s *assignmentService) AssignParticular(ctx context.Context, payload dto.AssignParticularRequest, actor Actor) (dto.UnifiedEvaluation, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UnifiedEvaluation{}, err
	}

	if _, err := s.schedules.GetByID(ctx, payload.ScheduleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UnifiedEvaluation{}, ErrScheduleNotFound
		}
		return dto.UnifiedEvaluation{}, err
	}

	evaluator, err := s.evaluators.GetByID(ctx, payload.EvaluatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UnifiedEvaluation{}, ErrEvaluatorNotFound
		}
		return dto.UnifiedEvaluation{}, err
	}
	if evaluator.Role != payload.Role {
		return dto.UnifiedEvaluation{}, ErrEvaluatorRoleMismatch
	}

	unified, created, err := s.createOne(ctx, payload.Role, payload.ScheduleID, payload.EvaluatorID)
	if err != nil {
		return dto.UnifiedEvaluation{}, err
	}
	if !created {
		// In particular mode an existing assignment is a hard failure,
		// never a silent second row.
		return dto.UnifiedEvaluation{}, ErrDuplicateAssignment
	}

	observability.AssignmentsTotal().WithLabelValues(payload.Role, "created").Inc()
	s.recordEvent(ctx, actor, "evaluation.assigned", payload.Role, unified.ID, map[string]interface{}{
		"schedule_id":  payload.ScheduleID,
		"evaluator_id": payload.EvaluatorID,
	})

	return unified, nil
}

func (s *assignmentService) AssignAll(ctx context.Context, payload dto.AssignAllRequest, actor Actor) (dto.AssignmentResult, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResult{}, err
	}

	ctx, span := s.tracer.Start(ctx, "assignment.assign_all", trace.WithAttributes(
		attribute.Int64("assignment.schedule_id", int64(payload.ScheduleID)),
		attribute.String("assignment.role", payload.Role),
	))
	defer span.End()

	schedule, err := s.schedules.GetByID(ctx, payload.ScheduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "schedule_not_found")
			return dto.AssignmentResult{}, ErrScheduleNotFound
		}
		span.RecordError(err)
		return dto.AssignmentResult{}, err
	}

	targets, err := s.eligibleTargets(ctx, schedule, payload.Role)
	if err != nil {
		span.RecordError(err)
		return dto.AssignmentResult{}, err
	}
	if len(targets) == 0 {
		span.SetAttributes(attribute.Bool("assignment.noop", true))
		return dto.AssignmentResult{
			Outcome:     dto.AssignmentOutcomeNoop,
			Message:     "no eligible evaluators",
			TargetedIDs: []uint{},
			Created:     []dto.UnifiedEvaluation{},
			Failures:    []dto.AssignmentFailure{},
		}, nil
	}

	assigned, err := s.assignedSet(ctx, payload.Role, payload.ScheduleID)
	if err != nil {
		span.RecordError(err)
		return dto.AssignmentResult{}, err
	}

	result := s.assignConcurrently(ctx, payload, targets, assigned)

	span.SetAttributes(
		attribute.Int("assignment.created", result.CreatedCount),
		attribute.Int("assignment.existing", result.ExistingCount),
		attribute.Int("assignment.failed", len(result.Failures)),
		attribute.String("assignment.outcome", result.Outcome),
	)

	observability.AssignmentsTotal().WithLabelValues(payload.Role, "created").Add(float64(result.CreatedCount))
	observability.AssignmentsTotal().WithLabelValues(payload.Role, "existing").Add(float64(result.ExistingCount))
	observability.AssignmentsTotal().WithLabelValues(payload.Role, "failed").Add(float64(len(result.Failures)))

	for _, created := range result.Created {
		s.recordEvent(ctx, actor, "evaluation.assigned", payload.Role, created.ID, map[string]interface{}{
			"schedule_id":  payload.ScheduleID,
			"evaluator_id": created.EvaluatorID,
			"bulk":         true,
		})
	}

	return result, nil
}

// eligibleTargets resolves the bulk target set: every assignable
// evaluator of the role, narrowed to the schedule's group for students.
func (s *assignmentService) eligibleTargets(ctx context.Context, schedule models.DefenseSchedule, role string) ([]models.Evaluator, error) {
	if role == models.RoleStudent && schedule.GroupID != nil {
		members, err := s.evaluators.ListGroupMembers(ctx, *schedule.GroupID)
		if err != nil {
			return nil, err
		}
		eligible := make([]models.Evaluator, 0, len(members))
		for _, member := range members {
			if member.Role == models.RoleStudent && member.IsAssignable() {
				eligible = append(eligible, member)
			}
		}
		return eligible, nil
	}

	return s.evaluators.ListEligible(ctx, role)
}

// assignedSet is the duplicate pre-check for (schedule, role). It is a
// best-effort read, not a lock; the store's unique constraint is the
// real backstop.
func (s *assignmentService) assignedSet(ctx context.Context, role string, scheduleID uint) (map[uint]struct{}, error) {
	assigned := make(map[uint]struct{})
	switch role {
	case models.RolePanelist:
		evaluations, err := s.panelists.ListBySchedule(ctx, scheduleID)
		if err != nil {
			return nil, err
		}
		for _, evaluation := range evaluations {
			assigned[evaluation.PanelistID] = struct{}{}
		}
	case models.RoleStudent:
		evaluations, err := s.students.ListBySchedule(ctx, scheduleID)
		if err != nil {
			return nil, err
		}
		for _, evaluation := range evaluations {
			assigned[evaluation.StudentID] = struct{}{}
		}
	}
	return assigned, nil
}

type assignOutcome struct {
	evaluatorID uint
	unified     dto.UnifiedEvaluation
	created     bool
	err         error
}

// assignConcurrently issues one creation per unassigned target with
// bounded fan-out. Outcomes are captured independently: one target's
// failure never rolls back or blocks another's.
func (s *assignmentService) assignConcurrently(ctx context.Context, payload dto.AssignAllRequest, targets []models.Evaluator, assigned map[uint]struct{}) dto.AssignmentResult {
	result := dto.AssignmentResult{
		TargetedIDs: make([]uint, 0, len(targets)),
		Created:     []dto.UnifiedEvaluation{},
		Failures:    []dto.AssignmentFailure{},
	}

	pending := make([]uint, 0, len(targets))
	for _, target := range targets {
		result.TargetedIDs = append(result.TargetedIDs, target.ID)
		if _, ok := assigned[target.ID]; ok {
			result.ExistingCount++
			continue
		}
		pending = append(pending, target.ID)
	}

	outcomes := make([]assignOutcome, len(pending))
	semaphore := make(chan struct{}, s.fanout)
	var wg sync.WaitGroup

	for i, evaluatorID := range pending {
		wg.Add(1)
		go func(slot int, evaluatorID uint) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			unified, created, err := s.createOne(ctx, payload.Role, payload.ScheduleID, evaluatorID)
			outcomes[slot] = assignOutcome{evaluatorID: evaluatorID, unified: unified, created: created, err: err}
		}(i, evaluatorID)
	}
	wg.Wait()

	for _, outcome := range outcomes {
		switch {
		case outcome.err != nil:
			result.Failures = append(result.Failures, dto.AssignmentFailure{
				EvaluatorID: outcome.evaluatorID,
				Reason:      outcome.err.Error(),
			})
		case outcome.created:
			result.CreatedCount++
			result.Created = append(result.Created, outcome.unified)
		default:
			// Lost a creation race; the row exists, which is what the
			// caller asked for.
			result.ExistingCount++
		}
	}

	sort.Slice(result.Created, func(i, j int) bool {
		return result.Created[i].EvaluatorID < result.Created[j].EvaluatorID
	})

	switch {
	case result.CreatedCount == 0 && len(result.Failures) == 0:
		result.Outcome = dto.AssignmentOutcomeNoop
		result.Message = "nothing to do"
	case result.CreatedCount == 0:
		result.Outcome = dto.AssignmentOutcomeFailed
		result.Message = fmt.Sprintf("all %d assignments failed", len(result.Failures))
	case len(result.Failures) > 0:
		result.Outcome = dto.AssignmentOutcomePartial
		result.Message = fmt.Sprintf("%d created, %d failed", result.CreatedCount, len(result.Failures))
	default:
		result.Outcome = dto.AssignmentOutcomeCreated
		result.Message = fmt.Sprintf("%d created", result.CreatedCount)
	}

	return result
}

// createOne attempts a single evaluation creation. A unique-constraint
// violation is an expected outcome of concurrent assignment: the
// existing row is fetched and reported with created=false.
func (s *assignmentService) createOne(ctx context.Context, role string, scheduleID, evaluatorID uint) (dto.UnifiedEvaluation, bool, error) {
	switch role {
	case models.RolePanelist:
		evaluation := models.PanelistEvaluation{
			ScheduleID: scheduleID,
			PanelistID: evaluatorID,
			Status:     lifecycle.StatusPending,
		}
		err := s.panelists.Create(ctx, &evaluation)
		if err == nil {
			return dto.NewUnifiedFromPanelist(evaluation), true, nil
		}
		if repository.IsDuplicate(err) {
			existing, fetchErr := s.panelists.GetByTarget(ctx, scheduleID, evaluatorID)
			if fetchErr != nil {
				return dto.UnifiedEvaluation{}, false, fetchErr
			}
			return dto.NewUnifiedFromPanelist(existing), false, nil
		}
		return dto.UnifiedEvaluation{}, false, err

	case models.RoleStudent:
		evaluation := models.StudentEvaluation{
			ScheduleID: scheduleID,
			StudentID:  evaluatorID,
			Status:     lifecycle.StatusPending,
		}
		err := s.students.Create(ctx, &evaluation)
		if err == nil {
			return dto.NewUnifiedFromStudent(evaluation), true, nil
		}
		if repository.IsDuplicate(err) {
			existing, fetchErr := s.students.GetByTarget(ctx, scheduleID, evaluatorID)
			if fetchErr != nil {
				return dto.UnifiedEvaluation{}, false, fetchErr
			}
			return dto.NewUnifiedFromStudent(existing), false, nil
		}
		return dto.UnifiedEvaluation{}, false, err

	default:
		return dto.UnifiedEvaluation{}, false, fmt.Errorf("unsupported assignment role %q", role)
	}
}

func (s *assignmentService) recordEvent(ctx context.Context, actor Actor, action, kind string, evaluationID uint, metadata map[string]interface{}) {
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
