package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/sidang-go-api/internal/dto"
	"github.com/noah-isme/sidang-go-api/internal/lifecycle"
	"github.com/noah-isme/sidang-go-api/internal/models"
	"github.com/noah-isme/sidang-go-api/internal/repository"
	"github.com/noah-isme/sidang-go-api/internal/scoring"
)

const testSections = `[
	{
		"id": "quality",
		"title": "Session Quality",
		"questions": [
			{"id": "q1", "label": "Clarity", "type": "rating", "max": 10, "weight": 2, "required": true},
			{"id": "q2", "label": "Depth", "type": "scale", "max": 5, "weight": 1, "required": true},
			{"id": "q3", "label": "Comments", "type": "text"}
		]
	}
]`

func setupEvaluationService(t *testing.T) (*gorm.DB, EvaluationService, *stubEventRecorder) {
	t.Helper()

	db := setupServiceDB(t, "evaluation")
	events := &stubEventRecorder{}
	service := NewEvaluationService(
		repository.NewPanelistEvaluationRepository(db),
		repository.NewStudentEvaluationRepository(db),
		repository.NewFormSchemaRepository(db),
		events,
		validator.New(validator.WithRequiredStructEnabled()),
		testLogger(),
	)
	if concrete, ok := service.(*evaluationService); ok {
		concrete.now = func() time.Time { return time.Date(2026, time.March, 9, 14, 0, 0, 0, time.UTC) }
	}
	return db, service, events
}

func seedActiveSchema(t *testing.T, db *gorm.DB) models.FormSchema {
	t.Helper()
	schema := models.FormSchema{
		Version:  1,
		Title:    "Defense Feedback",
		Sections: datatypes.JSON([]byte(testSections)),
		IsActive: true,
	}
	require.NoError(t, db.Create(&schema).Error)
	return schema
}

func seedStudentEvaluation(t *testing.T, db *gorm.DB, studentID uint, answers datatypes.JSONMap) models.StudentEvaluation {
	t.Helper()
	schedule := models.DefenseSchedule{Title: "Defense", Room: "R-201", ScheduledAt: time.Now().Add(48 * time.Hour)}
	seedSchedule(t, db, &schedule)
	evaluation := models.StudentEvaluation{
		ScheduleID: schedule.ID,
		StudentID:  studentID,
		Answers:    answers,
		Status:     lifecycle.StatusPending,
	}
	require.NoError(t, db.Create(&evaluation).Error)
	return evaluation
}

func seedPanelistEvaluation(t *testing.T, db *gorm.DB, panelistID uint) models.PanelistEvaluation {
	t.Helper()
	schedule := models.DefenseSchedule{Title: "Defense", ScheduledAt: time.Now().Add(48 * time.Hour)}
	seedSchedule(t, db, &schedule)
	evaluation := models.PanelistEvaluation{
		ScheduleID: schedule.ID,
		PanelistID: panelistID,
		Status:     lifecycle.StatusPending,
	}
	require.NoError(t, db.Create(&evaluation).Error)
	return evaluation
}

func TestSubmitStudentRejectsIncompleteAnswers(t *testing.T) {
	db, service, events := setupEvaluationService(t)
	seedActiveSchema(t, db)
	evaluation := seedStudentEvaluation(t, db, 10, datatypes.JSONMap{"q1": 8})

	_, err := service.Submit(context.Background(), models.KindStudent, evaluation.ID, Actor{ID: 10, Role: models.RoleStudent})

	var validationErr *scoring.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, []string{"q2"}, validationErr.Missing)
	require.Empty(t, events.entries)

	var stored models.StudentEvaluation
	require.NoError(t, db.First(&stored, evaluation.ID).Error)
	require.Equal(t, lifecycle.StatusPending, stored.Status)
	require.Nil(t, stored.SubmittedAt)
}

func TestSubmitStudentStampsAndPinsSchema(t *testing.T) {
	db, service, events := setupEvaluationService(t)
	schema := seedActiveSchema(t, db)
	evaluation := seedStudentEvaluation(t, db, 11, datatypes.JSONMap{"q1": 8, "q2": 4})

	unified, err := service.Submit(context.Background(), models.KindStudent, evaluation.ID, Actor{ID: 11, Role: models.RoleStudent})
	require.NoError(t, err)
	require.Equal(t, lifecycle.StatusSubmitted, unified.Status)
	require.NotNil(t, unified.SubmittedAt)
	require.Equal(t, time.Date(2026, time.March, 9, 14, 0, 0, 0, time.UTC), *unified.SubmittedAt)

	var stored models.StudentEvaluation
	require.NoError(t, db.First(&stored, evaluation.ID).Error)
	require.NotNil(t, stored.FormSchemaID)
	require.Equal(t, schema.ID, *stored.FormSchemaID)

	require.Equal(t, []string{"evaluation.submitted"}, events.actions())
}

func TestSubmitTwiceFails(t *testing.T) {
	db, service, _ := setupEvaluationService(t)
	seedActiveSchema(t, db)
	evaluation := seedStudentEvaluation(t, db, 12, datatypes.JSONMap{"q1": 8, "q2": 4})
	actor := Actor{ID: 12, Role: models.RoleStudent}

	_, err := service.Submit(context.Background(), models.KindStudent, evaluation.ID, actor)
	require.NoError(t, err)

	_, err = service.Submit(context.Background(), models.KindStudent, evaluation.ID, actor)
	require.ErrorIs(t, err, lifecycle.ErrAlreadySubmitted)
	require.True(t, lifecycle.IsStateError(err))
}

func TestSubmitAfterLockFails(t *testing.T) {
	db, service, _ := setupEvaluationService(t)
	evaluation := seedPanelistEvaluation(t, db, 20)
	admin := Actor{ID: 1, Role: "admin"}

	_, err := service.Lock(context.Background(), models.KindPanelist, evaluation.ID, admin)
	require.NoError(t, err)

	_, err = service.Submit(context.Background(), models.KindPanelist, evaluation.ID, Actor{ID: 20, Role: models.RolePanelist})
	require.ErrorIs(t, err, lifecycle.ErrLocked)
}

func TestSubmitRejectsForeignEvaluation(t *testing.T) {
	db, service, _ := setupEvaluationService(t)
	evaluation := seedPanelistEvaluation(t, db, 20)

	_, err := service.Submit(context.Background(), models.KindPanelist, evaluation.ID, Actor{ID: 21, Role: models.RolePanelist})
	require.ErrorIs(t, err, ErrNotEvaluationOwner)
}

func TestLockIsIdempotent(t *testing.T) {
	db, service, events := setupEvaluationService(t)
	evaluation := seedPanelistEvaluation(t, db, 30)
	admin := Actor{ID: 1, Role: "admin"}

	first, err := service.Lock(context.Background(), models.KindPanelist, evaluation.ID, admin)
	require.NoError(t, err)
	require.Equal(t, lifecycle.StatusLocked, first.Status)
	require.NotNil(t, first.LockedAt)

	second, err := service.Lock(context.Background(), models.KindPanelist, evaluation.ID, admin)
	require.NoError(t, err)
	require.Equal(t, lifecycle.StatusLocked, second.Status)
	require.WithinDuration(t, *first.LockedAt, *second.LockedAt, time.Second)

	// only the state change is audited, not the no-op repeat
	require.Equal(t, []string{"evaluation.locked"}, events.actions())
}

func TestSetPendingReopensAndAudits(t *testing.T) {
	db, service, events := setupEvaluationService(t)
	seedActiveSchema(t, db)
	evaluation := seedStudentEvaluation(t, db, 13, datatypes.JSONMap{"q1": 8, "q2": 4})
	admin := Actor{ID: 5, Role: "admin"}

	_, err := service.Submit(context.Background(), models.KindStudent, evaluation.ID, Actor{ID: 13, Role: models.RoleStudent})
	require.NoError(t, err)
	_, err = service.Lock(context.Background(), models.KindStudent, evaluation.ID, admin)
	require.NoError(t, err)

	reopened, err := service.SetPending(context.Background(), models.KindStudent, evaluation.ID, admin)
	require.NoError(t, err)
	require.Equal(t, lifecycle.StatusPending, reopened.Status)
	require.Nil(t, reopened.SubmittedAt)
	require.Nil(t, reopened.LockedAt)

	last := events.entries[len(events.entries)-1]
	require.Equal(t, "evaluation.reopened", last.Action)
	require.Equal(t, admin.ID, last.ActorID)
	require.Equal(t, lifecycle.StatusLocked, last.Metadata["previous_status"])
}

func TestEditAnswersMergesAndSanitizes(t *testing.T) {
	db, service, events := setupEvaluationService(t)
	evaluation := seedStudentEvaluation(t, db, 14, datatypes.JSONMap{"q1": 3, "q3": "keep me"})

	unified, err := service.EditAnswers(context.Background(), evaluation.ID, dto.EditAnswersRequest{
		Answers: map[string]interface{}{
			"q2": 4,
			"q3": "<script>alert(1)</script>fine work",
		},
	}, Actor{ID: 14, Role: models.RoleStudent})
	require.NoError(t, err)
	require.Equal(t, lifecycle.StatusPending, unified.Status)

	var stored models.StudentEvaluation
	require.NoError(t, db.First(&stored, evaluation.ID).Error)
	require.EqualValues(t, 3, stored.Answers["q1"])
	require.EqualValues(t, 4, stored.Answers["q2"])
	require.Equal(t, "fine work", stored.Answers["q3"])

	require.Equal(t, []string{"evaluation.answers_updated"}, events.actions())
}

func TestEditAnswersRejectsNonOwnerAndClosedStates(t *testing.T) {
	db, service, _ := setupEvaluationService(t)
	seedActiveSchema(t, db)
	evaluation := seedStudentEvaluation(t, db, 15, datatypes.JSONMap{"q1": 8, "q2": 4})
	patch := dto.EditAnswersRequest{Answers: map[string]interface{}{"q1": 9}}

	_, err := service.EditAnswers(context.Background(), evaluation.ID, patch, Actor{ID: 99, Role: models.RoleStudent})
	require.ErrorIs(t, err, ErrNotEvaluationOwner)

	_, err = service.Submit(context.Background(), models.KindStudent, evaluation.ID, Actor{ID: 15, Role: models.RoleStudent})
	require.NoError(t, err)

	_, err = service.EditAnswers(context.Background(), evaluation.ID, patch, Actor{ID: 15, Role: models.RoleStudent})
	require.ErrorIs(t, err, lifecycle.ErrSubmitted)

	_, err = service.Lock(context.Background(), models.KindStudent, evaluation.ID, Actor{ID: 1, Role: "admin"})
	require.NoError(t, err)

	_, err = service.EditAnswers(context.Background(), evaluation.ID, patch, Actor{ID: 15, Role: models.RoleStudent})
	require.ErrorIs(t, err, lifecycle.ErrLocked)
}

func TestComputeScoreUsesPinnedSchema(t *testing.T) {
	db, service, _ := setupEvaluationService(t)
	schema := seedActiveSchema(t, db)
	evaluation := seedStudentEvaluation(t, db, 16, datatypes.JSONMap{"q1": 12, "q2": "not a number"})
	evaluation.FormSchemaID = &schema.ID
	require.NoError(t, db.Save(&evaluation).Error)

	summary, err := service.ComputeScore(context.Background(), evaluation.ID)
	require.NoError(t, err)

	// q1 clamps to 10, weighted x2 = 20; q2 is non-numeric so it only
	// contributes to the denominator.
	require.InDelta(t, 20.0, summary.TotalScore, 1e-9)
	require.InDelta(t, 25.0, summary.MaxScore, 1e-9)
	require.InDelta(t, 80.0, summary.Percentage, 1e-9)
	require.Nil(t, summary.Breakdown["q2"].Value)
}

func TestComputeScoreWithoutAnySchema(t *testing.T) {
	db, service, _ := setupEvaluationService(t)
	evaluation := seedStudentEvaluation(t, db, 17, datatypes.JSONMap{"q1": 4})

	summary, err := service.ComputeScore(context.Background(), evaluation.ID)
	require.NoError(t, err)
	require.Zero(t, summary.MaxScore)
	require.Zero(t, summary.Percentage)
}

func TestListMineReturnsOwnEvaluationsOnly(t *testing.T) {
	db, service, _ := setupEvaluationService(t)
	mine := seedStudentEvaluation(t, db, 18, nil)
	seedStudentEvaluation(t, db, 19, nil)

	items, err := service.ListMine(context.Background(), Actor{ID: 18, Role: models.RoleStudent})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, mine.ID, items[0].ID)
	require.Equal(t, models.KindStudent, items[0].Kind)
}

func TestLifecycleUnknownKind(t *testing.T) {
	_, service, _ := setupEvaluationService(t)

	_, err := service.Submit(context.Background(), "committee", 1, Actor{ID: 1, Role: "admin"})
	require.ErrorIs(t, err, ErrUnknownKind)
}
