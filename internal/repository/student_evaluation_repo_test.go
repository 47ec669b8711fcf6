package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/sidang-go-api/internal/models"
	"github.com/noah-isme/sidang-go-api/internal/repository"
)

func setupRepoDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.StudentGroup{},
		&models.Evaluator{},
		&models.DefenseSchedule{},
		&models.PanelistEvaluation{},
		&models.StudentEvaluation{},
	))

	return db
}

func TestStudentEvaluationUniqueTarget(t *testing.T) {
	db := setupRepoDB(t)
	ctx := context.Background()

	student := models.Evaluator{Name: "Ayu", Email: "ayu@example.com", Role: models.RoleStudent, Status: "active"}
	require.NoError(t, db.Create(&student).Error)
	schedule := models.DefenseSchedule{Title: "Session A", ScheduledAt: time.Now()}
	require.NoError(t, db.Create(&schedule).Error)

	repo := repository.NewStudentEvaluationRepository(db)

	first := models.StudentEvaluation{ScheduleID: schedule.ID, StudentID: student.ID, Status: "pending"}
	require.NoError(t, repo.Create(ctx, &first))

	second := models.StudentEvaluation{ScheduleID: schedule.ID, StudentID: student.ID, Status: "pending"}
	err := repo.Create(ctx, &second)
	require.Error(t, err)
	require.True(t, repository.IsDuplicate(err))

	existing, err := repo.GetByTarget(ctx, schedule.ID, student.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, existing.ID)
}

func TestPanelistAndStudentTargetsAreIndependent(t *testing.T) {
	db := setupRepoDB(t)
	ctx := context.Background()

	panelist := models.Evaluator{Name: "Dr. Sari", Email: "sari@example.com", Role: models.RolePanelist, Status: "active"}
	require.NoError(t, db.Create(&panelist).Error)
	schedule := models.DefenseSchedule{Title: "Session B", ScheduledAt: time.Now()}
	require.NoError(t, db.Create(&schedule).Error)

	panelistRepo := repository.NewPanelistEvaluationRepository(db)
	studentRepo := repository.NewStudentEvaluationRepository(db)

	require.NoError(t, panelistRepo.Create(ctx, &models.PanelistEvaluation{
		ScheduleID: schedule.ID, PanelistID: panelist.ID, Status: "pending",
	}))
	require.NoError(t, studentRepo.Create(ctx, &models.StudentEvaluation{
		ScheduleID: schedule.ID, StudentID: panelist.ID, Status: "pending",
	}))
}

func TestListEligibleFiltersDisabledAccounts(t *testing.T) {
	db := setupRepoDB(t)
	ctx := context.Background()

	seed := []models.Evaluator{
		{Name: "Active", Email: "a@example.com", Role: models.RolePanelist, Status: "active"},
		{Name: "Suspended", Email: "b@example.com", Role: models.RolePanelist, Status: "suspended"},
		{Name: "Archived", Email: "c@example.com", Role: models.RolePanelist, Status: "archived"},
		{Name: "Student", Email: "d@example.com", Role: models.RoleStudent, Status: "active"},
	}
	for i := range seed {
		require.NoError(t, db.Create(&seed[i]).Error)
	}

	repo := repository.NewEvaluatorRepository(db)
	eligible, err := repo.ListEligible(ctx, models.RolePanelist)
	require.NoError(t, err)
	require.Len(t, eligible, 1)
	require.Equal(t, "Active", eligible[0].Name)
}
