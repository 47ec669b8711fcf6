package service

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/sidang-go-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type stubEventRecorder struct {
	entries []EventEntry
}

func (s *stubEventRecorder) Record(_ context.Context, entry EventEntry) (models.EvaluationEvent, error) {
	s.entries = append(s.entries, entry)
	return models.EvaluationEvent{
		ActorID:      entry.ActorID,
		ActorRole:    entry.ActorRole,
		Action:       entry.Action,
		Kind:         entry.Kind,
		EvaluationID: entry.EvaluationID,
	}, nil
}

func (s *stubEventRecorder) actions() []string {
	actions := make([]string, 0, len(s.entries))
	for _, entry := range s.entries {
		actions = append(actions, entry.Action)
	}
	return actions
}

func setupServiceDB(t *testing.T, name string) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Evaluator{},
		&models.StudentGroup{},
		&models.DefenseSchedule{},
		&models.PanelistEvaluation{},
		&models.StudentEvaluation{},
		&models.FormSchema{},
		&models.EvaluationEvent{},
	))
	return db
}

func seedSchedule(t *testing.T, db *gorm.DB, schedule *models.DefenseSchedule) {
	t.Helper()
	require.NoError(t, db.Create(schedule).Error)
}

func seedEvaluator(t *testing.T, db *gorm.DB, evaluator *models.Evaluator) {
	t.Helper()
	require.NoError(t, db.Create(evaluator).Error)
}
