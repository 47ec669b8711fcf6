package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/sidang-go-api/internal/models"
)

// StudentEvaluationRepository defines persistence operations for
// student feedback evaluations. Create must surface a distinguishable
// duplicate error (see IsDuplicate) when the (schedule, student) pair
// exists.
type StudentEvaluationRepository interface {
	ListBySchedule(ctx context.Context, scheduleID uint) ([]models.StudentEvaluation, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.StudentEvaluation, error)
	List(ctx context.Context) ([]models.StudentEvaluation, error)
	GetByID(ctx context.Context, id uint) (models.StudentEvaluation, error)
	GetByTarget(ctx context.Context, scheduleID, studentID uint) (models.StudentEvaluation, error)
	Create(ctx context.Context, evaluation *models.StudentEvaluation) error
	Update(ctx context.Context, evaluation *models.StudentEvaluation) error
}

type studentEvaluationRepository struct {
	db *gorm.DB
}

// NewStudentEvaluationRepository instantiates a GORM-backed repository.
func NewStudentEvaluationRepository(db *gorm.DB) StudentEvaluationRepository {
	return &studentEvaluationRepository{db: db}
}

func (r *studentEvaluationRepository) ListBySchedule(ctx context.Context, scheduleID uint) ([]models.StudentEvaluation, error) {
	var evaluations []models.StudentEvaluation
	if err := r.db.WithContext(ctx).Where("schedule_id = ?", scheduleID).Find(&evaluations).Error; err != nil {
		return nil, err
	}
	return evaluations, nil
}

func (r *studentEvaluationRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.StudentEvaluation, error) {
	var evaluations []models.StudentEvaluation
	if err := r.db.WithContext(ctx).
		Preload("Schedule").
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&evaluations).Error; err != nil {
		return nil, err
	}
	return evaluations, nil
}

func (r *studentEvaluationRepository) List(ctx context.Context) ([]models.StudentEvaluation, error) {
	var evaluations []models.StudentEvaluation
	if err := r.db.WithContext(ctx).
		Preload("Schedule").
		Preload("Student").
		Order("created_at DESC").
		Find(&evaluations).Error; err != nil {
		return nil, err
	}
	return evaluations, nil
}

func (r *studentEvaluationRepository) GetByID(ctx context.Context, id uint) (models.StudentEvaluation, error) {
	var evaluation models.StudentEvaluation
	if err := r.db.WithContext(ctx).Preload("Schedule").First(&evaluation, id).Error; err != nil {
		return models.StudentEvaluation{}, err
	}
	return evaluation, nil
}

func (r *studentEvaluationRepository) GetByTarget(ctx context.Context, scheduleID, studentID uint) (models.StudentEvaluation, error) {
	var evaluation models.StudentEvaluation
	if err := r.db.WithContext(ctx).
		Where("schedule_id = ? AND student_id = ?", scheduleID, studentID).
		First(&evaluation).Error; err != nil {
		return models.StudentEvaluation{}, err
	}
	return evaluation, nil
}

func (r *studentEvaluationRepository) Create(ctx context.Context, evaluation *models.StudentEvaluation) error {
	return r.db.WithContext(ctx).Create(evaluation).Error
}

func (r *studentEvaluationRepository) Update(ctx context.Context, evaluation *models.StudentEvaluation) error {
	return r.db.WithContext(ctx).Save(evaluation).Error
}
