package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/sidang-go-api/internal/models"
)

// PanelistEvaluationRepository defines persistence operations for
// panelist evaluations. Create must surface a distinguishable duplicate
// error (see IsDuplicate) when the (schedule, panelist) pair exists.
type PanelistEvaluationRepository interface {
	ListBySchedule(ctx context.Context, scheduleID uint) ([]models.PanelistEvaluation, error)
	ListByPanelist(ctx context.Context, panelistID uint) ([]models.PanelistEvaluation, error)
	List(ctx context.Context) ([]models.PanelistEvaluation, error)
	GetByID(ctx context.Context, id uint) (models.PanelistEvaluation, error)
	GetByTarget(ctx context.Context, scheduleID, panelistID uint) (models.PanelistEvaluation, error)
	Create(ctx context.Context, evaluation *models.PanelistEvaluation) error
	Update(ctx context.Context, evaluation *models.PanelistEvaluation) error
}

type panelistEvaluationRepository struct {
	db *gorm.DB
}

// NewPanelistEvaluationRepository instantiates a GORM-backed repository.
func NewPanelistEvaluationRepository(db *gorm.DB) PanelistEvaluationRepository {
	return &panelistEvaluationRepository{db: db}
}

func (r *panelistEvaluationRepository) ListBySchedule(ctx context.Context, scheduleID uint) ([]models.PanelistEvaluation, error) {
	var evaluations []models.PanelistEvaluation
	if err := r.db.WithContext(ctx).Where("schedule_id = ?", scheduleID).Find(&evaluations).Error; err != nil {
		return nil, err
	}
	return evaluations, nil
}

func (r *panelistEvaluationRepository) ListByPanelist(ctx context.Context, panelistID uint) ([]models.PanelistEvaluation, error) {
	var evaluations []models.PanelistEvaluation
	if err := r.db.WithContext(ctx).
		Preload("Schedule").
		Where("panelist_id = ?", panelistID).
		Order("created_at DESC").
		Find(&evaluations).Error; err != nil {
		return nil, err
	}
	return evaluations, nil
}

func (r *panelistEvaluationRepository) List(ctx context.Context) ([]models.PanelistEvaluation, error) {
	var evaluations []models.PanelistEvaluation
	if err := r.db.WithContext(ctx).
		Preload("Schedule").
		Preload("Panelist").
		Order("created_at DESC").
		Find(&evaluations).Error; err != nil {
		return nil, err
	}
	return evaluations, nil
}

func (r *panelistEvaluationRepository) GetByID(ctx context.Context, id uint) (models.PanelistEvaluation, error) {
	var evaluation models.PanelistEvaluation
	if err := r.db.WithContext(ctx).Preload("Schedule").First(&evaluation, id).Error; err != nil {
		return models.PanelistEvaluation{}, err
	}
	return evaluation, nil
}

func (r *panelistEvaluationRepository) GetByTarget(ctx context.Context, scheduleID, panelistID uint) (models.PanelistEvaluation, error) {
	var evaluation models.PanelistEvaluation
	if err := r.db.WithContext(ctx).
		Where("schedule_id = ? AND panelist_id = ?", scheduleID, panelistID).
		First(&evaluation).Error; err != nil {
		return models.PanelistEvaluation{}, err
	}
	return evaluation, nil
}

func (r *panelistEvaluationRepository) Create(ctx context.Context, evaluation *models.PanelistEvaluation) error {
	return r.db.WithContext(ctx).Create(evaluation).Error
}

func (r *panelistEvaluationRepository) Update(ctx context.Context, evaluation *models.PanelistEvaluation) error {
	return r.db.WithContext(ctx).Save(evaluation).Error
}
