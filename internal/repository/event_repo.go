package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/sidang-go-api/internal/models"
)

// EvaluationEventFilter narrows event listings.
type EvaluationEventFilter struct {
	Kind         string
	EvaluationID *uint
	Limit        int
}

// EvaluationEventRepository persists the evaluation audit trail.
type EvaluationEventRepository interface {
	Create(ctx context.Context, event *models.EvaluationEvent) error
	List(ctx context.Context, filter EvaluationEventFilter) ([]models.EvaluationEvent, error)
}

type evaluationEventRepository struct {
	db *gorm.DB
}

// NewEvaluationEventRepository instantiates a GORM-backed repository.
func NewEvaluationEventRepository(db *gorm.DB) EvaluationEventRepository {
	return &evaluationEventRepository{db: db}
}

func (r *evaluationEventRepository) Create(ctx context.Context, event *models.EvaluationEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *evaluationEventRepository) List(ctx context.Context, filter EvaluationEventFilter) ([]models.EvaluationEvent, error) {
	query := r.db.WithContext(ctx).Model(&models.EvaluationEvent{})
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.EvaluationID != nil {
		query = query.Where("evaluation_id = ?", *filter.EvaluationID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var events []models.EvaluationEvent
	if err := query.Order("created_at DESC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
