package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/sidang-go-api/internal/models"
)

// EvaluatorRepository provides read access to evaluator accounts.
type EvaluatorRepository interface {
	GetByID(ctx context.Context, id uint) (models.Evaluator, error)
	ListEligible(ctx context.Context, role string) ([]models.Evaluator, error)
	ListGroupMembers(ctx context.Context, groupID uint) ([]models.Evaluator, error)
}

type evaluatorRepository struct {
	db *gorm.DB
}

// NewEvaluatorRepository instantiates a GORM-backed repository.
func NewEvaluatorRepository(db *gorm.DB) EvaluatorRepository {
	return &evaluatorRepository{db: db}
}

func (r *evaluatorRepository) GetByID(ctx context.Context, id uint) (models.Evaluator, error) {
	var evaluator models.Evaluator
	if err := r.db.WithContext(ctx).First(&evaluator, id).Error; err != nil {
		return models.Evaluator{}, err
	}
	return evaluator, nil
}

func (r *evaluatorRepository) ListEligible(ctx context.Context, role string) ([]models.Evaluator, error) {
	var evaluators []models.Evaluator
	if err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Where("status NOT IN ?", models.DisabledStatuses()).
		Order("id ASC").
		Find(&evaluators).Error; err != nil {
		return nil, err
	}
	return evaluators, nil
}

func (r *evaluatorRepository) ListGroupMembers(ctx context.Context, groupID uint) ([]models.Evaluator, error) {
	var evaluators []models.Evaluator
	if err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("id ASC").
		Find(&evaluators).Error; err != nil {
		return nil, err
	}
	return evaluators, nil
}
