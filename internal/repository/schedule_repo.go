package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/sidang-go-api/internal/models"
)

// ScheduleRepository provides read access to defense schedules and
// student groups for assignment targeting and display enrichment.
type ScheduleRepository interface {
	GetByID(ctx context.Context, id uint) (models.DefenseSchedule, error)
	List(ctx context.Context) ([]models.DefenseSchedule, error)
	GetGroupByID(ctx context.Context, id uint) (models.StudentGroup, error)
}

type scheduleRepository struct {
	db *gorm.DB
}

// NewScheduleRepository instantiates a GORM-backed repository.
func NewScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) GetByID(ctx context.Context, id uint) (models.DefenseSchedule, error) {
	var schedule models.DefenseSchedule
	if err := r.db.WithContext(ctx).First(&schedule, id).Error; err != nil {
		return models.DefenseSchedule{}, err
	}
	return schedule, nil
}

func (r *scheduleRepository) List(ctx context.Context) ([]models.DefenseSchedule, error) {
	var schedules []models.DefenseSchedule
	if err := r.db.WithContext(ctx).Order("scheduled_at DESC").Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *scheduleRepository) GetGroupByID(ctx context.Context, id uint) (models.StudentGroup, error) {
	var group models.StudentGroup
	if err := r.db.WithContext(ctx).First(&group, id).Error; err != nil {
		return models.StudentGroup{}, err
	}
	return group, nil
}
