package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/sidang-go-api/internal/models"
)

// FormSchemaRepository defines persistence operations for feedback form
// schemas. Activate must leave at most one schema active.
type FormSchemaRepository interface {
	List(ctx context.Context) ([]models.FormSchema, error)
	GetByID(ctx context.Context, id uint) (models.FormSchema, error)
	GetActive(ctx context.Context) (models.FormSchema, error)
	Create(ctx context.Context, schema *models.FormSchema) error
	Update(ctx context.Context, schema *models.FormSchema) error
	Activate(ctx context.Context, id uint) (models.FormSchema, error)
}

type formSchemaRepository struct {
	db *gorm.DB
}

// NewFormSchemaRepository instantiates a GORM-backed repository.
func NewFormSchemaRepository(db *gorm.DB) FormSchemaRepository {
	return &formSchemaRepository{db: db}
}

func (r *formSchemaRepository) List(ctx context.Context) ([]models.FormSchema, error) {
	var schemas []models.FormSchema
	if err := r.db.WithContext(ctx).Order("version DESC, id DESC").Find(&schemas).Error; err != nil {
		return nil, err
	}
	return schemas, nil
}

func (r *formSchemaRepository) GetByID(ctx context.Context, id uint) (models.FormSchema, error) {
	var schema models.FormSchema
	if err := r.db.WithContext(ctx).First(&schema, id).Error; err != nil {
		return models.FormSchema{}, err
	}
	return schema, nil
}

func (r *formSchemaRepository) GetActive(ctx context.Context) (models.FormSchema, error) {
	var schema models.FormSchema
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("version DESC").First(&schema).Error; err != nil {
		return models.FormSchema{}, err
	}
	return schema, nil
}

func (r *formSchemaRepository) Create(ctx context.Context, schema *models.FormSchema) error {
	return r.db.WithContext(ctx).Create(schema).Error
}

func (r *formSchemaRepository) Update(ctx context.Context, schema *models.FormSchema) error {
	return r.db.WithContext(ctx).Save(schema).Error
}

// Activate flips the single-active flag inside one transaction so a
// failed activation never leaves zero or two active schemas behind.
func (r *formSchemaRepository) Activate(ctx context.Context, id uint) (models.FormSchema, error) {
	var schema models.FormSchema
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&schema, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.FormSchema{}).
			Where("is_active = ? AND id <> ?", true, id).
			Update("is_active", false).Error; err != nil {
			return err
		}
		schema.IsActive = true
		return tx.Save(&schema).Error
	})
	if err != nil {
		return models.FormSchema{}, err
	}
	return schema, nil
}
