package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/sidang-go-api/internal/models"
	"github.com/noah-isme/sidang-go-api/internal/scoring"
)

// FormSchemaCreateRequest carries a new form schema document. Sections
// is kept raw here; the service normalizes and validates it.
type FormSchemaCreateRequest struct {
	Title    string          `json:"title" validate:"required,min=3,max=255"`
	Sections json.RawMessage `json:"sections" validate:"required"`
}

// FormSchemaUpdateRequest patches an existing schema. Editing sections
// bumps the version.
type FormSchemaUpdateRequest struct {
	Title    *string         `json:"title" validate:"omitempty,min=3,max=255"`
	Sections json.RawMessage `json:"sections"`
}

// FormSchemaResponse serializes a schema with its normalized sections.
type FormSchemaResponse struct {
	ID        uint              `json:"id"`
	Version   int               `json:"version"`
	Title     string            `json:"title"`
	Sections  []scoring.Section `json:"sections"`
	IsActive  bool              `json:"is_active"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewFormSchemaResponse converts a FormSchema model into a DTO.
func NewFormSchemaResponse(model models.FormSchema) (FormSchemaResponse, error) {
	sections, err := scoring.ParseSections(model.Sections)
	if err != nil {
		return FormSchemaResponse{}, err
	}

	return FormSchemaResponse{
		ID:        model.ID,
		Version:   model.Version,
		Title:     model.Title,
		Sections:  sections,
		IsActive:  model.IsActive,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}, nil
}
