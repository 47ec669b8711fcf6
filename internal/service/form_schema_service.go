package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/sidang-go-api/internal/dto"
	"github.com/noah-isme/sidang-go-api/internal/models"
	"github.com/noah-isme/sidang-go-api/internal/repository"
	"github.com/noah-isme/sidang-go-api/internal/scoring"
)

// ErrSchemaNotFound indicates the form schema does not exist.
var ErrSchemaNotFound = errors.New("form schema not found")

// ErrSchemaInvalid indicates the sections document failed validation.
var ErrSchemaInvalid = errors.New("form schema sections are invalid")

// ErrSchemaNoQuestions indicates the sections document contains no
// usable questions after normalization.
var ErrSchemaNoQuestions = errors.New("form schema contains no questions")

// FormSchemaService manages the versioned feedback form schemas that
// drive student evaluation scoring.
type FormSchemaService interface {
	List(ctx context.Context) ([]dto.FormSchemaResponse, error)
	Get(ctx context.Context, id uint) (dto.FormSchemaResponse, error)
	GetActive(ctx context.Context) (dto.FormSchemaResponse, error)
	Create(ctx context.Context, payload dto.FormSchemaCreateRequest) (dto.FormSchemaResponse, error)
	Update(ctx context.Context, id uint, payload dto.FormSchemaUpdateRequest) (dto.FormSchemaResponse, error)
	Activate(ctx context.Context, id uint, actor Actor) (dto.FormSchemaResponse, error)
}

type formSchemaService struct {
	schemas   repository.FormSchemaRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewFormSchemaService constructs the schema management service.
func NewFormSchemaService(schemas repository.FormSchemaRepository, validate *validator.Validate, logger zerolog.Logger) FormSchemaService {
	return &formSchemaService{
		schemas:   schemas,
		validator: validate,
		logger:    logger.With().Str("component", "form_schema_service").Logger(),
	}
}

func (s *formSchemaService) List(ctx context.Context) ([]dto.FormSchemaResponse, error) {
	schemas, err := s.schemas.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.FormSchemaResponse, 0, len(schemas))
	for _, schema := range schemas {
		response, err := dto.NewFormSchemaResponse(schema)
		if err != nil {
			return nil, err
		}
		responses = append(responses, response)
	}
	return responses, nil
}

func (s *formSchemaService) Get(ctx context.Context, id uint) (dto.FormSchemaResponse, error) {
	schema, err := s.schemas.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.FormSchemaResponse{}, ErrSchemaNotFound
		}
		return dto.FormSchemaResponse{}, err
	}
	return dto.NewFormSchemaResponse(schema)
}

func (s *formSchemaService) GetActive(ctx context.Context) (dto.FormSchemaResponse, error) {
	schema, err := s.schemas.GetActive(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.FormSchemaResponse{}, ErrSchemaNotFound
		}
		return dto.FormSchemaResponse{}, err
	}
	return dto.NewFormSchemaResponse(schema)
}

func (s *formSchemaService) Create(ctx context.Context, payload dto.FormSchemaCreateRequest) (dto.FormSchemaResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.FormSchemaResponse{}, err
	}

	sections, err := s.normalizeSections(payload.Sections)
	if err != nil {
		return dto.FormSchemaResponse{}, err
	}

	schema := models.FormSchema{
		Version:  1,
		Title:    payload.Title,
		Sections: datatypes.JSON(sections),
	}
	if err := s.schemas.Create(ctx, &schema); err != nil {
		return dto.FormSchemaResponse{}, err
	}

	s.logger.Info().Uint("schema_id", schema.ID).Str("title", schema.Title).Msg("form schema created")
	return dto.NewFormSchemaResponse(schema)
}

// Update patches title and sections. A sections change bumps the
// version: evaluations pinned to the old document keep scoring against
// it, so an edited document must be distinguishable.
func (s *formSchemaService) Update(ctx context.Context, id uint, payload dto.FormSchemaUpdateRequest) (dto.FormSchemaResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.FormSchemaResponse{}, err
	}

	schema, err := s.schemas.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.FormSchemaResponse{}, ErrSchemaNotFound
		}
		return dto.FormSchemaResponse{}, err
	}

	if payload.Title != nil {
		schema.Title = *payload.Title
	}
	if len(payload.Sections) > 0 {
		sections, err := s.normalizeSections(payload.Sections)
		if err != nil {
			return dto.FormSchemaResponse{}, err
		}
		schema.Sections = datatypes.JSON(sections)
		schema.Version++
	}

	if err := s.schemas.Update(ctx, &schema); err != nil {
		return dto.FormSchemaResponse{}, err
	}

	return dto.NewFormSchemaResponse(schema)
}

func (s *formSchemaService) Activate(ctx context.Context, id uint, actor Actor) (dto.FormSchemaResponse, error) {
	schema, err := s.schemas.Activate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.FormSchemaResponse{}, ErrSchemaNotFound
		}
		return dto.FormSchemaResponse{}, err
	}

	s.logger.Info().
		Uint("schema_id", schema.ID).
		Int("version", schema.Version).
		Uint("actor_id", actor.ID).
		Msg("form schema activated")

	return dto.NewFormSchemaResponse(schema)
}

// normalizeSections parses, validates, and re-encodes the raw sections
// document so the stored form is always canonical.
func (s *formSchemaService) normalizeSections(raw []byte) ([]byte, error) {
	sections, err := scoring.ParseSections(raw)
	if err != nil {
		return nil, ErrSchemaInvalid
	}

	questions := 0
	for _, section := range sections {
		questions += len(section.Questions)
	}
	if questions == 0 {
		return nil, ErrSchemaNoQuestions
	}

	return scoring.EncodeSections(sections)
}
