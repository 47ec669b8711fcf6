package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/sidang-go-api/internal/models"
	"github.com/noah-isme/sidang-go-api/internal/repository"
)

// Actor identifies the authenticated caller performing an operation.
// It always arrives as a parameter; services never resolve identity
// themselves.
type Actor struct {
	ID   uint
	Role string
}

// EventEntry describes one auditable evaluation event.
type EventEntry struct {
	ActorID      uint                   `validate:"required"`
	ActorRole    string                 `validate:"required"`
	Action       string                 `validate:"required"`
	Kind         string                 `validate:"required,oneof=panelist student"`
	EvaluationID uint                   `validate:"required"`
	Metadata     map[string]interface{} `validate:"-"`
}

// EventRecorder persists evaluation events and fans them out to
// interested consumers. Recording failures are logged, never fatal to
// the operation being audited.
type EventRecorder interface {
	Record(ctx context.Context, entry EventEntry) (models.EvaluationEvent, error)
}

type eventRecorder struct {
	repo      repository.EvaluationEventRepository
	nats      *nats.Conn
	subject   string
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

type evaluationEventMessage struct {
	Action       string                 `json:"action"`
	Kind         string                 `json:"kind"`
	EvaluationID uint                   `json:"evaluation_id"`
	ActorID      uint                   `json:"actor_id"`
	ActorRole    string                 `json:"actor_role"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	SentAt       time.Time              `json:"sent_at"`
}

// NewEventRecorder constructs the audit recorder. natsConn may be nil;
// events are then persisted without fan-out.
func NewEventRecorder(repo repository.EvaluationEventRepository, natsConn *nats.Conn, subject string, validate *validator.Validate, logger zerolog.Logger) EventRecorder {
	return &eventRecorder{
		repo:      repo,
		nats:      natsConn,
		subject:   subject,
		validator: validate,
		logger:    logger.With().Str("component", "event_recorder").Logger(),
		now:       time.Now,
	}
}

func (r *eventRecorder) Record(ctx context.Context, entry EventEntry) (models.EvaluationEvent, error) {
	if err := r.validator.Struct(entry); err != nil {
		return models.EvaluationEvent{}, err
	}

	event := models.EvaluationEvent{
		ActorID:      entry.ActorID,
		ActorRole:    entry.ActorRole,
		Action:       entry.Action,
		Kind:         entry.Kind,
		EvaluationID: entry.EvaluationID,
		Metadata:     datatypes.JSONMap(entry.Metadata),
	}

	if err := r.repo.Create(ctx, &event); err != nil {
		return models.EvaluationEvent{}, err
	}

	r.publish(event)

	return event, nil
}

func (r *eventRecorder) publish(event models.EvaluationEvent) {
	if r.nats == nil || r.subject == "" {
		return
	}

	payload, err := json.Marshal(evaluationEventMessage{
		Action:       event.Action,
		Kind:         event.Kind,
		EvaluationID: event.EvaluationID,
		ActorID:      event.ActorID,
		ActorRole:    event.ActorRole,
		Metadata:     map[string]interface{}(event.Metadata),
		SentAt:       r.now().UTC(),
	})
	if err != nil {
		r.logger.Warn().Err(err).Msg("failed to encode evaluation event")
		return
	}

	if err := r.nats.Publish(r.subject, payload); err != nil {
		r.logger.Warn().Err(err).Str("subject", r.subject).Msg("failed to publish evaluation event")
	}
}
