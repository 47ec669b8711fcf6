package models

import (
	"time"

	"gorm.io/datatypes"
)

// EvaluationEvent is an audit record of who did what to which
// evaluation. Administrative overrides (set-pending) are recorded here
// with the acting admin so re-opened work stays attributable.
type EvaluationEvent struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	ActorID      uint              `gorm:"index" json:"actor_id"`
	ActorRole    string            `gorm:"size:32" json:"actor_role"`
	Action       string            `gorm:"size:64;not null;index" json:"action"`
	Kind         string            `gorm:"size:16;not null" json:"kind"`
	EvaluationID uint              `gorm:"not null;index" json:"evaluation_id"`
	Metadata     datatypes.JSONMap `json:"metadata"`
	CreatedAt    time.Time         `json:"created_at"`
}
