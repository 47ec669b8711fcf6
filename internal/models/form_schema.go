package models

import (
	"time"

	"gorm.io/datatypes"
)

// FormSchema is a versioned feedback form definition. Sections holds the
// raw JSON document (sections -> questions); the scoring engine
// normalizes it before interpreting. At most one schema is active at a
// time; activation deactivates all others.
type FormSchema struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Version   int            `gorm:"not null;default:1" json:"version"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	Sections  datatypes.JSON `gorm:"type:jsonb" json:"sections"`
	IsActive  bool           `gorm:"index;not null;default:false" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
