package models

import (
	"time"

	"gorm.io/datatypes"
)

// Evaluation kinds. Kind is part of a record's identity: a panelist
// evaluation and a student evaluation may share a numeric id.
const (
	KindPanelist = "panelist"
	KindStudent  = "student"
)

// PanelistEvaluation is a panel member's rubric evaluation of one
// defense session. At most one exists per (schedule, panelist); the
// composite unique index is the backstop for concurrent assignment.
type PanelistEvaluation struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ScheduleID  uint       `gorm:"not null;uniqueIndex:idx_panelist_eval_target" json:"schedule_id"`
	PanelistID  uint       `gorm:"not null;uniqueIndex:idx_panelist_eval_target" json:"panelist_id"`
	Status      string     `gorm:"size:32;not null;default:pending" json:"status"`
	SubmittedAt *time.Time `json:"submitted_at"`
	LockedAt    *time.Time `json:"locked_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Schedule DefenseSchedule `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"schedule"`
	Panelist Evaluator       `gorm:"foreignKey:PanelistID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"panelist"`
}

// StudentEvaluation is a student's structured feedback about a defense,
// answered against the form schema active at submission time. Answers
// are a flat question-id to value map and are mutable only while the
// record is pending.
type StudentEvaluation struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	ScheduleID   uint              `gorm:"not null;uniqueIndex:idx_student_eval_target" json:"schedule_id"`
	StudentID    uint              `gorm:"not null;uniqueIndex:idx_student_eval_target" json:"student_id"`
	FormSchemaID *uint             `gorm:"index" json:"form_schema_id"`
	Answers      datatypes.JSONMap `json:"answers"`
	Status       string            `gorm:"size:32;not null;default:pending" json:"status"`
	SubmittedAt  *time.Time        `json:"submitted_at"`
	LockedAt     *time.Time        `json:"locked_at"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`

	Schedule DefenseSchedule `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"schedule"`
	Student  Evaluator       `gorm:"foreignKey:StudentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
}
