package dto

import (
	"strconv"
	"time"

	"github.com/noah-isme/sidang-go-api/internal/models"
)

// Flow labels surfaced to clients and matched by free-text search.
const (
	FlowLabelPanelist = "panelist evaluation"
	FlowLabelStudent  = "student evaluation"
)

// UnifiedEvaluation is the single logical evaluation shape composed
// from the two physical record kinds. Identity is (kind, id); the same
// numeric id may appear once per kind.
type UnifiedEvaluation struct {
	Kind         string     `json:"kind"`
	ID           uint       `json:"id"`
	ScheduleID   uint       `json:"schedule_id"`
	EvaluatorID  uint       `json:"evaluator_id"`
	AssigneeRole string     `json:"assignee_role"`
	Status       string     `json:"status"`
	SubmittedAt  *time.Time `json:"submitted_at"`
	LockedAt     *time.Time `json:"locked_at"`
	CreatedAt    time.Time  `json:"created_at"`

	// Display enrichment resolved from collaborators.
	GroupName     string     `json:"group_name,omitempty"`
	ScheduleDate  *time.Time `json:"schedule_date,omitempty"`
	Room          string     `json:"room,omitempty"`
	EvaluatorName string     `json:"evaluator_name,omitempty"`
	FlowLabel     string     `json:"flow_label"`
}

// Key returns the dedupe identity of the record.
func (e UnifiedEvaluation) Key() string {
	return e.Kind + ":" + strconv.FormatUint(uint64(e.ID), 10)
}

// NewUnifiedFromPanelist adapts a panelist evaluation into the unified shape.
func NewUnifiedFromPanelist(model models.PanelistEvaluation) UnifiedEvaluation {
	unified := UnifiedEvaluation{
		Kind:         models.KindPanelist,
		ID:           model.ID,
		ScheduleID:   model.ScheduleID,
		EvaluatorID:  model.PanelistID,
		AssigneeRole: models.RolePanelist,
		Status:       model.Status,
		SubmittedAt:  model.SubmittedAt,
		LockedAt:     model.LockedAt,
		CreatedAt:    model.CreatedAt,
		FlowLabel:    FlowLabelPanelist,
	}
	if model.Schedule.ID != 0 {
		scheduleDate := model.Schedule.ScheduledAt
		unified.ScheduleDate = &scheduleDate
		unified.Room = model.Schedule.Room
		unified.GroupName = model.Schedule.GroupTitle
	}
	if model.Panelist.ID != 0 {
		unified.EvaluatorName = model.Panelist.Name
	}
	return unified
}

// NewUnifiedFromStudent adapts a student feedback evaluation into the
// unified shape.
func NewUnifiedFromStudent(model models.StudentEvaluation) UnifiedEvaluation {
	unified := UnifiedEvaluation{
		Kind:         models.KindStudent,
		ID:           model.ID,
		ScheduleID:   model.ScheduleID,
		EvaluatorID:  model.StudentID,
		AssigneeRole: models.RoleStudent,
		Status:       model.Status,
		SubmittedAt:  model.SubmittedAt,
		LockedAt:     model.LockedAt,
		CreatedAt:    model.CreatedAt,
		FlowLabel:    FlowLabelStudent,
	}
	if model.Schedule.ID != 0 {
		scheduleDate := model.Schedule.ScheduledAt
		unified.ScheduleDate = &scheduleDate
		unified.Room = model.Schedule.Room
		unified.GroupName = model.Schedule.GroupTitle
	}
	if model.Student.ID != 0 {
		unified.EvaluatorName = model.Student.Name
	}
	return unified
}

// EditAnswersRequest carries a shallow answers patch for a pending
// student evaluation.
type EditAnswersRequest struct {
	Answers map[string]interface{} `json:"answers" validate:"required,min=1"`
}
