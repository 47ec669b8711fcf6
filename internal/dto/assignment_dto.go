package dto

// Assignment outcomes. The three non-trivial outcomes of a bulk call
// (full success, partial success, total failure) plus nothing-to-do are
// observably different to the caller.
const (
	AssignmentOutcomeCreated = "created"
	AssignmentOutcomePartial = "partial"
	AssignmentOutcomeFailed  = "failed"
	AssignmentOutcomeNoop    = "noop"
)

// AssignParticularRequest targets one evaluator for one schedule.
type AssignParticularRequest struct {
	ScheduleID  uint   `json:"schedule_id" validate:"required,gt=0"`
	EvaluatorID uint   `json:"evaluator_id" validate:"required,gt=0"`
	Role        string `json:"role" validate:"required,oneof=panelist student"`
}

// AssignAllRequest targets every eligible evaluator of a role.
type AssignAllRequest struct {
	ScheduleID uint   `json:"schedule_id" validate:"required,gt=0"`
	Role       string `json:"role" validate:"required,oneof=panelist student"`
}

// AssignmentFailure reports one target that could not be assigned.
type AssignmentFailure struct {
	EvaluatorID uint   `json:"evaluator_id"`
	Reason      string `json:"reason"`
}

// AssignmentResult is the ephemeral report of a bulk assignment call.
// It is never persisted.
type AssignmentResult struct {
	Outcome       string              `json:"outcome"`
	Message       string              `json:"message"`
	TargetedIDs   []uint              `json:"targeted_ids"`
	Created       []UnifiedEvaluation `json:"created"`
	CreatedCount  int                 `json:"created_count"`
	ExistingCount int                 `json:"existing_count"`
	Failures      []AssignmentFailure `json:"failures"`
}
