package models

import "time"

// Evaluator roles recognised by the assignment engine.
const (
	RolePanelist = "panelist"
	RoleStudent  = "student"
)

// Evaluator is a person who can be assigned evaluation work: a panel
// member scoring a defense, or a student giving feedback about one.
type Evaluator struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role      string    `gorm:"size:32;not null;index" json:"role"`
	Status    string    `gorm:"size:32;not null;default:active" json:"status"`
	GroupID   *uint     `gorm:"index" json:"group_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// disabledStatuses are account states excluded from bulk assignment.
var disabledStatuses = map[string]struct{}{
	"inactive":  {},
	"disabled":  {},
	"blocked":   {},
	"archived":  {},
	"suspended": {},
}

// IsAssignable reports whether the evaluator may receive new work.
func (e Evaluator) IsAssignable() bool {
	_, disabled := disabledStatuses[e.Status]
	return !disabled
}

// DisabledStatuses returns the account states excluded from assignment.
func DisabledStatuses() []string {
	out := make([]string, 0, len(disabledStatuses))
	for status := range disabledStatuses {
		out = append(out, status)
	}
	return out
}
