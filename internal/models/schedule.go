package models

import "time"

// StudentGroup is a cohort of students defending in the same session block.
type StudentGroup struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefenseSchedule is a scheduled thesis-defense session that evaluations
// are assigned against.
type DefenseSchedule struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255" json:"title"`
	GroupID     *uint     `gorm:"index" json:"group_id"`
	GroupTitle  string    `gorm:"size:255" json:"group_title"`
	Room        string    `gorm:"size:64" json:"room"`
	ScheduledAt time.Time `gorm:"index" json:"scheduled_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
