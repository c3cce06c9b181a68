package models

import (
	"time"
)

type AssignmentStatus string

const (
	AssignmentIncomplete AssignmentStatus = "incomplete"
	AssignmentInProgress AssignmentStatus = "in-progress"
	AssignmentCompleted  AssignmentStatus = "completed"
)

func (s AssignmentStatus) IsValid() bool {
	switch s {
	case AssignmentIncomplete, AssignmentInProgress, AssignmentCompleted:
		return true
	}
	return false
}

// TaskAssignment binds a member to a task. WeekStart keys obligations of
// recurring tasks and is nil for one-time tasks.
type TaskAssignment struct {
	ID        uint64           `gorm:"primarykey" json:"id"`
	TaskID    uint64           `gorm:"not null;uniqueIndex:idx_assignment_task_user_week" json:"task_id"`
	UserID    uint64           `gorm:"not null;uniqueIndex:idx_assignment_task_user_week;index" json:"user_id"`
	WeekStart *time.Time       `gorm:"uniqueIndex:idx_assignment_task_user_week;index" json:"week_start"`
	Status    AssignmentStatus `gorm:"type:varchar(20);not null;default:'incomplete'" json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`

	// Relations
	Task Task `gorm:"foreignKey:TaskID" json:"-"`
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// InWeek reports whether the assignment obligates the week starting at weekStart.
func (a TaskAssignment) InWeek(weekStart time.Time) bool {
	return a.WeekStart != nil && a.WeekStart.Equal(weekStart)
}
