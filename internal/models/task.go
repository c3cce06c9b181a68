package models

import (
	"time"

	"gorm.io/gorm"
)

type Recurrence string

const (
	RecurrenceOneTime  Recurrence = "one-time"
	RecurrenceDaily    Recurrence = "daily"
	RecurrenceWeekly   Recurrence = "weekly"
	RecurrenceBiWeekly Recurrence = "bi-weekly"
	RecurrenceMonthly  Recurrence = "monthly"
)

// IsValid reports whether r is one of the known recurrence rules.
func (r Recurrence) IsValid() bool {
	switch r {
	case RecurrenceOneTime, RecurrenceDaily, RecurrenceWeekly, RecurrenceBiWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

// IsRecurring is true for every rule except one-time.
func (r Recurrence) IsRecurring() bool {
	return r != RecurrenceOneTime
}

const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

type Task struct {
	ID          uint64     `gorm:"primarykey" json:"id"`
	GroupID     uint64     `gorm:"not null;index" json:"group_id"`
	Name        string     `gorm:"not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	Difficulty  int        `gorm:"not null;default:1" json:"difficulty"`
	Recurrence  Recurrence `gorm:"type:varchar(20);not null;default:'weekly'" json:"recurrence"`
	// RequiredPeople is nullable: rows written before the column existed
	// have no value and are read as 1.
	RequiredPeople *int           `json:"required_people"`
	Deadline       *time.Time     `json:"deadline"`
	CreatedBy      uint64         `gorm:"not null;index" json:"created_by"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Creator     User             `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Group       Group            `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	Assignments []TaskAssignment `gorm:"foreignKey:TaskID" json:"assignments,omitempty"`
}

// EffectiveRequiredPeople returns the number of members the task needs per
// week, falling back to 1 for legacy rows.
func (t Task) EffectiveRequiredPeople() int {
	if t.RequiredPeople == nil || *t.RequiredPeople < 1 {
		return 1
	}
	return *t.RequiredPeople
}

// EffectiveDifficulty clamps the stored difficulty into the valid range.
func (t Task) EffectiveDifficulty() int {
	switch {
	case t.Difficulty < MinDifficulty:
		return MinDifficulty
	case t.Difficulty > MaxDifficulty:
		return MaxDifficulty
	}
	return t.Difficulty
}
