package models

import (
	"time"
)

type Group struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	JoinCode  string    `gorm:"type:varchar(8);uniqueIndex;not null" json:"join_code"`
	OwnerID   uint64    `gorm:"not null;index" json:"owner_id"`
	Revision  uint64    `gorm:"not null;default:0" json:"revision"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Members []GroupMember `gorm:"foreignKey:GroupID" json:"members,omitempty"`
	Tasks   []Task        `gorm:"foreignKey:GroupID" json:"tasks,omitempty"`
}

// TableName avoids GROUPS, a reserved word in MySQL 8.
func (Group) TableName() string {
	return "roommate_groups"
}
