package models

import "time"

type GroupRole string

const (
	RoleOwner  GroupRole = "owner"
	RoleMember GroupRole = "member"
)

type GroupMember struct {
	GroupID  uint64    `gorm:"primarykey" json:"group_id"`
	UserID   uint64    `gorm:"primarykey" json:"user_id"`
	JoinedAt time.Time `gorm:"not null;index" json:"joined_at"`

	// Relations
	Group Group `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	User  User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// Resolves reports whether the member's user record was loaded and carries
// the fields needed to display it. Entries pointing at deleted users come
// back with a zero User when preloaded.
func (m GroupMember) Resolves() bool {
	return m.User.ID != 0 && m.User.ID == m.UserID && m.User.HasDisplayName()
}
