package dto

import (
	"time"

	"github.com/yukikurage/roommates-api/internal/models"
)

// GroupMemberDTO represents a member in a group
type GroupMemberDTO struct {
	User     UserDTO          `json:"user"`
	Role     models.GroupRole `json:"role"`
	JoinedAt time.Time        `json:"joined_at"`
}

// GroupDetailDTO represents the repaired view of a group. Owner is a
// placeholder with ID 0 when Degraded is set.
type GroupDetailDTO struct {
	GroupDTO
	Owner    UserDTO          `json:"owner"`
	Members  []GroupMemberDTO `json:"members"`
	YourRole models.GroupRole `json:"your_role"`
	Degraded bool             `json:"degraded"`
}

// ToGroupMemberDTO converts a member to DTO
func ToGroupMemberDTO(member models.GroupMember, ownerID uint64) GroupMemberDTO {
	role := models.RoleMember
	if ownerID != 0 && member.UserID == ownerID {
		role = models.RoleOwner
	}
	return GroupMemberDTO{
		User:     ToUserDTO(member.User),
		Role:     role,
		JoinedAt: member.JoinedAt,
	}
}

// ToGroupDetailDTO converts a group with its owner and members to DTO
func ToGroupDetailDTO(group models.Group, owner models.User, members []models.GroupMember, yourRole models.GroupRole, degraded bool) GroupDetailDTO {
	memberDTOs := make([]GroupMemberDTO, len(members))
	for i, member := range members {
		memberDTOs[i] = ToGroupMemberDTO(member, owner.ID)
	}

	return GroupDetailDTO{
		GroupDTO: ToGroupDTO(group),
		Owner:    ToUserDTO(owner),
		Members:  memberDTOs,
		YourRole: yourRole,
		Degraded: degraded,
	}
}
