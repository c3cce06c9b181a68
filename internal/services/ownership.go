package services

import (
	"sort"

	"github.com/yukikurage/roommates-api/internal/models"
)

// OwnerRepairPlan is the outcome of checking a group's owner reference
type OwnerRepairPlan struct {
	// Stale is set when the stored owner does not resolve to a current member
	Stale bool
	// Candidate is the member that should become owner, nil when no
	// member resolves
	Candidate *models.GroupMember
}

// PlanOwnerRepair decides whether the owner reference needs repair and who
// should take over. ownerResolved reports whether the owner's user record
// could be loaded with a display name. It performs no I/O.
func PlanOwnerRepair(ownerID uint64, ownerResolved bool, members []models.GroupMember) OwnerRepairPlan {
	valid := ResolvingMembers(members)

	if ownerResolved {
		for _, m := range valid {
			if m.UserID == ownerID {
				return OwnerRepairPlan{}
			}
		}
	}

	return OwnerRepairPlan{
		Stale:     true,
		Candidate: oldestMember(valid, ownerID),
	}
}

// ResolvingMembers returns the members whose users resolve, in join order
func ResolvingMembers(members []models.GroupMember) []models.GroupMember {
	valid := make([]models.GroupMember, 0, len(members))
	for _, m := range members {
		if m.Resolves() {
			valid = append(valid, m)
		}
	}
	sortByJoinOrder(valid)
	return valid
}

// oldestMember returns the earliest joined member other than exclude
func oldestMember(members []models.GroupMember, exclude uint64) *models.GroupMember {
	var oldest *models.GroupMember
	for i := range members {
		m := members[i]
		if m.UserID == exclude {
			continue
		}
		if oldest == nil || joinedBefore(m, *oldest) {
			oldest = &m
		}
	}
	return oldest
}

func joinedBefore(a, b models.GroupMember) bool {
	if !a.JoinedAt.Equal(b.JoinedAt) {
		return a.JoinedAt.Before(b.JoinedAt)
	}
	return a.UserID < b.UserID
}

func sortByJoinOrder(members []models.GroupMember) {
	sort.SliceStable(members, func(i, j int) bool {
		return joinedBefore(members[i], members[j])
	})
}
