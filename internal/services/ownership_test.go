package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/roommates-api/internal/models"
)

func TestPlanOwnerRepair(t *testing.T) {
	t0 := monday
	alice := member(1, "alice", t0)
	bob := member(2, "bob", t0.Add(time.Hour))
	carol := member(3, "carol", t0.Add(2*time.Hour))
	ghost := models.GroupMember{UserID: 4, JoinedAt: t0.Add(-time.Hour)}

	tests := []struct {
		name          string
		ownerID       uint64
		ownerResolved bool
		members       []models.GroupMember
		wantStale     bool
		wantCandidate uint64
	}{
		{
			name:          "valid owner",
			ownerID:       1,
			ownerResolved: true,
			members:       []models.GroupMember{carol, alice, bob},
		},
		{
			name:          "owner lookup failed",
			ownerID:       1,
			ownerResolved: false,
			members:       []models.GroupMember{alice, bob, carol},
			wantStale:     true,
			wantCandidate: 2,
		},
		{
			name:          "owner is not a member",
			ownerID:       9,
			ownerResolved: true,
			members:       []models.GroupMember{carol, bob},
			wantStale:     true,
			wantCandidate: 2,
		},
		{
			name:          "unresolved entries are never chosen",
			ownerID:       4,
			ownerResolved: false,
			members:       []models.GroupMember{ghost, carol, bob},
			wantStale:     true,
			wantCandidate: 2,
		},
		{
			name:          "owner with a blank username",
			ownerID:       1,
			ownerResolved: false,
			members:       []models.GroupMember{member(1, " ", t0), carol},
			wantStale:     true,
			wantCandidate: 3,
		},
		{
			name:          "no valid members",
			ownerID:       4,
			ownerResolved: false,
			members:       []models.GroupMember{ghost},
			wantStale:     true,
		},
		{
			name:          "no members",
			ownerID:       1,
			ownerResolved: true,
			wantStale:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := PlanOwnerRepair(tt.ownerID, tt.ownerResolved, tt.members)
			assert.Equal(t, tt.wantStale, plan.Stale)
			if tt.wantCandidate == 0 {
				assert.Nil(t, plan.Candidate)
				return
			}
			require.NotNil(t, plan.Candidate)
			assert.Equal(t, tt.wantCandidate, plan.Candidate.UserID)
		})
	}
}

func TestOldestMember_TieBreaksOnUserID(t *testing.T) {
	members := []models.GroupMember{
		member(7, "g", monday),
		member(5, "e", monday),
		member(6, "f", monday),
	}

	oldest := oldestMember(members, 0)
	require.NotNil(t, oldest)
	assert.Equal(t, uint64(5), oldest.UserID)

	oldest = oldestMember(members, 5)
	require.NotNil(t, oldest)
	assert.Equal(t, uint64(6), oldest.UserID)
}

func TestResolvingMembers_FiltersAndOrders(t *testing.T) {
	members := []models.GroupMember{
		member(3, "c", monday.Add(time.Hour)),
		{UserID: 9, JoinedAt: monday.Add(-time.Hour)},
		member(1, "a", monday),
	}

	valid := ResolvingMembers(members)
	require.Len(t, valid, 2)
	assert.Equal(t, uint64(1), valid[0].UserID)
	assert.Equal(t, uint64(3), valid[1].UserID)
}
