package services

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/yukikurage/roommates-api/internal/constants"
	"github.com/yukikurage/roommates-api/internal/metrics"
	"github.com/yukikurage/roommates-api/internal/models"
	"github.com/yukikurage/roommates-api/internal/realtime"
	"github.com/yukikurage/roommates-api/internal/repository"
	"github.com/yukikurage/roommates-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrGroupNotFound        = errors.New("group not found")
	ErrInvalidGroupName     = errors.New("group name is required")
	ErrAlreadyInGroup       = errors.New("user already belongs to a group")
	ErrJoinCodeExhausted    = errors.New("could not generate a unique join code")
	ErrNotGroupOwner        = errors.New("only the group owner can perform this action")
	ErrCannotRemoveYourself = errors.New("cannot remove yourself from the group, leave instead")
	ErrMemberNotFound       = errors.New("group member not found")
	ErrNotGroupMember       = errors.New("user is not a member of the group")
	ErrOwnershipChanged     = errors.New("group ownership changed concurrently")
)

// GroupView is the repaired projection of a group. Owner is a placeholder
// with ID 0 when Degraded is set. Members only holds entries whose users
// resolve.
type GroupView struct {
	Group    models.Group
	Owner    models.User
	Members  []models.GroupMember
	Degraded bool
}

// IsOwner reports whether userID is the resolved owner
func (v *GroupView) IsOwner(userID uint64) bool {
	return !v.Degraded && v.Owner.ID != 0 && v.Owner.ID == userID
}

// IsMember reports whether userID is a resolving member
func (v *GroupView) IsMember(userID uint64) bool {
	for _, m := range v.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// Role returns the role of a member in the view
func (v *GroupView) Role(userID uint64) models.GroupRole {
	if v.IsOwner(userID) {
		return models.RoleOwner
	}
	return models.RoleMember
}

func placeholderOwner() models.User {
	return models.User{Username: constants.PlaceholderOwnerName}
}

// GroupService provides business logic for group membership and ownership.
type GroupService struct {
	groupRepo repository.GroupRepository
	userRepo  repository.UserRepository
	notifier  Notifier
	now       func() time.Time
}

// NewGroupService creates a new GroupService.
func NewGroupService(groupRepo repository.GroupRepository, userRepo repository.UserRepository, notifier Notifier) *GroupService {
	return &GroupService{
		groupRepo: groupRepo,
		userRepo:  userRepo,
		notifier:  notifier,
		now:       time.Now,
	}
}

// GroupIDForUser returns the ID of the group the user belongs to.
func (s *GroupService) GroupIDForUser(userID uint64) (uint64, error) {
	membership, err := s.groupRepo.FindMembershipByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrGroupNotFound
		}
		return 0, storageError("find membership", err)
	}
	return membership.GroupID, nil
}

// DescribeGroup returns the caller's group, repairing a stale owner on the way.
func (s *GroupService) DescribeGroup(userID uint64) (*GroupView, error) {
	groupID, err := s.GroupIDForUser(userID)
	if err != nil {
		return nil, err
	}
	return s.describe(groupID)
}

// DescribeGroupByID is DescribeGroup keyed by group.
func (s *GroupService) DescribeGroupByID(groupID uint64) (*GroupView, error) {
	return s.describe(groupID)
}

func (s *GroupService) describe(groupID uint64) (*GroupView, error) {
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, storageError("find group", err)
	}

	members, err := s.groupRepo.ListMembers(groupID)
	if err != nil {
		return nil, storageError("list members", err)
	}

	view := &GroupView{
		Group:   *group,
		Members: ResolvingMembers(members),
	}

	owner, ownerErr := s.userRepo.FindByID(group.OwnerID)
	ownerResolved := ownerErr == nil && owner.HasDisplayName()

	plan := PlanOwnerRepair(group.OwnerID, ownerResolved, members)
	if !plan.Stale {
		view.Owner = *owner
		return view, nil
	}

	slog.Warn("Stale group owner detected",
		"group_id", group.ID,
		"owner_id", group.OwnerID,
		"lookup_error", ownerErr,
	)

	if plan.Candidate == nil {
		metrics.OwnerRepairs.WithLabelValues(metrics.RepairPlaceholder).Inc()
		view.Owner = placeholderOwner()
		view.Degraded = true
		return view, nil
	}

	nextOwnerID := s.persistOwnerRepair(view, plan.Candidate.UserID)

	repaired, err := s.userRepo.FindByID(nextOwnerID)
	if err != nil || !repaired.HasDisplayName() {
		slog.Warn("Repaired owner did not resolve", "group_id", group.ID, "owner_id", nextOwnerID, "error", err)
		metrics.OwnerRepairs.WithLabelValues(metrics.RepairPlaceholder).Inc()
		view.Owner = placeholderOwner()
		view.Degraded = true
		return view, nil
	}

	view.Owner = *repaired
	return view, nil
}

// persistOwnerRepair swaps the stale owner for candidateID and returns the
// owner the view should show. Write failures are absorbed.
func (s *GroupService) persistOwnerRepair(view *GroupView, candidateID uint64) uint64 {
	group := &view.Group
	staleID := group.OwnerID

	swapped, err := s.groupRepo.SwapOwner(group.ID, staleID, candidateID)
	switch {
	case err != nil:
		metrics.OwnerRepairs.WithLabelValues(metrics.RepairPersistFail).Inc()
		slog.Error("Failed to persist owner repair", "group_id", group.ID, "candidate_id", candidateID, "error", err)
		group.OwnerID = candidateID
		return candidateID

	case !swapped:
		metrics.OwnerRepairs.WithLabelValues(metrics.RepairRaceLost).Inc()
		reloaded, err := s.groupRepo.FindByID(group.ID)
		if err != nil {
			slog.Error("Failed to reload group after concurrent repair", "group_id", group.ID, "error", err)
			group.OwnerID = candidateID
			return candidateID
		}
		*group = *reloaded
		return reloaded.OwnerID
	}

	metrics.OwnerRepairs.WithLabelValues(metrics.RepairTransferred).Inc()
	slog.Info("Repaired group owner", "group_id", group.ID, "previous_owner_id", staleID, "owner_id", candidateID)
	group.OwnerID = candidateID
	group.Revision++
	notify(s.notifier, realtime.Event{
		Type:    realtime.EventOwnerChanged,
		GroupID: group.ID,
		Data:    map[string]uint64{"owner_id": candidateID},
	})
	return candidateID
}

// CreateGroup creates a group owned by the user, who becomes its only member.
func (s *GroupService) CreateGroup(userID uint64, name string) (*GroupView, error) {
	name, err := validateGroupName(name)
	if err != nil {
		return nil, err
	}

	if err := s.ensureNoGroup(userID); err != nil {
		return nil, err
	}

	code, err := s.uniqueJoinCode()
	if err != nil {
		return nil, err
	}

	group := &models.Group{
		Name:     name,
		JoinCode: code,
		OwnerID:  userID,
	}
	owner := &models.GroupMember{
		UserID:   userID,
		JoinedAt: s.now(),
	}

	if err := s.groupRepo.CreateWithOwner(group, owner); err != nil {
		return nil, storageError("create group", err)
	}

	slog.Info("Group created", "group_id", group.ID, "owner_id", userID)
	return s.describe(group.ID)
}

// JoinGroup adds the user to the group with the given join code.
func (s *GroupService) JoinGroup(userID uint64, joinCode string) (*GroupView, error) {
	code := utils.NormalizeJoinCode(joinCode)
	if code == "" {
		return nil, ErrGroupNotFound
	}

	if err := s.ensureNoGroup(userID); err != nil {
		return nil, err
	}

	group, err := s.groupRepo.FindByJoinCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, storageError("find group by join code", err)
	}

	member := &models.GroupMember{
		GroupID:  group.ID,
		UserID:   userID,
		JoinedAt: s.now(),
	}
	if err := s.groupRepo.AddMember(member); err != nil {
		return nil, storageError("add member", err)
	}

	notify(s.notifier, realtime.Event{
		Type:    realtime.EventMemberJoined,
		GroupID: group.ID,
		ActorID: userID,
	})

	return s.describe(group.ID)
}

// LeaveGroup removes the user from their group. The group is deleted when
// the last member leaves; an owner leaving hands ownership to the oldest
// remaining member.
func (s *GroupService) LeaveGroup(userID uint64) error {
	groupID, err := s.GroupIDForUser(userID)
	if err != nil {
		return err
	}
	return s.leave(groupID, userID)
}

func (s *GroupService) leave(groupID, userID uint64) error {
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		return storageError("find group", err)
	}

	members, err := s.groupRepo.ListMembers(groupID)
	if err != nil {
		return storageError("list members", err)
	}

	remaining := make([]models.GroupMember, 0, len(members))
	for _, m := range members {
		if m.UserID != userID {
			remaining = append(remaining, m)
		}
	}

	if len(remaining) == 0 {
		if err := s.groupRepo.Delete(groupID); err != nil {
			return storageError("delete group", err)
		}
		slog.Info("Last member left, group deleted", "group_id", groupID, "user_id", userID)
		notify(s.notifier, realtime.Event{Type: realtime.EventGroupDeleted, GroupID: groupID, ActorID: userID})
		return nil
	}

	var nextOwnerID *uint64
	if group.OwnerID == userID {
		next := oldestMember(ResolvingMembers(remaining), userID)
		if next == nil {
			next = oldestMember(remaining, userID)
		}
		nextOwnerID = &next.UserID
	}

	if err := s.groupRepo.RemoveMember(groupID, userID, nextOwnerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		return storageError("remove member", err)
	}

	notify(s.notifier, realtime.Event{Type: realtime.EventMemberLeft, GroupID: groupID, ActorID: userID})
	if nextOwnerID != nil {
		slog.Info("Ownership transferred on leave", "group_id", groupID, "previous_owner_id", userID, "owner_id", *nextOwnerID)
		notify(s.notifier, realtime.Event{
			Type:    realtime.EventOwnerChanged,
			GroupID: groupID,
			ActorID: userID,
			Data:    map[string]uint64{"owner_id": *nextOwnerID},
		})
	}
	return nil
}

// RemoveMember removes another member from the owner's group.
func (s *GroupService) RemoveMember(actorID, targetID uint64) error {
	view, err := s.ownedGroup(actorID)
	if err != nil {
		return err
	}

	if targetID == actorID {
		return ErrCannotRemoveYourself
	}

	if err := s.groupRepo.RemoveMember(view.Group.ID, targetID, nil); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		return storageError("remove member", err)
	}

	notify(s.notifier, realtime.Event{
		Type:    realtime.EventMemberRemoved,
		GroupID: view.Group.ID,
		ActorID: actorID,
		Data:    map[string]uint64{"user_id": targetID},
	})
	return nil
}

// TransferOwnership hands the owner's group to another member.
func (s *GroupService) TransferOwnership(actorID, newOwnerID uint64) (*GroupView, error) {
	view, err := s.ownedGroup(actorID)
	if err != nil {
		return nil, err
	}

	if !view.IsMember(newOwnerID) {
		return nil, ErrNotGroupMember
	}
	if newOwnerID == actorID {
		return view, nil
	}

	swapped, err := s.groupRepo.SwapOwner(view.Group.ID, actorID, newOwnerID)
	if err != nil {
		return nil, storageError("transfer ownership", err)
	}
	if !swapped {
		return nil, ErrOwnershipChanged
	}

	notify(s.notifier, realtime.Event{
		Type:    realtime.EventOwnerChanged,
		GroupID: view.Group.ID,
		ActorID: actorID,
		Data:    map[string]uint64{"owner_id": newOwnerID},
	})

	return s.describe(view.Group.ID)
}

// RenameGroup updates the name of the owner's group.
func (s *GroupService) RenameGroup(actorID uint64, name string) (*GroupView, error) {
	name, err := validateGroupName(name)
	if err != nil {
		return nil, err
	}

	view, err := s.ownedGroup(actorID)
	if err != nil {
		return nil, err
	}

	view.Group.Name = name
	if err := s.groupRepo.Update(&view.Group); err != nil {
		return nil, storageError("update group", err)
	}
	return view, nil
}

// RegenerateJoinCode replaces the join code of the owner's group.
func (s *GroupService) RegenerateJoinCode(actorID uint64) (*GroupView, error) {
	view, err := s.ownedGroup(actorID)
	if err != nil {
		return nil, err
	}

	code, err := s.uniqueJoinCode()
	if err != nil {
		return nil, err
	}

	view.Group.JoinCode = code
	if err := s.groupRepo.Update(&view.Group); err != nil {
		return nil, storageError("update join code", err)
	}
	return view, nil
}

// DeleteUserCascade leaves the user's group, if any, then deletes the user.
func (s *GroupService) DeleteUserCascade(userID uint64) error {
	groupID, err := s.GroupIDForUser(userID)
	switch {
	case err == nil:
		if err := s.leave(groupID, userID); err != nil {
			return err
		}
	case !errors.Is(err, ErrGroupNotFound):
		return err
	}

	if err := s.userRepo.Delete(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return storageError("delete user", err)
	}

	slog.Info("User deleted", "user_id", userID)
	return nil
}

// ownedGroup returns the repaired view of the actor's group, failing
// unless the actor owns it.
func (s *GroupService) ownedGroup(actorID uint64) (*GroupView, error) {
	view, err := s.DescribeGroup(actorID)
	if err != nil {
		return nil, err
	}
	if !view.IsOwner(actorID) {
		return nil, ErrNotGroupOwner
	}
	return view, nil
}

func (s *GroupService) ensureNoGroup(userID uint64) error {
	if _, err := s.groupRepo.FindMembershipByUserID(userID); err == nil {
		return ErrAlreadyInGroup
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return storageError("find membership", err)
	}
	return nil
}

func (s *GroupService) uniqueJoinCode() (string, error) {
	for attempt := 0; attempt < constants.MaxJoinCodeAttempts; attempt++ {
		code, err := utils.GenerateJoinCode()
		if err != nil {
			return "", err
		}

		if _, err := s.groupRepo.FindByJoinCode(code); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return code, nil
			}
			return "", storageError("check join code", err)
		}
	}
	return "", ErrJoinCodeExhausted
}

func validateGroupName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > constants.MaxGroupNameLen {
		return "", ErrInvalidGroupName
	}
	return name, nil
}
