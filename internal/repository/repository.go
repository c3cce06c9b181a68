package repository

import (
	"time"

	"github.com/yukikurage/roommates-api/internal/models"
	"github.com/yukikurage/roommates-api/internal/utils"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// ListRecurringByGroup loads the group's recurring tasks in ID order with
	// the assignments of the given week preloaded
	ListRecurringByGroup(groupID uint64, weekStart time.Time) ([]models.Task, error)

	// Update updates a task
	Update(task *models.Task) error

	// Delete soft deletes a task and removes its assignments
	Delete(id uint64) error

	// AddAssignments inserts assignments, skipping rows that would duplicate
	// an existing (task, user, week) obligation
	AddAssignments(assignments []models.TaskAssignment) error

	// RemoveAssignments deletes the users' assignments for one week, or the
	// undated ones when weekStart is nil
	RemoveAssignments(taskID uint64, userIDs []uint64, weekStart *time.Time) error

	// FindAssignment finds a user's assignment for one week, or the undated
	// one when weekStart is nil
	FindAssignment(taskID, userID uint64, weekStart *time.Time) (*models.TaskAssignment, error)

	// UpdateAssignment saves an assignment
	UpdateAssignment(assignment *models.TaskAssignment) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	GroupID        uint64
	Recurrence     *models.Recurrence
	AssignedUserID *uint64
	WeekStart      time.Time
	SortByDeadline bool
	Pagination     utils.PaginationParams
}

// GroupRepository defines the interface for group and membership data access
type GroupRepository interface {
	// CreateWithOwner creates a group and its owner's membership atomically
	CreateWithOwner(group *models.Group, owner *models.GroupMember) error

	// FindByID finds a group by ID
	FindByID(id uint64) (*models.Group, error)

	// FindByJoinCode finds a group by join code
	FindByJoinCode(code string) (*models.Group, error)

	// ListIDs returns the IDs of every group
	ListIDs() ([]uint64, error)

	// Update saves the group's name and join code
	Update(group *models.Group) error

	// SwapOwner replaces the owner only if it still equals expected. It
	// reports whether this call performed the change.
	SwapOwner(groupID, expected, next uint64) (bool, error)

	// Delete deletes a group with its members, tasks and assignments
	Delete(id uint64) error

	// AddMember adds a member to a group
	AddMember(member *models.GroupMember) error

	// RemoveMember removes a member, first handing ownership to nextOwnerID
	// when it is non-nil, in one transaction
	RemoveMember(groupID, userID uint64, nextOwnerID *uint64) error

	// FindMembershipByUserID finds the membership of a user in any group
	FindMembershipByUserID(userID uint64) (*models.GroupMember, error)

	// ListMembers lists a group's members in join order with users preloaded
	ListMembers(groupID uint64) ([]models.GroupMember, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)

	// Delete soft deletes a user
	Delete(id uint64) error
}
