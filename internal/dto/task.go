package dto

import (
	"time"

	"github.com/yukikurage/roommates-api/internal/models"
	"github.com/yukikurage/roommates-api/internal/utils"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
}

// GroupDTO represents a group in API responses
type GroupDTO struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	JoinCode string `json:"join_code"`
}

// TaskAssignmentDTO represents a task assignment in API responses
type TaskAssignmentDTO struct {
	ID        uint64                  `json:"id"`
	User      UserDTO                 `json:"user"`
	WeekStart *time.Time              `json:"week_start"`
	Status    models.AssignmentStatus `json:"status"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID             uint64              `json:"id"`
	GroupID        uint64              `json:"group_id"`
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	Difficulty     int                 `json:"difficulty"`
	Recurrence     models.Recurrence   `json:"recurrence"`
	RequiredPeople int                 `json:"required_people"`
	Deadline       *time.Time          `json:"deadline"`
	CreatedBy      uint64              `json:"created_by"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	Creator        *UserDTO            `json:"creator,omitempty"`
	Assignments    []TaskAssignmentDTO `json:"assignments"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO `json:"tasks"`
	WeekStart  time.Time `json:"week_start"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalCount int64     `json:"total_count"`
	TotalPages int       `json:"total_pages"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
	}
}

// ToGroupDTO converts a Group model to GroupDTO
func ToGroupDTO(group models.Group) GroupDTO {
	return GroupDTO{
		ID:       group.ID,
		Name:     group.Name,
		JoinCode: group.JoinCode,
	}
}

// ToTaskAssignmentDTO converts an assignment to DTO
func ToTaskAssignmentDTO(assignment models.TaskAssignment) TaskAssignmentDTO {
	dto := TaskAssignmentDTO{
		ID:        assignment.ID,
		User:      UserDTO{ID: assignment.UserID},
		WeekStart: assignment.WeekStart,
		Status:    assignment.Status,
	}
	if assignment.User.ID != 0 {
		dto.User = ToUserDTO(assignment.User)
	}
	return dto
}

// ToTaskDTO converts a Task model to TaskDTO. Only the assignments loaded
// on the task are included.
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:             task.ID,
		GroupID:        task.GroupID,
		Name:           task.Name,
		Description:    task.Description,
		Difficulty:     task.Difficulty,
		Recurrence:     task.Recurrence,
		RequiredPeople: task.EffectiveRequiredPeople(),
		Deadline:       task.Deadline,
		CreatedBy:      task.CreatedBy,
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
		Assignments:    make([]TaskAssignmentDTO, len(task.Assignments)),
	}

	// Include creator if preloaded
	if task.Creator.ID != 0 {
		creator := ToUserDTO(task.Creator)
		dto.Creator = &creator
	}

	for i, assignment := range task.Assignments {
		dto.Assignments[i] = ToTaskAssignmentDTO(assignment)
	}

	return dto
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}
	return items
}

// ToTaskListResponse converts a slice of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, weekStart time.Time, page, pageSize int, totalCount int64) TaskListResponse {
	return TaskListResponse{
		Tasks:      ToTaskDTOs(tasks),
		WeekStart:  weekStart,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: utils.TotalPages(totalCount, pageSize),
	}
}
