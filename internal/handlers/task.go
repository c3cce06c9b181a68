package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/roommates-api/internal/constants"
	"github.com/yukikurage/roommates-api/internal/dto"
	apierrors "github.com/yukikurage/roommates-api/internal/errors"
	"github.com/yukikurage/roommates-api/internal/middleware"
	"github.com/yukikurage/roommates-api/internal/models"
	"github.com/yukikurage/roommates-api/internal/services"
	"github.com/yukikurage/roommates-api/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns the tasks of the caller's group.
// Query: recurrence, assigned_to_me, sort=deadline, page, limit
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	input := services.ListTasksInput{
		UserID:         userID,
		AssignedToMe:   c.Query("assigned_to_me") == "true",
		SortByDeadline: c.Query("sort") == "deadline",
		Pagination:     utils.GetPaginationParams(c),
	}
	if raw := c.Query("recurrence"); raw != "" {
		recurrence := models.Recurrence(raw)
		if !recurrence.IsValid() {
			apierrors.BadRequestWithDetails(c, "Invalid recurrence", gin.H{
				"allowed": []models.Recurrence{
					models.RecurrenceOneTime,
					models.RecurrenceDaily,
					models.RecurrenceWeekly,
					models.RecurrenceBiWeekly,
					models.RecurrenceMonthly,
				},
			})
			return
		}
		input.Recurrence = &recurrence
	}

	tasks, total, err := h.taskService.ListTasks(input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(
		tasks,
		h.taskService.CurrentWeek(),
		input.Pagination.Page,
		input.Pagination.Limit,
		total,
	))
}

// GetTask returns a specific task by ID
// Task is already loaded with relations by RequireTaskAccess middleware
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(task))
}

// CreateTask creates a new task in the caller's group
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateTaskRequest struct {
		Name            string     `json:"name" binding:"required"`
		Description     string     `json:"description"`
		Difficulty      int        `json:"difficulty"`
		Recurrence      string     `json:"recurrence"`
		RequiredPeople  *int       `json:"required_people"`
		Deadline        *time.Time `json:"deadline"`
		AssignedUserIDs []uint64   `json:"assigned_user_ids"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(services.CreateTaskInput{
		Name:            req.Name,
		Description:     req.Description,
		Difficulty:      req.Difficulty,
		Recurrence:      models.Recurrence(req.Recurrence),
		RequiredPeople:  req.RequiredPeople,
		Deadline:        req.Deadline,
		AssignedUserIDs: req.AssignedUserIDs,
		CreatorID:       userID,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask updates an existing task. Fields absent from the body are
// left alone; "deadline": null clears the deadline.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	// Parse raw JSON to detect which fields were sent
	var rawReq map[string]any
	if err := c.ShouldBindJSON(&rawReq); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input, err := parseTaskPatch(rawReq)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	updated, err := h.taskService.UpdateTask(userID, task.ID, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	if err := h.taskService.DeleteTask(userID, task.ID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

type assignRequest struct {
	UserIDs []uint64 `json:"user_ids" binding:"required"`
}

// AssignTask assigns users to a task for the current week
func (h *TaskHandler) AssignTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.taskService.AssignUsers(services.AssignUsersInput{
		TaskID:  task.ID,
		ActorID: userID,
		UserIDs: req.UserIDs,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// UnassignTask removes users from a task for the current week
func (h *TaskHandler) UnassignTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.taskService.UnassignUsers(userID, task.ID, req.UserIDs)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// UpdateTaskStatus sets the status of an assignment for the current week
func (h *TaskHandler) UpdateTaskStatus(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	type StatusRequest struct {
		Status     string  `json:"status" binding:"required"`
		AssigneeID *uint64 `json:"assignee_id"`
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	assignment, err := h.taskService.UpdateAssignmentStatus(services.UpdateStatusInput{
		TaskID:     task.ID,
		ActorID:    userID,
		AssigneeID: req.AssigneeID,
		Status:     models.AssignmentStatus(req.Status),
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskAssignmentDTO(*assignment))
}

// ScheduleWeek assigns the current week's recurring tasks of the group
func (h *TaskHandler) ScheduleWeek(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	tasks, err := h.taskService.AssignWeeklyTasks(userID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"week_start": h.taskService.CurrentWeek(),
		"tasks":      dto.ToTaskDTOs(tasks),
	})
}

// GenerateTasks suggests chores from free text using AI. Nothing is saved.
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type GenerateTasksRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req GenerateTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	chores, err := h.taskService.SuggestTasks(c.Request.Context(), userID, req.Text)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": chores,
	})
}

func parseTaskPatch(raw map[string]any) (services.UpdateTaskInput, error) {
	var input services.UpdateTaskInput

	if v, ok := raw["name"]; ok {
		s, ok := v.(string)
		if !ok {
			return input, errors.New("name must be a string")
		}
		input.Name = &s
	}
	if v, ok := raw["description"]; ok {
		s, ok := v.(string)
		if !ok {
			return input, errors.New("description must be a string")
		}
		input.Description = &s
	}
	if v, ok := raw["difficulty"]; ok {
		n, err := jsonInt(v, "difficulty")
		if err != nil {
			return input, err
		}
		input.Difficulty = &n
	}
	if v, ok := raw["recurrence"]; ok {
		s, ok := v.(string)
		if !ok {
			return input, errors.New("recurrence must be a string")
		}
		recurrence := models.Recurrence(s)
		input.Recurrence = &recurrence
	}
	if v, ok := raw["required_people"]; ok {
		n, err := jsonInt(v, "required_people")
		if err != nil {
			return input, err
		}
		input.RequiredPeople = &n
	}
	if v, ok := raw["deadline"]; ok {
		// deadline was provided (might be null)
		if v == nil {
			input.ClearDeadline = true
		} else {
			s, ok := v.(string)
			if !ok {
				return input, errors.New("deadline must be an RFC 3339 string")
			}
			parsed, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return input, errors.New("deadline must be an RFC 3339 string")
			}
			input.Deadline = &parsed
		}
	}

	return input, nil
}

func jsonInt(v any, field string) (int, error) {
	f, ok := v.(float64)
	if !ok || f != float64(int(f)) {
		return 0, fmt.Errorf("%s must be an integer", field)
	}
	return int(f), nil
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrAssignmentNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrGroupNotFound):
		apierrors.NotFound(c, "You are not a member of any group")
	case errors.Is(err, services.ErrNotTaskCreator),
		errors.Is(err, services.ErrTaskPermissionDenied):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrNameRequired),
		errors.Is(err, services.ErrInvalidDifficulty),
		errors.Is(err, services.ErrInvalidRecurrence),
		errors.Is(err, services.ErrInvalidRequiredPeople),
		errors.Is(err, services.ErrDeadlineNotAllowed),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidTaskAssignee),
		errors.Is(err, services.ErrNoUserIDsProvided),
		errors.Is(err, services.ErrSuggestionTextRequired):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrNameTooLong):
		apierrors.BadRequest(c, fmt.Sprintf("Name must be at most %d characters", constants.MaxTaskNameLen))
	case errors.Is(err, services.ErrSuggestionTextTooLong):
		apierrors.BadRequest(c, fmt.Sprintf("Text must be at most %d characters", constants.MaxAIInputLength))
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, "AI service is not configured. Please set OPENAI_API_KEY environment variable.")
	case errors.Is(err, services.ErrAINoTasksGenerated),
		errors.Is(err, services.ErrAINoValidTasks):
		apierrors.RespondWithError(c, http.StatusUnprocessableEntity, apierrors.NewAPIError(apierrors.ErrCodeInvalidInput, err.Error()))
	default:
		respondServiceError(c, err)
	}
}
