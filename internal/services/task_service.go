package services

import (
	"context"
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
	ErrTaskNotFound           = errors.New("task not found")
	ErrNotTaskCreator         = errors.New("only the task creator can perform this action")
	ErrTaskPermissionDenied   = errors.New("user does not have permission to modify this task")
	ErrNoUserIDsProvided      = errors.New("at least one user ID is required")
	ErrNameRequired           = errors.New("name is required")
	ErrNameTooLong            = errors.New("name is too long")
	ErrInvalidDifficulty      = errors.New("difficulty must be between 1 and 5")
	ErrInvalidRecurrence      = errors.New("invalid recurrence")
	ErrInvalidRequiredPeople  = errors.New("required people must be at least 1")
	ErrDeadlineNotAllowed     = errors.New("deadline is only allowed for one-time tasks")
	ErrInvalidStatus          = errors.New("invalid assignment status")
	ErrInvalidTaskAssignee    = errors.New("one or more users are not members of the group")
	ErrAssignmentNotFound     = errors.New("assignment not found")
	ErrSuggestionTextRequired = errors.New("text is required")
	ErrSuggestionTextTooLong  = errors.New("text is too long")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo  repository.TaskRepository
	groups    *GroupService
	aiService *AIService
	notifier  Notifier
	loc       *time.Location
	now       func() time.Time
}

// NewTaskService creates a new TaskService. loc is the time zone weeks
// start in.
func NewTaskService(taskRepo repository.TaskRepository, groups *GroupService, aiService *AIService, notifier Notifier, loc *time.Location) *TaskService {
	if loc == nil {
		loc = time.UTC
	}
	return &TaskService{
		taskRepo:  taskRepo,
		groups:    groups,
		aiService: aiService,
		notifier:  notifier,
		loc:       loc,
		now:       time.Now,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	UserID         uint64
	Recurrence     *models.Recurrence
	AssignedToMe   bool
	SortByDeadline bool
	Pagination     utils.PaginationParams
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Name            string
	Description     string
	Difficulty      int
	Recurrence      models.Recurrence
	RequiredPeople  *int
	Deadline        *time.Time
	AssignedUserIDs []uint64
	CreatorID       uint64
}

// UpdateTaskInput represents input for updating a task
type UpdateTaskInput struct {
	Name           *string
	Description    *string
	Difficulty     *int
	Recurrence     *models.Recurrence
	RequiredPeople *int
	Deadline       *time.Time
	ClearDeadline  bool
}

// AssignUsersInput represents input for assigning users to a task
type AssignUsersInput struct {
	TaskID  uint64
	ActorID uint64
	UserIDs []uint64
}

// UpdateStatusInput changes the status of one assignee's current assignment.
// AssigneeID defaults to the actor.
type UpdateStatusInput struct {
	TaskID     uint64
	ActorID    uint64
	AssigneeID *uint64
	Status     models.AssignmentStatus
}

// CurrentWeek returns the start of the scheduling week containing now
func (s *TaskService) CurrentWeek() time.Time {
	return utils.WeekStart(s.now(), s.loc)
}

// weekKey returns the week an assignment of task is keyed by
func (s *TaskService) weekKey(task *models.Task) *time.Time {
	if !task.Recurrence.IsRecurring() {
		return nil
	}
	week := s.CurrentWeek()
	return &week
}

// ListTasks returns the tasks of the user's group
func (s *TaskService) ListTasks(input ListTasksInput) ([]models.Task, int64, error) {
	groupID, err := s.groups.GroupIDForUser(input.UserID)
	if err != nil {
		return nil, 0, err
	}

	filter := repository.TaskFilter{
		GroupID:        groupID,
		Recurrence:     input.Recurrence,
		WeekStart:      s.CurrentWeek(),
		SortByDeadline: input.SortByDeadline,
		Pagination:     input.Pagination,
	}
	if input.AssignedToMe {
		filter.AssignedUserID = &input.UserID
	}

	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, storageError("list tasks", err)
	}

	return tasks, total, nil
}

// GetTask returns a task of the user's group with its current assignments
func (s *TaskService) GetTask(userID, taskID uint64) (*models.Task, error) {
	groupID, err := s.groups.GroupIDForUser(userID)
	if err != nil {
		return nil, err
	}
	return s.loadTask(groupID, taskID)
}

// CreateTask creates a new task and assigns the requested members
func (s *TaskService) CreateTask(input CreateTaskInput) (*models.Task, error) {
	name, err := validateTaskName(input.Name)
	if err != nil {
		return nil, err
	}

	if input.Difficulty == 0 {
		input.Difficulty = constants.DefaultTaskDifficulty
	}
	if input.Recurrence == "" {
		input.Recurrence = models.RecurrenceWeekly
	}

	task := &models.Task{
		Name:           name,
		Description:    strings.TrimSpace(input.Description),
		Difficulty:     input.Difficulty,
		Recurrence:     input.Recurrence,
		RequiredPeople: input.RequiredPeople,
		Deadline:       input.Deadline,
		CreatedBy:      input.CreatorID,
	}
	if err := validateTask(task); err != nil {
		return nil, err
	}

	view, err := s.groups.DescribeGroup(input.CreatorID)
	if err != nil {
		return nil, err
	}

	assignees := uniqueUint64(input.AssignedUserIDs)
	if err := ensureMembers(view, assignees); err != nil {
		return nil, err
	}

	task.GroupID = view.Group.ID
	if err := s.taskRepo.Create(task); err != nil {
		return nil, storageError("create task", err)
	}

	if err := s.addAssignments(task, assignees); err != nil {
		return nil, err
	}

	notify(s.notifier, realtime.Event{
		Type:    realtime.EventTaskCreated,
		GroupID: task.GroupID,
		ActorID: input.CreatorID,
		Data:    map[string]uint64{"task_id": task.ID},
	})

	return s.loadTask(task.GroupID, task.ID)
}

// UpdateTask updates a task. Only its creator or the group owner may do so.
func (s *TaskService) UpdateTask(actorID, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	view, task, err := s.managedTask(actorID, taskID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name, err := validateTaskName(*input.Name)
		if err != nil {
			return nil, err
		}
		task.Name = name
	}
	if input.Description != nil {
		task.Description = strings.TrimSpace(*input.Description)
	}
	if input.Difficulty != nil {
		task.Difficulty = *input.Difficulty
	}
	if input.Recurrence != nil {
		task.Recurrence = *input.Recurrence
	}
	if input.RequiredPeople != nil {
		task.RequiredPeople = input.RequiredPeople
	}
	if input.ClearDeadline {
		task.Deadline = nil
	} else if input.Deadline != nil {
		task.Deadline = input.Deadline
	}

	if err := validateTask(task); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, storageError("update task", err)
	}

	notify(s.notifier, realtime.Event{
		Type:    realtime.EventTaskUpdated,
		GroupID: view.Group.ID,
		ActorID: actorID,
		Data:    map[string]uint64{"task_id": task.ID},
	})

	return s.loadTask(view.Group.ID, task.ID)
}

// DeleteTask deletes a task if the actor is the creator
func (s *TaskService) DeleteTask(actorID, taskID uint64) error {
	groupID, err := s.groups.GroupIDForUser(actorID)
	if err != nil {
		return err
	}

	task, err := s.loadTask(groupID, taskID)
	if err != nil {
		return err
	}

	if task.CreatedBy != actorID {
		return ErrNotTaskCreator
	}

	if err := s.taskRepo.Delete(taskID); err != nil {
		return storageError("delete task", err)
	}

	notify(s.notifier, realtime.Event{
		Type:    realtime.EventTaskDeleted,
		GroupID: groupID,
		ActorID: actorID,
		Data:    map[string]uint64{"task_id": taskID},
	})
	return nil
}

// AssignUsers assigns members to the task for the current week, or
// undated for one-time tasks
func (s *TaskService) AssignUsers(input AssignUsersInput) (*models.Task, error) {
	if len(input.UserIDs) == 0 {
		return nil, ErrNoUserIDsProvided
	}

	view, task, err := s.managedTask(input.ActorID, input.TaskID)
	if err != nil {
		return nil, err
	}

	userIDs := uniqueUint64(input.UserIDs)
	if err := ensureMembers(view, userIDs); err != nil {
		return nil, err
	}

	if err := s.addAssignments(task, userIDs); err != nil {
		return nil, err
	}

	notify(s.notifier, realtime.Event{
		Type:    realtime.EventTaskAssigned,
		GroupID: view.Group.ID,
		ActorID: input.ActorID,
		Data:    map[string]interface{}{"task_id": task.ID, "user_ids": userIDs},
	})

	return s.loadTask(view.Group.ID, task.ID)
}

// UnassignUsers removes the current assignments of the given users
func (s *TaskService) UnassignUsers(actorID, taskID uint64, userIDs []uint64) (*models.Task, error) {
	if len(userIDs) == 0 {
		return nil, ErrNoUserIDsProvided
	}

	view, task, err := s.managedTask(actorID, taskID)
	if err != nil {
		return nil, err
	}

	if err := s.taskRepo.RemoveAssignments(task.ID, uniqueUint64(userIDs), s.weekKey(task)); err != nil {
		return nil, storageError("remove assignments", err)
	}

	notify(s.notifier, realtime.Event{
		Type:    realtime.EventTaskAssigned,
		GroupID: view.Group.ID,
		ActorID: actorID,
		Data:    map[string]uint64{"task_id": task.ID},
	})

	return s.loadTask(view.Group.ID, task.ID)
}

// UpdateAssignmentStatus sets the status of an assignee's current
// assignment. The assignee or the task creator may do so.
func (s *TaskService) UpdateAssignmentStatus(input UpdateStatusInput) (*models.TaskAssignment, error) {
	if !input.Status.IsValid() {
		return nil, ErrInvalidStatus
	}

	groupID, err := s.groups.GroupIDForUser(input.ActorID)
	if err != nil {
		return nil, err
	}

	task, err := s.loadTask(groupID, input.TaskID)
	if err != nil {
		return nil, err
	}

	assigneeID := input.ActorID
	if input.AssigneeID != nil {
		assigneeID = *input.AssigneeID
	}
	if assigneeID != input.ActorID && task.CreatedBy != input.ActorID {
		return nil, ErrTaskPermissionDenied
	}

	assignment, err := s.taskRepo.FindAssignment(task.ID, assigneeID, s.weekKey(task))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if assigneeID == input.ActorID && task.CreatedBy != input.ActorID {
				return nil, ErrTaskPermissionDenied
			}
			return nil, ErrAssignmentNotFound
		}
		return nil, storageError("find assignment", err)
	}

	assignment.Status = input.Status
	if err := s.taskRepo.UpdateAssignment(assignment); err != nil {
		return nil, storageError("update assignment", err)
	}

	notify(s.notifier, realtime.Event{
		Type:    realtime.EventTaskStatusChanged,
		GroupID: groupID,
		ActorID: input.ActorID,
		Data: map[string]interface{}{
			"task_id": task.ID,
			"user_id": assigneeID,
			"status":  input.Status,
		},
	})

	return assignment, nil
}

// AssignWeeklyTasks fills the current week's recurring tasks of the user's
// group. It returns the tasks that received new assignments.
func (s *TaskService) AssignWeeklyTasks(userID uint64) ([]models.Task, error) {
	view, err := s.groups.DescribeGroup(userID)
	if err != nil {
		return nil, err
	}
	return s.scheduleGroup(view, userID)
}

// AssignWeeklyTasksForGroup is AssignWeeklyTasks keyed by group
func (s *TaskService) AssignWeeklyTasksForGroup(groupID uint64) ([]models.Task, error) {
	view, err := s.groups.DescribeGroupByID(groupID)
	if err != nil {
		return nil, err
	}
	return s.scheduleGroup(view, 0)
}

func (s *TaskService) scheduleGroup(view *GroupView, actorID uint64) ([]models.Task, error) {
	metrics.SchedulerRuns.Inc()
	weekStart := s.CurrentWeek()

	tasks, err := s.taskRepo.ListRecurringByGroup(view.Group.ID, weekStart)
	if err != nil {
		return nil, storageError("list recurring tasks", err)
	}

	planned := PlanWeeklyAssignments(tasks, view.Members, weekStart)
	if len(planned) == 0 {
		slog.Debug("Weekly tasks already assigned", "group_id", view.Group.ID, "week_start", weekStart)
		return []models.Task{}, nil
	}

	if err := s.taskRepo.AddAssignments(planned); err != nil {
		return nil, storageError("add weekly assignments", err)
	}
	metrics.AssignmentsCreated.WithLabelValues(metrics.SourceWeekly).Add(float64(len(planned)))

	touched := make(map[uint64]struct{}, len(planned))
	for _, a := range planned {
		touched[a.TaskID] = struct{}{}
	}

	refreshed, err := s.taskRepo.ListRecurringByGroup(view.Group.ID, weekStart)
	if err != nil {
		return nil, storageError("reload recurring tasks", err)
	}

	result := make([]models.Task, 0, len(touched))
	taskIDs := make([]uint64, 0, len(touched))
	for _, t := range refreshed {
		if _, ok := touched[t.ID]; ok {
			result = append(result, t)
			taskIDs = append(taskIDs, t.ID)
		}
	}

	slog.Info("Weekly tasks assigned",
		"group_id", view.Group.ID,
		"week_start", weekStart,
		"assignments", len(planned),
		"tasks", len(result),
	)
	notify(s.notifier, realtime.Event{
		Type:    realtime.EventTasksScheduled,
		GroupID: view.Group.ID,
		ActorID: actorID,
		Data:    map[string]interface{}{"week_start": weekStart, "task_ids": taskIDs},
	})

	return result, nil
}

// SuggestTasks uses AI to suggest chores from free text. Nothing is saved.
func (s *TaskService) SuggestTasks(ctx context.Context, userID uint64, text string) ([]GeneratedChore, error) {
	if _, err := s.groups.GroupIDForUser(userID); err != nil {
		return nil, err
	}

	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrSuggestionTextRequired
	}
	if len(text) > constants.MaxAIInputLength {
		return nil, ErrSuggestionTextTooLong
	}

	chores, err := s.aiService.SuggestChoresFromText(ctx, text)
	if err != nil {
		return nil, err
	}

	if len(chores) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(chores) > constants.MaxAIGeneratedTasks {
		chores = chores[:constants.MaxAIGeneratedTasks]
	}

	valid := make([]GeneratedChore, 0, len(chores))
	for _, chore := range chores {
		chore.Name = strings.TrimSpace(chore.Name)
		if chore.Name == "" || len(chore.Name) > constants.MaxTaskNameLen {
			continue
		}

		chore.Difficulty = models.Task{Difficulty: chore.Difficulty}.EffectiveDifficulty()
		if !models.Recurrence(chore.Recurrence).IsValid() {
			chore.Recurrence = string(models.RecurrenceWeekly)
		}
		if chore.RequiredPeople < 1 {
			chore.RequiredPeople = 1
		}

		valid = append(valid, chore)
	}

	if len(valid) == 0 {
		return nil, ErrAINoValidTasks
	}

	return valid, nil
}

// addAssignments assigns users for the task's current week key. Pairs that
// already exist are skipped.
func (s *TaskService) addAssignments(task *models.Task, userIDs []uint64) error {
	if len(userIDs) == 0 {
		return nil
	}

	week := s.weekKey(task)
	assignments := make([]models.TaskAssignment, 0, len(userIDs))
	for _, userID := range userIDs {
		assignments = append(assignments, models.TaskAssignment{
			TaskID:    task.ID,
			UserID:    userID,
			WeekStart: week,
			Status:    models.AssignmentIncomplete,
		})
	}

	if !task.Recurrence.IsRecurring() {
		// NULL never conflicts in a unique index, so undated pairs are
		// filtered here
		existing, err := s.taskRepo.FindByID(task.ID, "Assignments")
		if err != nil {
			return storageError("find task", err)
		}
		assignments = withoutExisting(assignments, existing.Assignments)
		if len(assignments) == 0 {
			return nil
		}
	}

	if err := s.taskRepo.AddAssignments(assignments); err != nil {
		return storageError("add assignments", err)
	}
	metrics.AssignmentsCreated.WithLabelValues(metrics.SourceManual).Add(float64(len(assignments)))
	return nil
}

// loadTask loads a task of the group with its current assignments
func (s *TaskService) loadTask(groupID, taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, "Creator", "Assignments", "Assignments.User")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, storageError("find task", err)
	}

	if task.GroupID != groupID {
		return nil, ErrTaskNotFound
	}

	task.Assignments = s.currentAssignments(task)
	return task, nil
}

// currentAssignments keeps the assignments of the current week key
func (s *TaskService) currentAssignments(task *models.Task) []models.TaskAssignment {
	week := s.weekKey(task)
	current := make([]models.TaskAssignment, 0, len(task.Assignments))
	for _, a := range task.Assignments {
		if (week == nil && a.WeekStart == nil) || (week != nil && a.InWeek(*week)) {
			current = append(current, a)
		}
	}
	return current
}

// managedTask loads a task the actor may manage: its creator or the owner
// of the group
func (s *TaskService) managedTask(actorID, taskID uint64) (*GroupView, *models.Task, error) {
	view, err := s.groups.DescribeGroup(actorID)
	if err != nil {
		return nil, nil, err
	}

	task, err := s.loadTask(view.Group.ID, taskID)
	if err != nil {
		return nil, nil, err
	}

	if task.CreatedBy != actorID && !view.IsOwner(actorID) {
		return nil, nil, ErrTaskPermissionDenied
	}

	return view, task, nil
}

func ensureMembers(view *GroupView, userIDs []uint64) error {
	for _, id := range userIDs {
		if !view.IsMember(id) {
			return ErrInvalidTaskAssignee
		}
	}
	return nil
}

func withoutExisting(assignments, existing []models.TaskAssignment) []models.TaskAssignment {
	taken := make(map[uint64]struct{}, len(existing))
	for _, a := range existing {
		if a.WeekStart == nil {
			taken[a.UserID] = struct{}{}
		}
	}

	result := assignments[:0]
	for _, a := range assignments {
		if _, ok := taken[a.UserID]; !ok {
			result = append(result, a)
		}
	}
	return result
}

func validateTaskName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameRequired
	}
	if len(name) > constants.MaxTaskNameLen {
		return "", ErrNameTooLong
	}
	return name, nil
}

func validateTask(task *models.Task) error {
	if task.Difficulty < models.MinDifficulty || task.Difficulty > models.MaxDifficulty {
		return ErrInvalidDifficulty
	}
	if !task.Recurrence.IsValid() {
		return ErrInvalidRecurrence
	}
	if task.RequiredPeople != nil && *task.RequiredPeople < 1 {
		return ErrInvalidRequiredPeople
	}
	if task.Recurrence.IsRecurring() && task.Deadline != nil {
		return ErrDeadlineNotAllowed
	}
	return nil
}
