package repository

import (
	"time"

	"github.com/yukikurage/roommates-api/internal/database"
	"github.com/yukikurage/roommates-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Omit(clause.Associations).Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	// Apply preloading if specified
	for _, p := range preload {
		if p == "Assignments" {
			query = query.Preload("Assignments", func(db *gorm.DB) *gorm.DB {
				return db.Order("task_assignments.id")
			})
			continue
		}
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks with filtering and pagination. Assignments of the
// filter's week and undated ones are preloaded.
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := r.db.Model(&models.Task{}).Where("tasks.group_id = ?", filter.GroupID)

	// Apply filters
	if filter.Recurrence != nil {
		query = query.Where("tasks.recurrence = ?", *filter.Recurrence)
	}
	if filter.AssignedUserID != nil {
		assignmentSubQuery := r.db.Model(&models.TaskAssignment{}).
			Select("1").
			Where("task_assignments.task_id = tasks.id").
			Where("task_assignments.user_id = ?", *filter.AssignedUserID).
			Scopes(database.CurrentOrUndated(filter.WeekStart))
		query = query.Where("EXISTS (?)", assignmentSubQuery)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query
	if filter.SortByDeadline {
		listQuery = listQuery.Order("CASE WHEN tasks.deadline IS NULL THEN 1 ELSE 0 END, tasks.deadline ASC, tasks.id ASC")
	} else {
		listQuery = listQuery.Order("tasks.created_at DESC, tasks.id DESC")
	}

	if filter.Pagination.Limit > 0 {
		listQuery = listQuery.Scopes(database.Paginate(filter.Pagination))
	}

	err := listQuery.
		Preload("Creator").
		Preload("Assignments", func(db *gorm.DB) *gorm.DB {
			return db.Scopes(database.CurrentOrUndated(filter.WeekStart)).Order("task_assignments.id")
		}).
		Preload("Assignments.User").
		Find(&tasks).Error
	if err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// ListRecurringByGroup loads recurring tasks with one week's assignments
func (r *GormTaskRepository) ListRecurringByGroup(groupID uint64, weekStart time.Time) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.
		Preload("Assignments", func(db *gorm.DB) *gorm.DB {
			return db.Scopes(database.ForWeek(&weekStart)).Order("task_assignments.id")
		}).
		Where("group_id = ? AND recurrence <> ?", groupID, models.RecurrenceOneTime).
		Order("id").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update updates a task's own columns
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Omit(clause.Associations).Save(task).Error
}

// Delete soft deletes a task
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Task{}, id).Error
	})
}

// AddAssignments inserts assignments, ignoring duplicates of existing rows
func (r *GormTaskRepository) AddAssignments(assignments []models.TaskAssignment) error {
	if len(assignments) == 0 {
		return nil
	}
	return r.db.
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&assignments).Error
}

// RemoveAssignments removes user assignments from a task for one week
func (r *GormTaskRepository) RemoveAssignments(taskID uint64, userIDs []uint64, weekStart *time.Time) error {
	return r.db.
		Scopes(database.ForWeek(weekStart)).
		Where("task_id = ? AND user_id IN ?", taskID, userIDs).
		Delete(&models.TaskAssignment{}).Error
}

// FindAssignment finds a specific task assignment
func (r *GormTaskRepository) FindAssignment(taskID, userID uint64, weekStart *time.Time) (*models.TaskAssignment, error) {
	var assignment models.TaskAssignment
	err := r.db.
		Scopes(database.ForWeek(weekStart)).
		Where("task_id = ? AND user_id = ?", taskID, userID).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// UpdateAssignment saves an assignment
func (r *GormTaskRepository) UpdateAssignment(assignment *models.TaskAssignment) error {
	return r.db.Omit(clause.Associations).Save(assignment).Error
}
