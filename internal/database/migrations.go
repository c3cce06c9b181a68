package database

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

// AddIndexes adds the composite indexes the hot read paths rely on. Single
// column indexes come from model tags.
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Members of a group in join order (owner repair, scheduler fairness)
		{"group_members", "idx_group_members_group_joined", "group_id, joined_at, user_id"},

		// Recurring tasks of a group
		{"tasks", "idx_tasks_group_recurrence", "group_id, recurrence"},

		// Assignments of a task for a given week
		{"task_assignments", "idx_task_assignments_task_week", "task_id, week_start"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.table, idx.name) {
			slog.Debug("Index already exists, skipping", "index", idx.name)
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		slog.Info("Created index", "index", idx.name, "table", idx.table, "columns", idx.columns)
	}

	return nil
}
