package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/roommates-api/internal/database"
	"github.com/yukikurage/roommates-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// monday is the start of a scheduling week in UTC
var monday = time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig(logger.Silent))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: opens a fresh database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.AllModels()...))
	require.NoError(t, database.AddIndexes(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, PasswordHash: "hashed"}
	require.NoError(t, db.Create(user).Error)
	return user
}

// createGroup creates a group owned by the first user. Members join one
// hour apart in argument order.
func createGroup(t *testing.T, db *gorm.DB, name string, users ...*models.User) *models.Group {
	t.Helper()
	require.NotEmpty(t, users)

	group := &models.Group{Name: name, JoinCode: name[:1] + "CDE", OwnerID: users[0].ID}
	require.NoError(t, db.Omit("Members", "Tasks").Create(group).Error)

	for i, u := range users {
		member := &models.GroupMember{
			GroupID:  group.ID,
			UserID:   u.ID,
			JoinedAt: monday.Add(-time.Duration(len(users)-i) * time.Hour),
		}
		require.NoError(t, db.Omit("Group", "User").Create(member).Error)
	}
	return group
}

func createTask(t *testing.T, db *gorm.DB, group *models.Group, creator *models.User, name string, required *int) *models.Task {
	t.Helper()
	task := &models.Task{
		GroupID:        group.ID,
		Name:           name,
		Difficulty:     1,
		Recurrence:     models.RecurrenceWeekly,
		RequiredPeople: required,
		CreatedBy:      creator.ID,
	}
	require.NoError(t, db.Omit("Creator", "Group", "Assignments").Create(task).Error)
	return task
}

func intPtr(v int) *int { return &v }

func member(userID uint64, username string, joined time.Time) models.GroupMember {
	return models.GroupMember{
		UserID:   userID,
		JoinedAt: joined,
		User:     models.User{ID: userID, Username: username},
	}
}
