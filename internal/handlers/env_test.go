package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/roommates-api/internal/constants"
	"github.com/yukikurage/roommates-api/internal/database"
	"github.com/yukikurage/roommates-api/internal/models"
	"github.com/yukikurage/roommates-api/internal/realtime"
	"github.com/yukikurage/roommates-api/internal/repository"
	"github.com/yukikurage/roommates-api/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testEnv wires the real services over an in-memory database
type testEnv struct {
	db           *gorm.DB
	hub          *realtime.Hub
	authService  *services.AuthService
	groupService *services.GroupService
	taskService  *services.TaskService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig(logger.Silent))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(database.AllModels()...))
	require.NoError(t, database.AddIndexes(db))

	hub := realtime.NewHub()
	t.Cleanup(hub.Close)

	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	groupService := services.NewGroupService(groupRepo, userRepo, hub)

	return &testEnv{
		db:           db,
		hub:          hub,
		authService:  services.NewAuthService(userRepo, groupService),
		groupService: groupService,
		taskService:  services.NewTaskService(taskRepo, groupService, nil, hub, time.UTC),
	}
}

func (e *testEnv) signup(t *testing.T, username string) *models.User {
	t.Helper()

	user, err := e.authService.Signup(services.SignupInput{
		Username: username,
		Password: "supersecret",
	})
	require.NoError(t, err)
	return user
}

// household creates a group owned by the first user and joined by the rest
func (e *testEnv) household(t *testing.T, name string, users ...*models.User) *services.GroupView {
	t.Helper()

	view, err := e.groupService.CreateGroup(users[0].ID, name)
	require.NoError(t, err)
	for _, u := range users[1:] {
		view, err = e.groupService.JoinGroup(u.ID, view.Group.JoinCode)
		require.NoError(t, err)
	}
	return view
}

// asUser stands in for RequireAuth
func asUser(userID uint64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(constants.ContextKeyUserID, userID)
		c.Next()
	}
}

func doJSON(r http.Handler, method, path string, payload any) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if payload == nil {
		body = bytes.NewReader(nil)
	} else {
		raw, _ := json.Marshal(payload)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
