package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/roommates-api/internal/constants"
	"github.com/yukikurage/roommates-api/internal/models"
	"github.com/yukikurage/roommates-api/internal/services"
)

type stubTasks map[uint64]models.Task

func (s stubTasks) GetTask(_, taskID uint64) (*models.Task, error) {
	if taskID == 500 {
		return nil, services.ErrStorageFailure
	}
	task, ok := s[taskID]
	if !ok {
		return nil, services.ErrTaskNotFound
	}
	return &task, nil
}

type stubGroups struct {
	groupID uint64
	err     error
}

func (s stubGroups) GroupIDForUser(uint64) (uint64, error) { return s.groupID, s.err }

func withUser(userID uint64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(constants.ContextKeyUserID, userID)
		c.Next()
	}
}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequireAuth(t *testing.T) {
	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("test-secret"))))
	r.POST("/login", func(c *gin.Context) {
		session := sessions.Default(c)
		session.Set(constants.ContextKeyUserID, uint64(42))
		require.NoError(t, session.Save())
		c.Status(http.StatusNoContent)
	})
	r.GET("/me", RequireAuth(), func(c *gin.Context) {
		userID, ok := GetUserID(c)
		assert.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": userID})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	for _, cookie := range w.Result().Cookies() {
		req.AddCookie(cookie)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":42}`, w.Body.String())
}

func TestRequireAuth_DiscardsUnreadableSession(t *testing.T) {
	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("test-secret"))))
	r.POST("/login", func(c *gin.Context) {
		session := sessions.Default(c)
		session.Set(constants.ContextKeyUserID, "not-a-number")
		require.NoError(t, session.Save())
		c.Status(http.StatusNoContent)
	})
	r.GET("/me", RequireAuth(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	for _, cookie := range w.Result().Cookies() {
		req.AddCookie(cookie)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestToUserID(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		want   uint64
		wantOK bool
	}{
		{name: "uint64", value: uint64(7), want: 7, wantOK: true},
		{name: "int", value: 7, want: 7, wantOK: true},
		{name: "json number", value: float64(7), want: 7, wantOK: true},
		{name: "fractional", value: 7.5, wantOK: false},
		{name: "negative", value: -1, wantOK: false},
		{name: "zero", value: uint64(0), wantOK: false},
		{name: "string", value: "7", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := toUserID(tt.value)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestRequireTaskAccess(t *testing.T) {
	r := gin.New()
	tasks := stubTasks{7: {ID: 7, Name: "Dishes"}}
	r.GET("/tasks/:id", withUser(1), RequireTaskAccess(tasks), func(c *gin.Context) {
		task, ok := GetTask(c)
		require.True(t, ok)
		c.String(http.StatusOK, task.Name)
	})

	tests := []struct {
		path string
		code int
	}{
		{"/tasks/7", http.StatusOK},
		{"/tasks/8", http.StatusNotFound},
		{"/tasks/abc", http.StatusBadRequest},
		{"/tasks/500", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
		assert.Equal(t, tt.code, w.Code, tt.path)
	}
}

func TestRequireGroupMember(t *testing.T) {
	handler := func(c *gin.Context) {
		groupID, ok := GetGroupID(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"group_id": groupID})
	}

	r := gin.New()
	r.GET("/member", withUser(1), RequireGroupMember(stubGroups{groupID: 3}), handler)
	r.GET("/loner", withUser(1), RequireGroupMember(stubGroups{err: services.ErrGroupNotFound}), handler)
	r.GET("/broken", withUser(1), RequireGroupMember(stubGroups{err: errors.New("boom")}), handler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/member", nil))
	assert.JSONEq(t, `{"group_id":3}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/loner", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/broken", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/ping", func(c *gin.Context) {
		id, ok := c.Get(constants.ContextKeyRequestID)
		require.True(t, ok)
		c.String(http.StatusOK, id.(string))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := w.Header().Get(constants.HeaderRequestID)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(constants.HeaderRequestID, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(constants.HeaderRequestID))
}
