package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/roommates-api/internal/constants"
	"github.com/yukikurage/roommates-api/internal/dto"
	apierrors "github.com/yukikurage/roommates-api/internal/errors"
	"github.com/yukikurage/roommates-api/internal/services"
)

func newAuthRouter(env *testEnv, userID uint64) (*gin.Engine, *AuthHandler) {
	handler := NewAuthHandler(env.authService)

	r := gin.New()
	store := cookie.NewStore([]byte("secret"))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))
	r.POST("/api/auth/signup", handler.Signup)
	r.POST("/api/auth/login", handler.Login)
	r.POST("/api/auth/logout", handler.Logout)
	r.DELETE("/api/auth/me", asUser(userID), handler.DeleteAccount)
	return r, handler
}

func TestAuthHandler_Signup(t *testing.T) {
	env := newTestEnv(t)
	r, _ := newAuthRouter(env, 0)

	payload := map[string]string{
		"username": "newuser",
		"email":    "newuser@example.com",
		"password": "supersecret",
	}
	w := doJSON(r, http.MethodPost, "/api/auth/signup", payload)

	require.Equal(t, http.StatusCreated, w.Code)

	response := decode[dto.UserDTO](t, w)
	require.Equal(t, payload["username"], response.Username)
}

func TestAuthHandler_SignupErrors(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "taken")
	r, _ := newAuthRouter(env, 0)

	tests := []struct {
		name       string
		payload    map[string]string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "short password",
			payload:    map[string]string{"username": "shorty", "password": "short"},
			wantStatus: http.StatusBadRequest,
			wantCode:   apierrors.ErrCodeInvalidInput,
		},
		{
			name:       "duplicate username",
			payload:    map[string]string{"username": "taken", "password": "supersecret"},
			wantStatus: http.StatusConflict,
			wantCode:   apierrors.ErrCodeConflict,
		},
		{
			name:       "missing username",
			payload:    map[string]string{"password": "supersecret"},
			wantStatus: http.StatusBadRequest,
			wantCode:   apierrors.ErrCodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, "/api/auth/signup", tt.payload)

			require.Equal(t, tt.wantStatus, w.Code)
			require.Equal(t, tt.wantCode, decode[apierrors.APIError](t, w).Code)
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "existing")
	r, _ := newAuthRouter(env, 0)

	w := doJSON(r, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "existing",
		"password": "supersecret",
	})

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "existing", decode[dto.UserDTO](t, w).Username)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies, "expected session cookie to be set")
}

func TestAuthHandler_LoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "existing")
	r, _ := newAuthRouter(env, 0)

	w := doJSON(r, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "existing",
		"password": "wrong-password",
	})

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, apierrors.ErrCodeInvalidCredentials, decode[apierrors.APIError](t, w).Code)
}

func TestAuthHandler_GetCurrentUser(t *testing.T) {
	env := newTestEnv(t)
	user := env.signup(t, "current-user")
	handler := NewAuthHandler(env.authService)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(constants.ContextKeyUserID, user.ID)

	handler.GetCurrentUser(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, user.Username, decode[dto.UserDTO](t, w).Username)
}

func TestAuthHandler_GetCurrentUserUnauthenticated(t *testing.T) {
	env := newTestEnv(t)
	handler := NewAuthHandler(env.authService)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	handler.GetCurrentUser(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_DeleteAccountHandsOverOwnership(t *testing.T) {
	env := newTestEnv(t)
	owner := env.signup(t, "owner")
	mate := env.signup(t, "mate")
	env.household(t, "Flat", owner, mate)

	r, _ := newAuthRouter(env, owner.ID)
	w := doJSON(r, http.MethodDelete, "/api/auth/me", nil)

	require.Equal(t, http.StatusOK, w.Code)

	_, err := env.authService.GetUser(owner.ID)
	require.ErrorIs(t, err, services.ErrUserNotFound)

	view, err := env.groupService.DescribeGroup(mate.ID)
	require.NoError(t, err)
	require.Equal(t, mate.ID, view.Group.OwnerID)
	require.Len(t, view.Members, 1)
}
