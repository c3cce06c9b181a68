package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		respond    func(c *gin.Context)
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"not found default", func(c *gin.Context) { NotFound(c, "") }, http.StatusNotFound, ErrCodeNotFound, "Resource not found"},
		{"conflict custom", func(c *gin.Context) { Conflict(c, "taken") }, http.StatusConflict, ErrCodeConflict, "taken"},
		{"storage failure", func(c *gin.Context) { StorageFailure(c, "") }, http.StatusInternalServerError, ErrCodeStorageFailure, "Storage temporarily unavailable, please retry"},
		{"unavailable", func(c *gin.Context) { ServiceUnavailable(c, "") }, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Service temporarily unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			tt.respond(c)

			assert.True(t, c.IsAborted())
			require.Equal(t, tt.wantStatus, w.Code)

			var body APIError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, tt.wantMsg, body.Message)
		})
	}
}

func TestBadRequestWithDetails(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	BadRequestWithDetails(c, "Invalid recurrence", gin.H{"allowed": []string{"weekly"}})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"code":"INVALID_INPUT","message":"Invalid recurrence","details":{"allowed":["weekly"]}}`, w.Body.String())
}
