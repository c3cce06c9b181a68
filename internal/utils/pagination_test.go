package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/yukikurage/roommates-api/internal/constants"
)

func TestGetPaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query string
		want  PaginationParams
	}{
		{"", PaginationParams{Page: 1, Limit: constants.DefaultPageSize, Offset: 0}},
		{"?page=3&limit=10", PaginationParams{Page: 3, Limit: 10, Offset: 20}},
		{"?page=0&limit=1000", PaginationParams{Page: 1, Limit: constants.DefaultPageSize, Offset: 0}},
		{"?page=abc", PaginationParams{Page: 1, Limit: constants.DefaultPageSize, Offset: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/api/tasks"+tt.query, nil)

			assert.Equal(t, tt.want, GetPaginationParams(c))
		})
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 20))
	assert.Equal(t, 1, TotalPages(20, 20))
	assert.Equal(t, 2, TotalPages(21, 20))
	assert.Equal(t, 0, TotalPages(5, 0))
}
