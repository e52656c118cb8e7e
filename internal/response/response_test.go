package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sinar-app/sinar-api/internal/apperror"
	"github.com/sinar-app/sinar-api/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	UseFieldTags()
}

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestOK(t *testing.T) {
	c, w := newContext()
	OK(c, http.StatusCreated, "Category created successfully", gin.H{"id": 1})

	body := decode(t, w)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, body["status"])
	assert.Equal(t, float64(201), body["code"])
	assert.Equal(t, "Category created successfully", body["message"])
	assert.Equal(t, map[string]any{"id": float64(1)}, body["data"])
	assert.NotContains(t, body, "total")
}

func TestPage(t *testing.T) {
	c, w := newContext()
	Page(c, http.StatusOK, "ok", &query.Page[int]{Total: 3, Page: 1, Limit: 2, Data: []int{1, 2}, TotalPages: 2, HasNext: true})

	body := decode(t, w)
	assert.Equal(t, float64(3), body["total"])
	assert.Equal(t, float64(2), body["totalPages"])
	assert.Equal(t, true, body["hasNext"])
	assert.Equal(t, false, body["hasPrev"])
	assert.Equal(t, []any{float64(1), float64(2)}, body["data"])
}

func TestErrorHidesInternalCauses(t *testing.T) {
	c, w := newContext()
	Error(c, apperror.Internal("Failed to upload file", errors.New("dial tcp 10.1.2.3:9000")))

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["status"])
	assert.Equal(t, "Failed to upload file", body["message"])
	assert.NotContains(t, w.Body.String(), "10.1.2.3")
	assert.NotContains(t, body, "data")
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{apperror.NotFound("Document not found"), http.StatusNotFound},
		{apperror.Forbidden("Admin access required"), http.StatusForbidden},
		{apperror.Unauthorized("Invalid or expired token"), http.StatusUnauthorized},
		{apperror.Conflict("Username already exists"), http.StatusConflict},
		{apperror.Validation("q is required"), http.StatusBadRequest},
	}
	for _, tt := range tests {
		c, w := newContext()
		Error(c, tt.err)
		assert.Equal(t, tt.code, w.Code)
		assert.Equal(t, float64(tt.code), decode(t, w)["code"])
	}
}

type loginBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

func bind(body string) error {
	c, _ := newContext()
	c.Request = httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	var req loginBody
	return c.ShouldBindJSON(&req)
}

func TestFromBinding(t *testing.T) {
	err := FromBinding(bind(`{"password":"short"}`))
	assert.Equal(t, apperror.KindValidation, err.Kind)
	assert.Equal(t, "username is required; password must be at least 8 characters", err.Message)

	err = FromBinding(bind(`{"username":`))
	assert.Equal(t, apperror.KindValidation, err.Kind)
	assert.Equal(t, "Invalid request body", err.Message)

	err = FromBinding(bind(`{"username": 5, "password": "longenough"}`))
	assert.Equal(t, "Invalid request body", err.Message)

	err = FromBinding(bind(``))
	assert.Equal(t, "Invalid request body", err.Message)

	err = FromBinding(apperror.NotFound("User not found"))
	assert.Equal(t, apperror.KindNotFound, err.Kind)
}
