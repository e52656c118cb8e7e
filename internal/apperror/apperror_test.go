package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestKindStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, KindValidation.Status())
	assert.Equal(t, http.StatusUnauthorized, KindUnauthorized.Status())
	assert.Equal(t, http.StatusForbidden, KindForbidden.Status())
	assert.Equal(t, http.StatusNotFound, KindNotFound.Status())
	assert.Equal(t, http.StatusConflict, KindConflict.Status())
	assert.Equal(t, http.StatusInternalServerError, KindInternal.Status())
}

func TestFrom(t *testing.T) {
	t.Run("passes through wrapped app errors", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", NotFound("Document not found"))
		got := From(err)
		require.NotNil(t, got)
		assert.Equal(t, KindNotFound, got.Kind)
		assert.Equal(t, "Document not found", got.Message)
	})

	t.Run("record not found", func(t *testing.T) {
		got := From(gorm.ErrRecordNotFound)
		assert.Equal(t, KindNotFound, got.Kind)
	})

	t.Run("unknown errors stay generic", func(t *testing.T) {
		got := From(errors.New("dial tcp 10.0.0.5:9000: connection refused"))
		assert.Equal(t, KindInternal, got.Kind)
		assert.Equal(t, "Internal server error", got.Message)
		assert.NotContains(t, got.Message, "10.0.0.5")
	})

	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, From(nil))
	})
}

func TestIs(t *testing.T) {
	assert.True(t, Is(Validation("bad %s", "input"), KindValidation))
	assert.False(t, Is(Validation("bad"), KindNotFound))
	assert.False(t, Is(errors.New("plain"), KindInternal))
}
