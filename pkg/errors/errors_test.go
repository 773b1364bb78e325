package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorWrapsUnknownErrors(t *testing.T) {
	appErr := FromError(fmt.Errorf("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Nil(t, FromError(nil))
}

func TestCloneMatchesTemplate(t *testing.T) {
	clone := Clone(ErrValidation, "studentId is required")
	wrapped := fmt.Errorf("trend: %w", clone)

	assert.True(t, errors.Is(wrapped, ErrValidation))
	assert.False(t, errors.Is(wrapped, ErrNotFound))
	assert.Equal(t, "studentId is required", FromError(wrapped).Message)
	assert.Equal(t, "validation failed", ErrValidation.Message)
}

func TestWrapAsKeepsCause(t *testing.T) {
	cause := errors.New("pq: connection refused")
	err := WrapAs(cause, ErrInternal, "failed to load scores")

	assert.ErrorIs(t, err, ErrInternal)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.Equal(t, "failed to load scores: pq: connection refused", err.Error())

	assert.Equal(t, ErrNoData.Message, WrapAs(cause, ErrNoData, "").Message)
}

func TestNoDataIsDistinctFromNotFound(t *testing.T) {
	assert.False(t, errors.Is(ErrNoData, ErrNotFound))
	assert.Equal(t, http.StatusNotFound, ErrNoData.Status)
}
