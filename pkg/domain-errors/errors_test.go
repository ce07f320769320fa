package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct code", func(t *testing.T) {
		err := New(CodeNotFound, "check not found")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeConflict))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("load: %w", New(CodeInvariantViolation, "bad state"))
		assert.True(t, HasCode(err, CodeInvariantViolation))
	})

	t.Run("matches inner coded error", func(t *testing.T) {
		inner := New(CodeInvariantViolation, "bad state")
		err := Wrap(inner, CodeInternal, "process check")
		assert.True(t, HasCode(err, CodeInternal))
		assert.True(t, HasCode(err, CodeInvariantViolation))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "nothing"))

	cause := errors.New("connection refused")
	err := Wrap(cause, CodeUnavailable, "save check")
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "save check: connection refused", err.Error())
	assert.Equal(t, CodeUnavailable, CodeOf(err))
}

func TestToHTTPStatus(t *testing.T) {
	tests := map[Code]int{
		CodeValidation:         http.StatusBadRequest,
		CodeInvalidInput:       http.StatusBadRequest,
		CodeNotFound:           http.StatusNotFound,
		CodeInvariantViolation: http.StatusConflict,
		CodeRateLimited:        http.StatusTooManyRequests,
		CodeUnavailable:        http.StatusServiceUnavailable,
		CodeInternal:           http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, ToHTTPStatus(code), string(code))
	}
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}
