package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errSentinel = stderrors.New("sentinel")

func TestAppError_Error(t *testing.T) {
	err := NewAppError(ErrCodeInvalidInput, "name is required", http.StatusBadRequest)
	assert.Equal(t, "INVALID_INPUT: name is required", err.Error())
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus)

	wrapped := InvalidInput(errSentinel, "bad draw")
	assert.Equal(t, "INVALID_INPUT: bad draw (caused by: sentinel)", wrapped.Error())
}

func TestAppError_UnwrapMatchesCause(t *testing.T) {
	err := Forbidden(errSentinel, "cannot clear another canvas")
	assert.ErrorIs(t, err, errSentinel)

	outer := fmt.Errorf("handling event: %w", err)
	assert.ErrorIs(t, outer, errSentinel)
}

func TestGetAppError(t *testing.T) {
	assert.Nil(t, GetAppError(nil))
	assert.Nil(t, GetAppError(errSentinel))

	appErr := NotFound(errSentinel, "recipient")
	outer := fmt.Errorf("relay: %w", appErr)
	got := GetAppError(outer)
	if assert.NotNil(t, got) {
		assert.Equal(t, ErrCodeNotFound, got.Code)
		assert.Equal(t, "recipient not found", got.Message)
	}
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrCodeInternal, CodeOf(errSentinel))
	assert.Equal(t, ErrCodeRateLimit, CodeOf(NewRateLimitError()))
	assert.Equal(t, ErrCodeInvalidInput, CodeOf(fmt.Errorf("x: %w", InvalidInput(errSentinel, "y"))))
}

func TestWithContext(t *testing.T) {
	err := NewInternalError("boom").WithContext("participant_id", "p-1")
	assert.Equal(t, "p-1", err.Context["participant_id"])

	var bare AppError
	bare.WithContext("k", 1)
	assert.Equal(t, 1, bare.Context["k"])
}
