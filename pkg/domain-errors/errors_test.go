package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesThroughWrapping(t *testing.T) {
	base := New(CodeIneligibleAge, "too young")
	wrapped := fmt.Errorf("create patient: %w", base)

	assert.True(t, Is(wrapped, CodeIneligibleAge))
	assert.False(t, Is(wrapped, CodeConflict))
	assert.False(t, Is(errors.New("plain"), CodeIneligibleAge))
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
	assert.Equal(t, CodeStorageUnavailable, CodeOf(Wrap(CodeStorageUnavailable, "down", errors.New("dial"))))
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Wrap(CodeStorageUnavailable, "storage is unavailable", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "storage_unavailable")
	assert.Contains(t, err.Error(), "refused")
}

func TestToHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, ToHTTPStatus(CodeBadRequest))
	assert.Equal(t, http.StatusNotFound, ToHTTPStatus(CodeNotFound))
	assert.Equal(t, http.StatusUnprocessableEntity, ToHTTPStatus(CodeIneligibleAge))
	assert.Equal(t, http.StatusConflict, ToHTTPStatus(CodeConflict))
	assert.Equal(t, http.StatusServiceUnavailable, ToHTTPStatus(CodeUpdateFailedAfterPurge))
	assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus(Code("mystery")))
}
