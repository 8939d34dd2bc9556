package apperrors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jobcrew/auth_backend/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_IsMatchesByCode(t *testing.T) {
	err := apperrors.ErrExpiredRefreshToken.WithDetail("stored token expired")

	assert.True(t, errors.Is(err, apperrors.ErrExpiredRefreshToken))
	assert.False(t, errors.Is(err, apperrors.ErrInvalidRefreshToken))
}

func TestAppError_WithDetailDoesNotMutateCatalogue(t *testing.T) {
	_ = apperrors.ErrBadCredential.WithDetail("something")

	assert.Empty(t, apperrors.ErrBadCredential.Detail)
}

func TestAppError_WrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("refresh: %w", apperrors.ErrInternal.Wrap(cause))

	assert.True(t, errors.Is(err, cause))
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Equal(t, "C500", appErr.Code)
}

func TestAsAppError_PlainError(t *testing.T) {
	_, ok := apperrors.AsAppError(errors.New("boom"))
	assert.False(t, ok)
}
