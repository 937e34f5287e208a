package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneMatchesOriginalCode(t *testing.T) {
	clone := Clone(ErrNotFound, "file not found")
	require.Equal(t, "file not found", clone.Message)
	assert.True(t, stderrors.Is(clone, ErrNotFound))
	assert.False(t, stderrors.Is(clone, ErrConflict))
}

func TestWrappedStoreErrorIsDetectable(t *testing.T) {
	cause := fmt.Errorf("pq: duplicate key value violates unique constraint")
	err := fmt.Errorf("create student: %w", Wrap(cause, ErrDuplicateKey.Code, ErrDuplicateKey.Status, "email already registered"))

	assert.True(t, stderrors.Is(err, ErrDuplicateKey))
	assert.False(t, stderrors.Is(err, ErrConstraint))
	assert.ErrorIs(t, err, cause)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(fmt.Errorf("boom"))
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Equal(t, ErrInternal.Code, appErr.Code)

	assert.Nil(t, FromError(nil))
	assert.Equal(t, http.StatusTooManyRequests, FromError(ErrTooManyUploads).Status)
}
