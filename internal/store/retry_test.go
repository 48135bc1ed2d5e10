package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRetryWithBackoff_RetriesBusyThenSucceeds(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked (5) (SQLITE_BUSY)")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestRetryWithBackoff_StopsOnPermanentError(t *testing.T) {
	boom := errors.New("UNIQUE constraint failed: cache_documents.collection, cache_documents.key")
	calls := 0
	err := RetryWithBackoff(func() error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, calls)
}

func TestIsUniqueConstraintErr(t *testing.T) {
	require.False(t, IsUniqueConstraintErr(nil))
	require.True(t, IsUniqueConstraintErr(errors.New("constraint failed: UNIQUE constraint failed: x")))
	require.False(t, IsUniqueConstraintErr(errors.New("database is locked")))
}
