package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	base := errors.New("database is locked")
	wrapped := fmt.Errorf("failed to reconcile: %w", &RetryableError{Op: "reconcile", Err: base})

	assert.True(t, IsRetryable(wrapped))
	assert.ErrorIs(t, wrapped, base)
	assert.False(t, IsRetryable(base))
	assert.False(t, IsRetryable(nil))
}

func TestNotFoundf(t *testing.T) {
	err := NotFoundf("event %s", "e1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "event e1: not found", err.Error())
}
