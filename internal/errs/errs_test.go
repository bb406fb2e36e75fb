package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	err := InsufficientBalance("not enough")
	assert.Equal(t, CodeInsufficientBalance, CodeOf(err))
	assert.True(t, HasCode(err, CodeInsufficientBalance))
	assert.False(t, HasCode(err, CodeConflict))

	// The code survives wrapping with %w
	wrapped := fmt.Errorf("while bumping: %w", err)
	assert.Equal(t, CodeInsufficientBalance, CodeOf(wrapped))

	// Errors without a code default to internal
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(CodeInvalidState, "could not decode the payment request", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, CodeInvalidState, CodeOf(err))
}
