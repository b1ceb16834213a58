package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserError(t *testing.T) {
	inner := errors.New("disk full")
	err := NewUserError("could not save the application", inner)

	assert.Equal(t, "could not save the application: disk full", err.Error())
	assert.ErrorIs(t, err, inner)

	var userErr *UserError
	require.ErrorAs(t, fmt.Errorf("wrapped: %w", err), &userErr)
	assert.Equal(t, "could not save the application", userErr.UserMessage)
}

func TestUserErrorWithoutCause(t *testing.T) {
	err := &UserError{UserMessage: "nothing to resume"}

	assert.Equal(t, "nothing to resume", err.Error())
	assert.Nil(t, errors.Unwrap(err))
}
