package coroutine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvalidArgumentError_Error(t *testing.T) {
	err := &InvalidArgumentError{Reason: "negative duration"}
	assert.Contains(t, err.Error(), "negative duration")
}

func TestUseAfterDisposeError_Error(t *testing.T) {
	err := &UseAfterDisposeError{Instruction: "WaitForSeconds"}
	assert.Contains(t, err.Error(), "WaitForSeconds")
	assert.Contains(t, err.Error(), "Dispose")
}

func TestNotFoundError_Error(t *testing.T) {
	err := &NotFoundError{ID: 42}
	assert.Contains(t, err.Error(), "42")
}

func TestNewStepSourceFailure(t *testing.T) {
	err := newStepSourceFailure(7, "boom")
	assert.Equal(t, HandleID(7), err.ID)
	assert.Equal(t, "boom", err.Recovered)
	assert.NotEmpty(t, err.StackTrace)
	assert.Contains(t, err.Error(), "boom")
}
