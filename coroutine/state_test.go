package coroutine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoroutineState_String(t *testing.T) {
	cases := map[CoroutineState]string{
		Initializing: "Initializing",
		Running:      "Running",
		Waiting:      "Waiting",
		Paused:       "Paused",
		Completed:    "Completed",
	}
	for state, want := range cases {
		assert.Equal(t, want, state.String())
	}
}

func TestCoroutineState_Terminal(t *testing.T) {
	assert.True(t, Completed.terminal())
	assert.False(t, Initializing.terminal())
	assert.False(t, Running.terminal())
	assert.False(t, Waiting.terminal())
	assert.False(t, Paused.terminal())
}
