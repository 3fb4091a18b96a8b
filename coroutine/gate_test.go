package coroutine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGate_OpenIsIdempotentAndObservable(t *testing.T) {
	g := NewGate()
	assert.False(t, g.IsOpen())

	g.Open()
	assert.True(t, g.IsOpen())

	g.Open() // idempotent
	assert.True(t, g.IsOpen())
}

func TestGate_WaitResolvesOnceOpen(t *testing.T) {
	g := NewGate()
	instr := g.Wait().toInstruction()

	assert.False(t, instr.Tick(0))
	g.Open()
	assert.True(t, instr.Tick(0))
}
