package coroutine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewHandle_Defaults(t *testing.T) {
	src := StepSourceFunc(func() (Yield, bool) { return Yield{}, false })
	h := newHandle(1, "root", src)
	assert.Equal(t, HandleID(1), h.ID())
	assert.Equal(t, "root", h.Name())
	assert.Equal(t, Initializing, h.State())
	assert.True(t, h.isFirstTick)
}

func TestCoroutineHandle_RemoveChild(t *testing.T) {
	h := newHandle(1, "p", nil)
	h.children = []HandleID{2, 3, 4}
	h.removeChild(3)
	assert.Equal(t, []HandleID{2, 4}, h.children)
	// Removing an absent id is a no-op.
	h.removeChild(99)
	assert.Equal(t, []HandleID{2, 4}, h.children)
}

func TestCoroutineHandle_HasBlockingChildren(t *testing.T) {
	registry := map[HandleID]*CoroutineHandle{
		2: {id: 2, state: Completed},
		3: {id: 3, state: Waiting},
	}
	h := &CoroutineHandle{children: []HandleID{2, 3}}
	assert.True(t, h.hasBlockingChildren(registry))

	h.children = []HandleID{2}
	assert.False(t, h.hasBlockingChildren(registry))
}

func TestCoroutineHandle_DisposeYieldIdempotent(t *testing.T) {
	disposed := 0
	h := &CoroutineHandle{currentYield: &recordingInstruction{onDispose: func() { disposed++ }}}
	h.disposeYield()
	h.disposeYield()
	assert.Equal(t, 1, disposed)
	assert.Nil(t, h.currentYield)
}

type recordingInstruction struct {
	onDispose func()
}

func (r *recordingInstruction) Tick(dt float64) bool { return true }
func (r *recordingInstruction) Dispose() {
	if r.onDispose != nil {
		r.onDispose()
	}
}
func (r *recordingInstruction) name() string { return "recording" }
