package coroutine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWaitForSeconds_Tick(t *testing.T) {
	w := NewWaitForSeconds(1.0)
	assert.False(t, w.Tick(0.5))
	assert.False(t, w.Tick(0.4))
	assert.True(t, w.Tick(0.2))
	// Stays done regardless of further ticks.
	assert.True(t, w.Tick(0))
}

func TestWaitForSeconds_Zero(t *testing.T) {
	w := NewWaitForSeconds(0)
	assert.True(t, w.Tick(0))
}

func TestWaitForSeconds_NegativeDurationPanics(t *testing.T) {
	assert.Panics(t, func() { NewWaitForSeconds(-1) })
}

func TestWaitForSeconds_UseAfterDispose(t *testing.T) {
	w := NewWaitForSeconds(1.0)
	w.Dispose()
	w.Dispose() // idempotent
	assert.Panics(t, func() { w.Tick(0.1) })
}

func TestWaitUntil_Tick(t *testing.T) {
	flag := false
	w := NewWaitUntil(func() bool { return flag })
	assert.False(t, w.Tick(0))
	flag = true
	assert.True(t, w.Tick(0))
}

func TestWaitUntil_NilPredicatePanics(t *testing.T) {
	assert.Panics(t, func() { NewWaitUntil(nil) })
}

func TestWaitForChild_TickAlwaysResolves(t *testing.T) {
	w := &WaitForChild{child: 3}
	assert.True(t, w.Tick(0))
	assert.Equal(t, HandleID(3), w.ChildID())
}

func TestWaitForChild_UseAfterDispose(t *testing.T) {
	w := &WaitForChild{child: 1}
	w.Dispose()
	assert.Panics(t, func() { w.Tick(0) })
}
