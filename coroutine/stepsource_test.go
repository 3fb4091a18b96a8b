package coroutine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeconds_NegativePanics(t *testing.T) {
	assert.Panics(t, func() { Seconds(-1) })
}

func TestUntil_NilPanics(t *testing.T) {
	assert.Panics(t, func() { Until(nil) })
}

func TestChild_NilPanics(t *testing.T) {
	assert.Panics(t, func() { Child(nil) })
}

func TestYield_ToInstruction(t *testing.T) {
	switch inst := Seconds(1.5).toInstruction().(type) {
	case *WaitForSeconds:
		assert.Equal(t, 1.5, inst.duration)
	default:
		t.Fatalf("unexpected instruction type %T", inst)
	}

	called := false
	pred := func() bool { called = true; return true }
	switch inst := Until(pred).toInstruction().(type) {
	case *WaitUntil:
		assert.True(t, inst.Tick(0))
		assert.True(t, called)
	default:
		t.Fatalf("unexpected instruction type %T", inst)
	}
}

func TestYield_ToInstructionPanicsOnChild(t *testing.T) {
	y := Child(StepSourceFunc(func() (Yield, bool) { return Yield{}, false }))
	assert.Panics(t, func() { y.toInstruction() })
}

func TestGroupYield_RequiresNonEmptyNonNilSources(t *testing.T) {
	assert.Panics(t, func() { groupYield(nil) })
	assert.Panics(t, func() { groupYield([]StepSource{nil}) })
}

func TestStepSourceFunc_Advance(t *testing.T) {
	calls := 0
	f := StepSourceFunc(func() (Yield, bool) {
		calls++
		return Seconds(1), true
	})
	y, ok := f.Advance()
	assert.True(t, ok)
	assert.Equal(t, yieldSeconds, y.kind)
	assert.Equal(t, 1, calls)
}
