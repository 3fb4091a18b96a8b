package enginefeed

import (
	"context"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/small-java-world/GameEngine/coroutine"
)

func TestNewDriver_NilSchedulerPanics(t *testing.T) {
	assert.Panics(t, func() { NewDriver(nil) })
}

func TestDriver_Update_FirstCallHasZeroDt(t *testing.T) {
	mock := clock.NewMock()
	sched := coroutine.NewScheduler()
	driver := NewDriver(sched, WithClock(mock))

	yielded := false
	sched.Start(coroutine.StepSourceFunc(func() (coroutine.Yield, bool) {
		if yielded {
			return coroutine.Yield{}, false
		}
		yielded = true
		return coroutine.Seconds(0.05), true
	}))

	driver.Update() // dt == 0, so the 0.05s wait has not elapsed
	assert.Equal(t, 1, sched.ActiveCount())

	mock.Add(100 * time.Millisecond)
	driver.Update() // dt == 0.1
	assert.Equal(t, 0, sched.ActiveCount())
}

func TestDriver_Run_StopsOnContextCancel(t *testing.T) {
	mock := clock.NewMock()
	sched := coroutine.NewScheduler()
	driver := NewDriver(sched, WithClock(mock))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		driver.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestDriver_Scheduler_ReturnsWrapped(t *testing.T) {
	sched := coroutine.NewScheduler()
	driver := NewDriver(sched)
	require.Same(t, sched, driver.Scheduler())
}
