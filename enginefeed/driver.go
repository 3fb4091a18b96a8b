// Copyright (c) 2017 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package enginefeed adapts coroutine.Scheduler to an external engine main
// loop: something outside this module's scope owns frame pacing and calls
// Update once per frame. Driver is the thin bridge that converts wall-clock
// time into dt float64 calls to Scheduler.Tick.
package enginefeed

import (
	"context"
	"time"

	"github.com/facebookgo/clock"
	"go.uber.org/zap"

	"github.com/small-java-world/GameEngine/coroutine"
)

// Driver owns the wall-clock bookkeeping between frames and feeds the
// elapsed seconds to a *coroutine.Scheduler as dt. It does not own the
// Scheduler: callers Start coroutines on it directly, before or after
// construction, and inspect it (ActiveCount, DebugTree) at any time.
type Driver struct {
	scheduler *coroutine.Scheduler
	clock     clock.Clock
	logger    *zap.Logger

	lastTick time.Time
	started  bool
}

// DriverOption configures a Driver, mirroring coroutine.SchedulerOption.
type DriverOption func(*Driver)

// WithClock overrides the wall clock Driver uses to measure dt between
// frames. Tests should pass a clock.NewMock() and advance it explicitly
// instead of sleeping real time.
func WithClock(c clock.Clock) DriverOption {
	return func(d *Driver) { d.clock = c }
}

// WithDriverLogger attaches a logger for frame-loop diagnostics (panics
// recovered from Update itself are not possible here: Scheduler.Tick never
// panics by contract, so this logger only ever sees a handful of lifecycle
// lines).
func WithDriverLogger(logger *zap.Logger) DriverOption {
	return func(d *Driver) { d.logger = logger }
}

// NewDriver wraps scheduler. scheduler must not be nil.
func NewDriver(scheduler *coroutine.Scheduler, opts ...DriverOption) *Driver {
	if scheduler == nil {
		panic(&coroutine.InvalidArgumentError{Reason: "NewDriver: nil Scheduler"})
	}
	d := &Driver{
		scheduler: scheduler,
		clock:     clock.New(),
		logger:    zap.NewNop(),
	}
	for _, apply := range opts {
		apply(d)
	}
	return d
}

// Scheduler returns the wrapped Scheduler, for callers that construct a
// Driver once and want to Start coroutines against the same instance later.
func (d *Driver) Scheduler() *coroutine.Scheduler {
	return d.scheduler
}

// Update computes dt as the elapsed wall-clock seconds since the previous
// Update call (zero on the first call, since there is no prior frame to
// measure against) and feeds it to the Scheduler. This is the method an
// external engine main loop is expected to call once per frame; the engine
// loop itself, and how it paces calls to Update, is out of this module's
// scope.
func (d *Driver) Update() {
	now := d.clock.Now()
	var dt float64
	if d.started {
		dt = now.Sub(d.lastTick).Seconds()
	}
	d.lastTick = now
	d.started = true
	d.scheduler.Tick(dt)
}

// Run calls Update on a fixed frameInterval cadence using the Driver's
// clock, until ctx is cancelled. Intended for headless hosts (tests, batch
// simulation) that want a driving loop without writing their own ticker;
// a real engine integration calls Update directly from its own frame
// callback instead of using Run.
func (d *Driver) Run(ctx context.Context, frameInterval time.Duration) {
	ticker := d.clock.Ticker(frameInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("enginefeed: driver stopped", zap.Error(ctx.Err()))
			return
		case <-ticker.C:
			d.Update()
		}
	}
}
