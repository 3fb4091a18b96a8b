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

package coroutine

import (
	"github.com/uber-go/tally"
	"go.uber.org/zap"
)

// SchedulerOptions configures a Scheduler. Use NewScheduler with
// SchedulerOption values rather than constructing this directly; the zero
// value is not meant to be passed in by callers.
type SchedulerOptions struct {
	logger       *zap.Logger
	metricsScope tally.Scope
}

// SchedulerOption sets a field of SchedulerOptions. A functional-option
// slice rather than context-threaded With* decorators, since there is no
// per-call Context to thread values through here.
type SchedulerOption func(*SchedulerOptions)

// WithLogger attaches a *zap.Logger the Scheduler uses for NotFound
// warnings and StepSourceFailure errors. Defaults to zap.NewNop().
func WithLogger(logger *zap.Logger) SchedulerOption {
	return func(o *SchedulerOptions) { o.logger = logger }
}

// WithMetricsScope attaches a tally.Scope the Scheduler reports
// coroutine.active/coroutine.completed/coroutine.failed through. Defaults
// to tally.NoopScope.
func WithMetricsScope(scope tally.Scope) SchedulerOption {
	return func(o *SchedulerOptions) { o.metricsScope = scope }
}

func resolveOptions(opts []SchedulerOption) SchedulerOptions {
	o := SchedulerOptions{
		logger:       zap.NewNop(),
		metricsScope: tally.NoopScope,
	}
	for _, apply := range opts {
		apply(&o)
	}
	return o
}
