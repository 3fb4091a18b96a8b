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

// YieldInstruction is a suspension primitive consumed by the scheduler
// between StepSource advances. Tick reports whether the suspension has
// resolved; once it returns true it must keep returning true until Dispose.
// Dispose is idempotent; calling Tick after Dispose is a programmer error
// (UseAfterDisposeError).
type YieldInstruction interface {
	// Tick advances the instruction by dt seconds and reports whether it
	// has resolved.
	Tick(dt float64) bool
	// Dispose releases any resources the instruction holds. Safe to call
	// more than once.
	Dispose()
	// name identifies the instruction kind for logging/stack dumps.
	name() string
}

// WaitForSeconds resolves once at least duration seconds of dt have
// accumulated across calls to Tick. WaitForSeconds(0) resolves on its first
// tick regardless of dt.
type WaitForSeconds struct {
	duration float64
	elapsed  float64
	done     bool
	disposed bool
}

// NewWaitForSeconds constructs a WaitForSeconds instruction directly,
// without going through a StepSource's Yield. Panics if duration is
// negative.
func NewWaitForSeconds(duration float64) *WaitForSeconds {
	if duration < 0 {
		panic(&InvalidArgumentError{Reason: "WaitForSeconds: negative duration"})
	}
	return &WaitForSeconds{duration: duration}
}

// Tick adds dt to the accumulated elapsed time and reports elapsed >=
// duration. Once done, further ticks keep returning true without
// accumulating further (elapsed is frozen at the point of completion, not
// because further accumulation would matter, but so a disposed-looking
// value stays stable for debugging).
func (w *WaitForSeconds) Tick(dt float64) bool {
	if w.disposed {
		panic(&UseAfterDisposeError{Instruction: "WaitForSeconds"})
	}
	if w.done {
		return true
	}
	w.elapsed += dt
	w.done = w.elapsed >= w.duration
	return w.done
}

// Dispose marks the instruction disposed. Idempotent.
func (w *WaitForSeconds) Dispose() { w.disposed = true }

func (w *WaitForSeconds) name() string { return "WaitForSeconds" }

// Elapsed returns the accumulated dt so far, for diagnostics.
func (w *WaitForSeconds) Elapsed() float64 { return w.elapsed }

// WaitUntil resolves the first tick its predicate returns true. dt is
// ignored; the predicate is the sole source of truth and is never cached
// across ticks.
type WaitUntil struct {
	predicate func() bool
	disposed  bool
}

// NewWaitUntil constructs a WaitUntil instruction directly. Panics if
// predicate is nil.
func NewWaitUntil(predicate func() bool) *WaitUntil {
	if predicate == nil {
		panic(&InvalidArgumentError{Reason: "WaitUntil: nil predicate"})
	}
	return &WaitUntil{predicate: predicate}
}

// Tick invokes the predicate at most once and returns its result.
func (w *WaitUntil) Tick(dt float64) bool {
	if w.disposed {
		panic(&UseAfterDisposeError{Instruction: "WaitUntil"})
	}
	return w.predicate()
}

// Dispose marks the instruction disposed. Idempotent.
func (w *WaitUntil) Dispose() { w.disposed = true }

func (w *WaitUntil) name() string { return "WaitUntil" }

// WaitForChild is produced implicitly by the scheduler when a StepSource
// yields a nested StepSource (see Yield.Child). The scheduler never calls
// Tick on it: it only ever reaches the point of inspecting a handle's
// WaitForChild instruction after its own "children still blocking" check
// has already confirmed the referenced child completed, so resolution is
// unconditional. Tick exists to satisfy the YieldInstruction interface for
// diagnostics (DebugTree prints every instruction uniformly) and always
// reports true once reached.
type WaitForChild struct {
	child    HandleID
	disposed bool
}

// Tick always reports true. See the type doc: by the time the scheduler
// inspects a WaitForChild it has already established the child completed.
func (w *WaitForChild) Tick(dt float64) bool {
	if w.disposed {
		panic(&UseAfterDisposeError{Instruction: "WaitForChild"})
	}
	return true
}

// Dispose marks the instruction disposed. Idempotent.
func (w *WaitForChild) Dispose() { w.disposed = true }

func (w *WaitForChild) name() string { return "WaitForChild" }

// ChildID returns the handle id this instruction is waiting on.
func (w *WaitForChild) ChildID() HandleID { return w.child }
