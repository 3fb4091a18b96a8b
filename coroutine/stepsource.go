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

// StepSource is the contract for anything that produces a sequence of
// yielded values on demand. Authors of long-running behaviors implement
// this instead of writing a native Go generator (Go has none); the
// recommended shape is a small state machine the author writes explicitly,
// or StepSourceFunc closing over local state between calls.
//
// Advance is pulled once per advance of the owning coroutine. It must be
// cheap and non-blocking: all it does is decide what the coroutine should
// suspend on next, or that it is done.
//
//   - ok == false means the source has terminated; the owning handle
//     transitions to Completed.
//   - ok == true with yield.isChild() true means the yielded value is a
//     nested StepSource; the scheduler spawns a child handle for it and the
//     owner suspends on WaitForChild.
//   - ok == true otherwise means the yielded value is a WaitForSeconds or
//     WaitUntil instruction the owner suspends on, or a Group whose sources
//     the scheduler spawns as sibling children the owner waits for.
//
// A panic raised from Advance propagates as a StepSourceFailureError: the
// owning handle (and its descendants) becomes Completed, the panic is
// logged, and Tick as a whole never fails.
type StepSource interface {
	Advance() (yield Yield, ok bool)
}

// StepSourceFunc adapts a plain function to the StepSource interface, the
// same shape as the standard library's http.HandlerFunc, for authors who
// want to write a coroutine as one pull function instead of a struct with
// an Advance method.
type StepSourceFunc func() (Yield, bool)

// Advance calls f.
func (f StepSourceFunc) Advance() (Yield, bool) { return f() }

// yieldKind discriminates the closed Yield sum type. Dispatch is by
// switch/field inspection, not a capability interface: the set is closed
// and fixed.
type yieldKind int

const (
	yieldSeconds yieldKind = iota
	yieldUntil
	yieldChild
	yieldGroup
)

// Yield is the value a StepSource produces from Advance: either a
// YieldInstruction variant (WaitForSeconds/WaitUntil) or a nested
// StepSource, which the scheduler wraps in a WaitForChild. Construct one
// with Seconds, Until or Child — the zero value is not a valid Yield.
//
// The unexported yieldGroup kind backs the Group combinator only; it is
// never part of the public closed set a StepSource author switches over
// (that set remains exactly WaitForSeconds/WaitUntil/WaitForChild), since a
// group-blocked handle carries no current_yield at all and blocks purely
// through a non-empty children list.
type Yield struct {
	kind     yieldKind
	duration float64
	pred     func() bool
	child    StepSource
	children []StepSource
}

// Seconds yields a WaitForSeconds(duration) instruction. Panics if duration
// is negative: negative durations are rejected at construction rather than
// silently clamped.
func Seconds(duration float64) Yield {
	if duration < 0 {
		panic(&InvalidArgumentError{Reason: "WaitForSeconds: negative duration"})
	}
	return Yield{kind: yieldSeconds, duration: duration}
}

// Until yields a WaitUntil(predicate) instruction. The predicate must be
// side-effect-free with respect to scheduler state (it may read but not
// mutate anything the scheduler's mutation queues guard — see
// Scheduler.mutateOrDefer); it is invoked at most once per tick.
func Until(predicate func() bool) Yield {
	if predicate == nil {
		panic(&InvalidArgumentError{Reason: "WaitUntil: nil predicate"})
	}
	return Yield{kind: yieldUntil, pred: predicate}
}

// Child yields a nested StepSource. The scheduler spawns it as a child
// handle of the yielding coroutine and suspends the parent on WaitForChild
// until the child completes.
func Child(source StepSource) Yield {
	if source == nil {
		panic(&InvalidArgumentError{Reason: "Child: nil StepSource"})
	}
	return Yield{kind: yieldChild, child: source}
}

func (y Yield) isChild() bool { return y.kind == yieldChild }

// groupYield yields a fixed set of StepSources to run concurrently as
// sibling children; the yielding coroutine resumes once all of them have
// completed. Backs the Group combinator.
func groupYield(sources []StepSource) Yield {
	if len(sources) == 0 {
		panic(&InvalidArgumentError{Reason: "Group: no sources"})
	}
	for _, s := range sources {
		if s == nil {
			panic(&InvalidArgumentError{Reason: "Group: nil StepSource"})
		}
	}
	return Yield{kind: yieldGroup, children: append([]StepSource(nil), sources...)}
}

// toInstruction converts a non-child Yield into the YieldInstruction the
// scheduler attaches to a handle as current_yield.
func (y Yield) toInstruction() YieldInstruction {
	switch y.kind {
	case yieldSeconds:
		return &WaitForSeconds{duration: y.duration}
	case yieldUntil:
		return &WaitUntil{predicate: y.pred}
	default:
		panic("coroutine: toInstruction called on a child Yield")
	}
}
