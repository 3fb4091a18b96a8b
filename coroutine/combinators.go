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

// sequenceSource runs a fixed list of StepSources one after another by
// yielding each stage as a nested child and moving to the next stage once
// that child has completed. It is itself a StepSource, so it composes with
// Start, Child and Group like any author-written one.
type sequenceSource struct {
	stages []StepSource
	index  int
}

// Sequence returns a StepSource that runs each of stages to completion, in
// order, as a single logical unit. Yielding Child(Sequence(a, b)) makes the
// yielding coroutine wait on one child, the sequence; the sequence in turn
// waits on a and then on b, each as its own child handle.
func Sequence(stages ...StepSource) StepSource {
	if len(stages) == 0 {
		panic(&InvalidArgumentError{Reason: "Sequence: no stages"})
	}
	for _, s := range stages {
		if s == nil {
			panic(&InvalidArgumentError{Reason: "Sequence: nil StepSource"})
		}
	}
	return &sequenceSource{stages: append([]StepSource(nil), stages...)}
}

// Advance delegates to the current stage. When a stage terminates, Sequence
// moves to the next stage and yields Child(nextStage) so the scheduler
// tracks it as a nested child handle rather than re-entering Advance
// immediately, keeping one StepSource.Advance call cheap and non-blocking.
func (s *sequenceSource) Advance() (Yield, bool) {
	if s.index >= len(s.stages) {
		return Yield{}, false
	}
	stage := s.stages[s.index]
	s.index++
	return Child(stage), true
}

// Group runs every source in sources concurrently as sibling children of
// the yielding coroutine and resolves once all of them have completed
// (a fan-out/join, unlike the single nested child WaitForChild models).
// Group is a constructor for a Yield, not a StepSource: use it from inside
// a StepSource's Advance, e.g. `return Group(a, b, c), true`.
func Group(sources ...StepSource) Yield {
	return groupYield(sources)
}
