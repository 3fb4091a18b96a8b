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

// CoroutineState is the lifecycle state of a CoroutineHandle.
//
// Transitions (see Scheduler.process for the authoritative implementation):
//
//	Initializing -> {Running, Waiting, Completed}
//	Running      <-> Waiting
//	any non-terminal <-> Paused
//	any -> Completed
type CoroutineState int32

const (
	// Initializing is the state of a handle that has not yet been advanced
	// for the first time.
	Initializing CoroutineState = iota
	// Running means the handle is unblocked and will advance its StepSource
	// on this or a following tick.
	Running
	// Waiting means the handle is blocked on its current yield instruction,
	// a non-completed child, or both.
	Waiting
	// Paused means the handle (and transitively its children) has been
	// suspended by Scheduler.Pause and will not be processed until resumed.
	Paused
	// Completed is terminal. A handle in Completed is never re-entered and
	// its slot is freed at the end of the tick that completed it.
	Completed
)

func (s CoroutineState) String() string {
	switch s {
	case Initializing:
		return "Initializing"
	case Running:
		return "Running"
	case Waiting:
		return "Waiting"
	case Paused:
		return "Paused"
	case Completed:
		return "Completed"
	default:
		return "Unknown"
	}
}

// terminal reports whether s is Completed.
func (s CoroutineState) terminal() bool {
	return s == Completed
}
