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
	"fmt"
	"runtime"
	"strings"
)

// InvalidArgumentError is the panic value raised eagerly at the call site
// for programmer errors: a negative WaitForSeconds duration, or a nil
// StepSource passed to Start.
type InvalidArgumentError struct {
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("coroutine: invalid argument: %s", e.Reason)
}

// UseAfterDisposeError is the panic value raised when Tick is called on a
// YieldInstruction after Dispose.
type UseAfterDisposeError struct {
	Instruction string
}

func (e *UseAfterDisposeError) Error() string {
	return fmt.Sprintf("coroutine: %s ticked after Dispose", e.Instruction)
}

// NotFoundError is returned by Stop, Pause and Resume when the HandleID is
// unknown to the Scheduler. The scheduler itself treats this as a logged
// no-op; this type exists so direct callers of Stop/Pause/Resume can notice
// it if they care to.
type NotFoundError struct {
	ID HandleID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("coroutine: handle %d not found", e.ID)
}

// CapturedStackTrace is a cleaned snapshot of the goroutine stack at the
// point a StepSource or WaitUntil predicate panicked.
type CapturedStackTrace string

// StepSourceFailureError wraps a panic recovered from StepSource.Advance or
// a WaitUntil predicate. The coroutine that produced it is marked Completed;
// the panic never propagates out of Tick.
type StepSourceFailureError struct {
	ID         HandleID
	Recovered  interface{}
	StackTrace CapturedStackTrace
}

func (e *StepSourceFailureError) Error() string {
	return fmt.Sprintf("coroutine: handle %d failed: %v", e.ID, e.Recovered)
}

func newStepSourceFailure(id HandleID, recovered interface{}) *StepSourceFailureError {
	return &StepSourceFailureError{
		ID:         id,
		Recovered:  recovered,
		StackTrace: captureStackTrace(),
	}
}

// captureStackTrace grabs the current goroutine's stack, trimmed of the
// frames internal to this package's panic-recovery plumbing before handing
// it to a human.
func captureStackTrace() CapturedStackTrace {
	buf := make([]byte, 65536)
	n := runtime.Stack(buf, false)
	raw := strings.TrimRight(string(buf[:n]), "\n")
	lines := strings.Split(raw, "\n")
	// Drop the goroutine header plus the two frames of this file's own
	// helpers (captureStackTrace and newStepSourceFailure).
	const omitTop = 5
	if len(lines) > omitTop {
		lines = lines[omitTop:]
	}
	return CapturedStackTrace(strings.Join(lines, "\n"))
}
