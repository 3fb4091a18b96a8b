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

// Gate is a one-shot signal a coroutine can block on with Wait and another
// party can release with Open: a settable future minus a carried value,
// since a Gate only ever communicates "proceed", never a payload. Used from
// outside a StepSource's own logic (a timer callback, an input handler,
// another coroutine's closure) to wake a Waiting coroutine without the
// scheduler needing to know anything about the reason.
//
// A Gate is not safe for concurrent use from multiple goroutines, matching
// the rest of the scheduler's single-threaded contract.
type Gate struct {
	open bool
}

// NewGate returns a closed Gate.
func NewGate() *Gate {
	return &Gate{}
}

// Open releases the gate. Idempotent: opening an already-open Gate is a
// no-op.
func (g *Gate) Open() {
	g.open = true
}

// IsOpen reports whether Open has been called.
func (g *Gate) IsOpen() bool {
	return g.open
}

// Wait returns a Yield that resolves once the gate is open, suitable for
// returning directly from a StepSource's Advance: `return gate.Wait(), true`.
func (g *Gate) Wait() Yield {
	return Until(g.IsOpen)
}
