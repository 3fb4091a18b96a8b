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

// HandleID stably identifies one CoroutineHandle for the lifetime of the
// Scheduler that created it. IDs are monotonic and never reused.
type HandleID int64

// CoroutineHandle is the scheduler's record for one step-producing
// sequence: identity, current lifecycle state, its yield instruction (if
// blocked on one) and its children. The scheduler exclusively owns every
// handle; a handle only ever references its parent by id, never by pointer.
type CoroutineHandle struct {
	id     HandleID
	name   string
	source StepSource

	state         CoroutineState
	prePauseState CoroutineState

	currentYield YieldInstruction

	parent    HandleID
	hasParent bool
	children  []HandleID

	isFirstTick bool
	disposed    bool
}

func newHandle(id HandleID, name string, source StepSource) *CoroutineHandle {
	return &CoroutineHandle{
		id:          id,
		name:        name,
		source:      source,
		state:       Initializing,
		isFirstTick: true,
	}
}

// ID returns the handle's stable identifier.
func (h *CoroutineHandle) ID() HandleID { return h.id }

// Name returns the handle's human-readable name, for logs and DebugTree.
func (h *CoroutineHandle) Name() string { return h.name }

// State returns the handle's current CoroutineState.
func (h *CoroutineHandle) State() CoroutineState { return h.state }

// hasBlockingChildren reports whether any of h's children is present in
// registry and not yet Completed; it does not look at current_yield. This is
// a read-only helper; the scheduler sets state explicitly rather than deriving it lazily, since the
// derivation itself requires knowledge of the registry (to check whether
// children are completed) that a handle alone doesn't have.
func (h *CoroutineHandle) hasBlockingChildren(registry map[HandleID]*CoroutineHandle) bool {
	for _, cid := range h.children {
		if c, ok := registry[cid]; ok && !c.state.terminal() {
			return true
		}
	}
	return false
}

// removeChild splices id out of h.children, preserving order.
func (h *CoroutineHandle) removeChild(id HandleID) {
	for i, cid := range h.children {
		if cid == id {
			h.children = append(h.children[:i], h.children[i+1:]...)
			return
		}
	}
}

// disposeYield disposes the current yield instruction exactly once and
// clears it.
func (h *CoroutineHandle) disposeYield() {
	if h.currentYield != nil {
		h.currentYield.Dispose()
		h.currentYield = nil
	}
}
