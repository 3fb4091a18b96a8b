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
	"strings"
	"sync"

	"github.com/uber-go/tally"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// StateChangeFunc observes a CoroutineHandle transitioning to newState.
// Called synchronously, after the state field has been updated, in the
// order the observer was registered.
type StateChangeFunc func(id HandleID, newState CoroutineState)

type listenerEntry struct {
	fn StateChangeFunc
}

type schedulerMetrics struct {
	active    tally.Gauge
	completed tally.Counter
	failed    tally.Counter
}

// Scheduler is a registry of CoroutineHandle values that drives a per-tick
// algorithm: on every Tick it promotes pending starts, walks the forest of
// root handles in registration order, and drains completed handles at the
// end. It owns every handle it creates; callers interact with handles only
// by HandleID.
//
// A Scheduler is not safe for concurrent use. Every call to Tick, Start,
// Stop, Pause and Resume must come from the same goroutine: there are no
// internal locks protecting state transitions, only a reentrancy guard that
// panics if Tick is called again while already running.
type Scheduler struct {
	logger  *zap.Logger
	metrics schedulerMetrics

	guard   sync.Mutex
	ticking bool

	sequence    atomic.Int64
	activeCount atomic.Int32

	registry map[HandleID]*CoroutineHandle
	roots    []HandleID

	pendingStart     []*CoroutineHandle
	pendingRemove    []HandleID
	pendingMutations []func()

	listeners []*listenerEntry
}

// NewScheduler constructs an empty Scheduler.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	o := resolveOptions(opts)
	return &Scheduler{
		logger:   o.logger,
		registry: make(map[HandleID]*CoroutineHandle),
		metrics: schedulerMetrics{
			active:    o.metricsScope.Gauge("coroutine.active"),
			completed: o.metricsScope.Counter("coroutine.completed"),
			failed:    o.metricsScope.Counter("coroutine.failed"),
		},
	}
}

// Start allocates a root CoroutineHandle for source, enqueues it pending,
// and returns its id immediately. The handle is promoted into the active
// registry at the beginning of the next Tick call and advanced for the
// first time during that same tick's traversal.
func (s *Scheduler) Start(source StepSource) HandleID {
	return s.StartNamed("", source)
}

// StartNamed is Start with an explicit human-readable name, used in
// DebugTree output and log fields.
func (s *Scheduler) StartNamed(name string, source StepSource) HandleID {
	if source == nil {
		panic(&InvalidArgumentError{Reason: "Start: nil StepSource"})
	}
	id := s.nextID()
	if name == "" {
		name = fmt.Sprintf("coroutine-%d", id)
	}
	h := newHandle(id, name, source)
	s.pendingStart = append(s.pendingStart, h)
	s.activeCount.Inc()
	return id
}

func (s *Scheduler) nextID() HandleID {
	return HandleID(s.sequence.Inc())
}

// Stop marks the handle Completed (cascading to its descendants) and
// enqueues it for removal. Calling Stop twice on the same id is a no-op the
// second time. Returns NotFoundError if id is unknown to the scheduler.
func (s *Scheduler) Stop(id HandleID) error {
	return s.mutateOrDefer(func() error { return s.stopInternal(id) })
}

// StopBySource locates the handle running source by identity (O(n)) and
// stops it.
func (s *Scheduler) StopBySource(source StepSource) error {
	return s.mutateOrDefer(func() error { return s.stopBySourceInternal(source) })
}

// StopAll stops every active handle, including ones still pending their
// first promotion.
func (s *Scheduler) StopAll() {
	_ = s.mutateOrDefer(func() error {
		s.stopAllInternal()
		return nil
	})
}

// Pause suspends a Running or Waiting handle and cascades the suspension to
// every transitive child, each saving its own pre-pause state. A no-op if
// the handle is Initializing, Paused or Completed. Returns NotFoundError if
// id is unknown.
func (s *Scheduler) Pause(id HandleID) error {
	return s.mutateOrDefer(func() error { return s.pauseInternal(id) })
}

// Resume restores a Paused handle to its pre-pause state and cascades the
// same restoration to every transitive child. A no-op if the handle is not
// Paused. Returns NotFoundError if id is unknown.
func (s *Scheduler) Resume(id HandleID) error {
	return s.mutateOrDefer(func() error { return s.resumeInternal(id) })
}

// ActiveCount returns the number of handles not in the Completed state,
// including ones still pending their first promotion.
func (s *Scheduler) ActiveCount() int {
	return int(s.activeCount.Load())
}

// OnStateChange registers fn to be called, synchronously and in
// registration order, every time any handle's state changes. Returns a
// function that removes fn; calling it more than once is safe.
func (s *Scheduler) OnStateChange(fn StateChangeFunc) (unsubscribe func()) {
	entry := &listenerEntry{fn: fn}
	s.listeners = append(s.listeners, entry)
	return func() { entry.fn = nil }
}

// mutateOrDefer applies fn immediately if the scheduler is not currently
// ticking, or defers it to run between handles if called reentrantly from
// inside a StepSource.Advance or WaitUntil predicate. Deferred calls cannot
// report their error to the original
// caller (there is nothing left to return it to once Tick has returned
// control to the coroutine that issued it); the error is logged instead.
func (s *Scheduler) mutateOrDefer(fn func() error) error {
	if !s.ticking {
		return fn()
	}
	s.pendingMutations = append(s.pendingMutations, func() {
		if err := fn(); err != nil {
			s.logger.Warn("coroutine: deferred mutation failed", zap.Error(err))
		}
	})
	return nil
}

// Tick advances every active coroutine once. dt must be non-negative.
// Panics if called reentrantly (from inside a StepSource or a WaitUntil
// predicate, call Stop/Pause/Resume/Start instead — those defer safely).
func (s *Scheduler) Tick(dt float64) {
	s.guard.Lock()
	if s.ticking {
		s.guard.Unlock()
		panic("coroutine: Tick called (possibly from a coroutine) while it is already running")
	}
	s.ticking = true
	s.guard.Unlock()
	defer func() {
		s.guard.Lock()
		s.ticking = false
		s.guard.Unlock()
	}()

	s.promotePending()

	roots := append([]HandleID(nil), s.roots...)
	for _, rid := range roots {
		r, ok := s.registry[rid]
		if !ok {
			continue
		}
		s.process(r, dt)
	}

	s.drainRemovals()
	s.metrics.active.Update(float64(s.ActiveCount()))
}

// promotePending moves every handle queued by Start/spawnChild into the
// active registry. Handles with no parent also join the root traversal
// order. This is the only place pending handles become reachable from
// Tick's traversal, which is what guarantees a handle spawned mid-tick
// never advances before the following tick.
//
// A child whose parent was stopped before the child ever got its first
// promotion (the parent completed and cascaded while this child still sat
// in the pending queue, invisible to the registry walk completeOne uses to
// cascade) is completed here instead of being promoted as a live orphan: a
// Completed handle's children must be empty, and an orphan that never ran
// is never going to resolve one.
func (s *Scheduler) promotePending() {
	pending := s.pendingStart
	s.pendingStart = nil
	for _, h := range pending {
		if h.hasParent {
			parent, ok := s.registry[h.parent]
			if !ok || parent.state.terminal() {
				s.completeOrphan(h)
				continue
			}
		}
		s.registry[h.id] = h
		if !h.hasParent {
			s.roots = append(s.roots, h.id)
		}
	}
}

// completeOrphan finalizes a pending child whose parent completed before
// the child was ever promoted into the registry. It was never registered,
// so there is nothing to remove it from beyond the state transition itself.
func (s *Scheduler) completeOrphan(h *CoroutineHandle) {
	h.disposeYield()
	s.setState(h, Completed)
	s.activeCount.Dec()
	s.metrics.completed.Inc(1)
}

// drainRemovals removes every handle that entered Completed during this
// tick from the registry, the roots list and its parent's children list.
func (s *Scheduler) drainRemovals() {
	if len(s.pendingRemove) == 0 {
		return
	}
	toRemove := s.pendingRemove
	s.pendingRemove = nil
	for _, id := range toRemove {
		h, ok := s.registry[id]
		if !ok {
			continue
		}
		delete(s.registry, id)
		if h.hasParent {
			if parent, ok := s.registry[h.parent]; ok {
				parent.removeChild(id)
			}
		} else {
			for i, rid := range s.roots {
				if rid == id {
					s.roots = append(s.roots[:i], s.roots[i+1:]...)
					break
				}
			}
		}
	}
}

// process implements the per-handle tick algorithm: children first, then
// the current yield instruction, then (if unblocked) the next pull from
// the step source. Any mutation requested reentrantly from inside this
// handle's own StepSource/predicate is drained immediately before
// returning, so it takes effect no later than the next handle boundary,
// never mid-traversal of this one.
func (s *Scheduler) process(h *CoroutineHandle, dt float64) {
	defer s.drainMutations()

	if h.state == Completed || h.state == Paused {
		return
	}

	childCompletedThisTick := false
	snapshot := append([]HandleID(nil), h.children...)
	for _, cid := range snapshot {
		c, ok := s.registry[cid]
		if !ok {
			continue
		}
		s.process(c, dt)
		if c.state == Completed {
			h.removeChild(cid)
			childCompletedThisTick = true
		}
	}

	if h.hasBlockingChildren(s.registry) {
		if h.state != Waiting {
			s.setState(h, Waiting)
		}
		return
	}

	if h.currentYield != nil {
		if _, isWaitForChild := h.currentYield.(*WaitForChild); isWaitForChild {
			// Reaching this line already proves the children list just
			// drained; WaitForChild never blocks past that point.
			h.disposeYield()
			s.setState(h, Running)
			// Tie-break: a child completing and the parent's yield
			// resolving in the same tick does not cause a double advance.
			// The source advances next tick.
			return
		}
	} else if childCompletedThisTick {
		// A Group-spawned handle blocks purely on its children list, with
		// no current_yield at all; the same tie-break applies.
		s.setState(h, Running)
		return
	}

	// Advance loop. A freshly produced WaitForSeconds/WaitUntil is ticked
	// with this same dt immediately, rather than waiting for the handle's
	// next process() call: that is what makes WaitForSeconds(0) resolve on
	// its first tick and what makes a chain of already-resolved yields
	// collapse into a single tick instead of costing one tick each, without
	// recursing per link in the chain.
	for {
		if h.currentYield != nil {
			resolved := s.tickInstruction(h, dt)
			if h.state.terminal() {
				return
			}
			if !resolved {
				return
			}
			h.disposeYield()
			s.setState(h, Running)
			// No pending child to arbitrate against, so the source
			// advances in this same tick.
		}

		s.advance(h)
		if h.state.terminal() {
			return
		}
		switch h.currentYield.(type) {
		case nil:
			// yieldGroup: children were just spawned pending; they block
			// this handle starting next tick.
			return
		case *WaitForChild:
			// The spawned child is pending promotion; earliest it can
			// resolve is next tick.
			return
		default:
			// WaitForSeconds / WaitUntil: loop back and tick it now.
		}
	}
}

// drainMutations runs every Stop/Pause/Resume call that was deferred
// because it arrived while the scheduler was already ticking.
func (s *Scheduler) drainMutations() {
	if len(s.pendingMutations) == 0 {
		return
	}
	muts := s.pendingMutations
	s.pendingMutations = nil
	for _, fn := range muts {
		fn()
	}
}

// tickInstruction ticks h's current yield instruction, isolating a panic
// from a WaitUntil predicate into a StepSourceFailureError the same way
// advance isolates a panic from StepSource.Advance.
func (s *Scheduler) tickInstruction(h *CoroutineHandle, dt float64) (resolved bool) {
	defer func() {
		if r := recover(); r != nil {
			s.failAndCascade(h, r)
			resolved = false
		}
	}()
	resolved = h.currentYield.Tick(dt)
	return
}

// advance pulls the next yielded value from h's StepSource and applies it:
// terminate, suspend on a plain instruction, or spawn a child. A panic from
// Advance is isolated into a StepSourceFailureError; it never propagates
// out of Tick.
func (s *Scheduler) advance(h *CoroutineHandle) {
	var y Yield
	var ok bool
	func() {
		defer func() {
			if r := recover(); r != nil {
				s.failAndCascade(h, r)
				ok = false
				y = Yield{}
			}
		}()
		y, ok = h.source.Advance()
	}()
	h.isFirstTick = false
	if h.state.terminal() {
		return
	}
	if !ok {
		s.completeOne(h)
		return
	}

	switch y.kind {
	case yieldSeconds, yieldUntil:
		h.currentYield = y.toInstruction()
		s.setState(h, Waiting)
	case yieldChild:
		childID := s.spawnChild(h, y.child, "")
		h.currentYield = &WaitForChild{child: childID}
		s.setState(h, Waiting)
	case yieldGroup:
		for _, src := range y.children {
			s.spawnChild(h, src, "")
		}
		h.currentYield = nil
		s.setState(h, Waiting)
	default:
		panic("coroutine: advance: unknown yield kind")
	}
}

// spawnChild creates a child handle of parent, links it immediately into
// parent.children, and queues it for promotion on the following tick.
func (s *Scheduler) spawnChild(parent *CoroutineHandle, source StepSource, name string) HandleID {
	id := s.nextID()
	if name == "" {
		name = fmt.Sprintf("%s/%d", parent.name, id)
	}
	child := newHandle(id, name, source)
	child.parent = parent.id
	child.hasParent = true
	parent.children = append(parent.children, id)
	s.pendingStart = append(s.pendingStart, child)
	s.activeCount.Inc()
	return id
}

// setState updates h's state and fires every registered StateChangeFunc, in
// registration order, after the field has been updated.
func (s *Scheduler) setState(h *CoroutineHandle, newState CoroutineState) {
	h.state = newState
	for _, l := range s.listeners {
		if l.fn != nil {
			l.fn(h.id, newState)
		}
	}
}

// completeOne transitions h and every transitive descendant to Completed,
// disposing each one's yield instruction exactly once and clearing its
// children, then queues all of them for removal at the end of the tick.
// A no-op if h is already terminal, so calling Stop twice on the same
// handle is safe.
func (s *Scheduler) completeOne(h *CoroutineHandle) {
	if h.state.terminal() {
		return
	}
	children := h.children
	h.children = nil
	for _, cid := range children {
		if c, ok := s.registry[cid]; ok {
			s.completeOne(c)
		}
	}
	h.disposeYield()
	s.setState(h, Completed)
	s.pendingRemove = append(s.pendingRemove, h.id)
	s.activeCount.Dec()
	s.metrics.completed.Inc(1)
}

// failAndCascade records a recovered panic from h's StepSource or a
// WaitUntil predicate as a StepSourceFailureError, logs it, and completes h
// and its descendants.
func (s *Scheduler) failAndCascade(h *CoroutineHandle, recovered interface{}) {
	err := newStepSourceFailure(h.id, recovered)
	s.logger.Error("coroutine: step source failed",
		zap.Int64("handle_id", int64(h.id)),
		zap.String("name", h.name),
		zap.Any("recovered", recovered),
		zap.String("stack", string(err.StackTrace)),
	)
	s.metrics.failed.Inc(1)
	s.completeOne(h)
}

func (s *Scheduler) stopInternal(id HandleID) error {
	if h, ok := s.registry[id]; ok {
		s.completeOne(h)
		return nil
	}
	for i, h := range s.pendingStart {
		if h.id == id {
			s.pendingStart = append(s.pendingStart[:i], s.pendingStart[i+1:]...)
			s.setState(h, Completed)
			s.activeCount.Dec()
			s.metrics.completed.Inc(1)
			return nil
		}
	}
	s.logger.Warn("coroutine: stop: handle not found", zap.Int64("handle_id", int64(id)))
	return &NotFoundError{ID: id}
}

func (s *Scheduler) stopBySourceInternal(source StepSource) error {
	for _, h := range s.registry {
		if h.source == source && !h.state.terminal() {
			s.completeOne(h)
			return nil
		}
	}
	for i, h := range s.pendingStart {
		if h.source == source {
			s.pendingStart = append(s.pendingStart[:i], s.pendingStart[i+1:]...)
			s.setState(h, Completed)
			s.activeCount.Dec()
			s.metrics.completed.Inc(1)
			return nil
		}
	}
	s.logger.Warn("coroutine: stop: source not found")
	return &NotFoundError{ID: -1}
}

func (s *Scheduler) stopAllInternal() {
	for _, h := range s.registry {
		if !h.state.terminal() {
			s.completeOne(h)
		}
	}
	pending := s.pendingStart
	s.pendingStart = nil
	for _, h := range pending {
		s.setState(h, Completed)
		s.activeCount.Dec()
		s.metrics.completed.Inc(1)
	}
}

func (s *Scheduler) pauseInternal(id HandleID) error {
	h, ok := s.registry[id]
	if !ok {
		s.logger.Warn("coroutine: pause: handle not found", zap.Int64("handle_id", int64(id)))
		return &NotFoundError{ID: id}
	}
	s.pauseOne(h)
	return nil
}

// pauseOne is the internal recursive cascade. A handle not in Running or
// Waiting is left untouched, so prePauseState is only ever Running or
// Waiting.
func (s *Scheduler) pauseOne(h *CoroutineHandle) {
	if h.state != Running && h.state != Waiting {
		return
	}
	h.prePauseState = h.state
	s.setState(h, Paused)
	for _, cid := range h.children {
		if c, ok := s.registry[cid]; ok {
			s.pauseOne(c)
		}
	}
}

func (s *Scheduler) resumeInternal(id HandleID) error {
	h, ok := s.registry[id]
	if !ok {
		s.logger.Warn("coroutine: resume: handle not found", zap.Int64("handle_id", int64(id)))
		return &NotFoundError{ID: id}
	}
	s.resumeOne(h)
	return nil
}

func (s *Scheduler) resumeOne(h *CoroutineHandle) {
	if h.state != Paused {
		return
	}
	s.setState(h, h.prePauseState)
	for _, cid := range h.children {
		if c, ok := s.registry[cid]; ok {
			s.resumeOne(c)
		}
	}
}

// DebugTree returns a human-readable indented dump of every live handle,
// the tick-scheduler's equivalent of a goroutine stack dump, since a handle
// has no real call stack to walk.
func (s *Scheduler) DebugTree() string {
	var b strings.Builder
	for _, rid := range s.roots {
		if r, ok := s.registry[rid]; ok {
			s.writeDebugNode(&b, r, 0)
		}
	}
	return b.String()
}

func (s *Scheduler) writeDebugNode(b *strings.Builder, h *CoroutineHandle, depth int) {
	indent := strings.Repeat("  ", depth)
	yieldDesc := "-"
	if h.currentYield != nil {
		yieldDesc = h.currentYield.name()
	}
	fmt.Fprintf(b, "%s#%d %s [%s] yield=%s\n", indent, h.id, h.name, h.state, yieldDesc)
	for _, cid := range h.children {
		if c, ok := s.registry[cid]; ok {
			s.writeDebugNode(b, c, depth+1)
		}
	}
}
