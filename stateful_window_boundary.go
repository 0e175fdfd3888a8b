// Copyright 2025 samber.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://github.com/samber/flux/blob/main/licenses/LICENSE.apache.md
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package flux

import (
	"sync/atomic"

	"github.com/samber/flux/internal/queue"
	"github.com/samber/flux/internal/xsync"
)

// WindowUntilBoundary is BufferUntilBoundary's sibling (spec §4.G): instead
// of collecting each segment into a slice, it hands downstream a fresh
// Flux[T] per segment. Only one window is ever open for writing at a time;
// the outer sequence's demand governs how many window-Fluxes may be handed
// out, while each inner window is independently, unboundedly drained by
// whatever subscribes to it (a window's values stay buffered until it is
// subscribed, even after its boundary closes it; a subscriber arriving
// after the close receives them and then the completion).
func WindowUntilBoundary[T any, B any](boundary Flux[B]) FluxOperator[T, Flux[T]] {
	return func(src Flux[T]) Flux[Flux[T]] {
		return FromPublisher[Flux[T]](&windowBoundaryPublisher[T, B]{source: src.Publisher(), boundary: boundary})
	}
}

type windowBoundaryPublisher[T, B any] struct {
	source   Publisher[T]
	boundary Flux[B]
}

func (p *windowBoundaryPublisher[T, B]) SubscribeWithContext(ctx Context, actual CoreSubscriber[Flux[T]]) {
	coord := &windowBoundaryCoordinator[T, B]{actual: actual, pending: windowQueueSupplier[T]()()}
	coord.main = &windowBoundaryMainSubscriber[T, B]{coord: coord}
	coord.boundarySub = &windowBoundarySubscriber[T, B]{coord: coord}

	actual.OnSubscribe(&windowBoundaryOuterSubscription[T, B]{coord: coord})
	coord.openWindow()
	p.source.SubscribeWithContext(ctx, coord.main)
	p.boundary.SubscribeWithContext(ctx, coord.boundarySub)
}

// windowQueueSupplier sizes the outer sequence's pending-window queue via
// the same capacity table every other queue-backed coordinator in this
// package should be using (spec §4.B): a handful of in-flight windows is
// the expected steady state, well under the unbounded threshold.
func windowQueueSupplier[T any]() func() queue.Queue[*windowSink[T]] {
	return queue.Supplier[*windowSink[T]](128)
}

type windowBoundaryCoordinator[T, B any] struct {
	actual      CoreSubscriber[Flux[T]]
	main        *windowBoundaryMainSubscriber[T, B]
	boundarySub *windowBoundarySubscriber[T, B]

	current     atomic.Pointer[windowSink[T]]
	pending     queue.Queue[*windowSink[T]]
	wip         xsync.WIP
	requested   int64
	done        atomic.Bool
	finished    atomic.Bool
	terminalErr atomic.Pointer[error]
}

func (c *windowBoundaryCoordinator[T, B]) Context() Context { return c.actual.Context() }

// openWindow starts a fresh window receiving main values and enqueues it
// for delivery to the outer sequence; it is handed to actual.OnNext only
// once outer demand allows (drain), so the outer Flux[Flux[T]] never emits
// more window-Fluxes than requested (invariant 2) even though a window
// itself starts buffering immediately.
func (c *windowBoundaryCoordinator[T, B]) openWindow() {
	w := newWindowSink[T](c.Context())
	c.current.Store(w)
	c.pending.Offer(w)
	c.drain()
}

func (c *windowBoundaryCoordinator[T, B]) closeWindow() {
	if w := c.current.Load(); w != nil {
		w.complete()
	}
}

func (c *windowBoundaryCoordinator[T, B]) rotate() {
	c.closeWindow()
	if !c.done.Load() {
		c.openWindow()
	}
}

func (c *windowBoundaryCoordinator[T, B]) pushValue(value T) {
	if w := c.current.Load(); w != nil {
		w.push(value)
	}
}

func (c *windowBoundaryCoordinator[T, B]) terminate(err error) {
	if c.done.Swap(true) {
		return
	}
	c.main.cancelUpstream()
	c.boundarySub.cancelUpstream()
	if w := c.current.Load(); w != nil {
		if err != nil {
			w.error(err)
		} else {
			w.complete()
		}
	}
	if err != nil {
		c.terminalErr.Store(&err)
	}
	c.drain()
}

// drain delivers queued windows to the outer subscriber as demand allows,
// and fires the outer terminal signal once every queued window has been
// delivered and the source has finished (mirrors publishInnerSubscriber's
// drain loop in coordinator_publish.go).
func (c *windowBoundaryCoordinator[T, B]) drain() {
	if !c.wip.Enter() {
		return
	}
	missed := int64(1)
	for {
		for atomic.LoadInt64(&c.requested) > 0 {
			w, ok := c.pending.Poll()
			if !ok {
				break
			}
			atomic.AddInt64(&c.requested, -1)
			c.actual.OnNext(FromPublisher[T](w))
		}
		if c.done.Load() && c.pending.IsEmpty() {
			if !c.finished.Swap(true) {
				if errPtr := c.terminalErr.Load(); errPtr != nil {
					c.actual.OnError(*errPtr)
				} else {
					c.actual.OnComplete()
				}
			}
			return
		}
		missed = c.wip.Leave(missed)
		if missed == 0 {
			return
		}
	}
}

type windowBoundaryMainSubscriber[T, B any] struct {
	coord    *windowBoundaryCoordinator[T, B]
	upstream Subscription
}

func (s *windowBoundaryMainSubscriber[T, B]) Context() Context { return s.coord.Context() }

func (s *windowBoundaryMainSubscriber[T, B]) OnSubscribe(sub Subscription) {
	if !Operators.ValidateSubscription(s.coord.Context(), s.upstream, sub) {
		return
	}
	s.upstream = sub
	sub.Request(Unbounded)
}

func (s *windowBoundaryMainSubscriber[T, B]) OnNext(value T) {
	if s.coord.done.Load() {
		Operators.OnNextDropped(s.coord.Context(), value)
		return
	}
	s.coord.pushValue(value)
}

func (s *windowBoundaryMainSubscriber[T, B]) OnError(err error) { s.coord.terminate(err) }
func (s *windowBoundaryMainSubscriber[T, B]) OnComplete()       { s.coord.terminate(nil) }

func (s *windowBoundaryMainSubscriber[T, B]) cancelUpstream() {
	if s.upstream != nil {
		s.upstream.Cancel()
	}
}

type windowBoundarySubscriber[T, B any] struct {
	coord    *windowBoundaryCoordinator[T, B]
	upstream Subscription
}

func (s *windowBoundarySubscriber[T, B]) Context() Context { return s.coord.Context() }

func (s *windowBoundarySubscriber[T, B]) OnSubscribe(sub Subscription) {
	if !Operators.ValidateSubscription(s.coord.Context(), s.upstream, sub) {
		return
	}
	s.upstream = sub
	sub.Request(Unbounded)
}

func (s *windowBoundarySubscriber[T, B]) OnNext(value B) {
	if s.coord.done.Load() {
		return
	}
	s.coord.rotate()
}

func (s *windowBoundarySubscriber[T, B]) OnError(err error) { s.coord.terminate(err) }
func (s *windowBoundarySubscriber[T, B]) OnComplete()        {}

func (s *windowBoundarySubscriber[T, B]) cancelUpstream() {
	if s.upstream != nil {
		s.upstream.Cancel()
	}
}

type windowBoundaryOuterSubscription[T, B any] struct {
	coord *windowBoundaryCoordinator[T, B]
}

func (sub *windowBoundaryOuterSubscription[T, B]) Request(n int64) {
	if err := Operators.ValidateRequest(n); err != nil {
		sub.Cancel()
		sub.coord.actual.OnError(err)
		return
	}
	for {
		old := atomic.LoadInt64(&sub.coord.requested)
		next := Operators.AddCap(old, n)
		if atomic.CompareAndSwapInt64(&sub.coord.requested, old, next) {
			break
		}
	}
	sub.coord.drain()
}

func (sub *windowBoundaryOuterSubscription[T, B]) Cancel() {
	if sub.coord.done.Swap(true) {
		return
	}
	sub.coord.main.cancelUpstream()
	sub.coord.boundarySub.cancelUpstream()
	if w := sub.coord.current.Load(); w != nil {
		w.cancel()
	}
	sub.coord.pending.Clear(func(w *windowSink[T]) { w.cancel() })
}

// windowSink is a minimal unicast bridge: one producer (the coordinator)
// feeding at most one consumer, backed by the unbounded queue family (spec
// §4.B) because a window's size is not known ahead of time. Values pushed
// before a subscriber arrives, or faster than the subscriber's demand,
// queue; closing the window without ever having been subscribed keeps
// whatever is left queued for a later subscriber.
type windowSink[T any] struct {
	ctx       Context
	queue     *queue.Unbounded[T]
	wip       xsync.WIP
	requested int64
	actual    atomic.Pointer[CoreSubscriber[T]]
	done      atomic.Bool
	terminalErr atomic.Pointer[error]
}

func newWindowSink[T any](ctx Context) *windowSink[T] {
	return &windowSink[T]{ctx: ctx, queue: queue.NewUnbounded[T](16)}
}

func (w *windowSink[T]) SubscribeWithContext(ctx Context, actual CoreSubscriber[T]) {
	if !w.actual.CompareAndSwap(nil, &actual) {
		Operators.OnErrorDropped(ctx, newProtocolError("window already subscribed"))
		CompleteSubscriber[T](actual)
		return
	}
	actual.OnSubscribe(&windowSinkSubscription[T]{sink: w})
	w.drain()
}

func (w *windowSink[T]) push(value T) {
	w.queue.Offer(value)
	w.drain()
}

func (w *windowSink[T]) complete() {
	w.done.Store(true)
	w.drain()
}

func (w *windowSink[T]) error(err error) {
	w.terminalErr.Store(&err)
	w.done.Store(true)
	w.drain()
}

func (w *windowSink[T]) cancel() {
	w.done.Store(true)
	w.queue.Clear(func(v T) { Operators.OnDiscard(w.ctx, v) })
}

func (w *windowSink[T]) drain() {
	actualPtr := w.actual.Load()
	if actualPtr == nil {
		return
	}
	actual := *actualPtr
	if !w.wip.Enter() {
		return
	}
	missed := int64(1)
	for {
		for atomic.LoadInt64(&w.requested) > 0 {
			v, ok := w.queue.Poll()
			if !ok {
				break
			}
			atomic.AddInt64(&w.requested, -1)
			actual.OnNext(v)
		}
		if w.done.Load() && w.queue.IsEmpty() {
			if errPtr := w.terminalErr.Load(); errPtr != nil {
				actual.OnError(*errPtr)
			} else {
				actual.OnComplete()
			}
			return
		}
		missed = w.wip.Leave(missed)
		if missed == 0 {
			return
		}
	}
}

type windowSinkSubscription[T any] struct {
	sink *windowSink[T]
}

func (sub *windowSinkSubscription[T]) Request(n int64) {
	if err := Operators.ValidateRequest(n); err != nil {
		sub.Cancel()
		if actualPtr := sub.sink.actual.Load(); actualPtr != nil {
			(*actualPtr).OnError(err)
		}
		return
	}
	for {
		old := atomic.LoadInt64(&sub.sink.requested)
		next := Operators.AddCap(old, n)
		if atomic.CompareAndSwapInt64(&sub.sink.requested, old, next) {
			break
		}
	}
	sub.sink.drain()
}

func (sub *windowSinkSubscription[T]) Cancel() {
	sub.sink.cancel()
}
