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
	"sync"
	"sync/atomic"

	"github.com/samber/flux/internal/queue"
	"github.com/samber/flux/internal/xsync"
)

// BufferUntilBoundary is the representative stateful multi-input operator
// spec §4.G calls out: it coordinates a main source and an independent
// boundary Publisher (of any element type — only its onNext timing matters)
// running on potentially different producer goroutines. Every boundary
// onNext flushes the buffer accumulated since the previous flush (or since
// subscription) downstream as one slice; an empty buffer still flushes an
// empty slice, matching the spec's "a boundary signal always produces a
// buffer, possibly empty" rule. The main source completing flushes whatever
// remains and completes; either source erroring cancels the other and
// forwards the error. Completed buffers are queued (spec §4.B unbounded
// family) and drained through a WIP loop so the two producer goroutines
// never race on delivering to actual directly (spec §4.C half-serializer
// discipline, applied by hand here because the two inputs have genuinely
// different shapes rather than a single upstream signal type).
func BufferUntilBoundary[T any, B any](boundary Flux[B]) FluxOperator[T, []T] {
	return func(src Flux[T]) Flux[[]T] {
		return FromPublisher[[]T](&bufferBoundaryPublisher[T, B]{source: src.Publisher(), boundary: boundary})
	}
}

type bufferBoundaryPublisher[T, B any] struct {
	source   Publisher[T]
	boundary Flux[B]
}

func (p *bufferBoundaryPublisher[T, B]) SubscribeWithContext(ctx Context, actual CoreSubscriber[[]T]) {
	coord := &bufferBoundaryCoordinator[T, B]{actual: actual, queue: queue.NewUnbounded[[]T](16)}
	coord.main = &bufferBoundaryMainSubscriber[T, B]{coord: coord}
	coord.boundarySub = &bufferBoundarySubscriber[T, B]{coord: coord}

	actual.OnSubscribe(&bufferBoundarySubscription[T, B]{coord: coord})
	p.source.SubscribeWithContext(ctx, coord.main)
	p.boundary.SubscribeWithContext(ctx, coord.boundarySub)
}

type bufferBoundaryCoordinator[T, B any] struct {
	actual      CoreSubscriber[[]T]
	main        *bufferBoundaryMainSubscriber[T, B]
	boundarySub *bufferBoundarySubscriber[T, B]

	mu     sync.Mutex
	buffer []T

	queue     *queue.Unbounded[[]T]
	wip       xsync.WIP
	requested int64
	done      atomic.Bool
}

func (c *bufferBoundaryCoordinator[T, B]) Context() Context { return c.actual.Context() }

func (c *bufferBoundaryCoordinator[T, B]) addValue(value T) {
	c.mu.Lock()
	c.buffer = append(c.buffer, value)
	c.mu.Unlock()
}

func (c *bufferBoundaryCoordinator[T, B]) flush() {
	c.mu.Lock()
	batch := c.buffer
	c.buffer = nil
	c.mu.Unlock()
	c.queue.Offer(batch)
	c.drain()
}

// flushOnBoundary is the boundary-triggered flush path (spec §4.G): unlike
// the final flush on main completion, a boundary signal arriving with zero
// outstanding demand is an overflow, not something to buffer indefinitely —
// mirrors intervalSubscription.tick's zero-demand check in
// source_interval.go.
func (c *bufferBoundaryCoordinator[T, B]) flushOnBoundary() {
	if atomic.LoadInt64(&c.requested) <= 0 {
		c.terminate(newOverflowError("buffer boundary fired with no outstanding demand"))
		return
	}
	c.flush()
}

func (c *bufferBoundaryCoordinator[T, B]) drain() {
	if !c.wip.Enter() {
		return
	}
	missed := int64(1)
	for {
		for atomic.LoadInt64(&c.requested) > 0 {
			batch, ok := c.queue.Poll()
			if !ok {
				break
			}
			atomic.AddInt64(&c.requested, -1)
			c.actual.OnNext(batch)
		}
		if c.done.Load() && c.queue.IsEmpty() {
			return
		}
		missed = c.wip.Leave(missed)
		if missed == 0 {
			return
		}
	}
}

func (c *bufferBoundaryCoordinator[T, B]) terminate(err error) {
	if c.done.Swap(true) {
		return
	}
	c.main.cancelUpstream()
	c.boundarySub.cancelUpstream()
	if err != nil {
		c.mu.Lock()
		pending := c.buffer
		c.buffer = nil
		c.mu.Unlock()
		for _, v := range pending {
			Operators.OnDiscard(c.actual.Context(), v)
		}
		c.queue.Clear(func(b []T) {
			for _, v := range b {
				Operators.OnDiscard(c.actual.Context(), v)
			}
		})
		c.actual.OnError(err)
		return
	}
	c.flush()
}

type bufferBoundaryMainSubscriber[T, B any] struct {
	coord    *bufferBoundaryCoordinator[T, B]
	upstream Subscription
}

func (s *bufferBoundaryMainSubscriber[T, B]) Context() Context { return s.coord.Context() }

func (s *bufferBoundaryMainSubscriber[T, B]) OnSubscribe(sub Subscription) {
	if !Operators.ValidateSubscription(s.coord.Context(), s.upstream, sub) {
		return
	}
	s.upstream = sub
	sub.Request(Unbounded)
}

func (s *bufferBoundaryMainSubscriber[T, B]) OnNext(value T) {
	if s.coord.done.Load() {
		Operators.OnNextDropped(s.coord.Context(), value)
		return
	}
	s.coord.addValue(value)
}

func (s *bufferBoundaryMainSubscriber[T, B]) OnError(err error) { s.coord.terminate(err) }
func (s *bufferBoundaryMainSubscriber[T, B]) OnComplete()       { s.coord.terminate(nil) }

func (s *bufferBoundaryMainSubscriber[T, B]) cancelUpstream() {
	if s.upstream != nil {
		s.upstream.Cancel()
	}
}

type bufferBoundarySubscriber[T, B any] struct {
	coord    *bufferBoundaryCoordinator[T, B]
	upstream Subscription
}

func (s *bufferBoundarySubscriber[T, B]) Context() Context { return s.coord.Context() }

func (s *bufferBoundarySubscriber[T, B]) OnSubscribe(sub Subscription) {
	if !Operators.ValidateSubscription(s.coord.Context(), s.upstream, sub) {
		return
	}
	s.upstream = sub
	sub.Request(Unbounded)
}

func (s *bufferBoundarySubscriber[T, B]) OnNext(value B) {
	if s.coord.done.Load() {
		return
	}
	s.coord.flushOnBoundary()
}

func (s *bufferBoundarySubscriber[T, B]) OnError(err error) { s.coord.terminate(err) }

// OnComplete on the boundary alone does not terminate the main sequence: a
// boundary that stops producing simply means no more flushes happen until
// the main source itself completes or errors.
func (s *bufferBoundarySubscriber[T, B]) OnComplete() {}

func (s *bufferBoundarySubscriber[T, B]) cancelUpstream() {
	if s.upstream != nil {
		s.upstream.Cancel()
	}
}

type bufferBoundarySubscription[T, B any] struct {
	coord *bufferBoundaryCoordinator[T, B]
}

func (sub *bufferBoundarySubscription[T, B]) Request(n int64) {
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

func (sub *bufferBoundarySubscription[T, B]) Cancel() {
	if sub.coord.done.Swap(true) {
		return
	}
	sub.coord.main.cancelUpstream()
	sub.coord.boundarySub.cancelUpstream()
	sub.coord.queue.Clear(func(b []T) {
		for _, v := range b {
			Operators.OnDiscard(sub.coord.actual.Context(), v)
		}
	})
}
