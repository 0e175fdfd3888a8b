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

// Merge subscribes to every source concurrently (spec §4.H) and emits
// whichever value arrives first, interleaved, completing once every source
// has completed. The first error from any source cancels the rest and
// terminates immediately. Each source is granted Unbounded demand, so this
// implements the eager variant of merge; this package has no
// bounded-concurrency merge (mergeMap-with-concurrency-limit).
func Merge[T any](sources ...Flux[T]) Flux[T] {
	return FromPublisher[T](&mergePublisher[T]{sources: sources})
}

type mergePublisher[T any] struct {
	sources []Flux[T]
}

func (p *mergePublisher[T]) SubscribeWithContext(ctx Context, actual CoreSubscriber[T]) {
	if len(p.sources) == 0 {
		CompleteSubscriber[T](actual)
		return
	}
	c := &mergeCoordinator[T]{
		ctx:      ctx,
		actual:   actual,
		queue:    queue.NewUnbounded[T](32),
		remaining: int64(len(p.sources)),
	}
	actual.OnSubscribe(&mergeSubscription[T]{coord: c})
	for _, src := range p.sources {
		inner := &mergeInnerSubscriber[T]{coord: c}
		c.inners = append(c.inners, inner)
		src.SubscribeWithContext(ctx, inner)
	}
}

type mergeCoordinator[T any] struct {
	ctx       Context
	actual    CoreSubscriber[T]
	inners    []*mergeInnerSubscriber[T]
	queue     *queue.Unbounded[T]
	wip       xsync.WIP
	requested int64
	remaining int64
	done      atomic.Bool
}

func (c *mergeCoordinator[T]) Context() Context { return c.ctx }

func (c *mergeCoordinator[T]) offer(value T) {
	c.queue.Offer(value)
	c.drain()
}

func (c *mergeCoordinator[T]) innerComplete() {
	if atomic.AddInt64(&c.remaining, -1) == 0 {
		c.drain()
	}
}

func (c *mergeCoordinator[T]) innerError(err error) {
	if c.done.Swap(true) {
		Operators.OnErrorDropped(c.ctx, err)
		return
	}
	c.cancelAll()
	c.queue.Clear(func(v T) { Operators.OnDiscard(c.ctx, v) })
	c.actual.OnError(err)
}

func (c *mergeCoordinator[T]) cancelAll() {
	for _, in := range c.inners {
		in.cancelUpstream()
	}
}

func (c *mergeCoordinator[T]) drain() {
	if !c.wip.Enter() {
		return
	}
	missed := int64(1)
	for {
		if c.done.Load() {
			return
		}
		for atomic.LoadInt64(&c.requested) > 0 {
			v, ok := c.queue.Poll()
			if !ok {
				break
			}
			atomic.AddInt64(&c.requested, -1)
			c.actual.OnNext(v)
		}
		if atomic.LoadInt64(&c.remaining) == 0 && c.queue.IsEmpty() {
			if !c.done.Swap(true) {
				c.actual.OnComplete()
			}
			return
		}
		missed = c.wip.Leave(missed)
		if missed == 0 {
			return
		}
	}
}

type mergeInnerSubscriber[T any] struct {
	coord    *mergeCoordinator[T]
	upstream Subscription
}

func (s *mergeInnerSubscriber[T]) Context() Context { return s.coord.Context() }

func (s *mergeInnerSubscriber[T]) OnSubscribe(sub Subscription) {
	if !Operators.ValidateSubscription(s.coord.Context(), s.upstream, sub) {
		return
	}
	s.upstream = sub
	sub.Request(Unbounded)
}

func (s *mergeInnerSubscriber[T]) OnNext(value T) {
	if s.coord.done.Load() {
		Operators.OnNextDropped(s.coord.Context(), value)
		return
	}
	s.coord.offer(value)
}

func (s *mergeInnerSubscriber[T]) OnError(err error) { s.coord.innerError(err) }
func (s *mergeInnerSubscriber[T]) OnComplete()       { s.coord.innerComplete() }

func (s *mergeInnerSubscriber[T]) cancelUpstream() {
	if s.upstream != nil {
		s.upstream.Cancel()
	}
}

type mergeSubscription[T any] struct {
	coord *mergeCoordinator[T]
}

func (sub *mergeSubscription[T]) Request(n int64) {
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

func (sub *mergeSubscription[T]) Cancel() {
	if sub.coord.done.Swap(true) {
		return
	}
	sub.coord.cancelAll()
	sub.coord.queue.Clear(func(v T) { Operators.OnDiscard(sub.coord.ctx, v) })
}
