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

	"github.com/samber/flux/internal/xsync"
)

// CombineLatest2 re-emits Pair{a, b} every time either source produces a
// new value, once both have produced at least one (spec §4.H). Unlike Zip,
// there is no per-source queue: only the latest value from each side
// matters, so this is built on SerializedSubscriber-style half-serial
// delivery guarded by a plain mutex rather than a queue, since there is
// never more than one pending item per source.
func CombineLatest2[A, B any](srcA Flux[A], srcB Flux[B]) Flux[Pair[A, B]] {
	return FromPublisher[Pair[A, B]](&combineLatest2Publisher[A, B]{a: srcA, b: srcB})
}

type combineLatest2Publisher[A, B any] struct {
	a Flux[A]
	b Flux[B]
}

func (p *combineLatest2Publisher[A, B]) SubscribeWithContext(ctx Context, actual CoreSubscriber[Pair[A, B]]) {
	c := &combineLatest2Coordinator[A, B]{ctx: ctx, actual: actual}
	actual.OnSubscribe(&combineLatest2Subscription[A, B]{coord: c})
	c.subA = &combineLatest2SubscriberA[A, B]{coord: c}
	c.subB = &combineLatest2SubscriberB[A, B]{coord: c}
	p.a.SubscribeWithContext(ctx, c.subA)
	p.b.SubscribeWithContext(ctx, c.subB)
}

type combineLatest2Coordinator[A, B any] struct {
	ctx    Context
	actual CoreSubscriber[Pair[A, B]]
	subA   *combineLatest2SubscriberA[A, B]
	subB   *combineLatest2SubscriberB[A, B]

	mu       sync.Mutex
	hasA     bool
	hasB     bool
	latestA  A
	latestB  B

	wip       xsync.WIP
	requested int64
	doneA     atomic.Bool
	doneB     atomic.Bool
	done      atomic.Bool
	pending   atomic.Int64 // number of combined values ready to emit
}

func (c *combineLatest2Coordinator[A, B]) Context() Context { return c.ctx }

func (c *combineLatest2Coordinator[A, B]) updateA(v A) {
	c.mu.Lock()
	c.latestA = v
	c.hasA = true
	ready := c.hasA && c.hasB
	c.mu.Unlock()
	if ready {
		c.pending.Add(1)
		c.drain()
	}
}

func (c *combineLatest2Coordinator[A, B]) updateB(v B) {
	c.mu.Lock()
	c.latestB = v
	c.hasB = true
	ready := c.hasA && c.hasB
	c.mu.Unlock()
	if ready {
		c.pending.Add(1)
		c.drain()
	}
}

func (c *combineLatest2Coordinator[A, B]) snapshot() Pair[A, B] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Pair[A, B]{First: c.latestA, Second: c.latestB}
}

func (c *combineLatest2Coordinator[A, B]) terminateError(err error) {
	if c.done.Swap(true) {
		Operators.OnErrorDropped(c.ctx, err)
		return
	}
	c.subA.cancelUpstream()
	c.subB.cancelUpstream()
	c.actual.OnError(err)
}

func (c *combineLatest2Coordinator[A, B]) drain() {
	if !c.wip.Enter() {
		return
	}
	missed := int64(1)
	for {
		if c.done.Load() {
			return
		}
		for atomic.LoadInt64(&c.requested) > 0 && c.pending.Load() > 0 {
			c.pending.Add(-1)
			atomic.AddInt64(&c.requested, -1)
			c.actual.OnNext(c.snapshot())
		}
		if c.doneA.Load() && c.doneB.Load() && c.pending.Load() == 0 {
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

type combineLatest2SubscriberA[A, B any] struct {
	coord    *combineLatest2Coordinator[A, B]
	upstream Subscription
}

func (s *combineLatest2SubscriberA[A, B]) Context() Context { return s.coord.Context() }

func (s *combineLatest2SubscriberA[A, B]) OnSubscribe(sub Subscription) {
	if !Operators.ValidateSubscription(s.coord.Context(), s.upstream, sub) {
		return
	}
	s.upstream = sub
	sub.Request(Unbounded)
}

func (s *combineLatest2SubscriberA[A, B]) OnNext(value A) {
	if s.coord.done.Load() {
		Operators.OnNextDropped(s.coord.Context(), value)
		return
	}
	s.coord.updateA(value)
}

func (s *combineLatest2SubscriberA[A, B]) OnError(err error) { s.coord.terminateError(err) }
func (s *combineLatest2SubscriberA[A, B]) OnComplete() {
	s.coord.doneA.Store(true)
	s.coord.drain()
}

func (s *combineLatest2SubscriberA[A, B]) cancelUpstream() {
	if s.upstream != nil {
		s.upstream.Cancel()
	}
}

type combineLatest2SubscriberB[A, B any] struct {
	coord    *combineLatest2Coordinator[A, B]
	upstream Subscription
}

func (s *combineLatest2SubscriberB[A, B]) Context() Context { return s.coord.Context() }

func (s *combineLatest2SubscriberB[A, B]) OnSubscribe(sub Subscription) {
	if !Operators.ValidateSubscription(s.coord.Context(), s.upstream, sub) {
		return
	}
	s.upstream = sub
	sub.Request(Unbounded)
}

func (s *combineLatest2SubscriberB[A, B]) OnNext(value B) {
	if s.coord.done.Load() {
		Operators.OnNextDropped(s.coord.Context(), value)
		return
	}
	s.coord.updateB(value)
}

func (s *combineLatest2SubscriberB[A, B]) OnError(err error) { s.coord.terminateError(err) }
func (s *combineLatest2SubscriberB[A, B]) OnComplete() {
	s.coord.doneB.Store(true)
	s.coord.drain()
}

func (s *combineLatest2SubscriberB[A, B]) cancelUpstream() {
	if s.upstream != nil {
		s.upstream.Cancel()
	}
}

type combineLatest2Subscription[A, B any] struct {
	coord *combineLatest2Coordinator[A, B]
}

func (sub *combineLatest2Subscription[A, B]) Request(n int64) {
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

func (sub *combineLatest2Subscription[A, B]) Cancel() {
	if sub.coord.done.Swap(true) {
		return
	}
	sub.coord.subA.cancelUpstream()
	sub.coord.subB.cancelUpstream()
}
