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

import "sync/atomic"

// SwitchMap maps each element to an inner Flux and flattens it, but unlike
// Merge only one inner sequence is ever active: producing a new element
// from the main source cancels whichever inner sequence is currently being
// drained (spec §4.H). The sequence completes once the main source has
// completed and the last inner sequence (if any) has too; any error from
// either side terminates immediately.
func SwitchMap[T, R any](mapper func(T) Flux[R]) FluxOperator[T, R] {
	return func(src Flux[T]) Flux[R] {
		return FromPublisher[R](&switchMapPublisher[T, R]{source: src.Publisher(), mapper: mapper})
	}
}

type switchMapPublisher[T, R any] struct {
	source Publisher[T]
	mapper func(T) Flux[R]
}

func (p *switchMapPublisher[T, R]) SubscribeWithContext(ctx Context, actual CoreSubscriber[R]) {
	c := &switchMapCoordinator[T, R]{ctx: ctx, actual: actual, mapper: p.mapper}
	actual.OnSubscribe(&switchMapSubscription[T, R]{coord: c})
	p.source.SubscribeWithContext(ctx, &switchMapOuterSubscriber[T, R]{coord: c})
}

type switchMapCoordinator[T, R any] struct {
	ctx    Context
	actual CoreSubscriber[R]
	mapper func(T) Flux[R]

	upstream   Subscription
	generation atomic.Int64
	current    atomic.Pointer[switchMapInnerSubscriber[T, R]]
	requested  int64
	outerDone  atomic.Bool
	done       atomic.Bool
}

func (c *switchMapCoordinator[T, R]) Context() Context { return c.ctx }

func (c *switchMapCoordinator[T, R]) switchTo(value T) {
	gen := c.generation.Add(1)
	if prev := c.current.Load(); prev != nil {
		prev.cancelUpstream()
	}
	var innerFlux Flux[R]
	if err := Operators.CallProtected(func() { innerFlux = c.mapper(value) }); err != nil {
		c.terminateError(Operators.OnOperatorError(c.ctx, c.upstream, err, value, true))
		return
	}
	inner := &switchMapInnerSubscriber[T, R]{coord: c, generation: gen}
	c.current.Store(inner)
	innerFlux.SubscribeWithContext(c.ctx, inner)
}

func (c *switchMapCoordinator[T, R]) innerComplete(gen int64) {
	if c.generation.Load() != gen {
		return
	}
	c.current.Store(nil)
	if c.outerDone.Load() {
		c.tryComplete()
	}
}

func (c *switchMapCoordinator[T, R]) tryComplete() {
	if c.current.Load() == nil && !c.done.Swap(true) {
		c.actual.OnComplete()
	}
}

func (c *switchMapCoordinator[T, R]) terminateError(err error) {
	if c.done.Swap(true) {
		Operators.OnErrorDropped(c.ctx, err)
		return
	}
	if c.upstream != nil {
		c.upstream.Cancel()
	}
	if inner := c.current.Load(); inner != nil {
		inner.cancelUpstream()
	}
	c.actual.OnError(err)
}

type switchMapOuterSubscriber[T, R any] struct {
	coord *switchMapCoordinator[T, R]
}

func (s *switchMapOuterSubscriber[T, R]) Context() Context { return s.coord.Context() }

func (s *switchMapOuterSubscriber[T, R]) OnSubscribe(sub Subscription) {
	if !Operators.ValidateSubscription(s.coord.Context(), s.coord.upstream, sub) {
		return
	}
	s.coord.upstream = sub
	sub.Request(Unbounded)
}

func (s *switchMapOuterSubscriber[T, R]) OnNext(value T) {
	if s.coord.done.Load() {
		Operators.OnNextDropped(s.coord.Context(), value)
		return
	}
	s.coord.switchTo(value)
}

func (s *switchMapOuterSubscriber[T, R]) OnError(err error) { s.coord.terminateError(err) }

func (s *switchMapOuterSubscriber[T, R]) OnComplete() {
	s.coord.outerDone.Store(true)
	s.coord.tryComplete()
}

type switchMapInnerSubscriber[T, R any] struct {
	coord      *switchMapCoordinator[T, R]
	generation int64
	upstream   Subscription
}

func (s *switchMapInnerSubscriber[T, R]) Context() Context { return s.coord.Context() }

func (s *switchMapInnerSubscriber[T, R]) OnSubscribe(sub Subscription) {
	if s.coord.generation.Load() != s.generation {
		sub.Cancel()
		return
	}
	s.upstream = sub
	if n := atomic.LoadInt64(&s.coord.requested); n > 0 {
		sub.Request(n)
	}
}

func (s *switchMapInnerSubscriber[T, R]) OnNext(value R) {
	if s.coord.generation.Load() != s.generation {
		Operators.OnNextDropped(s.coord.Context(), value)
		return
	}
	atomic.AddInt64(&s.coord.requested, -1)
	s.coord.actual.OnNext(value)
}

func (s *switchMapInnerSubscriber[T, R]) OnError(err error) {
	if s.coord.generation.Load() != s.generation {
		Operators.OnErrorDropped(s.coord.Context(), err)
		return
	}
	s.coord.terminateError(err)
}

func (s *switchMapInnerSubscriber[T, R]) OnComplete() {
	s.coord.innerComplete(s.generation)
}

func (s *switchMapInnerSubscriber[T, R]) cancelUpstream() {
	if s.upstream != nil {
		s.upstream.Cancel()
	}
}

type switchMapSubscription[T, R any] struct {
	coord *switchMapCoordinator[T, R]
}

func (sub *switchMapSubscription[T, R]) Request(n int64) {
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
	if inner := sub.coord.current.Load(); inner != nil && inner.upstream != nil {
		inner.upstream.Request(n)
	}
}

func (sub *switchMapSubscription[T, R]) Cancel() {
	if sub.coord.done.Swap(true) {
		return
	}
	if sub.coord.upstream != nil {
		sub.coord.upstream.Cancel()
	}
	if inner := sub.coord.current.Load(); inner != nil {
		inner.cancelUpstream()
	}
}
