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

import "sync"

// liftMono applies a cardinality-preserving FluxOperator to a Mono by
// upcasting to Flux, applying the operator, and wrapping the result back
// into a Mono. Safe for any operator that can never turn a zero-or-one
// element sequence into a sequence of more than one element — Map and
// Filter both qualify, since map is 1:1 and filter only ever removes.
func liftMono[T, R any](m Mono[T], op FluxOperator[T, R]) Mono[R] {
	return FromMonoPublisher[R](op(m.Flux()).Publisher())
}

// MonoMap transforms the single value of m, if any.
func MonoMap[T, R any](m Mono[T], mapper func(T) (R, error)) Mono[R] {
	return liftMono(m, Map[T, R](mapper))
}

// MonoFilter keeps m's single value only if predicate(value) holds;
// otherwise the Mono completes empty.
func MonoFilter[T any](m Mono[T], predicate func(T) (bool, error)) Mono[T] {
	return liftMono(m, Filter[T](predicate))
}

// MonoDefaultIfEmpty substitutes fallback for an empty m, leaving a
// non-empty m unchanged.
func MonoDefaultIfEmpty[T any](m Mono[T], fallback T) Mono[T] {
	return FromMonoPublisher[T](&monoDefaultIfEmptyPublisher[T]{source: m, fallback: fallback})
}

type monoDefaultIfEmptyPublisher[T any] struct {
	source   Mono[T]
	fallback T
}

func (p *monoDefaultIfEmptyPublisher[T]) SubscribeWithContext(ctx Context, actual CoreSubscriber[T]) {
	p.source.SubscribeWithContext(ctx, &monoDefaultIfEmptySubscriber[T]{ctx: ctx, actual: actual, fallback: p.fallback})
}

type monoDefaultIfEmptySubscriber[T any] struct {
	ctx      Context
	actual   CoreSubscriber[T]
	fallback T
	got      bool
}

func (s *monoDefaultIfEmptySubscriber[T]) Context() Context { return s.ctx }

func (s *monoDefaultIfEmptySubscriber[T]) OnSubscribe(sub Subscription) { s.actual.OnSubscribe(sub) }

func (s *monoDefaultIfEmptySubscriber[T]) OnNext(value T) {
	s.got = true
	s.actual.OnNext(value)
}

func (s *monoDefaultIfEmptySubscriber[T]) OnError(err error) { s.actual.OnError(err) }

func (s *monoDefaultIfEmptySubscriber[T]) OnComplete() {
	if !s.got {
		s.actual.OnNext(s.fallback)
	}
	s.actual.OnComplete()
}

// MonoFlatMap subscribes to m, and once its single value (if any) arrives,
// discards m's own demand bookkeeping and subscribes to mapper(value),
// forwarding that inner Mono's signals as this Mono's own. An empty m
// completes empty without ever calling mapper.
func MonoFlatMap[T, R any](m Mono[T], mapper func(T) Mono[R]) Mono[R] {
	return FromMonoPublisher[R](&monoFlatMapPublisher[T, R]{source: m, mapper: mapper})
}

type monoFlatMapPublisher[T, R any] struct {
	source Mono[T]
	mapper func(T) Mono[R]
}

func (p *monoFlatMapPublisher[T, R]) SubscribeWithContext(ctx Context, actual CoreSubscriber[R]) {
	c := &monoFlatMapCoordinator[T, R]{ctx: ctx, actual: actual, mapper: p.mapper}
	actual.OnSubscribe(&c.multi)
	p.source.SubscribeWithContext(ctx, &monoFlatMapOuterSubscriber[T, R]{coord: c})
}

type monoFlatMapCoordinator[T, R any] struct {
	ctx    Context
	actual CoreSubscriber[R]
	mapper func(T) Mono[R]
	multi  MultiSubscription
	done   bool
}

func (c *monoFlatMapCoordinator[T, R]) Context() Context { return c.ctx }

type monoFlatMapOuterSubscriber[T, R any] struct {
	coord *monoFlatMapCoordinator[T, R]
	got   bool
}

func (s *monoFlatMapOuterSubscriber[T, R]) Context() Context { return s.coord.Context() }

func (s *monoFlatMapOuterSubscriber[T, R]) OnSubscribe(sub Subscription) { s.coord.multi.Set(sub) }

func (s *monoFlatMapOuterSubscriber[T, R]) OnNext(value T) {
	s.got = true
	var inner Mono[R]
	if err := Operators.CallProtected(func() { inner = s.coord.mapper(value) }); err != nil {
		if !s.coord.done {
			s.coord.done = true
			s.coord.actual.OnError(Operators.OnOperatorError(s.coord.ctx, nil, err, value, true))
		}
		return
	}
	inner.SubscribeWithContext(s.coord.ctx, &monoFlatMapInnerSubscriber[T, R]{coord: s.coord})
}

func (s *monoFlatMapOuterSubscriber[T, R]) OnError(err error) {
	if s.coord.done {
		return
	}
	s.coord.done = true
	s.coord.actual.OnError(err)
}

func (s *monoFlatMapOuterSubscriber[T, R]) OnComplete() {
	if !s.got && !s.coord.done {
		s.coord.done = true
		s.coord.actual.OnComplete()
	}
}

type monoFlatMapInnerSubscriber[T, R any] struct {
	coord *monoFlatMapCoordinator[T, R]
}

func (s *monoFlatMapInnerSubscriber[T, R]) Context() Context { return s.coord.Context() }

func (s *monoFlatMapInnerSubscriber[T, R]) OnSubscribe(sub Subscription) { s.coord.multi.Set(sub) }

func (s *monoFlatMapInnerSubscriber[T, R]) OnNext(value R) {
	s.coord.multi.Produced(1)
	s.coord.actual.OnNext(value)
}

func (s *monoFlatMapInnerSubscriber[T, R]) OnError(err error) {
	if s.coord.done {
		return
	}
	s.coord.done = true
	s.coord.actual.OnError(err)
}

func (s *monoFlatMapInnerSubscriber[T, R]) OnComplete() {
	if s.coord.done {
		return
	}
	s.coord.done = true
	s.coord.actual.OnComplete()
}

// MonoThen ignores m's own value (if any) and, once m terminates
// successfully, subscribes to next and adopts its signals. An error from
// m short-circuits next entirely.
func MonoThen[T, R any](m Mono[T], next Mono[R]) Mono[R] {
	return MonoFlatMap(MonoDefaultIfEmpty(MonoIgnoreElement(m), struct{}{}), func(struct{}) Mono[R] { return next })
}

// MonoIgnoreElement discards m's value, if any, keeping only its terminal
// signal — the Mono analogue of IgnoreElements.
func MonoIgnoreElement[T any](m Mono[T]) Mono[struct{}] {
	return FromMonoPublisher[struct{}](&monoIgnoreElementPublisher[T]{source: m})
}

type monoIgnoreElementPublisher[T any] struct {
	source Mono[T]
}

func (p *monoIgnoreElementPublisher[T]) SubscribeWithContext(ctx Context, actual CoreSubscriber[struct{}]) {
	p.source.SubscribeWithContext(ctx, &monoIgnoreElementSubscriber[T]{ctx: ctx, actual: actual})
}

type monoIgnoreElementSubscriber[T any] struct {
	ctx    Context
	actual CoreSubscriber[struct{}]
}

func (s *monoIgnoreElementSubscriber[T]) Context() Context { return s.ctx }

func (s *monoIgnoreElementSubscriber[T]) OnSubscribe(sub Subscription) { s.actual.OnSubscribe(sub) }

func (s *monoIgnoreElementSubscriber[T]) OnNext(value T) { Operators.OnDiscard(s.ctx, value) }

func (s *monoIgnoreElementSubscriber[T]) OnError(err error) { s.actual.OnError(err) }

func (s *monoIgnoreElementSubscriber[T]) OnComplete() { s.actual.OnComplete() }

// Pair2 is the Mono analogue of Pair, named distinctly so MonoZip2's
// result type is unambiguous at call sites that also use Flux's Zip2.
type Pair2[A, B any] = Pair[A, B]

// MonoZip2 subscribes to both a and b concurrently and emits Pair{a, b}
// once both have produced a value; if either completes empty, the result
// completes empty without ever emitting.
func MonoZip2[A, B any](a Mono[A], b Mono[B]) Mono[Pair2[A, B]] {
	return FromMonoPublisher[Pair2[A, B]](&monoZip2Publisher[A, B]{a: a, b: b})
}

type monoZip2Publisher[A, B any] struct {
	a Mono[A]
	b Mono[B]
}

func (p *monoZip2Publisher[A, B]) SubscribeWithContext(ctx Context, actual CoreSubscriber[Pair2[A, B]]) {
	c := &monoZip2Coordinator[A, B]{ctx: ctx, actual: actual}
	actual.OnSubscribe(&monoZip2Subscription[A, B]{coord: c})
	p.a.SubscribeWithContext(ctx, &monoZip2SubscriberA[A, B]{coord: c})
	p.b.SubscribeWithContext(ctx, &monoZip2SubscriberB[A, B]{coord: c})
}

type monoZip2Coordinator[A, B any] struct {
	ctx    Context
	actual CoreSubscriber[Pair2[A, B]]

	mu        sync.Mutex
	subA, subB Subscription
	hasA, hasB bool
	emptyA, emptyB bool
	valueA    A
	valueB    B
	requested bool
	done      bool
}

func (c *monoZip2Coordinator[A, B]) Context() Context { return c.ctx }

// tryEmit is called under the coordinator's mutex by every signal path
// (both sources can complete from independent goroutines) and performs
// the actual terminal delivery after releasing the lock, so a downstream
// callback can never reenter this coordinator while the lock is held.
func (c *monoZip2Coordinator[A, B]) tryEmit() {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return
	}
	switch {
	case c.emptyA || c.emptyB:
		c.done = true
		c.mu.Unlock()
		c.cancelAll()
		c.actual.OnComplete()
	case c.hasA && c.hasB && c.requested:
		c.done = true
		a, b := c.valueA, c.valueB
		c.mu.Unlock()
		c.actual.OnNext(Pair2[A, B]{First: a, Second: b})
		c.actual.OnComplete()
	default:
		c.mu.Unlock()
	}
}

func (c *monoZip2Coordinator[A, B]) terminateError(err error) {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		Operators.OnErrorDropped(c.ctx, err)
		return
	}
	c.done = true
	c.mu.Unlock()
	c.cancelAll()
	c.actual.OnError(err)
}

// cancelAll must be called without the mutex held, since Cancel may
// synchronously reenter the coordinator through a source's own
// bookkeeping.
func (c *monoZip2Coordinator[A, B]) cancelAll() {
	c.mu.Lock()
	a, b := c.subA, c.subB
	c.mu.Unlock()
	if a != nil {
		a.Cancel()
	}
	if b != nil {
		b.Cancel()
	}
}

type monoZip2SubscriberA[A, B any] struct{ coord *monoZip2Coordinator[A, B] }

func (s *monoZip2SubscriberA[A, B]) Context() Context { return s.coord.Context() }
func (s *monoZip2SubscriberA[A, B]) OnSubscribe(sub Subscription) {
	s.coord.mu.Lock()
	s.coord.subA = sub
	s.coord.mu.Unlock()
	sub.Request(1)
}
func (s *monoZip2SubscriberA[A, B]) OnNext(value A) {
	s.coord.mu.Lock()
	s.coord.valueA = value
	s.coord.hasA = true
	s.coord.mu.Unlock()
}
func (s *monoZip2SubscriberA[A, B]) OnError(err error) { s.coord.terminateError(err) }
func (s *monoZip2SubscriberA[A, B]) OnComplete() {
	s.coord.mu.Lock()
	if !s.coord.hasA {
		s.coord.emptyA = true
	}
	s.coord.mu.Unlock()
	s.coord.tryEmit()
}

type monoZip2SubscriberB[A, B any] struct{ coord *monoZip2Coordinator[A, B] }

func (s *monoZip2SubscriberB[A, B]) Context() Context { return s.coord.Context() }
func (s *monoZip2SubscriberB[A, B]) OnSubscribe(sub Subscription) {
	s.coord.mu.Lock()
	s.coord.subB = sub
	s.coord.mu.Unlock()
	sub.Request(1)
}
func (s *monoZip2SubscriberB[A, B]) OnNext(value B) {
	s.coord.mu.Lock()
	s.coord.valueB = value
	s.coord.hasB = true
	s.coord.mu.Unlock()
}
func (s *monoZip2SubscriberB[A, B]) OnError(err error) { s.coord.terminateError(err) }
func (s *monoZip2SubscriberB[A, B]) OnComplete() {
	s.coord.mu.Lock()
	if !s.coord.hasB {
		s.coord.emptyB = true
	}
	s.coord.mu.Unlock()
	s.coord.tryEmit()
}

type monoZip2Subscription[A, B any] struct {
	coord *monoZip2Coordinator[A, B]
}

func (sub *monoZip2Subscription[A, B]) Request(n int64) {
	if err := Operators.ValidateRequest(n); err != nil {
		sub.Cancel()
		sub.coord.actual.OnError(err)
		return
	}
	sub.coord.mu.Lock()
	sub.coord.requested = true
	sub.coord.mu.Unlock()
	sub.coord.tryEmit()
}

func (sub *monoZip2Subscription[A, B]) Cancel() {
	sub.coord.mu.Lock()
	if sub.coord.done {
		sub.coord.mu.Unlock()
		return
	}
	sub.coord.done = true
	sub.coord.mu.Unlock()
	sub.coord.cancelAll()
}
