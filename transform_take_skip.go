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

// Take emits at most n elements, then cancels upstream and completes. n <= 0
// completes immediately without subscribing upstream (spec §4.F).
func Take[T any](n int64) FluxOperator[T, T] {
	return func(src Flux[T]) Flux[T] {
		if n <= 0 {
			return FromPublisher[T](emptyTakePublisher[T]{})
		}
		return FromPublisher[T](&takePublisher[T]{source: src.Publisher(), n: n})
	}
}

type emptyTakePublisher[T any] struct{}

func (emptyTakePublisher[T]) SubscribeWithContext(ctx Context, actual CoreSubscriber[T]) {
	CompleteSubscriber[T](actual)
}

type takePublisher[T any] struct {
	source Publisher[T]
	n      int64
}

func (p *takePublisher[T]) SubscribeWithContext(ctx Context, actual CoreSubscriber[T]) {
	p.source.SubscribeWithContext(ctx, &takeSubscriber[T]{actual: actual, remaining: p.n})
}

type takeSubscriber[T any] struct {
	actual    CoreSubscriber[T]
	upstream  Subscription
	remaining int64
	done      bool
}

func (s *takeSubscriber[T]) Context() Context { return s.actual.Context() }

func (s *takeSubscriber[T]) OnSubscribe(sub Subscription) {
	if !Operators.ValidateSubscription(s.actual.Context(), s.upstream, sub) {
		return
	}
	s.upstream = sub
	s.actual.OnSubscribe(sub)
}

func (s *takeSubscriber[T]) OnNext(value T) {
	if s.done {
		Operators.OnNextDropped(s.actual.Context(), value)
		return
	}
	remaining := atomic.AddInt64(&s.remaining, -1)
	if remaining < 0 {
		Operators.OnDiscard(s.actual.Context(), value)
		return
	}
	s.actual.OnNext(value)
	if remaining == 0 {
		s.done = true
		s.upstream.Cancel()
		s.actual.OnComplete()
	}
}

func (s *takeSubscriber[T]) OnError(err error) {
	if s.done {
		Operators.OnErrorDropped(s.actual.Context(), err)
		return
	}
	s.done = true
	s.actual.OnError(err)
}

func (s *takeSubscriber[T]) OnComplete() {
	if s.done {
		return
	}
	s.done = true
	s.actual.OnComplete()
}

// Skip discards the first n elements, then forwards the rest unmodified.
// Skipped elements do not count against downstream demand: each one is
// replenished with an extra upstream Request(1) (spec §4.F).
func Skip[T any](n int64) FluxOperator[T, T] {
	return func(src Flux[T]) Flux[T] {
		if n <= 0 {
			return src
		}
		return FromPublisher[T](&skipPublisher[T]{source: src.Publisher(), n: n})
	}
}

type skipPublisher[T any] struct {
	source Publisher[T]
	n      int64
}

func (p *skipPublisher[T]) SubscribeWithContext(ctx Context, actual CoreSubscriber[T]) {
	p.source.SubscribeWithContext(ctx, &skipSubscriber[T]{actual: actual, remaining: p.n})
}

type skipSubscriber[T any] struct {
	actual    CoreSubscriber[T]
	upstream  Subscription
	remaining int64
	done      bool
}

func (s *skipSubscriber[T]) Context() Context { return s.actual.Context() }

func (s *skipSubscriber[T]) OnSubscribe(sub Subscription) {
	if !Operators.ValidateSubscription(s.actual.Context(), s.upstream, sub) {
		return
	}
	s.upstream = sub
	s.actual.OnSubscribe(sub)
}

func (s *skipSubscriber[T]) OnNext(value T) {
	if s.done {
		Operators.OnNextDropped(s.actual.Context(), value)
		return
	}
	if s.remaining > 0 {
		s.remaining--
		Operators.OnDiscard(s.actual.Context(), value)
		s.upstream.Request(1)
		return
	}
	s.actual.OnNext(value)
}

func (s *skipSubscriber[T]) OnError(err error) {
	if s.done {
		Operators.OnErrorDropped(s.actual.Context(), err)
		return
	}
	s.done = true
	s.actual.OnError(err)
}

func (s *skipSubscriber[T]) OnComplete() {
	if s.done {
		return
	}
	s.done = true
	s.actual.OnComplete()
}
