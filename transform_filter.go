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

// Filter drops every element for which predicate returns false. A rejected
// element does not count against downstream demand: Filter re-requests one
// element upstream per rejection when actual is not itself conditional (spec
// §3 "Conditional Subscriber" exists precisely to avoid this re-request
// dance when the whole chain supports it).
func Filter[T any](predicate func(T) (bool, error)) FluxOperator[T, T] {
	return func(src Flux[T]) Flux[T] {
		return FromPublisher[T](&filterPublisher[T]{source: src.Publisher(), predicate: predicate})
	}
}

// FilterValue is Filter for a predicate that cannot itself fail.
func FilterValue[T any](predicate func(T) bool) FluxOperator[T, T] {
	return Filter[T](func(v T) (bool, error) { return predicate(v), nil })
}

type filterPublisher[T any] struct {
	source    Publisher[T]
	predicate func(T) (bool, error)
}

func (p *filterPublisher[T]) SubscribeWithContext(ctx Context, actual CoreSubscriber[T]) {
	if cond, ok := actual.(ConditionalSubscriber[T]); ok {
		p.source.SubscribeWithContext(ctx, &filterConditionalSubscriber[T]{actual: cond, predicate: p.predicate})
		return
	}
	p.source.SubscribeWithContext(ctx, &filterSubscriber[T]{actual: actual, predicate: p.predicate})
}

type filterSubscriber[T any] struct {
	actual    CoreSubscriber[T]
	predicate func(T) (bool, error)
	upstream  Subscription
	done      bool
}

func (s *filterSubscriber[T]) Context() Context { return s.actual.Context() }

func (s *filterSubscriber[T]) OnSubscribe(sub Subscription) {
	if !Operators.ValidateSubscription(s.actual.Context(), s.upstream, sub) {
		return
	}
	s.upstream = sub
	s.actual.OnSubscribe(sub)
}

func (s *filterSubscriber[T]) OnNext(value T) {
	if s.done {
		Operators.OnNextDropped(s.actual.Context(), value)
		return
	}
	keep, err := s.predicate(value)
	if err != nil {
		s.done = true
		s.actual.OnError(Operators.OnOperatorError(s.actual.Context(), s.upstream, err, value, true))
		return
	}
	if !keep {
		Operators.OnDiscard(s.actual.Context(), value)
		s.upstream.Request(1)
		return
	}
	s.actual.OnNext(value)
}

func (s *filterSubscriber[T]) OnError(err error) {
	if s.done {
		Operators.OnErrorDropped(s.actual.Context(), err)
		return
	}
	s.done = true
	s.actual.OnError(err)
}

func (s *filterSubscriber[T]) OnComplete() {
	if s.done {
		return
	}
	s.done = true
	s.actual.OnComplete()
}

// filterConditionalSubscriber is the fast path used when the downstream
// chain is itself conditional: rejection is reported via TryOnNext
// returning false, so the upstream source (e.g. an array/range
// fast-path loop) never has to be re-requested.
type filterConditionalSubscriber[T any] struct {
	actual    ConditionalSubscriber[T]
	predicate func(T) (bool, error)
	upstream  Subscription
	done      bool
}

func (s *filterConditionalSubscriber[T]) Context() Context { return s.actual.Context() }

func (s *filterConditionalSubscriber[T]) OnSubscribe(sub Subscription) {
	if !Operators.ValidateSubscription(s.actual.Context(), s.upstream, sub) {
		return
	}
	s.upstream = sub
	s.actual.OnSubscribe(sub)
}

func (s *filterConditionalSubscriber[T]) OnNext(value T) {
	s.TryOnNext(value)
}

func (s *filterConditionalSubscriber[T]) TryOnNext(value T) bool {
	if s.done {
		Operators.OnNextDropped(s.actual.Context(), value)
		return true
	}
	keep, err := s.predicate(value)
	if err != nil {
		s.done = true
		s.actual.OnError(Operators.OnOperatorError(s.actual.Context(), s.upstream, err, value, true))
		return true
	}
	if !keep {
		Operators.OnDiscard(s.actual.Context(), value)
		return false
	}
	return s.actual.TryOnNext(value)
}

func (s *filterConditionalSubscriber[T]) OnError(err error) {
	if s.done {
		Operators.OnErrorDropped(s.actual.Context(), err)
		return
	}
	s.done = true
	s.actual.OnError(err)
}

func (s *filterConditionalSubscriber[T]) OnComplete() {
	if s.done {
		return
	}
	s.done = true
	s.actual.OnComplete()
}

var (
	_ ConditionalSubscriber[int] = (*filterConditionalSubscriber[int])(nil)
	_ CoreSubscriber[int]        = (*filterSubscriber[int])(nil)
)
