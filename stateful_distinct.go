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

// Distinct suppresses elements whose keySelector result has already been
// seen, for the lifetime of the subscription (spec §4.G). A rejected
// element does not count against downstream demand, the same as Filter;
// Distinct is implemented directly on top of the conditional-subscriber
// machinery rather than composed from Filter so the seen-set only needs to
// be built once per subscription.
func Distinct[T any, K comparable](keySelector func(T) (K, error)) FluxOperator[T, T] {
	return func(src Flux[T]) Flux[T] {
		return FromPublisher[T](&distinctPublisher[T, K]{source: src.Publisher(), keySelector: keySelector})
	}
}

// DistinctValue is Distinct for elements that are themselves comparable.
func DistinctValue[T comparable]() FluxOperator[T, T] {
	return Distinct[T, T](func(v T) (T, error) { return v, nil })
}

type distinctPublisher[T any, K comparable] struct {
	source      Publisher[T]
	keySelector func(T) (K, error)
}

func (p *distinctPublisher[T, K]) SubscribeWithContext(ctx Context, actual CoreSubscriber[T]) {
	p.source.SubscribeWithContext(ctx, &distinctSubscriber[T, K]{
		actual:      actual,
		keySelector: p.keySelector,
		seen:        make(map[K]struct{}),
	})
}

type distinctSubscriber[T any, K comparable] struct {
	actual      CoreSubscriber[T]
	keySelector func(T) (K, error)
	upstream    Subscription
	seen        map[K]struct{}
	done        bool
}

func (s *distinctSubscriber[T, K]) Context() Context { return s.actual.Context() }

func (s *distinctSubscriber[T, K]) OnSubscribe(sub Subscription) {
	if !Operators.ValidateSubscription(s.actual.Context(), s.upstream, sub) {
		return
	}
	s.upstream = sub
	s.actual.OnSubscribe(sub)
}

func (s *distinctSubscriber[T, K]) OnNext(value T) {
	s.TryOnNext(value)
}

func (s *distinctSubscriber[T, K]) TryOnNext(value T) bool {
	if s.done {
		Operators.OnNextDropped(s.actual.Context(), value)
		return true
	}
	key, err := s.keySelector(value)
	if err != nil {
		s.done = true
		s.actual.OnError(Operators.OnOperatorError(s.actual.Context(), s.upstream, err, value, true))
		return true
	}
	if _, dup := s.seen[key]; dup {
		Operators.OnDiscard(s.actual.Context(), value)
		if _, ok := s.actual.(ConditionalSubscriber[T]); !ok {
			s.upstream.Request(1)
		}
		return false
	}
	s.seen[key] = struct{}{}
	if cond, ok := s.actual.(ConditionalSubscriber[T]); ok {
		return cond.TryOnNext(value)
	}
	s.actual.OnNext(value)
	return true
}

func (s *distinctSubscriber[T, K]) OnError(err error) {
	if s.done {
		Operators.OnErrorDropped(s.actual.Context(), err)
		return
	}
	s.done = true
	s.actual.OnError(err)
}

func (s *distinctSubscriber[T, K]) OnComplete() {
	if s.done {
		return
	}
	s.done = true
	s.actual.OnComplete()
}

var _ ConditionalSubscriber[int] = (*distinctSubscriber[int, int])(nil)
