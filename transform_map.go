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

// Map applies mapper to every element. A panicking or error-returning mapper
// terminates the sequence with an OperatorError and discards the offending
// value; it never propagates a raw panic downstream (spec §4.A, §4.F).
func Map[T, R any](mapper func(T) (R, error)) FluxOperator[T, R] {
	return func(src Flux[T]) Flux[R] {
		return FromPublisher[R](&mapPublisher[T, R]{source: src.Publisher(), mapper: mapper})
	}
}

// MapValue is Map for a mapper that cannot itself fail.
func MapValue[T, R any](mapper func(T) R) FluxOperator[T, R] {
	return Map[T, R](func(v T) (R, error) { return mapper(v), nil })
}

type mapPublisher[T, R any] struct {
	source Publisher[T]
	mapper func(T) (R, error)
}

func (p *mapPublisher[T, R]) SubscribeWithContext(ctx Context, actual CoreSubscriber[R]) {
	p.source.SubscribeWithContext(ctx, &mapSubscriber[T, R]{actual: actual, mapper: p.mapper})
}

type mapSubscriber[T, R any] struct {
	actual   CoreSubscriber[R]
	mapper   func(T) (R, error)
	upstream Subscription
	done     bool
}

func (s *mapSubscriber[T, R]) Context() Context { return s.actual.Context() }

func (s *mapSubscriber[T, R]) OnSubscribe(sub Subscription) {
	if !Operators.ValidateSubscription(s.actual.Context(), s.upstream, sub) {
		return
	}
	s.upstream = sub
	s.actual.OnSubscribe(sub)
}

func (s *mapSubscriber[T, R]) OnNext(value T) {
	if s.done {
		Operators.OnNextDropped(s.actual.Context(), value)
		return
	}
	var mapped R
	var err error
	if perr := Operators.CallProtected(func() { mapped, err = s.mapper(value) }); perr != nil {
		err = perr
	}
	if err != nil {
		s.onMapError(value, err)
		return
	}
	s.actual.OnNext(mapped)
}

func (s *mapSubscriber[T, R]) onMapError(value T, err error) {
	s.done = true
	wrapped := Operators.OnOperatorError(s.actual.Context(), s.upstream, err, value, true)
	s.actual.OnError(wrapped)
}

func (s *mapSubscriber[T, R]) OnError(err error) {
	if s.done {
		Operators.OnErrorDropped(s.actual.Context(), err)
		return
	}
	s.done = true
	s.actual.OnError(err)
}

func (s *mapSubscriber[T, R]) OnComplete() {
	if s.done {
		return
	}
	s.done = true
	s.actual.OnComplete()
}

// TryOnNext lets Map preserve conditional fusion for a downstream filter:
// Map(f).Filter(p) still skips counting rejected elements against demand,
// provided actual is itself conditional.
func (s *mapSubscriber[T, R]) TryOnNext(value T) bool {
	cond, ok := s.actual.(ConditionalSubscriber[R])
	if !ok {
		s.OnNext(value)
		return true
	}
	if s.done {
		Operators.OnNextDropped(s.actual.Context(), value)
		return true
	}
	var mapped R
	var err error
	if perr := Operators.CallProtected(func() { mapped, err = s.mapper(value) }); perr != nil {
		err = perr
	}
	if err != nil {
		s.onMapError(value, err)
		return true
	}
	return cond.TryOnNext(mapped)
}

var _ ConditionalSubscriber[string] = (*mapSubscriber[string, int])(nil)
