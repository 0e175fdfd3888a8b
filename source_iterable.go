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

// Iterator is the pull-based source protocol FromIterable drives
// explicitly (spec §4.E: "like array but with explicit hasNext/next
// calls").
type Iterator[T any] interface {
	HasNext() bool
	Next() (T, error)
}

// Iterable produces a fresh Iterator per subscription.
type Iterable[T any] interface {
	Iterator() Iterator[T]
}

type sliceIterable[T any] struct{ values []T }

func (s sliceIterable[T]) Iterator() Iterator[T] { return &sliceIterator[T]{values: s.values} }

type sliceIterator[T any] struct {
	values []T
	index  int
}

func (it *sliceIterator[T]) HasNext() bool { return it.index < len(it.values) }
func (it *sliceIterator[T]) Next() (T, error) {
	v := it.values[it.index]
	it.index++
	return v, nil
}

// IterableOf adapts a plain slice into an Iterable, for callers who have a
// slice but want FromIterable's explicit pull semantics rather than
// FromArray's fusion-friendly fast path.
func IterableOf[T any](values []T) Iterable[T] { return sliceIterable[T]{values: values} }

type iterablePublisher[T any] struct {
	iterable Iterable[T]
}

// FromIterable drives it via HasNext/Next under backpressure. It checks for
// cancellation before each Next, so no value is pulled after a cancel and
// none is passed to the discard hook.
func FromIterable[T any](iterable Iterable[T]) Flux[T] {
	return Flux[T]{pub: &iterablePublisher[T]{iterable: iterable}}
}

func (p *iterablePublisher[T]) SubscribeWithContext(ctx Context, actual CoreSubscriber[T]) {
	it := p.iterable.Iterator()
	if !it.HasNext() {
		CompleteSubscriber[T](actual)
		return
	}
	actual.OnSubscribe(newIterableSubscription(actual, it))
}

type iterableSubscription[T any] struct {
	actual    CoreSubscriber[T]
	it        Iterator[T]
	requested int64
	cancelled atomic.Bool
}

func newIterableSubscription[T any](actual CoreSubscriber[T], it Iterator[T]) *iterableSubscription[T] {
	return &iterableSubscription[T]{actual: actual, it: it}
}

func (s *iterableSubscription[T]) Request(n int64) {
	if err := Operators.ValidateRequest(n); err != nil {
		s.Cancel()
		s.actual.OnError(err)
		return
	}
	for {
		old := atomic.LoadInt64(&s.requested)
		next := Operators.AddCap(old, n)
		if atomic.CompareAndSwapInt64(&s.requested, old, next) {
			if old == 0 {
				s.drain(next)
			}
			return
		}
	}
}

func (s *iterableSubscription[T]) drain(n int64) {
	var emitted int64
	for {
		for emitted != n && s.it.HasNext() {
			if s.cancelled.Load() {
				return
			}
			v, err := s.it.Next()
			if err != nil {
				s.actual.OnError(Operators.OnOperatorError(s.actual.Context(), s, err, nil, false))
				return
			}
			s.actual.OnNext(v)
			emitted++
		}
		if !s.it.HasNext() {
			if !s.cancelled.Load() {
				s.actual.OnComplete()
			}
			return
		}
		n = atomic.LoadInt64(&s.requested)
		if n == emitted {
			n = atomic.AddInt64(&s.requested, -emitted)
			if n == 0 {
				return
			}
			emitted = 0
		}
	}
}

func (s *iterableSubscription[T]) Cancel() {
	s.cancelled.Store(true)
}
