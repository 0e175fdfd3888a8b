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

// Scan emits seed immediately upon subscription (counting against the
// first unit of downstream demand), then the running result of accumulator
// applied to the previous emission and each new element (spec §4.G). An
// accumulator error terminates the sequence the same way Map's does.
func Scan[T, A any](seed A, accumulator func(A, T) (A, error)) FluxOperator[T, A] {
	return func(src Flux[T]) Flux[A] {
		return FromPublisher[A](&scanPublisher[T, A]{source: src.Publisher(), seed: seed, accumulator: accumulator})
	}
}

type scanPublisher[T, A any] struct {
	source      Publisher[T]
	seed        A
	accumulator func(A, T) (A, error)
}

func (p *scanPublisher[T, A]) SubscribeWithContext(ctx Context, actual CoreSubscriber[A]) {
	p.source.SubscribeWithContext(ctx, &scanSubscriber[T, A]{
		actual:      actual,
		accumulator: p.accumulator,
		state:       p.seed,
	})
}

type scanSubscriber[T, A any] struct {
	actual      CoreSubscriber[A]
	accumulator func(A, T) (A, error)
	upstream    Subscription
	state       A
	seedSent    bool
	done        bool
}

func (s *scanSubscriber[T, A]) Context() Context { return s.actual.Context() }

func (s *scanSubscriber[T, A]) OnSubscribe(sub Subscription) {
	if !Operators.ValidateSubscription(s.actual.Context(), s.upstream, sub) {
		return
	}
	s.upstream = sub
	s.actual.OnSubscribe(&scanSubscription[T, A]{Subscription: sub, owner: s})
}

func (s *scanSubscriber[T, A]) emitSeedIfNeeded() {
	if !s.seedSent {
		s.seedSent = true
		s.actual.OnNext(s.state)
	}
}

func (s *scanSubscriber[T, A]) OnNext(value T) {
	if s.done {
		Operators.OnNextDropped(s.actual.Context(), value)
		return
	}
	s.emitSeedIfNeeded()
	next, err := s.accumulator(s.state, value)
	if err != nil {
		s.done = true
		s.actual.OnError(Operators.OnOperatorError(s.actual.Context(), s.upstream, err, value, true))
		return
	}
	s.state = next
	s.actual.OnNext(s.state)
}

func (s *scanSubscriber[T, A]) OnError(err error) {
	if s.done {
		Operators.OnErrorDropped(s.actual.Context(), err)
		return
	}
	s.done = true
	s.actual.OnError(err)
}

func (s *scanSubscriber[T, A]) OnComplete() {
	if s.done {
		return
	}
	s.done = true
	s.emitSeedIfNeeded()
	s.actual.OnComplete()
}

// scanSubscription emits the seed on the first Request call, consuming one
// unit of downstream demand before any upstream demand is created (spec
// §4.G: the seed "counts against the first unit of downstream demand").
type scanSubscription[T, A any] struct {
	Subscription
	owner     *scanSubscriber[T, A]
	firstSeen bool
}

func (sub *scanSubscription[T, A]) Request(n int64) {
	if err := Operators.ValidateRequest(n); err != nil {
		sub.Cancel()
		sub.owner.actual.OnError(err)
		return
	}
	if !sub.firstSeen {
		sub.firstSeen = true
		sub.owner.emitSeedIfNeeded()
		if n == Unbounded {
			sub.Subscription.Request(n)
			return
		}
		if n > 1 {
			sub.Subscription.Request(n - 1)
		}
		return
	}
	sub.Subscription.Request(n)
}
