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

// IgnoreElements discards every onNext and immediately requests Unbounded
// upstream, passing only the terminal signal through. Grounded on spec
// §4.F: a degenerate map-to-nothing used to wait for completion without
// paying per-element demand bookkeeping.
func IgnoreElements[T any](src Flux[T]) Mono[T] {
	return FromMonoPublisher[T](&ignorePublisher[T]{source: src.Publisher()})
}

type ignorePublisher[T any] struct {
	source Publisher[T]
}

func (p *ignorePublisher[T]) SubscribeWithContext(ctx Context, actual CoreSubscriber[T]) {
	p.source.SubscribeWithContext(ctx, &ignoreSubscriber[T]{actual: actual})
}

type ignoreSubscriber[T any] struct {
	actual CoreSubscriber[T]
	done   bool
}

func (s *ignoreSubscriber[T]) Context() Context { return s.actual.Context() }

func (s *ignoreSubscriber[T]) OnSubscribe(sub Subscription) {
	s.actual.OnSubscribe(sub)
	sub.Request(Unbounded)
}

func (s *ignoreSubscriber[T]) OnNext(value T) {
	Operators.OnDiscard(s.actual.Context(), value)
}

func (s *ignoreSubscriber[T]) OnError(err error) {
	if s.done {
		Operators.OnErrorDropped(s.actual.Context(), err)
		return
	}
	s.done = true
	s.actual.OnError(err)
}

func (s *ignoreSubscriber[T]) OnComplete() {
	if s.done {
		return
	}
	s.done = true
	s.actual.OnComplete()
}
