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

// Hide erases any Scannable/QueueSubscription/ConditionalSubscriber
// capability the upstream exposes, forcing the plain Subscriber contract.
// Use it to prevent an operator chain from being macro-fused in ways that
// would defeat a deliberate thread or assembly boundary (spec §4.F, the Go
// analogue of the upstream's "hide" operator).
func Hide[T any](src Flux[T]) Flux[T] {
	return FromPublisher[T](&hidePublisher[T]{source: src.Publisher()})
}

type hidePublisher[T any] struct {
	source Publisher[T]
}

func (p *hidePublisher[T]) SubscribeWithContext(ctx Context, actual CoreSubscriber[T]) {
	p.source.SubscribeWithContext(ctx, &hideSubscriber[T]{actual: actual})
}

// hideSubscriber deliberately does not implement ConditionalSubscriber even
// when actual does, and wraps the upstream Subscription in hideSubscription
// so a type assertion for QueueSubscription downstream always fails.
type hideSubscriber[T any] struct {
	actual CoreSubscriber[T]
}

func (s *hideSubscriber[T]) Context() Context { return s.actual.Context() }

func (s *hideSubscriber[T]) OnSubscribe(sub Subscription) {
	s.actual.OnSubscribe(hideSubscription{sub})
}

func (s *hideSubscriber[T]) OnNext(value T)    { s.actual.OnNext(value) }
func (s *hideSubscriber[T]) OnError(err error) { s.actual.OnError(err) }
func (s *hideSubscriber[T]) OnComplete()       { s.actual.OnComplete() }

type hideSubscription struct {
	Subscription
}
