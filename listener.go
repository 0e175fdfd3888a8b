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

// Listener is the Observation listener external interface (spec §6): a
// per-subscription set of hooks a collaborator the core "produces to" can
// implement to observe a subscription's lifecycle without taking part in
// it. Unlike Peek, which is an ordinary operator composed inline per call
// site, a Listener is a reusable, named object — the shape
// adapters/observability/zap's implementation is built against. Every
// method must tolerate being called; a Listener that wants to ignore a
// hook simply gives it an empty body, which is why NopListener exists as
// an embeddable base.
type Listener[T any] interface {
	// DoFirst runs before the upstream is subscribed at all.
	DoFirst()
	DoOnSubscribe(sub Subscription)
	DoOnNext(value T)
	// DoOnError runs as the terminal handler on the error path, before
	// DoFinally.
	DoOnError(err error)
	// DoOnComplete runs as the terminal handler on the completion path,
	// before DoFinally.
	DoOnComplete()
	DoOnCancel()
	DoOnRequest(n int64)
	// DoFinally always runs exactly once, regardless of which terminal
	// path (error, complete, or cancel) the subscription took, and
	// regardless of whether an earlier hook panicked.
	DoFinally(signal SignalKind)
}

// NopListener implements every Listener method as a no-op; embed it to
// implement only the hooks a particular Listener cares about.
type NopListener[T any] struct{}

func (NopListener[T]) DoFirst()             {}
func (NopListener[T]) DoOnSubscribe(Subscription) {}
func (NopListener[T]) DoOnNext(T)           {}
func (NopListener[T]) DoOnError(error)      {}
func (NopListener[T]) DoOnComplete()        {}
func (NopListener[T]) DoOnCancel()          {}
func (NopListener[T]) DoOnRequest(int64)    {}
func (NopListener[T]) DoFinally(SignalKind) {}

// Observe attaches listener to src, invoking its hooks in the order spec
// §6 defines: DoFirst before subscribing, DoOnSubscribe once the upstream
// Subscription arrives, DoOnNext/DoOnRequest/DoOnCancel as those signals
// occur, the matching terminal hook (DoOnError or DoOnComplete) before
// DoFinally, which always runs exactly once no matter which path
// terminated the subscription. Every hook invocation is wrapped so a
// panicking listener cannot prevent delivery to the real subscriber or
// skip DoFinally; the recovered value is handled by handleListenerError.
func Observe[T any](listener Listener[T]) FluxOperator[T, T] {
	return func(src Flux[T]) Flux[T] {
		return FromPublisher[T](&listenerPublisher[T]{source: src, listener: listener})
	}
}

type listenerPublisher[T any] struct {
	source   Flux[T]
	listener Listener[T]
}

func (p *listenerPublisher[T]) SubscribeWithContext(ctx Context, actual CoreSubscriber[T]) {
	l := &listenerSubscriber[T]{ctx: ctx, actual: actual, listener: p.listener}
	handleListenerError(ctx, func() { p.listener.DoFirst() })
	p.source.SubscribeWithContext(ctx, l)
}

type listenerSubscriber[T any] struct {
	ctx      Context
	actual   CoreSubscriber[T]
	listener Listener[T]
	finished bool
}

func (l *listenerSubscriber[T]) Context() Context { return l.ctx }

func (l *listenerSubscriber[T]) finally(signal SignalKind) {
	if l.finished {
		return
	}
	l.finished = true
	handleListenerError(l.ctx, func() { l.listener.DoFinally(signal) })
}

func (l *listenerSubscriber[T]) OnSubscribe(sub Subscription) {
	handleListenerError(l.ctx, func() { l.listener.DoOnSubscribe(sub) })
	l.actual.OnSubscribe(&listenerSubscription[T]{listener: l, upstream: sub})
}

func (l *listenerSubscriber[T]) OnNext(value T) {
	handleListenerError(l.ctx, func() { l.listener.DoOnNext(value) })
	l.actual.OnNext(value)
}

func (l *listenerSubscriber[T]) OnError(err error) {
	handleListenerError(l.ctx, func() { l.listener.DoOnError(err) })
	l.actual.OnError(err)
	l.finally(SignalError)
}

func (l *listenerSubscriber[T]) OnComplete() {
	handleListenerError(l.ctx, func() { l.listener.DoOnComplete() })
	l.actual.OnComplete()
	l.finally(SignalComplete)
}

type listenerSubscription[T any] struct {
	listener *listenerSubscriber[T]
	upstream Subscription
}

func (s *listenerSubscription[T]) Request(n int64) {
	handleListenerError(s.listener.ctx, func() { s.listener.listener.DoOnRequest(n) })
	s.upstream.Request(n)
}

func (s *listenerSubscription[T]) Cancel() {
	handleListenerError(s.listener.ctx, func() { s.listener.listener.DoOnCancel() })
	s.upstream.Cancel()
	s.listener.finally(SignalCancel)
}

// handleListenerError runs fn, and if it panics, routes the recovered
// value to ctx's error-dropped hook instead of letting it escape into the
// subscriber chain — a listener is an observer, and an observer's own
// failure must never affect what the subscriber sees (spec §6, "listener
// exceptions never prevent doFinally").
func handleListenerError(ctx Context, fn func()) {
	if err := Operators.CallProtected(fn); err != nil {
		Operators.OnErrorDropped(ctx, err)
	}
}
