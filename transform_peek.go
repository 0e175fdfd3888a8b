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

// PeekHooks bundles the side-effecting callbacks Peek invokes without
// altering the sequence (spec §4.F "doOnX family"). Every field is
// optional; a nil hook is simply skipped. A *FatalError panic in any hook
// is rethrown. Otherwise, a panic in OnSubscribe, OnNext or OnComplete
// terminates the sequence with an OperatorError, a panic in OnError is
// combined with the original error (CombineErrors), a panic in OnFinally
// goes to the error-dropped hook, and a panic in OnRequest or OnCancel is
// recovered and ignored.
type PeekHooks[T any] struct {
	OnSubscribe func(Subscription)
	OnNext      func(T)
	OnError     func(error)
	OnComplete  func()
	OnCancel    func()
	OnRequest   func(int64)
	// OnFinally runs exactly once, after the sequence reaches any terminal
	// state: onComplete, onError, or cancellation, whichever comes first
	// (spec §4.F "doFinally").
	OnFinally func(SignalKind)
}

// SignalKind names which terminal state triggered OnFinally.
type SignalKind int

const (
	SignalComplete SignalKind = iota
	SignalError
	SignalCancel
)

// Peek attaches hooks without changing the values or timing of the
// sequence.
func Peek[T any](hooks PeekHooks[T]) FluxOperator[T, T] {
	return func(src Flux[T]) Flux[T] {
		return FromPublisher[T](&peekPublisher[T]{source: src.Publisher(), hooks: hooks})
	}
}

type peekPublisher[T any] struct {
	source Publisher[T]
	hooks  PeekHooks[T]
}

func (p *peekPublisher[T]) SubscribeWithContext(ctx Context, actual CoreSubscriber[T]) {
	p.source.SubscribeWithContext(ctx, &peekSubscriber[T]{actual: actual, hooks: p.hooks})
}

type peekSubscriber[T any] struct {
	actual    CoreSubscriber[T]
	hooks     PeekHooks[T]
	upstream  Subscription
	done      bool
	finalized bool
}

func (s *peekSubscriber[T]) Context() Context { return s.actual.Context() }

func (s *peekSubscriber[T]) runHook(fn func()) error {
	if fn == nil {
		return nil
	}
	return Operators.CallProtected(fn)
}

func (s *peekSubscriber[T]) finally(kind SignalKind) {
	if s.finalized {
		return
	}
	s.finalized = true
	if s.hooks.OnFinally == nil {
		return
	}
	if err := Operators.CallProtected(func() { s.hooks.OnFinally(kind) }); err != nil {
		Operators.OnErrorDropped(s.actual.Context(), err)
	}
}

func (s *peekSubscriber[T]) OnSubscribe(sub Subscription) {
	if !Operators.ValidateSubscription(s.actual.Context(), s.upstream, sub) {
		return
	}
	if s.hooks.OnSubscribe != nil {
		if err := s.runHook(func() { s.hooks.OnSubscribe(sub) }); err != nil {
			sub.Cancel()
			s.onHookError(err, nil, false)
			return
		}
	}
	s.upstream = sub
	s.actual.OnSubscribe(&peekSubscription[T]{Subscription: sub, owner: s})
}

func (s *peekSubscriber[T]) onHookError(err error, value any, hasValue bool) {
	if s.done {
		return
	}
	s.done = true
	wrapped := Operators.OnOperatorError(s.actual.Context(), s.upstream, err, value, hasValue)
	s.actual.OnError(wrapped)
	s.finally(SignalError)
}

func (s *peekSubscriber[T]) OnNext(value T) {
	if s.done {
		Operators.OnNextDropped(s.actual.Context(), value)
		return
	}
	if s.hooks.OnNext != nil {
		if err := s.runHook(func() { s.hooks.OnNext(value) }); err != nil {
			s.onHookError(err, value, true)
			return
		}
	}
	s.actual.OnNext(value)
}

func (s *peekSubscriber[T]) OnError(err error) {
	if s.done {
		Operators.OnErrorDropped(s.actual.Context(), err)
		return
	}
	s.done = true
	if s.hooks.OnError != nil {
		if hookErr := s.runHook(func() { s.hooks.OnError(err) }); hookErr != nil {
			err = CombineErrors(err, hookErr)
		}
	}
	s.actual.OnError(err)
	s.finally(SignalError)
}

func (s *peekSubscriber[T]) OnComplete() {
	if s.done {
		return
	}
	s.done = true
	if s.hooks.OnComplete != nil {
		if err := s.runHook(s.hooks.OnComplete); err != nil {
			s.actual.OnError(Operators.OnOperatorError(s.actual.Context(), nil, err, nil, false))
			s.finally(SignalError)
			return
		}
	}
	s.actual.OnComplete()
	s.finally(SignalComplete)
}

// peekSubscription intercepts Request/Cancel so doOnRequest/doOnCancel can
// observe them without the publisher needing its own Subscription type.
type peekSubscription[T any] struct {
	Subscription
	owner *peekSubscriber[T]
}

func (p *peekSubscription[T]) Request(n int64) {
	if p.owner.hooks.OnRequest != nil {
		_ = p.owner.runHook(func() { p.owner.hooks.OnRequest(n) })
	}
	p.Subscription.Request(n)
}

func (p *peekSubscription[T]) Cancel() {
	if p.owner.hooks.OnCancel != nil {
		_ = p.owner.runHook(p.owner.hooks.OnCancel)
	}
	p.Subscription.Cancel()
	p.owner.finally(SignalCancel)
}
