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

import (
	"github.com/samber/lo"
)

// Operators bundles the validation, arithmetic, and error-routing helpers
// every operator in this package relies on (spec §4.A). It is a namespace,
// not a type meant to be instantiated; all methods are effectively static
// and are only exposed as methods so call sites read as `Operators.Foo(...)`
// the same way the spec names them.
var Operators operatorsNamespace

type operatorsNamespace struct{}

// ValidateSubscription returns true iff current is nil and next is
// non-nil — the only state transition OnSubscribe may legally witness
// (spec §4.A, invariant 6). Otherwise it cancels next and reports a
// protocol error through errorDropped exactly once, and returns false.
func (operatorsNamespace) ValidateSubscription(ctx Context, current, next Subscription) bool {
	if next == nil {
		Operators.OnErrorDropped(ctx, newProtocolError("onSubscribe called with a nil Subscription"))
		return false
	}
	if current != nil {
		next.Cancel()
		Operators.OnErrorDropped(ctx, newProtocolError("double onSubscribe"))
		return false
	}
	return true
}

// ValidateRequest returns nil iff n >= 1. Otherwise it returns a
// *ProtocolError and delivers nothing itself — it is the caller's job (the
// subscriber that owns the Subscription) to deliver that error to OnError,
// and to make sure OnError is only delivered once even if Request is
// called with a bad value more than once after having already terminated.
func (operatorsNamespace) ValidateRequest(n int64) error {
	if n <= 0 {
		return newProtocolError("request must be positive, got %d", n)
	}
	return nil
}

// AddCap performs saturating addition at Unbounded (spec §4.A, testable
// property 5).
func (operatorsNamespace) AddCap(a, b int64) int64 {
	if a == Unbounded || b == Unbounded {
		return Unbounded
	}
	sum := a + b
	if sum < 0 || sum > Unbounded { // overflow wrapped negative, or exceeded cap
		return Unbounded
	}
	return sum
}

// SubOrZero performs saturating subtraction at zero.
func (operatorsNamespace) SubOrZero(a, b int64) int64 {
	if a == Unbounded {
		return Unbounded
	}
	r := a - b
	if r < 0 {
		return 0
	}
	return r
}

// OnDiscard routes value to ctx's discard hook. Never panics.
func (operatorsNamespace) OnDiscard(ctx Context, value any) {
	defer recoverIntoNoop()
	lookupDiscard(ctx)(ctx, value)
}

// OnErrorDropped routes err to ctx's error-dropped hook. Never panics, and
// is a no-op for a nil error.
func (operatorsNamespace) OnErrorDropped(ctx Context, err error) {
	if err == nil {
		return
	}
	defer recoverIntoNoop()
	lookupErrorDropped(ctx)(ctx, err)
}

// OnNextDropped routes value to ctx's next-dropped hook. Never panics.
func (operatorsNamespace) OnNextDropped(ctx Context, value any) {
	defer recoverIntoNoop()
	lookupNextDropped(ctx)(ctx, value)
}

func recoverIntoNoop() {
	_ = recover()
}

// OnOperatorError classifies err: fatal errors are returned unchanged for
// the caller to re-panic (see CallProtected), composable errors are
// returned wrapped as *OperatorError. If subscription is non-nil it is
// cancelled. If a value is supplied it is discarded through ctx's discard
// hook. The returned error is meant to be delivered to the subscriber's
// OnError exactly once by the caller.
func (operatorsNamespace) OnOperatorError(ctx Context, subscription Subscription, cause error, value any, hasValue bool) error {
	if subscription != nil {
		subscription.Cancel()
	}
	if hasValue {
		Operators.OnDiscard(ctx, value)
	}
	if IsFatal(cause) {
		return cause
	}
	return &OperatorError{Cause: cause, Value: value, HasValue: hasValue}
}

// CallProtected invokes fn, which must not panic under normal operation.
// If fn panics, the recovered value is normalized into an error and
// returned; a *FatalError panic value is re-panicked instead
// of being converted, per spec §4.A ("Fatal exceptions ... are rethrown up
// the stack rather than delivered through onError"). Grounded on the
// teacher's lo.TryCatchWithErrorValue usage in observer.go
// (observerImpl.tryNext/tryError/tryComplete).
func (operatorsNamespace) CallProtected(fn func()) (err error) {
	lo.TryCatchWithErrorValue(
		func() error {
			fn()
			return nil
		},
		func(recovered any) {
			if fe, ok := recovered.(*FatalError); ok {
				panic(fe)
			}
			err = recoverValueToError(recovered)
		},
	)
	return err
}

// CompleteSubscriber subscribes actual with a no-op Subscription and
// immediately delivers onComplete — the degenerate Publisher used by
// Empty() and by operators that determine at assembly/subscribe time that
// nothing will ever be emitted. (Go methods cannot carry their own type
// parameters, so this and ErrorSubscriber are free functions rather than
// Operators methods, unlike their non-generic siblings above.)
func CompleteSubscriber[T any](actual Subscriber[T]) {
	actual.OnSubscribe(noopSubscription{})
	actual.OnComplete()
}

// ErrorSubscriber subscribes actual with a no-op Subscription and
// immediately delivers onError(err).
func ErrorSubscriber[T any](actual Subscriber[T], err error) {
	actual.OnSubscribe(noopSubscription{})
	actual.OnError(err)
}

type noopSubscription struct{}

func (noopSubscription) Request(int64) {}
func (noopSubscription) Cancel()       {}

// CancelledSubscription is a Subscription sentinel installed in place of a
// real upstream subscription once an operator has fully cancelled; holding
// onto it (instead of nil) lets later calls on the same field detect
// "already cancelled" instead of racing a nil-check against a concurrent
// subscribe. Grounded on spec §4.G ("set subscription to a cancelled
// sentinel").
var CancelledSubscription Subscription = noopSubscription{}
