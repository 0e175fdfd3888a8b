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

// Retry resubscribes to src up to maxAttempts additional times after an
// onError, as long as predicate(err) reports true (spec §4.I). Demand
// outstanding at the moment of the failed attempt carries over to the
// resubscription via MultiSubscription, the same mechanism Concat uses to
// carry demand across a source switch. A nil predicate retries every
// error. Once attempts are exhausted, the last error is delivered
// downstream unchanged.
func Retry[T any](maxAttempts int64, predicate func(error) bool) FluxOperator[T, T] {
	if predicate == nil {
		predicate = func(error) bool { return true }
	}
	return func(src Flux[T]) Flux[T] {
		return FromPublisher[T](&retryPublisher[T]{source: src, maxAttempts: maxAttempts, predicate: predicate})
	}
}

type retryPublisher[T any] struct {
	source      Flux[T]
	maxAttempts int64
	predicate   func(error) bool
}

func (p *retryPublisher[T]) SubscribeWithContext(ctx Context, actual CoreSubscriber[T]) {
	r := &retrySubscriber[T]{ctx: ctx, actual: actual, source: p.source, maxAttempts: p.maxAttempts, predicate: p.predicate}
	actual.OnSubscribe(&r.multi)
	r.subscribeNext()
}

type retrySubscriber[T any] struct {
	ctx         Context
	actual      CoreSubscriber[T]
	source      Flux[T]
	maxAttempts int64
	predicate   func(error) bool
	attempt     int64
	multi       MultiSubscription
	done        bool
}

func (r *retrySubscriber[T]) Context() Context { return r.ctx }

func (r *retrySubscriber[T]) subscribeNext() {
	if r.multi.IsCancelled() {
		return
	}
	r.source.SubscribeWithContext(r.ctx, r)
}

func (r *retrySubscriber[T]) OnSubscribe(sub Subscription) { r.multi.Set(sub) }

func (r *retrySubscriber[T]) OnNext(value T) {
	if r.done {
		Operators.OnNextDropped(r.ctx, value)
		return
	}
	r.multi.Produced(1)
	r.actual.OnNext(value)
}

func (r *retrySubscriber[T]) OnError(err error) {
	if r.done {
		Operators.OnErrorDropped(r.ctx, err)
		return
	}
	if IsFatal(err) {
		r.done = true
		r.actual.OnError(err)
		return
	}
	var allow bool
	if perr := Operators.CallProtected(func() { allow = r.predicate(err) }); perr != nil {
		r.done = true
		r.actual.OnError(CombineErrors(err, perr))
		return
	}
	if !allow || r.attempt >= r.maxAttempts {
		r.done = true
		r.actual.OnError(err)
		return
	}
	r.attempt++
	r.subscribeNext()
}

func (r *retrySubscriber[T]) OnComplete() {
	if r.done {
		return
	}
	r.done = true
	r.actual.OnComplete()
}
