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

// Repeat resubscribes to src up to maxAttempts additional times after an
// onComplete, as long as predicate() reports true, mirroring Retry's
// upstream-switch machinery but triggered by successful completion rather
// than failure (spec §4.I). A nil predicate always repeats. An onError
// from any attempt terminates the sequence immediately; it is never
// treated as a reason to repeat.
func Repeat[T any](maxAttempts int64, predicate func() bool) FluxOperator[T, T] {
	if predicate == nil {
		predicate = func() bool { return true }
	}
	return func(src Flux[T]) Flux[T] {
		return FromPublisher[T](&repeatPublisher[T]{source: src, maxAttempts: maxAttempts, predicate: predicate})
	}
}

type repeatPublisher[T any] struct {
	source      Flux[T]
	maxAttempts int64
	predicate   func() bool
}

func (p *repeatPublisher[T]) SubscribeWithContext(ctx Context, actual CoreSubscriber[T]) {
	r := &repeatSubscriber[T]{ctx: ctx, actual: actual, source: p.source, maxAttempts: p.maxAttempts, predicate: p.predicate}
	actual.OnSubscribe(&r.multi)
	r.subscribeNext()
}

type repeatSubscriber[T any] struct {
	ctx         Context
	actual      CoreSubscriber[T]
	source      Flux[T]
	maxAttempts int64
	predicate   func() bool
	attempt     int64
	multi       MultiSubscription
	done        bool
}

func (r *repeatSubscriber[T]) Context() Context { return r.ctx }

func (r *repeatSubscriber[T]) subscribeNext() {
	if r.multi.IsCancelled() {
		return
	}
	r.source.SubscribeWithContext(r.ctx, r)
}

func (r *repeatSubscriber[T]) OnSubscribe(sub Subscription) { r.multi.Set(sub) }

func (r *repeatSubscriber[T]) OnNext(value T) {
	if r.done {
		Operators.OnNextDropped(r.ctx, value)
		return
	}
	r.multi.Produced(1)
	r.actual.OnNext(value)
}

func (r *repeatSubscriber[T]) OnError(err error) {
	if r.done {
		Operators.OnErrorDropped(r.ctx, err)
		return
	}
	r.done = true
	r.actual.OnError(err)
}

func (r *repeatSubscriber[T]) OnComplete() {
	if r.done {
		return
	}
	var again bool
	if perr := Operators.CallProtected(func() { again = r.predicate() }); perr != nil {
		r.done = true
		r.actual.OnError(perr)
		return
	}
	if !again || r.attempt >= r.maxAttempts {
		r.done = true
		r.actual.OnComplete()
		return
	}
	r.attempt++
	r.subscribeNext()
}
