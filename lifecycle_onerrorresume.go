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

// OnErrorResume recovers from an onError by subscribing to the Flux that
// resumeFn returns for that error and continuing from there, carrying
// outstanding demand across the switch the same way Retry and Concat do
// (spec §4.I, one of the operators permitted to recover locally rather
// than propagate). A fatal error is never handed to resumeFn; it is
// rethrown per spec §4.A. If resumeFn itself panics, the panic is
// delivered downstream combined with the original error (CombineErrors).
func OnErrorResume[T any](resumeFn func(error) Flux[T]) FluxOperator[T, T] {
	return func(src Flux[T]) Flux[T] {
		return FromPublisher[T](&onErrorResumePublisher[T]{source: src, resumeFn: resumeFn})
	}
}

// OnErrorReturn is OnErrorResume specialized to a constant fallback value
// followed immediately by completion, matching the spec's naming of both
// as distinct recovery operators (§7).
func OnErrorReturn[T any](fallback T) FluxOperator[T, T] {
	return OnErrorResume[T](func(error) Flux[T] {
		return Just(fallback)
	})
}

type onErrorResumePublisher[T any] struct {
	source   Flux[T]
	resumeFn func(error) Flux[T]
}

func (p *onErrorResumePublisher[T]) SubscribeWithContext(ctx Context, actual CoreSubscriber[T]) {
	c := &onErrorResumeSubscriber[T]{ctx: ctx, actual: actual, resumeFn: p.resumeFn}
	actual.OnSubscribe(&c.multi)
	p.source.SubscribeWithContext(ctx, c)
}

type onErrorResumeSubscriber[T any] struct {
	ctx      Context
	actual   CoreSubscriber[T]
	resumeFn func(error) Flux[T]
	multi    MultiSubscription
	resumed  bool
	done     bool
}

func (c *onErrorResumeSubscriber[T]) Context() Context { return c.ctx }

func (c *onErrorResumeSubscriber[T]) OnSubscribe(sub Subscription) { c.multi.Set(sub) }

func (c *onErrorResumeSubscriber[T]) OnNext(value T) {
	if c.done {
		Operators.OnNextDropped(c.ctx, value)
		return
	}
	c.multi.Produced(1)
	c.actual.OnNext(value)
}

func (c *onErrorResumeSubscriber[T]) OnError(err error) {
	if c.done {
		Operators.OnErrorDropped(c.ctx, err)
		return
	}
	if IsFatal(err) {
		c.done = true
		panic(err)
	}
	if c.resumed {
		c.done = true
		c.actual.OnError(err)
		return
	}
	var fallback Flux[T]
	if perr := Operators.CallProtected(func() { fallback = c.resumeFn(err) }); perr != nil {
		c.done = true
		c.actual.OnError(CombineErrors(err, perr))
		return
	}
	c.resumed = true
	fallback.SubscribeWithContext(c.ctx, c)
}

func (c *onErrorResumeSubscriber[T]) OnComplete() {
	if c.done {
		return
	}
	c.done = true
	c.actual.OnComplete()
}
