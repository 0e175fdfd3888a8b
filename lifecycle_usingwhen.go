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

// UsingWhen acquires a resource from resourceSupplier, builds the main
// sequence from it via resourceClosure, and runs exactly one of
// asyncComplete/asyncError/asyncCancel as a cleanup publisher once the main
// sequence reaches the corresponding terminal state (spec §4.I). The main
// sequence's own terminal signal is deferred until cleanup itself
// terminates; a cleanup failure on the complete or error branch is combined
// with whatever error the main sequence produced (nil on the complete
// branch) via CombineErrors. Cleanup on the cancel branch is fire-and-
// forget: there is no downstream left to deliver its outcome to, so a
// cleanup failure there is routed to the error-dropped hook instead. Any of
// the three cleanup functions may be nil, meaning "no cleanup on this
// branch".
func UsingWhen[S, T, C any](
	resourceSupplier Mono[S],
	resourceClosure func(S) Flux[T],
	asyncComplete func(S) Mono[C],
	asyncError func(S, error) Mono[C],
	asyncCancel func(S) Mono[C],
) Flux[T] {
	return FromPublisher[T](&usingWhenPublisher[S, T, C]{
		resourceSupplier: resourceSupplier,
		resourceClosure:  resourceClosure,
		asyncComplete:    asyncComplete,
		asyncError:       asyncError,
		asyncCancel:      asyncCancel,
	})
}

type usingWhenPublisher[S, T, C any] struct {
	resourceSupplier Mono[S]
	resourceClosure  func(S) Flux[T]
	asyncComplete    func(S) Mono[C]
	asyncError       func(S, error) Mono[C]
	asyncCancel      func(S) Mono[C]
}

func (p *usingWhenPublisher[S, T, C]) SubscribeWithContext(ctx Context, actual CoreSubscriber[T]) {
	c := &usingWhenCoordinator[S, T, C]{ctx: ctx, actual: actual, p: p}
	c.resourceSupplier.SubscribeWithContext(ctx, &usingWhenResourceSubscriber[S, T, C]{coord: c})
}

type usingWhenCoordinator[S, T, C any] struct {
	ctx      Context
	actual   CoreSubscriber[T]
	p        *usingWhenPublisher[S, T, C]
	resource S
	multi    MultiSubscription
	done     bool
}

func (c *usingWhenCoordinator[S, T, C]) Context() Context { return c.ctx }

// startMain is called once the resource Mono has produced a value. It
// installs the MultiSubscription as the Subscription actual sees, so
// Request/Cancel reach the main sequence (and, on Cancel, trigger the
// cancel-branch cleanup) from the moment actual.OnSubscribe runs.
func (c *usingWhenCoordinator[S, T, C]) startMain(resource S) {
	c.resource = resource
	c.actual.OnSubscribe(&usingWhenSubscription[S, T, C]{coord: c})

	var main Flux[T]
	if err := Operators.CallProtected(func() { main = c.p.resourceClosure(resource) }); err != nil {
		c.cleanupThenError(err)
		return
	}
	main.SubscribeWithContext(c.ctx, &usingWhenMainSubscriber[S, T, C]{coord: c})
}

func (c *usingWhenCoordinator[S, T, C]) cleanupThenComplete() {
	if c.p.asyncComplete == nil {
		c.finishComplete(nil)
		return
	}
	var cleanup Mono[C]
	if err := Operators.CallProtected(func() { cleanup = c.p.asyncComplete(c.resource) }); err != nil {
		c.finishComplete(err)
		return
	}
	awaitMono(c.ctx, cleanup, c.finishComplete)
}

func (c *usingWhenCoordinator[S, T, C]) cleanupThenError(mainErr error) {
	if c.p.asyncError == nil {
		c.finishError(mainErr, nil)
		return
	}
	var cleanup Mono[C]
	if err := Operators.CallProtected(func() { cleanup = c.p.asyncError(c.resource, mainErr) }); err != nil {
		c.finishError(mainErr, err)
		return
	}
	awaitMono(c.ctx, cleanup, func(cleanupErr error) { c.finishError(mainErr, cleanupErr) })
}

func (c *usingWhenCoordinator[S, T, C]) cleanupOnCancel() {
	if c.p.asyncCancel == nil {
		return
	}
	var cleanup Mono[C]
	if err := Operators.CallProtected(func() { cleanup = c.p.asyncCancel(c.resource) }); err != nil {
		Operators.OnErrorDropped(c.ctx, err)
		return
	}
	awaitMono(c.ctx, cleanup, func(cleanupErr error) {
		if cleanupErr != nil {
			Operators.OnErrorDropped(c.ctx, cleanupErr)
		}
	})
}

func (c *usingWhenCoordinator[S, T, C]) finishComplete(cleanupErr error) {
	if c.done {
		return
	}
	c.done = true
	if cleanupErr != nil {
		c.actual.OnError(cleanupErr)
		return
	}
	c.actual.OnComplete()
}

func (c *usingWhenCoordinator[S, T, C]) finishError(mainErr, cleanupErr error) {
	if c.done {
		return
	}
	c.done = true
	c.actual.OnError(CombineErrors(mainErr, cleanupErr))
}

type usingWhenResourceSubscriber[S, T, C any] struct {
	coord *usingWhenCoordinator[S, T, C]
	got   bool
}

func (s *usingWhenResourceSubscriber[S, T, C]) Context() Context { return s.coord.Context() }

func (s *usingWhenResourceSubscriber[S, T, C]) OnSubscribe(sub Subscription) { sub.Request(1) }

func (s *usingWhenResourceSubscriber[S, T, C]) OnNext(value S) {
	s.got = true
	s.coord.startMain(value)
}

func (s *usingWhenResourceSubscriber[S, T, C]) OnError(err error) {
	ErrorSubscriber[T](s.coord.actual, err)
}

func (s *usingWhenResourceSubscriber[S, T, C]) OnComplete() {
	if !s.got {
		// resourceSupplier completed empty: no resource, nothing to clean up.
		CompleteSubscriber[T](s.coord.actual)
	}
}

type usingWhenMainSubscriber[S, T, C any] struct {
	coord *usingWhenCoordinator[S, T, C]
}

func (s *usingWhenMainSubscriber[S, T, C]) Context() Context { return s.coord.Context() }

func (s *usingWhenMainSubscriber[S, T, C]) OnSubscribe(sub Subscription) { s.coord.multi.Set(sub) }

func (s *usingWhenMainSubscriber[S, T, C]) OnNext(value T) {
	s.coord.multi.Produced(1)
	s.coord.actual.OnNext(value)
}

func (s *usingWhenMainSubscriber[S, T, C]) OnError(err error) { s.coord.cleanupThenError(err) }
func (s *usingWhenMainSubscriber[S, T, C]) OnComplete()       { s.coord.cleanupThenComplete() }

type usingWhenSubscription[S, T, C any] struct {
	coord *usingWhenCoordinator[S, T, C]
}

func (sub *usingWhenSubscription[S, T, C]) Request(n int64) { sub.coord.multi.Request(n) }

func (sub *usingWhenSubscription[S, T, C]) Cancel() {
	sub.coord.multi.Cancel()
	sub.coord.cleanupOnCancel()
}

// awaitMono subscribes to m with unbounded demand purely to observe its
// terminal signal; onDone is invoked exactly once with nil on completion
// or the error on failure. Any emitted value is ignored (a cleanup
// publisher's value, if any, carries no meaning here).
func awaitMono[C any](ctx Context, m Mono[C], onDone func(error)) {
	m.SubscribeWithContext(ctx, &monoAwaitSubscriber[C]{ctx: ctx, onDone: onDone})
}

type monoAwaitSubscriber[C any] struct {
	ctx    Context
	onDone func(error)
	done   bool
}

func (s *monoAwaitSubscriber[C]) Context() Context { return s.ctx }

func (s *monoAwaitSubscriber[C]) OnSubscribe(sub Subscription) { sub.Request(Unbounded) }

func (s *monoAwaitSubscriber[C]) OnNext(C) {}

func (s *monoAwaitSubscriber[C]) OnError(err error) {
	if s.done {
		return
	}
	s.done = true
	s.onDone(err)
}

func (s *monoAwaitSubscriber[C]) OnComplete() {
	if s.done {
		return
	}
	s.done = true
	s.onDone(nil)
}
