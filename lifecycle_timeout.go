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
	"sync/atomic"
	"time"
)

// ErrTimeout is delivered when Timeout has no fallback configured and the
// timer fires before the next signal.
var ErrTimeout = newProtocolError("timed out waiting for a signal")

// Timeout arms a one-shot timer after OnSubscribe and rearms it on every
// onNext (spec §4.I). If the timer fires first, upstream is cancelled and
// the sequence either errors with ErrTimeout or switches to fallback if
// one is supplied; if fallback is nil, Timeout errors. A concurrent
// onNext and a firing timer race a CAS on a shared epoch counter (spec
// §4.I, "index epoch"); only the side that wins the CAS proceeds, so a
// timer that fires microseconds after a value already arrived is a no-op.
func Timeout[T any](duration time.Duration, scheduler Scheduler, fallback Flux[T]) FluxOperator[T, T] {
	return func(src Flux[T]) Flux[T] {
		return FromPublisher[T](&timeoutPublisher[T]{source: src, duration: duration, scheduler: scheduler, fallback: fallback, hasFallback: fallback.Publisher() != nil})
	}
}

// TimeoutError is Timeout without a fallback: the sequence errors with
// ErrTimeout as soon as the timer fires.
func TimeoutError[T any](duration time.Duration, scheduler Scheduler) FluxOperator[T, T] {
	return func(src Flux[T]) Flux[T] {
		return FromPublisher[T](&timeoutPublisher[T]{source: src, duration: duration, scheduler: scheduler})
	}
}

type timeoutPublisher[T any] struct {
	source      Flux[T]
	duration    time.Duration
	scheduler   Scheduler
	fallback    Flux[T]
	hasFallback bool
}

func (p *timeoutPublisher[T]) SubscribeWithContext(ctx Context, actual CoreSubscriber[T]) {
	c := &timeoutCoordinator[T]{
		ctx: ctx, actual: actual, duration: p.duration, scheduler: p.scheduler,
		fallback: p.fallback, hasFallback: p.hasFallback,
	}
	actual.OnSubscribe(&c.multi)
	p.source.SubscribeWithContext(ctx, &timeoutMainSubscriber[T]{coord: c})
}

type timeoutCoordinator[T any] struct {
	ctx         Context
	actual      CoreSubscriber[T]
	duration    time.Duration
	scheduler   Scheduler
	fallback    Flux[T]
	hasFallback bool

	epoch     atomic.Int64
	timer     Cancellable
	multi     MultiSubscription
	switched  atomic.Bool
	done      atomic.Bool
}

func (c *timeoutCoordinator[T]) Context() Context { return c.ctx }

func (c *timeoutCoordinator[T]) arm() {
	epoch := c.epoch.Add(1)
	if c.timer != nil {
		c.timer.Cancel()
	}
	timer, err := c.scheduler.ScheduleDelayed(func() { c.onTimeout(epoch) }, c.duration)
	if err != nil {
		c.terminateError(err)
		return
	}
	c.timer = timer
}

func (c *timeoutCoordinator[T]) onTimeout(epoch int64) {
	if !c.epoch.CompareAndSwap(epoch, epoch+1) {
		return // a signal already advanced the epoch; this firing is stale
	}
	if c.hasFallback {
		c.multi.mu.Lock()
		cur := c.multi.current
		c.multi.mu.Unlock()
		if cur != nil {
			cur.Cancel()
		}
		c.switched.Store(true)
		c.fallback.SubscribeWithContext(c.ctx, &timeoutFallbackSubscriber[T]{coord: c})
		return
	}
	c.terminateError(ErrTimeout)
}

func (c *timeoutCoordinator[T]) terminateError(err error) {
	if c.done.Swap(true) {
		Operators.OnErrorDropped(c.ctx, err)
		return
	}
	if c.timer != nil {
		c.timer.Cancel()
	}
	c.multi.Cancel()
	c.actual.OnError(err)
}

func (c *timeoutCoordinator[T]) terminateComplete() {
	if c.done.Swap(true) {
		return
	}
	if c.timer != nil {
		c.timer.Cancel()
	}
	c.actual.OnComplete()
}

type timeoutMainSubscriber[T any] struct {
	coord *timeoutCoordinator[T]
}

func (s *timeoutMainSubscriber[T]) Context() Context { return s.coord.Context() }

func (s *timeoutMainSubscriber[T]) OnSubscribe(sub Subscription) {
	if !s.coord.multi.Set(sub) {
		return
	}
	s.coord.arm()
}

func (s *timeoutMainSubscriber[T]) OnNext(value T) {
	if s.coord.switched.Load() || s.coord.done.Load() {
		Operators.OnNextDropped(s.coord.Context(), value)
		return
	}
	s.coord.multi.Produced(1)
	s.coord.actual.OnNext(value)
	s.coord.arm()
}

func (s *timeoutMainSubscriber[T]) OnError(err error) {
	if s.coord.switched.Load() {
		Operators.OnErrorDropped(s.coord.Context(), err)
		return
	}
	s.coord.terminateError(err)
}

func (s *timeoutMainSubscriber[T]) OnComplete() {
	if s.coord.switched.Load() {
		return
	}
	s.coord.terminateComplete()
}

type timeoutFallbackSubscriber[T any] struct {
	coord *timeoutCoordinator[T]
}

func (s *timeoutFallbackSubscriber[T]) Context() Context { return s.coord.Context() }

func (s *timeoutFallbackSubscriber[T]) OnSubscribe(sub Subscription) { s.coord.multi.Set(sub) }

func (s *timeoutFallbackSubscriber[T]) OnNext(value T) {
	s.coord.multi.Produced(1)
	s.coord.actual.OnNext(value)
}

func (s *timeoutFallbackSubscriber[T]) OnError(err error) { s.coord.terminateError(err) }
func (s *timeoutFallbackSubscriber[T]) OnComplete()       { s.coord.terminateComplete() }
