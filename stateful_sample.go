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

	"github.com/samber/flux/internal/queue"
	"github.com/samber/flux/internal/xsync"
)

// Sample requests Unbounded from upstream and, on every scheduler tick,
// emits the most recently received value if one arrived since the previous
// tick (spec §4.G). A tick with nothing new to report is a no-op. The
// latest-value cell is the one-slot queue family from spec §4.B: overwriting
// unread values is the intended behaviour, not data loss, so the discarded
// predecessor is routed through the discard hook rather than dropped
// silently.
func Sample[T any](period time.Duration, scheduler Scheduler) FluxOperator[T, T] {
	return func(src Flux[T]) Flux[T] {
		return FromPublisher[T](&samplePublisher[T]{source: src.Publisher(), period: period, scheduler: scheduler})
	}
}

type samplePublisher[T any] struct {
	source    Publisher[T]
	period    time.Duration
	scheduler Scheduler
}

func (p *samplePublisher[T]) SubscribeWithContext(ctx Context, actual CoreSubscriber[T]) {
	sub := &sampleSubscriber[T]{actual: actual, slot: queue.NewOneSlot[T]()}
	p.source.SubscribeWithContext(ctx, sub)

	cancellable, err := p.scheduler.SchedulePeriodically(sub.onTick, p.period, p.period)
	if err != nil {
		sub.terminateWith(err)
		return
	}
	sub.cancellable.Store(&cancellable)
	if sub.done.Load() {
		cancellable.Cancel()
	}
}

type sampleSubscriber[T any] struct {
	actual      CoreSubscriber[T]
	upstream    Subscription
	slot        *queue.OneSlot[T]
	requested   int64
	wip         xsync.WIP
	done        atomic.Bool
	cancellable atomic.Pointer[Cancellable]
}

func (s *sampleSubscriber[T]) Context() Context { return s.actual.Context() }

func (s *sampleSubscriber[T]) OnSubscribe(sub Subscription) {
	if !Operators.ValidateSubscription(s.actual.Context(), s.upstream, sub) {
		return
	}
	s.upstream = sub
	s.actual.OnSubscribe(&sampleSubscription[T]{owner: s})
	sub.Request(Unbounded)
}

func (s *sampleSubscriber[T]) OnNext(value T) {
	if s.done.Load() {
		Operators.OnNextDropped(s.actual.Context(), value)
		return
	}
	if prev, had := s.slot.OfferReturningPrevious(value); had {
		Operators.OnDiscard(s.actual.Context(), prev)
	}
}

func (s *sampleSubscriber[T]) onTick() {
	if s.done.Load() {
		return
	}
	if s.wip.Enter() {
		s.drain()
	}
}

func (s *sampleSubscriber[T]) drain() {
	missed := int64(1)
	for {
		if !s.done.Load() {
			if v, ok := s.slot.Poll(); ok {
				if atomic.LoadInt64(&s.requested) > 0 {
					atomic.AddInt64(&s.requested, -1)
					s.actual.OnNext(v)
				} else {
					Operators.OnDiscard(s.actual.Context(), v)
				}
			}
		}
		missed = s.wip.Leave(missed)
		if missed == 0 {
			return
		}
	}
}

func (s *sampleSubscriber[T]) terminateWith(err error) {
	if s.done.Swap(true) {
		return
	}
	if s.upstream != nil {
		s.upstream.Cancel()
	}
	s.slot.Clear(func(v T) { Operators.OnDiscard(s.actual.Context(), v) })
	s.actual.OnError(err)
}

func (s *sampleSubscriber[T]) OnError(err error) {
	if s.done.Swap(true) {
		Operators.OnErrorDropped(s.actual.Context(), err)
		return
	}
	if c := s.cancellable.Load(); c != nil {
		(*c).Cancel()
	}
	s.actual.OnError(err)
}

func (s *sampleSubscriber[T]) OnComplete() {
	if s.done.Swap(true) {
		return
	}
	if c := s.cancellable.Load(); c != nil {
		(*c).Cancel()
	}
	s.actual.OnComplete()
}

type sampleSubscription[T any] struct {
	owner *sampleSubscriber[T]
}

func (sub *sampleSubscription[T]) Request(n int64) {
	if err := Operators.ValidateRequest(n); err != nil {
		sub.Cancel()
		sub.owner.actual.OnError(err)
		return
	}
	for {
		old := atomic.LoadInt64(&sub.owner.requested)
		next := Operators.AddCap(old, n)
		if atomic.CompareAndSwapInt64(&sub.owner.requested, old, next) {
			return
		}
	}
}

func (sub *sampleSubscription[T]) Cancel() {
	owner := sub.owner
	if owner.done.Swap(true) {
		return
	}
	if owner.upstream != nil {
		owner.upstream.Cancel()
	}
	if c := owner.cancellable.Load(); c != nil {
		(*c).Cancel()
	}
	owner.slot.Clear(func(v T) { Operators.OnDiscard(owner.actual.Context(), v) })
}
