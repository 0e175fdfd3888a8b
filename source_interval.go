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

type intervalPublisher struct {
	delay     time.Duration
	period    time.Duration
	scheduler Scheduler
}

// Interval emits sequential int64 values (0, 1, 2, ...) starting after
// delay and then every period, using scheduler's delayed/periodic
// scheduling (spec §4.E). Cancelling the subscription cancels the
// scheduled task; scheduling on a disposed Scheduler surfaces
// ErrSchedulerDisposed via OnError.
func Interval(delay, period time.Duration, scheduler Scheduler) Flux[int64] {
	return Flux[int64]{pub: &intervalPublisher{delay: delay, period: period, scheduler: scheduler}}
}

func (p *intervalPublisher) SubscribeWithContext(ctx Context, actual CoreSubscriber[int64]) {
	sub := &intervalSubscription{actual: actual}
	actual.OnSubscribe(sub)

	cancellable, err := p.scheduler.SchedulePeriodically(sub.tick, p.delay, p.period)
	if err != nil {
		sub.Cancel()
		actual.OnError(err)
		return
	}
	sub.setCancellable(cancellable)
}

type intervalSubscription struct {
	actual      CoreSubscriber[int64]
	requested   int64
	index       int64
	cancelled   atomic.Bool
	cancellable atomic.Pointer[Cancellable]
}

func (s *intervalSubscription) setCancellable(c Cancellable) {
	s.cancellable.Store(&c)
	if s.cancelled.Load() {
		c.Cancel()
	}
}

func (s *intervalSubscription) tick() {
	if s.cancelled.Load() {
		return
	}
	for {
		r := atomic.LoadInt64(&s.requested)
		if r <= 0 {
			// No demand: per spec §7, this is an overflow, not a silent
			// drop — surface it and stop.
			s.actual.OnError(newOverflowError("interval tick arrived with no outstanding demand"))
			s.Cancel()
			return
		}
		if atomic.CompareAndSwapInt64(&s.requested, r, Operators.SubOrZero(r, 1)) {
			break
		}
	}
	v := atomic.AddInt64(&s.index, 1) - 1
	s.actual.OnNext(v)
}

func (s *intervalSubscription) Request(n int64) {
	if err := Operators.ValidateRequest(n); err != nil {
		s.Cancel()
		s.actual.OnError(err)
		return
	}
	for {
		old := atomic.LoadInt64(&s.requested)
		next := Operators.AddCap(old, n)
		if atomic.CompareAndSwapInt64(&s.requested, old, next) {
			return
		}
	}
}

func (s *intervalSubscription) Cancel() {
	if s.cancelled.Swap(true) {
		return
	}
	if c := s.cancellable.Load(); c != nil {
		(*c).Cancel()
	}
}
