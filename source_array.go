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

import "sync/atomic"

type arrayPublisher[T any] struct {
	values []T
}

// FromArray emits each element of values in order, then completes. Empty
// slices complete synchronously after OnSubscribe without requiring any
// Request (spec §8). Sync-fuseable.
func FromArray[T any](values []T) Flux[T] {
	return Flux[T]{pub: &arrayPublisher[T]{values: values}}
}

func (p *arrayPublisher[T]) SubscribeWithContext(ctx Context, actual CoreSubscriber[T]) {
	if len(p.values) == 0 {
		CompleteSubscriber[T](actual)
		return
	}
	actual.OnSubscribe(newArraySubscription(actual, p.values))
}

// arraySubscription implements the slow-path/fast-path pattern spec §4.E
// calls for: the fast path (requested == Unbounded) emits everything in
// one pass with no further bookkeeping; the slow path re-reads the
// requested counter after each bounded batch. The requested field doubles
// as the WIP reentrancy guard: Request only ever adds to it, emission only
// ever subtracts, so a transition away from zero is exactly "I must enter
// the drain loop" and a transition back to zero is exactly "someone else
// must re-enter if more demand arrives." The poll-cursor bookkeeping itself
// (index, Poll/IsEmpty/Size/Clear) is delegated to SliceQueueSubscription
// (fusion.go), which this type wraps with the Request/Cancel/RequestFusion
// a full QueueSubscription needs.
type arraySubscription[T any] struct {
	actual    CoreSubscriber[T]
	slice     *SliceQueueSubscription[T]
	requested int64
	cancelled atomic.Bool
	fused     bool
}

func newArraySubscription[T any](actual CoreSubscriber[T], values []T) *arraySubscription[T] {
	return &arraySubscription[T]{actual: actual, slice: NewSliceQueueSubscription(values)}
}

func (s *arraySubscription[T]) Request(n int64) {
	if err := Operators.ValidateRequest(n); err != nil {
		s.Cancel()
		s.actual.OnError(err)
		return
	}
	if s.fused {
		return
	}
	for {
		old := atomic.LoadInt64(&s.requested)
		next := Operators.AddCap(old, n)
		if atomic.CompareAndSwapInt64(&s.requested, old, next) {
			if old == 0 {
				if next == Unbounded {
					s.fastPath()
				} else {
					s.slowPath(next)
				}
			}
			return
		}
	}
}

func (s *arraySubscription[T]) fastPath() {
	for {
		if s.cancelled.Load() {
			return
		}
		v, ok := s.slice.Poll()
		if !ok {
			break
		}
		s.actual.OnNext(v)
	}
	if !s.cancelled.Load() {
		s.actual.OnComplete()
	}
}

func (s *arraySubscription[T]) slowPath(n int64) {
	var emitted int64
	for {
		for !s.slice.IsEmpty() && emitted != n {
			if s.cancelled.Load() {
				return
			}
			v, _ := s.slice.Poll()
			s.actual.OnNext(v)
			emitted++
		}
		if s.slice.IsEmpty() {
			if !s.cancelled.Load() {
				s.actual.OnComplete()
			}
			return
		}
		n = atomic.LoadInt64(&s.requested)
		if n == emitted {
			n = atomic.AddInt64(&s.requested, -emitted)
			if n == 0 {
				return
			}
			emitted = 0
		}
	}
}

func (s *arraySubscription[T]) Cancel() {
	if s.cancelled.Swap(true) {
		return
	}
	s.slice.Clear(func(v T) { Operators.OnDiscard(s.actual.Context(), v) })
}

func (s *arraySubscription[T]) RequestFusion(requested FusionMode) FusionMode {
	if requested&FusionModeSync != 0 {
		s.fused = true
		return FusionModeSync
	}
	return FusionNone
}

func (s *arraySubscription[T]) Poll() (T, bool) { return s.slice.Poll() }
func (s *arraySubscription[T]) IsEmpty() bool   { return s.slice.IsEmpty() }
func (s *arraySubscription[T]) Size() int       { return s.slice.Size() }
func (s *arraySubscription[T]) Clear() {
	s.slice.Clear(func(v T) { Operators.OnDiscard(s.actual.Context(), v) })
}

var _ QueueSubscription[int] = (*arraySubscription[int])(nil)
