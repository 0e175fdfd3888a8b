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

type rangePublisher struct {
	start, count int
}

// Range emits count sequential ints starting at start, then completes.
// count <= 0 completes immediately without emitting (spec §4.E, same
// slow/fast-path pattern as FromArray).
func Range(start, count int) Flux[int] {
	return Flux[int]{pub: &rangePublisher{start: start, count: count}}
}

func (p *rangePublisher) SubscribeWithContext(ctx Context, actual CoreSubscriber[int]) {
	if p.count <= 0 {
		CompleteSubscriber[int](actual)
		return
	}
	actual.OnSubscribe(newRangeSubscription(actual, p.start, p.count))
}

type rangeSubscription struct {
	actual    CoreSubscriber[int]
	start     int
	count     int
	index     int // offset from start already emitted
	requested int64
	cancelled atomic.Bool
	fused     bool
}

func newRangeSubscription(actual CoreSubscriber[int], start, count int) *rangeSubscription {
	return &rangeSubscription{actual: actual, start: start, count: count}
}

func (s *rangeSubscription) Request(n int64) {
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

func (s *rangeSubscription) fastPath() {
	for i := s.index; i < s.count; i++ {
		if s.cancelled.Load() {
			return
		}
		s.actual.OnNext(s.start + i)
	}
	if !s.cancelled.Load() {
		s.actual.OnComplete()
	}
}

func (s *rangeSubscription) slowPath(n int64) {
	i := s.index
	var emitted int64
	for {
		for i != s.count && emitted != n {
			if s.cancelled.Load() {
				return
			}
			s.actual.OnNext(s.start + i)
			i++
			emitted++
		}
		if i == s.count {
			if !s.cancelled.Load() {
				s.actual.OnComplete()
			}
			return
		}
		n = atomic.LoadInt64(&s.requested)
		if n == emitted {
			s.index = i
			n = atomic.AddInt64(&s.requested, -emitted)
			if n == 0 {
				return
			}
			emitted = 0
		}
	}
}

func (s *rangeSubscription) Cancel() { s.cancelled.Store(true) }

func (s *rangeSubscription) RequestFusion(requested FusionMode) FusionMode {
	if requested&FusionModeSync != 0 {
		s.fused = true
		return FusionModeSync
	}
	return FusionNone
}

func (s *rangeSubscription) Poll() (int, bool) {
	if s.index >= s.count {
		return 0, false
	}
	v := s.start + s.index
	s.index++
	return v, true
}

func (s *rangeSubscription) IsEmpty() bool { return s.index >= s.count }
func (s *rangeSubscription) Size() int     { return s.count - s.index }
func (s *rangeSubscription) Clear()        { s.index = s.count }

var _ QueueSubscription[int] = (*rangeSubscription)(nil)
