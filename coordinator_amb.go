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

// Amb subscribes to every source and lets whichever one signals first (an
// onNext, onError, or onComplete) win the race; every other source is
// cancelled immediately and the winner is followed exclusively from then
// on (spec §4.H). Request/Cancel on the resulting Flux forward only to the
// winner once one has been chosen; before that, Cancel cancels every
// candidate.
func Amb[T any](sources ...Flux[T]) Flux[T] {
	return FromPublisher[T](&ambPublisher[T]{sources: sources})
}

type ambPublisher[T any] struct {
	sources []Flux[T]
}

func (p *ambPublisher[T]) SubscribeWithContext(ctx Context, actual CoreSubscriber[T]) {
	if len(p.sources) == 0 {
		CompleteSubscriber[T](actual)
		return
	}
	if len(p.sources) == 1 {
		p.sources[0].SubscribeWithContext(ctx, actual)
		return
	}
	c := &ambCoordinator[T]{ctx: ctx, actual: actual}
	c.winner.Store(-1)
	actual.OnSubscribe(&ambSubscription[T]{coord: c})
	for i, src := range p.sources {
		candidate := &ambCandidateSubscriber[T]{coord: c, index: i}
		c.candidates = append(c.candidates, candidate)
		src.SubscribeWithContext(ctx, candidate)
	}
}

type ambCoordinator[T any] struct {
	ctx        Context
	actual     CoreSubscriber[T]
	candidates []*ambCandidateSubscriber[T]
	winner     atomic.Int32 // -1 until decided, else winning index
	requested  int64
}

func (c *ambCoordinator[T]) Context() Context { return c.ctx }

func (c *ambCoordinator[T]) tryWin(index int) bool {
	return c.winner.CompareAndSwap(-1, int32(index))
}

func (c *ambCoordinator[T]) cancelLosers(winner int) {
	for i, cand := range c.candidates {
		if i != winner {
			cand.cancelUpstream()
		}
	}
}

type ambCandidateSubscriber[T any] struct {
	coord    *ambCoordinator[T]
	index    int
	upstream Subscription
	won      bool
}

func (s *ambCandidateSubscriber[T]) Context() Context { return s.coord.Context() }

func (s *ambCandidateSubscriber[T]) OnSubscribe(sub Subscription) {
	s.upstream = sub
	if w := s.coord.winner.Load(); w >= 0 && int(w) != s.index {
		sub.Cancel()
		return
	}
	sub.Request(1)
}

func (s *ambCandidateSubscriber[T]) claimWin() bool {
	if s.won {
		return true
	}
	if s.coord.tryWin(s.index) {
		s.won = true
		s.coord.cancelLosers(s.index)
		if n := atomic.LoadInt64(&s.coord.requested); n > 1 {
			s.upstream.Request(n - 1)
		}
		return true
	}
	return int(s.coord.winner.Load()) == s.index
}

func (s *ambCandidateSubscriber[T]) OnNext(value T) {
	if !s.claimWin() {
		Operators.OnDiscard(s.coord.Context(), value)
		return
	}
	s.coord.actual.OnNext(value)
}

func (s *ambCandidateSubscriber[T]) OnError(err error) {
	if !s.claimWin() {
		Operators.OnErrorDropped(s.coord.Context(), err)
		return
	}
	s.coord.actual.OnError(err)
}

func (s *ambCandidateSubscriber[T]) OnComplete() {
	if !s.claimWin() {
		return
	}
	s.coord.actual.OnComplete()
}

func (s *ambCandidateSubscriber[T]) cancelUpstream() {
	if s.upstream != nil {
		s.upstream.Cancel()
	}
}

type ambSubscription[T any] struct {
	coord *ambCoordinator[T]
}

func (sub *ambSubscription[T]) Request(n int64) {
	if err := Operators.ValidateRequest(n); err != nil {
		sub.Cancel()
		sub.coord.actual.OnError(err)
		return
	}
	for {
		old := atomic.LoadInt64(&sub.coord.requested)
		next := Operators.AddCap(old, n)
		if atomic.CompareAndSwapInt64(&sub.coord.requested, old, next) {
			break
		}
	}
	if w := sub.coord.winner.Load(); w >= 0 {
		sub.coord.candidates[w].upstream.Request(n)
	}
}

func (sub *ambSubscription[T]) Cancel() {
	if w := sub.coord.winner.Load(); w >= 0 {
		sub.coord.candidates[w].cancelUpstream()
		return
	}
	for _, cand := range sub.coord.candidates {
		cand.cancelUpstream()
	}
}
