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
	"sync"
	"sync/atomic"

	"github.com/samber/flux/internal/queue"
	"github.com/samber/flux/internal/xsync"
)

// Sink is a manually-driven, multicast Publisher bridging an external
// callback-style API (a webhook handler, a message-bus listener, anything
// that pushes values from code this package doesn't control) into a Flux.
// Every subscriber gets its own demand counter and its own queue, so one
// slow subscriber never blocks another or forces Sink itself to buffer
// per-subscriber state beyond what each subscriber's own backpressure
// requires; there is no sense in which a value is "lost" because some
// subscriber wasn't ready, short of that subscriber's own queue growing
// without bound.
//
// Sink is the general form of the unicast windowSink this package's
// buffer/window-by-boundary operators use internally: same drain-loop
// shape, generalized from at-most-one subscriber to many.
type Sink[T any] struct {
	ctx Context

	mu          sync.Mutex
	subscribers []*sinkSubscriber[T]
	terminated  bool
	terminalErr error
}

// NewSink creates an empty Sink. Values are pushed with Emit, and the
// sequence is ended with either Complete or Error — exactly once, after
// which further calls are no-ops.
func NewSink[T any](ctx Context) *Sink[T] {
	return &Sink[T]{ctx: ctx}
}

// AsFlux exposes the Sink as a Flux any number of subscribers may attach
// to independently.
func (s *Sink[T]) AsFlux() Flux[T] {
	return FromPublisher[T](s)
}

func (s *Sink[T]) SubscribeWithContext(ctx Context, actual CoreSubscriber[T]) {
	sub := &sinkSubscriber[T]{sink: s, ctx: ctx, actual: actual, queue: queue.NewUnbounded[T](16)}

	s.mu.Lock()
	if s.terminated {
		s.mu.Unlock()
		actual.OnSubscribe(noopSubscription{})
		if s.terminalErr != nil {
			actual.OnError(s.terminalErr)
		} else {
			actual.OnComplete()
		}
		return
	}
	s.subscribers = append(s.subscribers, sub)
	s.mu.Unlock()

	actual.OnSubscribe(&sinkSubscription[T]{sub: sub})
}

// Emit pushes value to every current subscriber. Returns false if the Sink
// has already terminated, in which case value is routed to the discard
// hook instead of delivered.
func (s *Sink[T]) Emit(value T) bool {
	s.mu.Lock()
	if s.terminated {
		s.mu.Unlock()
		Operators.OnDiscard(s.ctx, value)
		return false
	}
	subs := append([]*sinkSubscriber[T](nil), s.subscribers...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.queue.Offer(value)
		sub.drain()
	}
	return true
}

// Complete ends the Sink successfully. Idempotent; a second call is a
// no-op.
func (s *Sink[T]) Complete() { s.terminate(nil) }

// Error ends the Sink with err. Idempotent; a second call is a no-op.
func (s *Sink[T]) Error(err error) { s.terminate(err) }

func (s *Sink[T]) terminate(err error) {
	s.mu.Lock()
	if s.terminated {
		s.mu.Unlock()
		return
	}
	s.terminated = true
	s.terminalErr = err
	subs := append([]*sinkSubscriber[T](nil), s.subscribers...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.setTerminal(err)
		sub.drain()
	}
}

func (s *Sink[T]) remove(sub *sinkSubscriber[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.subscribers {
		if cur == sub {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			return
		}
	}
}

type sinkSubscriber[T any] struct {
	sink   *Sink[T]
	ctx    Context
	actual CoreSubscriber[T]
	queue  *queue.Unbounded[T]

	wip         xsync.WIP
	requested   int64
	done        atomic.Bool
	terminal    atomic.Bool
	terminalErr atomic.Pointer[error]
}

func (s *sinkSubscriber[T]) setTerminal(err error) {
	if err != nil {
		s.terminalErr.Store(&err)
	}
	s.terminal.Store(true)
}

func (s *sinkSubscriber[T]) drain() {
	if s.done.Load() {
		return
	}
	if !s.wip.Enter() {
		return
	}
	missed := int64(1)
	for {
		for atomic.LoadInt64(&s.requested) > 0 {
			v, ok := s.queue.Poll()
			if !ok {
				break
			}
			atomic.AddInt64(&s.requested, -1)
			s.actual.OnNext(v)
		}
		if s.terminal.Load() && s.queue.IsEmpty() {
			if !s.done.Swap(true) {
				if errPtr := s.terminalErr.Load(); errPtr != nil {
					s.actual.OnError(*errPtr)
				} else {
					s.actual.OnComplete()
				}
			}
			return
		}
		missed = s.wip.Leave(missed)
		if missed == 0 {
			return
		}
	}
}

func (s *sinkSubscriber[T]) cancel() {
	if s.done.Swap(true) {
		return
	}
	s.queue.Clear(func(v T) { Operators.OnDiscard(s.ctx, v) })
	s.sink.remove(s)
}

type sinkSubscription[T any] struct {
	sub *sinkSubscriber[T]
}

func (sub *sinkSubscription[T]) Request(n int64) {
	if err := Operators.ValidateRequest(n); err != nil {
		sub.Cancel()
		sub.sub.actual.OnError(err)
		return
	}
	for {
		old := atomic.LoadInt64(&sub.sub.requested)
		next := Operators.AddCap(old, n)
		if atomic.CompareAndSwapInt64(&sub.sub.requested, old, next) {
			break
		}
	}
	sub.sub.drain()
}

func (sub *sinkSubscription[T]) Cancel() { sub.sub.cancel() }
