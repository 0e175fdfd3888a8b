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

// Publish subscribes to src exactly once and multiplexes its signals to
// however many inner Fluxes selector's own pipeline subscribes to (spec
// §4.H': "subscribes once to upstream, multiplexes to inner subscribers the
// selector creates"). selector receives a Flux[T] standing in for the
// shared upstream and returns the Flux[R] this operator exposes; a
// selector that subscribes to its argument more than once (e.g.
// zip(f, f.skip(1))) gets the same upstream values fanned out to each
// independently, each with its own demand and its own queue, so one slow
// branch never starves another. The shared upstream is cancelled once
// every inner subscriber has cancelled or the selector's own publisher
// unsubscribes.
func Publish[T, R any](selector func(Flux[T]) Flux[R]) FluxOperator[T, R] {
	return func(src Flux[T]) Flux[R] {
		hub := &publishHub[T]{ctx: Background(), source: src.Publisher()}
		return FromPublisher[R](&publishOperatorPublisher[T, R]{hub: hub, selector: selector})
	}
}

type publishOperatorPublisher[T, R any] struct {
	hub      *publishHub[T]
	selector func(Flux[T]) Flux[R]
}

func (p *publishOperatorPublisher[T, R]) SubscribeWithContext(ctx Context, actual CoreSubscriber[R]) {
	p.hub.ctx = ctx
	derived := p.selector(FromPublisher[T](p.hub))
	// selector may subscribe to the shared hub more than once synchronously
	// while assembling derived (e.g. zip(f, f.skip(1))): every such
	// subscription must register with the hub before the source is driven,
	// or an eager/synchronous source would drain and terminate the hub
	// between the first and second registration. Starting the source only
	// after this whole assembly call returns keeps all of it same-tick.
	derived.SubscribeWithContext(ctx, actual)
	p.hub.start(ctx)
}

type publishHub[T any] struct {
	ctx    Context
	source Publisher[T]

	mu          sync.Mutex
	subscribers []*publishInnerSubscriber[T]
	upstream    Subscription
	started     bool
	terminated  bool
	terminalErr error
}

func (h *publishHub[T]) SubscribeWithContext(ctx Context, actual CoreSubscriber[T]) {
	inner := &publishInnerSubscriber[T]{hub: h, actual: actual, queue: queue.NewUnbounded[T](16)}

	h.mu.Lock()
	if h.terminated {
		h.mu.Unlock()
		actual.OnSubscribe(noopSubscription{})
		if h.terminalErr != nil {
			actual.OnError(h.terminalErr)
		} else {
			actual.OnComplete()
		}
		return
	}
	h.subscribers = append(h.subscribers, inner)
	h.mu.Unlock()

	actual.OnSubscribe(&publishInnerSubscription[T]{inner: inner})
}

// start subscribes to source exactly once, the first time it is called
// after all of the selector's own same-tick subscriptions to h have
// registered (see publishOperatorPublisher.SubscribeWithContext).
func (h *publishHub[T]) start(ctx Context) {
	h.mu.Lock()
	if h.started || h.terminated {
		h.mu.Unlock()
		return
	}
	h.started = true
	h.mu.Unlock()
	h.source.SubscribeWithContext(ctx, &publishUpstreamSubscriber[T]{hub: h})
}

func (h *publishHub[T]) broadcastNext(value T) {
	h.mu.Lock()
	subs := append([]*publishInnerSubscriber[T](nil), h.subscribers...)
	h.mu.Unlock()
	for _, s := range subs {
		s.queue.Offer(value)
		s.drain()
	}
}

func (h *publishHub[T]) broadcastTerminal(err error) {
	h.mu.Lock()
	h.terminated = true
	h.terminalErr = err
	subs := append([]*publishInnerSubscriber[T](nil), h.subscribers...)
	h.mu.Unlock()
	for _, s := range subs {
		s.setTerminal(err)
		s.drain()
	}
}

func (h *publishHub[T]) remove(inner *publishInnerSubscriber[T]) {
	h.mu.Lock()
	for i, s := range h.subscribers {
		if s == inner {
			h.subscribers = append(h.subscribers[:i], h.subscribers[i+1:]...)
			break
		}
	}
	empty := len(h.subscribers) == 0
	up := h.upstream
	h.mu.Unlock()
	if empty && up != nil {
		up.Cancel()
	}
}

type publishUpstreamSubscriber[T any] struct {
	hub *publishHub[T]
}

func (s *publishUpstreamSubscriber[T]) Context() Context { return s.hub.ctx }

func (s *publishUpstreamSubscriber[T]) OnSubscribe(sub Subscription) {
	s.hub.mu.Lock()
	s.hub.upstream = sub
	s.hub.mu.Unlock()
	sub.Request(Unbounded)
}

func (s *publishUpstreamSubscriber[T]) OnNext(value T) { s.hub.broadcastNext(value) }
func (s *publishUpstreamSubscriber[T]) OnError(err error) { s.hub.broadcastTerminal(err) }
func (s *publishUpstreamSubscriber[T]) OnComplete()        { s.hub.broadcastTerminal(nil) }

type publishInnerSubscriber[T any] struct {
	hub    *publishHub[T]
	actual CoreSubscriber[T]
	queue  *queue.Unbounded[T]

	wip         xsync.WIP
	requested   int64
	done        atomic.Bool
	terminal    atomic.Bool
	terminalErr atomic.Pointer[error]
}

func (s *publishInnerSubscriber[T]) setTerminal(err error) {
	if err != nil {
		s.terminalErr.Store(&err)
	}
	s.terminal.Store(true)
}

func (s *publishInnerSubscriber[T]) drain() {
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

func (s *publishInnerSubscriber[T]) cancel() {
	if s.done.Swap(true) {
		return
	}
	s.queue.Clear(func(v T) { Operators.OnDiscard(s.hub.ctx, v) })
	s.hub.remove(s)
}

type publishInnerSubscription[T any] struct {
	inner *publishInnerSubscriber[T]
}

func (sub *publishInnerSubscription[T]) Request(n int64) {
	if err := Operators.ValidateRequest(n); err != nil {
		sub.Cancel()
		sub.inner.actual.OnError(err)
		return
	}
	for {
		old := atomic.LoadInt64(&sub.inner.requested)
		next := Operators.AddCap(old, n)
		if atomic.CompareAndSwapInt64(&sub.inner.requested, old, next) {
			break
		}
	}
	sub.inner.drain()
}

func (sub *publishInnerSubscription[T]) Cancel() { sub.inner.cancel() }
