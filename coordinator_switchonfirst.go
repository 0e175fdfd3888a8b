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
	"errors"
	"sync/atomic"

	"github.com/samber/flux/internal/queue"
	"github.com/samber/flux/internal/xsync"
)

// switchOnFirstState is the 10-independent-bit state vector spec §4.H
// describes for switchOnFirst, packed into one atomic integer so every
// transition is a single monotonic-OR CAS.
type switchOnFirstState uint32

const (
	sofFirstReceived switchOnFirstState = 1 << iota
	sofInboundSubscribedOnce
	sofInboundSubscriberSet
	sofInboundRequestedOnce
	sofFirstValueSent
	sofInboundCancelled
	sofInboundTerminated
	sofOutboundSubscribed
	sofOutboundCancelled
	sofOutboundTerminated
)

// ErrCancelled is delivered to the inner subscriber of switchOnFirst when
// the outbound sequence is cancelled before the inbound reached a terminal
// state (spec §4.H).
var ErrCancelled = errors.New("flux: cancelled")

// SwitchOnFirst observes the first signal (onNext, onError, or onComplete)
// of src and lets transformer decide, from that first signal alone, what
// outbound Publisher[R] to run; the rest of src is re-exposed as a Flux[T]
// the transformer's returned publisher may subscribe to exactly once (spec
// §4.H, the representative multi-source coordinator). cancelSourceOnComplete
// decides what happens if the outbound publisher terminates without the
// inner Flux ever being subscribed: per the Open Question decision recorded
// in DESIGN.md, the inbound is always cancelled in that case regardless of
// the flag's value for a terminated-without-subscribe outbound; the flag
// only affects whether a *completed* outbound that did subscribe also
// cancels a still-running inbound.
func SwitchOnFirst[T, R any](transformer func(Signal[T], Flux[T]) Flux[R], cancelSourceOnComplete bool) FluxOperator[T, R] {
	return func(src Flux[T]) Flux[R] {
		return FromPublisher[R](&switchOnFirstPublisher[T, R]{
			source:                 src.Publisher(),
			transformer:            transformer,
			cancelSourceOnComplete: cancelSourceOnComplete,
		})
	}
}

type switchOnFirstPublisher[T, R any] struct {
	source                 Publisher[T]
	transformer            func(Signal[T], Flux[T]) Flux[R]
	cancelSourceOnComplete bool
}

func (p *switchOnFirstPublisher[T, R]) SubscribeWithContext(ctx Context, actual CoreSubscriber[R]) {
	c := &switchOnFirstCoordinator[T, R]{
		ctx:                    ctx,
		actual:                 actual,
		transformer:            p.transformer,
		cancelSourceOnComplete: p.cancelSourceOnComplete,
		innerQueue:             queue.NewUnbounded[T](16),
	}
	p.source.SubscribeWithContext(ctx, &switchOnFirstInboundSubscriber[T, R]{coord: c})
}

type switchOnFirstCoordinator[T, R any] struct {
	ctx                    Context
	actual                 CoreSubscriber[R]
	transformer            func(Signal[T], Flux[T]) Flux[R]
	cancelSourceOnComplete bool

	state       atomic.Uint32
	upstream    Subscription
	firstSignal Signal[T]

	innerSubscriber CoreSubscriber[T]
	innerQueue      *queue.Unbounded[T]
	innerWip        xsync.WIP
	innerRequested  int64
}

func (c *switchOnFirstCoordinator[T, R]) Context() Context { return c.ctx }

// trySet performs a monotonic-OR CAS and returns whether bit was newly set
// (false if it was already present).
func (c *switchOnFirstCoordinator[T, R]) trySet(bit switchOnFirstState) bool {
	for {
		old := switchOnFirstState(c.state.Load())
		if old&bit != 0 {
			return false
		}
		next := old | bit
		if c.state.CompareAndSwap(uint32(old), uint32(next)) {
			return true
		}
	}
}

func (c *switchOnFirstCoordinator[T, R]) has(bit switchOnFirstState) bool {
	return switchOnFirstState(c.state.Load())&bit != 0
}

// onFirstSignal runs the transformer and subscribes actual to the resulting
// publisher. Called exactly once, the first time the inbound produces any
// signal (next, error, or empty-complete).
func (c *switchOnFirstCoordinator[T, R]) onFirstSignal(sig Signal[T]) {
	if !c.trySet(sofFirstReceived) {
		return
	}
	c.firstSignal = sig
	innerFlux := FromPublisher[T](&switchOnFirstInnerPublisher[T, R]{coord: c})

	var outbound Flux[R]
	if err := Operators.CallProtected(func() { outbound = c.transformer(sig, innerFlux) }); err != nil {
		wrapped := Operators.OnOperatorError(c.ctx, c.upstream, err, nil, false)
		c.actual.OnError(wrapped)
		return
	}
	c.trySet(sofOutboundSubscribed)
	outbound.SubscribeWithContext(c.ctx, &switchOnFirstOutboundSubscriber[T, R]{coord: c})
}

// deliverNext queues every inbound value after the first and runs
// innerDrain, which hands queued values to the re-exposed inner Flux's
// subscriber once one has subscribed and its demand allows.
func (c *switchOnFirstCoordinator[T, R]) deliverNext(value T) {
	c.innerQueue.Offer(value)
	c.innerDrain()
}

func (c *switchOnFirstCoordinator[T, R]) innerDrain() {
	if !c.innerWip.Enter() {
		return
	}
	missed := int64(1)
	for {
		sub := c.innerSubscriber
		if sub != nil {
			for atomic.LoadInt64(&c.innerRequested) > 0 {
				v, ok := c.innerQueue.Poll()
				if !ok {
					break
				}
				atomic.AddInt64(&c.innerRequested, -1)
				c.trySet(sofFirstValueSent)
				sub.OnNext(v)
			}
		}
		missed = c.innerWip.Leave(missed)
		if missed == 0 {
			return
		}
	}
}

func (c *switchOnFirstCoordinator[T, R]) inboundTerminate(err error) {
	if !c.trySet(sofInboundTerminated) {
		return
	}
	if !c.has(sofFirstReceived) {
		if err != nil {
			c.onFirstSignal(Signal[T]{Kind: KindError, Err: err})
		} else {
			c.onFirstSignal(Signal[T]{Kind: KindComplete})
		}
		return
	}
	c.innerDrain()
	if sub := c.innerSubscriber; sub != nil && c.innerQueue.IsEmpty() {
		if err != nil {
			sub.OnError(err)
		} else {
			sub.OnComplete()
		}
	}
}

func (c *switchOnFirstCoordinator[T, R]) cancelInbound() {
	if c.trySet(sofInboundCancelled) {
		if c.upstream != nil {
			c.upstream.Cancel()
		}
		c.innerQueue.Clear(func(v T) { Operators.OnDiscard(c.ctx, v) })
	}
}

type switchOnFirstInboundSubscriber[T, R any] struct {
	coord *switchOnFirstCoordinator[T, R]
}

func (s *switchOnFirstInboundSubscriber[T, R]) Context() Context { return s.coord.Context() }

// OnSubscribe requests Unbounded immediately: the first signal only needs
// one value to resolve, but everything after it must keep flowing into
// innerQueue as soon as it arrives rather than stall waiting for another
// upstream Request that nothing here would ever send (mirrors
// bufferBoundaryMainSubscriber/windowBoundaryMainSubscriber requesting
// Unbounded up front and gating actual delivery through their own queue).
func (s *switchOnFirstInboundSubscriber[T, R]) OnSubscribe(sub Subscription) {
	if !Operators.ValidateSubscription(s.coord.Context(), s.coord.upstream, sub) {
		return
	}
	s.coord.upstream = sub
	sub.Request(Unbounded)
}

func (s *switchOnFirstInboundSubscriber[T, R]) OnNext(value T) {
	if s.coord.has(sofInboundCancelled) {
		Operators.OnNextDropped(s.coord.Context(), value)
		return
	}
	if s.coord.trySet(sofFirstReceived) {
		s.coord.onFirstSignalNext(value)
		return
	}
	s.coord.deliverNext(value)
}

func (s *switchOnFirstInboundSubscriber[T, R]) OnError(err error) { s.coord.inboundTerminate(err) }
func (s *switchOnFirstInboundSubscriber[T, R]) OnComplete()       { s.coord.inboundTerminate(nil) }

// onFirstSignalNext is the OnNext-specific path of onFirstSignal: the bit
// is already claimed by the caller (OnNext), so this only runs the
// transformer and subscribes the outbound side.
func (c *switchOnFirstCoordinator[T, R]) onFirstSignalNext(value T) {
	sig := Signal[T]{Kind: KindNext, Value: value}
	c.firstSignal = sig
	innerFlux := FromPublisher[T](&switchOnFirstInnerPublisher[T, R]{coord: c})

	var outbound Flux[R]
	if err := Operators.CallProtected(func() { outbound = c.transformer(sig, innerFlux) }); err != nil {
		wrapped := Operators.OnOperatorError(c.ctx, c.upstream, err, value, true)
		c.actual.OnError(wrapped)
		return
	}
	c.trySet(sofOutboundSubscribed)
	outbound.SubscribeWithContext(c.ctx, &switchOnFirstOutboundSubscriber[T, R]{coord: c})
}

// switchOnFirstInnerPublisher is the re-exposed "rest of the upstream"
// Flux[T]. It may be subscribed exactly once (spec §4.H: "the user can
// subscribe once").
type switchOnFirstInnerPublisher[T, R any] struct {
	coord *switchOnFirstCoordinator[T, R]
}

func (p *switchOnFirstInnerPublisher[T, R]) SubscribeWithContext(ctx Context, actual CoreSubscriber[T]) {
	c := p.coord
	if !c.trySet(sofInboundSubscribedOnce) {
		ErrorSubscriber[T](actual, newProtocolError("switchOnFirst inner Flux subscribed more than once"))
		return
	}
	c.trySet(sofInboundSubscriberSet)
	c.innerSubscriber = actual
	actual.OnSubscribe(&switchOnFirstInnerSubscription[T, R]{coord: c})
	c.innerDrain()
}

type switchOnFirstInnerSubscription[T, R any] struct {
	coord *switchOnFirstCoordinator[T, R]
}

func (sub *switchOnFirstInnerSubscription[T, R]) Request(n int64) {
	if err := Operators.ValidateRequest(n); err != nil {
		sub.Cancel()
		if s := sub.coord.innerSubscriber; s != nil {
			s.OnError(err)
		}
		return
	}
	sub.coord.trySet(sofInboundRequestedOnce)
	for {
		old := atomic.LoadInt64(&sub.coord.innerRequested)
		next := Operators.AddCap(old, n)
		if atomic.CompareAndSwapInt64(&sub.coord.innerRequested, old, next) {
			break
		}
	}
	sub.coord.innerDrain()
}

func (sub *switchOnFirstInnerSubscription[T, R]) Cancel() {
	c := sub.coord
	if !c.trySet(sofInboundCancelled) {
		return
	}
	if !c.has(sofInboundRequestedOnce) && !c.has(sofFirstValueSent) {
		// Cancelled before the first value was ever requested/delivered
		// through the inner path: the stored first value (if the
		// transformer never consumed it itself) is orphaned and must be
		// discarded, per spec §4.H.
		if c.firstSignal.Kind == KindNext {
			Operators.OnDiscard(c.ctx, c.firstSignal.Value)
		}
	}
	if c.upstream != nil {
		c.upstream.Cancel()
	}
	c.innerQueue.Clear(func(v T) { Operators.OnDiscard(c.ctx, v) })
}

type switchOnFirstOutboundSubscriber[T, R any] struct {
	coord    *switchOnFirstCoordinator[T, R]
	upstream Subscription
}

func (s *switchOnFirstOutboundSubscriber[T, R]) Context() Context { return s.coord.Context() }

func (s *switchOnFirstOutboundSubscriber[T, R]) OnSubscribe(sub Subscription) {
	if !Operators.ValidateSubscription(s.coord.Context(), s.upstream, sub) {
		return
	}
	s.upstream = sub
	s.coord.actual.OnSubscribe(&switchOnFirstOutboundSubscription[T, R]{coord: s.coord, upstream: sub})
}

func (s *switchOnFirstOutboundSubscriber[T, R]) OnNext(value R) {
	if s.coord.has(sofOutboundTerminated) {
		Operators.OnNextDropped(s.coord.Context(), value)
		return
	}
	s.coord.actual.OnNext(value)
}

func (s *switchOnFirstOutboundSubscriber[T, R]) OnError(err error) {
	if !s.coord.trySet(sofOutboundTerminated) {
		Operators.OnErrorDropped(s.coord.Context(), err)
		return
	}
	s.coord.cancelInbound()
	s.coord.actual.OnError(err)
}

func (s *switchOnFirstOutboundSubscriber[T, R]) OnComplete() {
	if !s.coord.trySet(sofOutboundTerminated) {
		return
	}
	if !s.coord.has(sofInboundSubscribedOnce) || s.coord.cancelSourceOnComplete {
		// Either the transformer's publisher never subscribed to the inner
		// Flux at all (the Open Question decision: always cancel in that
		// case to avoid leaking the inbound), or the caller explicitly
		// asked for cancelSourceOnComplete semantics.
		s.coord.cancelInbound()
	}
	s.coord.actual.OnComplete()
}

type switchOnFirstOutboundSubscription[T, R any] struct {
	coord    *switchOnFirstCoordinator[T, R]
	upstream Subscription
}

func (sub *switchOnFirstOutboundSubscription[T, R]) Request(n int64) {
	if err := Operators.ValidateRequest(n); err != nil {
		sub.Cancel()
		sub.coord.actual.OnError(err)
		return
	}
	sub.upstream.Request(n)
}

func (sub *switchOnFirstOutboundSubscription[T, R]) Cancel() {
	if !sub.coord.trySet(sofOutboundCancelled) {
		return
	}
	sub.upstream.Cancel()
	if !sub.coord.has(sofInboundTerminated) {
		sub.coord.cancelInbound()
		if s := sub.coord.innerSubscriber; s != nil {
			s.OnError(ErrCancelled)
		}
	}
}
