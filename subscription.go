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

import "math"

// Unbounded is the saturating sentinel demand. Once requested, an operator
// is freed from per-signal request bookkeeping (spec §3 invariant 2).
const Unbounded int64 = math.MaxInt64

// Subscription is the link created by one call to Publisher.Subscribe. It is
// owned exclusively by the Subscriber that received it.
type Subscription interface {
	// Request accumulates demand. n must be >= 1; violations are reported
	// through Operators.ValidateRequest by the subscriber that owns this
	// subscription, not by the caller of Request.
	Request(n int64)
	// Cancel is idempotent and non-blocking. After Cancel returns, the
	// subscription will make a best effort to stop producing; in-flight
	// onNext may still arrive once more and must be discarded by the
	// receiver.
	Cancel()
}

// Subscriber is a consumer capability with the four Reactive Streams
// callbacks (spec §3). A Subscriber must never be shared between two
// concurrent subscriptions, and its callbacks must be invoked serially
// (Rule 1.3).
type Subscriber[T any] interface {
	OnSubscribe(s Subscription)
	OnNext(value T)
	OnError(err error)
	OnComplete()
}

// CoreSubscriber is the internal currency every operator actually passes
// around: a Subscriber plus the upstream-propagated Context it was
// subscribed with. Operators that need to look up hooks, or that need to
// derive a Context for their own upstream subscribe call, use this.
type CoreSubscriber[T any] interface {
	Subscriber[T]
	Context() Context
}

// ConditionalSubscriber is a Subscriber extension exposing TryOnNext, used
// by filter/distinct-like operators so that a rejected value does not count
// against demand (spec §3 "Conditional Subscriber").
type ConditionalSubscriber[T any] interface {
	CoreSubscriber[T]
	// TryOnNext attempts to deliver value. It returns true iff the value
	// was accepted (and therefore should count against demand).
	TryOnNext(value T) bool
}

// FusionMode identifies a fusion negotiation outcome (spec §3, §4.J). The
// values are bit flags so a downstream can request FusionModeSync|
// FusionModeAsync and an upstream can grant any subset, including
// FusionNone.
type FusionMode int

const FusionNone FusionMode = 0

const (
	// FusionModeSync: producer makes values available synchronously inside
	// Poll, driven entirely by the consumer; no onNext is ever called.
	FusionModeSync FusionMode = 1 << iota
	// FusionModeAsync: producer calls onNext(zero value) as a wake-up;
	// consumer drains via Poll on its own thread.
	FusionModeAsync
	// FusionModeThreadBarrier: not requestable, only ever observed by an
	// operator deciding whether it may fuse across an executor boundary.
	FusionModeThreadBarrier
)

// FusionModeAny is the mask a downstream passes when it can accept either
// fusion mode.
const FusionModeAny = FusionModeSync | FusionModeAsync

// QueueSubscription is a Subscription that doubles as a single-consumer
// queue, the fuseable extension from spec §3/§4.J. Poll returns
// (zero, false) both when empty and on a clean terminal; SYNC-fused
// operators distinguish the two with IsEmpty after a terminal signal has
// already been observed through onError/onComplete (SYNC fusion never
// calls onError either — failures surface by Poll returning an error via
// a side channel documented on the concrete operator).
type QueueSubscription[T any] interface {
	Subscription
	// RequestFusion negotiates a fusion mode. The returned mode is either
	// FusionNone or a subset of requestedModes (spec testable property 6).
	RequestFusion(requestedModes FusionMode) FusionMode
	// Poll returns the next queued value, or ok=false if none is
	// available right now.
	Poll() (value T, ok bool)
	// IsEmpty reports whether Poll would currently return ok=false.
	IsEmpty() bool
	// Clear discards all queued values, running the discard hook on each.
	Clear()
	// Size returns the number of currently queued values, or -1 if
	// unknown (unbounded/lazy producers are permitted to return -1).
	Size() int
}
