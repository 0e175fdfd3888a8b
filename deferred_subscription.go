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

// DeferredSubscription holds a pending demand and a yet-to-arrive upstream
// Subscription (spec §4.C). Operators that need to hand a Subscription to
// their own downstream before they have an upstream to forward Request/
// Cancel to (map, filter, peek, ...) embed this.
//
// Request either forwards to the upstream if one has been set, or
// accumulates into the pending counter with saturation. Set drains the
// pending request atomically exactly once. Cancel is idempotent.
type DeferredSubscription struct {
	upstream atomic.Pointer[Subscription]
	pending  int64 // accessed only via atomic; valid until upstream is set
	cancelled atomic.Bool
}

// Set installs the upstream subscription and drains any pending demand
// into it. If Cancel already ran, s is cancelled immediately instead.
// Returns false if an upstream was already set (double onSubscribe, spec
// invariant 6) — the caller must then cancel s itself and report a
// protocol error.
func (d *DeferredSubscription) Set(s Subscription) bool {
	if d.cancelled.Load() {
		s.Cancel()
		return true
	}
	if !d.upstream.CompareAndSwap(nil, &s) {
		return false
	}
	pending := atomic.SwapInt64(&d.pending, 0)
	if pending > 0 {
		s.Request(pending)
	}
	return true
}

// Request implements Subscription.Request.
func (d *DeferredSubscription) Request(n int64) {
	if n <= 0 {
		return
	}
	if up := d.upstream.Load(); up != nil {
		(*up).Request(n)
		return
	}
	for {
		old := atomic.LoadInt64(&d.pending)
		next := Operators.AddCap(old, n)
		if atomic.CompareAndSwapInt64(&d.pending, old, next) {
			break
		}
	}
	// Set may have run concurrently and already drained pending before our
	// add was visible; re-check and, if an upstream has since appeared,
	// claim whatever is left ourselves so it is never silently lost.
	if up := d.upstream.Load(); up != nil {
		if r := atomic.SwapInt64(&d.pending, 0); r > 0 {
			(*up).Request(r)
		}
	}
}

// Cancel implements Subscription.Cancel. Idempotent.
func (d *DeferredSubscription) Cancel() {
	if d.cancelled.Swap(true) {
		return
	}
	if up := d.upstream.Load(); up != nil {
		(*up).Cancel()
	}
}

// IsCancelled reports whether Cancel has run.
func (d *DeferredSubscription) IsCancelled() bool {
	return d.cancelled.Load()
}

// Upstream returns the installed upstream Subscription, if any.
func (d *DeferredSubscription) Upstream() (Subscription, bool) {
	if up := d.upstream.Load(); up != nil {
		return *up, true
	}
	return nil, false
}
