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

import "sync"

// MultiSubscription generalizes DeferredSubscription across a sequence of
// upstreams (spec §4.C), used by concat and retry. It tracks how many
// values have been produced since the current upstream was installed, so
// that when the upstream switches, outstanding demand is decremented by
// that count and the remainder is re-issued to the new upstream — a
// subscriber that requested 10 and already received 3 from the first
// source should only re-request 7 from the second.
//
// All mutation happens under a single mutex: this mixin is used by
// operators whose upstream-switch events are comparatively rare (source
// exhaustion, retry) so the simplicity of one lock outweighs a lock-free
// design, unlike the hotter-path DeferredSubscription.
type MultiSubscription struct {
	mu        sync.Mutex
	current   Subscription
	requested int64
	produced  int64
	cancelled bool
}

// Set installs a new upstream subscription, replacing (but not cancelling
// — the caller already completed/erred the previous upstream by the time
// it switches) any previous one. It re-issues (requested - produced) to
// the new upstream and resets produced to zero. If Cancel already ran, s
// is cancelled immediately and Set returns false.
func (m *MultiSubscription) Set(s Subscription) bool {
	m.mu.Lock()
	if m.cancelled {
		m.mu.Unlock()
		s.Cancel()
		return false
	}
	toRequest := Operators.SubOrZero(m.requested, m.produced)
	m.current = s
	m.produced = 0
	m.mu.Unlock()

	if toRequest > 0 {
		s.Request(toRequest)
	}
	return true
}

// Produced records that n values have been delivered downstream against
// the current upstream's demand.
func (m *MultiSubscription) Produced(n int64) {
	m.mu.Lock()
	m.produced += n
	m.mu.Unlock()
}

// Request implements Subscription.Request: accumulates into the overall
// requested total (so a future Set computes the right remainder) and
// forwards to the current upstream if any.
func (m *MultiSubscription) Request(n int64) {
	if n <= 0 {
		return
	}
	m.mu.Lock()
	m.requested = Operators.AddCap(m.requested, n)
	cur := m.current
	m.mu.Unlock()

	if cur != nil {
		cur.Request(n)
	}
}

// Cancel cancels the current upstream, if any, and marks this
// MultiSubscription so any subsequent Set immediately cancels its argument
// instead of installing it. Idempotent.
func (m *MultiSubscription) Cancel() {
	m.mu.Lock()
	if m.cancelled {
		m.mu.Unlock()
		return
	}
	m.cancelled = true
	cur := m.current
	m.current = nil
	m.mu.Unlock()

	if cur != nil {
		cur.Cancel()
	}
}

// IsCancelled reports whether Cancel has run.
func (m *MultiSubscription) IsCancelled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancelled
}
