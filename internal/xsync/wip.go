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

package xsync

import "sync/atomic"

// WIP implements the work-in-progress drain-loop counter described in
// spec §5 and used by nearly every stateful/coordinator operator in this
// repository (merge, zip, combineLatest, publish, buffer/window by
// boundary). Enter returns true for the goroutine that must run the drain
// loop; that goroutine must call Leave in a loop until it returns 0,
// because another goroutine may have added more work while it was
// draining.
type WIP struct {
	n int64
}

// Enter increments the counter and reports whether the caller is the
// (only) goroutine responsible for draining: true iff the pre-increment
// value was zero.
func (w *WIP) Enter() bool {
	return atomic.AddInt64(&w.n, 1) == 1
}

// Add increments the counter by delta without claiming drain ownership;
// used when a caller wants to enqueue delta units of work atomically with
// a subsequent Enter-style check. Returns the value prior to the add.
func (w *WIP) Add(delta int64) int64 {
	return atomic.AddInt64(&w.n, delta) - delta
}

// Leave decrements the counter by the amount of work the drain loop just
// consumed (normally 1) and returns the remaining count. The drain loop
// must keep looping while the returned value is still > 0.
func (w *WIP) Leave(consumed int64) int64 {
	return atomic.AddInt64(&w.n, -consumed)
}

// Get reads the current counter value without modifying it.
func (w *WIP) Get() int64 {
	return atomic.LoadInt64(&w.n)
}
