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

// Package queue implements the three single-consumer queue families spec
// §4.B names: a bounded SPSC ring buffer, an unbounded linked-array SPSC
// queue, and a one-slot cell. No repo in the retrieval pack implements a
// queue with this contract (the teacher is push-only and never needed
// one), so this package follows the spec directly; it is intentionally
// stdlib-only (sync/atomic), since no ecosystem library in the corpus
// specializes in lock-free SPSC queues with this exact polling contract
// (see DESIGN.md).
package queue

// Queue is the single-consumer-side contract every family implements. Offer
// may be called concurrently by multiple producers only for the families
// that document it (the bounded queue here assumes a single producer, per
// spec §4.B "all single-consumer on the polling side" — callers needing
// MPSC semantics must serialize Offer themselves, e.g. via the half-serializer
// in half_serializer.go).
type Queue[T any] interface {
	// Offer attempts to enqueue value, returning false if the queue is at
	// capacity (bounded queues only; the unbounded queue's Offer never
	// returns false).
	Offer(value T) bool
	// Poll dequeues the next value, or returns ok=false if empty.
	Poll() (value T, ok bool)
	// IsEmpty reports whether Poll would currently return ok=false.
	IsEmpty() bool
	// Clear drains the queue, calling onDiscard for every value removed.
	Clear(onDiscard func(T))
	// Size returns the number of currently queued elements.
	Size() int
}

// Supplier returns a factory for a Queue sized to capacity, per spec
// §4.B's table: capacity==1 gets a one-slot queue, capacity>10_000_000 gets
// the unbounded linked-array queue, anything else gets a bounded queue
// rounded up to a power of two.
func Supplier[T any](capacity int) func() Queue[T] {
	switch {
	case capacity == 1:
		return func() Queue[T] { return NewOneSlot[T]() }
	case capacity > 10_000_000:
		return func() Queue[T] { return NewUnbounded[T](128) }
	default:
		return func() Queue[T] { return NewBounded[T](capacity) }
	}
}

func roundUpToPowerOfTwo(v int) int {
	if v < 1 {
		return 1
	}
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v |= v >> 32
	v++
	return v
}
