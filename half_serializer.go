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
	"sync/atomic"

	"github.com/samber/flux/internal/xsync"
)

// EmissionResult names the possible outcomes of an emission attempt.
// SerializedSubscriber has no fail-fast emission method and none of its
// methods returns an EmissionResult: a signal that arrives while another
// goroutine holds the critical section is queued, not failed.
type EmissionResult int

const (
	EmitOK EmissionResult = iota
	EmitFailTerminated
	EmitFailNonSerialized
)

// SerializedSubscriber enforces Rule 1.3 (serial signal delivery) when
// multiple producer goroutines might call OnNext/OnError/OnComplete
// concurrently — windowing, combineLatest, multicast sinks (spec §4.C).
// The first goroutine to arrive acquires the critical section via a WIP
// counter plus a mutex; any goroutine that cannot acquire synchronously
// queues its signal using the mutex-guarded mailbox instead of blocking,
// and the lock-holder drains the mailbox before releasing.
type SerializedSubscriber[T any] struct {
	actual CoreSubscriber[T]

	mu    xsync.Mutex
	wip   xsync.WIP
	done  atomic.Bool
	mailbox []queuedSignal[T]
}

type queuedSignal[T any] struct {
	kind Kind
	val  T
	err  error
}

func NewSerializedSubscriber[T any](actual CoreSubscriber[T]) *SerializedSubscriber[T] {
	return &SerializedSubscriber[T]{actual: actual, mu: xsync.NewMutex()}
}

func (s *SerializedSubscriber[T]) Context() Context { return s.actual.Context() }

func (s *SerializedSubscriber[T]) OnSubscribe(sub Subscription) {
	s.actual.OnSubscribe(sub)
}

// OnNext enforces serialization by queueing the signal and draining.
func (s *SerializedSubscriber[T]) OnNext(value T) {
	s.emit(queuedSignal[T]{kind: KindNext, val: value})
}

func (s *SerializedSubscriber[T]) OnError(err error) {
	s.emit(queuedSignal[T]{kind: KindError, err: err})
}

func (s *SerializedSubscriber[T]) OnComplete() {
	s.emit(queuedSignal[T]{kind: KindComplete})
}

func (s *SerializedSubscriber[T]) emit(sig queuedSignal[T]) {
	if s.done.Load() {
		s.dropSignal(sig)
		return
	}

	s.mu.Lock()
	s.mailbox = append(s.mailbox, sig)
	enter := s.wip.Enter()
	s.mu.Unlock()

	if !enter {
		return
	}

	s.drain()
}

// drain is the WIP loop: the goroutine that observed the WIP counter go
// from 0 to 1 is the sole goroutine draining the mailbox, exactly the
// pattern spec §5 describes.
func (s *SerializedSubscriber[T]) drain() {
	missed := int64(1)
	for {
		s.mu.Lock()
		batch := s.mailbox
		s.mailbox = nil
		s.mu.Unlock()

		for _, sig := range batch {
			if s.done.Load() {
				s.dropSignal(sig)
				continue
			}
			switch sig.kind {
			case KindNext:
				s.actual.OnNext(sig.val)
			case KindError:
				s.done.Store(true)
				s.actual.OnError(sig.err)
			case KindComplete:
				s.done.Store(true)
				s.actual.OnComplete()
			}
		}

		missed = s.wip.Leave(missed)
		if missed == 0 {
			return
		}
	}
}

func (s *SerializedSubscriber[T]) dropSignal(sig queuedSignal[T]) {
	switch sig.kind {
	case KindNext:
		Operators.OnNextDropped(s.actual.Context(), sig.val)
	case KindError:
		Operators.OnErrorDropped(s.actual.Context(), sig.err)
	}
}
