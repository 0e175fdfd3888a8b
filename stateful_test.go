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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatefulScan(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := collect(Scan(0, func(acc, v int) (int, error) { return acc + v, nil })(Range(1, 4)))
	is.NoError(err)
	is.Equal([]int{0, 1, 3, 6, 10}, values)
}

func TestStatefulDistinctValue(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := collect(DistinctValue[int]()(FromArray([]int{1, 1, 2, 2, 3, 1})))
	is.NoError(err)
	is.Equal([]int{1, 2, 3}, values)
}

func TestStatefulDistinctKeySelector(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := collect(Distinct[string, int](func(s string) (int, error) { return len(s), nil })(
		FromArray([]string{"a", "bb", "c", "dd", "eee"}),
	))
	is.NoError(err)
	is.Equal([]string{"a", "bb", "eee"}, values)
}

func TestStatefulBufferUntilBoundary(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	mainSink := NewSink[int](Background())
	boundarySink := NewSink[struct{}](Background())

	sub := &collectSubscriber[[]int]{values: make([][]int, 0), done: make(chan struct{})}
	BufferUntilBoundary[int, struct{}](boundarySink.AsFlux())(mainSink.AsFlux()).SubscribeWithContext(Background(), sub)

	mainSink.Emit(1)
	mainSink.Emit(2)
	boundarySink.Emit(struct{}{})
	mainSink.Emit(3)
	mainSink.Complete()

	is.Equal([][]int{{1, 2}, {3}}, sub.values)
	is.NoError(sub.err)
}

func TestStatefulWindowUntilBoundary(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	mainSink := NewSink[int](Background())
	boundarySink := NewSink[struct{}](Background())

	var windows []Flux[int]
	sub := &windowCollectingSubscriber{onWindow: func(w Flux[int]) { windows = append(windows, w) }, done: make(chan struct{})}
	WindowUntilBoundary[int, struct{}](boundarySink.AsFlux())(mainSink.AsFlux()).SubscribeWithContext(Background(), sub)

	mainSink.Emit(1)
	mainSink.Emit(2)
	boundarySink.Emit(struct{}{})
	mainSink.Emit(3)
	mainSink.Complete()

	is.Len(windows, 2)

	firstValues, err := collect(windows[0])
	is.NoError(err)
	is.Equal([]int{1, 2}, firstValues)

	secondValues, err := collect(windows[1])
	is.NoError(err)
	is.Equal([]int{3}, secondValues)
}

type windowCollectingSubscriber struct {
	onWindow func(Flux[int])
	done     chan struct{}
}

func (s *windowCollectingSubscriber) OnSubscribe(sub Subscription) { sub.Request(Unbounded) }
func (s *windowCollectingSubscriber) OnNext(w Flux[int])           { s.onWindow(w) }
func (s *windowCollectingSubscriber) OnError(error)                { close(s.done) }
func (s *windowCollectingSubscriber) OnComplete()                  { close(s.done) }

// TestStatefulWindowUntilBoundaryRespectsDemand pins invariant 2 (no more
// onNext than requested) for the outer window sequence: a boundary rotation
// that happens while the outer subscriber has no outstanding demand must
// not hand out a new window-Flux until more demand arrives.
func TestStatefulWindowUntilBoundaryRespectsDemand(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	mainSink := NewSink[int](Background())
	boundarySink := NewSink[struct{}](Background())

	var windows []Flux[int]
	sub := &demandWindowSubscriber{onWindow: func(w Flux[int]) { windows = append(windows, w) }, done: make(chan struct{})}
	WindowUntilBoundary[int, struct{}](boundarySink.AsFlux())(mainSink.AsFlux()).SubscribeWithContext(Background(), sub)

	sub.sub.Request(1)
	is.Len(windows, 1)

	mainSink.Emit(1)
	boundarySink.Emit(struct{}{})
	is.Len(windows, 1, "second window must stay queued until demand arrives")

	sub.sub.Request(1)
	is.Len(windows, 2)

	mainSink.Complete()
	<-sub.done
	is.NoError(sub.err)
}

type demandWindowSubscriber struct {
	onWindow func(Flux[int])
	sub      Subscription
	err      error
	done     chan struct{}
}

func (s *demandWindowSubscriber) OnSubscribe(sub Subscription) { s.sub = sub }
func (s *demandWindowSubscriber) OnNext(w Flux[int])           { s.onWindow(w) }
func (s *demandWindowSubscriber) OnError(err error)            { s.err = err; close(s.done) }
func (s *demandWindowSubscriber) OnComplete()                  { close(s.done) }

// TestStatefulBufferUntilBoundaryOverflowOnZeroDemand covers the flush-time
// overflow path: a boundary signal firing while the downstream subscriber
// has granted no demand at all must surface an OverflowError rather than
// buffer the batch indefinitely.
func TestStatefulBufferUntilBoundaryOverflowOnZeroDemand(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	mainSink := NewSink[int](Background())
	boundarySink := NewSink[struct{}](Background())

	sub := &noRequestSubscriber[[]int]{done: make(chan struct{})}
	BufferUntilBoundary[int, struct{}](boundarySink.AsFlux())(mainSink.AsFlux()).SubscribeWithContext(Background(), sub)

	mainSink.Emit(1)
	boundarySink.Emit(struct{}{})

	<-sub.done
	is.ErrorAs(sub.err, new(*OverflowError))
}

type noRequestSubscriber[T any] struct {
	err  error
	done chan struct{}
}

func (s *noRequestSubscriber[T]) OnSubscribe(Subscription) {}
func (s *noRequestSubscriber[T]) OnNext(T)                 {}
func (s *noRequestSubscriber[T]) OnError(err error)        { s.err = err; close(s.done) }
func (s *noRequestSubscriber[T]) OnComplete()              { close(s.done) }
