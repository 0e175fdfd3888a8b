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
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSinkMulticast(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	sink := NewSink[int](Background())

	var wg sync.WaitGroup
	wg.Add(2)

	var first, second []int
	var firstErr, secondErr error

	go func() {
		defer wg.Done()
		first, firstErr = collect(sink.AsFlux())
	}()
	go func() {
		defer wg.Done()
		second, secondErr = collect(sink.AsFlux())
	}()

	// Give both subscribers a moment to register before emitting; Emit only
	// reaches subscribers already attached when it is called.
	for {
		sink.mu.Lock()
		n := len(sink.subscribers)
		sink.mu.Unlock()
		if n == 2 {
			break
		}
	}

	sink.Emit(1)
	sink.Emit(2)
	sink.Complete()

	wg.Wait()

	is.Equal([]int{1, 2}, first)
	is.NoError(firstErr)
	is.Equal([]int{1, 2}, second)
	is.NoError(secondErr)
}

func TestSinkEmitAfterTerminateIsDropped(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	sink := NewSink[int](Background())
	sink.Complete()

	is.False(sink.Emit(1))

	values, err := collect(sink.AsFlux())
	is.Equal([]int{}, values)
	is.NoError(err)
}

func TestBlockFirstAndLast(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	first, err := BlockFirst(Range(0, 5))
	is.NoError(err)
	is.Equal(0, first)

	last, err := BlockLast(Range(0, 5))
	is.NoError(err)
	is.Equal(4, last)

	_, err = BlockFirst(Error[int](assert.AnError))
	is.EqualError(err, assert.AnError.Error())

	empty, err := BlockLast(Empty[int]())
	is.NoError(err)
	is.Equal(0, empty)
}

func TestListenerObserve(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	var mu sync.Mutex
	var events []string
	record := func(name string) {
		mu.Lock()
		events = append(events, name)
		mu.Unlock()
	}

	listener := &recordingListener[int]{record: record}

	values, err := collect(Observe[int](listener)(Range(0, 2)))
	is.NoError(err)
	is.Equal([]int{0, 1}, values)

	mu.Lock()
	defer mu.Unlock()
	is.Equal([]string{"first", "subscribe", "next:0", "next:1", "complete", "finally:0"}, events)
}

type recordingListener[T any] struct {
	NopListener[T]
	record func(string)
}

func (l *recordingListener[T]) DoFirst()                  { l.record("first") }
func (l *recordingListener[T]) DoOnSubscribe(Subscription) { l.record("subscribe") }
func (l *recordingListener[T]) DoOnNext(value int)         { l.record("next:" + strconv.Itoa(value)) }
func (l *recordingListener[T]) DoOnComplete()              { l.record("complete") }
func (l *recordingListener[T]) DoFinally(signal SignalKind) {
	l.record("finally:" + strconv.Itoa(int(signal)))
}
