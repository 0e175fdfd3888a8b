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
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSourceInterval(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	scheduler := NewGoroutineScheduler()
	defer scheduler.Dispose()

	values, err := collect(Take[int64](3)(Interval(0, 5*time.Millisecond, scheduler)))
	is.NoError(err)
	is.Equal([]int64{0, 1, 2}, values)
}

func TestSourceRange(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := collect(Range(0, 5))
	is.Equal([]int{0, 1, 2, 3, 4}, values)
	is.NoError(err)

	values, err = collect(Range(10, 0))
	is.Equal([]int{}, values)
	is.NoError(err)

	values, err = collect(Range(10, -1))
	is.Equal([]int{}, values)
	is.NoError(err)
}

func TestSourceJustAndEmpty(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := collect(Just(42))
	is.Equal([]int{42}, values)
	is.NoError(err)

	values, err = collect(Empty[int]())
	is.Equal([]int{}, values)
	is.NoError(err)
}

func TestSourceError(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := collect(Error[int](assert.AnError))
	is.Equal([]int{}, values)
	is.EqualError(err, assert.AnError.Error())
}

func TestSourceFromArray(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := collect(FromArray([]string{"a", "b", "c"}))
	is.Equal([]string{"a", "b", "c"}, values)
	is.NoError(err)

	values, err = collect(FromArray([]string{}))
	is.Equal([]string{}, values)
	is.NoError(err)
}

func TestSourceFromCallable(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := collect(FromCallable(func() (int, error) { return 7, nil }))
	is.Equal([]int{7}, values)
	is.NoError(err)

	values, err = collect(FromCallable(func() (int, error) { return 0, assert.AnError }))
	is.Equal([]int{}, values)
	is.EqualError(err, assert.AnError.Error())
}

func TestSourceDefer(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	calls := 0
	src := Defer(func() Flux[int] {
		calls++
		return Just(calls)
	})

	values, err := collect(src)
	is.Equal([]int{1}, values)
	is.NoError(err)

	values, err = collect(src)
	is.Equal([]int{2}, values)
	is.NoError(err)
}

func TestTransformMap(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := collect(Map(func(v int) (int, error) { return v * 2, nil })(Range(0, 3)))
	is.Equal([]int{0, 2, 4}, values)
	is.NoError(err)

	values, err = collect(Map(func(v int) (int, error) {
		if v == 2 {
			return 0, assert.AnError
		}
		return v, nil
	})(Range(0, 5)))
	is.Equal([]int{0, 1}, values)
	is.EqualError(err, assert.AnError.Error())
}

func TestTransformMapValue(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := collect(MapValue(func(v int) string { return string(rune('a' + v)) })(Range(0, 3)))
	is.Equal([]string{"a", "b", "c"}, values)
	is.NoError(err)
}

func TestTransformFilter(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := collect(FilterValue(func(v int) bool { return v%2 == 0 })(Range(0, 6)))
	is.Equal([]int{0, 2, 4}, values)
	is.NoError(err)
}

func TestTransformTakeSkip(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := collect(Take[int](3)(Range(0, 10)))
	is.Equal([]int{0, 1, 2}, values)
	is.NoError(err)

	values, err = collect(Skip[int](3)(Range(0, 6)))
	is.Equal([]int{3, 4, 5}, values)
	is.NoError(err)

	values, err = collect(Take[int](0)(Range(0, 10)))
	is.Equal([]int{}, values)
	is.NoError(err)
}

func TestTransformHide(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	var rawSub, hiddenSub Subscription
	Range(0, 3).Subscribe(capturingSubscriber[int]{onSubscribe: func(s Subscription) { rawSub = s }})
	Hide(Range(0, 3)).Subscribe(capturingSubscriber[int]{onSubscribe: func(s Subscription) { hiddenSub = s }})

	_, rawIsQueue := rawSub.(QueueSubscription[int])
	_, hiddenIsQueue := hiddenSub.(QueueSubscription[int])
	is.True(rawIsQueue)
	is.False(hiddenIsQueue)

	values, err := collect(Hide(Range(0, 3)))
	is.Equal([]int{0, 1, 2}, values)
	is.NoError(err)
}

type capturingSubscriber[T any] struct {
	onSubscribe func(Subscription)
}

func (c capturingSubscriber[T]) OnSubscribe(sub Subscription) {
	if c.onSubscribe != nil {
		c.onSubscribe(sub)
	}
	sub.Request(Unbounded)
}
func (c capturingSubscriber[T]) OnNext(T)      {}
func (c capturingSubscriber[T]) OnError(error) {}
func (c capturingSubscriber[T]) OnComplete()   {}

func TestTransformIgnoreElements(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := collect(IgnoreElements(Range(0, 5)).Flux())
	is.Equal([]int{}, values)
	is.NoError(err)
}

func TestTransformPeek(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	var nexts []int
	var completed bool

	op := Peek(PeekHooks[int]{
		OnNext:     func(v int) { nexts = append(nexts, v) },
		OnComplete: func() { completed = true },
	})

	values, err := collect(op(Range(0, 3)))
	is.Equal([]int{0, 1, 2}, values)
	is.NoError(err)
	is.Equal([]int{0, 1, 2}, nexts)
	is.True(completed)
}

func TestPipe(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := collect(Pipe(
		Range(0, 5),
		FilterValue(func(v int) bool { return v%2 == 0 }),
		Take[int](2),
	))
	is.Equal([]int{0, 2}, values)
	is.NoError(err)
}
