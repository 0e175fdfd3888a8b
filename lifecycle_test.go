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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLifecycleRetry(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	var attempts atomic.Int64
	src := Defer(func() Flux[int] {
		n := attempts.Add(1)
		if n < 3 {
			return Concat(Just(int(n)), Error[int](assert.AnError))
		}
		return Just(int(n))
	})

	values, err := collect(Retry[int](5, func(error) bool { return true })(src))
	is.NoError(err)
	is.Equal([]int{1, 2, 3}, values)
	is.EqualValues(3, attempts.Load())

	attempts.Store(0)
	values, err = collect(Retry[int](1, func(error) bool { return true })(src))
	is.Error(err)
	is.Equal([]int{1, 2}, values)
}

func TestLifecycleRepeat(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	var subscriptions atomic.Int64
	src := Defer(func() Flux[int] {
		n := subscriptions.Add(1)
		return Just(int(n))
	})

	budget := 3
	values, err := collect(Repeat[int](10, func() bool {
		budget--
		return budget >= 0
	})(src))
	is.NoError(err)
	is.Equal([]int{1, 2, 3, 4}, values)
}

func TestLifecycleOnErrorResume(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := collect(OnErrorResume[int](func(error) Flux[int] {
		return Just(-1)
	})(Concat(Just(1), Error[int](assert.AnError))))
	is.NoError(err)
	is.Equal([]int{1, -1}, values)
}

func TestLifecycleOnErrorReturn(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := collect(OnErrorReturn[int](0)(Error[int](assert.AnError)))
	is.NoError(err)
	is.Equal([]int{0}, values)
}

func TestLifecycleTimeoutFallback(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	scheduler := NewGoroutineScheduler()
	defer scheduler.Dispose()

	never := FromPublisher[int](neverPublisher[int]{})
	fallback := Just(99)

	values, err := collect(Timeout[int](10*time.Millisecond, scheduler, fallback)(never))
	is.NoError(err)
	is.Equal([]int{99}, values)
}

func TestLifecycleTimeoutError(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	scheduler := NewGoroutineScheduler()
	defer scheduler.Dispose()

	never := FromPublisher[int](neverPublisher[int]{})

	values, err := collect(TimeoutError[int](10*time.Millisecond, scheduler)(never))
	is.Equal([]int{}, values)
	is.ErrorIs(err, ErrTimeout)
}

// neverPublisher never emits or terminates; Cancel is the only way out.
type neverPublisher[T any] struct{}

func (neverPublisher[T]) SubscribeWithContext(ctx Context, actual CoreSubscriber[T]) {
	actual.OnSubscribe(neverSubscription{})
}

type neverSubscription struct{}

func (neverSubscription) Request(int64) {}
func (neverSubscription) Cancel()       {}

func TestLifecycleUsingWhen(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	var closed atomic.Bool

	seq := UsingWhen[string, int, struct{}](
		JustMono("resource"),
		func(resource string) Flux[int] { return Range(0, 3) },
		func(resource string) Mono[struct{}] {
			closed.Store(true)
			return JustMono(struct{}{})
		},
		func(resource string, err error) Mono[struct{}] {
			closed.Store(true)
			return JustMono(struct{}{})
		},
		func(resource string) Mono[struct{}] {
			closed.Store(true)
			return JustMono(struct{}{})
		},
	)

	values, err := collect(seq)
	is.NoError(err)
	is.Equal([]int{0, 1, 2}, values)
	is.True(closed.Load())
}
