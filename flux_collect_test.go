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

// collect synchronously drains f, requesting Unbounded up front, and
// returns every value observed alongside the terminal error (nil on a
// clean completion). It exists purely for tests, mirroring the shape of
// BlockLast but gathering the whole sequence instead of just the tail.
func collect[T any](f Flux[T]) ([]T, error) {
	return collectWithContext(Background(), f)
}

func collectWithContext[T any](ctx Context, f Flux[T]) ([]T, error) {
	c := &collectSubscriber[T]{values: make([]T, 0), done: make(chan struct{})}
	f.SubscribeWithContext(ctx, c)
	<-c.done
	return c.values, c.err
}

type collectSubscriber[T any] struct {
	mu     sync.Mutex
	values []T
	err    error
	done   chan struct{}
}

func (c *collectSubscriber[T]) OnSubscribe(sub Subscription) { sub.Request(Unbounded) }

func (c *collectSubscriber[T]) OnNext(value T) {
	c.mu.Lock()
	c.values = append(c.values, value)
	c.mu.Unlock()
}

func (c *collectSubscriber[T]) OnError(err error) {
	c.err = err
	close(c.done)
}

func (c *collectSubscriber[T]) OnComplete() {
	close(c.done)
}
