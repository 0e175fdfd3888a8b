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

// BlockFirst subscribes to src, requests one value, and blocks the calling
// goroutine until either that value arrives, the sequence completes empty,
// or it errors. It exists for tests and for `main`-level glue where there
// is no event loop to hand a Subscriber to.
//
// Please use it carefully. Calling this method is against the reactive
// programming manifesto: it reintroduces blocking at the one layer this
// package otherwise keeps fully non-blocking. It might be removed in the
// future.
func BlockFirst[T any](src Flux[T]) (T, error) {
	return blockFirst(src, Background())
}

// BlockFirstWithContext is BlockFirst with an explicit Context.
func BlockFirstWithContext[T any](ctx Context, src Flux[T]) (T, error) {
	return blockFirst(src, ctx)
}

func blockFirst[T any](src Flux[T], ctx Context) (T, error) {
	done := make(chan struct{}, 1)
	b := &blockSubscriber[T]{done: done, first: true}
	src.SubscribeWithContext(ctx, b)
	<-done
	return b.value, b.err
}

// BlockLast subscribes to src, requests everything, and blocks until the
// sequence terminates, returning the last value observed (or the zero
// value if the sequence completed empty) and any error.
//
// Please use it carefully; see BlockFirst.
func BlockLast[T any](src Flux[T]) (T, error) {
	return blockLast(src, Background())
}

// BlockLastWithContext is BlockLast with an explicit Context.
func BlockLastWithContext[T any](ctx Context, src Flux[T]) (T, error) {
	return blockLast(src, ctx)
}

func blockLast[T any](src Flux[T], ctx Context) (T, error) {
	done := make(chan struct{}, 1)
	b := &blockSubscriber[T]{done: done, first: false}
	src.SubscribeWithContext(ctx, b)
	<-done
	return b.value, b.err
}

type blockSubscriber[T any] struct {
	done     chan struct{}
	first    bool
	sub      Subscription
	value    T
	err      error
	signaled bool
}

func (b *blockSubscriber[T]) OnSubscribe(sub Subscription) {
	b.sub = sub
	if b.first {
		sub.Request(1)
	} else {
		sub.Request(Unbounded)
	}
}

func (b *blockSubscriber[T]) OnNext(value T) {
	b.value = value
	if b.first && !b.signaled {
		b.signaled = true
		b.sub.Cancel()
		b.done <- struct{}{}
	}
}

func (b *blockSubscriber[T]) OnError(err error) {
	if b.signaled {
		return
	}
	b.signaled = true
	b.err = err
	b.done <- struct{}{}
}

func (b *blockSubscriber[T]) OnComplete() {
	if b.signaled {
		return
	}
	b.signaled = true
	b.done <- struct{}{}
}
