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

// Concat subscribes to each source in order, only moving to the next once
// the previous one completes, forwarding outstanding demand across the
// switch via MultiSubscription (spec §4.H). The first source to error
// terminates the whole sequence immediately without touching the rest.
func Concat[T any](sources ...Flux[T]) Flux[T] {
	return FromPublisher[T](&concatPublisher[T]{sources: sources})
}

type concatPublisher[T any] struct {
	sources []Flux[T]
}

func (p *concatPublisher[T]) SubscribeWithContext(ctx Context, actual CoreSubscriber[T]) {
	if len(p.sources) == 0 {
		CompleteSubscriber[T](actual)
		return
	}
	c := &concatSubscriber[T]{ctx: ctx, actual: actual, sources: p.sources}
	actual.OnSubscribe(&c.multi)
	c.subscribeNext()
}

type concatSubscriber[T any] struct {
	ctx     Context
	actual  CoreSubscriber[T]
	sources []Flux[T]
	index   int
	multi   MultiSubscription
	done    bool
}

func (c *concatSubscriber[T]) Context() Context { return c.ctx }

func (c *concatSubscriber[T]) subscribeNext() {
	if c.multi.IsCancelled() {
		return
	}
	if c.index >= len(c.sources) {
		c.done = true
		c.actual.OnComplete()
		return
	}
	src := c.sources[c.index]
	c.index++
	src.SubscribeWithContext(c.ctx, c)
}

func (c *concatSubscriber[T]) OnSubscribe(sub Subscription) {
	c.multi.Set(sub)
}

func (c *concatSubscriber[T]) OnNext(value T) {
	if c.done {
		Operators.OnNextDropped(c.ctx, value)
		return
	}
	c.multi.Produced(1)
	c.actual.OnNext(value)
}

func (c *concatSubscriber[T]) OnError(err error) {
	if c.done {
		Operators.OnErrorDropped(c.ctx, err)
		return
	}
	c.done = true
	c.actual.OnError(err)
}

func (c *concatSubscriber[T]) OnComplete() {
	if c.done {
		return
	}
	c.subscribeNext()
}
