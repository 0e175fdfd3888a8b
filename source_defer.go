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

type deferPublisher[T any] struct {
	supplier func() Flux[T]
}

// Defer builds a fresh Flux[T] per subscription by invoking supplier at
// subscribe time instead of at assembly time — every subscriber gets an
// independent instance of whatever supplier returns (spec §4.E). A
// supplier panic/error maps to a downstream OnError instead of propagating
// to the caller of Subscribe.
func Defer[T any](supplier func() Flux[T]) Flux[T] {
	return Flux[T]{pub: &deferPublisher[T]{supplier: supplier}}
}

func (p *deferPublisher[T]) SubscribeWithContext(ctx Context, actual CoreSubscriber[T]) {
	var inner Flux[T]
	err := Operators.CallProtected(func() {
		inner = p.supplier()
	})
	if err != nil {
		ErrorSubscriber[T](actual, err)
		return
	}
	inner.SubscribeWithContext(ctx, actual)
}

// DeferMono is the Mono equivalent of Defer.
func DeferMono[T any](supplier func() Mono[T]) Mono[T] {
	return Mono[T]{pub: &deferMonoPublisher[T]{supplier: supplier}}
}

type deferMonoPublisher[T any] struct {
	supplier func() Mono[T]
}

func (p *deferMonoPublisher[T]) SubscribeWithContext(ctx Context, actual CoreSubscriber[T]) {
	var inner Mono[T]
	err := Operators.CallProtected(func() {
		inner = p.supplier()
	})
	if err != nil {
		ErrorSubscriber[T](actual, err)
		return
	}
	inner.SubscribeWithContext(ctx, actual)
}
