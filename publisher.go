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

// Publisher is an immutable, re-subscribable factory whose sole operation
// is "subscribe a Subscriber" (spec §3). Every operator node is a concrete
// type implementing Publisher — the design note in spec §9 recommends one
// concrete type per operator linked via a common capability interface
// rather than a tagged union, so that is what this package does throughout.
type Publisher[T any] interface {
	// SubscribeWithContext installs actual as the sink of this Publisher.
	// Implementations must call actual.OnSubscribe exactly once, either
	// directly or by delegating to an upstream Publisher.
	SubscribeWithContext(ctx Context, actual CoreSubscriber[T])
}

// wrappedSubscriber adapts a plain Subscriber[T] (no Context awareness)
// into a CoreSubscriber[T] carrying a fixed Context — the "wrapping
// non-core subscribers" responsibility spec §4.D assigns to the protocol
// core.
type wrappedSubscriber[T any] struct {
	Subscriber[T]
	ctx Context
}

func (w wrappedSubscriber[T]) Context() Context { return w.ctx }

func asCoreSubscriber[T any](ctx Context, s Subscriber[T]) CoreSubscriber[T] {
	if core, ok := s.(CoreSubscriber[T]); ok {
		return core
	}
	return wrappedSubscriber[T]{Subscriber: s, ctx: ctx}
}

// Flux is a publisher of zero to many values followed by at most one
// terminal signal. It is a thin, immutable handle around a Publisher node;
// all transformation happens by constructing a new Flux wrapping a new
// Publisher node (operators never mutate the Flux they are called on).
type Flux[T any] struct {
	pub Publisher[T]
}

// FromPublisher lifts a raw Publisher into a Flux. Most callers use one of
// the Source operators (Just, FromArray, Range, ...) instead.
func FromPublisher[T any](pub Publisher[T]) Flux[T] {
	return Flux[T]{pub: pub}
}

// Publisher exposes the underlying Publisher node, for operators that need
// to compose without going through the Flux wrapper (e.g. a coordinator
// holding N upstream Publishers of possibly-different Flux/Mono origin).
func (f Flux[T]) Publisher() Publisher[T] { return f.pub }

// Subscribe installs s against the default (empty) Context.
func (f Flux[T]) Subscribe(s Subscriber[T]) {
	f.SubscribeWithContext(Background(), s)
}

// SubscribeWithContext installs s, deriving a CoreSubscriber if s is not
// already one, and dispatches to the underlying Publisher. A nil source
// Flux completes immediately without error, matching a zero-value Flux
// being usable but inert.
func (f Flux[T]) SubscribeWithContext(ctx Context, s Subscriber[T]) {
	actual := asCoreSubscriber(ctx, s)
	if f.pub == nil {
		CompleteSubscriber[T](actual)
		return
	}
	f.pub.SubscribeWithContext(actual.Context(), actual)
}

// FluxOperator is the shape of every Flux-to-Flux transformation, so
// operators compose with Pipe the same way the teacher's
// func(Observable[T]) Observable[R] operators do in operator_math.go.
type FluxOperator[T, R any] func(Flux[T]) Flux[R]

// Pipe applies a sequence of same-type operators left to right. Use plain
// function application (op2(op1(src))) when T changes across stages, since
// Go generics cannot express a variadic chain of differently-typed
// functions; Pipe exists for the common case of chaining same-type
// transforms readably.
func Pipe[T any](src Flux[T], ops ...FluxOperator[T, T]) Flux[T] {
	for _, op := range ops {
		src = op(src)
	}
	return src
}

// Mono is a publisher of at most one value followed by at most one terminal
// signal: onNext then onComplete, or onError, or onComplete alone (empty).
type Mono[T any] struct {
	pub Publisher[T]
}

func FromMonoPublisher[T any](pub Publisher[T]) Mono[T] {
	return Mono[T]{pub: pub}
}

func (m Mono[T]) Publisher() Publisher[T] { return m.pub }

func (m Mono[T]) Subscribe(s Subscriber[T]) {
	m.SubscribeWithContext(Background(), s)
}

func (m Mono[T]) SubscribeWithContext(ctx Context, s Subscriber[T]) {
	actual := asCoreSubscriber(ctx, s)
	if m.pub == nil {
		CompleteSubscriber[T](actual)
		return
	}
	m.pub.SubscribeWithContext(actual.Context(), actual)
}

// Flux upcasts a Mono to a Flux: every Mono is a valid (at-most-one-value)
// Flux.
func (m Mono[T]) Flux() Flux[T] { return Flux[T]{pub: m.pub} }

// ScanAttr is the introspection facility spec §4.D calls for: purely
// observational, no effect on correctness. Operators that want to expose
// assembly-time parameters (prefetch, concurrency, predicate presence)
// implement Scannable.
type ScanAttr string

const (
	ScanAttrPrefetch    ScanAttr = "prefetch"
	ScanAttrBufferSize  ScanAttr = "bufferSize"
	ScanAttrConcurrency ScanAttr = "concurrency"
	ScanAttrName        ScanAttr = "name"
	ScanAttrError       ScanAttr = "error"
)

// Scannable is implemented by Publisher nodes that expose introspection
// attributes.
type Scannable interface {
	ScanUnsafe(attr ScanAttr) any
}
