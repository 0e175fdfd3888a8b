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

type callablePublisher[T any] struct {
	fn func() (T, error)
}

// FromCallable invokes fn lazily, once per subscription, and emits its
// single result then completes, or delivers its error. Fusion mode SYNC
// (spec §4.E).
func FromCallable[T any](fn func() (T, error)) Flux[T] {
	return Flux[T]{pub: &callablePublisher[T]{fn: fn}}
}

func FromCallableMono[T any](fn func() (T, error)) Mono[T] {
	return Mono[T]{pub: &callablePublisher[T]{fn: fn}}
}

// FromSupplier is FromCallable for a function that cannot itself fail.
func FromSupplier[T any](fn func() T) Flux[T] {
	return FromCallable(func() (T, error) { return fn(), nil })
}

func (p *callablePublisher[T]) SubscribeWithContext(ctx Context, actual CoreSubscriber[T]) {
	value, err := p.Block()
	if err != nil {
		ErrorSubscriber[T](actual, err)
		return
	}
	actual.OnSubscribe(NewScalarSubscription[T](actual, value))
}

func (p *callablePublisher[T]) Block() (value T, err error) {
	callErr := Operators.CallProtected(func() {
		value, err = p.fn()
	})
	if callErr != nil {
		return value, callErr
	}
	return value, err
}
