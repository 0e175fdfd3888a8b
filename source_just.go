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

// Callable is implemented by sources that can produce their single value
// eagerly, without a subscription. No operator in this package checks for
// it to perform assembly-time fusion. Block returns hasValue=false for an empty source and a
// non-nil err for a source that would error.
type Callable[T any] interface {
	Block() (value T, hasValue bool, err error)
}

type justPublisher[T any] struct {
	value T
}

// Just returns a Flux that emits value once and completes. Fuseable
// (SYNC), and exposed as a Callable for assembly-time optimization.
func Just[T any](value T) Flux[T] {
	return Flux[T]{pub: &justPublisher[T]{value: value}}
}

func (p *justPublisher[T]) SubscribeWithContext(ctx Context, actual CoreSubscriber[T]) {
	actual.OnSubscribe(NewScalarSubscription[T](actual, p.value))
}

func (p *justPublisher[T]) Block() (T, bool, error) {
	return p.value, true, nil
}

func (p *justPublisher[T]) ScanUnsafe(attr ScanAttr) any {
	if attr == ScanAttrName {
		return "Just"
	}
	return nil
}

// JustMono is the Mono equivalent of Just.
func JustMono[T any](value T) Mono[T] {
	return Mono[T]{pub: &justPublisher[T]{value: value}}
}
