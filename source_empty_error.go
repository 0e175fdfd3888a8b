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

type emptyPublisher[T any] struct{}

// Empty returns a Flux that completes immediately without emitting any
// value, synchronously after OnSubscribe, requiring no Request (spec §8
// boundary behaviors).
func Empty[T any]() Flux[T] {
	return Flux[T]{pub: emptyPublisher[T]{}}
}

func EmptyMono[T any]() Mono[T] {
	return Mono[T]{pub: emptyPublisher[T]{}}
}

func (emptyPublisher[T]) SubscribeWithContext(ctx Context, actual CoreSubscriber[T]) {
	CompleteSubscriber[T](actual)
}

func (emptyPublisher[T]) Block() (T, bool, error) {
	var zero T
	return zero, false, nil
}

type errorPublisher[T any] struct {
	err      error
	supplier func() error
}

// Error returns a Flux that immediately delivers err through OnError.
func Error[T any](err error) Flux[T] {
	return Flux[T]{pub: &errorPublisher[T]{err: err}}
}

func ErrorMono[T any](err error) Mono[T] {
	return Mono[T]{pub: &errorPublisher[T]{err: err}}
}

// ErrorSupplier returns a Flux that calls supplier lazily, once per
// subscription, to materialize the error it will deliver (spec §4.E:
// "error must materialize the throwable lazily if a supplier form is
// used").
func ErrorSupplier[T any](supplier func() error) Flux[T] {
	return Flux[T]{pub: &errorPublisher[T]{supplier: supplier}}
}

func (p *errorPublisher[T]) SubscribeWithContext(ctx Context, actual CoreSubscriber[T]) {
	err := p.err
	if p.supplier != nil {
		resolved, callErr := p.callSupplier()
		if callErr != nil {
			ErrorSubscriber[T](actual, callErr)
			return
		}
		err = resolved
	}
	ErrorSubscriber[T](actual, err)
}

func (p *errorPublisher[T]) callSupplier() (err error, callErr error) {
	callErr = Operators.CallProtected(func() {
		err = p.supplier()
	})
	return err, callErr
}

func (p *errorPublisher[T]) Block() (T, bool, error) {
	var zero T
	err := p.err
	if p.supplier != nil {
		err = p.supplier()
	}
	return zero, false, err
}
