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

	"github.com/stretchr/testify/assert"
)

func TestMonoMapAndFilter(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := collect(MonoMap(JustMono(2), func(v int) (int, error) { return v * 5, nil }).Flux())
	is.NoError(err)
	is.Equal([]int{10}, values)

	values, err = collect(MonoFilter(JustMono(2), func(v int) (bool, error) { return v > 5, nil }).Flux())
	is.NoError(err)
	is.Equal([]int{}, values)
}

func TestMonoDefaultIfEmpty(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := collect(MonoDefaultIfEmpty(EmptyMono[int](), 9).Flux())
	is.NoError(err)
	is.Equal([]int{9}, values)

	values, err = collect(MonoDefaultIfEmpty(JustMono(3), 9).Flux())
	is.NoError(err)
	is.Equal([]int{3}, values)
}

func TestMonoFlatMap(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := collect(MonoFlatMap(JustMono(2), func(v int) Mono[string] {
		if v == 2 {
			return JustMono("two")
		}
		return EmptyMono[string]()
	}).Flux())
	is.NoError(err)
	is.Equal([]string{"two"}, values)

	values, err = collect(MonoFlatMap(EmptyMono[int](), func(v int) Mono[string] {
		return JustMono("unreachable")
	}).Flux())
	is.NoError(err)
	is.Equal([]string{}, values)
}

func TestMonoThenAndIgnoreElement(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := collect(MonoThen(JustMono(1), JustMono("done")).Flux())
	is.NoError(err)
	is.Equal([]string{"done"}, values)

	_, err = collect(MonoThen(ErrorMono[int](assert.AnError), JustMono("done")).Flux())
	is.EqualError(err, assert.AnError.Error())
}

func TestMonoZip2(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := collect(MonoZip2(JustMono(1), JustMono("a")).Flux())
	is.NoError(err)
	is.Equal([]Pair2[int, string]{{First: 1, Second: "a"}}, values)

	values, err = collect(MonoZip2(EmptyMono[int](), JustMono("a")).Flux())
	is.NoError(err)
	is.Equal([]Pair2[int, string]{}, values)

	_, err = collect(MonoZip2(ErrorMono[int](assert.AnError), JustMono("a")).Flux())
	is.EqualError(err, assert.AnError.Error())
}
