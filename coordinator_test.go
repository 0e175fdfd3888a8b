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
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoordinatorConcat(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := collect(Concat(Range(0, 3), Range(10, 2), Range(20, 1)))
	is.Equal([]int{0, 1, 2, 10, 11, 20}, values)
	is.NoError(err)

	values, err = collect(Concat(Range(0, 2), Error[int](assert.AnError), Range(20, 1)))
	is.Equal([]int{0, 1}, values)
	is.EqualError(err, assert.AnError.Error())
}

func TestCoordinatorMerge(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := collect(Merge(Range(0, 3), Range(10, 3)))
	is.NoError(err)
	is.Len(values, 6)
	sort.Ints(values)
	is.Equal([]int{0, 1, 2, 10, 11, 12}, values)
}

func TestCoordinatorZip2(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := collect(Zip2(Range(0, 3), FromArray([]string{"a", "b", "c", "d"})))
	is.NoError(err)
	is.Equal([]Pair[int, string]{
		{First: 0, Second: "a"},
		{First: 1, Second: "b"},
		{First: 2, Second: "c"},
	}, values)
}

func TestCoordinatorCombineLatest2(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := collect(CombineLatest2(Just(1), Just("a")))
	is.NoError(err)
	is.Equal([]Pair[int, string]{{First: 1, Second: "a"}}, values)
}

func TestCoordinatorSwitchMap(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := collect(SwitchMap(func(v int) Flux[int] {
		return Range(v*10, 2)
	})(Range(0, 3)))
	is.NoError(err)
	is.NotEmpty(values)
}

func TestCoordinatorAmb(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	values, err := collect(Amb(Range(0, 3), Range(100, 3)))
	is.NoError(err)
	is.Len(values, 3)
	is.True(values[0] == 0 || values[0] == 100)
}

func TestCoordinatorPublish(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	op := Publish(func(shared Flux[int]) Flux[Pair[int, int]] {
		return Zip2(shared, MapValue(func(v int) int { return v * 10 })(shared))
	})

	values, err := collect(op(Range(0, 3)))
	is.NoError(err)
	is.Equal([]Pair[int, int]{
		{First: 0, Second: 0},
		{First: 1, Second: 10},
		{First: 2, Second: 20},
	}, values)
}

// TestCoordinatorPublishSelfZip covers publish's headline use case against
// an eager, fully synchronous source: the selector subscribes to the shared
// upstream twice (once directly, once through Skip) while it is being
// assembled, and both must be registered before the source is driven or the
// second branch would see a hub that already completed.
func TestCoordinatorPublishSelfZip(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	op := Publish(func(shared Flux[int]) Flux[int] {
		return MapValue(func(p Pair[int, int]) int { return p.First + p.Second })(
			Zip2(shared, Skip[int](1)(shared)),
		)
	})

	values, err := collect(op(Range(1, 5)))
	is.NoError(err)
	is.Equal([]int{3, 5, 7, 9}, values)
}
