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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCoordinatorSwitchOnFirst pins the headline startWith-style use case:
// the transformer only ever looks at the first signal, lowercases it, and
// prepends it ahead of the rest of the sequence (re-exposed as inner,
// upper-cased) with no further conditioning.
func TestCoordinatorSwitchOnFirst(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	op := SwitchOnFirst(func(sig Signal[string], inner Flux[string]) Flux[string] {
		return Concat(Just(strings.ToLower(sig.Value)), MapValue(strings.ToUpper)(inner))
	}, false)

	values, err := collect(op(FromArray([]string{"A", "B", "C"})))
	is.NoError(err)
	is.Equal([]string{"a", "B", "C"}, values)
}

// TestCoordinatorSwitchOnFirstConditionalTransform covers a transformer whose
// choice of outbound Publisher is conditioned on the first signal's value:
// an even first element multiplies the rest of the sequence, an odd one
// passes it through unchanged. Either branch subscribes to the re-exposed
// inner Flux exactly once, inside the transformer call.
func TestCoordinatorSwitchOnFirstConditionalTransform(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	op := SwitchOnFirst(func(sig Signal[int], inner Flux[int]) Flux[int] {
		if sig.Value%2 == 0 {
			return MapValue(func(v int) int { return v * 10 })(inner)
		}
		return inner
	}, false)

	values, err := collect(op(Range(0, 4)))
	is.NoError(err)
	is.Equal([]int{10, 20, 30}, values)

	values, err = collect(op(Range(1, 4)))
	is.NoError(err)
	is.Equal([]int{2, 3, 4}, values)
}

// TestCoordinatorSwitchOnFirstEmptyUpstream covers the empty-source path: the
// first (and only) signal is the terminal completion itself, delivered to
// the transformer as a KindComplete Signal with no value.
func TestCoordinatorSwitchOnFirstEmptyUpstream(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	var observedKind Kind
	op := SwitchOnFirst(func(sig Signal[int], inner Flux[int]) Flux[int] {
		observedKind = sig.Kind
		return Just(-1)
	}, false)

	values, err := collect(op(Empty[int]()))
	is.NoError(err)
	is.Equal([]int{-1}, values)
	is.Equal(KindComplete, observedKind)
}
