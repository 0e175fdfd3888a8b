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

func TestContextWithAndValue(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	type key string

	root := Background()
	_, ok := root.Value(key("missing"))
	is.False(ok)

	derived := root.With(key("a"), 1)
	v, ok := derived.Value(key("a"))
	is.True(ok)
	is.Equal(1, v)

	grandchild := derived.With(key("b"), 2)
	v, ok = grandchild.Value(key("a"))
	is.True(ok)
	is.Equal(1, v)

	_, ok = root.Value(key("a"))
	is.False(ok)
}

func TestContextDiscardHookPerSubscription(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	var captured []any
	ctx := WithDiscardHook(Background(), func(ctx Context, value any) {
		captured = append(captured, value)
	})

	Operators.OnDiscard(ctx, 42)
	is.Equal([]any{42}, captured)
}

func TestContextGlobalErrorDroppedHook(t *testing.T) {
	is := assert.New(t)
	defer ResetGlobalHooks()

	var captured error
	SetGlobalErrorDroppedHook(func(ctx Context, err error) { captured = err })

	Operators.OnErrorDropped(Background(), assert.AnError)
	is.Equal(assert.AnError, captured)
}

func TestErrorsCombineErrors(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	is.NoError(CombineErrors())
	is.Equal(assert.AnError, CombineErrors(assert.AnError))
	is.Error(CombineErrors(assert.AnError, assert.AnError))
}

func TestErrorsIsFatal(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	is.False(IsFatal(nil))
	is.False(IsFatal(assert.AnError))
	is.True(IsFatal(&FatalError{Cause: "boom"}))
}

func TestErrorsOperatorErrorUnwrap(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	opErr := &OperatorError{Cause: assert.AnError, Value: 7, HasValue: true}
	is.ErrorIs(opErr, assert.AnError)
	is.Contains(opErr.Error(), "7")
}
