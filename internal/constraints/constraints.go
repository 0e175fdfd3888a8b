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

// Package constraints mirrors the sibling package the teacher imports as
// "github.com/samber/ro/internal/constraints" from operator_math.go (not
// itself present in the retrieval pack), rebuilt here on top of
// golang.org/x/exp/constraints — a direct dependency of the teacher's
// go.mod. No other package in this repository imports it.
package constraints

import "golang.org/x/exp/constraints"

// Numeric is anything that supports arithmetic: the integer and float
// families.
type Numeric interface {
	constraints.Integer | constraints.Float
}

// Ordered re-exports golang.org/x/exp/constraints.Ordered under this
// package so call sites only ever import one constraints package.
type Ordered interface {
	constraints.Ordered
}
