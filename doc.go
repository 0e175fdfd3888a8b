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

// Package flux is a reactive-streams runtime: a library for composing
// asynchronous, back-pressured data pipelines between producers and
// consumers.
//
// It provides two pipeline shapes, Flux[T] (zero-to-many values) and
// Mono[T] (zero-or-one value), together with an operator algebra for
// transforming them. Every operator honours the Reactive Streams protocol:
// exactly one onSubscribe, then any number of onNext, then at most one of
// onComplete/onError. Demand flows from the downstream subscriber to the
// upstream publisher via Subscription.Request; cancellation flows the same
// direction via Subscription.Cancel.
//
// This package does not schedule anything itself: it consumes a Scheduler
// abstraction (see scheduler.go) and produces subscription lifecycles. It
// does not do networking, persistence, or metrics; see adapters/ for
// optional integrations with an external scheduler and an observability
// backend.
package flux
