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
	"fmt"
	"log"
	"sync/atomic"
)

// ctxKey identifies a well-known hook stored in a Context. Unexported so
// user values never collide with it.
type ctxKey uint8

const (
	keyOnDiscard ctxKey = iota
	keyOnErrorDropped
	keyOnNextDropped
)

// Context is an immutable, persistent map propagated upstream during
// subscription (sink to source) and read-only from the source side. Reading
// is always non-blocking and allocation-free on the hit path; writing
// returns a new Context sharing the parent's backing node (a classic
// persistent linked map), so publishers are free to hand the same Context
// to many concurrent subscribers without synchronization.
type Context interface {
	// Value looks up a key, walking up to parent contexts. ok is false if
	// the key was never set.
	Value(key any) (value any, ok bool)
	// With returns a derived Context with key bound to value. The receiver
	// is never mutated.
	With(key any, value any) Context
}

type emptyContext struct{}

func (emptyContext) Value(key any) (any, bool) { return nil, false }
func (emptyContext) With(key any, value any) Context {
	return &ctxNode{key: key, value: value, parent: emptyContext{}}
}

type ctxNode struct {
	key    any
	value  any
	parent Context
}

func (c *ctxNode) Value(key any) (any, bool) {
	if c.key == key {
		return c.value, true
	}
	return c.parent.Value(key)
}

func (c *ctxNode) With(key any, value any) Context {
	return &ctxNode{key: key, value: value, parent: c}
}

// Background returns the empty root Context.
func Background() Context {
	return emptyContext{}
}

// DiscardHook is called exactly once for every value that was produced by an
// operator but could never be delivered downstream (invariant 4 of spec
// §3): values orphaned by cancellation, by a boundary swap under zero
// demand, by a failed user callback, and so on.
type DiscardHook func(ctx Context, value any)

// ErrorDroppedHook is called exactly once for every error that arrives after
// a subscriber has already terminated or been cancelled (invariant 5).
type ErrorDroppedHook func(ctx Context, err error)

// NextDroppedHook is called for every onNext that arrives after termination
// or cancellation — distinct from DiscardHook, which covers values an
// operator produced internally but never emitted.
type NextDroppedHook func(ctx Context, value any)

// WithDiscardHook, WithErrorDroppedHook and WithNextDroppedHook attach
// per-subscription hooks to a Context. Operators.OnDiscard/OnErrorDropped/
// OnNextDropped look these up first and fall back to the process-wide
// defaults below when absent, per spec §9 Design Notes ("context-first
// lookup, global fallback").
func WithDiscardHook(ctx Context, hook DiscardHook) Context {
	return ctx.With(keyOnDiscard, hook)
}

func WithErrorDroppedHook(ctx Context, hook ErrorDroppedHook) Context {
	return ctx.With(keyOnErrorDropped, hook)
}

func WithNextDroppedHook(ctx Context, hook NextDroppedHook) Context {
	return ctx.With(keyOnNextDropped, hook)
}

// Process-wide fallback hooks, grounded on the teacher's ro.go atomic.Value
// global hook table (onUnhandledError / onDroppedNotification). Swapped
// atomically so concurrent readers never race a writer.
var (
	globalOnDiscard      atomic.Value // DiscardHook
	globalOnErrorDropped atomic.Value // ErrorDroppedHook
	globalOnNextDropped  atomic.Value // NextDroppedHook
)

func init() {
	ResetGlobalHooks()
}

// SetGlobalDiscardHook installs the process-wide fallback used when a
// Context carries no discard hook of its own. Passing nil restores the
// default (log-based) behavior.
func SetGlobalDiscardHook(hook DiscardHook) {
	if hook == nil {
		hook = DefaultDiscardHook
	}
	globalOnDiscard.Store(hook)
}

// SetGlobalErrorDroppedHook installs the process-wide fallback for dropped
// errors. Passing nil restores the default.
func SetGlobalErrorDroppedHook(hook ErrorDroppedHook) {
	if hook == nil {
		hook = DefaultErrorDroppedHook
	}
	globalOnErrorDropped.Store(hook)
}

// SetGlobalNextDroppedHook installs the process-wide fallback for dropped
// next-signals. Passing nil restores the default.
func SetGlobalNextDroppedHook(hook NextDroppedHook) {
	if hook == nil {
		hook = DefaultNextDroppedHook
	}
	globalOnNextDropped.Store(hook)
}

// ResetGlobalHooks restores every process-wide hook to its default
// (log-based) implementation. Intended for test teardown, matching the
// explicit-reset entry point recommended by spec §9 Design Notes.
func ResetGlobalHooks() {
	globalOnDiscard.Store(DiscardHook(DefaultDiscardHook))
	globalOnErrorDropped.Store(ErrorDroppedHook(DefaultErrorDroppedHook))
	globalOnNextDropped.Store(NextDroppedHook(DefaultNextDroppedHook))
}

// DefaultDiscardHook is the process-wide default: silent, matching the
// teacher's IgnoreOnDroppedNotification default (discarding is routine, not
// exceptional, so it is silent by default; install your own hook to audit
// it).
func DefaultDiscardHook(ctx Context, value any) {}

// DefaultErrorDroppedHook logs the dropped error, matching the teacher's
// DefaultOnUnhandledError (log.Printf, not silent — a dropped error is
// usually a bug).
func DefaultErrorDroppedHook(ctx Context, err error) {
	if err != nil {
		log.Printf("flux: error dropped: %s", err.Error())
	}
}

// DefaultNextDroppedHook logs the dropped value.
func DefaultNextDroppedHook(ctx Context, value any) {
	log.Printf("flux: next dropped: %v", value)
}

func lookupDiscard(ctx Context) DiscardHook {
	if v, ok := ctx.Value(keyOnDiscard); ok {
		if h, ok := v.(DiscardHook); ok {
			return h
		}
	}
	return globalOnDiscard.Load().(DiscardHook)
}

func lookupErrorDropped(ctx Context) ErrorDroppedHook {
	if v, ok := ctx.Value(keyOnErrorDropped); ok {
		if h, ok := v.(ErrorDroppedHook); ok {
			return h
		}
	}
	return globalOnErrorDropped.Load().(ErrorDroppedHook)
}

func lookupNextDropped(ctx Context) NextDroppedHook {
	if v, ok := ctx.Value(keyOnNextDropped); ok {
		if h, ok := v.(NextDroppedHook); ok {
			return h
		}
	}
	return globalOnNextDropped.Load().(NextDroppedHook)
}

// contextDebugString renders a Context for debugging; it never walks into hook values.
func contextDebugString(ctx Context) string {
	return fmt.Sprintf("Context(%p)", ctx)
}
