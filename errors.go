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
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// ProtocolError reports a violation of the Reactive Streams contract: a
// non-positive request, a double onSubscribe, a nil element discovered in a
// mandatory slot. Spec §7.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string { return "flux: protocol violation: " + e.Message }

func newProtocolError(format string, args ...any) *ProtocolError {
	return &ProtocolError{Message: fmt.Sprintf(format, args...)}
}

// OverflowError reports demand that could not be honoured (spec §7 "a
// specialized subclass of fatal-not-fatal").
type OverflowError struct {
	Message string
}

func (e *OverflowError) Error() string { return "flux: overflow: " + e.Message }

func newOverflowError(format string, args ...any) *OverflowError {
	return &OverflowError{Message: fmt.Sprintf(format, args...)}
}

// OperatorError wraps a failure raised by a user-supplied function (mapper,
// predicate, callback). It carries the offending value, if any, purely for
// diagnostics; the value itself is always routed to the discard hook
// separately.
type OperatorError struct {
	Cause error
	Value any
	HasValue bool
}

func (e *OperatorError) Error() string {
	if e.HasValue {
		return fmt.Sprintf("flux: operator error processing %v: %s", e.Value, e.Cause.Error())
	}
	return fmt.Sprintf("flux: operator error: %s", e.Cause.Error())
}

func (e *OperatorError) Unwrap() error { return e.Cause }

// FatalError marks an exception class the spec requires to be rethrown
// rather than ever routed through onError: out-of-memory conditions,
// runtime/linkage failures, stack overflows. Go has no VM-level analogue of
// java.lang.Error, so this models the equivalent Go condition: a panic
// value that is not a plain error (or that wraps one of these), which by
// convention in this codebase marks an unrecoverable condition the caller
// chose to surface as a panic rather than an error return.
type FatalError struct {
	Cause any
}

func (e *FatalError) Error() string { return fmt.Sprintf("flux: fatal: %v", e.Cause) }

// IsFatal classifies err per spec §4.A / §7. Only a handful of well-known
// Go runtime conditions are fatal; everything else — including a plain
// recovered panic value wrapped as an error — is composable and may be
// routed through onError.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var fatal *FatalError
	return errors.As(err, &fatal)
}

// CombineErrors merges zero or more errors into one using multierr, the
// Go analogue of the spec's "suppressed-exception chain" (§7) — used when a
// cleanup publisher errors while the main sequence is also erroring
// (usingWhen), or when retry/buffer overflow needs to report more than one
// cause. Nil errors are dropped; CombineErrors(nil) is nil;
// CombineErrors(err) is err unchanged.
func CombineErrors(errs ...error) error {
	return multierr.Combine(errs...)
}

// recoverValueToError normalizes a recover() value into an error, mirroring
// the teacher's recoverValueToError used by observerImpl.tryNext/tryError/
// tryComplete in observer.go.
func recoverValueToError(v any) error {
	if v == nil {
		return nil
	}
	if err, ok := v.(error); ok {
		return err
	}
	return fmt.Errorf("%v", v)
}
