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

// Package zap implements flux.Listener on top of go.uber.org/zap, one of
// the structured-logging backends spec §6's Observation listener external
// interface is meant to back onto.
package zap

import (
	"fmt"

	"github.com/samber/flux"
	"go.uber.org/zap"
)

// Listener logs every subscription lifecycle hook through a *zap.Logger, at
// Debug level except DoOnError, which logs at Error level. It implements flux.Listener[T] for any T whose
// values are safe to pass to zap.Any.
type Listener[T any] struct {
	log  *zap.Logger
	name string
}

// New returns a Listener that logs under the given logical name, letting
// one process distinguish which pipeline a given line came from when
// several are instrumented at once.
func New[T any](log *zap.Logger, name string) *Listener[T] {
	return &Listener[T]{log: log.With(zap.String("flux.pipeline", name)), name: name}
}

func (l *Listener[T]) DoFirst() {
	l.log.Debug("subscribing")
}

func (l *Listener[T]) DoOnSubscribe(sub flux.Subscription) {
	l.log.Debug("subscribed")
}

func (l *Listener[T]) DoOnNext(value T) {
	l.log.Debug("next", zap.Any("value", value))
}

func (l *Listener[T]) DoOnError(err error) {
	l.log.Error("error", zap.Error(err))
}

func (l *Listener[T]) DoOnComplete() {
	l.log.Debug("complete")
}

func (l *Listener[T]) DoOnCancel() {
	l.log.Debug("cancel")
}

func (l *Listener[T]) DoOnRequest(n int64) {
	l.log.Debug("request", zap.Int64("n", n))
}

func (l *Listener[T]) DoFinally(signal flux.SignalKind) {
	l.log.Debug("finally", zap.String("signal", signalString(signal)))
}

func signalString(signal flux.SignalKind) string {
	switch signal {
	case flux.SignalComplete:
		return "complete"
	case flux.SignalError:
		return "error"
	case flux.SignalCancel:
		return "cancel"
	default:
		return fmt.Sprintf("unknown(%d)", signal)
	}
}
