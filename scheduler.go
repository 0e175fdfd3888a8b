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
	"time"
)

// ErrSchedulerDisposed is the RejectedExecutionException equivalent spec §6
// names: returned by Schedule* when called on a disposed Scheduler. The
// calling operator must surface it as a downstream OnError.
var ErrSchedulerDisposed = errors.New("flux: scheduler is disposed")

// Cancellable is returned by every Scheduler scheduling method; it is the
// "cancel-handle" spec §6 names.
type Cancellable interface {
	Cancel()
}

// Scheduler is the executor abstraction this package consumes but never
// implements (spec §1 "Out of scope: Scheduler/threadpool implementations
// ... The core consumes an executor abstraction"). interval, timeout, and
// any operator that needs to delay or repeat work takes a Scheduler. See
// adapters/scheduler/gocron for a concrete implementation.
type Scheduler interface {
	// Schedule runs task as soon as possible.
	Schedule(task func()) (Cancellable, error)
	// ScheduleDelayed runs task once, after delay.
	ScheduleDelayed(task func(), delay time.Duration) (Cancellable, error)
	// SchedulePeriodically runs task repeatedly, first after initialDelay
	// and then every period, until cancelled.
	SchedulePeriodically(task func(), initialDelay, period time.Duration) (Cancellable, error)
	// Now returns the scheduler's current time, letting virtual-time
	// schedulers (a test concern explicitly out of scope for this
	// package, spec §1) substitute their own clock.
	Now() time.Time
	// Dispose releases any resources the scheduler owns. After Dispose,
	// every Schedule* call must return ErrSchedulerDisposed.
	Dispose()
	// IsDisposed reports whether Dispose has been called.
	IsDisposed() bool
}

// goroutineScheduler is the package's zero-configuration default: good
// enough for tests and simple programs, backed by time.AfterFunc /
// time.Ticker. Production users are expected to bring their own Scheduler
// (see adapters/scheduler/gocron) the same way the spec treats scheduling
// as an external collaborator.
type goroutineScheduler struct {
	disposed chan struct{}
}

// NewGoroutineScheduler returns the package's minimal default Scheduler.
func NewGoroutineScheduler() Scheduler {
	return &goroutineScheduler{disposed: make(chan struct{})}
}

func (s *goroutineScheduler) Now() time.Time { return time.Now() }

func (s *goroutineScheduler) IsDisposed() bool {
	select {
	case <-s.disposed:
		return true
	default:
		return false
	}
}

func (s *goroutineScheduler) Dispose() {
	select {
	case <-s.disposed:
	default:
		close(s.disposed)
	}
}

func (s *goroutineScheduler) Schedule(task func()) (Cancellable, error) {
	return s.ScheduleDelayed(task, 0)
}

func (s *goroutineScheduler) ScheduleDelayed(task func(), delay time.Duration) (Cancellable, error) {
	if s.IsDisposed() {
		return nil, ErrSchedulerDisposed
	}
	timer := time.AfterFunc(delay, func() {
		select {
		case <-s.disposed:
			return
		default:
		}
		task()
	})
	return timerCancellable{timer}, nil
}

func (s *goroutineScheduler) SchedulePeriodically(task func(), initialDelay, period time.Duration) (Cancellable, error) {
	if s.IsDisposed() {
		return nil, ErrSchedulerDisposed
	}
	stop := make(chan struct{})
	go func() {
		if initialDelay > 0 {
			select {
			case <-time.After(initialDelay):
			case <-stop:
				return
			case <-s.disposed:
				return
			}
		}
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				task()
			case <-stop:
				return
			case <-s.disposed:
				return
			}
		}
	}()
	return stopCancellable{stop}, nil
}

type timerCancellable struct{ timer *time.Timer }

func (t timerCancellable) Cancel() { t.timer.Stop() }

type stopCancellable struct{ ch chan struct{} }

func (c stopCancellable) Cancel() {
	select {
	case <-c.ch:
	default:
		close(c.ch)
	}
}
