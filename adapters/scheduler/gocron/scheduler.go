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

// Package gocron implements flux.Scheduler on top of go-co-op/gocron/v2,
// the external executor abstraction spec §6 has the core consume rather
// than own. This is the concrete collaborator the core's own
// goroutineScheduler default stands in for until a caller wires a real
// one in.
package gocron

import (
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/samber/flux"
)

// Scheduler adapts a gocron.Scheduler to flux.Scheduler. The underlying
// gocron.Scheduler is started lazily on the first Schedule* call and runs
// for the lifetime of this Scheduler; Dispose shuts it down.
type Scheduler struct {
	mu       sync.Mutex
	inner    gocron.Scheduler
	started  bool
	disposed bool
}

// New wraps a freshly-created gocron.Scheduler. It takes no options: the
// scheduler uses the zero-configuration default gocron itself uses.
func New() (*Scheduler, error) {
	inner, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Scheduler{inner: inner}, nil
}

func (s *Scheduler) ensureStarted() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return flux.ErrSchedulerDisposed
	}
	if !s.started {
		s.inner.Start()
		s.started = true
	}
	return nil
}

func (s *Scheduler) Now() time.Time { return time.Now() }

func (s *Scheduler) IsDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

func (s *Scheduler) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	inner := s.inner
	started := s.started
	s.mu.Unlock()

	if started {
		_ = inner.Shutdown()
	}
}

// Schedule runs task as soon as gocron can place it on its worker pool.
func (s *Scheduler) Schedule(task func()) (flux.Cancellable, error) {
	return s.ScheduleDelayed(task, 0)
}

// ScheduleDelayed runs task once, after delay, via a gocron one-time job.
func (s *Scheduler) ScheduleDelayed(task func(), delay time.Duration) (flux.Cancellable, error) {
	if err := s.ensureStarted(); err != nil {
		return nil, err
	}
	job, err := s.inner.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(time.Now().Add(delay))),
		gocron.NewTask(task),
	)
	if err != nil {
		return nil, err
	}
	return jobCancellable{scheduler: s.inner, id: job.ID()}, nil
}

// SchedulePeriodically runs task every period, first after initialDelay,
// via a gocron duration job.
func (s *Scheduler) SchedulePeriodically(task func(), initialDelay, period time.Duration) (flux.Cancellable, error) {
	if err := s.ensureStarted(); err != nil {
		return nil, err
	}
	job, err := s.inner.NewJob(
		gocron.DurationJob(period),
		gocron.NewTask(task),
		gocron.WithStartAt(gocron.WithStartDateTime(time.Now().Add(initialDelay))),
	)
	if err != nil {
		return nil, err
	}
	return jobCancellable{scheduler: s.inner, id: job.ID()}, nil
}

type jobCancellable struct {
	scheduler gocron.Scheduler
	id        gocron.JobID
}

func (c jobCancellable) Cancel() {
	_ = c.scheduler.RemoveJob(c.id)
}
