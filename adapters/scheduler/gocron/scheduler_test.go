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

package gocron

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/samber/flux"
	"github.com/stretchr/testify/assert"
)

func TestSchedulerScheduleDelayed(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	sched, err := New()
	is.NoError(err)
	defer sched.Dispose()

	var ran atomic.Bool
	done := make(chan struct{})
	_, err = sched.ScheduleDelayed(func() {
		ran.Store(true)
		close(done)
	}, 10*time.Millisecond)
	is.NoError(err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task never ran")
	}
	is.True(ran.Load())
}

func TestSchedulerCancelPreventsRun(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	sched, err := New()
	is.NoError(err)
	defer sched.Dispose()

	var ran atomic.Bool
	cancellable, err := sched.ScheduleDelayed(func() { ran.Store(true) }, 50*time.Millisecond)
	is.NoError(err)
	cancellable.Cancel()

	time.Sleep(100 * time.Millisecond)
	is.False(ran.Load())
}

func TestSchedulerDisposeRejectsFurtherWork(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	sched, err := New()
	is.NoError(err)

	sched.Dispose()
	is.True(sched.IsDisposed())

	_, err = sched.Schedule(func() {})
	is.ErrorIs(err, flux.ErrSchedulerDisposed)
}
