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

package zap

import (
	"testing"

	"github.com/samber/flux"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestListenerLogsLifecycle(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	core, logs := observer.New(zap.DebugLevel)
	listener := New[int](zap.New(core), "pipeline")

	values, err := collectIntFlux(flux.Observe[int](listener)(flux.Range(0, 2)))
	is.NoError(err)
	is.Equal([]int{0, 1}, values)

	messages := make([]string, 0, logs.Len())
	for _, entry := range logs.All() {
		messages = append(messages, entry.Message)
	}
	is.Contains(messages, "subscribing")
	is.Contains(messages, "subscribed")
	is.Contains(messages, "next")
	is.Contains(messages, "complete")
	is.Contains(messages, "finally")
}

type collectorState struct {
	values []int
	err    error
	done   chan struct{}
}

func collectIntFlux(f flux.Flux[int]) ([]int, error) {
	s := &collectorState{values: make([]int, 0), done: make(chan struct{})}
	f.Subscribe(collectorSubscriber{s: s})
	<-s.done
	return s.values, s.err
}

type collectorSubscriber struct {
	s *collectorState
}

func (c collectorSubscriber) OnSubscribe(sub flux.Subscription) { sub.Request(flux.Unbounded) }
func (c collectorSubscriber) OnNext(v int)                      { c.s.values = append(c.s.values, v) }
func (c collectorSubscriber) OnError(err error) {
	c.s.err = err
	close(c.s.done)
}
func (c collectorSubscriber) OnComplete() { close(c.s.done) }
