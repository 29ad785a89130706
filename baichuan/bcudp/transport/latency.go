// Copyright (C) 2026 The go-baichuan Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package transport

import (
	"sync"
	"time"
)

// latencyMeter maintains a moving average of inter-ack receive intervals in
// microseconds, publishing (and resetting) the window once per second, the
// value advertised in the next outgoing Ack's maybe_latency field.
type latencyMeter struct {
	mu        sync.Mutex
	last      time.Time
	haveLast  bool
	sum       time.Duration
	samples   int
	published uint32
}

func newLatencyMeter() *latencyMeter {
	return &latencyMeter{}
}

// observe records one inbound Ack's arrival time.
func (m *latencyMeter) observe(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.haveLast {
		m.sum += now.Sub(m.last)
		m.samples++
	}
	m.last = now
	m.haveLast = true
}

// publish computes the mean of the current window in microseconds, resets
// the window, and returns the value to advertise until the next publish.
func (m *latencyMeter) publish() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.samples > 0 {
		m.published = uint32(m.sum.Microseconds() / int64(m.samples))
		m.sum = 0
		m.samples = 0
	}
	return m.published
}

// current returns the most recently published value without resetting.
func (m *latencyMeter) current() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.published
}
