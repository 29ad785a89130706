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

import "sync/atomic"

// State is the lifecycle stage of a Transport. Only Established carries
// user data; the others describe setup, a transient recovery detour, and
// teardown.
type State uint32

const (
	StateDiscovering State = iota
	StateNegotiating
	StateEstablished
	StateQuickReconnecting
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDiscovering:
		return "discovering"
	case StateNegotiating:
		return "negotiating"
	case StateEstablished:
		return "established"
	case StateQuickReconnecting:
		return "quick-reconnecting"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// stateBox is an atomically-updated State, read by any task without locking.
type stateBox struct {
	v atomic.Uint32
}

func (b *stateBox) set(s State)  { b.v.Store(uint32(s)) }
func (b *stateBox) get() State   { return State(b.v.Load()) }
