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

package baichuan

import (
	"time"

	"github.com/cybergarage/go-baichuan/baichuan/types"
)

// Option configures a Camera at construction time, the same functional
// options shape as matter/encoding/message/header_impl.go's WithHeaderXxx
// family, adapted to connection-level parameters.
type Option func(*Camera)

// WithCredentials sets the account used for Login.
func WithCredentials(username, password string) Option {
	return func(c *Camera) {
		c.credentials.Username = username
		c.credentials.Password = password
	}
}

// WithAddress pins the camera to a known "host:port" TCP address, skipping
// UID-based discovery entirely.
func WithAddress(addr string) Option {
	return func(c *Camera) {
		c.address = addr
	}
}

// WithChannelID selects the NVR channel to address; 0 for single-channel cameras.
func WithChannelID(id types.ChannelID) Option {
	return func(c *Camera) {
		c.channelID = id
	}
}

// WithMaxEncryption sets the ceiling requested during login. Cameras may
// reply with a lower mode; Login records what was actually negotiated.
func WithMaxEncryption(m types.MaxEncryption) Option {
	return func(c *Camera) {
		c.maxEncryption = m
	}
}

// WithDiscoveryTimeout bounds how long UID-based discovery waits for a reply
// before trying the next strategy or giving up.
func WithDiscoveryTimeout(d time.Duration) Option {
	return func(c *Camera) {
		c.discoveryTimeout = d
	}
}
