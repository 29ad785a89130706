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

// Package session implements CameraSession: the legacy-then-modern login
// handshake and the full command surface (video, talk, LED, PIR, PTZ,
// floodlight, reboot) layered as thin request/reply wrappers over one
// baichuan/connection.Conn.
package session

import (
	"sync/atomic"

	"github.com/cybergarage/go-baichuan/baichuan/connection"
	"github.com/cybergarage/go-baichuan/baichuan/encoding/message"
	"github.com/cybergarage/go-baichuan/baichuan/types"
)

// Credentials identifies a camera account.
type Credentials struct {
	Username string
	Password string
}

// Session is a camera control channel: Login must succeed before any other
// method is called, matching the reference client's requirement that login
// precede all other commands.
type Session struct {
	conn        *connection.Conn
	ctx         *message.Context
	credentials Credentials
	channelID   types.ChannelID
	maxEnc      types.MaxEncryption
	loggedIn    atomic.Bool
}

// New wraps stream in a Session ready for Login. maxEncryption is the
// ceiling requested in the legacy login message's response_code; the camera
// may report back a lower mode, which Login records. stream may be a raw
// net.Conn (TCP control channel) or a baichuan/bcudp/transport.Transport
// (UDP reliable stream) — both satisfy connection.Stream.
func New(stream connection.Stream, channelID types.ChannelID, creds Credentials, maxEncryption types.MaxEncryption) *Session {
	ctx := message.NewContext(creds.Password, types.EncryptionXOR)
	conn := connection.New(stream, ctx)
	conn.Start()
	return &Session{
		conn:        conn,
		ctx:         ctx,
		credentials: creds,
		channelID:   channelID,
		maxEnc:      maxEncryption,
	}
}

// Close tears down the underlying connection.
func (s *Session) Close() error {
	return s.conn.Close()
}

// IsLoggedIn reports whether Login has completed successfully.
func (s *Session) IsLoggedIn() bool {
	return s.loggedIn.Load()
}

// Handle registers handler for unsolicited messages of the given MsgID,
// exposed so callers can wire SubscribeMotion (and similar) without the
// session package needing a dedicated method per broadcast kind.
func (s *Session) Handle(id types.MsgID, handler connection.BroadcastHandler) {
	s.conn.Handle(id, handler)
}
