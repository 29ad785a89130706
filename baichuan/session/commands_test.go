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

package session

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/cybergarage/go-baichuan/baichuan/connection"
	"github.com/cybergarage/go-baichuan/baichuan/encoding/bcxml"
	"github.com/cybergarage/go-baichuan/baichuan/encoding/message"
	"github.com/cybergarage/go-baichuan/baichuan/types"
)

// newLoggedInPair builds a client Session without running the login
// handshake (loggedIn stays false; the command methods do not check it)
// paired with a server Conn that stands in for the camera, using the same
// BCEncrypt mode the client starts in. Tests register the server's replies
// with serveOnce.
func newLoggedInPair(t *testing.T) (*Session, *connection.Conn) {
	t.Helper()
	clientPipe, serverPipe := net.Pipe()
	t.Cleanup(func() {
		clientPipe.Close()
		serverPipe.Close()
	})

	s := New(clientPipe, 0, Credentials{Username: "admin"}, types.MaxEncryptionAES)
	t.Cleanup(func() { s.Close() })

	serverConn := connection.New(serverPipe, message.NewContext("", types.EncryptionXOR))
	serverConn.Start()
	return s, serverConn
}

func serveOnce(conn *connection.Conn, msgID types.MsgID, respond func(req *message.Bc) *message.Bc) {
	conn.Handle(msgID, func(req *message.Bc) {
		reply := respond(req)
		_ = conn.Send(reply)
	})
}

func TestPing(t *testing.T) {
	s, server := newLoggedInPair(t)
	serveOnce(server, types.MsgIDPing, func(req *message.Bc) *message.Bc {
		h := message.NewHeader(
			message.WithHeaderMsgID(types.MsgIDPing),
			message.WithHeaderMsgNum(req.Header.MsgNum()),
			message.WithHeaderResponseCode(200),
			message.WithHeaderClass(types.ClassModernWithOffsetA),
		)
		return message.NewBc(h, nil, nil)
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestGetLED(t *testing.T) {
	s, server := newLoggedInPair(t)
	serveOnce(server, types.MsgIDGetLEDStatus, func(req *message.Bc) *message.Bc {
		payload, err := bcxml.Marshal(&bcxml.BcXml{LedState: &bcxml.LedState{State: "open"}})
		if err != nil {
			t.Fatalf("marshal reply: %v", err)
		}
		h := message.NewHeader(
			message.WithHeaderMsgID(types.MsgIDGetLEDStatus),
			message.WithHeaderMsgNum(req.Header.MsgNum()),
			message.WithHeaderResponseCode(200),
			message.WithHeaderClass(types.ClassModernWithOffsetA),
			message.WithHeaderBodyLen(uint32(len(payload))),
		)
		return message.NewBc(h, nil, payload)
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	led, err := s.GetLED(ctx)
	if err != nil {
		t.Fatalf("GetLED failed: %v", err)
	}
	if led.State != "open" {
		t.Errorf("State = %q, want open", led.State)
	}
}

func TestPtzControl_ServiceUnavailable(t *testing.T) {
	s, server := newLoggedInPair(t)
	serveOnce(server, types.MsgIDPtzControl, func(req *message.Bc) *message.Bc {
		h := message.NewHeader(
			message.WithHeaderMsgID(types.MsgIDPtzControl),
			message.WithHeaderMsgNum(req.Header.MsgNum()),
			message.WithHeaderResponseCode(400),
			message.WithHeaderClass(types.ClassModernWithOffsetA),
		)
		return message.NewBc(h, nil, nil)
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := s.PtzControl(ctx, &bcxml.PtzControl{Command: "Up"})
	if err == nil {
		t.Fatal("expected CameraServiceUnavailable, got nil")
	}
}
