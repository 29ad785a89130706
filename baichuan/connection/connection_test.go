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

package connection

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/cybergarage/go-baichuan/baichuan/encoding/message"
	"github.com/cybergarage/go-baichuan/baichuan/types"
)

func newTestPair(t *testing.T) (*Conn, *Conn) {
	t.Helper()
	clientPipe, serverPipe := net.Pipe()
	client := New(clientPipe, message.NewContext("", types.EncryptionNone))
	server := New(serverPipe, message.NewContext("", types.EncryptionNone))
	client.Start()
	server.Start()
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return client, server
}

func pingRequest(msgNum uint16) *message.Bc {
	h := message.NewHeader(
		message.WithHeaderMsgID(types.MsgIDPing),
		message.WithHeaderMsgNum(msgNum),
		message.WithHeaderClass(types.ClassModernNoOffset),
	)
	return message.NewBc(h, nil, nil)
}

func pingReply(msgNum uint16, responseCode uint16) *message.Bc {
	h := message.NewHeader(
		message.WithHeaderMsgID(types.MsgIDPing),
		message.WithHeaderMsgNum(msgNum),
		message.WithHeaderResponseCode(responseCode),
		message.WithHeaderClass(types.ClassModernNoOffset),
	)
	return message.NewBc(h, nil, nil)
}

func TestRequestReplyCorrelation(t *testing.T) {
	client, server := newTestPair(t)

	go func() {
		reply := pingReply(5, 200)
		_ = server.Send(reply)
	}()

	req := pingRequest(5)
	reply, err := client.Request(context.Background(), req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if reply.Header.MsgNum() != 5 {
		t.Errorf("MsgNum = %d, want 5", reply.Header.MsgNum())
	}
}

func TestRequestServiceUnavailable(t *testing.T) {
	client, server := newTestPair(t)

	go func() {
		_ = server.Send(pingReply(9, 400))
	}()

	req := pingRequest(9)
	_, err := client.Request(context.Background(), req)
	if err == nil {
		t.Fatalf("expected CameraServiceUnavailable, got nil")
	}
}

func TestRequestRawBypassesResponseCodeGate(t *testing.T) {
	client, server := newTestPair(t)

	go func() {
		// 0xdd01 is the legacy login reply's shape: an 0xdd-prefixed
		// response_code, never 200. Request would reject this as
		// CameraServiceUnavailable; RequestRaw must not.
		_ = server.Send(pingReply(11, 0xdd01))
	}()

	req := pingRequest(11)
	reply, err := client.RequestRaw(context.Background(), req)
	if err != nil {
		t.Fatalf("RequestRaw failed: %v", err)
	}
	if reply.Header.ResponseCode() != 0xdd01 {
		t.Errorf("ResponseCode = 0x%04X, want 0xDD01", reply.Header.ResponseCode())
	}
}

func TestBroadcastDispatch(t *testing.T) {
	client, server := newTestPair(t)

	received := make(chan *message.Bc, 1)
	client.Handle(types.MsgIDMotionEvent, func(bc *message.Bc) {
		received <- bc
	})

	h := message.NewHeader(
		message.WithHeaderMsgID(types.MsgIDMotionEvent),
		message.WithHeaderClass(types.ClassModernNoOffset),
	)
	if err := server.Send(message.NewBc(h, nil, nil)); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	select {
	case bc := <-received:
		if bc.Header.MsgID() != types.MsgIDMotionEvent {
			t.Errorf("MsgID = %v, want MsgIDMotionEvent", bc.Header.MsgID())
		}
	case <-time.After(time.Second):
		t.Fatal("broadcast handler was never invoked")
	}
}

func TestNextMsgNumIsMonotonic(t *testing.T) {
	client, _ := newTestPair(t)
	first := client.NextMsgNum()
	second := client.NextMsgNum()
	if second <= first {
		t.Errorf("NextMsgNum did not increase: %d then %d", first, second)
	}
}
