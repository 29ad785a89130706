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
	"github.com/cybergarage/go-baichuan/baichuan/crypto"
	"github.com/cybergarage/go-baichuan/baichuan/encoding/bcxml"
	"github.com/cybergarage/go-baichuan/baichuan/encoding/message"
	"github.com/cybergarage/go-baichuan/baichuan/types"
)

func TestLogin_Success(t *testing.T) {
	clientPipe, serverPipe := net.Pipe()
	t.Cleanup(func() {
		clientPipe.Close()
		serverPipe.Close()
	})

	creds := Credentials{Username: "admin", Password: "swordfish"}
	s := New(clientPipe, 0, creds, types.MaxEncryptionAES)
	t.Cleanup(func() { s.Close() })

	// The fake camera grants BCEncrypt (0xdd01 below), so its own context
	// uses that mode for the modern login exchange.
	serverCtx := message.NewContext("", types.EncryptionXOR)
	serverConn := connection.New(serverPipe, serverCtx)
	serverConn.Start()

	const nonce = "0123456789abcdef"

	loginCh := make(chan *message.Bc, 2)
	serverConn.Handle(types.MsgIDLogin, func(bc *message.Bc) { loginCh <- bc })

	go func() {
		legacyBc, err := recvWithin(loginCh, 2*time.Second)
		if err != nil {
			return
		}
		usernameHash, passwordHash, err := message.DecodeLegacyLoginBody(legacyBc.Payload)
		if err != nil {
			return
		}
		if usernameHash != crypto.LegacyUsernameHash(creds.Username) {
			t.Errorf("legacy username hash mismatch")
		}
		if passwordHash != crypto.LegacyPasswordHash(creds.Password) {
			t.Errorf("legacy password hash mismatch")
		}

		replyPayload, err := bcxml.Marshal(&bcxml.BcXml{Encryption: &bcxml.Encryption{Nonce: nonce}})
		if err != nil {
			return
		}
		replyHeader := message.NewHeader(
			message.WithHeaderMsgID(types.MsgIDLogin),
			message.WithHeaderMsgNum(legacyBc.Header.MsgNum()),
			message.WithHeaderResponseCode(0xdd01),
			message.WithHeaderClass(types.ClassLegacy),
			message.WithHeaderBodyLen(uint32(len(replyPayload))),
		)
		if err := serverConn.Send(message.NewBc(replyHeader, nil, replyPayload)); err != nil {
			return
		}

		modernBc, err := recvWithin(loginCh, 2*time.Second)
		if err != nil {
			return
		}
		parsed, err := bcxml.Unmarshal(modernBc.Payload)
		if err != nil || parsed.LoginUser == nil {
			return
		}
		wantUser := crypto.ModernCredentialHash(creds.Username + nonce)
		if parsed.LoginUser.UserName != wantUser {
			t.Errorf("modern username hash = %q, want %q", parsed.LoginUser.UserName, wantUser)
		}

		deviceReply, err := bcxml.Marshal(&bcxml.BcXml{DeviceInfo: &bcxml.DeviceInfo{
			SerialNumber: "ABC123",
		}})
		if err != nil {
			return
		}
		modernReplyHeader := message.NewHeader(
			message.WithHeaderMsgID(types.MsgIDLogin),
			message.WithHeaderMsgNum(modernBc.Header.MsgNum()),
			message.WithHeaderResponseCode(200),
			message.WithHeaderClass(types.ClassModernWithOffsetA),
			message.WithHeaderBodyLen(uint32(len(deviceReply))),
		)
		_ = serverConn.Send(message.NewBc(modernReplyHeader, nil, deviceReply))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	info, err := s.Login(ctx)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if info.SerialNumber != "ABC123" {
		t.Errorf("SerialNumber = %q, want ABC123", info.SerialNumber)
	}
	if !s.IsLoggedIn() {
		t.Error("IsLoggedIn() = false after successful Login")
	}
}

// recvWithin reads one value off ch, failing with a deadline error rather
// than hanging forever if the client side never sent the expected request.
func recvWithin(ch <-chan *message.Bc, d time.Duration) (*message.Bc, error) {
	select {
	case bc := <-ch:
		return bc, nil
	case <-time.After(d):
		return nil, context.DeadlineExceeded
	}
}
