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
	"fmt"

	"github.com/cybergarage/go-baichuan/baichuan/crypto"
	"github.com/cybergarage/go-baichuan/baichuan/encoding/bcxml"
	"github.com/cybergarage/go-baichuan/baichuan/encoding/message"
	baichuanerrors "github.com/cybergarage/go-baichuan/baichuan/errors"
	"github.com/cybergarage/go-baichuan/baichuan/types"
)

// emptyLegacyPasswordHash is the fixed 32-byte all-zero field the camera
// expects in place of an MD5 hash when no password is configured.
const emptyLegacyPasswordHash = "\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00"

// Login runs the two-round handshake: a legacy login carrying MD5'd
// credentials and the client's requested encryption ceiling, followed
// (once the camera's nonce is known) by a modern login whose credentials are
// salted with that nonce. Returns the camera's DeviceInfo on success.
func (s *Session) Login(ctx context.Context) (*bcxml.DeviceInfo, error) {
	msgNum := s.conn.NextMsgNum()

	usernameHash := crypto.LegacyUsernameHash(s.credentials.Username)
	passwordHash := emptyLegacyPasswordHash
	if s.credentials.Password != "" {
		passwordHash = crypto.LegacyPasswordHash(s.credentials.Password)
	}
	legacyBody, err := message.EncodeLegacyLoginBody(usernameHash, passwordHash)
	if err != nil {
		return nil, err
	}

	legacyHeader := message.NewHeader(
		message.WithHeaderMsgID(types.MsgIDLogin),
		message.WithHeaderChannelID(s.channelID),
		message.WithHeaderMsgNum(msgNum),
		message.WithHeaderResponseCode(s.maxEnc.LegacyResponseCode()),
		message.WithHeaderClass(types.ClassLegacy),
		message.WithHeaderBodyLen(uint32(len(legacyBody))),
	)

	// The legacy login reply's response_code is not the 200/4xx family
	// every other exchange uses: its high byte is the 0xdd login-reply
	// marker and the low byte is the camera's selected encryption mode, so
	// this leg goes through RequestRaw rather than Request, which would
	// reject it as a non-200 service error.
	legacyReply, err := s.conn.RequestRaw(ctx, message.NewBc(legacyHeader, nil, legacyBody))
	if err != nil {
		return nil, fmt.Errorf("legacy login: %w", err)
	}
	if code := legacyReply.Header.ResponseCode(); code>>8 != 0xdd {
		return nil, baichuanerrors.NewCameraServiceUnavailable(code)
	}

	nonce, err := extractNonce(legacyReply)
	if err != nil {
		return nil, err
	}
	s.ctx.SetNonce(nonce)

	modernUsername := crypto.ModernCredentialHash(s.credentials.Username + nonce)
	modernPassword := crypto.ModernCredentialHash(s.credentials.Password + nonce)

	modernPayload, err := bcxml.Marshal(&bcxml.BcXml{
		LoginUser: &bcxml.LoginUser{
			UserName: modernUsername,
			Password: modernPassword,
			UserVer:  1,
		},
		LoginNet: &bcxml.LoginNet{Type: "LAN"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding modern login: %w", baichuanerrors.ErrCodec, err)
	}

	modernHeader := message.NewHeader(
		message.WithHeaderMsgID(types.MsgIDLogin),
		message.WithHeaderChannelID(s.channelID),
		message.WithHeaderMsgNum(msgNum),
		message.WithHeaderClass(types.ClassModernWithOffsetA),
		message.WithHeaderPayloadOffset(0),
	)

	modernReply, err := s.conn.Request(ctx, message.NewBc(modernHeader, nil, modernPayload))
	if err != nil {
		if baichuanerrors.Is(err, baichuanerrors.ErrProtocol) {
			return nil, fmt.Errorf("%w: camera rejected credentials", baichuanerrors.ErrAuthFailed)
		}
		return nil, err
	}

	if len(modernReply.Payload) == 0 {
		return nil, fmt.Errorf("%w: camera rejected credentials", baichuanerrors.ErrAuthFailed)
	}

	parsed, err := bcxml.Unmarshal(modernReply.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: login reply: %w", baichuanerrors.ErrCodec, err)
	}
	if parsed.DeviceInfo == nil {
		return nil, baichuanerrors.NewUnintelligibleReply(uint32(types.MsgIDLogin), "expected DeviceInfo in modern login reply")
	}

	s.loggedIn.Store(true)
	return parsed.DeviceInfo, nil
}

// Logout tells the camera the session is ending. Best-effort: failures are
// returned but the caller should close the underlying stream regardless.
func (s *Session) Logout(ctx context.Context) error {
	msgNum := s.conn.NextMsgNum()
	h := message.NewHeader(
		message.WithHeaderMsgID(types.MsgIDLogout),
		message.WithHeaderChannelID(s.channelID),
		message.WithHeaderMsgNum(msgNum),
		message.WithHeaderClass(types.ClassModernWithOffsetA),
	)
	_, err := s.conn.Request(ctx, message.NewBc(h, nil, nil))
	s.loggedIn.Store(false)
	return err
}

func extractNonce(reply *message.Bc) (string, error) {
	parsed, err := bcxml.Unmarshal(reply.Payload)
	if err != nil {
		return "", fmt.Errorf("%w: legacy login reply: %w", baichuanerrors.ErrCodec, err)
	}
	if parsed.Encryption == nil || parsed.Encryption.Nonce == "" {
		return "", baichuanerrors.NewUnintelligibleReply(uint32(types.MsgIDLogin), "expected Encryption/nonce in legacy login reply")
	}
	return parsed.Encryption.Nonce, nil
}
