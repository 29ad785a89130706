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

package message

import (
	"fmt"
	"io"

	"github.com/cybergarage/go-baichuan/baichuan/crypto"
	"github.com/cybergarage/go-baichuan/baichuan/encoding/bcxml"
	baichuanerrors "github.com/cybergarage/go-baichuan/baichuan/errors"
	"github.com/cybergarage/go-baichuan/baichuan/types"
	"github.com/cybergarage/go-logger/log"
)

// loginReplyModeByte extracts the low byte of response_code when the high
// byte carries the 0xdd login-reply marker, reporting ok=false otherwise.
func loginReplyModeByte(msgID types.MsgID, responseCode uint16) (types.EncryptionMode, bool) {
	if msgID != types.MsgIDLogin {
		return 0, false
	}
	if (responseCode >> 8) != 0xdd {
		return 0, false
	}
	return types.EncryptionMode(responseCode & 0xff), true
}

// Decode reads one BC message from reader, decrypting its extension and
// payload with ctx's currently negotiated cipher and mutating ctx in place:
// a login reply promotes the encryption mode, and an extension with
// binary_data=1 marks its msg_num as carrying binary payloads from here on.
func Decode(reader io.Reader, ctx *Context) (*Bc, error) {
	h, err := NewHeaderFromReader(reader)
	if err != nil {
		return nil, err
	}

	if h.BodyLen() > 64<<20 {
		return nil, fmt.Errorf("%w: body_len %d exceeds sane bound", baichuanerrors.ErrFraming, h.BodyLen())
	}

	body := make([]byte, h.BodyLen())
	if len(body) > 0 {
		if _, err := io.ReadFull(reader, body); err != nil {
			return nil, fmt.Errorf("%w: %w", baichuanerrors.ErrFraming, err)
		}
	}

	if mode, isLoginReply := loginReplyModeByte(h.MsgID(), h.ResponseCode()); isLoginReply {
		ctx.SetEncryptionMode(mode)
	}

	if h.Class() == types.ClassLegacy && h.MsgID() == types.MsgIDLogin {
		return &Bc{Header: h, Payload: body}, nil
	}

	var extBytes, payload []byte
	if offset, hasOffset := h.PayloadOffset(); hasOffset {
		if int(offset) > len(body) {
			return nil, fmt.Errorf("%w: payload_offset %d exceeds body_len %d", baichuanerrors.ErrFraming, offset, len(body))
		}
		extBytes = body[:offset]
		payload = body[offset:]
	} else {
		payload = body
	}

	cipher := crypto.NewCipher(ctx.EncryptionMode(), h.ChannelID(), ctx.Nonce(), ctx.Password())

	var ext *bcxml.Extension
	if len(extBytes) > 0 {
		decrypted := cipher.Decrypt(append([]byte(nil), extBytes...))
		parsed, err := bcxml.UnmarshalExtension(decrypted)
		if err != nil {
			log.HexWarn(decrypted)
			return nil, fmt.Errorf("%w: extension: %w", baichuanerrors.ErrCodec, err)
		}
		ext = parsed
		extBytes = decrypted
		if ext.IsBinaryData() {
			ctx.SetBinMode(h.MsgNum())
		}
	}

	if len(payload) > 0 {
		payload = cipher.Decrypt(append([]byte(nil), payload...))
	}

	return &Bc{Header: h, Extension: ext, ExtBytes: extBytes, Payload: payload}, nil
}

// Encode serializes b, encrypting its extension and payload with ctx's
// currently negotiated cipher. The header's body_len and, for classes that
// carry it, payload_offset are computed from the encrypted lengths.
func Encode(b *Bc, ctx *Context) ([]byte, error) {
	if b.Header.Class() == types.ClassLegacy && b.Header.MsgID() == types.MsgIDLogin {
		h := b.Header
		newHeader := NewHeader(
			WithHeaderMsgID(h.MsgID()),
			WithHeaderChannelID(h.ChannelID()),
			WithHeaderStreamType(h.StreamType()),
			WithHeaderMsgNum(h.MsgNum()),
			WithHeaderResponseCode(h.ResponseCode()),
			WithHeaderClass(h.Class()),
			WithHeaderBodyLen(uint32(len(b.Payload))),
		)
		return append(newHeader.Bytes(), b.Payload...), nil
	}

	cipher := crypto.NewCipher(ctx.EncryptionMode(), b.Header.ChannelID(), ctx.Nonce(), ctx.Password())

	var extEncoded []byte
	if b.Extension != nil {
		raw, err := bcxml.MarshalExtension(b.Extension)
		if err != nil {
			return nil, fmt.Errorf("%w: extension: %w", baichuanerrors.ErrCodec, err)
		}
		extEncoded = cipher.Encrypt(raw)
	}

	payloadEncoded := cipher.Encrypt(append([]byte(nil), b.Payload...))

	h := b.Header
	_, hasOffset := h.PayloadOffset()
	opts := []HeaderOption{
		WithHeaderMsgID(h.MsgID()),
		WithHeaderChannelID(h.ChannelID()),
		WithHeaderStreamType(h.StreamType()),
		WithHeaderMsgNum(h.MsgNum()),
		WithHeaderResponseCode(h.ResponseCode()),
		WithHeaderClass(h.Class()),
		WithHeaderBodyLen(uint32(len(extEncoded) + len(payloadEncoded))),
	}
	if hasOffset {
		opts = append(opts, WithHeaderPayloadOffset(uint32(len(extEncoded))))
	}
	newHeader := NewHeader(opts...)

	out := newHeader.Bytes()
	out = append(out, extEncoded...)
	out = append(out, payloadEncoded...)
	return out, nil
}
