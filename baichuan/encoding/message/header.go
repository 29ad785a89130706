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

// Package message implements the BC message codec: the 20/24-byte header,
// the optional extension XML, and the XML-or-binary payload that make up a
// single BC message on either the TCP control channel or reassembled UDP
// transport.
package message

import (
	"github.com/cybergarage/go-baichuan/baichuan/types"
)

// Header represents a BC message header.
type Header interface {
	// MsgID returns the message kind.
	MsgID() types.MsgID
	// BodyLen returns the combined length of the extension and payload.
	BodyLen() uint32
	// ChannelID returns the camera channel this message targets.
	ChannelID() types.ChannelID
	// StreamType returns the video stream selector; only meaningful for video messages.
	StreamType() types.StreamType
	// MsgNum returns the request/response correlator.
	MsgNum() uint16
	// ResponseCode returns the reply status, or the request's encryption preference sentinel.
	ResponseCode() uint16
	// Class returns the header class, which determines header size and payload_offset presence.
	Class() uint16
	// PayloadOffset returns the extension length and whether this class carries the field.
	PayloadOffset() (uint32, bool)
	// Bytes returns the encoded header.
	Bytes() []byte
	// String returns a human-readable representation for debugging.
	String() string
}
