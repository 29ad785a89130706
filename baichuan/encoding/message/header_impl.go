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
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"

	baichuanerrors "github.com/cybergarage/go-baichuan/baichuan/errors"
	"github.com/cybergarage/go-baichuan/baichuan/types"
)

const (
	shortHeaderSize = 20
	longHeaderSize  = 24
)

type header struct {
	msgID         types.MsgID
	bodyLen       uint32
	channelID     types.ChannelID
	streamType    types.StreamType
	msgNum        uint16
	responseCode  uint16
	class         uint16
	payloadOffset uint32
	hasOffset     bool
}

// HeaderOption configures a Header instance.
type HeaderOption func(*header)

// WithHeaderMsgID sets the message ID.
func WithHeaderMsgID(id types.MsgID) HeaderOption {
	return func(h *header) { h.msgID = id }
}

// WithHeaderBodyLen sets the body length.
func WithHeaderBodyLen(n uint32) HeaderOption {
	return func(h *header) { h.bodyLen = n }
}

// WithHeaderChannelID sets the channel ID.
func WithHeaderChannelID(id types.ChannelID) HeaderOption {
	return func(h *header) { h.channelID = id }
}

// WithHeaderStreamType sets the stream type.
func WithHeaderStreamType(st types.StreamType) HeaderOption {
	return func(h *header) { h.streamType = st }
}

// WithHeaderMsgNum sets the request/response correlator.
func WithHeaderMsgNum(n uint16) HeaderOption {
	return func(h *header) { h.msgNum = n }
}

// WithHeaderResponseCode sets the response code.
func WithHeaderResponseCode(code uint16) HeaderOption {
	return func(h *header) { h.responseCode = code }
}

// WithHeaderClass sets the header class.
func WithHeaderClass(class uint16) HeaderOption {
	return func(h *header) {
		h.class = class
		h.hasOffset = types.HasPayloadOffset(class)
	}
}

// WithHeaderPayloadOffset sets the payload_offset field explicitly.
func WithHeaderPayloadOffset(offset uint32) HeaderOption {
	return func(h *header) {
		h.payloadOffset = offset
		h.hasOffset = true
	}
}

// NewHeader creates a new Header instance with the provided options.
func NewHeader(opts ...HeaderOption) Header {
	h := &header{
		class: types.ClassModernNoOffset,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewHeaderFromBytes reads a header from the provided byte slice.
func NewHeaderFromBytes(data []byte) (Header, error) {
	return NewHeaderFromReader(bytes.NewReader(data))
}

// NewHeaderFromReader reads a header from an io.Reader, consuming the 20-byte
// fixed portion and, when the class requires it, the trailing 4-byte
// payload_offset word.
func NewHeaderFromReader(reader io.Reader) (Header, error) {
	var buf [shortHeaderSize]byte
	if _, err := io.ReadFull(reader, buf[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", baichuanerrors.ErrFraming, err)
	}

	magic := binary.LittleEndian.Uint32(buf[0:4])
	if magic != types.WireMagic {
		return nil, fmt.Errorf("%w: bad magic 0x%08X", baichuanerrors.ErrFraming, magic)
	}

	h := &header{
		msgID:        types.MsgID(binary.LittleEndian.Uint32(buf[4:8])),
		bodyLen:      binary.LittleEndian.Uint32(buf[8:12]),
		channelID:    types.ChannelID(buf[12]),
		streamType:   types.StreamType(buf[13]),
		msgNum:       binary.LittleEndian.Uint16(buf[14:16]),
		responseCode: binary.LittleEndian.Uint16(buf[16:18]),
		class:        binary.LittleEndian.Uint16(buf[18:20]),
	}

	if types.HasPayloadOffset(h.class) {
		var offBuf [4]byte
		if _, err := io.ReadFull(reader, offBuf[:]); err != nil {
			return nil, fmt.Errorf("%w: %w", baichuanerrors.ErrFraming, err)
		}
		h.payloadOffset = binary.LittleEndian.Uint32(offBuf[:])
		h.hasOffset = true
	}

	return h, nil
}

func (h *header) MsgID() types.MsgID             { return h.msgID }
func (h *header) BodyLen() uint32                { return h.bodyLen }
func (h *header) ChannelID() types.ChannelID     { return h.channelID }
func (h *header) StreamType() types.StreamType   { return h.streamType }
func (h *header) MsgNum() uint16                 { return h.msgNum }
func (h *header) ResponseCode() uint16           { return h.responseCode }
func (h *header) Class() uint16                  { return h.class }

func (h *header) PayloadOffset() (uint32, bool) {
	return h.payloadOffset, h.hasOffset
}

func (h *header) Bytes() []byte {
	size := shortHeaderSize
	if h.hasOffset {
		size = longHeaderSize
	}

	buf := make([]byte, size)
	binary.LittleEndian.PutUint32(buf[0:4], types.WireMagic)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(h.msgID))
	binary.LittleEndian.PutUint32(buf[8:12], h.bodyLen)
	buf[12] = byte(h.channelID)
	buf[13] = byte(h.streamType)
	binary.LittleEndian.PutUint16(buf[14:16], h.msgNum)
	binary.LittleEndian.PutUint16(buf[16:18], h.responseCode)
	binary.LittleEndian.PutUint16(buf[18:20], h.class)

	if h.hasOffset {
		binary.LittleEndian.PutUint32(buf[20:24], h.payloadOffset)
	}

	return buf
}

func (h *header) String() string {
	encoded := h.Bytes()
	return fmt.Sprintf(
		"BcHeader{MsgID=%s, BodyLen=%d, Channel=%d, Stream=%d, MsgNum=%d, ResponseCode=0x%04X, Class=0x%04X, PayloadOffset=%v} [%d bytes: %s]",
		h.msgID, h.bodyLen, h.channelID, h.streamType, h.msgNum, h.responseCode, h.class, h.payloadOffset,
		len(encoded), hex.EncodeToString(encoded))
}
