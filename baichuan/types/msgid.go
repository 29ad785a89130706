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

// Package types defines the small value types shared across the wire codecs:
// message IDs, channel/stream identifiers, and the negotiated encryption mode.
package types

import (
	"fmt"

	"github.com/cybergarage/go-safecast/safecast"
)

// MsgID identifies the kind of a BC message (the wire msg_id field).
type MsgID uint32

// Known message IDs. See §3 BcHeader.
const (
	MsgIDLogin          MsgID = 1
	MsgIDLogout         MsgID = 2
	MsgIDVideo          MsgID = 3
	MsgIDVideoStop      MsgID = 4
	MsgIDTalkAbility    MsgID = 10
	MsgIDTalkReset      MsgID = 11
	MsgIDPtzControl     MsgID = 18
	MsgIDReboot         MsgID = 23
	MsgIDMotionRequest  MsgID = 31
	MsgIDMotionEvent    MsgID = 33
	MsgIDVersion        MsgID = 80
	MsgIDPing           MsgID = 93
	MsgIDGetGeneral     MsgID = 104
	MsgIDSetGeneral     MsgID = 105
	MsgIDTalkConfig     MsgID = 201
	MsgIDTalk           MsgID = 202
	MsgIDGetLEDStatus   MsgID = 208
	MsgIDSetLEDStatus   MsgID = 209
	MsgIDGetPIRAlarm    MsgID = 212
	MsgIDSetPIRAlarm    MsgID = 213
	MsgIDUDPKeepAlive   MsgID = 234
	// Floodlight message IDs are not present in any retrieved capture; these
	// four are placeholders in the documented dedicated-id range until a
	// hardware trace confirms them (see DESIGN.md).
	MsgIDFloodlightStatusList MsgID = 288
	MsgIDFloodlightManual     MsgID = 289
	MsgIDFloodlightTasksRead  MsgID = 290
	MsgIDFloodlightTasksWrite MsgID = 291
)

// NewMsgIDFrom builds a MsgID from a loosely-typed source, e.g. a value
// retrieved from caller configuration rather than parsed off the wire.
func NewMsgIDFrom(v any) (MsgID, error) {
	var id uint32
	if err := safecast.ToUint32(v, &id); err != nil {
		return 0, err
	}
	return MsgID(id), nil
}

func (id MsgID) String() string {
	return fmt.Sprintf("MsgID(%d)", uint32(id))
}

// ChannelID identifies the camera channel a message or media frame belongs to
// (0 for single-channel cameras, >0 for NVR channels).
type ChannelID uint8

// NewChannelIDFrom builds a ChannelID from a loosely-typed source.
func NewChannelIDFrom(v any) (ChannelID, error) {
	var id uint8
	if err := safecast.ToUint8(v, &id); err != nil {
		return 0, err
	}
	return ChannelID(id), nil
}

// StreamType selects the main or sub (fluent) video stream.
type StreamType uint8

const (
	StreamMain StreamType = 0
	StreamSub  StreamType = 1
)

// TransactionID is the discovery "tid" that also seeds the discovery XOR key.
type TransactionID uint32
