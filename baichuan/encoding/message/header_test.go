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
	"testing"

	"github.com/cybergarage/go-baichuan/baichuan/types"
)

func TestHeaderTooShort(t *testing.T) {
	shortData := []byte{0x00, 0x00, 0x00}
	_, err := NewHeaderFromBytes(shortData)
	if err == nil {
		t.Error("expected error for short header, got nil")
	}
}

func TestHeaderBadMagic(t *testing.T) {
	data := make([]byte, shortHeaderSize)
	data[0] = 0xFF
	_, err := NewHeaderFromBytes(data)
	if err == nil {
		t.Error("expected error for bad magic, got nil")
	}
}

func TestHeaderEncodeDecodeRoundtrip(t *testing.T) {
	tests := []struct {
		name   string
		header Header
	}{
		{
			name: "legacy login request",
			header: NewHeader(
				WithHeaderMsgID(types.MsgIDLogin),
				WithHeaderBodyLen(LegacyLoginBodySize),
				WithHeaderChannelID(0),
				WithHeaderClass(types.ClassLegacy),
				WithHeaderResponseCode(0xdc01),
			),
		},
		{
			name: "modern login reply",
			header: NewHeader(
				WithHeaderMsgID(types.MsgIDLogin),
				WithHeaderBodyLen(145),
				WithHeaderClass(types.ClassModernNoOffset),
				WithHeaderResponseCode(0xdd01),
			),
		},
		{
			name: "login failed with payload_offset",
			header: NewHeader(
				WithHeaderMsgID(types.MsgIDLogin),
				WithHeaderBodyLen(0),
				WithHeaderClass(types.ClassModernWithOffsetB),
				WithHeaderResponseCode(0x190),
				WithHeaderPayloadOffset(0),
			),
		},
		{
			name: "ping request",
			header: NewHeader(
				WithHeaderMsgID(types.MsgIDPing),
				WithHeaderMsgNum(7),
				WithHeaderClass(types.ClassModernNoOffset),
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := tt.header.Bytes()

			decoded, err := NewHeaderFromBytes(encoded)
			if err != nil {
				t.Fatalf("NewHeaderFromBytes failed: %v", err)
			}

			if decoded.MsgID() != tt.header.MsgID() {
				t.Errorf("MsgID mismatch: got %v, want %v", decoded.MsgID(), tt.header.MsgID())
			}
			if decoded.BodyLen() != tt.header.BodyLen() {
				t.Errorf("BodyLen mismatch: got %d, want %d", decoded.BodyLen(), tt.header.BodyLen())
			}
			if decoded.Class() != tt.header.Class() {
				t.Errorf("Class mismatch: got 0x%04X, want 0x%04X", decoded.Class(), tt.header.Class())
			}
			if decoded.ResponseCode() != tt.header.ResponseCode() {
				t.Errorf("ResponseCode mismatch: got 0x%04X, want 0x%04X", decoded.ResponseCode(), tt.header.ResponseCode())
			}
			gotOffset, gotHas := decoded.PayloadOffset()
			wantOffset, wantHas := tt.header.PayloadOffset()
			if gotHas != wantHas || (gotHas && gotOffset != wantOffset) {
				t.Errorf("PayloadOffset mismatch: got (%d,%v), want (%d,%v)", gotOffset, gotHas, wantOffset, wantHas)
			}
		})
	}
}

func TestHeaderSizeByClass(t *testing.T) {
	legacy := NewHeader(WithHeaderClass(types.ClassLegacy))
	if len(legacy.Bytes()) != shortHeaderSize {
		t.Errorf("legacy header size = %d, want %d", len(legacy.Bytes()), shortHeaderSize)
	}

	withOffset := NewHeader(WithHeaderClass(types.ClassModernWithOffsetA), WithHeaderPayloadOffset(10))
	if len(withOffset.Bytes()) != longHeaderSize {
		t.Errorf("offset-carrying header size = %d, want %d", len(withOffset.Bytes()), longHeaderSize)
	}
}
