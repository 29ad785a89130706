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

package media

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeRoundtrip(t *testing.T) {
	posixTime := uint32(1628085232)

	// wantLen is magic + header + payload + pad, where pad brings the
	// payload (not the whole frame) up to a multiple of 8.
	tests := []struct {
		name    string
		media   *Media
		wantLen int
	}{
		{
			name:    "InfoV1",
			media:   &Media{Kind: KindInfoV1, Info: &Info{Width: 2560, Height: 1440, FPS: 25}},
			wantLen: 4 + 32,
		},
		{
			name: "Iframe with time",
			media: &Media{Kind: KindIframe, Iframe: &Iframe{
				Channel: 0, VideoType: VideoTypeH264, Microseconds: 3557705112,
				Time: &posixTime, Data: bytes.Repeat([]byte{0x11, 0x22, 0x33}, 64003),
			}},
			wantLen: 4 + 24 + 192009 + 7,
		},
		{
			name: "Pframe",
			media: &Media{Kind: KindPframe, Pframe: &Pframe{
				Channel: 2, VideoType: VideoTypeH264, Microseconds: 3557767112,
				Data: bytes.Repeat([]byte{0xAB}, 45108),
			}},
			wantLen: 4 + 20 + 45108 + 4,
		},
		{
			name:    "Aac",
			media:   &Media{Kind: KindAac, Aac: &Aac{Data: bytes.Repeat([]byte{0x01}, 97)}},
			wantLen: 4 + 4 + 97 + 7,
		},
		{
			name:    "Adpcm",
			media:   &Media{Kind: KindAdpcm, Adpcm: &Adpcm{Data: bytes.Repeat([]byte{0x02}, 36)}},
			wantLen: 4 + 4 + 4 + 36 + 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wire, err := Encode(tt.media)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if len(wire) != tt.wantLen {
				t.Errorf("encoded frame length = %d, want %d", len(wire), tt.wantLen)
			}

			dec := NewDecoder(bytes.NewReader(wire))
			got, err := dec.Next()
			if err != nil {
				t.Fatalf("Next failed: %v", err)
			}
			if got.Kind != tt.media.Kind {
				t.Errorf("Kind = %s, want %s", got.Kind, tt.media.Kind)
			}

			switch tt.media.Kind {
			case KindIframe:
				if !bytes.Equal(got.Iframe.Data, tt.media.Iframe.Data) {
					t.Errorf("Iframe data mismatch: got %d bytes, want %d", len(got.Iframe.Data), len(tt.media.Iframe.Data))
				}
				if got.Iframe.Time == nil || *got.Iframe.Time != posixTime {
					t.Errorf("Iframe time = %v, want %d", got.Iframe.Time, posixTime)
				}
			case KindPframe:
				if !bytes.Equal(got.Pframe.Data, tt.media.Pframe.Data) {
					t.Errorf("Pframe data mismatch")
				}
			case KindAac:
				if !bytes.Equal(got.Aac.Data, tt.media.Aac.Data) {
					t.Errorf("Aac data mismatch")
				}
			case KindAdpcm:
				if !bytes.Equal(got.Adpcm.Data, tt.media.Adpcm.Data) {
					t.Errorf("Adpcm data mismatch")
				}
			}
		})
	}
}

func TestResynchronization(t *testing.T) {
	valid, err := Encode(&Media{Kind: KindAac, Aac: &Aac{Data: []byte{0xDE, 0xAD, 0xBE, 0xEF}}})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	garbage := bytes.Repeat([]byte{0xFF, 0x00, 0x13, 0x37}, 50)
	stream := append(append([]byte{}, garbage...), valid...)

	dec := NewDecoder(bytes.NewReader(stream))
	got, err := dec.Next()
	if err != nil {
		t.Fatalf("Next failed to resynchronize: %v", err)
	}
	if got.Kind != KindAac || !bytes.Equal(got.Aac.Data, []byte{0xDE, 0xAD, 0xBE, 0xEF}) {
		t.Errorf("resynchronized frame mismatch: %+v", got)
	}
}

func TestPaddingAccountsForFullFrameSize(t *testing.T) {
	wire, err := Encode(&Media{Kind: KindAac, Aac: &Aac{Data: []byte{1, 2, 3}}}) // payload_size=3, pad to 8-3=5
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	// 4 magic + 2 size + 2 size + 3 data + 5 pad = 16
	if len(wire) != 16 {
		t.Errorf("encoded AAC frame length = %d, want 16", len(wire))
	}

	dec := NewDecoder(bytes.NewReader(wire))
	_, err = dec.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
}

func TestAdpcmInnerMagicRequired(t *testing.T) {
	buf := make([]byte, 4+8)
	// magic
	buf[0], buf[1], buf[2], buf[3] = 0x30, 0x31, 0x77, 0x62
	// payload_size = 4 (duplicated), wrong inner magic
	buf[4], buf[5] = 0x04, 0x00
	buf[6], buf[7] = 0x04, 0x00
	buf[8], buf[9] = 0xFF, 0xFF

	dec := NewDecoder(bytes.NewReader(buf))
	if _, err := dec.Next(); err == nil {
		t.Error("expected error for bad ADPCM inner magic, got nil")
	}
}
