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

// Package media implements the BcMedia container: the framing the camera
// uses for A/V payloads once a video stream's messages have been marked
// bin-mode by the message codec.
package media

import "fmt"

// Kind identifies which of the six BcMedia variants a Media value holds.
type Kind uint8

const (
	KindInfoV1 Kind = iota
	KindInfoV2
	KindIframe
	KindPframe
	KindAac
	KindAdpcm
)

func (k Kind) String() string {
	switch k {
	case KindInfoV1:
		return "InfoV1"
	case KindInfoV2:
		return "InfoV2"
	case KindIframe:
		return "Iframe"
	case KindPframe:
		return "Pframe"
	case KindAac:
		return "Aac"
	case KindAdpcm:
		return "Adpcm"
	default:
		return "Unknown"
	}
}

// VideoType is the codec a video frame is encoded with.
type VideoType string

const (
	VideoTypeH264 VideoType = "H264"
	VideoTypeH265 VideoType = "H265"
)

// Info is the stream description that opens a BcMedia stream (InfoV1/InfoV2).
type Info struct {
	Width, Height                                    uint32
	FPS                                               uint8
	StartYear, StartMonth, StartDay                   uint8
	StartHour, StartMin, StartSeconds                 uint8
	EndYear, EndMonth, EndDay                         uint8
	EndHour, EndMin, EndSeconds                       uint8
}

// Iframe is a key frame: self-sufficient, decodable without prior frames.
type Iframe struct {
	Channel      int
	VideoType    VideoType
	Microseconds uint32
	Time         *uint32 // POSIX seconds, present when extra_header_size >= 4
	Data         []byte
}

// Pframe is a delta frame that references the preceding I-frame on the same channel.
type Pframe struct {
	Channel      int
	VideoType    VideoType
	Microseconds uint32
	Data         []byte
}

// Aac is one AAC audio payload.
type Aac struct {
	Data []byte
}

// Adpcm is one ADPCM (DVI-4) audio payload: 4 bytes of predictor state
// followed by the sample nibbles.
type Adpcm struct {
	Data []byte
}

// Media is one decoded BcMedia frame.
type Media struct {
	Kind   Kind
	Info   *Info
	Iframe *Iframe
	Pframe *Pframe
	Aac    *Aac
	Adpcm  *Adpcm
}

func (m Media) String() string {
	switch m.Kind {
	case KindIframe:
		return fmt.Sprintf("Media{Iframe channel=%d type=%s us=%d bytes=%d}",
			m.Iframe.Channel, m.Iframe.VideoType, m.Iframe.Microseconds, len(m.Iframe.Data))
	case KindPframe:
		return fmt.Sprintf("Media{Pframe channel=%d type=%s us=%d bytes=%d}",
			m.Pframe.Channel, m.Pframe.VideoType, m.Pframe.Microseconds, len(m.Pframe.Data))
	case KindAac:
		return fmt.Sprintf("Media{Aac bytes=%d}", len(m.Aac.Data))
	case KindAdpcm:
		return fmt.Sprintf("Media{Adpcm bytes=%d}", len(m.Adpcm.Data))
	default:
		return fmt.Sprintf("Media{%s}", m.Kind)
	}
}
