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
	"encoding/binary"
	"fmt"

	baichuanerrors "github.com/cybergarage/go-baichuan/baichuan/errors"
)

// Encode serializes m to its BcMedia wire form. Frame channel numbers are
// always written as the base magic (channel 0); multi-channel NVR framing is
// not something this module originates.
func Encode(m *Media) ([]byte, error) {
	switch m.Kind {
	case KindInfoV1:
		return encodeInfo(magicInfoV1, m.Info), nil
	case KindInfoV2:
		return encodeInfo(magicInfoV2, m.Info), nil
	case KindIframe:
		return encodeIframe(m.Iframe), nil
	case KindPframe:
		return encodePframe(m.Pframe), nil
	case KindAac:
		return encodeAac(m.Aac), nil
	case KindAdpcm:
		return encodeAdpcm(m.Adpcm)
	default:
		return nil, fmt.Errorf("%w: unknown media kind %s", baichuanerrors.ErrCodec, m.Kind)
	}
}

func encodeInfo(magic uint32, info *Info) []byte {
	buf := make([]byte, 4+infoHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], magic)
	binary.LittleEndian.PutUint32(buf[4:8], infoHeaderSize)
	binary.LittleEndian.PutUint32(buf[8:12], info.Width)
	binary.LittleEndian.PutUint32(buf[12:16], info.Height)
	buf[17] = info.FPS
	buf[18], buf[19], buf[20] = info.StartYear, info.StartMonth, info.StartDay
	buf[21], buf[22], buf[23] = info.StartHour, info.StartMin, info.StartSeconds
	buf[24], buf[25], buf[26] = info.EndYear, info.EndMonth, info.EndDay
	buf[27], buf[28], buf[29] = info.EndHour, info.EndMin, info.EndSeconds
	return buf
}

func videoTypeBytes(vt VideoType) [4]byte {
	var b [4]byte
	copy(b[:], []byte(vt))
	return b
}

func encodeIframe(f *Iframe) []byte {
	extraHeaderSize := uint32(0)
	if f.Time != nil {
		extraHeaderSize = 4
	}

	headSize := 20 + int(extraHeaderSize)
	pad := padTo8(uint32(len(f.Data)))
	buf := make([]byte, 4+headSize+len(f.Data)+int(pad))

	binary.LittleEndian.PutUint32(buf[0:4], magicIframeBase)
	vt := videoTypeBytes(f.VideoType)
	copy(buf[4:8], vt[:])
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(f.Data)))
	binary.LittleEndian.PutUint32(buf[12:16], extraHeaderSize)
	binary.LittleEndian.PutUint32(buf[16:20], f.Microseconds)
	// buf[20:24] is the reserved word, left zero.

	offset := 24
	if f.Time != nil {
		binary.LittleEndian.PutUint32(buf[offset:offset+4], *f.Time)
		offset += 4
	}

	copy(buf[offset:], f.Data)
	return buf
}

func encodePframe(f *Pframe) []byte {
	pad := padTo8(uint32(len(f.Data)))
	buf := make([]byte, 4+20+len(f.Data)+int(pad))

	binary.LittleEndian.PutUint32(buf[0:4], magicPframeBase)
	vt := videoTypeBytes(f.VideoType)
	copy(buf[4:8], vt[:])
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(f.Data)))
	binary.LittleEndian.PutUint32(buf[12:16], 0) // additional_header_size
	binary.LittleEndian.PutUint32(buf[16:20], f.Microseconds)
	// buf[20:24] is the reserved word, left zero.

	copy(buf[24:], f.Data)
	return buf
}

func encodeAac(f *Aac) []byte {
	size := uint16(len(f.Data))
	pad := padTo8(uint32(size))
	buf := make([]byte, 8+len(f.Data)+int(pad))

	binary.LittleEndian.PutUint32(buf[0:4], magicAac)
	binary.LittleEndian.PutUint16(buf[4:6], size)
	binary.LittleEndian.PutUint16(buf[6:8], size)
	copy(buf[8:], f.Data)
	return buf
}

func encodeAdpcm(f *Adpcm) ([]byte, error) {
	const subHeaderSize = 4
	blockSize := len(f.Data)
	payloadSize := blockSize + subHeaderSize
	if payloadSize > 0xffff {
		return nil, fmt.Errorf("%w: ADPCM block too large (%d bytes)", baichuanerrors.ErrCodec, blockSize)
	}

	pad := padTo8(uint32(payloadSize))
	buf := make([]byte, 4+8+blockSize+int(pad))

	binary.LittleEndian.PutUint32(buf[0:4], magicAdpcm)
	binary.LittleEndian.PutUint16(buf[4:6], uint16(payloadSize))
	binary.LittleEndian.PutUint16(buf[6:8], uint16(payloadSize))
	binary.LittleEndian.PutUint16(buf[8:10], magicAdpcmData)
	// half_block_size: write (payload_len-4)/2 to match the majority of
	// observed firmwares; decoders must not rely on this value.
	binary.LittleEndian.PutUint16(buf[10:12], uint16(blockSize/2))
	copy(buf[12:], f.Data)
	return buf, nil
}
