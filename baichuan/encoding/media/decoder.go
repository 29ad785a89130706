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
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	baichuanerrors "github.com/cybergarage/go-baichuan/baichuan/errors"
	"github.com/cybergarage/go-logger/log"
)

const (
	magicInfoV1     uint32 = 0x31303031
	magicInfoV2     uint32 = 0x32303031
	magicIframeBase uint32 = 0x63643030
	magicIframeLast uint32 = 0x63643039
	magicPframeBase uint32 = 0x63643130
	magicPframeLast uint32 = 0x63643139
	magicAac        uint32 = 0x62773530
	magicAdpcm      uint32 = 0x62773130
	magicAdpcmData  uint16 = 0x0100

	infoHeaderSize = 32
	padSize        = 8
)

func padTo8(n uint32) uint32 {
	if rem := n % padSize; rem != 0 {
		return padSize - rem
	}
	return 0
}

func isKnownMagic(magic uint32) bool {
	switch {
	case magic == magicInfoV1, magic == magicInfoV2:
		return true
	case magic >= magicIframeBase && magic <= magicIframeLast:
		return true
	case magic >= magicPframeBase && magic <= magicPframeLast:
		return true
	case magic == magicAac, magic == magicAdpcm:
		return true
	default:
		return false
	}
}

// Decoder streams BcMedia frames out of an underlying byte stream, one frame
// per Next call, resynchronizing past any garbage the reassembled UDP
// transport may have introduced.
type Decoder struct {
	r         *bufio.Reader
	resyncing bool
}

// NewDecoder wraps r for frame-at-a-time BcMedia decoding.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next reads and returns the next BcMedia frame, skipping any leading bytes
// that do not match a known magic.
func (d *Decoder) Next() (*Media, error) {
	magic, err := d.syncMagic()
	if err != nil {
		return nil, err
	}

	switch {
	case magic == magicInfoV1:
		info, err := d.readInfo()
		if err != nil {
			return nil, err
		}
		return &Media{Kind: KindInfoV1, Info: info}, nil
	case magic == magicInfoV2:
		info, err := d.readInfo()
		if err != nil {
			return nil, err
		}
		return &Media{Kind: KindInfoV2, Info: info}, nil
	case magic >= magicIframeBase && magic <= magicIframeLast:
		f, err := d.readIframe(int(magic - magicIframeBase))
		if err != nil {
			return nil, err
		}
		return &Media{Kind: KindIframe, Iframe: f}, nil
	case magic >= magicPframeBase && magic <= magicPframeLast:
		f, err := d.readPframe(int(magic - magicPframeBase))
		if err != nil {
			return nil, err
		}
		return &Media{Kind: KindPframe, Pframe: f}, nil
	case magic == magicAac:
		f, err := d.readAac()
		if err != nil {
			return nil, err
		}
		return &Media{Kind: KindAac, Aac: f}, nil
	case magic == magicAdpcm:
		f, err := d.readAdpcm()
		if err != nil {
			return nil, err
		}
		return &Media{Kind: KindAdpcm, Adpcm: f}, nil
	default:
		// isKnownMagic already filtered this out in syncMagic.
		return nil, fmt.Errorf("%w: unreachable magic 0x%08X", baichuanerrors.ErrFraming, magic)
	}
}

// syncMagic peeks 4 bytes at a time, consuming and discarding one byte on a
// mismatch until a known magic is found at the stream's head.
func (d *Decoder) syncMagic() (uint32, error) {
	for {
		peek, err := d.r.Peek(4)
		if err != nil {
			return 0, err
		}
		magic := binary.LittleEndian.Uint32(peek)
		if isKnownMagic(magic) {
			if d.resyncing {
				log.Warnf("media: resynchronized after discarding garbage")
				d.resyncing = false
			}
			if _, err := d.r.Discard(4); err != nil {
				return 0, err
			}
			return magic, nil
		}
		if !d.resyncing {
			log.HexDebug(peek)
			d.resyncing = true
		}
		if _, err := d.r.Discard(1); err != nil {
			return 0, err
		}
	}
}

func (d *Decoder) readInfo() (*Info, error) {
	var buf [infoHeaderSize]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", baichuanerrors.ErrFraming, err)
	}
	headerSize := binary.LittleEndian.Uint32(buf[0:4])
	if headerSize != infoHeaderSize {
		return nil, fmt.Errorf("%w: info header_size %d, want %d", baichuanerrors.ErrFraming, headerSize, infoHeaderSize)
	}
	return &Info{
		Width: binary.LittleEndian.Uint32(buf[4:8]),
		Height: binary.LittleEndian.Uint32(buf[8:12]),
		FPS: buf[13],
		StartYear: buf[14], StartMonth: buf[15], StartDay: buf[16],
		StartHour: buf[17], StartMin: buf[18], StartSeconds: buf[19],
		EndYear: buf[20], EndMonth: buf[21], EndDay: buf[22],
		EndHour: buf[23], EndMin: buf[24], EndSeconds: buf[25],
	}, nil
}

func readVideoType(buf []byte) (VideoType, error) {
	switch string(buf) {
	case "H264":
		return VideoTypeH264, nil
	case "H265":
		return VideoTypeH265, nil
	default:
		return "", fmt.Errorf("%w: unrecognized video codec %q", baichuanerrors.ErrFraming, buf)
	}
}

func (d *Decoder) readIframe(channel int) (*Iframe, error) {
	var head [20]byte
	if _, err := io.ReadFull(d.r, head[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", baichuanerrors.ErrFraming, err)
	}
	videoType, err := readVideoType(head[0:4])
	if err != nil {
		return nil, err
	}
	payloadSize := binary.LittleEndian.Uint32(head[4:8])
	extraHeaderSize := binary.LittleEndian.Uint32(head[8:12])
	microseconds := binary.LittleEndian.Uint32(head[12:16])
	// head[16:20] is a reserved word the reference client never inspects.

	var timePtr *uint32
	if extraHeaderSize >= 4 {
		var timeBuf [4]byte
		if _, err := io.ReadFull(d.r, timeBuf[:]); err != nil {
			return nil, fmt.Errorf("%w: %w", baichuanerrors.ErrFraming, err)
		}
		t := binary.LittleEndian.Uint32(timeBuf[:])
		timePtr = &t
	}
	if extraHeaderSize > 4 {
		if _, err := d.r.Discard(int(extraHeaderSize - 4)); err != nil {
			return nil, fmt.Errorf("%w: %w", baichuanerrors.ErrFraming, err)
		}
	}

	data := make([]byte, payloadSize)
	if _, err := io.ReadFull(d.r, data); err != nil {
		return nil, fmt.Errorf("%w: %w", baichuanerrors.ErrFraming, err)
	}
	if pad := padTo8(payloadSize); pad > 0 {
		if _, err := d.r.Discard(int(pad)); err != nil {
			return nil, fmt.Errorf("%w: %w", baichuanerrors.ErrFraming, err)
		}
	}

	return &Iframe{
		Channel:      channel,
		VideoType:    videoType,
		Microseconds: microseconds,
		Time:         timePtr,
		Data:         data,
	}, nil
}

func (d *Decoder) readPframe(channel int) (*Pframe, error) {
	var head [20]byte
	if _, err := io.ReadFull(d.r, head[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", baichuanerrors.ErrFraming, err)
	}
	videoType, err := readVideoType(head[0:4])
	if err != nil {
		return nil, err
	}
	payloadSize := binary.LittleEndian.Uint32(head[4:8])
	additionalHeaderSize := binary.LittleEndian.Uint32(head[8:12])
	microseconds := binary.LittleEndian.Uint32(head[12:16])

	if additionalHeaderSize > 0 {
		if _, err := d.r.Discard(int(additionalHeaderSize)); err != nil {
			return nil, fmt.Errorf("%w: %w", baichuanerrors.ErrFraming, err)
		}
	}

	data := make([]byte, payloadSize)
	if _, err := io.ReadFull(d.r, data); err != nil {
		return nil, fmt.Errorf("%w: %w", baichuanerrors.ErrFraming, err)
	}
	if pad := padTo8(payloadSize); pad > 0 {
		if _, err := d.r.Discard(int(pad)); err != nil {
			return nil, fmt.Errorf("%w: %w", baichuanerrors.ErrFraming, err)
		}
	}

	return &Pframe{
		Channel:      channel,
		VideoType:    videoType,
		Microseconds: microseconds,
		Data:         data,
	}, nil
}

func (d *Decoder) readAac() (*Aac, error) {
	var sizes [4]byte
	if _, err := io.ReadFull(d.r, sizes[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", baichuanerrors.ErrFraming, err)
	}
	payloadSize := binary.LittleEndian.Uint16(sizes[0:2])
	payloadSizeB := binary.LittleEndian.Uint16(sizes[2:4])
	if payloadSize != payloadSizeB {
		return nil, fmt.Errorf("%w: AAC duplicated size mismatch %d != %d", baichuanerrors.ErrFraming, payloadSize, payloadSizeB)
	}

	data := make([]byte, payloadSize)
	if _, err := io.ReadFull(d.r, data); err != nil {
		return nil, fmt.Errorf("%w: %w", baichuanerrors.ErrFraming, err)
	}
	if pad := padTo8(uint32(payloadSize)); pad > 0 {
		if _, err := d.r.Discard(int(pad)); err != nil {
			return nil, fmt.Errorf("%w: %w", baichuanerrors.ErrFraming, err)
		}
	}
	return &Aac{Data: data}, nil
}

func (d *Decoder) readAdpcm() (*Adpcm, error) {
	const subHeaderSize = 4

	var head [8]byte
	if _, err := io.ReadFull(d.r, head[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", baichuanerrors.ErrFraming, err)
	}
	payloadSize := binary.LittleEndian.Uint16(head[0:2])
	payloadSizeB := binary.LittleEndian.Uint16(head[2:4])
	if payloadSize != payloadSizeB {
		return nil, fmt.Errorf("%w: ADPCM duplicated size mismatch %d != %d", baichuanerrors.ErrFraming, payloadSize, payloadSizeB)
	}
	innerMagic := binary.LittleEndian.Uint16(head[4:6])
	if innerMagic != magicAdpcmData {
		return nil, fmt.Errorf("%w: ADPCM inner magic 0x%04X, want 0x%04X", baichuanerrors.ErrFraming, innerMagic, magicAdpcmData)
	}
	// head[6:8] is half_block_size, whose semantics vary across firmwares;
	// block_size is derived from payload_size instead of trusted from this
	// field.

	if payloadSize < subHeaderSize {
		return nil, fmt.Errorf("%w: ADPCM payload_size %d smaller than sub-header", baichuanerrors.ErrFraming, payloadSize)
	}
	blockSize := payloadSize - subHeaderSize

	data := make([]byte, blockSize)
	if _, err := io.ReadFull(d.r, data); err != nil {
		return nil, fmt.Errorf("%w: %w", baichuanerrors.ErrFraming, err)
	}
	if pad := padTo8(uint32(payloadSize)); pad > 0 {
		if _, err := d.r.Discard(int(pad)); err != nil {
			return nil, fmt.Errorf("%w: %w", baichuanerrors.ErrFraming, err)
		}
	}
	return &Adpcm{Data: data}, nil
}
