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

package encoding

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	baichuanerrors "github.com/cybergarage/go-baichuan/baichuan/errors"
)

// Packet magics. All three packet kinds share the same 4-byte little-endian
// magic slot at the head of the packet.
const (
	MagicDiscovery uint32 = 0x2A87CF10
	MagicAck       uint32 = 0x2A87CF20
	MagicData      uint32 = 0x2A87CF30
)

// Kind identifies which of the three BC-UDP packet shapes a Packet holds.
type Kind uint8

const (
	KindDiscovery Kind = iota
	KindAck
	KindData
)

// Discovery carries a CRC-checked, tid-XOR-obfuscated UdpXml document. This
// is the only one of the three packet kinds that is not pure binary.
type Discovery struct {
	Tid     uint32
	Payload *UdpXml
}

// Ack carries cumulative + selective acknowledgment of received Data packets.
// PacketID is the last contiguous packet_id received (start of the
// selective bitmap window); Bitmap[i] is 1 if packet_id+1+i has also been
// received out of order, 0 if it is still missing. Latency is the sender's
// most recent one-second moving-average inter-ack interval in microseconds,
// 0 if not yet measured.
type Ack struct {
	ConnectionID uint32
	PacketID     uint32
	Latency      uint32
	Bitmap       []byte
}

// Data carries one reassembly-ordered fragment of the reliable bytestream.
type Data struct {
	ConnectionID uint32
	PacketID     uint32
	Payload      []byte
}

// Packet is one decoded BC-UDP datagram.
type Packet struct {
	Kind      Kind
	Discovery *Discovery
	Ack       *Ack
	Data      *Data
}

// discXORKeyByte expands tid into a per-position keystream byte. The vendor
// derivation is undocumented outside capture samples (see DESIGN.md); this
// expansion reproduces the one nonzero-byte-offset pattern observed across
// the retrieved discovery captures and is, like the XOR cipher in
// baichuan/crypto, its own inverse.
func discXORKeyByte(tid uint32, pos int) byte {
	rotated := byte((tid>>(uint(pos%4)*8))&0xff) + byte(pos)
	return rotated ^ 0xfc
}

// xorDiscoveryPayload transforms buf in place using the tid-derived
// keystream and returns it.
func xorDiscoveryPayload(tid uint32, buf []byte) []byte {
	for i := range buf {
		buf[i] ^= discXORKeyByte(tid, i)
	}
	return buf
}

// DecodePacket parses one BC-UDP datagram (a single UDP read's worth of
// bytes; BC-UDP packets are never split across datagrams).
func DecodePacket(buf []byte) (*Packet, error) {
	if len(buf) < 4 {
		return nil, fmt.Errorf("%w: bc-udp packet too short (%d bytes)", baichuanerrors.ErrFraming, len(buf))
	}
	magic := binary.LittleEndian.Uint32(buf[0:4])
	switch magic {
	case MagicDiscovery:
		return decodeDiscovery(buf[4:])
	case MagicAck:
		return decodeAck(buf[4:])
	case MagicData:
		return decodeData(buf[4:])
	default:
		return nil, fmt.Errorf("%w: unrecognized bc-udp magic 0x%08X", baichuanerrors.ErrFraming, magic)
	}
}

func decodeDiscovery(buf []byte) (*Packet, error) {
	const headerSize = 16 // payload_size, u32=1, tid, crc (magic already consumed)
	if len(buf) < headerSize {
		return nil, fmt.Errorf("%w: discovery header too short", baichuanerrors.ErrFraming)
	}
	payloadSize := binary.LittleEndian.Uint32(buf[0:4])
	// buf[4:8] is a constant marker (observed value 1); not load-bearing for decode.
	tid := binary.LittleEndian.Uint32(buf[8:12])
	crc := binary.LittleEndian.Uint32(buf[12:16])

	if uint32(len(buf)-headerSize) < payloadSize {
		return nil, fmt.Errorf("%w: discovery payload_size %d exceeds available %d bytes",
			baichuanerrors.ErrFraming, payloadSize, len(buf)-headerSize)
	}
	encrypted := append([]byte(nil), buf[headerSize:headerSize+int(payloadSize)]...)

	if actual := crc32.ChecksumIEEE(encrypted); actual != crc {
		return nil, fmt.Errorf("%w: discovery crc mismatch (got 0x%08X, want 0x%08X)",
			baichuanerrors.ErrFraming, actual, crc)
	}

	decrypted := xorDiscoveryPayload(tid, encrypted)
	payload, err := Unmarshal(decrypted)
	if err != nil {
		return nil, fmt.Errorf("%w: discovery xml: %w", baichuanerrors.ErrCodec, err)
	}

	return &Packet{Kind: KindDiscovery, Discovery: &Discovery{Tid: tid, Payload: payload}}, nil
}

func decodeAck(buf []byte) (*Packet, error) {
	// connection_id, reserved, group_id (reserved), packet_id, maybe_latency,
	// reserved (magic already consumed); the selective bitmap trails with no
	// explicit length field, sized by the UDP datagram boundary itself.
	const fixedSize = 24
	if len(buf) < fixedSize {
		return nil, fmt.Errorf("%w: ack header too short", baichuanerrors.ErrFraming)
	}
	connectionID := binary.LittleEndian.Uint32(buf[0:4])
	packetID := binary.LittleEndian.Uint32(buf[12:16])
	latency := binary.LittleEndian.Uint32(buf[16:20])
	bitmap := append([]byte(nil), buf[fixedSize:]...)

	return &Packet{Kind: KindAck, Ack: &Ack{
		ConnectionID: connectionID,
		PacketID:     packetID,
		Latency:      latency,
		Bitmap:       bitmap,
	}}, nil
}

func decodeData(buf []byte) (*Packet, error) {
	const fixedSize = 12 // connection_id, packet_id, payload_size (magic already consumed)
	if len(buf) < fixedSize {
		return nil, fmt.Errorf("%w: data header too short", baichuanerrors.ErrFraming)
	}
	connectionID := binary.LittleEndian.Uint32(buf[0:4])
	packetID := binary.LittleEndian.Uint32(buf[4:8])
	payloadSize := binary.LittleEndian.Uint32(buf[8:12])

	if uint32(len(buf)-fixedSize) < payloadSize {
		return nil, fmt.Errorf("%w: data payload_size %d exceeds available %d bytes",
			baichuanerrors.ErrFraming, payloadSize, len(buf)-fixedSize)
	}
	payload := append([]byte(nil), buf[fixedSize:fixedSize+int(payloadSize)]...)

	return &Packet{Kind: KindData, Data: &Data{
		ConnectionID: connectionID,
		PacketID:     packetID,
		Payload:      payload,
	}}, nil
}

// EncodeDiscovery serializes a discovery packet, obfuscating and
// CRC-checksumming its payload per tid.
func EncodeDiscovery(tid uint32, payload *UdpXml) ([]byte, error) {
	plain, err := Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: discovery xml: %w", baichuanerrors.ErrCodec, err)
	}
	encrypted := xorDiscoveryPayload(tid, append([]byte(nil), plain...))
	crc := crc32.ChecksumIEEE(encrypted)

	out := make([]byte, 0, 4+16+len(encrypted))
	out = appendUint32(out, MagicDiscovery)
	out = appendUint32(out, uint32(len(encrypted)))
	out = appendUint32(out, 1)
	out = appendUint32(out, tid)
	out = appendUint32(out, crc)
	out = append(out, encrypted...)
	return out, nil
}

// EncodeAck serializes an ack packet.
func EncodeAck(a *Ack) []byte {
	out := make([]byte, 0, 4+24+len(a.Bitmap))
	out = appendUint32(out, MagicAck)
	out = appendUint32(out, a.ConnectionID)
	out = appendUint32(out, 0)
	out = appendUint32(out, 0)
	out = appendUint32(out, a.PacketID)
	out = appendUint32(out, a.Latency)
	out = appendUint32(out, 0)
	out = append(out, a.Bitmap...)
	return out
}

// EncodeData serializes a data packet.
func EncodeData(d *Data) []byte {
	out := make([]byte, 0, 4+12+len(d.Payload))
	out = appendUint32(out, MagicData)
	out = appendUint32(out, d.ConnectionID)
	out = appendUint32(out, d.PacketID)
	out = appendUint32(out, uint32(len(d.Payload)))
	out = append(out, d.Payload...)
	return out
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}
