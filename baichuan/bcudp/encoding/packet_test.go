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

import "testing"

func TestDiscoveryRoundtrip(t *testing.T) {
	payload := &UdpXml{C2dDisc: &C2dDisc{Cid: 82000, Did: 80}}
	wire, err := EncodeDiscovery(96, payload)
	if err != nil {
		t.Fatalf("EncodeDiscovery failed: %v", err)
	}

	pkt, err := DecodePacket(wire)
	if err != nil {
		t.Fatalf("DecodePacket failed: %v", err)
	}
	if pkt.Kind != KindDiscovery {
		t.Fatalf("Kind = %v, want KindDiscovery", pkt.Kind)
	}
	if pkt.Discovery.Tid != 96 {
		t.Errorf("Tid = %d, want 96", pkt.Discovery.Tid)
	}
	if pkt.Discovery.Payload.C2dDisc == nil {
		t.Fatalf("expected C2dDisc element, got %+v", pkt.Discovery.Payload)
	}
	if pkt.Discovery.Payload.C2dDisc.Cid != 82000 || pkt.Discovery.Payload.C2dDisc.Did != 80 {
		t.Errorf("C2dDisc = %+v, want {Cid:82000 Did:80}", pkt.Discovery.Payload.C2dDisc)
	}
}

func TestDiscoveryBadCRC(t *testing.T) {
	payload := &UdpXml{C2dHb: &C2dHb{Cid: 1, Did: 2}}
	wire, err := EncodeDiscovery(42, payload)
	if err != nil {
		t.Fatalf("EncodeDiscovery failed: %v", err)
	}
	wire[len(wire)-1] ^= 0xff // corrupt last payload byte without touching the CRC word
	if _, err := DecodePacket(wire); err == nil {
		t.Fatalf("expected CRC mismatch error, got nil")
	}
}

func TestAckRoundtrip(t *testing.T) {
	a := &Ack{ConnectionID: 80, PacketID: 2439, Latency: 15000, Bitmap: []byte{1, 0, 1, 1}}
	wire := EncodeAck(a)

	pkt, err := DecodePacket(wire)
	if err != nil {
		t.Fatalf("DecodePacket failed: %v", err)
	}
	if pkt.Kind != KindAck {
		t.Fatalf("Kind = %v, want KindAck", pkt.Kind)
	}
	if pkt.Ack.ConnectionID != 80 || pkt.Ack.PacketID != 2439 || pkt.Ack.Latency != 15000 {
		t.Errorf("Ack = %+v, want {ConnectionID:80 PacketID:2439 Latency:15000}", pkt.Ack)
	}
	if len(pkt.Ack.Bitmap) != 4 || pkt.Ack.Bitmap[2] != 1 {
		t.Errorf("Bitmap = %v, want [1 0 1 1]", pkt.Ack.Bitmap)
	}
}

func TestDataRoundtrip(t *testing.T) {
	d := &Data{ConnectionID: 82000, PacketID: 2439, Payload: make([]byte, 1176)}
	for i := range d.Payload {
		d.Payload[i] = byte(i)
	}
	wire := EncodeData(d)

	pkt, err := DecodePacket(wire)
	if err != nil {
		t.Fatalf("DecodePacket failed: %v", err)
	}
	if pkt.Kind != KindData {
		t.Fatalf("Kind = %v, want KindData", pkt.Kind)
	}
	if pkt.Data.ConnectionID != 82000 || pkt.Data.PacketID != 2439 {
		t.Errorf("Data = %+v, want {ConnectionID:82000 PacketID:2439}", pkt.Data)
	}
	if len(pkt.Data.Payload) != 1176 {
		t.Errorf("Payload length = %d, want 1176", len(pkt.Data.Payload))
	}
}

func TestUnrecognizedMagic(t *testing.T) {
	if _, err := DecodePacket([]byte{0, 0, 0, 0}); err == nil {
		t.Fatalf("expected error for unrecognized magic, got nil")
	}
}

// TestRelayElementsRoundtrip exercises the C2R_C revision field and the
// R2C_C_R/D2C_CFM elements a relayed (non-punchthrough) discovery session
// negotiates, which the plain punchthrough path never populates.
func TestRelayElementsRoundtrip(t *testing.T) {
	revision := int32(3)
	payload := &UdpXml{
		C2rC: &C2rC{
			UID:      "ABCDEF0123456789ABCDEF0",
			Cli:      IpPort{IP: "10.0.0.5", Port: 54321},
			Cid:      555,
			Family:   4,
			OS:       "MAC",
			Revision: &revision,
		},
	}
	wire, err := EncodeDiscovery(7, payload)
	if err != nil {
		t.Fatalf("EncodeDiscovery failed: %v", err)
	}
	pkt, err := DecodePacket(wire)
	if err != nil {
		t.Fatalf("DecodePacket failed: %v", err)
	}
	got := pkt.Discovery.Payload.C2rC
	if got == nil || got.Revision == nil || *got.Revision != 3 {
		t.Fatalf("C2rC.Revision = %+v, want pointer to 3", got)
	}
	if got.UID != payload.C2rC.UID || got.Cid != 555 {
		t.Errorf("C2rC = %+v, want matching UID/Cid", got)
	}

	r2ccr := &UdpXml{R2cCr: &R2cCr{
		Dev:   &IpPort{IP: "203.0.113.9", Port: 9000},
		Relay: &IpPort{IP: "203.0.113.10", Port: 9001},
		Nat:   "symmetric",
		Sid:   4242,
		Rsp:   0,
	}}
	wire, err = EncodeDiscovery(8, r2ccr)
	if err != nil {
		t.Fatalf("EncodeDiscovery(R2cCr) failed: %v", err)
	}
	pkt, err = DecodePacket(wire)
	if err != nil {
		t.Fatalf("DecodePacket(R2cCr) failed: %v", err)
	}
	if pkt.Discovery.Payload.R2cCr == nil || pkt.Discovery.Payload.R2cCr.Sid != 4242 {
		t.Fatalf("R2cCr = %+v, want Sid:4242", pkt.Discovery.Payload.R2cCr)
	}

	cfm := &UdpXml{D2cCfm: &D2cCfm{Sid: 4242, Conn: "relay", Cid: 555, Did: 77}}
	wire, err = EncodeDiscovery(9, cfm)
	if err != nil {
		t.Fatalf("EncodeDiscovery(D2cCfm) failed: %v", err)
	}
	pkt, err = DecodePacket(wire)
	if err != nil {
		t.Fatalf("DecodePacket(D2cCfm) failed: %v", err)
	}
	d := pkt.Discovery.Payload.D2cCfm
	if d == nil || d.Conn != "relay" || d.Cid != 555 || d.Did != 77 {
		t.Errorf("D2cCfm = %+v, want {Conn:relay Cid:555 Did:77}", d)
	}
}
