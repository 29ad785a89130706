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

package transport

import (
	"bytes"
	"testing"
)

func TestSendWindowNextPacketIDStartsAtZero(t *testing.T) {
	w := newSendWindow()
	if id := w.nextPacketID(); id != 0 {
		t.Fatalf("first packet id = %d, want 0", id)
	}
	if id := w.nextPacketID(); id != 1 {
		t.Fatalf("second packet id = %d, want 1", id)
	}
	if id := w.nextPacketID(); id != 2 {
		t.Fatalf("third packet id = %d, want 2", id)
	}
}

func TestSendWindowAcknowledgeCumulativeDropsUpToID(t *testing.T) {
	w := newSendWindow()
	for id := uint32(0); id < 5; id++ {
		w.register(id, []byte{byte(id)})
	}
	w.acknowledgeCumulative(2, true)

	pending := w.pending()
	if len(pending) != 2 {
		t.Fatalf("pending = %d entries, want 2 (ids 3, 4)", len(pending))
	}
	for _, id := range []uint32{3, 4} {
		if _, ok := pending[id]; !ok {
			t.Errorf("expected id %d to still be pending", id)
		}
	}
}

func TestSendWindowAcknowledgeCumulativeIgnoredWithoutHasUpTo(t *testing.T) {
	w := newSendWindow()
	w.register(0, []byte("a"))
	w.acknowledgeCumulative(0, false)
	if len(w.pending()) != 1 {
		t.Fatalf("register was dropped despite hasUpTo=false")
	}
}

func TestSendWindowAcknowledgeSelective(t *testing.T) {
	w := newSendWindow()
	for id := uint32(0); id < 5; id++ {
		w.register(id, []byte{byte(id)})
	}
	// base=0, bitmap reports ids 1..3: present, absent, present.
	w.acknowledgeSelective(0, []byte{1, 0, 1})

	pending := w.pending()
	for _, acked := range []uint32{1, 3} {
		if _, ok := pending[acked]; ok {
			t.Errorf("id %d should have been selectively acknowledged", acked)
		}
	}
	for _, stillPending := range []uint32{0, 2, 4} {
		if _, ok := pending[stillPending]; !ok {
			t.Errorf("id %d should still be pending", stillPending)
		}
	}
}

func TestRecvWindowDrainsInOrderDespiteShuffledArrival(t *testing.T) {
	w := newRecvWindow()
	payloads := map[uint32][]byte{
		0: []byte("a"),
		1: []byte("b"),
		2: []byte("c"),
		3: []byte("d"),
		4: []byte("e"),
	}

	// Deliver out of order: 2, 0, 4, 1, 3.
	arrival := []uint32{2, 0, 4, 1, 3}
	var drained [][]byte
	for _, id := range arrival {
		drained = append(drained, w.receive(id, payloads[id])...)
	}

	if len(drained) != 5 {
		t.Fatalf("drained %d payloads, want 5", len(drained))
	}
	for i, got := range drained {
		want := payloads[uint32(i)]
		if !bytes.Equal(got, want) {
			t.Errorf("drained[%d] = %q, want %q", i, got, want)
		}
	}
}

func TestRecvWindowWithholdsPayloadsUntilGapFills(t *testing.T) {
	w := newRecvWindow()

	// id 1 arrives before id 0: nothing should drain yet.
	if out := w.receive(1, []byte("b")); out != nil {
		t.Fatalf("receive(1) drained %v before id 0 arrived", out)
	}
	// id 2 arrives next: still gated on the missing id 0.
	if out := w.receive(2, []byte("c")); out != nil {
		t.Fatalf("receive(2) drained %v before id 0 arrived", out)
	}
	// id 0 finally arrives: 0, 1, 2 should all drain together, in order.
	out := w.receive(0, []byte("a"))
	if len(out) != 3 {
		t.Fatalf("drained %d payloads once gap filled, want 3", len(out))
	}
	want := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	for i := range want {
		if !bytes.Equal(out[i], want[i]) {
			t.Errorf("drained[%d] = %q, want %q", i, out[i], want[i])
		}
	}
}

func TestRecvWindowDuplicatePacketIsIgnored(t *testing.T) {
	w := newRecvWindow()
	if out := w.receive(0, []byte("a")); len(out) != 1 {
		t.Fatalf("first receive(0) drained %d payloads, want 1", len(out))
	}
	// Re-delivering id 0 (already consumed) must not re-drain or panic.
	if out := w.receive(0, []byte("a-retransmit")); out != nil {
		t.Fatalf("duplicate receive(0) drained %v, want nil", out)
	}
}

func TestAckWindowReportsCumulativeAndSelectiveBits(t *testing.T) {
	w := newRecvWindow()

	// Nothing consumed yet: no ack to send.
	if _, has, _ := w.ackWindow(); has {
		t.Fatalf("ackWindow reported hasPacketID=true before anything was consumed")
	}

	// Consume id 0 in order, then receive id 2 and id 4 out of order
	// (id 1 and id 3 still missing).
	w.receive(0, []byte("a"))
	w.receive(2, []byte("c"))
	w.receive(4, []byte("e"))

	packetID, has, bitmap := w.ackWindow()
	if !has {
		t.Fatalf("ackWindow reported hasPacketID=false after consuming id 0")
	}
	if packetID != 0 {
		t.Fatalf("packetID = %d, want 0 (last contiguous consumed id)", packetID)
	}
	want := []byte{0, 1, 0, 1} // ids 1 (absent), 2 (present), 3 (absent), 4 (present)
	if !bytes.Equal(bitmap, want) {
		t.Fatalf("bitmap = %v, want %v", bitmap, want)
	}
}
