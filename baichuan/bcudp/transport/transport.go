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
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/cybergarage/go-baichuan/baichuan/bcudp/encoding"
	baichuanerrors "github.com/cybergarage/go-baichuan/baichuan/errors"
	"github.com/cybergarage/go-logger/log"
)

// MTU is the observed vendor datagram size; per-packet payload is MTU minus
// the 20-byte BC-UDP Data header.
const MTU = 1350

const dataHeaderSize = 20

// Params tunes the reliability timers. DefaultParams matches the intervals
// observed across vendor firmwares (spec §4.5).
type Params struct {
	AckTick           time.Duration
	ResendTick        time.Duration
	HeartbeatTick     time.Duration
	InactivityTimeout time.Duration
	WriteTimeout      time.Duration
}

// DefaultParams returns the vendor-observed timer intervals.
func DefaultParams() Params {
	return Params{
		AckTick:           10 * time.Millisecond,
		ResendTick:        500 * time.Millisecond,
		HeartbeatTick:     1 * time.Second,
		InactivityTimeout: 10 * time.Second,
		WriteTimeout:      250 * time.Millisecond,
	}
}

// Conn is the subset of net.UDPConn that Transport needs, so tests can
// substitute an in-memory fake.
type Conn interface {
	ReadFromUDP(b []byte) (int, *net.UDPAddr, error)
	WriteToUDP(b []byte, addr *net.UDPAddr) (int, error)
	SetDeadline(t time.Time) error
	LocalAddr() net.Addr
	Close() error
}

// HeartbeatFunc builds the heartbeat discovery packet for the current
// session; its shape differs between a direct LAN session (C2D_HB) and a
// relayed one (C2R_HB), so the caller (baichuan.Camera, from the discovery
// result) supplies it.
type HeartbeatFunc func(tid uint32) ([]byte, error)

// Transport is one reliable ordered bytestream over a UDP flow: the
// per-direction segmentation, cumulative+selective ack, retransmit,
// heartbeat, and quick-reconnect machinery spec §4.5 describes, presented
// as an io.Reader/io.Writer so baichuan/encoding/message's frame reader runs
// over it unmodified.
type Transport struct {
	params Params

	mu       sync.Mutex
	conn     Conn
	peer     *net.UDPAddr
	closed   bool

	clientID uint32
	cameraID uint32

	send    *sendWindow
	recv    *recvWindow
	latency *latencyMeter
	state   stateBox

	heartbeat HeartbeatFunc
	tidSeq    uint32

	readBuf bytes.Buffer
	readMu  sync.Mutex
	readCh  chan []byte

	outCh chan []byte

	lastRecvAt   time.Time
	lastRecvMu   sync.Mutex
	droppedCh    chan struct{}
	droppedOnce  sync.Once

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Transport bound to conn, exchanging Data/Ack packets with
// peer under the given client/camera connection ids. Call Start to begin
// the RX/TX/ack/heartbeat/resend/inactivity tasks.
func New(conn Conn, peer *net.UDPAddr, clientID, cameraID uint32, hb HeartbeatFunc, params Params) *Transport {
	return &Transport{
		params:    params,
		conn:      conn,
		peer:      peer,
		clientID:  clientID,
		cameraID:  cameraID,
		send:      newSendWindow(),
		recv:      newRecvWindow(),
		latency:   newLatencyMeter(),
		heartbeat: hb,
		readCh:    make(chan []byte, 64),
		outCh:     make(chan []byte, 64),
		droppedCh: make(chan struct{}),
	}
}

// State returns the transport's current lifecycle stage.
func (t *Transport) State() State { return t.state.get() }

// Dropped returns a channel closed once the transport declares
// DroppedConnection (inactivity timeout, or a D2C_DISC from the camera). A
// failed quick-reconnect does not close it by itself.
func (t *Transport) Dropped() <-chan struct{} { return t.droppedCh }

// Start launches the six per-connection tasks described in spec §5 and
// transitions the state to Established. ctx governs the lifetime of every
// task; cancelling it (or calling Close) tears the transport down.
func (t *Transport) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.touchRecv()
	t.state.set(StateEstablished)

	t.wg.Add(6)
	go t.rxTask(ctx)
	go t.txTask(ctx)
	go t.ackTask(ctx)
	go t.heartbeatTask(ctx)
	go t.resendTask(ctx)
	go t.inactivityTask(ctx)
}

// Close cancels every task and closes the underlying socket. It sends no
// C2D_DISC; the transport sends one only in reply to a D2C_DISC from the
// camera.
func (t *Transport) Close() error {
	t.state.set(StateClosing)
	if t.cancel != nil {
		t.cancel()
	}
	t.wg.Wait()
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	t.state.set(StateClosed)
	return t.conn.Close()
}

// Write fragments p into MTU-sized Data packets, assigns them monotonically
// increasing packet_ids, and queues them for the TX task. It never blocks on
// the network, but it does block while outCh is full.
func (t *Transport) Write(p []byte) (int, error) {
	chunkSize := t.params.chunkSize()
	for off := 0; off < len(p); off += chunkSize {
		end := off + chunkSize
		if end > len(p) {
			end = len(p)
		}
		packetID := t.send.nextPacketID()
		wire := encoding.EncodeData(&encoding.Data{
			ConnectionID: t.cameraID,
			PacketID:     packetID,
			Payload:      p[off:end],
		})
		t.send.register(packetID, wire)
		select {
		case t.outCh <- wire:
		default:
			// outCh is a bounded queue; a full queue means the TX task is
			// behind, so wait for it to free a slot. The packet is already
			// registered, so the resend task also covers it until acked.
			t.outCh <- wire
		}
	}
	return len(p), nil
}

func (p Params) chunkSize() int { return MTU - dataHeaderSize }

// Read implements io.Reader over the reassembled, strictly-ordered
// bytestream, so baichuan/encoding/message.Decode can run over a Transport
// exactly as it would over a TCP connection.
func (t *Transport) Read(p []byte) (int, error) {
	t.readMu.Lock()
	defer t.readMu.Unlock()

	for t.readBuf.Len() == 0 {
		select {
		case chunk, ok := <-t.readCh:
			if !ok {
				return 0, fmt.Errorf("%w: transport closed", baichuanerrors.ErrTransport)
			}
			t.readBuf.Write(chunk)
		case <-t.droppedCh:
			return 0, fmt.Errorf("%w: dropped connection", baichuanerrors.ErrTransport)
		}
	}
	return t.readBuf.Read(p)
}

func (t *Transport) touchRecv() {
	t.lastRecvMu.Lock()
	t.lastRecvAt = time.Now()
	t.lastRecvMu.Unlock()
}

func (t *Transport) sinceLastRecv() time.Duration {
	t.lastRecvMu.Lock()
	defer t.lastRecvMu.Unlock()
	return time.Since(t.lastRecvAt)
}

func (t *Transport) declareDropped() {
	t.droppedOnce.Do(func() {
		t.state.set(StateClosing)
		close(t.droppedCh)
	})
}

func (t *Transport) peerAddr() *net.UDPAddr {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.peer
}

// rebind replaces the peer address (the socket is kept), preserving all
// packet_id counters so in-flight acks still resolve against the old
// sequence.
func (t *Transport) rebind(peer *net.UDPAddr) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.peer = peer
}

func (t *Transport) nextTid() uint32 {
	t.tidSeq++
	return t.tidSeq
}

// rxTask reads datagrams off the socket, decodes the BC-UDP envelope, and
// routes Data payloads into the reorder buffer (forwarded to Read via
// readCh) and Acks into the send window's bookkeeping.
func (t *Transport) rxTask(ctx context.Context) {
	defer t.wg.Done()
	buf := make([]byte, MTU)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_ = t.conn.SetDeadline(time.Now().Add(200 * time.Millisecond))
		n, _, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			log.Warnf("bcudp transport: socket read failed: %v", err)
			continue
		}

		t.touchRecv()
		pkt, err := encoding.DecodePacket(buf[:n])
		if err != nil {
			log.HexWarn(buf[:n])
			continue
		}

		switch pkt.Kind {
		case encoding.KindData:
			if pkt.Data.ConnectionID != t.clientID {
				continue
			}
			for _, payload := range t.recv.receive(pkt.Data.PacketID, pkt.Data.Payload) {
				select {
				case t.readCh <- payload:
				case <-ctx.Done():
					return
				}
			}
		case encoding.KindAck:
			if pkt.Ack.ConnectionID != t.clientID {
				continue
			}
			t.latency.observe(time.Now())
			t.send.acknowledgeCumulative(pkt.Ack.PacketID, true)
			t.send.acknowledgeSelective(pkt.Ack.PacketID, pkt.Ack.Bitmap)
		case encoding.KindDiscovery:
			if d := pkt.Discovery.Payload.D2cDisc; d != nil {
				t.handleDisconnect(ctx, d.Cid, d.Did)
				return
			}
			log.Debugf("bcudp transport: unexpected discovery packet on data channel")
		}
	}
}

// handleDisconnect replies once with C2D_DISC and tears the transport down,
// per spec §4.5's disconnect handshake.
func (t *Transport) handleDisconnect(ctx context.Context, cid, did int32) {
	wire, err := encoding.EncodeDiscovery(t.nextTid(), &encoding.UdpXml{
		C2dDisc: &encoding.C2dDisc{Cid: cid, Did: did},
	})
	if err == nil {
		_, _ = t.conn.WriteToUDP(wire, t.peerAddr())
	}
	t.declareDropped()
}

// txTask drains outCh (new Data packets, acks, heartbeats, resends) and
// writes them to the socket, guarding each write with WriteTimeout; a write
// that blocks past the timeout triggers quick-reconnect.
func (t *Transport) txTask(ctx context.Context) {
	defer t.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case wire := <-t.outCh:
			if err := t.writeOne(ctx, wire); err != nil {
				log.Warnf("bcudp transport: write failed, attempting quick-reconnect: %v", err)
				t.quickReconnect(ctx)
			}
		}
	}
}

func (t *Transport) writeOne(ctx context.Context, wire []byte) error {
	_ = t.conn.SetDeadline(time.Now().Add(t.params.WriteTimeout))
	_, err := t.conn.WriteToUDP(wire, t.peerAddr())
	return err
}

// quickReconnect rebinds to the same local port (the socket itself is
// reused; only the timeout triggered this path) and resends a heartbeat so
// the camera recognizes this as the same client, preserving packet_id
// counters so pending acks still resolve.
func (t *Transport) quickReconnect(ctx context.Context) {
	prev := t.state.get()
	t.state.set(StateQuickReconnecting)
	defer t.state.set(prev)

	if t.heartbeat == nil {
		return
	}
	wire, err := t.heartbeat(t.nextTid())
	if err != nil {
		log.Warnf("bcudp transport: quick-reconnect heartbeat build failed: %v", err)
		return
	}
	if err := t.writeOne(ctx, wire); err != nil {
		log.Warnf("bcudp transport: quick-reconnect heartbeat send failed: %v", err)
	}
}

// ackTask materializes the current cumulative+selective ack window every
// AckTick and enqueues it, carrying the latest published latency estimate.
func (t *Transport) ackTask(ctx context.Context) {
	defer t.wg.Done()
	ticker := time.NewTicker(t.params.AckTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			packetID, has, bitmap := t.recv.ackWindow()
			if !has {
				continue
			}
			wire := encoding.EncodeAck(&encoding.Ack{
				ConnectionID: t.cameraID,
				PacketID:     packetID,
				Latency:      t.latency.current(),
				Bitmap:       bitmap,
			})
			select {
			case t.outCh <- wire:
			case <-ctx.Done():
				return
			}
		}
	}
}

// heartbeatTask enqueues an HB discovery packet every HeartbeatTick and
// republishes the latency average once per second, matching the camera's
// expectation of a reply within 10s (spec §4.5).
func (t *Transport) heartbeatTask(ctx context.Context) {
	defer t.wg.Done()
	if t.heartbeat == nil {
		return
	}
	ticker := time.NewTicker(t.params.HeartbeatTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.latency.publish()
			wire, err := t.heartbeat(t.nextTid())
			if err != nil {
				log.Warnf("bcudp transport: heartbeat build failed: %v", err)
				continue
			}
			select {
			case t.outCh <- wire:
			case <-ctx.Done():
				return
			}
		}
	}
}

// resendTask re-enqueues every still-unacked Data packet every ResendTick.
func (t *Transport) resendTask(ctx context.Context) {
	defer t.wg.Done()
	ticker := time.NewTicker(t.params.ResendTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, wire := range t.send.pending() {
				select {
				case t.outCh <- wire:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// inactivityTask declares DroppedConnection once 10s pass with no received
// datagram of any kind.
func (t *Transport) inactivityTask(ctx context.Context) {
	defer t.wg.Done()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if t.sinceLastRecv() >= t.params.InactivityTimeout {
				log.Warnf("bcudp transport: no datagram received for %s, declaring dropped", t.params.InactivityTimeout)
				t.declareDropped()
				return
			}
		}
	}
}
