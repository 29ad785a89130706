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

// Package connection implements BcConnection: the message-number
// multiplexer that sits above either a raw TCP socket or a
// baichuan/bcudp/transport.Transport and turns a shared byte stream into
// independent request/reply exchanges plus unsolicited broadcast dispatch.
package connection

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	baichuanerrors "github.com/cybergarage/go-baichuan/baichuan/errors"
	"github.com/cybergarage/go-baichuan/baichuan/types"

	"github.com/cybergarage/go-baichuan/baichuan/encoding/message"
	"github.com/cybergarage/go-logger/log"
)

// Stream is the minimal surface Conn needs from its underlying carrier: a
// net.Conn (TCP) and a bcudp/transport.Transport both satisfy it already.
type Stream interface {
	io.Reader
	io.Writer
}

// BroadcastHandler receives unsolicited messages that arrive with no
// matching Request waiter, keyed by MsgID (motion events, floodlight
// status pushes, and the like).
type BroadcastHandler func(*message.Bc)

// Conn multiplexes one BC message stream: Request correlates by msg_num,
// and any message that does not match a pending Request is routed to a
// registered BroadcastHandler for its MsgID, mirroring matter/transport.Codec's
// split between request/reply traffic and the automatic-ACK side channel.
type Conn struct {
	stream Stream
	ctx    *message.Context

	writeMu sync.Mutex

	waiters   sync.Map // msgNum uint16 -> chan *message.Bc
	handlers  sync.Map // types.MsgID -> BroadcastHandler
	msgNumSeq uint32

	readErr atomic.Value // error
	doneCh  chan struct{}
}

// New wraps stream (already connected, already past any discovery/transport
// handshake) in a Conn using ctx for encryption/bin-mode bookkeeping.
func New(stream Stream, ctx *message.Context) *Conn {
	return &Conn{
		stream: stream,
		ctx:    ctx,
		doneCh: make(chan struct{}),
	}
}

// Start launches the read loop that decodes incoming messages and
// dispatches them to waiters or broadcast handlers. It returns immediately;
// call Err after Done() closes to retrieve the terminal read error.
func (c *Conn) Start() {
	go c.readLoop()
}

// Done is closed once the read loop exits, whether from a clean Close or an
// I/O error.
func (c *Conn) Done() <-chan struct{} { return c.doneCh }

// Err returns the error that ended the read loop, nil while the loop is
// still running. A Close also ends the loop with the read error that closing
// the stream produces, so Err is non-nil after it too.
func (c *Conn) Err() error {
	if v := c.readErr.Load(); v != nil {
		return v.(error)
	}
	return nil
}

// NextMsgNum returns the next correlator to stamp on an outbound request.
func (c *Conn) NextMsgNum() uint16 {
	return uint16(atomic.AddUint32(&c.msgNumSeq, 1))
}

// Handle registers handler as the recipient of unsolicited messages whose
// MsgID matches id. Only one handler is kept per MsgID; a second call
// replaces the first.
func (c *Conn) Handle(id types.MsgID, handler BroadcastHandler) {
	c.handlers.Store(id, handler)
}

// Send encodes and writes b without waiting for a reply, used for
// fire-and-forget messages (talk audio frames, talk reset, video stop).
func (c *Conn) Send(b *message.Bc) error {
	wire, err := message.Encode(b, c.ctx)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err = c.stream.Write(wire)
	return err
}

// Subscribe registers a persistent listener for every message that arrives
// carrying msgNum, for exchanges that deliver more than one reply to the
// same correlator (a video stream's successive frames, a talk session's
// acknowledgements). The returned cancel function stops further delivery;
// it does not close the channel, since the read loop may be mid-send.
func (c *Conn) Subscribe(msgNum uint16, buffer int) (<-chan *message.Bc, func()) {
	ch := make(chan *message.Bc, buffer)
	c.waiters.Store(msgNum, ch)
	return ch, func() { c.waiters.Delete(msgNum) }
}

// Request sends b and waits for the reply carrying the same msg_num,
// returning CameraServiceUnavailable if the reply's response_code is not
// the success sentinel (200). This 200 gate is specific to modern
// request/reply exchanges; the legacy login leg's reply carries an
// 0xdd-prefixed response_code instead (the low byte selects the negotiated
// encryption), so that exchange must use RequestRaw rather than Request.
func (c *Conn) Request(ctx context.Context, b *message.Bc) (*message.Bc, error) {
	reply, err := c.RequestRaw(ctx, b)
	if err != nil {
		return nil, err
	}
	if code := reply.Header.ResponseCode(); code != 200 {
		return reply, baichuanerrors.NewCameraServiceUnavailable(code)
	}
	return reply, nil
}

// RequestRaw sends b and waits for the reply carrying the same msg_num,
// returning it as-is without interpreting response_code. Used by the
// legacy login leg (baichuan/session.Login), whose reply's response_code is
// not the usual HTTP-style status but an 0xdd-prefixed encryption selector,
// and by any other exchange whose caller needs to inspect response_code
// itself.
func (c *Conn) RequestRaw(ctx context.Context, b *message.Bc) (*message.Bc, error) {
	msgNum := b.Header.MsgNum()
	replyCh := make(chan *message.Bc, 1)
	c.waiters.Store(msgNum, replyCh)
	defer c.waiters.Delete(msgNum)

	if err := c.Send(b); err != nil {
		return nil, err
	}

	select {
	case reply := <-replyCh:
		return reply, nil
	case <-c.doneCh:
		if err := c.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: connection closed while awaiting reply to msg_num %d", baichuanerrors.ErrTransport, msgNum)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close unblocks the read loop by closing the underlying stream, if it
// supports io.Closer.
func (c *Conn) Close() error {
	if closer, ok := c.stream.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (c *Conn) readLoop() {
	defer close(c.doneCh)
	for {
		bc, err := message.Decode(c.stream, c.ctx)
		if err != nil {
			c.readErr.Store(err)
			return
		}
		c.dispatch(bc)
	}
}

func (c *Conn) dispatch(bc *message.Bc) {
	msgNum := bc.Header.MsgNum()
	if v, ok := c.waiters.Load(msgNum); ok {
		ch := v.(chan *message.Bc)
		select {
		case ch <- bc:
		default:
			log.Warnf("connection: waiter for msg_num %d was not ready, dropping reply", msgNum)
		}
		return
	}

	if v, ok := c.handlers.Load(bc.Header.MsgID()); ok {
		handler := v.(BroadcastHandler)
		handler(bc)
		return
	}

	log.Debugf("connection: unsolicited message %s with no registered handler", bc.Header.MsgID())
}
