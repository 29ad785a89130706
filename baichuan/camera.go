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

// Package baichuan implements a client for the Baichuan ("BC") protocol
// spoken by Reolink-family IP cameras: UID-based discovery, the BC message
// codec, the BcMedia container, and the command surface (video, talk, LED,
// PIR, PTZ, floodlight) layered over either a direct TCP control channel or
// the vendor's reliable UDP transport.
package baichuan

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/cybergarage/go-baichuan/baichuan/bcudp/encoding"
	"github.com/cybergarage/go-baichuan/baichuan/bcudp/transport"
	"github.com/cybergarage/go-baichuan/baichuan/connection"
	"github.com/cybergarage/go-baichuan/baichuan/discovery"
	"github.com/cybergarage/go-baichuan/baichuan/encoding/bcxml"
	baichuanerrors "github.com/cybergarage/go-baichuan/baichuan/errors"
	"github.com/cybergarage/go-baichuan/baichuan/session"
	"github.com/cybergarage/go-baichuan/baichuan/types"
)

// Credentials identifies a camera account.
type Credentials = session.Credentials

// Re-exported sentinels so callers can write errors.Is(err, baichuan.ErrAuthFailed)
// without importing baichuan/errors directly.
var (
	ErrFraming    = baichuanerrors.ErrFraming
	ErrCodec      = baichuanerrors.ErrCodec
	ErrTransport  = baichuanerrors.ErrTransport
	ErrProtocol   = baichuanerrors.ErrProtocol
	ErrAuthFailed = baichuanerrors.ErrAuthFailed
	ErrCancelled  = baichuanerrors.ErrCancelled
)

const defaultDiscoveryTimeout = 5 * time.Second

// Camera is a single camera's control endpoint: Connect locates and logs
// into the camera (by UID via discovery, or directly by address), after
// which Session exposes the full command surface.
type Camera struct {
	uid              string
	address          string
	credentials      Credentials
	channelID        types.ChannelID
	maxEncryption    types.MaxEncryption
	discoveryTimeout time.Duration

	udpConn   *net.UDPConn
	transport *transport.Transport
	tcpConn   net.Conn
	session   *session.Session
}

// NewCamera returns a Camera identified by uid, to be located by discovery
// unless WithAddress overrides that with a known "host:port".
func NewCamera(uid string, opts ...Option) *Camera {
	c := &Camera{
		uid:              uid,
		maxEncryption:    types.MaxEncryptionAES,
		discoveryTimeout: defaultDiscoveryTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect locates the camera (skipped when WithAddress was given), opens
// its control channel, and runs the login handshake, returning the
// camera's reported DeviceInfo on success.
func (c *Camera) Connect(ctx context.Context) (*bcxml.DeviceInfo, error) {
	stream, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	c.session = session.New(stream, c.channelID, c.credentials, c.maxEncryption)
	return c.session.Login(ctx)
}

// Session returns the underlying command surface. Valid only after a
// successful Connect.
func (c *Camera) Session() *session.Session {
	return c.session
}

// Close tears down the session and, if discovery was used, the UDP socket.
func (c *Camera) Close() error {
	var err error
	if c.session != nil {
		err = c.session.Close()
	}
	if c.udpConn != nil {
		_ = c.udpConn.Close()
	}
	return err
}

func (c *Camera) dial(ctx context.Context) (connection.Stream, error) {
	if c.address != "" {
		dialer := net.Dialer{}
		conn, err := dialer.DialContext(ctx, "tcp", c.address)
		if err != nil {
			return nil, fmt.Errorf("%w: dialing %s: %w", baichuanerrors.ErrTransport, c.address, err)
		}
		c.tcpConn = conn
		return conn, nil
	}
	return c.dialViaDiscovery(ctx)
}

func (c *Camera) dialViaDiscovery(ctx context.Context) (connection.Stream, error) {
	udpConn, err := net.ListenUDP("udp", &net.UDPAddr{})
	if err != nil {
		return nil, fmt.Errorf("%w: opening discovery socket: %w", baichuanerrors.ErrTransport, err)
	}
	c.udpConn = udpConn

	result, err := discovery.NewDiscoverer().Discover(ctx, udpConn, c.uid, c.discoveryTimeout)
	if err != nil {
		_ = udpConn.Close()
		return nil, err
	}

	hb := func(tid uint32) ([]byte, error) {
		if result.Conn == "relay" {
			return encoding.EncodeDiscovery(tid, &encoding.UdpXml{
				C2rHb: &encoding.C2rHb{Sid: result.Sid, Cid: result.ClientID, Did: result.CameraID},
			})
		}
		return encoding.EncodeDiscovery(tid, &encoding.UdpXml{
			C2dHb: &encoding.C2dHb{Cid: result.ClientID, Did: result.CameraID},
		})
	}

	t := transport.New(udpConn, result.Addr, uint32(result.ClientID), uint32(result.CameraID), hb, transport.DefaultParams())
	t.Start(ctx)
	c.transport = t
	return t, nil
}
