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

// Package discovery locates a camera by its UID: a direct LAN broadcast
// first, falling back to the vendor's relay/register network when the
// camera is not reachable on the local subnet.
package discovery

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"time"

	"github.com/cybergarage/go-baichuan/baichuan/bcudp/encoding"
	"github.com/cybergarage/go-baichuan/baichuan/bcudp/transport"
	baichuanerrors "github.com/cybergarage/go-baichuan/baichuan/errors"
	"github.com/cybergarage/go-logger/log"
)

// MTU is the datagram size this client announces during discovery and uses
// to size its read buffers, matching the established data channel's MTU.
const MTU = transport.MTU

// relayHostnames is the single global list of vendor register servers tried,
// in order, during remote discovery. Kept as one plain slice rather than a
// pluggable registry: no caller has ever needed to add or remove an entry.
var relayHostnames = []string{
	"p2p.reolink.com",
	"p2p1.reolink.com",
	"p2p2.reolink.com",
	"p2p3.reolink.com",
	"p2p6.reolink.com",
	"p2p7.reolink.com",
	"p2p8.reolink.com",
	"p2p9.reolink.com",
	"p2p14.reolink.com",
	"p2p15.reolink.com",
}

const relayPort = 9999

// LocalBroadcastPorts are the two ports a camera listens on for LAN discovery.
var LocalBroadcastPorts = []int{2015, 2018}

// Result is what a successful strategy run hands back to the connection
// layer: the camera's reachable address, the negotiated client/camera
// connection ids, and which path (direct vs. relayed) data should flow over.
type Result struct {
	Addr      *net.UDPAddr
	ClientID  int32
	CameraID  int32
	Conn      string       // "local", "map", or "relay", mirrors the C2D_T conn field
	RelayAddr *net.UDPAddr // non-nil only when Conn == "relay"
	Sid       uint32       // session id issued by the register; only set when Conn == "relay"
}

// Strategy is one way of locating a camera by UID. Each strategy owns its
// own wire exchange and either returns a Result or an error; a plain
// interface rather than a plugin registry, since the set of strategies is
// fixed and small.
type Strategy interface {
	Run(ctx context.Context, conn *net.UDPConn, uid string, timeout time.Duration) (*Result, error)
}

// Discoverer tries a sequence of strategies in order, returning the first
// successful Result.
type Discoverer struct {
	strategies []Strategy
}

// NewDiscoverer returns a Discoverer that tries local LAN broadcast first,
// then vendor punchthrough, then permanent vendor relay, matching the
// reference client's discover_from_uuid fallback order (Local, Remote,
// Relay).
func NewDiscoverer() *Discoverer {
	return &Discoverer{
		strategies: []Strategy{
			&LocalStrategy{},
			&RemoteStrategy{},
			&RelayStrategy{},
		},
	}
}

// Discover runs each strategy over conn in order until one succeeds or all
// fail; conn must already be bound (typically to ":0") but not connected.
func (d *Discoverer) Discover(ctx context.Context, conn *net.UDPConn, uid string, timeout time.Duration) (*Result, error) {
	var lastErr error
	for _, s := range d.strategies {
		res, err := s.Run(ctx, conn, uid, timeout)
		if err == nil {
			return res, nil
		}
		log.Debugf("discovery: strategy %T failed for uid %s: %v", s, uid, err)
		lastErr = err
	}
	return nil, fmt.Errorf("%w: no discovery strategy reached camera %s: %v", baichuanerrors.ErrTransport, uid, lastErr)
}

func randomTid() uint32 {
	return uint32(rand.Intn(256))
}

func randomClientID() int32 {
	return rand.Int31()
}

func sendDiscovery(conn *net.UDPConn, addr *net.UDPAddr, tid uint32, payload *encoding.UdpXml) error {
	wire, err := encoding.EncodeDiscovery(tid, payload)
	if err != nil {
		return fmt.Errorf("%w: %w", baichuanerrors.ErrCodec, err)
	}
	_, err = conn.WriteToUDP(wire, addr)
	return err
}

// resolveUDPAddr resolves host:port pairs the way net.ResolveUDPAddr does,
// wrapped so strategy code reads as a single line per destination.
func resolveUDPAddr(host string, port int) (*net.UDPAddr, error) {
	return net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", host, port))
}
