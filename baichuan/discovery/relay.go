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

package discovery

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/cybergarage/go-baichuan/baichuan/bcudp/encoding"
	baichuanerrors "github.com/cybergarage/go-baichuan/baichuan/errors"
	"github.com/cybergarage/go-logger/log"
)

// relayRevision is the C2R_C revision value that asks the register server
// for a permanently relayed session rather than a punchthrough attempt,
// matching discover_from_uuid_relay's revision=3 request.
const relayRevision = int32(3)

// RelayStrategy is the last-resort fallback: the register server relays all
// data between this client and the camera rather than handing back a
// directly reachable address. Grounded on discover_from_uuid_relay: a C2R_C
// with revision=3, accepting either an R2C_T or an R2C_C_R reply, followed
// by a conn="relay" C2D_T/C2R_CFM confirmation exchange with the register
// itself (never the camera directly — the register is the only peer this
// strategy ever talks to).
type RelayStrategy struct{}

func (RelayStrategy) Run(ctx context.Context, conn *net.UDPConn, uid string, timeout time.Duration) (*Result, error) {
	tid := randomTid()
	clientID := randomClientID()

	reg, err := getRegister(ctx, conn, uid, timeout, tid)
	if err != nil {
		return nil, err
	}

	localAddr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return nil, fmt.Errorf("%w: socket has no local UDP address", baichuanerrors.ErrTransport)
	}
	localIP, err := outboundIP()
	if err != nil {
		return nil, fmt.Errorf("%w: determining outbound address: %w", baichuanerrors.ErrTransport, err)
	}

	registerAddr, err := resolveUDPAddr(reg.Reg.IP, int(reg.Reg.Port))
	if err != nil {
		return nil, fmt.Errorf("%w: resolving register address %s:%d: %w", baichuanerrors.ErrTransport, reg.Reg.IP, reg.Reg.Port, err)
	}

	revision := relayRevision
	punch := &encoding.UdpXml{
		C2rC: &encoding.C2rC{
			UID:      uid,
			Cli:      encoding.IpPort{IP: localIP.String(), Port: uint16(localAddr.Port)},
			Relay:    reg.Relay,
			Cid:      clientID,
			Family:   4,
			Debug:    false,
			OS:       "MAC",
			Revision: &revision,
		},
	}
	if err := sendDiscovery(conn, registerAddr, tid, punch); err != nil {
		return nil, fmt.Errorf("%w: sending C2R_C: %w", baichuanerrors.ErrTransport, err)
	}

	var sid uint32
	var cameraID int32
	deadline := time.Now().Add(timeout)
	buf := make([]byte, MTU)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("%w: relay discovery timed out waiting for R2C_T/R2C_C_R", baichuanerrors.ErrTransport)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		_ = conn.SetReadDeadline(time.Now().Add(minDuration(remaining, 200*time.Millisecond)))
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			continue
		}
		pkt, err := encoding.DecodePacket(buf[:n])
		if err != nil || pkt.Kind != encoding.KindDiscovery {
			continue
		}
		switch {
		case pkt.Discovery.Payload.R2cT != nil && pkt.Discovery.Payload.R2cT.Cid == clientID:
			sid = pkt.Discovery.Payload.R2cT.Sid
		case pkt.Discovery.Payload.R2cCr != nil:
			sid = pkt.Discovery.Payload.R2cCr.Sid
		default:
			continue
		}
		break
	}

	connectMsg := &encoding.UdpXml{
		C2dT: &encoding.C2dT{Sid: sid, Cid: clientID, MTU: MTU, Conn: "relay"},
	}
	if err := sendDiscovery(conn, registerAddr, tid, connectMsg); err != nil {
		return nil, fmt.Errorf("%w: sending relay C2D_T: %w", baichuanerrors.ErrTransport, err)
	}

	deadline = time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("%w: relay discovery timed out waiting for D2C_CFM", baichuanerrors.ErrTransport)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		_ = conn.SetReadDeadline(time.Now().Add(minDuration(remaining, 200*time.Millisecond)))
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			continue
		}
		pkt, err := encoding.DecodePacket(buf[:n])
		if err != nil || pkt.Kind != encoding.KindDiscovery {
			continue
		}
		cfm := pkt.Discovery.Payload.D2cCfm
		if cfm == nil || cfm.Cid != clientID {
			continue
		}
		cameraID = cfm.Did
		break
	}

	if logAddr, err := resolveUDPAddr(reg.Log.IP, int(reg.Log.Port)); err == nil {
		confirm := &encoding.UdpXml{
			C2rCfm: &encoding.C2rCfm{Sid: sid, Conn: "relay", Rsp: 0, Cid: clientID, Did: cameraID},
		}
		if err := sendDiscovery(conn, logAddr, tid, confirm); err != nil {
			log.Debugf("discovery: relay: C2R_CFM send failed (non-fatal): %v", err)
		}
	}

	// All subsequent data for a relayed session goes to the register
	// address; the vendor relay forwards it to the camera. RelayAddr
	// carries that destination back to the connection layer, which must
	// send there instead of Addr when Conn == "relay".
	return &Result{
		Addr:      registerAddr,
		RelayAddr: registerAddr,
		ClientID:  clientID,
		CameraID:  cameraID,
		Conn:      "relay",
		Sid:       sid,
	}, nil
}
