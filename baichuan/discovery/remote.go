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

// RemoteStrategy punches through the vendor's relay/register network when a
// camera is not reachable by LAN broadcast, grounded on
// discover_from_uuid_remote and get_register: ask each register hostname in
// turn for the camera's UID, negotiate a direct ("map") session address
// through the register, then confirm with the camera itself. Relayed
// sessions are RelayStrategy's job.
type RemoteStrategy struct{}

func (RemoteStrategy) Run(ctx context.Context, conn *net.UDPConn, uid string, timeout time.Duration) (*Result, error) {
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

	punch := &encoding.UdpXml{
		C2rC: &encoding.C2rC{
			UID:    uid,
			Cli:    encoding.IpPort{IP: localIP.String(), Port: uint16(localAddr.Port)},
			Relay:  reg.Relay,
			Cid:    clientID,
			Family: 4,
			Debug:  false,
			OS:     "MAC",
		},
	}
	if err := sendDiscovery(conn, registerAddr, tid, punch); err != nil {
		return nil, fmt.Errorf("%w: sending C2R_C: %w", baichuanerrors.ErrTransport, err)
	}

	var sid uint32
	var devAddr *net.UDPAddr
	deadline := time.Now().Add(timeout)
	buf := make([]byte, MTU)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("%w: remote discovery timed out waiting for R2C_T", baichuanerrors.ErrTransport)
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
		t := pkt.Discovery.Payload.R2cT
		if t == nil || t.Cid != clientID {
			continue
		}
		if t.Dev == nil || t.Dev.IP == "" || t.Dev.Port == 0 {
			continue // register replied but has not yet learned the camera's address
		}
		sid = t.Sid
		devAddr, err = resolveUDPAddr(t.Dev.IP, int(t.Dev.Port))
		if err != nil {
			return nil, fmt.Errorf("%w: resolving camera address %s:%d: %w", baichuanerrors.ErrTransport, t.Dev.IP, t.Dev.Port, err)
		}
		break
	}

	connectMsg := &encoding.UdpXml{
		C2dT: &encoding.C2dT{Sid: sid, Cid: clientID, MTU: MTU, Conn: "local"},
	}
	if err := sendDiscovery(conn, devAddr, tid, connectMsg); err != nil {
		return nil, fmt.Errorf("%w: sending C2D_T: %w", baichuanerrors.ErrTransport, err)
	}

	var cameraID int32
	deadline = time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("%w: remote discovery timed out waiting for camera confirmation", baichuanerrors.ErrTransport)
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
		case pkt.Discovery.Payload.D2cT != nil && pkt.Discovery.Payload.D2cT.Cid == clientID:
			cameraID = pkt.Discovery.Payload.D2cT.Did
		case pkt.Discovery.Payload.D2cCfm != nil && pkt.Discovery.Payload.D2cCfm.Cid == clientID:
			cameraID = pkt.Discovery.Payload.D2cCfm.Did
		case pkt.Discovery.Payload.D2cDisc != nil && pkt.Discovery.Payload.D2cDisc.Cid == clientID:
			cameraID = pkt.Discovery.Payload.D2cDisc.Did
		default:
			continue
		}
		break
	}

	if logAddr, err := resolveUDPAddr(reg.Log.IP, int(reg.Log.Port)); err == nil {
		confirm := &encoding.UdpXml{
			C2rCfm: &encoding.C2rCfm{Sid: sid, Conn: "local", Rsp: 0, Cid: clientID, Did: cameraID},
		}
		if err := sendDiscovery(conn, logAddr, tid, confirm); err != nil {
			log.Debugf("discovery: remote: C2R_CFM send failed (non-fatal): %v", err)
		}
	}

	mapMsg := &encoding.UdpXml{
		C2dT: &encoding.C2dT{Sid: sid, Cid: clientID, MTU: MTU, Conn: "map"},
	}
	if err := sendDiscovery(conn, devAddr, tid, mapMsg); err != nil {
		log.Debugf("discovery: remote: map C2D_T send failed (non-fatal): %v", err)
	}

	return &Result{
		Addr:     devAddr,
		ClientID: clientID,
		CameraID: cameraID,
		Conn:     "map",
	}, nil
}

// getRegister asks each vendor relay hostname in turn for uid's register
// location, skipping any reply whose register address is still empty.
func getRegister(ctx context.Context, conn *net.UDPConn, uid string, timeout time.Duration, tid uint32) (*encoding.M2cQr, error) {
	query := &encoding.UdpXml{C2mQ: &encoding.C2mQ{UID: uid, OS: "MAC"}}
	buf := make([]byte, MTU)

	for _, host := range relayHostnames {
		addr, err := resolveUDPAddr(host, relayPort)
		if err != nil {
			log.Debugf("discovery: remote: resolving relay host %s failed: %v", host, err)
			continue
		}
		if err := sendDiscovery(conn, addr, tid, query); err != nil {
			continue
		}

		deadline := time.Now().Add(timeout)
		for {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				break
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
			reply := pkt.Discovery.Payload.M2cQr
			if reply == nil {
				continue
			}
			if reply.Reg.Port == 0 || reply.Reg.IP == "" {
				break // this register has no record of uid; try the next hostname
			}
			return reply, nil
		}
	}
	return nil, fmt.Errorf("%w: no relay hostname resolved uid %s", baichuanerrors.ErrTransport, uid)
}

// outboundIP finds the local address that would be used to reach the public
// internet, the address this client registers with the vendor register
// server for punchthrough.
func outboundIP() (net.IP, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP, nil
}
