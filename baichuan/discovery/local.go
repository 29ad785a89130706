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
)

// localRetries and localRetryInterval match the reference client's LAN
// discovery retry budget: five attempts, one second apart, before falling
// through to the next strategy.
const (
	localRetries       = 5
	localRetryInterval = 1 * time.Second
)

// LocalStrategy broadcasts a C2D_C discovery packet on ports 2015 and 2018,
// to both the limited broadcast address and every interface's own
// broadcast address, and waits for the matching camera's D2C_C_R reply,
// grounded on discover_from_uuid_local.
type LocalStrategy struct{}

func (LocalStrategy) Run(ctx context.Context, conn *net.UDPConn, uid string, timeout time.Duration) (*Result, error) {
	tid := randomTid()
	clientID := randomClientID()

	localAddr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return nil, fmt.Errorf("%w: socket has no local UDP address", baichuanerrors.ErrTransport)
	}

	payload := &encoding.UdpXml{
		C2dC: &encoding.C2dC{
			UID:   uid,
			Cli:   encoding.ClientList{Port: uint32(localAddr.Port)},
			Cid:   clientID,
			MTU:   MTU,
			Debug: false,
			OS:    "MAC",
		},
	}

	destIPs := broadcastAddrs()
	buf := make([]byte, MTU)

	for attempt := 0; attempt < localRetries; attempt++ {
		for _, ip := range destIPs {
			for _, port := range LocalBroadcastPorts {
				dest := &net.UDPAddr{IP: ip, Port: port}
				if err := sendDiscovery(conn, dest, tid, payload); err != nil {
					return nil, fmt.Errorf("%w: broadcasting to %s: %w", baichuanerrors.ErrTransport, dest, err)
				}
			}
		}

		deadline := time.Now().Add(minDuration(timeout, localRetryInterval))
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
			n, from, err := conn.ReadFromUDP(buf)
			if err != nil {
				continue
			}
			pkt, err := encoding.DecodePacket(buf[:n])
			if err != nil || pkt.Kind != encoding.KindDiscovery {
				continue
			}
			reply := pkt.Discovery.Payload.D2cCr
			if reply == nil || reply.Cid != clientID {
				continue
			}
			return &Result{
				Addr:     from,
				ClientID: clientID,
				CameraID: reply.Did,
				Conn:     "local",
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: local discovery timed out for uid %s after %d retries", baichuanerrors.ErrTransport, uid, localRetries)
}

// broadcastAddrs returns the limited broadcast address plus every IPv4
// interface's directed broadcast address, deduplicated, matching the
// reference client's "all interface broadcast addresses" fan-out.
func broadcastAddrs() []net.IP {
	addrs := []net.IP{net.IPv4bcast}
	ifaceAddrs, err := net.InterfaceAddrs()
	if err != nil {
		return addrs
	}
	seen := map[string]bool{net.IPv4bcast.String(): true}
	for _, a := range ifaceAddrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok || ipNet.IP.To4() == nil {
			continue
		}
		mask := ipNet.Mask
		if len(mask) == 16 {
			mask = mask[12:] // IPv4-in-IPv6 mask form; the last 4 bytes are the IPv4 mask
		}
		if len(mask) != 4 {
			continue
		}
		bcast := make(net.IP, 4)
		ip4 := ipNet.IP.To4()
		for i := range bcast {
			bcast[i] = ip4[i] | ^mask[i]
		}
		if seen[bcast.String()] {
			continue
		}
		seen[bcast.String()] = true
		addrs = append(addrs, bcast)
	}
	return addrs
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
