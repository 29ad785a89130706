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

// Package encoding implements the BC-UDP packet family: the discovery/ack/data
// envelope shared by every UDP transport packet, the CRC-32 over
// XOR-obfuscated discovery XML, and the UdpXml closed union the discovery
// and heartbeat exchanges carry inside that envelope.
package encoding

import "encoding/xml"

// UdpXml is the <P2P> envelope body: a closed union of the discovery,
// punchthrough, and heartbeat elements. Only one field is populated per
// message; unknown elements are left zero by encoding/xml rather than
// rejected, matching BcXml's tolerance in the message codec.
type UdpXml struct {
	XMLName xml.Name `xml:"P2P"`

	C2dS    *C2dS    `xml:"C2D_S,omitempty"`
	C2dC    *C2dC    `xml:"C2D_C,omitempty"`
	D2cCr   *D2cCr   `xml:"D2C_C_R,omitempty"`
	C2mQ    *C2mQ    `xml:"C2M_Q,omitempty"`
	M2cQr   *M2cQr   `xml:"M2C_Q_R,omitempty"`
	C2rC    *C2rC    `xml:"C2R_C,omitempty"`
	R2cT    *R2cT    `xml:"R2C_T,omitempty"`
	R2cCr   *R2cCr   `xml:"R2C_C_R,omitempty"`
	C2dT    *C2dT    `xml:"C2D_T,omitempty"`
	D2cT    *D2cT    `xml:"D2C_T,omitempty"`
	C2dA    *C2dA    `xml:"C2D_A,omitempty"`
	C2rCfm  *C2rCfm  `xml:"C2R_CFM,omitempty"`
	D2cCfm  *D2cCfm  `xml:"D2C_CFM,omitempty"`
	C2dHb   *C2dHb   `xml:"C2D_HB,omitempty"`
	C2rHb   *C2rHb   `xml:"C2R_HB,omitempty"`
	C2dDisc *C2dDisc `xml:"C2D_DISC,omitempty"`
	D2cDisc *D2cDisc `xml:"D2C_DISC,omitempty"`
	R2cDisc *R2cDisc `xml:"R2C_DISC,omitempty"`
}

// IpPort is a host/port pair as the register/relay/log servers report themselves.
type IpPort struct {
	IP   string `xml:"ip"`
	Port uint16 `xml:"port"`
}

// ClientList carries the client's local UDP port in a C2dC broadcast.
type ClientList struct {
	Port uint32 `xml:"port"`
}

// PortList carries a reply destination port in a C2dS broadcast.
type PortList struct {
	Port uint32 `xml:"port"`
}

// C2dS asks any camera listening on 2015 to reply with its data port.
type C2dS struct {
	To PortList `xml:"to"`
}

// C2dC starts a LAN discovery for a specific camera UID on port 2018.
type C2dC struct {
	UID   string     `xml:"uid"`
	Cli   ClientList `xml:"cli"`
	Cid   int32      `xml:"cid"`
	MTU   uint32     `xml:"mtu"`
	Debug bool       `xml:"debug"`
	OS    string     `xml:"p"`
}

// Timer is the keep-alive interval hint carried by D2cCr; fields are opaque
// to this client (neither the reference implementation nor capture samples
// assign them meaning beyond "echo back unchanged if re-sent").
type Timer struct {
	Def uint32 `xml:"def"`
	HB  uint32 `xml:"hb"`
	HBT uint32 `xml:"hbt"`
}

// D2cCr is the camera's reply to a C2dC LAN discovery broadcast.
type D2cCr struct {
	Timer Timer `xml:"timer"`
	Rsp   uint32 `xml:"rsp"`
	Cid   int32  `xml:"cid"`
	Did   int32  `xml:"did"`
}

// C2mQ asks a vendor relay middleman server to resolve a UID.
type C2mQ struct {
	UID string `xml:"uid"`
	OS  string `xml:"p"`
}

// M2cQr is the middleman server's reply: the register/relay/log server
// locations and, when available, the camera's last-known address.
type M2cQr struct {
	Reg   IpPort `xml:"reg"`
	Relay IpPort `xml:"relay"`
	Log   IpPort `xml:"log"`
	T     IpPort `xml:"t"`
}

// C2rC asks the register server to begin a punchthrough or relay session.
type C2rC struct {
	UID      string `xml:"uid"`
	Cli      IpPort `xml:"cli"`
	Relay    IpPort `xml:"relay"`
	Cid      int32  `xml:"cid"`
	Debug    bool   `xml:"debug"`
	Family   uint8  `xml:"family"`
	OS       string `xml:"p"`
	Revision *int32 `xml:"r,omitempty"`
}

// R2cT is the register server's reply carrying the camera's address for a
// direct (punchthrough) session.
type R2cT struct {
	Dmap *IpPort `xml:"dmap,omitempty"`
	Dev  *IpPort `xml:"dev,omitempty"`
	Cid  int32   `xml:"cid"`
	Sid  uint32  `xml:"sid"`
}

// R2cCr is the register server's reply for a relayed session.
type R2cCr struct {
	Dev   *IpPort `xml:"dev,omitempty"`
	Dmap  *IpPort `xml:"dmap,omitempty"`
	Relay *IpPort `xml:"relay,omitempty"`
	Nat   string  `xml:"nat"`
	Sid   uint32  `xml:"sid"`
	Rsp   int32   `xml:"rsp"`
	Ac    uint32  `xml:"ac"`
}

// C2dT asks the camera (directly, or via the relay register) to start a
// transmission session over the given conn mode ("local", "relay", "map").
type C2dT struct {
	Sid  uint32 `xml:"sid"`
	Conn string `xml:"conn"`
	Cid  int32  `xml:"cid"`
	MTU  uint32 `xml:"mtu"`
}

// D2cT is the camera's transmission-session reply.
type D2cT struct {
	Sid  uint32 `xml:"sid"`
	Conn string `xml:"conn"`
	Cid  int32  `xml:"cid"`
	Did  int32  `xml:"did"`
}

// C2dA accepts a D2cT, confirming the session to the camera.
type C2dA struct {
	Sid  uint32 `xml:"sid"`
	Conn string `xml:"conn"`
	Cid  int32  `xml:"cid"`
	Did  int32  `xml:"did"`
	MTU  uint32 `xml:"mtu"`
}

// C2rCfm confirms the negotiated session to the register/log server.
type C2rCfm struct {
	Sid  uint32 `xml:"sid"`
	Conn string `xml:"conn"`
	Rsp  uint32 `xml:"rsp"`
	Cid  int32  `xml:"cid"`
	Did  int32  `xml:"did"`
}

// D2cCfm is the camera's confirmation reply when the session was initiated
// by the middleman server rather than the client.
type D2cCfm struct {
	Sid   uint32 `xml:"sid"`
	Conn  string `xml:"conn"`
	Rsp   uint32 `xml:"rsp"`
	Cid   int32  `xml:"cid"`
	Did   int32  `xml:"did"`
	TimeR uint32 `xml:"time_r"`
}

// C2dHb is the client's direct LAN heartbeat.
type C2dHb struct {
	Cid int32 `xml:"cid"`
	Did int32 `xml:"did"`
}

// C2rHb is the client's relayed heartbeat, sent to the register/relay server.
type C2rHb struct {
	Sid uint32 `xml:"sid"`
	Cid int32  `xml:"cid"`
	Did int32  `xml:"did"`
}

// C2dDisc is the client's disconnect notice.
type C2dDisc struct {
	Cid int32 `xml:"cid"`
	Did int32 `xml:"did"`
}

// D2cDisc is the camera's disconnect notice.
type D2cDisc struct {
	Cid int32 `xml:"cid"`
	Did int32 `xml:"did"`
}

// R2cDisc is the register server's disconnect notice for a relayed session.
type R2cDisc struct {
	Sid uint32 `xml:"sid"`
}

// Marshal serializes x to its <P2P>...</P2P> wire form. UdpXml carries no
// XML declaration, unlike BcXml.
func Marshal(x *UdpXml) ([]byte, error) {
	return xml.Marshal(x)
}

// Unmarshal parses a <P2P>...</P2P> document.
func Unmarshal(data []byte) (*UdpXml, error) {
	x := &UdpXml{}
	if err := xml.Unmarshal(data, x); err != nil {
		return nil, err
	}
	return x, nil
}
