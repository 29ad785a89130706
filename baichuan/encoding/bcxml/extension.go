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

package bcxml

import "encoding/xml"

// Extension carries the routing-like metadata that rides alongside a BC
// message's payload: whether the payload on this msg_num is binary from now
// on, and optional user/channel/token routing fields.
type Extension struct {
	XMLName    xml.Name `xml:"Extension"`
	Version    string   `xml:"version,omitempty"`
	BinaryData *int     `xml:"binaryData,omitempty"`
	UserName   string   `xml:"userName,omitempty"`
	Token      string   `xml:"token,omitempty"`
	ChannelID  *int     `xml:"channelId,omitempty"`
}

// IsBinaryData reports whether this extension marks its payload as binary.
func (e *Extension) IsBinaryData() bool {
	return e.BinaryData != nil && *e.BinaryData == 1
}

// MarshalExtension serializes e to its XML wire form.
func MarshalExtension(e *Extension) ([]byte, error) {
	body, err := xml.Marshal(e)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

// UnmarshalExtension parses an Extension document.
func UnmarshalExtension(data []byte) (*Extension, error) {
	e := &Extension{}
	if err := xml.Unmarshal(data, e); err != nil {
		return nil, err
	}
	return e, nil
}
