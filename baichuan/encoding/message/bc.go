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

package message

import (
	"github.com/cybergarage/go-baichuan/baichuan/encoding/bcxml"
)

// Bc is a fully decoded BC message: its header plus the two body parts the
// header's payload_offset (or, for fixed-layout legacy messages, a built-in
// split) separates.
type Bc struct {
	Header    Header
	Extension *bcxml.Extension
	// ExtBytes is the raw (decrypted) extension bytes, kept alongside the
	// parsed Extension so an empty extension can be told apart from one that
	// failed to parse.
	ExtBytes []byte
	// Payload is the raw (decrypted) payload bytes. The caller decides
	// whether to parse it as bcxml.BcXml or treat it as opaque binary media,
	// based on Context.IsBinMode(Header.MsgNum()).
	Payload []byte
}

// NewBc builds a Bc value from already-decoded parts, for callers
// constructing a message to encode rather than one read off the wire.
func NewBc(header Header, ext *bcxml.Extension, payload []byte) *Bc {
	return &Bc{Header: header, Extension: ext, Payload: payload}
}
