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
	"github.com/cybergarage/go-baichuan/baichuan/types"
)

// Context is the per-connection codec state that Decode mutates as the
// login handshake proceeds: the negotiated encryption mode and which
// msg_num values carry binary (rather than XML) payloads. The Go name for
// what the reference implementation calls BcContext. The cipher's channel
// id is not part of this state: it is keyed per message off the header
// Decode/Encode just parsed, since a connection can carry more than one
// channel_id (main vs sub stream, or multiplexed requests).
type Context struct {
	nonce          string
	password       string
	encryptionMode types.EncryptionMode
	inBinMode      map[uint16]bool
}

// NewContext creates a Context for a connection authenticating with
// password. initialMode is the cipher applied to the login exchange itself
// before negotiation completes; cameras obfuscate even their first replies
// with BCEncrypt (types.EncryptionXOR), so that is the mode callers should
// pass unless probing an already-Unencrypted legacy device. Decode promotes
// the mode further once the login reply's response_code is observed.
func NewContext(password string, initialMode types.EncryptionMode) *Context {
	return &Context{
		password:       password,
		encryptionMode: initialMode,
		inBinMode:      make(map[uint16]bool),
	}
}

// EncryptionMode returns the currently negotiated cipher.
func (c *Context) EncryptionMode() types.EncryptionMode {
	return c.encryptionMode
}

// SetEncryptionMode overrides the negotiated cipher, used once the login
// reply's response_code reveals what the camera actually granted.
func (c *Context) SetEncryptionMode(mode types.EncryptionMode) {
	c.encryptionMode = mode
}

// Nonce returns the login nonce observed in the modern login reply, used to
// derive the AES key once encryption is promoted to AES.
func (c *Context) Nonce() string {
	return c.nonce
}

// SetNonce records the login nonce.
func (c *Context) SetNonce(nonce string) {
	c.nonce = nonce
}

// Password returns the credential used for AES key derivation.
func (c *Context) Password() string {
	return c.password
}

// IsBinMode reports whether payloads for msgNum are raw binary rather than XML.
func (c *Context) IsBinMode(msgNum uint16) bool {
	return c.inBinMode[msgNum]
}

// SetBinMode marks msgNum as carrying binary payloads from now on.
func (c *Context) SetBinMode(msgNum uint16) {
	c.inBinMode[msgNum] = true
}
