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

// Package crypto implements the BC message body ciphers: the legacy
// channel-keyed XOR stream ("BCEncrypt") and AES-128-CFB keyed from the
// login nonce and password. The XOR stream is self-inverse; AES-CFB is not,
// so the Cipher interface has separate Encrypt and Decrypt methods.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"

	"github.com/cybergarage/go-baichuan/baichuan/types"
)

// Cipher transforms a BC message extension/payload in place.
type Cipher interface {
	// Encrypt transforms plaintext into ciphertext in place and returns it.
	Encrypt(buf []byte) []byte
	// Decrypt transforms ciphertext into plaintext in place and returns it.
	Decrypt(buf []byte) []byte
}

// NewCipher returns the Cipher for the given negotiated mode.
func NewCipher(mode types.EncryptionMode, channelID types.ChannelID, nonce, password string) Cipher {
	switch mode {
	case types.EncryptionXOR:
		return newXORCipher(channelID)
	case types.EncryptionAES:
		return newAESCFBCipher(nonce, password)
	default:
		return newUnencryptedCipher()
	}
}

type unencryptedCipher struct{}

func newUnencryptedCipher() Cipher { return &unencryptedCipher{} }

func (c *unencryptedCipher) Encrypt(buf []byte) []byte { return buf }
func (c *unencryptedCipher) Decrypt(buf []byte) []byte { return buf }

// xorCipher implements "BCEncrypt": each byte is XORed against a fixed
// 16-byte vendor pad, itself XORed with the low byte of the channel ID.
type xorCipher struct {
	channelID types.ChannelID
}

func newXORCipher(channelID types.ChannelID) Cipher {
	return &xorCipher{channelID: channelID}
}

func (c *xorCipher) Encrypt(buf []byte) []byte { return XORCipher(c.channelID, buf) }
func (c *xorCipher) Decrypt(buf []byte) []byte { return XORCipher(c.channelID, buf) }

// bcEncryptPad is the fixed 16-byte key used by the legacy BCEncrypt cipher.
var bcEncryptPad = [16]byte{
	0x01, 0x0D, 0x05, 0x09, 0x07, 0x0B, 0x03, 0x0F,
	0x00, 0x0C, 0x04, 0x08, 0x06, 0x0A, 0x02, 0x0E,
}

// XORCipher transforms buf in place using the legacy BCEncrypt stream and
// returns it. It is its own inverse, so the same call encrypts or decrypts.
func XORCipher(channelID types.ChannelID, buf []byte) []byte {
	key := byte(channelID)
	for i := range buf {
		pad := bcEncryptPad[i%len(bcEncryptPad)]
		buf[i] = buf[i] ^ pad ^ key
	}
	return buf
}

// aesCFBIV is the fixed 16-byte IV used by every BC AES-CFB stream.
var aesCFBIV = []byte("0123456789abcdef")

type aesCFBCipher struct {
	key [16]byte
}

func newAESCFBCipher(nonce, password string) Cipher {
	return &aesCFBCipher{key: DeriveAESKey(nonce, password)}
}

func (c *aesCFBCipher) Encrypt(buf []byte) []byte {
	return c.stream(buf, true)
}

func (c *aesCFBCipher) Decrypt(buf []byte) []byte {
	return c.stream(buf, false)
}

// stream runs AES-128-CFB over buf in place. Unlike the legacy XOR cipher,
// CFB is not self-inverse across multiple 16-byte blocks: each block's
// keystream is derived from the previous block's ciphertext, so encrypt and
// decrypt must register that feedback from opposite sides (NewCFBEncrypter
// feeds back its output, NewCFBDecrypter feeds back its input) even though
// both compute the identical keystream.
func (c *aesCFBCipher) stream(buf []byte, encrypt bool) []byte {
	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		// c.key is always exactly 16 bytes, so aes.NewCipher cannot fail.
		panic(err)
	}
	out := make([]byte, len(buf))
	var stream cipher.Stream
	if encrypt {
		stream = cipher.NewCFBEncrypter(block, aesCFBIV)
	} else {
		stream = cipher.NewCFBDecrypter(block, aesCFBIV)
	}
	stream.XORKeyStream(out, buf)
	copy(buf, out)
	return buf
}
