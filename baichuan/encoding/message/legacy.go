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
	"fmt"

	baichuanerrors "github.com/cybergarage/go-baichuan/baichuan/errors"
)

// LegacyLoginBodySize is the fixed body length of a legacy (BC-encrypt era)
// login message: a 32-byte username hash, a 32-byte password hash, and 1772
// reserved zero bytes that the camera never inspects.
const LegacyLoginBodySize = 32 + 32 + 1772

// EncodeLegacyLoginBody lays out the fixed legacy login body. usernameHash
// and passwordHash must already be 32 bytes (crypto.LegacyUsernameHash and
// crypto.LegacyPasswordHash produce exactly that width).
func EncodeLegacyLoginBody(usernameHash, passwordHash string) ([]byte, error) {
	if len(usernameHash) != 32 || len(passwordHash) != 32 {
		return nil, fmt.Errorf("%w: legacy login hash must be 32 bytes, got %d/%d",
			baichuanerrors.ErrCodec, len(usernameHash), len(passwordHash))
	}
	body := make([]byte, LegacyLoginBodySize)
	copy(body[0:32], usernameHash)
	copy(body[32:64], passwordHash)
	return body, nil
}

// DecodeLegacyLoginBody splits a fixed legacy login body back into its
// username and password hash fields.
func DecodeLegacyLoginBody(body []byte) (usernameHash, passwordHash string, err error) {
	if len(body) < 64 {
		return "", "", fmt.Errorf("%w: legacy login body too short (%d bytes)", baichuanerrors.ErrFraming, len(body))
	}
	return string(body[0:32]), string(body[32:64]), nil
}
