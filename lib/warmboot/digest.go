// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package warmboot

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Digest is the BLAKE3 keyed hash of an uncompressed payload.
type Digest [32]byte

// String returns the digest as lowercase hex.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// stateDomainKey is the ASCII domain name zero-padded to 32 bytes.
// Changing it invalidates every existing state file.
var stateDomainKey = [32]byte{
	's', 'w', 'i', 't', 'c', 'h', 'a', 'g', 'e', 'n', 't', '.',
	'w', 'a', 'r', 'm', 'b', 'o', 'o', 't', '.',
	's', 't', 'a', 't', 'e', 0, 0, 0, 0, 0, 0,
}

// PayloadDigest computes the state-domain digest of payload.
func PayloadDigest(payload []byte) Digest {
	hasher, err := blake3.NewKeyed(stateDomainKey[:])
	if err != nil {
		panic("warmboot: BLAKE3 keyed hasher: " + err.Error())
	}
	hasher.Write(payload)
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest
}
