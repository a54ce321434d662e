// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is the switch agent's single CBOR configuration.
//
// The agent writes state in two formats:
//
//   - JSON for anything a person or an older agent might read: the
//     persisted state tree's canonical form, `switch-state export`
//     output, and the JSON payload encoding of warm-boot files.
//   - CBOR for the warm-boot envelope, the default warm-boot payload
//     encoding, and state journal rows.
//
// The persisted state types carry only `json` tags. fxamacker/cbor
// reads `json` tags when `cbor` tags are absent, so one set of field
// names serves both formats and the warm-restart contract is written
// down exactly once. Types that exist only inside a CBOR file (the
// warm-boot envelope) use `cbor` tags. Never put both on one field.
//
// Encoding is Core Deterministic (RFC 8949 §4.2): sorted map keys,
// smallest integer encoding, no indefinite-length items. The same tree
// always encodes to the same bytes, which is what makes payload digests
// comparable across saves.
//
//	data, err := codec.Marshal(state.ToPersisted())
//	err = codec.Unmarshal(data, &persisted)
package codec
