// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package warmboot reads and writes the warm-restart state file.
//
// When the agent restarts without resetting the ASIC, it must recover
// the exact state the hardware was last programmed with. Before exit
// (and periodically while running) the agent serializes the published
// switch state to a single file; on start it loads that file, publishes
// it as generation one, and reconciles hardware against it.
//
// The file is a CBOR [Envelope]. The payload inside is the persisted
// switch state in CBOR or JSON, optionally compressed with zstd or LZ4.
// A BLAKE3 keyed digest over the uncompressed payload detects torn or
// corrupted files; a file that fails verification is never partially
// applied.
//
// Writes are atomic (temporary file, fsync, rename, directory fsync),
// so a crash during [Save] leaves the previous file intact. [Lock] holds
// an exclusive flock on the state directory so two agents cannot write
// the same file.
//
// Decoding a payload whose contents violate the schema (unknown enum
// names, malformed VLAN keys) returns an error for which
// node.IsInvariant reports true. Callers treat it as fatal rather than
// starting from an empty state.
package warmboot
