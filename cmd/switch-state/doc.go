// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Switch-state inspects the persistent state of a switch agent without
// running one.
//
// Subcommands:
//
//	show <file>                         envelope header and port summary
//	verify <file>                       check digest and schema, exit non-zero on failure
//	export <file>                       persisted state as indented JSON
//	diag [--payload] <file>             CBOR diagnostic notation
//	convert [flags] <in> <out>          rewrite with another compression or encoding
//	keys <next-hop file>                hardware keys derived from a JSONC next-hop list
//	journal list [--limit N] <db>       generations recorded in the state journal
//	journal export <db> <generation>    one journaled generation as JSON
//
// Files written by the agent are owned by it; run switch-state against
// a copy, or while the agent is stopped, when using convert.
package main
