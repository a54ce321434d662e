// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides entrypoint helpers shared by the switch
// agent binaries:
//
//   - Fatal error reporting to stderr when the structured logger may
//     not exist yet.
//   - Construction of the process logger from the runtime
//     configuration.
//
// Apart from lib/version, this is the only library package that writes
// to stderr directly. Everything else logs through an injected
// *slog.Logger.
package process
