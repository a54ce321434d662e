// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML runtime configuration for the switch
// agent and its tools.
//
// Configuration is loaded from a single file specified by either the
// SWITCHAGENT_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). There are no fallbacks and no automatic file
// search.
//
// This is the agent's own runtime configuration: where state lives,
// how warm-boot files are written, how much history the journal keeps.
// The desired switch configuration (ports, flow monitoring) is a
// separate JSONC document handled by lib/switchconfig; Paths.SwitchConfig
// names it.
//
// The file supports environment-specific sections (development,
// staging, production) that override base values when
// [Config].Environment matches. Production defaults are stricter: warm
// boot is always enabled and the journal keeps more history.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${SWITCHAGENT_ROOT}, and ${VAR:-default} patterns are
// expanded.
//
// This package depends on no other switch agent packages.
package config
