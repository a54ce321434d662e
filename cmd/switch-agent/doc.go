// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Switch-agent is the control-plane state process of a switch.
//
// On start it loads the runtime configuration (--config or
// SWITCHAGENT_CONFIG), locks the state directory, and restores the
// warm-boot file if one exists. It then applies the switch
// configuration file through the single-writer update loop and keeps
// running: SIGHUP reapplies the switch configuration, the current state
// is snapshotted to the warm-boot file on a fixed interval, and SIGINT
// or SIGTERM stop the update loop and write a final snapshot.
//
// A warm-boot file whose contents violate the state schema stops the
// agent with exit status 3 instead of starting from an empty state.
// Use --cold-boot to deliberately discard it.
package main
