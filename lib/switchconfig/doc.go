// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package switchconfig defines the desired configuration of a switch:
// the document an operator or management client submits, before the
// agent translates it into a state tree.
//
// It also owns every configuration enum (port speed, FEC, loopback,
// profile, sample destination, queue stream type and scheduling) and
// the canonical name table for each. The name is the wire contract:
// persisted state and configuration files carry names, never numeric
// values, and parsing rejects any name not in the table.
//
// Configuration files are JSON with comments and trailing commas
// (JSONC), loaded with [Load] or [Parse]. Unknown fields are rejected so
// typos fail loudly instead of silently leaving a port at its default.
//
// This package depends on no other packages in this module.
package switchconfig
