// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package switchstate

import (
	"testing"

	"github.com/bureau-foundation/switchagent/lib/node"
	"github.com/bureau-foundation/switchagent/lib/switchconfig"
)

func requireAbort(t *testing.T, function func()) *node.InvariantError {
	t.Helper()
	var recovered any
	func() {
		defer func() { recovered = recover() }()
		function()
	}()
	if recovered == nil {
		t.Fatal("expected abort, function returned normally")
	}
	invariantError, ok := recovered.(*node.InvariantError)
	if !ok {
		t.Fatalf("panic value = %T (%v), want *node.InvariantError", recovered, recovered)
	}
	return invariantError
}

// publishedState builds and publishes a tree with ports 1 through count
// and a default flow-monitor config.
func publishedState(t *testing.T, count int) *SwitchState {
	t.Helper()
	state := NewSwitchState()
	for id := 1; id <= count; id++ {
		fields := NewPortFields(PortID(id), portName(id))
		fields.AdminState = switchconfig.PortStateEnabled
		fields.Speed = switchconfig.PortSpeedHundredG
		if err := state.Ports().AddPort(NewPort(fields)); err != nil {
			t.Fatalf("AddPort(%d): %v", id, err)
		}
	}
	state.ResetQcmConfig(NewQcmConfig(DefaultQcmConfigFields()))
	state.Publish()
	return state
}

func portName(id int) string {
	return "eth1/" + string(rune('0'+id)) + "/1"
}

func mustPort(t *testing.T, state *SwitchState, id PortID) *Port {
	t.Helper()
	port, ok := state.Port(id)
	if !ok {
		t.Fatalf("port %d missing", id)
	}
	return port
}
