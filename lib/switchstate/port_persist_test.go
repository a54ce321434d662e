// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package switchstate

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/bureau-foundation/switchagent/lib/node"
	"github.com/bureau-foundation/switchagent/lib/switchconfig"
)

func fullPortFields() PortFields {
	destination := switchconfig.SampleToMirror
	weight := int32(4)
	queueName := "bulk"
	mirror := "span0"
	policy := "default-qos"

	fields := NewPortFields(7, "eth1/7/1")
	fields.Description = "to rack 12"
	fields.AdminState = switchconfig.PortStateEnabled
	fields.OperState = OperStateUp
	fields.IngressVlan = 2000
	fields.Speed = switchconfig.PortSpeedHundredG
	fields.ProfileID = switchconfig.Profile100G4NRZRS528Optical
	fields.FEC = switchconfig.FECRS528
	fields.LoopbackMode = switchconfig.LoopbackMAC
	fields.SampleDest = &destination
	fields.Pause = PortPause{Tx: true}
	fields.Vlans = map[VlanID]VlanInfo{2000: {Tagged: false}, 3000: {Tagged: true}}
	fields.SFlowIngressRate = 16384
	fields.SFlowEgressRate = 8192
	fields.Queues = []PortQueue{
		{ID: 0, StreamType: switchconfig.StreamUnicast, Scheduling: switchconfig.SchedulingWeightedRoundRobin, Weight: &weight},
		{ID: 7, StreamType: switchconfig.StreamUnicast, Scheduling: switchconfig.SchedulingStrictPriority, Name: &queueName},
	}
	fields.IngressMirror = &mirror
	fields.QosPolicy = &policy
	fields.MaxFrameSize = 9412
	fields.LookupClassesToDistributeTrafficOn = []int32{10, 11}
	return fields
}

func TestPortPersistRoundTrip(t *testing.T) {
	original := fullPortFields()
	persisted := original.ToPersisted()

	data, err := json.Marshal(persisted)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded PersistedPort
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	restored, err := PortFieldsFromPersisted(&decoded, nil)
	if err != nil {
		t.Fatalf("PortFieldsFromPersisted: %v", err)
	}
	if !restored.Equal(original) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", restored, original)
	}
}

func TestPortPersistWireNames(t *testing.T) {
	fields := fullPortFields()
	data, err := json.Marshal(fields.ToPersisted())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var object map[string]json.RawMessage
	if err := json.Unmarshal(data, &object); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	for _, key := range []string{
		"portId", "portName", "portDescription", "portState", "portOperState",
		"ingressVlan", "portSpeed", "portProfileID", "portFEC", "portLoopbackMode",
		"sampleDest", "txPause", "rxPause", "vlanMemberShips", "sFlowIngressRate",
		"sFlowEgressRate", "queues", "ingressMirror", "qosPolicy", "maxFrameSize",
		"lookupClassesToDistrubuteTrafficOn",
	} {
		if _, ok := object[key]; !ok {
			t.Errorf("persisted port has no %q key", key)
		}
	}
	if _, ok := object["egressMirror"]; ok {
		t.Error("unset egressMirror was written")
	}
	if got := string(object["portState"]); got != `"ENABLED"` {
		t.Errorf("portState = %s, want canonical name", got)
	}
	if got := string(object["vlanMemberShips"]); got != `{"2000":{"tagged":false},"3000":{"tagged":true}}` {
		t.Errorf("vlanMemberShips = %s", got)
	}
}

func minimalPersistedPort(state string) *PersistedPort {
	return &PersistedPort{
		ID:           3,
		Name:         "eth1/3/1",
		State:        state,
		Speed:        "FORTYG",
		ProfileID:    "PROFILE_40G_4_NRZ_NOFEC",
		FEC:          "NONE",
		LoopbackMode: "NONE",
	}
}

func TestPortAdminStateAliases(t *testing.T) {
	tests := []struct {
		name  string
		state string
		want  switchconfig.PortState
	}{
		{name: "disabled", state: "DISABLED", want: switchconfig.PortStateDisabled},
		{name: "legacy power down", state: "POWER_DOWN", want: switchconfig.PortStateDisabled},
		{name: "legacy down", state: "DOWN", want: switchconfig.PortStateDisabled},
		{name: "enabled", state: "ENABLED", want: switchconfig.PortStateEnabled},
		{name: "legacy up", state: "UP", want: switchconfig.PortStateEnabled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, err := PortFieldsFromPersisted(minimalPersistedPort(tt.state), nil)
			if err != nil {
				t.Fatalf("PortFieldsFromPersisted: %v", err)
			}
			if fields.AdminState != tt.want {
				t.Errorf("AdminState = %v, want %v", fields.AdminState, tt.want)
			}
			if got := fields.ToPersisted().State; got != tt.want.String() {
				t.Errorf("re-encoded state = %q, want canonical %q", got, tt.want.String())
			}
		})
	}
}

func TestPortDecodeRejectsUnknownValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PersistedPort)
	}{
		{name: "admin state", mutate: func(p *PersistedPort) { p.State = "SLEEPING" }},
		{name: "missing admin state", mutate: func(p *PersistedPort) { p.State = "" }},
		{name: "speed", mutate: func(p *PersistedPort) { p.Speed = "THREEG" }},
		{name: "profile", mutate: func(p *PersistedPort) { p.ProfileID = "PROFILE_1T" }},
		{name: "fec", mutate: func(p *PersistedPort) { p.FEC = "MAYBE" }},
		{name: "loopback", mutate: func(p *PersistedPort) { p.LoopbackMode = "CABLE" }},
		{name: "sample destination", mutate: func(p *PersistedPort) {
			destination := "DISK"
			p.SampleDest = &destination
		}},
		{name: "vlan key", mutate: func(p *PersistedPort) {
			p.VlanMemberships = map[string]PersistedVlanInfo{"vlan10": {}}
		}},
		{name: "queue scheduling", mutate: func(p *PersistedPort) {
			p.Queues = []PersistedQueue{{StreamType: "UNICAST", Scheduling: "FAIR"}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			persisted := minimalPersistedPort("ENABLED")
			tt.mutate(persisted)
			_, err := PortFieldsFromPersisted(persisted, nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if !node.IsInvariant(err) {
				t.Errorf("error %v is not an invariant error", err)
			}
		})
	}
}

func TestPortDecodeFillsLegacyDefaults(t *testing.T) {
	persisted := minimalPersistedPort("UP")
	persisted.ProfileID = ""
	persisted.LoopbackMode = ""

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	fields, err := PortFieldsFromPersisted(persisted, logger)
	if err != nil {
		t.Fatalf("PortFieldsFromPersisted: %v", err)
	}
	if fields.ProfileID != switchconfig.ProfileDefault {
		t.Errorf("ProfileID = %v, want PROFILE_DEFAULT", fields.ProfileID)
	}
	if fields.LoopbackMode != switchconfig.LoopbackNone {
		t.Errorf("LoopbackMode = %v, want NONE", fields.LoopbackMode)
	}
	output := logs.String()
	if !strings.Contains(output, "level=WARN") || !strings.Contains(output, "port=eth1/3/1") {
		t.Errorf("missing profile warning, log output: %q", output)
	}
}

func TestPortDecodeFromLegacyJSON(t *testing.T) {
	// Written by an agent from before profiles, loopback modes and
	// queue scheduling names existed.
	legacy := `{
		"portId": 12,
		"portName": "eth2/1/1",
		"portDescription": "",
		"portState": "POWER_DOWN",
		"portOperState": false,
		"ingressVlan": 1,
		"portSpeed": "XG",
		"portMaxSpeed": "XG",
		"portFEC": "NONE",
		"txPause": false,
		"rxPause": false,
		"vlanMemberShips": {"1": {"tagged": false}},
		"sFlowIngressRate": 0,
		"sFlowEgressRate": 0,
		"queues": [],
		"maxFrameSize": 0,
		"lookupClassesToDistrubuteTrafficOn": []
	}`
	var persisted PersistedPort
	if err := json.Unmarshal([]byte(legacy), &persisted); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	fields, err := PortFieldsFromPersisted(&persisted, nil)
	if err != nil {
		t.Fatalf("PortFieldsFromPersisted: %v", err)
	}
	if fields.AdminState != switchconfig.PortStateDisabled || fields.Speed != switchconfig.PortSpeedXG {
		t.Errorf("decoded admin=%v speed=%v", fields.AdminState, fields.Speed)
	}
	if info, ok := fields.Vlans[1]; !ok || info.Tagged {
		t.Errorf("vlan membership = %+v", fields.Vlans)
	}
}
