// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package switchconfig

import (
	"fmt"
	"maps"
	"slices"
)

// nameTable is the bidirectional name mapping for one enum type.
type nameTable[T ~int] struct {
	kind   string
	names  map[T]string
	values map[string]T
}

func newNameTable[T ~int](kind string, names map[T]string) nameTable[T] {
	values := make(map[string]T, len(names))
	for value, name := range names {
		values[name] = value
	}
	return nameTable[T]{kind: kind, names: names, values: values}
}

func (table nameTable[T]) name(value T) (string, bool) {
	name, ok := table.names[value]
	return name, ok
}

func (table nameTable[T]) parse(name string) (T, error) {
	value, ok := table.values[name]
	if !ok {
		return value, fmt.Errorf("unknown %s %q (valid: %v)", table.kind, name, slices.Sorted(maps.Keys(table.values)))
	}
	return value, nil
}

func (table nameTable[T]) format(value T) string {
	if name, ok := table.names[value]; ok {
		return name
	}
	return fmt.Sprintf("%s(%d)", table.kind, value)
}

func (table nameTable[T]) marshal(value T) ([]byte, error) {
	name, ok := table.names[value]
	if !ok {
		return nil, fmt.Errorf("no name for %s value %v", table.kind, value)
	}
	return []byte(name), nil
}

// PortState is the configured administrative state of a port.
type PortState int

const (
	PortStateDisabled PortState = 1
	PortStateEnabled  PortState = 2
)

var portStateNames = newNameTable("port state", map[PortState]string{
	PortStateDisabled: "DISABLED",
	PortStateEnabled:  "ENABLED",
})

// Name returns the canonical name, or false for an out-of-range value.
func (state PortState) Name() (string, bool) { return portStateNames.name(state) }

func (state PortState) String() string { return portStateNames.format(state) }

func (state PortState) MarshalText() ([]byte, error) { return portStateNames.marshal(state) }

func (state *PortState) UnmarshalText(text []byte) (err error) {
	*state, err = portStateNames.parse(string(text))
	return err
}

// ParsePortState parses a canonical port state name. Legacy spellings
// found in old persisted state are handled by the state decoder, not
// here.
func ParsePortState(name string) (PortState, error) { return portStateNames.parse(name) }

// PortSpeed is a port speed in megabits per second. PortSpeedDefault
// lets the platform choose.
type PortSpeed int

const (
	PortSpeedDefault      PortSpeed = 0
	PortSpeedGigE         PortSpeed = 1000
	PortSpeedXG           PortSpeed = 10000
	PortSpeedTwentyG      PortSpeed = 20000
	PortSpeedTwentyFiveG  PortSpeed = 25000
	PortSpeedFortyG       PortSpeed = 40000
	PortSpeedFiftyG       PortSpeed = 50000
	PortSpeedHundredG     PortSpeed = 100000
	PortSpeedTwoHundredG  PortSpeed = 200000
	PortSpeedFourHundredG PortSpeed = 400000
)

var portSpeedNames = newNameTable("port speed", map[PortSpeed]string{
	PortSpeedDefault:      "DEFAULT",
	PortSpeedGigE:         "GIGE",
	PortSpeedXG:           "XG",
	PortSpeedTwentyG:      "TWENTYG",
	PortSpeedTwentyFiveG:  "TWENTYFIVEG",
	PortSpeedFortyG:       "FORTYG",
	PortSpeedFiftyG:       "FIFTYG",
	PortSpeedHundredG:     "HUNDREDG",
	PortSpeedTwoHundredG:  "TWOHUNDREDG",
	PortSpeedFourHundredG: "FOURHUNDREDG",
})

func (speed PortSpeed) Name() (string, bool) { return portSpeedNames.name(speed) }

func (speed PortSpeed) String() string { return portSpeedNames.format(speed) }

func (speed PortSpeed) MarshalText() ([]byte, error) { return portSpeedNames.marshal(speed) }

func (speed *PortSpeed) UnmarshalText(text []byte) (err error) {
	*speed, err = portSpeedNames.parse(string(text))
	return err
}

func ParsePortSpeed(name string) (PortSpeed, error) { return portSpeedNames.parse(name) }

// PortProfileID selects a platform port profile (lane count, modulation,
// FEC). The profile implies a speed; the agent does not cross-check them.
type PortProfileID int

const (
	ProfileDefault              PortProfileID = 0
	Profile10G1NRZNoFEC         PortProfileID = 1
	Profile20G2NRZNoFEC         PortProfileID = 2
	Profile25G1NRZNoFEC         PortProfileID = 3
	Profile40G4NRZNoFEC         PortProfileID = 4
	Profile50G2NRZNoFEC         PortProfileID = 5
	Profile100G4NRZNoFEC        PortProfileID = 6
	Profile100G4NRZCL91         PortProfileID = 7
	Profile100G4NRZRS528        PortProfileID = 8
	Profile200G4PAM4RS544X2N    PortProfileID = 9
	Profile400G8PAM4RS544X2N    PortProfileID = 10
	Profile25G1NRZCL74          PortProfileID = 12
	Profile50G2NRZCL74          PortProfileID = 13
	Profile50G2NRZRS528         PortProfileID = 14
	Profile100G4NRZRS528Optical PortProfileID = 15
)

var portProfileNames = newNameTable("port profile", map[PortProfileID]string{
	ProfileDefault:              "PROFILE_DEFAULT",
	Profile10G1NRZNoFEC:         "PROFILE_10G_1_NRZ_NOFEC",
	Profile20G2NRZNoFEC:         "PROFILE_20G_2_NRZ_NOFEC",
	Profile25G1NRZNoFEC:         "PROFILE_25G_1_NRZ_NOFEC",
	Profile40G4NRZNoFEC:         "PROFILE_40G_4_NRZ_NOFEC",
	Profile50G2NRZNoFEC:         "PROFILE_50G_2_NRZ_NOFEC",
	Profile100G4NRZNoFEC:        "PROFILE_100G_4_NRZ_NOFEC",
	Profile100G4NRZCL91:         "PROFILE_100G_4_NRZ_CL91",
	Profile100G4NRZRS528:        "PROFILE_100G_4_NRZ_RS528",
	Profile200G4PAM4RS544X2N:    "PROFILE_200G_4_PAM4_RS544X2N",
	Profile400G8PAM4RS544X2N:    "PROFILE_400G_8_PAM4_RS544X2N",
	Profile25G1NRZCL74:          "PROFILE_25G_1_NRZ_CL74",
	Profile50G2NRZCL74:          "PROFILE_50G_2_NRZ_CL74",
	Profile50G2NRZRS528:         "PROFILE_50G_2_NRZ_RS528",
	Profile100G4NRZRS528Optical: "PROFILE_100G_4_NRZ_RS528_OPTICAL",
})

func (profile PortProfileID) Name() (string, bool) { return portProfileNames.name(profile) }

func (profile PortProfileID) String() string { return portProfileNames.format(profile) }

func (profile PortProfileID) MarshalText() ([]byte, error) { return portProfileNames.marshal(profile) }

func (profile *PortProfileID) UnmarshalText(text []byte) (err error) {
	*profile, err = portProfileNames.parse(string(text))
	return err
}

func ParsePortProfileID(name string) (PortProfileID, error) { return portProfileNames.parse(name) }

// PortFEC is the forward-error-correction mode of a port.
type PortFEC int

const (
	FECNone    PortFEC = 1
	FECOn      PortFEC = 7
	FECRS544X2 PortFEC = 11
	FECCL74    PortFEC = 74
	FECCL91    PortFEC = 91
	FECRS528   PortFEC = 528
	FECRS544   PortFEC = 544
)

var portFECNames = newNameTable("port FEC", map[PortFEC]string{
	FECNone:    "NONE",
	FECOn:      "ON",
	FECRS544X2: "RS544_2N",
	FECCL74:    "CL74",
	FECCL91:    "CL91",
	FECRS528:   "RS528",
	FECRS544:   "RS544",
})

func (fec PortFEC) Name() (string, bool) { return portFECNames.name(fec) }

func (fec PortFEC) String() string { return portFECNames.format(fec) }

func (fec PortFEC) MarshalText() ([]byte, error) { return portFECNames.marshal(fec) }

func (fec *PortFEC) UnmarshalText(text []byte) (err error) {
	*fec, err = portFECNames.parse(string(text))
	return err
}

func ParsePortFEC(name string) (PortFEC, error) { return portFECNames.parse(name) }

// PortLoopbackMode places a port in PHY or MAC loopback. Only used by
// hardware tests and diagnostics.
type PortLoopbackMode int

const (
	LoopbackNone PortLoopbackMode = 0
	LoopbackPHY  PortLoopbackMode = 1
	LoopbackMAC  PortLoopbackMode = 2
)

var loopbackModeNames = newNameTable("loopback mode", map[PortLoopbackMode]string{
	LoopbackNone: "NONE",
	LoopbackPHY:  "PHY",
	LoopbackMAC:  "MAC",
})

func (mode PortLoopbackMode) Name() (string, bool) { return loopbackModeNames.name(mode) }

func (mode PortLoopbackMode) String() string { return loopbackModeNames.format(mode) }

func (mode PortLoopbackMode) MarshalText() ([]byte, error) { return loopbackModeNames.marshal(mode) }

func (mode *PortLoopbackMode) UnmarshalText(text []byte) (err error) {
	*mode, err = loopbackModeNames.parse(string(text))
	return err
}

func ParsePortLoopbackMode(name string) (PortLoopbackMode, error) {
	return loopbackModeNames.parse(name)
}

// SampleDestination is where sFlow samples from a port are sent.
type SampleDestination int

const (
	SampleToCPU    SampleDestination = 0
	SampleToMirror SampleDestination = 1
)

var sampleDestinationNames = newNameTable("sample destination", map[SampleDestination]string{
	SampleToCPU:    "CPU",
	SampleToMirror: "MIRROR",
})

func (destination SampleDestination) Name() (string, bool) {
	return sampleDestinationNames.name(destination)
}

func (destination SampleDestination) String() string {
	return sampleDestinationNames.format(destination)
}

func (destination SampleDestination) MarshalText() ([]byte, error) {
	return sampleDestinationNames.marshal(destination)
}

func (destination *SampleDestination) UnmarshalText(text []byte) (err error) {
	*destination, err = sampleDestinationNames.parse(string(text))
	return err
}

func ParseSampleDestination(name string) (SampleDestination, error) {
	return sampleDestinationNames.parse(name)
}

// StreamType is the traffic class an egress queue serves.
type StreamType int

const (
	StreamUnicast   StreamType = 0
	StreamMulticast StreamType = 1
	StreamAll       StreamType = 2
)

var streamTypeNames = newNameTable("stream type", map[StreamType]string{
	StreamUnicast:   "UNICAST",
	StreamMulticast: "MULTICAST",
	StreamAll:       "ALL",
})

func (stream StreamType) Name() (string, bool) { return streamTypeNames.name(stream) }

func (stream StreamType) String() string { return streamTypeNames.format(stream) }

func (stream StreamType) MarshalText() ([]byte, error) { return streamTypeNames.marshal(stream) }

func (stream *StreamType) UnmarshalText(text []byte) (err error) {
	*stream, err = streamTypeNames.parse(string(text))
	return err
}

func ParseStreamType(name string) (StreamType, error) { return streamTypeNames.parse(name) }

// QueueScheduling is the egress scheduling discipline of a queue.
type QueueScheduling int

const (
	SchedulingWeightedRoundRobin QueueScheduling = 0
	SchedulingStrictPriority     QueueScheduling = 1
	SchedulingInternal           QueueScheduling = 2
)

var queueSchedulingNames = newNameTable("queue scheduling", map[QueueScheduling]string{
	SchedulingWeightedRoundRobin: "WEIGHTED_ROUND_ROBIN",
	SchedulingStrictPriority:     "STRICT_PRIORITY",
	SchedulingInternal:           "INTERNAL",
})

func (scheduling QueueScheduling) Name() (string, bool) { return queueSchedulingNames.name(scheduling) }

func (scheduling QueueScheduling) String() string { return queueSchedulingNames.format(scheduling) }

func (scheduling QueueScheduling) MarshalText() ([]byte, error) {
	return queueSchedulingNames.marshal(scheduling)
}

func (scheduling *QueueScheduling) UnmarshalText(text []byte) (err error) {
	*scheduling, err = queueSchedulingNames.parse(string(text))
	return err
}

func ParseQueueScheduling(name string) (QueueScheduling, error) {
	return queueSchedulingNames.parse(name)
}
