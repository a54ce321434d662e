// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package switchstate

import (
	"log/slog"
	"maps"
	"slices"
	"strconv"

	"github.com/bureau-foundation/switchagent/lib/node"
	"github.com/bureau-foundation/switchagent/lib/switchconfig"
)

// PersistedVlanInfo is the persisted form of VlanInfo.
type PersistedVlanInfo struct {
	Tagged bool `json:"tagged"`
}

// PersistedQueue is the persisted form of PortQueue.
type PersistedQueue struct {
	ID            uint8   `json:"id"`
	StreamType    string  `json:"streamType"`
	Scheduling    string  `json:"scheduling"`
	Weight        *int32  `json:"weight,omitempty"`
	ReservedBytes *int32  `json:"reservedBytes,omitempty"`
	ScalingFactor *string `json:"scalingFactor,omitempty"`
	Name          *string `json:"name,omitempty"`
	SharedBytes   *int32  `json:"sharedBytes,omitempty"`
}

// PersistedPort is the persisted form of a port. Field names are part of
// the warm-restart file format and must not change; the misspelled
// lookup-class key included.
//
// Enums are carried as names so that decoding can apply legacy aliases
// and defaults before validating them.
type PersistedPort struct {
	ID           uint32 `json:"portId"`
	Name         string `json:"portName"`
	Description  string `json:"portDescription"`
	State        string `json:"portState"`
	OperState    bool   `json:"portOperState"`
	IngressVlan  uint16 `json:"ingressVlan"`
	Speed        string `json:"portSpeed"`
	MaxSpeed     string `json:"portMaxSpeed,omitempty"`
	ProfileID    string `json:"portProfileID"`
	FEC          string `json:"portFEC"`
	LoopbackMode string `json:"portLoopbackMode"`

	SampleDest *string `json:"sampleDest,omitempty"`

	TxPause bool `json:"txPause"`
	RxPause bool `json:"rxPause"`

	VlanMemberships map[string]PersistedVlanInfo `json:"vlanMemberShips"`

	SFlowIngressRate uint64 `json:"sFlowIngressRate"`
	SFlowEgressRate  uint64 `json:"sFlowEgressRate"`

	Queues []PersistedQueue `json:"queues"`

	IngressMirror *string `json:"ingressMirror,omitempty"`
	EgressMirror  *string `json:"egressMirror,omitempty"`
	QosPolicy     *string `json:"qosPolicy,omitempty"`

	MaxFrameSize uint32 `json:"maxFrameSize"`

	LookupClasses []int32 `json:"lookupClassesToDistrubuteTrafficOn"`
}

// adminStateAliases maps every admin-state spelling ever written to a
// warm-restart file onto the current enum. Agents before the rename
// wrote POWER_DOWN and UP; DOWN appeared briefly in between. Removing an
// entry makes files from that era unreadable.
var adminStateAliases = map[string]switchconfig.PortState{
	"DISABLED":   switchconfig.PortStateDisabled,
	"POWER_DOWN": switchconfig.PortStateDisabled,
	"DOWN":       switchconfig.PortStateDisabled,
	"ENABLED":    switchconfig.PortStateEnabled,
	"UP":         switchconfig.PortStateEnabled,
}

// canonicalName returns the name of an enum value held by a port. Values
// reach a port only through the name tables, so a missing name means
// the tree is corrupt.
func canonicalName(named interface{ Name() (string, bool) }, what string, id PortID) string {
	name, ok := named.Name()
	if !ok {
		node.Abort("encode port", "port %d: %s %v has no name", id, what, named)
	}
	return name
}

// ToPersisted returns the persisted form of the port. Enums are written
// under their canonical names only.
func (fields *PortFields) ToPersisted() PersistedPort {
	persisted := PersistedPort{
		ID:               uint32(fields.ID),
		Name:             fields.Name,
		Description:      fields.Description,
		State:            canonicalName(fields.AdminState, "admin state", fields.ID),
		OperState:        fields.OperState == OperStateUp,
		IngressVlan:      uint16(fields.IngressVlan),
		Speed:            canonicalName(fields.Speed, "speed", fields.ID),
		ProfileID:        canonicalName(fields.ProfileID, "profile", fields.ID),
		FEC:              canonicalName(fields.FEC, "FEC", fields.ID),
		LoopbackMode:     canonicalName(fields.LoopbackMode, "loopback mode", fields.ID),
		TxPause:          fields.Pause.Tx,
		RxPause:          fields.Pause.Rx,
		VlanMemberships:  make(map[string]PersistedVlanInfo, len(fields.Vlans)),
		SFlowIngressRate: fields.SFlowIngressRate,
		SFlowEgressRate:  fields.SFlowEgressRate,
		Queues:           make([]PersistedQueue, 0, len(fields.Queues)),
		IngressMirror:    clonePointer(fields.IngressMirror),
		EgressMirror:     clonePointer(fields.EgressMirror),
		QosPolicy:        clonePointer(fields.QosPolicy),
		MaxFrameSize:     fields.MaxFrameSize,
		LookupClasses:    slices.Clone(fields.LookupClassesToDistributeTrafficOn),
	}
	// Readers older than the speed/max-speed split still look here.
	persisted.MaxSpeed = persisted.Speed

	if fields.SampleDest != nil {
		name := canonicalName(*fields.SampleDest, "sample destination", fields.ID)
		persisted.SampleDest = &name
	}
	for _, vlan := range slices.Sorted(maps.Keys(fields.Vlans)) {
		persisted.VlanMemberships[strconv.FormatUint(uint64(vlan), 10)] = PersistedVlanInfo{Tagged: fields.Vlans[vlan].Tagged}
	}
	for _, queue := range fields.Queues {
		persisted.Queues = append(persisted.Queues, PersistedQueue{
			ID:            queue.ID,
			StreamType:    canonicalName(queue.StreamType, "queue stream type", fields.ID),
			Scheduling:    canonicalName(queue.Scheduling, "queue scheduling", fields.ID),
			Weight:        clonePointer(queue.Weight),
			ReservedBytes: clonePointer(queue.ReservedBytes),
			ScalingFactor: clonePointer(queue.ScalingFactor),
			Name:          clonePointer(queue.Name),
			SharedBytes:   clonePointer(queue.SharedBytes),
		})
	}
	return persisted
}

// PortFieldsFromPersisted decodes a persisted port, tolerating every
// older form the agent has written. Values no table recognizes yield a
// *node.InvariantError: the file was written by something this agent
// does not understand and must not be guessed at. logger may be nil.
func PortFieldsFromPersisted(persisted *PersistedPort, logger *slog.Logger) (PortFields, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	id := PortID(persisted.ID)
	fields := NewPortFields(id, persisted.Name)
	fields.Description = persisted.Description

	adminState, ok := adminStateAliases[persisted.State]
	if !ok {
		return PortFields{}, node.Invariant("decode port", "port %d: invalid port state %q", id, persisted.State)
	}
	fields.AdminState = adminState

	if persisted.OperState {
		fields.OperState = OperStateUp
	}
	fields.IngressVlan = VlanID(persisted.IngressVlan)

	var err error
	if fields.Speed, err = switchconfig.ParsePortSpeed(persisted.Speed); err != nil {
		return PortFields{}, node.Invariant("decode port", "port %d: %v", id, err)
	}

	if persisted.ProfileID == "" {
		logger.Warn("port has no profile ID, using default",
			"port", persisted.Name,
			"field", "portProfileID",
			"default", switchconfig.ProfileDefault.String(),
		)
		fields.ProfileID = switchconfig.ProfileDefault
	} else if fields.ProfileID, err = switchconfig.ParsePortProfileID(persisted.ProfileID); err != nil {
		return PortFields{}, node.Invariant("decode port", "port %d: %v", id, err)
	}

	if fields.FEC, err = switchconfig.ParsePortFEC(persisted.FEC); err != nil {
		return PortFields{}, node.Invariant("decode port", "port %d: %v", id, err)
	}

	if persisted.LoopbackMode == "" {
		fields.LoopbackMode = switchconfig.LoopbackNone
	} else if fields.LoopbackMode, err = switchconfig.ParsePortLoopbackMode(persisted.LoopbackMode); err != nil {
		return PortFields{}, node.Invariant("decode port", "port %d: %v", id, err)
	}

	if persisted.SampleDest != nil {
		destination, err := switchconfig.ParseSampleDestination(*persisted.SampleDest)
		if err != nil {
			return PortFields{}, node.Invariant("decode port", "port %d: %v", id, err)
		}
		fields.SampleDest = &destination
	}

	fields.Pause = PortPause{Tx: persisted.TxPause, Rx: persisted.RxPause}

	for key, info := range persisted.VlanMemberships {
		vlan, err := strconv.ParseUint(key, 10, 16)
		if err != nil {
			return PortFields{}, node.Invariant("decode port", "port %d: vlan membership key %q is not a VLAN ID", id, key)
		}
		fields.Vlans[VlanID(vlan)] = VlanInfo{Tagged: info.Tagged}
	}

	fields.SFlowIngressRate = persisted.SFlowIngressRate
	fields.SFlowEgressRate = persisted.SFlowEgressRate

	for index, persistedQueue := range persisted.Queues {
		queue := PortQueue{
			ID:            persistedQueue.ID,
			Weight:        clonePointer(persistedQueue.Weight),
			ReservedBytes: clonePointer(persistedQueue.ReservedBytes),
			ScalingFactor: clonePointer(persistedQueue.ScalingFactor),
			Name:          clonePointer(persistedQueue.Name),
			SharedBytes:   clonePointer(persistedQueue.SharedBytes),
		}
		if queue.StreamType, err = switchconfig.ParseStreamType(persistedQueue.StreamType); err != nil {
			return PortFields{}, node.Invariant("decode port", "port %d queue %d: %v", id, index, err)
		}
		if queue.Scheduling, err = switchconfig.ParseQueueScheduling(persistedQueue.Scheduling); err != nil {
			return PortFields{}, node.Invariant("decode port", "port %d queue %d: %v", id, index, err)
		}
		fields.Queues = append(fields.Queues, queue)
	}

	fields.IngressMirror = clonePointer(persisted.IngressMirror)
	fields.EgressMirror = clonePointer(persisted.EgressMirror)
	fields.QosPolicy = clonePointer(persisted.QosPolicy)
	fields.MaxFrameSize = persisted.MaxFrameSize
	fields.LookupClassesToDistributeTrafficOn = slices.Clone(persisted.LookupClasses)

	return fields, nil
}
