// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package switchstate

import (
	"fmt"
	"maps"
	"slices"

	"github.com/bureau-foundation/switchagent/lib/node"
	"github.com/bureau-foundation/switchagent/lib/switchconfig"
)

// PortID is the logical identifier of a front-panel port.
type PortID uint32

// VlanID is an 802.1Q VLAN identifier.
type VlanID uint16

// OperState is the link state reported by hardware.
type OperState int

const (
	OperStateDown OperState = iota
	OperStateUp
)

func (state OperState) String() string {
	if state == OperStateUp {
		return "UP"
	}
	return "DOWN"
}

// VlanInfo describes a port's membership in one VLAN.
type VlanInfo struct {
	Tagged bool
}

// PortPause is the 802.3x pause configuration of a port.
type PortPause struct {
	Tx bool
	Rx bool
}

// PortQueue is the configuration of one egress queue.
type PortQueue struct {
	ID            uint8
	StreamType    switchconfig.StreamType
	Scheduling    switchconfig.QueueScheduling
	Weight        *int32
	ReservedBytes *int32
	ScalingFactor *string
	Name          *string
	SharedBytes   *int32
}

// Clone returns a deep copy.
func (queue PortQueue) Clone() PortQueue {
	queue.Weight = clonePointer(queue.Weight)
	queue.ReservedBytes = clonePointer(queue.ReservedBytes)
	queue.ScalingFactor = clonePointer(queue.ScalingFactor)
	queue.Name = clonePointer(queue.Name)
	queue.SharedBytes = clonePointer(queue.SharedBytes)
	return queue
}

// Equal reports value equality.
func (queue PortQueue) Equal(other PortQueue) bool {
	return queue.ID == other.ID &&
		queue.StreamType == other.StreamType &&
		queue.Scheduling == other.Scheduling &&
		equalPointer(queue.Weight, other.Weight) &&
		equalPointer(queue.ReservedBytes, other.ReservedBytes) &&
		equalPointer(queue.ScalingFactor, other.ScalingFactor) &&
		equalPointer(queue.Name, other.Name) &&
		equalPointer(queue.SharedBytes, other.SharedBytes)
}

// PortFields is the value record of a port.
type PortFields struct {
	ID           PortID
	Name         string
	Description  string
	AdminState   switchconfig.PortState
	OperState    OperState
	IngressVlan  VlanID
	Speed        switchconfig.PortSpeed
	ProfileID    switchconfig.PortProfileID
	FEC          switchconfig.PortFEC
	LoopbackMode switchconfig.PortLoopbackMode

	// SampleDest is nil when sFlow sampling is not configured.
	SampleDest *switchconfig.SampleDestination

	Pause PortPause
	Vlans map[VlanID]VlanInfo

	SFlowIngressRate uint64
	SFlowEgressRate  uint64

	Queues []PortQueue

	IngressMirror *string
	EgressMirror  *string
	QosPolicy     *string

	MaxFrameSize uint32

	LookupClassesToDistributeTrafficOn []int32
}

// NewPortFields returns the record of a port that exists in hardware but
// has not been configured: disabled, platform-default speed and profile,
// no FEC, no loopback.
func NewPortFields(id PortID, name string) PortFields {
	return PortFields{
		ID:           id,
		Name:         name,
		AdminState:   switchconfig.PortStateDisabled,
		OperState:    OperStateDown,
		Speed:        switchconfig.PortSpeedDefault,
		ProfileID:    switchconfig.ProfileDefault,
		FEC:          switchconfig.FECNone,
		LoopbackMode: switchconfig.LoopbackNone,
		Vlans:        map[VlanID]VlanInfo{},
	}
}

// Clone returns a deep copy sharing no memory with fields.
func (fields PortFields) Clone() PortFields {
	fields.SampleDest = clonePointer(fields.SampleDest)
	fields.Vlans = maps.Clone(fields.Vlans)
	if fields.Queues != nil {
		queues := make([]PortQueue, len(fields.Queues))
		for index, queue := range fields.Queues {
			queues[index] = queue.Clone()
		}
		fields.Queues = queues
	}
	fields.IngressMirror = clonePointer(fields.IngressMirror)
	fields.EgressMirror = clonePointer(fields.EgressMirror)
	fields.QosPolicy = clonePointer(fields.QosPolicy)
	fields.LookupClassesToDistributeTrafficOn = slices.Clone(fields.LookupClassesToDistributeTrafficOn)
	return fields
}

// Equal reports value equality. A nil and an empty collection are equal.
func (fields PortFields) Equal(other PortFields) bool {
	return fields.ID == other.ID &&
		fields.Name == other.Name &&
		fields.Description == other.Description &&
		fields.AdminState == other.AdminState &&
		fields.OperState == other.OperState &&
		fields.IngressVlan == other.IngressVlan &&
		fields.Speed == other.Speed &&
		fields.ProfileID == other.ProfileID &&
		fields.FEC == other.FEC &&
		fields.LoopbackMode == other.LoopbackMode &&
		equalPointer(fields.SampleDest, other.SampleDest) &&
		fields.Pause == other.Pause &&
		maps.Equal(fields.Vlans, other.Vlans) &&
		fields.SFlowIngressRate == other.SFlowIngressRate &&
		fields.SFlowEgressRate == other.SFlowEgressRate &&
		slices.EqualFunc(fields.Queues, other.Queues, PortQueue.Equal) &&
		equalPointer(fields.IngressMirror, other.IngressMirror) &&
		equalPointer(fields.EgressMirror, other.EgressMirror) &&
		equalPointer(fields.QosPolicy, other.QosPolicy) &&
		fields.MaxFrameSize == other.MaxFrameSize &&
		slices.Equal(fields.LookupClassesToDistributeTrafficOn, other.LookupClassesToDistributeTrafficOn)
}

// Port is a front-panel port node.
type Port struct {
	node.Node[PortFields]
}

// NewPort returns an unpublished port holding fields.
func NewPort(fields PortFields) *Port {
	return &Port{Node: node.New(fields)}
}

// NodeID returns the port's key in its PortMap. The ID must not change
// once the port is stored; publishing such a tree aborts.
func (p *Port) NodeID() PortID { return p.Get().ID }

// ID returns the logical port ID.
func (p *Port) ID() PortID { return p.Get().ID }

// Name returns the port name.
func (p *Port) Name() string { return p.Get().Name }

// Clone returns an unpublished deep copy.
func (p *Port) Clone() *Port {
	return &Port{Node: p.CloneNode()}
}

func (p *Port) String() string {
	fields := p.Get()
	return fmt.Sprintf("port %d (%s) admin=%s oper=%s speed=%s", fields.ID, fields.Name, fields.AdminState, fields.OperState, fields.Speed)
}

// InitDefaultConfigState fills config with the bare configuration of
// this port: its identifiers, administratively disabled, everything else
// at configuration defaults. The agent applies it to ports that exist
// in hardware but are missing from the submitted configuration.
func (p *Port) InitDefaultConfigState(config *switchconfig.Port) {
	*config = switchconfig.Port{
		LogicalID:    uint32(p.ID()),
		Name:         p.Name(),
		State:        switchconfig.PortStateDisabled,
		Speed:        switchconfig.PortSpeedDefault,
		ProfileID:    switchconfig.ProfileDefault,
		FEC:          switchconfig.FECNone,
		LoopbackMode: switchconfig.LoopbackNone,
	}
}

// Modify returns a writable version of this port inside the tree *holder
// points at, forking the port, the PortMap, and the root as needed.
func (p *Port) Modify(holder **SwitchState) *Port {
	if !p.Published() {
		if (*holder).Published() {
			node.Abort("modify port", "port %d is unpublished but the held root is published", p.ID())
		}
		return p
	}

	ports := (*holder).Ports().Modify(holder)
	if current, ok := ports.Get(p.ID()); !ok || current != p {
		node.Abort("modify port", "port %d is not part of the held generation", p.ID())
	}
	clone := p.Clone()
	if err := ports.UpdatePort(clone); err != nil {
		node.Abort("modify port", "%v", err)
	}
	return clone
}
