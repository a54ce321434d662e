// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package switchstate

import (
	"github.com/bureau-foundation/switchagent/lib/node"
)

// SwitchStateFields is the value record of the root. Child pointers are
// shared between a root and its clones; only the path a writer modifies
// is ever replaced.
type SwitchStateFields struct {
	DefaultVlan VlanID
	Ports       *PortMap
	Qcm         *QcmConfig
}

// Clone copies the root record shallowly: children are shared.
func (fields SwitchStateFields) Clone() SwitchStateFields {
	return fields
}

// Equal compares the whole tree by value.
func (fields SwitchStateFields) Equal(other SwitchStateFields) bool {
	if fields.DefaultVlan != other.DefaultVlan || !fields.Ports.Equal(other.Ports) {
		return false
	}
	if fields.Qcm == nil || other.Qcm == nil {
		return fields.Qcm == other.Qcm
	}
	return fields.Qcm == other.Qcm || fields.Qcm.SameFields(&other.Qcm.Node)
}

// SwitchState is the root of the state tree.
type SwitchState struct {
	node.Node[SwitchStateFields]
}

// NewSwitchState returns an empty, unpublished root.
func NewSwitchState() *SwitchState {
	return &SwitchState{Node: node.New(SwitchStateFields{Ports: NewPortMap()})}
}

// Ports returns the port container.
func (s *SwitchState) Ports() *PortMap { return s.Get().Ports }

// QcmConfig returns the flow-monitor config, or nil when none is set.
func (s *SwitchState) QcmConfig() *QcmConfig { return s.Get().Qcm }

// DefaultVlan returns the switch-wide default VLAN.
func (s *SwitchState) DefaultVlan() VlanID { return s.Get().DefaultVlan }

// Port looks up a port by ID.
func (s *SwitchState) Port(id PortID) (*Port, bool) { return s.Ports().Get(id) }

// Clone returns an unpublished root sharing every child with s.
func (s *SwitchState) Clone() *SwitchState {
	return &SwitchState{Node: s.CloneNode()}
}

// Equal compares two trees by value.
func (s *SwitchState) Equal(other *SwitchState) bool {
	return s == other || s.SameFields(&other.Node)
}

// ResetPorts installs ports as the port container. The root must be
// writable.
func (s *SwitchState) ResetPorts(ports *PortMap) {
	s.Writable().Ports = ports
}

// ResetQcmConfig installs (or, with nil, removes) the flow-monitor
// config. The root must be writable.
func (s *SwitchState) ResetQcmConfig(qcm *QcmConfig) {
	s.Writable().Qcm = qcm
}

// Modify returns a writable root. s must be the root *holder points at;
// when it is published, *holder is repointed at a clone.
func (s *SwitchState) Modify(holder **SwitchState) *SwitchState {
	if *holder != s {
		node.Abort("modify state", "root is not the held generation")
	}
	if !s.Published() {
		return s
	}
	clone := s.Clone()
	*holder = clone
	return clone
}

// Publish freezes the whole tree.
func (s *SwitchState) Publish() {
	if s.Published() {
		return
	}
	fields := s.Get()
	fields.Ports.Publish()
	if fields.Qcm != nil {
		fields.Qcm.Publish()
	}
	s.Node.Publish()
}
