// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package switchstate

import (
	"github.com/bureau-foundation/switchagent/lib/node"
)

// PortMap is the container of all ports, keyed by PortID.
type PortMap struct {
	node.Map[PortID, *Port]
}

// NewPortMap returns an empty unpublished PortMap.
func NewPortMap() *PortMap {
	return &PortMap{Map: node.NewMap[PortID, *Port]()}
}

// AddPort inserts a new port.
func (m *PortMap) AddPort(port *Port) error { return m.Add(port) }

// UpdatePort replaces the port with the same ID.
func (m *PortMap) UpdatePort(port *Port) error { return m.Update(port) }

// RemovePort deletes a port.
func (m *PortMap) RemovePort(id PortID) error { return m.Remove(id) }

// Clone returns an unpublished PortMap sharing every port with m.
func (m *PortMap) Clone() *PortMap {
	return &PortMap{Map: m.CloneMap()}
}

// Equal reports whether both maps hold value-equal ports under the same
// IDs.
func (m *PortMap) Equal(other *PortMap) bool {
	if m == other {
		return true
	}
	if m == nil || other == nil || m.Len() != other.Len() {
		return false
	}
	for id, port := range m.All() {
		otherPort, ok := other.Get(id)
		if !ok {
			return false
		}
		if port != otherPort && !port.SameFields(&otherPort.Node) {
			return false
		}
	}
	return true
}

// Modify returns a writable version of this map inside the tree *holder
// points at, forking the root if needed.
func (m *PortMap) Modify(holder **SwitchState) *PortMap {
	if !m.Published() {
		if (*holder).Published() {
			node.Abort("modify ports", "port map is unpublished but the held root is published")
		}
		return m
	}
	if (*holder).Ports() != m {
		node.Abort("modify ports", "port map is not part of the held generation")
	}

	state := (*holder).Modify(holder)
	clone := m.Clone()
	state.ResetPorts(clone)
	return clone
}
