// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package switchstate

// PortChange is a port present in both generations whose fields differ.
type PortChange struct {
	Old *Port
	New *Port
}

// Delta describes what changed between two generations. The hardware
// layer consumes it to program only what differs.
type Delta struct {
	Old *SwitchState
	New *SwitchState

	AddedPorts   []*Port
	RemovedPorts []*Port
	ChangedPorts []PortChange

	QcmChanged bool
}

// NewDelta compares two trees. Subtrees shared by both generations are
// skipped without inspecting their fields.
func NewDelta(oldState, newState *SwitchState) *Delta {
	delta := &Delta{Old: oldState, New: newState}
	if oldState == newState {
		return delta
	}

	oldPorts, newPorts := oldState.Ports(), newState.Ports()
	if oldPorts != newPorts {
		for id, oldPort := range oldPorts.All() {
			newPort, ok := newPorts.Get(id)
			switch {
			case !ok:
				delta.RemovedPorts = append(delta.RemovedPorts, oldPort)
			case oldPort != newPort && !oldPort.SameFields(&newPort.Node):
				delta.ChangedPorts = append(delta.ChangedPorts, PortChange{Old: oldPort, New: newPort})
			}
		}
		for id, newPort := range newPorts.All() {
			if _, ok := oldPorts.Get(id); !ok {
				delta.AddedPorts = append(delta.AddedPorts, newPort)
			}
		}
	}

	oldQcm, newQcm := oldState.QcmConfig(), newState.QcmConfig()
	switch {
	case oldQcm == newQcm:
	case oldQcm == nil || newQcm == nil:
		delta.QcmChanged = true
	default:
		delta.QcmChanged = !oldQcm.SameFields(&newQcm.Node)
	}
	return delta
}

// Empty reports whether the generations are equivalent as far as the
// hardware is concerned.
func (d *Delta) Empty() bool {
	return len(d.AddedPorts) == 0 && len(d.RemovedPorts) == 0 && len(d.ChangedPorts) == 0 &&
		!d.QcmChanged && d.Old.DefaultVlan() == d.New.DefaultVlan()
}
