// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package switchstate

import (
	"fmt"
	"log/slog"
)

// PersistedSwitchState is the persisted form of the whole tree. Ports
// are written in ascending ID order.
type PersistedSwitchState struct {
	DefaultVlan uint16              `json:"defaultVlan"`
	Ports       []PersistedPort     `json:"ports"`
	Qcm         *PersistedQcmConfig `json:"qcmConfig,omitempty"`
}

// ToPersisted returns the persisted form of the tree.
func (s *SwitchState) ToPersisted() *PersistedSwitchState {
	persisted := &PersistedSwitchState{
		DefaultVlan: uint16(s.DefaultVlan()),
		Ports:       make([]PersistedPort, 0, s.Ports().Len()),
	}
	for _, port := range s.Ports().All() {
		persisted.Ports = append(persisted.Ports, port.Get().ToPersisted())
	}
	if qcm := s.QcmConfig(); qcm != nil {
		persistedQcm := qcm.Get().ToPersisted()
		persisted.Qcm = &persistedQcm
	}
	return persisted
}

// SwitchStateFromPersisted rebuilds an unpublished tree from its
// persisted form. Errors from unrecognized values are
// *node.InvariantError; a port ID appearing twice wraps node.ErrExists.
func SwitchStateFromPersisted(persisted *PersistedSwitchState, logger *slog.Logger) (*SwitchState, error) {
	state := NewSwitchState()
	fields := state.Writable()
	fields.DefaultVlan = VlanID(persisted.DefaultVlan)

	for index := range persisted.Ports {
		portFields, err := PortFieldsFromPersisted(&persisted.Ports[index], logger)
		if err != nil {
			return nil, err
		}
		if err := fields.Ports.AddPort(NewPort(portFields)); err != nil {
			return nil, fmt.Errorf("restoring port %d: %w", portFields.ID, err)
		}
	}

	if persisted.Qcm != nil {
		qcmFields, err := QcmConfigFieldsFromPersisted(persisted.Qcm)
		if err != nil {
			return nil, err
		}
		fields.Qcm = NewQcmConfig(qcmFields)
	}
	return state, nil
}

