// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hostkey

import (
	"errors"
	"fmt"
	"maps"
	"net/netip"
	"slices"
)

// ErrInvalidAction is returned for a label action that lacks the labels
// its type requires.
var ErrInvalidAction = errors.New("hostkey: invalid label forwarding action")

// LabelActionType is the MPLS operation a next hop performs.
type LabelActionType int

const (
	LabelSwap LabelActionType = iota
	LabelPush
	LabelPopAndLookup
	LabelPHP
	LabelNoop
)

var labelActionNames = map[LabelActionType]string{
	LabelSwap:         "SWAP",
	LabelPush:         "PUSH",
	LabelPopAndLookup: "POP_AND_LOOKUP",
	LabelPHP:          "PHP",
	LabelNoop:         "NOOP",
}

func (action LabelActionType) String() string {
	if name, ok := labelActionNames[action]; ok {
		return name
	}
	return fmt.Sprintf("label action(%d)", int(action))
}

func (action LabelActionType) MarshalText() ([]byte, error) {
	name, ok := labelActionNames[action]
	if !ok {
		return nil, fmt.Errorf("no name for label action %d", int(action))
	}
	return []byte(name), nil
}

func (action *LabelActionType) UnmarshalText(text []byte) error {
	for value, name := range labelActionNames {
		if name == string(text) {
			*action = value
			return nil
		}
	}
	return fmt.Errorf("unknown label action %q (valid: %v)", text, slices.Sorted(maps.Values(labelActionNames)))
}

// LabelForwardingAction is the MPLS operation attached to a next hop.
// SwapWith is meaningful only for LabelSwap, PushStack (bottom of stack
// first) only for LabelPush.
type LabelForwardingAction struct {
	Type      LabelActionType `json:"type"`
	SwapWith  *Label          `json:"swapWith,omitempty"`
	PushStack []Label         `json:"pushStack,omitempty"`
}

// NextHop is a forwarding destination of a route. Interface is set once
// the next hop has been resolved to an egress interface.
type NextHop struct {
	Addr      netip.Addr             `json:"addr"`
	Interface *InterfaceID           `json:"interface,omitempty"`
	Weight    uint32                 `json:"weight,omitempty"`
	Action    *LabelForwardingAction `json:"labelForwardingAction,omitempty"`
}

// Resolved reports whether the next hop has an egress interface.
func (hop *NextHop) Resolved() bool {
	return hop.Interface != nil
}

// DeriveForwardingKey returns the key of the hardware object that
// forwards to hop within vrf.
//
// An unresolved next hop, or one whose label action is absent or neither
// SWAP nor PUSH, is keyed by network identity alone (a Key). A resolved
// SWAP next hop is keyed by its swap-to label, a resolved PUSH next hop
// by its whole pushed stack (a LabeledKey).
func DeriveForwardingKey(vrf VRF, hop *NextHop) (HostKey, error) {
	action := hop.Action
	if !hop.Resolved() || action == nil || (action.Type != LabelSwap && action.Type != LabelPush) {
		key, err := NewKey(vrf, hop.Addr, hop.Interface)
		if err != nil {
			return nil, err
		}
		return key, nil
	}

	switch action.Type {
	case LabelSwap:
		if action.SwapWith == nil {
			return nil, fmt.Errorf("next hop %s: SWAP without a swap-to label: %w", hop.Addr, ErrInvalidAction)
		}
		if *action.SwapWith > MaxLabel {
			return nil, fmt.Errorf("next hop %s: swap label %d exceeds %d: %w", hop.Addr, *action.SwapWith, MaxLabel, ErrInvalidAction)
		}
		return NewSwapKey(vrf, *action.SwapWith, hop.Addr, *hop.Interface), nil
	default:
		if len(action.PushStack) == 0 {
			return nil, fmt.Errorf("next hop %s: PUSH with an empty label stack: %w", hop.Addr, ErrInvalidAction)
		}
		for _, label := range action.PushStack {
			if label > MaxLabel {
				return nil, fmt.Errorf("next hop %s: push label %d exceeds %d: %w", hop.Addr, label, MaxLabel, ErrInvalidAction)
			}
		}
		key, err := NewPushKey(vrf, action.PushStack, hop.Addr, *hop.Interface)
		if err != nil {
			return nil, err
		}
		return key, nil
	}
}
