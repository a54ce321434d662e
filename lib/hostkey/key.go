// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hostkey

import (
	"cmp"
	"errors"
	"fmt"
	"net/netip"
	"slices"
	"strconv"
	"strings"
)

// VRF identifies a virtual routing domain.
type VRF uint32

// InterfaceID identifies an L3 interface.
type InterfaceID uint32

// Label is a 20-bit MPLS label.
type Label uint32

// MaxLabel is the largest value an MPLS label can carry.
const MaxLabel Label = 1<<20 - 1

// ErrInvalidKey is matched (via errors.Is) by every *InvalidKeyError.
var ErrInvalidKey = errors.New("hostkey: invalid key")

// InvalidKeyError reports a link-local address given without the
// interface it is scoped to.
type InvalidKeyError struct {
	Addr netip.Addr
}

func (err *InvalidKeyError) Error() string {
	return fmt.Sprintf("hostkey: link-local address %s has no interface scope", err.Addr)
}

// Is makes errors.Is(err, ErrInvalidKey) true.
func (err *InvalidKeyError) Is(target error) bool {
	return target == ErrInvalidKey
}

// HostKey is implemented by Key and LabeledKey.
type HostKey interface {
	VRF() VRF
	Addr() netip.Addr

	// Interface returns the interface scope and whether there is one.
	Interface() (InterfaceID, bool)

	// Compare orders keys totally: -1, 0 or +1 like cmp.Compare. Plain
	// keys sort before labeled keys.
	Compare(other HostKey) int

	String() string
}

// needsScope reports whether addr is only meaningful together with an
// interface: IPv6 link-local unicast. IPv4-mapped addresses are not.
func needsScope(addr netip.Addr) bool {
	return addr.Is6() && !addr.Is4In6() && addr.IsLinkLocalUnicast()
}

// Key is the plain host key: (VRF, address, interface scope). It holds
// an interface scope if and only if the address is IPv6 link-local.
// Keys are values; compare them with Compare or ==.
type Key struct {
	vrf      VRF
	addr     netip.Addr
	intf     InterfaceID
	hasScope bool
}

// NewKey builds a plain key. intf is the interface the next hop was
// resolved through, or nil. For anything but an IPv6 link-local address
// the interface is dropped; for a link-local address it is required.
// A zone on addr is ignored: scope is carried by intf.
func NewKey(vrf VRF, addr netip.Addr, intf *InterfaceID) (Key, error) {
	addr = addr.WithZone("")
	key := Key{vrf: vrf, addr: addr}
	if needsScope(addr) {
		if intf == nil {
			return Key{}, &InvalidKeyError{Addr: addr}
		}
		key.intf = *intf
		key.hasScope = true
	}
	return key, nil
}

func (k Key) VRF() VRF { return k.vrf }

func (k Key) Addr() netip.Addr { return k.addr }

func (k Key) Interface() (InterfaceID, bool) { return k.intf, k.hasScope }

// Compare orders by VRF, then interface scope (unscoped first), then
// address.
func (k Key) Compare(other HostKey) int {
	otherKey, ok := keyValue(other).(Key)
	if !ok {
		// Plain before labeled.
		return -1
	}
	if result := cmp.Compare(k.vrf, otherKey.vrf); result != 0 {
		return result
	}
	if result := compareScope(k.intf, k.hasScope, otherKey.intf, otherKey.hasScope); result != 0 {
		return result
	}
	return k.addr.Compare(otherKey.addr)
}

func (k Key) String() string {
	var builder strings.Builder
	builder.WriteString("host ")
	builder.WriteString(k.addr.String())
	if k.hasScope {
		builder.WriteString("@I")
		builder.WriteString(strconv.FormatUint(uint64(k.intf), 10))
	}
	builder.WriteString("@vrf")
	builder.WriteString(strconv.FormatUint(uint64(k.vrf), 10))
	return builder.String()
}

// keyValue dereferences *Key and *LabeledKey, which satisfy HostKey
// through their method sets, so both forms order the same way.
func keyValue(key HostKey) HostKey {
	switch typed := key.(type) {
	case *Key:
		return *typed
	case *LabeledKey:
		return *typed
	}
	return key
}

func compareScope(a InterfaceID, aSet bool, b InterfaceID, bSet bool) int {
	switch {
	case aSet == bSet:
		if !aSet {
			return 0
		}
		return cmp.Compare(a, b)
	case !aSet:
		return -1
	default:
		return 1
	}
}

// LabeledKey is the host key of a next hop that swaps or pushes MPLS
// labels. The interface is always present. Label is the label the key
// is primarily distinguished by: the swap-to label, or the top of the
// pushed stack. Labels is the full pushed stack, bottom first, and is
// empty for a swap.
type LabeledKey struct {
	vrf    VRF
	label  Label
	intf   InterfaceID
	addr   netip.Addr
	labels []Label
}

// NewSwapKey builds the key of a next hop that swaps the incoming label
// for label.
func NewSwapKey(vrf VRF, label Label, addr netip.Addr, intf InterfaceID) LabeledKey {
	return LabeledKey{vrf: vrf, label: label, intf: intf, addr: addr.WithZone("")}
}

// NewPushKey builds the key of a next hop that pushes stack, bottom of
// stack first. An empty stack is an ErrInvalidAction.
func NewPushKey(vrf VRF, stack []Label, addr netip.Addr, intf InterfaceID) (LabeledKey, error) {
	if len(stack) == 0 {
		return LabeledKey{}, fmt.Errorf("push key for %s: empty label stack: %w", addr, ErrInvalidAction)
	}
	return LabeledKey{
		vrf:    vrf,
		label:  stack[len(stack)-1],
		intf:   intf,
		addr:   addr.WithZone(""),
		labels: slices.Clone(stack),
	}, nil
}

func (k LabeledKey) VRF() VRF { return k.vrf }

func (k LabeledKey) Addr() netip.Addr { return k.addr }

func (k LabeledKey) Interface() (InterfaceID, bool) { return k.intf, true }

// Label returns the swap-to label or the top of the pushed stack.
func (k LabeledKey) Label() Label { return k.label }

// Labels returns a copy of the pushed stack, bottom first.
func (k LabeledKey) Labels() []Label { return slices.Clone(k.labels) }

// Compare orders lexicographically by (VRF, label, interface, address,
// label stack). Labeled keys sort after every plain key.
func (k LabeledKey) Compare(other HostKey) int {
	otherKey, ok := keyValue(other).(LabeledKey)
	if !ok {
		return 1
	}
	return cmp.Or(
		cmp.Compare(k.vrf, otherKey.vrf),
		cmp.Compare(k.label, otherKey.label),
		cmp.Compare(k.intf, otherKey.intf),
		k.addr.Compare(otherKey.addr),
		slices.Compare(k.labels, otherKey.labels),
	)
}

// Equal reports whether both keys address the same hardware object.
// LabeledKey holds a slice, so == does not apply.
func (k LabeledKey) Equal(other LabeledKey) bool {
	return k.Compare(other) == 0
}

func (k LabeledKey) String() string {
	var builder strings.Builder
	builder.WriteString("host ")
	builder.WriteString(k.addr.String())
	builder.WriteString("@I")
	builder.WriteString(strconv.FormatUint(uint64(k.intf), 10))
	builder.WriteString("@label")
	builder.WriteString(strconv.FormatUint(uint64(k.label), 10))
	if len(k.labels) > 0 {
		builder.WriteString("[")
		for index, label := range k.labels {
			if index > 0 {
				builder.WriteString(",")
			}
			builder.WriteString(strconv.FormatUint(uint64(label), 10))
		}
		builder.WriteString("]")
	}
	builder.WriteString("@vrf")
	builder.WriteString(strconv.FormatUint(uint64(k.vrf), 10))
	return builder.String()
}

// Compare orders two keys of either kind. It is HostKey.Compare as a
// function value, for slices.SortFunc and friends.
func Compare(a, b HostKey) int {
	return a.Compare(b)
}

// Equal reports whether a and b address the same hardware object.
func Equal(a, b HostKey) bool {
	return a.Compare(b) == 0
}
