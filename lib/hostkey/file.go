// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hostkey

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// NextHopFile is a JSONC document listing next hops of one VRF, as
// consumed by the switch-state tool:
//
//	{
//	  "vrf": 0,
//	  "nextHops": [
//	    // resolved, swaps to label 100
//	    {"addr": "10.0.0.1", "interface": 5,
//	     "labelForwardingAction": {"type": "SWAP", "swapWith": 100}},
//	  ],
//	}
type NextHopFile struct {
	VRF      VRF       `json:"vrf"`
	NextHops []NextHop `json:"nextHops"`
}

// LoadNextHops reads and parses a next-hop file.
func LoadNextHops(path string) (*NextHopFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading next-hop file: %w", err)
	}
	file, err := ParseNextHops(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}

// ParseNextHops decodes a next-hop document. Comments and trailing
// commas are allowed; unknown fields are not.
func ParseNextHops(data []byte) (*NextHopFile, error) {
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.DisallowUnknownFields()

	var file NextHopFile
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("parsing next hops: %w", err)
	}
	for index, hop := range file.NextHops {
		if !hop.Addr.IsValid() {
			return nil, fmt.Errorf("nextHops[%d]: addr is required", index)
		}
	}
	return &file, nil
}

// DeriveAll derives the key of every next hop in the file and collects
// them into a Set. Next hops that map to the same hardware object
// collapse into one key.
func (file *NextHopFile) DeriveAll() (*Set, error) {
	set := &Set{}
	for index := range file.NextHops {
		key, err := DeriveForwardingKey(file.VRF, &file.NextHops[index])
		if err != nil {
			return nil, fmt.Errorf("nextHops[%d]: %w", index, err)
		}
		set.Add(key)
	}
	return set, nil
}
