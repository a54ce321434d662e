// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package switchconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/netip"
	"os"

	"github.com/tidwall/jsonc"
)

// Config is the desired configuration of the whole switch.
type Config struct {
	// DefaultVlan is the VLAN untagged traffic lands in when a port has
	// no ingress VLAN of its own.
	DefaultVlan uint16 `json:"defaultVlan"`

	// Ports lists every configured port. Ports known to the platform
	// but absent here are reset to a disabled stub.
	Ports []Port `json:"ports"`

	// Qcm configures queue-congestion flow monitoring. Nil disables it.
	Qcm *QcmConfig `json:"qcmConfig,omitempty"`
}

// Port is the configuration of one front-panel port.
type Port struct {
	LogicalID    uint32           `json:"logicalID"`
	Name         string           `json:"name,omitempty"`
	Description  string           `json:"description,omitempty"`
	State        PortState        `json:"state"`
	IngressVlan  uint16           `json:"ingressVlan"`
	Speed        PortSpeed        `json:"speed"`
	ProfileID    PortProfileID    `json:"profileID"`
	FEC          PortFEC          `json:"fec"`
	LoopbackMode PortLoopbackMode `json:"loopbackMode"`

	// SampleDest is nil when sFlow sampling is not configured.
	SampleDest *SampleDestination `json:"sampleDest,omitempty"`

	Pause PortPause `json:"pause"`

	// Vlans lists the VLANs the port is a member of.
	Vlans []VlanMembership `json:"vlans,omitempty"`

	SFlowIngressRate uint64 `json:"sFlowIngressRate"`
	SFlowEgressRate  uint64 `json:"sFlowEgressRate"`

	// Queues is ordered by queue ID.
	Queues []PortQueue `json:"queues,omitempty"`

	IngressMirror *string `json:"ingressMirror,omitempty"`
	EgressMirror  *string `json:"egressMirror,omitempty"`
	QosPolicy     *string `json:"qosPolicy,omitempty"`

	MaxFrameSize uint32 `json:"maxFrameSize"`

	// LookupClasses are the ACL lookup classes the port spreads traffic
	// across when it is a member of a load-balanced group.
	LookupClasses []int32 `json:"lookupClassesToDistributeTrafficOn,omitempty"`
}

// PortPause is the 802.3x pause frame configuration of a port.
type PortPause struct {
	Tx bool `json:"tx"`
	Rx bool `json:"rx"`
}

// VlanMembership places a port in a VLAN.
type VlanMembership struct {
	VlanID uint16 `json:"vlanID"`
	Tagged bool   `json:"tagged"`
}

// PortQueue configures one egress queue of a port.
type PortQueue struct {
	ID            uint8           `json:"id"`
	StreamType    StreamType      `json:"streamType"`
	Scheduling    QueueScheduling `json:"scheduling"`
	Weight        *int32          `json:"weight,omitempty"`
	ReservedBytes *int32          `json:"reservedBytes,omitempty"`
	ScalingFactor *string         `json:"scalingFactor,omitempty"`
	Name          *string         `json:"name,omitempty"`
	SharedBytes   *int32          `json:"sharedBytes,omitempty"`
}

// QcmConfig configures queue-congestion monitoring: flow sampling on
// congested queues, exported to a collector.
type QcmConfig struct {
	NumFlowSamplesPerView uint32          `json:"numFlowSamplesPerView"`
	FlowLimit             uint32          `json:"flowLimit"`
	NumFlowsClear         uint32          `json:"numFlowsClear"`
	ScanIntervalInUsecs   uint32          `json:"scanIntervalInUsecs"`
	ExportThreshold       uint32          `json:"exportThreshold"`
	FlowWeights           map[int32]int32 `json:"flowWeights,omitempty"`
	AgingIntervalInMsecs  uint32          `json:"agingIntervalInMsecs"`
	CollectorDstIP        netip.Prefix    `json:"collectorDstIp"`
	CollectorSrcIP        netip.Prefix    `json:"collectorSrcIp"`
	CollectorSrcPort      *uint16         `json:"collectorSrcPort,omitempty"`
	CollectorDstPort      uint16          `json:"collectorDstPort"`
	CollectorDscp         *uint8          `json:"collectorDscp,omitempty"`
	PpsToQcm              *uint32         `json:"ppsToQcm,omitempty"`
	MonitorQcmPortList    []uint32        `json:"monitorQcmPortList,omitempty"`
}

// Load reads and parses a JSONC configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading switch config: %w", err)
	}
	config, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

// Parse strips JSONC comments and trailing commas from data, decodes the
// result strictly (unknown fields are errors), and validates it.
func Parse(data []byte) (*Config, error) {
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.DisallowUnknownFields()

	var config Config
	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("parsing switch config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks cross-field constraints that decoding alone cannot.
func (c *Config) Validate() error {
	var errs []error

	seen := make(map[uint32]bool, len(c.Ports))
	for index, port := range c.Ports {
		if seen[port.LogicalID] {
			errs = append(errs, fmt.Errorf("ports[%d]: duplicate logicalID %d", index, port.LogicalID))
		}
		seen[port.LogicalID] = true

		if port.State == 0 {
			errs = append(errs, fmt.Errorf("ports[%d]: state is required", index))
		}
		if port.FEC == 0 {
			errs = append(errs, fmt.Errorf("ports[%d]: fec is required", index))
		}

		vlans := make(map[uint16]bool, len(port.Vlans))
		for _, membership := range port.Vlans {
			if vlans[membership.VlanID] {
				errs = append(errs, fmt.Errorf("ports[%d]: duplicate membership in vlan %d", index, membership.VlanID))
			}
			vlans[membership.VlanID] = true
		}

		queues := make(map[uint8]bool, len(port.Queues))
		for _, queue := range port.Queues {
			if queues[queue.ID] {
				errs = append(errs, fmt.Errorf("ports[%d]: duplicate queue id %d", index, queue.ID))
			}
			queues[queue.ID] = true
		}
	}

	if c.Qcm != nil {
		for _, portID := range c.Qcm.MonitorQcmPortList {
			if !seen[portID] {
				errs = append(errs, fmt.Errorf("qcmConfig.monitorQcmPortList: port %d is not configured", portID))
			}
		}
		if c.Qcm.CollectorDscp != nil && *c.Qcm.CollectorDscp > 63 {
			errs = append(errs, fmt.Errorf("qcmConfig.collectorDscp: %d exceeds 63", *c.Qcm.CollectorDscp))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Port returns the configuration of the port with the given logical ID.
func (c *Config) Port(logicalID uint32) (*Port, bool) {
	for index := range c.Ports {
		if c.Ports[index].LogicalID == logicalID {
			return &c.Ports[index], true
		}
	}
	return nil, false
}
