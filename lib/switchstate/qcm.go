// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package switchstate

import (
	"maps"
	"net/netip"
	"slices"

	"github.com/bureau-foundation/switchagent/lib/node"
)

// Documented defaults of the flow-monitor config. A persisted object
// that omits a field decodes to the value here.
const (
	DefaultNumFlowSamplesPerView uint32 = 1
	DefaultFlowLimit             uint32 = 10
	DefaultNumFlowsClear         uint32 = 0
	DefaultScanIntervalInUsecs   uint32 = 10
	DefaultExportThreshold       uint32 = 3000
	DefaultAgingIntervalInMsecs  uint32 = 5000
	DefaultCollectorDstPort      uint16 = 0
)

// UnsetCollectorPrefix is the collector address of a config that names
// none.
var UnsetCollectorPrefix = netip.PrefixFrom(netip.IPv6Unspecified(), 0)

// QcmConfigFields is the value record of the queue-congestion monitor:
// which flows to sample on congested queues and where to export them.
type QcmConfigFields struct {
	NumFlowSamplesPerView uint32
	FlowLimit             uint32
	NumFlowsClear         uint32
	ScanIntervalInUsecs   uint32
	ExportThreshold       uint32

	// FlowWeights maps a flow-key field index to its weight in the
	// congestion score.
	FlowWeights map[int32]int32

	AgingIntervalInMsecs uint32

	CollectorDstIP netip.Prefix
	CollectorSrcIP netip.Prefix

	CollectorSrcPort *uint16
	CollectorDstPort uint16
	CollectorDscp    *uint8
	PpsToQcm         *uint32

	MonitorQcmPortList []PortID
}

// DefaultQcmConfigFields returns the record with every documented
// default applied.
func DefaultQcmConfigFields() QcmConfigFields {
	return QcmConfigFields{
		NumFlowSamplesPerView: DefaultNumFlowSamplesPerView,
		FlowLimit:             DefaultFlowLimit,
		NumFlowsClear:         DefaultNumFlowsClear,
		ScanIntervalInUsecs:   DefaultScanIntervalInUsecs,
		ExportThreshold:       DefaultExportThreshold,
		FlowWeights:           map[int32]int32{},
		AgingIntervalInMsecs:  DefaultAgingIntervalInMsecs,
		CollectorDstIP:        UnsetCollectorPrefix,
		CollectorSrcIP:        UnsetCollectorPrefix,
		CollectorDstPort:      DefaultCollectorDstPort,
	}
}

func (fields QcmConfigFields) Clone() QcmConfigFields {
	fields.FlowWeights = maps.Clone(fields.FlowWeights)
	fields.CollectorSrcPort = clonePointer(fields.CollectorSrcPort)
	fields.CollectorDscp = clonePointer(fields.CollectorDscp)
	fields.PpsToQcm = clonePointer(fields.PpsToQcm)
	fields.MonitorQcmPortList = slices.Clone(fields.MonitorQcmPortList)
	return fields
}

func (fields QcmConfigFields) Equal(other QcmConfigFields) bool {
	return fields.NumFlowSamplesPerView == other.NumFlowSamplesPerView &&
		fields.FlowLimit == other.FlowLimit &&
		fields.NumFlowsClear == other.NumFlowsClear &&
		fields.ScanIntervalInUsecs == other.ScanIntervalInUsecs &&
		fields.ExportThreshold == other.ExportThreshold &&
		maps.Equal(fields.FlowWeights, other.FlowWeights) &&
		fields.AgingIntervalInMsecs == other.AgingIntervalInMsecs &&
		fields.CollectorDstIP == other.CollectorDstIP &&
		fields.CollectorSrcIP == other.CollectorSrcIP &&
		equalPointer(fields.CollectorSrcPort, other.CollectorSrcPort) &&
		fields.CollectorDstPort == other.CollectorDstPort &&
		equalPointer(fields.CollectorDscp, other.CollectorDscp) &&
		equalPointer(fields.PpsToQcm, other.PpsToQcm) &&
		slices.Equal(fields.MonitorQcmPortList, other.MonitorQcmPortList)
}

// QcmConfig is the flow-monitor config node. The root holds at most one.
type QcmConfig struct {
	node.Node[QcmConfigFields]
}

// NewQcmConfig returns an unpublished node holding fields.
func NewQcmConfig(fields QcmConfigFields) *QcmConfig {
	return &QcmConfig{Node: node.New(fields)}
}

// Clone returns an unpublished deep copy.
func (q *QcmConfig) Clone() *QcmConfig {
	return &QcmConfig{Node: q.CloneNode()}
}

// Modify returns a writable version of this config inside the tree
// *holder points at, forking the root if needed.
func (q *QcmConfig) Modify(holder **SwitchState) *QcmConfig {
	if !q.Published() {
		if (*holder).Published() {
			node.Abort("modify qcm config", "config is unpublished but the held root is published")
		}
		return q
	}
	if (*holder).QcmConfig() != q {
		node.Abort("modify qcm config", "config is not part of the held generation")
	}

	state := (*holder).Modify(holder)
	clone := q.Clone()
	state.ResetQcmConfig(clone)
	return clone
}
