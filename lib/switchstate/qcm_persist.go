// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package switchstate

import (
	"maps"
	"net/netip"
	"slices"
	"strconv"

	"github.com/bureau-foundation/switchagent/lib/node"
)

// PersistedQcmConfig is the persisted form of the flow-monitor config.
// Every field is optional on read: an absent field takes its documented
// default, which lets files written before a field existed load
// unchanged.
type PersistedQcmConfig struct {
	NumFlowSamplesPerView *uint32          `json:"numFlowSamplesPerView,omitempty"`
	FlowLimit             *uint32          `json:"flowLimit,omitempty"`
	NumFlowsClear         *uint32          `json:"numFlowsClear,omitempty"`
	ScanIntervalInUsecs   *uint32          `json:"scanIntervalInUsecs,omitempty"`
	ExportThreshold       *uint32          `json:"exportThreshold,omitempty"`
	FlowWeights           map[string]int32 `json:"flowWeights"`
	AgingIntervalInMsecs  *uint32          `json:"agingIntervalInMsecs,omitempty"`
	CollectorDstIP        string           `json:"collectorDstIp,omitempty"`
	CollectorSrcPort      *uint16          `json:"collectorSrcPort,omitempty"`
	CollectorDstPort      *uint16          `json:"collectorDstPort,omitempty"`
	CollectorDscp         *uint8           `json:"collectorDscp,omitempty"`
	PpsToQcm              *uint32          `json:"ppsToQcm,omitempty"`
	CollectorSrcIP        string           `json:"collectorSrcIp,omitempty"`
	MonitorQcmPortList    []uint32         `json:"monitorQcmPortList"`
}

func valuePointer[T any](value T) *T { return &value }

func prefixString(prefix netip.Prefix) string {
	if !prefix.IsValid() {
		return UnsetCollectorPrefix.String()
	}
	return prefix.String()
}

// ToPersisted returns the persisted form. Every field is written; the
// optional ones only when set.
func (fields *QcmConfigFields) ToPersisted() PersistedQcmConfig {
	persisted := PersistedQcmConfig{
		NumFlowSamplesPerView: valuePointer(fields.NumFlowSamplesPerView),
		FlowLimit:             valuePointer(fields.FlowLimit),
		NumFlowsClear:         valuePointer(fields.NumFlowsClear),
		ScanIntervalInUsecs:   valuePointer(fields.ScanIntervalInUsecs),
		ExportThreshold:       valuePointer(fields.ExportThreshold),
		FlowWeights:           make(map[string]int32, len(fields.FlowWeights)),
		AgingIntervalInMsecs:  valuePointer(fields.AgingIntervalInMsecs),
		CollectorDstIP:        prefixString(fields.CollectorDstIP),
		CollectorSrcPort:      clonePointer(fields.CollectorSrcPort),
		CollectorDstPort:      valuePointer(fields.CollectorDstPort),
		CollectorDscp:         clonePointer(fields.CollectorDscp),
		PpsToQcm:              clonePointer(fields.PpsToQcm),
		CollectorSrcIP:        prefixString(fields.CollectorSrcIP),
	}
	for _, field := range slices.Sorted(maps.Keys(fields.FlowWeights)) {
		persisted.FlowWeights[strconv.FormatInt(int64(field), 10)] = fields.FlowWeights[field]
	}
	persisted.MonitorQcmPortList = make([]uint32, 0, len(fields.MonitorQcmPortList))
	for _, port := range fields.MonitorQcmPortList {
		persisted.MonitorQcmPortList = append(persisted.MonitorQcmPortList, uint32(port))
	}
	return persisted
}

// QcmConfigFieldsFromPersisted decodes a persisted flow-monitor config.
// A malformed address or weight key is a *node.InvariantError.
func QcmConfigFieldsFromPersisted(persisted *PersistedQcmConfig) (QcmConfigFields, error) {
	fields := DefaultQcmConfigFields()

	setIfPresent(&fields.NumFlowSamplesPerView, persisted.NumFlowSamplesPerView)
	setIfPresent(&fields.FlowLimit, persisted.FlowLimit)
	setIfPresent(&fields.NumFlowsClear, persisted.NumFlowsClear)
	setIfPresent(&fields.ScanIntervalInUsecs, persisted.ScanIntervalInUsecs)
	setIfPresent(&fields.ExportThreshold, persisted.ExportThreshold)
	setIfPresent(&fields.AgingIntervalInMsecs, persisted.AgingIntervalInMsecs)
	setIfPresent(&fields.CollectorDstPort, persisted.CollectorDstPort)

	for key, weight := range persisted.FlowWeights {
		field, err := strconv.ParseInt(key, 10, 32)
		if err != nil {
			return QcmConfigFields{}, node.Invariant("decode qcm config", "flow weight key %q is not a field index", key)
		}
		fields.FlowWeights[int32(field)] = weight
	}

	var err error
	if fields.CollectorDstIP, err = parseCollectorPrefix(persisted.CollectorDstIP); err != nil {
		return QcmConfigFields{}, node.Invariant("decode qcm config", "collectorDstIp: %v", err)
	}
	if fields.CollectorSrcIP, err = parseCollectorPrefix(persisted.CollectorSrcIP); err != nil {
		return QcmConfigFields{}, node.Invariant("decode qcm config", "collectorSrcIp: %v", err)
	}

	fields.CollectorSrcPort = clonePointer(persisted.CollectorSrcPort)
	fields.CollectorDscp = clonePointer(persisted.CollectorDscp)
	fields.PpsToQcm = clonePointer(persisted.PpsToQcm)

	for _, port := range persisted.MonitorQcmPortList {
		fields.MonitorQcmPortList = append(fields.MonitorQcmPortList, PortID(port))
	}
	return fields, nil
}

func setIfPresent[T any](target *T, value *T) {
	if value != nil {
		*target = *value
	}
}

// parseCollectorPrefix accepts a prefix or a bare address (taken as a
// host prefix). The empty string is the unset collector.
func parseCollectorPrefix(text string) (netip.Prefix, error) {
	if text == "" {
		return UnsetCollectorPrefix, nil
	}
	if prefix, err := netip.ParsePrefix(text); err == nil {
		return prefix, nil
	}
	addr, err := netip.ParseAddr(text)
	if err != nil {
		return netip.Prefix{}, err
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}
