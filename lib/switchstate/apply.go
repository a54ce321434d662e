// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package switchstate

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/bureau-foundation/switchagent/lib/switchconfig"
)

// ApplyConfig rewrites the tree *holder points at so that it matches
// config. Only nodes whose fields actually change are forked: applying
// the configuration the tree already reflects leaves *holder untouched.
//
// Ports present in the tree but absent from config are reset to their
// default configuration (administratively disabled), not removed: the
// port still exists in hardware. Hardware link state is carried over.
func ApplyConfig(holder **SwitchState, config *switchconfig.Config, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("applying switch config: %w", err)
	}

	original := *holder

	if vlan := VlanID(config.DefaultVlan); original.DefaultVlan() != vlan {
		(*holder).Modify(holder).Writable().DefaultVlan = vlan
		logger.Info("default vlan changed", "vlan", vlan)
	}

	for id, port := range original.Ports().All() {
		if _, configured := config.Port(uint32(id)); configured {
			continue
		}
		var defaults switchconfig.Port
		port.InitDefaultConfigState(&defaults)
		desired := PortFieldsFromConfig(&defaults, port.Get())
		if !port.Get().Equal(desired) {
			*port.Modify(holder).Writable() = desired
			logger.Info("unconfigured port reset to defaults", "port", port.Name(), "port_id", id)
		}
	}

	for index := range config.Ports {
		portConfig := &config.Ports[index]
		id := PortID(portConfig.LogicalID)
		existing, ok := original.Ports().Get(id)
		if !ok {
			fields := PortFieldsFromConfig(portConfig, nil)
			if err := (*holder).Ports().Modify(holder).AddPort(NewPort(fields)); err != nil {
				return fmt.Errorf("adding port %d: %w", id, err)
			}
			logger.Info("port added", "port", fields.Name, "port_id", id)
			continue
		}
		desired := PortFieldsFromConfig(portConfig, existing.Get())
		if existing.Get().Equal(desired) {
			continue
		}
		*existing.Modify(holder).Writable() = desired
		logger.Info("port reconfigured", "port", desired.Name, "port_id", id)
	}

	return applyQcmConfig(holder, config.Qcm, logger)
}

func applyQcmConfig(holder **SwitchState, config *switchconfig.QcmConfig, logger *slog.Logger) error {
	current := (*holder).QcmConfig()
	if config == nil {
		if current != nil {
			(*holder).Modify(holder).ResetQcmConfig(nil)
			logger.Info("qcm config removed")
		}
		return nil
	}

	desired := QcmConfigFieldsFromConfig(config)
	if current != nil && current.Get().Equal(desired) {
		return nil
	}
	(*holder).Modify(holder).ResetQcmConfig(NewQcmConfig(desired))
	logger.Info("qcm config updated",
		"flow_limit", desired.FlowLimit,
		"monitored_ports", len(desired.MonitorQcmPortList),
	)
	return nil
}

// PortFieldsFromConfig builds the record a port should hold under
// config. When previous is non-nil the hardware-reported link state is
// carried over, and so is the name if config leaves it empty.
func PortFieldsFromConfig(config *switchconfig.Port, previous *PortFields) PortFields {
	id := PortID(config.LogicalID)
	name := config.Name
	if name == "" && previous != nil {
		name = previous.Name
	}

	fields := NewPortFields(id, name)
	fields.Description = config.Description
	fields.AdminState = config.State
	if previous != nil {
		fields.OperState = previous.OperState
	}
	fields.IngressVlan = VlanID(config.IngressVlan)
	fields.Speed = config.Speed
	fields.ProfileID = config.ProfileID
	fields.FEC = config.FEC
	fields.LoopbackMode = config.LoopbackMode
	fields.SampleDest = clonePointer(config.SampleDest)
	fields.Pause = PortPause{Tx: config.Pause.Tx, Rx: config.Pause.Rx}
	for _, membership := range config.Vlans {
		fields.Vlans[VlanID(membership.VlanID)] = VlanInfo{Tagged: membership.Tagged}
	}
	fields.SFlowIngressRate = config.SFlowIngressRate
	fields.SFlowEgressRate = config.SFlowEgressRate

	queues := slices.SortedFunc(slices.Values(config.Queues), func(a, b switchconfig.PortQueue) int {
		return int(a.ID) - int(b.ID)
	})
	for _, queue := range queues {
		fields.Queues = append(fields.Queues, PortQueue{
			ID:            queue.ID,
			StreamType:    queue.StreamType,
			Scheduling:    queue.Scheduling,
			Weight:        clonePointer(queue.Weight),
			ReservedBytes: clonePointer(queue.ReservedBytes),
			ScalingFactor: clonePointer(queue.ScalingFactor),
			Name:          clonePointer(queue.Name),
			SharedBytes:   clonePointer(queue.SharedBytes),
		})
	}

	fields.IngressMirror = clonePointer(config.IngressMirror)
	fields.EgressMirror = clonePointer(config.EgressMirror)
	fields.QosPolicy = clonePointer(config.QosPolicy)
	fields.MaxFrameSize = config.MaxFrameSize
	fields.LookupClassesToDistributeTrafficOn = slices.Clone(config.LookupClasses)
	return fields
}

// QcmConfigFieldsFromConfig builds the flow-monitor record for config.
// Zero counters and intervals, and unset collector prefixes, take the
// documented defaults.
func QcmConfigFieldsFromConfig(config *switchconfig.QcmConfig) QcmConfigFields {
	fields := DefaultQcmConfigFields()
	overrideNonZero(&fields.NumFlowSamplesPerView, config.NumFlowSamplesPerView)
	overrideNonZero(&fields.FlowLimit, config.FlowLimit)
	overrideNonZero(&fields.NumFlowsClear, config.NumFlowsClear)
	overrideNonZero(&fields.ScanIntervalInUsecs, config.ScanIntervalInUsecs)
	overrideNonZero(&fields.ExportThreshold, config.ExportThreshold)
	overrideNonZero(&fields.AgingIntervalInMsecs, config.AgingIntervalInMsecs)
	fields.CollectorDstPort = config.CollectorDstPort

	if config.FlowWeights != nil {
		fields.FlowWeights = maps.Clone(config.FlowWeights)
	}
	if config.CollectorDstIP.IsValid() {
		fields.CollectorDstIP = config.CollectorDstIP
	}
	if config.CollectorSrcIP.IsValid() {
		fields.CollectorSrcIP = config.CollectorSrcIP
	}
	fields.CollectorSrcPort = clonePointer(config.CollectorSrcPort)
	fields.CollectorDscp = clonePointer(config.CollectorDscp)
	fields.PpsToQcm = clonePointer(config.PpsToQcm)
	for _, port := range config.MonitorQcmPortList {
		fields.MonitorQcmPortList = append(fields.MonitorQcmPortList, PortID(port))
	}
	return fields
}

func overrideNonZero(target *uint32, value uint32) {
	if value != 0 {
		*target = value
	}
}
