// Copyright (c) 2025 Allen Institute
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package router

import (
	"sort"
	"time"

	"github.com/AllenNeuralDynamics/mpetk/pkg/messages"
)

// Node is the registration record of one bus participant. It is created on
// first registration or heartbeat and destroyed on explicit deregistration of
// every topic or on heartbeat timeout.
type Node struct {
	ID      string
	Process string
	Host    string

	LastHeartbeat time.Time
	StartTime     float64

	// Device is set for nodes announced via remote_device_heartbeat
	Device *DeviceRecord

	// Platform is the node's latest diagnostic snapshot. It is replaced
	// wholesale on re-announcement, never merged.
	Platform *messages.PlatformInfo
}

// DeviceRecord describes a device class node
type DeviceRecord struct {
	Name      string
	IPAddress string
	Port      int
	StartTime float64
}

// Monitor tracks per node liveness. A node is ALIVE while heartbeats keep
// arriving; once its last heartbeat ages past the time to live it is evicted
// by the periodic sweep, which is terminal. The Monitor is owned by the
// router loop and is not safe for concurrent use.
type Monitor struct {
	timeToLive time.Duration
	nodes      map[string]*Node
}

// NewMonitor creates a Monitor with the deployment's time_to_live_s
func NewMonitor(timeToLive time.Duration) *Monitor {
	return &Monitor{
		timeToLive: timeToLive,
		nodes:      make(map[string]*Node),
	}
}

// Touch refreshes the node's heartbeat, creating the record if the node was
// previously unknown. It returns the record and whether it was just created.
func (m *Monitor) Touch(id, process, host string, now time.Time) (*Node, bool) {
	node, known := m.nodes[id]
	if !known {
		node = &Node{ID: id, Process: process, Host: host}
		m.nodes[id] = node
	}
	node.LastHeartbeat = now
	return node, !known
}

// Known reports whether the node has an active registration record
func (m *Monitor) Known(id string) bool {
	_, known := m.nodes[id]
	return known
}

// Node returns the node record, or nil for unknown nodes
func (m *Monitor) Node(id string) *Node {
	return m.nodes[id]
}

// Remove destroys the node record. Used for explicit deregistration of a
// node's last topic.
func (m *Monitor) Remove(id string) {
	delete(m.nodes, id)
}

// Sweep evicts every node whose last heartbeat is older than the time to
// live, returning the evicted records sorted by id. Eviction is terminal: a
// later heartbeat from the same identity creates a fresh record.
func (m *Monitor) Sweep(now time.Time) []*Node {
	var evicted []*Node
	for id, node := range m.nodes {
		if now.Sub(node.LastHeartbeat) > m.timeToLive {
			evicted = append(evicted, node)
			delete(m.nodes, id)
		}
	}
	sort.Slice(evicted, func(i, j int) bool { return evicted[i].ID < evicted[j].ID })
	return evicted
}

// Devices returns the known device class nodes sorted by id
func (m *Monitor) Devices() []*Node {
	var devices []*Node
	for _, node := range m.nodes {
		if node.Device != nil {
			devices = append(devices, node)
		}
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].ID < devices[j].ID })
	return devices
}

// IDs returns every known node id, sorted
func (m *Monitor) IDs() []string {
	ids := make([]string, 0, len(m.nodes))
	for id := range m.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Size returns the number of known nodes
func (m *Monitor) Size() int {
	return len(m.nodes)
}
