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
	"github.com/prometheus/client_golang/prometheus"
)

// metric namespace / subsystem
const (
	MetricsNamespace = "mpetk"
	MetricsSubsystem = "router"
)

// Metrics are the router's prometheus instruments
type Metrics struct {
	EnvelopesReceived  prometheus.Counter
	EnvelopesForwarded prometheus.Counter
	EnvelopesDropped   prometheus.Counter

	Registrations   prometheus.Counter
	Deregistrations prometheus.Counter
	Evictions       prometheus.Counter

	RPCRequests      prometheus.Counter
	RPCTimeouts      prometheus.Counter
	RPCUnknownTarget prometheus.Counter
	RPCOrphanReplies prometheus.Counter

	KnownNodes       prometheus.Gauge
	RegisteredTopics prometheus.Gauge
	PendingCalls     prometheus.Gauge
}

// NewMetrics creates unregistered instruments. Call MustRegister to expose
// them; tests use them unregistered.
func NewMetrics() *Metrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      name,
			Help:      help,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      name,
			Help:      help,
		})
	}
	return &Metrics{
		EnvelopesReceived:  counter("envelopes_received_total", "Envelopes received from the transport"),
		EnvelopesForwarded: counter("envelopes_forwarded_total", "Publications forwarded to subscribers"),
		EnvelopesDropped:   counter("envelopes_dropped_total", "Envelopes dropped (decode failures and orphans)"),
		Registrations:      counter("registrations_total", "Topic registrations accepted"),
		Deregistrations:    counter("deregistrations_total", "Topic deregistrations accepted"),
		Evictions:          counter("evictions_total", "Nodes evicted by heartbeat timeout"),
		RPCRequests:        counter("rpc_requests_total", "Remote service requests routed"),
		RPCTimeouts:        counter("rpc_timeouts_total", "Remote service calls failed by deadline"),
		RPCUnknownTarget:   counter("rpc_unknown_target_total", "Remote service requests to unregistered targets"),
		RPCOrphanReplies:   counter("rpc_orphan_replies_total", "Replies that matched no pending call"),
		KnownNodes:         gauge("known_nodes", "Nodes currently tracked by the heartbeat monitor"),
		RegisteredTopics:   gauge("registered_topics", "Topics with at least one subscriber"),
		PendingCalls:       gauge("pending_calls", "Remote service calls awaiting a reply"),
	}
}

// MustRegister registers every instrument with the registerer
func (m *Metrics) MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		m.EnvelopesReceived,
		m.EnvelopesForwarded,
		m.EnvelopesDropped,
		m.Registrations,
		m.Deregistrations,
		m.Evictions,
		m.RPCRequests,
		m.RPCTimeouts,
		m.RPCUnknownTarget,
		m.RPCOrphanReplies,
		m.KnownNodes,
		m.RegisteredTopics,
		m.PendingCalls,
	)
}
