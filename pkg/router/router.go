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

// Package router is the bus hub: it accepts inbound envelopes, maintains the
// topic directory and heartbeat table, correlates remote service calls, and
// forwards publications to current subscribers.
//
// One goroutine owns all router state. Inbound envelopes, the eviction sweep,
// call deadline expiry, and the periodic broadcasts all run on that goroutine,
// so no mutation ever observes a torn subscriber set. Forwarding never blocks
// on a destination: delivery is fire and forget into the transport.
package router

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AllenNeuralDynamics/mpetk/pkg/commons"
	"github.com/AllenNeuralDynamics/mpetk/pkg/commons/collections/sets"
	"github.com/AllenNeuralDynamics/mpetk/pkg/config"
	"github.com/AllenNeuralDynamics/mpetk/pkg/logging"
	"github.com/AllenNeuralDynamics/mpetk/pkg/messages"
	"github.com/AllenNeuralDynamics/mpetk/pkg/transport"
)

// Config carries the router deployment parameters. Zero durations are not
// defaulted here; build the Config through ConfigFrom or config.DefaultRouter.
type Config struct {
	// Process is stamped into every outbound header
	Process string

	TimeToLive        time.Duration
	SweepInterval     time.Duration
	RPCTimeout        time.Duration
	BroadcastInterval time.Duration
}

// ConfigFrom builds the router Config from deployment configuration
func ConfigFrom(cfg config.Router) Config {
	return Config{
		Process:           filepath.Base(os.Args[0]),
		TimeToLive:        cfg.TimeToLive(),
		SweepInterval:     cfg.SweepInterval(),
		RPCTimeout:        cfg.RPCTimeout(),
		BroadcastInterval: cfg.BroadcastInterval(),
	}
}

// Router owns the directory, the heartbeat monitor, and the pending call
// table. All access goes through its serialized loop.
type Router struct {
	cfg  Config
	tr   transport.Transport
	host string

	directory *Directory
	monitor   *Monitor
	calls     *Dispatcher
	metrics   *Metrics

	// traffic events accumulated since the last traffic_report
	trafficRegistrations []string
	trafficPublications  []string

	started bool
	stop    chan struct{}
	done    chan struct{}
}

// New creates a Router on the transport. A nil metrics creates unregistered
// instruments.
func New(cfg Config, tr transport.Transport, metrics *Metrics) *Router {
	if cfg.Process == "" {
		cfg.Process = filepath.Base(os.Args[0])
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	host, _ := os.Hostname()
	return &Router{
		cfg:       cfg,
		tr:        tr,
		host:      host,
		directory: NewDirectory(),
		monitor:   NewMonitor(cfg.TimeToLive),
		calls:     NewDispatcher(cfg.RPCTimeout),
		metrics:   metrics,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start spawns the router loop
func (r *Router) Start() error {
	if r.started {
		return ErrAlreadyStarted
	}
	r.started = true
	LOG_EVENT_STARTED.Log(logger.Info()).
		Dur("time_to_live", r.cfg.TimeToLive).
		Dur("rpc_timeout", r.cfg.RPCTimeout).
		Msg("router started")
	go r.run()
	return nil
}

// Stop halts the router loop and waits for it to drain
func (r *Router) Stop() {
	if !r.started {
		return
	}
	commons.CloseQuietly(r.stop)
	<-r.done
}

func (r *Router) run() {
	defer close(r.done)
	defer LOG_EVENT_STOPPED.Log(logger.Info()).Msg("router stopped")

	sweep := time.NewTicker(r.cfg.SweepInterval)
	defer sweep.Stop()
	broadcast := time.NewTicker(r.cfg.BroadcastInterval)
	defer broadcast.Stop()

	for {
		select {
		case packet, open := <-r.tr.Inbound():
			if !open {
				return
			}
			r.handle(packet)
		case now := <-sweep.C:
			r.sweep(now)
			r.expireCalls(now)
		case now := <-broadcast.C:
			r.broadcast(now)
		case <-r.stop:
			return
		}
		r.updateGauges()
	}
}

// handle dispatches one inbound envelope. Nothing in here is fatal: failures
// are logged and resolved per envelope.
func (r *Router) handle(packet transport.Packet) {
	r.metrics.EnvelopesReceived.Inc()
	now := time.Now()

	if !messages.Known(packet.Name) {
		// an application publication: opaque to the router, forwarded by topic
		r.forward(packet, packet.From)
		return
	}

	msg, err := messages.Decode(packet.Name, packet.Payload)
	if err != nil {
		r.metrics.EnvelopesDropped.Inc()
		LOG_EVENT_DECODE_ERR.Log(logger.Warn()).
			Str(logging.NODE, packet.From).
			Str(logging.CHANNEL, packet.Name).
			Err(err).
			Msg("envelope dropped")
		return
	}

	sender := r.nodeID(packet.From, msg.MessageHeader())

	switch m := msg.(type) {
	case *messages.RegisterForMessage:
		r.handleRegister(m, sender, now)
	case *messages.DeregisterForMessage:
		r.handleDeregister(m, sender)
	case *messages.GenericHeartbeat:
		r.handleHeartbeat(m, sender, now)
	case *messages.RemoteDeviceHeartbeat:
		r.handleDeviceHeartbeat(m, sender, now)
	case *messages.PlatformInfo:
		r.handlePlatformInfo(m, sender, now)
	case *messages.RequestRemoteDevices:
		r.handleRequestRemoteDevices(sender)
	case *messages.RemoteServiceRequest:
		r.handleServiceRequest(m, packet, sender, now)
		return // point routed, never topic forwarded
	case *messages.RemoteServiceReply:
		r.handleServiceReply(m, packet)
		return // point routed, never topic forwarded
	}

	r.forward(packet, sender)
}

// nodeID resolves a sender identity. The transport identity wins; transports
// without one fall back to the header's process@host spelling.
func (r *Router) nodeID(from string, header *messages.Header) string {
	if from != "" {
		return from
	}
	return header.Process + "@" + header.Host
}

func (r *Router) handleRegister(m *messages.RegisterForMessage, sender string, now time.Time) {
	r.monitor.Touch(sender, m.Header.Process, m.Header.Host, now)
	if !r.directory.Register(sender, m.MessageID) {
		return // idempotent re-registration
	}
	r.metrics.Registrations.Inc()
	r.trafficRegistrations = append(r.trafficRegistrations, sender+" "+m.MessageID)
	LOG_EVENT_REGISTERED.Log(logger.Info()).
		Str(logging.NODE, sender).
		Str(logging.TOPIC, m.MessageID).
		Msg("")
}

func (r *Router) handleDeregister(m *messages.DeregisterForMessage, sender string) {
	if !r.directory.Deregister(sender, m.MessageID) {
		return // idempotent: was not subscribed
	}
	r.metrics.Deregistrations.Inc()
	LOG_EVENT_DEREGISTERED.Log(logger.Info()).
		Str(logging.NODE, sender).
		Str(logging.TOPIC, m.MessageID).
		Msg("")
	// deregistering the last topic destroys the registration record
	if len(r.directory.TopicsOf(sender)) == 0 {
		r.monitor.Remove(sender)
	}
}

func (r *Router) handleHeartbeat(m *messages.GenericHeartbeat, sender string, now time.Time) {
	node, created := r.monitor.Touch(sender, m.Header.Process, m.Header.Host, now)
	node.StartTime = m.StartTime
	if created {
		LOG_EVENT_REGISTERED.Log(logger.Info()).
			Str(logging.NODE, sender).
			Msg("implicit registration by heartbeat")
	}
}

func (r *Router) handleDeviceHeartbeat(m *messages.RemoteDeviceHeartbeat, sender string, now time.Time) {
	node, created := r.monitor.Touch(sender, m.Header.Process, m.Header.Host, now)
	node.StartTime = m.StartTime
	node.Device = &DeviceRecord{
		Name:      m.DeviceName,
		IPAddress: m.IPAddress,
		Port:      m.Port,
		StartTime: m.StartTime,
	}
	if created {
		LOG_EVENT_REGISTERED.Log(logger.Info()).
			Str(logging.NODE, sender).
			Str("device", m.DeviceName).
			Msg("implicit registration by device heartbeat")
	}
}

func (r *Router) handlePlatformInfo(m *messages.PlatformInfo, sender string, now time.Time) {
	node, _ := r.monitor.Touch(sender, m.Header.Process, m.Header.Host, now)
	node.Platform = m // replaced wholesale, never merged
}

func (r *Router) handleRequestRemoteDevices(sender string) {
	list := &messages.RemoteDevicesList{}
	list.Header.Stamp(r.cfg.Process, r.host)
	for _, node := range r.monitor.Devices() {
		list.Devices = append(list.Devices, messages.RemoteDevice{
			DeviceName: node.Device.Name,
			IPAddress:  node.Device.IPAddress,
			Port:       node.Device.Port,
			StartTime:  node.Device.StartTime,
		})
	}
	r.send(sender, list)
}

func (r *Router) handleServiceRequest(m *messages.RemoteServiceRequest, packet transport.Packet, sender string, now time.Time) {
	r.metrics.RPCRequests.Inc()

	if !r.monitor.Known(m.Target) {
		r.metrics.RPCUnknownTarget.Inc()
		err := &UnknownTargetError{Target: m.Target}
		LOG_EVENT_UNKNOWN_TARGET.Log(logger.Warn()).
			Str(logging.NODE, sender).
			Str(logging.TARGET, m.Target).
			Err(err).
			Msg("")
		r.sendFailedReply(sender, err.Error())
		return
	}

	if _, err := r.calls.Track(m.Header.MessageID, m.Target, sender, now); err != nil {
		r.metrics.EnvelopesDropped.Inc()
		LOG_EVENT_MSG_DROPPED.Log(logger.Warn()).
			Str(logging.NODE, sender).
			Str(logging.MSG_ID, m.Header.MessageID).
			Err(err).
			Msg("")
		return
	}
	r.sendRaw(m.Target, packet.Name, packet.Payload)
}

func (r *Router) handleServiceReply(m *messages.RemoteServiceReply, packet transport.Packet) {
	call, ok := r.calls.Resolve(m.Header.MessageID)
	if !ok {
		r.metrics.RPCOrphanReplies.Inc()
		r.metrics.EnvelopesDropped.Inc()
		err := &OrphanedReplyError{MessageID: m.Header.MessageID}
		LOG_EVENT_ORPHANED_REPLY.Log(logger.Warn()).
			Str(logging.NODE, packet.From).
			Str(logging.MSG_ID, m.Header.MessageID).
			Err(err).
			Msg("reply dropped")
		return
	}
	r.sendRaw(call.Caller, packet.Name, packet.Payload)
}

// forward delivers a publication to the wildcard and topic subscribers,
// excluding the sender, at most once each. There is no retry: delivery is a
// single attempt per subscriber.
func (r *Router) forward(packet transport.Packet, sender string) {
	destinations := sets.NewStrings()
	for _, node := range r.directory.SubscribersOf(WildcardTopic) {
		destinations.Add(node)
	}
	for _, node := range r.directory.SubscribersOf(packet.Name) {
		destinations.Add(node)
	}
	destinations.Remove(sender)
	if destinations.Empty() {
		return
	}
	for _, node := range destinations.Values() {
		r.sendRaw(node, packet.Name, packet.Payload)
		r.metrics.EnvelopesForwarded.Inc()
		LOG_EVENT_FORWARDED.Log(logger.Debug()).
			Str(logging.NODE, node).
			Str(logging.TOPIC, packet.Name).
			Msg("")
	}
	r.trafficPublications = append(r.trafficPublications, sender+" "+packet.Name)
}

// sweep evicts nodes whose heartbeats lapsed. Directory cleanup is atomic
// with the eviction: both happen in this one serialized step.
func (r *Router) sweep(now time.Time) {
	for _, node := range r.monitor.Sweep(now) {
		topics := r.directory.Evict(node.ID)
		r.metrics.Evictions.Inc()
		LOG_EVENT_NODE_EVICTED.Log(logger.Info()).
			Str(logging.NODE, node.ID).
			Strs("topics", topics).
			Time("last_heartbeat", node.LastHeartbeat).
			Msg("heartbeat timeout")
	}
}

// expireCalls fails every pending call past its deadline. The timeout is
// resolved locally: the caller sees an explicit FAILED reply, never a fault.
func (r *Router) expireCalls(now time.Time) {
	for _, call := range r.calls.Expire(now) {
		r.metrics.RPCTimeouts.Inc()
		LOG_EVENT_CALL_TIMEOUT.Log(logger.Warn()).
			Str(logging.NODE, call.Caller).
			Str(logging.TARGET, call.Target).
			Str(logging.MSG_ID, call.MessageID).
			Msg("")
		r.sendFailedReply(call.Caller, fmt.Sprintf("call %s to %s timed out", call.MessageID, call.Target))
	}
}

// broadcast emits router_alive, registered_nodes, and traffic_report to every
// known node, then resets the traffic accumulators.
func (r *Router) broadcast(now time.Time) {
	nodes := r.monitor.IDs()
	if len(nodes) == 0 {
		// nobody to report to; the accumulators only reset once a report is
		// actually emitted
		return
	}

	alive := &messages.RouterAlive{RegisteredMessages: r.directory.Topics()}
	alive.Header.Stamp(r.cfg.Process, r.host)

	known := &messages.RegisteredNodes{Nodes: nodes}
	known.Header.Stamp(r.cfg.Process, r.host)

	report := &messages.TrafficReport{
		Registrations: r.trafficRegistrations,
		Publications:  r.trafficPublications,
	}
	report.Header.Stamp(r.cfg.Process, r.host)

	for _, node := range nodes {
		r.send(node, alive)
		r.send(node, known)
		r.send(node, report)
	}
	r.trafficRegistrations = nil
	r.trafficPublications = nil

	LOG_EVENT_BROADCAST.Log(logger.Debug()).
		Int("nodes", len(nodes)).
		Strs("registered_messages", alive.RegisteredMessages).
		Msg("")
}

func (r *Router) sendFailedReply(to, reason string) {
	reply := &messages.RemoteServiceReply{
		CallResult: messages.CallResult_FAILED,
		Reply:      reason,
	}
	// a synthesized reply carries a fresh message id; it correlates to the
	// caller by delivery, not by the directory
	reply.Header.Stamp(r.cfg.Process, r.host)
	r.send(to, reply)
}

func (r *Router) send(to string, msg messages.Message) {
	payload, err := messages.Encode(msg)
	if err != nil {
		LOG_EVENT_MSG_DROPPED.Log(logger.Error()).
			Str(logging.NODE, to).
			Str(logging.CHANNEL, msg.Name()).
			Err(err).
			Msg("encode failed")
		return
	}
	r.sendRaw(to, msg.Name(), payload)
}

func (r *Router) sendRaw(to, name string, payload []byte) {
	if err := r.tr.Send(to, name, payload); err != nil {
		LOG_EVENT_MSG_DROPPED.Log(logger.Debug()).
			Str(logging.NODE, to).
			Str(logging.CHANNEL, name).
			Err(err).
			Msg("send failed")
	}
}

func (r *Router) updateGauges() {
	r.metrics.KnownNodes.Set(float64(r.monitor.Size()))
	r.metrics.RegisteredTopics.Set(float64(r.directory.Size()))
	r.metrics.PendingCalls.Set(float64(r.calls.Pending()))
}
