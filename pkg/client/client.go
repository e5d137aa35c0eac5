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

// Package client is the node-side handle on the bus. It subscribes to topics
// and dispatches publications to callbacks, publishes envelopes, keeps the
// node alive with a heartbeat service, issues remote service calls, and can
// serve a remote object: a table of named handlers and properties that other
// nodes drive through remote_service_request commands.
package client

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/AllenNeuralDynamics/mpetk/pkg/commons"
	"github.com/AllenNeuralDynamics/mpetk/pkg/config"
	"github.com/AllenNeuralDynamics/mpetk/pkg/logging"
	"github.com/AllenNeuralDynamics/mpetk/pkg/messages"
	"github.com/AllenNeuralDynamics/mpetk/pkg/transport"
)

// Callback handles one publication delivered on a subscribed topic
type Callback func(topic string, payload []byte)

// DeviceProfile marks the node as a device class node. When attached, the
// heartbeat service announces the device address instead of a generic beat.
type DeviceProfile struct {
	Name      string
	IPAddress string
	Port      int
}

// Config carries the client deployment parameters
type Config struct {
	// Process is stamped into every outbound header
	Process string
	// RouterIdentity is the transport identity of the hub
	RouterIdentity string

	HeartbeatInterval time.Duration
	RPCTimeout        time.Duration

	Device *DeviceProfile
}

// ConfigFrom builds the client Config from deployment configuration
func ConfigFrom(cfg config.Client) Config {
	return Config{
		Process:           filepath.Base(os.Args[0]),
		RouterIdentity:    "router",
		HeartbeatInterval: cfg.HeartbeatInterval(),
		RPCTimeout:        cfg.RPCTimeout(),
	}
}

// Client is a node endpoint. The transport inbound channel is consumed by a
// single goroutine; callbacks and command handlers run on that goroutine.
type Client struct {
	cfg       Config
	tr        transport.Transport
	host      string
	startTime float64

	sync.Mutex
	callbacks  map[string][]Callback
	handlers   map[string]Handler
	properties map[string]interface{}
	waiters    map[string]chan *messages.RemoteServiceReply

	started bool
	stop    chan struct{}
	done    chan struct{}
}

// New creates a Client on the transport
func New(cfg Config, tr transport.Transport) *Client {
	if cfg.Process == "" {
		cfg.Process = filepath.Base(os.Args[0])
	}
	if cfg.RouterIdentity == "" {
		cfg.RouterIdentity = "router"
	}
	host, _ := os.Hostname()
	return &Client{
		cfg:        cfg,
		tr:         tr,
		host:       host,
		startTime:  messages.Timestamp(time.Now()),
		callbacks:  map[string][]Callback{},
		handlers:   map[string]Handler{},
		properties: map[string]interface{}{},
		waiters:    map[string]chan *messages.RemoteServiceReply{},
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start spawns the client loop. The node announces itself right away with a
// heartbeat and a platform snapshot, so the router knows it before the first
// heartbeat tick.
func (c *Client) Start() error {
	c.Lock()
	defer c.Unlock()
	if c.started {
		return ErrAlreadyStarted
	}
	c.started = true

	c.sendHeartbeat()
	info := messages.NewPlatformInfo()
	info.StartTime = c.startTime
	c.send(info)

	LOG_EVENT_STARTED.Log(logger.Info()).
		Str(logging.NODE, c.tr.Identity()).
		Msg("client started")
	go c.run()
	return nil
}

// Stop halts the client loop and waits for it to drain
func (c *Client) Stop() {
	c.Lock()
	started := c.started
	c.Unlock()
	if !started {
		return
	}
	commons.CloseQuietly(c.stop)
	<-c.done
}

// Subscribe registers a callback for a topic and subscribes this node to it
// on the router. The wildcard topic delivers every publication.
func (c *Client) Subscribe(topic string, callback Callback) error {
	c.Lock()
	c.callbacks[topic] = append(c.callbacks[topic], callback)
	c.Unlock()

	msg := &messages.RegisterForMessage{MessageID: topic}
	if err := c.send(msg); err != nil {
		return err
	}
	LOG_EVENT_SUBSCRIBED.Log(logger.Info()).
		Str(logging.TOPIC, topic).
		Msg("")
	return nil
}

// Unsubscribe drops every callback for the topic and deregisters this node
// from it on the router
func (c *Client) Unsubscribe(topic string) error {
	c.Lock()
	delete(c.callbacks, topic)
	c.Unlock()

	msg := &messages.DeregisterForMessage{MessageID: topic}
	if err := c.send(msg); err != nil {
		return err
	}
	LOG_EVENT_UNSUBSCRIBED.Log(logger.Info()).
		Str(logging.TOPIC, topic).
		Msg("")
	return nil
}

// Publish stamps the envelope header and sends it to the router, which fans
// it out to the topic's subscribers
func (c *Client) Publish(msg messages.Message) error {
	return c.send(msg)
}

// PublishRaw sends an already encoded payload on a topic. The router treats
// unknown topics as opaque publications, so the payload shape is up to the
// publisher and its subscribers.
func (c *Client) PublishRaw(topic string, payload []byte) error {
	return c.tr.Send(c.cfg.RouterIdentity, topic, payload)
}

// Call runs a command on the target node and waits for the reply. The target
// echoes the request's message id. A failure synthesized by the router
// carries a fresh id instead; with a single call in flight it still
// correlates by delivery.
func (c *Client) Call(target string, command messages.CommandType, args []interface{}, kwargs map[string]interface{}) (*messages.RemoteServiceReply, error) {
	request := &messages.RemoteServiceRequest{
		CommandType: command,
		Target:      target,
	}
	var err error
	if request.Args, err = encodeArgs(args); err != nil {
		return nil, err
	}
	if request.Kwargs, err = encodeKwargs(kwargs); err != nil {
		return nil, err
	}
	request.Header.Stamp(c.cfg.Process, c.host)

	waiter := make(chan *messages.RemoteServiceReply, 1)
	c.Lock()
	c.waiters[request.Header.MessageID] = waiter
	c.Unlock()
	defer func() {
		c.Lock()
		delete(c.waiters, request.Header.MessageID)
		c.Unlock()
	}()

	if err := c.sendStamped(request); err != nil {
		return nil, err
	}

	select {
	case reply := <-waiter:
		return reply, nil
	case <-time.After(c.cfg.RPCTimeout):
		return nil, ErrCallTimeout
	case <-c.stop:
		return nil, ErrStopped
	}
}

func (c *Client) run() {
	defer close(c.done)
	defer LOG_EVENT_STOPPED.Log(logger.Info()).Msg("client stopped")

	heartbeat := time.NewTicker(c.cfg.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case packet, open := <-c.tr.Inbound():
			if !open {
				return
			}
			c.handle(packet)
		case <-heartbeat.C:
			c.sendHeartbeat()
		case <-c.stop:
			return
		}
	}
}

func (c *Client) handle(packet transport.Packet) {
	switch packet.Name {
	case messages.NameRemoteServiceRequest:
		msg, err := messages.Decode(packet.Name, packet.Payload)
		if err != nil {
			LOG_EVENT_MSG_DROPPED.Log(logger.Warn()).
				Str(logging.CHANNEL, packet.Name).
				Err(err).
				Msg("")
			return
		}
		c.serveCommand(msg.(*messages.RemoteServiceRequest))
		return
	case messages.NameRemoteServiceReply:
		msg, err := messages.Decode(packet.Name, packet.Payload)
		if err != nil {
			LOG_EVENT_MSG_DROPPED.Log(logger.Warn()).
				Str(logging.CHANNEL, packet.Name).
				Err(err).
				Msg("")
			return
		}
		if c.resolveWaiter(msg.(*messages.RemoteServiceReply)) {
			return
		}
	}
	c.dispatch(packet)
}

// dispatch invokes the topic and wildcard callbacks for a publication. A
// panicking callback is contained: it must not take the client loop down.
func (c *Client) dispatch(packet transport.Packet) {
	c.Lock()
	callbacks := append([]Callback{}, c.callbacks[packet.Name]...)
	callbacks = append(callbacks, c.callbacks[messages.WildcardTopic]...)
	c.Unlock()

	for _, callback := range callbacks {
		c.invoke(callback, packet)
	}
}

func (c *Client) invoke(callback Callback, packet transport.Packet) {
	defer func() {
		if p := recover(); p != nil {
			LOG_EVENT_CALLBACK_PANIC.Log(logger.Error()).
				Str(logging.TOPIC, packet.Name).
				Interface("panic", p).
				Msg("")
		}
	}()
	callback(packet.Name, packet.Payload)
}

func (c *Client) resolveWaiter(reply *messages.RemoteServiceReply) bool {
	c.Lock()
	defer c.Unlock()
	if waiter, ok := c.waiters[reply.Header.MessageID]; ok {
		delete(c.waiters, reply.Header.MessageID)
		waiter <- reply
		return true
	}
	// a router synthesized failure carries a fresh id; with exactly one call
	// in flight it belongs to that call
	if len(c.waiters) == 1 && reply.CallResult == messages.CallResult_FAILED {
		for id, waiter := range c.waiters {
			delete(c.waiters, id)
			waiter <- reply
			return true
		}
	}
	return false
}

func (c *Client) sendHeartbeat() {
	if device := c.cfg.Device; device != nil {
		c.send(&messages.RemoteDeviceHeartbeat{
			DeviceName: device.Name,
			IPAddress:  device.IPAddress,
			Port:       device.Port,
			StartTime:  c.startTime,
		})
		return
	}
	c.send(&messages.GenericHeartbeat{StartTime: c.startTime})
}

// send stamps the header and writes the envelope to the router
func (c *Client) send(msg messages.Message) error {
	msg.MessageHeader().Stamp(c.cfg.Process, c.host)
	return c.sendStamped(msg)
}

// sendStamped writes an envelope whose header is already filled, preserving
// its message id
func (c *Client) sendStamped(msg messages.Message) error {
	payload, err := messages.Encode(msg)
	if err != nil {
		return err
	}
	return c.tr.Send(c.cfg.RouterIdentity, msg.Name(), payload)
}
