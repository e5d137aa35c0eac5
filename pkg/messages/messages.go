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

// Package messages defines the wire envelopes of the bus.
//
// Every envelope travels as a pair of frames: the envelope name, which is
// also the topic the envelope publishes on, and the encoded payload. The
// payload always embeds a Header. Registration envelopes carry a topic in
// their message_id field; that topic is a message name, distinct from the
// unique per-envelope id in the header.
package messages

import (
	"time"

	"github.com/nats-io/nuid"
)

// wire envelope names
const (
	NameRegisterForMessage    = "register_for_message"
	NameDeregisterForMessage  = "deregister_for_message"
	NameGenericHeartbeat      = "generic_heartbeat"
	NameRemoteDeviceHeartbeat = "remote_device_heartbeat"
	NameRequestRemoteDevices  = "request_remote_devices"
	NameRemoteDevicesList     = "remote_devices_list"
	NameRouterAlive           = "router_alive"
	NameTrafficReport         = "traffic_report"
	NameRegisteredNodes       = "registered_nodes"
	NameRemoteServiceRequest  = "remote_service_request"
	NameRemoteServiceReply    = "remote_service_reply"
	NamePlatformInfo          = "platform_info"
)

// WildcardTopic subscribes a node to every publication on the bus
const WildcardTopic = "*"

// Message is a typed wire envelope
type Message interface {
	// Name returns the wire envelope name, used as the first frame on the wire
	Name() string

	// MessageHeader returns the embedded header
	MessageHeader() *Header

	// Validate checks that every required field is present
	Validate() error
}

// Header is embedded in every envelope
type Header struct {
	Process   string  `json:"process"`
	Host      string  `json:"host"`
	Timestamp float64 `json:"timestamp"`
	// MessageID is globally unique per envelope instance and is what
	// correlates a remote service reply with its request.
	MessageID string `json:"message_id"`
}

// Stamp fills the header for an envelope about to be sent: the local host,
// the current wall clock, and a fresh unique message id.
func (h *Header) Stamp(process, host string) {
	h.Process = process
	h.Host = host
	h.Timestamp = Timestamp(time.Now())
	h.MessageID = nuid.Next()
}

// Validate checks the required header fields
func (h *Header) Validate() error {
	switch {
	case h.Process == "":
		return ErrHeaderProcessRequired
	case h.Host == "":
		return ErrHeaderHostRequired
	case h.Timestamp <= 0:
		return ErrHeaderTimestampRequired
	case h.MessageID == "":
		return ErrHeaderMessageIDRequired
	}
	return nil
}

// Timestamp converts a time to wire seconds
func Timestamp(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// RegisterForMessage subscribes the sending node to a topic
type RegisterForMessage struct {
	Header Header `json:"header"`
	// MessageID is the topic being subscribed to
	MessageID string `json:"message_id"`
}

func (m *RegisterForMessage) Name() string           { return NameRegisterForMessage }
func (m *RegisterForMessage) MessageHeader() *Header { return &m.Header }
func (m *RegisterForMessage) Validate() error {
	if err := m.Header.Validate(); err != nil {
		return err
	}
	if m.MessageID == "" {
		return ErrTopicRequired
	}
	return nil
}

// DeregisterForMessage removes the sending node's subscription to a topic
type DeregisterForMessage struct {
	Header Header `json:"header"`
	// MessageID is the topic being unsubscribed from
	MessageID string `json:"message_id"`
}

func (m *DeregisterForMessage) Name() string           { return NameDeregisterForMessage }
func (m *DeregisterForMessage) MessageHeader() *Header { return &m.Header }
func (m *DeregisterForMessage) Validate() error {
	if err := m.Header.Validate(); err != nil {
		return err
	}
	if m.MessageID == "" {
		return ErrTopicRequired
	}
	return nil
}

// GenericHeartbeat refreshes a node's liveness. A heartbeat from an unknown
// node registers the node implicitly.
type GenericHeartbeat struct {
	Header    Header  `json:"header"`
	StartTime float64 `json:"start_time"`
}

func (m *GenericHeartbeat) Name() string           { return NameGenericHeartbeat }
func (m *GenericHeartbeat) MessageHeader() *Header { return &m.Header }
func (m *GenericHeartbeat) Validate() error {
	if err := m.Header.Validate(); err != nil {
		return err
	}
	if m.StartTime <= 0 {
		return ErrStartTimeRequired
	}
	return nil
}

// RemoteDeviceHeartbeat is a heartbeat from a device class node. It carries
// the address that the device serves on so the router can enumerate devices.
type RemoteDeviceHeartbeat struct {
	Header     Header  `json:"header"`
	DeviceName string  `json:"device_name"`
	IPAddress  string  `json:"ip_address"`
	Port       int     `json:"port"`
	StartTime  float64 `json:"start_time"`
}

func (m *RemoteDeviceHeartbeat) Name() string           { return NameRemoteDeviceHeartbeat }
func (m *RemoteDeviceHeartbeat) MessageHeader() *Header { return &m.Header }
func (m *RemoteDeviceHeartbeat) Validate() error {
	if err := m.Header.Validate(); err != nil {
		return err
	}
	switch {
	case m.DeviceName == "":
		return ErrDeviceNameRequired
	case m.IPAddress == "":
		return ErrDeviceAddressRequired
	case m.Port <= 0:
		return ErrDevicePortRequired
	case m.StartTime <= 0:
		return ErrStartTimeRequired
	}
	return nil
}

// RequestRemoteDevices asks the router for the currently known device nodes
type RequestRemoteDevices struct {
	Header Header `json:"header"`
}

func (m *RequestRemoteDevices) Name() string           { return NameRequestRemoteDevices }
func (m *RequestRemoteDevices) MessageHeader() *Header { return &m.Header }
func (m *RequestRemoteDevices) Validate() error        { return m.Header.Validate() }

// RemoteDevice is one entry of a RemoteDevicesList
type RemoteDevice struct {
	DeviceName string  `json:"device_name"`
	IPAddress  string  `json:"ip_address"`
	Port       int     `json:"port"`
	StartTime  float64 `json:"start_time"`
}

// RemoteDevicesList is the router's answer to RequestRemoteDevices
type RemoteDevicesList struct {
	Header  Header         `json:"header"`
	Devices []RemoteDevice `json:"devices"`
}

func (m *RemoteDevicesList) Name() string           { return NameRemoteDevicesList }
func (m *RemoteDevicesList) MessageHeader() *Header { return &m.Header }
func (m *RemoteDevicesList) Validate() error        { return m.Header.Validate() }

// RouterAlive is broadcast periodically by the router and advertises the
// topics that currently have at least one subscriber.
type RouterAlive struct {
	Header             Header   `json:"header"`
	RegisteredMessages []string `json:"registered_messages"`
}

func (m *RouterAlive) Name() string           { return NameRouterAlive }
func (m *RouterAlive) MessageHeader() *Header { return &m.Header }
func (m *RouterAlive) Validate() error        { return m.Header.Validate() }

// TrafficReport is broadcast periodically by the router. It carries the
// registration and forwarded publication events accumulated since the last
// report.
type TrafficReport struct {
	Header        Header   `json:"header"`
	Registrations []string `json:"registrations"`
	Publications  []string `json:"publications"`
}

func (m *TrafficReport) Name() string           { return NameTrafficReport }
func (m *TrafficReport) MessageHeader() *Header { return &m.Header }
func (m *TrafficReport) Validate() error        { return m.Header.Validate() }

// RegisteredNodes advertises the node ids currently known to the router
type RegisteredNodes struct {
	Header Header   `json:"header"`
	Nodes  []string `json:"nodes"`
}

func (m *RegisteredNodes) Name() string           { return NameRegisteredNodes }
func (m *RegisteredNodes) MessageHeader() *Header { return &m.Header }
func (m *RegisteredNodes) Validate() error        { return m.Header.Validate() }

// RemoteServiceRequest asks the router to run a command on a target node.
// Args and Kwargs are YAML documents; they are opaque to the router.
type RemoteServiceRequest struct {
	Header      Header      `json:"header"`
	CommandType CommandType `json:"command_type"`
	Target      string      `json:"target"`
	Args        string      `json:"args,omitempty"`
	Kwargs      string      `json:"kwargs,omitempty"`
}

func (m *RemoteServiceRequest) Name() string           { return NameRemoteServiceRequest }
func (m *RemoteServiceRequest) MessageHeader() *Header { return &m.Header }
func (m *RemoteServiceRequest) Validate() error {
	if err := m.Header.Validate(); err != nil {
		return err
	}
	if m.Target == "" {
		return ErrTargetRequired
	}
	return m.CommandType.Validate()
}

// RemoteServiceReply answers a RemoteServiceRequest. A reply produced by the
// target echoes the request header's message id; a reply synthesized by the
// router carries a fresh id.
type RemoteServiceReply struct {
	Header     Header     `json:"header"`
	CallResult CallResult `json:"call_result"`
	Reply      string     `json:"reply"`
}

func (m *RemoteServiceReply) Name() string           { return NameRemoteServiceReply }
func (m *RemoteServiceReply) MessageHeader() *Header { return &m.Header }
func (m *RemoteServiceReply) Validate() error {
	if err := m.Header.Validate(); err != nil {
		return err
	}
	return m.CallResult.Validate()
}

// PythonInfo describes the interpreter build of the sending process
type PythonInfo struct {
	BuildNumber    string `json:"build_number"`
	BuildDate      string `json:"build_date"`
	Compiler       string `json:"compiler"`
	Branch         string `json:"branch"`
	Implementation string `json:"implementation"`
	Revision       string `json:"revision"`
	Version        string `json:"version"`
	ExecPrefix     string `json:"exec_prefix"`
	IsConda        bool   `json:"is_conda"`
}

// HostInfo describes the machine the sending process runs on
type HostInfo struct {
	Machine     string `json:"machine"`
	Node        string `json:"node"`
	Platform    string `json:"platform"`
	Processor   string `json:"processor"`
	Release     string `json:"release"`
	System      string `json:"system"`
	Version     string `json:"version"`
	SysPlatform string `json:"sys_platform"`
	ByteOrder   string `json:"byteorder"`
}

// PlatformInfo is an immutable diagnostic snapshot of a node. Re-announcement
// replaces the whole snapshot; snapshots are never merged field by field.
type PlatformInfo struct {
	Header    Header     `json:"header"`
	Python    PythonInfo `json:"python"`
	Host      HostInfo   `json:"host"`
	StartTime float64    `json:"start_time"`
}

func (m *PlatformInfo) Name() string           { return NamePlatformInfo }
func (m *PlatformInfo) MessageHeader() *Header { return &m.Header }
func (m *PlatformInfo) Validate() error        { return m.Header.Validate() }
