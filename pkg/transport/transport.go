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

// Package transport defines the addressable, message oriented transport that
// the router and its nodes speak over. A message travels as three logical
// frames: the peer identity, the envelope name, and the payload. The router
// does not mandate one physical transport; this package ships an in-memory
// loopback, and the zmq and natsio subpackages carry the wire transports.
package transport

import "errors"

var (
	ErrClosed             = errors.New("transport is closed")
	ErrUnknownDestination = errors.New("no peer with that identity")
	ErrPeerSaturated      = errors.New("peer outbound queue is full")
)

// Packet is one received message
type Packet struct {
	// From is the identity of the sending peer
	From string
	// Name is the envelope name frame (the topic for opaque publications)
	Name string
	// Payload is the encoded envelope
	Payload []byte
}

// Transport is one endpoint of the bus.
// Send must never block on a slow destination: delivery is fire and forget
// into a bounded per-destination queue.
type Transport interface {
	// Identity is this endpoint's address on the bus
	Identity() string

	// Send queues the message for the destination peer
	Send(to, name string, payload []byte) error

	// Inbound delivers received packets. The channel closes when the
	// transport closes.
	Inbound() <-chan Packet

	Close() error
}
