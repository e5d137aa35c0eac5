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

// Package zmq carries the bus over ZeroMQ ROUTER sockets. The hub binds a
// ROUTER socket; every node connects a ROUTER socket with an explicit
// identity, which is also its node id on the bus. A message is the multipart
// frame sequence [identity, envelope name, payload].
package zmq

import (
	"fmt"
	"sync"
	"time"

	zmq4 "github.com/pebbe/zmq4"

	"github.com/AllenNeuralDynamics/mpetk/pkg/commons"
	"github.com/AllenNeuralDynamics/mpetk/pkg/transport"
)

// HubIdentity is the well known identity of the router endpoint
const HubIdentity = "router"

const pollInterval = 100 * time.Millisecond

type outbound struct {
	to      string
	name    string
	payload []byte
}

// Conn is a ZeroMQ endpoint implementing transport.Transport.
// A single goroutine owns the socket: ZeroMQ sockets are not safe for
// concurrent use, so sends are queued and drained inside the poll loop.
type Conn struct {
	identity string
	socket   *zmq4.Socket
	inbound  chan transport.Packet
	outbound chan outbound

	closeOnce sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// NewHub binds the router endpoint at tcp://host:port
func NewHub(host string, port int) (*Conn, error) {
	socket, err := zmq4.NewSocket(zmq4.ROUTER)
	if err != nil {
		return nil, err
	}
	if err := socket.SetIdentity(HubIdentity); err != nil {
		socket.Close()
		return nil, err
	}
	if err := socket.Bind(fmt.Sprintf("tcp://%s:%d", host, port)); err != nil {
		socket.Close()
		return nil, err
	}
	return newConn(HubIdentity, socket), nil
}

// Dial connects a node endpoint with the given identity to the hub at
// tcp://host:port
func Dial(identity, host string, port int) (*Conn, error) {
	socket, err := zmq4.NewSocket(zmq4.ROUTER)
	if err != nil {
		return nil, err
	}
	if err := socket.SetIdentity(identity); err != nil {
		socket.Close()
		return nil, err
	}
	// announce ourselves so the hub learns the identity before any payload
	if err := socket.SetProbeRouter(1); err != nil {
		socket.Close()
		return nil, err
	}
	if err := socket.Connect(fmt.Sprintf("tcp://%s:%d", host, port)); err != nil {
		socket.Close()
		return nil, err
	}
	return newConn(identity, socket), nil
}

func newConn(identity string, socket *zmq4.Socket) *Conn {
	c := &Conn{
		identity: identity,
		socket:   socket,
		inbound:  make(chan transport.Packet, 1024),
		outbound: make(chan outbound, 1024),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go c.poll()
	return c
}

// Identity implements transport.Transport
func (c *Conn) Identity() string {
	return c.identity
}

// Send implements transport.Transport
func (c *Conn) Send(to, name string, payload []byte) error {
	select {
	case <-c.stop:
		return transport.ErrClosed
	default:
	}
	select {
	case c.outbound <- outbound{to: to, name: name, payload: payload}:
		return nil
	default:
		return transport.ErrPeerSaturated
	}
}

// Inbound implements transport.Transport
func (c *Conn) Inbound() <-chan transport.Packet {
	return c.inbound
}

// Close implements transport.Transport
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		commons.CloseQuietly(c.stop)
		<-c.done
	})
	return nil
}

func (c *Conn) poll() {
	defer close(c.done)
	defer close(c.inbound)
	defer c.socket.Close()

	poller := zmq4.NewPoller()
	poller.Register(c.socket, zmq4.POLLIN)

	for {
		select {
		case <-c.stop:
			return
		default:
		}

		c.drainOutbound()

		polled, err := poller.Poll(pollInterval)
		if err != nil {
			return
		}
		if len(polled) == 0 {
			continue
		}

		parts, err := c.socket.RecvMessageBytes(0)
		if err != nil {
			continue
		}
		// probe handshake: an identity frame with an empty body announces a
		// new connection and is not a bus message
		if len(parts) == 2 && len(parts[1]) == 0 {
			continue
		}
		if len(parts) != 3 {
			continue
		}
		packet := transport.Packet{
			From:    string(parts[0]),
			Name:    string(parts[1]),
			Payload: parts[2],
		}
		select {
		case c.inbound <- packet:
		default:
			// a saturated reader drops the packet rather than stalling the socket
		}
	}
}

func (c *Conn) drainOutbound() {
	for {
		select {
		case msg := <-c.outbound:
			// the first frame addresses the destination peer on a ROUTER socket
			if _, err := c.socket.SendMessage(msg.to, msg.name, msg.payload); err != nil {
				continue
			}
		default:
			return
		}
	}
}
