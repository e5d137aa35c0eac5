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

// Package natsio carries the bus over NATS. Every endpoint owns an inbox
// subject derived from its identity; a bus message is published to the
// destination's inbox. NATS subjects do not carry a sender, so the frame
// encodes the sender identity and envelope name alongside the payload.
package natsio

import (
	"sync"

	jsoniter "github.com/json-iterator/go"
	nats "github.com/nats-io/nats.go"

	"github.com/AllenNeuralDynamics/mpetk/pkg/transport"
)

// DefaultSubjectPrefix namespaces the bus inbox subjects
const DefaultSubjectPrefix = "mpetk.bus"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type frame struct {
	From    string `json:"from"`
	Name    string `json:"name"`
	Payload []byte `json:"payload"`
}

// Conn is a NATS endpoint implementing transport.Transport
type Conn struct {
	identity string
	prefix   string
	nc       *nats.Conn
	sub      *nats.Subscription
	inbound  chan transport.Packet

	mutex     sync.RWMutex
	closeOnce sync.Once
	closed    bool
}

// New attaches an endpoint with the given identity to the NATS connection.
// The caller keeps ownership of the connection.
func New(nc *nats.Conn, prefix, identity string, buffer int) (*Conn, error) {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	c := &Conn{
		identity: identity,
		prefix:   prefix,
		nc:       nc,
		inbound:  make(chan transport.Packet, buffer),
	}
	sub, err := nc.Subscribe(c.subject(identity), c.receive)
	if err != nil {
		return nil, err
	}
	c.sub = sub
	return c, nil
}

func (c *Conn) subject(identity string) string {
	return c.prefix + "." + identity
}

func (c *Conn) receive(msg *nats.Msg) {
	f := frame{}
	if err := json.Unmarshal(msg.Data, &f); err != nil {
		return
	}
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.inbound <- transport.Packet{From: f.From, Name: f.Name, Payload: f.Payload}:
	default:
		// a saturated reader drops the packet; NATS prunes slow consumers the same way
	}
}

// Identity implements transport.Transport
func (c *Conn) Identity() string {
	return c.identity
}

// Send implements transport.Transport
func (c *Conn) Send(to, name string, payload []byte) error {
	c.mutex.RLock()
	closed := c.closed
	c.mutex.RUnlock()
	if closed {
		return transport.ErrClosed
	}
	data, err := json.Marshal(frame{From: c.identity, Name: name, Payload: payload})
	if err != nil {
		return err
	}
	return c.nc.Publish(c.subject(to), data)
}

// Inbound implements transport.Transport
func (c *Conn) Inbound() <-chan transport.Packet {
	return c.inbound
}

// Close implements transport.Transport. It detaches the inbox subscription
// but leaves the shared NATS connection open.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.sub.Unsubscribe()
		c.mutex.Lock()
		c.closed = true
		close(c.inbound)
		c.mutex.Unlock()
	})
	return err
}
