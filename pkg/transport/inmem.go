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

package transport

import "sync"

// Inmem is a process-local hub transport. Peers attach with Dial and exchange
// packets with the hub over buffered channels. It exists so that router
// behavior can be tested without a wire transport.
type Inmem struct {
	sync.Mutex
	identity string
	inbound  chan Packet
	peers    map[string]*InmemPeer
	closed   bool
}

// NewInmem creates the hub endpoint
func NewInmem(identity string, buffer int) *Inmem {
	return &Inmem{
		identity: identity,
		inbound:  make(chan Packet, buffer),
		peers:    make(map[string]*InmemPeer),
	}
}

// Dial attaches a peer endpoint to the hub
func (t *Inmem) Dial(identity string, buffer int) *InmemPeer {
	peer := &InmemPeer{
		identity: identity,
		hub:      t,
		inbound:  make(chan Packet, buffer),
	}
	t.Lock()
	t.peers[identity] = peer
	t.Unlock()
	return peer
}

// Identity implements Transport
func (t *Inmem) Identity() string {
	return t.identity
}

// Send implements Transport. Delivery to a saturated peer is dropped with an
// error rather than blocking the hub. The send happens under the hub mutex:
// channels are only ever closed while the same mutex is held, so a peer
// closing concurrently can never turn a send into a panic.
func (t *Inmem) Send(to, name string, payload []byte) error {
	t.Lock()
	defer t.Unlock()
	if t.closed {
		return ErrClosed
	}
	peer, ok := t.peers[to]
	if !ok {
		return ErrUnknownDestination
	}
	select {
	case peer.inbound <- Packet{From: t.identity, Name: name, Payload: payload}:
		return nil
	default:
		return ErrPeerSaturated
	}
}

// Inbound implements Transport
func (t *Inmem) Inbound() <-chan Packet {
	return t.inbound
}

// Close implements Transport
func (t *Inmem) Close() error {
	t.Lock()
	defer t.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.inbound)
	for _, peer := range t.peers {
		close(peer.inbound)
	}
	t.peers = map[string]*InmemPeer{}
	return nil
}

// InmemPeer is a node endpoint attached to an Inmem hub
type InmemPeer struct {
	identity string
	hub      *Inmem
	inbound  chan Packet
}

// Identity implements Transport
func (p *InmemPeer) Identity() string {
	return p.identity
}

// Send implements Transport. Peers only ever talk to the hub, so the
// destination identity is ignored. As with the hub's Send, the send is
// serialized with Close by the hub mutex.
func (p *InmemPeer) Send(to, name string, payload []byte) error {
	p.hub.Lock()
	defer p.hub.Unlock()
	if p.hub.closed {
		return ErrClosed
	}
	select {
	case p.hub.inbound <- Packet{From: p.identity, Name: name, Payload: payload}:
		return nil
	default:
		return ErrPeerSaturated
	}
}

// Inbound implements Transport
func (p *InmemPeer) Inbound() <-chan Packet {
	return p.inbound
}

// Close implements Transport. Closing a peer detaches it from the hub; the
// hub keeps running.
func (p *InmemPeer) Close() error {
	p.hub.Lock()
	defer p.hub.Unlock()
	if _, attached := p.hub.peers[p.identity]; attached {
		delete(p.hub.peers, p.identity)
		close(p.inbound)
	}
	return nil
}
