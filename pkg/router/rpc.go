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
	"time"
)

// PendingCall is the in-flight state of one remote service call. It exists
// from the moment a request is forwarded to its target until a matching reply
// arrives or the deadline elapses.
type PendingCall struct {
	// MessageID is the request header's unique id; replies correlate on it
	MessageID string
	Target    string
	// Caller is the identity the eventual reply is delivered to
	Caller   string
	IssuedAt time.Time
	Deadline time.Time
}

// Dispatcher correlates remote service requests with their replies and
// enforces call deadlines. It is owned by the router loop and is not safe for
// concurrent use.
type Dispatcher struct {
	timeout time.Duration
	pending map[string]*PendingCall
	// order holds pending calls oldest first. All calls share one timeout, so
	// insertion order is deadline order.
	order []*PendingCall
}

// NewDispatcher creates a Dispatcher with the deployment's rpc_timeout_s
func NewDispatcher(timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		timeout: timeout,
		pending: make(map[string]*PendingCall),
	}
}

// Track creates the pending call for a request about to be forwarded.
// At most one pending call may exist per message id; a duplicate is an error
// and creates nothing.
func (d *Dispatcher) Track(messageID, target, caller string, now time.Time) (*PendingCall, error) {
	if _, exists := d.pending[messageID]; exists {
		return nil, &DuplicateCallError{MessageID: messageID}
	}
	call := &PendingCall{
		MessageID: messageID,
		Target:    target,
		Caller:    caller,
		IssuedAt:  now,
		Deadline:  now.Add(d.timeout),
	}
	d.pending[messageID] = call
	d.order = append(d.order, call)
	return call, nil
}

// Resolve destroys and returns the pending call matching the reply's message
// id. A reply that matches nothing is orphaned and the caller of Resolve
// drops it.
func (d *Dispatcher) Resolve(messageID string) (*PendingCall, bool) {
	call, ok := d.pending[messageID]
	if !ok {
		return nil, false
	}
	delete(d.pending, messageID)
	return call, true
}

// Expire destroys and returns every pending call whose deadline has elapsed,
// oldest first. Expiry is equivalent to receiving a synthetic failure for the
// call.
func (d *Dispatcher) Expire(now time.Time) []*PendingCall {
	var expired []*PendingCall
	remaining := d.order[:0]
	for _, call := range d.order {
		if _, live := d.pending[call.MessageID]; !live {
			continue // already resolved
		}
		if now.After(call.Deadline) {
			delete(d.pending, call.MessageID)
			expired = append(expired, call)
			continue
		}
		remaining = append(remaining, call)
	}
	d.order = remaining
	return expired
}

// Pending returns the number of in-flight calls
func (d *Dispatcher) Pending() int {
	return len(d.pending)
}
