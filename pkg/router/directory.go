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

	"github.com/AllenNeuralDynamics/mpetk/pkg/commons/collections/sets"
	"github.com/AllenNeuralDynamics/mpetk/pkg/messages"
)

// WildcardTopic subscribes a node to every publication on the bus
const WildcardTopic = messages.WildcardTopic

// Directory is the live mapping from topic to subscriber node ids.
// It is owned by the router loop and is not safe for concurrent use.
// A topic key exists if and only if it has at least one subscriber.
type Directory struct {
	topics map[string]*sets.Strings
}

// NewDirectory creates an empty Directory
func NewDirectory() *Directory {
	return &Directory{topics: make(map[string]*sets.Strings)}
}

// Register adds the node to the topic's subscriber set.
// It is idempotent: registering twice is the same as registering once.
// It returns false when the node was already subscribed.
func (d *Directory) Register(node, topic string) bool {
	subscribers, ok := d.topics[topic]
	if !ok {
		subscribers = sets.NewStrings()
		d.topics[topic] = subscribers
	}
	return subscribers.Add(node)
}

// Deregister removes the node from the topic's subscriber set.
// It is idempotent. When the last subscriber leaves, the topic key is removed
// so that router_alive never advertises empty topics.
// It returns false when the node was not subscribed.
func (d *Directory) Deregister(node, topic string) bool {
	subscribers, ok := d.topics[topic]
	if !ok {
		return false
	}
	removed := subscribers.Remove(node)
	if subscribers.Empty() {
		delete(d.topics, topic)
	}
	return removed
}

// SubscribersOf returns the subscribers of the topic, sorted.
// An unknown topic is an empty result, not an error.
func (d *Directory) SubscribersOf(topic string) []string {
	subscribers, ok := d.topics[topic]
	if !ok {
		return nil
	}
	return subscribers.Values()
}

// Subscribed reports whether the node is subscribed to the topic
func (d *Directory) Subscribed(node, topic string) bool {
	subscribers, ok := d.topics[topic]
	return ok && subscribers.Contains(node)
}

// Evict removes the node from every topic and returns the topics it was
// removed from. Only the heartbeat sweep and explicit teardown call this.
func (d *Directory) Evict(node string) []string {
	var evictedFrom []string
	for topic, subscribers := range d.topics {
		if subscribers.Remove(node) {
			evictedFrom = append(evictedFrom, topic)
			if subscribers.Empty() {
				delete(d.topics, topic)
			}
		}
	}
	sort.Strings(evictedFrom)
	return evictedFrom
}

// TopicsOf returns the topics the node is subscribed to, sorted
func (d *Directory) TopicsOf(node string) []string {
	var topics []string
	for topic, subscribers := range d.topics {
		if subscribers.Contains(node) {
			topics = append(topics, topic)
		}
	}
	sort.Strings(topics)
	return topics
}

// Topics returns the current topic keys, sorted. Every returned topic has at
// least one subscriber; this is exactly what router_alive advertises.
func (d *Directory) Topics() []string {
	topics := make([]string, 0, len(d.topics))
	for topic := range d.topics {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// Size returns the number of topics with at least one subscriber
func (d *Directory) Size() int {
	return len(d.topics)
}
