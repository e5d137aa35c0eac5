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
	"reflect"
	"testing"
)

func TestDirectory_RegisterIsIdempotent(t *testing.T) {
	d := NewDirectory()

	if !d.Register("A", "alerts") {
		t.Error("first registration should report a change")
	}
	if d.Register("A", "alerts") {
		t.Error("re-registration should be a no-op")
	}
	if got := d.SubscribersOf("alerts"); !reflect.DeepEqual(got, []string{"A"}) {
		t.Errorf("registering twice must yield the same subscriber set : %v", got)
	}
}

func TestDirectory_DeregisterRemovesEmptyTopics(t *testing.T) {
	d := NewDirectory()
	d.Register("A", "alerts")
	d.Register("B", "alerts")

	if !d.Deregister("A", "alerts") {
		t.Error("deregistration of a subscriber should report a change")
	}
	if d.Deregister("A", "alerts") {
		t.Error("repeated deregistration should be a no-op")
	}
	if got := d.SubscribersOf("alerts"); !reflect.DeepEqual(got, []string{"B"}) {
		t.Errorf("A should be gone : %v", got)
	}

	d.Deregister("B", "alerts")
	if len(d.Topics()) != 0 {
		t.Errorf("an empty topic must not be advertised : %v", d.Topics())
	}
	if got := d.SubscribersOf("alerts"); len(got) != 0 {
		t.Errorf("unknown topics read as empty, not as an error : %v", got)
	}
}

func TestDirectory_EvictRemovesNodeEverywhere(t *testing.T) {
	d := NewDirectory()
	d.Register("A", "alerts")
	d.Register("A", "telemetry")
	d.Register("B", "telemetry")

	evictedFrom := d.Evict("A")
	if !reflect.DeepEqual(evictedFrom, []string{"alerts", "telemetry"}) {
		t.Errorf("unexpected evicted topics : %v", evictedFrom)
	}
	if !reflect.DeepEqual(d.Topics(), []string{"telemetry"}) {
		t.Errorf("alerts lost its only subscriber and must disappear : %v", d.Topics())
	}
	if len(d.Evict("A")) != 0 {
		t.Error("evicting an absent node is a no-op")
	}
}

func TestDirectory_TopicsOf(t *testing.T) {
	d := NewDirectory()
	d.Register("A", "alerts")
	d.Register("A", "telemetry")

	if got := d.TopicsOf("A"); !reflect.DeepEqual(got, []string{"alerts", "telemetry"}) {
		t.Errorf("unexpected topics : %v", got)
	}
	if got := d.TopicsOf("ghost"); len(got) != 0 {
		t.Errorf("an unknown node has no topics : %v", got)
	}
}
