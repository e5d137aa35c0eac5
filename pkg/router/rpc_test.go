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
	"errors"
	"testing"
	"time"
)

func TestDispatcher_TrackResolve(t *testing.T) {
	d := NewDispatcher(10 * time.Second)
	now := time.Now()

	call, err := d.Track("msg-1", "camera", "caller", now)
	if err != nil {
		t.Fatalf("Track failed : %v", err)
	}
	if call.Deadline.Sub(call.IssuedAt) != 10*time.Second {
		t.Errorf("the deadline is issued_at plus the timeout : %+v", call)
	}
	if d.Pending() != 1 {
		t.Errorf("one call should be pending : %v", d.Pending())
	}

	resolved, ok := d.Resolve("msg-1")
	if !ok || resolved.Caller != "caller" {
		t.Fatalf("the reply must resolve to the original caller : %+v", resolved)
	}
	if d.Pending() != 0 {
		t.Error("a resolved call is destroyed")
	}
	if _, ok := d.Resolve("msg-1"); ok {
		t.Error("a second reply for the same call is orphaned")
	}
}

func TestDispatcher_AtMostOnePendingCallPerMessageID(t *testing.T) {
	d := NewDispatcher(time.Second)
	now := time.Now()

	if _, err := d.Track("msg-1", "camera", "caller", now); err != nil {
		t.Fatal(err)
	}
	_, err := d.Track("msg-1", "stage", "other", now)
	var dup *DuplicateCallError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateCallError : %v", err)
	}
	if d.Pending() != 1 {
		t.Error("the duplicate must not create a second pending call")
	}
}

func TestDispatcher_ExpireIsDeadlineOrdered(t *testing.T) {
	d := NewDispatcher(time.Second)
	start := time.Now()

	d.Track("first", "camera", "caller", start)
	d.Track("second", "camera", "caller", start.Add(100*time.Millisecond))
	d.Track("fresh", "camera", "caller", start.Add(10*time.Second))

	expired := d.Expire(start.Add(2 * time.Second))
	if len(expired) != 2 || expired[0].MessageID != "first" || expired[1].MessageID != "second" {
		t.Fatalf("expiry is oldest first : %v", expired)
	}
	if d.Pending() != 1 {
		t.Errorf("the fresh call stays pending : %v", d.Pending())
	}

	// an expired call is gone: a late reply is orphaned
	if _, ok := d.Resolve("first"); ok {
		t.Error("a reply after expiry must not resolve")
	}
}

func TestDispatcher_ExpireSkipsResolvedCalls(t *testing.T) {
	d := NewDispatcher(time.Second)
	start := time.Now()

	d.Track("msg-1", "camera", "caller", start)
	d.Resolve("msg-1")

	if expired := d.Expire(start.Add(time.Minute)); len(expired) != 0 {
		t.Errorf("resolved calls never expire : %v", expired)
	}
}
