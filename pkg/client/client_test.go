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

package client

import (
	"strings"
	"testing"
	"time"

	"github.com/AllenNeuralDynamics/mpetk/pkg/messages"
	"github.com/AllenNeuralDynamics/mpetk/pkg/router"
	"github.com/AllenNeuralDynamics/mpetk/pkg/transport"
)

func startBus(t *testing.T) *transport.Inmem {
	t.Helper()
	hub := transport.NewInmem("router", 64)
	r := router.New(router.Config{
		Process:           "router_test",
		TimeToLive:        time.Minute,
		SweepInterval:     10 * time.Millisecond,
		RPCTimeout:        time.Minute,
		BroadcastInterval: time.Hour,
	}, hub, nil)
	if err := r.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		r.Stop()
		hub.Close()
	})
	return hub
}

func startClient(t *testing.T, hub *transport.Inmem, identity string, cfg Config) *Client {
	t.Helper()
	if cfg.Process == "" {
		cfg.Process = identity + ".exe"
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = 50 * time.Millisecond
	}
	if cfg.RPCTimeout == 0 {
		cfg.RPCTimeout = 2 * time.Second
	}
	c := New(cfg, hub.Dial(identity, 64))
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Stop)
	return c
}

func TestClient_SubscribePublish(t *testing.T) {
	hub := startBus(t)
	a := startClient(t, hub, "A", Config{})
	b := startClient(t, hub, "B", Config{})

	received := make(chan string, 4)
	if err := a.Subscribe("alerts", func(topic string, payload []byte) {
		received <- topic + " " + string(payload)
	}); err != nil {
		t.Fatal(err)
	}

	if err := b.PublishRaw("alerts", []byte(`{"severity":"high"}`)); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-received:
		if got != `alerts {"severity":"high"}` {
			t.Errorf("unexpected delivery : %s", got)
		}
	case <-time.After(time.Second):
		t.Fatal("the subscription never delivered")
	}

	// unsubscribing stops delivery
	if err := a.Unsubscribe("alerts"); err != nil {
		t.Fatal(err)
	}
	b.PublishRaw("alerts", []byte(`{}`))
	select {
	case got := <-received:
		t.Errorf("delivery after unsubscribe : %s", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestClient_WildcardSubscription(t *testing.T) {
	hub := startBus(t)
	a := startClient(t, hub, "A", Config{})
	b := startClient(t, hub, "B", Config{})

	received := make(chan string, 4)
	a.Subscribe(messages.WildcardTopic, func(topic string, payload []byte) {
		received <- topic
	})

	b.PublishRaw("alerts", []byte(`{}`))
	b.PublishRaw("telemetry", []byte(`{}`))

	for _, want := range []string{"alerts", "telemetry"} {
		select {
		case topic := <-received:
			if topic != want {
				t.Errorf("got %q, want %q", topic, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("never received %q", want)
		}
	}
}

func TestClient_CallbackPanicIsContained(t *testing.T) {
	hub := startBus(t)
	a := startClient(t, hub, "A", Config{})
	b := startClient(t, hub, "B", Config{})

	received := make(chan struct{}, 4)
	a.Subscribe("alerts", func(topic string, payload []byte) {
		panic("callback bug")
	})
	a.Subscribe("alerts", func(topic string, payload []byte) {
		received <- struct{}{}
	})

	b.PublishRaw("alerts", []byte(`{}`))
	b.PublishRaw("alerts", []byte(`{}`))

	for i := 0; i < 2; i++ {
		select {
		case <-received:
		case <-time.After(time.Second):
			t.Fatal("a panicking callback must not take the dispatch loop down")
		}
	}
}

func TestClient_RemoteRun(t *testing.T) {
	hub := startBus(t)
	camera := startClient(t, hub, "camera", Config{})
	workflow := startClient(t, hub, "workflow", Config{})

	camera.RegisterHandler("start_recording", func(args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
		if len(args) != 1 || args[0] != 30 {
			t.Errorf("unexpected handler args : %v", args)
		}
		if kwargs["codec"] != "h264" {
			t.Errorf("unexpected handler kwargs : %v", kwargs)
		}
		return map[string]interface{}{"status": "recording"}, nil
	})

	reply, err := workflow.Call("camera", messages.CommandType_RUN,
		[]interface{}{"start_recording", 30},
		map[string]interface{}{"codec": "h264"})
	if err != nil {
		t.Fatal(err)
	}
	if reply.CallResult != messages.CallResult_PROCESSED {
		t.Fatalf("unexpected result : %+v", reply)
	}
	if !strings.Contains(reply.Reply, "status: recording") {
		t.Errorf("the handler result travels back as YAML : %q", reply.Reply)
	}
}

func TestClient_RemoteRunUnknownHandlerFails(t *testing.T) {
	hub := startBus(t)
	startClient(t, hub, "camera", Config{})
	workflow := startClient(t, hub, "workflow", Config{})

	reply, err := workflow.Call("camera", messages.CommandType_RUN,
		[]interface{}{"no_such_handler"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if reply.CallResult != messages.CallResult_FAILED {
		t.Fatalf("an unknown handler is a failed call : %+v", reply)
	}
	if !strings.Contains(reply.Reply, "no_such_handler") {
		t.Errorf("the failure should name the handler : %q", reply.Reply)
	}
}

func TestClient_RemoteProperties(t *testing.T) {
	hub := startBus(t)
	camera := startClient(t, hub, "camera", Config{})
	workflow := startClient(t, hub, "workflow", Config{})

	camera.SetProperty("exposure", 12.5)

	reply, err := workflow.Call("camera", messages.CommandType_GET,
		[]interface{}{"exposure"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if reply.CallResult != messages.CallResult_PROCESSED || !strings.Contains(reply.Reply, "exposure: 12.5") {
		t.Errorf("unexpected GET reply : %+v", reply)
	}

	reply, err = workflow.Call("camera", messages.CommandType_SET,
		nil, map[string]interface{}{"exposure": 20})
	if err != nil {
		t.Fatal(err)
	}
	if reply.CallResult != messages.CallResult_PROCESSED {
		t.Fatalf("unexpected SET reply : %+v", reply)
	}
	if value, ok := camera.Property("exposure"); !ok || value != 20 {
		t.Errorf("the SET must land in the property table : %v", value)
	}

	// reading a property that was never set fails the call
	reply, err = workflow.Call("camera", messages.CommandType_GET,
		[]interface{}{"gain"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if reply.CallResult != messages.CallResult_FAILED {
		t.Errorf("an unknown property is a failed call : %+v", reply)
	}
}

func TestClient_RemoteCallable(t *testing.T) {
	hub := startBus(t)
	camera := startClient(t, hub, "camera", Config{})
	workflow := startClient(t, hub, "workflow", Config{})

	camera.RegisterHandler("start_recording", func(args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
		return nil, nil
	})

	reply, err := workflow.Call("camera", messages.CommandType_CALLABLE,
		[]interface{}{"start_recording", "ghost"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(reply.Reply, "start_recording: true") || !strings.Contains(reply.Reply, "ghost: false") {
		t.Errorf("unexpected CALLABLE reply : %q", reply.Reply)
	}
}

func TestClient_RemotePlatformInfo(t *testing.T) {
	hub := startBus(t)
	startClient(t, hub, "camera", Config{})
	workflow := startClient(t, hub, "workflow", Config{})

	reply, err := workflow.Call("camera", messages.CommandType_PLATFORM_INFO, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if reply.CallResult != messages.CallResult_PROCESSED {
		t.Fatalf("unexpected result : %+v", reply)
	}
	if !strings.Contains(reply.Reply, "implementation: go") {
		t.Errorf("the platform snapshot travels back as YAML : %q", reply.Reply)
	}
}

func TestClient_CallUnknownTarget(t *testing.T) {
	hub := startBus(t)
	workflow := startClient(t, hub, "workflow", Config{})

	reply, err := workflow.Call("ghost", messages.CommandType_RUN,
		[]interface{}{"anything"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if reply.CallResult != messages.CallResult_FAILED {
		t.Errorf("a call to an unknown node fails : %+v", reply)
	}
}

func TestClient_DeviceHeartbeatAnnouncesDevice(t *testing.T) {
	hub := startBus(t)
	startClient(t, hub, "camera", Config{
		Device: &DeviceProfile{Name: "Camera", IPAddress: "10.128.1.5", Port: 6005},
	})
	workflow := startClient(t, hub, "workflow", Config{})

	// the device list is served by the router, not by a node: ask it raw
	devices := make(chan string, 1)
	workflow.Subscribe(messages.NameRemoteDevicesList, func(topic string, payload []byte) {
		devices <- string(payload)
	})
	if err := workflow.Publish(&messages.RequestRemoteDevices{}); err != nil {
		t.Fatal(err)
	}

	select {
	case listing := <-devices:
		if !strings.Contains(listing, `"device_name":"Camera"`) {
			t.Errorf("unexpected device listing : %s", listing)
		}
	case <-time.After(time.Second):
		t.Fatal("the device listing never arrived")
	}
}
