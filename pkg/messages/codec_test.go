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

package messages_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/AllenNeuralDynamics/mpetk/pkg/messages"
)

func stampedHeader() messages.Header {
	h := messages.Header{}
	h.Stamp("camstim.exe", "rig-acq-01")
	return h
}

func TestHeader_Stamp(t *testing.T) {
	first := stampedHeader()
	second := stampedHeader()

	if first.Process != "camstim.exe" || first.Host != "rig-acq-01" {
		t.Errorf("process/host were not stamped : %+v", first)
	}
	if first.Timestamp <= 0 {
		t.Errorf("timestamp was not stamped : %+v", first)
	}
	if first.MessageID == "" || first.MessageID == second.MessageID {
		t.Error("every stamp must assign a fresh unique message id")
	}
}

func TestDecode_RoundTripsRemoteServiceRequest(t *testing.T) {
	request := &messages.RemoteServiceRequest{
		Header:      stampedHeader(),
		CommandType: messages.CommandType_RUN,
		Target:      "stage",
		Args:        "- 10\n- 20\n",
		Kwargs:      "speed: fast\n",
	}

	payload, err := messages.Encode(request)
	if err != nil {
		t.Fatalf("Encode failed : %v", err)
	}
	decoded, err := messages.Decode(messages.NameRemoteServiceRequest, payload)
	if err != nil {
		t.Fatalf("Decode failed : %v", err)
	}
	got, ok := decoded.(*messages.RemoteServiceRequest)
	if !ok {
		t.Fatalf("decoded the wrong variant : %T", decoded)
	}
	if *got != *request {
		t.Errorf("round trip altered the envelope :\n%+v\n%+v", request, got)
	}
}

func TestDecode_RoundTripsPlatformInfo(t *testing.T) {
	info := messages.NewPlatformInfo()
	info.Header = stampedHeader()

	payload, err := messages.Encode(info)
	if err != nil {
		t.Fatalf("Encode failed : %v", err)
	}
	decoded, err := messages.Decode(messages.NamePlatformInfo, payload)
	if err != nil {
		t.Fatalf("Decode failed : %v", err)
	}
	got := decoded.(*messages.PlatformInfo)
	if got.Python != info.Python || got.Host != info.Host || got.StartTime != info.StartTime {
		t.Errorf("platform snapshot did not round trip :\n%+v\n%+v", info, got)
	}
	if got.Host.ByteOrder != "little" && got.Host.ByteOrder != "big" {
		t.Errorf("byteorder must be little or big : %v", got.Host.ByteOrder)
	}
}

func TestDecode_RejectsUnknownEnvelopeName(t *testing.T) {
	_, err := messages.Decode("no_such_message", []byte(`{}`))
	var decodeErr *messages.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected a DecodeError : %v", err)
	}
	if decodeErr.Name != "no_such_message" {
		t.Errorf("DecodeError should name the envelope : %v", decodeErr)
	}
}

func TestDecode_RejectsMalformedPayload(t *testing.T) {
	_, err := messages.Decode(messages.NameGenericHeartbeat, []byte(`{"header": not json`))
	var decodeErr *messages.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected a DecodeError : %v", err)
	}
}

func TestDecode_RejectsMissingRequiredFields(t *testing.T) {
	// header present, required topic missing
	header := stampedHeader()
	reg := &messages.RegisterForMessage{Header: header}
	if _, err := messages.Encode(reg); !errors.Is(err, messages.ErrTopicRequired) {
		t.Errorf("Encode should reject a missing topic : %v", err)
	}

	payload := []byte(`{"header":{"process":"p","host":"h","timestamp":1.5,"message_id":"m"}}`)
	if _, err := messages.Decode(messages.NameRegisterForMessage, payload); err == nil {
		t.Error("Decode should reject a registration without a topic")
	}

	// missing header fields
	payload = []byte(`{"header":{"process":"p"},"message_id":"alerts"}`)
	_, err := messages.Decode(messages.NameRegisterForMessage, payload)
	var decodeErr *messages.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected a DecodeError for a partial header : %v", err)
	}
}

func TestDecode_RejectsUnknownEnumValues(t *testing.T) {
	payload := []byte(`{
		"header":{"process":"p","host":"h","timestamp":1.5,"message_id":"m"},
		"command_type":"EXPLODE",
		"target":"stage"
	}`)
	_, err := messages.Decode(messages.NameRemoteServiceRequest, payload)
	if err == nil {
		t.Fatal("an unrecognized command_type must be rejected at decode time")
	}
	if !strings.Contains(err.Error(), "EXPLODE") {
		t.Errorf("the error should name the bad value : %v", err)
	}
}

func TestEnums_WireNames(t *testing.T) {
	reply := &messages.RemoteServiceReply{
		Header:     stampedHeader(),
		CallResult: messages.CallResult_FAILED,
		Reply:      "no such target",
	}
	payload, err := messages.Encode(reply)
	if err != nil {
		t.Fatalf("Encode failed : %v", err)
	}
	if !strings.Contains(string(payload), `"FAILED"`) {
		t.Errorf("call_result should encode as its wire name : %s", payload)
	}

	decoded, err := messages.Decode(messages.NameRemoteServiceReply, payload)
	if err != nil {
		t.Fatalf("Decode failed : %v", err)
	}
	if decoded.(*messages.RemoteServiceReply).CallResult != messages.CallResult_FAILED {
		t.Error("call_result did not round trip")
	}

	if messages.CommandType_PLATFORM_INFO.String() != "PLATFORM_INFO" {
		t.Errorf("unexpected wire name : %v", messages.CommandType_PLATFORM_INFO)
	}
	if err := messages.CommandType_UNKNOWN.Validate(); err == nil {
		t.Error("the zero command type must not validate")
	}
}

func TestKnown(t *testing.T) {
	if !messages.Known(messages.NameRouterAlive) {
		t.Error("router_alive is a defined envelope")
	}
	if messages.Known("alerts") {
		t.Error("application topics are not defined envelopes")
	}
}
