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

package messages

import (
	"errors"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var factories = map[string]func() Message{
	NameRegisterForMessage:    func() Message { return &RegisterForMessage{} },
	NameDeregisterForMessage:  func() Message { return &DeregisterForMessage{} },
	NameGenericHeartbeat:      func() Message { return &GenericHeartbeat{} },
	NameRemoteDeviceHeartbeat: func() Message { return &RemoteDeviceHeartbeat{} },
	NameRequestRemoteDevices:  func() Message { return &RequestRemoteDevices{} },
	NameRemoteDevicesList:     func() Message { return &RemoteDevicesList{} },
	NameRouterAlive:           func() Message { return &RouterAlive{} },
	NameTrafficReport:         func() Message { return &TrafficReport{} },
	NameRegisteredNodes:       func() Message { return &RegisteredNodes{} },
	NameRemoteServiceRequest:  func() Message { return &RemoteServiceRequest{} },
	NameRemoteServiceReply:    func() Message { return &RemoteServiceReply{} },
	NamePlatformInfo:          func() Message { return &PlatformInfo{} },
}

// Known reports whether name is one of the defined envelope names.
// Envelopes with other names are opaque to the router: it forwards them by
// topic without looking inside.
func Known(name string) bool {
	_, ok := factories[name]
	return ok
}

// Decode decodes the payload of the envelope named by the first wire frame.
// It fails with *DecodeError when the name is not a defined envelope, the
// payload is malformed, or a required field is missing. Decode never returns
// a partially valid envelope.
func Decode(name string, payload []byte) (Message, error) {
	factory, ok := factories[name]
	if !ok {
		return nil, &DecodeError{Name: name, Err: errUnknownEnvelope}
	}
	msg := factory()
	if err := json.Unmarshal(payload, msg); err != nil {
		return nil, &DecodeError{Name: name, Err: err}
	}
	if err := msg.Validate(); err != nil {
		return nil, &DecodeError{Name: name, Err: err}
	}
	return msg, nil
}

// Encode is the structural inverse of Decode: it validates the envelope and
// serializes it so that every field round-trips exactly.
func Encode(msg Message) ([]byte, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(msg)
}

var errUnknownEnvelope = errors.New("not a defined envelope")
