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
	"fmt"
)

var (
	ErrHeaderProcessRequired   = errors.New("Header.Process is required")
	ErrHeaderHostRequired      = errors.New("Header.Host is required")
	ErrHeaderTimestampRequired = errors.New("Header.Timestamp is required")
	ErrHeaderMessageIDRequired = errors.New("Header.MessageID is required")

	ErrTopicRequired         = errors.New("registration topic is required")
	ErrStartTimeRequired     = errors.New("start_time is required")
	ErrDeviceNameRequired    = errors.New("device_name is required")
	ErrDeviceAddressRequired = errors.New("ip_address is required")
	ErrDevicePortRequired    = errors.New("port is required")
	ErrTargetRequired        = errors.New("target is required")
)

// DecodeError reports a malformed envelope. Envelopes that fail to decode are
// dropped without mutating any router state.
type DecodeError struct {
	// Name is the wire envelope name frame
	Name string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode %q envelope : %v", e.Name, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// UnknownEnumError reports an enum wire value outside its closed set
type UnknownEnumError struct {
	Enum  string
	Value string
}

func (e *UnknownEnumError) Error() string {
	return fmt.Sprintf("%v is not a valid %v value", e.Value, e.Enum)
}
