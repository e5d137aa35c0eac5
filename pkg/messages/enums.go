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

import "fmt"

// CommandType is the closed set of remote service command kinds
type CommandType int

const (
	CommandType_UNKNOWN CommandType = iota

	// CommandType_RUN invokes a named callable on the target
	CommandType_RUN
	// CommandType_SET assigns a property on the target
	CommandType_SET
	// CommandType_GET reads a property from the target
	CommandType_GET
	// CommandType_CALLABLE asks whether the named target member is callable
	CommandType_CALLABLE
	// CommandType_PLATFORM_INFO is a reserved convention: the target answers
	// with its platform snapshot instead of invoking anything
	CommandType_PLATFORM_INFO
)

var commandTypeNames = map[CommandType]string{
	CommandType_RUN:           "RUN",
	CommandType_SET:           "SET",
	CommandType_GET:           "GET",
	CommandType_CALLABLE:      "CALLABLE",
	CommandType_PLATFORM_INFO: "PLATFORM_INFO",
}

func (c CommandType) String() string {
	if name, ok := commandTypeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(c))
}

// Validate rejects values outside the closed set
func (c CommandType) Validate() error {
	if _, ok := commandTypeNames[c]; !ok {
		return &UnknownEnumError{Enum: "command_type", Value: c.String()}
	}
	return nil
}

// MarshalJSON encodes the enum as its wire name
func (c CommandType) MarshalJSON() ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return []byte(`"` + c.String() + `"`), nil
}

// UnmarshalJSON rejects wire values outside the closed set
func (c *CommandType) UnmarshalJSON(data []byte) error {
	name, err := unquote(data)
	if err != nil {
		return err
	}
	for value, n := range commandTypeNames {
		if n == name {
			*c = value
			return nil
		}
	}
	return &UnknownEnumError{Enum: "command_type", Value: name}
}

// CallResult is the closed set of remote service call outcomes
type CallResult int

const (
	CallResult_UNKNOWN CallResult = iota

	CallResult_FAILED
	CallResult_PROCESSED
)

var callResultNames = map[CallResult]string{
	CallResult_FAILED:    "FAILED",
	CallResult_PROCESSED: "PROCESSED",
}

func (c CallResult) String() string {
	if name, ok := callResultNames[c]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(c))
}

// Validate rejects values outside the closed set
func (c CallResult) Validate() error {
	if _, ok := callResultNames[c]; !ok {
		return &UnknownEnumError{Enum: "call_result", Value: c.String()}
	}
	return nil
}

// MarshalJSON encodes the enum as its wire name
func (c CallResult) MarshalJSON() ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return []byte(`"` + c.String() + `"`), nil
}

// UnmarshalJSON rejects wire values outside the closed set
func (c *CallResult) UnmarshalJSON(data []byte) error {
	name, err := unquote(data)
	if err != nil {
		return err
	}
	for value, n := range callResultNames {
		if n == name {
			*c = value
			return nil
		}
	}
	return &UnknownEnumError{Enum: "call_result", Value: name}
}

func unquote(data []byte) (string, error) {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return "", fmt.Errorf("enum value must be a string : %s", data)
	}
	return string(data[1 : len(data)-1]), nil
}
