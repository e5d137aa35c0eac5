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
	"gopkg.in/yaml.v3"

	"github.com/AllenNeuralDynamics/mpetk/pkg/logging"
	"github.com/AllenNeuralDynamics/mpetk/pkg/messages"
)

// Handler answers a RUN command. Args and kwargs are the YAML decoded
// request arguments; the returned value is YAML encoded into the reply.
type Handler func(args []interface{}, kwargs map[string]interface{}) (interface{}, error)

// RegisterHandler exposes a named handler for RUN and CALLABLE commands
func (c *Client) RegisterHandler(name string, handler Handler) {
	c.Lock()
	defer c.Unlock()
	c.handlers[name] = handler
}

// SetProperty exposes a named value for GET commands. SET commands from
// remote nodes write the same table.
func (c *Client) SetProperty(name string, value interface{}) {
	c.Lock()
	defer c.Unlock()
	c.properties[name] = value
}

// Property reads a property, remote writes included
func (c *Client) Property(name string) (interface{}, bool) {
	c.Lock()
	defer c.Unlock()
	value, ok := c.properties[name]
	return value, ok
}

// serveCommand answers one remote_service_request. The reply echoes the
// request header's message id so the router can resolve the pending call.
// Failures are answered, never dropped: the caller always learns the outcome.
func (c *Client) serveCommand(request *messages.RemoteServiceRequest) {
	reply := &messages.RemoteServiceReply{CallResult: messages.CallResult_PROCESSED}

	result, err := c.execute(request)
	if err == nil {
		var encoded []byte
		encoded, err = yaml.Marshal(result)
		reply.Reply = string(encoded)
	}
	if err != nil {
		reply.CallResult = messages.CallResult_FAILED
		reply.Reply = err.Error()
		LOG_EVENT_COMMAND_FAILED.Log(logger.Warn()).
			Str(logging.NODE, request.Header.Process).
			Str("command", request.CommandType.String()).
			Err(err).
			Msg("")
	} else {
		LOG_EVENT_COMMAND_SERVED.Log(logger.Debug()).
			Str(logging.NODE, request.Header.Process).
			Str("command", request.CommandType.String()).
			Msg("")
	}

	reply.Header.Stamp(c.cfg.Process, c.host)
	reply.Header.MessageID = request.Header.MessageID
	if err := c.sendStamped(reply); err != nil {
		LOG_EVENT_MSG_DROPPED.Log(logger.Warn()).
			Str(logging.MSG_ID, request.Header.MessageID).
			Err(err).
			Msg("reply send failed")
	}
}

func (c *Client) execute(request *messages.RemoteServiceRequest) (interface{}, error) {
	args, err := decodeArgs(request.Args)
	if err != nil {
		return nil, err
	}
	kwargs, err := decodeKwargs(request.Kwargs)
	if err != nil {
		return nil, err
	}

	switch request.CommandType {
	case messages.CommandType_RUN:
		return c.runHandler(args, kwargs)
	case messages.CommandType_SET:
		return c.setProperties(kwargs), nil
	case messages.CommandType_GET:
		return c.getProperties(args)
	case messages.CommandType_CALLABLE:
		return c.callable(args), nil
	case messages.CommandType_PLATFORM_INFO:
		info := messages.NewPlatformInfo()
		info.StartTime = c.startTime
		return info, nil
	}
	return nil, request.CommandType.Validate()
}

// runHandler invokes the handler named by the first argument with the rest
func (c *Client) runHandler(args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	if len(args) == 0 {
		return nil, ErrHandlerNameRequired
	}
	name, ok := args[0].(string)
	if !ok {
		return nil, ErrHandlerNameRequired
	}
	c.Lock()
	handler, ok := c.handlers[name]
	c.Unlock()
	if !ok {
		return nil, &UnknownHandlerError{Name: name}
	}
	return handler(args[1:], kwargs)
}

func (c *Client) setProperties(kwargs map[string]interface{}) int {
	c.Lock()
	defer c.Unlock()
	for name, value := range kwargs {
		c.properties[name] = value
	}
	return len(kwargs)
}

func (c *Client) getProperties(args []interface{}) (map[string]interface{}, error) {
	c.Lock()
	defer c.Unlock()
	values := map[string]interface{}{}
	for _, arg := range args {
		name, _ := arg.(string)
		value, ok := c.properties[name]
		if !ok {
			return nil, &UnknownPropertyError{Name: name}
		}
		values[name] = value
	}
	return values, nil
}

func (c *Client) callable(args []interface{}) map[string]bool {
	c.Lock()
	defer c.Unlock()
	exists := map[string]bool{}
	for _, arg := range args {
		name, _ := arg.(string)
		_, ok := c.handlers[name]
		exists[name] = ok
	}
	return exists
}

func encodeArgs(args []interface{}) (string, error) {
	if len(args) == 0 {
		return "", nil
	}
	encoded, err := yaml.Marshal(args)
	return string(encoded), err
}

func encodeKwargs(kwargs map[string]interface{}) (string, error) {
	if len(kwargs) == 0 {
		return "", nil
	}
	encoded, err := yaml.Marshal(kwargs)
	return string(encoded), err
}

func decodeArgs(doc string) ([]interface{}, error) {
	if doc == "" {
		return nil, nil
	}
	var args []interface{}
	err := yaml.Unmarshal([]byte(doc), &args)
	return args, err
}

func decodeKwargs(doc string) (map[string]interface{}, error) {
	if doc == "" {
		return nil, nil
	}
	var kwargs map[string]interface{}
	err := yaml.Unmarshal([]byte(doc), &kwargs)
	return kwargs, err
}
