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

// Package logging centralizes the zerolog conventions used across the bus:
// package scoped loggers, standard field names, and log events.
package logging

import (
	"reflect"
	"time"

	commonsreflect "github.com/AllenNeuralDynamics/mpetk/pkg/commons/reflect"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// standard logger field names
const (
	PACKAGE = "pkg"
	TYPE    = "type"
	SERVICE = "svc"
	EVENT   = "event"

	NODE    = "node"
	TOPIC   = "topic"
	TARGET  = "target"
	MSG_ID  = "msg_id"
	CHANNEL = "channel"

	APP_SESSION    = "app_session"
	SHARED_SESSION = "shared_session"
)

// Event is a named log event. Events make log records greppable by what
// happened rather than by message text.
type Event string

// Log stamps the log event onto the zerolog event
func (e Event) Log(evt *zerolog.Event) *zerolog.Event {
	return evt.Str(EVENT, string(e))
}

// NewPackageLogger returns a new logger with pkg={pkg},
// where {pkg} is o's package path.
// o must be a struct - the pattern is to use an empty struct.
func NewPackageLogger(o interface{}) zerolog.Logger {
	t, err := commonsreflect.Struct(reflect.TypeOf(o))
	if err != nil {
		panic("NewPackageLogger can only be created for a struct")
	}
	return log.With().Str(PACKAGE, string(commonsreflect.TypePackage(t))).Logger()
}

// NewTypeLogger returns a new logger with pkg={pkg}, type={type},
// where {pkg} is o's package path and {type} is o's type name.
// o must be a struct - the pattern is to use an empty struct.
func NewTypeLogger(o interface{}) zerolog.Logger {
	t, err := commonsreflect.Struct(reflect.TypeOf(o))
	if err != nil {
		panic("NewTypeLogger can only be created for a struct")
	}
	return log.With().
		Str(PACKAGE, string(commonsreflect.TypePackage(t))).
		Str(TYPE, t.Name()).
		Logger()
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
}
