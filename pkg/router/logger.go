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

import "github.com/AllenNeuralDynamics/mpetk/pkg/logging"

type pkgobject struct{}

var logger = logging.NewPackageLogger(pkgobject{})

// log events
const (
	LOG_EVENT_STARTED logging.Event = "STARTED"
	LOG_EVENT_STOPPED logging.Event = "STOPPED"

	LOG_EVENT_REGISTERED   logging.Event = "REGISTERED"
	LOG_EVENT_DEREGISTERED logging.Event = "DEREGISTERED"
	LOG_EVENT_NODE_EVICTED logging.Event = "NODE_EVICTED"

	LOG_EVENT_FORWARDED   logging.Event = "FORWARDED"
	LOG_EVENT_MSG_DROPPED logging.Event = "MSG_DROPPED"
	LOG_EVENT_DECODE_ERR  logging.Event = "DECODE_ERR"

	LOG_EVENT_UNKNOWN_TARGET logging.Event = "UNKNOWN_TARGET"
	LOG_EVENT_ORPHANED_REPLY logging.Event = "ORPHANED_REPLY"
	LOG_EVENT_CALL_TIMEOUT   logging.Event = "CALL_TIMEOUT"

	LOG_EVENT_BROADCAST logging.Event = "BROADCAST"
)
