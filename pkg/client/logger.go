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

import "github.com/AllenNeuralDynamics/mpetk/pkg/logging"

type pkgobject struct{}

var logger = logging.NewPackageLogger(pkgobject{})

// log events
const (
	LOG_EVENT_STARTED logging.Event = "STARTED"
	LOG_EVENT_STOPPED logging.Event = "STOPPED"

	LOG_EVENT_SUBSCRIBED   logging.Event = "SUBSCRIBED"
	LOG_EVENT_UNSUBSCRIBED logging.Event = "UNSUBSCRIBED"

	LOG_EVENT_CALLBACK_PANIC logging.Event = "CALLBACK_PANIC"
	LOG_EVENT_COMMAND_SERVED logging.Event = "COMMAND_SERVED"
	LOG_EVENT_COMMAND_FAILED logging.Event = "COMMAND_FAILED"
	LOG_EVENT_MSG_DROPPED    logging.Event = "MSG_DROPPED"
)
