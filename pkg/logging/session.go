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

package logging

import (
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SharedSessionEnv names the environment variable that carries a session id
// shared across the processes of one deployment. When set, every process on
// the host stamps the same shared_session, which is what makes cross-process
// log correlation possible.
const SharedSessionEnv = "MPE_SHARED_SESSION"

// SessionHook stamps every log record with the app session id (unique per
// process run) and the shared session id (common to all processes of a
// deployment). Attach it via logger.Hook(NewSessionHook()).
type SessionHook struct {
	appSession    string
	sharedSession string
}

// NewSessionHook creates a SessionHook with a fresh app session id.
// The shared session id is taken from SharedSessionEnv when present,
// otherwise this process starts a new shared session.
func NewSessionHook() SessionHook {
	shared := os.Getenv(SharedSessionEnv)
	if shared == "" {
		shared = uuid.NewString()
	}
	return SessionHook{
		appSession:    uuid.NewString(),
		sharedSession: shared,
	}
}

// AppSession returns the per-process session id
func (h SessionHook) AppSession() string {
	return h.appSession
}

// SharedSession returns the cross-process session id
func (h SessionHook) SharedSession() string {
	return h.sharedSession
}

// Run implements zerolog.Hook
func (h SessionHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	e.Str(APP_SESSION, h.appSession).Str(SHARED_SESSION, h.sharedSession)
}
