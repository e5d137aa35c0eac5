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
	"errors"
	"fmt"
)

var (
	// ErrAlreadyStarted means Start was called on a running client
	ErrAlreadyStarted = errors.New("client: already started")

	// ErrStopped means the client was stopped while an operation was in flight
	ErrStopped = errors.New("client: stopped")

	// ErrCallTimeout means a remote call produced no reply within the deadline
	ErrCallTimeout = errors.New("client: remote call timed out")

	// ErrHandlerNameRequired means a RUN command arrived without the handler
	// name as its first argument
	ErrHandlerNameRequired = errors.New("client: RUN requires the handler name as the first argument")
)

// UnknownHandlerError means a RUN or CALLABLE command named a handler that
// was never registered
type UnknownHandlerError struct {
	Name string
}

func (e *UnknownHandlerError) Error() string {
	return fmt.Sprintf("client: unknown handler : %s", e.Name)
}

// UnknownPropertyError means a GET command named a property that was never set
type UnknownPropertyError struct {
	Name string
}

func (e *UnknownPropertyError) Error() string {
	return fmt.Sprintf("client: unknown property : %s", e.Name)
}
