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

import (
	"errors"
	"fmt"
)

// ErrAlreadyStarted means Start was called on a running router
var ErrAlreadyStarted = errors.New("Router is already started")

// UnknownTargetError indicates a remote service request addressed a node that
// is not registered. The caller receives a synthesized FAILED reply; no
// pending call is created.
type UnknownTargetError struct {
	Target string
}

func (e *UnknownTargetError) Error() string {
	return fmt.Sprint("no registered node for target : ", e.Target)
}

// OrphanedReplyError indicates a remote service reply that matches no pending
// call: the call already resolved, timed out, or never existed. The reply is
// dropped.
type OrphanedReplyError struct {
	MessageID string
}

func (e *OrphanedReplyError) Error() string {
	return fmt.Sprint("no pending call for reply : ", e.MessageID)
}

// DuplicateCallError indicates a second in-flight call with the same message
// id. At most one pending call may exist per message id.
type DuplicateCallError struct {
	MessageID string
}

func (e *DuplicateCallError) Error() string {
	return fmt.Sprint("a call with this message id is already pending : ", e.MessageID)
}
