// Copyright 2025.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced job id is absent from the registry.
var ErrNotFound = errors.New("job not found")

// ConnectionError covers DNS resolution, dial timeout, handshake and
// authentication failures.
type ConnectionError struct {
	Reason string
	Err    error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("connection failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("connection failed: %s", e.Reason)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// CommandError is a remote command that exited nonzero. Output carries
// whichever of stderr/stdout was non-empty, stderr preferred.
type CommandError struct {
	ExitCode int
	Output   string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("remote command exited with status %d: %s", e.ExitCode, e.Output)
}

// TransformError is a failed layout transform; the submission is aborted
// rather than silently printing the untransformed document.
type TransformError struct {
	Reason string
	Err    error
}

func (e *TransformError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("layout transform failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("layout transform failed: %s", e.Reason)
}

func (e *TransformError) Unwrap() error { return e.Err }

// PersistenceError wraps durable read/write/parse failures of the job file.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
