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

import "fmt"

// Auth is the credential variant used for an SSH connection attempt.
// Exactly two implementations exist: PasswordAuth and KeyAuth. Consumers
// must switch exhaustively on the concrete type.
type Auth interface {
	authKind() string
}

type PasswordAuth struct {
	Password string
}

func (PasswordAuth) authKind() string { return "password" }

type KeyAuth struct {
	KeyPath    string
	Passphrase string
}

func (KeyAuth) authKind() string { return "key" }

// ConnectionConfig describes how to reach and authenticate with the remote
// shell host. It is immutable once handed to a connect attempt and is kept
// only by the session manager for reconnection.
type ConnectionConfig struct {
	Host     string
	Port     int
	Username string
	Auth     Auth
}

// Redacted renders the config for logs without exposing credentials.
func (c ConnectionConfig) Redacted() string {
	kind := "none"
	if c.Auth != nil {
		kind = c.Auth.authKind()
	}
	return fmt.Sprintf("%s@%s:%d (%s auth)", c.Username, c.Host, c.Port, kind)
}
