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

package ports

import "github.com/Qingbolan/Print-SoC/internal/core/domain"

// RemoteClient is what a session-scoped operation gets to work with.
// Execute runs one command over a fresh channel and returns captured
// stdout; nonzero exit status surfaces as *domain.CommandError. Upload
// streams a local file to the remote path via a size-declared transfer.
// Neither retries.
type RemoteClient interface {
	Execute(command string) (string, error)
	Upload(localPath, remotePath string) error
}

// SessionManager owns the single process-wide SSH session. Run is the only
// way other components touch the transport: it re-validates the session
// (one silent reconnect at most) before handing a RemoteClient to op.
// The optional cfg lets Run establish the initial session when none exists
// yet; an existing session always reconnects from its stored config.
type SessionManager interface {
	Connect(cfg domain.ConnectionConfig) (string, error)
	Disconnect() error
	Connected() bool
	Run(cfg *domain.ConnectionConfig, op func(RemoteClient) error) error
}

// JobStore persists the full job set durably. Save must be atomic: a crash
// mid-write never corrupts the previous good snapshot.
type JobStore interface {
	Load() (map[string]domain.Job, error)
	Save(jobs map[string]domain.Job) error
}

// BackupStore keeps one artifact directory per job id holding a copy of
// the original source document.
type BackupStore interface {
	Backup(jobID, sourcePath string) (string, error)
	Delete(jobID string) error
	Path(jobID string) (string, bool)
}

// LayoutTransformer produces a multi-up or booklet rendition of the input
// document. External collaborator; failures carry *domain.TransformError.
type LayoutTransformer interface {
	Transform(inputPath, outputPath string, settings domain.PrintSettings) error
}

// PrinterCatalog lists the known printer queues. Stateless.
type PrinterCatalog interface {
	ListPrinters() ([]domain.Printer, error)
}
