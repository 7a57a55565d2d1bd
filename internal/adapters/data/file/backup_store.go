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

package file

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const backupFileName = "original.pdf"

// backupStore keeps one directory per job id under the backups root, each
// holding a copy of the original source document. Keyed by job id, so
// artifacts never collide across jobs.
type backupStore struct {
	dir    string
	logger *zap.SugaredLogger
}

func NewBackupStore(logger *zap.SugaredLogger, dir string) *backupStore {
	return &backupStore{dir: dir, logger: logger}
}

// Backup copies the source document into the job's artifact directory and
// returns the backup path.
func (s *backupStore) Backup(jobID, sourcePath string) (string, error) {
	jobDir := filepath.Join(s.dir, jobID)
	if err := os.MkdirAll(jobDir, 0o700); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer src.Close()

	backupPath := filepath.Join(jobDir, backupFileName)
	dst, err := os.Create(backupPath)
	if err != nil {
		return "", fmt.Errorf("create backup file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("copy source document: %w", err)
	}

	s.logger.Debugw("source document backed up", "job", jobID, "path", backupPath)
	return backupPath, nil
}

// Delete removes the job's artifact directory. Deleting a job that has no
// backup is not an error.
func (s *backupStore) Delete(jobID string) error {
	jobDir := filepath.Join(s.dir, jobID)
	if _, err := os.Stat(jobDir); os.IsNotExist(err) {
		return nil
	}
	return os.RemoveAll(jobDir)
}

// Path returns the backup file location if one exists.
func (s *backupStore) Path(jobID string) (string, bool) {
	p := filepath.Join(s.dir, jobID, backupFileName)
	if _, err := os.Stat(p); err != nil {
		return "", false
	}
	return p, true
}
