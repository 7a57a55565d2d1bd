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
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Qingbolan/Print-SoC/internal/core/domain"
)

// jobStore persists the job set as a JSON array in a single file, written
// via temp-file-then-rename so a crash mid-write never replaces the
// previous good snapshot.
type jobStore struct {
	filePath string
	logger   *zap.SugaredLogger
}

func NewJobStore(logger *zap.SugaredLogger, filePath string) *jobStore {
	return &jobStore{filePath: filePath, logger: logger}
}

// Load reads the durable file. Absence is a first run, not an error; a
// parse failure is reported as *domain.PersistenceError so the registry
// can degrade to empty with a warning.
func (s *jobStore) Load() (map[string]domain.Job, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]domain.Job), nil
		}
		return nil, &domain.PersistenceError{Op: "read", Err: err}
	}

	if strings.TrimSpace(string(data)) == "" {
		return make(map[string]domain.Job), nil
	}

	var jobs []domain.Job
	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, &domain.PersistenceError{Op: "parse", Err: err}
	}

	out := make(map[string]domain.Job, len(jobs))
	for _, job := range jobs {
		out[job.ID] = job
	}
	return out, nil
}

// Save serializes the full set and atomically renames it into place.
func (s *jobStore) Save(jobs map[string]domain.Job) error {
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o700); err != nil {
		return &domain.PersistenceError{Op: "write", Err: err}
	}

	list := make([]domain.Job, 0, len(jobs))
	for _, job := range jobs {
		list = append(list, job)
	}

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return &domain.PersistenceError{Op: "serialize", Err: err}
	}

	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return &domain.PersistenceError{Op: "write", Err: err}
	}
	if err := os.Rename(tmp, s.filePath); err != nil {
		return &domain.PersistenceError{Op: "rename", Err: err}
	}

	s.logger.Debugw("job history saved", "jobs", len(list), "path", s.filePath)
	return nil
}
