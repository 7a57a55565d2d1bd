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
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Qingbolan/Print-SoC/internal/core/domain"
)

const (
	appDirName  = "printsoc"
	historyFile = "print_jobs.json"
)

// DataDirs resolves where job history and backup artifacts live.
type DataDirs struct {
	Root    string
	History string
	Backups string
}

// DefaultDataDirs places data under the platform config directory, e.g.
// ~/.config/printsoc on Linux.
func DefaultDataDirs() (DataDirs, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return DataDirs{}, err
	}
	return NewDataDirs(filepath.Join(base, appDirName)), nil
}

func NewDataDirs(root string) DataDirs {
	return DataDirs{
		Root:    root,
		History: filepath.Join(root, "history"),
		Backups: filepath.Join(root, "backups"),
	}
}

func (d DataDirs) HistoryFile() string {
	return filepath.Join(d.History, historyFile)
}

// Ensure creates the required directories.
func (d DataDirs) Ensure() error {
	for _, dir := range []string{d.History, d.Backups} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return nil
}

// Info reports the on-disk footprint of history and backups.
func (d DataDirs) Info() (domain.StorageInfo, error) {
	historySize := dirSize(d.History)
	backupsSize := dirSize(d.Backups)

	backupCount := 0
	if entries, err := os.ReadDir(d.Backups); err == nil {
		backupCount = len(entries)
	}

	return domain.StorageInfo{
		DataDir:     d.Root,
		HistorySize: historySize,
		BackupsSize: backupsSize,
		TotalSize:   historySize + backupsSize,
		BackupCount: backupCount,
	}, nil
}

func dirSize(dir string) int64 {
	var total int64
	_ = filepath.WalkDir(dir, func(_ string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if info, err := entry.Info(); err == nil && !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total
}
