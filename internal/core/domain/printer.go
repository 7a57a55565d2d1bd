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

// Printer describes one entry of the static printer catalog.
type Printer struct {
	ID                  string
	Name                string
	QueueName           string
	Location            PrinterLocation
	SupportsDuplex      bool
	SupportsColor       bool
	SupportedPaperSizes []PaperSize
}

type PrinterLocation struct {
	Building string
	Room     string
	Floor    string
}

// StorageInfo summarizes the on-disk footprint of job history and backups.
type StorageInfo struct {
	DataDir     string
	HistorySize int64
	BackupsSize int64
	TotalSize   int64
	BackupCount int
}
