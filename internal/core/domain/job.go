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

import "time"

// JobStatus tracks a print job through its lifecycle.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusUploading JobStatus = "uploading"
	StatusQueued    JobStatus = "queued"
	StatusPrinting  JobStatus = "printing"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// Terminal reports whether no further transitions can occur.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Active reports whether the job has been handed to the remote queue and
// is still expected to show up in its listing.
func (s JobStatus) Active() bool {
	return s == StatusQueued || s == StatusPrinting
}

type DuplexMode string

const (
	Simplex         DuplexMode = "simplex"
	DuplexLongEdge  DuplexMode = "duplex-long-edge"
	DuplexShortEdge DuplexMode = "duplex-short-edge"
)

type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

type PaperSize string

const (
	PaperA4 PaperSize = "A4"
	PaperA3 PaperSize = "A3"
)

// PageRangeKind selects which of the PageRange fields are meaningful.
type PageRangeKind string

const (
	PageRangeAll       PageRangeKind = "all"
	PageRangeSpan      PageRangeKind = "span"
	PageRangeSelection PageRangeKind = "selection"
)

type PageRange struct {
	Kind  PageRangeKind `json:"kind"`
	Start int           `json:"start,omitempty"`
	End   int           `json:"end,omitempty"`
	Pages []int         `json:"pages,omitempty"`
}

type PrintSettings struct {
	Copies        int         `json:"copies"`
	Duplex        DuplexMode  `json:"duplex"`
	Orientation   Orientation `json:"orientation"`
	PaperSize     PaperSize   `json:"paper_size"`
	PageRange     PageRange   `json:"page_range"`
	PagesPerSheet int         `json:"pages_per_sheet"`
	Booklet       bool        `json:"booklet"`
}

// DefaultSettings returns single-copy portrait A4 duplex settings.
func DefaultSettings() PrintSettings {
	return PrintSettings{
		Copies:        1,
		Duplex:        DuplexLongEdge,
		Orientation:   Portrait,
		PaperSize:     PaperA4,
		PageRange:     PageRange{Kind: PageRangeAll},
		PagesPerSheet: 1,
	}
}

// NeedsLayout reports whether the settings require a document transform
// before upload (multi-up imposition or booklet reordering).
func (s PrintSettings) NeedsLayout() bool {
	return s.PagesPerSheet > 1 || s.Booklet
}

// Job is one submission to a remote print queue. The ID is generated at
// creation and never reused; QueueID is the remote system's own handle,
// filled in once the queue accepts the job.
type Job struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	FilePath  string        `json:"file_path"`
	Printer   string        `json:"printer"`
	Settings  PrintSettings `json:"settings"`
	Status    JobStatus     `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Error     string        `json:"error,omitempty"`
	QueueID   string        `json:"queue_id,omitempty"`
}

// Clone returns an independent copy so callers never observe a record
// being mutated after retrieval.
func (j Job) Clone() Job {
	c := j
	if j.Settings.PageRange.Pages != nil {
		c.Settings.PageRange.Pages = append([]int(nil), j.Settings.PageRange.Pages...)
	}
	return c
}
