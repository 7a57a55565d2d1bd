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

package services

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Qingbolan/Print-SoC/internal/core/domain"
	"github.com/Qingbolan/Print-SoC/internal/core/ports"
)

// remotePathFor derives the upload destination from the job id. Ids are
// unique, so paths never collide across jobs.
func remotePathFor(jobID string) string {
	return "/tmp/" + jobID + ".pdf"
}

// JobService orchestrates the job lifecycle end to end.
type JobService interface {
	CreateJob(name, filePath, printer string, settings domain.PrintSettings) (domain.Job, error)
	GetJob(id string) (domain.Job, error)
	ListJobs() []domain.Job
	Submit(id string, cfg domain.ConnectionConfig) error
	Cancel(id string, cfg domain.ConnectionConfig) error
	Delete(id string) error
	Cleanup(retention time.Duration) []string
	Save() error
}

// jobService drives each submission through its lifecycle:
// Pending → Uploading → Queued → Printing, with Failed reachable from any
// step and Cancelled from any non-terminal state.
type jobService struct {
	registry    *Registry
	sessions    ports.SessionManager
	backups     ports.BackupStore
	transformer ports.LayoutTransformer
	scratchDir  string
	logger      *zap.SugaredLogger
}

func NewJobService(
	logger *zap.SugaredLogger,
	registry *Registry,
	sessions ports.SessionManager,
	backups ports.BackupStore,
	transformer ports.LayoutTransformer,
) JobService {
	return &jobService{
		registry:    registry,
		sessions:    sessions,
		backups:     backups,
		transformer: transformer,
		scratchDir:  os.TempDir(),
		logger:      logger,
	}
}

// CreateJob allocates a fresh id, backs up the source best-effort and
// inserts the record in Pending.
func (s *jobService) CreateJob(name, filePath, printer string, settings domain.PrintSettings) (domain.Job, error) {
	id := uuid.NewString()

	if _, err := s.backups.Backup(id, filePath); err != nil {
		// The original source remains usable; creation proceeds.
		s.logger.Warnw("failed to back up source document", "job", id, "error", err)
	}

	now := time.Now().UTC()
	job := domain.Job{
		ID:        id,
		Name:      name,
		FilePath:  filePath,
		Printer:   printer,
		Settings:  settings,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.registry.Create(job)
	s.persist()
	s.logger.Infow("job created", "job", id, "name", name, "printer", printer)
	return job, nil
}

func (s *jobService) GetJob(id string) (domain.Job, error) {
	return s.registry.Get(id)
}

func (s *jobService) ListJobs() []domain.Job {
	return s.registry.List()
}

// Submit uploads the (possibly transformed) document and issues the print
// command. The registry guard is never held across remote calls: fields
// are copied out, remote work happens, results are written back.
func (s *jobService) Submit(id string, cfg domain.ConnectionConfig) error {
	job, err := s.registry.Update(id, func(j *domain.Job) {
		j.Status = domain.StatusUploading
		j.Error = ""
	})
	if err != nil {
		return err
	}
	s.persist()

	if _, err := os.Stat(job.FilePath); err != nil {
		msg := fmt.Sprintf("source document not found: %s", job.FilePath)
		s.fail(id, msg)
		return fmt.Errorf("%s", msg)
	}

	docPath := job.FilePath
	if job.Settings.NeedsLayout() {
		out := filepath.Join(s.scratchDir, layoutFileName(job))
		if err := s.transformer.Transform(job.FilePath, out, job.Settings); err != nil {
			s.fail(id, err.Error())
			return err
		}
		docPath = out
	}

	remotePath := remotePathFor(id)
	if err := s.sessions.Run(&cfg, func(c ports.RemoteClient) error {
		return c.Upload(docPath, remotePath)
	}); err != nil {
		s.fail(id, fmt.Sprintf("upload failed: %v", err))
		return err
	}

	if _, err := s.registry.Update(id, func(j *domain.Job) {
		j.Status = domain.StatusQueued
	}); err != nil {
		return err
	}
	s.persist()

	queue := queueName(job.Printer, job.Settings.Duplex)
	command := buildSubmitCommand(queue, remotePath, job.Settings)

	var response string
	err = s.sessions.Run(&cfg, func(c ports.RemoteClient) error {
		out, execErr := c.Execute(command)
		response = out
		return execErr
	})
	if err != nil {
		s.fail(id, fmt.Sprintf("print submission failed: %v", err))
		return err
	}

	queueID := parseQueueID(response)
	if _, err := s.registry.Update(id, func(j *domain.Job) {
		j.Status = domain.StatusPrinting
		j.QueueID = queueID
	}); err != nil {
		return err
	}
	s.persist()
	s.logger.Infow("job submitted", "job", id, "queue", queue, "queue_id", queueID)
	return nil
}

// Cancel issues a remote cancel for Queued/Printing jobs before moving the
// record to Cancelled. If the remote command fails the job is left
// unchanged: it may still be printing.
func (s *jobService) Cancel(id string, cfg domain.ConnectionConfig) error {
	job, err := s.registry.Get(id)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return fmt.Errorf("job %s is already %s", id, job.Status)
	}

	if job.Status.Active() {
		queue := queueName(job.Printer, job.Settings.Duplex)
		command := buildCancelCommand(queue, job.Name)
		if err := s.sessions.Run(&cfg, func(c ports.RemoteClient) error {
			_, execErr := c.Execute(command)
			return execErr
		}); err != nil {
			return fmt.Errorf("failed to cancel job %s: %w", id, err)
		}
	}

	if _, err := s.registry.Update(id, func(j *domain.Job) {
		j.Status = domain.StatusCancelled
	}); err != nil {
		return err
	}
	s.persist()
	s.logger.Infow("job cancelled", "job", id)
	return nil
}

// Delete removes the job from the registry and best-effort deletes its
// backup artifact.
func (s *jobService) Delete(id string) error {
	if err := s.registry.Remove(id); err != nil {
		return err
	}
	if err := s.backups.Delete(id); err != nil {
		s.logger.Warnw("failed to delete backup artifact", "job", id, "error", err)
	}
	s.persist()
	s.logger.Infow("job deleted", "job", id)
	return nil
}

// Cleanup removes terminal jobs older than the retention period.
func (s *jobService) Cleanup(retention time.Duration) []string {
	removed := s.registry.Cleanup(retention, s.backups)
	if len(removed) > 0 {
		s.persist()
		s.logger.Infow("history cleaned up", "removed", len(removed))
	}
	return removed
}

// Save forces a durable write when dirty.
func (s *jobService) Save() error {
	return s.registry.SaveIfDirty()
}

func (s *jobService) fail(id, msg string) {
	if _, err := s.registry.Update(id, func(j *domain.Job) {
		j.Status = domain.StatusFailed
		j.Error = msg
	}); err != nil {
		s.logger.Errorw("failed to mark job failed", "job", id, "error", err)
		return
	}
	s.persist()
	s.logger.Warnw("job failed", "job", id, "reason", msg)
}

// persist triggers an opportunistic save. A failure is logged, not fatal:
// the dirty flag stays set so a later save can retry.
func (s *jobService) persist() {
	if err := s.registry.SaveIfDirty(); err != nil {
		s.logger.Warnw("failed to persist job history", "error", err)
	}
}

func layoutFileName(job domain.Job) string {
	if job.Settings.Booklet {
		return "booklet_" + job.ID + ".pdf"
	}
	return fmt.Sprintf("nup%d_%s.pdf", job.Settings.PagesPerSheet, job.ID)
}
