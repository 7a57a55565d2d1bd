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
	"errors"

	"go.uber.org/zap"

	"github.com/Qingbolan/Print-SoC/internal/core/domain"
	"github.com/Qingbolan/Print-SoC/internal/core/ports"
)

// QueueReconciler detects completion of remotely queued jobs.
type QueueReconciler interface {
	Reconcile(cfg domain.ConnectionConfig) ([]string, error)
}

// reconciler infers job completion by absence from the remote queue
// listing; the remote system sends no completion notification.
type reconciler struct {
	registry *Registry
	sessions ports.SessionManager
	logger   *zap.SugaredLogger
}

func NewReconciler(logger *zap.SugaredLogger, registry *Registry, sessions ports.SessionManager) QueueReconciler {
	return &reconciler{
		registry: registry,
		sessions: sessions,
		logger:   logger,
	}
}

// Reconcile polls the remote queue once per distinct destination and
// transitions jobs whose trace has disappeared to Completed. Returns the
// ids transitioned this call. A job without a recorded queue identifier is
// treated as no longer active on its first poll; that is a heuristic, not
// a guarantee.
func (r *reconciler) Reconcile(cfg domain.ConnectionConfig) ([]string, error) {
	// Snapshot active jobs, grouped by the duplex-adjusted queue each one
	// was actually submitted to.
	byQueue := make(map[string][]domain.Job)
	for _, job := range r.registry.List() {
		if job.Status.Active() {
			queue := queueName(job.Printer, job.Settings.Duplex)
			byQueue[queue] = append(byQueue[queue], job)
		}
	}
	if len(byQueue) == 0 {
		return nil, nil
	}

	var completed []string
	for queue, jobs := range byQueue {
		var listing string
		err := r.sessions.Run(&cfg, func(c ports.RemoteClient) error {
			out, execErr := c.Execute(buildQueueCommand(queue))
			listing = out
			return execErr
		})
		if err != nil {
			var connErr *domain.ConnectionError
			if errors.As(err, &connErr) {
				// No session means every remaining poll fails the same way.
				return completed, err
			}
			r.logger.Warnw("queue poll failed", "queue", queue, "error", err)
			continue
		}

		entries := parseQueueListing(listing)
		for _, job := range jobs {
			if job.QueueID != "" && listingContains(entries, job.QueueID) {
				continue
			}
			changed, err := r.registry.UpdateIf(job.ID,
				func(j domain.Job) bool { return j.Status.Active() },
				func(j *domain.Job) { j.Status = domain.StatusCompleted },
			)
			if err != nil {
				continue
			}
			if changed {
				completed = append(completed, job.ID)
				r.logger.Infow("job completed", "job", job.ID, "queue", queue, "queue_id", job.QueueID)
			}
		}
	}

	if len(completed) > 0 {
		if err := r.registry.SaveIfDirty(); err != nil {
			r.logger.Warnw("failed to persist job history", "error", err)
		}
	}
	return completed, nil
}
