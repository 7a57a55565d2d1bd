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
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Qingbolan/Print-SoC/internal/core/domain"
	"github.com/Qingbolan/Print-SoC/internal/core/ports"
)

// Registry is the shared in-memory job map. The guard is held only for
// map access; durable saves and backup deletion happen outside it. The
// dirty flag marks divergence from the last durable snapshot.
type Registry struct {
	mu      sync.Mutex
	jobs    map[string]domain.Job
	dirty   bool
	version uint64
	store   ports.JobStore
	logger  *zap.SugaredLogger
}

func NewRegistry(logger *zap.SugaredLogger, store ports.JobStore) *Registry {
	return &Registry{
		jobs:   make(map[string]domain.Job),
		store:  store,
		logger: logger,
	}
}

// Load reads the durable snapshot. A missing file yields an empty registry;
// a corrupt file yields an empty registry with a warning. Neither is fatal.
func (r *Registry) Load() error {
	jobs, err := r.store.Load()
	if err != nil {
		var perr *domain.PersistenceError
		if errors.As(err, &perr) {
			r.logger.Warnw("job history unreadable, starting empty", "error", err)
			jobs = make(map[string]domain.Job)
		} else {
			return err
		}
	}
	if jobs == nil {
		jobs = make(map[string]domain.Job)
	}
	r.mu.Lock()
	r.jobs = jobs
	r.dirty = false
	r.mu.Unlock()
	r.logger.Infow("job history loaded", "jobs", len(jobs))
	return nil
}

// Create inserts the job under its id and marks the registry dirty.
func (r *Registry) Create(job domain.Job) {
	r.mu.Lock()
	r.jobs[job.ID] = job.Clone()
	r.markDirtyLocked()
	r.mu.Unlock()
}

// Get returns a cloned snapshot of the record.
func (r *Registry) Get(id string) (domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return domain.Job{}, domain.ErrNotFound
	}
	return job.Clone(), nil
}

// List returns cloned snapshots of all records.
func (r *Registry) List() []domain.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, job.Clone())
	}
	return out
}

// Update applies the mutation, bumps the updated timestamp and marks dirty.
func (r *Registry) Update(id string, mutate func(*domain.Job)) (domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return domain.Job{}, domain.ErrNotFound
	}
	mutate(&job)
	job.UpdatedAt = time.Now().UTC()
	r.jobs[id] = job
	r.markDirtyLocked()
	return job.Clone(), nil
}

// UpdateIf applies the mutation only when pred holds, reporting whether it
// did. Lets the reconciler transition Queued/Printing jobs idempotently.
func (r *Registry) UpdateIf(id string, pred func(domain.Job) bool, mutate func(*domain.Job)) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if !pred(job) {
		return false, nil
	}
	mutate(&job)
	job.UpdatedAt = time.Now().UTC()
	r.jobs[id] = job
	r.markDirtyLocked()
	return true, nil
}

// Remove deletes the record and marks dirty.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.jobs, id)
	r.markDirtyLocked()
	return nil
}

// SaveIfDirty persists the full job set when it has diverged from the last
// snapshot. The write happens outside the guard; the dirty flag is cleared
// only if no mutation slipped in while the snapshot was being written, so
// a failed or raced save keeps a later save eligible.
func (r *Registry) SaveIfDirty() error {
	r.mu.Lock()
	if !r.dirty {
		r.mu.Unlock()
		return nil
	}
	v := r.version
	snapshot := make(map[string]domain.Job, len(r.jobs))
	for id, job := range r.jobs {
		snapshot[id] = job.Clone()
	}
	r.mu.Unlock()

	if err := r.store.Save(snapshot); err != nil {
		return err
	}

	r.mu.Lock()
	if r.version == v {
		r.dirty = false
	}
	r.mu.Unlock()
	return nil
}

// Cleanup removes terminal jobs created before the retention threshold and
// returns the removed ids. In-progress jobs are retained regardless of age.
// Companion backup artifacts are deleted best-effort, outside the guard.
func (r *Registry) Cleanup(retention time.Duration, backups ports.BackupStore) []string {
	cutoff := time.Now().UTC().Add(-retention)

	r.mu.Lock()
	var removed []string
	for id, job := range r.jobs {
		if job.Status.Terminal() && job.CreatedAt.Before(cutoff) {
			delete(r.jobs, id)
			removed = append(removed, id)
		}
	}
	if len(removed) > 0 {
		r.markDirtyLocked()
	}
	r.mu.Unlock()

	if backups != nil {
		for _, id := range removed {
			if err := backups.Delete(id); err != nil {
				r.logger.Warnw("failed to delete backup artifact", "job", id, "error", err)
			}
		}
	}
	return removed
}

func (r *Registry) markDirtyLocked() {
	r.dirty = true
	r.version++
}
