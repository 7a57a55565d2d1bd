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
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/Qingbolan/Print-SoC/internal/core/domain"
)

// fakeJobStore records saves and can fail on demand.
type fakeJobStore struct {
	jobs     map[string]domain.Job
	loadErr  error
	saveErr  error
	saves    int
	lastSave map[string]domain.Job
}

func (f *fakeJobStore) Load() (map[string]domain.Job, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.jobs, nil
}

func (f *fakeJobStore) Save(jobs map[string]domain.Job) error {
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.lastSave = jobs
	return nil
}

// fakeBackupStore counts deletions.
type fakeBackupStore struct {
	backed  map[string]string
	deleted []string
	err     error
}

func (f *fakeBackupStore) Backup(jobID, sourcePath string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.backed == nil {
		f.backed = make(map[string]string)
	}
	f.backed[jobID] = sourcePath
	return "/backups/" + jobID + "/original.pdf", nil
}

func (f *fakeBackupStore) Delete(jobID string) error {
	f.deleted = append(f.deleted, jobID)
	return nil
}

func (f *fakeBackupStore) Path(jobID string) (string, bool) {
	p, ok := f.backed[jobID]
	return p, ok
}

func newTestRegistry(t *testing.T, store *fakeJobStore) *Registry {
	t.Helper()
	r := NewRegistry(zaptest.NewLogger(t).Sugar(), store)
	if err := r.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return r
}

func testJob(id string, status domain.JobStatus) domain.Job {
	now := time.Now().UTC()
	return domain.Job{
		ID:        id,
		Name:      id + ".pdf",
		FilePath:  "/docs/" + id + ".pdf",
		Printer:   "psts",
		Settings:  domain.DefaultSettings(),
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestRegistryLoadDegradesOnCorruption(t *testing.T) {
	store := &fakeJobStore{loadErr: &domain.PersistenceError{Op: "parse", Err: errors.New("bad json")}}
	r := newTestRegistry(t, store)

	if got := len(r.List()); got != 0 {
		t.Errorf("List() after corrupt load returned %d jobs, want 0", got)
	}
}

func TestRegistryGetReturnsIsolatedCopy(t *testing.T) {
	r := newTestRegistry(t, &fakeJobStore{})
	job := testJob("a", domain.StatusPending)
	job.Settings.PageRange = domain.PageRange{Kind: domain.PageRangeSelection, Pages: []int{1, 3}}
	r.Create(job)

	got, err := r.Get("a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	got.Settings.PageRange.Pages[0] = 99
	got.Name = "mutated"

	again, _ := r.Get("a")
	if again.Settings.PageRange.Pages[0] != 1 || again.Name != "a.pdf" {
		t.Error("mutation of a returned job leaked into the registry")
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	r := newTestRegistry(t, &fakeJobStore{})
	if _, err := r.Get("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := r.Update("missing", func(j *domain.Job) {}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
	if err := r.Remove("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Remove(missing) error = %v, want ErrNotFound", err)
	}
}

func TestRegistryUpdateBumpsTimestamp(t *testing.T) {
	r := newTestRegistry(t, &fakeJobStore{})
	job := testJob("a", domain.StatusPending)
	job.UpdatedAt = time.Now().UTC().Add(-time.Hour)
	r.Create(job)

	updated, err := r.Update("a", func(j *domain.Job) { j.Status = domain.StatusQueued })
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Status != domain.StatusQueued {
		t.Errorf("Status = %s, want queued", updated.Status)
	}
	if !updated.UpdatedAt.After(job.UpdatedAt) {
		t.Error("UpdatedAt was not advanced")
	}
}

func TestRegistrySaveIfDirty(t *testing.T) {
	store := &fakeJobStore{}
	r := newTestRegistry(t, store)

	// Clean registry: no write.
	if err := r.SaveIfDirty(); err != nil {
		t.Fatalf("SaveIfDirty() error = %v", err)
	}
	if store.saves != 0 {
		t.Fatalf("SaveIfDirty() on clean registry wrote %d times", store.saves)
	}

	r.Create(testJob("a", domain.StatusPending))
	if err := r.SaveIfDirty(); err != nil {
		t.Fatalf("SaveIfDirty() error = %v", err)
	}
	if store.saves != 1 || len(store.lastSave) != 1 {
		t.Fatalf("saves = %d, snapshot size = %d", store.saves, len(store.lastSave))
	}

	// Saved state: a second call is a no-op.
	if err := r.SaveIfDirty(); err != nil {
		t.Fatalf("SaveIfDirty() error = %v", err)
	}
	if store.saves != 1 {
		t.Errorf("SaveIfDirty() after clean save wrote again, saves = %d", store.saves)
	}
}

func TestRegistryFailedSaveStaysDirty(t *testing.T) {
	store := &fakeJobStore{saveErr: errors.New("disk full")}
	r := newTestRegistry(t, store)
	r.Create(testJob("a", domain.StatusPending))

	if err := r.SaveIfDirty(); err == nil {
		t.Fatal("SaveIfDirty() did not surface store error")
	}

	// A later save must retry.
	store.saveErr = nil
	if err := r.SaveIfDirty(); err != nil {
		t.Fatalf("retry SaveIfDirty() error = %v", err)
	}
	if store.saves != 2 || len(store.lastSave) != 1 {
		t.Errorf("saves = %d, snapshot size = %d, want 2 and 1", store.saves, len(store.lastSave))
	}
}

func TestRegistryUpdateIf(t *testing.T) {
	r := newTestRegistry(t, &fakeJobStore{})
	r.Create(testJob("a", domain.StatusPrinting))

	changed, err := r.UpdateIf("a",
		func(j domain.Job) bool { return j.Status.Active() },
		func(j *domain.Job) { j.Status = domain.StatusCompleted },
	)
	if err != nil || !changed {
		t.Fatalf("UpdateIf() = (%v, %v), want (true, nil)", changed, err)
	}

	// Predicate no longer holds.
	changed, err = r.UpdateIf("a",
		func(j domain.Job) bool { return j.Status.Active() },
		func(j *domain.Job) { j.Status = domain.StatusCompleted },
	)
	if err != nil || changed {
		t.Errorf("second UpdateIf() = (%v, %v), want (false, nil)", changed, err)
	}
}

func TestRegistryCleanup(t *testing.T) {
	r := newTestRegistry(t, &fakeJobStore{})
	backups := &fakeBackupStore{}

	old := testJob("old-done", domain.StatusCompleted)
	old.CreatedAt = time.Now().UTC().Add(-40 * 24 * time.Hour)
	r.Create(old)

	older := testJob("old-printing", domain.StatusPrinting)
	older.CreatedAt = time.Now().UTC().Add(-60 * 24 * time.Hour)
	r.Create(older)

	fresh := testJob("fresh-done", domain.StatusCompleted)
	r.Create(fresh)

	removed := r.Cleanup(30*24*time.Hour, backups)
	if len(removed) != 1 || removed[0] != "old-done" {
		t.Fatalf("Cleanup() removed %v, want [old-done]", removed)
	}
	if len(backups.deleted) != 1 || backups.deleted[0] != "old-done" {
		t.Errorf("backup deletions = %v, want [old-done]", backups.deleted)
	}

	// In-progress jobs survive regardless of age.
	if _, err := r.Get("old-printing"); err != nil {
		t.Error("aged in-progress job was removed")
	}
	if _, err := r.Get("fresh-done"); err != nil {
		t.Error("recent finished job was removed")
	}
}
