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
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/Qingbolan/Print-SoC/internal/core/domain"
)

func newReconcilerFixture(t *testing.T, responses map[string]string) (*Registry, *fakeSessions, QueueReconciler) {
	t.Helper()
	registry := newTestRegistry(t, &fakeJobStore{})
	sessions := &fakeSessions{remote: &fakeRemote{responses: responses}}
	rec := NewReconciler(zaptest.NewLogger(t).Sugar(), registry, sessions)
	return registry, sessions, rec
}

func queuedJob(id, printer, queueID string) domain.Job {
	job := testJob(id, domain.StatusPrinting)
	job.Printer = printer
	job.QueueID = queueID
	return job
}

func TestReconcileJobStillListed(t *testing.T) {
	registry, _, rec := newReconcilerFixture(t, map[string]string{
		"lpq -P psts": "Rank   Owner  Job  File(s)\nactive alice  42   thesis.pdf 1024 bytes\n",
	})
	registry.Create(queuedJob("a", "psts", "psts-42"))

	completed, err := rec.Reconcile(domain.ConnectionConfig{})
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if len(completed) != 0 {
		t.Errorf("completed = %v, want none", completed)
	}
	got, _ := registry.Get("a")
	if got.Status != domain.StatusPrinting {
		t.Errorf("Status = %s, want printing", got.Status)
	}
}

func TestReconcileJobVanished(t *testing.T) {
	registry, sessions, rec := newReconcilerFixture(t, map[string]string{
		"lpq -P psts": "no entries\n",
	})
	registry.Create(queuedJob("a", "psts", "psts-42"))

	completed, err := rec.Reconcile(domain.ConnectionConfig{})
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if len(completed) != 1 || completed[0] != "a" {
		t.Fatalf("completed = %v, want [a]", completed)
	}
	got, _ := registry.Get("a")
	if got.Status != domain.StatusCompleted {
		t.Errorf("Status = %s, want completed", got.Status)
	}

	// Terminal jobs are never polled again.
	sessions.runs = 0
	completed, err = rec.Reconcile(domain.ConnectionConfig{})
	if err != nil || len(completed) != 0 {
		t.Errorf("second Reconcile() = (%v, %v), want (none, nil)", completed, err)
	}
	if sessions.runs != 0 {
		t.Errorf("second Reconcile() polled %d times, want 0", sessions.runs)
	}
}

func TestReconcileMatchesBareJobNumber(t *testing.T) {
	// lpr acknowledged with full identifiers; lpq lists only the numbers.
	registry, _, rec := newReconcilerFixture(t, map[string]string{
		"lpq -P psts": "Rank   Owner  Job  File(s)\n" +
			"active alice  42   thesis.pdf 1024 bytes\n" +
			"1st    alice  57   notes.pdf  512 bytes\n",
	})
	registry.Create(queuedJob("listed", "psts", "psts-42"))
	registry.Create(queuedJob("gone", "psts", "psts-99"))

	completed, err := rec.Reconcile(domain.ConnectionConfig{})
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if len(completed) != 1 || completed[0] != "gone" {
		t.Fatalf("completed = %v, want [gone]", completed)
	}
	still, _ := registry.Get("listed")
	if still.Status != domain.StatusPrinting {
		t.Errorf("listed job status = %s, want printing", still.Status)
	}
}

func TestReconcileJobWithoutQueueID(t *testing.T) {
	registry, _, rec := newReconcilerFixture(t, map[string]string{
		"lpq -P psts": "Rank   Owner  Job  File(s)\nactive alice  42   thesis.pdf 1024 bytes\n",
	})
	registry.Create(queuedJob("a", "psts", ""))

	// Without a recorded identifier there is nothing to match against, so
	// the first poll concludes the job is done.
	completed, err := rec.Reconcile(domain.ConnectionConfig{})
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if len(completed) != 1 || completed[0] != "a" {
		t.Errorf("completed = %v, want [a]", completed)
	}
}

func TestReconcilePollsEachQueueOnce(t *testing.T) {
	registry, sessions, rec := newReconcilerFixture(t, map[string]string{
		"lpq": "no entries\n",
	})
	registry.Create(queuedJob("a", "psts", "psts-1"))
	registry.Create(queuedJob("b", "psts", "psts-2"))
	registry.Create(queuedJob("c", "psc008", "psc008-3"))

	completed, err := rec.Reconcile(domain.ConnectionConfig{})
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if len(completed) != 3 {
		t.Errorf("completed %d jobs, want 3", len(completed))
	}
	if sessions.runs != 2 {
		t.Errorf("polled %d times, want 2 (one per distinct queue)", sessions.runs)
	}
}

func TestReconcileGroupsByDuplexAdjustedQueue(t *testing.T) {
	registry, sessions, rec := newReconcilerFixture(t, map[string]string{
		"lpq": "no entries\n",
	})
	duplex := queuedJob("a", "psts", "psts-1")
	simplex := queuedJob("b", "psts", "psts-sx-2")
	simplex.Settings.Duplex = domain.Simplex
	registry.Create(duplex)
	registry.Create(simplex)

	if _, err := rec.Reconcile(domain.ConnectionConfig{}); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	// psts and psts-sx are separate queues on the remote side.
	if sessions.runs != 2 {
		t.Errorf("polled %d times, want 2", sessions.runs)
	}
}

func TestReconcileConnectionFailureAborts(t *testing.T) {
	registry, sessions, rec := newReconcilerFixture(t, nil)
	registry.Create(queuedJob("a", "psts", "psts-1"))
	sessions.runErr = &domain.ConnectionError{Reason: "session lost"}

	if _, err := rec.Reconcile(domain.ConnectionConfig{}); err == nil {
		t.Fatal("Reconcile() swallowed a connection failure")
	}
	got, _ := registry.Get("a")
	if got.Status != domain.StatusPrinting {
		t.Errorf("Status = %s, want printing (untouched)", got.Status)
	}
}

func TestReconcileCommandFailureSkipsQueue(t *testing.T) {
	registry, sessions, rec := newReconcilerFixture(t, nil)
	registry.Create(queuedJob("a", "psts", "psts-1"))
	sessions.remote.execErr = &domain.CommandError{ExitCode: 1, Output: "lpq: psts unknown"}

	completed, err := rec.Reconcile(domain.ConnectionConfig{})
	if err != nil {
		t.Fatalf("Reconcile() error = %v, want nil for a per-queue failure", err)
	}
	if len(completed) != 0 {
		t.Errorf("completed = %v, want none", completed)
	}
	got, _ := registry.Get("a")
	if got.Status != domain.StatusPrinting {
		t.Errorf("Status = %s, want printing (untouched)", got.Status)
	}
}

func TestReconcileNoActiveJobs(t *testing.T) {
	registry, sessions, rec := newReconcilerFixture(t, nil)
	registry.Create(testJob("done", domain.StatusCompleted))
	registry.Create(testJob("new", domain.StatusPending))

	completed, err := rec.Reconcile(domain.ConnectionConfig{})
	if err != nil || len(completed) != 0 {
		t.Errorf("Reconcile() = (%v, %v), want (none, nil)", completed, err)
	}
	if sessions.runs != 0 {
		t.Errorf("polled %d times with no active jobs, want 0", sessions.runs)
	}
}
