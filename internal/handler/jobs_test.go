package handler

import (
	"testing"
	"time"
)

func TestJobTrackerLifecycle(t *testing.T) {
	tracker := NewJobTracker()
	tracker.CreateJob("j1", "p1", "index")

	job, ok := tracker.GetJob("j1")
	if !ok {
		t.Fatal("job not found after creation")
	}
	if job.Status != JobRunning || job.ProjectID != "p1" || job.Kind != "index" {
		t.Errorf("unexpected initial state: %+v", job)
	}

	tracker.UpdateJob("j1", func(j *JobStatus) {
		j.Status = JobComplete
		j.Indexed = 42
	})

	job, _ = tracker.GetJob("j1")
	if job.Status != JobComplete || job.Indexed != 42 {
		t.Errorf("update not applied: %+v", job)
	}
	if job.CompletedAt.IsZero() {
		t.Error("completion time not recorded")
	}
}

func TestJobTrackerUnknownJob(t *testing.T) {
	tracker := NewJobTracker()

	if _, ok := tracker.GetJob("missing"); ok {
		t.Error("unknown job should not be found")
	}

	// Updating an unknown job is a no-op, not a panic.
	tracker.UpdateJob("missing", func(j *JobStatus) { j.Status = JobError })
}

func TestJobTrackerSubscribe(t *testing.T) {
	tracker := NewJobTracker()
	tracker.CreateJob("j1", "p1", "sync")

	ch := tracker.Subscribe("j1")
	tracker.UpdateJob("j1", func(j *JobStatus) {
		j.Status = JobComplete
		j.NewCommits = 3
	})

	select {
	case update := <-ch:
		if update.Status != JobComplete || update.NewCommits != 3 {
			t.Errorf("unexpected update: %+v", update)
		}
	case <-time.After(time.Second):
		t.Fatal("no update received")
	}

	tracker.Unsubscribe("j1", ch)
	if _, open := <-ch; open {
		t.Error("channel should be closed after unsubscribe")
	}
}

func TestJobTrackerSnapshotIsolation(t *testing.T) {
	tracker := NewJobTracker()
	tracker.CreateJob("j1", "p1", "index")

	snapshot, _ := tracker.GetJob("j1")
	snapshot.Status = JobError

	current, _ := tracker.GetJob("j1")
	if current.Status != JobRunning {
		t.Error("mutating a snapshot must not affect the tracked job")
	}
}
