package handler

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
)

// Job states.
const (
	JobRunning  = "running"
	JobComplete = "complete"
	JobError    = "error"
)

// JobStatus represents the current state of a background ingestion job
// (repository indexing or commit sync).
type JobStatus struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Kind        string    `json:"kind"` // index, sync
	Status      string    `json:"status"`
	Stage       string    `json:"stage,omitempty"`
	Indexed     int       `json:"indexed_files,omitempty"`
	NewCommits  int       `json:"new_commits,omitempty"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// JobTracker supervises background jobs in memory, so scheduled work has
// observable success/failure instead of being a fire-and-forget side effect.
type JobTracker struct {
	mu   sync.RWMutex
	jobs map[string]*JobStatus
	subs map[string][]chan JobStatus // subscribers per job
}

// NewJobTracker creates a new job tracker.
func NewJobTracker() *JobTracker {
	return &JobTracker{
		jobs: make(map[string]*JobStatus),
		subs: make(map[string][]chan JobStatus),
	}
}

// CreateJob registers a new running job.
func (t *JobTracker) CreateJob(id, projectID, kind string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.jobs[id] = &JobStatus{
		ID:        id,
		ProjectID: projectID,
		Kind:      kind,
		Status:    JobRunning,
		StartedAt: time.Now(),
	}
}

// UpdateJob applies mutate to a job and notifies subscribers.
func (t *JobTracker) UpdateJob(id string, mutate func(*JobStatus)) {
	t.mu.Lock()
	job, ok := t.jobs[id]
	if !ok {
		t.mu.Unlock()
		return
	}
	mutate(job)
	if job.Status == JobComplete || job.Status == JobError {
		job.CompletedAt = time.Now()
	}
	snapshot := *job
	subs := t.subs[id]
	t.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- snapshot:
		default:
		}
	}
}

// GetJob returns a snapshot of a job's status.
func (t *JobTracker) GetJob(id string) (*JobStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	job, ok := t.jobs[id]
	if !ok {
		return nil, false
	}
	snapshot := *job
	return &snapshot, true
}

// Subscribe returns a channel that receives job updates.
func (t *JobTracker) Subscribe(id string) chan JobStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch := make(chan JobStatus, 10)
	t.subs[id] = append(t.subs[id], ch)
	return ch
}

// Unsubscribe removes a channel from subscribers.
func (t *JobTracker) Unsubscribe(id string, ch chan JobStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	subs := t.subs[id]
	for i, s := range subs {
		if s == ch {
			t.subs[id] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	close(ch)
}

// JobsHandler exposes job status over HTTP.
type JobsHandler struct {
	tracker *JobTracker
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(tracker *JobTracker) *JobsHandler {
	return &JobsHandler{tracker: tracker}
}

// Register sets up job routes.
func (h *JobsHandler) Register(router fiber.Router) {
	jobs := router.Group("/jobs")
	jobs.Get("/:id", h.GetStatus)
	jobs.Get("/:id/stream", h.StreamSSE)
}

// GetStatus returns the current job status.
func (h *JobsHandler) GetStatus(c fiber.Ctx) error {
	job, ok := h.tracker.GetJob(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "job not found"})
	}
	return c.JSON(job)
}

// StreamSSE streams job updates via Server-Sent Events.
func (h *JobsHandler) StreamSSE(c fiber.Ctx) error {
	id := c.Params("id")

	job, ok := h.tracker.GetJob(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "job not found"})
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	// Already settled: return the final status as a single event
	if job.Status != JobRunning {
		data, _ := json.Marshal(job)
		return c.SendString(fmt.Sprintf("event: %s\ndata: %s\n\n", job.Status, string(data)))
	}

	ch := h.tracker.Subscribe(id)

	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer h.tracker.Unsubscribe(id, ch)

		data, _ := json.Marshal(job)
		fmt.Fprintf(w, "event: progress\ndata: %s\n\n", string(data))
		w.Flush()

		timeout := time.After(10 * time.Minute)
		for {
			select {
			case update, ok := <-ch:
				if !ok {
					return
				}
				data, _ := json.Marshal(update)
				eventType := "progress"
				if update.Status != JobRunning {
					eventType = update.Status
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, string(data))
				w.Flush()

				if update.Status != JobRunning {
					return
				}
			case <-timeout:
				slog.Warn("SSE timeout", "job_id", id)
				return
			}
		}
	})
}
