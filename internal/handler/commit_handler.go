package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"repomind/internal/port"
	"repomind/internal/service"
)

// CommitHandler exposes stored commits and commit synchronization.
type CommitHandler struct {
	commits port.CommitStore
	syncer  *service.SyncService
	tracker *JobTracker
}

// NewCommitHandler creates a new commit handler.
func NewCommitHandler(commits port.CommitStore, syncer *service.SyncService, tracker *JobTracker) *CommitHandler {
	return &CommitHandler{commits: commits, syncer: syncer, tracker: tracker}
}

// Register sets up commit routes.
func (h *CommitHandler) Register(router fiber.Router) {
	router.Get("/projects/:id/commits", h.List)
	router.Post("/projects/:id/sync", h.Sync)
}

// List returns currently stored commits and schedules a background refresh as
// a supervised job, so new upstream activity is picked up without blocking the
// read path and without the refresh outcome being silently discarded.
func (h *CommitHandler) List(c fiber.Ctx) error {
	projectID := c.Params("id")

	jobID := uuid.NewString()
	h.tracker.CreateJob(jobID, projectID, "sync")
	go h.runBackgroundSync(jobID, projectID)

	commits, err := h.commits.ListCommits(c.Context(), projectID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"commits":     commits,
		"count":       len(commits),
		"sync_job_id": jobID,
	})
}

func (h *CommitHandler) runBackgroundSync(jobID, projectID string) {
	commits, err := h.syncer.SyncCommits(context.Background(), projectID)
	if err != nil {
		h.tracker.UpdateJob(jobID, func(j *JobStatus) {
			j.Status = JobError
			j.Error = err.Error()
		})
		return
	}
	h.tracker.UpdateJob(jobID, func(j *JobStatus) {
		j.Status = JobComplete
		j.NewCommits = len(commits)
	})
}

// Sync runs the commit sync pipeline inline and returns the new rows.
func (h *CommitHandler) Sync(c fiber.Ctx) error {
	newCommits, err := h.syncer.SyncCommits(c.Context(), c.Params("id"))
	switch {
	case errors.Is(err, port.ErrProjectNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "project not found"})
	case errors.Is(err, port.ErrMissingRepoURL), errors.Is(err, port.ErrInvalidRepoURL), errors.Is(err, port.ErrUnknownProvider):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"commits": newCommits,
		"count":   len(newCommits),
	})
}
