package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"repomind/internal/domain"
	"repomind/internal/port"
	"repomind/internal/service"
)

// ProjectHandler handles project registration and lifecycle.
type ProjectHandler struct {
	store   port.ProjectStore
	indexer *service.IndexService
	syncer  *service.SyncService
	tracker *JobTracker
}

// NewProjectHandler creates a new project handler.
func NewProjectHandler(store port.ProjectStore, indexer *service.IndexService, syncer *service.SyncService, tracker *JobTracker) *ProjectHandler {
	return &ProjectHandler{store: store, indexer: indexer, syncer: syncer, tracker: tracker}
}

// Register sets up project routes.
func (h *ProjectHandler) Register(router fiber.Router) {
	projects := router.Group("/projects")
	projects.Post("/", h.Create)
	projects.Get("/", h.List)
	projects.Delete("/:id", h.Delete)
}

// Create registers a project and schedules its initial ingestion (repository
// indexing followed by the first commit sync) as a supervised background job.
func (h *ProjectHandler) Create(c fiber.Ctx) error {
	var body struct {
		Name        string `json:"name"`
		RepoURL     string `json:"repo_url"`
		Provider    string `json:"provider"`
		AccessToken string `json:"access_token"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if body.Name == "" || body.RepoURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name and repo_url are required"})
	}
	kind := domain.ProviderKind(body.Provider)
	if !kind.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "provider must be github or gitlab"})
	}

	project, err := h.store.CreateProject(c.Context(), &domain.Project{
		Name:        body.Name,
		RepoURL:     body.RepoURL,
		Provider:    kind,
		AccessToken: body.AccessToken,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	jobID := uuid.NewString()
	h.tracker.CreateJob(jobID, project.ID, "index")
	go h.runInitialIngestion(jobID, project)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"project": project,
		"job_id":  jobID,
	})
}

// runInitialIngestion indexes the repository and then runs the first commit
// sync, reporting progress through the job tracker.
func (h *ProjectHandler) runInitialIngestion(jobID string, project *domain.Project) {
	ctx := context.Background()

	h.tracker.UpdateJob(jobID, func(j *JobStatus) { j.Stage = "indexing" })
	indexed, err := h.indexer.IndexRepository(ctx, project.ID, project.RepoURL, project.AccessToken)
	if err != nil {
		slog.Error("initial indexing failed", "project_id", project.ID, "error", err)
		h.tracker.UpdateJob(jobID, func(j *JobStatus) {
			j.Status = JobError
			j.Error = err.Error()
		})
		return
	}

	h.tracker.UpdateJob(jobID, func(j *JobStatus) {
		j.Stage = "syncing"
		j.Indexed = indexed
	})
	commits, err := h.syncer.SyncCommits(ctx, project.ID)
	if err != nil {
		slog.Error("initial commit sync failed", "project_id", project.ID, "error", err)
		h.tracker.UpdateJob(jobID, func(j *JobStatus) {
			j.Status = JobError
			j.Indexed = indexed
			j.Error = err.Error()
		})
		return
	}

	h.tracker.UpdateJob(jobID, func(j *JobStatus) {
		j.Status = JobComplete
		j.Stage = ""
		j.NewCommits = len(commits)
	})
}

// List returns all registered projects.
func (h *ProjectHandler) List(c fiber.Ctx) error {
	projects, err := h.store.ListProjects(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"projects": projects, "count": len(projects)})
}

// Delete soft-deletes a project.
func (h *ProjectHandler) Delete(c fiber.Ctx) error {
	err := h.store.SoftDeleteProject(c.Context(), c.Params("id"))
	if errors.Is(err, port.ErrProjectNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "project not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"ok": true})
}
