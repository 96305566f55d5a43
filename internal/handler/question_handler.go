package handler

import (
	"github.com/gofiber/fiber/v3"

	"repomind/internal/domain"
	"repomind/internal/middleware"
	"repomind/internal/service"
)

// QuestionHandler persists and lists saved answers.
type QuestionHandler struct {
	qa *service.QAService
}

// NewQuestionHandler creates a new saved-questions handler.
func NewQuestionHandler(qa *service.QAService) *QuestionHandler {
	return &QuestionHandler{qa: qa}
}

// Register sets up saved-question routes.
func (h *QuestionHandler) Register(router fiber.Router) {
	router.Post("/projects/:id/questions", h.Save)
	router.Get("/projects/:id/questions", h.List)
}

// Save persists an already-answered question with the file references
// captured at answer time. Saving is caller-initiated, separate from the
// ask path.
func (h *QuestionHandler) Save(c fiber.Ctx) error {
	var body struct {
		Question   string                 `json:"question"`
		Answer     string                 `json:"answer"`
		References []domain.FileReference `json:"references"`
	}
	if err := c.Bind().JSON(&body); err != nil || body.Question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "question and answer are required"})
	}

	saved, err := h.qa.SaveAnswer(c.Context(), &domain.Question{
		ProjectID:  c.Params("id"),
		AccountID:  middleware.GetAccountID(c),
		Question:   body.Question,
		Answer:     body.Answer,
		References: body.References,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(saved)
}

// List returns saved questions for a project, newest first.
func (h *QuestionHandler) List(c fiber.Ctx) error {
	questions, err := h.qa.ListSavedQuestions(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"questions": questions, "count": len(questions)})
}
