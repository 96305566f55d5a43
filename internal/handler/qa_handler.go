package handler

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"

	"repomind/internal/port"
	"repomind/internal/service"
)

// QAHandler answers questions over SSE: one references event resolved before
// generation, then answer deltas, then a done event.
type QAHandler struct {
	qa *service.QAService
}

// NewQAHandler creates a new question-answering handler.
func NewQAHandler(qa *service.QAService) *QAHandler {
	return &QAHandler{qa: qa}
}

// Register sets up QA routes.
func (h *QAHandler) Register(router fiber.Router) {
	router.Post("/projects/:id/ask", h.Ask)
}

// Ask streams a grounded answer for a question about the project's codebase.
func (h *QAHandler) Ask(c fiber.Ctx) error {
	projectID := c.Params("id")

	var body struct {
		Question string `json:"question"`
	}
	if err := c.Bind().JSON(&body); err != nil || body.Question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "question is required"})
	}

	// The request context is threaded into retrieval and generation, so a
	// client disconnect cancels the upstream provider call.
	ctx := c.Context()

	stream, refs, err := h.qa.AnswerQuestionStream(ctx, projectID, body.Question)
	switch {
	case errors.Is(err, port.ErrNoEmbedding):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "could not embed question"})
	case errors.Is(err, port.ErrNoContent):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "model returned no content"})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	return c.SendStreamWriter(func(w *bufio.Writer) {
		refsJSON, _ := json.Marshal(refs)
		fmt.Fprintf(w, "event: references\ndata: %s\n\n", string(refsJSON))
		w.Flush()

		for {
			select {
			case delta, ok := <-stream:
				if !ok {
					fmt.Fprint(w, "event: done\ndata: {}\n\n")
					w.Flush()
					return
				}
				deltaJSON, _ := json.Marshal(fiber.Map{"delta": delta})
				fmt.Fprintf(w, "event: answer\ndata: %s\n\n", string(deltaJSON))
				w.Flush()
			case <-ctx.Done():
				return
			}
		}
	})
}
