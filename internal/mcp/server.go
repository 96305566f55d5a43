package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"repomind/internal/port"
	"repomind/internal/service"
)

// Server exposes the knowledge base to external AI agents over the Model
// Context Protocol. It runs next to the HTTP API on its own port.
type Server struct {
	qa       *service.QAService
	projects port.ProjectStore
	commits  port.CommitStore
	port     string
}

// NewServer creates a new MCP server.
func NewServer(qa *service.QAService, projects port.ProjectStore, commits port.CommitStore, port string) *Server {
	return &Server{qa: qa, projects: projects, commits: commits, port: port}
}

// Start registers the tools and serves MCP over SSE on the configured port.
func (s *Server) Start() error {
	srv := mcpserver.NewMCPServer("repomind", "1.0.0")

	srv.AddTool(mcp.Tool{
		Name:        "ask_question",
		Description: "Ask a question about a project's codebase. The answer is grounded in indexed source files and cites the files it was derived from.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"project_id": map[string]interface{}{
					"type":        "string",
					"description": "Project ID",
				},
				"question": map[string]interface{}{
					"type":        "string",
					"description": "Natural-language question about the codebase",
				},
			},
			Required: []string{"project_id", "question"},
		},
	}, s.handleAskQuestion)

	srv.AddTool(mcp.Tool{
		Name:        "list_commits",
		Description: "List stored commits for a project, newest first, each with an AI-generated summary of its changes.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"project_id": map[string]interface{}{
					"type":        "string",
					"description": "Project ID",
				},
			},
			Required: []string{"project_id"},
		},
	}, s.handleListCommits)

	srv.AddTool(mcp.Tool{
		Name:        "list_projects",
		Description: "List registered projects with their repository URLs and providers.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleListProjects)

	sse := mcpserver.NewSSEServer(srv)
	slog.Info("MCP server starting", "port", s.port)
	return sse.Start(":" + s.port)
}

func (s *Server) handleAskQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := request.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError("project_id argument is required and must be a string"), nil
	}
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question argument is required and must be a string"), nil
	}

	answer, refs, err := s.qa.AnswerQuestion(ctx, projectID, question)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("question answering failed: %v", err)), nil
	}

	response := map[string]interface{}{
		"answer":     answer,
		"references": refs,
	}
	responseJSON, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}

func (s *Server) handleListCommits(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := request.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError("project_id argument is required and must be a string"), nil
	}

	commits, err := s.commits.ListCommits(ctx, projectID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list commits: %v", err)), nil
	}

	responseJSON, err := json.Marshal(map[string]interface{}{
		"commits": commits,
		"count":   len(commits),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}

func (s *Server) handleListProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := s.projects.ListProjects(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list projects: %v", err)), nil
	}

	responseJSON, err := json.Marshal(map[string]interface{}{
		"projects": projects,
		"count":    len(projects),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
