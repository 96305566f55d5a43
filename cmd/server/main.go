package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"

	"repomind/internal/adapter/ai"
	"repomind/internal/adapter/loader"
	"repomind/internal/adapter/repo"
	"repomind/internal/adapter/store"
	"repomind/internal/domain"
	"repomind/internal/handler"
	"repomind/internal/mcp"
	"repomind/internal/middleware"
	"repomind/internal/port"
	"repomind/internal/service"
	"repomind/pkg/config"

	_ "github.com/lib/pq"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	slog.Info("🚀 Starting RepoMind",
		"port", cfg.Port,
		"ai_provider", cfg.AIProvider,
		"mcp_enabled", cfg.MCPEnabled,
	)

	// ── Database ─────────────────────────────────────────────────────────
	pgStore, err := store.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pgStore.Close()

	if err := pgStore.Migrate(context.Background(), cfg.EmbeddingDimension); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	vectorStore := store.NewVectorStore(pgStore, cfg.EmbeddingDimension)

	// ── Adapters ─────────────────────────────────────────────────────────
	aiProvider, err := buildAIProvider(cfg)
	if err != nil {
		slog.Error("failed to build AI provider", "error", err)
		os.Exit(1)
	}

	providers := port.RepoProviderRegistry{
		domain.ProviderGitHub: repo.NewGitHubProvider(""),
		domain.ProviderGitLab: repo.NewGitLabProvider(""),
	}

	gitLoader := loader.NewGitTreeLoader(cfg.CloneBasePath)

	// ── Services ─────────────────────────────────────────────────────────
	syncService := service.NewSyncService(pgStore, pgStore, providers, aiProvider, cfg.SyncWorkers)
	indexService := service.NewIndexService(gitLoader, aiProvider, vectorStore, cfg.IndexWorkers)
	qaService := service.NewQAService(aiProvider, vectorStore, pgStore)

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", middleware.AccountHeader},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))
	app.Use(middleware.AccountContext())
	app.Use(middleware.AuditMiddleware(pgStore))

	// Health check
	app.Get("/api/v1/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"app":     cfg.AppName,
			"version": "1.0.0",
		})
	})

	// ── API Routes ───────────────────────────────────────────────────────
	api := app.Group("/api/v1")

	jobTracker := handler.NewJobTracker()

	projectHandler := handler.NewProjectHandler(pgStore, indexService, syncService, jobTracker)
	projectHandler.Register(api)

	commitHandler := handler.NewCommitHandler(pgStore, syncService, jobTracker)
	commitHandler.Register(api)

	qaHandler := handler.NewQAHandler(qaService)
	qaHandler.Register(api)

	questionHandler := handler.NewQuestionHandler(qaService)
	questionHandler.Register(api)

	jobsHandler := handler.NewJobsHandler(jobTracker)
	jobsHandler.Register(api)

	// ── MCP Server (separate port) ───────────────────────────────────────
	if cfg.MCPEnabled {
		mcpServer := mcp.NewServer(qaService, pgStore, pgStore, cfg.MCPPort)
		go func() {
			if err := mcpServer.Start(); err != nil {
				slog.Error("MCP server failed", "error", err)
			}
		}()
	}

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("🌐 Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// buildAIProvider selects the summarization/embedding backend from config.
func buildAIProvider(cfg *config.Config) (port.AIProvider, error) {
	if cfg.AIProvider == "openai" {
		return ai.NewOpenAIProvider(ai.OpenAIConfig{
			APIKey:         cfg.OpenAIAPIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			ChatModel:      cfg.OpenAIChatModel,
			EmbeddingModel: cfg.OpenAIEmbeddingModel,
		})
	}
	return ai.NewOllamaProvider(
		ai.OllamaEndpointConfig{
			BaseURL: cfg.OllamaEmbedURL,
			Model:   cfg.OllamaEmbedModel,
			Token:   cfg.OllamaEmbedToken,
		},
		ai.OllamaEndpointConfig{
			BaseURL: cfg.OllamaChatURL,
			Model:   cfg.OllamaChatModel,
			Token:   cfg.OllamaChatToken,
		},
	), nil
}
