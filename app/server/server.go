package server

import (
	"context"
	"log/slog"

	"f1gpt/app/agent"
	"f1gpt/app/api"
	"f1gpt/app/middleware"
	"f1gpt/config"
	"f1gpt/model"
	"f1gpt/store"

	"github.com/gofiber/fiber/v2"
)

var fiberConfig = fiber.Config{
	ErrorHandler: api.ErrorHandler,
}

type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *store.PostgresStore
	app    *fiber.App
}

func NewServer(cfg *config.Config) *Server {
	return &Server{
		cfg:    cfg,
		logger: slog.Default(),
	}
}

// Run connects the process-wide client handles, verifies the collection
// schema once, registers the routes and serves until Stop.
func (s *Server) Run() error {
	ctx := context.Background()

	pool, err := store.NewPostgresStore(ctx, s.cfg.ConnString(), s.cfg.Namespace, s.cfg.Collection)
	if err != nil {
		return err
	}
	s.store = pool

	if err := pool.EnsureCollection(ctx, s.cfg.Dimension, s.cfg.Metric); err != nil {
		return err
	}

	embedder := model.NewOpenAIEmbedder(model.EmbedderConfig{
		BaseURL: s.cfg.MistralBaseURL,
		APIKey:  s.cfg.MistralAPIKey,
		Model:   s.cfg.EmbedModel,
		Timeout: s.cfg.RequestTimeout,
	})
	llm := agent.New(agent.Config{
		BaseURL: s.cfg.GroqBaseURL,
		APIKey:  s.cfg.GroqAPIKey,
		Model:   s.cfg.LLMModel,
	})

	var (
		app          = fiber.New(fiberConfig)
		checkHandler = api.NewCheckHandler()
		chatHandler  = api.NewChatHandler(embedder, pool, llm, s.cfg.RequestTimeout)
		check        = app.Group("/check")
	)
	s.app = app

	app.Use(middleware.RequestLogger("/assets"))

	check.Get("/healthy", checkHandler.HandleHealthy)
	app.Post("/api/chat", chatHandler.HandleChat)
	app.Static("/", "./web")

	s.logger.Info("server listening", "addr", s.cfg.ServerAddr)
	return app.Listen(s.cfg.ServerAddr)
}

func (s *Server) Stop() {
	if s.app != nil {
		if err := s.app.Shutdown(); err != nil {
			s.logger.Error("error shutting down server", "error", err)
		}
	}
	if s.store != nil {
		s.store.Close()
	}
	s.logger.Info("server stopped")
}
