package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"f1gpt/config"
	"f1gpt/loader/internal"
	"f1gpt/loader/service"
	"f1gpt/model"
	"f1gpt/store"

	"github.com/joho/godotenv"
)

const sourcesFile = "sources.yaml"

func init() {
	_ = godotenv.Load()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	sources, err := config.LoadSources(sourcesFile)
	if err != nil {
		log.Fatal("error reading source list: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.NewPostgresStore(ctx, cfg.ConnString(), cfg.Namespace, cfg.Collection)
	if err != nil {
		log.Fatal("error connecting to Postgres: ", err)
	}
	defer pool.Close()

	// Schema conflicts are a configuration error; refuse to ingest anything.
	if err := pool.EnsureCollection(ctx, cfg.Dimension, cfg.Metric); err != nil {
		log.Fatal("error ensuring collection: ", err)
	}

	embedder := model.NewOpenAIEmbedder(model.EmbedderConfig{
		BaseURL: cfg.MistralBaseURL,
		APIKey:  cfg.MistralAPIKey,
		Model:   cfg.EmbedModel,
		Timeout: cfg.RequestTimeout,
	})
	scraper := internal.NewPageScraper(cfg.RequestTimeout)

	summary := service.New(scraper, embedder, pool, sources).Run(ctx)

	if summary.AllFailed() {
		log.Println("every source URL failed")
		os.Exit(1)
	}
}
