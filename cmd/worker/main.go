package main

import (
	"context"
	"log"
	"time"

	"litnotes/internal/activities"
	"litnotes/internal/config"
	"litnotes/internal/embedding"
	"litnotes/internal/logging"
	"litnotes/internal/storage"
	"litnotes/internal/workflows"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		logger.Fatal("dial temporal", zap.Error(err))
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := storage.NewDB(ctx, cfg.StorageURL, cfg.StorageKey)
	if err != nil {
		logger.Fatal("connect storage", zap.Error(err))
	}
	defer db.Close()
	if err := db.EnsureSchema(ctx, cfg.EmbedDim); err != nil {
		logger.Fatal("apply schema", zap.Error(err))
	}

	embedder, err := embedding.FromConfig(cfg)
	if err != nil {
		logger.Fatal("configure embedder", zap.Error(err))
	}

	embRepo := storage.NewEmbeddingRepo(db)
	pipeline := embedding.NewPipeline(embRepo, embedder, embedding.PipelineConfig{
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		Logger:       logger.Named("embedding"),
	})

	w := worker.New(c, cfg.TemporalTaskQueue, worker.Options{})
	workflows.Register(w)
	activities.Register(w, activities.New(storage.NewNoteRepo(db), embRepo, pipeline, logger.Named("activities")))

	logger.Info("litnotes worker listening",
		zap.String("temporal", cfg.TemporalAddress),
		zap.String("queue", cfg.TemporalTaskQueue),
		zap.String("embed_model", embedder.Model()),
	)
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Fatal("worker stopped", zap.Error(err))
	}
}
