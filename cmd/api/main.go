package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"litnotes/internal/ai"
	"litnotes/internal/api"
	"litnotes/internal/config"
	"litnotes/internal/embedding"
	"litnotes/internal/logging"
	"litnotes/internal/notes"
	"litnotes/internal/providers"
	"litnotes/internal/storage"
	"litnotes/internal/vector"
	"litnotes/internal/workflows"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := storage.NewDB(startCtx, cfg.StorageURL, cfg.StorageKey)
	if err != nil {
		cancel()
		logger.Fatal("connect storage", zap.Error(err))
	}
	defer db.Close()
	if err := db.EnsureSchema(startCtx, cfg.EmbedDim); err != nil {
		cancel()
		logger.Fatal("apply schema", zap.Error(err))
	}
	cancel()

	noteRepo := storage.NewNoteRepo(db)
	embRepo := storage.NewEmbeddingRepo(db)

	embedder, err := embedding.FromConfig(cfg)
	if err != nil {
		logger.Fatal("configure embedder", zap.Error(err))
	}
	pipeline := embedding.NewPipeline(embRepo, embedder, embedding.PipelineConfig{
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		Concurrency:  cfg.IndexConcurrency,
		Logger:       logger.Named("embedding"),
	})

	ps, err := providers.FromConfig(cfg, logger.Named("providers"))
	if err != nil {
		logger.Fatal("configure providers", zap.Error(err))
	}
	callLog := storage.NewGenerationLogRepo(db, logger.Named("generation_log"))
	gen := ai.NewService(ai.Config{
		DefaultProvider: cfg.DefaultAIProvider,
		Logger:          logger.Named("generation"),
		Recorder:        callLog,
	})
	for _, p := range ps {
		gen.RegisterProvider(p)
	}
	if len(ps) == 0 {
		logger.Warn("no generation providers configured")
	}

	var indexer notes.Indexer = notes.InlineIndexer{Pipeline: pipeline}
	var backfiller api.Backfiller
	if cfg.IndexMode == config.IndexModeTemporal {
		tc, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress})
		if err != nil {
			logger.Fatal("dial temporal", zap.Error(err))
		}
		defer tc.Close()
		sched := workflows.NewScheduler(tc, cfg.TemporalTaskQueue, cfg.IndexConcurrency, cfg.BackfillMaxChildren)
		indexer = sched
		backfiller = sched
	}

	svc := notes.NewService(notes.Deps{
		Notes:     noteRepo,
		Indexer:   indexer,
		Embedder:  pipeline,
		Searcher:  vector.NewSearcher(db.Pool),
		Generator: gen,
		Chunks:    embRepo,
		Logger:    logger.Named("notes"),
	}, notes.SearchConfig{
		Threshold:  cfg.SearchThreshold,
		MatchCount: cfg.SearchMatchCount,
		Limit:      cfg.SearchLimit,
	})

	h := api.NewServer(api.Deps{
		Notes:      svc,
		Generation: gen,
		Backfiller: backfiller,
		CallLog:    callLog,
		DB:         db,
		Logger:     logger.Named("api"),
	})
	srv := &http.Server{
		Addr:              cfg.APIAddr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("litnotes api listening",
		zap.String("addr", cfg.APIAddr),
		zap.Strings("providers", gen.AvailableProviders()),
		zap.String("current_provider", gen.CurrentProvider()),
		zap.String("index_mode", cfg.IndexMode),
		zap.String("embed_model", embedder.Model()),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("serve", zap.Error(err))
	}
}
