package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/document-qa/internal/config"
	"github.com/kirillkom/document-qa/internal/core/ports"
	"github.com/kirillkom/document-qa/internal/core/usecase"
	"github.com/kirillkom/document-qa/internal/infrastructure/cache"
	"github.com/kirillkom/document-qa/internal/infrastructure/chunking"
	"github.com/kirillkom/document-qa/internal/infrastructure/extract"
	"github.com/kirillkom/document-qa/internal/infrastructure/fetch"
	"github.com/kirillkom/document-qa/internal/infrastructure/index/memory"
	"github.com/kirillkom/document-qa/internal/infrastructure/index/qdrant"
	"github.com/kirillkom/document-qa/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/document-qa/internal/infrastructure/queue/nats"
	"github.com/kirillkom/document-qa/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/document-qa/internal/infrastructure/resilience"
)

// API holds everything the HTTP serving process needs.
type API struct {
	Config config.Config
	Logger *slog.Logger

	RunUC ports.RunService
	Queue ports.EventQueue

	closeFn func()
}

// Worker holds everything the run audit process needs.
type Worker struct {
	Config config.Config
	Logger *slog.Logger

	Queue   ports.EventQueue
	AuditUC ports.RunAuditor

	closeFn func()
}

func NewAPI(_ context.Context, cfg config.Config, logger *slog.Logger) (*API, error) {
	executor := resilience.NewExecutor(resilience.DefaultPolicy())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init event queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
	embedder := ollama.NewEmbedder(ollamaClient)
	parser := ollama.NewParser(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)

	indexes, err := indexFactory(cfg)
	if err != nil {
		queue.Close()
		return nil, err
	}

	splitter, err := chunking.NewSplitter(cfg.ChunkWindow, cfg.ChunkOverlap)
	if err != nil {
		queue.Close()
		return nil, fmt.Errorf("init chunker: %w", err)
	}

	docCache := cache.New(cfg.CacheTTL, cfg.CacheMaxEntries)
	docCache.OnEvict(func(doc *ports.IndexedDocument) {
		dropper, ok := doc.Index.(ports.IndexDropper)
		if !ok {
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := dropper.Drop(ctx); err != nil {
				logger.Warn("index_drop_failed",
					"document_id", doc.Document.ID, "error", err)
			}
		}()
	})

	buildUC := usecase.NewBuildIndexUseCase(
		fetch.New(cfg.FetchTimeout, cfg.FetchMaxBytes),
		extract.New(),
		splitter,
		embedder,
		indexes,
		docCache,
		cfg.EmbedBatchSize,
		cfg.EmbedWorkers,
	)
	answerUC := usecase.NewAnswerQuestionsUseCase(
		parser,
		embedder,
		generator,
		cfg.RAGTopK,
		cfg.AnswerWorkers,
		cfg.RAGRetrievalMode,
	)
	runUC := usecase.NewRunUseCase(buildUC, answerUC, queue, logger)

	return &API{
		Config: cfg,
		Logger: logger,
		RunUC:  runUC,
		Queue:  queue,
		closeFn: func() {
			queue.Close()
		},
	}, nil
}

func NewWorker(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Worker, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewRunRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		closeDB(db)
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("init event queue: %w", err)
	}

	return &Worker{
		Config:  cfg,
		Logger:  logger,
		Queue:   queue,
		AuditUC: usecase.NewRecordRunUseCase(repo),
		closeFn: func() {
			queue.Close()
			closeDB(db)
		},
	}, nil
}

func indexFactory(cfg config.Config) (ports.IndexFactory, error) {
	switch cfg.IndexBackend {
	case "qdrant":
		return qdrant.Factory{
			BaseURL:          cfg.QdrantURL,
			CollectionPrefix: cfg.QdrantPrefix,
		}, nil
	case "memory":
		return memory.Factory{Metric: memory.Metric(cfg.DistanceMetric)}, nil
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.IndexBackend)
	}
}

func closeDB(db *sql.DB) {
	_ = db.Close()
}

func (a *API) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func (w *Worker) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}
