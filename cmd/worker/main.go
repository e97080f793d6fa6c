package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kirillkom/document-qa/internal/bootstrap"
	"github.com/kirillkom/document-qa/internal/config"
	"github.com/kirillkom/document-qa/internal/core/domain"
	"github.com/kirillkom/document-qa/internal/observability/logging"
	"github.com/kirillkom/document-qa/internal/observability/metrics"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := logging.NewJSONLogger("worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewWorker(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		logger.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("worker_metrics_server_error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeRunCompleted(ctx, func(handlerCtx context.Context, record domain.RunRecord) error {
		auditCtx, cancel := context.WithTimeout(handlerCtx, 30*time.Second)
		defer cancel()

		workerMetrics.StartAudit()
		start := time.Now()
		auditErr := app.AuditUC.RecordRun(auditCtx, record)
		workerMetrics.FinishAudit("worker", time.Since(start), auditErr)
		workerMetrics.ObserveEventLag("worker", time.Since(record.CreatedAt))

		if auditErr != nil {
			logger.Error("run_audit_failed", "run_id", record.ID, "error", auditErr)
		}
		return auditErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
