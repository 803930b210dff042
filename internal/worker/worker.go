// Package worker drains the provisioning queue: each job produces one QR
// artifact record. Jobs are interchangeable and carry no payload, so
// at-least-once delivery is safe: a duplicate delivery merely yields one
// extra, harmless record with its own fresh identifier.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/argentavis/qr-service/internal/worker/domain"
	"github.com/argentavis/qr-service/shared/rabbitmq"
	"github.com/google/uuid"
)

// ArtifactGenerator renders the QR image for a canonical URL
type ArtifactGenerator interface {
	GeneratePNG(content string) ([]byte, error)
}

// ArtifactStore uploads an artifact and returns its durable URL
type ArtifactStore interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// RecordCreator persists a provisioned QR record
type RecordCreator interface {
	CreateQRCode(ctx context.Context, uuid, artifactURL string) error
}

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	RabbitClient  *rabbitmq.Client
	Storage       RecordCreator
	Artifacts     ArtifactStore
	Generator     ArtifactGenerator
	QRBaseURL     string
	Concurrency   int
	PrefetchCount int
	JobTimeout    time.Duration
}

// Worker represents the background provisioning worker
type Worker struct {
	logger        *slog.Logger
	rabbitClient  *rabbitmq.Client
	storage       RecordCreator
	artifacts     ArtifactStore
	generator     ArtifactGenerator
	qrBaseURL     string
	concurrency   int
	prefetchCount int
	jobTimeout    time.Duration
	workerID      string
	jobsChan      chan *domain.JobMessage
	wg            sync.WaitGroup
	stopChan      chan struct{}
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	prefetch := cfg.PrefetchCount
	if prefetch <= 0 {
		prefetch = concurrency
	}

	return &Worker{
		logger:        cfg.Logger,
		rabbitClient:  cfg.RabbitClient,
		storage:       cfg.Storage,
		artifacts:     cfg.Artifacts,
		generator:     cfg.Generator,
		qrBaseURL:     cfg.QRBaseURL,
		concurrency:   concurrency,
		prefetchCount: prefetch,
		jobTimeout:    cfg.JobTimeout,
		workerID:      uuid.New().String(),
		jobsChan:      make(chan *domain.JobMessage),
		stopChan:      make(chan struct{}),
	}
}

// Start begins consuming and processing provisioning jobs. It blocks until
// the context is canceled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("job_timeout", w.jobTimeout),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return err
	}

	w.spawnWorkerPool(ctx)
	w.startMessageDispatcher(ctx, deliveries)

	return nil
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}
