package handler

import (
	"context"
	"log/slog"

	"github.com/argentavis/qr-service/internal/activation/domain"
	"github.com/argentavis/qr-service/internal/api/storage"
)

// JobPublisher enqueues provisioning jobs on the queue backend
type JobPublisher interface {
	PublishWithRetry(ctx context.Context, body []byte, contentType string) error
}

// ActivationService is the verification orchestrator behind the activation endpoints
type ActivationService interface {
	Resolve(ctx context.Context, qrUUID, accountNumber string) (domain.ResolvedAccount, error)
	Verify(ctx context.Context, accountNumber, otp string) (domain.ResolvedAccount, error)
}

// HealthChecker reports whether a backing dependency is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger       *slog.Logger
	Storage      *storage.Storage
	Publisher    JobPublisher
	Activation   ActivationService
	DB           HealthChecker
	MaxBatchSize int
}

// QRHandler handles provisioning and QR record read requests
type QRHandler struct {
	logger       *slog.Logger
	storage      *storage.Storage
	publisher    JobPublisher
	maxBatchSize int
}

// NewQRHandler creates a new QRHandler instance
func NewQRHandler(deps *Dependencies) *QRHandler {
	maxBatch := deps.MaxBatchSize
	if maxBatch <= 0 {
		maxBatch = 100
	}

	return &QRHandler{
		logger:       deps.Logger,
		storage:      deps.Storage,
		publisher:    deps.Publisher,
		maxBatchSize: maxBatch,
	}
}

// ActivationHandler handles the resolve/verify activation flow
type ActivationHandler struct {
	logger     *slog.Logger
	activation ActivationService
}

// NewActivationHandler creates a new ActivationHandler instance
func NewActivationHandler(deps *Dependencies) *ActivationHandler {
	return &ActivationHandler{
		logger:     deps.Logger,
		activation: deps.Activation,
	}
}
