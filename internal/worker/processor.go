package worker

import (
	"context"
	"fmt"
	"log/slog"

	workerdomain "github.com/argentavis/qr-service/internal/worker/domain"
	"github.com/google/uuid"
)

// processJob executes one provisioning job: mint a fresh identifier, render
// its QR artifact, upload it, persist the record. The insert is deliberately
// the last step so a failure anywhere leaves no partial record behind.
func (w *Worker) processJob(ctx context.Context, msg *workerdomain.JobMessage) error {
	w.logger.Info("Processing provisioning job",
		slog.String("job_id", msg.JobID),
		slog.String("worker_id", w.workerID),
	)

	if w.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.jobTimeout)
		defer cancel()
	}

	qrUUID := uuid.New().String()
	content := fmt.Sprintf("%s/%s", w.qrBaseURL, qrUUID)

	png, err := w.generator.GeneratePNG(content)
	if err != nil {
		return fmt.Errorf("failed to generate artifact: %w", err)
	}

	key := fmt.Sprintf("qr/%s.png", qrUUID)
	artifactURL, err := w.artifacts.Upload(ctx, key, png, "image/png")
	if err != nil {
		return fmt.Errorf("failed to upload artifact: %w", err)
	}

	if err := w.storage.CreateQRCode(ctx, qrUUID, artifactURL); err != nil {
		return fmt.Errorf("failed to persist qr record: %w", err)
	}

	w.logger.Info("QR code provisioned",
		slog.String("job_id", msg.JobID),
		slog.String("uuid", qrUUID),
		slog.String("artifact_url", artifactURL),
	)

	return nil
}
