package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// Storage handles QR record persistence for the provisioning worker
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// CreateQRCode persists a freshly provisioned, unactivated QR record.
// This is the last step of a provisioning job: a failure earlier in the
// pipeline leaves no partial row behind.
func (s *Storage) CreateQRCode(ctx context.Context, uuid, artifactURL string) error {
	query := `
		INSERT INTO qr_codes (uuid, artifact_url, is_activated, created_at, updated_at)
		VALUES ($1, $2, FALSE, NOW(), NOW())
	`

	if _, err := s.db.ExecContext(ctx, query, uuid, artifactURL); err != nil {
		return fmt.Errorf("failed to create qr code: %w", err)
	}

	s.logger.Info("QR code record created",
		slog.String("uuid", uuid),
		slog.String("artifact_url", artifactURL),
	)

	return nil
}
