package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/argentavis/qr-service/internal/activation/domain"
	"github.com/jmoiron/sqlx"
)

// Storage handles QR record persistence for the activation flow
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

// GetByUUID returns the QR record with the given identifier
func (s *Storage) GetByUUID(ctx context.Context, uuid string) (*domain.QRCode, error) {
	query := `
		SELECT uuid, artifact_url, account_number, first_name, last_name,
		       is_activated, created_at, updated_at
		FROM qr_codes
		WHERE uuid = $1
	`

	var qr domain.QRCode
	if err := s.db.GetContext(ctx, &qr, query, uuid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get qr code: %w", err)
	}

	return &qr, nil
}

// AccountHasActivatedRecord reports whether the account number is already
// bound to an activated QR record
func (s *Storage) AccountHasActivatedRecord(ctx context.Context, accountNumber string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM qr_codes
			WHERE account_number = $1 AND is_activated
		)
	`

	var exists bool
	if err := s.db.GetContext(ctx, &exists, query, accountNumber); err != nil {
		return false, fmt.Errorf("failed to check account binding: %w", err)
	}

	return exists, nil
}

// BindAccount provisionally binds an account number to an unactivated QR
// record, releasing any earlier provisional binding the account held on a
// different record. Both statements run in one transaction.
func (s *Storage) BindAccount(ctx context.Context, uuid, accountNumber string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	releaseQuery := `
		UPDATE qr_codes
		SET account_number = '', updated_at = NOW()
		WHERE account_number = $1 AND uuid <> $2 AND is_activated = FALSE
	`
	if _, err := tx.ExecContext(ctx, releaseQuery, accountNumber, uuid); err != nil {
		return fmt.Errorf("failed to release previous binding: %w", err)
	}

	bindQuery := `
		UPDATE qr_codes
		SET account_number = $2, updated_at = NOW()
		WHERE uuid = $1 AND is_activated = FALSE
	`
	result, err := tx.ExecContext(ctx, bindQuery, uuid, accountNumber)
	if err != nil {
		return fmt.Errorf("failed to bind account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrAlreadyActivated
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit binding: %w", err)
	}

	s.logger.Info("Account provisionally bound to QR code",
		slog.String("uuid", uuid),
		slog.String("account_number", accountNumber),
	)

	return nil
}

// Activate flips the activation flag for the record bound to the account
// number and stores the holder's name. The read-check-then-write is a single
// conditional UPDATE: of two concurrent calls for the same account at most
// one can succeed. Returns the activated record's uuid, or ErrRecordNotFound
// when no unactivated record is bound to the account.
func (s *Storage) Activate(ctx context.Context, accountNumber, firstName, lastName string) (string, error) {
	query := `
		UPDATE qr_codes
		SET is_activated = TRUE,
		    first_name = $2,
		    last_name = $3,
		    updated_at = NOW()
		WHERE account_number = $1
		  AND is_activated = FALSE
		  AND NOT EXISTS (
			SELECT 1 FROM qr_codes other
			WHERE other.account_number = $1 AND other.is_activated
		  )
		RETURNING uuid
	`

	var uuid string
	err := s.db.QueryRowContext(ctx, query, accountNumber, firstName, lastName).Scan(&uuid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrRecordNotFound
		}
		return "", fmt.Errorf("failed to activate qr code: %w", err)
	}

	s.logger.Info("QR code activated",
		slog.String("uuid", uuid),
		slog.String("account_number", accountNumber),
	)

	return uuid, nil
}
