package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/argentavis/qr-service/internal/api/model"
	"github.com/argentavis/qr-service/shared/postgresql"
	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when no QR record matches the lookup
var ErrNotFound = errors.New("qr code not found")

type Storage struct {
	db *sqlx.DB
}

func NewStorage(pg *postgresql.Client) *Storage {
	return &Storage{
		db: pg.GetDB(),
	}
}

func (s *Storage) GetByUUID(ctx context.Context, uuid string) (*model.QRCode, error) {
	query := `
		SELECT uuid, artifact_url, account_number, first_name, last_name,
		       is_activated, created_at, updated_at
		FROM qr_codes
		WHERE uuid = $1
	`

	var qr model.QRCode
	if err := s.db.GetContext(ctx, &qr, query, uuid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get qr code: %w", err)
	}

	return &qr, nil
}

type QRFilter struct {
	Activated *bool
	PageSize  int
	Cursor    *QRCursor
}

type QRCursor struct {
	CreatedAt time.Time
	UUID      string
}

func (s *Storage) ListQRCodes(ctx context.Context, filter QRFilter) ([]model.QRCode, error) {
	query := `
		SELECT uuid, artifact_url, account_number, first_name, last_name,
		       is_activated, created_at, updated_at
		FROM qr_codes
		WHERE 1=1
	`
	args := []interface{}{}
	argIdx := 1

	if filter.Activated != nil {
		query += fmt.Sprintf(" AND is_activated = $%d", argIdx)
		args = append(args, *filter.Activated)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, uuid) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.UUID)
		argIdx += 2
	}

	query += " ORDER BY created_at DESC, uuid DESC"

	// Fetch one extra to determine if there are more results
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var qrCodes []model.QRCode
	if err := s.db.SelectContext(ctx, &qrCodes, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list qr codes: %w", err)
	}

	return qrCodes, nil
}
