package model

import "time"

// QRCode is the API-side view of a provisioned QR record
type QRCode struct {
	UUID          string    `db:"uuid"`
	ArtifactURL   string    `db:"artifact_url"`
	AccountNumber string    `db:"account_number"`
	FirstName     string    `db:"first_name"`
	LastName      string    `db:"last_name"`
	IsActivated   bool      `db:"is_activated"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}
