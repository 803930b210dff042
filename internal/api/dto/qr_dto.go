package dto

// ProvisionRequest asks for a batch of anonymous QR codes
type ProvisionRequest struct {
	Count int `json:"count" binding:"required,min=1"`
}

// ProvisionResponse reports how many jobs were actually enqueued
type ProvisionResponse struct {
	Enqueued int `json:"enqueued"`
}

// ResolveRequest starts the activation flow for a QR code
type ResolveRequest struct {
	QRUUID        string `json:"qr_uuid" binding:"required,uuid"`
	AccountNumber string `json:"account_number" binding:"required"`
}

// VerifyRequest confirms the one-time code for an account
type VerifyRequest struct {
	AccountNumber string `json:"account_number" binding:"required"`
	OTP           string `json:"otp" binding:"required"`
}

// ListQRCodesRequest filters and paginates the QR record listing
type ListQRCodesRequest struct {
	Activated *bool  `form:"activated"`
	PageSize  int    `form:"page_size"`
	Cursor    string `form:"cursor"`
}

// ListQRCodesResponse is a page of QR records
type ListQRCodesResponse struct {
	QRCodes    []QRCodeDTO `json:"qr_codes"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// QRCodeDTO is the wire representation of a QR record
type QRCodeDTO struct {
	UUID          string `json:"uuid"`
	ArtifactURL   string `json:"artifact_url"`
	AccountNumber string `json:"account_number,omitempty"`
	FirstName     string `json:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
	IsActivated   bool   `json:"is_activated"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}
