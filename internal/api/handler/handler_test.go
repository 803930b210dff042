package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/argentavis/qr-service/internal/activation/domain"
	"github.com/argentavis/qr-service/internal/api/storage"
	workerdomain "github.com/argentavis/qr-service/internal/worker/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubPublisher struct {
	mu       sync.Mutex
	messages [][]byte
	err      error
}

func (p *stubPublisher) PublishWithRetry(_ context.Context, body []byte, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, body)
	return nil
}

type stubActivation struct {
	resolveAccount domain.ResolvedAccount
	resolveErr     error
	verifyAccount  domain.ResolvedAccount
	verifyErr      error

	gotQRUUID  string
	gotAccount string
	gotOTP     string
}

func (s *stubActivation) Resolve(_ context.Context, qrUUID, accountNumber string) (domain.ResolvedAccount, error) {
	s.gotQRUUID = qrUUID
	s.gotAccount = accountNumber
	return s.resolveAccount, s.resolveErr
}

func (s *stubActivation) Verify(_ context.Context, accountNumber, otp string) (domain.ResolvedAccount, error) {
	s.gotAccount = accountNumber
	s.gotOTP = otp
	return s.verifyAccount, s.verifyErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(127)}))
}

func postJSON(t *testing.T, handlerFunc gin.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	c.Request.Header.Set("Content-Type", "application/json")

	handlerFunc(c)
	return w
}

func TestProvision_EnqueuesRequestedCount(t *testing.T) {
	publisher := &stubPublisher{}
	h := NewQRHandler(&Dependencies{
		Logger:       testLogger(),
		Publisher:    publisher,
		MaxBatchSize: 100,
	})

	w := postJSON(t, h.Provision, gin.H{"count": 5})

	require.Equal(t, http.StatusAccepted, w.Code)

	var resp struct {
		Enqueued int `json:"enqueued"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 5, resp.Enqueued)
	require.Len(t, publisher.messages, 5)

	// Every job carries a distinct id
	seen := make(map[string]bool)
	for _, raw := range publisher.messages {
		var msg workerdomain.JobMessage
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.NotEmpty(t, msg.JobID)
		assert.False(t, seen[msg.JobID])
		seen[msg.JobID] = true
	}
}

func TestProvision_ClampsToMaxBatchSize(t *testing.T) {
	publisher := &stubPublisher{}
	h := NewQRHandler(&Dependencies{
		Logger:       testLogger(),
		Publisher:    publisher,
		MaxBatchSize: 3,
	})

	w := postJSON(t, h.Provision, gin.H{"count": 50})

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Len(t, publisher.messages, 3)
}

func TestProvision_RejectsInvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{name: "missing count", body: gin.H{}},
		{name: "zero count", body: gin.H{"count": 0}},
		{name: "negative count", body: gin.H{"count": -2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publisher := &stubPublisher{}
			h := NewQRHandler(&Dependencies{
				Logger:    testLogger(),
				Publisher: publisher,
			})

			w := postJSON(t, h.Provision, tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, publisher.messages)
		})
	}
}

func TestProvision_ReportsPartialEnqueue(t *testing.T) {
	publisher := &stubPublisher{err: errors.New("broker unavailable")}
	h := NewQRHandler(&Dependencies{
		Logger:    testLogger(),
		Publisher: publisher,
	})

	w := postJSON(t, h.Provision, gin.H{"count": 4})

	require.Equal(t, http.StatusAccepted, w.Code)

	var resp struct {
		Enqueued int `json:"enqueued"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Enqueued)
}

func TestResolve_ReturnsResolvedAccount(t *testing.T) {
	svc := &stubActivation{resolveAccount: domain.ResolvedAccount{
		AccountNumber: "0123456789",
		AccountName:   "Ada Lovelace",
	}}
	h := NewActivationHandler(&Dependencies{Logger: testLogger(), Activation: svc})

	w := postJSON(t, h.Resolve, gin.H{
		"qr_uuid":        "7b4a3e9c-1f2d-4c5b-9a8e-6d7f8a9b0c1d",
		"account_number": "0123456789",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "7b4a3e9c-1f2d-4c5b-9a8e-6d7f8a9b0c1d", svc.gotQRUUID)
	assert.Equal(t, "0123456789", svc.gotAccount)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Ada Lovelace", resp["account_name"])
}

func TestResolve_RejectsMalformedUUID(t *testing.T) {
	h := NewActivationHandler(&Dependencies{Logger: testLogger(), Activation: &stubActivation{}})

	w := postJSON(t, h.Resolve, gin.H{
		"qr_uuid":        "not-a-uuid",
		"account_number": "0123456789",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResolve_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "record not found", err: domain.ErrRecordNotFound, wantStatus: http.StatusNotFound},
		{name: "already activated", err: domain.ErrAlreadyActivated, wantStatus: http.StatusConflict},
		{name: "account in use", err: domain.ErrAccountInUse, wantStatus: http.StatusConflict},
		{name: "provider failure", err: domain.NewProviderError("paystack", errors.New("timeout")), wantStatus: http.StatusBadGateway},
		{name: "unexpected", err: errors.New("db down"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubActivation{resolveErr: tt.err}
			h := NewActivationHandler(&Dependencies{Logger: testLogger(), Activation: svc})

			w := postJSON(t, h.Resolve, gin.H{
				"qr_uuid":        "7b4a3e9c-1f2d-4c5b-9a8e-6d7f8a9b0c1d",
				"account_number": "0123456789",
			})

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestVerify_ReturnsResolvedAccount(t *testing.T) {
	svc := &stubActivation{verifyAccount: domain.ResolvedAccount{
		AccountNumber: "0123456789",
		AccountName:   "Ada Lovelace",
	}}
	h := NewActivationHandler(&Dependencies{Logger: testLogger(), Activation: svc})

	w := postJSON(t, h.Verify, gin.H{
		"account_number": "0123456789",
		"otp":            "482915",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0123456789", svc.gotAccount)
	assert.Equal(t, "482915", svc.gotOTP)
}

func TestVerify_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "otp not found", err: domain.ErrOTPNotFound, wantStatus: http.StatusNotFound},
		{name: "incorrect otp", err: domain.ErrIncorrectOTP, wantStatus: http.StatusBadRequest},
		{name: "too many attempts", err: domain.ErrTooManyAttempts, wantStatus: http.StatusTooManyRequests},
		{name: "unexpected", err: errors.New("cache down"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubActivation{verifyErr: tt.err}
			h := NewActivationHandler(&Dependencies{Logger: testLogger(), Activation: svc})

			w := postJSON(t, h.Verify, gin.H{
				"account_number": "0123456789",
				"otp":            "000000",
			})

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestVerify_RejectsMissingFields(t *testing.T) {
	h := NewActivationHandler(&Dependencies{Logger: testLogger(), Activation: &stubActivation{}})

	w := postJSON(t, h.Verify, gin.H{"account_number": "0123456789"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQRCursorRoundTrip(t *testing.T) {
	original := &storage.QRCursor{
		CreatedAt: time.Unix(0, 1714482000123456789),
		UUID:      "7b4a3e9c-1f2d-4c5b-9a8e-6d7f8a9b0c1d",
	}

	encoded := EncodeQRCursor(original)
	decoded, err := DecodeQRCursor(encoded)
	require.NoError(t, err)
	require.NotNil(t, decoded)

	assert.Equal(t, original.UUID, decoded.UUID)
	assert.Equal(t, original.CreatedAt.UnixNano(), decoded.CreatedAt.UnixNano())
}

func TestDecodeQRCursor_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		cursor string
	}{
		{name: "not base64", cursor: "%%%"},
		{name: "missing separator", cursor: "aGVsbG8="},
		{name: "non-numeric timestamp", cursor: "YWJjfGRlZg=="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeQRCursor(tt.cursor)
			assert.Error(t, err)
		})
	}
}

func TestDecodeQRCursor_Empty(t *testing.T) {
	decoded, err := DecodeQRCursor("")
	require.NoError(t, err)
	assert.Nil(t, decoded)
}
